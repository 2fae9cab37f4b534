package http

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"time"

	"sopdash/internal/core"
	"sopdash/internal/events"
	"sopdash/internal/log"
)

func (s *Server) handleExpenseList(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}

	if _, err := s.stores.Expenses.FetchAll(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "Expense list fetch failed",
			log.FieldOperation, log.OpList,
			log.FieldEntity, "expenses",
			log.FieldError, err)
	}

	snap := s.stores.Expenses.Snapshot()
	view := listView[expenseRow]{Err: snap.Err, Loading: snap.Loading}
	for _, e := range snap.Items {
		view.Rows = append(view.Rows, toExpenseRow(e))
	}
	s.render(w, r, "expenses.html", view)
}

// expenseDetailView is the modal projection: the row fields plus coverage
// totals and the embedded commitments.
type expenseDetailView struct {
	expenseRow
	CreatedAt string
	// ExpiresAtInput feeds the date input on the update form, which wants
	// ISO format rather than the display format. TypeValue and AmountInput
	// are the raw codes for the select and amount inputs.
	ExpiresAtInput string
	TypeValue      string
	AmountInput    string
	Committed      string
	Remaining      string
	Commitments    []commitmentRow
}

func (s *Server) handleExpenseDetail(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}

	id, ok := parseID(r.URL.Query().Get("id"))
	if !ok {
		BadRequestError("Identificador de despesa inválido").Write(w)
		return
	}

	key := "expense:" + r.URL.Query().Get("id")
	if html, found := s.fragments.Get(key); found {
		NewResponse().BodyHTML(html).Write(w)
		return
	}

	item, err := s.stores.ExpenseDetail.Fetch(r.Context(), id)
	if err != nil {
		slog.WarnContext(r.Context(), "Expense detail fetch failed",
			log.FieldOperation, log.OpRead,
			log.FieldExpenseID, id,
			log.FieldError, err)
		ErrorResponse(errorStatus(err), apiMessage(err, "Erro ao buscar despesa")).Write(w)
		return
	}

	view := expenseDetailView{
		expenseRow:  toExpenseRow(item),
		CreatedAt:   formatDate(item.CreatedAt),
		Committed:   item.Committed().Format(),
		Remaining:   item.RemainingToCommit().Format(),
		TypeValue:   string(item.Type),
		AmountInput: item.Amount.Decimal.String(),
	}
	if !item.ExpiresAt.IsZero() {
		view.ExpiresAtInput = item.ExpiresAt.Format("2006-01-02")
	}
	for _, c := range item.Commitments {
		view.Commitments = append(view.Commitments, toCommitmentRow(c))
	}

	var buf bytes.Buffer
	if s.templates == nil || s.templates.ExecuteTemplate(&buf, "expense_detail.html", view) != nil {
		ErrorResponse(http.StatusInternalServerError, "Erro ao renderizar despesa").Write(w)
		return
	}
	s.fragments.Set(key, buf.String())
	NewResponse().BodyHTML(buf.String()).Write(w)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	amount, ok := parseAmountField(r.Form.Get("amount"))
	if !ok {
		UnprocessableEntityError("Valor inválido").Write(w)
		return
	}
	expiresAt, ok := parseDateField(r.Form.Get("expires_at"))
	if !ok {
		UnprocessableEntityError("Data de vencimento inválida").Write(w)
		return
	}

	payload := core.NewExpense{
		Type:        core.ExpenseType(sanitizeInput(r.Form.Get("type"))),
		Responsable: sanitizeInput(r.Form.Get("responsable")),
		Description: sanitizeInput(r.Form.Get("description")),
		Amount:      amount,
		ExpiresAt:   expiresAt,
	}
	payload.Normalize(time.Now())
	if err := payload.Validate(); err != nil {
		UnprocessableEntityError("Dados inválidos: " + err.Error()).Write(w)
		return
	}

	item, err := s.stores.Expenses.Create(r.Context(), payload)
	if err != nil {
		// Creation failures stay local to the form; the list keeps its
		// last-known state.
		ErrorResponse(errorStatus(err), apiMessage(err, "Erro ao criar despesa")).Write(w)
		return
	}

	slog.InfoContext(r.Context(), "Expense created",
		log.FieldOperation, log.OpCreate,
		log.FieldExpenseID, item.ID,
		log.FieldAmount, item.Amount.Format())

	s.refreshAfterExpenseMutation(r.Context())
	s.publish(r.Context(), events.EntityExpenses, events.ActionCreated, item.ID)

	NewResponse().
		TriggerMutation("expenses", item.ID).
		TriggerFormReset().
		TriggerSuccessNotification("Despesa " + item.ProtocolNumber + " criada").
		Write(w)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	id, ok := parseID(r.Form.Get("id"))
	if !ok {
		BadRequestError("Identificador de despesa inválido").Write(w)
		return
	}
	amount, ok := parseAmountField(r.Form.Get("amount"))
	if !ok {
		UnprocessableEntityError("Valor inválido").Write(w)
		return
	}
	expiresAt, ok := parseDateField(r.Form.Get("expires_at"))
	if !ok {
		UnprocessableEntityError("Data de vencimento inválida").Write(w)
		return
	}

	payload := core.NewExpense{
		Type:        core.ExpenseType(sanitizeInput(r.Form.Get("type"))),
		Responsable: sanitizeInput(r.Form.Get("responsable")),
		Description: sanitizeInput(r.Form.Get("description")),
		Amount:      amount,
		ExpiresAt:   expiresAt,
	}
	payload.Normalize(time.Now())
	if err := payload.Validate(); err != nil {
		UnprocessableEntityError("Dados inválidos: " + err.Error()).Write(w)
		return
	}

	item, err := s.stores.Expenses.Update(r.Context(), id, payload)
	if err != nil {
		ErrorResponse(errorStatus(err), apiMessage(err, "Erro ao atualizar despesa")).Write(w)
		return
	}

	slog.InfoContext(r.Context(), "Expense updated",
		log.FieldOperation, log.OpUpdate,
		log.FieldExpenseID, item.ID)

	s.refreshAfterExpenseMutation(r.Context())
	s.publish(r.Context(), events.EntityExpenses, events.ActionUpdated, item.ID)

	NewResponse().
		TriggerMutation("expenses", item.ID).
		TriggerModalClose().
		TriggerSuccessNotification("Despesa atualizada").
		Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if resp := RequireDeleteOrPOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	id, ok := parseID(r.Form.Get("id"))
	if !ok {
		BadRequestError("Identificador de despesa inválido").Write(w)
		return
	}

	if err := s.stores.Expenses.Delete(r.Context(), id); err != nil {
		ErrorResponse(errorStatus(err), apiMessage(err, "Erro ao excluir despesa")).Write(w)
		return
	}

	slog.InfoContext(r.Context(), "Expense deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldExpenseID, id)

	s.refreshAfterExpenseMutation(r.Context())
	s.publish(r.Context(), events.EntityExpenses, events.ActionDeleted, id)

	NewResponse().
		TriggerMutation("expenses", id).
		TriggerModalClose().
		TriggerSuccessNotification("Despesa excluída").
		Write(w)
}

// refreshAfterExpenseMutation refetches the expense collection so the list
// reflects the server's state, and drops cached expense fragments.
func (s *Server) refreshAfterExpenseMutation(ctx context.Context) {
	if _, err := s.stores.Expenses.FetchAll(ctx); err != nil {
		slog.WarnContext(ctx, "Expense refetch after mutation failed",
			log.FieldOperation, log.OpRefresh,
			log.FieldError, err)
	}
	s.fragments.DeletePrefix("expense:")
}

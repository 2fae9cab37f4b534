package http

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"

	"sopdash/internal/core"
	"sopdash/internal/events"
	"sopdash/internal/log"
)

func (s *Server) handleCommitmentList(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}

	if _, err := s.stores.Commitments.FetchAll(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "Commitment list fetch failed",
			log.FieldOperation, log.OpList,
			log.FieldEntity, "commitments",
			log.FieldError, err)
	}

	snap := s.stores.Commitments.Snapshot()
	view := listView[commitmentRow]{Err: snap.Err, Loading: snap.Loading}
	for _, c := range snap.Items {
		view.Rows = append(view.Rows, toCommitmentRow(c))
	}
	s.render(w, r, "commitments.html", view)
}

type commitmentDetailView struct {
	commitmentRow
	Paid      string
	Remaining string
	// AmountInput is the raw decimal for the update form's amount input.
	AmountInput string
	Payments    []paymentRow
}

func (s *Server) handleCommitmentDetail(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}

	id, ok := parseID(r.URL.Query().Get("id"))
	if !ok {
		BadRequestError("Identificador de empenho inválido").Write(w)
		return
	}

	key := "commitment:" + r.URL.Query().Get("id")
	if html, found := s.fragments.Get(key); found {
		NewResponse().BodyHTML(html).Write(w)
		return
	}

	item, err := s.stores.CommitmentDetail.Fetch(r.Context(), id)
	if err != nil {
		slog.WarnContext(r.Context(), "Commitment detail fetch failed",
			log.FieldOperation, log.OpRead,
			log.FieldCommitmentID, id,
			log.FieldError, err)
		ErrorResponse(errorStatus(err), apiMessage(err, "Erro ao buscar empenho")).Write(w)
		return
	}

	view := commitmentDetailView{
		commitmentRow: toCommitmentRow(item),
		Paid:          item.Paid().Format(),
		Remaining:     item.RemainingToPay().Format(),
		AmountInput:   item.Amount.Decimal.String(),
	}
	for _, p := range item.Payments {
		view.Payments = append(view.Payments, toPaymentRow(p))
	}

	var buf bytes.Buffer
	if s.templates == nil || s.templates.ExecuteTemplate(&buf, "commitment_detail.html", view) != nil {
		ErrorResponse(http.StatusInternalServerError, "Erro ao renderizar empenho").Write(w)
		return
	}
	s.fragments.Set(key, buf.String())
	NewResponse().BodyHTML(buf.String()).Write(w)
}

func (s *Server) handleCreateCommitment(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	expenseID, ok := parseID(r.Form.Get("expense_id"))
	if !ok {
		BadRequestError("Despesa do empenho não informada").Write(w)
		return
	}
	amount, ok := parseAmountField(r.Form.Get("amount"))
	if !ok {
		UnprocessableEntityError("Valor inválido").Write(w)
		return
	}

	payload := core.NewCommitment{
		ExpenseID:   expenseID,
		Amount:      amount,
		Observation: sanitizeInput(r.Form.Get("observation")),
	}
	if err := payload.Validate(); err != nil {
		UnprocessableEntityError("Dados inválidos: " + err.Error()).Write(w)
		return
	}

	// The coverage check (commitments must not exceed the expense amount)
	// is the server's; a rejection renders its message in the form.
	item, err := s.stores.Commitments.Create(r.Context(), payload)
	if err != nil {
		ErrorResponse(errorStatus(err), apiMessage(err, "Erro ao criar empenho")).Write(w)
		return
	}

	slog.InfoContext(r.Context(), "Commitment created",
		log.FieldOperation, log.OpCreate,
		log.FieldCommitmentID, item.ID,
		log.FieldExpenseID, item.ExpenseID)

	s.refreshAfterCommitmentMutation(r.Context(), item.ExpenseID)
	s.publish(r.Context(), events.EntityCommitments, events.ActionCreated, item.ID)

	NewResponse().
		TriggerMutation("commitments", item.ID).
		TriggerMutation("expenses", item.ExpenseID).
		TriggerFormReset().
		TriggerSuccessNotification("Empenho " + item.Number + " criado").
		Write(w)
}

func (s *Server) handleUpdateCommitment(w http.ResponseWriter, r *http.Request) {
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
		BadRequestError("Identificador de empenho inválido").Write(w)
		return
	}
	expenseID, ok := parseID(r.Form.Get("expense_id"))
	if !ok {
		BadRequestError("Despesa do empenho não informada").Write(w)
		return
	}
	amount, ok := parseAmountField(r.Form.Get("amount"))
	if !ok {
		UnprocessableEntityError("Valor inválido").Write(w)
		return
	}

	payload := core.NewCommitment{
		ExpenseID:   expenseID,
		Amount:      amount,
		Observation: sanitizeInput(r.Form.Get("observation")),
	}
	if err := payload.Validate(); err != nil {
		UnprocessableEntityError("Dados inválidos: " + err.Error()).Write(w)
		return
	}

	item, err := s.stores.Commitments.Update(r.Context(), id, payload)
	if err != nil {
		ErrorResponse(errorStatus(err), apiMessage(err, "Erro ao atualizar empenho")).Write(w)
		return
	}

	slog.InfoContext(r.Context(), "Commitment updated",
		log.FieldOperation, log.OpUpdate,
		log.FieldCommitmentID, item.ID,
		log.FieldExpenseID, item.ExpenseID)

	s.refreshAfterCommitmentMutation(r.Context(), item.ExpenseID)
	s.publish(r.Context(), events.EntityCommitments, events.ActionUpdated, item.ID)

	NewResponse().
		TriggerMutation("commitments", item.ID).
		TriggerMutation("expenses", item.ExpenseID).
		TriggerModalClose().
		TriggerSuccessNotification("Empenho atualizado").
		Write(w)
}

func (s *Server) handleDeleteCommitment(w http.ResponseWriter, r *http.Request) {
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
		BadRequestError("Identificador de empenho inválido").Write(w)
		return
	}
	// The owning expense id rides along so its coverage totals refresh too.
	expenseID, _ := parseID(r.Form.Get("expense_id"))

	if err := s.stores.Commitments.Delete(r.Context(), id); err != nil {
		ErrorResponse(errorStatus(err), apiMessage(err, "Erro ao excluir empenho")).Write(w)
		return
	}

	slog.InfoContext(r.Context(), "Commitment deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldCommitmentID, id,
		log.FieldExpenseID, expenseID)

	s.refreshAfterCommitmentMutation(r.Context(), expenseID)
	s.publish(r.Context(), events.EntityCommitments, events.ActionDeleted, id)

	NewResponse().
		TriggerMutation("commitments", id).
		TriggerMutation("expenses", expenseID).
		TriggerModalClose().
		TriggerSuccessNotification("Empenho excluído").
		Write(w)
}

// refreshAfterCommitmentMutation refetches both the commitment and expense
// collections, since commitment coverage changes the owning expense's
// status. When the mutated commitment's expense is the one currently open
// in the detail slot, that detail is refetched as well so its embedded
// commitments and totals match the server.
func (s *Server) refreshAfterCommitmentMutation(ctx context.Context, expenseID int64) {
	if _, err := s.stores.Commitments.FetchAll(ctx); err != nil {
		slog.WarnContext(ctx, "Commitment refetch after mutation failed",
			log.FieldOperation, log.OpRefresh,
			log.FieldError, err)
	}
	if _, err := s.stores.Expenses.FetchAll(ctx); err != nil {
		slog.WarnContext(ctx, "Expense refetch after commitment mutation failed",
			log.FieldOperation, log.OpRefresh,
			log.FieldError, err)
	}
	s.fragments.DeletePrefix("commitment:")
	s.fragments.DeletePrefix("expense:")

	if expenseID > 0 {
		if snap := s.stores.ExpenseDetail.Snapshot(); snap.Selected != nil && snap.Selected.ID == expenseID {
			if _, err := s.stores.ExpenseDetail.Fetch(ctx, expenseID); err != nil {
				slog.WarnContext(ctx, "Expense detail refetch after commitment mutation failed",
					log.FieldOperation, log.OpRefresh,
					log.FieldExpenseID, expenseID,
					log.FieldError, err)
			}
		}
	}
}

package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"sopdash/internal/core"
	"sopdash/internal/events"
	"sopdash/internal/log"
)

func (s *Server) handlePaymentList(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}

	if _, err := s.stores.Payments.FetchAll(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "Payment list fetch failed",
			log.FieldOperation, log.OpList,
			log.FieldEntity, "payments",
			log.FieldError, err)
	}

	snap := s.stores.Payments.Snapshot()
	view := listView[paymentRow]{Err: snap.Err, Loading: snap.Loading}
	for _, p := range snap.Items {
		view.Rows = append(view.Rows, toPaymentRow(p))
	}
	s.render(w, r, "payments.html", view)
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	commitmentID, ok := parseID(r.Form.Get("commitment_id"))
	if !ok {
		BadRequestError("Empenho do pagamento não informado").Write(w)
		return
	}
	amount, ok := parseAmountField(r.Form.Get("amount"))
	if !ok {
		UnprocessableEntityError("Valor inválido").Write(w)
		return
	}

	payload := core.NewPayment{
		CommitmentID: commitmentID,
		Amount:       amount,
		Observation:  sanitizeInput(r.Form.Get("observation")),
	}
	if err := payload.Validate(); err != nil {
		UnprocessableEntityError("Dados inválidos: " + err.Error()).Write(w)
		return
	}

	item, err := s.stores.Payments.Create(r.Context(), payload)
	if err != nil {
		ErrorResponse(errorStatus(err), apiMessage(err, "Erro ao criar pagamento")).Write(w)
		return
	}

	slog.InfoContext(r.Context(), "Payment created",
		log.FieldOperation, log.OpCreate,
		log.FieldPaymentID, item.ID,
		log.FieldCommitmentID, item.CommitmentID)

	s.refreshAfterPaymentMutation(r.Context(), item.CommitmentID)
	s.publish(r.Context(), events.EntityPayments, events.ActionCreated, item.ID)

	NewResponse().
		TriggerMutation("payments", item.ID).
		TriggerMutation("commitments", item.CommitmentID).
		TriggerMutation("expenses", 0).
		TriggerFormReset().
		TriggerSuccessNotification("Pagamento " + item.Number + " criado").
		Write(w)
}

func (s *Server) handleUpdatePayment(w http.ResponseWriter, r *http.Request) {
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
		BadRequestError("Identificador de pagamento inválido").Write(w)
		return
	}
	commitmentID, ok := parseID(r.Form.Get("commitment_id"))
	if !ok {
		BadRequestError("Empenho do pagamento não informado").Write(w)
		return
	}
	amount, ok := parseAmountField(r.Form.Get("amount"))
	if !ok {
		UnprocessableEntityError("Valor inválido").Write(w)
		return
	}

	payload := core.NewPayment{
		CommitmentID: commitmentID,
		Amount:       amount,
		Observation:  sanitizeInput(r.Form.Get("observation")),
	}
	if err := payload.Validate(); err != nil {
		UnprocessableEntityError("Dados inválidos: " + err.Error()).Write(w)
		return
	}

	item, err := s.stores.Payments.Update(r.Context(), id, payload)
	if err != nil {
		ErrorResponse(errorStatus(err), apiMessage(err, "Erro ao atualizar pagamento")).Write(w)
		return
	}

	slog.InfoContext(r.Context(), "Payment updated",
		log.FieldOperation, log.OpUpdate,
		log.FieldPaymentID, item.ID,
		log.FieldCommitmentID, item.CommitmentID)

	s.refreshAfterPaymentMutation(r.Context(), item.CommitmentID)
	s.publish(r.Context(), events.EntityPayments, events.ActionUpdated, item.ID)

	NewResponse().
		TriggerMutation("payments", item.ID).
		TriggerMutation("commitments", item.CommitmentID).
		TriggerModalClose().
		TriggerSuccessNotification("Pagamento atualizado").
		Write(w)
}

func (s *Server) handleDeletePayment(w http.ResponseWriter, r *http.Request) {
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
		BadRequestError("Identificador de pagamento inválido").Write(w)
		return
	}
	commitmentID, _ := parseID(r.Form.Get("commitment_id"))

	if err := s.stores.Payments.Delete(r.Context(), id); err != nil {
		ErrorResponse(errorStatus(err), apiMessage(err, "Erro ao excluir pagamento")).Write(w)
		return
	}

	slog.InfoContext(r.Context(), "Payment deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldPaymentID, id,
		log.FieldCommitmentID, commitmentID)

	s.refreshAfterPaymentMutation(r.Context(), commitmentID)
	s.publish(r.Context(), events.EntityPayments, events.ActionDeleted, id)

	NewResponse().
		TriggerMutation("payments", id).
		TriggerMutation("commitments", commitmentID).
		TriggerModalClose().
		TriggerSuccessNotification("Pagamento excluído").
		Write(w)
}

// handlePaymentsReport proxies the server-generated PDF. Generation is fully
// delegated to the remote API; this is a streaming pass-through.
func (s *Server) handlePaymentsReport(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}

	body, err := s.reports.PaymentsReportPDF(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Payments report download failed",
			log.FieldOperation, log.OpRead,
			log.FieldError, err)
		ErrorResponse(errorStatus(err), apiMessage(err, "Erro ao gerar relatório")).Write(w)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="relatorio-pagamentos.pdf"`)
	if _, err := io.Copy(w, body); err != nil {
		slog.WarnContext(r.Context(), "Payments report stream interrupted",
			log.FieldError, err)
	}
}

// refreshAfterPaymentMutation refetches payments and commitments, since
// payment coverage changes the owning commitment's remaining balance and,
// transitively, the expense status. The open commitment detail is refetched
// when it is the mutated payment's parent.
func (s *Server) refreshAfterPaymentMutation(ctx context.Context, commitmentID int64) {
	if _, err := s.stores.Payments.FetchAll(ctx); err != nil {
		slog.WarnContext(ctx, "Payment refetch after mutation failed",
			log.FieldOperation, log.OpRefresh,
			log.FieldError, err)
	}
	if _, err := s.stores.Commitments.FetchAll(ctx); err != nil {
		slog.WarnContext(ctx, "Commitment refetch after payment mutation failed",
			log.FieldOperation, log.OpRefresh,
			log.FieldError, err)
	}
	if _, err := s.stores.Expenses.FetchAll(ctx); err != nil {
		slog.WarnContext(ctx, "Expense refetch after payment mutation failed",
			log.FieldOperation, log.OpRefresh,
			log.FieldError, err)
	}
	s.fragments.DeletePrefix("commitment:")
	s.fragments.DeletePrefix("expense:")

	if commitmentID > 0 {
		if snap := s.stores.CommitmentDetail.Snapshot(); snap.Selected != nil && snap.Selected.ID == commitmentID {
			if _, err := s.stores.CommitmentDetail.Fetch(ctx, commitmentID); err != nil {
				slog.WarnContext(ctx, "Commitment detail refetch after payment mutation failed",
					log.FieldOperation, log.OpRefresh,
					log.FieldCommitmentID, commitmentID,
					log.FieldError, err)
			}
		}
	}
}

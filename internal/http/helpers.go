package http

import (
	"errors"
	nethttp "net/http"
	"time"

	"sopdash/internal/api"
	"sopdash/internal/core"
)

// apiMessage resolves the display message for an accessor failure. The
// accessor already applied the server-message fallback chain.
func apiMessage(err error, fallback string) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if err != nil && err.Error() != "" {
		return err.Error()
	}
	return fallback
}

// errorStatus maps an accessor failure to the response status: the server's
// own status when it rejected the request, 502 when transport failed.
func errorStatus(err error) int {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Status >= 400 {
		return apiErr.Status
	}
	return nethttp.StatusBadGateway
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02/01/2006")
}

// expenseRow is the list-view projection of an expense.
type expenseRow struct {
	ID          int64
	Protocol    string
	TypeLabel   string
	Responsable string
	Description string
	Amount      string
	StatusLabel string
	ExpiresAt   string
}

func toExpenseRow(e core.Expense) expenseRow {
	return expenseRow{
		ID:          e.ID,
		Protocol:    e.ProtocolNumber,
		TypeLabel:   core.TranslateType(e.Type),
		Responsable: e.Responsable,
		Description: e.Description,
		Amount:      e.Amount.Format(),
		StatusLabel: core.TranslateStatus(e.Status),
		ExpiresAt:   formatDate(e.ExpiresAt),
	}
}

type commitmentRow struct {
	ID          int64
	Number      string
	Amount      string
	Observation string
	ExpenseID   int64
	CreatedAt   string
}

func toCommitmentRow(c core.Commitment) commitmentRow {
	return commitmentRow{
		ID:          c.ID,
		Number:      c.Number,
		Amount:      c.Amount.Format(),
		Observation: c.Observation,
		ExpenseID:   c.ExpenseID,
		CreatedAt:   formatDate(c.CreatedAt),
	}
}

type paymentRow struct {
	ID           int64
	Number       string
	Amount       string
	Observation  string
	CommitmentID int64
	CreatedAt    string
}

func toPaymentRow(p core.Payment) paymentRow {
	return paymentRow{
		ID:           p.ID,
		Number:       p.Number,
		Amount:       p.Amount.Format(),
		Observation:  p.Observation,
		CommitmentID: p.CommitmentID,
		CreatedAt:    formatDate(p.CreatedAt),
	}
}

// listView is the shared shape every list partial renders from.
type listView[R any] struct {
	Rows    []R
	Err     string
	Loading bool
}

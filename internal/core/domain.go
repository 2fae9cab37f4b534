package core

import (
	"errors"
	"strings"
	"time"
)

// Expense type codes as issued by the SOP API.
const (
	TypeBuildingWork ExpenseType = "OBRA_DE_EDIFICACAO"
	TypeRoadWork     ExpenseType = "OBRA_DE_RODOVIAS"
	TypeOther        ExpenseType = "OUTROS"
)

// Expense status codes as issued by the SOP API. The status is derived
// server-side from commitment/payment coverage; this client only displays it.
// PARTIALLY_COMMITED and PARTIALLY_PAYED keep the server's spelling.
const (
	StatusWaitingCommitment  Status = "WAITING_COMMITMENT"
	StatusPartiallyCommitted Status = "PARTIALLY_COMMITED"
	StatusWaitingPayment     Status = "WAITING_PAYMENT"
	StatusPartiallyPaid      Status = "PARTIALLY_PAYED"
	StatusPaid               Status = "PAID"
)

type (
	ExpenseType string

	Status string

	// Expense is a top-level budget line item. The server embeds full
	// commitment back-references under "commitments"; parent references on
	// nested entities are kept as id fields only, so the three collections
	// never hold duplicated stale objects.
	Expense struct {
		ID             int64        `json:"id"`
		ProtocolNumber string       `json:"protocol_number"`
		Type           ExpenseType  `json:"type"`
		Responsable    string       `json:"responsable"`
		Description    string       `json:"description"`
		Amount         Amount       `json:"amount"`
		CreatedAt      time.Time    `json:"created_at"`
		ExpiresAt      time.Time    `json:"expires_at"`
		Status         Status       `json:"status,omitempty"`
		Commitments    []Commitment `json:"commitments,omitempty"`
	}

	// Commitment reserves part of an Expense's amount. Belongs to exactly
	// one Expense.
	Commitment struct {
		ID          int64     `json:"id"`
		Number      string    `json:"number"`
		Amount      Amount    `json:"amount"`
		Observation string    `json:"observation"`
		ExpenseID   int64     `json:"expense_id"`
		CreatedAt   time.Time `json:"created_at"`
		Payments    []Payment `json:"payments,omitempty"`
	}

	// Payment records a disbursement against a Commitment.
	Payment struct {
		ID           int64     `json:"id"`
		Number       string    `json:"number"`
		Amount       Amount    `json:"amount"`
		Observation  string    `json:"observation"`
		CommitmentID int64     `json:"commitment_id"`
		CreatedAt    time.Time `json:"created_at"`
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyResponsable = errors.New("empty responsable")
	ErrInvalidType      = errors.New("invalid expense type")
	ErrMissingParent    = errors.New("missing parent reference")
)

// EntityID returns the server-assigned identifier.
func (e Expense) EntityID() int64 { return e.ID }

// EntityID returns the server-assigned identifier.
func (c Commitment) EntityID() int64 { return c.ID }

// EntityID returns the server-assigned identifier.
func (p Payment) EntityID() int64 { return p.ID }

// Committed returns the total amount reserved by the expense's commitments.
func (e Expense) Committed() Amount {
	total := Amount{}
	for _, c := range e.Commitments {
		total = total.Add(c.Amount)
	}
	return total
}

// RemainingToCommit is the uncommitted balance. Display only; the server
// remains authoritative for status derivation.
func (e Expense) RemainingToCommit() Amount {
	return e.Amount.Sub(e.Committed())
}

// Paid returns the total disbursed against the commitment.
func (c Commitment) Paid() Amount {
	total := Amount{}
	for _, p := range c.Payments {
		total = total.Add(p.Amount)
	}
	return total
}

// RemainingToPay is the commitment's unpaid balance.
func (c Commitment) RemainingToPay() Amount {
	return c.Amount.Sub(c.Paid())
}

func (t ExpenseType) Validate() error {
	switch t {
	case TypeBuildingWork, TypeRoadWork, TypeOther:
		return nil
	default:
		return ErrInvalidType
	}
}

// NewExpense is the client-side payload for creating an expense. The server
// assigns id, protocol_number, created_at and status.
type NewExpense struct {
	Type        ExpenseType `json:"type"`
	Responsable string      `json:"responsable"`
	Description string      `json:"description"`
	Amount      Amount      `json:"amount"`
	ExpiresAt   time.Time   `json:"expires_at"`
}

// Normalize fills defaults: an unset expiry becomes tomorrow.
func (n *NewExpense) Normalize(now time.Time) {
	if n.ExpiresAt.IsZero() {
		n.ExpiresAt = now.AddDate(0, 0, 1)
	}
}

func (n NewExpense) Validate() error {
	if err := n.Type.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(n.Responsable) == "" {
		return ErrEmptyResponsable
	}
	if strings.TrimSpace(n.Description) == "" {
		return ErrEmptyDescription
	}
	return n.Amount.Validate()
}

// NewCommitment is the payload for creating a commitment against an expense.
// The coverage invariant (commitments must not exceed the expense amount) is
// enforced server-side; the client only surfaces the rejection.
type NewCommitment struct {
	ExpenseID   int64  `json:"expense_id"`
	Amount      Amount `json:"amount"`
	Observation string `json:"observation"`
}

func (n NewCommitment) Validate() error {
	if n.ExpenseID <= 0 {
		return ErrMissingParent
	}
	return n.Amount.Validate()
}

// NewPayment is the payload for recording a payment against a commitment.
type NewPayment struct {
	CommitmentID int64  `json:"commitment_id"`
	Amount       Amount `json:"amount"`
	Observation  string `json:"observation"`
}

func (n NewPayment) Validate() error {
	if n.CommitmentID <= 0 {
		return ErrMissingParent
	}
	return n.Amount.Validate()
}

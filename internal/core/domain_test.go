package core

import (
	"encoding/json"
	"testing"
	"time"
)

func TestAmountValidate(t *testing.T) {
	if err := NewAmount(0.01).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := NewAmount(0).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
	if err := NewAmount(-3).Validate(); err == nil {
		t.Fatalf("expected error for negative")
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"1200.50", "1200.5", true},
		{"1200,50", "1200.5", true},
		{" 30 ", "30", true},
		{"abc", "", false},
		{"", "", false},
	}
	for i, tc := range cases {
		a, err := ParseAmount(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok {
			if err == nil {
				t.Fatalf("case %d expected error", i)
			}
			continue
		}
		if a.Decimal.String() != tc.want {
			t.Fatalf("case %d got %s, want %s", i, a.Decimal.String(), tc.want)
		}
	}
}

func TestAmountJSONNumber(t *testing.T) {
	b, err := json.Marshal(NewCommitment{ExpenseID: 42, Amount: NewAmount(30), Observation: "x"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	// The API expects a bare number, not a quoted string.
	want := `{"expense_id":42,"amount":30,"observation":"x"}`
	if string(b) != want {
		t.Fatalf("got %s, want %s", b, want)
	}

	var e Expense
	if err := json.Unmarshal([]byte(`{"id":1,"amount":100.25}`), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if e.Amount.Decimal.String() != "100.25" {
		t.Fatalf("got amount %s", e.Amount.Decimal.String())
	}
}

func TestNewExpenseNormalizeDefaultsExpiry(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	n := NewExpense{Type: TypeOther, Responsable: "Ana", Description: "x", Amount: NewAmount(1)}
	n.Normalize(now)
	if !n.ExpiresAt.Equal(now.AddDate(0, 0, 1)) {
		t.Fatalf("expected expiry tomorrow, got %v", n.ExpiresAt)
	}

	// An explicit expiry is preserved.
	explicit := now.AddDate(0, 1, 0)
	n = NewExpense{Type: TypeOther, Responsable: "Ana", Description: "x", Amount: NewAmount(1), ExpiresAt: explicit}
	n.Normalize(now)
	if !n.ExpiresAt.Equal(explicit) {
		t.Fatalf("explicit expiry overwritten: %v", n.ExpiresAt)
	}
}

func TestNewExpenseValidate(t *testing.T) {
	good := NewExpense{Type: TypeBuildingWork, Responsable: "Ana", Description: "obra", Amount: NewAmount(100)}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []NewExpense{
		{Type: "PONTE", Responsable: "Ana", Description: "obra", Amount: NewAmount(100)},
		{Type: TypeOther, Responsable: " ", Description: "obra", Amount: NewAmount(100)},
		{Type: TypeOther, Responsable: "Ana", Description: "", Amount: NewAmount(100)},
		{Type: TypeOther, Responsable: "Ana", Description: "obra", Amount: NewAmount(0)},
	}
	for i, n := range bads {
		if err := n.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestChildPayloadsRequireParent(t *testing.T) {
	if err := (NewCommitment{ExpenseID: 0, Amount: NewAmount(1)}).Validate(); err != ErrMissingParent {
		t.Fatalf("expected ErrMissingParent, got %v", err)
	}
	if err := (NewPayment{CommitmentID: 0, Amount: NewAmount(1)}).Validate(); err != ErrMissingParent {
		t.Fatalf("expected ErrMissingParent, got %v", err)
	}
	if err := (NewPayment{CommitmentID: 7, Amount: NewAmount(1)}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
}

func TestExpenseRemainders(t *testing.T) {
	e := Expense{
		Amount: NewAmount(100),
		Commitments: []Commitment{
			{Amount: NewAmount(30), Payments: []Payment{{Amount: NewAmount(10)}}},
			{Amount: NewAmount(20)},
		},
	}
	if got := e.Committed().Decimal.String(); got != "50" {
		t.Fatalf("committed = %s", got)
	}
	if got := e.RemainingToCommit().Decimal.String(); got != "50" {
		t.Fatalf("remaining = %s", got)
	}
	c := e.Commitments[0]
	if got := c.RemainingToPay().Decimal.String(); got != "20" {
		t.Fatalf("remaining to pay = %s", got)
	}
}

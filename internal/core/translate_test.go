package core

import "testing"

func TestTranslateStatus(t *testing.T) {
	cases := []struct {
		in   Status
		want string
	}{
		{StatusWaitingCommitment, "Aguardando Empenho"},
		{StatusPartiallyCommitted, "Parcialmente Empenhada"},
		{StatusWaitingPayment, "Aguardando Pagamento"},
		{StatusPartiallyPaid, "Parcialmente Paga"},
		{StatusPaid, "Paga"},
		// Normalized spellings from newer servers.
		{"PARTIALLY_COMMITTED", "Parcialmente Empenhada"},
		{"PARTIALLY_PAID", "Parcialmente Paga"},
		// Unknown codes pass through unchanged.
		{"CANCELLED", "CANCELLED"},
		{"", ""},
	}
	for i, tc := range cases {
		if got := TranslateStatus(tc.in); got != tc.want {
			t.Fatalf("case %d: TranslateStatus(%q) = %q, want %q", i, tc.in, got, tc.want)
		}
	}
}

func TestTranslateType(t *testing.T) {
	cases := []struct {
		in   ExpenseType
		want string
	}{
		{TypeBuildingWork, "Obra de Edificação"},
		{TypeRoadWork, "Obra de Rodovias"},
		{TypeOther, "Outros"},
		{"PONTE", "PONTE"},
	}
	for i, tc := range cases {
		if got := TranslateType(tc.in); got != tc.want {
			t.Fatalf("case %d: TranslateType(%q) = %q, want %q", i, tc.in, got, tc.want)
		}
	}
}

// Labels are not codes, so translating twice must equal translating once.
func TestTranslateIdempotent(t *testing.T) {
	for code := range statusLabels {
		once := TranslateStatus(code)
		twice := TranslateStatus(Status(once))
		if once != twice {
			t.Fatalf("status %q: once=%q twice=%q", code, once, twice)
		}
	}
	for code := range typeLabels {
		once := TranslateType(code)
		twice := TranslateType(ExpenseType(once))
		if once != twice {
			t.Fatalf("type %q: once=%q twice=%q", code, once, twice)
		}
	}
}

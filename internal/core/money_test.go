package core

import "testing"

func TestParseAmountMoney(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{" 2.50 ", "2.5", true},
		{"1200.50", "1200.5", true},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.Decimal.String() != tc.out {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got.Decimal.String(), err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestAmountValidateMoney(t *testing.T) {
	if err := NewAmount(10.5).Validate(); err != nil {
		t.Fatalf("positive amount rejected: %v", err)
	}
	if err := NewAmount(0).Validate(); err == nil {
		t.Fatalf("zero amount accepted")
	}
	if err := NewAmount(-3).Validate(); err == nil {
		t.Fatalf("negative amount accepted")
	}
}

func TestAmountArithmeticAndFormat(t *testing.T) {
	a := NewAmount(1200.5)
	b := NewAmount(200.25)

	if got := a.Add(b).Format(); got != "R$ 1400.75" {
		t.Fatalf("Add = %s", got)
	}
	if got := a.Sub(b).Format(); got != "R$ 1000.25" {
		t.Fatalf("Sub = %s", got)
	}
}

func TestAmountMarshalsAsNumber(t *testing.T) {
	data, err := NewAmount(99.9).MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != "99.9" {
		t.Fatalf("marshal = %s, want unquoted 99.9", data)
	}
}

package snapshot

import (
	"context"
	"path/filepath"
	"testing"

	"sopdash/internal/core"
)

func openTestMirror(t *testing.T) *Mirror {
	t.Helper()
	m, err := Open(filepath.Join(t.TempDir(), "snap.db"))
	if err != nil {
		t.Fatalf("open mirror: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func TestSaveAndLoadPreservesOrder(t *testing.T) {
	m := openTestMirror(t)
	ctx := context.Background()

	items := []core.Expense{
		{ID: 3, Description: "c", Amount: core.NewAmount(30)},
		{ID: 1, Description: "a", Amount: core.NewAmount(10)},
		{ID: 2, Description: "b", Amount: core.NewAmount(20)},
	}
	if err := SaveList(ctx, m, EntityExpenses, items); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := LoadList[core.Expense](ctx, m, EntityExpenses)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 3 {
		t.Fatalf("loaded %d items", len(loaded))
	}
	for i, want := range []int64{3, 1, 2} {
		if loaded[i].ID != want {
			t.Fatalf("position %d: id %d, want %d", i, loaded[i].ID, want)
		}
	}
	if loaded[0].Amount.Decimal.String() != "30" {
		t.Fatalf("amount round-trip: %s", loaded[0].Amount.Decimal.String())
	}
}

func TestReplaceDropsStaleRows(t *testing.T) {
	m := openTestMirror(t)
	ctx := context.Background()

	if err := SaveList(ctx, m, EntityPayments, []core.Payment{{ID: 1}, {ID: 2}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := SaveList(ctx, m, EntityPayments, []core.Payment{{ID: 5}}); err != nil {
		t.Fatalf("save replacement: %v", err)
	}

	loaded, err := LoadList[core.Payment](ctx, m, EntityPayments)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 1 || loaded[0].ID != 5 {
		t.Fatalf("replacement not wholesale: %+v", loaded)
	}
}

func TestPartitionsAreIndependent(t *testing.T) {
	m := openTestMirror(t)
	ctx := context.Background()

	if err := SaveList(ctx, m, EntityExpenses, []core.Expense{{ID: 1}}); err != nil {
		t.Fatalf("save expenses: %v", err)
	}
	if err := SaveList(ctx, m, EntityCommitments, []core.Commitment{{ID: 1}, {ID: 2}}); err != nil {
		t.Fatalf("save commitments: %v", err)
	}

	exp, err := LoadList[core.Expense](ctx, m, EntityExpenses)
	if err != nil || len(exp) != 1 {
		t.Fatalf("expenses partition: %v %d", err, len(exp))
	}
	com, err := LoadList[core.Commitment](ctx, m, EntityCommitments)
	if err != nil || len(com) != 2 {
		t.Fatalf("commitments partition: %v %d", err, len(com))
	}
}

func TestEmptyPartitionLoadsNil(t *testing.T) {
	m := openTestMirror(t)
	loaded, err := LoadList[core.Payment](context.Background(), m, EntityPayments)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded != nil {
		t.Fatalf("expected nil for untouched partition, got %+v", loaded)
	}
}

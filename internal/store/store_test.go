package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sopdash/internal/api"
	"sopdash/internal/core"
)

// fakeResource scripts the remote side of one collection.
type fakeResource struct {
	mu      sync.Mutex
	lists   []listReply // consumed in dispatch order
	getFn   func(id int64) (core.Expense, error)
	created core.Expense
	err     error
	calls   []string
}

type listReply struct {
	items []core.Expense
	err   error
	// release, when non-nil, blocks the reply until the channel is closed.
	release chan struct{}
}

func (f *fakeResource) record(op string) {
	f.mu.Lock()
	f.calls = append(f.calls, op)
	f.mu.Unlock()
}

func (f *fakeResource) List(ctx context.Context) ([]core.Expense, error) {
	f.record("list")
	f.mu.Lock()
	if len(f.lists) == 0 {
		f.mu.Unlock()
		return nil, f.err
	}
	reply := f.lists[0]
	f.lists = f.lists[1:]
	f.mu.Unlock()
	if reply.release != nil {
		<-reply.release
	}
	return reply.items, reply.err
}

func (f *fakeResource) Get(ctx context.Context, id int64) (core.Expense, error) {
	f.record("get")
	if f.getFn != nil {
		return f.getFn(id)
	}
	return core.Expense{ID: id}, f.err
}

func (f *fakeResource) Create(ctx context.Context, payload any) (core.Expense, error) {
	f.record("create")
	return f.created, f.err
}

func (f *fakeResource) Update(ctx context.Context, id int64, payload any) (core.Expense, error) {
	f.record("update")
	if f.err != nil {
		return core.Expense{}, f.err
	}
	return f.created, nil
}

func (f *fakeResource) Delete(ctx context.Context, id int64) error {
	f.record("delete")
	return f.err
}

func expenses(ids ...int64) []core.Expense {
	out := make([]core.Expense, len(ids))
	for i, id := range ids {
		out[i] = core.Expense{ID: id, Description: "d", Amount: core.NewAmount(float64(id))}
	}
	return out
}

func TestFetchAllReplacesItemsInServerOrder(t *testing.T) {
	fake := &fakeResource{lists: []listReply{
		{items: expenses(3, 1, 2)},
	}}
	s := New[core.Expense](fake)

	items, err := s.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 3)

	snap := s.Snapshot()
	assert.False(t, snap.Loading)
	assert.Empty(t, snap.Err)
	// Server order preserved exactly, no sorting, no dedup.
	assert.Equal(t, []int64{3, 1, 2}, idsOf(snap.Items))
}

func TestFetchAllFailurePreservesLastKnownItems(t *testing.T) {
	fake := &fakeResource{lists: []listReply{
		{items: expenses(1, 2)},
		{err: &api.Error{Status: 500, Message: "Erro interno"}},
	}}
	s := New[core.Expense](fake)

	_, err := s.FetchAll(context.Background())
	require.NoError(t, err)

	_, err = s.FetchAll(context.Background())
	require.Error(t, err)

	snap := s.Snapshot()
	assert.Equal(t, []int64{1, 2}, idsOf(snap.Items), "failure must not drop last-known items")
	assert.Equal(t, "Erro interno", snap.Err)
	assert.False(t, snap.Loading)

	// The next fetch clears the error at dispatch.
	fake.mu.Lock()
	fake.lists = []listReply{{items: expenses(9)}}
	fake.mu.Unlock()
	_, err = s.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, s.Snapshot().Err)
}

func TestUpdateSplicesByIDPreservingPositions(t *testing.T) {
	fake := &fakeResource{lists: []listReply{{items: expenses(1, 2, 3)}}}
	s := New[core.Expense](fake)
	_, err := s.FetchAll(context.Background())
	require.NoError(t, err)

	fake.created = core.Expense{ID: 2, Description: "editado", Amount: core.NewAmount(99)}
	_, err = s.Update(context.Background(), 2, map[string]any{"description": "editado"})
	require.NoError(t, err)

	snap := s.Snapshot()
	require.Equal(t, []int64{1, 2, 3}, idsOf(snap.Items), "positions must not change")
	assert.Equal(t, "editado", snap.Items[1].Description)
	assert.Equal(t, "d", snap.Items[0].Description, "other items untouched")
	assert.Equal(t, "d", snap.Items[2].Description)
}

func TestUpdateFailureSetsErrorAndKeepsStaleItem(t *testing.T) {
	fake := &fakeResource{lists: []listReply{{items: expenses(1, 2)}}}
	s := New[core.Expense](fake)
	_, err := s.FetchAll(context.Background())
	require.NoError(t, err)

	fake.err = &api.Error{Status: 422, Message: "Valor inválido"}
	_, err = s.Update(context.Background(), 2, map[string]any{"amount": -1})
	require.Error(t, err)

	snap := s.Snapshot()
	assert.Equal(t, "Valor inválido", snap.Err)
	assert.Equal(t, []int64{1, 2}, idsOf(snap.Items))
	assert.Equal(t, "d", snap.Items[1].Description, "stale item stays until refetch")
}

func TestDeleteFiltersExactlyOne(t *testing.T) {
	fake := &fakeResource{lists: []listReply{{items: expenses(1, 2, 3)}}}
	s := New[core.Expense](fake)
	_, err := s.FetchAll(context.Background())
	require.NoError(t, err)

	require.NoError(t, s.Delete(context.Background(), 2))

	snap := s.Snapshot()
	assert.Equal(t, []int64{1, 3}, idsOf(snap.Items))
	assert.Len(t, snap.Items, 2)
}

func TestDeleteFailureLeavesListUnchanged(t *testing.T) {
	fake := &fakeResource{lists: []listReply{{items: expenses(1, 2)}}}
	s := New[core.Expense](fake)
	_, err := s.FetchAll(context.Background())
	require.NoError(t, err)

	fake.err = &api.Error{Status: 404, Message: "Despesa não encontrada"}
	require.Error(t, s.Delete(context.Background(), 9))

	snap := s.Snapshot()
	assert.Equal(t, []int64{1, 2}, idsOf(snap.Items))
	assert.Equal(t, "Despesa não encontrada", snap.Err)
}

// A rejected create is the form's error channel: the message comes back
// verbatim to the caller and neither the list nor the store error slot move.
func TestCreateRejectionIsFormLocal(t *testing.T) {
	fake := &fakeResource{lists: []listReply{{items: expenses(1)}}}
	s := New[core.Expense](fake)
	_, err := s.FetchAll(context.Background())
	require.NoError(t, err)

	fake.err = &api.Error{Status: 422, Message: "Valor excede o saldo não empenhado"}
	_, err = s.Create(context.Background(), core.NewCommitment{ExpenseID: 1, Amount: core.NewAmount(999)})
	require.Error(t, err)

	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Valor excede o saldo não empenhado", apiErr.Message)

	snap := s.Snapshot()
	assert.Empty(t, snap.Err, "store error slot belongs to list/update/delete failures")
	assert.Equal(t, []int64{1}, idsOf(snap.Items), "list untouched by rejected create")
}

func TestCreateSuccessAppendsOptimistically(t *testing.T) {
	fake := &fakeResource{lists: []listReply{{items: expenses(1)}}}
	s := New[core.Expense](fake)
	_, err := s.FetchAll(context.Background())
	require.NoError(t, err)

	fake.created = core.Expense{ID: 7, Description: "nova"}
	item, err := s.Create(context.Background(), core.NewExpense{})
	require.NoError(t, err)
	assert.Equal(t, int64(7), item.ID, "identifiers come from the server only")
	assert.Equal(t, []int64{1, 7}, idsOf(s.Snapshot().Items))
}

// Two overlapping FetchAll dispatches: the original UI accepted whichever
// response landed last; this store resolves the race deterministically: the
// later dispatch owns the slice and the earlier completion is discarded,
// even when it arrives after.
func TestConcurrentFetchAllLaterDispatchWins(t *testing.T) {
	hold := make(chan struct{})
	fake := &fakeResource{lists: []listReply{
		{items: expenses(1), release: hold}, // first dispatch, resolves last
		{items: expenses(2)},                // second dispatch, resolves first
	}}
	s := New[core.Expense](fake)

	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		s.FetchAll(context.Background())
	}()

	// Second dispatch begins after the first and completes immediately.
	// Poll the fake so the goroutine above has dispatched first.
	for {
		fake.mu.Lock()
		dispatched := len(fake.calls) >= 1
		fake.mu.Unlock()
		if dispatched {
			break
		}
		time.Sleep(time.Millisecond)
	}
	_, err := s.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, idsOf(s.Snapshot().Items))

	// Now let the first response land late: it must be discarded.
	close(hold)
	<-firstDone
	assert.Equal(t, []int64{2}, idsOf(s.Snapshot().Items), "stale completion must not overwrite newer state")
}

func TestSeedNeverOverridesFetchedData(t *testing.T) {
	fake := &fakeResource{lists: []listReply{{items: expenses(1)}}}
	s := New[core.Expense](fake)

	s.Seed(expenses(8, 9))
	assert.Equal(t, []int64{8, 9}, idsOf(s.Snapshot().Items), "seed warms an empty store")

	_, err := s.FetchAll(context.Background())
	require.NoError(t, err)
	s.Seed(expenses(8, 9))
	assert.Equal(t, []int64{1}, idsOf(s.Snapshot().Items), "seed after a fetch is ignored")
}

func idsOf(items []core.Expense) []int64 {
	out := make([]int64, len(items))
	for i, e := range items {
		out[i] = e.ID
	}
	return out
}

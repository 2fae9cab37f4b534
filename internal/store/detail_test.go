package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sopdash/internal/api"
	"sopdash/internal/core"
)

func TestDetailFetchFillsSlotWithoutTouchingList(t *testing.T) {
	fake := &fakeResource{
		lists: []listReply{{items: expenses(1, 2)}},
		getFn: func(id int64) (core.Expense, error) {
			return core.Expense{ID: id, Amount: core.NewAmount(100)}, nil
		},
	}
	list := New[core.Expense](fake)
	_, err := list.FetchAll(context.Background())
	require.NoError(t, err)

	detail := NewDetail[core.Expense](fake)
	_, err = detail.Fetch(context.Background(), 42)
	require.NoError(t, err)

	snap := detail.Snapshot()
	require.NotNil(t, snap.Selected)
	assert.Equal(t, int64(42), snap.Selected.ID)
	assert.False(t, snap.Loading)

	// Opening a detail never clobbers the list slice.
	assert.Equal(t, []int64{1, 2}, idsOf(list.Snapshot().Items))
}

func TestDetailUnknownIDSurfacesNotFound(t *testing.T) {
	fake := &fakeResource{getFn: func(id int64) (core.Expense, error) {
		return core.Expense{}, &api.Error{Status: 404, Message: "Despesa não encontrada"}
	}}
	detail := NewDetail[core.Expense](fake)

	_, err := detail.Fetch(context.Background(), 999)
	require.Error(t, err)
	snap := detail.Snapshot()
	assert.Nil(t, snap.Selected)
	assert.Equal(t, "Despesa não encontrada", snap.Err)
}

func TestDetailLateResponseForSupersededIDIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	dispatched := make(chan struct{})
	fake := &fakeResource{getFn: func(id int64) (core.Expense, error) {
		if id == 1 {
			close(dispatched)
			<-release // id 1 resolves late
		}
		return core.Expense{ID: id}, nil
	}}
	detail := NewDetail[core.Expense](fake)

	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		detail.Fetch(context.Background(), 1)
	}()
	<-dispatched

	// The user moved on to entity 2 while 1 was still loading.
	_, err := detail.Fetch(context.Background(), 2)
	require.NoError(t, err)

	close(release)
	<-firstDone

	snap := detail.Snapshot()
	require.NotNil(t, snap.Selected)
	assert.Equal(t, int64(2), snap.Selected.ID, "late response for id 1 must not overwrite id 2")
}

func TestDetailClearResetsAndVoidsInFlightLoad(t *testing.T) {
	release := make(chan struct{})
	dispatched := make(chan struct{})
	fake := &fakeResource{getFn: func(id int64) (core.Expense, error) {
		close(dispatched)
		<-release
		return core.Expense{ID: id}, nil
	}}
	detail := NewDetail[core.Expense](fake)

	done := make(chan struct{})
	go func() {
		defer close(done)
		detail.Fetch(context.Background(), 5)
	}()

	<-dispatched
	detail.Clear()
	close(release)
	<-done

	snap := detail.Snapshot()
	assert.Nil(t, snap.Selected, "a load completing after Clear must not repopulate the slot")
	assert.False(t, snap.Loading)
	assert.Empty(t, snap.Err)
}

package store

import (
	"context"

	"golang.org/x/sync/errgroup"

	"sopdash/internal/api"
	"sopdash/internal/core"
)

// Stores bundles every slice the dashboard renders: one list store per
// entity plus the two detail slots the modals use.
type Stores struct {
	Expenses    *Store[core.Expense]
	Commitments *Store[core.Commitment]
	Payments    *Store[core.Payment]

	ExpenseDetail    *Detail[core.Expense]
	CommitmentDetail *Detail[core.Commitment]
}

// NewStores wires the stores to the accessor's typed resources.
func NewStores(c *api.Client) *Stores {
	expenses := api.Expenses(c)
	commitments := api.Commitments(c)
	payments := api.Payments(c)

	return &Stores{
		Expenses:         New[core.Expense](expenses),
		Commitments:      New[core.Commitment](commitments),
		Payments:         New[core.Payment](payments),
		ExpenseDetail:    NewDetail[core.Expense](expenses),
		CommitmentDetail: NewDetail[core.Commitment](commitments),
	}
}

// FetchAllLists refreshes the three collections concurrently. Completions
// are unordered across entities; each resolves its own slice independently.
// The first error is returned, but every fetch runs to completion so one
// failing collection never corrupts another's slice.
func (s *Stores) FetchAllLists(ctx context.Context) error {
	// Deliberately not errgroup.WithContext: one failing collection must not
	// cancel the siblings.
	var g errgroup.Group
	g.Go(func() error {
		_, err := s.Expenses.FetchAll(ctx)
		return err
	})
	g.Go(func() error {
		_, err := s.Commitments.FetchAll(ctx)
		return err
	})
	g.Go(func() error {
		_, err := s.Payments.FetchAll(ctx)
		return err
	})
	return g.Wait()
}

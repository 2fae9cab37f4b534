package api

import (
	"context"
	"fmt"
	"net/http"

	"sopdash/internal/core"
)

// Resource is a typed view over one REST collection of the SOP API. The
// server assigns every identifier; the client only ever echoes ids back.
type Resource[T any] struct {
	c        *Client
	path     string
	fallback string
}

// List fetches the whole collection in server order.
func (r Resource[T]) List(ctx context.Context) ([]T, error) {
	var out []T
	if err := r.c.do(ctx, http.MethodGet, r.path, nil, &out, r.fallback); err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches a single item. An unknown id surfaces as the server's
// not-found message.
func (r Resource[T]) Get(ctx context.Context, id int64) (T, error) {
	var out T
	err := r.c.do(ctx, http.MethodGet, r.item(id), nil, &out, r.fallback)
	return out, err
}

// Create posts a payload and returns the item as the server stored it.
func (r Resource[T]) Create(ctx context.Context, payload any) (T, error) {
	var out T
	err := r.c.do(ctx, http.MethodPost, r.path, payload, &out, r.fallback)
	return out, err
}

// Update puts a partial payload against an existing id.
func (r Resource[T]) Update(ctx context.Context, id int64, payload any) (T, error) {
	var out T
	err := r.c.do(ctx, http.MethodPut, r.item(id), payload, &out, r.fallback)
	return out, err
}

// Delete removes an item by id.
func (r Resource[T]) Delete(ctx context.Context, id int64) error {
	return r.c.do(ctx, http.MethodDelete, r.item(id), nil, nil, r.fallback)
}

func (r Resource[T]) item(id int64) string {
	return fmt.Sprintf("%s/%d", r.path, id)
}

// Expenses binds the /api/expenses collection.
func Expenses(c *Client) Resource[core.Expense] {
	return Resource[core.Expense]{c: c, path: "/api/expenses", fallback: "Erro ao buscar despesas"}
}

// Commitments binds the /api/commitments collection.
func Commitments(c *Client) Resource[core.Commitment] {
	return Resource[core.Commitment]{c: c, path: "/api/commitments", fallback: "Erro ao buscar empenhos"}
}

// Payments binds the /api/payments collection.
func Payments(c *Client) Resource[core.Payment] {
	return Resource[core.Payment]{c: c, path: "/api/payments", fallback: "Erro ao buscar pagamentos"}
}

// Package snapshot persists the last successfully fetched state of each
// remote collection in a local SQLite file, so the dashboard can render
// stale-while-revalidate after a restart. The mirror is never authoritative:
// it only holds what the remote API last said, and every boot-time seed is
// replaced by the first live fetch.
package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Entity names used as snapshot partitions.
const (
	EntityExpenses    = "expenses"
	EntityCommitments = "commitments"
	EntityPayments    = "payments"
)

// Mirror is the local snapshot store.
type Mirror struct {
	db *sql.DB
}

// Open creates/opens the mirror database and applies migrations.
func Open(dbPath string) (*Mirror, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := migrateSchema(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Mirror{db: db}, nil
}

func (m *Mirror) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

// row is one mirrored item: the server id plus its JSON payload, in list
// position order.
type row struct {
	id      int64
	payload []byte
}

// replace swaps the whole partition for the given rows in one transaction,
// mirroring the store semantics of wholesale list replacement.
func (m *Mirror) replace(ctx context.Context, entity string, rows []row) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshots WHERE entity = ?`, entity); err != nil {
		return fmt.Errorf("clear %s snapshot: %w", entity, err)
	}

	now := time.Now().UTC()
	for i, r := range rows {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO snapshots (entity, entity_id, position, payload, fetched_at) VALUES (?, ?, ?, ?, ?)`,
			entity, r.id, i, string(r.payload), now)
		if err != nil {
			return fmt.Errorf("insert %s snapshot row: %w", entity, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s snapshot: %w", entity, err)
	}

	slog.DebugContext(ctx, "Snapshot replaced", "entity", entity, "rows", len(rows))
	return nil
}

// load returns the partition's payloads in stored list order.
func (m *Mirror) load(ctx context.Context, entity string) ([][]byte, error) {
	rows, err := m.db.QueryContext(ctx,
		`SELECT payload FROM snapshots WHERE entity = ? ORDER BY position`, entity)
	if err != nil {
		return nil, fmt.Errorf("query %s snapshot: %w", entity, err)
	}
	defer rows.Close()

	var payloads [][]byte
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan %s snapshot row: %w", entity, err)
		}
		payloads = append(payloads, []byte(p))
	}
	return payloads, rows.Err()
}

// identified matches the domain entities: anything with a server id.
type identified interface {
	EntityID() int64
}

// SaveList mirrors one fetched collection, preserving server order.
func SaveList[T identified](ctx context.Context, m *Mirror, entity string, items []T) error {
	rows := make([]row, 0, len(items))
	for _, item := range items {
		payload, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("marshal %s item: %w", entity, err)
		}
		rows = append(rows, row{id: item.EntityID(), payload: payload})
	}
	return m.replace(ctx, entity, rows)
}

// LoadList rebuilds the last mirrored collection. A missing partition yields
// a nil slice, which store seeding treats as "nothing to warm".
func LoadList[T any](ctx context.Context, m *Mirror, entity string) ([]T, error) {
	payloads, err := m.load(ctx, entity)
	if err != nil {
		return nil, err
	}
	if payloads == nil {
		return nil, nil
	}
	items := make([]T, 0, len(payloads))
	for _, p := range payloads {
		var item T
		if err := json.Unmarshal(p, &item); err != nil {
			return nil, fmt.Errorf("unmarshal %s item: %w", entity, err)
		}
		items = append(items, item)
	}
	return items, nil
}

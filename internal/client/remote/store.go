// Package remote is the relational store the client syncs with: one
// PostgreSQL schema holding jobs, resumes, skills, role models and target
// jobs, every row scoped by user_id.
//
// Timestamps are epoch milliseconds in the models and timestamptz in the
// database. They are sent as ISO-8601 strings and read back through
// database/sql's string conversion, see timex.ToISO and timex.FromISO.
package remote

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/careerkeeper/internal/common"
	"github.com/dmitrijs2005/careerkeeper/internal/timex"
)

// Store implements the per-entity remote operations over a *sql.DB opened with
// the pgx driver.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// affectedOne maps a zero-row result to zeroErr.
func affectedOne(res sql.Result, zeroErr error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return zeroErr
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

func parseTime(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	return timex.FromISO(s)
}

// nullableJSON encodes v, mapping nil and empty values to SQL NULL.
func nullableJSON(v any, empty bool) (any, error) {
	if empty {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func jsonArray[T any](items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	return json.Marshal(items)
}

// rowsScanner is satisfied by *sql.Rows.
type rowsScanner interface {
	Scan(dest ...any) error
}

var errOwnedByOther = fmt.Errorf("%w: row belongs to another user", common.ErrorUnauthorized)

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"hackfinity-intake/internal/store"
)

// Store keeps registration rows in a local SQLite table. It backs the
// service when no Google credentials are configured (dev/demo mode)
// and mirrors the sheet layout: one TEXT column per header column.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Name() string { return "sqlite" }

// columnName maps "Member 2 First Name" to member_2_first_name.
func columnName(header string) string {
	return strings.ToLower(strings.ReplaceAll(header, " ", "_"))
}

func columns() []string {
	cols := make([]string, len(store.Header))
	for i, h := range store.Header {
		cols[i] = columnName(h)
	}
	return cols
}

// EnsureHeader creates the registrations table when absent. The table
// definition is the SQLite equivalent of the canonical header row.
func (s *Store) EnsureHeader(ctx context.Context) error {
	defs := make([]string, 0, len(store.Header))
	for _, c := range columns() {
		defs = append(defs, c+" TEXT NOT NULL DEFAULT ''")
	}
	schema := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS registrations (id INTEGER PRIMARY KEY AUTOINCREMENT, %s)",
		strings.Join(defs, ", "),
	)
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure registrations table: %w", err)
	}
	return nil
}

// Append inserts one normalized row.
func (s *Store) Append(ctx context.Context, row []interface{}) error {
	if len(row) != len(store.Header) {
		return fmt.Errorf("row has %d cells, want %d", len(row), len(store.Header))
	}
	cols := columns()
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	query := fmt.Sprintf(
		"INSERT INTO registrations (%s) VALUES (%s)",
		strings.Join(cols, ", "), placeholders,
	)
	if _, err := s.db.ExecContext(ctx, query, row...); err != nil {
		return fmt.Errorf("append registration: %w", err)
	}
	return nil
}

// ListRows returns the header row followed by all stored rows in
// insertion order.
func (s *Store) ListRows(ctx context.Context) ([][]interface{}, error) {
	cols := columns()
	query := fmt.Sprintf("SELECT %s FROM registrations ORDER BY id", strings.Join(cols, ", "))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	header := make([]interface{}, len(store.Header))
	for i, h := range store.Header {
		header[i] = h
	}
	out := [][]interface{}{header}

	for rows.Next() {
		cells := make([]string, len(cols))
		dest := make([]interface{}, len(cols))
		for i := range cells {
			dest[i] = &cells[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		row := make([]interface{}, len(cells))
		for i, c := range cells {
			row[i] = c
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// SetPaymentCompleted flips Payment Completed to "Yes" for all rows
// matching the registrant email.
func (s *Store) SetPaymentCompleted(ctx context.Context, email string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE registrations SET payment_completed = 'Yes' WHERE email = ?", email)
	if err != nil {
		return false, fmt.Errorf("update payment status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

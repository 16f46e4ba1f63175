package store

import "context"

// RowStore is the append-only registration store. Rows follow the
// canonical Header order; implementations must keep the first row equal
// to Header and repair it when it is not.
type RowStore interface {
	Name() string

	// EnsureHeader verifies the header row and inserts or repairs it
	// when missing or mismatched. Safe to call on every append.
	EnsureHeader(ctx context.Context) error

	// Append adds one normalized row at the end of the store.
	Append(ctx context.Context, row []interface{}) error

	// ListRows returns the header row followed by all data rows.
	ListRows(ctx context.Context) ([][]interface{}, error)

	// SetPaymentCompleted flips the Payment Completed cell to "Yes"
	// for every row matching the registrant email. Returns false when
	// no row matched.
	SetPaymentCompleted(ctx context.Context, email string) (bool, error)
}

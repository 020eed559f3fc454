// Package transaction defines the immutable sales ledger: a completed
// checkout and the line items it was billed with.
package transaction

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors for the persistence contract.
var (
	ErrNotFound = errors.New("transaction not found")
	// ErrNoItems is returned when a create is attempted with zero items.
	ErrNoItems = errors.New("transaction requires at least one item")
	// ErrDuplicateReceipt is returned when the generated receipt number
	// collides with an existing row. Treated as fatal, never retried
	// with a fresh number automatically.
	ErrDuplicateReceipt = errors.New("duplicate receipt number")
	// ErrDuplicateKey is returned when the idempotency key was already
	// used by another transaction.
	ErrDuplicateKey = errors.New("duplicate idempotency key")
)

// Transaction is one completed sale. Created exactly once at checkout,
// atomically with its items, and never updated or deleted afterwards.
type Transaction struct {
	ID             string
	ReceiptNumber  string
	IdempotencyKey string
	CustomerName   string
	BarberID       string
	ServiceDate    time.Time
	Subtotal       decimal.Decimal
	Tax            decimal.Decimal
	Total          decimal.Decimal
	CreatedAt      time.Time
	UserID         string
	Items          []Item
}

// Item is one line of a transaction, owned exclusively by it.
type Item struct {
	ID            string
	TransactionID string
	ServiceID     string
	Quantity      int
	UnitPrice     decimal.Decimal
	TotalPrice    decimal.Decimal
}

// ListFilter selects a page of transactions, optionally restricted to
// an inclusive service-date range.
type ListFilter struct {
	Page     int
	PageSize int
	From     *time.Time
	To       *time.Time
}

// Offset returns the row offset for the filter's page.
func (f ListFilter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

// Page is one page of the ledger plus the total matching count, newest
// first.
type Page struct {
	Transactions []Transaction
	Total        int
}

// Repository defines persistence operations for transactions. Create
// writes the transaction row and all item rows in a single database
// transaction: either all rows become durably visible or none do.
type Repository interface {
	Create(ctx context.Context, txn *Transaction) error
	Get(ctx context.Context, id string) (*Transaction, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*Transaction, error)
	List(ctx context.Context, filter ListFilter) (*Page, error)
}

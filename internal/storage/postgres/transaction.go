package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Zeyademad999/nassim-clipper-checkout/internal/domain/transaction"
)

const (
	insertTransactionSQL = `INSERT INTO transactions
		(id, receipt_number, idempotency_key, customer_name, barber_id, service_date, subtotal, tax, total, created_at, user_id)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), $6, $7, $8, $9, $10, NULLIF($11, ''))`

	insertItemSQL = `INSERT INTO transaction_items
		(id, transaction_id, service_id, quantity, unit_price, total_price)
		VALUES ($1, $2, $3, $4, $5, $6)`

	selectTransactionSQL = `SELECT id, receipt_number, COALESCE(idempotency_key, ''), COALESCE(customer_name, ''),
		COALESCE(barber_id, ''), service_date, subtotal, tax, total, created_at, COALESCE(user_id, '')
		FROM transactions`

	selectItemsSQL = `SELECT id, transaction_id, service_id, quantity, unit_price, total_price
		FROM transaction_items WHERE transaction_id = $1 ORDER BY id`
)

var _ transaction.Repository = (*TransactionRepository)(nil)

// TransactionRepository implements transaction.Repository backed by
// PostgreSQL.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository returns a TransactionRepository that uses
// the given pool.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// Create writes the transaction row and every item row inside one
// database transaction. Either all rows become visible or none do.
func (r *TransactionRepository) Create(ctx context.Context, txn *transaction.Transaction) error {
	if len(txn.Items) == 0 {
		return transaction.ErrNoItems
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	_, err = tx.Exec(ctx, insertTransactionSQL,
		txn.ID, txn.ReceiptNumber, txn.IdempotencyKey, txn.CustomerName, txn.BarberID,
		txn.ServiceDate, txn.Subtotal, txn.Tax, txn.Total, txn.CreatedAt, txn.UserID,
	)
	if err != nil {
		switch {
		case uniqueViolation(err, "transactions_receipt_number_key"):
			return transaction.ErrDuplicateReceipt
		case uniqueViolation(err, "transactions_idempotency_key_key"):
			return transaction.ErrDuplicateKey
		}
		return fmt.Errorf("inserting transaction %q: %w", txn.ID, err)
	}

	for _, item := range txn.Items {
		_, err = tx.Exec(ctx, insertItemSQL,
			item.ID, item.TransactionID, item.ServiceID,
			item.Quantity, item.UnitPrice, item.TotalPrice,
		)
		if err != nil {
			return fmt.Errorf("inserting item %q: %w", item.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction %q: %w", txn.ID, err)
	}
	return nil
}

// Get returns the transaction merged with its items.
func (r *TransactionRepository) Get(ctx context.Context, id string) (*transaction.Transaction, error) {
	return r.getWhere(ctx, "WHERE id = $1", id)
}

// FindByIdempotencyKey returns the transaction previously persisted
// under the given client-supplied key.
func (r *TransactionRepository) FindByIdempotencyKey(ctx context.Context, key string) (*transaction.Transaction, error) {
	return r.getWhere(ctx, "WHERE idempotency_key = $1", key)
}

func (r *TransactionRepository) getWhere(ctx context.Context, where string, arg any) (*transaction.Transaction, error) {
	rows, err := r.pool.Query(ctx, selectTransactionSQL+" "+where, arg)
	if err != nil {
		return nil, fmt.Errorf("querying transaction: %w", err)
	}

	txn, err := pgx.CollectExactlyOneRow(rows, scanTransaction)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transaction.ErrNotFound
		}
		return nil, fmt.Errorf("scanning transaction: %w", err)
	}

	itemRows, err := r.pool.Query(ctx, selectItemsSQL, txn.ID)
	if err != nil {
		return nil, fmt.Errorf("querying items for %q: %w", txn.ID, err)
	}
	txn.Items, err = pgx.CollectRows(itemRows, scanItem)
	if err != nil {
		return nil, fmt.Errorf("scanning items for %q: %w", txn.ID, err)
	}

	return &txn, nil
}

// List returns a page of transactions ordered by creation time, newest
// first, optionally filtered to an inclusive service-date range, plus
// the total matching count. A page beyond the data yields an empty
// page, not an error.
func (r *TransactionRepository) List(ctx context.Context, filter transaction.ListFilter) (*transaction.Page, error) {
	where := ""
	args := []any{}
	switch {
	case filter.From != nil && filter.To != nil:
		where = "WHERE service_date BETWEEN $1 AND $2"
		args = append(args, *filter.From, *filter.To)
	case filter.From != nil:
		where = "WHERE service_date >= $1"
		args = append(args, *filter.From)
	case filter.To != nil:
		where = "WHERE service_date <= $1"
		args = append(args, *filter.To)
	}

	var total int
	countSQL := "SELECT COUNT(*) FROM transactions " + where
	if err := r.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting transactions: %w", err)
	}

	pageSQL := fmt.Sprintf("%s %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		selectTransactionSQL, where, len(args)+1, len(args)+2)
	args = append(args, filter.PageSize, filter.Offset())

	rows, err := r.pool.Query(ctx, pageSQL, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	txns, err := pgx.CollectRows(rows, scanTransaction)
	if err != nil {
		return nil, fmt.Errorf("scanning transactions: %w", err)
	}

	return &transaction.Page{Transactions: txns, Total: total}, nil
}

func scanTransaction(row pgx.CollectableRow) (transaction.Transaction, error) {
	var (
		txn         transaction.Transaction
		serviceDate time.Time
	)
	err := row.Scan(
		&txn.ID, &txn.ReceiptNumber, &txn.IdempotencyKey, &txn.CustomerName,
		&txn.BarberID, &serviceDate, &txn.Subtotal, &txn.Tax, &txn.Total,
		&txn.CreatedAt, &txn.UserID,
	)
	txn.ServiceDate = serviceDate
	return txn, err
}

func scanItem(row pgx.CollectableRow) (transaction.Item, error) {
	var item transaction.Item
	err := row.Scan(
		&item.ID, &item.TransactionID, &item.ServiceID,
		&item.Quantity, &item.UnitPrice, &item.TotalPrice,
	)
	return item, err
}

// Package checkout turns a cart into a persisted transaction.
package checkout

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/Zeyademad999/nassim-clipper-checkout/internal/domain/cart"
	"github.com/Zeyademad999/nassim-clipper-checkout/internal/domain/transaction"
)

// ErrEmptyCart is returned when checkout is attempted on a cart with no
// lines. Nothing is written in that case.
var ErrEmptyCart = errors.New("cart is empty")

// Request carries the per-checkout inputs that do not live on the cart.
type Request struct {
	// IdempotencyKey, when set, makes resubmitting the same checkout
	// return the originally persisted transaction instead of writing a
	// duplicate.
	IdempotencyKey string
	// UserID is the logged-in operator, recorded on the transaction.
	UserID string
}

// Coordinator validates a cart, assembles the transaction draft, hands
// it to persistence, and clears the cart on success. It never retries a
// failed write: the caller decides whether to resubmit.
type Coordinator struct {
	transactions transaction.Repository
	now          func() time.Time

	// seen is a probabilistic filter over recently used idempotency
	// keys. A negative answer skips the lookup query; a positive one
	// only costs a single indexed read.
	mu   sync.Mutex
	seen *bloom.BloomFilter
}

// NewCoordinator creates a Coordinator backed by the given repository.
func NewCoordinator(transactions transaction.Repository) *Coordinator {
	return &Coordinator{
		transactions: transactions,
		now:          time.Now,
		seen:         bloom.NewWithEstimates(100_000, 0.01),
	}
}

// Checkout persists the cart as a transaction. On success the cart is
// cleared; on any failure the cart is left untouched so the operator
// can retry, and the persistence error is surfaced unchanged.
func (c *Coordinator) Checkout(ctx context.Context, crt *cart.Cart, req Request) (*transaction.Transaction, error) {
	if crt.Empty() {
		return nil, ErrEmptyCart
	}

	if req.IdempotencyKey != "" && c.maybeSeen(req.IdempotencyKey) {
		prev, err := c.transactions.FindByIdempotencyKey(ctx, req.IdempotencyKey)
		switch {
		case err == nil:
			crt.Clear()
			return prev, nil
		case errors.Is(err, transaction.ErrNotFound):
			// False positive from the filter; proceed with the write.
		default:
			return nil, errors.Wrap(err, "idempotency lookup")
		}
	}

	now := c.now()
	totals := crt.Totals()

	txn := &transaction.Transaction{
		ID:             uuid.New().String(),
		ReceiptNumber:  receiptNumber(crt.ServiceDate),
		IdempotencyKey: req.IdempotencyKey,
		CustomerName:   crt.CustomerName,
		BarberID:       crt.BarberID,
		ServiceDate:    crt.ServiceDate,
		Subtotal:       totals.Subtotal,
		Tax:            totals.Tax,
		Total:          totals.Total,
		CreatedAt:      now,
		UserID:         req.UserID,
	}
	for _, line := range crt.Lines {
		txn.Items = append(txn.Items, transaction.Item{
			ID:            uuid.New().String(),
			TransactionID: txn.ID,
			ServiceID:     line.ServiceID,
			Quantity:      line.Quantity,
			UnitPrice:     line.UnitPrice,
			TotalPrice:    line.Total(),
		})
	}

	if err := c.transactions.Create(ctx, txn); err != nil {
		// The key can slip past the filter after a restart; the UNIQUE
		// constraint still catches it, so recover the original row.
		if req.IdempotencyKey != "" && errors.Is(err, transaction.ErrDuplicateKey) {
			prev, lookupErr := c.transactions.FindByIdempotencyKey(ctx, req.IdempotencyKey)
			if lookupErr == nil {
				c.markSeen(req.IdempotencyKey)
				crt.Clear()
				return prev, nil
			}
		}
		return nil, err
	}

	if req.IdempotencyKey != "" {
		c.markSeen(req.IdempotencyKey)
	}
	crt.Clear()

	return txn, nil
}

func (c *Coordinator) maybeSeen(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seen.TestString(key)
}

func (c *Coordinator) markSeen(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen.AddString(key)
}

// receiptNumber builds a human-referenceable receipt token for the
// service date. Uniqueness is enforced by the store's UNIQUE
// constraint, not by this generator; a collision is a fatal
// persistence error.
func receiptNumber(serviceDate time.Time) string {
	suffix := strings.ToUpper(uuid.New().String()[:8])
	return fmt.Sprintf("RCP-%s-%s", serviceDate.Format("20060102"), suffix)
}

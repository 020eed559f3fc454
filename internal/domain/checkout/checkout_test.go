package checkout

import (
	"context"
	"regexp"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zeyademad999/nassim-clipper-checkout/internal/domain/cart"
	"github.com/Zeyademad999/nassim-clipper-checkout/internal/domain/transaction"
)

// --- Mock repository ---

type mockTxnRepo struct {
	created []*transaction.Transaction
	byKey   map[string]*transaction.Transaction
	err     error
}

func (m *mockTxnRepo) Create(_ context.Context, txn *transaction.Transaction) error {
	if m.err != nil {
		return m.err
	}
	m.created = append(m.created, txn)
	return nil
}

func (m *mockTxnRepo) Get(_ context.Context, _ string) (*transaction.Transaction, error) {
	return nil, transaction.ErrNotFound
}

func (m *mockTxnRepo) FindByIdempotencyKey(_ context.Context, key string) (*transaction.Transaction, error) {
	if txn, ok := m.byKey[key]; ok {
		return txn, nil
	}
	return nil, transaction.ErrNotFound
}

func (m *mockTxnRepo) List(_ context.Context, _ transaction.ListFilter) (*transaction.Page, error) {
	return &transaction.Page{}, nil
}

// --- Helpers ---

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func receiptCart() *cart.Cart {
	c := cart.New()
	c.AddService("s1", "Hair Cutting", d("25.00"))
	c.AddService("s1", "Hair Cutting", d("25.00"))
	c.AddService("s2", "Hair Washing", d("15.00"))
	c.CustomerName = "Karim"
	c.BarberID = "b1"
	return c
}

// --- Tests ---

func TestCheckout_EmptyCart(t *testing.T) {
	repo := &mockTxnRepo{}
	coord := NewCoordinator(repo)

	_, err := coord.Checkout(context.Background(), cart.New(), Request{})

	require.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, repo.created, "empty cart must not write")
}

func TestCheckout_PersistsTransactionAndItems(t *testing.T) {
	repo := &mockTxnRepo{}
	coord := NewCoordinator(repo)
	crt := receiptCart()
	wantTotal := crt.Totals().Total

	txn, err := coord.Checkout(context.Background(), crt, Request{UserID: "u1"})
	require.NoError(t, err)

	require.Len(t, repo.created, 1)
	require.Len(t, txn.Items, 2)
	assert.True(t, d("65.00").Equal(txn.Subtotal))
	assert.True(t, d("5.20").Equal(txn.Tax))
	assert.True(t, d("70.20").Equal(txn.Total))
	assert.True(t, wantTotal.Equal(txn.Total))
	assert.True(t, d("50.00").Equal(txn.Items[0].TotalPrice))
	assert.True(t, d("15.00").Equal(txn.Items[1].TotalPrice))
	assert.Equal(t, "Karim", txn.CustomerName)
	assert.Equal(t, "b1", txn.BarberID)
	assert.Equal(t, "u1", txn.UserID)

	for _, item := range txn.Items {
		assert.Equal(t, txn.ID, item.TransactionID)
	}
}

func TestCheckout_ClearsCartOnSuccess(t *testing.T) {
	coord := NewCoordinator(&mockTxnRepo{})
	crt := receiptCart()

	_, err := coord.Checkout(context.Background(), crt, Request{})
	require.NoError(t, err)

	assert.True(t, crt.Empty())
	assert.Empty(t, crt.CustomerName)
	assert.Empty(t, crt.BarberID)
}

func TestCheckout_CartUntouchedOnPersistenceFailure(t *testing.T) {
	repoErr := errors.New("connection reset")
	repo := &mockTxnRepo{err: repoErr}
	coord := NewCoordinator(repo)
	crt := receiptCart()

	_, err := coord.Checkout(context.Background(), crt, Request{})

	require.ErrorIs(t, err, repoErr)
	require.Len(t, crt.Lines, 2, "cart must survive a failed write")
	assert.Equal(t, "Karim", crt.CustomerName)
}

func TestCheckout_IdempotencyKeyReturnsExisting(t *testing.T) {
	repo := &mockTxnRepo{byKey: map[string]*transaction.Transaction{}}
	coord := NewCoordinator(repo)

	first, err := coord.Checkout(context.Background(), receiptCart(), Request{IdempotencyKey: "k1"})
	require.NoError(t, err)
	repo.byKey["k1"] = first

	second, err := coord.Checkout(context.Background(), receiptCart(), Request{IdempotencyKey: "k1"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, repo.created, 1, "resubmit must not write again")
}

func TestCheckout_DuplicateKeyRecoversExisting(t *testing.T) {
	// Fresh coordinator, so the key bypasses the filter and the write
	// fails on the unique constraint instead.
	existing := &transaction.Transaction{ID: "t1", IdempotencyKey: "k1"}
	repo := &mockTxnRepo{
		err:   transaction.ErrDuplicateKey,
		byKey: map[string]*transaction.Transaction{"k1": existing},
	}
	coord := NewCoordinator(repo)
	crt := receiptCart()

	txn, err := coord.Checkout(context.Background(), crt, Request{IdempotencyKey: "k1"})
	require.NoError(t, err)

	assert.Equal(t, "t1", txn.ID)
	assert.True(t, crt.Empty())
	assert.Empty(t, repo.created)
}

func TestCheckout_ReceiptNumberFormat(t *testing.T) {
	coord := NewCoordinator(&mockTxnRepo{})
	crt := receiptCart()
	date := crt.ServiceDate.Format("20060102")

	txn, err := coord.Checkout(context.Background(), crt, Request{})
	require.NoError(t, err)

	pattern := regexp.MustCompile(`^RCP-` + date + `-[0-9A-F]{8}$`)
	assert.Regexp(t, pattern, txn.ReceiptNumber)
}

func TestCheckout_DistinctReceiptNumbers(t *testing.T) {
	coord := NewCoordinator(&mockTxnRepo{})

	a, err := coord.Checkout(context.Background(), receiptCart(), Request{})
	require.NoError(t, err)
	b, err := coord.Checkout(context.Background(), receiptCart(), Request{})
	require.NoError(t, err)

	assert.NotEqual(t, a.ReceiptNumber, b.ReceiptNumber)
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zeyademad999/nassim-clipper-checkout/internal/domain/auth"
	"github.com/Zeyademad999/nassim-clipper-checkout/internal/domain/catalog"
	"github.com/Zeyademad999/nassim-clipper-checkout/internal/domain/checkout"
	"github.com/Zeyademad999/nassim-clipper-checkout/internal/domain/report"
	"github.com/Zeyademad999/nassim-clipper-checkout/internal/domain/transaction"
	"github.com/Zeyademad999/nassim-clipper-checkout/internal/storage/session"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fakeServices struct {
	byID map[string]catalog.Service
}

func (f *fakeServices) List(context.Context) ([]catalog.Service, error) {
	out := make([]catalog.Service, 0, len(f.byID))
	for _, s := range f.byID {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeServices) GetByID(_ context.Context, id string) (*catalog.Service, error) {
	s, ok := f.byID[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &s, nil
}

func (f *fakeServices) Create(_ context.Context, svc *catalog.Service) error {
	f.byID[svc.ID] = *svc
	return nil
}

func (f *fakeServices) Update(_ context.Context, id string, upd catalog.ServiceUpdate) (*catalog.Service, error) {
	s, ok := f.byID[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	if upd.Name != nil {
		s.Name = *upd.Name
	}
	if upd.Price != nil {
		s.Price = *upd.Price
	}
	f.byID[id] = s
	return &s, nil
}

func (f *fakeServices) Delete(_ context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return catalog.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakeBarbers struct {
	byID map[string]catalog.Barber
}

func (f *fakeBarbers) List(context.Context) ([]catalog.Barber, error) {
	out := make([]catalog.Barber, 0, len(f.byID))
	for _, b := range f.byID {
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeBarbers) GetByID(_ context.Context, id string) (*catalog.Barber, error) {
	b, ok := f.byID[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &b, nil
}

func (f *fakeBarbers) Create(_ context.Context, b *catalog.Barber) error {
	f.byID[b.ID] = *b
	return nil
}

func (f *fakeBarbers) Rename(_ context.Context, id, name string) (*catalog.Barber, error) {
	b, ok := f.byID[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	b.Name = name
	f.byID[id] = b
	return &b, nil
}

func (f *fakeBarbers) Delete(_ context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return catalog.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakeTxnRepo struct {
	created []*transaction.Transaction
}

func (f *fakeTxnRepo) Create(_ context.Context, txn *transaction.Transaction) error {
	if len(txn.Items) == 0 {
		return transaction.ErrNoItems
	}
	f.created = append(f.created, txn)
	return nil
}

func (f *fakeTxnRepo) Get(_ context.Context, id string) (*transaction.Transaction, error) {
	for _, txn := range f.created {
		if txn.ID == id {
			return txn, nil
		}
	}
	return nil, transaction.ErrNotFound
}

func (f *fakeTxnRepo) FindByIdempotencyKey(_ context.Context, key string) (*transaction.Transaction, error) {
	for _, txn := range f.created {
		if txn.IdempotencyKey == key {
			return txn, nil
		}
	}
	return nil, transaction.ErrNotFound
}

func (f *fakeTxnRepo) List(_ context.Context, filter transaction.ListFilter) (*transaction.Page, error) {
	page := &transaction.Page{Total: len(f.created)}
	start := filter.Offset()
	for i := start; i < len(f.created) && i < start+filter.PageSize; i++ {
		page.Transactions = append(page.Transactions, *f.created[i])
	}
	return page, nil
}

type fakeSource struct {
	daily *report.Daily
	rng   *report.Range
}

func (f *fakeSource) DailyTotals(context.Context, time.Time) (*report.Daily, error) {
	return f.daily, nil
}

func (f *fakeSource) RangeTotals(context.Context, time.Time, time.Time, int) (*report.Range, error) {
	return f.rng, nil
}

type fakeUsers struct {
	user *auth.User
}

func (f *fakeUsers) FindByUsername(_ context.Context, username string) (*auth.User, error) {
	if f.user != nil && f.user.Username == username {
		return f.user, nil
	}
	return nil, auth.ErrInvalidCredentials
}

func (f *fakeUsers) Create(context.Context, *auth.User) error { return nil }

type env struct {
	handler *Handler
	mux     *http.ServeMux
	txns    *fakeTxnRepo
	token   string
}

func newEnv(t *testing.T) *env {
	t.Helper()

	hash, err := auth.HashPassword("secret123")
	require.NoError(t, err)

	users := &fakeUsers{user: &auth.User{
		ID:           "u1",
		Username:     "admin",
		PasswordHash: hash,
		Role:         "admin",
	}}
	authService := auth.NewService(users, []byte("test-secret"), time.Hour)

	services := &fakeServices{byID: map[string]catalog.Service{
		"s1": {ID: "s1", Name: "Haircut & Beard Trim", Price: d("45.00")},
		"s2": {ID: "s2", Name: "Hot Towel Shave", Price: d("10.00")},
	}}
	barbers := &fakeBarbers{byID: map[string]catalog.Barber{
		"b1": {ID: "b1", Name: "Nassim"},
	}}

	txns := &fakeTxnRepo{}
	source := &fakeSource{
		daily: &report.Daily{TotalRevenue: d("70.20"), TotalTransactions: 1},
		rng:   &report.Range{TotalRevenue: d("140.40"), TotalTransactions: 2},
	}

	h := NewHandler(
		services,
		barbers,
		session.NewMemoryStore(time.Hour),
		checkout.NewCoordinator(txns),
		txns,
		report.NewAggregator(source),
		authService,
	)
	mux := http.NewServeMux()
	h.Routes(mux)

	_, token, err := authService.Login(context.Background(), "admin", "secret123")
	require.NoError(t, err)

	return &env{handler: h, mux: mux, txns: txns, token: token}
}

type reqOpt func(*http.Request)

func withSession(id string) reqOpt {
	return func(r *http.Request) { r.Header.Set("X-Session-ID", id) }
}

func withAuth(token string) reqOpt {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func (e *env) do(t *testing.T, method, path string, body any, opts ...reqOpt) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	for _, opt := range opts {
		opt(req)
	}
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestLogin_Success(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "admin",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Token string `json:"token"`
		User  struct {
			Username string `json:"username"`
			Role     string `json:"role"`
		} `json:"user"`
	}
	decodeInto(t, rec, &body)
	assert.NotEmpty(t, body.Token)
	assert.Equal(t, "admin", body.User.Username)
	assert.Equal(t, "admin", body.User.Role)
}

func TestLogin_WrongPassword(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "admin",
		"password": "nope",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/api/transactions", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/transactions", nil, withAuth("garbage"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCart_RequiresSessionHeader(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/api/cart", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCart_AddAndTotals(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/api/cart/items",
		map[string]string{"service_id": "s1"}, withSession("sess"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/cart/items",
		map[string]string{"service_id": "s2"}, withSession("sess"))
	require.Equal(t, http.StatusOK, rec.Code)
	rec = e.do(t, http.MethodPut, "/api/cart/items/s2",
		map[string]int{"quantity": 2}, withSession("sess"))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Subtotal decimal.Decimal `json:"subtotal"`
		Tax      decimal.Decimal `json:"tax"`
		Total    decimal.Decimal `json:"total"`
		Lines    []struct {
			ServiceID string `json:"service_id"`
			Quantity  int    `json:"quantity"`
		} `json:"lines"`
	}
	decodeInto(t, rec, &body)
	require.Len(t, body.Lines, 2)
	assert.True(t, d("65.00").Equal(body.Subtotal), "subtotal %s", body.Subtotal)
	assert.True(t, d("5.20").Equal(body.Tax), "tax %s", body.Tax)
	assert.True(t, d("70.20").Equal(body.Total), "total %s", body.Total)
}

func TestCart_AddUnknownService(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/api/cart/items",
		map[string]string{"service_id": "missing"}, withSession("sess"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCart_RemoveLine(t *testing.T) {
	e := newEnv(t)

	e.do(t, http.MethodPost, "/api/cart/items", map[string]string{"service_id": "s1"}, withSession("sess"))
	rec := e.do(t, http.MethodDelete, "/api/cart/items/s1", nil, withSession("sess"))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Lines []any `json:"lines"`
	}
	decodeInto(t, rec, &body)
	assert.Empty(t, body.Lines)
}

func TestCheckout_EmptyCart(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/api/cart/checkout", map[string]string{}, withSession("sess"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, e.txns.created)
}

func TestCheckout_PersistsAndClearsSession(t *testing.T) {
	e := newEnv(t)

	e.do(t, http.MethodPost, "/api/cart/items", map[string]string{"service_id": "s1"}, withSession("sess"))
	rec := e.do(t, http.MethodPost, "/api/cart/checkout", map[string]string{
		"customer_name": "Karim",
		"barber_id":     "b1",
		"service_date":  "2026-08-29",
	}, withSession("sess"))
	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		ReceiptNumber string          `json:"receipt_number"`
		CustomerName  string          `json:"customer_name"`
		Total         decimal.Decimal `json:"total"`
		Items         []any           `json:"items"`
	}
	decodeInto(t, rec, &body)
	assert.Regexp(t, `^RCP-20260829-[0-9A-F]{8}$`, body.ReceiptNumber)
	assert.Equal(t, "Karim", body.CustomerName)
	assert.True(t, d("48.60").Equal(body.Total), "45.00 + 8%% tax, got %s", body.Total)
	assert.Len(t, body.Items, 1)
	require.Len(t, e.txns.created, 1)

	// The session is gone afterwards; the next cart starts empty.
	rec = e.do(t, http.MethodGet, "/api/cart", nil, withSession("sess"))
	require.Equal(t, http.StatusOK, rec.Code)
	var after struct {
		Lines []any `json:"lines"`
	}
	decodeInto(t, rec, &after)
	assert.Empty(t, after.Lines)
}

func TestCreateTransaction_RecomputesTotals(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/api/transactions", map[string]any{
		"customer_name": "Walk-in",
		"items": []map[string]any{
			{"service_id": "s1", "quantity": 1},
			{"service_id": "s2", "quantity": 2},
		},
	}, withAuth(e.token))
	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		Subtotal decimal.Decimal `json:"subtotal"`
		Tax      decimal.Decimal `json:"tax"`
		Total    decimal.Decimal `json:"total"`
		UserID   string          `json:"user_id"`
	}
	decodeInto(t, rec, &body)
	assert.True(t, d("65.00").Equal(body.Subtotal))
	assert.True(t, d("5.20").Equal(body.Tax))
	assert.True(t, d("70.20").Equal(body.Total))
	assert.Equal(t, "u1", body.UserID, "operator recorded from the bearer token")
}

func TestCreateTransaction_EmptyItems(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/api/transactions",
		map[string]any{"items": []any{}}, withAuth(e.token))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateTransaction_UnknownService(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/api/transactions", map[string]any{
		"items": []map[string]any{{"service_id": "missing", "quantity": 1}},
	}, withAuth(e.token))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListTransactions_ValidatesParams(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/api/transactions?page=0", nil, withAuth(e.token))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/transactions?limit=1000", nil, withAuth(e.token))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/transactions?start_date=29-08-2026", nil, withAuth(e.token))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetTransaction_NotFound(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/api/transactions/missing", nil, withAuth(e.token))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReceipt_TextExport(t *testing.T) {
	e := newEnv(t)

	e.do(t, http.MethodPost, "/api/cart/items", map[string]string{"service_id": "s1"}, withSession("sess"))
	rec := e.do(t, http.MethodPost, "/api/cart/checkout",
		map[string]string{"barber_id": "b1"}, withSession("sess"))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, e.txns.created, 1)
	txnID := e.txns.created[0].ID

	rec = e.do(t, http.MethodGet, "/api/transactions/"+txnID+"/receipt", nil, withAuth(e.token))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, rec.Body.String(), "Haircut & Beard Trim")
	assert.Contains(t, rec.Body.String(), "Nassim")

	rec = e.do(t, http.MethodGet, "/api/transactions/"+txnID+"/receipt?format=csv", nil, withAuth(e.token))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")

	rec = e.do(t, http.MethodGet, "/api/transactions/"+txnID+"/receipt?format=pdf", nil, withAuth(e.token))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDailyReport(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/api/reports/daily?date=2026-08-29", nil, withAuth(e.token))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		TotalRevenue      decimal.Decimal `json:"total_revenue"`
		TotalTransactions int             `json:"total_transactions"`
	}
	decodeInto(t, rec, &body)
	assert.True(t, d("70.20").Equal(body.TotalRevenue))
	assert.Equal(t, 1, body.TotalTransactions)

	rec = e.do(t, http.MethodGet, "/api/reports/daily?date=bogus", nil, withAuth(e.token))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRangeReport_InvalidRange(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodGet,
		"/api/reports/range?start_date=2026-08-29&end_date=2026-08-01", nil, withAuth(e.token))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCatalog_CreateServiceValidation(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/api/services",
		map[string]any{"name": "", "price": "10.00"}, withAuth(e.token))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/services",
		map[string]any{"name": "Kids Cut", "price": "-1.00"}, withAuth(e.token))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/services",
		map[string]any{"name": "Kids Cut", "price": "18.00"}, withAuth(e.token))
	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		ID    string          `json:"id"`
		Price decimal.Decimal `json:"price"`
	}
	decodeInto(t, rec, &body)
	assert.NotEmpty(t, body.ID)
	assert.True(t, d("18.00").Equal(body.Price))
}

func TestCatalog_UpdateAndDeleteBarber(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPut, "/api/barbers/b1",
		map[string]string{"name": "Nassim Jr."}, withAuth(e.token))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Name string `json:"name"`
	}
	decodeInto(t, rec, &body)
	assert.Equal(t, "Nassim Jr.", body.Name)

	rec = e.do(t, http.MethodDelete, "/api/barbers/b1", nil, withAuth(e.token))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = e.do(t, http.MethodDelete, "/api/barbers/b1", nil, withAuth(e.token))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// Package handler exposes the HTTP surface of the point of sale:
// auth, catalog CRUD, session carts, checkout, the transaction ledger,
// and reports. Handlers decode requests with encoding/json and encode
// responses with jx, delegating all business logic to the domain
// packages.
package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Zeyademad999/nassim-clipper-checkout/internal/domain/auth"
	"github.com/Zeyademad999/nassim-clipper-checkout/internal/domain/cart"
	"github.com/Zeyademad999/nassim-clipper-checkout/internal/domain/catalog"
	"github.com/Zeyademad999/nassim-clipper-checkout/internal/domain/checkout"
	"github.com/Zeyademad999/nassim-clipper-checkout/internal/domain/report"
	"github.com/Zeyademad999/nassim-clipper-checkout/internal/domain/transaction"
)

// dateLayout is the wire format for service dates.
const dateLayout = "2006-01-02"

// Handler wires the domain services to their routes.
type Handler struct {
	services     catalog.ServiceRepository
	barbers      catalog.BarberRepository
	carts        cart.Store
	coordinator  *checkout.Coordinator
	transactions transaction.Repository
	reports      *report.Aggregator
	auth         *auth.Service
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	services catalog.ServiceRepository,
	barbers catalog.BarberRepository,
	carts cart.Store,
	coordinator *checkout.Coordinator,
	transactions transaction.Repository,
	reports *report.Aggregator,
	authService *auth.Service,
) *Handler {
	return &Handler{
		services:     services,
		barbers:      barbers,
		carts:        carts,
		coordinator:  coordinator,
		transactions: transactions,
		reports:      reports,
		auth:         authService,
	}
}

// Routes registers every API route on mux. Catalog mutations, the
// ledger, and reports sit behind bearer auth; cart routes only need a
// session ID.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/login", h.login)

	mux.HandleFunc("GET /api/services", h.listServices)
	mux.Handle("POST /api/services", h.requireAuth(h.createService))
	mux.HandleFunc("GET /api/services/{id}", h.getService)
	mux.Handle("PUT /api/services/{id}", h.requireAuth(h.updateService))
	mux.Handle("DELETE /api/services/{id}", h.requireAuth(h.deleteService))

	mux.HandleFunc("GET /api/barbers", h.listBarbers)
	mux.Handle("POST /api/barbers", h.requireAuth(h.createBarber))
	mux.HandleFunc("GET /api/barbers/{id}", h.getBarber)
	mux.Handle("PUT /api/barbers/{id}", h.requireAuth(h.updateBarber))
	mux.Handle("DELETE /api/barbers/{id}", h.requireAuth(h.deleteBarber))

	mux.HandleFunc("GET /api/cart", h.getCart)
	mux.HandleFunc("POST /api/cart/items", h.addCartItem)
	mux.HandleFunc("PUT /api/cart/items/{serviceID}", h.updateCartItem)
	mux.HandleFunc("DELETE /api/cart/items/{serviceID}", h.removeCartItem)
	mux.HandleFunc("DELETE /api/cart", h.clearCart)
	mux.HandleFunc("POST /api/cart/checkout", h.checkout)

	mux.Handle("POST /api/transactions", h.requireAuth(h.createTransaction))
	mux.Handle("GET /api/transactions", h.requireAuth(h.listTransactions))
	mux.Handle("GET /api/transactions/{id}", h.requireAuth(h.getTransaction))
	mux.Handle("GET /api/transactions/{id}/receipt", h.requireAuth(h.exportReceipt))

	mux.Handle("GET /api/reports/daily", h.requireAuth(h.dailyReport))
	mux.Handle("GET /api/reports/range", h.requireAuth(h.rangeReport))
}

// writeJSON sends an encoded body with the given status.
func writeJSON(w http.ResponseWriter, status int, e *jx.Encoder) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeError sends the {code, message} error body shared by every
// endpoint.
func writeError(w http.ResponseWriter, status int, code, message string) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("code")
	e.Str(code)
	e.FieldStart("message")
	e.Str(message)
	e.ObjEnd()
	writeJSON(w, status, &e)
}

// serverError logs the cause and answers with an opaque 500.
func serverError(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("Request failed",
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, "internal", "internal server error")
}

// decodeBody reads a JSON request body into v. Oversized or malformed
// bodies are reported to the client as a 400.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed request body")
		return false
	}
	return true
}

// money writes a decimal as a fixed two-place JSON number.
func money(e *jx.Encoder, d decimal.Decimal) {
	e.RawStr(d.StringFixed(2))
}

// parseDate parses a YYYY-MM-DD query value.
func parseDate(value string) (time.Time, bool) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

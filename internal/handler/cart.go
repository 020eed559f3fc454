package handler

import (
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/Zeyademad999/nassim-clipper-checkout/internal/domain/cart"
	"github.com/Zeyademad999/nassim-clipper-checkout/internal/domain/catalog"
	"github.com/Zeyademad999/nassim-clipper-checkout/internal/domain/checkout"
)

// sessionID extracts the cart session header, rejecting requests
// without one.
func sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.Header.Get("X-Session-ID")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "X-Session-ID header required")
		return "", false
	}
	return id, true
}

// loadCart fetches the session's cart, falling back to a fresh one for
// unknown sessions.
func (h *Handler) loadCart(w http.ResponseWriter, r *http.Request, id string) (*cart.Cart, bool) {
	c, err := h.carts.Get(r.Context(), id)
	if errors.Is(err, cart.ErrSessionNotFound) {
		return cart.New(), true
	}
	if err != nil {
		serverError(w, r, err)
		return nil, false
	}
	return c, true
}

func encodeCart(e *jx.Encoder, c *cart.Cart) {
	totals := c.Totals()

	e.ObjStart()
	e.FieldStart("lines")
	e.ArrStart()
	for _, l := range c.Lines {
		e.ObjStart()
		e.FieldStart("service_id")
		e.Str(l.ServiceID)
		e.FieldStart("name")
		e.Str(l.Name)
		e.FieldStart("unit_price")
		money(e, l.UnitPrice)
		e.FieldStart("quantity")
		e.Int(l.Quantity)
		e.FieldStart("total")
		money(e, l.Total())
		e.ObjEnd()
	}
	e.ArrEnd()
	if c.CustomerName != "" {
		e.FieldStart("customer_name")
		e.Str(c.CustomerName)
	}
	if c.BarberID != "" {
		e.FieldStart("barber_id")
		e.Str(c.BarberID)
	}
	e.FieldStart("service_date")
	e.Str(c.ServiceDate.Format(dateLayout))
	e.FieldStart("subtotal")
	money(e, totals.Subtotal)
	e.FieldStart("tax")
	money(e, totals.Tax)
	e.FieldStart("total")
	money(e, totals.Total)
	e.ObjEnd()
}

func (h *Handler) respondCart(w http.ResponseWriter, status int, c *cart.Cart) {
	var e jx.Encoder
	encodeCart(&e, c)
	writeJSON(w, status, &e)
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	c, ok := h.loadCart(w, r, id)
	if !ok {
		return
	}
	h.respondCart(w, http.StatusOK, c)
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	var req struct {
		ServiceID string `json:"service_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ServiceID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "service_id required")
		return
	}

	svc, err := h.services.GetByID(r.Context(), req.ServiceID)
	if errors.Is(err, catalog.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "service not found")
		return
	}
	if err != nil {
		serverError(w, r, err)
		return
	}

	c, ok := h.loadCart(w, r, id)
	if !ok {
		return
	}
	c.AddService(svc.ID, svc.Name, svc.Price)
	if err := h.carts.Put(r.Context(), id, c); err != nil {
		serverError(w, r, err)
		return
	}
	h.respondCart(w, http.StatusOK, c)
}

func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	c, ok := h.loadCart(w, r, id)
	if !ok {
		return
	}
	c.UpdateQuantity(r.PathValue("serviceID"), req.Quantity)
	if err := h.carts.Put(r.Context(), id, c); err != nil {
		serverError(w, r, err)
		return
	}
	h.respondCart(w, http.StatusOK, c)
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	c, ok := h.loadCart(w, r, id)
	if !ok {
		return
	}
	c.RemoveLine(r.PathValue("serviceID"))
	if err := h.carts.Put(r.Context(), id, c); err != nil {
		serverError(w, r, err)
		return
	}
	h.respondCart(w, http.StatusOK, c)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	if err := h.carts.Delete(r.Context(), id); err != nil {
		serverError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	var req struct {
		CustomerName   string `json:"customer_name"`
		BarberID       string `json:"barber_id"`
		ServiceDate    string `json:"service_date"`
		IdempotencyKey string `json:"idempotency_key"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	c, ok := h.loadCart(w, r, id)
	if !ok {
		return
	}
	if req.CustomerName != "" {
		c.CustomerName = req.CustomerName
	}
	if req.BarberID != "" {
		c.BarberID = req.BarberID
	}
	if req.ServiceDate != "" {
		date, okDate := parseDate(req.ServiceDate)
		if !okDate {
			writeError(w, http.StatusBadRequest, "bad_request", "service_date must be YYYY-MM-DD")
			return
		}
		c.ServiceDate = date
	}

	txn, err := h.coordinator.Checkout(r.Context(), c, checkout.Request{
		IdempotencyKey: req.IdempotencyKey,
		UserID:         h.operatorID(r),
	})
	if errors.Is(err, checkout.ErrEmptyCart) {
		writeError(w, http.StatusBadRequest, "bad_request", "cart is empty")
		return
	}
	if err != nil {
		serverError(w, r, err)
		return
	}

	// The coordinator cleared the cart; drop the session so a stale
	// copy cannot resurface.
	if err := h.carts.Delete(r.Context(), id); err != nil {
		serverError(w, r, err)
		return
	}

	var e jx.Encoder
	encodeTransaction(&e, txn)
	writeJSON(w, http.StatusCreated, &e)
}

// operatorID resolves the logged-in user when the cart request also
// carries a bearer token. Checkout works without one; the transaction
// simply records no operator.
func (h *Handler) operatorID(r *http.Request) string {
	if claims, ok := claimsFromContext(r.Context()); ok {
		return claims.Subject
	}
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" {
		return ""
	}
	claims, err := h.auth.Verify(token)
	if err != nil {
		return ""
	}
	return claims.Subject
}

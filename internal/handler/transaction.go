package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/Zeyademad999/nassim-clipper-checkout/internal/domain/cart"
	"github.com/Zeyademad999/nassim-clipper-checkout/internal/domain/catalog"
	"github.com/Zeyademad999/nassim-clipper-checkout/internal/domain/checkout"
	"github.com/Zeyademad999/nassim-clipper-checkout/internal/domain/transaction"
	"github.com/Zeyademad999/nassim-clipper-checkout/internal/receipt"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func encodeTransaction(e *jx.Encoder, txn *transaction.Transaction) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(txn.ID)
	e.FieldStart("receipt_number")
	e.Str(txn.ReceiptNumber)
	if txn.CustomerName != "" {
		e.FieldStart("customer_name")
		e.Str(txn.CustomerName)
	}
	if txn.BarberID != "" {
		e.FieldStart("barber_id")
		e.Str(txn.BarberID)
	}
	if txn.UserID != "" {
		e.FieldStart("user_id")
		e.Str(txn.UserID)
	}
	e.FieldStart("service_date")
	e.Str(txn.ServiceDate.Format(dateLayout))
	e.FieldStart("subtotal")
	money(e, txn.Subtotal)
	e.FieldStart("tax")
	money(e, txn.Tax)
	e.FieldStart("total")
	money(e, txn.Total)
	e.FieldStart("created_at")
	e.Str(txn.CreatedAt.Format(time.RFC3339))
	e.FieldStart("items")
	e.ArrStart()
	for _, item := range txn.Items {
		e.ObjStart()
		e.FieldStart("id")
		e.Str(item.ID)
		e.FieldStart("service_id")
		e.Str(item.ServiceID)
		e.FieldStart("quantity")
		e.Int(item.Quantity)
		e.FieldStart("unit_price")
		money(e, item.UnitPrice)
		e.FieldStart("total_price")
		money(e, item.TotalPrice)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()
}

// createTransaction records a sale directly, without a session cart.
// Unit prices and totals always come from the catalog and the rounding
// policy; client-supplied money is ignored.
func (h *Handler) createTransaction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustomerName   string `json:"customer_name"`
		BarberID       string `json:"barber_id"`
		ServiceDate    string `json:"service_date"`
		IdempotencyKey string `json:"idempotency_key"`
		Items          []struct {
			ServiceID string `json:"service_id"`
			Quantity  int    `json:"quantity"`
		} `json:"items"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "at least one item required")
		return
	}

	c := cart.New()
	c.CustomerName = req.CustomerName
	c.BarberID = req.BarberID
	if req.ServiceDate != "" {
		date, ok := parseDate(req.ServiceDate)
		if !ok {
			writeError(w, http.StatusBadRequest, "bad_request", "service_date must be YYYY-MM-DD")
			return
		}
		c.ServiceDate = date
	}

	for _, item := range req.Items {
		if item.Quantity <= 0 {
			writeError(w, http.StatusBadRequest, "bad_request", "quantity must be positive")
			return
		}
		svc, err := h.services.GetByID(r.Context(), item.ServiceID)
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "bad_request", "unknown service "+item.ServiceID)
			return
		}
		if err != nil {
			serverError(w, r, err)
			return
		}
		c.AddService(svc.ID, svc.Name, svc.Price)
		c.UpdateQuantity(svc.ID, item.Quantity)
	}

	userID := ""
	if claims, ok := claimsFromContext(r.Context()); ok {
		userID = claims.Subject
	}

	txn, err := h.coordinator.Checkout(r.Context(), c, checkout.Request{
		IdempotencyKey: req.IdempotencyKey,
		UserID:         userID,
	})
	if err != nil {
		serverError(w, r, err)
		return
	}

	var e jx.Encoder
	encodeTransaction(&e, txn)
	writeJSON(w, http.StatusCreated, &e)
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := transaction.ListFilter{Page: 1, PageSize: defaultPageSize}
	if v := q.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", "page must be a positive integer")
			return
		}
		filter.Page = page
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 || limit > maxPageSize {
			writeError(w, http.StatusBadRequest, "bad_request", "limit must be between 1 and 100")
			return
		}
		filter.PageSize = limit
	}
	if v := q.Get("start_date"); v != "" {
		date, ok := parseDate(v)
		if !ok {
			writeError(w, http.StatusBadRequest, "bad_request", "start_date must be YYYY-MM-DD")
			return
		}
		filter.From = &date
	}
	if v := q.Get("end_date"); v != "" {
		date, ok := parseDate(v)
		if !ok {
			writeError(w, http.StatusBadRequest, "bad_request", "end_date must be YYYY-MM-DD")
			return
		}
		filter.To = &date
	}

	page, err := h.transactions.List(r.Context(), filter)
	if err != nil {
		serverError(w, r, err)
		return
	}

	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("data")
	e.ArrStart()
	for i := range page.Transactions {
		encodeTransaction(&e, &page.Transactions[i])
	}
	e.ArrEnd()
	e.FieldStart("total")
	e.Int(page.Total)
	e.FieldStart("page")
	e.Int(filter.Page)
	e.FieldStart("limit")
	e.Int(filter.PageSize)
	e.ObjEnd()
	writeJSON(w, http.StatusOK, &e)
}

func (h *Handler) getTransaction(w http.ResponseWriter, r *http.Request) {
	txn, err := h.transactions.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, transaction.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "transaction not found")
		return
	}
	if err != nil {
		serverError(w, r, err)
		return
	}

	var e jx.Encoder
	encodeTransaction(&e, txn)
	writeJSON(w, http.StatusOK, &e)
}

func (h *Handler) exportReceipt(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "text"
	}
	if format != "text" && format != "csv" {
		writeError(w, http.StatusBadRequest, "bad_request", "format must be text or csv")
		return
	}

	txn, err := h.transactions.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, transaction.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "transaction not found")
		return
	}
	if err != nil {
		serverError(w, r, err)
		return
	}

	data, err := h.resolveReceipt(r, txn)
	if err != nil {
		serverError(w, r, err)
		return
	}

	switch format {
	case "csv":
		body, err := receipt.CSV(data)
		if err != nil {
			serverError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="`+txn.ReceiptNumber+`.csv"`)
		_, _ = w.Write(body)
	default:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(receipt.Text(data)))
	}
}

// resolveReceipt joins a ledger row with catalog names for rendering.
// Entries deleted from the catalog since the sale fall back to their
// stored IDs.
func (h *Handler) resolveReceipt(r *http.Request, txn *transaction.Transaction) (receipt.Receipt, error) {
	data := receipt.Receipt{
		ReceiptNumber: txn.ReceiptNumber,
		CustomerName:  txn.CustomerName,
		ServiceDate:   txn.ServiceDate,
		CreatedAt:     txn.CreatedAt,
		Subtotal:      txn.Subtotal,
		Tax:           txn.Tax,
		Total:         txn.Total,
	}

	if txn.BarberID != "" {
		b, err := h.barbers.GetByID(r.Context(), txn.BarberID)
		switch {
		case err == nil:
			data.BarberName = b.Name
		case errors.Is(err, catalog.ErrNotFound):
			data.BarberName = txn.BarberID
		default:
			return receipt.Receipt{}, errors.Wrap(err, "resolve barber")
		}
	}

	for _, item := range txn.Items {
		name := item.ServiceID
		svc, err := h.services.GetByID(r.Context(), item.ServiceID)
		switch {
		case err == nil:
			name = svc.Name
		case errors.Is(err, catalog.ErrNotFound):
		default:
			return receipt.Receipt{}, errors.Wrap(err, "resolve service")
		}
		data.Lines = append(data.Lines, receipt.Line{
			Name:      name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Total:     item.TotalPrice,
		})
	}
	return data, nil
}

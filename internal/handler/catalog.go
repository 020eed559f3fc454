package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Zeyademad999/nassim-clipper-checkout/internal/domain/catalog"
)

func encodeService(e *jx.Encoder, s catalog.Service) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(s.ID)
	e.FieldStart("name")
	e.Str(s.Name)
	e.FieldStart("price")
	money(e, s.Price)
	e.FieldStart("created_at")
	e.Str(s.CreatedAt.Format(time.RFC3339))
	e.FieldStart("updated_at")
	e.Str(s.UpdatedAt.Format(time.RFC3339))
	e.ObjEnd()
}

func encodeBarber(e *jx.Encoder, b catalog.Barber) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(b.ID)
	e.FieldStart("name")
	e.Str(b.Name)
	e.FieldStart("created_at")
	e.Str(b.CreatedAt.Format(time.RFC3339))
	e.FieldStart("updated_at")
	e.Str(b.UpdatedAt.Format(time.RFC3339))
	e.ObjEnd()
}

// catalogError maps catalog domain errors onto the shared error body.
func catalogError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "catalog entry not found")
	case errors.Is(err, catalog.ErrEmptyName), errors.Is(err, catalog.ErrInvalidPrice):
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
	default:
		serverError(w, r, err)
	}
}

func (h *Handler) listServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.services.List(r.Context())
	if err != nil {
		serverError(w, r, err)
		return
	}

	var e jx.Encoder
	e.ArrStart()
	for _, s := range services {
		encodeService(&e, s)
	}
	e.ArrEnd()
	writeJSON(w, http.StatusOK, &e)
}

func (h *Handler) getService(w http.ResponseWriter, r *http.Request) {
	s, err := h.services.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		catalogError(w, r, err)
		return
	}

	var e jx.Encoder
	encodeService(&e, *s)
	writeJSON(w, http.StatusOK, &e)
}

func (h *Handler) createService(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string          `json:"name"`
		Price decimal.Decimal `json:"price"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	now := time.Now().UTC()
	svc := catalog.Service{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Price:     req.Price.Round(2),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := svc.Validate(); err != nil {
		catalogError(w, r, err)
		return
	}
	if err := h.services.Create(r.Context(), &svc); err != nil {
		serverError(w, r, err)
		return
	}

	var e jx.Encoder
	encodeService(&e, svc)
	writeJSON(w, http.StatusCreated, &e)
}

func (h *Handler) updateService(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  *string          `json:"name"`
		Price *decimal.Decimal `json:"price"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name != nil && *req.Name == "" {
		catalogError(w, r, catalog.ErrEmptyName)
		return
	}
	if req.Price != nil && req.Price.IsNegative() {
		catalogError(w, r, catalog.ErrInvalidPrice)
		return
	}
	if req.Price != nil {
		rounded := req.Price.Round(2)
		req.Price = &rounded
	}

	s, err := h.services.Update(r.Context(), r.PathValue("id"), catalog.ServiceUpdate{
		Name:  req.Name,
		Price: req.Price,
	})
	if err != nil {
		catalogError(w, r, err)
		return
	}

	var e jx.Encoder
	encodeService(&e, *s)
	writeJSON(w, http.StatusOK, &e)
}

func (h *Handler) deleteService(w http.ResponseWriter, r *http.Request) {
	if err := h.services.Delete(r.Context(), r.PathValue("id")); err != nil {
		catalogError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listBarbers(w http.ResponseWriter, r *http.Request) {
	barbers, err := h.barbers.List(r.Context())
	if err != nil {
		serverError(w, r, err)
		return
	}

	var e jx.Encoder
	e.ArrStart()
	for _, b := range barbers {
		encodeBarber(&e, b)
	}
	e.ArrEnd()
	writeJSON(w, http.StatusOK, &e)
}

func (h *Handler) getBarber(w http.ResponseWriter, r *http.Request) {
	b, err := h.barbers.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		catalogError(w, r, err)
		return
	}

	var e jx.Encoder
	encodeBarber(&e, *b)
	writeJSON(w, http.StatusOK, &e)
}

func (h *Handler) createBarber(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	now := time.Now().UTC()
	b := catalog.Barber{ID: uuid.New().String(), Name: req.Name, CreatedAt: now, UpdatedAt: now}
	if err := b.Validate(); err != nil {
		catalogError(w, r, err)
		return
	}
	if err := h.barbers.Create(r.Context(), &b); err != nil {
		serverError(w, r, err)
		return
	}

	var e jx.Encoder
	encodeBarber(&e, b)
	writeJSON(w, http.StatusCreated, &e)
}

func (h *Handler) updateBarber(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		catalogError(w, r, catalog.ErrEmptyName)
		return
	}

	b, err := h.barbers.Rename(r.Context(), r.PathValue("id"), req.Name)
	if err != nil {
		catalogError(w, r, err)
		return
	}

	var e jx.Encoder
	encodeBarber(&e, *b)
	writeJSON(w, http.StatusOK, &e)
}

func (h *Handler) deleteBarber(w http.ResponseWriter, r *http.Request) {
	if err := h.barbers.Delete(r.Context(), r.PathValue("id")); err != nil {
		catalogError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

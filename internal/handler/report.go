package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/Zeyademad999/nassim-clipper-checkout/internal/domain/report"
)

func encodeServiceSales(e *jx.Encoder, rows []report.ServiceSales) {
	e.ArrStart()
	for _, row := range rows {
		e.ObjStart()
		e.FieldStart("service_name")
		e.Str(row.ServiceName)
		e.FieldStart("quantity")
		e.Int(row.Quantity)
		e.FieldStart("revenue")
		money(e, row.Revenue)
		e.ObjEnd()
	}
	e.ArrEnd()
}

func encodeBarberSales(e *jx.Encoder, rows []report.BarberSales) {
	e.ArrStart()
	for _, row := range rows {
		e.ObjStart()
		e.FieldStart("barber_name")
		e.Str(row.BarberName)
		e.FieldStart("transactions")
		e.Int(row.Transactions)
		e.FieldStart("revenue")
		money(e, row.Revenue)
		e.ObjEnd()
	}
	e.ArrEnd()
}

func (h *Handler) dailyReport(w http.ResponseWriter, r *http.Request) {
	date, ok := parseDate(r.URL.Query().Get("date"))
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", "date must be YYYY-MM-DD")
		return
	}

	daily, err := h.reports.DailyReport(r.Context(), date)
	if err != nil {
		serverError(w, r, err)
		return
	}

	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("date")
	e.Str(date.Format(dateLayout))
	e.FieldStart("total_revenue")
	money(&e, daily.TotalRevenue)
	e.FieldStart("total_transactions")
	e.Int(daily.TotalTransactions)
	e.FieldStart("services_sold")
	encodeServiceSales(&e, daily.ServicesSold)
	e.FieldStart("barber_performance")
	encodeBarberSales(&e, daily.BarberPerformance)
	e.ObjEnd()
	writeJSON(w, http.StatusOK, &e)
}

func (h *Handler) rangeReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, okStart := parseDate(q.Get("start_date"))
	end, okEnd := parseDate(q.Get("end_date"))
	if !okStart || !okEnd {
		writeError(w, http.StatusBadRequest, "bad_request", "start_date and end_date must be YYYY-MM-DD")
		return
	}

	rng, err := h.reports.RangeReport(r.Context(), start, end)
	if errors.Is(err, report.ErrInvalidRange) {
		writeError(w, http.StatusBadRequest, "bad_request", "start_date must not be after end_date")
		return
	}
	if err != nil {
		serverError(w, r, err)
		return
	}

	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("start_date")
	e.Str(start.Format(dateLayout))
	e.FieldStart("end_date")
	e.Str(end.Format(dateLayout))
	e.FieldStart("total_revenue")
	money(&e, rng.TotalRevenue)
	e.FieldStart("total_transactions")
	e.Int(rng.TotalTransactions)
	e.FieldStart("daily_breakdown")
	e.ArrStart()
	for _, day := range rng.DailyBreakdown {
		e.ObjStart()
		e.FieldStart("date")
		e.Str(day.Date.Format(dateLayout))
		e.FieldStart("transactions")
		e.Int(day.Transactions)
		e.FieldStart("revenue")
		money(&e, day.Revenue)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("top_services")
	encodeServiceSales(&e, rng.TopServices)
	e.FieldStart("barber_performance")
	encodeBarberSales(&e, rng.BarberPerformance)
	e.ObjEnd()
	writeJSON(w, http.StatusOK, &e)
}

// Package report aggregates the persisted ledger into daily and
// date-range sales summaries. It holds no state of its own: every
// figure is derived from committed transactions at query time.
package report

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrInvalidRange is returned when a range report is requested with a
// start date after its end date.
var ErrInvalidRange = errors.New("start date must not be after end date")

// UnassignedBarber labels transactions that carry no barber. They are
// still counted; dropping them would understate totals.
const UnassignedBarber = "Unassigned"

// ServiceSales is one row of the per-service breakdown.
type ServiceSales struct {
	ServiceName string
	Quantity    int
	Revenue     decimal.Decimal
}

// BarberSales is one row of the per-barber breakdown.
type BarberSales struct {
	BarberName   string
	Transactions int
	Revenue      decimal.Decimal
}

// DayTotals is one day of a range report's breakdown.
type DayTotals struct {
	Date         time.Time
	Transactions int
	Revenue      decimal.Decimal
}

// Daily summarizes one service date. Zero transactions is a valid
// report, not an error.
type Daily struct {
	TotalRevenue      decimal.Decimal
	TotalTransactions int
	ServicesSold      []ServiceSales
	BarberPerformance []BarberSales
}

// Range summarizes an inclusive date span.
type Range struct {
	TotalRevenue      decimal.Decimal
	TotalTransactions int
	DailyBreakdown    []DayTotals
	TopServices       []ServiceSales
	BarberPerformance []BarberSales
}

// Source runs the aggregate queries against the ledger. Breakdown rows
// come back sorted by revenue descending, the daily breakdown by date
// ascending, and top services capped at the given limit.
type Source interface {
	DailyTotals(ctx context.Context, date time.Time) (*Daily, error)
	RangeTotals(ctx context.Context, start, end time.Time, topLimit int) (*Range, error)
}

// TopServicesLimit caps the per-service breakdown of a range report.
const TopServicesLimit = 10

// Aggregator validates report requests and delegates to a Source.
type Aggregator struct {
	source Source
}

// NewAggregator creates an Aggregator over the given source.
func NewAggregator(source Source) *Aggregator {
	return &Aggregator{source: source}
}

// DailyReport returns the summary for a single service date.
func (a *Aggregator) DailyReport(ctx context.Context, date time.Time) (*Daily, error) {
	d, err := a.source.DailyTotals(ctx, date)
	if err != nil {
		return nil, errors.Wrap(err, "daily totals")
	}
	return d, nil
}

// RangeReport returns the summary for the inclusive [start, end] span.
func (a *Aggregator) RangeReport(ctx context.Context, start, end time.Time) (*Range, error) {
	if start.After(end) {
		return nil, ErrInvalidRange
	}
	r, err := a.source.RangeTotals(ctx, start, end, TopServicesLimit)
	if err != nil {
		return nil, errors.Wrap(err, "range totals")
	}
	return r, nil
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Zeyademad999/nassim-clipper-checkout/internal/domain/report"
)

const (
	dailyTotalsSQL = `SELECT COUNT(*), COALESCE(SUM(total), 0)
		FROM transactions WHERE service_date = $1`

	rangeTotalsSQL = `SELECT COUNT(*), COALESCE(SUM(total), 0)
		FROM transactions WHERE service_date BETWEEN $1 AND $2`

	servicesSoldSQL = `SELECT s.name, SUM(ti.quantity)::int, SUM(ti.total_price)
		FROM transaction_items ti
		JOIN services s ON ti.service_id = s.id
		JOIN transactions t ON ti.transaction_id = t.id
		WHERE t.service_date BETWEEN $1 AND $2
		GROUP BY s.id, s.name
		ORDER BY SUM(ti.total_price) DESC
		LIMIT $3`

	// LEFT JOIN keeps transactions without a barber; they land in the
	// "Unassigned" bucket instead of vanishing from the totals.
	barberPerformanceSQL = `SELECT COALESCE(b.name, '` + report.UnassignedBarber + `'),
		COUNT(t.id)::int, COALESCE(SUM(t.total), 0)
		FROM transactions t
		LEFT JOIN barbers b ON t.barber_id = b.id
		WHERE t.service_date BETWEEN $1 AND $2
		GROUP BY b.id, b.name
		ORDER BY COALESCE(SUM(t.total), 0) DESC`

	dailyBreakdownSQL = `SELECT service_date, COUNT(*)::int, COALESCE(SUM(total), 0)
		FROM transactions
		WHERE service_date BETWEEN $1 AND $2
		GROUP BY service_date
		ORDER BY service_date`
)

var _ report.Source = (*ReportSource)(nil)

// ReportSource implements report.Source with aggregate SQL over the
// transactions tables.
type ReportSource struct {
	pool *pgxpool.Pool
}

// NewReportSource returns a ReportSource that uses the given pool.
func NewReportSource(pool *pgxpool.Pool) *ReportSource {
	return &ReportSource{pool: pool}
}

// DailyTotals aggregates one service date.
func (r *ReportSource) DailyTotals(ctx context.Context, date time.Time) (*report.Daily, error) {
	var d report.Daily
	if err := r.pool.QueryRow(ctx, dailyTotalsSQL, date).Scan(&d.TotalTransactions, &d.TotalRevenue); err != nil {
		return nil, fmt.Errorf("daily totals: %w", err)
	}

	var err error
	// No cap on a single day's service breakdown.
	if d.ServicesSold, err = r.servicesSold(ctx, date, date, -1); err != nil {
		return nil, err
	}
	if d.BarberPerformance, err = r.barberPerformance(ctx, date, date); err != nil {
		return nil, err
	}
	return &d, nil
}

// RangeTotals aggregates an inclusive date span.
func (r *ReportSource) RangeTotals(ctx context.Context, start, end time.Time, topLimit int) (*report.Range, error) {
	var rng report.Range
	if err := r.pool.QueryRow(ctx, rangeTotalsSQL, start, end).Scan(&rng.TotalTransactions, &rng.TotalRevenue); err != nil {
		return nil, fmt.Errorf("range totals: %w", err)
	}

	var err error
	if rng.TopServices, err = r.servicesSold(ctx, start, end, topLimit); err != nil {
		return nil, err
	}
	if rng.BarberPerformance, err = r.barberPerformance(ctx, start, end); err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, dailyBreakdownSQL, start, end)
	if err != nil {
		return nil, fmt.Errorf("daily breakdown: %w", err)
	}
	rng.DailyBreakdown, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (report.DayTotals, error) {
		var dt report.DayTotals
		err := row.Scan(&dt.Date, &dt.Transactions, &dt.Revenue)
		return dt, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning daily breakdown: %w", err)
	}

	return &rng, nil
}

func (r *ReportSource) servicesSold(ctx context.Context, start, end time.Time, limit int) ([]report.ServiceSales, error) {
	var limitArg any
	if limit > 0 {
		limitArg = limit
	} // NULL means no LIMIT in postgres

	rows, err := r.pool.Query(ctx, servicesSoldSQL, start, end, limitArg)
	if err != nil {
		return nil, fmt.Errorf("services sold: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (report.ServiceSales, error) {
		var s report.ServiceSales
		err := row.Scan(&s.ServiceName, &s.Quantity, &s.Revenue)
		return s, err
	})
}

func (r *ReportSource) barberPerformance(ctx context.Context, start, end time.Time) ([]report.BarberSales, error) {
	rows, err := r.pool.Query(ctx, barberPerformanceSQL, start, end)
	if err != nil {
		return nil, fmt.Errorf("barber performance: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (report.BarberSales, error) {
		var b report.BarberSales
		err := row.Scan(&b.BarberName, &b.Transactions, &b.Revenue)
		return b, err
	})
}

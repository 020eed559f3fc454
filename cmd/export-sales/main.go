// Command export-sales dumps a date range of the transaction ledger to
// a gzipped CSV file, one row per sold item. The query and the
// compressing writer run concurrently so large exports stream instead
// of buffering in memory.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/Zeyademad999/nassim-clipper-checkout/internal/storage/postgres"
)

const exportSQL = `
	SELECT t.receipt_number,
	       t.service_date,
	       COALESCE(t.customer_name, ''),
	       COALESCE(b.name, ''),
	       COALESCE(s.name, i.service_id),
	       i.quantity,
	       i.unit_price,
	       i.total_price,
	       t.created_at
	FROM transactions t
	JOIN transaction_items i ON i.transaction_id = t.id
	LEFT JOIN barbers b ON b.id = t.barber_id
	LEFT JOIN services s ON s.id = i.service_id
	WHERE t.service_date BETWEEN $1 AND $2
	ORDER BY t.created_at, t.id`

type exportRow struct {
	receipt    string
	date       time.Time
	customer   string
	barber     string
	service    string
	quantity   int
	unitPrice  decimal.Decimal
	totalPrice decimal.Decimal
	createdAt  time.Time
}

func main() {
	var (
		databaseURL string
		startStr    string
		endStr      string
		outPath     string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&startStr, "start", "", "first service date to export (YYYY-MM-DD)")
	flag.StringVar(&endStr, "end", "", "last service date to export (YYYY-MM-DD)")
	flag.StringVar(&outPath, "out", "", "output path (default sales-<start>-<end>.csv.gz)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	start, err := time.Parse("2006-01-02", startStr)
	if err != nil {
		slog.Error("--start must be YYYY-MM-DD")
		os.Exit(1)
	}
	end, err := time.Parse("2006-01-02", endStr)
	if err != nil {
		slog.Error("--end must be YYYY-MM-DD")
		os.Exit(1)
	}
	if start.After(end) {
		slog.Error("--start must not be after --end")
		os.Exit(1)
	}
	if outPath == "" {
		outPath = "sales-" + startStr + "-" + endStr + ".csv.gz"
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, start, end, outPath); err != nil {
		slog.Error("export failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, databaseURL string, start, end time.Time, outPath string) error {
	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return errors.Wrap(err, "create output file")
	}
	defer out.Close()

	gz := pgzip.NewWriter(out)
	w := csv.NewWriter(gz)

	rows := make(chan exportRow, 256)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(rows)
		return queryRows(ctx, pool, start, end, rows)
	})

	var count int
	g.Go(func() error {
		if err := w.Write([]string{
			"receipt_number", "service_date", "customer", "barber",
			"service", "quantity", "unit_price", "total_price", "created_at",
		}); err != nil {
			return errors.Wrap(err, "write header")
		}
		for row := range rows {
			record := []string{
				row.receipt,
				row.date.Format("2006-01-02"),
				row.customer,
				row.barber,
				row.service,
				strconv.Itoa(row.quantity),
				row.unitPrice.StringFixed(2),
				row.totalPrice.StringFixed(2),
				row.createdAt.Format(time.RFC3339),
			}
			if err := w.Write(record); err != nil {
				return errors.Wrap(err, "write row")
			}
			count++
		}
		w.Flush()
		return errors.Wrap(w.Error(), "flush csv")
	})

	if err := g.Wait(); err != nil {
		return err
	}
	if err := gz.Close(); err != nil {
		return errors.Wrap(err, "close gzip stream")
	}

	slog.Info("export completed",
		slog.String("path", outPath),
		slog.Int("rows", count),
	)
	return nil
}

func queryRows(ctx context.Context, pool *pgxpool.Pool, start, end time.Time, out chan<- exportRow) error {
	rows, err := pool.Query(ctx, exportSQL, start, end)
	if err != nil {
		return errors.Wrap(err, "query transactions")
	}
	defer rows.Close()

	for rows.Next() {
		var row exportRow
		if err := rows.Scan(
			&row.receipt, &row.date, &row.customer, &row.barber,
			&row.service, &row.quantity, &row.unitPrice, &row.totalPrice,
			&row.createdAt,
		); err != nil {
			return errors.Wrap(err, "scan row")
		}
		select {
		case out <- row:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return errors.Wrap(rows.Err(), "iterate rows")
}

// Package receipt renders a completed sale for the customer: a fixed
// width plain-text slip and a CSV row set. It formats already resolved
// data and never touches persistence.
package receipt

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

const slipWidth = 40

// Line is one rendered item with its catalog name resolved.
type Line struct {
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	Total     decimal.Decimal
}

// Receipt carries everything a rendered receipt shows.
type Receipt struct {
	ReceiptNumber string
	CustomerName  string
	BarberName    string
	ServiceDate   time.Time
	CreatedAt     time.Time
	Lines         []Line
	Subtotal      decimal.Decimal
	Tax           decimal.Decimal
	Total         decimal.Decimal
}

// Text renders the classic till slip.
func Text(r Receipt) string {
	var b strings.Builder

	rule := strings.Repeat("=", slipWidth)
	center(&b, "NASSIM CLIPPER")
	center(&b, "Receipt "+r.ReceiptNumber)
	b.WriteString(rule + "\n")

	fmt.Fprintf(&b, "Date:    %s\n", r.ServiceDate.Format("2006-01-02"))
	if r.CustomerName != "" {
		fmt.Fprintf(&b, "Customer: %s\n", r.CustomerName)
	}
	if r.BarberName != "" {
		fmt.Fprintf(&b, "Barber:  %s\n", r.BarberName)
	}
	b.WriteString(strings.Repeat("-", slipWidth) + "\n")

	for _, l := range r.Lines {
		label := fmt.Sprintf("%s x%d", l.Name, l.Quantity)
		amount := l.Total.StringFixed(2)
		fmt.Fprintf(&b, "%-*s%s\n", slipWidth-len(amount), trim(label, slipWidth-len(amount)-1), amount)
	}

	b.WriteString(strings.Repeat("-", slipWidth) + "\n")
	amountLine(&b, "Subtotal", r.Subtotal)
	amountLine(&b, "Tax (8%)", r.Tax)
	amountLine(&b, "TOTAL", r.Total)
	b.WriteString(rule + "\n")
	center(&b, "Thank you for your visit!")

	return b.String()
}

// CSV renders one row per item plus a totals row.
func CSV(r Receipt) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	rows := [][]string{
		{"receipt_number", "service_date", "customer", "barber", "item", "quantity", "unit_price", "total"},
	}
	for _, l := range r.Lines {
		rows = append(rows, []string{
			r.ReceiptNumber,
			r.ServiceDate.Format("2006-01-02"),
			r.CustomerName,
			r.BarberName,
			l.Name,
			fmt.Sprintf("%d", l.Quantity),
			l.UnitPrice.StringFixed(2),
			l.Total.StringFixed(2),
		})
	}
	rows = append(rows, []string{
		r.ReceiptNumber,
		r.ServiceDate.Format("2006-01-02"),
		r.CustomerName,
		r.BarberName,
		"TOTAL (incl. tax " + r.Tax.StringFixed(2) + ")",
		"",
		"",
		r.Total.StringFixed(2),
	})

	if err := w.WriteAll(rows); err != nil {
		return nil, errors.Wrap(err, "write csv")
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, errors.Wrap(err, "flush csv")
	}
	return buf.Bytes(), nil
}

func center(b *strings.Builder, s string) {
	pad := (slipWidth - len(s)) / 2
	if pad < 0 {
		pad = 0
	}
	b.WriteString(strings.Repeat(" ", pad) + s + "\n")
}

func amountLine(b *strings.Builder, label string, amount decimal.Decimal) {
	value := amount.StringFixed(2)
	fmt.Fprintf(b, "%-*s%s\n", slipWidth-len(value), label, value)
}

func trim(s string, max int) string {
	if max < 1 || len(s) <= max {
		return s
	}
	return s[:max]
}

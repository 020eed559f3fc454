// Package cart implements the running bill for a single point-of-sale
// session: an ordered set of line items plus the session context that
// ends up on the receipt.
package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

// TaxRate is the fixed sales tax applied to every bill.
var TaxRate = decimal.RequireFromString("0.08")

// Line is one bill entry: a service, its price as it was when first
// added, and a quantity. One line per distinct service ID.
type Line struct {
	ServiceID string          `json:"service_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// Total returns unit price times quantity for this line.
func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Totals is the derived money view of a cart. It carries no state of
// its own and is recomputed after every mutation.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// Cart is the in-progress bill for one session. It never touches
// persistence and never returns errors: invalid mutations are no-ops.
type Cart struct {
	Lines        []Line    `json:"lines"`
	CustomerName string    `json:"customer_name,omitempty"`
	BarberID     string    `json:"barber_id,omitempty"`
	ServiceDate  time.Time `json:"service_date"`
}

// New returns an empty cart dated today.
func New() *Cart {
	return &Cart{ServiceDate: today()}
}

func today() time.Time {
	y, m, d := time.Now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddService appends a line for the service, or increments the
// quantity when a line for the same service already exists. Insertion
// order is preserved.
func (c *Cart) AddService(id, name string, price decimal.Decimal) {
	for i := range c.Lines {
		if c.Lines[i].ServiceID == id {
			c.Lines[i].Quantity++
			return
		}
	}
	c.Lines = append(c.Lines, Line{
		ServiceID: id,
		Name:      name,
		UnitPrice: price,
		Quantity:  1,
	})
}

// UpdateQuantity sets the line's quantity to the given absolute value.
// A quantity of zero or less removes the line. Unknown service IDs are
// ignored.
func (c *Cart) UpdateQuantity(serviceID string, quantity int) {
	if quantity <= 0 {
		c.RemoveLine(serviceID)
		return
	}
	for i := range c.Lines {
		if c.Lines[i].ServiceID == serviceID {
			c.Lines[i].Quantity = quantity
			return
		}
	}
}

// RemoveLine drops the line for the service if present.
func (c *Cart) RemoveLine(serviceID string) {
	for i := range c.Lines {
		if c.Lines[i].ServiceID == serviceID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return
		}
	}
}

// Empty reports whether the cart has no lines.
func (c *Cart) Empty() bool {
	return len(c.Lines) == 0
}

// Clear empties the lines and resets the session context to defaults.
func (c *Cart) Clear() {
	c.Lines = nil
	c.CustomerName = ""
	c.BarberID = ""
	c.ServiceDate = today()
}

// Totals derives subtotal, tax, and total from the current lines.
// Tax is computed from the unrounded subtotal and then rounded to two
// decimal places; the total is the sum of the rounded parts.
func (c *Cart) Totals() Totals {
	subtotal := decimal.Zero
	for _, l := range c.Lines {
		subtotal = subtotal.Add(l.Total())
	}
	tax := subtotal.Mul(TaxRate).Round(2)
	subtotal = subtotal.Round(2)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}

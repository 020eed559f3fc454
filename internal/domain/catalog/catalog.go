// Package catalog holds the sellable services and the barbers that
// perform them.
package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors for catalog lookups and validation.
var (
	ErrNotFound     = errors.New("catalog entry not found")
	ErrEmptyName    = errors.New("name required")
	ErrInvalidPrice = errors.New("price must not be negative")
)

// Service is a sellable barbershop service. Its price is copied into a
// cart line at add time; changing it later never rewrites persisted
// transaction items.
type Service struct {
	ID        string
	Name      string
	Price     decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the fields a service must carry before it is stored.
func (s Service) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyName
	}
	if s.Price.IsNegative() {
		return ErrInvalidPrice
	}
	return nil
}

// Barber is a staff member that can be associated with a transaction.
// The association is optional.
type Barber struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the fields a barber must carry before it is stored.
func (b Barber) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

// ServiceUpdate carries a partial update; nil fields are left unchanged.
type ServiceUpdate struct {
	Name  *string
	Price *decimal.Decimal
}

// ServiceRepository defines persistence operations for services.
type ServiceRepository interface {
	List(ctx context.Context) ([]Service, error)
	GetByID(ctx context.Context, id string) (*Service, error)
	Create(ctx context.Context, svc *Service) error
	Update(ctx context.Context, id string, upd ServiceUpdate) (*Service, error)
	Delete(ctx context.Context, id string) error
}

// BarberRepository defines persistence operations for barbers.
type BarberRepository interface {
	List(ctx context.Context) ([]Barber, error)
	GetByID(ctx context.Context, id string) (*Barber, error)
	Create(ctx context.Context, b *Barber) error
	Rename(ctx context.Context, id, name string) (*Barber, error)
	Delete(ctx context.Context, id string) error
}

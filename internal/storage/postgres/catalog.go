package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Zeyademad999/nassim-clipper-checkout/internal/domain/catalog"
)

const (
	listServicesSQL = `SELECT id, name, price, created_at, updated_at
		FROM services ORDER BY name`

	getServiceSQL = `SELECT id, name, price, created_at, updated_at
		FROM services WHERE id = $1`

	insertServiceSQL = `INSERT INTO services (id, name, price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)`

	updateServiceSQL = `UPDATE services
		SET name = COALESCE($2, name), price = COALESCE($3, price), updated_at = now()
		WHERE id = $1
		RETURNING id, name, price, created_at, updated_at`

	deleteServiceSQL = `DELETE FROM services WHERE id = $1`

	listBarbersSQL = `SELECT id, name, created_at, updated_at
		FROM barbers ORDER BY name`

	getBarberSQL = `SELECT id, name, created_at, updated_at
		FROM barbers WHERE id = $1`

	insertBarberSQL = `INSERT INTO barbers (id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $3)`

	renameBarberSQL = `UPDATE barbers SET name = $2, updated_at = now()
		WHERE id = $1
		RETURNING id, name, created_at, updated_at`

	deleteBarberSQL = `DELETE FROM barbers WHERE id = $1`
)

var (
	_ catalog.ServiceRepository = (*ServiceRepository)(nil)
	_ catalog.BarberRepository  = (*BarberRepository)(nil)
)

// ServiceRepository implements catalog.ServiceRepository backed by
// PostgreSQL.
type ServiceRepository struct {
	pool *pgxpool.Pool
}

// NewServiceRepository returns a ServiceRepository that uses the given
// pool.
func NewServiceRepository(pool *pgxpool.Pool) *ServiceRepository {
	return &ServiceRepository{pool: pool}
}

// List returns every service ordered by name.
func (r *ServiceRepository) List(ctx context.Context) ([]catalog.Service, error) {
	rows, err := r.pool.Query(ctx, listServicesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing services: %w", err)
	}
	return pgx.CollectRows(rows, scanService)
}

// GetByID returns a single service.
func (r *ServiceRepository) GetByID(ctx context.Context, id string) (*catalog.Service, error) {
	rows, err := r.pool.Query(ctx, getServiceSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting service %q: %w", id, err)
	}
	svc, err := pgx.CollectExactlyOneRow(rows, scanService)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("getting service %q: %w", id, err)
	}
	return &svc, nil
}

// Create inserts a new service.
func (r *ServiceRepository) Create(ctx context.Context, svc *catalog.Service) error {
	_, err := r.pool.Exec(ctx, insertServiceSQL, svc.ID, svc.Name, svc.Price, svc.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating service %q: %w", svc.ID, err)
	}
	return nil
}

// Update applies a partial update and returns the stored row.
func (r *ServiceRepository) Update(ctx context.Context, id string, upd catalog.ServiceUpdate) (*catalog.Service, error) {
	rows, err := r.pool.Query(ctx, updateServiceSQL, id, upd.Name, upd.Price)
	if err != nil {
		return nil, fmt.Errorf("updating service %q: %w", id, err)
	}
	svc, err := pgx.CollectExactlyOneRow(rows, scanService)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("updating service %q: %w", id, err)
	}
	return &svc, nil
}

// Delete removes a service.
func (r *ServiceRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteServiceSQL, id)
	if err != nil {
		return fmt.Errorf("deleting service %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

func scanService(row pgx.CollectableRow) (catalog.Service, error) {
	var s catalog.Service
	err := row.Scan(&s.ID, &s.Name, &s.Price, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// BarberRepository implements catalog.BarberRepository backed by
// PostgreSQL.
type BarberRepository struct {
	pool *pgxpool.Pool
}

// NewBarberRepository returns a BarberRepository that uses the given
// pool.
func NewBarberRepository(pool *pgxpool.Pool) *BarberRepository {
	return &BarberRepository{pool: pool}
}

// List returns every barber ordered by name.
func (r *BarberRepository) List(ctx context.Context) ([]catalog.Barber, error) {
	rows, err := r.pool.Query(ctx, listBarbersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing barbers: %w", err)
	}
	return pgx.CollectRows(rows, scanBarber)
}

// GetByID returns a single barber.
func (r *BarberRepository) GetByID(ctx context.Context, id string) (*catalog.Barber, error) {
	rows, err := r.pool.Query(ctx, getBarberSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting barber %q: %w", id, err)
	}
	b, err := pgx.CollectExactlyOneRow(rows, scanBarber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("getting barber %q: %w", id, err)
	}
	return &b, nil
}

// Create inserts a new barber.
func (r *BarberRepository) Create(ctx context.Context, b *catalog.Barber) error {
	_, err := r.pool.Exec(ctx, insertBarberSQL, b.ID, b.Name, b.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating barber %q: %w", b.ID, err)
	}
	return nil
}

// Rename updates a barber's name and returns the stored row.
func (r *BarberRepository) Rename(ctx context.Context, id, name string) (*catalog.Barber, error) {
	rows, err := r.pool.Query(ctx, renameBarberSQL, id, name)
	if err != nil {
		return nil, fmt.Errorf("renaming barber %q: %w", id, err)
	}
	b, err := pgx.CollectExactlyOneRow(rows, scanBarber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("renaming barber %q: %w", id, err)
	}
	return &b, nil
}

// Delete removes a barber.
func (r *BarberRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteBarberSQL, id)
	if err != nil {
		return fmt.Errorf("deleting barber %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

func scanBarber(row pgx.CollectableRow) (catalog.Barber, error) {
	var b catalog.Barber
	err := row.Scan(&b.ID, &b.Name, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

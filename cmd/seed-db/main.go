// Command seed-db applies migrations and seeds the catalog plus an
// admin login so a fresh database is immediately usable.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Zeyademad999/nassim-clipper-checkout/internal/domain/auth"
	"github.com/Zeyademad999/nassim-clipper-checkout/internal/storage/postgres"
)

type seedService struct {
	name  string
	price string
}

var defaultServices = []seedService{
	{"Hair Cutting", "25.00"},
	{"Beard Trim", "15.00"},
	{"Hot Towel Shave", "20.00"},
	{"Hair Washing", "10.00"},
	{"Haircut & Beard Combo", "35.00"},
	{"Kids Cut", "18.00"},
}

var defaultBarbers = []string{"Nassim", "Omar", "Youssef"}

func main() {
	var (
		databaseURL   string
		adminUser     string
		adminPassword string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&adminUser, "admin-user", "admin", "username for the seeded admin account")
	flag.StringVar(&adminPassword, "admin-password", "", "password for the seeded admin account (or BARBER_SEED_PASSWORD env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if adminPassword == "" {
		adminPassword = os.Getenv("BARBER_SEED_PASSWORD")
	}
	if adminPassword == "" {
		slog.Error("admin password is required: set --admin-password or BARBER_SEED_PASSWORD")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, adminUser, adminPassword); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, adminUser, adminPassword string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedCatalog(ctx, pool); err != nil {
		return errors.Wrap(err, "seed catalog")
	}
	if err := seedAdmin(ctx, pool, adminUser, adminPassword); err != nil {
		return errors.Wrap(err, "seed admin user")
	}
	return nil
}

func seedCatalog(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding services", slog.Int("count", len(defaultServices)))

	const upsertService = `
		INSERT INTO services (id, name, price)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING`
	for _, s := range defaultServices {
		price, err := decimal.NewFromString(s.price)
		if err != nil {
			return errors.Wrapf(err, "parse price for %s", s.name)
		}
		id := uuid.NewSHA1(uuid.NameSpaceOID, []byte("service:"+s.name)).String()
		if _, err := pool.Exec(ctx, upsertService, id, s.name, price); err != nil {
			return errors.Wrapf(err, "upsert service %s", s.name)
		}
		slog.Info("seeded service", slog.String("name", s.name), slog.String("price", s.price))
	}

	slog.Info("seeding barbers", slog.Int("count", len(defaultBarbers)))

	const upsertBarber = `
		INSERT INTO barbers (id, name)
		VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING`
	for _, name := range defaultBarbers {
		id := uuid.NewSHA1(uuid.NameSpaceOID, []byte("barber:"+name)).String()
		if _, err := pool.Exec(ctx, upsertBarber, id, name); err != nil {
			return errors.Wrapf(err, "upsert barber %s", name)
		}
		slog.Info("seeded barber", slog.String("name", name))
	}
	return nil
}

func seedAdmin(ctx context.Context, pool *pgxpool.Pool, username, password string) error {
	slog.Info("seeding admin user", slog.String("username", username))

	hash, err := auth.HashPassword(password)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}

	const upsertUser = `
		INSERT INTO users (id, username, password_hash, role)
		VALUES ($1, $2, $3, 'admin')
		ON CONFLICT (username) DO UPDATE SET password_hash = EXCLUDED.password_hash`
	if _, err := pool.Exec(ctx, upsertUser, uuid.New().String(), username, hash); err != nil {
		return errors.Wrap(err, "upsert admin user")
	}
	return nil
}

// Package dbtest provides a migrated Postgres pool for repository integration tests.
package dbtest

import (
	"context"
	"os"
	"testing"
	"time"

	"produce-marketplace/internal/db"
	"produce-marketplace/internal/migrate"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Pool returns a migrated pool with all tables truncated. TEST_DB_DSN points at an
// existing database; otherwise a disposable postgres container is started.
// Skipped in -short mode.
func Pool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped in -short mode")
	}
	ctx := context.Background()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		pgContainer, err := postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("testdb"),
			postgres.WithUsername("testuser"),
			postgres.WithPassword("testpass"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second),
			),
		)
		if err != nil {
			t.Fatalf("start postgres container: %v", err)
		}
		t.Cleanup(func() {
			if err := pgContainer.Terminate(context.Background()); err != nil {
				t.Logf("failed to terminate container: %s", err)
			}
		})
		dsn, err = pgContainer.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			t.Fatalf("container dsn: %v", err)
		}
	}

	pool, err := db.Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE order_lines, orders, cart_lines, addresses, customers, products, farmers CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
	return pool
}

// Fixture inserts one farmer, two products, one customer with one address.
type Fixture struct {
	FarmerID   string
	TomatoID   string
	CarrotID   string
	CustomerID string
	AddressID  string
}

func Seed(t *testing.T, pool *pgxpool.Pool) Fixture {
	t.Helper()
	ctx := context.Background()
	f := Fixture{
		FarmerID:   "farmer-1",
		TomatoID:   "prod-tomato",
		CarrotID:   "prod-carrot",
		CustomerID: "cust-1",
		AddressID:  "addr-1",
	}
	stmts := []struct {
		q    string
		args []any
	}{
		{`INSERT INTO farmers (id, name) VALUES ($1, 'Green Acres')`, []any{f.FarmerID}},
		{`INSERT INTO products (id, farmer_id, name, price_cents, unit) VALUES ($1, $2, 'Tomato', 250, 'kg')`, []any{f.TomatoID, f.FarmerID}},
		{`INSERT INTO products (id, farmer_id, name, price_cents, unit) VALUES ($1, $2, 'Carrot', 120, 'kg')`, []any{f.CarrotID, f.FarmerID}},
		{`INSERT INTO customers (id, email, role) VALUES ($1, 'ann@example.test', 'customer')`, []any{f.CustomerID}},
		{`INSERT INTO addresses (id, customer_id, label, line1, city) VALUES ($1, $2, 'home', '1 Main St', 'Springfield')`, []any{f.AddressID, f.CustomerID}},
	}
	for _, s := range stmts {
		if _, err := pool.Exec(ctx, s.q, s.args...); err != nil {
			t.Fatalf("seed fixture: %v", err)
		}
	}
	return f
}

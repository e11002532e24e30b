package customer

import (
	"context"
	"errors"
	"strings"

	"produce-marketplace/internal/domain"
	"produce-marketplace/internal/logging"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger).Named("customer_repo")}
}

func (r *postgresRepo) Upsert(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	const q = `
INSERT INTO customers (id, email, name, role)
VALUES (COALESCE(NULLIF($1, ''), gen_random_uuid()::text), $2, NULLIF($3, ''), $4)
ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name, role = EXCLUDED.role
RETURNING id, created_at
`
	role := c.Role
	if role == "" {
		role = domain.RoleCustomer
	}
	res := c
	res.Role = role
	res.Email = strings.ToLower(strings.TrimSpace(c.Email))
	if err := r.pool.QueryRow(ctx, q, c.ID, res.Email, c.Name, string(role)).Scan(&res.ID, &res.CreatedAt); err != nil {
		r.logger.Error("upsert", zap.String("email", res.Email), zap.Error(err))
		return nil, err
	}
	return &res, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	const q = `
SELECT id, email, COALESCE(name, ''), role, created_at
FROM customers
WHERE id = $1
`
	var c domain.Customer
	var role string
	if err := r.pool.QueryRow(ctx, q, id).Scan(&c.ID, &c.Email, &c.Name, &role, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("get", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	c.Role = domain.Role(role)
	addrs, err := r.ListAddresses(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Addresses = addrs
	return &c, nil
}

func (r *postgresRepo) UpsertAddress(ctx context.Context, a domain.Address) (*domain.Address, error) {
	const q = `
INSERT INTO addresses (id, customer_id, label, line1, city, postal_code)
VALUES (COALESCE(NULLIF($1, ''), gen_random_uuid()::text), $2, NULLIF($3, ''), $4, $5, NULLIF($6, ''))
ON CONFLICT (id) DO UPDATE SET
    label = EXCLUDED.label,
    line1 = EXCLUDED.line1,
    city = EXCLUDED.city,
    postal_code = EXCLUDED.postal_code
RETURNING id
`
	res := a
	if err := r.pool.QueryRow(ctx, q, a.ID, a.CustomerID, a.Label, a.Line1, a.City, a.PostalCode).Scan(&res.ID); err != nil {
		r.logger.Error("upsert address", zap.String("customer_id", a.CustomerID), zap.Error(err))
		return nil, err
	}
	return &res, nil
}

const selectAddress = `
SELECT id, customer_id, COALESCE(label, ''), line1, city, COALESCE(postal_code, '')
FROM addresses
`

func scanAddress(row pgx.Row) (domain.Address, error) {
	var a domain.Address
	err := row.Scan(&a.ID, &a.CustomerID, &a.Label, &a.Line1, &a.City, &a.PostalCode)
	return a, err
}

func (r *postgresRepo) ListAddresses(ctx context.Context, customerID string) ([]domain.Address, error) {
	rows, err := r.pool.Query(ctx, selectAddress+`WHERE customer_id = $1 ORDER BY label, id`, customerID)
	if err != nil {
		r.logger.Error("list addresses", zap.String("customer_id", customerID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()
	addrs := []domain.Address{}
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		addrs = append(addrs, a)
	}
	return addrs, rows.Err()
}

func (r *postgresRepo) GetAddress(ctx context.Context, customerID, addressID string) (*domain.Address, error) {
	a, err := scanAddress(r.pool.QueryRow(ctx, selectAddress+`WHERE id = $1 AND customer_id = $2`, addressID, customerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("address not found", zap.String("customer_id", customerID), zap.String("address_id", addressID))
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

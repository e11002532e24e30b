package product

import (
	"context"
	"errors"

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

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger).Named("product_repo")}
}

const selectProduct = `
SELECT p.id, p.name, COALESCE(p.description, ''), p.price_cents, p.unit, p.farmer_id, f.name, p.created_at
FROM products p
JOIN farmers f ON f.id = p.farmer_id
`

func scanProduct(row pgx.Row) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.PriceCents, &p.Unit, &p.FarmerID, &p.FarmerName, &p.CreatedAt)
	return p, err
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, selectProduct+`ORDER BY f.name, p.name`)
	if err != nil {
		r.logger.Error("list", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("list rows", zap.Error(err))
		return nil, err
	}
	r.logger.Debug("list", zap.Int("count", len(result)))
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, selectProduct+`WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("get not found", zap.String("id", id))
			return nil, domain.ErrNotFound
		}
		r.logger.Error("get", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return &p, nil
}

// GetByIDs returns the known products among ids; unknown ids are absent from the map.
func (r *postgresRepo) GetByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	result := make(map[string]domain.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	rows, err := r.pool.Query(ctx, selectProduct+`WHERE p.id = ANY($1)`, ids)
	if err != nil {
		r.logger.Error("get many", zap.Int("ids", len(ids)), zap.Error(err))
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result[p.ID] = p
	}
	return result, rows.Err()
}

func (r *postgresRepo) Upsert(ctx context.Context, p domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (id, farmer_id, name, description, price_cents, unit)
VALUES (COALESCE(NULLIF($1, ''), gen_random_uuid()::text), $2, $3, NULLIF($4, ''), $5, COALESCE(NULLIF($6, ''), 'kg'))
ON CONFLICT (id) DO UPDATE SET
    farmer_id = EXCLUDED.farmer_id,
    name = EXCLUDED.name,
    description = EXCLUDED.description,
    price_cents = EXCLUDED.price_cents,
    unit = EXCLUDED.unit
RETURNING id, created_at
`
	res := p
	if err := r.pool.QueryRow(ctx, q, p.ID, p.FarmerID, p.Name, p.Description, p.PriceCents, p.Unit).Scan(&res.ID, &res.CreatedAt); err != nil {
		r.logger.Error("upsert", zap.String("name", p.Name), zap.Error(err))
		return nil, err
	}
	r.logger.Info("upserted", zap.String("id", res.ID), zap.String("name", res.Name))
	return &res, nil
}

func (r *postgresRepo) UpsertFarmer(ctx context.Context, id, name string) error {
	const q = `
INSERT INTO farmers (id, name) VALUES ($1, $2)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name
`
	if _, err := r.pool.Exec(ctx, q, id, name); err != nil {
		r.logger.Error("upsert farmer", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

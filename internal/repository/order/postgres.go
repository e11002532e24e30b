package order

import (
	"context"
	"errors"
	"fmt"

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
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger).Named("order_repo")}
}

func (r *postgresRepo) Create(ctx context.Context, o domain.Order) (*domain.Order, error) {
	if o.Status != domain.InitialStatus(o.PaymentMethod) {
		return nil, fmt.Errorf("%w: %s order cannot start as %s", domain.ErrValidation, o.PaymentMethod, o.Status)
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	res := o
	res.Lines = domain.CloneLines(o.Lines)
	err = tx.QueryRow(ctx, `
INSERT INTO orders (id, customer_id, address_id, payment_method, status, total_price_cents)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING created_at, updated_at
`, o.ID, o.CustomerID, o.AddressID, string(o.PaymentMethod), string(o.Status), o.TotalPriceCents).Scan(&res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		r.logger.Error("insert order", zap.String("order_id", o.ID), zap.Error(err))
		return nil, err
	}

	batch := &pgx.Batch{}
	for i, l := range o.Lines {
		batch.Queue(`
INSERT INTO order_lines (order_id, position, product_id, name, unit_price_cents, quantity, farmer_id, farmer_name)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`, o.ID, i, l.ProductID, l.Name, l.UnitPriceCents, l.Quantity, l.FarmerID, l.FarmerName)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		r.logger.Error("insert order lines", zap.String("order_id", o.ID), zap.Error(err))
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.logger.Info("order created",
		zap.String("order_id", o.ID),
		zap.String("customer_id", o.CustomerID),
		zap.Int("lines", len(o.Lines)),
		zap.Int64("total_cents", o.TotalPriceCents),
	)
	return &res, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return getOrder(ctx, r.pool, id, false)
}

func (r *postgresRepo) Transition(ctx context.Context, id string, to domain.OrderStatus) (*domain.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	o, err := getOrder(ctx, tx, id, true)
	if err != nil {
		return nil, err
	}
	if o.Status == to {
		return o, nil
	}
	if !domain.CanTransition(o.Status, to) {
		return nil, fmt.Errorf("%w: order %s is %s, cannot become %s", domain.ErrConflict, id, o.Status, to)
	}
	if err := tx.QueryRow(ctx, `
UPDATE orders SET status = $1, updated_at = now()
WHERE id = $2
RETURNING updated_at
`, string(to), id).Scan(&o.UpdatedAt); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.logger.Info("order transitioned", zap.String("order_id", id), zap.String("from", o.Status.String()), zap.String("to", to.String()))
	o.Status = to
	return o, nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func getOrder(ctx context.Context, q querier, id string, forUpdate bool) (*domain.Order, error) {
	query := `
SELECT id, customer_id, address_id, payment_method, status, total_price_cents, created_at, updated_at
FROM orders
WHERE id = $1
`
	if forUpdate {
		query += "FOR UPDATE\n"
	}
	var o domain.Order
	var method, status string
	err := q.QueryRow(ctx, query, id).Scan(&o.ID, &o.CustomerID, &o.AddressID, &method, &status, &o.TotalPriceCents, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	o.PaymentMethod = domain.PaymentMethod(method)
	o.Status = domain.OrderStatus(status)

	rows, err := q.Query(ctx, `
SELECT product_id, name, unit_price_cents, quantity, farmer_id, farmer_name
FROM order_lines
WHERE order_id = $1
ORDER BY position
`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var l domain.CartLine
		if err := rows.Scan(&l.ProductID, &l.Name, &l.UnitPriceCents, &l.Quantity, &l.FarmerID, &l.FarmerName); err != nil {
			return nil, err
		}
		o.Lines = append(o.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &o, nil
}

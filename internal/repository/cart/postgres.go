package cart

import (
	"context"
	"errors"

	"produce-marketplace/internal/domain"
	"produce-marketplace/internal/logging"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger).Named("cart_repo")}
}

func (r *postgresRepo) List(ctx context.Context, customerID string) ([]domain.CartLine, error) {
	const q = `
SELECT p.id, p.name, p.price_cents, c.quantity, p.farmer_id, f.name
FROM cart_lines c
JOIN products p ON p.id = c.product_id
JOIN farmers f ON f.id = p.farmer_id
WHERE c.customer_id = $1
ORDER BY c.seq
`
	rows, err := r.pool.Query(ctx, q, customerID)
	if err != nil {
		r.logger.Error("list", zap.String("customer_id", customerID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	lines := []domain.CartLine{}
	for rows.Next() {
		var l domain.CartLine
		if err := rows.Scan(&l.ProductID, &l.Name, &l.UnitPriceCents, &l.Quantity, &l.FarmerID, &l.FarmerName); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *postgresRepo) Add(ctx context.Context, customerID, productID string, quantity int) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := addLine(ctx, tx, customerID, productID, quantity); err != nil {
		r.logger.Warn("add", zap.String("customer_id", customerID), zap.String("product_id", productID), zap.Error(err))
		return err
	}
	return tx.Commit(ctx)
}

// Merge applies merge-on-add for every line inside one transaction.
// Either every line lands or none does.
func (r *postgresRepo) Merge(ctx context.Context, customerID string, lines []LineInput) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, l := range lines {
		if err := addLine(ctx, tx, customerID, l.ProductID, l.Quantity); err != nil {
			r.logger.Warn("merge aborted", zap.String("customer_id", customerID), zap.String("product_id", l.ProductID), zap.Error(err))
			return err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	r.logger.Info("merged", zap.String("customer_id", customerID), zap.Int("lines", len(lines)))
	return nil
}

func addLine(ctx context.Context, tx pgx.Tx, customerID, productID string, quantity int) error {
	var existingQty int
	err := tx.QueryRow(ctx, `
SELECT quantity
FROM cart_lines
WHERE customer_id = $1 AND product_id = $2
FOR UPDATE
`, customerID, productID).Scan(&existingQty)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	if err == nil {
		total, err := domain.AddQuantity(existingQty, quantity)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
UPDATE cart_lines
SET quantity = $1, updated_at = now()
WHERE customer_id = $2 AND product_id = $3
`, total, customerID, productID)
		return mapConstraint(err)
	}
	_, err = tx.Exec(ctx, `
INSERT INTO cart_lines (customer_id, product_id, quantity)
VALUES ($1, $2, $3)
`, customerID, productID, quantity)
	return mapConstraint(err)
}

func (r *postgresRepo) SetQuantity(ctx context.Context, customerID, productID string, quantity int) error {
	if quantity < 1 {
		return r.Remove(ctx, customerID, productID)
	}
	cmd, err := r.pool.Exec(ctx, `
UPDATE cart_lines
SET quantity = $1, updated_at = now()
WHERE customer_id = $2 AND product_id = $3
`, quantity, customerID, productID)
	if err != nil {
		r.logger.Error("set quantity", zap.String("customer_id", customerID), zap.Error(err))
		return mapConstraint(err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) Remove(ctx context.Context, customerID, productID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM cart_lines WHERE customer_id = $1 AND product_id = $2`, customerID, productID)
	if err != nil {
		r.logger.Error("remove", zap.String("customer_id", customerID), zap.Error(err))
	}
	return err
}

func (r *postgresRepo) Clear(ctx context.Context, customerID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM cart_lines WHERE customer_id = $1`, customerID)
	if err != nil {
		r.logger.Error("clear", zap.String("customer_id", customerID), zap.Error(err))
	}
	return err
}

// mapConstraint turns a foreign key violation on product_id into ErrNotFound
// and an out of range quantity into ErrValidation.
func mapConstraint(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503":
			return domain.ErrNotFound
		case "22003":
			return domain.ErrValidation
		}
	}
	return err
}

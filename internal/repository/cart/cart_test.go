package cart

import (
	"context"
	"errors"
	"testing"

	"produce-marketplace/internal/db/dbtest"
	"produce-marketplace/internal/domain"
)

func TestPostgres_AddMergesSameProduct(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	fx := dbtest.Seed(t, pool)
	repo := NewPostgres(pool, nil)

	if err := repo.Add(ctx, fx.CustomerID, fx.TomatoID, 1); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := repo.Add(ctx, fx.CustomerID, fx.CarrotID, 1); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := repo.Add(ctx, fx.CustomerID, fx.TomatoID, 2); err != nil {
		t.Fatalf("Add: %v", err)
	}

	lines, err := repo.List(ctx, fx.CustomerID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %+v", lines)
	}
	if lines[0].ProductID != fx.TomatoID || lines[0].Quantity != 3 {
		t.Fatalf("expected tomato x3 first, got %+v", lines[0])
	}
	if lines[0].UnitPriceCents != 250 || lines[0].FarmerName != "Green Acres" {
		t.Fatalf("catalog fields not joined: %+v", lines[0])
	}
}

func TestPostgres_AddUnknownProduct(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	fx := dbtest.Seed(t, pool)
	repo := NewPostgres(pool, nil)

	if err := repo.Add(ctx, fx.CustomerID, "nope", 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgres_SetQuantityAndRemove(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	fx := dbtest.Seed(t, pool)
	repo := NewPostgres(pool, nil)

	if err := repo.SetQuantity(ctx, fx.CustomerID, fx.TomatoID, 4); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on absent line, got %v", err)
	}
	if err := repo.Add(ctx, fx.CustomerID, fx.TomatoID, 1); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := repo.SetQuantity(ctx, fx.CustomerID, fx.TomatoID, 4); err != nil {
		t.Fatalf("SetQuantity: %v", err)
	}
	lines, _ := repo.List(ctx, fx.CustomerID)
	if len(lines) != 1 || lines[0].Quantity != 4 {
		t.Fatalf("unexpected lines %+v", lines)
	}
	if err := repo.SetQuantity(ctx, fx.CustomerID, fx.TomatoID, 0); err != nil {
		t.Fatalf("SetQuantity 0: %v", err)
	}
	if err := repo.Remove(ctx, fx.CustomerID, fx.TomatoID); err != nil {
		t.Fatalf("Remove absent: %v", err)
	}
	lines, _ = repo.List(ctx, fx.CustomerID)
	if len(lines) != 0 {
		t.Fatalf("expected empty cart, got %+v", lines)
	}
}

func TestPostgres_MergeIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	fx := dbtest.Seed(t, pool)
	repo := NewPostgres(pool, nil)

	if err := repo.Add(ctx, fx.CustomerID, fx.TomatoID, 1); err != nil {
		t.Fatalf("Add: %v", err)
	}
	err := repo.Merge(ctx, fx.CustomerID, []LineInput{
		{ProductID: fx.TomatoID, Quantity: 2},
		{ProductID: "missing", Quantity: 1},
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	lines, _ := repo.List(ctx, fx.CustomerID)
	if len(lines) != 1 || lines[0].Quantity != 1 {
		t.Fatalf("failed merge must not apply partially: %+v", lines)
	}

	if err := repo.Merge(ctx, fx.CustomerID, []LineInput{
		{ProductID: fx.TomatoID, Quantity: 2},
		{ProductID: fx.CarrotID, Quantity: 1},
	}); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	lines, _ = repo.List(ctx, fx.CustomerID)
	if len(lines) != 2 || lines[0].Quantity != 3 || lines[1].Quantity != 1 {
		t.Fatalf("unexpected merged lines %+v", lines)
	}

	if err := repo.Clear(ctx, fx.CustomerID); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	lines, _ = repo.List(ctx, fx.CustomerID)
	if len(lines) != 0 {
		t.Fatalf("expected cleared cart, got %+v", lines)
	}
}

func TestPostgres_AddRejectsQuantityOverflow(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	fx := dbtest.Seed(t, pool)
	repo := NewPostgres(pool, nil)

	if err := repo.Add(ctx, fx.CustomerID, fx.TomatoID, domain.MaxLineQuantity); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := repo.Add(ctx, fx.CustomerID, fx.TomatoID, 1); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if err := repo.Merge(ctx, fx.CustomerID, []LineInput{{ProductID: fx.CarrotID, Quantity: 1}, {ProductID: fx.TomatoID, Quantity: 5}}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation from merge, got %v", err)
	}

	lines, err := repo.List(ctx, fx.CustomerID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(lines) != 1 || lines[0].Quantity != domain.MaxLineQuantity {
		t.Fatalf("overflowing writes must leave the cart unchanged, got %+v", lines)
	}
}

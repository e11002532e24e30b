package migrate_test

import (
	"context"
	"testing"

	"produce-marketplace/internal/db/dbtest"
	"produce-marketplace/internal/migrate"
)

func TestApplyIsIdempotent(t *testing.T) {
	pool := dbtest.Pool(t)
	ctx := context.Background()

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("second apply: %v", err)
	}
	version, dirty, err := migrate.Version(ctx, pool)
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if version != 1 || dirty {
		t.Fatalf("expected clean version 1, got %d dirty=%v", version, dirty)
	}
}

func TestRollbackRejectsZeroSteps(t *testing.T) {
	if err := migrate.Rollback(context.Background(), nil, 0); err == nil {
		t.Fatal("expected error for zero steps")
	}
}

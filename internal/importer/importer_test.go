package importer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"produce-marketplace/internal/domain"
)

type stubCatalog struct {
	farmers  map[string]string
	products []domain.Product
	err      error
}

func (s *stubCatalog) UpsertFarmer(_ context.Context, id, name string) error {
	if s.farmers == nil {
		s.farmers = map[string]string{}
	}
	s.farmers[id] = name
	return nil
}

func (s *stubCatalog) Upsert(_ context.Context, p domain.Product) (*domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.products = append(s.products, p)
	return &p, nil
}

func TestCSVImporter_Run(t *testing.T) {
	csvData := `farmer_id,farmer_name,id,name,description,price_cents,unit,notes
farm-1,Green Acres,tomato,Heirloom Tomato,Vine ripened,450,kg,ignored
farm-1,Green Acres,tomato,,mixed colours,,,
,,,,,,,
farm-2,,honey,Raw Honey,,900,jar,`

	repo := &stubCatalog{}
	count, err := NewCSVImporter(strings.NewReader(csvData), repo).Run(context.Background())
	if err != nil {
		t.Fatalf("import run: %v", err)
	}
	if count != 2 || len(repo.products) != 2 {
		t.Fatalf("expected 2 products imported, got count=%d saved=%d", count, len(repo.products))
	}

	tomato := repo.products[0]
	if tomato.ID != "tomato" || tomato.PriceCents != 450 || tomato.Unit != "kg" || tomato.FarmerID != "farm-1" {
		t.Fatalf("unexpected product data: %+v", tomato)
	}
	if tomato.Description != "Vine ripened mixed colours" {
		t.Fatalf("expected continued description, got %q", tomato.Description)
	}
	if repo.farmers["farm-1"] != "Green Acres" || repo.farmers["farm-2"] != "farm-2" {
		t.Fatalf("unexpected farmers %v", repo.farmers)
	}
}

func TestCSVImporter_RunRejectsInvalidRows(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{"missing column", "name,farmer_id\nTomato,farm-1"},
		{"zero price", "name,price_cents,farmer_id\nTomato,0,farm-1"},
		{"bad price", "name,price_cents,farmer_id\nTomato,4.50,farm-1"},
		{"missing farmer", "name,price_cents,farmer_id\nTomato,450,"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCSVImporter(strings.NewReader(tt.csv), &stubCatalog{}).Run(context.Background())
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCSVImporter_RunStopsOnWriteError(t *testing.T) {
	csvData := "name,price_cents,farmer_id\nTomato,450,farm-1\nCarrot,120,farm-1"
	repo := &stubCatalog{err: errors.New("db down")}

	count, err := NewCSVImporter(strings.NewReader(csvData), repo).Run(context.Background())
	if err == nil || count != 0 {
		t.Fatalf("expected failure before any import, got count=%d err=%v", count, err)
	}
}

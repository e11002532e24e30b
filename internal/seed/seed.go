// Package seed loads a small demo marketplace for manual testing.
package seed

import (
	"context"
	"fmt"

	"produce-marketplace/internal/domain"
	customerrepo "produce-marketplace/internal/repository/customer"
	productrepo "produce-marketplace/internal/repository/product"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type farmerSeed struct {
	ID       string
	Name     string
	Products []domain.Product
}

var farmers = []farmerSeed{
	{
		ID:   "farmer-green-acres",
		Name: "Green Acres",
		Products: []domain.Product{
			{ID: "heirloom-tomato", Name: "Heirloom Tomato", Description: "Vine ripened, mixed colours", PriceCents: 450, Unit: "kg"},
			{ID: "rainbow-carrot", Name: "Rainbow Carrot", Description: "Bunch of purple, yellow and orange carrots", PriceCents: 220, Unit: "bunch"},
		},
	},
	{
		ID:   "farmer-hillside",
		Name: "Hillside Orchard",
		Products: []domain.Product{
			{ID: "honeycrisp-apple", Name: "Honeycrisp Apple", PriceCents: 380, Unit: "kg"},
			{ID: "raw-honey", Name: "Raw Honey", Description: "Unfiltered wildflower honey", PriceCents: 900, Unit: "jar"},
		},
	},
}

// Result lists the accounts created so callers can mint tokens for them.
type Result struct {
	CustomerID string
	FarmerID   string
	AddressID  string
	Products   int
}

// Apply upserts farmers, products, a demo customer account and a farmer account.
// Running it twice leaves the same data.
func Apply(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) (Result, error) {
	products := productrepo.NewPostgres(pool, logger)
	customers := customerrepo.NewPostgres(pool, logger)

	var res Result
	for _, f := range farmers {
		if err := products.UpsertFarmer(ctx, f.ID, f.Name); err != nil {
			return res, fmt.Errorf("upsert farmer %s: %w", f.ID, err)
		}
		for _, p := range f.Products {
			p.FarmerID = f.ID
			if _, err := products.Upsert(ctx, p); err != nil {
				return res, fmt.Errorf("upsert product %s: %w", p.ID, err)
			}
			res.Products++
		}
	}

	shopper, err := customers.Upsert(ctx, domain.Customer{ID: "customer-demo", Email: "shopper@example.test", Name: "Demo Shopper", Role: domain.RoleCustomer})
	if err != nil {
		return res, fmt.Errorf("upsert customer: %w", err)
	}
	res.CustomerID = shopper.ID

	addr, err := customers.UpsertAddress(ctx, domain.Address{
		ID:         "address-demo-home",
		CustomerID: shopper.ID,
		Label:      "home",
		Line1:      "12 Orchard Lane",
		City:       "Springfield",
		PostalCode: "12345",
	})
	if err != nil {
		return res, fmt.Errorf("upsert address: %w", err)
	}
	res.AddressID = addr.ID

	farmer, err := customers.Upsert(ctx, domain.Customer{ID: farmers[0].ID, Email: "grower@example.test", Name: farmers[0].Name, Role: domain.RoleFarmer})
	if err != nil {
		return res, fmt.Errorf("upsert farmer account: %w", err)
	}
	res.FarmerID = farmer.ID
	return res, nil
}

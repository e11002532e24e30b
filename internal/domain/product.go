package domain

import "time"

type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	PriceCents  int64     `json:"priceCents"`
	Unit        string    `json:"unit,omitempty"`
	FarmerID    string    `json:"farmerId"`
	FarmerName  string    `json:"farmerName"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Line builds a cart line for quantity units of the product.
func (p Product) Line(quantity int) CartLine {
	return CartLine{
		ProductID:      p.ID,
		Name:           p.Name,
		UnitPriceCents: p.PriceCents,
		Quantity:       quantity,
		FarmerID:       p.FarmerID,
		FarmerName:     p.FarmerName,
	}
}

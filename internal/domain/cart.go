package domain

import (
	"fmt"
	"math"
	"time"
)

// CartLine is one product entry in a cart. Quantity is always >= 1.
type CartLine struct {
	ProductID      string `json:"productId"`
	Name           string `json:"name"`
	UnitPriceCents int64  `json:"unitPriceCents"`
	Quantity       int    `json:"quantity"`
	FarmerID       string `json:"farmerId"`
	FarmerName     string `json:"farmerName"`
}

// Subtotal returns unit price times quantity.
func (l CartLine) Subtotal() int64 {
	return l.UnitPriceCents * int64(l.Quantity)
}

// Cart is the ordered set of lines owned by a browsing session or customer.
type Cart struct {
	CustomerID string     `json:"customerId,omitempty"`
	Lines      []CartLine `json:"lines"`
	UpdatedAt  time.Time  `json:"updatedAt,omitempty"`
}

// Total is recomputed from the lines on every call.
func (c Cart) Total() int64 {
	return TotalOf(c.Lines)
}

// TotalOf sums unit price times quantity over lines.
func TotalOf(lines []CartLine) int64 {
	var total int64
	for _, l := range lines {
		total += l.Subtotal()
	}
	return total
}

// CloneLines returns a copy that shares no storage with lines.
func CloneLines(lines []CartLine) []CartLine {
	if lines == nil {
		return nil
	}
	out := make([]CartLine, len(lines))
	copy(out, lines)
	return out
}

// IndexOf returns the position of productID in lines or -1.
func IndexOf(lines []CartLine, productID string) int {
	for i, l := range lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

// MaxLineQuantity bounds a single line; it matches the INT quantity column.
const MaxLineQuantity = math.MaxInt32

// AddQuantity returns a+b, or ErrValidation when the sum exceeds MaxLineQuantity.
func AddQuantity(a, b int) (int, error) {
	if a > MaxLineQuantity || b > MaxLineQuantity-a {
		return 0, fmt.Errorf("%w: quantity may not exceed %d", ErrValidation, MaxLineQuantity)
	}
	return a + b, nil
}

// QuantityIn returns the quantity of productID in lines, or 0.
func QuantityIn(lines []CartLine, productID string) int {
	if i := IndexOf(lines, productID); i >= 0 {
		return lines[i].Quantity
	}
	return 0
}

// MergeLine applies the merge-on-add rule: an existing line for the same
// product has its quantity increased, otherwise the line is appended.
// Quantities saturate at MaxLineQuantity; callers that must reject an
// oversized add check AddQuantity first.
func MergeLine(lines []CartLine, line CartLine) []CartLine {
	if i := IndexOf(lines, line.ProductID); i >= 0 {
		q, err := AddQuantity(lines[i].Quantity, line.Quantity)
		if err != nil {
			q = MaxLineQuantity
		}
		lines[i].Quantity = q
		return lines
	}
	if line.Quantity > MaxLineQuantity {
		line.Quantity = MaxLineQuantity
	}
	return append(lines, line)
}

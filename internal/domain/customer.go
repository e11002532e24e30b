package domain

import "time"

// Role is the account kind carried by a bearer token.
type Role string

const (
	RoleFarmer   Role = "farmer"
	RoleCustomer Role = "customer"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleFarmer || r == RoleCustomer
}

// Address is a delivery address owned by a customer.
type Address struct {
	ID         string `json:"id"`
	CustomerID string `json:"customerId"`
	Label      string `json:"label,omitempty"`
	Line1      string `json:"line1"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode,omitempty"`
}

// Customer is an account that can hold a cart and place orders.
type Customer struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Role      Role      `json:"role"`
	Addresses []Address `json:"addresses,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

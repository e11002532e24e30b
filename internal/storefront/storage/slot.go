// Package storage implements the cart backends: a local guest slot and the
// remote authenticated cart.
package storage

import "context"

// Slot is one key-value cell, such as the serialized guest cart.
// Read returns nil data and no error when the slot is empty.
type Slot interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Delete(ctx context.Context) error
}

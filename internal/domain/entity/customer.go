package entity

import "github.com/google/uuid"

// Customer is a read-only projection from the customer directory. Customer
// management happens in an external system; this service only looks
// customers up by ID.
type Customer struct {
	ID    uuid.UUID
	Name  string
	Email string
}

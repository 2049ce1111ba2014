package domain

import "github.com/google/uuid"

// User is the slice of the external user directory this service cares about.
type User struct {
	ID    uuid.UUID
	Email string
}

package domain

import "github.com/google/uuid"

// NewSessionID creates a new unique identifier for one view occupancy.
func NewSessionID() string {
	return uuid.New().String()
}

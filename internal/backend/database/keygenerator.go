package database

import (
	"github.com/google/uuid"
)

// generateID returns a random RFC 4122 version 4 UUID
func generateID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

package postgresadapter

import (
	"context"

	"github.com/google/uuid"
)

// UUIDGenerator mints event identifiers. Every logical occurrence gets one
// UUID; downstream dedup keys on it.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

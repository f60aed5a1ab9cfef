package store

import (
	"context"

	"suratdesa/internal/citizen/models"
	id "suratdesa/pkg/domain"
)

// Store reads citizen and household records. Implementations return
// sentinel.ErrNotFound when a record does not exist; the binder translates
// that into a missing-dependency failure.
type Store interface {
	GetCitizen(ctx context.Context, citizenID id.CitizenID) (*models.Citizen, error)
	GetHousehold(ctx context.Context, householdID id.HouseholdID) (*models.Household, error)
}

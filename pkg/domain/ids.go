// Package domain holds the typed identifiers and enums shared across layers.
//
// IDs are UUID-backed. Parse functions enforce the invariant that an ID is a
// valid, non-nil UUID at trust boundaries; internal code passes the typed
// values around and never re-validates.
package domain

import (
	"github.com/google/uuid"

	dErrors "suratdesa/pkg/domainerrors"
)

type (
	// RequestID identifies a letter request.
	RequestID uuid.UUID
	// CitizenID identifies a citizen (applicant or household member).
	CitizenID uuid.UUID
	// HouseholdID identifies a household (kartu keluarga).
	HouseholdID uuid.UUID
	// UserID identifies an authenticated actor supplied by the identity
	// collaborator.
	UserID uuid.UUID
)

func parse(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, "id is required")
	}
	u, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeValidation, "invalid id format")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, "nil id")
	}
	return u, nil
}

func ParseRequestID(raw string) (RequestID, error) {
	u, err := parse(raw)
	return RequestID(u), err
}

func ParseCitizenID(raw string) (CitizenID, error) {
	u, err := parse(raw)
	return CitizenID(u), err
}

func ParseHouseholdID(raw string) (HouseholdID, error) {
	u, err := parse(raw)
	return HouseholdID(u), err
}

func ParseUserID(raw string) (UserID, error) {
	u, err := parse(raw)
	return UserID(u), err
}

func NewRequestID() RequestID     { return RequestID(uuid.New()) }
func NewCitizenID() CitizenID     { return CitizenID(uuid.New()) }
func NewHouseholdID() HouseholdID { return HouseholdID(uuid.New()) }
func NewUserID() UserID           { return UserID(uuid.New()) }

func (id RequestID) String() string   { return uuid.UUID(id).String() }
func (id CitizenID) String() string   { return uuid.UUID(id).String() }
func (id HouseholdID) String() string { return uuid.UUID(id).String() }
func (id UserID) String() string      { return uuid.UUID(id).String() }

func (id RequestID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id CitizenID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id HouseholdID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }

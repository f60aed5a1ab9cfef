package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"suratdesa/internal/citizen/models"
	id "suratdesa/pkg/domain"
	"suratdesa/pkg/sentinel"
)

// PostgresStore reads citizen and household records from PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetCitizen(ctx context.Context, citizenID id.CitizenID) (*models.Citizen, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, household_id, nik, name, sex, birth_place, birth_date, religion, occupation, address, email
		FROM citizens WHERE id = $1`, uuid.UUID(citizenID))

	var c models.Citizen
	var cid, hid uuid.UUID
	var email sql.NullString
	err := row.Scan(&cid, &hid, &c.NIK, &c.Name, &c.Sex, &c.BirthPlace, &c.BirthDate, &c.Religion, &c.Occupation, &c.Address, &email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get citizen: %w", err)
	}
	c.ID = id.CitizenID(cid)
	c.HouseholdID = id.HouseholdID(hid)
	c.Email = email.String
	return &c, nil
}

func (s *PostgresStore) GetHousehold(ctx context.Context, householdID id.HouseholdID) (*models.Household, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, number, address FROM households WHERE id = $1`, uuid.UUID(householdID))

	var h models.Household
	var hid uuid.UUID
	err := row.Scan(&hid, &h.Number, &h.Address)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get household: %w", err)
	}
	h.ID = id.HouseholdID(hid)

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.household_id, c.nik, c.name, c.sex, c.birth_place, c.birth_date,
		       c.religion, c.occupation, c.address, m.role
		FROM household_members m
		JOIN citizens c ON c.id = m.citizen_id
		WHERE m.household_id = $1`, uuid.UUID(householdID))
	if err != nil {
		return nil, fmt.Errorf("list household members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var member models.HouseholdMember
		var cid, chid uuid.UUID
		var role string
		c := &member.Citizen
		if err := rows.Scan(&cid, &chid, &c.NIK, &c.Name, &c.Sex, &c.BirthPlace, &c.BirthDate,
			&c.Religion, &c.Occupation, &c.Address, &role); err != nil {
			return nil, fmt.Errorf("scan household member: %w", err)
		}
		c.ID = id.CitizenID(cid)
		c.HouseholdID = id.HouseholdID(chid)
		member.Role = models.MemberRole(role)
		h.Members = append(h.Members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate household members: %w", err)
	}
	return &h, nil
}

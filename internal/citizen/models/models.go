// Package models holds the read models for citizens and households. The
// service does not own citizen CRUD; these records mirror what the population
// registry collaborator exposes and are only read at bind time.
package models

import (
	"time"

	id "suratdesa/pkg/domain"
)

// MemberRole is the coded household role of a member.
type MemberRole string

const (
	RoleHead   MemberRole = "KEPALA"
	RoleSpouse MemberRole = "ISTRI_SUAMI"
	RoleChild  MemberRole = "ANAK"
	RoleParent MemberRole = "ORANGTUA"
	RoleOther  MemberRole = "LAINNYA"
)

// Citizen is an individual known to the registry.
type Citizen struct {
	ID          id.CitizenID
	HouseholdID id.HouseholdID
	NIK         string
	Name        string
	// Sex is coded "L" or "P".
	Sex        string
	BirthPlace string
	BirthDate  time.Time
	Religion   string
	Occupation string
	Address    string
	// Email is the registered contact address for notifications; may be
	// empty, in which case the citizen is simply not notified.
	Email string
}

// HouseholdMember ties a citizen to a household with a coded role. Member
// order in the slice carries no meaning; role lookups must be predicates.
type HouseholdMember struct {
	Citizen Citizen
	Role    MemberRole
}

// Household is a kartu keluarga with its members.
type Household struct {
	ID      id.HouseholdID
	Number  string
	Address string
	Members []HouseholdMember
}

package domain

import dErrors "suratdesa/pkg/domainerrors"

// Role is the actor role supplied by the identity collaborator. It is trusted
// verbatim; the workflow engine decides what each role may do per stage.
type Role string

const (
	RoleApplicant    Role = "APPLICANT"
	RoleNeighborhood Role = "NEIGHBORHOOD"
	RoleClerk        Role = "CLERK"
	RoleChief        Role = "CHIEF"
	RoleAdmin        Role = "ADMIN"
)

func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleApplicant, RoleNeighborhood, RoleClerk, RoleChief, RoleAdmin:
		return Role(raw), nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "unknown role")
}

func (r Role) IsValid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

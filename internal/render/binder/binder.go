// Package binder assembles the rendering context for a request. The context
// is ephemeral: built fresh on every render call, merged from registry data,
// role-derived figures, and the request's own payload, and never persisted.
package binder

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	citizenmodels "suratdesa/internal/citizen/models"
	citizenstore "suratdesa/internal/citizen/store"
	"suratdesa/internal/request/models"
	dErrors "suratdesa/pkg/domainerrors"
	"suratdesa/pkg/requestcontext"
	"suratdesa/pkg/sentinel"
)

// Placeholder fills figure slots with no matching household member.
const Placeholder = "-"

var indonesianMonths = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

var sexTokens = map[string]string{
	models.SexMale:   "Laki-laki",
	models.SexFemale: "Perempuan",
}

var relationshipTokens = map[string]string{
	"ANAK":     "Anak",
	"ORANGTUA": "Orang Tua",
	"FAMILI":   "Famili Lain",
	"LAINNYA":  "Lainnya",
}

type Binder struct {
	citizens citizenstore.Store
}

func New(citizens citizenstore.Store) *Binder {
	return &Binder{citizens: citizens}
}

// Build resolves applicant and household data and produces the context map a
// layout binds against. Payload values win over computed defaults on key
// conflicts.
func (b *Binder) Build(ctx context.Context, req *models.Request) (map[string]any, error) {
	applicant, err := b.citizens.GetCitizen(ctx, req.ApplicantID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeMissingDependency, "applicant record not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load applicant")
	}

	household, err := b.citizens.GetHousehold(ctx, applicant.HouseholdID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeMissingDependency, "household record not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load household")
	}

	out := map[string]any{
		"letter_number":         valueOr(req.IssuedNumber, Placeholder),
		"letter_date":           FormatDate(requestcontext.Now(ctx)),
		"applicant_name":        applicant.Name,
		"applicant_nik":         valueOr(applicant.NIK, Placeholder),
		"applicant_sex":         sexToken(applicant.Sex),
		"applicant_birth_place": valueOr(applicant.BirthPlace, Placeholder),
		"applicant_birth_date":  FormatDate(applicant.BirthDate),
		"applicant_religion":    valueOr(applicant.Religion, Placeholder),
		"applicant_occupation":  valueOr(applicant.Occupation, Placeholder),
		"applicant_address":     valueOr(applicant.Address, household.Address),
		"household_number":      valueOr(household.Number, Placeholder),
		"father_name":           figureName(findFather(household.Members)),
		"mother_name":           figureName(findMother(household.Members)),
	}

	if req.TypeCode == models.TypeSingleStatus {
		out["marital_status"] = maritalLabel(applicant.Sex)
	}

	// Payload wins on conflicts with the computed defaults.
	for k, v := range req.Payload {
		if k == "dependents" {
			continue
		}
		if s, ok := v.(string); ok {
			out[k] = translatePayloadValue(k, s)
			continue
		}
		out[k] = v
	}
	if rows := req.Payload.Dependents(); rows != nil || req.TypeCode == models.TypePoverty {
		out["dependents"] = normalizeDependents(rows)
	}

	return out, nil
}

// findFather applies the order-independent predicate: a head-of-household
// male, falling back to a parent-role male. Ties break on citizen ID so the
// result never depends on member ordering.
func findFather(members []citizenmodels.HouseholdMember) *citizenmodels.Citizen {
	if c := findFigure(members, citizenmodels.RoleHead, models.SexMale); c != nil {
		return c
	}
	return findFigure(members, citizenmodels.RoleParent, models.SexMale)
}

// findMother prefers a spouse-role female, falling back to a parent-role
// female.
func findMother(members []citizenmodels.HouseholdMember) *citizenmodels.Citizen {
	if c := findFigure(members, citizenmodels.RoleSpouse, models.SexFemale); c != nil {
		return c
	}
	return findFigure(members, citizenmodels.RoleParent, models.SexFemale)
}

func findFigure(members []citizenmodels.HouseholdMember, role citizenmodels.MemberRole, sex string) *citizenmodels.Citizen {
	var best *citizenmodels.Citizen
	for i := range members {
		m := &members[i]
		if m.Role != role || m.Citizen.Sex != sex {
			continue
		}
		if best == nil || m.Citizen.ID.String() < best.ID.String() {
			best = &m.Citizen
		}
	}
	return best
}

func figureName(c *citizenmodels.Citizen) string {
	if c == nil {
		return Placeholder
	}
	return c.Name
}

// maritalLabel is a type-specific derivation: the single-status letter labels
// the applicant purely from sex, it is not stored registry data.
func maritalLabel(sex string) string {
	if sex == models.SexFemale {
		return "Perawan"
	}
	return "Perjaka"
}

// normalizeDependents maps roster rows into numbered display rows with coded
// values translated to their display tokens.
func normalizeDependents(rows []map[string]string) []map[string]string {
	out := make([]map[string]string, 0, len(rows))
	for i, row := range rows {
		display := map[string]string{
			"no":           strconv.Itoa(i + 1),
			"name":         row["name"],
			"sex":          sexToken(row["sex"]),
			"relationship": relationshipToken(row["relationship"]),
			"birth_date":   Placeholder,
		}
		if bd := row["birth_date"]; bd != "" {
			if t, err := time.Parse("2006-01-02", bd); err == nil {
				display["birth_date"] = FormatDate(t)
			}
		}
		out = append(out, display)
	}
	return out
}

// translatePayloadValue converts coded payload values into display tokens
// where the field is known to be coded.
func translatePayloadValue(key, value string) string {
	switch key {
	case "baby_sex":
		return sexToken(value)
	case "birth_date":
		if t, err := time.Parse("2006-01-02", value); err == nil {
			return FormatDate(t)
		}
	}
	return value
}

func sexToken(code string) string {
	if token, ok := sexTokens[code]; ok {
		return token
	}
	return Placeholder
}

func relationshipToken(code string) string {
	if token, ok := relationshipTokens[code]; ok {
		return token
	}
	return Placeholder
}

// FormatDate renders a date the way the letters print them, e.g.
// "17 Agustus 2025".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return Placeholder
	}
	return fmt.Sprintf("%d %s %d", t.Day(), indonesianMonths[t.Month()-1], t.Year())
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

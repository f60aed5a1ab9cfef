package models

import (
	"time"

	dErrors "suratdesa/pkg/domainerrors"
)

// Payload is the type-specific structured data captured at submission. It is
// dynamic on the wire but validated against a closed per-type schema, so
// downstream code can trust shapes without re-checking.
type Payload map[string]any

func (p Payload) Clone() Payload {
	if p == nil {
		return nil
	}
	cp := make(Payload, len(p))
	for k, v := range p {
		if rows, ok := v.([]map[string]string); ok {
			rowsCp := make([]map[string]string, len(rows))
			for i, row := range rows {
				rowCp := make(map[string]string, len(row))
				for rk, rv := range row {
					rowCp[rk] = rv
				}
				rowsCp[i] = rowCp
			}
			cp[k] = rowsCp
			continue
		}
		cp[k] = v
	}
	return cp
}

// Dependents returns the normalized dependents roster, or nil when the type
// carries none.
func (p Payload) Dependents() []map[string]string {
	rows, _ := p["dependents"].([]map[string]string)
	return rows
}

type fieldKind int

const (
	fieldString fieldKind = iota
	fieldDate
	fieldRoster
)

type fieldSpec struct {
	kind     fieldKind
	required bool
}

// Sex codes used in payloads and household records.
const (
	SexMale   = "L"
	SexFemale = "P"
)

// Coded relationship values allowed in a dependents roster row.
var relationshipCodes = map[string]bool{
	"ANAK":     true,
	"ORANGTUA": true,
	"FAMILI":   true,
	"LAINNYA":  true,
}

// payloadSchemas is the tagged union keyed by type code. Every renderable
// type has a closed field set; unknown keys are rejected at submission.
var payloadSchemas = map[TypeCode]map[string]fieldSpec{
	TypeDomicile: {
		"address":    {kind: fieldString, required: true},
		"since_year": {kind: fieldString, required: true},
		"purpose":    {kind: fieldString, required: true},
	},
	TypeBusiness: {
		"business_name":    {kind: fieldString, required: true},
		"business_type":    {kind: fieldString, required: true},
		"business_address": {kind: fieldString, required: true},
		"since_year":       {kind: fieldString, required: false},
		"purpose":          {kind: fieldString, required: true},
	},
	TypePoverty: {
		"purpose":    {kind: fieldString, required: true},
		"dependents": {kind: fieldRoster, required: false},
	},
	TypeBirth: {
		"baby_name":   {kind: fieldString, required: true},
		"baby_sex":    {kind: fieldString, required: true},
		"birth_date":  {kind: fieldDate, required: true},
		"birth_place": {kind: fieldString, required: true},
		"birth_order": {kind: fieldString, required: false},
	},
	TypeSingleStatus: {
		"purpose": {kind: fieldString, required: true},
	},
	TypeGeneral: {
		"subject": {kind: fieldString, required: true},
		"purpose": {kind: fieldString, required: true},
	},
}

// ValidatePayload checks raw submission data against the schema for code and
// returns the normalized payload. Roster rows arrive as []any of map[string]any
// from JSON decoding and are normalized to []map[string]string.
func ValidatePayload(code TypeCode, raw map[string]any) (Payload, error) {
	schema, ok := payloadSchemas[code]
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeValidation, "no payload schema for type %q", code)
	}

	out := make(Payload, len(raw))
	for key, value := range raw {
		spec, known := schema[key]
		if !known {
			return nil, dErrors.Newf(dErrors.CodeValidation, "unknown field %q for type %q", key, code)
		}
		normalized, err := normalizeField(key, spec, value)
		if err != nil {
			return nil, err
		}
		out[key] = normalized
	}

	for key, spec := range schema {
		if spec.required {
			if _, ok := out[key]; !ok {
				return nil, dErrors.Newf(dErrors.CodeValidation, "missing required field %q", key)
			}
		}
	}

	if sex, ok := out["baby_sex"].(string); ok && sex != SexMale && sex != SexFemale {
		return nil, dErrors.Newf(dErrors.CodeValidation, "invalid sex code %q", sex)
	}
	return out, nil
}

func normalizeField(key string, spec fieldSpec, value any) (any, error) {
	switch spec.kind {
	case fieldString:
		s, ok := value.(string)
		if !ok || s == "" {
			return nil, dErrors.Newf(dErrors.CodeValidation, "field %q must be a non-empty string", key)
		}
		return s, nil
	case fieldDate:
		s, ok := value.(string)
		if !ok {
			return nil, dErrors.Newf(dErrors.CodeValidation, "field %q must be a date string", key)
		}
		if _, err := time.Parse("2006-01-02", s); err != nil {
			return nil, dErrors.Newf(dErrors.CodeValidation, "field %q must be formatted YYYY-MM-DD", key)
		}
		return s, nil
	case fieldRoster:
		return normalizeRoster(key, value)
	}
	return nil, dErrors.Newf(dErrors.CodeValidation, "unsupported field %q", key)
}

func normalizeRoster(key string, value any) ([]map[string]string, error) {
	items, ok := value.([]any)
	if !ok {
		// Already normalized (in-process callers and clones).
		if rows, ok := value.([]map[string]string); ok {
			items = make([]any, len(rows))
			for i, r := range rows {
				m := make(map[string]any, len(r))
				for k, v := range r {
					m[k] = v
				}
				items[i] = m
			}
		} else {
			return nil, dErrors.Newf(dErrors.CodeValidation, "field %q must be a list", key)
		}
	}

	rows := make([]map[string]string, 0, len(items))
	for i, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, dErrors.Newf(dErrors.CodeValidation, "%s[%d] must be an object", key, i)
		}
		row := make(map[string]string, len(entry))
		for k, v := range entry {
			s, ok := v.(string)
			if !ok {
				return nil, dErrors.Newf(dErrors.CodeValidation, "%s[%d].%s must be a string", key, i, k)
			}
			row[k] = s
		}
		if row["name"] == "" {
			return nil, dErrors.Newf(dErrors.CodeValidation, "%s[%d].name is required", key, i)
		}
		if sex := row["sex"]; sex != SexMale && sex != SexFemale {
			return nil, dErrors.Newf(dErrors.CodeValidation, "%s[%d].sex has invalid code %q", key, i, sex)
		}
		if rel := row["relationship"]; !relationshipCodes[rel] {
			return nil, dErrors.Newf(dErrors.CodeValidation, "%s[%d].relationship has invalid code %q", key, i, rel)
		}
		if bd := row["birth_date"]; bd != "" {
			if _, err := time.Parse("2006-01-02", bd); err != nil {
				return nil, dErrors.Newf(dErrors.CodeValidation, "%s[%d].birth_date must be formatted YYYY-MM-DD", key, i)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

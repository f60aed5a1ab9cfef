// Package catalog exposes the closed document type catalogue. It is built
// once at startup; lookups of unknown codes fail eagerly instead of falling
// back to string matching.
package catalog

import (
	"suratdesa/internal/request/models"
	dErrors "suratdesa/pkg/domainerrors"
)

type Catalog struct {
	types map[models.TypeCode]models.DocumentType
}

// New builds a catalogue from the given types; callers usually pass
// models.SeedTypes().
func New(types []models.DocumentType) *Catalog {
	m := make(map[models.TypeCode]models.DocumentType, len(types))
	for _, t := range types {
		m[t.Code] = t
	}
	return &Catalog{types: m}
}

func (c *Catalog) Get(code models.TypeCode) (models.DocumentType, error) {
	t, ok := c.types[code]
	if !ok {
		return models.DocumentType{}, dErrors.Newf(dErrors.CodeValidation, "unknown document type %q", code)
	}
	return t, nil
}

func (c *Catalog) All() []models.DocumentType {
	out := make([]models.DocumentType, 0, len(c.types))
	for _, t := range c.types {
		out = append(out, t)
	}
	return out
}

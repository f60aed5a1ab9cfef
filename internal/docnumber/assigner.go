// Package docnumber validates caller-composed document numbers. Numbers are
// composed by the clerk at the edge against a per-type template with one free
// slot; there is no internal counter, this only checks shape.
package docnumber

import (
	"strings"

	"suratdesa/internal/request/models"
	dErrors "suratdesa/pkg/domainerrors"
)

const slot = "{n}"

// Assigner checks a supplied number against a document type's template.
type Assigner struct{}

func New() *Assigner { return &Assigner{} }

// Validate checks number against the type's template. For issuing types an
// empty number is a validation error; non-issuing types must not carry one.
func (a *Assigner) Validate(docType models.DocumentType, number string) error {
	if !docType.Issuing {
		if number != "" {
			return dErrors.Newf(dErrors.CodeValidation, "type %q does not take a document number", docType.Code)
		}
		return nil
	}
	if number == "" {
		return dErrors.New(dErrors.CodeValidation, "document number is required for issuing types")
	}

	prefix, suffix, ok := strings.Cut(docType.NumberTemplate, slot)
	if !ok {
		return dErrors.Newf(dErrors.CodeInternal, "number template for %q has no slot", docType.Code)
	}
	if !strings.HasPrefix(number, prefix) || !strings.HasSuffix(number, suffix) {
		return dErrors.Newf(dErrors.CodeValidation, "number %q does not match template %q", number, docType.NumberTemplate)
	}

	free := number[len(prefix) : len(number)-len(suffix)]
	if len(free) != docType.NumberWidth {
		return dErrors.Newf(dErrors.CodeValidation, "number slot must be %d digits, got %q", docType.NumberWidth, free)
	}
	for _, r := range free {
		if r < '0' || r > '9' {
			return dErrors.Newf(dErrors.CodeValidation, "number slot must be numeric, got %q", free)
		}
	}
	return nil
}

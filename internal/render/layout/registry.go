// Package layout maps document type codes to printable letter layouts. The
// registry is populated eagerly at startup from embedded templates; a type
// without a layout can be tracked through the workflow but never rendered.
package layout

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"suratdesa/internal/request/models"
	dErrors "suratdesa/pkg/domainerrors"
)

//go:embed templates/*.html
var templateFS embed.FS

// Placeholder is rendered for any declared slot the binder did not fill.
const Placeholder = "-"

// Layout is a parameterized letter body for one document type.
type Layout struct {
	Code models.TypeCode
	// Slots are the named insertion points the template references. Bind
	// guarantees each one resolves, to Placeholder if nothing mapped it.
	Slots     []string
	listSlots map[string]bool
	file      string
	tmpl      *template.Template
}

// Bind merges context into the layout and returns the final markup. Unmapped
// slots render as the placeholder dash; Bind never fails on missing data.
func (l *Layout) Bind(context map[string]any) (string, error) {
	data := make(map[string]any, len(l.Slots))
	for _, slot := range l.Slots {
		if l.listSlots[slot] {
			// List slots iterate in the template; an empty list renders the
			// template's own empty-row placeholder.
			data[slot] = []map[string]string{}
			continue
		}
		data[slot] = Placeholder
	}
	for k, v := range context {
		data[k] = v
	}

	var buf bytes.Buffer
	if err := l.tmpl.ExecuteTemplate(&buf, l.file, data); err != nil {
		return "", fmt.Errorf("bind layout %s: %w", l.Code, err)
	}
	return buf.String(), nil
}

// Registry resolves document type codes to layouts.
type Registry struct {
	layouts map[models.TypeCode]*Layout
}

type layoutSpec struct {
	code      models.TypeCode
	file      string
	slots     []string
	listSlots []string
}

var commonSlots = []string{
	"letter_number", "letter_date", "applicant_name", "applicant_nik",
	"applicant_sex", "applicant_birth_place", "applicant_birth_date",
	"applicant_religion", "applicant_occupation", "applicant_address",
	"father_name", "mother_name", "purpose",
}

var specs = []layoutSpec{
	{code: models.TypeDomicile, file: "skd.html", slots: append([]string{"address", "since_year"}, commonSlots...)},
	{code: models.TypeBusiness, file: "sku.html", slots: append([]string{"business_name", "business_type", "business_address", "since_year"}, commonSlots...)},
	{code: models.TypePoverty, file: "sktm.html", slots: append([]string{"dependents"}, commonSlots...), listSlots: []string{"dependents"}},
	{code: models.TypeBirth, file: "skkl.html", slots: append([]string{"baby_name", "baby_sex", "birth_date", "birth_place", "birth_order"}, commonSlots...)},
	{code: models.TypeSingleStatus, file: "skbm.html", slots: append([]string{"marital_status"}, commonSlots...)},
}

// New parses all embedded layouts. Failures here abort startup; a broken
// template must never surface as a runtime render error.
func New() (*Registry, error) {
	layouts := make(map[models.TypeCode]*Layout, len(specs))
	for _, spec := range specs {
		tmpl, err := template.ParseFS(templateFS, "templates/"+spec.file)
		if err != nil {
			return nil, fmt.Errorf("parse layout %s: %w", spec.code, err)
		}
		lists := make(map[string]bool, len(spec.listSlots))
		for _, slot := range spec.listSlots {
			lists[slot] = true
		}
		layouts[spec.code] = &Layout{
			Code:      spec.code,
			Slots:     append([]string(nil), spec.slots...),
			listSlots: lists,
			file:      spec.file,
			tmpl:      tmpl,
		}
	}
	return &Registry{layouts: layouts}, nil
}

// Resolve returns the layout for code, or TemplateNotFound. There is no
// fallback layout on purpose.
func (r *Registry) Resolve(code models.TypeCode) (*Layout, error) {
	l, ok := r.layouts[code]
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeTemplateNotFound, "no layout registered for type %q", code)
	}
	return l, nil
}

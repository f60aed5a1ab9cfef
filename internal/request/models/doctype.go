package models

import dErrors "suratdesa/pkg/domainerrors"

// TypeCode keys a document type. The registry of codes is closed; unknown
// codes are rejected eagerly at submission and at layout lookup.
type TypeCode string

const (
	// TypeDomicile is a surat keterangan domisili.
	TypeDomicile TypeCode = "SKD"
	// TypeBusiness is a surat keterangan usaha.
	TypeBusiness TypeCode = "SKU"
	// TypePoverty is a surat keterangan tidak mampu.
	TypePoverty TypeCode = "SKTM"
	// TypeBirth is a surat keterangan kelahiran. Birth letters skip the
	// neighborhood stage entirely; the clerk owns them from submission.
	TypeBirth TypeCode = "SKKL"
	// TypeSingleStatus is a surat keterangan belum menikah.
	TypeSingleStatus TypeCode = "SKBM"
	// TypeGeneral is a catch-all tracked request with no printable layout.
	TypeGeneral TypeCode = "SKL"
)

func ParseTypeCode(raw string) (TypeCode, error) {
	switch TypeCode(raw) {
	case TypeDomicile, TypeBusiness, TypePoverty, TypeBirth, TypeSingleStatus, TypeGeneral:
		return TypeCode(raw), nil
	}
	return "", dErrors.Newf(dErrors.CodeValidation, "unknown document type %q", raw)
}

// DocumentType describes one letter type and the workflow variations it
// carries.
type DocumentType struct {
	Code        TypeCode
	DisplayName string

	// RequiresNeighborhoodReview gates the first stage. When false the
	// request moves straight into the clerk-owned stage and no neighborhood
	// stamp is ever written.
	RequiresNeighborhoodReview bool

	// Issuing types must carry a document number from clerk approval onward
	// and reach ISSUED on chief approval. Non-issuing types are tracked only
	// and end at CHIEF_APPROVED.
	Issuing bool

	// NumberTemplate is the static per-type composition template with one
	// free slot, e.g. "Kel.{n}/X/2025". Empty for non-issuing types.
	NumberTemplate string
	// NumberWidth is the zero-padded width of the free slot.
	NumberWidth int
}

// SeedTypes returns the fixed document type catalogue loaded at startup.
func SeedTypes() []DocumentType {
	return []DocumentType{
		{Code: TypeDomicile, DisplayName: "Surat Keterangan Domisili", RequiresNeighborhoodReview: true, Issuing: true, NumberTemplate: "Kel.{n}/X/2025", NumberWidth: 3},
		{Code: TypeBusiness, DisplayName: "Surat Keterangan Usaha", RequiresNeighborhoodReview: true, Issuing: true, NumberTemplate: "Kel.{n}/SKU/2025", NumberWidth: 3},
		{Code: TypePoverty, DisplayName: "Surat Keterangan Tidak Mampu", RequiresNeighborhoodReview: true, Issuing: true, NumberTemplate: "Kel.{n}/SKTM/2025", NumberWidth: 3},
		{Code: TypeBirth, DisplayName: "Surat Keterangan Kelahiran", RequiresNeighborhoodReview: false, Issuing: true, NumberTemplate: "Kel.{n}/X/2025", NumberWidth: 3},
		{Code: TypeSingleStatus, DisplayName: "Surat Keterangan Belum Menikah", RequiresNeighborhoodReview: true, Issuing: true, NumberTemplate: "Kel.{n}/SKBM/2025", NumberWidth: 3},
		{Code: TypeGeneral, DisplayName: "Surat Keterangan Lainnya", RequiresNeighborhoodReview: true, Issuing: false},
	}
}

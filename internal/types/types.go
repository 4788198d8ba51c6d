// =============================================================================
// Avisos Generator - Shared Types
// =============================================================================
//
// This package contains the domain types shared by the ingestion boundary,
// the generator and the delivery layer. Keeping them here avoids import
// cycles between:
//   - converter
//   - mapper
//   - xmlwriter
//   - ingest / validation
//   - delivery
//
// =============================================================================

package types

import (
	"fmt"
	"strconv"
	"strings"
)

// =============================================================================
// ACTIVITY TYPES
// =============================================================================

// ActivityType identifies a regulated business line. The set of valid values
// is owned by the registry package.
type ActivityType string

const (
	ActivityRealEstate           ActivityType = "inmuebles"
	ActivityVehicles             ActivityType = "vehiculos"
	ActivityPreciousMetals       ActivityType = "metales_joyas"
	ActivityArtworks             ActivityType = "obras_arte"
	ActivityLoans                ActivityType = "mutuo_prestamo"
	ActivityTravelersCheques     ActivityType = "cheques_viajero"
	ActivityArmoring             ActivityType = "blindaje"
	ActivityValuablesTransport   ActivityType = "traslado_valores"
	ActivityNotarialServices     ActivityType = "fe_publica"
	ActivityGaming               ActivityType = "juegos_apuestas"
	ActivityProfessionalServices ActivityType = "servicios_profesionales"
	ActivityLeasing              ActivityType = "arrendamiento"
	ActivityCompanyFormation     ActivityType = "constitucion_sociedades"
	ActivityVirtualAssets        ActivityType = "activos_virtuales"
	ActivityPrepaidCards         ActivityType = "tarjetas_prepago"
)

// Normalize returns the canonical lowercase form used as registry key.
func (a ActivityType) Normalize() ActivityType {
	return ActivityType(strings.ToLower(strings.TrimSpace(string(a))))
}

// =============================================================================
// PERIOD
// =============================================================================

// Period is the reporting month.
type Period struct {
	Year  int
	Month int
}

// IsZero reports whether no period was supplied.
func (p Period) IsZero() bool { return p.Year == 0 && p.Month == 0 }

// Valid reports whether the period names a real month.
func (p Period) Valid() bool {
	return p.Year >= 1900 && p.Year <= 9999 && p.Month >= 1 && p.Month <= 12
}

// String renders the period as YYYYMM.
func (p Period) String() string {
	return fmt.Sprintf("%04d%02d", p.Year, p.Month)
}

// ParsePeriod accepts YYYYMM, YYYY-MM and YYYY/MM.
func ParsePeriod(value string) (Period, error) {
	v := strings.TrimSpace(value)
	v = strings.NewReplacer("-", "", "/", "").Replace(v)
	if len(v) != 6 {
		return Period{}, fmt.Errorf("invalid period %q: expected YYYYMM", value)
	}
	year, err := strconv.Atoi(v[:4])
	if err != nil {
		return Period{}, fmt.Errorf("invalid period year %q: %w", value, err)
	}
	month, err := strconv.Atoi(v[4:])
	if err != nil {
		return Period{}, fmt.Errorf("invalid period month %q: %w", value, err)
	}
	p := Period{Year: year, Month: month}
	if !p.Valid() {
		return Period{}, fmt.Errorf("invalid period %q: out of range", value)
	}
	return p, nil
}

// =============================================================================
// SUBJECT PROFILE
// =============================================================================

// SubjectProfile identifies the reporting entity (the obligated subject).
// It is read once per generation call and never mutated.
type SubjectProfile struct {
	// TaxID is the subject's RFC.
	TaxID string

	// LegalName is the subject's registered name.
	LegalName string

	// ObligorKey is the registration key assigned by the regulator.
	ObligorKey string
}

// =============================================================================
// OPERATION RECORDS
// =============================================================================

// OperationRecord is one normalized transaction as produced by the
// ingestion boundary. Optional values are empty strings when absent;
// Extras only contains keys whose source value was non-blank.
type OperationRecord struct {
	// ID is a stable identifier used for reported-status tracking.
	ID string

	// RowNumber is the 1-based row in the source export, 0 when unknown.
	RowNumber int

	ActivityType ActivityType
	Period       Period

	// OperationDate is kept raw; formatting happens at assembly time.
	OperationDate string

	// OperationType, Currency and MonetaryInstrument are catalog values,
	// e.g. "1-Compra", "2-USD", "1-Efectivo".
	OperationType      string
	Currency           string
	MonetaryInstrument string

	// Amount is kept raw; "$1,234.5" is a valid input.
	Amount string

	CounterpartyTaxID string
	CounterpartyName  string

	Person   PersonDetail
	Domicile Domicile
	Contact  Contact

	// Beneficiary describes the controlling beneficiary. It is only
	// reported when ActingOnOwnBehalf is explicitly false.
	Beneficiary Beneficiary

	// ActingOnOwnBehalf is tri-state: nil means unknown.
	ActingOnOwnBehalf *bool

	// Extras carries the activity-specific optional fields keyed by their
	// canonical names (see the mapper package).
	Extras map[string]string
}

// Extra returns the activity-specific value for key and whether it is
// present.
func (r OperationRecord) Extra(key string) (string, bool) {
	if r.Extras == nil {
		return "", false
	}
	v, ok := r.Extras[key]
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

// PersonDetail carries the optional descriptive data of the counterparty.
type PersonDetail struct {
	// TypeHint is an explicit person type marker ("1", "2-Moral", "Persona
	// Física", ...). Empty means the tax id heuristic decides.
	TypeHint string

	FirstSurname  string
	SecondSurname string

	// BirthOrIncorporationDate is a birth date for natural persons or an
	// incorporation date for legal entities.
	BirthOrIncorporationDate string

	PopulationID     string // CURP
	Nationality      string
	EconomicActivity string
}

// Domicile is the counterparty's address.
type Domicile struct {
	Street         string
	ExteriorNumber string
	InteriorNumber string
	Neighborhood   string
	Municipality   string
	State          string
	PostalCode     string
	Country        string
}

// IsEmpty reports whether no domicile field carries a value.
func (d Domicile) IsEmpty() bool {
	for _, v := range []string{d.Street, d.ExteriorNumber, d.InteriorNumber, d.Neighborhood,
		d.Municipality, d.State, d.PostalCode, d.Country} {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Contact is the counterparty's contact data.
type Contact struct {
	Phone string
	Email string
}

// IsEmpty reports whether no contact field carries a value.
func (c Contact) IsEmpty() bool {
	return strings.TrimSpace(c.Phone) == "" && strings.TrimSpace(c.Email) == ""
}

// Beneficiary is the controlling beneficiary of an operation.
type Beneficiary struct {
	TypeHint      string
	Name          string
	FirstSurname  string
	SecondSurname string
	TaxID         string
	PopulationID  string
	Nationality   string
}

// =============================================================================
// GENERATOR STRUCTURES
// =============================================================================

// PersonGroup is the set of records sharing a counterparty key, in input
// order. Groups only live for the duration of one generation call.
type PersonGroup struct {
	Key     string
	Records []OperationRecord
}

// Field is one node of an ordered output field tree. A field has either a
// Value or Children.
type Field struct {
	Name     string
	Value    string
	Children []Field
}

// Variant distinguishes the artifacts produced by a single call.
type Variant string

const (
	VariantStandard    Variant = ""
	VariantZero        Variant = "CEROS"
	VariantDeposits    Variant = "DEPOSITOS"
	VariantWithdrawals Variant = "RETIROS"
)

// Artifact is one serialized document ready for delivery.
type Artifact struct {
	FileName     string
	XML          []byte
	Variant      Variant
	ActivityType ActivityType
	Period       Period
	RecordIDs    []string
	RecordCount  int
	ReportCount  int
}

// =============================================================================
// SOURCE ROWS
// =============================================================================

// SourceRow is one data row of a tabular export, keyed by column header.
type SourceRow struct {
	// Number is the 1-based row in the source file.
	Number int
	Values map[string]string
}

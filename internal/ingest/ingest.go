// =============================================================================
// Avisos Generator - Ingestion Boundary
// =============================================================================
//
// This module turns tabular source rows (CSV or XLSX) into operation
// records. It is the only place where loosely typed input is interpreted:
//   - column_mapping names the source header of each record field
//   - transformation_rules repair source columns before mapping
//   - static_fields fill record fields the source leaves blank
//
// Blank cells never become present optional values: an empty string in the
// source is an absent field in the record.
//
// =============================================================================

package ingest

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/ginjaninja78/avisos/internal/config"
	apperrors "github.com/ginjaninja78/avisos/internal/errors"
	"github.com/ginjaninja78/avisos/internal/mapper"
	"github.com/ginjaninja78/avisos/internal/sanitize"
	"github.com/ginjaninja78/avisos/internal/types"
)

// =============================================================================
// RECORD FIELDS
// =============================================================================

// Record field names accepted in column_mapping and static_fields.
const (
	FieldID                 = "id"
	FieldActivityType       = "activity_type"
	FieldPeriod             = "period"
	FieldOperationDate      = "operation_date"
	FieldOperationType      = "operation_type"
	FieldCurrency           = "currency"
	FieldMonetaryInstrument = "monetary_instrument"
	FieldAmount             = "amount"
	FieldCounterpartyTaxID  = "counterparty_tax_id"
	FieldCounterpartyName   = "counterparty_name"

	FieldPersonType       = "person_type"
	FieldFirstSurname     = "first_surname"
	FieldSecondSurname    = "second_surname"
	FieldBirthDate        = "birth_or_incorporation_date"
	FieldPopulationID     = "population_id"
	FieldNationality      = "nationality"
	FieldEconomicActivity = "economic_activity"

	FieldStreet         = "street"
	FieldExteriorNumber = "exterior_number"
	FieldInteriorNumber = "interior_number"
	FieldNeighborhood   = "neighborhood"
	FieldMunicipality   = "municipality"
	FieldState          = "state"
	FieldPostalCode     = "postal_code"
	FieldCountry        = "country"

	FieldPhone = "phone"
	FieldEmail = "email"

	FieldActingOnOwnBehalf        = "acting_on_own_behalf"
	FieldBeneficiaryPersonType    = "beneficiary_person_type"
	FieldBeneficiaryName          = "beneficiary_name"
	FieldBeneficiaryFirstSurname  = "beneficiary_first_surname"
	FieldBeneficiarySecondSurname = "beneficiary_second_surname"
	FieldBeneficiaryTaxID         = "beneficiary_tax_id"
	FieldBeneficiaryPopulationID  = "beneficiary_population_id"
	FieldBeneficiaryNationality   = "beneficiary_nationality"
)

// recordFields are the fields every activity accepts.
var recordFields = []string{
	FieldID, FieldActivityType, FieldPeriod,
	FieldOperationDate, FieldOperationType, FieldCurrency, FieldMonetaryInstrument, FieldAmount,
	FieldCounterpartyTaxID, FieldCounterpartyName,
	FieldPersonType, FieldFirstSurname, FieldSecondSurname, FieldBirthDate,
	FieldPopulationID, FieldNationality, FieldEconomicActivity,
	FieldStreet, FieldExteriorNumber, FieldInteriorNumber, FieldNeighborhood,
	FieldMunicipality, FieldState, FieldPostalCode, FieldCountry,
	FieldPhone, FieldEmail,
	FieldActingOnOwnBehalf, FieldBeneficiaryPersonType, FieldBeneficiaryName,
	FieldBeneficiaryFirstSurname, FieldBeneficiarySecondSurname, FieldBeneficiaryTaxID,
	FieldBeneficiaryPopulationID, FieldBeneficiaryNationality,
}

// KnownFields lists every field name activity accepts: the shared record
// fields followed by the activity-specific keys.
func KnownFields(activity types.ActivityType) []string {
	return append(append([]string(nil), recordFields...), mapper.ExtraKeys(activity)...)
}

// recordIDNamespace scopes the deterministic record ids.
var recordIDNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:avisos:operation-record"))

// =============================================================================
// BUILDER
// =============================================================================

// Builder converts source rows of one activity export into records.
type Builder struct {
	activity    types.ActivityType
	mapping     map[string]string
	static      map[string]string
	extraKeys   []string
	transformer *Transformer
}

// NewBuilder validates cfg and returns a Builder for its activity.
//
// RETURNS:
//   - A configuration error when a mapped or static field is unknown for the
//     activity, or a transformation rule is invalid.
func NewBuilder(cfg *config.ActivityConfig) (*Builder, error) {
	activity := cfg.ActivityType.Normalize()
	known := make(map[string]bool)
	for _, f := range KnownFields(activity) {
		known[f] = true
	}

	var unknown []string
	for field := range cfg.ColumnMapping {
		if !known[field] {
			unknown = append(unknown, field)
		}
	}
	static := make(map[string]string, len(cfg.StaticFields))
	for _, sf := range cfg.StaticFields {
		if !known[sf.Field] {
			unknown = append(unknown, sf.Field)
			continue
		}
		static[sf.Field] = sf.Value
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, apperrors.Newf(apperrors.ErrCodeInvalidConfig,
			"%s: unknown record fields for %s: %s", cfg.Source, activity, strings.Join(unknown, ", "))
	}

	transformer, err := NewTransformer(cfg.TransformationRules)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidConfig, fmt.Sprintf("%s: invalid transformation rules", cfg.Source), err)
	}

	return &Builder{
		activity:    activity,
		mapping:     cfg.ColumnMapping,
		static:      static,
		extraKeys:   mapper.ExtraKeys(activity),
		transformer: transformer,
	}, nil
}

// MissingColumns returns the mapped source headers absent from headers.
func (b *Builder) MissingColumns(headers []string) []string {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}
	var missing []string
	for _, header := range b.mapping {
		if !present[header] {
			missing = append(missing, header)
		}
	}
	sort.Strings(missing)
	return missing
}

// Build converts rows into records, in row order.
func (b *Builder) Build(rows []types.SourceRow) []types.OperationRecord {
	records := make([]types.OperationRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, b.BuildRecord(row))
	}
	return records
}

// BuildRecord converts one row.
func (b *Builder) BuildRecord(row types.SourceRow) types.OperationRecord {
	values := b.transformer.TransformRow(row.Values)
	get := func(field string) string {
		if header, ok := b.mapping[field]; ok {
			if v := strings.TrimSpace(values[header]); v != "" {
				return v
			}
		}
		return strings.TrimSpace(b.static[field])
	}

	r := types.OperationRecord{
		RowNumber:          row.Number,
		ActivityType:       types.ActivityType(get(FieldActivityType)),
		OperationDate:      get(FieldOperationDate),
		OperationType:      get(FieldOperationType),
		Currency:           get(FieldCurrency),
		MonetaryInstrument: get(FieldMonetaryInstrument),
		Amount:             get(FieldAmount),
		CounterpartyTaxID:  get(FieldCounterpartyTaxID),
		CounterpartyName:   get(FieldCounterpartyName),
		Person: types.PersonDetail{
			TypeHint:                 get(FieldPersonType),
			FirstSurname:             get(FieldFirstSurname),
			SecondSurname:            get(FieldSecondSurname),
			BirthOrIncorporationDate: get(FieldBirthDate),
			PopulationID:             get(FieldPopulationID),
			Nationality:              get(FieldNationality),
			EconomicActivity:         get(FieldEconomicActivity),
		},
		Domicile: types.Domicile{
			Street:         get(FieldStreet),
			ExteriorNumber: get(FieldExteriorNumber),
			InteriorNumber: get(FieldInteriorNumber),
			Neighborhood:   get(FieldNeighborhood),
			Municipality:   get(FieldMunicipality),
			State:          get(FieldState),
			PostalCode:     get(FieldPostalCode),
			Country:        get(FieldCountry),
		},
		Contact: types.Contact{
			Phone: get(FieldPhone),
			Email: get(FieldEmail),
		},
		Beneficiary: types.Beneficiary{
			TypeHint:      get(FieldBeneficiaryPersonType),
			Name:          get(FieldBeneficiaryName),
			FirstSurname:  get(FieldBeneficiaryFirstSurname),
			SecondSurname: get(FieldBeneficiarySecondSurname),
			TaxID:         get(FieldBeneficiaryTaxID),
			PopulationID:  get(FieldBeneficiaryPopulationID),
			Nationality:   get(FieldBeneficiaryNationality),
		},
		ActingOnOwnBehalf: ParseTriState(get(FieldActingOnOwnBehalf)),
	}

	if p := get(FieldPeriod); p != "" {
		if period, err := types.ParsePeriod(p); err == nil {
			r.Period = period
		}
	}

	for _, key := range b.extraKeys {
		if v := get(key); v != "" {
			if r.Extras == nil {
				r.Extras = make(map[string]string)
			}
			r.Extras[key] = v
		}
	}

	r.ID = get(FieldID)
	if r.ID == "" {
		r.ID = RecordID(b.activity, r)
	}
	return r
}

// RecordID derives a stable id from the identifying values of r, so the
// same export row always maps to the same id.
func RecordID(activity types.ActivityType, r types.OperationRecord) string {
	key := strings.Join([]string{
		string(activity.Normalize()),
		strconv.Itoa(r.RowNumber),
		sanitize.SanitizeTaxID(r.CounterpartyTaxID),
		sanitize.FormatDate(r.OperationDate),
		sanitize.Fold(r.OperationType),
		sanitize.FormatAmount(r.Amount),
	}, "|")
	return uuid.NewSHA1(recordIDNamespace, []byte(key)).String()
}

// ParseTriState interprets yes/no markers. Anything else is unknown (nil).
func ParseTriState(value string) *bool {
	switch sanitize.Fold(value) {
	case "si", "s", "yes", "y", "true", "1", "x", "verdadero":
		v := true
		return &v
	case "no", "n", "false", "0", "falso":
		v := false
		return &v
	}
	return nil
}

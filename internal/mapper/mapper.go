// =============================================================================
// Avisos Generator - Activity Field Mapper
// =============================================================================
//
// The mapper turns one operation record into the ordered field list of a
// datos_operacion node. Every activity shares the same leading fields; each
// registered activity then contributes exactly one activity block built from
// the optional fields present on the record.
//
// OUTPUT SHAPE:
//   <datos_operacion>
//     <fecha_operacion>20240115</fecha_operacion>
//     <tipo_operacion>1</tipo_operacion>
//     <monto_operacion>250000.00</monto_operacion>
//     <moneda>MXN</moneda>
//     <instrumento_monetario>3</instrumento_monetario>
//     <datos_vehiculo>                 <!-- activity block, optional -->
//       <marca>NISSAN</marca>
//       ...
//     </datos_vehiculo>
//   </datos_operacion>
//
// =============================================================================

package mapper

import (
	"github.com/ginjaninja78/avisos/internal/catalog"
	"github.com/ginjaninja78/avisos/internal/sanitize"
	"github.com/ginjaninja78/avisos/internal/types"
)

// maxCodeLength bounds catalog codes written to the document.
const maxCodeLength = 10

// BuildDetail returns the ordered fields describing record under activity.
// Activities without a dedicated branch get the generic field set.
func BuildDetail(activity types.ActivityType, record types.OperationRecord) []types.Field {
	block, ok := branchFor(activity.Normalize())
	if !ok {
		return genericDetail(record)
	}

	fields := commonFields(record)
	if f, present := block.build(record); present {
		fields = append(fields, f)
	}
	return fields
}

// HasBranch reports whether activity has a dedicated branch.
func HasBranch(activity types.ActivityType) bool {
	_, ok := branchFor(activity.Normalize())
	return ok
}

// ExtraKeys lists the optional record keys activity understands, in output
// order. Unknown activities only understand the generic keys.
func ExtraKeys(activity types.ActivityType) []string {
	keys := []string{KeyAlertType, KeyAlertDescription}
	block, ok := branchFor(activity.Normalize())
	if !ok {
		return append(keys, KeyDescription)
	}
	for _, s := range block.fields {
		keys = append(keys, s.key)
	}
	return keys
}

// Keys shared by every activity.
const (
	KeyAlertType        = "alert_type"
	KeyAlertDescription = "alert_description"
	KeyDescription      = "description"
)

// =============================================================================
// COMMON FIELDS
// =============================================================================

// commonFields are emitted for every record regardless of activity.
func commonFields(record types.OperationRecord) []types.Field {
	return []types.Field{
		{Name: "fecha_operacion", Value: sanitize.FormatDate(record.OperationDate)},
		{Name: "tipo_operacion", Value: formatCode(record.OperationType)},
		{Name: "monto_operacion", Value: sanitize.FormatAmount(record.Amount)},
		{Name: "moneda", Value: catalog.CurrencyLabel(record.Currency)},
		{Name: "instrumento_monetario", Value: formatCode(record.MonetaryInstrument)},
	}
}

// genericDetail is the fallback for activities without a dedicated branch.
func genericDetail(record types.OperationRecord) []types.Field {
	fields := []types.Field{
		{Name: "fecha_operacion", Value: sanitize.FormatDate(record.OperationDate)},
		{Name: "tipo_operacion", Value: formatCode(record.OperationType)},
		{Name: "monto_operacion", Value: sanitize.FormatAmount(record.Amount)},
		{Name: "moneda", Value: catalog.CurrencyLabel(record.Currency)},
	}
	if v, ok := record.Extra(KeyDescription); ok {
		if d := sanitize.SanitizeText(v, sanitize.MaxDescriptionLength); d != "" {
			fields = append(fields, types.Field{Name: "descripcion", Value: d})
		}
	}
	return fields
}

func formatCode(value string) string {
	return sanitize.SanitizeText(sanitize.ExtractCatalogCode(value), maxCodeLength)
}

// =============================================================================
// FIELD SPECS
// =============================================================================

// fieldKind selects the formatter applied to an optional value.
type fieldKind int

const (
	kindText fieldKind = iota
	kindCode
	kindAmount
	kindDate
	kindPostalCode
	kindDigits
	kindDecimal
	kindAlphanumeric
	kindLastDigits
)

// fieldSpec describes one optional field of an activity block. size is the
// maximum length for text kinds and the decimal places for kindDecimal.
type fieldSpec struct {
	key  string
	tag  string
	kind fieldKind
	size int
}

// blockSpec is an activity block: a wrapper tag and its ordered fields.
type blockSpec struct {
	tag    string
	fields []fieldSpec
}

// build formats the fields present on record. The block is reported absent
// when none of its fields are.
func (b blockSpec) build(record types.OperationRecord) (types.Field, bool) {
	block := types.Field{Name: b.tag}
	for _, s := range b.fields {
		raw, ok := record.Extra(s.key)
		if !ok {
			continue
		}
		if v := s.format(raw); v != "" {
			block.Children = append(block.Children, types.Field{Name: s.tag, Value: v})
		}
	}
	return block, len(block.Children) > 0
}

func (s fieldSpec) format(raw string) string {
	switch s.kind {
	case kindCode:
		return formatCode(raw)
	case kindAmount:
		return sanitize.FormatAmount(raw)
	case kindDate:
		return sanitize.FormatDate(raw)
	case kindPostalCode:
		return sanitize.FormatPostalCode(raw)
	case kindDigits:
		return sanitize.DigitsOnly(raw, s.size)
	case kindDecimal:
		return sanitize.FormatDecimal(raw, int32(s.size))
	case kindAlphanumeric:
		return sanitize.SanitizeAlphanumeric(raw, s.size)
	case kindLastDigits:
		return sanitize.LastDigits(raw, s.size)
	default:
		size := s.size
		if size <= 0 {
			size = sanitize.MaxShortTextLength
		}
		return sanitize.SanitizeText(raw, size)
	}
}

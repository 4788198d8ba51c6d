package xmlwriter

import (
	"encoding/xml"
	"fmt"

	"github.com/ginjaninja78/avisos/internal/catalog"
	"github.com/ginjaninja78/avisos/internal/mapper"
	"github.com/ginjaninja78/avisos/internal/registry"
	"github.com/ginjaninja78/avisos/internal/sanitize"
	"github.com/ginjaninja78/avisos/internal/types"
)

// =============================================================================
// DOCUMENT STRUCTURE
// =============================================================================
//
//   <archivo xmlns="<ns>" xmlns:xsi="..." xsi:schemaLocation="<ns> <xsd>">
//     <informe>
//       <mes_reportado>202401</mes_reportado>
//       <sujeto_obligado>...</sujeto_obligado>
//       <avisos>                              <!-- or <informe_en_ceros> -->
//         <aviso>
//           <referencia_aviso>000001</referencia_aviso>
//           <prioridad>1</prioridad>
//           <alerta><tipo_alerta>100</tipo_alerta></alerta>
//           <persona_aviso>...</persona_aviso>
//           <detalle_operaciones>
//             <datos_operacion>...</datos_operacion>
//           </detalle_operaciones>
//         </aviso>
//       </avisos>
//     </informe>
//   </archivo>
//
// =============================================================================

const (
	rootElement        = "archivo"
	defaultPriority    = "1"
	defaultAlertType   = "100"
	zeroOperationsFlag = "1"
	referenceWidth     = 6
	maxObligorKeyLen   = 20
)

// DocumentInput is everything the assembler needs for one document.
type DocumentInput struct {
	Descriptor     registry.SchemaDescriptor
	Period         types.Period
	Subject        types.SubjectProfile
	Groups         []types.PersonGroup
	ZeroOperations bool
}

// Generate assembles and serializes one document with default options.
func Generate(in DocumentInput) ([]byte, error) {
	return GenerateWithOptions(in, DefaultGenerateOptions())
}

// GenerateWithOptions assembles and serializes one document.
func GenerateWithOptions(in DocumentInput, options GenerateOptions) ([]byte, error) {
	return Serialize(Assemble(in), options)
}

// Assemble builds the document tree.
//
// STAGES:
//  1. Header: reported month and obligated subject
//  2. Zero-operations marker, or
//  3. One aviso per person group, with one datos_operacion per record
func Assemble(in DocumentInput) *XMLDocument {
	doc := &XMLDocument{
		XMLName: xml.Name{Local: rootElement},
		Attributes: []xml.Attr{
			{Name: xml.Name{Local: "xmlns"}, Value: in.Descriptor.Namespace},
			{Name: xml.Name{Space: "xmlns", Local: "xsi"}, Value: registry.XSINamespace},
			{Name: xml.Name{Space: "xsi", Local: "schemaLocation"}, Value: in.Descriptor.SchemaLocation()},
		},
	}

	report := createParentElement("informe", buildHeader(in)...)

	if in.ZeroOperations {
		report.Children = append(report.Children, createSimpleElement("informe_en_ceros", zeroOperationsFlag))
	} else {
		report.Children = append(report.Children, buildAvisos(in.Descriptor.Activity, in.Groups))
	}

	doc.Children = append(doc.Children, report)
	return doc
}

// =============================================================================
// HEADER
// =============================================================================

func buildHeader(in DocumentInput) []XMLElement {
	subjectTaxID := sanitize.SanitizeTaxID(in.Subject.TaxID)
	obligorKey := sanitize.SanitizeAlphanumeric(in.Subject.ObligorKey, maxObligorKeyLen)
	if obligorKey == "" {
		obligorKey = subjectTaxID
	}

	return []XMLElement{
		createSimpleElement("mes_reportado", in.Period.String()),
		createParentElement("sujeto_obligado",
			createSimpleElement("clave_sujeto_obligado", obligorKey),
			createSimpleElement("clave_actividad", in.Descriptor.RegulatorCode),
			createSimpleElement("rfc", subjectTaxID),
			createSimpleElement("denominacion_razon", sanitize.SanitizeText(in.Subject.LegalName, sanitize.MaxNameLength)),
		),
	}
}

// =============================================================================
// AVISOS
// =============================================================================

func buildAvisos(activity types.ActivityType, groups []types.PersonGroup) XMLElement {
	avisos := createParentElement("avisos")
	for _, group := range groups {
		if len(group.Records) == 0 {
			continue
		}
		// References count emitted avisos so they never skip a number.
		avisos.Children = append(avisos.Children, buildAviso(activity, len(avisos.Children)+1, group))
	}
	return avisos
}

// FormatReference renders a 1-based aviso reference number.
func FormatReference(n int) string {
	return fmt.Sprintf("%0*d", referenceWidth, n)
}

func buildAviso(activity types.ActivityType, reference int, group types.PersonGroup) XMLElement {
	first := group.Records[0]

	details := createParentElement("detalle_operaciones")
	for _, record := range group.Records {
		details.Children = append(details.Children,
			fieldsToElement("datos_operacion", mapper.BuildDetail(activity, record)))
	}

	return createParentElement("aviso",
		createSimpleElement("referencia_aviso", FormatReference(reference)),
		createSimpleElement("prioridad", defaultPriority),
		buildAlert(first),
		buildPersonaAviso(first),
		details,
	)
}

func buildAlert(record types.OperationRecord) XMLElement {
	alertType := defaultAlertType
	if v, ok := record.Extra(mapper.KeyAlertType); ok {
		if code := sanitize.SanitizeText(sanitize.ExtractCatalogCode(v), 10); code != "" {
			alertType = code
		}
	}
	alert := createParentElement("alerta", createSimpleElement("tipo_alerta", alertType))
	if v, ok := record.Extra(mapper.KeyAlertDescription); ok {
		if d := sanitize.SanitizeText(v, sanitize.MaxDescriptionLength); d != "" {
			alert.Children = append(alert.Children, createSimpleElement("descripcion_alerta", d))
		}
	}
	return alert
}

// =============================================================================
// PERSONA AVISO
// =============================================================================

func buildPersonaAviso(record types.OperationRecord) XMLElement {
	person := record.Person
	personType := catalog.ResolvePersonType(person.TypeHint, record.CounterpartyTaxID)

	el := createParentElement("persona_aviso", createSimpleElement("tipo_persona", personType))
	name := sanitize.SanitizeText(record.CounterpartyName, sanitize.MaxNameLength)
	date := sanitize.FormatDate(person.BirthOrIncorporationDate)
	taxID := sanitize.SanitizeTaxID(record.CounterpartyTaxID)

	if personType == catalog.PersonTypeLegal {
		el.Children = append(el.Children, createSimpleElement("denominacion_razon", name))
		appendIfPresent(&el, "fecha_constitucion", date)
		el.Children = append(el.Children,
			createSimpleElement("rfc", taxID),
			createSimpleElement("pais_nacionalidad", catalog.CountryCode(person.Nationality)),
		)
		appendIfPresent(&el, "giro_mercantil", sanitize.SanitizeText(sanitize.ExtractCatalogCode(person.EconomicActivity), 10))
	} else {
		el.Children = append(el.Children,
			createSimpleElement("nombre", name),
			createSimpleElement("apellido_paterno", sanitize.SanitizeText(person.FirstSurname, sanitize.MaxNameLength)),
		)
		appendIfPresent(&el, "apellido_materno", sanitize.SanitizeText(person.SecondSurname, sanitize.MaxNameLength))
		appendIfPresent(&el, "fecha_nacimiento", date)
		el.Children = append(el.Children, createSimpleElement("rfc", taxID))
		appendIfPresent(&el, "curp", sanitize.SanitizeAlphanumeric(person.PopulationID, sanitize.MaxPopulationIDLen))
		el.Children = append(el.Children, createSimpleElement("pais_nacionalidad", catalog.CountryCode(person.Nationality)))
		appendIfPresent(&el, "actividad_economica", sanitize.SanitizeText(sanitize.ExtractCatalogCode(person.EconomicActivity), 10))
	}

	if !record.Domicile.IsEmpty() {
		el.Children = append(el.Children, buildDomicile(record.Domicile))
	}
	if !record.Contact.IsEmpty() {
		el.Children = append(el.Children, buildContact(record.Contact))
	}
	if record.ActingOnOwnBehalf != nil && !*record.ActingOnOwnBehalf {
		el.Children = append(el.Children, buildBeneficiary(record.Beneficiary))
	}
	return el
}

func buildDomicile(d types.Domicile) XMLElement {
	country := catalog.CountryCode(d.Country)
	text := func(v string) string { return sanitize.SanitizeText(v, sanitize.MaxShortTextLength) }

	if country == catalog.DefaultCountry {
		national := createParentElement("nacional",
			createSimpleElement("colonia", text(d.Neighborhood)),
			createSimpleElement("calle", text(d.Street)),
			createSimpleElement("numero_exterior", sanitize.SanitizeText(d.ExteriorNumber, 56)),
		)
		appendIfPresent(&national, "numero_interior", sanitize.SanitizeText(d.InteriorNumber, 40))
		national.Children = append(national.Children, createSimpleElement("codigo_postal", sanitize.FormatPostalCode(d.PostalCode)))
		appendIfPresent(&national, "municipio", text(d.Municipality))
		appendIfPresent(&national, "entidad_federativa", text(d.State))
		return createParentElement("domicilio", national)
	}

	foreign := createParentElement("extranjero", createSimpleElement("pais", country))
	appendIfPresent(&foreign, "estado_provincia", text(d.State))
	appendIfPresent(&foreign, "ciudad_poblacion", text(d.Municipality))
	appendIfPresent(&foreign, "colonia", text(d.Neighborhood))
	foreign.Children = append(foreign.Children,
		createSimpleElement("calle", text(d.Street)),
		createSimpleElement("numero_exterior", sanitize.SanitizeText(d.ExteriorNumber, 56)),
	)
	appendIfPresent(&foreign, "numero_interior", sanitize.SanitizeText(d.InteriorNumber, 40))
	appendIfPresent(&foreign, "codigo_postal", sanitize.SanitizeAlphanumeric(d.PostalCode, 12))
	return createParentElement("domicilio", foreign)
}

func buildContact(c types.Contact) XMLElement {
	contact := createParentElement("contacto")
	if phone := sanitize.DigitsOnly(c.Phone, 40); phone != "" {
		contact.Children = append(contact.Children,
			createSimpleElement("clave_pais", catalog.DefaultCountry),
			createSimpleElement("telefono", phone),
		)
	}
	appendIfPresent(&contact, "correo_electronico", sanitize.SanitizeText(c.Email, 60))
	return contact
}

func buildBeneficiary(b types.Beneficiary) XMLElement {
	personType := catalog.ResolvePersonType(b.TypeHint, b.TaxID)
	el := createParentElement("dueno_beneficiario", createSimpleElement("tipo_persona", personType))
	name := sanitize.SanitizeText(b.Name, sanitize.MaxNameLength)

	if personType == catalog.PersonTypeLegal {
		el.Children = append(el.Children, createSimpleElement("denominacion_razon", name))
	} else {
		el.Children = append(el.Children,
			createSimpleElement("nombre", name),
			createSimpleElement("apellido_paterno", sanitize.SanitizeText(b.FirstSurname, sanitize.MaxNameLength)),
		)
		appendIfPresent(&el, "apellido_materno", sanitize.SanitizeText(b.SecondSurname, sanitize.MaxNameLength))
	}
	appendIfPresent(&el, "rfc", sanitize.SanitizeTaxID(b.TaxID))
	if personType == catalog.PersonTypeNatural {
		appendIfPresent(&el, "curp", sanitize.SanitizeAlphanumeric(b.PopulationID, sanitize.MaxPopulationIDLen))
	}
	el.Children = append(el.Children, createSimpleElement("pais_nacionalidad", catalog.CountryCode(b.Nationality)))
	return el
}

// =============================================================================
// HELPERS
// =============================================================================

// appendIfPresent appends a simple child only when value is non-empty.
func appendIfPresent(parent *XMLElement, name, value string) {
	if value == "" {
		return
	}
	parent.Children = append(parent.Children, createSimpleElement(name, value))
}

// fieldsToElement converts a mapper field tree into elements.
func fieldsToElement(name string, fields []types.Field) XMLElement {
	el := createParentElement(name)
	for _, f := range fields {
		el.Children = append(el.Children, fieldToElement(f))
	}
	return el
}

func fieldToElement(f types.Field) XMLElement {
	if len(f.Children) == 0 {
		return createSimpleElement(f.Name, f.Value)
	}
	return fieldsToElement(f.Name, f.Children)
}

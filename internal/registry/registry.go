// Package registry maps each regulated activity type to the schema metadata
// its documents must declare: target namespace, schema file and regulator
// activity code. The registry is built once and never mutated.
package registry

import (
	"strings"

	apperrors "github.com/ginjaninja78/avisos/internal/errors"
	"github.com/ginjaninja78/avisos/internal/types"
)

// NamespaceBase is the common prefix of every activity namespace.
const NamespaceBase = "http://www.uif.shcp.gob.mx/recepcion/"

// XSINamespace is the XML Schema instance namespace declared on every root.
const XSINamespace = "http://www.w3.org/2001/XMLSchema-instance"

// SchemaDescriptor is the schema metadata of one activity type.
type SchemaDescriptor struct {
	Activity      types.ActivityType
	Namespace     string
	SchemaFile    string
	RegulatorCode string
	Description   string
}

// SchemaLocation returns the xsi:schemaLocation attribute value.
func (d SchemaDescriptor) SchemaLocation() string {
	return d.Namespace + " " + d.SchemaFile
}

// Registry is an immutable activity → descriptor table.
type Registry struct {
	order       []types.ActivityType
	descriptors map[types.ActivityType]SchemaDescriptor
}

type entry struct {
	activity    types.ActivityType
	code        string
	description string
}

var defaultEntries = []entry{
	{types.ActivityRealEstate, "INM", "Compraventa de inmuebles"},
	{types.ActivityVehicles, "VEH", "Comercializacion de vehiculos"},
	{types.ActivityPreciousMetals, "MJR", "Metales preciosos, piedras preciosas, joyas y relojes"},
	{types.ActivityArtworks, "OBA", "Subasta y comercializacion de obras de arte"},
	{types.ActivityLoans, "MPC", "Mutuo, prestamo o credito"},
	{types.ActivityTravelersCheques, "CHV", "Cheques de viajero"},
	{types.ActivityArmoring, "BLI", "Servicios de blindaje"},
	{types.ActivityValuablesTransport, "TCV", "Traslado y custodia de valores"},
	{types.ActivityNotarialServices, "FEP", "Fe publica"},
	{types.ActivityGaming, "JYS", "Juegos con apuesta, concursos y sorteos"},
	{types.ActivityProfessionalServices, "SPR", "Servicios profesionales independientes"},
	{types.ActivityLeasing, "ARI", "Arrendamiento de inmuebles"},
	{types.ActivityCompanyFormation, "CSM", "Constitucion de sociedades mercantiles"},
	{types.ActivityVirtualAssets, "AVI", "Activos virtuales"},
	{types.ActivityPrepaidCards, "TPP", "Tarjetas de servicios, credito y prepagadas"},
}

// Default builds the registry of every supported activity.
func Default() *Registry {
	r := &Registry{
		order:       make([]types.ActivityType, 0, len(defaultEntries)),
		descriptors: make(map[types.ActivityType]SchemaDescriptor, len(defaultEntries)),
	}
	for _, e := range defaultEntries {
		lower := strings.ToLower(e.code)
		r.order = append(r.order, e.activity)
		r.descriptors[e.activity] = SchemaDescriptor{
			Activity:      e.activity,
			Namespace:     NamespaceBase + lower,
			SchemaFile:    lower + ".xsd",
			RegulatorCode: e.code,
			Description:   e.description,
		}
	}
	return r
}

// Lookup returns the descriptor for activity. Unknown activities produce a
// configuration error.
func (r *Registry) Lookup(activity types.ActivityType) (SchemaDescriptor, error) {
	d, ok := r.descriptors[activity.Normalize()]
	if !ok {
		return SchemaDescriptor{}, apperrors.NewUnknownActivityError(string(activity))
	}
	return d, nil
}

// Has reports whether activity is registered.
func (r *Registry) Has(activity types.ActivityType) bool {
	_, ok := r.descriptors[activity.Normalize()]
	return ok
}

// Activities lists the registered activity types in registration order.
func (r *Registry) Activities() []types.ActivityType {
	out := make([]types.ActivityType, len(r.order))
	copy(out, r.order)
	return out
}

// Descriptors lists every descriptor in registration order.
func (r *Registry) Descriptors() []SchemaDescriptor {
	out := make([]SchemaDescriptor, 0, len(r.order))
	for _, a := range r.order {
		out = append(out, r.descriptors[a])
	}
	return out
}

package mapper

import "github.com/ginjaninja78/avisos/internal/types"

// branchFor is the closed activity dispatch. Adding an activity to the
// registry without a case here is caught by TestEveryRegisteredActivityHasBranch.
func branchFor(activity types.ActivityType) (blockSpec, bool) {
	switch activity {
	case types.ActivityRealEstate:
		return realEstateBlock, true
	case types.ActivityVehicles:
		return vehicleBlock, true
	case types.ActivityPreciousMetals:
		return preciousMetalsBlock, true
	case types.ActivityArtworks:
		return artworkBlock, true
	case types.ActivityLoans:
		return loanBlock, true
	case types.ActivityTravelersCheques:
		return chequesBlock, true
	case types.ActivityArmoring:
		return armoringBlock, true
	case types.ActivityValuablesTransport:
		return transportBlock, true
	case types.ActivityNotarialServices:
		return notarialBlock, true
	case types.ActivityGaming:
		return gamingBlock, true
	case types.ActivityProfessionalServices:
		return professionalServicesBlock, true
	case types.ActivityLeasing:
		return leasingBlock, true
	case types.ActivityCompanyFormation:
		return companyFormationBlock, true
	case types.ActivityVirtualAssets:
		return virtualAssetsBlock, true
	case types.ActivityPrepaidCards:
		return prepaidCardsBlock, true
	default:
		return blockSpec{}, false
	}
}

// =============================================================================
// ACTIVITY BLOCKS
// =============================================================================

var realEstateBlock = blockSpec{
	tag: "caracteristicas_inmueble",
	fields: []fieldSpec{
		{key: "property_type", tag: "tipo_inmueble", kind: kindCode},
		{key: "agreed_value", tag: "valor_pactado", kind: kindAmount},
		{key: "property_postal_code", tag: "codigo_postal", kind: kindPostalCode},
		{key: "property_neighborhood", tag: "colonia", kind: kindText},
		{key: "property_street", tag: "calle", kind: kindText},
		{key: "property_exterior_number", tag: "numero_exterior", kind: kindText, size: 56},
		{key: "property_folio", tag: "folio_real", kind: kindText, size: 40},
		{key: "land_area", tag: "dimension_terreno", kind: kindDecimal, size: 2},
	},
}

var vehicleBlock = blockSpec{
	tag: "datos_vehiculo",
	fields: []fieldSpec{
		{key: "vehicle_type", tag: "tipo_vehiculo", kind: kindCode},
		{key: "brand", tag: "marca", kind: kindText},
		{key: "model", tag: "modelo", kind: kindText},
		{key: "year", tag: "anio", kind: kindDigits, size: 4},
		{key: "vin", tag: "vin", kind: kindAlphanumeric, size: 17},
		{key: "plates", tag: "placas", kind: kindAlphanumeric, size: 10},
		{key: "engine_number", tag: "numero_motor", kind: kindAlphanumeric, size: 30},
	},
}

var preciousMetalsBlock = blockSpec{
	tag: "datos_bien",
	fields: []fieldSpec{
		{key: "item_type", tag: "tipo_bien", kind: kindCode},
		{key: "description", tag: "descripcion", kind: kindText, size: 3000},
		{key: "carats", tag: "quilataje", kind: kindDecimal, size: 2},
		{key: "weight", tag: "peso", kind: kindDecimal, size: 3},
		{key: "quantity", tag: "cantidad", kind: kindDigits, size: 10},
		{key: "commercial_unit", tag: "unidad_comercializacion", kind: kindCode},
	},
}

var artworkBlock = blockSpec{
	tag: "datos_obra",
	fields: []fieldSpec{
		{key: "artwork_type", tag: "tipo_obra", kind: kindCode},
		{key: "title", tag: "titulo", kind: kindText, size: 200},
		{key: "author", tag: "autor", kind: kindText, size: 200},
		{key: "technique", tag: "tecnica", kind: kindText},
		{key: "dimensions", tag: "dimensiones", kind: kindText},
		{key: "year", tag: "anio_realizacion", kind: kindDigits, size: 4},
	},
}

var loanBlock = blockSpec{
	tag: "datos_credito",
	fields: []fieldSpec{
		{key: "guarantee_type", tag: "tipo_garantia", kind: kindCode},
		{key: "term_months", tag: "plazo_meses", kind: kindDigits, size: 4},
		{key: "interest_rate", tag: "tasa_interes", kind: kindDecimal, size: 4},
		{key: "guarantee_value", tag: "valor_garantia", kind: kindAmount},
	},
}

var chequesBlock = blockSpec{
	tag: "datos_cheques",
	fields: []fieldSpec{
		{key: "issuer", tag: "institucion_emisora", kind: kindText, size: 200},
		{key: "serial_number", tag: "numero_serie", kind: kindAlphanumeric, size: 40},
		{key: "quantity", tag: "cantidad_cheques", kind: kindDigits, size: 6},
		{key: "denomination", tag: "denominacion", kind: kindAmount},
	},
}

var armoringBlock = blockSpec{
	tag: "datos_blindaje",
	fields: []fieldSpec{
		{key: "armored_item_type", tag: "tipo_bien_blindado", kind: kindCode},
		{key: "armor_level", tag: "nivel_blindaje", kind: kindCode},
		{key: "brand", tag: "marca", kind: kindText},
		{key: "model", tag: "modelo", kind: kindText},
		{key: "year", tag: "anio", kind: kindDigits, size: 4},
		{key: "vin", tag: "vin", kind: kindAlphanumeric, size: 17},
	},
}

var transportBlock = blockSpec{
	tag: "datos_traslado",
	fields: []fieldSpec{
		{key: "value_type", tag: "tipo_valor", kind: kindCode},
		{key: "service_type", tag: "tipo_servicio", kind: kindCode},
		{key: "origin_postal_code", tag: "codigo_postal_origen", kind: kindPostalCode},
		{key: "destination_postal_code", tag: "codigo_postal_destino", kind: kindPostalCode},
		{key: "declared_value", tag: "valor_declarado", kind: kindAmount},
	},
}

var notarialBlock = blockSpec{
	tag: "datos_instrumento",
	fields: []fieldSpec{
		{key: "deed_number", tag: "numero_instrumento", kind: kindText, size: 20},
		{key: "act_type", tag: "tipo_acto", kind: kindCode},
		{key: "notary_number", tag: "numero_notaria", kind: kindDigits, size: 6},
		{key: "deed_date", tag: "fecha_instrumento", kind: kindDate},
		{key: "state", tag: "entidad_federativa", kind: kindCode},
		{key: "appraised_value", tag: "valor_avaluo", kind: kindAmount},
	},
}

var gamingBlock = blockSpec{
	tag: "datos_juego",
	fields: []fieldSpec{
		{key: "game_type", tag: "tipo_juego", kind: kindCode},
		{key: "table", tag: "mesa", kind: kindText, size: 20},
		{key: "ticket_number", tag: "numero_boleto", kind: kindAlphanumeric, size: 40},
		{key: "prize_amount", tag: "monto_premio", kind: kindAmount},
		{key: "event_description", tag: "descripcion_evento", kind: kindText, size: 3000},
	},
}

var professionalServicesBlock = blockSpec{
	tag: "datos_servicio",
	fields: []fieldSpec{
		{key: "service_type", tag: "tipo_servicio", kind: kindCode},
		{key: "description", tag: "descripcion_servicio", kind: kindText, size: 3000},
		{key: "managed_amount", tag: "monto_recursos", kind: kindAmount},
		{key: "account_number", tag: "numero_cuenta", kind: kindDigits, size: 20},
	},
}

var leasingBlock = blockSpec{
	tag: "datos_arrendamiento",
	fields: []fieldSpec{
		{key: "property_type", tag: "tipo_inmueble", kind: kindCode},
		{key: "property_postal_code", tag: "codigo_postal", kind: kindPostalCode},
		{key: "monthly_rent", tag: "monto_renta", kind: kindAmount},
		{key: "term_months", tag: "plazo_meses", kind: kindDigits, size: 4},
		{key: "lease_start", tag: "fecha_inicio", kind: kindDate},
		{key: "lease_end", tag: "fecha_fin", kind: kindDate},
	},
}

var companyFormationBlock = blockSpec{
	tag: "datos_sociedad",
	fields: []fieldSpec{
		{key: "company_type", tag: "tipo_sociedad", kind: kindCode},
		{key: "company_name", tag: "denominacion_sociedad", kind: kindText, size: 254},
		{key: "share_capital", tag: "capital_social", kind: kindAmount},
		{key: "shareholding_percentage", tag: "porcentaje_participacion", kind: kindDecimal, size: 2},
		{key: "incorporation_date", tag: "fecha_constitucion", kind: kindDate},
	},
}

var virtualAssetsBlock = blockSpec{
	tag: "datos_activo_virtual",
	fields: []fieldSpec{
		{key: "asset_name", tag: "activo_virtual", kind: kindText, size: 50},
		{key: "token_quantity", tag: "cantidad_tokens", kind: kindDecimal, size: 8},
		{key: "wallet_address", tag: "direccion_monedero", kind: kindText, size: 120},
		{key: "exchange_rate", tag: "tipo_cambio", kind: kindDecimal, size: 4},
		{key: "transaction_hash", tag: "hash_operacion", kind: kindText, size: 120},
	},
}

var prepaidCardsBlock = blockSpec{
	tag: "datos_tarjeta",
	fields: []fieldSpec{
		{key: "card_type", tag: "tipo_tarjeta", kind: kindCode},
		{key: "card_number", tag: "numero_tarjeta", kind: kindLastDigits, size: 4},
		{key: "issuer", tag: "emisor", kind: kindText, size: 200},
		{key: "load_amount", tag: "monto_carga", kind: kindAmount},
	},
}

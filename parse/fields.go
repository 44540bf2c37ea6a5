package parse

// Field vocabulary. Decoders only ever write these names; the columnar
// sink declares its header from the same list, so the two cannot drift.
const (
	FieldTimestamp = "timestamp"

	// Static identity facts (ModemInfoRecord).
	FieldManufacturer    = "manufacturer"
	FieldModel           = "model"
	FieldFirmware        = "firmware"
	FieldSerialNumber    = "serial_number"
	FieldIMSI            = "imsi"
	FieldICCID           = "iccid"
	FieldSIMStatus       = "sim_status"
	FieldCarrierProfile  = "carrier_profile"
	FieldCarrierProfiles = "carrier_profiles"

	// Dynamic telemetry (SampleRecord).
	FieldLatitude           = "latitude"
	FieldLongitude          = "longitude"
	FieldAltitude           = "altitude"
	FieldSpeed              = "speed"
	FieldSatellites         = "satellites"
	FieldFixQuality         = "fix_quality"
	FieldMCC                = "mcc"
	FieldMNC                = "mnc"
	FieldLAC                = "lac"
	FieldCellID             = "cell_id"
	FieldPCID               = "pcid"
	FieldTechnology         = "technology"
	FieldRegistrationStatus = "registration_status"
	FieldRSSI               = "rssi"
	FieldRSSIRaw            = "rssi_raw"
	FieldBER                = "ber"
	FieldRSRP               = "rsrp"
	FieldRSRQ               = "rsrq"
	FieldSINR               = "sinr"
	FieldBand               = "band"
	FieldBandwidth          = "bandwidth"
	FieldFrequency          = "frequency"
	FieldOperator           = "operator"
	FieldOperatorMode       = "operator_mode"
	FieldFunctionality      = "functionality"
	FieldAttachment         = "attachment"
	FieldServingState       = "serving_state"
	FieldNeighbourCells     = "neighbour_cells"
	FieldGNSSPower          = "gnss_power"
	FieldModemTime          = "modem_time"
	FieldNetworkTime        = "network_time"
	FieldNetworkInfo        = "network_info"
)

// Columns is the fixed, ordered column set of the sample CSV sink. Fields
// a given row does not hold are written empty.
var Columns = []string{
	FieldTimestamp,
	FieldLatitude,
	FieldLongitude,
	FieldAltitude,
	FieldSpeed,
	FieldSatellites,
	FieldFixQuality,
	FieldMCC,
	FieldMNC,
	FieldLAC,
	FieldCellID,
	FieldPCID,
	FieldTechnology,
	FieldRegistrationStatus,
	FieldRSSI,
	FieldRSSIRaw,
	FieldBER,
	FieldRSRP,
	FieldRSRQ,
	FieldSINR,
	FieldBand,
	FieldBandwidth,
	FieldFrequency,
	FieldOperator,
	FieldOperatorMode,
	FieldFunctionality,
	FieldAttachment,
	FieldServingState,
	FieldNeighbourCells,
	FieldGNSSPower,
	FieldModemTime,
	FieldNetworkTime,
	FieldNetworkInfo,
}

// staticFields are the one-time facts routed to the ModemInfoRecord;
// everything else a decoder produces is dynamic telemetry.
var staticFields = map[string]bool{
	FieldManufacturer:    true,
	FieldModel:           true,
	FieldFirmware:        true,
	FieldSerialNumber:    true,
	FieldIMSI:            true,
	FieldICCID:           true,
	FieldSIMStatus:       true,
	FieldCarrierProfile:  true,
	FieldCarrierProfiles: true,
}

// anchorFields are the fields whose presence, together with a timestamp,
// makes a sample complete enough to persist.
var anchorFields = []string{
	FieldCellID,
	FieldRSSI,
	FieldLatitude,
	FieldLAC,
	FieldOperator,
}

package parse

import (
	"github.com/lukejenkins/cwd/at"
)

// DecoderFunc decodes the preprocessed response lines of one command
// family into a FieldMap. Lines arrive trimmed, with the command echo and
// the trailing OK already removed.
type DecoderFunc func(cmd string, lines []string) FieldMap

// Registry routes a command to its decoder by canonical verb, resolved
// once at construction. Commands without a decoder decode to an empty
// FieldMap.
type Registry struct {
	decoders map[string]DecoderFunc
}

// NewRegistry returns a registry populated with every known decoder.
func NewRegistry() *Registry {
	r := &Registry{decoders: make(map[string]DecoderFunc)}

	r.register("AT+CGMI", identityDecoder(FieldManufacturer))
	r.register("AT+CGMM", identityDecoder(FieldModel))
	r.register("AT+CGMR", identityDecoder(FieldFirmware))
	r.register("AT+CGSN", identityDecoder(FieldSerialNumber))
	r.register("AT+CIMI", decodeIMSI)
	r.register("AT+QCCID", decodeQCCID)
	r.register("AT+CPIN", decodeCPIN)
	r.register("AT+QMBNCFG", decodeQMBNCFG)

	r.register("AT+CSQ", decodeCSQ)
	r.register("AT+CREG", registrationDecoder("GSM", "+CREG:"))
	r.register("AT+CGREG", registrationDecoder("UMTS", "+CGREG:"))
	r.register("AT+CEREG", registrationDecoder("LTE", "+CEREG:"))
	r.register("AT+QCSQ", decodeQCSQ)
	r.register("AT+QNWINFO", decodeQNWINFO)
	r.register("AT+QSPN", decodeQSPN)
	r.register("AT+COPS", decodeCOPS)
	r.register("AT+CFUN", decodeCFUN)
	r.register("AT+CGATT", decodeCGATT)
	r.register("AT+QENG", decodeQENG)
	r.register("AT+QNETINFO", decodeQNETINFO)

	r.register("AT+CCLK", decodeCCLK)
	r.register("AT+QLTS", decodeQLTS)
	r.register("AT+QGPS", decodeQGPS)
	r.register("AT+QGPSGNMEA", decodeNMEA)

	return r
}

func (r *Registry) register(verb string, d DecoderFunc) {
	r.decoders[verb] = d
}

// Decode parses the raw response of cmd. Unmatched commands and decoders
// that find nothing usable both return an empty, non-nil FieldMap.
func (r *Registry) Decode(cmd, raw string) FieldMap {
	d, ok := r.decoders[at.Verb(cmd)]
	if !ok {
		return FieldMap{}
	}
	fields := d(cmd, at.Lines(cmd, raw))
	if fields == nil {
		return FieldMap{}
	}
	return fields
}

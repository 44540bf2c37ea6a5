package parse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lukejenkins/cwd/at"
)

// payload strips the marker prefix from line and splits the remainder
// into comma-separated fields, trimming whitespace and surrounding quotes
// from each.
func payload(line, marker string) []string {
	rest := at.TrimPrefix(line, marker)
	parts := strings.Split(rest, ",")
	for i, p := range parts {
		parts[i] = strings.Trim(strings.TrimSpace(p), `"`)
	}
	return parts
}

// find returns the payload of the first line carrying the marker.
func find(lines []string, marker string) ([]string, bool) {
	for _, line := range lines {
		if strings.Contains(line, marker) {
			return payload(line, marker), true
		}
	}
	return nil, false
}

// rawValue returns the whole remainder of the first line carrying the
// marker, unquoted but not split: for values such as timestamps whose
// commas are part of the data.
func rawValue(lines []string, marker string) (string, bool) {
	for _, line := range lines {
		if strings.Contains(line, marker) {
			return strings.Trim(strings.TrimSpace(at.TrimPrefix(line, marker)), `"`), true
		}
	}
	return "", false
}

func atoi(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return n, true
}

func atof(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// hextoi parses the hex cell identifiers (LAC, TAC, cell ID) the network
// registration and serving-cell responses carry.
func hextoi(s string) (int, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	n, err := strconv.ParseInt(s, 16, 64)
	if err != nil {
		return 0, false
	}
	return int(n), true
}

// label resolves a coded field through its lookup table, preserving
// undocumented codes as "Unknown (<code>)".
func label(table map[int]string, code int) string {
	if s, ok := table[code]; ok {
		return s
	}
	return fmt.Sprintf("Unknown (%d)", code)
}

var registrationStatuses = map[int]string{
	0: "Not registered, not searching",
	1: "Registered, home network",
	2: "Not registered, searching",
	3: "Registration denied",
	4: "Unknown",
	5: "Registered, roaming",
}

var accessTechnologies = map[int]string{
	0:  "GSM",
	1:  "GSM Compact",
	2:  "UTRAN",
	3:  "GSM w/EGPRS",
	4:  "UTRAN w/HSDPA",
	5:  "UTRAN w/HSUPA",
	6:  "UTRAN w/HSDPA and HSUPA",
	7:  "E-UTRAN",
	8:  "EC-GSM-IoT",
	9:  "E-UTRAN NB-S1",
	10: "E-UTRA connected to 5GCN",
	11: "NR connected to 5GCN",
	12: "NG-RAN",
	13: "E-UTRA-NR dual connectivity",
}

var operatorModes = map[int]string{
	0: "Automatic",
	1: "Manual",
	2: "Deregistered",
	3: "Set format only",
	4: "Manual/automatic",
}

var functionalityModes = map[int]string{
	0: "Minimum functionality",
	1: "Full functionality",
	4: "Airplane mode",
}

// dlBandwidths maps the serving-cell downlink bandwidth code to MHz.
var dlBandwidths = map[int]float64{
	0: 1.4,
	1: 3,
	2: 5,
	3: 10,
	4: 15,
	5: 20,
}

// identityDecoder handles the single-line identity responses: the first
// informational line is the value.
func identityDecoder(field string) DecoderFunc {
	return func(cmd string, lines []string) FieldMap {
		for _, line := range lines {
			if at.IsError(line) || strings.HasPrefix(line, "+") {
				continue
			}
			return FieldMap{field: String(line)}
		}
		return nil
	}
}

// decodeIMSI accepts only an all-digit line; anything else is noise.
func decodeIMSI(cmd string, lines []string) FieldMap {
	for _, line := range lines {
		if line == "" || strings.ContainsFunc(line, func(r rune) bool { return r < '0' || r > '9' }) {
			continue
		}
		return FieldMap{FieldIMSI: String(line)}
	}
	return nil
}

func decodeQCCID(cmd string, lines []string) FieldMap {
	p, ok := find(lines, "+QCCID:")
	if !ok || p[0] == "" {
		return nil
	}
	return FieldMap{FieldICCID: String(p[0])}
}

func decodeCPIN(cmd string, lines []string) FieldMap {
	p, ok := find(lines, "+CPIN:")
	if !ok || p[0] == "" {
		return nil
	}
	return FieldMap{FieldSIMStatus: String(p[0])}
}

// decodeQMBNCFG parses the carrier profile listing. Each list line is
// "List",<index>,<selected>,<activated>,"<name>",... The activated
// profile also lands under its own field.
func decodeQMBNCFG(cmd string, lines []string) FieldMap {
	fields := FieldMap{}
	var names []string
	for _, line := range lines {
		if !strings.Contains(line, "+QMBNCFG:") {
			continue
		}
		p := payload(line, "+QMBNCFG:")
		if len(p) < 5 || p[0] != "List" || p[4] == "" {
			continue
		}
		names = append(names, p[4])
		if active, ok := atoi(p[3]); ok && active == 1 {
			fields[FieldCarrierProfile] = String(p[4])
		}
	}
	if len(names) == 0 {
		return nil
	}
	fields[FieldCarrierProfiles] = String(strings.Join(names, ","))
	return fields
}

// decodeCSQ applies the documented transform raw → dBm. The 99 sentinel
// means the modem cannot measure; it is reported as the literal unknown
// marker rather than transformed.
func decodeCSQ(cmd string, lines []string) FieldMap {
	p, ok := find(lines, "+CSQ:")
	if !ok || len(p) < 2 {
		return nil
	}
	fields := FieldMap{}
	if raw, ok := atoi(p[0]); ok {
		fields[FieldRSSIRaw] = Int(raw)
		if raw == 99 {
			fields[FieldRSSI] = Unknown()
		} else {
			fields[FieldRSSI] = Int(-113 + 2*raw)
		}
	}
	if ber, ok := atoi(p[1]); ok {
		fields[FieldBER] = Int(ber)
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// registrationDecoder handles +CREG/+CGREG/+CEREG read responses:
// <n>,<stat>[,<lac>,<ci>[,<AcT>]]. The technology defaults from the
// command family and is refined by the AcT code when the network
// supplies one. Location fields require the full positional form.
func registrationDecoder(technology, marker string) DecoderFunc {
	return func(cmd string, lines []string) FieldMap {
		p, ok := find(lines, marker)
		if !ok || len(p) < 2 {
			return nil
		}
		fields := FieldMap{FieldTechnology: String(technology)}
		if stat, ok := atoi(p[1]); ok {
			fields[FieldRegistrationStatus] = String(label(registrationStatuses, stat))
		}
		if len(p) >= 4 {
			if lac, ok := hextoi(p[2]); ok {
				fields[FieldLAC] = Int(lac)
			}
			if ci, ok := hextoi(p[3]); ok {
				fields[FieldCellID] = Int(ci)
			}
		}
		if len(p) >= 5 {
			if act, ok := atoi(p[4]); ok {
				fields[FieldTechnology] = String(label(accessTechnologies, act))
			}
		}
		return fields
	}
}

// decodeQCSQ: "<sysmode>",<rssi>,<rsrp>,<sinr>,<rsrq> for LTE sysmodes.
func decodeQCSQ(cmd string, lines []string) FieldMap {
	p, ok := find(lines, "+QCSQ:")
	if !ok || len(p) < 1 || p[0] == "" || p[0] == "NOSERVICE" {
		return nil
	}
	fields := FieldMap{FieldTechnology: String(p[0])}
	for i, field := range []string{FieldRSSI, FieldRSRP, FieldSINR, FieldRSRQ} {
		if len(p) > i+1 {
			if v, ok := atoi(p[i+1]); ok {
				fields[field] = Int(v)
			}
		}
	}
	return fields
}

// decodeQNWINFO: "<AcT>","<oper>","<band>",<channel>. The operator field
// is the numeric MCCMNC; the first three digits are the MCC.
func decodeQNWINFO(cmd string, lines []string) FieldMap {
	p, ok := find(lines, "+QNWINFO:")
	if !ok || len(p) < 1 || p[0] == "" {
		return nil
	}
	fields := FieldMap{FieldTechnology: String(p[0])}
	if len(p) >= 2 && len(p[1]) > 3 {
		if _, ok := atoi(p[1]); ok {
			fields[FieldMCC] = String(p[1][:3])
			fields[FieldMNC] = String(p[1][3:])
		}
	}
	if len(p) >= 3 && p[2] != "" {
		fields[FieldBand] = String(p[2])
	}
	if len(p) >= 4 {
		if ch, ok := atoi(p[3]); ok {
			fields[FieldFrequency] = Int(ch)
		}
	}
	return fields
}

func decodeQSPN(cmd string, lines []string) FieldMap {
	p, ok := find(lines, "+QSPN:")
	if !ok || p[0] == "" {
		return nil
	}
	return FieldMap{FieldOperator: String(p[0])}
}

// decodeCOPS: <mode>[,<format>,"<oper>"[,<AcT>]].
func decodeCOPS(cmd string, lines []string) FieldMap {
	p, ok := find(lines, "+COPS:")
	if !ok || len(p) < 1 {
		return nil
	}
	fields := FieldMap{}
	if mode, ok := atoi(p[0]); ok {
		fields[FieldOperatorMode] = String(label(operatorModes, mode))
	}
	if len(p) >= 3 && p[2] != "" {
		fields[FieldOperator] = String(p[2])
	}
	if len(p) >= 4 {
		if act, ok := atoi(p[3]); ok {
			fields[FieldTechnology] = String(label(accessTechnologies, act))
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func decodeCFUN(cmd string, lines []string) FieldMap {
	p, ok := find(lines, "+CFUN:")
	if !ok {
		return nil
	}
	mode, ok := atoi(p[0])
	if !ok {
		return nil
	}
	return FieldMap{FieldFunctionality: String(label(functionalityModes, mode))}
}

func decodeCGATT(cmd string, lines []string) FieldMap {
	p, ok := find(lines, "+CGATT:")
	if !ok {
		return nil
	}
	state, ok := atoi(p[0])
	if !ok {
		return nil
	}
	switch state {
	case 0:
		return FieldMap{FieldAttachment: String("Detached")}
	case 1:
		return FieldMap{FieldAttachment: String("Attached")}
	default:
		return FieldMap{FieldAttachment: String(fmt.Sprintf("Unknown (%d)", state))}
	}
}

// decodeQENG dispatches on the report type in the first payload field:
// a serving-cell snapshot or a neighbour-cell listing.
func decodeQENG(cmd string, lines []string) FieldMap {
	for _, line := range lines {
		if !strings.Contains(line, "+QENG:") {
			continue
		}
		p := payload(line, "+QENG:")
		if p[0] == "servingcell" {
			return decodeServingCell(p)
		}
		if strings.HasPrefix(p[0], "neighbourcell") {
			return decodeNeighbourCells(lines)
		}
	}
	return nil
}

// decodeServingCell parses the LTE serving-cell layout:
// "servingcell",<state>,"LTE",<duplex>,<mcc>,<mnc>,<cid hex>,<pcid>,
// <earfcn>,<band>,<ulbw>,<dlbw>,<tac hex>,<rsrp>,<rsrq>,<rssi>,<sinr>,...
// GSM and WCDMA reports carry mcc/mnc/lac/cid at fixed earlier positions
// and are parsed to that depth only.
func decodeServingCell(p []string) FieldMap {
	if len(p) < 3 {
		return nil
	}
	fields := FieldMap{
		FieldServingState: String(p[1]),
		FieldTechnology:   String(p[2]),
	}
	switch p[2] {
	case "LTE":
		if len(p) < 7 {
			return fields
		}
		// MCC/MNC stay strings everywhere: an MNC like "026" loses its
		// leading zero as an integer.
		if _, ok := atoi(p[4]); ok {
			fields[FieldMCC] = String(p[4])
		}
		if _, ok := atoi(p[5]); ok {
			fields[FieldMNC] = String(p[5])
		}
		if cid, ok := hextoi(p[6]); ok {
			fields[FieldCellID] = Int(cid)
		}
		if len(p) > 7 {
			if pcid, ok := atoi(p[7]); ok {
				fields[FieldPCID] = Int(pcid)
			}
		}
		if len(p) > 8 {
			if earfcn, ok := atoi(p[8]); ok {
				fields[FieldFrequency] = Int(earfcn)
			}
		}
		if len(p) > 9 {
			if band, ok := atoi(p[9]); ok {
				fields[FieldBand] = String("LTE BAND " + strconv.Itoa(band))
			}
		}
		if len(p) > 11 {
			if code, ok := atoi(p[11]); ok {
				if mhz, known := dlBandwidths[code]; known {
					fields[FieldBandwidth] = Float(mhz)
				}
			}
		}
		if len(p) > 12 {
			if tac, ok := hextoi(p[12]); ok {
				fields[FieldLAC] = Int(tac)
			}
		}
		for i, field := range []string{FieldRSRP, FieldRSRQ, FieldRSSI, FieldSINR} {
			if len(p) > 13+i {
				if v, ok := atoi(p[13+i]); ok {
					fields[field] = Int(v)
				}
			}
		}
	case "GSM", "WCDMA":
		if len(p) < 7 {
			return fields
		}
		if _, ok := atoi(p[3]); ok {
			fields[FieldMCC] = String(p[3])
		}
		if _, ok := atoi(p[4]); ok {
			fields[FieldMNC] = String(p[4])
		}
		if lac, ok := hextoi(p[5]); ok {
			fields[FieldLAC] = Int(lac)
		}
		if cid, ok := hextoi(p[6]); ok {
			fields[FieldCellID] = Int(cid)
		}
	}
	return fields
}

// decodeNeighbourCells keeps the listing as an ordered list value, one
// entry per report line, each tagged with technology and intra/inter
// relation. Lines whose channel or cell identity does not parse are
// dropped.
func decodeNeighbourCells(lines []string) FieldMap {
	var cells []Cell
	for _, line := range lines {
		if !strings.Contains(line, "+QENG:") {
			continue
		}
		p := payload(line, "+QENG:")
		if len(p) < 4 || !strings.HasPrefix(p[0], "neighbourcell") {
			continue
		}
		c := Cell{Technology: p[1]}
		if words := strings.Fields(p[0]); len(words) == 2 {
			c.Relation = words[1]
		}
		earfcn, okE := atoi(p[2])
		pcid, okP := atoi(p[3])
		if !okE || !okP {
			continue
		}
		c.EARFCN = earfcn
		c.PCID = pcid
		for i, dst := range []*int{&c.RSRQ, &c.RSRP, &c.RSSI, &c.SINR} {
			if len(p) > 4+i {
				if v, ok := atoi(p[4+i]); ok {
					*dst = v
				}
			}
		}
		cells = append(cells, c)
	}
	if len(cells) == 0 {
		return nil
	}
	return FieldMap{FieldNeighbourCells: CellList(cells)}
}

// decodeQNETINFO keeps the report verbatim; the layout varies per query
// type and is only used for offline inspection.
func decodeQNETINFO(cmd string, lines []string) FieldMap {
	for _, line := range lines {
		if strings.Contains(line, "+QNETINFO:") {
			return FieldMap{FieldNetworkInfo: String(at.TrimPrefix(line, "+QNETINFO:"))}
		}
	}
	return nil
}

func decodeCCLK(cmd string, lines []string) FieldMap {
	v, ok := rawValue(lines, "+CCLK:")
	if !ok || v == "" {
		return nil
	}
	return FieldMap{FieldModemTime: String(v)}
}

func decodeQLTS(cmd string, lines []string) FieldMap {
	v, ok := rawValue(lines, "+QLTS:")
	if !ok || v == "" {
		return nil
	}
	return FieldMap{FieldNetworkTime: String(v)}
}

func decodeQGPS(cmd string, lines []string) FieldMap {
	p, ok := find(lines, "+QGPS:")
	if !ok {
		return nil
	}
	state, ok := atoi(p[0])
	if !ok {
		return nil
	}
	if state == 1 {
		return FieldMap{FieldGNSSPower: String("on")}
	}
	return FieldMap{FieldGNSSPower: String("off")}
}

// decodeNMEA extracts position, fix and speed from the NMEA sentences the
// modem relays. GGA supplies the fix; RMC supplies ground speed when its
// status flag reports a valid fix.
func decodeNMEA(cmd string, lines []string) FieldMap {
	fields := FieldMap{}
	for _, line := range lines {
		sentence := at.TrimPrefix(line, "+QGPSGNMEA:")
		if !strings.HasPrefix(sentence, "$") {
			continue
		}
		if i := strings.IndexByte(sentence, '*'); i >= 0 {
			sentence = sentence[:i]
		}
		p := strings.Split(sentence, ",")
		switch {
		case strings.HasSuffix(p[0], "GGA") && len(p) >= 10:
			if lat, ok := nmeaCoord(p[2], p[3]); ok {
				fields[FieldLatitude] = Float(lat)
			}
			if lon, ok := nmeaCoord(p[4], p[5]); ok {
				fields[FieldLongitude] = Float(lon)
			}
			if q, ok := atoi(p[6]); ok {
				fields[FieldFixQuality] = Int(q)
			}
			if sats, ok := atoi(p[7]); ok {
				fields[FieldSatellites] = Int(sats)
			}
			if alt, ok := atof(p[9]); ok {
				fields[FieldAltitude] = Float(alt)
			}
		case strings.HasSuffix(p[0], "RMC") && len(p) >= 8 && p[2] == "A":
			if lat, ok := nmeaCoord(p[3], p[4]); ok {
				fields[FieldLatitude] = Float(lat)
			}
			if lon, ok := nmeaCoord(p[5], p[6]); ok {
				fields[FieldLongitude] = Float(lon)
			}
			if knots, ok := atof(p[7]); ok {
				// Speed over ground arrives in knots; persist km/h.
				fields[FieldSpeed] = Float(knots * 1.852)
			}
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// nmeaCoord converts the NMEA ddmm.mmmm / dddmm.mmmm form plus hemisphere
// letter into signed decimal degrees.
func nmeaCoord(raw, hemisphere string) (float64, bool) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	degrees := float64(int(v / 100))
	minutes := v - degrees*100
	dec := degrees + minutes/60
	switch hemisphere {
	case "S", "W":
		dec = -dec
	case "N", "E":
	default:
		return 0, false
	}
	return dec, true
}

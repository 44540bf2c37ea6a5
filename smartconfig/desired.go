// Package smartconfig applies a desired modem configuration by diffing:
// each managed setting is queried, compared against the desired value,
// and written only when it differs. The point is to avoid rewriting
// settings the modem already holds, since its configuration store has
// finite write endurance.
package smartconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Desired is the desired-configuration document. Every field is a
// pointer: an absent setting is not managed and the engine never invents
// a default for it.
type Desired struct {
	Basic   Basic   `yaml:"basic"`
	Network Network `yaml:"network"`
	GNSS    GNSS    `yaml:"gnss"`
}

// Basic covers the error reporting and clock settings.
type Basic struct {
	ErrorReporting *int `yaml:"error_reporting"`
	TimeZoneUpdate *int `yaml:"time_zone_update"`
}

// Network covers PLMN and operator-scan settings.
type Network struct {
	ClearForbiddenPLMN     *bool `yaml:"clear_forbidden_plmn"`
	DisplayRSSIInScan      *int  `yaml:"display_rssi_in_scan"`
	DisplayBandwidthInScan *int  `yaml:"display_bandwidth_in_scan"`
}

// GNSS covers the positioning subsystem. These settings are applied as a
// batch with the subsystem powered off; Enabled gates the whole group.
type GNSS struct {
	Enabled          *bool   `yaml:"enabled"`
	OutputPort       *string `yaml:"output_port"`
	NMEASource       *int    `yaml:"nmea_source"`
	GPSNMEAType      *int    `yaml:"gps_nmea_type"`
	GlonassNMEAType  *int    `yaml:"glonass_nmea_type"`
	GalileoNMEAType  *int    `yaml:"galileo_nmea_type"`
	BeidouNMEAType   *int    `yaml:"beidou_nmea_type"`
	GSVExtendedNMEA  *int    `yaml:"gsv_extended_nmea"`
	GNSSConfig       *int    `yaml:"gnss_config"`
	AutoGPS          *int    `yaml:"auto_gps"`
	AGPSPositionMode *int    `yaml:"agps_position_mode"`
	FixFrequency     *int    `yaml:"fix_frequency"`
	OnePPS           *int    `yaml:"one_pps"`
	RawDataConfig    *string `yaml:"raw_data_config"`
}

// LoadDesired reads and parses the desired-configuration document.
func LoadDesired(path string) (*Desired, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read desired configuration: %w", err)
	}
	var d Desired
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse desired configuration %s: %w", path, err)
	}
	return &d, nil
}

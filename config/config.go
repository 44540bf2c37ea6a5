// Package config loads the application configuration: defaults, an
// optional YAML file overlay, and environment overrides, in that order.
// CLI flags are applied on top by the command layer.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Serial holds the transport settings.
type Serial struct {
	Port        string        `yaml:"port"`
	BaudRate    int           `yaml:"baud_rate"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

// Logging holds structured-log and transcript settings. Dir receives the
// transcript file alongside the telemetry output.
type Logging struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
}

// Execution holds the command pacing and retry settings.
type Execution struct {
	SettleDelay time.Duration `yaml:"settle_delay"`
	Retries     int           `yaml:"retries"`
}

// Output holds the telemetry sink locations.
type Output struct {
	CSVDir       string `yaml:"csv_dir"`
	CSVFilename  string `yaml:"csv_filename"`
	JSONDir      string `yaml:"json_dir"`
	JSONFilename string `yaml:"json_filename"`
}

// Database is parsed and validated but not consumed by any write path;
// it reserves the schema for a future persistence backend.
type Database struct {
	Enabled bool   `yaml:"enabled"`
	Type    string `yaml:"type"`
	Path    string `yaml:"path"`
}

// GPSD points at an optional gpsd daemon used as a location source.
type GPSD struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// Intervals are the three polling cadences.
type Intervals struct {
	Fast   time.Duration `yaml:"fast"`
	Medium time.Duration `yaml:"medium"`
	Slow   time.Duration `yaml:"slow"`
}

// Identity policies for the device verification step.
const (
	IdentityWarn   = "warn"   // log a mismatch and continue
	IdentityStrict = "strict" // a mismatch is fatal
)

// Identity configures the device verification step. The allow-lists are
// matched case-insensitively as substrings of the reported values.
type Identity struct {
	Policy        string   `yaml:"policy"`
	Manufacturers []string `yaml:"manufacturers"`
	Models        []string `yaml:"models"`
}

// Groups are the named command sets. Membership is configuration data;
// the scheduler never hardcodes command text.
type Groups struct {
	Setup         []string `yaml:"setup"`
	ModemInfo     []string `yaml:"modem_info"`
	GNSSInfo      []string `yaml:"gnss_info"`
	NetworkConfig []string `yaml:"network_config"`
	FastLoop      []string `yaml:"fast_loop"`
	MediumLoop    []string `yaml:"medium_loop"`
	SlowLoop      []string `yaml:"slow_loop"`
}

// Config is the full application configuration.
type Config struct {
	Serial          Serial    `yaml:"serial"`
	Logging         Logging   `yaml:"logging"`
	Execution       Execution `yaml:"execution"`
	Output          Output    `yaml:"output"`
	Database        Database  `yaml:"database"`
	GPSD            GPSD      `yaml:"gpsd"`
	Intervals       Intervals `yaml:"intervals"`
	Identity        Identity  `yaml:"identity"`
	Groups          Groups    `yaml:"groups"`
	SmartConfigFile string    `yaml:"smart_config_file"`
}

// Default returns the built-in configuration, including the full Quectel
// EG25 command vocabulary.
func Default() *Config {
	return &Config{
		Serial: Serial{
			Port:        "/dev/ttyUSB0",
			BaudRate:    115200,
			ReadTimeout: 200 * time.Millisecond,
		},
		Logging: Logging{
			Level: "info",
			Dir:   "output",
		},
		Execution: Execution{
			SettleDelay: 500 * time.Millisecond,
			Retries:     3,
		},
		Output: Output{
			CSVDir:       "output",
			CSVFilename:  "cell_data.csv",
			JSONDir:      "output",
			JSONFilename: "modem_info.json",
		},
		Database: Database{
			Enabled: false,
			Type:    "sqlite",
			Path:    "output/cell_data.sqlite",
		},
		GPSD: GPSD{
			Enabled: false,
			Host:    "localhost",
			Port:    2947,
		},
		Intervals: Intervals{
			Fast:   5 * time.Second,
			Medium: 30 * time.Second,
			Slow:   300 * time.Second,
		},
		Identity: Identity{
			Policy:        IdentityWarn,
			Manufacturers: []string{"Quectel"},
			Models:        []string{"EG25"},
		},
		Groups: Groups{
			Setup: []string{
				"AT+CMEE=2",
				"AT+CTZU=3",
				`AT+QFPLMNCFG="Delete","all"`,
				`AT+QOPSCFG="displayrssi",1`,
				`AT+QOPSCFG="displaybw",1`,
				"AT+QGPSEND",
				`AT+QGPSCFG="outport","usbnmea"`,
				`AT+QGPSCFG="nmeasrc",1`,
				`AT+QGPSCFG="gpsnmeatype",31`,
				`AT+QGPSCFG="glonassnmeatype",7`,
				`AT+QGPSCFG="galileonmeatype",1`,
				`AT+QGPSCFG="beidounmeatype",3`,
				`AT+QGPSCFG="gsvextnmeatype",1`,
				`AT+QGPSCFG="gnssconfig",1`,
				`AT+QGPSCFG="autogps",1`,
				`AT+QGPSCFG="agpsposmode",0`,
				`AT+QGPSCFG="fixfreq",10`,
				`AT+QGPSCFG="1pps",1`,
				`AT+QGPSCFG="gnssrawdata",31,0`,
				"AT+QGPS=1",
			},
			ModemInfo: []string{
				"AT+CGMI",
				"AT+CGMM",
				"AT+CGMR",
				"AT+CGSN",
				"AT+CPIN?",
				"AT+QINISTAT",
				"AT+QCCID",
				"AT+CIMI",
				`AT+QMBNCFG="List"`,
			},
			GNSSInfo: []string{
				"AT+QGPS?",
				`AT+QGPSCFG="outport"`,
				`AT+QGPSCFG="nmeasrc"`,
				`AT+QGPSCFG="gpsnmeatype"`,
				`AT+QGPSCFG="glonassnmeatype"`,
				`AT+QGPSCFG="galileonmeatype"`,
				`AT+QGPSCFG="beidounmeatype"`,
				`AT+QGPSCFG="gsvextnmeatype"`,
				`AT+QGPSCFG="gnssconfig"`,
				`AT+QGPSCFG="autogps"`,
				`AT+QGPSCFG="agpsposmode"`,
				`AT+QGPSCFG="fixfreq"`,
				`AT+QGPSCFG="1pps"`,
				`AT+QGPSCFG="gnssrawdata"`,
			},
			NetworkConfig: []string{
				"AT+CTZU?",
				`AT+QCFG="band"`,
				`AT+QCFG="NWSCANMODE"`,
				`AT+QCFG="NWSCANMODEEX"`,
				`AT+QOPSCFG="scancontrol"`,
				`AT+QNWLOCK="common/lte"`,
				`AT+QNWLOCK="common/4g"`,
				`AT+QFPLMNCFG="list"`,
				"AT+CIND=?",
			},
			FastLoop: []string{
				"AT+CSQ",
				"AT+CREG?",
				"AT+CGREG?",
				"AT+CEREG?",
				"AT+QCSQ",
				"AT+QNETINFO=2,1",
				"AT+QNWINFO",
				"AT+QSPN",
				"AT+CIND?",
				`AT+QENG="servingcell"`,
			},
			MediumLoop: []string{
				"AT+CFUN?",
				"AT+CGATT?",
				"AT+COPS?",
				"AT+QNETINFO=2,4",
				`AT+QENG="neighbourcell"`,
			},
			SlowLoop: []string{
				"AT+QNETINFO=2,2",
				"AT+CCLK?",
				"AT+QLTS",
				`AT+QGPSGNMEA="GGA"`,
				`AT+QGPSGNMEA="RMC"`,
				`AT+QGPSGNMEA="GSV"`,
				`AT+QGPSGNMEA="GSA"`,
				`AT+QGPSGNMEA="VTG"`,
				`AT+QGPSGNMEA="GNS"`,
				`AT+QGPSCFG="estimation_error"`,
			},
		},
		SmartConfigFile: "modem_config.yaml",
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// path is non-empty), and environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays CWD_-prefixed environment variables.
func (c *Config) applyEnv() {
	envString("CWD_PORT", &c.Serial.Port)
	envInt("CWD_BAUDRATE", &c.Serial.BaudRate)
	envDuration("CWD_READ_TIMEOUT", &c.Serial.ReadTimeout)
	envString("CWD_LOG_LEVEL", &c.Logging.Level)
	envString("CWD_LOG_DIR", &c.Logging.Dir)
	envDuration("CWD_SETTLE_DELAY", &c.Execution.SettleDelay)
	envInt("CWD_RETRIES", &c.Execution.Retries)
	envString("CWD_CSV_DIR", &c.Output.CSVDir)
	envString("CWD_CSV_FILENAME", &c.Output.CSVFilename)
	envString("CWD_JSON_DIR", &c.Output.JSONDir)
	envString("CWD_JSON_FILENAME", &c.Output.JSONFilename)
	envString("CWD_GPSD_HOST", &c.GPSD.Host)
	envInt("CWD_GPSD_PORT", &c.GPSD.Port)
	envDuration("CWD_FAST_INTERVAL", &c.Intervals.Fast)
	envDuration("CWD_MEDIUM_INTERVAL", &c.Intervals.Medium)
	envDuration("CWD_SLOW_INTERVAL", &c.Intervals.Slow)
	envString("CWD_IDENTITY_POLICY", &c.Identity.Policy)
	envString("CWD_SMART_CONFIG_FILE", &c.SmartConfigFile)
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envDuration(key string, dst *time.Duration) {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

// Validate rejects values the rest of the system cannot work with.
func (c *Config) Validate() error {
	if c.Serial.Port == "" {
		return fmt.Errorf("config: serial port is required")
	}
	if c.Serial.BaudRate <= 0 {
		return fmt.Errorf("config: baud rate must be positive, got %d", c.Serial.BaudRate)
	}
	if c.Execution.Retries < 0 {
		return fmt.Errorf("config: retries must not be negative, got %d", c.Execution.Retries)
	}
	if c.Intervals.Fast <= 0 || c.Intervals.Medium <= 0 || c.Intervals.Slow <= 0 {
		return fmt.Errorf("config: polling intervals must be positive")
	}
	switch c.Identity.Policy {
	case IdentityWarn, IdentityStrict:
	default:
		return fmt.Errorf("config: identity policy must be %q or %q, got %q",
			IdentityWarn, IdentityStrict, c.Identity.Policy)
	}
	if c.Database.Enabled && c.Database.Type != "sqlite" {
		return fmt.Errorf("config: unsupported database type %q", c.Database.Type)
	}
	return nil
}

package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker           string
	MQTTClientIDProducer string
	MQTTClientIDConsole  string
	MQTTClientIDWeb      string
	MQTTClientIDDisplay  string

	// Topics
	TopicAccel  string
	TopicGyro   string
	TopicGPS    string
	TopicESFRaw string
	TopicIMU    string
	TopicTemp   string
	TopicPose   string
	TopicVector string // prefix, the DR kind name is appended: "<prefix>/euler_fused"
	TopicStats  string

	// Serial ports. An empty UBXSerialPort means the binary frames arrive
	// interleaved on the NMEA port.
	NMEASerialPort string
	NMEABaudRate   int
	UBXSerialPort  string
	UBXBaudRate    int

	// Decoders
	NMEAMaxFields    int
	NMEAMaxFieldSize int
	UBXMaxPayload    int
	UBXCycleChannels int
	UBXGyroScale     float64
	UBXPayloadResync bool

	// Timing and metrics
	StatsInterval int    // milliseconds
	MetricsAddr   string // empty disables the Prometheus endpoint

	// Web Server
	WebServerPort int

	// Display
	DisplayI2CBus         string // empty selects the first bus
	DisplayUpdateInterval int    // milliseconds
	DisplayContent        string // what to show: "imu", "gps", "temp", "stats"
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: only reachable through InitGlobal and Get.
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: RWMutex protects concurrent access. Write lock for initialization,
//     read lock for Get().
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns a Config with every optional value filled in.
func Default() *Config {
	return &Config{
		MQTTClientIDProducer: "dr-producer",
		MQTTClientIDConsole:  "dr-console",
		MQTTClientIDWeb:      "dr-web",
		MQTTClientIDDisplay:  "dr-display",

		TopicAccel:  "inertial/nmea/accel",
		TopicGyro:   "inertial/nmea/gyro",
		TopicGPS:    "inertial/gps",
		TopicESFRaw: "inertial/ubx/esf_raw",
		TopicIMU:    "inertial/imu",
		TopicTemp:   "inertial/temp",
		TopicPose:   "inertial/pose",
		TopicVector: "inertial/dr",
		TopicStats:  "inertial/stats",

		NMEABaudRate: 115200,
		UBXBaudRate:  115200,

		NMEAMaxFields:    16,
		NMEAMaxFieldSize: 30,
		UBXMaxPayload:    1024,
		UBXCycleChannels: 7,
		UBXGyroScale:     1.0 / 4026,
		UBXPayloadResync: true,

		StatsInterval: 1000,
		MetricsAddr:   ":9100",

		WebServerPort: 8080,

		DisplayUpdateInterval: 500,
		DisplayContent:        "imu",
	}
}

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := Default()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Validate required fields
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// intInRange parses value and checks lo <= v <= hi.
func intInRange(key, value string, lo, hi int) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if v < lo || v > hi {
		return 0, fmt.Errorf("%s must be %d-%d, got %d", key, lo, hi, v)
	}
	return v, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value

	// Topics
	case "TOPIC_ACCEL":
		c.TopicAccel = value
	case "TOPIC_GYRO":
		c.TopicGyro = value
	case "TOPIC_GPS":
		c.TopicGPS = value
	case "TOPIC_ESF_RAW":
		c.TopicESFRaw = value
	case "TOPIC_IMU":
		c.TopicIMU = value
	case "TOPIC_TEMP":
		c.TopicTemp = value
	case "TOPIC_POSE":
		c.TopicPose = value
	case "TOPIC_VECTOR":
		c.TopicVector = strings.TrimSuffix(value, "/")
	case "TOPIC_STATS":
		c.TopicStats = value

	// Serial ports
	case "NMEA_SERIAL_PORT":
		c.NMEASerialPort = value
	case "NMEA_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid NMEA_BAUD_RATE %q: %w", value, err)
		}
		c.NMEABaudRate = rate
	case "UBX_SERIAL_PORT":
		c.UBXSerialPort = value
	case "UBX_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid UBX_BAUD_RATE %q: %w", value, err)
		}
		c.UBXBaudRate = rate

	// Decoders
	case "NMEA_MAX_FIELDS":
		c.NMEAMaxFields, err = intInRange(key, value, 1, 64)
	case "NMEA_MAX_FIELD_SIZE":
		c.NMEAMaxFieldSize, err = intInRange(key, value, 1, 256)
	case "UBX_MAX_PAYLOAD":
		c.UBXMaxPayload, err = intInRange(key, value, 1, 65535)
	case "UBX_CYCLE_CHANNELS":
		c.UBXCycleChannels, err = intInRange(key, value, 1, 7)
	case "UBX_GYRO_SCALE":
		scale, perr := strconv.ParseFloat(value, 64)
		if perr != nil {
			return fmt.Errorf("invalid UBX_GYRO_SCALE %q: %w", value, perr)
		}
		if scale <= 0 {
			return fmt.Errorf("UBX_GYRO_SCALE must be positive, got %g", scale)
		}
		c.UBXGyroScale = scale
	case "UBX_PAYLOAD_RESYNC":
		on, perr := strconv.ParseBool(value)
		if perr != nil {
			return fmt.Errorf("invalid UBX_PAYLOAD_RESYNC %q: %w", value, perr)
		}
		c.UBXPayloadResync = on

	// Timing and metrics
	case "STATS_INTERVAL":
		c.StatsInterval, err = intInRange(key, value, 10, 3600000)
	case "METRICS_ADDR":
		c.MetricsAddr = value

	// Web Server
	case "WEB_SERVER_PORT":
		c.WebServerPort, err = intInRange(key, value, 1, 65535)

	// Display
	case "DISPLAY_I2C_BUS":
		c.DisplayI2CBus = value
	case "DISPLAY_UPDATE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_UPDATE_INTERVAL %q: %w", value, err)
		}
		c.DisplayUpdateInterval = interval
	case "DISPLAY_CONTENT":
		switch value {
		case "imu", "gps", "temp", "stats":
			c.DisplayContent = value
		default:
			return fmt.Errorf("DISPLAY_CONTENT must be one of imu, gps, temp, stats, got %q", value)
		}

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return err
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.NMEABaudRate <= 0 {
		return fmt.Errorf("NMEA_BAUD_RATE must be positive")
	}
	if c.UBXSerialPort != "" && c.UBXBaudRate <= 0 {
		return fmt.Errorf("UBX_BAUD_RATE must be positive when UBX_SERIAL_PORT is set")
	}
	if c.DisplayUpdateInterval <= 0 {
		return fmt.Errorf("DISPLAY_UPDATE_INTERVAL must be positive")
	}
	return nil
}

// ValidateMQTT checks the values every MQTT client needs.
func (c *Config) ValidateMQTT() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	return nil
}

// ValidateProducer checks the values only the producer needs.
func (c *Config) ValidateProducer() error {
	if err := c.ValidateMQTT(); err != nil {
		return err
	}
	if c.NMEASerialPort == "" {
		return fmt.Errorf("NMEA_SERIAL_PORT is required")
	}
	if c.UBXSerialPort != "" && c.UBXSerialPort == c.NMEASerialPort {
		return fmt.Errorf("UBX_SERIAL_PORT %q duplicates NMEA_SERIAL_PORT; leave it empty for a shared stream", c.UBXSerialPort)
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}

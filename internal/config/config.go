package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker           string
	MQTTClientIDProducer string
	MQTTClientIDMock     string
	MQTTClientIDWeb      string
	MQTTClientIDDisplay  string
	MQTTClientIDConsole  string

	// Topics
	TopicGNSSStatus string
	TopicGNSSFix    string

	// GNSS receiver
	GPSSerialPort string
	GPSBaudRate   int
	GPSUERE       float64 // meters per unit of HDOP

	// Mock feed
	MockInterval int // milliseconds

	// Web Server
	WebServerPort int
	PlotWidth     int
	PlotHeight    int
	PNGCacheSize  int

	// Display
	DisplayI2CBus string // empty selects the first bus
	DisplayWidth  int
	DisplayHeight int

	// Preferences and logging
	PrefsFile string
	LogFile   string // empty logs to stderr
}

// Defaults returns the configuration used for keys the file leaves out.
func Defaults() *Config {
	return &Config{
		MQTTBroker:           "tcp://localhost:1883",
		MQTTClientIDProducer: "gnss-producer",
		MQTTClientIDMock:     "gnss-mock-producer",
		MQTTClientIDWeb:      "skyplot-web",
		MQTTClientIDDisplay:  "skyplot-display",
		MQTTClientIDConsole:  "skyplot-console",

		TopicGNSSStatus: "gnss/status",
		TopicGNSSFix:    "gnss/fix",

		GPSSerialPort: "/dev/serial0",
		GPSBaudRate:   9600,
		GPSUERE:       4.0,

		MockInterval: 1000,

		WebServerPort: 8080,
		PlotWidth:     800,
		PlotHeight:    800,
		PNGCacheSize:  32,

		DisplayWidth:  128,
		DisplayHeight: 64,

		PrefsFile: "skyplot_prefs.yaml",
	}
}

// MockPeriod is MockInterval as a duration.
func (c *Config) MockPeriod() time.Duration {
	return time.Duration(c.MockInterval) * time.Millisecond
}

// Package-level unexported variables for the singleton:
//   - globalConfig is only reachable through Get, so nothing outside this
//     package can swap it without the lock.
//   - configOnce makes InitGlobal run once, however often it is called.
//   - configMu: write lock while initializing, read lock in Get.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file on top of Defaults and returns it.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := Defaults()
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
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_MOCK":
		c.MQTTClientIDMock = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value

	// Topics
	case "TOPIC_GNSS_STATUS":
		c.TopicGNSSStatus = value
	case "TOPIC_GNSS_FIX":
		c.TopicGNSSFix = value

	// GNSS receiver
	case "GPS_SERIAL_PORT":
		c.GPSSerialPort = value
	case "GPS_BAUD_RATE":
		return setPositiveInt(&c.GPSBaudRate, key, value)
	case "GPS_UERE_METERS":
		uere, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, value, err)
		}
		if uere <= 0 {
			return fmt.Errorf("%s must be positive, got %v", key, uere)
		}
		c.GPSUERE = uere

	// Mock feed
	case "MOCK_INTERVAL":
		return setPositiveInt(&c.MockInterval, key, value)

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		if port < 1 || port > 65535 {
			return fmt.Errorf("WEB_SERVER_PORT must be 1-65535, got %d", port)
		}
		c.WebServerPort = port
	case "PLOT_WIDTH":
		return setPositiveInt(&c.PlotWidth, key, value)
	case "PLOT_HEIGHT":
		return setPositiveInt(&c.PlotHeight, key, value)
	case "PNG_CACHE_SIZE":
		return setPositiveInt(&c.PNGCacheSize, key, value)

	// Display
	case "DISPLAY_I2C_BUS":
		c.DisplayI2CBus = value
	case "DISPLAY_WIDTH":
		return setPositiveInt(&c.DisplayWidth, key, value)
	case "DISPLAY_HEIGHT":
		return setPositiveInt(&c.DisplayHeight, key, value)

	// Preferences and logging
	case "PREFS_FILE":
		c.PrefsFile = value
	case "LOG_FILE":
		c.LogFile = value

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

func setPositiveInt(dst *int, key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if n <= 0 {
		return fmt.Errorf("%s must be positive, got %d", key, n)
	}
	*dst = n
	return nil
}

// validate checks that required fields did not end up empty.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.TopicGNSSStatus == "" {
		return fmt.Errorf("TOPIC_GNSS_STATUS is required")
	}
	if c.TopicGNSSFix == "" {
		return fmt.Errorf("TOPIC_GNSS_FIX is required")
	}
	if c.TopicGNSSStatus == c.TopicGNSSFix {
		return fmt.Errorf("TOPIC_GNSS_STATUS and TOPIC_GNSS_FIX must differ")
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Only the first call has any effect; later calls return its error.
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

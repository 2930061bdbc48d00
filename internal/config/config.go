// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration values.
type Config struct {
	// Sensor
	SensorDriver        string // "bme280", "serial" or "mock"
	BME280I2CBus        string
	BME280I2CAddr       uint16
	SensorSerialPort    string
	SensorSerialBaud    int
	SensorReadTimeoutMS int

	// Display
	DisplayDriver    string // "ssd1351" or "none"
	DisplaySPIDevice string
	DisplayDCPin     string
	DisplayRSTPin    string
	DisplaySPIMHz    int

	// Timing
	SampleIntervalMS int // milliseconds between sensor reads
	PhaseIntervalMS  int // milliseconds per anti-burn-in phase

	// Web Server
	WebServerPort int

	// Startup
	StartupTimeoutMS  int   // 0 retries forever
	ClockSyncMinEpoch int64 // wall clock below this is treated as unsynchronised

	// MQTT (empty broker disables publishing)
	MQTTBroker          string
	MQTTClientIDMonitor string
	MQTTClientIDConsole string
	TopicSnapshot       string
}

// Default returns the compiled-in configuration. Every key read from a
// config file overrides one of these values.
func Default() *Config {
	return &Config{
		SensorDriver:        "bme280",
		BME280I2CBus:        "",
		BME280I2CAddr:       0x76,
		SensorSerialPort:    "/dev/ttyUSB0",
		SensorSerialBaud:    115200,
		SensorReadTimeoutMS: 500,

		DisplayDriver:    "ssd1351",
		DisplaySPIDevice: "/dev/spidev0.0",
		DisplayDCPin:     "GPIO24",
		DisplayRSTPin:    "GPIO25",
		DisplaySPIMHz:    8,

		SampleIntervalMS: 2000,
		PhaseIntervalMS:  60000,

		WebServerPort: 80,

		StartupTimeoutMS:  0,
		ClockSyncMinEpoch: 100000,

		MQTTBroker:          "",
		MQTTClientIDMonitor: "climate-panel-monitor",
		MQTTClientIDConsole: "climate-panel-console",
		TopicSnapshot:       "climate/snapshot",
	}
}

var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file on top of Default(). An empty path
// returns the defaults unchanged.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		cfg := Default()
		return cfg, cfg.validate()
	}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads KEY=VALUE lines from r on top of Default().
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

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

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// Sensor
	case "SENSOR_DRIVER":
		switch value {
		case "bme280", "serial", "mock":
			c.SensorDriver = value
		default:
			return fmt.Errorf("SENSOR_DRIVER must be bme280, serial or mock, got %q", value)
		}
	case "BME280_I2C_BUS":
		c.BME280I2CBus = value
	case "BME280_I2C_ADDR":
		addr, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid BME280_I2C_ADDR %q: %w", value, err)
		}
		if addr != 0x76 && addr != 0x77 {
			return fmt.Errorf("BME280_I2C_ADDR must be 0x76 or 0x77, got 0x%02X", addr)
		}
		c.BME280I2CAddr = uint16(addr)
	case "SENSOR_SERIAL_PORT":
		c.SensorSerialPort = value
	case "SENSOR_SERIAL_BAUD":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SENSOR_SERIAL_BAUD %q: %w", value, err)
		}
		if rate <= 0 {
			return fmt.Errorf("SENSOR_SERIAL_BAUD must be positive, got %d", rate)
		}
		c.SensorSerialBaud = rate
	case "SENSOR_READ_TIMEOUT_MS":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SENSOR_READ_TIMEOUT_MS %q: %w", value, err)
		}
		c.SensorReadTimeoutMS = ms

	// Display
	case "DISPLAY_DRIVER":
		switch value {
		case "ssd1351", "none":
			c.DisplayDriver = value
		default:
			return fmt.Errorf("DISPLAY_DRIVER must be ssd1351 or none, got %q", value)
		}
	case "DISPLAY_SPI_DEVICE":
		c.DisplaySPIDevice = value
	case "DISPLAY_DC_PIN":
		c.DisplayDCPin = value
	case "DISPLAY_RST_PIN":
		c.DisplayRSTPin = value
	case "DISPLAY_SPI_MHZ":
		mhz, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_SPI_MHZ %q: %w", value, err)
		}
		if mhz < 1 || mhz > 20 {
			return fmt.Errorf("DISPLAY_SPI_MHZ must be 1-20, got %d", mhz)
		}
		c.DisplaySPIMHz = mhz

	// Timing
	case "SAMPLE_INTERVAL_MS":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SAMPLE_INTERVAL_MS %q: %w", value, err)
		}
		c.SampleIntervalMS = interval
	case "PHASE_INTERVAL_MS":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid PHASE_INTERVAL_MS %q: %w", value, err)
		}
		c.PhaseIntervalMS = interval

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

	// Startup
	case "STARTUP_TIMEOUT_MS":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid STARTUP_TIMEOUT_MS %q: %w", value, err)
		}
		if ms < 0 {
			return fmt.Errorf("STARTUP_TIMEOUT_MS must be >= 0, got %d", ms)
		}
		c.StartupTimeoutMS = ms
	case "CLOCK_SYNC_MIN_EPOCH":
		epoch, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid CLOCK_SYNC_MIN_EPOCH %q: %w", value, err)
		}
		c.ClockSyncMinEpoch = epoch

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_MONITOR":
		c.MQTTClientIDMonitor = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "TOPIC_SNAPSHOT":
		c.TopicSnapshot = value

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.SampleIntervalMS <= 0 {
		return fmt.Errorf("SAMPLE_INTERVAL_MS must be positive")
	}
	if c.PhaseIntervalMS <= 0 {
		return fmt.Errorf("PHASE_INTERVAL_MS must be positive")
	}
	if c.SensorReadTimeoutMS <= 0 {
		return fmt.Errorf("SENSOR_READ_TIMEOUT_MS must be positive")
	}
	if c.SensorDriver == "serial" && c.SensorSerialPort == "" {
		return fmt.Errorf("SENSOR_SERIAL_PORT is required for the serial driver")
	}
	if c.DisplayDriver == "ssd1351" && (c.DisplaySPIDevice == "" || c.DisplayDCPin == "") {
		return fmt.Errorf("DISPLAY_SPI_DEVICE and DISPLAY_DC_PIN are required for the ssd1351 driver")
	}
	if c.MQTTBroker != "" && c.TopicSnapshot == "" {
		return fmt.Errorf("TOPIC_SNAPSHOT is required when MQTT_BROKER is set")
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Only the first call has any effect.
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

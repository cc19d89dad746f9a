// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"rhythm/internal/log"
)

// DefaultPath is searched when LoadConfig is given an empty path.
const DefaultPath = "config.yaml"

// LoadConfig loads configuration from the YAML file at path. An empty path
// uses DefaultPath when it exists and the built-in defaults otherwise.
// Environment overrides are applied after the file. Invalid values are
// repaired by Sanitize and reported as warnings; only I/O and parse failures
// are errors.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat(DefaultPath); err != nil {
			cfg.applyEnvOverrides()
			cfg.logWarnings()
			return cfg, nil
		}
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvOverrides()
	cfg.logWarnings()
	return cfg, nil
}

func (c *Config) logWarnings() {
	for _, w := range c.Sanitize() {
		log.Warnf("configuration: %s", w)
	}
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return out, nil
}

// applyEnvOverrides applies ENV_* variables on top of the loaded values.
// Unparseable values are ignored with a warning.
func (c *Config) applyEnvOverrides() {
	envBool("ENV_DEBUG", &c.Debug)
	envString("ENV_LOG_LEVEL", &c.LogLevel)

	// ENV_AUDIO_{...}
	envInt("ENV_AUDIO_DEVICE", &c.Audio.InputDevice)
	envString("ENV_AUDIO_FFT_WINDOW", &c.Audio.FFTWindow)
	envFloat("ENV_AUDIO_GATE_THRESHOLD", &c.Audio.GateThreshold)

	// ENV_DETECTION_{...}
	envFloat("ENV_DETECTION_SENSITIVITY", &c.Detection.Sensitivity)

	// ENV_SESSION_{...}
	envFloat("ENV_SESSION_START_DELAY", &c.Session.StartDelay)

	// ENV_WS_{...} and ENV_UDP_{...} configure the transport layer.
	envBool("ENV_WS_ENABLED", &c.Transport.WebSocketEnabled)
	envString("ENV_WS_ADDRESS", &c.Transport.WebSocketAddress)
	envBool("ENV_UDP_ENABLED", &c.Transport.UDPEnabled)
	envString("ENV_UDP_TARGET_ADDRESS", &c.Transport.UDPTargetAddress)
	envDuration("ENV_UDP_SEND_INTERVAL", &c.Transport.UDPSendInterval)
}

func envString(key string, dst *string) {
	if val, ok := os.LookupEnv(key); ok {
		*dst = val
		log.Infof("configuration: overriding %s from env: %s", key, val)
	}
}

func envBool(key string, dst *bool) {
	envParse(key, dst, strconv.ParseBool)
}

func envInt(key string, dst *int) {
	envParse(key, dst, strconv.Atoi)
}

func envFloat(key string, dst *float64) {
	envParse(key, dst, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}

func envDuration(key string, dst *time.Duration) {
	envParse(key, dst, time.ParseDuration)
}

func envParse[T any](key string, dst *T, parse func(string) (T, error)) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	v, err := parse(val)
	if err != nil {
		log.Warnf("configuration: ignoring %s=%q: %v", key, val, err)
		return
	}
	*dst = v
	log.Infof("configuration: overriding %s from env: %v", key, v)
}

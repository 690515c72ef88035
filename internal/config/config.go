package config

import (
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/leaklab/internal/circuit"
	"github.com/san-kum/leaklab/internal/ledger"
)

const (
	DefaultMaxVoltage    = 100.0
	DefaultCapacitance   = 1.0
	DefaultResistance    = 5.0
	DefaultChargeRate    = 15.0
	DefaultFrameRate     = 60
	DefaultStopwatchTick = 100 * time.Millisecond
	DefaultModel         = "gemini-2.5-flash"
	DefaultAPIKeyEnv     = "API_KEY"
)

type Config struct {
	Circuit       CircuitConfig   `yaml:"circuit"`
	Integrator    string          `yaml:"integrator" validate:"oneof=euler exact"`
	FrameRate     int             `yaml:"frame_rate" validate:"gte=1,lte=240"`
	StopwatchTick time.Duration   `yaml:"stopwatch_tick" validate:"gt=0"`
	Ledger        LedgerConfig    `yaml:"ledger"`
	Trace         TraceConfig     `yaml:"trace"`
	Assistant     AssistantConfig `yaml:"assistant"`
	Log           LogConfig       `yaml:"log"`
	Server        ServerConfig    `yaml:"server"`
}

type CircuitConfig struct {
	// Battery deflection, in galvanometer divisions
	MaxVoltage float64 `yaml:"max_voltage" validate:"gt=0"`
	// Known condenser capacitance, µF
	Capacitance float64 `yaml:"capacitance" validate:"gt=0"`
	// The unknown high resistance, MΩ
	Resistance float64 `yaml:"resistance" validate:"gt=0"`
	// Rate of approach to the battery voltage while K1 is closed, 1/s
	ChargeRate float64 `yaml:"charge_rate" validate:"gt=0"`
}

type LedgerConfig struct {
	TimeResolution       float64 `yaml:"time_resolution" validate:"gte=0"`
	DeflectionResolution float64 `yaml:"deflection_resolution" validate:"gte=0"`
}

type TraceConfig struct {
	Capacity int     `yaml:"capacity" validate:"gte=1"`
	Every    float64 `yaml:"every" validate:"gte=0"`
}

type AssistantConfig struct {
	// googleai or openai
	Provider string `yaml:"provider" validate:"oneof=googleai openai"`
	Model    string `yaml:"model" validate:"required"`
	// Base URL for OpenAI compatible endpoints
	BaseURL string `yaml:"base_url"`
	// Environment variable holding the credential
	APIKeyEnv   string        `yaml:"api_key_env" validate:"required"`
	Timeout     time.Duration `yaml:"timeout" validate:"gt=0"`
	Temperature float64       `yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int           `yaml:"max_tokens" validate:"gte=0"`
	// Include the hidden resistance in the assistant context so it can
	// check the student's work
	ShareHiddenResistance bool `yaml:"share_hidden_resistance"`

	APIKey string `yaml:"-"`
}

type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
	File  string `yaml:"file"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" validate:"required"`
}

func DefaultConfig() *Config {
	return &Config{
		Circuit: CircuitConfig{
			MaxVoltage:  DefaultMaxVoltage,
			Capacitance: DefaultCapacitance,
			Resistance:  DefaultResistance,
			ChargeRate:  DefaultChargeRate,
		},
		Integrator:    "euler",
		FrameRate:     DefaultFrameRate,
		StopwatchTick: DefaultStopwatchTick,
		Ledger: LedgerConfig{
			TimeResolution:       0.01,
			DeflectionResolution: 0.1,
		},
		Trace: TraceConfig{
			Capacity: 600,
			Every:    0.05,
		},
		Assistant: AssistantConfig{
			Provider:              "googleai",
			Model:                 DefaultModel,
			APIKeyEnv:             DefaultAPIKeyEnv,
			Timeout:               30 * time.Second,
			Temperature:           0.7,
			ShareHiddenResistance: true,
		},
		Log: LogConfig{
			Level: "info",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.In("config").With("path", path).Wrapf(err, "failed to read config file")
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, oops.In("config").With("path", path).Wrapf(err, "failed to parse YAML config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return oops.In("config").Wrapf(err, "failed to encode config")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return oops.In("config").With("path", path).Wrapf(err, "failed to write config file")
	}
	return nil
}

func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return oops.In("config").Wrapf(err, "failed to validate config")
	}
	return nil
}

// LoadEnv reads the assistant credential from the environment, loading the
// given .env files first when they exist. A missing credential is not an
// error: the assistant falls back to a fixed reply.
func (c *Config) LoadEnv(files ...string) {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) > 0 {
		_ = godotenv.Load(existing...)
	}
	c.Assistant.APIKey = strings.TrimSpace(os.Getenv(c.Assistant.APIKeyEnv))
}

func (c *Config) Constants() circuit.Constants {
	return circuit.Constants{
		MaxVoltage:  c.Circuit.MaxVoltage,
		Capacitance: c.Circuit.Capacitance,
		Resistance:  c.Circuit.Resistance,
		ChargeRate:  c.Circuit.ChargeRate,
	}
}

func (c *Config) Resolution() ledger.Resolution {
	return ledger.Resolution{
		Time:       c.Ledger.TimeResolution,
		Deflection: c.Ledger.DeflectionResolution,
	}
}

func (c *Config) FrameInterval() time.Duration {
	if c.FrameRate <= 0 {
		return time.Second / DefaultFrameRate
	}
	return time.Second / time.Duration(c.FrameRate)
}

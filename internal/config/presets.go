package config

// Presets are bench setups for the experiment. Each only overrides the
// circuit; everything else keeps its defaults.
var Presets = map[string]CircuitConfig{
	"classic": {
		MaxVoltage: 100, Capacitance: 1.0, Resistance: 5.0, ChargeRate: 15.0,
	},
	"slow-leak": {
		MaxVoltage: 100, Capacitance: 1.0, Resistance: 20.0, ChargeRate: 15.0,
	},
	"fast-leak": {
		MaxVoltage: 100, Capacitance: 0.5, Resistance: 2.0, ChargeRate: 15.0,
	},
	"big-condenser": {
		MaxVoltage: 100, Capacitance: 4.0, Resistance: 2.5, ChargeRate: 8.0,
	},
	"weak-battery": {
		MaxVoltage: 40, Capacitance: 1.0, Resistance: 5.0, ChargeRate: 15.0,
	},
}

func GetPreset(name string) *Config {
	circuit, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Circuit = circuit
	return cfg
}

// ApplyPreset swaps in the preset circuit, leaving the rest of cfg alone.
func (c *Config) ApplyPreset(name string) bool {
	circuit, ok := Presets[name]
	if !ok {
		return false
	}
	c.Circuit = circuit
	return true
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}

package config

import (
	"sort"

	"github.com/san-kum/rigid2d/internal/solver"
)

func preset(scene string, duration float64, params map[string]float64) *Config {
	return &Config{
		Scene:       scene,
		Duration:    duration,
		RecordEvery: DefaultRecordEvery,
		World:       WorldConfig{Params: solver.DefaultParams()},
		Params:      params,
	}
}

var Presets = map[string]map[string]*Config{
	"spring_grid": {
		"demo":  preset("spring_grid", 20.0, map[string]float64{"num": 12}),
		"small": preset("spring_grid", 10.0, map[string]float64{"num": 4}),
		"stiff": preset("spring_grid", 10.0, map[string]float64{"num": 12, "stiffness": 0.05}),
	},
	"pendulum_chain": {
		"short": preset("pendulum_chain", 10.0, map[string]float64{"links": 3}),
		"long":  preset("pendulum_chain", 20.0, map[string]float64{"links": 12}),
	},
	"pyramid": {
		"small": preset("pyramid", 5.0, map[string]float64{"rows": 4}),
		"tall":  preset("pyramid", 10.0, map[string]float64{"rows": 10}),
	},
	"cradle": {
		"classic": preset("cradle", 10.0, map[string]float64{"balls": 5, "pulled": 1}),
		"double":  preset("cradle", 10.0, map[string]float64{"balls": 5, "pulled": 2}),
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(scene, name string) *Config {
	scenePresets, ok := Presets[scene]
	if !ok {
		return nil
	}
	cfg, ok := scenePresets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(scene string) []string {
	scenePresets, ok := Presets[scene]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(scenePresets))
	for name := range scenePresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package config

// Presets collects ready-to-run scenario configurations, keyed by model
// name and preset name, the way the teacher repository's own presets
// table is keyed.
var Presets = map[string]map[string]*Config{
	"cartpole": {
		"swing-up": {
			Model:   "cartpole",
			Horizon: HorizonConfig{Tf: 1.5, Alpha: 1.0, N: 30},
			Solver: SolverSettings{
				SamplingTime: 0.001, Zeta: 1000, EpsFB: 1e-8, FDEps: 1e-8, Kmax: 6,
				InitMaxIter: 50, InitTol: 1e-6,
			},
			InitUC: []float64{0},
			InitX:  []float64{0, 0, 0, 0},
		},
		"recover": {
			Model:   "cartpole",
			Horizon: HorizonConfig{Tf: 1.5, Alpha: 1.0, N: 30},
			Solver: SolverSettings{
				SamplingTime: 0.001, Zeta: 1000, EpsFB: 1e-8, FDEps: 1e-8, Kmax: 6,
				InitMaxIter: 50, InitTol: 1e-6,
			},
			InitUC: []float64{0},
			InitX:  []float64{0, 3.0, 0, 0},
		},
	},
	"hexacopter": {
		"hover": {
			Model:   "hexacopter",
			Horizon: HorizonConfig{Tf: 1.0, Alpha: 0.5, N: 25},
			Solver: SolverSettings{
				SamplingTime: 0.001, Zeta: 1000, EpsFB: 1e-8, FDEps: 1e-8, Kmax: 10,
				InitMaxIter: 50, InitTol: 1e-6,
			},
			InitUC: []float64{2.352, 2.352, 2.352, 2.352, 2.352, 2.352},
			InitX:  []float64{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
		},
		"figure-eight": {
			Model:   "hexacopter",
			Horizon: HorizonConfig{Tf: 1.0, Alpha: 0.5, N: 25},
			Solver: SolverSettings{
				SamplingTime: 0.001, Zeta: 1000, EpsFB: 1e-8, FDEps: 1e-8, Kmax: 10,
				InitMaxIter: 50, InitTol: 1e-6,
			},
			InitUC: []float64{2.352, 2.352, 2.352, 2.352, 2.352, 2.352},
			InitX:  []float64{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
		},
	},
}

// GetPreset returns the named preset for model, or nil if either the
// model or the preset name is unknown.
func GetPreset(model, preset string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	return cfg
}

// ListPresets returns the preset names available for model, or nil if the
// model is unknown.
func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	return names
}

package config

import (
	_ "embed"
)

//go:embed defaults/scenario.yaml
var defaultScenarioYAML []byte

// DefaultScenario returns the built-in wind-tunnel scenario: a 2:1:1 box
// sized to 3000 MB, Re 1e7 flow at u 0.075 for 108000 steps.
func DefaultScenario() Scenario {
	return Scenario{
		Name: "wind-tunnel",
		Domain: DomainConfig{
			Aspect:   [3]float64{2, 1, 1},
			MemoryMB: 3000,
		},
		Physics: PhysicsConfig{
			Reynolds:      1e7,
			InletVelocity: 0.075,
			Steps:         108000,
			Batch:         20,
		},
		Geometry: GeometryConfig{
			Scale:  0.5,
			Offset: [3]float64{-0.25, 0, 0},
		},
		Output: OutputConfig{
			Dir: "export",
			DB:  "~/.cfd/runs.db",
		},
	}
}

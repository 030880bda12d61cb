// Package config provides YAML-based scenario configuration loading for
// the simulation driver.
package config

import "fmt"

// Scenario contains all configuration for one simulation run.
type Scenario struct {
	Name     string         `yaml:"name"`
	Domain   DomainConfig   `yaml:"domain"`
	Physics  PhysicsConfig  `yaml:"physics"`
	Geometry GeometryConfig `yaml:"geometry"`
	Output   OutputConfig   `yaml:"output"`
}

// DomainConfig defines the simulation box and its memory budget.
type DomainConfig struct {
	// Aspect is the desired x:y:z box proportion; the solver turns it
	// into the largest grid fitting MemoryMB.
	Aspect   [3]float64 `yaml:"aspect"`
	MemoryMB uint64     `yaml:"memory_mb"`
}

// PhysicsConfig defines flow parameters in lattice units.
type PhysicsConfig struct {
	Reynolds      float64    `yaml:"reynolds"`
	InletVelocity float32    `yaml:"inlet_velocity"`
	Steps         uint64     `yaml:"steps"`
	Batch         uint64     `yaml:"batch"`
	ForceField    bool       `yaml:"force_field"`
	VolumeForce   [3]float32 `yaml:"volume_force"`
}

// GeometryConfig places an STL mesh inside the simulation box.
type GeometryConfig struct {
	Mesh string `yaml:"mesh"`
	// Scale is the mesh's longest extent as a fraction of the box length.
	Scale float64 `yaml:"scale"`
	// Offset shifts the mesh center from the box center, per axis, as a
	// fraction of that axis' grid size.
	Offset [3]float64 `yaml:"offset"`
	// RotationDeg rotates the mesh about its center, degrees per axis.
	RotationDeg [3]float64 `yaml:"rotation_deg"`
}

// OutputConfig defines where snapshots and run history go.
type OutputConfig struct {
	Dir string `yaml:"dir"`
	DB  string `yaml:"db"`
}

// Validate rejects scenarios the solver or engine cannot act on.
func (s *Scenario) Validate() error {
	for i, a := range s.Domain.Aspect {
		if a <= 0 {
			return fmt.Errorf("config: domain.aspect[%d] = %g, must be positive", i, a)
		}
	}
	if s.Physics.Reynolds <= 0 {
		return fmt.Errorf("config: physics.reynolds = %g, must be positive", s.Physics.Reynolds)
	}
	if s.Physics.InletVelocity < 0 {
		return fmt.Errorf("config: physics.inlet_velocity = %g, must not be negative", s.Physics.InletVelocity)
	}
	if s.Geometry.Mesh != "" && s.Geometry.Scale <= 0 {
		return fmt.Errorf("config: geometry.scale = %g, must be positive when a mesh is set", s.Geometry.Scale)
	}
	return nil
}

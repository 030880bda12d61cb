package lattice

// NuFromRe derives the kinematic shear viscosity from a target Reynolds
// number, a characteristic length (usually the domain extent along the flow
// axis) and a characteristic velocity, all in lattice units.
func NuFromRe(re, length, u float64) float64 {
	return u * length / re
}

package core

import "github.com/golang/geo/r3"

// Waypoint is a pose on the path: position, heading, and the locomotion
// mode the robot should use to reach it.
type Waypoint struct {
	Pos            r3.Vector // X, Y in world metres; Z is sampled elevation
	Heading        float64   // radians, atan2 convention
	LocomotionMode LocomotionMode
}

// NewWaypoint builds a Waypoint from planar coordinates, leaving Z at 0.
func NewWaypoint(x, y, heading float64, mode LocomotionMode) Waypoint {
	return Waypoint{Pos: r3.Vector{X: x, Y: y}, Heading: heading, LocomotionMode: mode}
}

// WithElevation returns a copy of w with Z set.
func (w Waypoint) WithElevation(z float64) Waypoint {
	w.Pos.Z = z
	return w
}

// DistanceTo returns the planar (X,Y) Euclidean distance between two
// waypoints; elevation is ignored since the engine only ever discretises
// a heightfield, never true 3D terrain.
func (w Waypoint) DistanceTo(o Waypoint) float64 {
	dx := w.Pos.X - o.Pos.X
	dy := w.Pos.Y - o.Pos.Y
	return r3.Vector{X: dx, Y: dy}.Norm()
}

// Trajectory is an ordered sequence of waypoints produced by the path
// extractor or path evaluator/splice.
type Trajectory []Waypoint

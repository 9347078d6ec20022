// Package geom provides the lightweight 2D geometric types shared by the
// navigation core, plus the collision-distance primitive used by local
// planners.
package geom

import "math"

// Point2D is a 2D point in metres.
type Point2D struct {
	X, Y float64
}

// Sub returns the vector p - q.
func (p Point2D) Sub(q Point2D) Point2D {
	return Point2D{X: p.X - q.X, Y: p.Y - q.Y}
}

// Norm returns the Euclidean length of p treated as a vector.
func (p Point2D) Norm() float64 {
	return math.Hypot(p.X, p.Y)
}

// DistanceTo returns the Euclidean distance between p and q.
func (p Point2D) DistanceTo(q Point2D) float64 {
	return p.Sub(q).Norm()
}

// Pose2D is a planar pose: position in metres, heading Phi in radians.
type Pose2D struct {
	X, Y float64
	Phi  float64
}

// Point returns the position component of the pose.
func (p Pose2D) Point() Point2D {
	return Point2D{X: p.X, Y: p.Y}
}

// Twist2D is a planar velocity: Vx, Vy in m/s and Omega in rad/s.
// The frame (global or robot-local) is part of the contract of whatever
// API hands out or accepts a Twist2D; it is always stated at the call site.
type Twist2D struct {
	Vx, Vy float64
	Omega  float64
}

// WrapToPi normalizes an angle to (-pi, pi].
func WrapToPi(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

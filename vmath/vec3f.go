package vmath

import (
	"math"
)

// Vec3F is a float64 world-space vector
// Grid maps live on the X-Z plane; Y carries elevation
type Vec3F struct {
	X, Y, Z float64
}

func V3FAdd(a, b Vec3F) Vec3F {
	return Vec3F{a.X + b.X, a.Y + b.Y, a.Z + b.Z}
}

func V3FSub(a, b Vec3F) Vec3F {
	return Vec3F{a.X - b.X, a.Y - b.Y, a.Z - b.Z}
}

// V3FPlanarDist returns the X-Z distance between two points, ignoring elevation
func V3FPlanarDist(a, b Vec3F) float64 {
	dx := a.X - b.X
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dz*dz)
}

// Rect is an axis-aligned rectangle on the X-Z plane
// Min/Max Y hold world Z values
type Rect struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

func (r Rect) Width() float64  { return r.MaxX - r.MinX }
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// Center returns the rectangle center as a world position at elevation y
func (r Rect) Center(y float64) Vec3F {
	return Vec3F{X: (r.MinX + r.MaxX) * 0.5, Y: y, Z: (r.MinY + r.MaxY) * 0.5}
}

// Contains reports whether the planar projection of p lies inside r, edges inclusive
func (r Rect) Contains(p Vec3F) bool {
	return p.X >= r.MinX && p.X <= r.MaxX && p.Z >= r.MinY && p.Z <= r.MaxY
}

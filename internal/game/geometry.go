package game

import "math"

// Vec2 is a point in world units.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned rectangle with a stable id, used for both
// streets and buildings.
type Rect struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// circleRectOverlap reports whether a circle intersects a rectangle.
func circleRectOverlap(cx, cy, radius float64, r Rect) bool {
	closestX := clamp(cx, r.X, r.X+r.Width)
	closestY := clamp(cy, r.Y, r.Y+r.Height)
	dx := cx - closestX
	dy := cy - closestY
	return dx*dx+dy*dy < radius*radius
}

// closestPointOnRect returns the point of a rectangle nearest to (cx, cy).
func closestPointOnRect(cx, cy float64, r Rect) Vec2 {
	return Vec2{
		X: clamp(cx, r.X, r.X+r.Width),
		Y: clamp(cy, r.Y, r.Y+r.Height),
	}
}

// rectsOverlap checks for AABB overlap.
func rectsOverlap(a, b Rect) bool {
	return a.X < b.X+b.Width &&
		a.X+a.Width > b.X &&
		a.Y < b.Y+b.Height &&
		a.Y+a.Height > b.Y
}

// clamp limits value to the range [min, max].
func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func dist(a, b Vec2) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

func distSq(a, b Vec2) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	return dx*dx + dy*dy
}

package game

import (
	"math"

	"overgrown/internal/config"
)

const diagonalFactor = 1 / math.Sqrt2

// scaleIntent turns a clamped direction vector into a world-space step:
// flat per-intent speed, scaled by 1/sqrt(2) on diagonals so diagonal
// movement is no faster than axis movement.
func scaleIntent(dx, dy, speed float64) (float64, float64) {
	if dx != 0 && dy != 0 {
		speed *= diagonalFactor
	}
	return dx * speed, dy * speed
}

// slideCircle resolves a movement step for a circle against the building
// layer. Both axis orders (X then Y, Y then X) are tried independently;
// an axis advances only if the intermediate point stays outside every
// building, and the order with the larger net displacement wins. This
// lets movers slide along walls instead of sticking at corners.
// Candidates are clamped to [radius, bound-radius] before the check.
func slideCircle(cfg config.WorldConfig, l *Layout, pos Vec2, dx, dy, radius float64) Vec2 {
	stepAxis := func(p Vec2, alongX bool) Vec2 {
		cand := p
		if alongX {
			if dx == 0 {
				return p
			}
			cand.X = clamp(p.X+dx, radius, cfg.Width-radius)
		} else {
			if dy == 0 {
				return p
			}
			cand.Y = clamp(p.Y+dy, radius, cfg.Height-radius)
		}
		if l.insideAnyBuilding(cand, radius) {
			return p
		}
		return cand
	}

	xy := stepAxis(stepAxis(pos, true), false)
	yx := stepAxis(stepAxis(pos, false), true)
	if distSq(pos, xy) >= distSq(pos, yx) {
		return xy
	}
	return yx
}

// stepToward moves from pos toward target by at most speed, resolving
// against buildings with the same sliding scheme players use. Arrivals
// are exact: the step never overshoots the target.
func stepToward(cfg config.WorldConfig, l *Layout, pos, target Vec2, speed, radius float64) Vec2 {
	d := dist(pos, target)
	if d == 0 || speed <= 0 {
		return pos
	}
	if speed > d {
		speed = d
	}
	dx := (target.X - pos.X) / d * speed
	dy := (target.Y - pos.Y) / d * speed
	return slideCircle(cfg, l, pos, dx, dy, radius)
}

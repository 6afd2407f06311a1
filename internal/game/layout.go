package game

import (
	"fmt"

	"overgrown/internal/config"
)

// Layout is the immutable street/building grid generated once at world
// construction. Streets are decorative; buildings are solid obstacles.
type Layout struct {
	Streets   []Rect
	Buildings []Rect
}

// Seeded draws used by the building generator. Each field of a block is
// derived from its own draw index so adding a field never shifts the
// others.
const (
	drawMainFrac = iota
	drawMainOffX
	drawMainOffY
	drawAnnex
	drawAnnexCorner
	drawAnnexFrac
)

const annexProbability = 0.55

// GenerateLayout divides the world into a BlockRows x BlockCols grid of
// city blocks separated by streets, then derives up to two buildings per
// block (a main and an optional corner annex) from a deterministic hash
// of the block coordinates. The same config always yields the same layout.
func GenerateLayout(cfg config.WorldConfig) *Layout {
	rows := cfg.BlockRows
	cols := cfg.BlockCols
	sw := cfg.StreetWidth
	blockW := (cfg.Width - float64(cols-1)*sw) / float64(cols)
	blockH := (cfg.Height - float64(rows-1)*sw) / float64(rows)

	l := &Layout{
		Streets:   make([]Rect, 0, rows+cols-2),
		Buildings: make([]Rect, 0, rows*cols*2),
	}

	for i := 1; i < cols; i++ {
		l.Streets = append(l.Streets, Rect{
			ID:     fmt.Sprintf("street-v-%d", i),
			X:      float64(i)*blockW + float64(i-1)*sw,
			Y:      0,
			Width:  sw,
			Height: cfg.Height,
		})
	}
	for j := 1; j < rows; j++ {
		l.Streets = append(l.Streets, Rect{
			ID:     fmt.Sprintf("street-h-%d", j),
			X:      0,
			Y:      float64(j)*blockH + float64(j-1)*sw,
			Width:  cfg.Width,
			Height: sw,
		})
	}

	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			bx := float64(col) * (blockW + sw)
			by := float64(row) * (blockH + sw)
			l.Buildings = append(l.Buildings, blockBuildings(cfg, row, col, bx, by, blockW, blockH)...)
		}
	}

	return l
}

// blockBuildings derives the buildings of a single block. The main
// building occupies a hashed fraction of the usable area (block minus
// street margin); the annex is a quarter-scale building in a hashed
// corner, included probabilistically and skipped when it would overlap
// the main building.
func blockBuildings(cfg config.WorldConfig, row, col int, bx, by, blockW, blockH float64) []Rect {
	m := cfg.BlockMargin
	ux := bx + m
	uy := by + m
	uw := blockW - 2*m
	uh := blockH - 2*m
	if uw <= 0 || uh <= 0 {
		return nil
	}

	frac := 0.35 + 0.25*blockDraw(cfg.LayoutSeed, row, col, drawMainFrac)
	mw := uw * frac
	mh := uh * frac
	mx := ux + (uw-mw)*blockDraw(cfg.LayoutSeed, row, col, drawMainOffX)
	my := uy + (uh-mh)*blockDraw(cfg.LayoutSeed, row, col, drawMainOffY)

	main := Rect{
		ID:     fmt.Sprintf("building-%d-%d", row, col),
		X:      mx,
		Y:      my,
		Width:  mw,
		Height: mh,
	}
	buildings := []Rect{main}

	if blockDraw(cfg.LayoutSeed, row, col, drawAnnex) >= annexProbability {
		return buildings
	}

	af := 0.15 + 0.10*blockDraw(cfg.LayoutSeed, row, col, drawAnnexFrac)
	aw := uw * af
	ah := uh * af
	annex := Rect{
		ID:     fmt.Sprintf("building-%d-%d-annex", row, col),
		Width:  aw,
		Height: ah,
	}
	switch corner := int(blockDraw(cfg.LayoutSeed, row, col, drawAnnexCorner) * 4); corner {
	case 0:
		annex.X, annex.Y = ux, uy
	case 1:
		annex.X, annex.Y = ux+uw-aw, uy
	case 2:
		annex.X, annex.Y = ux, uy+uh-ah
	default:
		annex.X, annex.Y = ux+uw-aw, uy+uh-ah
	}

	if !rectsOverlap(annex, main) {
		buildings = append(buildings, annex)
	}
	return buildings
}

// blockDraw returns a deterministic value in [0, 1) for one field of one
// block. Mixing follows the splitmix64 finalizer; spatial variety is all
// that matters here, not randomness quality.
func blockDraw(seed uint64, row, col, n int) float64 {
	x := seed
	x ^= uint64(row) * 0x9e3779b97f4a7c15
	x ^= uint64(col) * 0xbf58476d1ce4e5b9
	x ^= uint64(n) * 0x94d049bb133111eb
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return float64(x>>11) / float64(1<<53)
}

// insideAnyBuilding reports whether a circle intersects any building.
func (l *Layout) insideAnyBuilding(p Vec2, radius float64) bool {
	for _, b := range l.Buildings {
		if circleRectOverlap(p.X, p.Y, radius, b) {
			return true
		}
	}
	return false
}

// nearestStreetPoint returns the point on any street rectangle closest
// to p. With no streets (single-block layouts) it returns p unchanged.
func (l *Layout) nearestStreetPoint(p Vec2) Vec2 {
	best := p
	bestD := -1.0
	for _, s := range l.Streets {
		c := closestPointOnRect(p.X, p.Y, s)
		d := distSq(p, c)
		if bestD < 0 || d < bestD {
			bestD = d
			best = c
		}
	}
	return best
}

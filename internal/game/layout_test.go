package game

import (
	"math"
	"reflect"
	"strings"
	"testing"

	"overgrown/internal/config"
)

// TestGenerateLayoutDeterministic verifies the same config always yields
// the same layout
func TestGenerateLayoutDeterministic(t *testing.T) {
	cfg := config.DefaultWorld()

	a := GenerateLayout(cfg)
	b := GenerateLayout(cfg)

	if !reflect.DeepEqual(a.Streets, b.Streets) {
		t.Error("Streets differ between two generations with the same config")
	}
	if !reflect.DeepEqual(a.Buildings, b.Buildings) {
		t.Error("Buildings differ between two generations with the same config")
	}
}

// TestGenerateLayoutSeedMatters verifies a different seed moves buildings
func TestGenerateLayoutSeedMatters(t *testing.T) {
	cfg := config.DefaultWorld()
	a := GenerateLayout(cfg)

	cfg.LayoutSeed = cfg.LayoutSeed + 1
	b := GenerateLayout(cfg)

	if reflect.DeepEqual(a.Buildings, b.Buildings) {
		t.Error("Expected different buildings for a different seed")
	}
	// Streets depend only on the grid, not the seed
	if !reflect.DeepEqual(a.Streets, b.Streets) {
		t.Error("Streets should not depend on the seed")
	}
}

// TestLayoutStreetsSpanMap verifies street counts and full-map spans
func TestLayoutStreetsSpanMap(t *testing.T) {
	cfg := config.DefaultWorld()
	l := GenerateLayout(cfg)

	want := (cfg.BlockRows - 1) + (cfg.BlockCols - 1)
	if len(l.Streets) != want {
		t.Fatalf("Expected %d streets, got %d", want, len(l.Streets))
	}

	for _, s := range l.Streets {
		switch {
		case strings.HasPrefix(s.ID, "street-v-"):
			if s.Y != 0 || s.Height != cfg.Height {
				t.Errorf("Vertical street %s should span the full height", s.ID)
			}
			if s.Width != cfg.StreetWidth {
				t.Errorf("Street %s width = %v, want %v", s.ID, s.Width, cfg.StreetWidth)
			}
		case strings.HasPrefix(s.ID, "street-h-"):
			if s.X != 0 || s.Width != cfg.Width {
				t.Errorf("Horizontal street %s should span the full width", s.ID)
			}
			if s.Height != cfg.StreetWidth {
				t.Errorf("Street %s height = %v, want %v", s.ID, s.Height, cfg.StreetWidth)
			}
		default:
			t.Errorf("Unexpected street id %q", s.ID)
		}
	}
}

// TestLayoutBuildingsKeepStreetMargin verifies no building encroaches on
// a street or leaves the map
func TestLayoutBuildingsKeepStreetMargin(t *testing.T) {
	cfg := config.DefaultWorld()
	l := GenerateLayout(cfg)

	if len(l.Buildings) == 0 {
		t.Fatal("Expected at least one building")
	}

	for _, b := range l.Buildings {
		if b.X < 0 || b.Y < 0 || b.X+b.Width > cfg.Width || b.Y+b.Height > cfg.Height {
			t.Errorf("Building %s extends outside the map", b.ID)
		}
		for _, s := range l.Streets {
			// Buildings stay a full margin away from every street
			gapX := math.Max(s.X-(b.X+b.Width), b.X-(s.X+s.Width))
			gapY := math.Max(s.Y-(b.Y+b.Height), b.Y-(s.Y+s.Height))
			if math.Max(gapX, gapY) < cfg.BlockMargin-1e-9 {
				t.Errorf("Building %s is within the margin of street %s", b.ID, s.ID)
			}
		}
	}
}

// TestLayoutAnnexNeverOverlapsMain verifies annex placement skips overlaps
func TestLayoutAnnexNeverOverlapsMain(t *testing.T) {
	cfg := config.DefaultWorld()
	l := GenerateLayout(cfg)

	mains := make(map[string]Rect)
	for _, b := range l.Buildings {
		if !strings.HasSuffix(b.ID, "-annex") {
			mains[b.ID] = b
		}
	}

	annexes := 0
	for _, b := range l.Buildings {
		if !strings.HasSuffix(b.ID, "-annex") {
			continue
		}
		annexes++
		main, ok := mains[strings.TrimSuffix(b.ID, "-annex")]
		if !ok {
			t.Fatalf("Annex %s has no main building", b.ID)
		}
		if rectsOverlap(b, main) {
			t.Errorf("Annex %s overlaps its main building", b.ID)
		}
	}
	if annexes == 0 {
		t.Error("Expected some annexes on an 8x8 grid")
	}
}

// TestBlockDrawRange verifies the hash stays in [0, 1)
func TestBlockDrawRange(t *testing.T) {
	for row := 0; row < 16; row++ {
		for col := 0; col < 16; col++ {
			for n := 0; n < 8; n++ {
				v := blockDraw(0x6f766572, row, col, n)
				if v < 0 || v >= 1 {
					t.Fatalf("blockDraw(%d,%d,%d) = %v, want [0,1)", row, col, n, v)
				}
			}
		}
	}
}

// TestNearestStreetPoint verifies snapping lands on a street rectangle
func TestNearestStreetPoint(t *testing.T) {
	cfg := config.DefaultWorld()
	l := GenerateLayout(cfg)

	p := l.nearestStreetPoint(Vec2{X: 300, Y: 300})

	onStreet := false
	for _, s := range l.Streets {
		if p.X >= s.X && p.X <= s.X+s.Width && p.Y >= s.Y && p.Y <= s.Y+s.Height {
			onStreet = true
			break
		}
	}
	if !onStreet {
		t.Errorf("Nearest street point %+v is not on any street", p)
	}
}

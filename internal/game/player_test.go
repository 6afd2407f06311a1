package game

import (
	"reflect"
	"testing"
)

// TestApplyBuffFromScratch verifies a fresh pickup starts the window at now
func TestApplyBuffFromScratch(t *testing.T) {
	p := &Player{ConnID: "c1", UserID: "u1"}
	now := int64(1_000_000)

	p.applyBuff(BuffSpeed, now, 10_000)

	if p.speedUntil != now+10_000 {
		t.Errorf("Expected expiry %d, got %d", now+10_000, p.speedUntil)
	}
	if !p.buffActive(BuffSpeed, now) {
		t.Error("Buff should be active immediately after pickup")
	}
}

// TestApplyBuffStacksFromCurrentExpiry verifies a second pickup while the
// buff is running extends from the current expiry, not from now
func TestApplyBuffStacksFromCurrentExpiry(t *testing.T) {
	p := &Player{ConnID: "c1", UserID: "u1"}
	now := int64(1_000_000)

	p.applyBuff(BuffMagnet, now, 10_000)
	p.applyBuff(BuffMagnet, now+4_000, 10_000)

	want := now + 10_000 + 10_000
	if p.magnetUntil != want {
		t.Errorf("Expected stacked expiry %d, got %d", want, p.magnetUntil)
	}
}

// TestApplyBuffRestartsAfterExpiry verifies a pickup after the window has
// lapsed starts over from now instead of chaining off the stale expiry
func TestApplyBuffRestartsAfterExpiry(t *testing.T) {
	p := &Player{ConnID: "c1", UserID: "u1"}

	p.applyBuff(BuffDouble, 1_000_000, 10_000)
	later := int64(1_020_000)
	p.applyBuff(BuffDouble, later, 10_000)

	if p.doubleUntil != later+10_000 {
		t.Errorf("Expected expiry %d, got %d", later+10_000, p.doubleUntil)
	}
}

// TestBuffActiveBoundary verifies the expiry instant itself counts as inactive
func TestBuffActiveBoundary(t *testing.T) {
	p := &Player{ConnID: "c1", UserID: "u1"}
	now := int64(500_000)
	p.applyBuff(BuffSpeed, now, 10_000)

	if !p.buffActive(BuffSpeed, now+9_999) {
		t.Error("Buff should be active just before expiry")
	}
	if p.buffActive(BuffSpeed, now+10_000) {
		t.Error("Buff should be inactive exactly at expiry")
	}
	if p.buffActive(BuffSpeed, now+10_001) {
		t.Error("Buff should be inactive after expiry")
	}
}

// TestBuffActiveUnknownKind verifies unknown kinds are never active and
// applying one is a no-op
func TestBuffActiveUnknownKind(t *testing.T) {
	p := &Player{ConnID: "c1", UserID: "u1"}
	p.applyBuff("teleport", 1_000, 10_000)

	if p.buffActive("teleport", 2_000) {
		t.Error("Unknown buff kind should never be active")
	}
	if p.speedUntil != 0 || p.magnetUntil != 0 || p.doubleUntil != 0 {
		t.Error("Applying an unknown kind should not touch known buffs")
	}
}

// TestActiveBuffsOrder verifies the snapshot list keeps the fixed
// speed, magnet, double order regardless of pickup order
func TestActiveBuffsOrder(t *testing.T) {
	p := &Player{ConnID: "c1", UserID: "u1"}
	now := int64(1_000_000)

	p.applyBuff(BuffDouble, now, 10_000)
	p.applyBuff(BuffSpeed, now, 10_000)
	p.applyBuff(BuffMagnet, now, 10_000)

	got := p.activeBuffs(now)
	want := []string{BuffSpeed, BuffMagnet, BuffDouble}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected buffs %v, got %v", want, got)
	}
}

// TestActiveBuffsEmpty verifies no buffs yields a nil list
func TestActiveBuffsEmpty(t *testing.T) {
	p := &Player{ConnID: "c1", UserID: "u1"}
	if got := p.activeBuffs(1_000); got != nil {
		t.Errorf("Expected no active buffs, got %v", got)
	}
}

// TestActiveBuffsPartial verifies only unexpired buffs are listed
func TestActiveBuffsPartial(t *testing.T) {
	p := &Player{ConnID: "c1", UserID: "u1"}
	now := int64(1_000_000)

	p.applyBuff(BuffSpeed, now, 1_000)
	p.applyBuff(BuffDouble, now, 60_000)

	got := p.activeBuffs(now + 5_000)
	want := []string{BuffDouble}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected buffs %v, got %v", want, got)
	}
}

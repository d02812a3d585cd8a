package replication

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/scavenger-game/scavenger/game"
	"github.com/scavenger-game/scavenger/settings"
)

func newTestValidator(mod func(s *settings.Settings)) *Validator {
	s := settings.DefaultSettings()
	if mod != nil {
		mod(&s)
	}
	return NewValidator("player", nil, s)
}

func TestValidatorRateLimit(t *testing.T) {
	v := newTestValidator(func(s *settings.Settings) {
		s.Validation.MaxFramesPerSecond = 1
	})

	for i := 0; i < RateLimitWindow; i++ {
		if !v.AllowFrame() {
			t.Fatalf("frame %d should be within the limit", i)
		}
	}
	if v.AllowFrame() {
		t.Fatalf("expected the frame past the limit to be rejected")
	}
	if m, _ := v.Check(CheckRateLimit); m.Violations != 1 {
		t.Fatalf("expected one rate limit violation, got %v", m.Violations)
	}

	for i := 0; i < RateLimitWindow*game.TicksPerSecond; i++ {
		v.Tick()
	}
	if !v.AllowFrame() {
		t.Fatalf("expected the window to reset")
	}
}

func TestValidatorAdjustLocation(t *testing.T) {
	v := newTestValidator(nil)
	auth := mgl32.Vec3{0, 96, 0}

	if !v.AdjustLocation(auth, mgl32.Vec3{0, 96, 140}) {
		t.Fatalf("expected an adjustment within the limit to pass")
	}
	if v.AdjustLocation(auth, mgl32.Vec3{0, 96, 151}) {
		t.Fatalf("expected an adjustment past the limit to be rejected")
	}
	if m, _ := v.Check(CheckAdjustLocation); m.Violations != 0 {
		t.Fatalf("a single rejection should only fill the buffer, got %v violations", m.Violations)
	}
	if v.AdjustLocation(auth, mgl32.Vec3{1000, 96, 0}) {
		t.Fatalf("expected an adjustment past the limit to be rejected")
	}
	if m, _ := v.Check(CheckAdjustLocation); m.Violations != 1 {
		t.Fatalf("expected one violation once the buffer filled, got %v", m.Violations)
	}
	if v.AdjustLocation(auth, mgl32.Vec3{math32.NaN(), 0, 0}) {
		t.Fatalf("expected a NaN location to be rejected")
	}
}

func TestValidatorValues(t *testing.T) {
	v := newTestValidator(nil)

	m := &MoveMessage{Forward: 4, Right: -3}
	if !v.Move(m) || m.Forward != 1 || m.Right != -1 {
		t.Fatalf("expected move axes to be clamped, got %+v", m)
	}
	if v.Move(&MoveMessage{ControlYaw: math32.Inf(1)}) {
		t.Fatalf("expected an infinite control yaw to be rejected")
	}
	if p, ok := v.Pitch(120); !ok || p != 90+game.AimPitchBias {
		t.Fatalf("expected pitch to be clamped to %v, got %v %v", 90+game.AimPitchBias, p, ok)
	}
	if p, ok := v.Pitch(95); !ok || p != 95 {
		t.Fatalf("expected a biased pitch looking up to pass unchanged, got %v %v", p, ok)
	}
	if p, ok := v.Pitch(-80); !ok || p != -80 {
		t.Fatalf("expected the lowest biased pitch to pass unchanged, got %v %v", p, ok)
	}
	if p, ok := v.Pitch(-95); !ok || p != -90+game.AimPitchBias {
		t.Fatalf("expected pitch to be clamped to %v, got %v %v", -90+game.AimPitchBias, p, ok)
	}
	if _, ok := v.Yaw(math32.NaN()); ok {
		t.Fatalf("expected a NaN yaw to be rejected")
	}
}

func TestValidatorCoverDirection(t *testing.T) {
	v := newTestValidator(nil)

	if !v.EnterCover(EnterCoverMessage{CoverDirection: mgl32.Vec3{1, 0, 0}}) {
		t.Fatalf("expected a horizontal unit direction to pass")
	}
	if v.EnterCover(EnterCoverMessage{CoverDirection: mgl32.Vec3{0, 1, 0}}) {
		t.Fatalf("expected a vertical direction to be rejected")
	}
	if v.EnterCover(EnterCoverMessage{CoverDirection: mgl32.Vec3{3, 0, 0}}) {
		t.Fatalf("expected a non unit direction to be rejected")
	}
}

func TestValidatorExceeded(t *testing.T) {
	v := newTestValidator(func(s *settings.Settings) {
		s.Validation.MaxViolations = 3
	})

	for i := 0; i < 2; i++ {
		v.Malformed(OpMove, errUnexpectedOp)
	}
	if v.Exceeded() {
		t.Fatalf("expected the session to be allowed below the limit")
	}
	v.Malformed(OpMove, errUnexpectedOp)
	if !v.Exceeded() || v.Violations() != 3 {
		t.Fatalf("expected the limit to be exceeded at 3 violations, got %v", v.Violations())
	}
}

func TestValidatorDisabled(t *testing.T) {
	v := newTestValidator(func(s *settings.Settings) {
		s.Validation.Enabled = false
		s.Validation.MaxFramesPerSecond = 1
		s.Validation.MaxViolations = 1
	})

	for i := 0; i < 100; i++ {
		if !v.AllowFrame() {
			t.Fatalf("a disabled validator must not rate limit")
		}
	}
	if !v.AdjustLocation(mgl32.Vec3{}, mgl32.Vec3{5000, 0, 0}) {
		t.Fatalf("a disabled validator must allow any adjustment")
	}
	v.Malformed(OpMove, errUnexpectedOp)
	if v.Exceeded() || v.Violations() != 0 {
		t.Fatalf("a disabled validator must not count violations")
	}
}

package player

import (
	"testing"

	"github.com/ethaniccc/float32-cube/cube"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/scavenger-game/scavenger/game"
)

func TestEnterCoverAfterHoldTime(t *testing.T) {
	r := newServerRig(t)
	hold := r.c.Settings().EnterCoverHoldTime

	r.ticks(hold-1, Input{Move: MoveInput{Forward: 1}})
	if s := r.c.State(); s.Cover != CoverEntering || s.CoverTimer != hold-1 {
		t.Fatalf("expected to be entering cover after %d ticks, got %v (%d)", hold-1, s.Cover, s.CoverTimer)
	}

	r.tick(Input{Move: MoveInput{Forward: 1}})
	s := r.c.State()
	if s.Cover != CoverIn {
		t.Fatalf("expected to be in cover, got %v", s.Cover)
	}
	if s.CoverDirection != (mgl32.Vec3{1, 0, 0}) {
		t.Fatalf("expected cover direction into the crate, got %v", s.CoverDirection)
	}
	if s.Crouched {
		t.Fatalf("the crate is tall enough to stand behind")
	}
	if !r.e.PlaneConstrained() || r.e.OrientRotationToMovement() {
		t.Fatalf("expected the engine to be constrained to the cover plane")
	}
}

func TestEnterCoverHoldResets(t *testing.T) {
	r := newServerRig(t)
	hold := r.c.Settings().EnterCoverHoldTime

	r.ticks(hold-2, Input{Move: MoveInput{Forward: 1}})
	r.tick(Input{})
	if s := r.c.State(); s.Cover != CoverFree || s.CoverTimer != 0 {
		t.Fatalf("releasing the input must reset the entry, got %v (%d)", s.Cover, s.CoverTimer)
	}
	r.ticks(hold-1, Input{Move: MoveInput{Forward: 1}})
	if r.c.State().InCover() {
		t.Fatalf("entry must need the full hold time again")
	}
}

func TestEnterCoverNeedsShallowAngle(t *testing.T) {
	r := newServerRig(t)

	// Pushing into the crate at 45 degrees is steeper than the maximum cover angle.
	r.ticks(30, Input{Move: MoveInput{Forward: 1, Right: 1}})
	if r.c.State().InCover() {
		t.Fatalf("cover must not be entered at a steep angle")
	}
}

func TestEnterCoverNeedsBothSides(t *testing.T) {
	r := newServerRig(t)
	// Stand at the end of the crate so the left probe misses.
	r.e.SetLocation(mgl32.Vec3{58, 96, -180})

	r.ticks(r.c.Settings().EnterCoverHoldTime*2, Input{Move: MoveInput{Forward: 1}})
	s := r.c.State()
	if s.InCover() {
		t.Fatalf("cover must not be entered without cover on both sides")
	}
	if s.CoverDirection != (mgl32.Vec3{}) {
		t.Fatalf("a failed entry must not change the cover direction, got %v", s.CoverDirection)
	}
	if r.e.PlaneConstrained() {
		t.Fatalf("a failed entry must not constrain the engine")
	}
}

func TestEnterCoverIgnoresUntaggedGeometry(t *testing.T) {
	r := newServerRig(t)
	if !r.w.RemoveObject("crate") {
		t.Fatalf("expected to remove crate")
	}
	if err := r.w.AddWall("wall", cube.Box(100, 0, -200, 120, 150, 200)); err != nil {
		t.Fatalf("add wall: %v", err)
	}

	r.ticks(30, Input{Move: MoveInput{Forward: 1}})
	if r.c.State().Cover != CoverFree {
		t.Fatalf("walls that are not cover must not be entered, got %v", r.c.State().Cover)
	}
}

func TestCrouchBehindLowCover(t *testing.T) {
	r := newRig(t, cube.Box(100, 0, -200, 120, 100, 200), Options{Authority: true, Controlled: true})
	r.enterCover(t)
	if !r.c.State().Crouched {
		t.Fatalf("expected to crouch behind low cover")
	}
}

func TestMoveAlongCoverStopsAtEdge(t *testing.T) {
	r := newServerRig(t)
	r.enterCover(t)

	r.ticks(60, Input{Move: MoveInput{Right: 1}})
	s := r.c.State()
	if !s.InCover() {
		t.Fatalf("expected to stay in cover")
	}
	if !s.EdgeAdjustedRight || s.EdgeAdjustedLeft {
		t.Fatalf("expected to be adjusted to the right edge: %+v", s)
	}
	if !s.CoverFacingRight {
		t.Fatalf("expected to face right")
	}
	if s.CoverSub() != CoverEdgeRight {
		t.Fatalf("expected sub state EdgeRight, got %v", s.CoverSub())
	}
	pos := r.e.Location()
	if pos.Z() < 145 || pos.Z()+r.c.Settings().CoverHalfWidth > 200 {
		t.Fatalf("expected to stop near the end of the crate, got %v", pos)
	}
	if !game.Float32ApproxEq(pos.X(), startPos.X()) {
		t.Fatalf("movement in cover must stay on the cover plane, got %v", pos)
	}
}

func TestCoverRollbackIsIdempotent(t *testing.T) {
	r := newServerRig(t)
	r.enterCover(t)
	stable := r.c.State().LastStableCoverPosition

	// Push the character past the end of the crate, as a lagging client might.
	r.e.SetLocation(mgl32.Vec3{58, 96, 170})
	r.c.Tick(game.DeltaTime)
	if r.e.Location() != stable {
		t.Fatalf("expected rollback to %v, got %v", stable, r.e.Location())
	}
	s := r.c.State()
	if !s.OnEdgeRight || s.OnEdgeLeft {
		t.Fatalf("expected to be on the right edge: %+v", s)
	}

	r.c.Tick(game.DeltaTime)
	if r.e.Location() != stable {
		t.Fatalf("a second rollback must not move the character, got %v", r.e.Location())
	}
	if !r.c.State().InCover() {
		t.Fatalf("expected to stay in cover")
	}
}

func TestLosingBothEdgesExitsCover(t *testing.T) {
	r := newServerRig(t)
	r.enterCover(t)

	if !r.w.RemoveObject("crate") {
		t.Fatalf("expected to remove crate")
	}
	r.c.Tick(game.DeltaTime)
	s := r.c.State()
	if s.InCover() {
		t.Fatalf("expected to leave cover when it disappears")
	}
	if s.OnEdgeLeft || s.OnEdgeRight || s.EdgeAdjustedLeft || s.EdgeAdjustedRight || s.Crouched {
		t.Fatalf("leaving cover must clear the cover flags: %+v", s)
	}
	if r.e.PlaneConstrained() || !r.e.OrientRotationToMovement() {
		t.Fatalf("leaving cover must release the engine")
	}
}

func TestNarrowCoverExits(t *testing.T) {
	// Wide enough for the narrow probes to hit, too narrow for the edge probes.
	r := newRig(t, cube.Box(100, 0, -45, 120, 150, 45), Options{Authority: true, Controlled: true})

	r.ticks(r.c.Settings().EnterCoverHoldTime+1, Input{Move: MoveInput{Forward: 1}})
	s := r.c.State()
	if s.InCover() {
		t.Fatalf("cover with no room on either side must be left")
	}
	if s.EdgeAdjustedLeft || s.EdgeAdjustedRight {
		t.Fatalf("both edges must never be adjusted at once: %+v", s)
	}
}

func TestPullAwayExitsCover(t *testing.T) {
	r := newServerRig(t)
	r.enterCover(t)
	hold := r.c.Settings().EnterCoverHoldTime

	// The first tick only records the input, the hold is counted from the next one.
	r.ticks(hold, Input{Move: MoveInput{Forward: -1}})
	if s := r.c.State(); s.Cover != CoverExiting || s.CoverTimer != hold-1 {
		t.Fatalf("expected to be exiting cover, got %v (%d)", s.Cover, s.CoverTimer)
	}
	r.tick(Input{Move: MoveInput{Forward: -1}})
	if r.c.State().InCover() {
		t.Fatalf("expected to have pulled away from cover")
	}
}

func TestJumpExitsCover(t *testing.T) {
	r := newServerRig(t)
	r.enterCover(t)

	r.tick(Input{Move: MoveInput{Jump: true}})
	if r.c.State().InCover() {
		t.Fatalf("jumping must leave cover")
	}
	if r.e.IsWalking() {
		t.Fatalf("expected the character to be airborne")
	}
}

func TestSetCoverStateValidation(t *testing.T) {
	r := newServerRig(t)
	h := r.c.AuthorityHandler()

	h.SetCoverState(true, true)
	if r.c.State().PoppedOut {
		t.Fatalf("popping out outside of cover must be rejected")
	}

	r.enterCover(t)
	h.SetCoverState(true, true)
	if r.c.State().PoppedOut {
		t.Fatalf("popping out without an adjusted edge must be rejected")
	}
	h.SetCoverState(true, false)
	if !r.c.State().CoverFacingRight {
		t.Fatalf("expected facing to be applied")
	}
}

func TestGateInCover(t *testing.T) {
	r := newServerRig(t)
	r.enterCover(t)

	right := game.RightVector(r.e.Yaw())
	r.c.state.EdgeAdjustedRight = true
	if r.c.allowMovement(right) {
		t.Fatalf("movement past the adjusted right edge must be blocked")
	}
	if !r.c.allowMovement(right.Mul(-1)) {
		t.Fatalf("movement away from the adjusted edge must be allowed")
	}

	r.c.state.PoppedOut = true
	if r.c.allowMovement(right.Mul(-1)) {
		t.Fatalf("movement while popped out must be blocked")
	}
}

package simulation

import (
	"testing"

	"github.com/ethaniccc/float32-cube/cube"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/scavenger-game/scavenger/game"
	"github.com/scavenger-game/scavenger/world"
)

func testEngine(t *testing.T, pos mgl32.Vec3) (*Engine, *world.World) {
	t.Helper()

	w := world.New(nil)
	if err := w.AddCover("crate", cube.Box(100, 0, -200, 120, 150, 200)); err != nil {
		t.Fatalf("add crate: %v", err)
	}
	return NewEngine("player", w, pos, 0), w
}

func TestStepStaysOnFloor(t *testing.T) {
	e, _ := testEngine(t, mgl32.Vec3{0, 96, 0})
	for i := 0; i < 10; i++ {
		e.Step(game.DeltaTime)
	}
	if !game.Float32ApproxEq(e.Location().Y(), 96) {
		t.Fatalf("expected the character to rest on the floor, got y=%v", e.Location().Y())
	}
	if !e.IsWalking() {
		t.Fatalf("expected the character to be walking")
	}
}

func TestStepMovesAtMaxSpeed(t *testing.T) {
	e, _ := testEngine(t, mgl32.Vec3{-500, 96, 0})
	e.AddMovementInput(mgl32.Vec3{0, 0, 1}, 1, false)
	e.AddMovementInput(mgl32.Vec3{0, 0, 1}, 1, false)
	e.Step(game.DeltaTime)

	want := e.MaxSpeed() * game.DeltaTime
	if got := e.Location().Z(); !game.Float32ApproxEq(got, want) {
		t.Fatalf("expected input to be clamped to unit length: moved %v, want %v", got, want)
	}
	if e.LastInputVector() != (mgl32.Vec3{0, 0, 2}) {
		t.Fatalf("last input vector must be the raw input, got %v", e.LastInputVector())
	}

	e.Step(game.DeltaTime)
	if e.LastInputVector() != (mgl32.Vec3{}) {
		t.Fatalf("input must be consumed by a step")
	}
}

func TestStepBlockedByWall(t *testing.T) {
	e, _ := testEngine(t, mgl32.Vec3{50, 96, 0})

	var hits []world.Hit
	for i := 0; i < 10; i++ {
		e.AddMovementInput(mgl32.Vec3{1, 0, 0}, 1, false)
		hits = e.Step(game.DeltaTime)
	}
	if x := e.Location().X(); !game.Float32ApproxEq(x, 100-game.CapsuleRadius) {
		t.Fatalf("expected the character to stop against the crate, got x=%v", x)
	}
	if len(hits) != 1 {
		t.Fatalf("expected a single hit, got %d", len(hits))
	}
	hit := hits[0]
	if hit.ObjectID != "crate" || !hit.IsCover() {
		t.Fatalf("expected a cover hit on the crate, got %+v", hit)
	}
	if hit.Normal != (mgl32.Vec3{-1, 0, 0}) {
		t.Fatalf("expected the hit normal to face the character, got %v", hit.Normal)
	}
}

func TestStepIgnoresOwnPawn(t *testing.T) {
	e, w := testEngine(t, mgl32.Vec3{-500, 96, 0})
	w.SetPawn("player", game.CapsuleBox(e.Location()))

	e.AddMovementInput(mgl32.Vec3{1, 0, 0}, 1, false)
	if hits := e.Step(game.DeltaTime); len(hits) != 0 {
		t.Fatalf("the character must not collide with its own pawn: %+v", hits)
	}
	if e.Location().X() <= -500 {
		t.Fatalf("expected the character to move")
	}
}

func TestPlaneConstraint(t *testing.T) {
	e, _ := testEngine(t, mgl32.Vec3{-500, 96, 0})
	e.ConstrainToPlane(true, mgl32.Vec3{1, 0, 0})

	e.AddMovementInput(mgl32.Vec3{1, 0, 1}, 1, false)
	e.Step(game.DeltaTime)
	if pos := e.Location(); !game.Float32ApproxEq(pos.X(), -500) || pos.Z() <= 0 {
		t.Fatalf("expected movement along the plane only, got %v", pos)
	}

	e.ConstrainToPlane(false, mgl32.Vec3{})
	if e.PlaneConstrained() {
		t.Fatalf("expected the constraint to be removed")
	}
}

func TestForcedInputReplacesRegularInput(t *testing.T) {
	e, _ := testEngine(t, mgl32.Vec3{-500, 96, 0})
	e.AddMovementInput(mgl32.Vec3{1, 0, 0}, 1, false)
	e.AddMovementInput(mgl32.Vec3{0, 0, 1}, 5, true)
	e.AddMovementInput(mgl32.Vec3{-1, 0, 0}, 1, false)
	e.Step(game.DeltaTime)

	pos := e.Location()
	if !game.Float32ApproxEq(pos.X(), -500) {
		t.Fatalf("regular input must be dropped while forced input is queued, got %v", pos)
	}
	if !game.Float32ApproxEq(pos.Z(), e.MaxSpeed()*game.DeltaTime) {
		t.Fatalf("forced input must still be capped at the max speed, got %v", pos)
	}
}

func TestJump(t *testing.T) {
	e, _ := testEngine(t, mgl32.Vec3{-500, 96, 0})
	e.Jump()
	e.Step(game.DeltaTime)
	if e.IsWalking() || e.Location().Y() <= 96 {
		t.Fatalf("expected the character to leave the ground, got %v", e.Location())
	}

	for i := 0; i < 120; i++ {
		e.Step(game.DeltaTime)
	}
	if !e.IsWalking() || !game.Float32ApproxEq(e.Location().Y(), 96) {
		t.Fatalf("expected the character to land, got %v", e.Location())
	}
}

func TestOrientRotationToMovement(t *testing.T) {
	e, _ := testEngine(t, mgl32.Vec3{-500, 96, 0})
	for i := 0; i < 60; i++ {
		e.AddMovementInput(mgl32.Vec3{0, 0, 1}, 1, false)
		e.Step(game.DeltaTime)
	}
	if !game.Float32ApproxEq(e.Yaw(), 90) {
		t.Fatalf("expected the character to face its movement, got yaw %v", e.Yaw())
	}

	e.SetOrientRotationToMovement(false)
	for i := 0; i < 60; i++ {
		e.AddMovementInput(mgl32.Vec3{1, 0, 0}, 1, false)
		e.Step(game.DeltaTime)
	}
	if !game.Float32ApproxEq(e.Yaw(), 90) {
		t.Fatalf("yaw must not change while orientation is disabled, got %v", e.Yaw())
	}
}

func TestClipAxisSlidesAlongFaces(t *testing.T) {
	wall := cube.Box(0, 0, 0, 10, 10, 10)
	beside := cube.Box(10, 0, 0, 20, 10, 10)

	if d := clipAxis(wall, beside, 2, 5); d != 5 {
		t.Fatalf("a box sliding along a face must not be clipped, got %v", d)
	}
	if d := clipAxis(wall, beside, 0, -5); d != 0 {
		t.Fatalf("a box pushing into a face must be stopped, got %v", d)
	}
	if d := clipAxis(wall, beside, 0, 5); d != 5 {
		t.Fatalf("a box moving away must not be clipped, got %v", d)
	}
}

package world

import (
	"errors"
	"testing"

	"github.com/ethaniccc/float32-cube/cube"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/scavenger-game/scavenger/game"
)

func testWorld(t *testing.T) *World {
	t.Helper()

	w := New(nil)
	if err := w.AddCover("crate", cube.Box(100, 0, -200, 120, 150, 200)); err != nil {
		t.Fatalf("add crate: %v", err)
	}
	if err := w.AddWall("pillar", cube.Box(300, 0, -50, 340, 400, 50)); err != nil {
		t.Fatalf("add pillar: %v", err)
	}
	return w
}

func TestProbeReturnsClosestHit(t *testing.T) {
	w := testWorld(t)

	hit, ok := w.Probe(mgl32.Vec3{0, 96, 0}, mgl32.Vec3{1, 0, 0}, 1000, Filter{Channels: ChannelWorldStatic})
	if !ok {
		t.Fatalf("expected probe to hit the crate")
	}
	if hit.ObjectID != "crate" || !hit.IsCover() {
		t.Fatalf("expected cover hit on crate, got %+v", hit)
	}
	if !game.Float32ApproxEq(hit.Distance, 100) {
		t.Fatalf("expected distance 100, got %v", hit.Distance)
	}
	if hit.Normal != (mgl32.Vec3{-1, 0, 0}) {
		t.Fatalf("expected normal facing the prober, got %v", hit.Normal)
	}
}

func TestProbeRespectsDistanceAndTags(t *testing.T) {
	w := testWorld(t)

	if _, ok := w.Probe(mgl32.Vec3{0, 96, 0}, mgl32.Vec3{1, 0, 0}, 50, Filter{Channels: ChannelWorldStatic}); ok {
		t.Fatalf("probe must not reach past its max distance")
	}

	// Above the crate, the ray continues to the untagged pillar.
	hit, ok := w.Probe(mgl32.Vec3{0, 200, 0}, mgl32.Vec3{1, 0, 0}, 1000, Filter{Channels: ChannelWorldStatic})
	if !ok || hit.ObjectID != "pillar" {
		t.Fatalf("expected pillar hit, got %+v (%v)", hit, ok)
	}
	if hit.IsCover() {
		t.Fatalf("untagged geometry must not count as cover")
	}
}

func TestProbeChannelsAndIgnore(t *testing.T) {
	w := testWorld(t)
	w.SetPawn("self", game.CapsuleBox(mgl32.Vec3{0, 96, 0}))
	w.SetPawn("enemy", game.CapsuleBox(mgl32.Vec3{60, 96, 0}))

	if _, ok := w.Probe(mgl32.Vec3{0, 96, 0}, mgl32.Vec3{1, 0, 0}, 1000, Filter{Channels: ChannelPawn}); !ok {
		t.Fatalf("expected the pawn probe to hit the enemy")
	}
	hit, _ := w.Probe(mgl32.Vec3{0, 96, 0}, mgl32.Vec3{1, 0, 0}, 1000, Filter{Channels: ChannelAll, Ignore: "enemy"})
	if hit.ObjectID != "crate" {
		t.Fatalf("expected ignored pawn to be skipped, hit %s", hit.ObjectID)
	}
	hit, _ = w.Probe(mgl32.Vec3{0, 96, 0}, mgl32.Vec3{1, 0, 0}, 1000, Filter{Channels: ChannelAll})
	if hit.ObjectID != "enemy" || hit.Channel != ChannelPawn {
		t.Fatalf("expected enemy pawn to be the closest hit, got %s", hit.ObjectID)
	}
}

func TestProbeRejectsDegenerateRays(t *testing.T) {
	w := testWorld(t)
	if _, ok := w.Probe(mgl32.Vec3{0, 96, 0}, mgl32.Vec3{}, 1000, Filter{Channels: ChannelAll}); ok {
		t.Fatalf("zero direction must not hit")
	}
	if _, ok := w.Probe(mgl32.Vec3{0, 96, 0}, mgl32.Vec3{1, 0, 0}, 0, Filter{Channels: ChannelAll}); ok {
		t.Fatalf("zero distance must not hit")
	}
}

func TestAddObjectValidation(t *testing.T) {
	w := testWorld(t)
	if err := w.AddCover("crate", cube.Box(0, 0, 0, 1, 1, 1)); !errors.Is(err, ErrDuplicateObject) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if err := w.AddWall("", cube.Box(0, 0, 0, 1, 1, 1)); !errors.Is(err, ErrEmptyObjectID) {
		t.Fatalf("expected empty id error, got %v", err)
	}
	if !w.RemoveObject("pillar") || w.RemoveObject("pillar") {
		t.Fatalf("expected a single successful removal")
	}
}

func TestCollisions(t *testing.T) {
	w := testWorld(t)
	w.SetPawn("self", game.CapsuleBox(mgl32.Vec3{80, 96, 0}))

	hits := w.Collisions(game.CapsuleBox(mgl32.Vec3{80, 96, 0}), ChannelAll, "self")
	if len(hits) != 1 || hits[0].ID != "crate" {
		t.Fatalf("expected overlap with the crate only, got %v", hits)
	}
	if hits := w.Collisions(game.CapsuleBox(mgl32.Vec3{0, 96, 0}), ChannelWorldStatic, ""); len(hits) != 0 {
		t.Fatalf("expected no overlap, got %v", hits)
	}
}

func TestChecksumIgnoresPawns(t *testing.T) {
	a, b := testWorld(t), testWorld(t)
	if a.Checksum() != b.Checksum() {
		t.Fatalf("identical geometry must hash the same")
	}
	a.SetPawn("self", game.CapsuleBox(mgl32.Vec3{0, 96, 0}))
	if a.Checksum() != b.Checksum() {
		t.Fatalf("pawns must not affect the checksum")
	}
	_ = b.AddCover("extra", cube.Box(0, 0, 500, 10, 10, 510))
	if a.Checksum() == b.Checksum() {
		t.Fatalf("different geometry must hash differently")
	}
}

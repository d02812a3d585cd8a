package world

import (
	"slices"

	"github.com/chewxy/math32"
	"github.com/ethaniccc/float32-cube/cube/trace"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/scavenger-game/scavenger/game"
)

// Filter selects which objects a probe may hit.
type Filter struct {
	Channels Channel
	// Ignore is the ID of an object the probe passes through, usually the prober's own pawn.
	Ignore string
}

// Hit is the result of a successful probe.
type Hit struct {
	Point    mgl32.Vec3
	Normal   mgl32.Vec3
	Distance float32

	ObjectID string
	Channel  Channel
	Tags     []string
}

// HasTag returns true if the object that was hit carries the tag passed.
func (h Hit) HasTag(tag string) bool {
	return slices.Contains(h.Tags, tag)
}

// IsCover returns true if the hit object is a cover surface.
func (h Hit) IsCover() bool {
	return h.HasTag(TagCover)
}

// Probe casts a ray from origin along direction, up to maxDistance, and returns the closest object
// matching the filter that the ray hits. Objects that already contain the origin are skipped. Probe
// does not modify the world.
func (w *World) Probe(origin, direction mgl32.Vec3, maxDistance float32, filter Filter) (Hit, bool) {
	dir := game.SafeNormal(direction)
	if dir == (mgl32.Vec3{}) || maxDistance <= 0 || !game.IsFiniteVec3(origin) {
		return Hit{}, false
	}
	end := origin.Add(dir.Mul(maxDistance))

	w.RLock()
	defer w.RUnlock()

	var (
		closest Hit
		found   bool
		min     = float32(math32.MaxFloat32)
	)
	for el := w.objects.Front(); el != nil; el = el.Next() {
		o := el.Value
		if o.Channel&filter.Channels == 0 || o.ID == filter.Ignore {
			continue
		}
		if game.BoxContains(o.Box, origin) {
			continue
		}

		res, ok := trace.BBoxIntercept(o.Box, origin, end)
		if !ok {
			continue
		}
		point := res.Position()
		dist := point.Sub(origin).Len()
		if dist > maxDistance || dist >= min {
			continue
		}

		min = dist
		found = true
		closest = Hit{
			Point:    point,
			Normal:   game.FaceNormal(o.Box, point),
			Distance: dist,
			ObjectID: o.ID,
			Channel:  o.Channel,
			Tags:     o.Tags,
		}
	}
	return closest, found
}

package game

import (
	"github.com/chewxy/math32"
	"github.com/ethaniccc/float32-cube/cube"
	"github.com/go-gl/mathgl/mgl32"
)

// CapsuleBox returns the axis aligned box enclosing a character capsule centered at pos.
func CapsuleBox(pos mgl32.Vec3) cube.BBox {
	return BoxAround(pos, mgl32.Vec3{CapsuleRadius, CapsuleHalfHeight, CapsuleRadius})
}

// BoxAround returns a box centered on center with the given half extents.
func BoxAround(center, halfExtents mgl32.Vec3) cube.BBox {
	min, max := center.Sub(halfExtents), center.Add(halfExtents)
	return cube.Box(min.X(), min.Y(), min.Z(), max.X(), max.Y(), max.Z())
}

// BoxContains returns true if v lies inside (or on the surface of) the box.
func BoxContains(bb cube.BBox, v mgl32.Vec3) bool {
	min, max := bb.Min(), bb.Max()
	for i := 0; i < 3; i++ {
		if v[i] < min[i] || v[i] > max[i] {
			return false
		}
	}
	return true
}

// BoxesOverlap returns true if the two boxes overlap by a non-zero volume. Touching faces do not
// count as an overlap.
func BoxesOverlap(a, b cube.BBox) bool {
	for i := 0; i < 3; i++ {
		if a.Max()[i] <= b.Min()[i] || a.Min()[i] >= b.Max()[i] {
			return false
		}
	}
	return true
}

// AABBVectorDistance calculates the distance between an AABB and a vector.
func AABBVectorDistance(a cube.BBox, v mgl32.Vec3) float32 {
	x := math32.Max(a.Min().X()-v.X(), math32.Max(0, v.X()-a.Max().X()))
	y := math32.Max(a.Min().Y()-v.Y(), math32.Max(0, v.Y()-a.Max().Y()))
	z := math32.Max(a.Min().Z()-v.Z(), math32.Max(0, v.Z()-a.Max().Z()))

	dist := math32.Sqrt(x*x + y*y + z*z)
	if math32.IsNaN(dist) {
		dist = 0
	}
	return dist
}

// FaceNormal returns the outward normal of the face of bb that point lies on. The face whose
// plane is closest to the point wins.
func FaceNormal(bb cube.BBox, point mgl32.Vec3) mgl32.Vec3 {
	min, max := bb.Min(), bb.Max()
	best := float32(math32.MaxFloat32)
	var normal mgl32.Vec3
	for i := 0; i < 3; i++ {
		if d := math32.Abs(point[i] - min[i]); d < best {
			best = d
			normal = mgl32.Vec3{}
			normal[i] = -1
		}
		if d := math32.Abs(point[i] - max[i]); d < best {
			best = d
			normal = mgl32.Vec3{}
			normal[i] = 1
		}
	}
	return normal
}

// SweptBox returns the box covering bb over the whole of a move by delta, grown by a small margin
// so that boxes touching the path are included.
func SweptBox(bb cube.BBox, delta mgl32.Vec3) cube.BBox {
	moved := bb.Translate(delta)
	min, max := bb.Min(), bb.Max()
	for i := 0; i < 3; i++ {
		min[i] = math32.Min(min[i], moved.Min()[i]) - 0.01
		max[i] = math32.Max(max[i], moved.Max()[i]) + 0.01
	}
	return cube.Box(min.X(), min.Y(), min.Z(), max.X(), max.Y(), max.Z())
}

// BoxCenter returns the center of bb.
func BoxCenter(bb cube.BBox) mgl32.Vec3 {
	return bb.Min().Add(bb.Max()).Mul(0.5)
}

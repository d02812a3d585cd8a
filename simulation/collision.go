package simulation

import (
	"github.com/chewxy/math32"
	"github.com/ethaniccc/float32-cube/cube"
)

// contactEpsilon absorbs float drift on faces that are touching.
const contactEpsilon = 1e-4

// clipAxis clips the movement d of the moving box along axis so that it stops at the face of the
// stationary box instead of entering it. Boxes that do not overlap on the other two axes never
// clip, so a box sliding along a face is left alone.
func clipAxis(stationary, moving cube.BBox, axis int, d float32) float32 {
	if d == 0 {
		return 0
	}
	smin, smax := stationary.Min(), stationary.Max()
	mmin, mmax := moving.Min(), moving.Max()
	for i := 0; i < 3; i++ {
		if i == axis {
			continue
		}
		if mmax[i] <= smin[i]+contactEpsilon || mmin[i] >= smax[i]-contactEpsilon {
			return d
		}
	}

	if d > 0 && mmax[axis] <= smin[axis]+contactEpsilon {
		gap := math32.Max(0, smin[axis]-mmax[axis])
		if gap < d {
			return gap
		}
	} else if d < 0 && mmin[axis] >= smax[axis]-contactEpsilon {
		gap := math32.Min(0, smax[axis]-mmin[axis])
		if gap > d {
			return gap
		}
	}
	return d
}

// translateAxis moves bb by d along a single axis.
func translateAxis(bb cube.BBox, axis int, d float32) cube.BBox {
	min, max := bb.Min(), bb.Max()
	min[axis] += d
	max[axis] += d
	return cube.Box(min.X(), min.Y(), min.Z(), max.X(), max.Y(), max.Z())
}

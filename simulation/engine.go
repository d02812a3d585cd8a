package simulation

import (
	"github.com/chewxy/math32"
	"github.com/ethaniccc/float32-cube/cube"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/scavenger-game/scavenger/game"
	"github.com/scavenger-game/scavenger/world"
)

// WorldProvider gives the engine the geometry a character collides with.
type WorldProvider interface {
	Collisions(bb cube.BBox, channels world.Channel, ignore string) []world.Object
}

// Engine is a kinematic movement engine for a single character capsule, approximated by its
// bounding box. The world floor is an implicit plane at y=0.
type Engine struct {
	// ID is the ID of the character moved, so that it does not collide with its own pawn box.
	ID    string
	World WorldProvider

	pos, vel mgl32.Vec3
	yaw      float32
	maxSpeed float32

	pending   mgl32.Vec3
	forced    bool
	lastInput mgl32.Vec3

	orient      bool
	constrained bool
	planeNormal mgl32.Vec3

	walking       bool
	jumpRequested bool
}

// NewEngine returns an engine for the character with the ID passed, standing at pos.
func NewEngine(id string, w WorldProvider, pos mgl32.Vec3, yaw float32) *Engine {
	return &Engine{
		ID:       id,
		World:    w,
		pos:      pos,
		yaw:      game.NormalizeAngle(yaw),
		maxSpeed: 300,
		orient:   true,
		walking:  pos.Y()-game.CapsuleHalfHeight <= contactEpsilon,
	}
}

func (e *Engine) SetMaxSpeed(speed float32) {
	e.maxSpeed = speed
}

func (e *Engine) MaxSpeed() float32 {
	return e.maxSpeed
}

// AddMovementInput queues movement for the next step. Regular input is summed and clamped to unit
// length. Forced input replaces any regular input queued for the same step.
func (e *Engine) AddMovementInput(direction mgl32.Vec3, scale float32, force bool) {
	if !game.IsFiniteVec3(direction) || math32.IsNaN(scale) {
		return
	}
	in := direction.Mul(scale)
	switch {
	case force && !e.forced:
		e.pending, e.forced = in, true
	case force == e.forced:
		e.pending = e.pending.Add(in)
	}
}

func (e *Engine) LastInputVector() mgl32.Vec3 {
	return e.lastInput
}

func (e *Engine) SetOrientRotationToMovement(enabled bool) {
	e.orient = enabled
}

func (e *Engine) OrientRotationToMovement() bool {
	return e.orient
}

func (e *Engine) ConstrainToPlane(enabled bool, normal mgl32.Vec3) {
	e.constrained = enabled
	e.planeNormal = game.SafeNormal(normal)
	if !enabled {
		e.planeNormal = mgl32.Vec3{}
	}
}

func (e *Engine) PlaneConstrained() bool {
	return e.constrained
}

func (e *Engine) Location() mgl32.Vec3 {
	return e.pos
}

func (e *Engine) SetLocation(pos mgl32.Vec3) {
	e.pos = pos
}

func (e *Engine) Yaw() float32 {
	return e.yaw
}

func (e *Engine) SetYaw(yaw float32) {
	e.yaw = game.NormalizeAngle(yaw)
}

func (e *Engine) IsWalking() bool {
	return e.walking
}

func (e *Engine) Jump() {
	e.jumpRequested = true
}

// Velocity returns the velocity of the character after the last step.
func (e *Engine) Velocity() mgl32.Vec3 {
	return e.vel
}

// Step consumes the queued input and moves the character by one step of dt seconds. It returns the
// blocking hits against world objects encountered on the way.
func (e *Engine) Step(dt float32) []world.Hit {
	input := e.pending
	forced := e.forced
	e.pending, e.forced = mgl32.Vec3{}, false
	e.lastInput = input

	if input.Len() > 1 {
		input = input.Normalize()
	}
	hz := game.Flatten(input).Mul(e.maxSpeed)
	if e.constrained {
		hz = hz.Sub(e.planeNormal.Mul(hz.Dot(e.planeNormal)))
	}
	if e.orient && hz.LenSqr() > 1e-6 && !forced {
		e.yaw = game.RotateTowards(e.yaw, game.YawFromVector(hz), dt, game.OrientRotationRate)
	}

	e.vel[0], e.vel[2] = hz.X(), hz.Z()
	if e.jumpRequested && e.walking {
		e.vel[1] = game.JumpVelocity
		e.walking = false
	}
	e.jumpRequested = false
	e.vel[1] += game.Gravity * dt

	return e.move(e.vel.Mul(dt))
}

// move moves the character by delta, one axis at a time in Y, X, Z order.
func (e *Engine) move(delta mgl32.Vec3) []world.Hit {
	bb := game.CapsuleBox(e.pos)
	var objects []world.Object
	if e.World != nil {
		objects = e.World.Collisions(game.SweptBox(bb, delta), world.ChannelAll, e.ID)
	}

	var hits []world.Hit
	var yCollision bool
	for _, axis := range [3]int{1, 0, 2} {
		d := delta[axis]
		var blocker *world.Object
		for i := range objects {
			if clipped := clipAxis(objects[i].Box, bb, axis, d); clipped != d {
				d = clipped
				blocker = &objects[i]
			}
		}
		if axis == 1 && bb.Min().Y()+d < 0 {
			d = -bb.Min().Y()
			blocker = nil
			yCollision = true
		}
		if d != delta[axis] {
			if axis == 1 {
				yCollision = true
			}
			e.vel[axis] = 0
		}
		bb = translateAxis(bb, axis, d)

		if blocker != nil {
			hits = append(hits, contact(*blocker, bb, axis, delta[axis], d))
		}
	}

	e.walking = yCollision && delta.Y() < 0
	e.pos = game.BoxCenter(bb)
	return hits
}

// contact builds the hit of the moving box bb against o, found while moving along axis.
func contact(o world.Object, bb cube.BBox, axis int, d, moved float32) world.Hit {
	normal := mgl32.Vec3{}
	point := game.BoxCenter(bb)
	if d > 0 {
		normal[axis] = -1
		point[axis] = bb.Max()[axis]
	} else {
		normal[axis] = 1
		point[axis] = bb.Min()[axis]
	}
	return world.Hit{
		Point:    point,
		Normal:   normal,
		Distance: math32.Abs(moved),
		ObjectID: o.ID,
		Channel:  o.Channel,
		Tags:     o.Tags,
	}
}

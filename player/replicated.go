package player

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Replicated is the part of a character's state the authority sends to every other copy of the
// character.
type Replicated struct {
	Cover            CoverState
	Crouched         bool
	CoverFacingRight bool
	PoppedOut        bool
	CoverDirection   mgl32.Vec3

	OnEdgeLeft, OnEdgeRight             bool
	EdgeAdjustedLeft, EdgeAdjustedRight bool

	Dashing       bool
	DashDirection mgl32.Vec3
	Running       bool

	IsAiming bool
	IsDead   bool
	AimPitch float32
	AimYaw   float32

	Location mgl32.Vec3
	Yaw      float32
}

// Replicated returns the replicated state of the character.
func (c *Character) Replicated() Replicated {
	s := c.state
	cover := s.Cover
	if cover == CoverEntering {
		cover = CoverFree
	} else if cover == CoverExiting {
		cover = CoverIn
	}
	return Replicated{
		Cover:            cover,
		Crouched:         s.Crouched,
		CoverFacingRight: s.CoverFacingRight,
		PoppedOut:        s.PoppedOut,
		CoverDirection:   s.CoverDirection,

		OnEdgeLeft:        s.OnEdgeLeft,
		OnEdgeRight:       s.OnEdgeRight,
		EdgeAdjustedLeft:  s.EdgeAdjustedLeft,
		EdgeAdjustedRight: s.EdgeAdjustedRight,

		Dashing:       s.Dashing,
		DashDirection: s.DashDirection,
		Running:       s.Running,

		IsAiming: s.IsAiming,
		IsDead:   s.IsDead,
		AimPitch: s.AimPitch,
		AimYaw:   s.AimYaw,

		Location: c.engine.Location(),
		Yaw:      c.engine.Yaw(),
	}
}

// ApplyReplicated overwrites the state of a non-authoritative copy with the authoritative state.
// Local predictions are discarded, not merged. The controlled copy only has its location corrected
// once it drifts further than the correction threshold, and keeps its own aim.
func (c *Character) ApplyReplicated(r Replicated) {
	if c.authority {
		return
	}
	s := &c.state
	wasInCover := s.InCover()

	// Keep a local hold count running, the tag only tells whether the character is in cover.
	if r.Cover == CoverIn && !s.InCover() || r.Cover == CoverFree && s.InCover() {
		s.Cover = r.Cover
		s.CoverTimer = 0
	}
	s.Crouched = r.Crouched
	s.CoverFacingRight = r.CoverFacingRight
	s.PoppedOut = r.PoppedOut
	s.CoverDirection = r.CoverDirection
	s.OnEdgeLeft, s.OnEdgeRight = r.OnEdgeLeft, r.OnEdgeRight
	s.EdgeAdjustedLeft, s.EdgeAdjustedRight = r.EdgeAdjustedLeft, r.EdgeAdjustedRight
	s.Dashing = r.Dashing
	s.DashDirection = r.DashDirection
	s.Running = r.Running
	s.IsAiming = r.IsAiming
	s.IsDead = r.IsDead

	if !c.controlled {
		s.AimPitch, s.AimYaw = r.AimPitch, r.AimYaw
		c.engine.SetLocation(r.Location)
		c.engine.SetYaw(r.Yaw)
	} else if c.engine.Location().Sub(r.Location).Len() > c.correctionThreshold {
		c.debug("location corrected", "from", c.engine.Location(), "to", r.Location)
		c.engine.SetLocation(r.Location)
	}

	if inCover := s.InCover(); inCover != wasInCover || inCover != c.engine.PlaneConstrained() {
		if inCover {
			s.LastStableCoverPosition = c.engine.Location()
			c.engine.ConstrainToPlane(true, s.CoverDirection)
			c.engine.SetOrientRotationToMovement(false)
		} else {
			c.engine.ConstrainToPlane(false, mgl32.Vec3{})
			c.engine.SetOrientRotationToMovement(!s.UseControllerYaw)
		}
	}
}

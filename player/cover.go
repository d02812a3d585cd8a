package player

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/scavenger-game/scavenger/game"
	"github.com/scavenger-game/scavenger/world"
)

// coverContact returns true if hit is a cover surface the character is pushing into at an angle
// shallow enough to take cover against it.
func (c *Character) coverContact(hit world.Hit) bool {
	if !hit.IsCover() {
		return false
	}
	normal := game.SafeNormal(game.Flatten(hit.Normal))
	move := game.SafeNormal(game.Flatten(c.engine.LastInputVector()))
	if normal == (mgl32.Vec3{}) || move == (mgl32.Vec3{}) {
		return false
	}
	return game.AngleBetween(move, normal.Mul(-1)) < c.conf.MaxCoverAngle
}

// probeCover returns true if a ray from origin along direction hits cover within the sense
// distance.
func (c *Character) probeCover(origin, direction mgl32.Vec3) bool {
	hit, ok := c.prober.Probe(origin, direction, c.conf.CoverSenseDistance, world.Filter{
		Channels: world.ChannelWorldStatic,
		Ignore:   c.id,
	})
	return ok && hit.IsCover()
}

// coverIsStandable returns true if the cover in front of the character is tall enough for it to
// stand behind.
func (c *Character) coverIsStandable(pos, direction mgl32.Vec3) bool {
	return c.probeCover(pos.Add(mgl32.Vec3{0, game.HeadroomOffset, 0}), direction)
}

// enterCover attempts to put the character in cover against the surface in coverDirection. The
// attempt is dropped unless cover is found on both sides of the character.
func (c *Character) enterCover(lastMove, coverDirection mgl32.Vec3) {
	s := &c.state
	if s.InCover() || s.Dashing || s.IsDead {
		return
	}
	dir := game.SafeNormal(game.Flatten(coverDirection))
	if dir == (mgl32.Vec3{}) || !c.engine.IsWalking() {
		return
	}

	pos := c.engine.Location()
	right := game.RightVector(c.engine.Yaw()).Mul(c.conf.CoverHalfWidth)
	origin := pos.Add(game.Flatten(lastMove))
	if !c.probeCover(origin.Sub(right), dir) || !c.probeCover(origin.Add(right), dir) {
		s.Cover = CoverFree
		c.debug("cover entry rejected", "pos", game.RoundVec32(pos, 2), "dir", game.RoundVec32(dir, 3))
		return
	}

	s.Cover = CoverIn
	s.CoverTimer = 0
	s.CoverDirection = dir
	s.LastStableCoverPosition = pos
	s.Crouched = !c.coverIsStandable(pos, dir)
	c.startWalk()

	c.engine.SetOrientRotationToMovement(false)
	c.engine.ConstrainToPlane(true, dir)
	c.debug("entered cover", "pos", game.RoundVec32(pos, 2), "dir", game.RoundVec32(dir, 3), "crouched", s.Crouched)
}

// exitCover takes the character out of cover and clears all cover flags.
func (c *Character) exitCover() {
	s := &c.state
	s.Cover = CoverFree
	s.CoverTimer = 0
	s.Crouched = false
	s.PoppedOut = false
	s.OnEdgeLeft, s.OnEdgeRight = false, false
	s.EdgeAdjustedLeft, s.EdgeAdjustedRight = false, false

	c.engine.SetOrientRotationToMovement(!s.UseControllerYaw)
	c.engine.ConstrainToPlane(false, mgl32.Vec3{})
	c.debug("exited cover", "pos", game.RoundVec32(c.engine.Location(), 2))
}

// stickToCover keeps a character in cover facing the cover and on the cover segment.
func (c *Character) stickToCover(dt float32) {
	s := &c.state
	c.engine.SetYaw(game.RotateTowards(c.engine.Yaw(), game.YawFromVector(s.CoverDirection), dt, game.CoverRotationRate))
	right := game.RightVector(c.engine.Yaw())

	if move := c.engine.LastInputVector(); move != (mgl32.Vec3{}) && !s.PoppedOut {
		facingRight := game.AngleBetween(move, right) < game.AngleBetween(move, right.Mul(-1))
		if facingRight != s.CoverFacingRight {
			s.CoverFacingRight = facingRight
			c.server.SetCoverState(facingRight, s.PoppedOut)
		}
	}

	if !c.authority {
		return
	}

	pos := c.engine.Location()
	narrow := right.Mul(c.conf.CoverHalfWidth)
	s.OnEdgeLeft = !c.probeCover(pos.Sub(narrow), s.CoverDirection)
	s.OnEdgeRight = !c.probeCover(pos.Add(narrow), s.CoverDirection)
	if s.OnEdgeLeft || s.OnEdgeRight {
		c.engine.SetLocation(s.LastStableCoverPosition)
	}
	if s.OnEdgeLeft && s.OnEdgeRight {
		c.debug("lost cover on both edges")
		c.exitCover()
		return
	}

	pos = c.engine.Location()
	wide := right.Mul(c.conf.CoverHalfWidth * game.EdgeAdjustScale)
	adjustedLeft := !c.probeCover(pos.Sub(wide), s.CoverDirection)
	adjustedRight := !c.probeCover(pos.Add(wide), s.CoverDirection)
	if adjustedLeft && adjustedRight {
		c.debug("cover too narrow", "pos", game.RoundVec32(pos, 2))
		c.exitCover()
		c.client.UpdateEdges(false, false)
		return
	}
	if adjustedLeft != s.EdgeAdjustedLeft || adjustedRight != s.EdgeAdjustedRight {
		c.client.UpdateEdges(adjustedLeft, adjustedRight)
	}
	s.EdgeAdjustedLeft, s.EdgeAdjustedRight = adjustedLeft, adjustedRight

	if !s.OnEdgeLeft && !s.OnEdgeRight {
		s.LastStableCoverPosition = pos
	}
	s.Crouched = !c.coverIsStandable(pos, s.CoverDirection)
}

// setCoverState applies a facing and pop-out request from the controlling client. Popping out is
// only accepted in cover, towards an edge the character may peek past.
func (c *Character) setCoverState(facingRight, poppedOut bool) {
	s := &c.state
	if !s.InCover() {
		return
	}
	if poppedOut {
		if (facingRight && !s.EdgeAdjustedRight) || (!facingRight && !s.EdgeAdjustedLeft) {
			c.debug("pop out rejected", "facingRight", facingRight)
			return
		}
		if !s.PoppedOut {
			c.debug("popped out", "facingRight", facingRight)
		}
	}
	s.CoverFacingRight = facingRight
	s.PoppedOut = poppedOut
}

package player

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/scavenger-game/scavenger/game"
)

// allowMovement returns true if the character may move in the direction passed this tick. In cover,
// movement that would carry the character past an edge it can peek around is refused.
func (c *Character) allowMovement(direction mgl32.Vec3) bool {
	s := &c.state
	if s.IsDead || s.PoppedOut || s.Dashing {
		return false
	}
	if !s.InCover() {
		return true
	}

	right := game.RightVector(c.engine.Yaw())
	switch {
	case s.EdgeAdjustedLeft && game.AngleBetween(direction, right.Mul(-1)) < 90:
		return false
	case s.EdgeAdjustedRight && game.AngleBetween(direction, right) < 90:
		return false
	}
	return true
}

// pullAway counts the ticks a character in cover has been pulling away from it, and takes it out of
// cover once the hold time is reached. The count resets on any tick the character is not pulling
// away.
func (c *Character) pullAway() {
	s := &c.state
	if !s.InCover() {
		return
	}
	move := game.Flatten(c.engine.LastInputVector())
	if move == (mgl32.Vec3{}) || game.AngleBetween(move, s.CoverDirection.Mul(-1)) > c.conf.MaxCoverAngle {
		s.CoverTimer = 0
		s.Cover = CoverIn
		return
	}

	s.CoverTimer++
	s.Cover = CoverExiting
	if s.CoverTimer >= c.conf.EnterCoverHoldTime {
		s.CoverTimer = 0
		s.Cover = CoverIn
		c.server.ExitCover()
	}
}

package player

import (
	"github.com/go-gl/mathgl/mgl32"
)

// AuthorityCommands are the requests a character's controller makes of the authoritative copy of
// that character. They are only applied when they reach the authoritative copy: the client side
// implementation forwards them over the network.
type AuthorityCommands interface {
	StartRun()
	StartWalk()
	// EnterCover asks to enter cover along coverDirection, probing from the position offset by
	// lastMove.
	EnterCover(lastMove, coverDirection mgl32.Vec3)
	ExitCover()
	StartAim()
	StopAim()
	StartDash()
	StopDash()
	Die()
	SetAimPitch(pitch float32)
	SetAimYaw(yaw float32)
	SetCoverState(facingRight, poppedOut bool)
	AdjustLocation(pos mgl32.Vec3)
}

// ClientCommands are pushed by the authoritative copy to the client that controls the character.
// They are applied unconditionally.
type ClientCommands interface {
	UpdateWalkSpeed(speed float32)
	UpdateEdges(left, right bool)
}

// NopAuthority is an AuthorityCommands implementation that drops every request.
type NopAuthority struct{}

func (NopAuthority) StartRun()                   {}
func (NopAuthority) StartWalk()                  {}
func (NopAuthority) EnterCover(_, _ mgl32.Vec3)  {}
func (NopAuthority) ExitCover()                  {}
func (NopAuthority) StartAim()                   {}
func (NopAuthority) StopAim()                    {}
func (NopAuthority) StartDash()                  {}
func (NopAuthority) StopDash()                   {}
func (NopAuthority) Die()                        {}
func (NopAuthority) SetAimPitch(float32)         {}
func (NopAuthority) SetAimYaw(float32)           {}
func (NopAuthority) SetCoverState(_, _ bool)     {}
func (NopAuthority) AdjustLocation(_ mgl32.Vec3) {}

// NopClient is a ClientCommands implementation that drops every push.
type NopClient struct{}

func (NopClient) UpdateWalkSpeed(float32) {}
func (NopClient) UpdateEdges(_, _ bool)   {}

// authorityHandler applies AuthorityCommands to the character it wraps. Requests are ignored if the
// character is not the authoritative copy.
type authorityHandler struct {
	c *Character
}

func (h authorityHandler) StartRun() {
	if h.c.authority {
		h.c.startRun()
	}
}

func (h authorityHandler) StartWalk() {
	if h.c.authority {
		h.c.startWalk()
	}
}

func (h authorityHandler) EnterCover(lastMove, coverDirection mgl32.Vec3) {
	if h.c.authority {
		h.c.enterCover(lastMove, coverDirection)
	}
}

func (h authorityHandler) ExitCover() {
	if h.c.authority && h.c.state.InCover() {
		h.c.exitCover()
	}
}

func (h authorityHandler) StartAim() {
	if h.c.authority {
		h.c.startAim()
	}
}

func (h authorityHandler) StopAim() {
	if h.c.authority {
		h.c.stopAim()
	}
}

func (h authorityHandler) StartDash() {
	if h.c.authority {
		h.c.startDash()
	}
}

func (h authorityHandler) StopDash() {
	if h.c.authority && h.c.state.Dashing {
		h.c.stopDash()
	}
}

func (h authorityHandler) Die() {
	if h.c.authority {
		h.c.state.IsDead = true
		h.c.debug("died")
	}
}

func (h authorityHandler) SetAimPitch(pitch float32) {
	if h.c.authority {
		h.c.state.AimPitch = pitch
	}
}

func (h authorityHandler) SetAimYaw(yaw float32) {
	if h.c.authority {
		h.c.state.AimYaw = yaw
	}
}

func (h authorityHandler) SetCoverState(facingRight, poppedOut bool) {
	if h.c.authority {
		h.c.setCoverState(facingRight, poppedOut)
	}
}

func (h authorityHandler) AdjustLocation(pos mgl32.Vec3) {
	if h.c.authority {
		h.c.engine.SetLocation(pos)
	}
}

// clientHandler applies ClientCommands pushed to the character it wraps.
type clientHandler struct {
	c *Character
}

func (h clientHandler) UpdateWalkSpeed(speed float32) {
	h.c.engine.SetMaxSpeed(speed)
}

func (h clientHandler) UpdateEdges(left, right bool) {
	h.c.state.EdgeAdjustedLeft, h.c.state.EdgeAdjustedRight = left, right
}

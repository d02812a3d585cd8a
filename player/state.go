package player

import (
	"github.com/go-gl/mathgl/mgl32"
)

// CoverState is the top level state of the cover state machine.
type CoverState uint8

const (
	// CoverFree is the state of a character that is not touching cover in a way that would let it
	// take cover.
	CoverFree CoverState = iota
	// CoverEntering is held while the character pushes into a cover surface, before the entry
	// hold time has elapsed.
	CoverEntering
	// CoverIn is the state of a character that is in cover.
	CoverIn
	// CoverExiting is held while a character in cover pulls away from it, before the hold time
	// has elapsed. The character is still in cover.
	CoverExiting
)

func (s CoverState) String() string {
	switch s {
	case CoverFree:
		return "Free"
	case CoverEntering:
		return "Entering"
	case CoverIn:
		return "InCover"
	case CoverExiting:
		return "Exiting"
	}
	return "Unknown"
}

// CoverSubState refines CoverIn by where the character is on the cover segment.
type CoverSubState uint8

const (
	CoverCentered CoverSubState = iota
	CoverEdgeLeft
	CoverEdgeRight
	CoverPoppedOutLeft
	CoverPoppedOutRight
)

func (s CoverSubState) String() string {
	return [...]string{"Centered", "EdgeLeft", "EdgeRight", "PoppedOutLeft", "PoppedOutRight"}[s]
}

// DashPhase is the state of the dash ability.
type DashPhase uint8

const (
	DashIdle DashPhase = iota
	DashActive
	DashCooldown
)

func (p DashPhase) String() string {
	return [...]string{"Idle", "Dashing", "Cooldown"}[p]
}

// State is the movement state of a character owned by the cover, dash and aim logic. Position and
// rotation are owned by the movement engine.
type State struct {
	Cover CoverState
	// CoverDirection points from the character into the cover surface it is in cover against. It
	// is only meaningful while in cover, and only changes when cover is entered.
	CoverDirection mgl32.Vec3
	// CoverTimer counts ticks the entry or the exit condition has been held for.
	CoverTimer int

	Crouched         bool
	CoverFacingRight bool
	PoppedOut        bool

	// OnEdgeLeft and OnEdgeRight are set while the character is physically at the end of the
	// cover segment on that side.
	OnEdgeLeft, OnEdgeRight bool
	// EdgeAdjustedLeft and EdgeAdjustedRight are set while the character is close enough to the
	// end of the segment on that side to peek past it.
	EdgeAdjustedLeft, EdgeAdjustedRight bool

	LastStableCoverPosition mgl32.Vec3

	Dashing           bool
	DashDirection     mgl32.Vec3
	DashTimer         int
	DashCooldownTimer int

	Running       bool
	RunKeyPressed bool

	IsAiming         bool
	IsDead           bool
	UseControllerYaw bool

	AimPitch, AimYaw float32
	// AimTarget is the point under the crosshair, and AimTargetPawn the ID of the character under
	// it, if any. Both are informational.
	AimTarget     mgl32.Vec3
	AimTargetPawn string
}

// InCover returns true if the character is in cover, including while it is pulling away.
func (s State) InCover() bool {
	return s.Cover == CoverIn || s.Cover == CoverExiting
}

// CoverSub returns where on the cover segment the character is. The result is only meaningful while
// in cover.
func (s State) CoverSub() CoverSubState {
	switch {
	case s.PoppedOut && s.CoverFacingRight:
		return CoverPoppedOutRight
	case s.PoppedOut:
		return CoverPoppedOutLeft
	case s.EdgeAdjustedLeft:
		return CoverEdgeLeft
	case s.EdgeAdjustedRight:
		return CoverEdgeRight
	}
	return CoverCentered
}

// DashPhase returns the phase the dash ability is in, given the cooldown it is configured with.
func (s State) DashPhase(cooldown int) DashPhase {
	if s.Dashing {
		return DashActive
	}
	if s.DashCooldownTimer < cooldown {
		return DashCooldown
	}
	return DashIdle
}

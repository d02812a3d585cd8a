package replication

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/scavenger-game/scavenger/player"
)

// Op identifies what a frame carries.
type Op uint8

const (
	OpHello Op = iota + 1
	OpMove

	OpStartRun
	OpStartWalk
	OpEnterCover
	OpExitCover
	OpStartAim
	OpStopAim
	OpStartDash
	OpStopDash
	OpDie
	OpSetAimPitch
	OpSetAimYaw
	OpSetCoverState
	OpAdjustLocation

	OpUpdateWalkSpeed
	OpUpdateEdges

	OpField
	OpRemove
)

var opNames = map[Op]string{
	OpHello:           "Hello",
	OpMove:            "Move",
	OpStartRun:        "StartRun",
	OpStartWalk:       "StartWalk",
	OpEnterCover:      "EnterCover",
	OpExitCover:       "ExitCover",
	OpStartAim:        "StartAim",
	OpStopAim:         "StopAim",
	OpStartDash:       "StartDash",
	OpStopDash:        "StopDash",
	OpDie:             "Die",
	OpSetAimPitch:     "SetAimPitch",
	OpSetAimYaw:       "SetAimYaw",
	OpSetCoverState:   "SetCoverState",
	OpAdjustLocation:  "AdjustLocation",
	OpUpdateWalkSpeed: "UpdateWalkSpeed",
	OpUpdateEdges:     "UpdateEdges",
	OpField:           "Field",
	OpRemove:          "Remove",
}

func (op Op) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return "Unknown"
}

// Ordering keys of client requests. Requests sharing a key cancel each other out, so only the
// latest of them is ever applied.
const (
	KeyMove       = "move"
	KeyRun        = "run"
	KeyCover      = "cover"
	KeyAim        = "aim"
	KeyDash       = "dash"
	KeyDie        = "die"
	KeyAimPitch   = "aim_pitch"
	KeyAimYaw     = "aim_yaw"
	KeyCoverState = "cover_state"
	KeyLocation   = "location"

	KeyHello     = "hello"
	KeyWalkSpeed = "walk_speed"
	KeyEdges     = "edges"
	KeyRemove    = "remove"
)

// Frame is a single message on a Channel. Frames are ordered per Target and Key: a frame older
// than the last one delivered with the same Target and Key is dropped.
type Frame struct {
	Seq    uint32 `msgpack:"s"`
	Op     Op     `msgpack:"o"`
	Target string `msgpack:"t,omitempty"`
	Key    string `msgpack:"k"`
	Body   []byte `msgpack:"b,omitempty"`
}

// Packet is the unit written to a Link. Ack acknowledges every frame up to and including that
// sequence number.
type Packet struct {
	Ack    uint32  `msgpack:"a"`
	Frames []Frame `msgpack:"f,omitempty"`
}

// HelloMessage is sent by the server when a client joins, naming the character it controls.
type HelloMessage struct {
	CharacterID string     `msgpack:"id"`
	Checksum    uint64     `msgpack:"checksum"`
	Location    mgl32.Vec3 `msgpack:"location"`
	Yaw         float32    `msgpack:"yaw"`
}

// MoveMessage is a tick of movement input.
type MoveMessage struct {
	Forward      float32 `msgpack:"f"`
	Right        float32 `msgpack:"r"`
	ControlPitch float32 `msgpack:"p"`
	ControlYaw   float32 `msgpack:"y"`
	Jump         bool    `msgpack:"j,omitempty"`
}

func newMoveMessage(m player.MoveInput) MoveMessage {
	return MoveMessage{
		Forward:      m.Forward,
		Right:        m.Right,
		ControlPitch: m.ControlPitch,
		ControlYaw:   m.ControlYaw,
		Jump:         m.Jump,
	}
}

// Input returns the movement input the message carries.
func (m MoveMessage) Input() player.MoveInput {
	return player.MoveInput{
		Forward:      m.Forward,
		Right:        m.Right,
		ControlPitch: m.ControlPitch,
		ControlYaw:   m.ControlYaw,
		Jump:         m.Jump,
	}
}

type EnterCoverMessage struct {
	LastMove       mgl32.Vec3 `msgpack:"move"`
	CoverDirection mgl32.Vec3 `msgpack:"dir"`
}

type CoverStateMessage struct {
	FacingRight bool `msgpack:"right"`
	PoppedOut   bool `msgpack:"popped"`
}

// AngleMessage carries an aim pitch or yaw, in degrees.
type AngleMessage struct {
	Value float32 `msgpack:"v"`
}

type LocationMessage struct {
	Position mgl32.Vec3 `msgpack:"pos"`
}

type WalkSpeedMessage struct {
	Speed float32 `msgpack:"speed"`
}

type EdgesMessage struct {
	Left  bool `msgpack:"left"`
	Right bool `msgpack:"right"`
}

package replication

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/scavenger-game/scavenger/player"
	"github.com/scavenger-game/scavenger/settings"
	"github.com/sirupsen/logrus"
	"github.com/vmihailenco/msgpack/v5"
)

// ClientOptions configure a ClientEndpoint.
type ClientOptions struct {
	Log      *logrus.Logger
	Settings settings.Settings

	// Mirror returns the local copy of the remote character with the ID passed, creating it if
	// needed. Updates of characters it returns nil for are kept but not applied.
	Mirror func(id string) *player.Character
	// Removed is called when the server stops replicating a character.
	Removed func(id string)
}

// ClientEndpoint is the client end of a session. It forwards the requests of the controlled
// character to the server, and applies what the server replicates to the local copies of
// characters.
//
// ClientEndpoint implements player.AuthorityCommands.
type ClientEndpoint struct {
	ch  *Channel
	log *logrus.Logger

	hello *HelloMessage
	char  *player.Character

	states  map[string]*player.Replicated
	mirror  func(id string) *player.Character
	removed func(id string)

	// Aim is sent every tick by the controlled character, only changes are forwarded.
	lastPitch, lastYaw *float32

	err error
}

// NewClientEndpoint creates the client end of a session over link.
func NewClientEndpoint(link Link, opts ClientOptions) *ClientEndpoint {
	if opts.Log == nil {
		opts.Log = logrus.New()
		opts.Log.SetLevel(logrus.PanicLevel)
	}
	return &ClientEndpoint{
		ch: NewChannel(link, ChannelOptions{
			Log:              opts.Log,
			MaxPendingFrames: opts.Settings.Network.MaxPendingFrames,
			ResendInterval:   opts.Settings.Network.ResendInterval,
		}),
		log:     opts.Log,
		states:  make(map[string]*player.Replicated),
		mirror:  opts.Mirror,
		removed: opts.Removed,
	}
}

// Hello returns the greeting of the server, once it was received.
func (e *ClientEndpoint) Hello() (HelloMessage, bool) {
	if e.hello == nil {
		return HelloMessage{}, false
	}
	return *e.hello, true
}

// Bind sets the controlled character of the client. Its requests are sent through the endpoint,
// and the state the server replicates for it is applied to it.
func (e *ClientEndpoint) Bind(c *player.Character) {
	e.char = c
	c.SetAuthority(e)
	if st, ok := e.states[c.ID()]; ok {
		c.ApplyReplicated(*st)
	}
}

// State returns the last replicated state of the character with the ID passed.
func (e *ClientEndpoint) State(id string) (player.Replicated, bool) {
	st, ok := e.states[id]
	if !ok {
		return player.Replicated{}, false
	}
	return *st, true
}

func (e *ClientEndpoint) Channel() *Channel {
	return e.ch
}

// Poll handles the frames received from the server.
func (e *ClientEndpoint) Poll() error {
	frames, err := e.ch.Poll()

	dirty := make(map[string]struct{})
	for _, f := range frames {
		switch f.Op {
		case OpHello:
			var m HelloMessage
			if e.decode(f, &m) {
				e.hello = &m
			}
		case OpField:
			st, ok := e.states[f.Target]
			if !ok {
				st = &player.Replicated{}
				e.states[f.Target] = st
			}
			if err := applyField(st, f.Key, f.Body); err != nil {
				e.log.Debugf("replication: field %s of %s: %v", f.Key, f.Target, err)
				continue
			}
			dirty[f.Target] = struct{}{}
		case OpRemove:
			delete(e.states, f.Target)
			delete(dirty, f.Target)
			if e.removed != nil {
				e.removed(f.Target)
			}
		case OpUpdateWalkSpeed:
			var m WalkSpeedMessage
			if e.decode(f, &m) && e.char != nil {
				e.char.ClientHandler().UpdateWalkSpeed(m.Speed)
			}
		case OpUpdateEdges:
			var m EdgesMessage
			if e.decode(f, &m) && e.char != nil {
				e.char.ClientHandler().UpdateEdges(m.Left, m.Right)
			}
		default:
			e.log.Debugf("replication: unexpected %v frame from server", f.Op)
		}
	}

	for id := range dirty {
		st := e.states[id]
		if e.char != nil && id == e.char.ID() {
			e.char.ApplyReplicated(*st)
			continue
		}
		if e.mirror == nil {
			continue
		}
		if m := e.mirror(id); m != nil {
			m.ApplyReplicated(*st)
		}
	}

	if err != nil {
		return err
	}
	return e.err
}

func (e *ClientEndpoint) decode(f Frame, v any) bool {
	if err := msgpack.Unmarshal(f.Body, v); err != nil {
		e.log.Debugf("replication: malformed %v frame: %v", f.Op, err)
		return false
	}
	return true
}

// SendMove sends a tick of movement input of the controlled character.
func (e *ClientEndpoint) SendMove(m player.MoveInput) {
	e.send(OpMove, KeyMove, newMoveMessage(m))
}

// Flush writes everything queued for the server.
func (e *ClientEndpoint) Flush() error {
	if err := e.ch.Flush(); err != nil {
		return err
	}
	return e.err
}

func (e *ClientEndpoint) Close() error {
	return e.ch.Close()
}

func (e *ClientEndpoint) send(op Op, key string, body any) {
	target := ""
	if e.char != nil {
		target = e.char.ID()
	}
	if err := e.ch.Send(op, target, key, body); err != nil && e.err == nil {
		e.err = err
	}
}

func (e *ClientEndpoint) StartRun()  { e.send(OpStartRun, KeyRun, nil) }
func (e *ClientEndpoint) StartWalk() { e.send(OpStartWalk, KeyRun, nil) }

func (e *ClientEndpoint) EnterCover(lastMove, coverDirection mgl32.Vec3) {
	e.send(OpEnterCover, KeyCover, EnterCoverMessage{LastMove: lastMove, CoverDirection: coverDirection})
}

func (e *ClientEndpoint) ExitCover() { e.send(OpExitCover, KeyCover, nil) }
func (e *ClientEndpoint) StartAim()  { e.send(OpStartAim, KeyAim, nil) }
func (e *ClientEndpoint) StopAim()   { e.send(OpStopAim, KeyAim, nil) }
func (e *ClientEndpoint) StartDash() { e.send(OpStartDash, KeyDash, nil) }
func (e *ClientEndpoint) StopDash()  { e.send(OpStopDash, KeyDash, nil) }
func (e *ClientEndpoint) Die()       { e.send(OpDie, KeyDie, nil) }

func (e *ClientEndpoint) SetAimPitch(pitch float32) {
	if e.lastPitch != nil && *e.lastPitch == pitch {
		return
	}
	e.lastPitch = &pitch
	e.send(OpSetAimPitch, KeyAimPitch, AngleMessage{Value: pitch})
}

func (e *ClientEndpoint) SetAimYaw(yaw float32) {
	if e.lastYaw != nil && *e.lastYaw == yaw {
		return
	}
	e.lastYaw = &yaw
	e.send(OpSetAimYaw, KeyAimYaw, AngleMessage{Value: yaw})
}

func (e *ClientEndpoint) SetCoverState(facingRight, poppedOut bool) {
	e.send(OpSetCoverState, KeyCoverState, CoverStateMessage{FacingRight: facingRight, PoppedOut: poppedOut})
}

func (e *ClientEndpoint) AdjustLocation(pos mgl32.Vec3) {
	e.send(OpAdjustLocation, KeyLocation, LocationMessage{Position: pos})
}

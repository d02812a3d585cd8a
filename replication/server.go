package replication

import (
	"github.com/scavenger-game/scavenger/oerror"
	"github.com/scavenger-game/scavenger/player"
	"github.com/scavenger-game/scavenger/settings"
	"github.com/scavenger-game/scavenger/utils"
	"github.com/sirupsen/logrus"
	"github.com/vmihailenco/msgpack/v5"
)

var (
	ErrTooManyViolations = oerror.New("replication: client exceeded the violation limit")
	errUnknownField      = oerror.New("replication: unknown field")
	errUnexpectedOp      = oerror.New("replication: unexpected op")
)

// maxQueuedMoves is the amount of movement inputs buffered for a character when the client sends
// them faster than the server ticks.
const maxQueuedMoves = 8

// ServerEndpoint is the server end of the session of a client. It applies the client's requests to
// the authoritative copy of its character, and replicates characters back to the client.
//
// ServerEndpoint implements player.ClientCommands, so the authoritative character can push
// updates to its client through it.
type ServerEndpoint struct {
	ch   *Channel
	log  *logrus.Logger
	char *player.Character

	validator *Validator
	moves     *utils.CircularQueue[MoveMessage]

	// sent holds the last replicated state sent of every character the client knows of.
	sent map[string]player.Replicated
	err  error
}

// NewServerEndpoint creates the server end of a session over link, controlling the authoritative
// character passed. The character's client pushes are routed through the endpoint.
func NewServerEndpoint(link Link, char *player.Character, log *logrus.Logger, s settings.Settings) *ServerEndpoint {
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.PanicLevel)
	}
	e := &ServerEndpoint{
		ch: NewChannel(link, ChannelOptions{
			Log:              log,
			MaxPendingFrames: s.Network.MaxPendingFrames,
			ResendInterval:   s.Network.ResendInterval,
		}),
		log:       log,
		char:      char,
		validator: NewValidator(char.ID(), log, s),
		moves:     utils.NewCircularQueue[MoveMessage](maxQueuedMoves, nil),
		sent:      make(map[string]player.Replicated),
	}
	char.SetClient(e)
	return e
}

// Hello tells the client which character it controls.
func (e *ServerEndpoint) Hello(checksum uint64) error {
	return e.ch.Send(OpHello, e.char.ID(), KeyHello, HelloMessage{
		CharacterID: e.char.ID(),
		Checksum:    checksum,
		Location:    e.char.Engine().Location(),
		Yaw:         e.char.Engine().Yaw(),
	})
}

// Character returns the authoritative character of the session.
func (e *ServerEndpoint) Character() *player.Character {
	return e.char
}

// Validator returns the validator requests of the session pass through.
func (e *ServerEndpoint) Validator() *Validator {
	return e.validator
}

func (e *ServerEndpoint) Channel() *Channel {
	return e.ch
}

// Poll handles the frames received from the client. An error is returned if the session should be
// closed.
func (e *ServerEndpoint) Poll() error {
	e.validator.Tick()

	frames, err := e.ch.Poll()
	for _, f := range frames {
		if !e.validator.AllowFrame() {
			continue
		}
		e.handle(f)
	}
	if err != nil {
		return err
	}
	if e.validator.Exceeded() {
		return ErrTooManyViolations
	}
	return e.err
}

func (e *ServerEndpoint) handle(f Frame) {
	h := e.char.AuthorityHandler()
	switch f.Op {
	case OpMove:
		var m MoveMessage
		if e.decode(f, &m) && e.validator.Move(&m) {
			_ = e.moves.Append(m)
		}
	case OpStartRun:
		h.StartRun()
	case OpStartWalk:
		h.StartWalk()
	case OpEnterCover:
		var m EnterCoverMessage
		if e.decode(f, &m) && e.validator.EnterCover(m) {
			h.EnterCover(m.LastMove, m.CoverDirection)
		}
	case OpExitCover:
		h.ExitCover()
	case OpStartAim:
		h.StartAim()
	case OpStopAim:
		h.StopAim()
	case OpStartDash:
		h.StartDash()
	case OpStopDash:
		h.StopDash()
	case OpDie:
		h.Die()
	case OpSetAimPitch:
		var m AngleMessage
		if e.decode(f, &m) {
			if pitch, ok := e.validator.Pitch(m.Value); ok {
				h.SetAimPitch(pitch)
			}
		}
	case OpSetAimYaw:
		var m AngleMessage
		if e.decode(f, &m) {
			if yaw, ok := e.validator.Yaw(m.Value); ok {
				h.SetAimYaw(yaw)
			}
		}
	case OpSetCoverState:
		var m CoverStateMessage
		if e.decode(f, &m) {
			h.SetCoverState(m.FacingRight, m.PoppedOut)
		}
	case OpAdjustLocation:
		var m LocationMessage
		if e.decode(f, &m) && e.validator.AdjustLocation(e.char.Engine().Location(), m.Position) {
			h.AdjustLocation(m.Position)
		}
	default:
		e.validator.Malformed(f.Op, errUnexpectedOp)
	}
}

func (e *ServerEndpoint) decode(f Frame, v any) bool {
	if err := msgpack.Unmarshal(f.Body, v); err != nil {
		e.validator.Malformed(f.Op, err)
		return false
	}
	return true
}

// NextMove returns the oldest movement input the client sent that was not applied yet.
func (e *ServerEndpoint) NextMove() (player.MoveInput, bool) {
	m, ok := e.moves.Pop()
	if !ok {
		return player.MoveInput{}, false
	}
	return m.Input(), true
}

// Replicate queues the fields of the characters passed that changed since they were last sent to
// the client. Characters the client knew of that are no longer passed are removed.
func (e *ServerEndpoint) Replicate(chars []*player.Character) error {
	seen := make(map[string]struct{}, len(chars))
	for _, c := range chars {
		id := c.ID()
		seen[id] = struct{}{}

		next := c.Replicated()
		prev, known := e.sent[id]
		for _, f := range changedFields(&prev, &next, !known) {
			if err := e.ch.Send(OpField, id, f.name, f.value(&next)); err != nil {
				return err
			}
		}
		e.sent[id] = next
	}
	for id := range e.sent {
		if _, ok := seen[id]; ok {
			continue
		}
		if err := e.ch.Send(OpRemove, id, KeyRemove, nil); err != nil {
			return err
		}
		delete(e.sent, id)
	}
	return nil
}

// Flush writes everything queued for the client.
func (e *ServerEndpoint) Flush() error {
	return e.ch.Flush()
}

func (e *ServerEndpoint) Close() error {
	return e.ch.Close()
}

func (e *ServerEndpoint) UpdateWalkSpeed(speed float32) {
	e.push(OpUpdateWalkSpeed, KeyWalkSpeed, WalkSpeedMessage{Speed: speed})
}

func (e *ServerEndpoint) UpdateEdges(left, right bool) {
	e.push(OpUpdateEdges, KeyEdges, EdgesMessage{Left: left, Right: right})
}

func (e *ServerEndpoint) push(op Op, key string, body any) {
	if err := e.ch.Send(op, e.char.ID(), key, body); err != nil && e.err == nil {
		e.err = err
	}
}

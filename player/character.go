package player

import (
	"reflect"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/scavenger-game/scavenger/assert"
	"github.com/scavenger-game/scavenger/game"
	"github.com/scavenger-game/scavenger/oerror"
	"github.com/scavenger-game/scavenger/settings"
	"github.com/scavenger-game/scavenger/utils"
	"github.com/scavenger-game/scavenger/world"
	"github.com/sirupsen/logrus"
)

var (
	ErrNoMovementEngine = oerror.New("player: a movement engine is required")
	ErrNoProber         = oerror.New("player: a world prober is required")
)

// DefaultCorrectionThreshold is how far, in world units, the predicted location of a controlled
// character may drift from the authoritative location before it is snapped back.
const DefaultCorrectionThreshold = float32(16)

// Options configure a new Character.
type Options struct {
	// ID identifies the character. A random ID is generated if empty.
	ID  string
	Log *logrus.Logger

	Settings settings.Character

	// Authority is true for the copy of the character whose state is canonical.
	Authority bool
	// Controlled is true for the copy of the character that receives input from a player.
	Controlled bool

	CorrectionThreshold float32
}

// MoveInput is a single tick of movement input of the player controlling a character.
type MoveInput struct {
	// Forward and Right are axis values in the range [-1, 1], relative to the control yaw.
	Forward, Right float32
	// ControlPitch and ControlYaw are the rotation of the player's view, in degrees.
	ControlPitch, ControlYaw float32
	Jump                     bool
}

// Input is a single tick of input on the controlled copy of a character.
type Input struct {
	Move MoveInput

	RunPressed, RunReleased bool
	AimPressed, AimReleased bool
	Die                     bool

	// CrosshairOrigin and CrosshairDirection describe the ray under the crosshair in world space.
	CrosshairOrigin, CrosshairDirection mgl32.Vec3
}

// Character is a player controlled character able to take cover, dash and aim. Every copy of the
// character (the authoritative one, the controlled one and remote mirrors) is a Character, and the
// Authority and Controlled options decide which parts of the logic run on it.
//
// A Character must only be used from one goroutine at a time.
type Character struct {
	id   string
	log  *logrus.Logger
	conf settings.Character

	engine MovementEngine
	prober Prober

	authority, controlled bool
	correctionThreshold   float32

	server AuthorityCommands
	client ClientCommands

	state  State
	camera Camera

	controlPitch, controlYaw            float32
	crosshairOrigin, crosshairDirection mgl32.Vec3

	ticks uint64
}

// isNil reports whether v is nil, including a nil pointer wrapped in an interface.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// New creates a new character moved by engine and probing the world through prober.
func New(engine MovementEngine, prober Prober, opts Options) (*Character, error) {
	if isNil(engine) {
		return nil, ErrNoMovementEngine
	}
	if isNil(prober) {
		return nil, ErrNoProber
	}
	if opts.ID == "" {
		opts.ID = uuid.New().String()
	}
	if opts.Log == nil {
		opts.Log = logrus.New()
		opts.Log.SetLevel(logrus.PanicLevel)
	}
	if opts.Settings == (settings.Character{}) {
		opts.Settings = settings.DefaultCharacter()
	}
	if opts.CorrectionThreshold <= 0 {
		opts.CorrectionThreshold = DefaultCorrectionThreshold
	}

	c := &Character{
		id:   opts.ID,
		log:  opts.Log,
		conf: opts.Settings,

		engine: engine,
		prober: prober,

		authority:           opts.Authority,
		controlled:          opts.Controlled,
		correctionThreshold: opts.CorrectionThreshold,

		server: NopAuthority{},
		client: NopClient{},
	}
	if c.authority {
		c.server = authorityHandler{c: c}
	}
	if c.controlled {
		c.client = clientHandler{c: c}
	}

	c.state.DashCooldownTimer = c.conf.DashCooldown
	c.camera = Camera{
		ArmLength:       c.conf.DefaultArmLength,
		TargetArmLength: c.conf.DefaultArmLength,
		StoredArmLength: c.conf.DefaultArmLength,
	}

	engine.SetMaxSpeed(c.conf.WalkSpeed)
	engine.SetOrientRotationToMovement(true)
	engine.ConstrainToPlane(false, mgl32.Vec3{})
	return c, nil
}

// ID returns the ID of the character.
func (c *Character) ID() string {
	return c.id
}

// State returns a copy of the state of the character.
func (c *Character) State() State {
	return c.state
}

// Camera returns the current camera values of the character.
func (c *Character) Camera() Camera {
	return c.camera
}

// Engine returns the movement engine of the character.
func (c *Character) Engine() MovementEngine {
	return c.engine
}

// Settings returns the tunables the character was created with.
func (c *Character) Settings() settings.Character {
	return c.conf
}

// IsAuthority returns true if this copy of the character is authoritative.
func (c *Character) IsAuthority() bool {
	return c.authority
}

// IsControlled returns true if this copy of the character receives player input.
func (c *Character) IsControlled() bool {
	return c.controlled
}

// AuthorityHandler returns the AuthorityCommands implementation that applies requests to this
// character. Requests have no effect unless the character is the authoritative copy.
func (c *Character) AuthorityHandler() AuthorityCommands {
	return authorityHandler{c: c}
}

// ClientHandler returns the ClientCommands implementation that applies pushes to this character.
func (c *Character) ClientHandler() ClientCommands {
	return clientHandler{c: c}
}

// SetAuthority sets where the character sends its requests. On a client this forwards requests to
// the server.
func (c *Character) SetAuthority(a AuthorityCommands) {
	if a == nil {
		a = NopAuthority{}
	}
	c.server = a
}

// SetClient sets where the authoritative character pushes updates for its controlling client.
func (c *Character) SetClient(cl ClientCommands) {
	if cl == nil {
		cl = NopClient{}
	}
	c.client = cl
}

// HandleInput handles a tick of input on the controlled copy of the character.
func (c *Character) HandleInput(in Input) {
	if !c.controlled {
		return
	}
	c.crosshairOrigin, c.crosshairDirection = in.CrosshairOrigin, in.CrosshairDirection

	if in.Die {
		c.server.Die()
	}
	if in.RunPressed {
		if c.state.IsAiming {
			c.localStopAim()
		}
		c.server.StartRun()
	}
	if in.RunReleased {
		c.server.StartWalk()
	}
	if in.AimPressed {
		c.localStartAim()
	}
	if in.AimReleased {
		c.localStopAim()
	}
	c.ApplyMove(in.Move)
}

// ApplyMove feeds a tick of movement input through the movement gate into the movement engine. On
// the authority it is called with the input the controlling client sent.
func (c *Character) ApplyMove(m MoveInput) {
	c.controlPitch, c.controlYaw = m.ControlPitch, m.ControlYaw
	if c.state.UseControllerYaw {
		c.engine.SetYaw(game.NormalizeAngle(m.ControlYaw))
	}

	c.pullAway()

	forward, right := game.ForwardVector(m.ControlYaw), game.RightVector(m.ControlYaw)
	if m.Forward != 0 && c.allowMovement(forward.Mul(m.Forward)) {
		c.engine.AddMovementInput(forward, m.Forward, false)
	}
	if m.Right != 0 && c.allowMovement(right.Mul(m.Right)) {
		c.engine.AddMovementInput(right, m.Right, false)
	}
	if m.Jump {
		c.jump()
	}
}

// HandleHits handles the blocking hits the movement engine reported for the last step. It drives
// cover entry.
func (c *Character) HandleHits(hits []world.Hit) {
	if !c.authority && !c.controlled {
		return
	}
	s := &c.state
	if s.InCover() || s.Dashing {
		return
	}

	for _, hit := range hits {
		if c.coverContact(hit) {
			s.CoverTimer++
			s.Cover = CoverEntering
			if s.CoverTimer >= c.conf.EnterCoverHoldTime {
				s.CoverTimer = 0
				s.Cover = CoverFree
				c.server.EnterCover(c.engine.LastInputVector(), game.SafeNormal(game.Flatten(hit.Normal)).Mul(-1))
			}
			return
		}
	}
	s.CoverTimer = 0
	s.Cover = CoverFree
}

// Tick runs one fixed simulation step of the character's camera, aim, cover and dash logic, in that
// order.
func (c *Character) Tick(dt float32) {
	c.ticks++
	c.updateCamera()
	if !c.authority && !c.controlled {
		return
	}

	if c.controlled {
		c.updateAim()
	}
	if c.state.InCover() {
		c.stickToCover(dt)
	}
	c.tickDash()

	if c.authority {
		c.checkInvariants()
	}
}

// Ticks returns the amount of ticks the character has been alive for.
func (c *Character) Ticks() uint64 {
	return c.ticks
}

func (c *Character) checkInvariants() {
	s := c.state
	assert.IsTrue(!s.PoppedOut || s.InCover(), "%s popped out while not in cover", c.id)
	assert.IsTrue(!s.Dashing || !s.InCover(), "%s dashing while in cover", c.id)
	assert.IsTrue(!(s.EdgeAdjustedLeft && s.EdgeAdjustedRight), "%s has no cover on either side", c.id)
	assert.IsTrue(c.engine.PlaneConstrained() == s.InCover(), "%s plane constraint out of sync with cover state (%v)", c.id, s.Cover)
}

// setWalkSpeed sets the speed of the character and pushes it to the controlling client.
func (c *Character) setWalkSpeed(speed float32) {
	c.engine.SetMaxSpeed(speed)
	c.client.UpdateWalkSpeed(speed)
}

func (c *Character) startRun() {
	s := &c.state
	s.RunKeyPressed = true
	if s.Dashing {
		return
	}
	if s.IsAiming {
		c.stopAim()
	}
	if s.InCover() {
		// Run is the dash button while in cover.
		if s.DashCooldownTimer >= c.conf.DashCooldown {
			c.startDash()
		}
		return
	}

	s.Running = true
	c.setWalkSpeed(c.conf.RunSpeed())
}

func (c *Character) startWalk() {
	s := &c.state
	s.RunKeyPressed = false
	if s.Dashing {
		return
	}
	s.Running = false
	c.setWalkSpeed(c.conf.WalkSpeed)
}

func (c *Character) jump() {
	if c.state.Dashing || c.state.IsDead {
		return
	}
	if c.engine.IsWalking() {
		c.engine.Jump()
	}
	if c.state.InCover() {
		c.server.ExitCover()
	}
}

func (c *Character) debug(msg string, kv ...any) {
	if !c.log.IsLevelEnabled(logrus.DebugLevel) {
		return
	}
	c.log.Debugf("%s %s %s", c.id, msg, utils.KeyValsToString(kv...))
}

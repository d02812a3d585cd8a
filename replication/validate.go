package replication

import (
	"math"

	"github.com/chewxy/math32"
	"github.com/elliotchance/orderedmap/v2"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/scavenger-game/scavenger/game"
	"github.com/scavenger-game/scavenger/settings"
	"github.com/scavenger-game/scavenger/utils"
	"github.com/sirupsen/logrus"
)

const (
	CheckRateLimit      = "RateLimit"
	CheckAdjustLocation = "AdjustLocation"
	CheckInvalidValue   = "InvalidValue"
	CheckCoverDirection = "CoverDirection"
)

// RateLimitWindow is the amount of seconds frame counts are kept for before they are reset.
const RateLimitWindow = 8

// CheckMetadata is the violation state of a single check.
type CheckMetadata struct {
	Violations float64

	Buffer     float64
	FailBuffer float64
	MaxBuffer  float64
}

// Validator checks the requests a client sends before they reach the authoritative character.
// Rejected requests are dropped and counted as violations. A session should be closed once
// Exceeded returns true.
type Validator struct {
	id  string
	log *logrus.Logger

	enabled       bool
	maxFrames     int
	maxAdjust     float32
	maxViolations float64

	checks *orderedmap.OrderedMap[string, *CheckMetadata]

	frames   int
	ticks    int
	exceeded bool
}

// NewValidator returns a Validator for the session of the character with the ID passed.
func NewValidator(id string, log *logrus.Logger, s settings.Settings) *Validator {
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.PanicLevel)
	}
	v := &Validator{
		id:            id,
		log:           log,
		enabled:       s.Validation.Enabled,
		maxFrames:     s.Validation.MaxFramesPerSecond * RateLimitWindow,
		maxAdjust:     s.Validation.MaxAdjustDistance,
		maxViolations: s.Validation.MaxViolations,
		checks:        orderedmap.NewOrderedMap[string, *CheckMetadata](),
	}
	v.checks.Set(CheckRateLimit, &CheckMetadata{FailBuffer: 1, MaxBuffer: 1})
	v.checks.Set(CheckAdjustLocation, &CheckMetadata{FailBuffer: 2, MaxBuffer: 4})
	v.checks.Set(CheckInvalidValue, &CheckMetadata{FailBuffer: 1, MaxBuffer: 1})
	v.checks.Set(CheckCoverDirection, &CheckMetadata{FailBuffer: 1, MaxBuffer: 2})
	return v
}

// Tick advances the rate limit window by one server tick.
func (v *Validator) Tick() {
	v.ticks++
	if v.ticks >= RateLimitWindow*game.TicksPerSecond {
		v.ticks, v.frames = 0, 0
	}
}

// AllowFrame counts a frame received from the client and returns false if the client exceeded its
// rate limit.
func (v *Validator) AllowFrame() bool {
	if !v.enabled {
		return true
	}
	v.frames++
	if v.frames > v.maxFrames {
		v.fail(CheckRateLimit, "frames", v.frames, "max", v.maxFrames)
		return false
	}
	return true
}

// Move checks a tick of movement input, clamping the axes into [-1, 1].
func (v *Validator) Move(m *MoveMessage) bool {
	if !v.enabled {
		return true
	}
	for _, f := range []float32{m.Forward, m.Right, m.ControlPitch, m.ControlYaw} {
		if math32.IsNaN(f) || math32.IsInf(f, 0) {
			v.fail(CheckInvalidValue, "op", OpMove, "value", f)
			return false
		}
	}
	m.Forward = mgl32.Clamp(m.Forward, -1, 1)
	m.Right = mgl32.Clamp(m.Right, -1, 1)
	v.pass(CheckInvalidValue, 0.01)
	return true
}

// Pitch checks an aim pitch, clamping it into [-90, 90] around the aim pitch bias.
func (v *Validator) Pitch(pitch float32) (float32, bool) {
	if !v.enabled {
		return pitch, true
	}
	if !v.finite(OpSetAimPitch, pitch) {
		return 0, false
	}
	return mgl32.Clamp(pitch, -90+game.AimPitchBias, 90+game.AimPitchBias), true
}

// Yaw checks an aim yaw, clamping it into [-180, 180].
func (v *Validator) Yaw(yaw float32) (float32, bool) {
	if !v.enabled {
		return yaw, true
	}
	if !v.finite(OpSetAimYaw, yaw) {
		return 0, false
	}
	return mgl32.Clamp(yaw, -180, 180), true
}

// EnterCover checks a request to enter cover. The cover direction must be a horizontal unit
// vector.
func (v *Validator) EnterCover(m EnterCoverMessage) bool {
	if !v.enabled {
		return true
	}
	if !game.IsFiniteVec3(m.LastMove) || !game.IsFiniteVec3(m.CoverDirection) {
		v.fail(CheckInvalidValue, "op", OpEnterCover)
		return false
	}
	dir := m.CoverDirection
	if math32.Abs(dir.Y()) > 0.01 || math32.Abs(dir.Len()-1) > 0.01 {
		v.fail(CheckCoverDirection, "dir", game.RoundVec32(dir, 3))
		return false
	}
	v.pass(CheckCoverDirection, 0.05)
	return true
}

// AdjustLocation checks that a client reported location is close enough to the authoritative
// location of its character.
func (v *Validator) AdjustLocation(authoritative, requested mgl32.Vec3) bool {
	if !v.enabled {
		return true
	}
	if !game.IsFiniteVec3(requested) {
		v.fail(CheckInvalidValue, "op", OpAdjustLocation)
		return false
	}
	if dist := authoritative.Sub(requested).Len(); dist > v.maxAdjust {
		v.fail(CheckAdjustLocation, "dist", game.Round32(dist, 2), "max", v.maxAdjust)
		return false
	}
	v.pass(CheckAdjustLocation, 0.1)
	return true
}

// Malformed counts a frame that could not be decoded.
func (v *Validator) Malformed(op Op, err error) {
	if !v.enabled {
		return
	}
	v.fail(CheckInvalidValue, "op", op, "err", err)
}

// Exceeded returns true once the violations of the session passed the configured maximum.
func (v *Validator) Exceeded() bool {
	return v.exceeded
}

// Violations returns the total violations of all checks.
func (v *Validator) Violations() float64 {
	var total float64
	for el := v.checks.Front(); el != nil; el = el.Next() {
		total += el.Value.Violations
	}
	return total
}

// Check returns the metadata of the check with the name passed.
func (v *Validator) Check(name string) (CheckMetadata, bool) {
	m, ok := v.checks.Get(name)
	if !ok {
		return CheckMetadata{}, false
	}
	return *m, true
}

func (v *Validator) finite(op Op, f float32) bool {
	if math32.IsNaN(f) || math32.IsInf(f, 0) {
		v.fail(CheckInvalidValue, "op", op, "value", f)
		return false
	}
	return true
}

func (v *Validator) pass(check string, sub float64) {
	m, ok := v.checks.Get(check)
	if !ok {
		return
	}
	m.Buffer = math.Max(0, m.Buffer-sub)
}

func (v *Validator) fail(check string, kv ...any) {
	m, ok := v.checks.Get(check)
	if !ok {
		return
	}
	m.Buffer = math.Min(m.Buffer+1, m.MaxBuffer)
	if m.Buffer < m.FailBuffer {
		return
	}
	m.Violations++

	extra := utils.KeyVals(kv...)
	extra.Set("vl", m.Violations)
	v.log.Warnf("%s failed %s %s", v.id, check, utils.OrderedMapToString(extra))

	if !v.exceeded && v.Violations() >= v.maxViolations {
		v.exceeded = true
		v.log.Warnf("%s exceeded the violation limit (%.0f)", v.id, v.maxViolations)
	}
}

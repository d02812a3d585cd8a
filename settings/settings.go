package settings

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml"
	"github.com/sirupsen/logrus"
)

// Settings contains everything that can be configured for a scavenger server or client.
type Settings struct {
	Network struct {
		// Address is the UDP address the server listens on, or the client dials.
		Address string
		// MaxPendingFrames is the amount of unacknowledged frames a replication channel holds
		// before it considers the remote end unresponsive.
		MaxPendingFrames int
		// ResendInterval is the amount of ticks to wait for an acknowledgement before unacknowledged
		// frames are sent again.
		ResendInterval int
	}
	Character Character
	Validation struct {
		// Enabled is whether requests from clients are checked before they reach the character.
		Enabled bool
		// MaxFramesPerSecond is the amount of client frames accepted per second.
		MaxFramesPerSecond int
		// MaxAdjustDistance is how far a location adjustment may move a character from its
		// authoritative position.
		MaxAdjustDistance float32
		// MaxViolations is the amount of rejected requests after which a session is closed.
		MaxViolations float64
	}
	Sentry struct {
		DSN         string
		Environment string
	}
	Debug struct {
		LogLevel      string
		StatsView     bool
		StatsViewAddr string
	}
}

// Character holds the movement tunables of a character. Angles are in degrees, distances in world
// units and durations in ticks.
type Character struct {
	MaxCoverAngle      float32
	CoverSenseDistance float32
	CoverHalfWidth     float32
	EnterCoverHoldTime int

	DashDuration int
	DashCooldown int
	DashForce    float32
	DashSpeed    float32

	AimZoomDistance  float32
	AimOffsetAmount  float32
	AimDistance      float32
	CameraTrackSpeed float32
	DefaultArmLength float32

	WalkSpeed     float32
	RunMultiplier float32
}

// DefaultCharacter returns the default movement tunables.
func DefaultCharacter() Character {
	return Character{
		MaxCoverAngle:      30,
		CoverSenseDistance: 100,
		CoverHalfWidth:     41,
		EnterCoverHoldTime: 10,

		DashDuration: 30,
		DashCooldown: 60,
		DashForce:    1,
		DashSpeed:    1500,

		AimZoomDistance:  150,
		AimOffsetAmount:  60,
		AimDistance:      10000,
		CameraTrackSpeed: 8,
		DefaultArmLength: 300,

		WalkSpeed:     300,
		RunMultiplier: 2,
	}
}

// RunSpeed returns the speed of a running character.
func (c Character) RunSpeed() float32 {
	return c.WalkSpeed * c.RunMultiplier
}

// DefaultSettings returns the default settings.
func DefaultSettings() Settings {
	settings := Settings{}
	settings.Network.Address = ":19133"
	settings.Network.MaxPendingFrames = 512
	settings.Network.ResendInterval = 15

	settings.Character = DefaultCharacter()

	settings.Validation.Enabled = true
	settings.Validation.MaxFramesPerSecond = 400
	settings.Validation.MaxAdjustDistance = 150
	settings.Validation.MaxViolations = 20

	settings.Sentry.Environment = "development"

	settings.Debug.LogLevel = "info"
	settings.Debug.StatsViewAddr = "localhost:18066"
	return settings
}

// LogLevel parses the configured log level, falling back to info.
func (s Settings) LogLevel() logrus.Level {
	lvl, err := logrus.ParseLevel(s.Debug.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// SaveDefault will create and save the default settings file. If the file already exists, it will return an error.
func SaveDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return errors.New("settings file already exists")
	}
	return Save(path, DefaultSettings())
}

// Save writes the settings passed to path, replacing any file already there.
func Save(path string, s Settings) error {
	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed encoding settings: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed writing settings file: %v", err)
	}
	return nil
}

// Load will load the settings from your settings file. If the file does not exist, it is created
// with the default settings. Values missing from the file are taken from the defaults.
func Load(path string) (Settings, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := SaveDefault(path); err != nil {
			return Settings{}, err
		}
		return DefaultSettings(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("error reading config: %v", err)
	}

	tree, err := toml.LoadBytes(data)
	if err != nil {
		return Settings{}, fmt.Errorf("error decoding config: %v", err)
	}
	var settings Settings
	if err = tree.Unmarshal(&settings); err != nil {
		return Settings{}, fmt.Errorf("error decoding config: %v", err)
	}
	if !tree.Has("Validation.Enabled") {
		settings.Validation.Enabled = true
	}
	settings.fillDefaults()
	return settings, nil
}

// fillDefaults replaces every zero value that has a non-zero default.
func (s *Settings) fillDefaults() {
	def := DefaultSettings()
	orString(&s.Network.Address, def.Network.Address)
	orDefault(&s.Network.MaxPendingFrames, def.Network.MaxPendingFrames)
	orDefault(&s.Network.ResendInterval, def.Network.ResendInterval)

	c, dc := &s.Character, def.Character
	orDefault(&c.MaxCoverAngle, dc.MaxCoverAngle)
	orDefault(&c.CoverSenseDistance, dc.CoverSenseDistance)
	orDefault(&c.CoverHalfWidth, dc.CoverHalfWidth)
	orDefault(&c.EnterCoverHoldTime, dc.EnterCoverHoldTime)
	orDefault(&c.DashDuration, dc.DashDuration)
	orDefault(&c.DashCooldown, dc.DashCooldown)
	orDefault(&c.DashForce, dc.DashForce)
	orDefault(&c.DashSpeed, dc.DashSpeed)
	orDefault(&c.AimZoomDistance, dc.AimZoomDistance)
	orDefault(&c.AimOffsetAmount, dc.AimOffsetAmount)
	orDefault(&c.AimDistance, dc.AimDistance)
	orDefault(&c.CameraTrackSpeed, dc.CameraTrackSpeed)
	orDefault(&c.DefaultArmLength, dc.DefaultArmLength)
	orDefault(&c.WalkSpeed, dc.WalkSpeed)
	orDefault(&c.RunMultiplier, dc.RunMultiplier)

	orDefault(&s.Validation.MaxFramesPerSecond, def.Validation.MaxFramesPerSecond)
	orDefault(&s.Validation.MaxAdjustDistance, def.Validation.MaxAdjustDistance)
	orDefault(&s.Validation.MaxViolations, def.Validation.MaxViolations)

	orString(&s.Sentry.Environment, def.Sentry.Environment)
	orString(&s.Debug.LogLevel, def.Debug.LogLevel)
	orString(&s.Debug.StatsViewAddr, def.Debug.StatsViewAddr)
}

func orDefault[T int | float32 | float64](v *T, def T) {
	if *v <= 0 {
		*v = def
	}
}

func orString(v *string, def string) {
	if *v == "" {
		*v = def
	}
}

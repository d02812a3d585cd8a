package scavenger

import (
	"context"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/scavenger-game/scavenger/game"
	"github.com/scavenger-game/scavenger/oerror"
	"github.com/scavenger-game/scavenger/player"
	"github.com/scavenger-game/scavenger/replication"
	"github.com/scavenger-game/scavenger/settings"
	"github.com/scavenger-game/scavenger/simulation"
	"github.com/scavenger-game/scavenger/world"
	"github.com/sirupsen/logrus"
)

var ErrWorldMismatch = oerror.New("scavenger: client world differs from the server world")

// ClientOptions configure a Client.
type ClientOptions struct {
	Log      *logrus.Logger
	Settings settings.Settings
}

// Client predicts the character a player controls and mirrors every other character the server
// replicates. The world passed to the client must hold the same static geometry as the server's.
type Client struct {
	log  *logrus.Logger
	conf settings.Settings

	world    *world.World
	endpoint *replication.ClientEndpoint

	char    *player.Character
	engine  *simulation.Engine
	mirrors map[string]*player.Character
}

// Dial connects to the server at the address passed over RakNet.
func Dial(ctx context.Context, addr string, w *world.World, opts ClientOptions) (*Client, error) {
	link, err := replication.Dial(addr)
	if err != nil {
		return nil, err
	}
	c, err := Connect(ctx, link, w, opts)
	if err != nil {
		_ = link.Close()
		return nil, err
	}
	return c, nil
}

// Connect starts a client over link. It blocks until the server tells the client which character it
// controls, or until ctx is done.
func Connect(ctx context.Context, link replication.Link, w *world.World, opts ClientOptions) (*Client, error) {
	if opts.Log == nil {
		opts.Log = logrus.New()
		opts.Log.SetLevel(logrus.PanicLevel)
	}
	if opts.Settings.Character == (settings.Character{}) {
		opts.Settings = settings.DefaultSettings()
	}
	c := &Client{
		log:     opts.Log,
		conf:    opts.Settings,
		world:   w,
		mirrors: make(map[string]*player.Character),
	}
	c.endpoint = replication.NewClientEndpoint(link, replication.ClientOptions{
		Log:      opts.Log,
		Settings: opts.Settings,
		Mirror:   c.mirror,
		Removed:  c.removed,
	})

	var hello replication.HelloMessage
	for {
		if err := c.endpoint.Poll(); err != nil {
			return nil, err
		}
		var ok bool
		if hello, ok = c.endpoint.Hello(); ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(game.TickDuration):
		}
	}
	if hello.Checksum != w.Checksum() {
		return nil, ErrWorldMismatch
	}

	c.engine = simulation.NewEngine(hello.CharacterID, w, hello.Location, hello.Yaw)
	char, err := player.New(c.engine, w, player.Options{
		ID:         hello.CharacterID,
		Log:        opts.Log,
		Settings:   opts.Settings.Character,
		Controlled: true,
	})
	if err != nil {
		return nil, err
	}
	c.char = char
	c.endpoint.Bind(char)
	c.log.Infof("connected to %s as %s", c.endpoint.Channel().RemoteAddr(), hello.CharacterID)
	return c, nil
}

// Character returns the character the client controls.
func (c *Client) Character() *player.Character {
	return c.char
}

// Mirror returns the local copy of another character.
func (c *Client) Mirror(id string) (*player.Character, bool) {
	m, ok := c.mirrors[id]
	return m, ok
}

func (c *Client) mirror(id string) *player.Character {
	if hello, ok := c.endpoint.Hello(); ok && hello.CharacterID == id {
		return nil
	}
	if m, ok := c.mirrors[id]; ok {
		return m
	}
	m, err := player.New(simulation.NewEngine(id, c.world, mgl32.Vec3{}, 0), c.world, player.Options{
		ID:       id,
		Log:      c.log,
		Settings: c.conf.Character,
	})
	if err != nil {
		c.log.Errorf("unable to mirror %s: %v", id, err)
		return nil
	}
	c.mirrors[id] = m
	return m
}

func (c *Client) removed(id string) {
	delete(c.mirrors, id)
	c.world.RemoveObject(id)
}

// Tick runs one client tick with the input of the player: the server state received is applied,
// the input is sent to the server and the controlled character is predicted locally.
func (c *Client) Tick(in player.Input) error {
	if err := c.endpoint.Poll(); err != nil {
		return err
	}
	for id, m := range c.mirrors {
		c.world.SetPawn(id, game.CapsuleBox(m.Engine().Location()))
		m.Tick(game.DeltaTime)
	}

	c.char.HandleInput(in)
	c.endpoint.SendMove(in.Move)
	c.char.HandleHits(c.engine.Step(game.DeltaTime))
	c.char.Tick(game.DeltaTime)
	return c.endpoint.Flush()
}

func (c *Client) Close() error {
	return c.endpoint.Close()
}

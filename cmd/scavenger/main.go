package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/ethaniccc/float32-cube/cube"
	"github.com/getsentry/sentry-go"
	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/scavenger-game/scavenger"
	"github.com/scavenger-game/scavenger/game"
	"github.com/scavenger-game/scavenger/player"
	"github.com/scavenger-game/scavenger/settings"
	"github.com/scavenger-game/scavenger/world"
	"github.com/sirupsen/logrus"
)

// The following program runs a scavenger server on the demo map, or a bot client that walks into
// cover and peeks out of it.
func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: ./scavenger server [config.toml] | ./scavenger bot <addr>")
		return
	}

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		ForceColors:     true,
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	switch os.Args[1] {
	case "server":
		path := "config.toml"
		if len(os.Args) > 2 {
			path = os.Args[2]
		}
		if err := runServer(ctx, log, path); err != nil {
			log.Fatalf("server: %v", err)
		}
	case "bot":
		if len(os.Args) < 3 {
			fmt.Println("Usage: ./scavenger bot <addr>")
			return
		}
		if err := runBot(ctx, log, os.Args[2]); err != nil {
			log.Fatalf("bot: %v", err)
		}
	default:
		fmt.Printf("unknown command %q\n", os.Args[1])
	}
}

func runServer(ctx context.Context, log *logrus.Logger, path string) error {
	conf, err := settings.Load(path)
	if err != nil {
		return err
	}
	log.SetLevel(conf.LogLevel())

	if conf.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         conf.Sentry.DSN,
			Environment: conf.Sentry.Environment,
		}); err != nil {
			return fmt.Errorf("sentry init: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	if conf.Debug.StatsView {
		// set configurations before calling `statsview.New()` method
		viewer.SetConfiguration(viewer.WithTheme(viewer.ThemeWesteros), viewer.WithAddr(conf.Debug.StatsViewAddr))

		mgr := statsview.New()
		go mgr.Start()
		defer mgr.Stop()
	}

	w, err := demoWorld(log)
	if err != nil {
		return err
	}
	srv := scavenger.NewServer(w, scavenger.ServerOptions{
		Log:      log,
		Settings: conf,
		Spawns:   demoSpawns,
	})
	defer srv.Close()

	if err := srv.Listen(conf.Network.Address); err != nil {
		return err
	}
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func runBot(ctx context.Context, log *logrus.Logger, addr string) error {
	w, err := demoWorld(log)
	if err != nil {
		return err
	}
	c, err := scavenger.Dial(ctx, addr, w, scavenger.ClientOptions{Log: log})
	if err != nil {
		return err
	}
	defer c.Close()

	t := time.NewTicker(game.TickDuration)
	defer t.Stop()

	var tick int
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
		tick++

		// Walk into the crate ahead, slide along it and peek out at its end.
		var in player.Input
		switch s := c.Character().State(); {
		case !s.InCover():
			in.Move.Forward = 1
		case !s.EdgeAdjustedRight:
			in.Move.Right = 1
		case !s.PoppedOut:
			in.AimPressed = true
		}
		if err := c.Tick(in); err != nil {
			return err
		}
		if tick%game.TicksPerSecond == 0 {
			s := c.Character().State()
			log.Infof("cover=%v popped_out=%v pos=%v", s.Cover, s.PoppedOut, game.RoundVec32(c.Character().Engine().Location(), 2))
		}
	}
}

var demoSpawns = []mgl32.Vec3{
	{0, game.CapsuleHalfHeight, 0},
	{0, game.CapsuleHalfHeight, 600},
	{-800, game.CapsuleHalfHeight, 300},
}

// demoWorld builds the map the server and bots play on. Clients must build the same map.
func demoWorld(log *logrus.Logger) (*world.World, error) {
	w := world.New(log)
	covers := []struct {
		id string
		bb cube.BBox
	}{
		{"crate", cube.Box(100, 0, -200, 120, 150, 200)},
		{"low_wall", cube.Box(100, 0, 400, 120, 100, 800)},
		{"pillar", cube.Box(-500, 0, 250, -460, 300, 350)},
	}
	for _, c := range covers {
		if err := w.AddCover(c.id, c.bb); err != nil {
			return nil, err
		}
	}
	if err := w.AddWall("boundary", cube.Box(-1200, 0, -1200, -1180, 400, 1200)); err != nil {
		return nil, err
	}
	return w, nil
}

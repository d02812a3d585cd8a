package scavenger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethaniccc/float32-cube/cube"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/scavenger-game/scavenger/game"
	"github.com/scavenger-game/scavenger/player"
	"github.com/scavenger-game/scavenger/replication"
	"github.com/scavenger-game/scavenger/world"
)

var spawns = []mgl32.Vec3{{58, 96, 0}, {-300, 96, 0}}

func newTestWorld(t *testing.T) *world.World {
	t.Helper()
	w := world.New(nil)
	if err := w.AddCover("crate", cube.Box(100, 0, -200, 120, 150, 200)); err != nil {
		t.Fatalf("add crate: %v", err)
	}
	return w
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s := NewServer(newTestWorld(t), ServerOptions{Spawns: spawns, Workers: 2})
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func connect(t *testing.T, s *Server, w *world.World) (*Client, *player.Character) {
	t.Helper()

	clientLink, serverLink := replication.Pipe()
	char, err := s.Join(serverLink)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c, err := Connect(ctx, clientLink, w, ClientOptions{})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	return c, char
}

// step runs a tick on every client followed by a server tick.
func step(t *testing.T, s *Server, clients []*Client, inputs ...player.Input) {
	t.Helper()
	for i, c := range clients {
		var in player.Input
		if i < len(inputs) {
			in = inputs[i]
		}
		if err := c.Tick(in); err != nil {
			t.Fatalf("client tick: %v", err)
		}
	}
	s.Tick()
}

func TestClientEntersCover(t *testing.T) {
	s := newTestServer(t)
	c, auth := connect(t, s, newTestWorld(t))

	if c.Character().ID() != auth.ID() {
		t.Fatalf("expected the client to control %s, got %s", auth.ID(), c.Character().ID())
	}
	for i := 0; i < auth.Settings().EnterCoverHoldTime+2; i++ {
		step(t, s, []*Client{c}, player.Input{Move: player.MoveInput{Forward: 1}})
	}
	if !auth.State().InCover() {
		t.Fatalf("expected the authority to be in cover, got %v", auth.State().Cover)
	}
	if !c.Character().State().InCover() {
		t.Fatalf("expected the client to be in cover, got %v", c.Character().State().Cover)
	}
}

func TestClientsMirrorEachOther(t *testing.T) {
	s := newTestServer(t)
	a, _ := connect(t, s, newTestWorld(t))
	b, bAuth := connect(t, s, newTestWorld(t))
	clients := []*Client{a, b}

	for i := 0; i < 3; i++ {
		step(t, s, clients)
	}
	m, ok := a.Mirror(bAuth.ID())
	if !ok {
		t.Fatalf("expected a mirror of the other client")
	}
	if !game.Vec3ApproxEq(m.Engine().Location(), spawns[1], 1) {
		t.Fatalf("expected the mirror at %v, got %v", spawns[1], m.Engine().Location())
	}
	if _, ok := a.world.Object(bAuth.ID()); !ok {
		t.Fatalf("expected the mirror to have a pawn in the client world")
	}
	if _, ok := a.Mirror(a.Character().ID()); ok {
		t.Fatalf("the controlled character must not be mirrored")
	}

	step(t, s, clients, player.Input{}, player.Input{Die: true})
	step(t, s, clients)
	if !m.State().IsDead {
		t.Fatalf("expected the mirror to replicate the death")
	}
}

func TestDisconnectDropsSession(t *testing.T) {
	s := newTestServer(t)
	a, _ := connect(t, s, newTestWorld(t))
	b, bAuth := connect(t, s, newTestWorld(t))

	step(t, s, []*Client{a, b})
	if s.Len() != 2 {
		t.Fatalf("expected 2 sessions, got %d", s.Len())
	}

	_ = b.Close()
	s.Tick()
	if s.Len() != 1 {
		t.Fatalf("expected the closed session to be dropped, got %d", s.Len())
	}
	if _, ok := s.World().Object(bAuth.ID()); ok {
		t.Fatalf("expected the pawn of the dropped character to be removed")
	}

	step(t, s, []*Client{a})
	if _, ok := a.Mirror(bAuth.ID()); ok {
		t.Fatalf("expected the mirror of the dropped character to be removed")
	}
}

func TestConnectRejectsDifferentWorld(t *testing.T) {
	s := newTestServer(t)

	clientLink, serverLink := replication.Pipe()
	if _, err := s.Join(serverLink); err != nil {
		t.Fatalf("join: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := Connect(ctx, clientLink, world.New(nil), ClientOptions{}); !errors.Is(err, ErrWorldMismatch) {
		t.Fatalf("expected ErrWorldMismatch, got %v", err)
	}
}

func TestConnectTimesOutWithoutHello(t *testing.T) {
	clientLink, _ := replication.Pipe()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := Connect(ctx, clientLink, newTestWorld(t), ClientOptions{}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected the context deadline, got %v", err)
	}
}

func TestServerClose(t *testing.T) {
	s := newTestServer(t)
	connect(t, s, newTestWorld(t))

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()

	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected Run to return nil after Close, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after Close")
	}
	if s.Len() != 0 {
		t.Fatalf("expected every session to be dropped")
	}

	_, serverLink := replication.Pipe()
	if _, err := s.Join(serverLink); !errors.Is(err, ErrServerClosed) {
		t.Fatalf("expected ErrServerClosed, got %v", err)
	}
}

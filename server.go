package scavenger

import (
	"context"
	"sync"
	"time"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/getsentry/sentry-go"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/sasha-s/go-deadlock"
	"github.com/scavenger-game/scavenger/game"
	"github.com/scavenger-game/scavenger/oerror"
	"github.com/scavenger-game/scavenger/player"
	"github.com/scavenger-game/scavenger/replication"
	"github.com/scavenger-game/scavenger/settings"
	"github.com/scavenger-game/scavenger/simulation"
	"github.com/scavenger-game/scavenger/worker"
	"github.com/scavenger-game/scavenger/world"
	"github.com/sirupsen/logrus"
)

var _ player.MovementEngine = (*simulation.Engine)(nil)

var ErrServerClosed = oerror.New("scavenger: server closed")

// ServerOptions configure a Server.
type ServerOptions struct {
	Log      *logrus.Logger
	Settings settings.Settings
	// Spawns are the locations characters are placed at when they join, used in turn.
	Spawns []mgl32.Vec3
	// Workers is the amount of goroutines characters are simulated on. It defaults to the amount of
	// CPUs.
	Workers int
}

// session is a character controlled by a connected client.
type session struct {
	char     *player.Character
	engine   *simulation.Engine
	endpoint *replication.ServerEndpoint
}

// Server runs the authoritative simulation of every character, and replicates it to the clients
// controlling them.
type Server struct {
	log   *logrus.Logger
	conf  settings.Settings
	world *world.World
	pool  *worker.Pool

	spawns    []mgl32.Vec3
	nextSpawn int

	mu       deadlock.Mutex
	sessions *orderedmap.OrderedMap[string, *session]
	ticks    uint64

	listener *replication.Listener
	closed   chan struct{}
	once     sync.Once
}

// NewServer returns a Server simulating characters in the world passed.
func NewServer(w *world.World, opts ServerOptions) *Server {
	if opts.Log == nil {
		opts.Log = logrus.New()
		opts.Log.SetLevel(logrus.PanicLevel)
	}
	if opts.Settings.Character == (settings.Character{}) {
		opts.Settings = settings.DefaultSettings()
	}
	if len(opts.Spawns) == 0 {
		opts.Spawns = []mgl32.Vec3{{0, game.CapsuleHalfHeight, 0}}
	}
	return &Server{
		log:      opts.Log,
		conf:     opts.Settings,
		world:    w,
		pool:     worker.NewPool(opts.Workers),
		spawns:   opts.Spawns,
		sessions: orderedmap.NewOrderedMap[string, *session](),
		closed:   make(chan struct{}),
	}
}

// World returns the world the server simulates.
func (s *Server) World() *world.World {
	return s.world
}

// Join creates a character for the client at the other end of link. The client is told which
// character it controls right away, and receives its state from the next tick on.
func (s *Server) Join(link replication.Link) (*player.Character, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.closed:
		_ = link.Close()
		return nil, ErrServerClosed
	default:
	}

	id := uuid.New().String()
	pos := s.spawns[s.nextSpawn%len(s.spawns)]
	s.nextSpawn++

	engine := simulation.NewEngine(id, s.world, pos, 0)
	char, err := player.New(engine, s.world, player.Options{
		ID:        id,
		Log:       s.log,
		Settings:  s.conf.Character,
		Authority: true,
	})
	if err != nil {
		return nil, err
	}
	endpoint := replication.NewServerEndpoint(link, char, s.log, s.conf)
	if err := endpoint.Hello(s.world.Checksum()); err != nil {
		return nil, err
	}
	if err := endpoint.Flush(); err != nil {
		return nil, err
	}

	s.world.SetPawn(id, game.CapsuleBox(pos))
	s.sessions.Set(id, &session{char: char, engine: engine, endpoint: endpoint})
	s.log.Infof("%s joined from %s at %v", id, link.RemoteAddr(), game.RoundVec32(pos, 2))
	return char, nil
}

// Character returns the authoritative character with the ID passed.
func (s *Server) Character(id string) (*player.Character, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions.Get(id)
	if !ok {
		return nil, false
	}
	return sess.char, true
}

// Len returns the amount of connected clients.
func (s *Server) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions.Len()
}

// Ticks returns the amount of ticks the server ran.
func (s *Server) Ticks() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticks
}

// Tick runs one server tick. The requests of every client are applied, every character is
// simulated and the result is replicated to every client. Sessions that fail are dropped.
func (s *Server) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.closed:
		return
	default:
	}
	s.ticks++

	list := make([]*session, 0, s.sessions.Len())
	for _, sess := range s.sessionList() {
		if err := sess.endpoint.Poll(); err != nil {
			s.drop(sess, err)
			continue
		}
		if m, ok := sess.endpoint.NextMove(); ok {
			sess.char.ApplyMove(m)
		}
		list = append(list, sess)
	}

	jobs := make([]func(), len(list))
	for i, sess := range list {
		jobs[i] = func() {
			sess.char.HandleHits(sess.engine.Step(game.DeltaTime))
			sess.char.Tick(game.DeltaTime)
		}
	}
	s.pool.Run(jobs...)

	chars := make([]*player.Character, len(list))
	for i, sess := range list {
		chars[i] = sess.char
		s.world.SetPawn(sess.char.ID(), game.CapsuleBox(sess.engine.Location()))
	}
	for _, sess := range list {
		if err := sess.endpoint.Replicate(chars); err != nil {
			s.drop(sess, err)
			continue
		}
		if err := sess.endpoint.Flush(); err != nil {
			s.drop(sess, err)
		}
	}
}

func (s *Server) sessionList() []*session {
	list := make([]*session, 0, s.sessions.Len())
	for el := s.sessions.Front(); el != nil; el = el.Next() {
		list = append(list, el.Value)
	}
	return list
}

// drop closes the session passed and removes its character. The server lock must be held.
func (s *Server) drop(sess *session, err error) {
	id := sess.char.ID()
	if !s.sessions.Delete(id) {
		return
	}
	_ = sess.endpoint.Close()
	s.world.RemoveObject(id)
	s.log.Infof("%s left: %v", id, err)
}

// Run ticks the server at a fixed rate until ctx is cancelled or the server is closed.
func (s *Server) Run(ctx context.Context) error {
	t := time.NewTicker(game.TickDuration)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.closed:
			return nil
		case <-t.C:
			s.Tick()
		}
	}
}

// Listen starts accepting RakNet clients on the address passed. Every client that connects joins the
// server.
func (s *Server) Listen(addr string) error {
	l, err := replication.Listen(addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()

	s.log.Infof("scavenger is now listening on %v", l.Addr())
	go func() {
		defer sentry.Recover()
		for {
			link, err := l.Accept()
			if err != nil {
				s.log.Debugf("stopped accepting clients: %v", err)
				return
			}
			if _, err := s.Join(link); err != nil {
				s.log.Errorf("unable to join %s: %v", link.RemoteAddr(), err)
				_ = link.Close()
			}
		}
	}()
	return nil
}

// Close stops the server, disconnecting every client.
func (s *Server) Close() error {
	first := false
	s.once.Do(func() {
		close(s.closed)
		first = true
	})
	if !first {
		return nil
	}

	s.mu.Lock()
	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}
	for _, sess := range s.sessionList() {
		s.drop(sess, ErrServerClosed)
	}
	s.mu.Unlock()

	s.pool.Close()
	return err
}

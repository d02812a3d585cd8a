package replication

import (
	"fmt"
	"net"
	"sync"

	"github.com/sandertv/go-raknet"
)

// Link is a message oriented connection between a client and the server. Every call to
// WritePacket is delivered as a single packet by ReadPacket on the other end.
type Link interface {
	// ReadPacket blocks until a packet is available or the link is closed.
	ReadPacket() ([]byte, error)
	// WritePacket must not retain b once it returns.
	WritePacket(b []byte) error
	Close() error
	RemoteAddr() net.Addr
}

// pollingLink is implemented by links that can be read without blocking. A Channel reads such
// links directly from Poll instead of from a reader goroutine.
type pollingLink interface {
	TryReadPacket() ([]byte, bool, error)
}

// pipeBuffer is the amount of packets a pipe holds per direction before it starts dropping them.
const pipeBuffer = 4096

type pipeAddr string

func (a pipeAddr) Network() string { return "pipe" }
func (a pipeAddr) String() string  { return string(a) }

// pipeEnd is one end of an in-memory link. Packets written to a full pipe are dropped, the way an
// unreliable transport would.
type pipeEnd struct {
	name string
	in   chan []byte
	out  chan []byte

	closed chan struct{}
	once   *sync.Once
}

// Pipe returns the two ends of an in-memory link. It is used by tests, and by a client and server
// running in the same process.
func Pipe() (Link, Link) {
	a, b := make(chan []byte, pipeBuffer), make(chan []byte, pipeBuffer)
	closed, once := make(chan struct{}), &sync.Once{}
	return &pipeEnd{name: "pipe:client", in: a, out: b, closed: closed, once: once},
		&pipeEnd{name: "pipe:server", in: b, out: a, closed: closed, once: once}
}

func (p *pipeEnd) ReadPacket() ([]byte, error) {
	select {
	case b := <-p.in:
		return b, nil
	case <-p.closed:
		return nil, net.ErrClosed
	}
}

func (p *pipeEnd) TryReadPacket() ([]byte, bool, error) {
	select {
	case b := <-p.in:
		return b, true, nil
	default:
	}
	select {
	case <-p.closed:
		return nil, false, net.ErrClosed
	default:
		return nil, false, nil
	}
}

func (p *pipeEnd) WritePacket(b []byte) error {
	select {
	case <-p.closed:
		return net.ErrClosed
	default:
	}
	select {
	case p.out <- append([]byte(nil), b...):
	default:
	}
	return nil
}

func (p *pipeEnd) Close() error {
	p.once.Do(func() { close(p.closed) })
	return nil
}

func (p *pipeEnd) RemoteAddr() net.Addr {
	return pipeAddr(p.name)
}

// connLink adapts a packet oriented net.Conn, such as a RakNet connection, to a Link.
type connLink struct {
	conn net.Conn
	buf  []byte
}

// NewConnLink returns a Link that sends and receives packets over conn. Every Read of conn must
// return exactly one packet.
func NewConnLink(conn net.Conn) Link {
	return &connLink{conn: conn, buf: make([]byte, 1500)}
}

func (c *connLink) ReadPacket() ([]byte, error) {
	if r, ok := c.conn.(interface{ ReadPacket() ([]byte, error) }); ok {
		return r.ReadPacket()
	}
	n, err := c.conn.Read(c.buf)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), c.buf[:n]...), nil
}

func (c *connLink) WritePacket(b []byte) error {
	_, err := c.conn.Write(b)
	return err
}

func (c *connLink) Close() error {
	return c.conn.Close()
}

func (c *connLink) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Listener accepts links from clients over RakNet.
type Listener struct {
	l *raknet.Listener
}

// Listen starts listening for RakNet connections on the UDP address passed.
func Listen(addr string) (*Listener, error) {
	l, err := raknet.Listen(addr)
	if err != nil {
		return nil, fmt.Errorf("replication: listen on %s: %w", addr, err)
	}
	return &Listener{l: l}, nil
}

// Accept blocks until a client connects.
func (l *Listener) Accept() (Link, error) {
	conn, err := l.l.Accept()
	if err != nil {
		return nil, err
	}
	return NewConnLink(conn), nil
}

func (l *Listener) Addr() net.Addr {
	return l.l.Addr()
}

func (l *Listener) Close() error {
	return l.l.Close()
}

// Dial connects to a server listening on the address passed.
func Dial(addr string) (Link, error) {
	conn, err := raknet.Dial(addr)
	if err != nil {
		return nil, fmt.Errorf("replication: dial %s: %w", addr, err)
	}
	return NewConnLink(conn), nil
}

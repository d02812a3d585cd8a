package replication

import (
	"bytes"
	"fmt"
	"net"
	"sync"

	"github.com/getsentry/sentry-go"
	"github.com/scavenger-game/scavenger/internal"
	"github.com/scavenger-game/scavenger/oerror"
	"github.com/scavenger-game/scavenger/utils"
	"github.com/sirupsen/logrus"
	"github.com/vmihailenco/msgpack/v5"
)

var (
	ErrBacklog = oerror.New("replication: too many unacknowledged frames")
	ErrClosed  = oerror.New("replication: channel closed")
)

// ChannelOptions configure a Channel. Zero values are replaced with defaults.
type ChannelOptions struct {
	Log *logrus.Logger
	// MaxPendingFrames is the amount of unacknowledged frames held before Send fails.
	MaxPendingFrames int
	// ResendInterval is the amount of flushes to wait for an acknowledgement before a frame is
	// sent again.
	ResendInterval int
}

// Stats counts the frames a Channel handled.
type Stats struct {
	Sent, Resent                uint64
	Received, Duplicate, Stale  uint64
	PacketsWritten, PacketsRead uint64
}

type pendingFrame struct {
	frame  Frame
	sent   bool
	sentAt uint64
}

// Channel sends frames over a Link at least once, and delivers received frames at most once and in
// order per key.
//
// Send, Flush and Poll must be called from a single goroutine.
type Channel struct {
	link Link
	log  *logrus.Logger

	resendInterval uint64
	flushes        uint64

	nextSeq uint32
	pending *utils.CircularQueue[pendingFrame]

	received  uint32
	ahead     map[uint32]struct{}
	lastByKey map[string]uint32
	ackDirty  bool

	inbox  chan Packet
	done   chan struct{}
	closed chan struct{}
	once   sync.Once

	readErr error
	stats   Stats
}

// NewChannel creates a Channel over link. Unless the link can be polled, a goroutine is started
// that reads packets from it until the Channel is closed.
func NewChannel(link Link, opts ChannelOptions) *Channel {
	if opts.Log == nil {
		opts.Log = logrus.New()
		opts.Log.SetLevel(logrus.PanicLevel)
	}
	if opts.MaxPendingFrames <= 0 {
		opts.MaxPendingFrames = 512
	}
	if opts.ResendInterval <= 0 {
		opts.ResendInterval = 15
	}

	c := &Channel{
		link:           link,
		log:            opts.Log,
		resendInterval: uint64(opts.ResendInterval),
		pending:        utils.NewCircularQueue[pendingFrame](opts.MaxPendingFrames, nil),
		ahead:          make(map[uint32]struct{}),
		lastByKey:      make(map[string]uint32),
		done:           make(chan struct{}),
		closed:         make(chan struct{}),
	}
	if _, ok := link.(pollingLink); !ok {
		c.inbox = make(chan Packet, 256)
		go c.read()
	}
	return c
}

func (c *Channel) read() {
	defer sentry.Recover()
	defer close(c.done)

	for {
		b, err := c.link.ReadPacket()
		if err != nil {
			c.readErr = err
			return
		}
		pk, ok := c.decode(b)
		if !ok {
			continue
		}
		select {
		case c.inbox <- pk:
		case <-c.closed:
			c.readErr = net.ErrClosed
			return
		}
	}
}

func (c *Channel) decode(b []byte) (Packet, bool) {
	var pk Packet
	if err := msgpack.Unmarshal(b, &pk); err != nil {
		c.log.Debugf("replication: dropped malformed packet from %s: %v", c.link.RemoteAddr(), err)
		return pk, false
	}
	return pk, true
}

// Send queues a frame with the body passed, encoded with msgpack. The frame is written on the next
// Flush. ErrBacklog is returned if too many frames are waiting for an acknowledgement.
func (c *Channel) Send(op Op, target, key string, body any) error {
	if c.pending.Full() {
		return ErrBacklog
	}
	var b []byte
	if body != nil {
		var err error
		if b, err = msgpack.Marshal(body); err != nil {
			return fmt.Errorf("replication: encode %v: %w", op, err)
		}
	}

	c.nextSeq++
	return c.pending.Append(pendingFrame{frame: Frame{
		Seq:    c.nextSeq,
		Op:     op,
		Target: target,
		Key:    key,
		Body:   b,
	}})
}

// Flush writes the frames that were not sent yet, the frames that were not acknowledged in time
// and any pending acknowledgement in a single packet.
func (c *Channel) Flush() error {
	c.flushes++

	pk := Packet{Ack: c.received}
	for i := 0; i < c.pending.Len(); i++ {
		p, _ := c.pending.Get(i)
		if p.sent && c.flushes-p.sentAt < c.resendInterval {
			continue
		}
		if p.sent {
			c.stats.Resent++
		} else {
			c.stats.Sent++
		}
		p.sent, p.sentAt = true, c.flushes
		_ = c.pending.Set(i, p)
		pk.Frames = append(pk.Frames, p.frame)
	}
	if len(pk.Frames) == 0 && !c.ackDirty {
		return nil
	}
	c.ackDirty = false

	buf := internal.BufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer internal.BufferPool.Put(buf)

	if err := msgpack.NewEncoder(buf).Encode(&pk); err != nil {
		return fmt.Errorf("replication: encode packet: %w", err)
	}
	if err := c.link.WritePacket(buf.Bytes()); err != nil {
		return fmt.Errorf("replication: write to %s: %w", c.link.RemoteAddr(), err)
	}
	c.stats.PacketsWritten++
	return nil
}

// Poll returns the frames received since the last call, without blocking. Once the link fails,
// the remaining frames are returned together with an error wrapping ErrClosed.
func (c *Channel) Poll() ([]Frame, error) {
	var frames []Frame
	if p, ok := c.link.(pollingLink); ok {
		for {
			b, ok, err := p.TryReadPacket()
			if err != nil {
				return frames, fmt.Errorf("%w: %v", ErrClosed, err)
			}
			if !ok {
				return frames, nil
			}
			if pk, ok := c.decode(b); ok {
				frames = append(frames, c.receive(pk)...)
			}
		}
	}

	for {
		select {
		case pk := <-c.inbox:
			frames = append(frames, c.receive(pk)...)
			continue
		default:
		}
		select {
		case <-c.done:
			if len(c.inbox) > 0 {
				continue
			}
			return frames, fmt.Errorf("%w: %v", ErrClosed, c.readErr)
		default:
			return frames, nil
		}
	}
}

func (c *Channel) receive(pk Packet) []Frame {
	c.stats.PacketsRead++
	c.acknowledge(pk.Ack)

	var frames []Frame
	for _, f := range pk.Frames {
		if f.Seq <= c.received {
			// The sender missed our acknowledgement.
			c.stats.Duplicate++
			c.ackDirty = true
			continue
		}
		if _, ok := c.ahead[f.Seq]; ok {
			c.stats.Duplicate++
			continue
		}
		c.ahead[f.Seq] = struct{}{}
		for {
			if _, ok := c.ahead[c.received+1]; !ok {
				break
			}
			delete(c.ahead, c.received+1)
			c.received++
		}
		c.ackDirty = true

		key := f.Target + "/" + f.Key
		if last, ok := c.lastByKey[key]; ok && f.Seq < last {
			c.stats.Stale++
			continue
		}
		c.lastByKey[key] = f.Seq
		c.stats.Received++
		frames = append(frames, f)
	}
	return frames
}

// acknowledge drops every pending frame up to and including seq.
func (c *Channel) acknowledge(seq uint32) {
	for {
		p, ok := c.pending.Peek()
		if !ok || p.frame.Seq > seq {
			return
		}
		c.pending.Pop()
	}
}

// Pending returns the amount of frames waiting for an acknowledgement.
func (c *Channel) Pending() int {
	return c.pending.Len()
}

func (c *Channel) Stats() Stats {
	return c.stats
}

func (c *Channel) RemoteAddr() string {
	return c.link.RemoteAddr().String()
}

// Close closes the underlying link.
func (c *Channel) Close() error {
	var err error
	c.once.Do(func() {
		close(c.closed)
		err = c.link.Close()
	})
	return err
}

package world

import (
	"encoding/binary"
	"math"
	"slices"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/ethaniccc/float32-cube/cube"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/sasha-s/go-deadlock"
	"github.com/scavenger-game/scavenger/game"
	"github.com/scavenger-game/scavenger/oerror"
	"github.com/sirupsen/logrus"
	"github.com/zeebo/xxh3"
)

// Channel is a bitmask of the collision channels an object belongs to, or a probe queries.
type Channel uint8

const (
	ChannelWorldStatic Channel = 1 << iota
	ChannelPawn

	ChannelAll = ChannelWorldStatic | ChannelPawn
)

// TagCover marks an object as a surface characters may take cover against.
const TagCover = "Cover"

var (
	ErrDuplicateObject = oerror.New("world: object already exists")
	ErrEmptyObjectID   = oerror.New("world: object id must not be empty")
)

// Object is a single axis aligned collidable in the world.
type Object struct {
	ID      string
	Box     cube.BBox
	Channel Channel
	Tags    []string
}

// HasTag returns true if the object carries the tag passed.
func (o Object) HasTag(tag string) bool {
	return slices.Contains(o.Tags, tag)
}

// World holds the collision geometry characters move through and probe against. Static geometry
// is expected to be set up before the simulation starts, while pawn boxes are refreshed every tick.
type World struct {
	objects *orderedmap.OrderedMap[string, Object]
	log     *logrus.Logger

	deadlock.RWMutex
}

func New(log *logrus.Logger) *World {
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.PanicLevel)
	}
	return &World{
		objects: orderedmap.NewOrderedMap[string, Object](),
		log:     log,
	}
}

// AddObject adds a new object to the world.
func (w *World) AddObject(o Object) error {
	if o.ID == "" {
		return ErrEmptyObjectID
	}

	w.Lock()
	defer w.Unlock()

	if _, ok := w.objects.Get(o.ID); ok {
		return ErrDuplicateObject
	}
	w.objects.Set(o.ID, o)
	w.log.Debugf("world: added %s (channel=%d tags=%v)", o.ID, o.Channel, o.Tags)
	return nil
}

// AddCover is a shortcut for adding a static object tagged as cover.
func (w *World) AddCover(id string, bb cube.BBox) error {
	return w.AddObject(Object{ID: id, Box: bb, Channel: ChannelWorldStatic, Tags: []string{TagCover}})
}

// AddWall is a shortcut for adding static geometry that blocks movement but is not cover.
func (w *World) AddWall(id string, bb cube.BBox) error {
	return w.AddObject(Object{ID: id, Box: bb, Channel: ChannelWorldStatic})
}

// RemoveObject removes the object with the given ID, returning false if it did not exist.
func (w *World) RemoveObject(id string) bool {
	w.Lock()
	defer w.Unlock()
	return w.objects.Delete(id)
}

// Object returns the object with the ID passed.
func (w *World) Object(id string) (Object, bool) {
	w.RLock()
	defer w.RUnlock()
	return w.objects.Get(id)
}

// SetPawn creates or moves the pawn box of the character with the given ID.
func (w *World) SetPawn(id string, bb cube.BBox) {
	w.Lock()
	defer w.Unlock()

	if o, ok := w.objects.Get(id); ok {
		o.Box = bb
		w.objects.Set(id, o)
		return
	}
	w.objects.Set(id, Object{ID: id, Box: bb, Channel: ChannelPawn})
}

// Len returns the amount of objects in the world.
func (w *World) Len() int {
	w.RLock()
	defer w.RUnlock()
	return w.objects.Len()
}

// Collisions returns every object on the given channels that overlaps bb, excluding the object
// named by ignore.
func (w *World) Collisions(bb cube.BBox, channels Channel, ignore string) []Object {
	w.RLock()
	defer w.RUnlock()

	var list []Object
	for el := w.objects.Front(); el != nil; el = el.Next() {
		o := el.Value
		if o.Channel&channels == 0 || o.ID == ignore {
			continue
		}
		if game.BoxesOverlap(o.Box, bb) {
			list = append(list, o)
		}
	}
	return list
}

// Checksum hashes the static geometry of the world. Two worlds with the same static objects added
// in the same order produce the same checksum, so a client can tell that it is predicting
// against different geometry than the server.
func (w *World) Checksum() uint64 {
	w.RLock()
	defer w.RUnlock()

	h := xxh3.New()
	buf := make([]byte, 4)
	for el := w.objects.Front(); el != nil; el = el.Next() {
		o := el.Value
		if o.Channel&ChannelWorldStatic == 0 {
			continue
		}
		_, _ = h.WriteString(o.ID)
		for _, v := range []mgl32.Vec3{o.Box.Min(), o.Box.Max()} {
			for _, c := range v {
				binary.LittleEndian.PutUint32(buf, math.Float32bits(c))
				_, _ = h.Write(buf)
			}
		}
		for _, tag := range o.Tags {
			_, _ = h.WriteString(tag)
		}
	}
	return h.Sum64()
}

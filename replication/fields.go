package replication

import (
	"github.com/scavenger-game/scavenger/player"
	"github.com/vmihailenco/msgpack/v5"
)

// field is a single replicated property of a character.
type field struct {
	name    string
	changed func(a, b *player.Replicated) bool
	value   func(r *player.Replicated) any
	decode  func(r *player.Replicated, b []byte) error
}

func newField[T comparable](name string, ptr func(r *player.Replicated) *T) field {
	return field{
		name: name,
		changed: func(a, b *player.Replicated) bool {
			return *ptr(a) != *ptr(b)
		},
		value: func(r *player.Replicated) any {
			return *ptr(r)
		},
		decode: func(r *player.Replicated, b []byte) error {
			return msgpack.Unmarshal(b, ptr(r))
		},
	}
}

var fields = []field{
	newField("cover", func(r *player.Replicated) *player.CoverState { return &r.Cover }),
	newField("crouched", func(r *player.Replicated) *bool { return &r.Crouched }),
	newField("facing_right", func(r *player.Replicated) *bool { return &r.CoverFacingRight }),
	newField("popped_out", func(r *player.Replicated) *bool { return &r.PoppedOut }),
	newField("cover_dir", func(r *player.Replicated) *[3]float32 { return (*[3]float32)(&r.CoverDirection) }),
	newField("edge_left", func(r *player.Replicated) *bool { return &r.OnEdgeLeft }),
	newField("edge_right", func(r *player.Replicated) *bool { return &r.OnEdgeRight }),
	newField("adjusted_left", func(r *player.Replicated) *bool { return &r.EdgeAdjustedLeft }),
	newField("adjusted_right", func(r *player.Replicated) *bool { return &r.EdgeAdjustedRight }),
	newField("dashing", func(r *player.Replicated) *bool { return &r.Dashing }),
	newField("dash_dir", func(r *player.Replicated) *[3]float32 { return (*[3]float32)(&r.DashDirection) }),
	newField("running", func(r *player.Replicated) *bool { return &r.Running }),
	newField("aiming", func(r *player.Replicated) *bool { return &r.IsAiming }),
	newField("dead", func(r *player.Replicated) *bool { return &r.IsDead }),
	newField("aim_pitch", func(r *player.Replicated) *float32 { return &r.AimPitch }),
	newField("aim_yaw", func(r *player.Replicated) *float32 { return &r.AimYaw }),
	newField("location", func(r *player.Replicated) *[3]float32 { return (*[3]float32)(&r.Location) }),
	newField("yaw", func(r *player.Replicated) *float32 { return &r.Yaw }),
}

var fieldsByName = func() map[string]field {
	m := make(map[string]field, len(fields))
	for _, f := range fields {
		m[f.name] = f
	}
	return m
}()

// changedFields returns the fields that differ between prev and next. Every field is returned if
// full is true.
func changedFields(prev, next *player.Replicated, full bool) []field {
	var list []field
	for _, f := range fields {
		if full || f.changed(prev, next) {
			list = append(list, f)
		}
	}
	return list
}

// applyField decodes the value of the named field into r.
func applyField(r *player.Replicated, name string, b []byte) error {
	f, ok := fieldsByName[name]
	if !ok {
		return errUnknownField
	}
	return f.decode(r, b)
}

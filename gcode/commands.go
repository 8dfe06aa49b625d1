// Package gcode defines the concrete, outbound-only command values sent
// to Marlin-class firmware. Types with no optional fields are rendered
// automatically by the serializer's reflection path: the type name
// becomes the mnemonic, each exported field's name becomes its
// single-letter prefix. Types that have optional fields implement
// RenderGcode directly instead, because a struct field rendered
// through reflection always writes its letter even when the value is
// absent (see serializer.Render's struct handling) — fine for a
// required field, wrong for an axis the caller didn't ask to move.
//
// Parsing inbound G-code, or interpreting a firmware's command
// dialect, is not this package's job; a raw string sent through a
// Socket is serialized as-is, which is how free-form commands and
// file playback flow through the core.
package gcode

import "github.com/print3rs/print3rs/serializer"

// G90 selects absolute positioning.
type G90 struct{}

// G91 selects relative positioning.
type G91 struct{}

// M105 requests a temperature report.
type M105 struct{}

// M107 turns the fan off.
type M107 struct{}

// M114 requests the current position.
type M114 struct{}

// M115 requests firmware capability/version information.
type M115 struct{}

// M110 resets the firmware's expected line number. Sending this should
// be paired with a matching Socket.SetSequence so the host and
// firmware agree on the next number; the core does not do this
// automatically.
type M110 struct {
	N int32
}

// M140 sets the bed target temperature without waiting.
type M140 struct {
	S float64
}

// M190 sets the bed target temperature and waits to reach it.
type M190 struct {
	S float64
}

// G1 is a linear (or rapid, as G0) move. Only axes and feedrate that
// are set are written; an unset axis is left out of the line entirely
// rather than written with no value.
type G1 struct {
	X *float64
	Y *float64
	Z *float64
	E *float64
	F *float64
}

func (g G1) RenderGcode(w serializer.LineWriter) { renderOptionalFields(w, "G1", g.fields()) }

func (g G1) fields() []optionalField {
	return []optionalField{
		{'X', g.X}, {'Y', g.Y}, {'Z', g.Z}, {'E', g.E}, {'F', g.F},
	}
}

// G0 is a rapid (non-extruding) move with the same shape as G1.
type G0 struct {
	X *float64
	Y *float64
	Z *float64
	F *float64
}

func (g G0) RenderGcode(w serializer.LineWriter) {
	renderOptionalFields(w, "G0", []optionalField{
		{'X', g.X}, {'Y', g.Y}, {'Z', g.Z}, {'F', g.F},
	})
}

// G92 sets the current position without moving. Absent axes are left
// untouched, same as an absent axis on G1.
type G92 struct {
	X *float64
	Y *float64
	Z *float64
	E *float64
}

func (g G92) RenderGcode(w serializer.LineWriter) {
	renderOptionalFields(w, "G92", []optionalField{
		{'X', g.X}, {'Y', g.Y}, {'Z', g.Z}, {'E', g.E},
	})
}

// G28 homes the given axes. Leaving all three false homes everything.
type G28 struct {
	X bool
	Y bool
	Z bool
}

func (g G28) RenderGcode(w serializer.LineWriter) {
	w.WriteBytes([]byte("G28"))
	if g.X {
		w.WriteByte('X')
	}
	if g.Y {
		w.WriteByte('Y')
	}
	if g.Z {
		w.WriteByte('Z')
	}
}

// M104 sets the hotend target temperature without waiting. T selects
// the tool index on multi-extruder machines; omit it for the active tool.
type M104 struct {
	S float64
	T *float64
}

func (m M104) RenderGcode(w serializer.LineWriter) { renderTemp(w, "M104", m.S, m.T) }

// M109 sets the hotend target temperature and waits to reach it.
type M109 struct {
	S float64
	T *float64
}

func (m M109) RenderGcode(w serializer.LineWriter) { renderTemp(w, "M109", m.S, m.T) }

func renderTemp(w serializer.LineWriter, name string, s float64, t *float64) {
	w.WriteBytes([]byte(name))
	w.WriteByte('S')
	serializer.Render(w, s)
	if t != nil {
		w.WriteByte('T')
		serializer.Render(w, *t)
	}
}

// M106 sets the fan speed (0-255); a nil S selects the firmware's default.
type M106 struct {
	S *float64
}

func (m M106) RenderGcode(w serializer.LineWriter) {
	w.WriteBytes([]byte("M106"))
	if m.S != nil {
		w.WriteByte('S')
		serializer.Render(w, *m.S)
	}
}

type optionalField struct {
	letter byte
	value  *float64
}

func renderOptionalFields(w serializer.LineWriter, name string, fields []optionalField) {
	w.WriteBytes([]byte(name))
	for _, f := range fields {
		if f.value == nil {
			continue
		}
		w.WriteByte(f.letter)
		serializer.Render(w, *f.value)
	}
}

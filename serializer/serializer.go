// Package serializer formats typed command values into the framed,
// checksummed G-code line a Marlin-class printer firmware expects,
// tracking a shared rolling sequence number across clones the way a
// single printer's line numbering must stay consistent across every
// producer that talks to it.
package serializer

import (
	"strconv"
	"sync/atomic"
)

// Serializer renders command values to wire bytes. It is cheap to
// clone: clones share the same underlying sequence counter (one
// logical printer, one counter) the way the teacher's command
// registry is shared process-wide. A Serializer holds no output buffer:
// every call renders into its own line buffer, so concurrent callers
// never stomp on each other's bytes.
type Serializer struct {
	sequence *int32
}

// New returns a Serializer with its sequence counter initialized to 1,
// per §3.
func New() *Serializer {
	seq := int32(1)
	return &Serializer{sequence: &seq}
}

// Clone returns a Serializer sharing this one's sequence counter.
func (s *Serializer) Clone() *Serializer {
	return &Serializer{sequence: s.sequence}
}

// SetSequence stores n into the shared counter. Serializations already
// in flight that have already claimed a number are unaffected: this
// only changes what the *next* claim returns.
func (s *Serializer) SetSequence(n int32) {
	atomic.StoreInt32(s.sequence, n)
}

// SerializeSequenced renders v into a freshly-allocated line with an
// N<seq> prefix and *<checksum> suffix, returning the sequence number
// it claimed. Equivalent to AppendSequenced(nil, v).
func (s *Serializer) SerializeSequenced(v any) (seq int32, line []byte) {
	return s.AppendSequenced(nil, v)
}

// AppendSequenced claims the next sequence number, renders v, and
// appends the resulting line to buf (which may be nil), returning the
// claimed sequence number and the extended slice. Claiming the number
// and writing the N<seq> prefix happen atomically with respect to
// other claims: two concurrent calls always observe distinct numbers.
func (s *Serializer) AppendSequenced(buf []byte, v any) (seq int32, line []byte) {
	seq = atomic.AddInt32(s.sequence, 1) - 1

	w := &lineBuf{buf: buf}
	w.WriteByte('N')
	w.WriteBytes(strconv.AppendInt(nil, int64(seq), 10))
	renderAny(w, v)

	w.buf = append(w.buf, '*')
	w.buf = appendUint8Decimal(w.buf, w.checksum)
	w.buf = append(w.buf, '\n')

	return seq, w.buf
}

// SerializeUnsequenced renders v as a bare line with no N<seq> prefix
// and no checksum; the counter is untouched. Equivalent to
// AppendUnsequenced(nil, v).
func (s *Serializer) SerializeUnsequenced(v any) []byte {
	return s.AppendUnsequenced(nil, v)
}

// AppendUnsequenced renders v and appends the resulting line to buf,
// without touching the sequence counter.
func (s *Serializer) AppendUnsequenced(buf []byte, v any) []byte {
	w := &lineBuf{buf: buf}
	renderAny(w, v)
	w.buf = append(w.buf, '\n')
	return w.buf
}

// lineBuf accumulates rendered bytes and their running XOR checksum.
// Every byte written before the '*' sentinel contributes; the '*',
// checksum digits, and trailing '\n' never do, and each line starts a
// fresh checksum.
type lineBuf struct {
	buf      []byte
	checksum byte
}

func (w *lineBuf) WriteByte(b byte) {
	w.buf = append(w.buf, b)
	w.checksum ^= b
}

func (w *lineBuf) WriteBytes(b []byte) {
	w.buf = append(w.buf, b...)
	for _, c := range b {
		w.checksum ^= c
	}
}

func appendUint8Decimal(buf []byte, v byte) []byte {
	if v < 10 {
		return append(buf, '0'+v)
	}
	if v < 100 {
		return append(buf, '0'+v/10, '0'+v%10)
	}
	return append(buf, '0'+v/100, '0'+(v/10)%10, '0'+v%10)
}

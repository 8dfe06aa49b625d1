package printer

import (
	"log/slog"

	"github.com/print3rs/print3rs/response"
	"github.com/print3rs/print3rs/serializer"
)

// outboundCapacity matches the printer firmware's own small receive
// buffer: enough to keep the line fed without the host getting far
// enough ahead that a resend has to rewind a large backlog.
const outboundCapacity = 8

// Socket is a cloneable handle bundling send capability and an
// independent inbound subscription against one connected printer.
// Clones share the outbound queue, the transport, and the sequence
// counter, but each holds its own subscription cursor, matching a
// cloned Printer's socket in the system this one is descended from.
type Socket struct {
	outbound   *outboundQueue
	serializer *serializer.Serializer
	lines      *broadcast
	lineSub    *subscription
	telemetry  *telemetry
	transcript *transcript
	log        *slog.Logger
}

// Clone returns an independent Socket sharing this one's queue,
// serializer (and so its sequence counter), and broadcast, but reading
// from its own freshly opened subscription.
func (s *Socket) Clone() *Socket {
	return &Socket{
		outbound:   s.outbound,
		serializer: s.serializer.Clone(),
		lines:      s.lines,
		lineSub:    s.lines.subscribe(),
		telemetry:  s.telemetry,
		transcript: s.transcript,
		log:        s.log,
	}
}

// Close releases this socket's own subscription. It does not affect
// the underlying printer or any other clone.
func (s *Socket) Close() {
	s.lines.unsubscribe(s.lineSub)
}

// Ack is the correlator handle returned by Send: waiting on it
// resolves once the firmware's acknowledgement (or resend request) for
// that specific sequence number arrives, or the connection ends.
type Ack struct {
	seq  int32
	done chan response.Response
}

// Wait blocks until the acknowledgement resolves.
func (a *Ack) Wait() response.Response {
	return <-a.done
}

// Sequence returns the sequence number this Ack is correlating.
func (a *Ack) Sequence() int32 {
	return a.seq
}

func (a *Ack) correlate(b *broadcast, sub *subscription, tel *telemetry, log *slog.Logger) {
	defer b.unsubscribe(sub)
	for {
		line, ok := sub.recv()
		if !ok {
			a.done <- response.Response{Kind: response.PlainOk}
			return
		}
		resp := response.Classify(line)
		switch resp.Kind {
		case response.SequencedOk:
			if resp.Sequence == a.seq {
				tel.acked()
				log.Debug("sequenced ok", "seq", a.seq)
				a.done <- resp
				return
			}
		case response.Resend:
			if resp.Sequence == a.seq {
				tel.resend()
				log.Warn("resend requested", "seq", a.seq)
				a.done <- resp
				return
			}
		}
	}
}

// Send serializes v with the next sequence number and checksum,
// enqueues it, and returns a correlator: the inbound subscription is
// opened before the line is committed to the outbound queue, so a
// fast-arriving acknowledgement can never be missed between the two
// steps.
func (s *Socket) Send(v any) (*Ack, error) {
	if err := s.outbound.reserve(); err != nil {
		return nil, err
	}

	seq, line := s.serializer.AppendSequenced(nil, v)
	sub := s.lines.subscribe()

	if err := s.outbound.commit(line); err != nil {
		s.lines.unsubscribe(sub)
		return nil, err
	}

	s.telemetry.sent()
	s.transcript.record(true, line)
	s.log.Debug("queued sequenced command", "seq", seq, "line", string(line))

	ack := &Ack{seq: seq, done: make(chan response.Response, 1)}
	go ack.correlate(s.lines, sub, s.telemetry, s.log)
	return ack, nil
}

// SendUnsequenced serializes v without a sequence number or checksum
// and enqueues it without waiting for room: it fails with
// ErrQueueFull rather than blocking.
func (s *Socket) SendUnsequenced(v any) error {
	line := s.serializer.AppendUnsequenced(nil, v)
	if err := s.outbound.tryEnqueue(line); err != nil {
		return err
	}
	s.telemetry.sent()
	s.transcript.record(true, line)
	return nil
}

// SendRaw enqueues already-formatted bytes verbatim, bypassing the
// serializer entirely. It fails with ErrQueueFull rather than
// blocking.
func (s *Socket) SendRaw(b []byte) error {
	line := append([]byte(nil), b...)
	if err := s.outbound.tryEnqueue(line); err != nil {
		return err
	}
	s.telemetry.sent()
	s.transcript.record(true, line)
	return nil
}

// ReadNextLine blocks for the next inbound line on this socket's own
// persistent cursor, continuing from wherever the previous call left
// off.
func (s *Socket) ReadNextLine() ([]byte, error) {
	line, ok := s.lineSub.recv()
	if !ok {
		return nil, ErrDisconnected
	}
	return line, nil
}

// SubscribeLines returns a fresh, independent stream starting from
// now; it does not share position with this socket's own ReadNextLine
// cursor.
func (s *Socket) SubscribeLines() *LineStream {
	return &LineStream{b: s.lines, sub: s.lines.subscribe()}
}

// SetSequence overrides the next sequence number to be claimed. It
// affects every socket cloned from the same origin, since clones share
// the serializer's counter.
func (s *Socket) SetSequence(n int32) {
	s.serializer.SetSequence(n)
}

// Package printer is the communication core: a Printer owns a
// transport for the life of a connection, runs a background I/O task
// over it, and exposes a cloneable Socket for sequenced sends with
// acknowledgement futures, fire-and-forget sends, and raw line
// subscriptions.
package printer

import (
	"log/slog"
	"sync"

	"github.com/print3rs/print3rs/serializer"
	"github.com/print3rs/print3rs/transport"
)

// Printer is the public façade. The zero value is Disconnected; use
// New or Connect to bring one up on a transport.
type Printer struct {
	mu  sync.Mutex
	log *slog.Logger

	connected  bool
	socket     *Socket
	mux        *multiplexer
	telemetry  *telemetry
	transcript *transcript
}

// New spawns the background I/O task on t and returns a Connected
// printer, logging through slog's default logger.
func New(t transport.Port) *Printer {
	return NewWithLogger(t, slog.Default())
}

// NewWithLogger is New but logs through log instead of slog's default.
func NewWithLogger(t transport.Port, log *slog.Logger) *Printer {
	p := &Printer{log: log}
	p.connect(t)
	return p
}

// Connect transitions the printer to a new Connected state on t,
// tearing down any previous connection first.
func (p *Printer) Connect(t transport.Port) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disconnectLocked()
	p.connect(t)
}

func (p *Printer) connect(t transport.Port) {
	log := p.log
	if log == nil {
		log = slog.Default()
		p.log = log
	}

	outbound := newOutboundQueue(outboundCapacity)
	lines := newBroadcast()
	tel := p.telemetry
	if tel == nil {
		tel = &telemetry{}
	}
	tr := &transcript{}

	mux := startMultiplexer(t, outbound, lines, tr, log)

	p.socket = &Socket{
		outbound:   outbound,
		serializer: serializer.New(),
		lines:      lines,
		lineSub:    lines.subscribe(),
		telemetry:  tel,
		transcript: tr,
		log:        log,
	}
	p.mux = mux
	p.telemetry = tel
	p.transcript = tr
	p.connected = true

	log.Info("printer connected")
}

// Disconnect transitions to Disconnected, stopping the background I/O
// task and closing the transport. Safe to call when already
// disconnected.
func (p *Printer) Disconnect() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disconnectLocked()
}

func (p *Printer) disconnectLocked() {
	if !p.connected {
		return
	}
	p.telemetry.disconnect()
	p.mux.abort()
	p.socket.Close()
	p.connected = false
	p.socket = nil
	p.mux = nil
	p.log.Info("printer disconnected")
}

// IsConnected reports whether the printer currently has a live
// background I/O task.
func (p *Printer) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.connected {
		return false
	}
	select {
	case <-p.mux.outbound.done:
		return false
	default:
		return true
	}
}

// Socket returns the current connection's socket, or ErrDisconnected
// if there isn't one. The returned Socket remains valid to use even
// after a later Disconnect; its operations will simply start failing.
func (p *Printer) Socket() (*Socket, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.connected {
		return nil, ErrDisconnected
	}
	return p.socket, nil
}

// Stats returns a snapshot of send telemetry, including the last
// snapshot taken before any disconnection.
func (p *Printer) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.telemetry == nil {
		return Stats{}
	}
	return p.telemetry.snapshot()
}

// Recent returns the last lines sent and received, oldest first.
func (p *Printer) Recent() []LineEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.transcript == nil {
		return nil
	}
	return p.transcript.Recent()
}

// Send, SendUnsequenced, SendRaw, ReadNextLine, SubscribeLines, and
// SetSequence all delegate to the current connection's socket,
// surfacing ErrDisconnected when there isn't one.

func (p *Printer) Send(v any) (*Ack, error) {
	s, err := p.Socket()
	if err != nil {
		return nil, err
	}
	return s.Send(v)
}

func (p *Printer) SendUnsequenced(v any) error {
	s, err := p.Socket()
	if err != nil {
		return err
	}
	return s.SendUnsequenced(v)
}

func (p *Printer) SendRaw(b []byte) error {
	s, err := p.Socket()
	if err != nil {
		return err
	}
	return s.SendRaw(b)
}

func (p *Printer) ReadNextLine() ([]byte, error) {
	s, err := p.Socket()
	if err != nil {
		return nil, err
	}
	return s.ReadNextLine()
}

func (p *Printer) SubscribeLines() (*LineStream, error) {
	s, err := p.Socket()
	if err != nil {
		return nil, err
	}
	return s.SubscribeLines(), nil
}

func (p *Printer) SetSequence(n int32) error {
	s, err := p.Socket()
	if err != nil {
		return err
	}
	s.SetSequence(n)
	return nil
}

// Package transport provides the byte-oriented stream abstraction the
// printer communication core talks over: any bidirectional,
// non-seekable stream works (a serial port, a TCP socket, a pipe, an
// in-memory double for tests). The core never configures the
// transport itself; callers hand it an already-opened, already-
// configured Port.
package transport

import (
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"
)

// Port is the stream a Printer drives. It composes io.ReadWriteCloser
// with an explicit Flush, since serial drivers generally buffer writes
// and the I/O multiplexer needs to know bytes actually left the host
// before considering a write complete.
type Port interface {
	io.ReadWriteCloser
	Flush() error
}

// Config holds serial port configuration. It only describes how to
// open a real OS serial device; it has no bearing on in-memory or
// network transports, which are constructed directly.
type Config struct {
	// Device is the OS device path, e.g. "/dev/ttyACM0" or "COM3".
	Device string

	// Baud is the line speed. Most printers run Marlin over USB CDC,
	// which ignores this, but some firmwares (and all real RS-232
	// links) need it set correctly.
	Baud int

	// ReadTimeout bounds how long a single Read call blocks waiting
	// for bytes. Zero means block indefinitely.
	ReadTimeout time.Duration
}

// DefaultConfig returns a Config with the conventional Marlin USB CDC
// baud rate and a modest read timeout.
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 100 * time.Millisecond,
	}
}

// nativePort wraps github.com/tarm/serial to satisfy Port.
type nativePort struct {
	port *serial.Port
}

// OpenSerial opens a real OS serial device per cfg.
func OpenSerial(cfg *Config) (Port, error) {
	if cfg == nil {
		return nil, fmt.Errorf("transport: config cannot be nil")
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("transport: open %s: %w", cfg.Device, err)
	}

	return &nativePort{port: port}, nil
}

func (p *nativePort) Read(b []byte) (int, error)  { return p.port.Read(b) }
func (p *nativePort) Write(b []byte) (int, error) { return p.port.Write(b) }
func (p *nativePort) Close() error                { return p.port.Close() }

// Flush is a no-op: tarm/serial writes synchronously and exposes no
// separate buffer to drain.
func (p *nativePort) Flush() error { return nil }

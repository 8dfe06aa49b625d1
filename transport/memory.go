package transport

import "net"

// memPort adapts a net.Conn (as produced by net.Pipe) to Port for
// tests: an in-memory, synchronous, fully duplex byte stream with no
// real I/O.
type memPort struct {
	net.Conn
}

func (m memPort) Flush() error { return nil }

// Pipe returns two connected in-memory Ports: bytes written to one are
// read from the other, and vice versa. It stands in for a real serial
// device in tests, the same role an in-memory stream plays in the
// printer's original test suite.
func Pipe() (a, b Port) {
	c1, c2 := net.Pipe()
	return memPort{c1}, memPort{c2}
}

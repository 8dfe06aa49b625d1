package printer

import (
	"io"
	"log/slog"
	"sync"

	"github.com/print3rs/print3rs/transport"
)

// multiplexer is the background I/O task: it owns a transport
// exclusively for the life of a connection, draining the outbound
// queue onto the wire and splitting inbound bytes into lines that are
// published to the broadcast. It is realized as two goroutines (one
// per direction) rather than one, since Go has no way to select
// between a channel receive and a blocking io.Read in the same loop;
// whichever goroutine ends first calls stop, which ends writeLoop and
// closes the broadcast. readLoop itself only returns once Read fails
// or hits EOF (abort forces that by closing the transport), so after
// a write failure it stays blocked in Read until then. This follows
// the way the teacher's HostTransport runs one readLoop goroutine
// alongside synchronous writes guarded by its own mutex.
type multiplexer struct {
	transport  transport.Port
	outbound   *outboundQueue
	lines      *broadcast
	transcript *transcript
	log        *slog.Logger

	stopOnce sync.Once
	wg       sync.WaitGroup
}

func startMultiplexer(t transport.Port, outbound *outboundQueue, lines *broadcast, tr *transcript, log *slog.Logger) *multiplexer {
	m := &multiplexer{transport: t, outbound: outbound, lines: lines, transcript: tr, log: log}
	m.wg.Add(2)
	go m.writeLoop()
	go m.readLoop()
	return m
}

func (m *multiplexer) writeLoop() {
	defer m.wg.Done()
	defer m.stop()

	for {
		line, ok := m.outbound.next()
		if !ok {
			return
		}
		if _, err := m.transport.Write(line); err != nil {
			m.log.Warn("transport write failed", "error", err)
			return
		}
		if err := m.transport.Flush(); err != nil {
			m.log.Warn("transport flush failed", "error", err)
			return
		}
	}
}

func (m *multiplexer) readLoop() {
	defer m.wg.Done()
	defer m.stop()

	buf := newGrowBuffer(1024)
	chunk := make([]byte, 4096)
	for {
		n, err := m.transport.Read(chunk)
		if n > 0 {
			buf.write(chunk[:n])
			for {
				line, ok := buf.popLine()
				if !ok {
					break
				}
				m.transcript.record(false, line)
				m.lines.publish(line)
			}
		}
		if err != nil {
			if err != io.EOF {
				m.log.Warn("transport read failed", "error", err)
			}
			return
		}
	}
}

// stop ends the task cooperatively: it closes the outbound queue's
// done signal (unblocking writeLoop) and the broadcast (unblocking any
// Send correlator or ReadNextLine waiting on a subscription). It does
// not touch the transport, so a clean end-of-stream on read still lets
// any final writes already in flight complete.
func (m *multiplexer) stop() {
	m.stopOnce.Do(func() {
		m.outbound.closeDone()
		m.lines.close()
	})
}

// abort forces an immediate stop, additionally closing the transport
// so a goroutine blocked in Read unblocks. Go has no way to cancel a
// goroutine from outside; closing the transport is the same
// mechanism real serial and TCP code uses to interrupt a blocked read.
func (m *multiplexer) abort() {
	m.stop()
	_ = m.transport.Close()
	m.wg.Wait()
}

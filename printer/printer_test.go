package printer

import (
	"bufio"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/print3rs/print3rs/response"
	"github.com/print3rs/print3rs/transport"
)

// Home and Move stand in for real command types (the gcode package)
// for these tests: any exported struct renders through the same
// reflection path.
type Home struct{}

type Move struct {
	X float64
	Y float64
}

// firmwareEcho is a minimal stand-in firmware: for every sequenced
// line it receives (one starting with 'N'), it writes back
// "ok N<seq>\n". It ignores unsequenced lines entirely, the way real
// firmware acknowledges only sequenced commands in this test's model.
func firmwareEcho(t *testing.T, port transport.Port) {
	t.Helper()
	r := bufio.NewReader(port)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "N") {
			continue
		}
		rest := line[1:]
		end := 0
		for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
			end++
		}
		seq, convErr := strconv.Atoi(rest[:end])
		if convErr != nil {
			continue
		}
		if _, err := port.Write([]byte("ok N" + strconv.Itoa(seq) + "\n")); err != nil {
			return
		}
	}
}

func TestSendResolvesSequencedOk(t *testing.T) {
	host, firmware := transport.Pipe()
	go firmwareEcho(t, firmware)

	p := New(host)
	defer p.Disconnect()

	ack, err := p.Send(Move{X: 10, Y: 20})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	resp := waitWithTimeout(t, ack)
	if resp.Kind != response.SequencedOk || resp.Sequence != ack.Sequence() {
		t.Fatalf("Wait() = %+v, want SequencedOk(%d)", resp, ack.Sequence())
	}
}

func TestSendSequenceAdvancesAcrossCalls(t *testing.T) {
	host, firmware := transport.Pipe()
	go firmwareEcho(t, firmware)

	p := New(host)
	defer p.Disconnect()

	ack1, err := p.Send(Home{})
	if err != nil {
		t.Fatal(err)
	}
	ack2, err := p.Send(Home{})
	if err != nil {
		t.Fatal(err)
	}

	waitWithTimeout(t, ack1)
	waitWithTimeout(t, ack2)

	if ack2.Sequence() != ack1.Sequence()+1 {
		t.Errorf("ack2.Sequence() = %d, want %d", ack2.Sequence(), ack1.Sequence()+1)
	}
}

func TestSendUnsequencedDoesNotBlockOnAck(t *testing.T) {
	host, firmware := transport.Pipe()
	go firmwareEcho(t, firmware)

	p := New(host)
	defer p.Disconnect()

	if err := p.SendUnsequenced(Home{}); err != nil {
		t.Fatalf("SendUnsequenced: %v", err)
	}

	// A subsequent sequenced send must still get acknowledged, proving
	// the unsequenced line didn't wedge the queue or the counter.
	ack, err := p.Send(Home{})
	if err != nil {
		t.Fatal(err)
	}
	waitWithTimeout(t, ack)
}

func TestDisconnectResolvesPendingAcksAsPlainOk(t *testing.T) {
	host, _ := transport.Pipe() // no firmware: nothing ever acknowledges

	p := New(host)
	ack, err := p.Send(Home{})
	if err != nil {
		t.Fatal(err)
	}

	p.Disconnect()

	resp := waitWithTimeout(t, ack)
	if resp.Kind != response.PlainOk {
		t.Errorf("Wait() after disconnect = %+v, want PlainOk sentinel", resp)
	}
}

func TestSendAfterDisconnectFails(t *testing.T) {
	host, firmware := transport.Pipe()
	go firmwareEcho(t, firmware)

	p := New(host)
	p.Disconnect()

	if _, err := p.Send(Home{}); err != ErrDisconnected {
		t.Errorf("Send() after disconnect = %v, want ErrDisconnected", err)
	}
	if err := p.SendUnsequenced(Home{}); err != ErrDisconnected {
		t.Errorf("SendUnsequenced() after disconnect = %v, want ErrDisconnected", err)
	}
}

func TestReadNextLineSeesRawFirmwareOutput(t *testing.T) {
	host, firmware := transport.Pipe()
	p := New(host)
	defer p.Disconnect()

	go func() {
		_, _ = firmware.Write([]byte("T:210 /210 B:60 /60\n"))
	}()

	line, err := p.ReadNextLine()
	if err != nil {
		t.Fatalf("ReadNextLine: %v", err)
	}
	if strings.TrimSpace(string(line)) != "T:210 /210 B:60 /60" {
		t.Errorf("ReadNextLine() = %q", line)
	}
}

func TestSubscribeLinesIndependentFromReadNextLine(t *testing.T) {
	host, firmware := transport.Pipe()
	p := New(host)
	defer p.Disconnect()

	stream, err := p.SubscribeLines()
	if err != nil {
		t.Fatal(err)
	}

	go func() {
		_, _ = firmware.Write([]byte("ok\n"))
	}()

	line, err := stream.Recv()
	if err != nil || strings.TrimSpace(string(line)) != "ok" {
		t.Fatalf("stream.Recv() = %q, %v", line, err)
	}
}

func TestSetSequenceAffectsNextSend(t *testing.T) {
	host, firmware := transport.Pipe()
	go firmwareEcho(t, firmware)

	p := New(host)
	defer p.Disconnect()

	if err := p.SetSequence(100); err != nil {
		t.Fatal(err)
	}
	ack, err := p.Send(Home{})
	if err != nil {
		t.Fatal(err)
	}
	if ack.Sequence() != 100 {
		t.Errorf("Sequence() = %d, want 100", ack.Sequence())
	}
	waitWithTimeout(t, ack)
}

func TestStatsCountSentAndAcked(t *testing.T) {
	host, firmware := transport.Pipe()
	go firmwareEcho(t, firmware)

	p := New(host)
	defer p.Disconnect()

	ack, err := p.Send(Home{})
	if err != nil {
		t.Fatal(err)
	}
	waitWithTimeout(t, ack)

	stats := p.Stats()
	if stats.Sent != 1 || stats.Acked != 1 {
		t.Errorf("Stats() = %+v, want Sent=1 Acked=1", stats)
	}
}

func TestRecentRecordsOutboundTraffic(t *testing.T) {
	host, firmware := transport.Pipe()
	go firmwareEcho(t, firmware)

	p := New(host)
	defer p.Disconnect()

	ack, err := p.Send(Home{})
	if err != nil {
		t.Fatal(err)
	}
	waitWithTimeout(t, ack)

	recent := p.Recent()
	if len(recent) == 0 || !recent[0].Outbound {
		t.Errorf("Recent() = %+v, want at least one outbound entry first", recent)
	}
}

func TestRecentRecordsInboundTraffic(t *testing.T) {
	host, firmware := transport.Pipe()
	go firmwareEcho(t, firmware)

	p := New(host)
	defer p.Disconnect()

	ack, err := p.Send(Home{})
	if err != nil {
		t.Fatal(err)
	}
	waitWithTimeout(t, ack)

	recent := p.Recent()
	found := false
	for _, ev := range recent {
		if !ev.Outbound {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("Recent() = %+v, want at least one inbound entry (the firmware's ack line)", recent)
	}
}

func waitWithTimeout(t *testing.T, ack *Ack) response.Response {
	t.Helper()
	result := make(chan response.Response, 1)
	go func() { result <- ack.Wait() }()
	select {
	case r := <-result:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("ack.Wait() timed out")
		return response.Response{}
	}
}

// Command print3rs-cli is a minimal, non-interactive demonstrator for
// the printer communication core: it connects to a serial device,
// sends one G-code line, waits for its acknowledgement, and reports
// the result. It deliberately has no command grammar, no macros, no
// logging pipeline, and no REPL — those are a front-end's job, not the
// core's.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/print3rs/print3rs/printer"
	"github.com/print3rs/print3rs/response"
	"github.com/print3rs/print3rs/transport"
)

var (
	device  = flag.String("device", "/dev/ttyACM0", "Serial device path")
	baud    = flag.Int("baud", 115200, "Baud rate")
	gcode   = flag.String("gcode", "M115", "Raw G-code line to send")
	timeout = flag.Duration("timeout", 5*time.Second, "How long to wait for an acknowledgement")
	verbose = flag.Bool("verbose", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(log); err != nil {
		log.Error("failed", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg := transport.DefaultConfig(*device)
	cfg.Baud = *baud

	port, err := transport.OpenSerial(cfg)
	if err != nil {
		return fmt.Errorf("print3rs-cli: %w", err)
	}

	p := printer.NewWithLogger(port, log)
	defer p.Disconnect()

	ack, err := p.Send(*gcode)
	if err != nil {
		return fmt.Errorf("print3rs-cli: send: %w", err)
	}

	result := make(chan response.Response, 1)
	go func() { result <- ack.Wait() }()

	select {
	case resp := <-result:
		fmt.Printf("seq=%d kind=%s\n", ack.Sequence(), resp.Kind)
		return nil
	case <-time.After(*timeout):
		return fmt.Errorf("print3rs-cli: no acknowledgement for seq=%d within %s", ack.Sequence(), *timeout)
	}
}

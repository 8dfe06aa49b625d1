package printer

import "sync"

// Stats is a point-in-time snapshot of a printer's send telemetry.
type Stats struct {
	Sent        uint64
	Acked       uint64
	ResendsSeen uint64
	Disconnects uint64
}

// telemetry is a small mutex-guarded counters registry, adapted from
// the teacher's CommandRegistry bookkeeping (core/command.go) to count
// protocol events instead of dispatching commands by ID.
type telemetry struct {
	mu    sync.Mutex
	stats Stats
}

func (t *telemetry) sent()       { t.mu.Lock(); t.stats.Sent++; t.mu.Unlock() }
func (t *telemetry) acked()      { t.mu.Lock(); t.stats.Acked++; t.mu.Unlock() }
func (t *telemetry) resend()     { t.mu.Lock(); t.stats.ResendsSeen++; t.mu.Unlock() }
func (t *telemetry) disconnect() { t.mu.Lock(); t.stats.Disconnects++; t.mu.Unlock() }

func (t *telemetry) snapshot() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}

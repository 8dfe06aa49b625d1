package printer

import "sync"

// subCapacity bounds each subscriber's own backlog. A subscriber that
// falls behind the publisher never blocks it: once full, the oldest
// buffered line is dropped to make room, so recv always eventually
// returns the oldest line still available rather than erroring.
const subCapacity = 64

// subscription is one independent cursor onto a broadcast's line
// stream. Each Socket clone and each SubscribeLines call gets its own.
type subscription struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  [][]byte
	closed bool
}

func newSubscription() *subscription {
	s := &subscription{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *subscription) push(line []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if len(s.queue) >= subCapacity {
		s.queue = s.queue[1:]
	}
	s.queue = append(s.queue, line)
	s.cond.Signal()
}

// recv blocks until a line is available or the subscription is
// closed, in which case it returns (nil, false).
func (s *subscription) recv() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.queue) == 0 && !s.closed {
		s.cond.Wait()
	}
	if len(s.queue) == 0 {
		return nil, false
	}
	line := s.queue[0]
	s.queue = s.queue[1:]
	return line, true
}

func (s *subscription) close() {
	s.mu.Lock()
	s.closed = true
	s.cond.Broadcast()
	s.mu.Unlock()
}

// broadcast fans inbound lines out to any number of independent
// subscribers. Publishing never blocks on a slow subscriber: each
// subscription drops its own oldest entry on overflow rather than
// stalling the publisher or any other subscriber.
type broadcast struct {
	mu     sync.Mutex
	subs   map[*subscription]struct{}
	closed bool
}

func newBroadcast() *broadcast {
	return &broadcast{subs: make(map[*subscription]struct{})}
}

func (b *broadcast) subscribe() *subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := newSubscription()
	if b.closed {
		s.closed = true
		return s
	}
	b.subs[s] = struct{}{}
	return s
}

func (b *broadcast) unsubscribe(s *subscription) {
	b.mu.Lock()
	delete(b.subs, s)
	b.mu.Unlock()
}

func (b *broadcast) publish(line []byte) {
	b.mu.Lock()
	subs := make([]*subscription, 0, len(b.subs))
	for s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	for _, s := range subs {
		s.push(line)
	}
}

// close ends the broadcast: every current subscriber's recv drains its
// remaining backlog and then returns false, and any future subscribe
// returns an already-closed subscription.
func (b *broadcast) close() {
	b.mu.Lock()
	b.closed = true
	subs := make([]*subscription, 0, len(b.subs))
	for s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	for _, s := range subs {
		s.close()
	}
}

// LineStream is a handle onto one subscription, returned to callers
// that want to read a printer's inbound lines directly rather than
// through Send's correlator.
type LineStream struct {
	b   *broadcast
	sub *subscription
}

// Recv blocks for the next inbound line, or returns ErrDisconnected
// once the underlying broadcast has closed and this stream's backlog
// is drained.
func (ls *LineStream) Recv() ([]byte, error) {
	line, ok := ls.sub.recv()
	if !ok {
		return nil, ErrDisconnected
	}
	return line, nil
}

// Close releases this stream's subscription. Safe to call more than
// once.
func (ls *LineStream) Close() {
	ls.b.unsubscribe(ls.sub)
}

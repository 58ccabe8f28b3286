package timer

import (
	"container/heap"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/classtrack/classtrack-backend-go/internal/pkg/clock"
	"github.com/google/uuid"
)

// Handler is invoked when a scheduled entry comes due. A non-nil error
// causes the entry to be re-queued (at-least-once delivery), so handlers
// must be idempotent and re-check their preconditions.
type Handler func(ctx context.Context) error

type entry struct {
	id       string
	group    string
	name     string
	at       time.Time
	fn       Handler
	attempts int
	index    int
}

type entryHeap []*entry

func (h entryHeap) Len() int            { return len(h) }
func (h entryHeap) Less(i, j int) bool  { return h[i].at.Before(h[j].at) }
func (h entryHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *entryHeap) Push(x interface{}) { e := x.(*entry); e.index = len(*h); *h = append(*h, e) }
func (h *entryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// Scheduler is a deadline scheduler backed by a min-heap keyed on the
// entry's due time. A single dispatcher goroutine pops due entries and
// runs their handlers; Schedule and Cancel are O(log n).
type Scheduler struct {
	clk        clock.Clock
	retryDelay time.Duration

	mu      sync.Mutex
	heap    entryHeap
	entries map[string]*entry
	wake    chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a stopped scheduler. retryDelay is the delay
// before a failed handler is attempted again.
func NewScheduler(clk clock.Clock, retryDelay time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		clk:        clk,
		retryDelay: retryDelay,
		entries:    make(map[string]*entry),
		wake:       make(chan struct{}, 1),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start launches the dispatcher goroutine.
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.run()
	slog.Info("Timer scheduler started")
}

// Stop cancels the dispatcher and waits for it to exit. Pending entries
// are dropped.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	slog.Info("Timer scheduler stopped")
}

// Schedule queues fn to run at the given time and returns the entry ID.
// group associates the entry with a cancellation scope (CancelGroup).
func (s *Scheduler) Schedule(at time.Time, group, name string, fn Handler) string {
	e := &entry{
		id:    uuid.NewString(),
		group: group,
		name:  name,
		at:    at,
		fn:    fn,
	}

	s.mu.Lock()
	s.entries[e.id] = e
	heap.Push(&s.heap, e)
	s.mu.Unlock()

	s.wakeup()
	return e.id
}

// Cancel removes a pending entry. Cancelling an entry that has already
// fired (or never existed) is a no-op and returns false.
func (s *Scheduler) Cancel(id string) bool {
	s.mu.Lock()
	e, ok := s.entries[id]
	if ok {
		delete(s.entries, id)
		heap.Remove(&s.heap, e.index)
	}
	s.mu.Unlock()

	if ok {
		s.wakeup()
	}
	return ok
}

// CancelGroup removes every pending entry in the group and reports how
// many were cancelled.
func (s *Scheduler) CancelGroup(group string) int {
	s.mu.Lock()
	var ids []string
	for id, e := range s.entries {
		if e.group == group {
			ids = append(ids, id)
		}
	}
	for _, id := range ids {
		e := s.entries[id]
		delete(s.entries, id)
		heap.Remove(&s.heap, e.index)
	}
	s.mu.Unlock()

	if len(ids) > 0 {
		s.wakeup()
	}
	return len(ids)
}

// Pending reports the number of queued entries.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Scheduler) wakeup() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	for {
		s.mu.Lock()
		var wait <-chan time.Time
		if len(s.heap) > 0 {
			next := s.heap[0]
			now := s.clk.Now()
			if !next.at.After(now) {
				heap.Pop(&s.heap)
				delete(s.entries, next.id)
				s.mu.Unlock()
				s.fire(next)
				continue
			}
			wait = s.clk.After(next.at.Sub(now))
		}
		s.mu.Unlock()

		select {
		case <-s.ctx.Done():
			return
		case <-s.wake:
		case <-wait:
		}
	}
}

func (s *Scheduler) fire(e *entry) {
	start := s.clk.Now()
	if err := e.fn(s.ctx); err != nil {
		e.attempts++
		slog.Error("Timer handler failed, re-queueing",
			"name", e.name, "id", e.id, "attempt", e.attempts, "error", err)

		e.at = s.clk.Now().Add(s.retryDelay)
		s.mu.Lock()
		if s.ctx.Err() == nil {
			s.entries[e.id] = e
			heap.Push(&s.heap, e)
		}
		s.mu.Unlock()
		s.wakeup()
		return
	}
	slog.Debug("Timer handler completed", "name", e.name, "duration", s.clk.Now().Sub(start))
}

package scheduler

import (
	"log"
	"math/rand/v2"
	"sync"
	"time"

	"tabib_ai/internal/usecase/interfaces"
)

// CompletionScheduler keeps one pending timer per order id.
type CompletionScheduler struct {
	min, max time.Duration

	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
}

var _ interfaces.ICompletionScheduler = (*CompletionScheduler)(nil)

// NewCompletionScheduler fires each trigger after a delay drawn uniformly from [min, max].
func NewCompletionScheduler(min, max time.Duration) *CompletionScheduler {
	if min < 0 {
		min = 0
	}
	if max < min {
		max = min
	}
	return &CompletionScheduler{min: min, max: max, timers: make(map[string]*time.Timer)}
}

func (s *CompletionScheduler) Schedule(orderID string, fire func(orderID string)) {
	delay := s.delay()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		log.Printf("[order][scheduler] stopped, dropping trigger order_id=%s", orderID)
		return
	}
	if prev, ok := s.timers[orderID]; ok {
		prev.Stop()
	}

	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		s.mu.Lock()
		if s.timers[orderID] != t {
			s.mu.Unlock()
			return
		}
		delete(s.timers, orderID)
		s.mu.Unlock()

		log.Printf("[order][scheduler] firing completion order_id=%s", orderID)
		fire(orderID)
	})
	s.timers[orderID] = t
	log.Printf("[order][scheduler] scheduled order_id=%s delay=%s", orderID, delay)
}

// Cancel reports whether a pending trigger was removed.
func (s *CompletionScheduler) Cancel(orderID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.timers[orderID]
	if !ok {
		return false
	}
	delete(s.timers, orderID)
	return t.Stop()
}

func (s *CompletionScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop cancels every pending trigger and rejects new ones.
func (s *CompletionScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	s.stopped = true
}

func (s *CompletionScheduler) delay() time.Duration {
	if s.max == s.min {
		return s.min
	}
	return s.min + rand.N(s.max-s.min+1)
}

package engine

import (
	"sync"
	"time"
)

// scheduler owns the single auto-send timer. At most one timer is armed
// system-wide; arming a new one cancels the previous one first. Every
// armed timer carries a generation number, and a fired callback only
// proceeds if its generation is still current, so cancellation is
// observable: once Cancel returns under the engine lock, a stale timer
// can never commit.
type scheduler struct {
	timer  *time.Timer
	itemID string
	gen    uint64
	mu     sync.Mutex
}

// Arm schedules fire(itemID, gen) after delay, cancelling any previously
// armed timer.
func (s *scheduler) Arm(itemID string, delay time.Duration, fire func(itemID string, gen uint64)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked()
	s.gen++
	gen := s.gen
	s.itemID = itemID
	s.timer = time.AfterFunc(delay, func() {
		fire(itemID, gen)
	})
}

// Cancel stops any armed timer and returns the item id it was armed for.
func (s *scheduler) Cancel() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer == nil {
		return "", false
	}
	id := s.itemID
	s.cancelLocked()
	return id, true
}

// CancelIfOther cancels the armed timer only if it belongs to a different
// item. Returns the cancelled item id, if any.
func (s *scheduler) CancelIfOther(itemID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer == nil || s.itemID == itemID {
		return "", false
	}
	id := s.itemID
	s.cancelLocked()
	return id, true
}

// Armed returns the item id the timer is currently armed for.
func (s *scheduler) Armed() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.itemID, s.timer != nil
}

// consume claims a fired generation. It returns false if the timer was
// cancelled or re-armed after the generation was issued.
func (s *scheduler) consume(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gen != gen || s.timer == nil {
		return false
	}
	s.timer = nil
	s.itemID = ""
	return true
}

// cancelLocked stops the timer and bumps the generation so any in-flight
// fire callback fails its consume check. Callers must hold s.mu.
func (s *scheduler) cancelLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
		s.itemID = ""
	}
	s.gen++
}

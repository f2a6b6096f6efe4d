package browser

import (
	"context"
	"sync"
	"time"
)

// navigation is a load listener armed before an action that may leave the
// page. fire is safe to call from the listener goroutine at any time.
type navigation struct {
	fired  chan struct{}
	once   sync.Once
	cancel context.CancelFunc
}

func newNavigation(cancel context.CancelFunc) *navigation {
	return &navigation{fired: make(chan struct{}), cancel: cancel}
}

func (n *navigation) fire() {
	n.once.Do(func() { close(n.fired) })
}

// await blocks until the load fired or the ceiling passed, then releases the
// listener. Hitting the ceiling is not an error.
func (n *navigation) await(ctx context.Context, timeout time.Duration) error {
	defer n.cancel()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-n.fired:
		return nil
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// navigationSlot holds at most one armed navigation per page.
type navigationSlot struct {
	mu      sync.Mutex
	pending *navigation
}

// arm replaces the pending navigation, releasing the one it displaces.
func (s *navigationSlot) arm(nav *navigation) {
	s.mu.Lock()
	prev := s.pending
	s.pending = nav
	s.mu.Unlock()
	if prev != nil {
		prev.cancel()
	}
}

func (s *navigationSlot) take() *navigation {
	s.mu.Lock()
	defer s.mu.Unlock()
	nav := s.pending
	s.pending = nil
	return nav
}

func (s *navigationSlot) disarm() {
	if nav := s.take(); nav != nil {
		nav.cancel()
	}
}

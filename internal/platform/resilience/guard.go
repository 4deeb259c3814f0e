package resilience

import (
	"errors"
	"sync"
)

var ErrInFlight = errors.New("operation already in flight")

// InFlightGuard admits at most one holder per key. It never blocks: a second
// caller for a held key is turned away.
type InFlightGuard struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func NewInFlightGuard() *InFlightGuard {
	return &InFlightGuard{active: make(map[string]struct{})}
}

// TryAcquire returns a release func when key was free, or ErrInFlight.
func (g *InFlightGuard) TryAcquire(key string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.active == nil {
		g.active = make(map[string]struct{})
	}
	if _, held := g.active[key]; held {
		return nil, ErrInFlight
	}
	g.active[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.active, key)
			g.mu.Unlock()
		})
	}, nil
}

func (g *InFlightGuard) Held(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, held := g.active[key]
	return held
}

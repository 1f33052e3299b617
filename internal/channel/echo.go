package channel

import "sync"

const (
	maxEchoesPerKey = 8
	maxEchoKeys     = 64
)

type echoKey struct {
	name  string
	value string
}

// EchoGuard recognizes a connection's own writes when the remote end
// reflects them back. Every Expect allows one matching event to be
// suppressed. Counts are bounded so writes that never echo cannot grow it.
type EchoGuard struct {
	mu      sync.Mutex
	pending map[echoKey]int
	order   []echoKey
}

// NewEchoGuard creates an empty guard
func NewEchoGuard() *EchoGuard {
	return &EchoGuard{pending: make(map[echoKey]int)}
}

// Expect records a write that may come back as an event
func (g *EchoGuard) Expect(name, value string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := echoKey{name, value}
	count, ok := g.pending[key]
	if !ok {
		if len(g.order) >= maxEchoKeys {
			oldest := g.order[0]
			g.order = g.order[1:]
			delete(g.pending, oldest)
		}
		g.order = append(g.order, key)
	}
	if count < maxEchoesPerKey {
		g.pending[key] = count + 1
	}
}

// Suppress reports whether the event is an expected echo, consuming it
func (g *EchoGuard) Suppress(name, value string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := echoKey{name, value}
	count, ok := g.pending[key]
	if !ok {
		return false
	}
	if count <= 1 {
		delete(g.pending, key)
		for i, k := range g.order {
			if k == key {
				g.order = append(g.order[:i], g.order[i+1:]...)
				break
			}
		}
	} else {
		g.pending[key] = count - 1
	}
	return true
}

// Len returns the number of distinct pending writes
func (g *EchoGuard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.pending)
}

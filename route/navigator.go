package route

import (
	"sync"

	"github.com/RaiAbdullah1800/AiMed/session"
	"github.com/RaiAbdullah1800/AiMed/utils"
)

// State is the read side of the session store
type State interface {
	Current() *session.Session
	Loading() bool
}

// Navigator holds the current route. Every navigation goes through Resolve.
type Navigator struct {
	state  State
	logger *utils.Logger

	mu        sync.Mutex
	requested Route
	last      Decision
	visited   bool
	handler   func(Decision)

	// decisions waiting for the handler, in commit order
	pending     []Decision
	dispatching bool
}

// NewNavigator creates a navigator positioned on "/"
func NewNavigator(state State, logger *utils.Logger) *Navigator {
	if logger == nil {
		logger = utils.NewDiscardLogger()
	}
	return &Navigator{state: state, logger: logger, requested: Root}
}

// SetHandler registers the view switcher. It is called only when the shown
// route or the suspended state changes.
func (n *Navigator) SetHandler(fn func(Decision)) {
	n.mu.Lock()
	n.handler = fn
	n.mu.Unlock()
}

// Navigate requests path and returns where it resolved to
func (n *Navigator) Navigate(path string) Decision {
	return n.resolve(Normalize(path))
}

// Refresh resolves the last requested route again, for use after session or
// loading changes
func (n *Navigator) Refresh() Decision {
	n.mu.Lock()
	requested := n.requested
	n.mu.Unlock()
	return n.resolve(requested)
}

// Current returns the route currently shown
func (n *Navigator) Current() Decision {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.last
}

// Follow refreshes the navigator on every change published by the store
func (n *Navigator) Follow(subscribe func(func(*session.Session)) func()) func() {
	return subscribe(func(*session.Session) {
		n.Refresh()
	})
}

func (n *Navigator) resolve(requested Route) Decision {
	d := Resolve(string(requested), n.state.Current(), n.state.Loading())

	n.mu.Lock()
	if d.Suspended {
		n.requested = requested
	} else {
		n.requested = d.Route
	}
	changed := !n.visited || d.Route != n.last.Route || d.Suspended != n.last.Suspended
	n.last = d
	n.visited = true
	if !changed {
		n.mu.Unlock()
		return d
	}
	n.pending = append(n.pending, d)
	n.mu.Unlock()

	if d.Redirected {
		n.logger.Debug("Route %s redirected to %s", requested, d.Route)
	}
	n.dispatch()
	return d
}

// dispatch hands queued decisions to the handler one at a time, in the order
// they were committed. A caller that finds another dispatch running leaves
// its decision to that one; this also makes Navigate safe from the handler.
func (n *Navigator) dispatch() {
	n.mu.Lock()
	if n.dispatching {
		n.mu.Unlock()
		return
	}
	n.dispatching = true
	for len(n.pending) > 0 {
		d := n.pending[0]
		n.pending = n.pending[1:]
		handler := n.handler
		n.mu.Unlock()
		n.call(handler, d)
		n.mu.Lock()
	}
	n.dispatching = false
	n.mu.Unlock()
}

// call runs the handler with n.mu released; a panic clears the dispatching
// flag so later navigations are not stranded
func (n *Navigator) call(handler func(Decision), d Decision) {
	if handler == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			n.mu.Lock()
			n.dispatching = false
			n.mu.Unlock()
			panic(r)
		}
	}()
	handler(d)
}

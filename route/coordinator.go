package route

import (
	"github.com/RaiAbdullah1800/AiMed/api"
	"github.com/RaiAbdullah1800/AiMed/utils"
)

// Invalidator is the part of the session store the coordinator drives
type Invalidator interface {
	Invalidate(token string) bool
	Loading() bool
}

// Coordinator turns rejected credentials into one sign-out and one redirect
// to the login view, however many requests failed with them.
type Coordinator struct {
	store  Invalidator
	nav    *Navigator
	logger *utils.Logger
}

// NewCoordinator wires store and nav together
func NewCoordinator(store Invalidator, nav *Navigator, logger *utils.Logger) *Coordinator {
	if logger == nil {
		logger = utils.NewDiscardLogger()
	}
	return &Coordinator{store: store, nav: nav, logger: logger}
}

// Attach subscribes to a gateway's 401 events
func (c *Coordinator) Attach(client *api.Client) func() {
	return client.OnUnauthorized(c.Handle)
}

// Handle processes one 401 event
func (c *Coordinator) Handle(ev api.UnauthorizedEvent) {
	if !c.store.Invalidate(ev.Token) {
		return
	}
	c.logger.Info("Session ended by %s %s", ev.Method, ev.Path)
	if c.store.Loading() {
		return
	}
	c.nav.Navigate(string(Login))
}

package devserver

import (
	"time"

	"github.com/aretw0/introspection"
)

// ServerState exposes internal state for observability.
type ServerState struct {
	Addr    string `json:"addr"`
	Root    string `json:"root"`
	Running bool   `json:"running"`
	Pages   int    `json:"pages_served"`
	Clients int    `json:"clients"`
	Reloads int    `json:"reloads"`

	LastBroadcast *time.Time `json:"last_broadcast,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Server) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.hub.mu.RLock()
	defer s.hub.mu.RUnlock()

	return ServerState{
		Addr:    s.addr,
		Root:    s.config.Root,
		Running: s.running,
		Pages:   s.pages,
		Clients: len(s.hub.clients),
		Reloads: s.hub.reloads,

		LastBroadcast: s.hub.lastSent,
	}
}

// ComponentType implements introspection.Component.
func (s *Server) ComponentType() string {
	return "devserver"
}

var _ introspection.Introspectable = (*Server)(nil)
var _ introspection.Component = (*Server)(nil)

// Package realtime keeps track of live admin connections and pushes
// notifications to them.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ibadah/tracker/internal/api/metrics"
	"github.com/ibadah/tracker/internal/core/domain"
)

const (
	MessageConnected = "connected"
	MessageActivity  = "activity"
)

// Envelope is the JSON frame sent to admin clients.
type Envelope struct {
	Type         string               `json:"type"`
	Notification *domain.Notification `json:"notification,omitempty"`
}

// Conn is one registered live connection.
type Conn interface {
	ID() string
	Username() string
	// Enqueue must not block. It reports false when the message was dropped.
	Enqueue(msg []byte) bool
}

// Registry maps admin usernames to their open connections. A single admin may
// hold any number of connections and every one of them receives each push.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]map[string]Conn
	log   zerolog.Logger
}

func NewRegistry(log zerolog.Logger) *Registry {
	return &Registry{conns: make(map[string]map[string]Conn), log: log}
}

func (r *Registry) Register(c Conn) {
	user := domain.NormalizeUsername(c.Username())
	r.mu.Lock()
	defer r.mu.Unlock()

	byID, ok := r.conns[user]
	if !ok {
		byID = make(map[string]Conn)
		r.conns[user] = byID
	}
	if _, exists := byID[c.ID()]; !exists {
		metrics.LiveConnections.Inc()
	}
	byID[c.ID()] = c
}

func (r *Registry) Unregister(c Conn) {
	user := domain.NormalizeUsername(c.Username())
	r.mu.Lock()
	defer r.mu.Unlock()

	byID, ok := r.conns[user]
	if !ok {
		return
	}
	if _, exists := byID[c.ID()]; !exists {
		return
	}
	delete(byID, c.ID())
	metrics.LiveConnections.Dec()
	if len(byID) == 0 {
		delete(r.conns, user)
	}
}

// Count returns the number of live connections held by username.
func (r *Registry) Count(username string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns[domain.NormalizeUsername(username)])
}

// Publish pushes n to every connection of its recipient. It never blocks on a
// slow client; a full client buffer drops the message for that connection.
func (r *Registry) Publish(_ context.Context, n domain.Notification) error {
	r.Deliver(n)
	return nil
}

// Deliver is Publish without the context, returning how many connections
// accepted the message.
func (r *Registry) Deliver(n domain.Notification) int {
	msg, err := json.Marshal(Envelope{Type: MessageActivity, Notification: &n})
	if err != nil {
		r.log.Error().Err(err).Msg("encode notification")
		return 0
	}

	r.mu.RLock()
	byID := r.conns[domain.NormalizeUsername(n.AdminUsername)]
	targets := make([]Conn, 0, len(byID))
	for _, c := range byID {
		targets = append(targets, c)
	}
	r.mu.RUnlock()

	if len(targets) == 0 {
		metrics.PushesTotal.WithLabelValues("offline").Inc()
		return 0
	}

	delivered := 0
	for _, c := range targets {
		if c.Enqueue(msg) {
			delivered++
			metrics.PushesTotal.WithLabelValues("delivered").Inc()
			continue
		}
		metrics.PushesTotal.WithLabelValues("dropped").Inc()
		r.log.Debug().Str("admin", n.AdminUsername).Str("conn", c.ID()).Msg("push dropped, client buffer full")
	}
	return delivered
}

// connectedFrame is sent once right after registration.
func connectedFrame() []byte {
	msg, err := json.Marshal(Envelope{Type: MessageConnected})
	if err != nil {
		panic(fmt.Sprintf("realtime: encode connected frame: %v", err))
	}
	return msg
}

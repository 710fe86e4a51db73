package handler

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ibadah/tracker/internal/api/middleware"
	"github.com/ibadah/tracker/internal/infrastructure/realtime"
)

// LiveHandler upgrades admin connections for live notification push.
type LiveHandler struct {
	guard    *middleware.Guard
	registry *realtime.Registry
	upgrader websocket.Upgrader
	stop     chan struct{}
	stopOnce sync.Once
	log      zerolog.Logger
}

func NewLiveHandler(guard *middleware.Guard, registry *realtime.Registry, log zerolog.Logger) *LiveHandler {
	return &LiveHandler{
		guard:    guard,
		registry: registry,
		upgrader: websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
		stop:     make(chan struct{}),
		log:      log,
	}
}

// Connect authenticates the handshake on its own, since the socket outlives
// the request that opened it, then serves the connection until it closes.
//
// @Summary      Live notifications
// @Tags         audit
// @Success      101
// @Failure      401  {object}  map[string]any
// @Failure      403  {object}  map[string]any
// @Router       /admin/notifications/ws [get]
func (h *LiveHandler) Connect(c echo.Context) error {
	req := c.Request()
	p, err := h.guard.Resolve(req.Context(), req)
	if err != nil {
		return err
	}
	if err := h.guard.AuthorizeAdmin(req.Context(), p); err != nil {
		return err
	}

	conn, err := h.upgrader.Upgrade(c.Response(), req, nil)
	if err != nil {
		// The upgrader has already written the HTTP error.
		h.log.Debug().Err(err).Str("admin", p.Username).Msg("websocket upgrade failed")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-h.stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	realtime.NewClient(conn, p.Username, h.log).Serve(ctx, h.registry)
	return nil
}

// Shutdown closes every connection served by this handler. The HTTP server
// does not track hijacked sockets, so it has to be told separately.
func (h *LiveHandler) Shutdown() {
	h.stopOnce.Do(func() { close(h.stop) })
}

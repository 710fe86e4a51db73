package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	sendBuffer     = 32
	maxInboundSize = 512

	// writeWait bounds a single frame write so a peer that stops reading
	// cannot pin the write pump.
	writeWait = 10 * time.Second
	// closeWait bounds the close handshake frame on shutdown.
	closeWait = time.Second
)

// Client is one admin's websocket connection.
type Client struct {
	id       string
	username string
	conn     *websocket.Conn
	send     chan []byte
	done     chan struct{}
	stop     sync.Once
	log      zerolog.Logger
}

func NewClient(conn *websocket.Conn, username string, log zerolog.Logger) *Client {
	id := uuid.NewString()
	return &Client{
		id:       id,
		username: username,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		done:     make(chan struct{}),
		log:      log.With().Str("conn", id).Str("admin", username).Logger(),
	}
}

func (c *Client) ID() string       { return c.id }
func (c *Client) Username() string { return c.username }

func (c *Client) Enqueue(msg []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// Serve registers the client, pumps messages until the peer goes away or ctx
// ends, then unregisters and closes the socket. It blocks for the lifetime of
// the connection.
func (c *Client) Serve(ctx context.Context, registry *Registry) {
	registry.Register(c)
	defer registry.Unregister(c)
	c.Enqueue(connectedFrame())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.writePump()
	}()

	go func() {
		select {
		case <-ctx.Done():
			c.close()
		case <-c.done:
		}
	}()

	c.readPump()
	c.close()
	wg.Wait()
	c.log.Debug().Msg("live connection closed")
}

// readPump discards inbound frames; it exists to observe close and error
// events from the transport.
func (c *Client) readPump() {
	c.conn.SetReadLimit(maxInboundSize)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug().Err(err).Msg("live connection read error")
			}
			return
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for {
		select {
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(closeWait))
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.log.Debug().Err(err).Msg("live connection write error")
				c.close()
				return
			}
		}
	}
}

// close signals writePump, which sends a close frame and releases the socket.
func (c *Client) close() {
	c.stop.Do(func() { close(c.done) })
}

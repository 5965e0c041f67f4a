// Package client is the kiosk/dashboard side of the visit hub: one outbound
// websocket connection, automatic reconnection on drop, and a stream of
// Broadcast signals for the local UI to react to.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"visitflow/internal/hub"
	dErrors "visitflow/pkg/domain-errors"
)

// State is the connector's connection state.
type State string

const (
	StateDisconnected State = "Disconnected"
	StateConnecting   State = "Connecting"
	StateConnected    State = "Connected"
)

const (
	defaultBackoffMin = 250 * time.Millisecond
	defaultBackoffMax = 15 * time.Second
	writeTimeout      = 5 * time.Second
)

// Rejection is an error frame the hub sent back for something this
// connection submitted.
type Rejection struct {
	Code    string
	Message string
}

// Connector maintains one connection to the hub. It reconnects with
// exponential backoff after an unexpected drop, transparently to the caller;
// Send simply fails while the connection is down.
type Connector struct {
	url       string
	role      string
	sessionID string
	logger    *slog.Logger
	dialer    *websocket.Dialer

	mu     sync.Mutex
	state  State
	conn   *websocket.Conn
	closed bool

	broadcasts  chan struct{}
	rejections  chan Rejection
	closeOnce   sync.Once
	streamsOnce sync.Once
}

// New builds a connector for the given hub URL (ws://host/visithub). The
// role ("kiosk" or "dashboard") is advisory: it is sent in the Hello message
// so the hub can log client classes, nothing more.
func New(url, role string, logger *slog.Logger) *Connector {
	return &Connector{
		url:        url,
		role:       role,
		sessionID:  uuid.NewString(),
		logger:     logger,
		dialer:     websocket.DefaultDialer,
		state:      StateDisconnected,
		broadcasts: make(chan struct{}, 256),
		rejections: make(chan Rejection, 16),
	}
}

// State reports the current connection state.
func (c *Connector) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Broadcasts is the stream of incoming refresh signals, order-preserving per
// connection. The channel closes when the connector shuts down for good.
func (c *Connector) Broadcasts() <-chan struct{} {
	return c.broadcasts
}

// Rejections carries error frames the hub addressed to this connection.
func (c *Connector) Rejections() <-chan Rejection {
	return c.rejections
}

// Connect dials the hub and starts the read loop. It returns once the
// connection is established and identified, or with the dial error.
func (c *Connector) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return dErrors.New(dErrors.CodeInvalidState, "connector is closed")
	}
	if c.state != StateDisconnected {
		c.mu.Unlock()
		return dErrors.New(dErrors.CodeInvalidState, "connector is already "+string(c.state))
	}
	c.state = StateConnecting
	c.mu.Unlock()

	conn, err := c.dial(ctx)
	if err != nil {
		c.mu.Lock()
		c.state = StateDisconnected
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.state = StateConnected
	c.mu.Unlock()

	go c.readLoop(conn)
	return nil
}

// Send submits a check-in event upstream. It fails with invalid_state unless
// the connector is currently Connected.
func (c *Connector) Send(ctx context.Context, event hub.Event) error {
	payload, err := event.Encode()
	if err != nil {
		return dErrors.Wrap(dErrors.CodeInvalidPayload, "encode check-in event", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateConnected || c.conn == nil {
		return dErrors.New(dErrors.CodeInvalidState, "not connected to the visit hub")
	}

	deadline := time.Now().Add(writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = c.conn.SetWriteDeadline(deadline)
	if err := c.conn.WriteJSON(hub.Frame{Type: hub.FrameCheckIn, Payload: payload}); err != nil {
		return dErrors.Wrap(dErrors.CodeTimeout, "send check-in event", err)
	}
	return nil
}

// Close tears the connection down on every exit path and stops reconnecting.
func (c *Connector) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.state = StateDisconnected
		conn := c.conn
		c.conn = nil
		c.mu.Unlock()
		if conn != nil {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeTimeout))
			_ = conn.Close()
		} else {
			// Never connected (or mid-backoff): no read loop will close the
			// streams on our behalf.
			c.shutdownStreams()
		}
	})
	return nil
}

func (c *Connector) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, resp, err := c.dialer.DialContext(ctx, c.url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial visit hub: %w", err)
	}

	hello, err := json.Marshal(fmt.Sprintf("%s;%s;", c.role, c.sessionID))
	if err == nil {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		err = conn.WriteJSON(hub.Frame{Type: hub.FrameHello, Payload: hello})
	}
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("identify to visit hub: %w", err)
	}
	return conn, nil
}

// readLoop consumes frames until the connection drops, then hands off to the
// reconnect loop unless the connector was closed deliberately.
func (c *Connector) readLoop(conn *websocket.Conn) {
	for {
		var frame hub.Frame
		if err := conn.ReadJSON(&frame); err != nil {
			c.mu.Lock()
			closed := c.closed
			if c.conn == conn {
				c.conn = nil
				c.state = StateDisconnected
			}
			c.mu.Unlock()

			if closed {
				c.shutdownStreams()
				return
			}
			c.logger.Warn("visit hub connection dropped", "error", err.Error())
			c.reconnect()
			return
		}

		switch frame.Type {
		case hub.FrameBroadcast:
			c.broadcasts <- struct{}{}
		case hub.FrameError:
			select {
			case c.rejections <- Rejection{Code: frame.Code, Message: frame.Message}:
			default:
				c.logger.Warn("dropping hub rejection, consumer not keeping up",
					"code", frame.Code)
			}
		default:
			c.logger.Warn("ignoring unknown frame from hub", "type", frame.Type)
		}
	}
}

// reconnect retries with exponential backoff until it succeeds or the
// connector closes.
func (c *Connector) reconnect() {
	backoff := defaultBackoffMin
	for {
		time.Sleep(backoff)

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			c.shutdownStreams()
			return
		}
		c.state = StateConnecting
		c.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		conn, err := c.dial(ctx)
		cancel()
		if err == nil {
			c.mu.Lock()
			if c.closed {
				c.mu.Unlock()
				_ = conn.Close()
				c.shutdownStreams()
				return
			}
			c.conn = conn
			c.state = StateConnected
			c.mu.Unlock()
			c.logger.Info("reconnected to visit hub")
			go c.readLoop(conn)
			return
		}

		c.logger.Warn("reconnect attempt failed", "error", err.Error(), "backoff", backoff.String())
		backoff *= 2
		if backoff > defaultBackoffMax {
			backoff = defaultBackoffMax
		}
	}
}

func (c *Connector) shutdownStreams() {
	c.streamsOnce.Do(func() {
		close(c.broadcasts)
		close(c.rejections)
	})
}

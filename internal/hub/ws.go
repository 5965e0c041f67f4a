package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	dErrors "visitflow/pkg/domain-errors"
)

// Frame is the envelope for every websocket message in either direction.
type Frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Code    string          `json:"code,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Frame types. Broadcast carries no payload: it is a pure refresh trigger
// and clients pull fresh data through the query endpoints.
const (
	FrameHello     = "hello"
	FrameCheckIn   = "checkin"
	FrameBroadcast = "broadcast"
	FrameError     = "error"
)

// WSHandler upgrades HTTP requests to websocket connections attached to the
// hub. One goroutine per connection reads inbound frames; a second serializes
// all writes, since the websocket connection permits a single writer.
type WSHandler struct {
	hub            *Hub
	logger         *slog.Logger
	sendTimeout    time.Duration
	handlerTimeout time.Duration
	upgrader       websocket.Upgrader
}

func NewWSHandler(h *Hub, logger *slog.Logger, sendTimeout, handlerTimeout time.Duration) *WSHandler {
	return &WSHandler{
		hub:            h,
		logger:         logger,
		sendTimeout:    sendTimeout,
		handlerTimeout: handlerTimeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Kiosk and dashboard identity is out of scope; any origin may
			// connect.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(r.Context(), "websocket upgrade failed", "error", err.Error())
		return
	}

	client := h.hub.Attach()
	// Rejections go only to the originating connection, never through the
	// hub's fan-out, so they ride a per-connection channel into the writer.
	rejects := make(chan Frame, 4)
	done := make(chan struct{})

	go h.writePump(conn, client, rejects, done)
	h.readLoop(conn, client, rejects)

	close(done)
	h.hub.Detach(client)
	_ = conn.Close()
}

func (h *WSHandler) readLoop(conn *websocket.Conn, client *Client, rejects chan<- Frame) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warn("websocket read failed", "client_id", client.ID, "error", err.Error())
			}
			return
		}

		var frame Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			h.reject(client, rejects, dErrors.Wrap(dErrors.CodeInvalidPayload, "frame is not valid JSON", err))
			continue
		}

		switch frame.Type {
		case FrameHello:
			var msg string
			_ = json.Unmarshal(frame.Payload, &msg)
			h.hub.Hello(client.ID, msg)
		case FrameCheckIn:
			ctx, cancel := context.WithTimeout(context.Background(), h.handlerTimeout)
			_, err := h.hub.HandleCheckIn(ctx, frame.Payload)
			cancel()
			if err != nil {
				h.reject(client, rejects, err)
			}
		default:
			h.reject(client, rejects, dErrors.New(dErrors.CodeInvalidPayload, "unknown frame type: "+frame.Type))
		}
	}
}

func (h *WSHandler) reject(client *Client, rejects chan<- Frame, err error) {
	frame := Frame{
		Type:    FrameError,
		Code:    string(dErrors.CodeOf(err)),
		Message: err.Error(),
	}
	select {
	case rejects <- frame:
	case <-time.After(h.sendTimeout):
		h.logger.Warn("dropping rejection for slow client", "client_id", client.ID)
	}
}

// writePump is the single writer for one connection. It drains broadcast
// signals and per-connection rejections until the client detaches or the
// reader finishes.
func (h *WSHandler) writePump(conn *websocket.Conn, client *Client, rejects <-chan Frame, done <-chan struct{}) {
	for {
		select {
		case _, ok := <-client.Signals:
			if !ok {
				// Hub shut down; tell the peer to go away.
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
					time.Now().Add(h.sendTimeout))
				return
			}
			if !h.write(conn, client, Frame{Type: FrameBroadcast}) {
				return
			}
		case frame := <-rejects:
			if !h.write(conn, client, frame) {
				return
			}
		case <-done:
			return
		}
	}
}

func (h *WSHandler) write(conn *websocket.Conn, client *Client, frame Frame) bool {
	_ = conn.SetWriteDeadline(time.Now().Add(h.sendTimeout))
	if err := conn.WriteJSON(frame); err != nil {
		h.logger.Warn("websocket write failed", "client_id", client.ID, "error", err.Error())
		_ = conn.Close()
		return false
	}
	return true
}

// Package hub is the real-time coordination point between kiosks and
// dashboards. It routes inbound check-in events to the command handlers and
// fans a contentless Broadcast signal out to every attached client after a
// successful mutation. The hub holds no visitor state; clients re-query after
// a Broadcast.
package hub

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"visitflow/internal/platform/metrics"
	"visitflow/internal/visitor/models"
	"visitflow/internal/visitor/service"
	id "visitflow/pkg/domain"
	dErrors "visitflow/pkg/domain-errors"
)

// CheckInService is the slice of the visitor service the hub needs.
type CheckInService interface {
	CheckInKiosk(ctx context.Context, cmd service.CheckInKioskCommand) (models.Visitor, error)
	MarkArrived(ctx context.Context, visitorID id.VisitorID) (models.Visitor, error)
}

// Client is one attached connection. Broadcast signals arrive on Signals;
// the channel is buffered and the hub drops a signal for a client whose
// buffer is full rather than stalling the others. A client that missed a
// signal re-syncs by querying after its next one or after reconnecting.
type Client struct {
	ID      string
	Signals chan struct{}
}

// Hub is the broadcast multiplexer. Clients attach and detach at any time;
// there is no replay of missed events.
type Hub struct {
	service  CheckInService
	notifier *Notifier
	logger   *slog.Logger
	metrics  *metrics.Metrics

	mu      sync.RWMutex
	clients map[string]*Client

	subscription Subscription
}

// signalBuffer is per client. One pending signal would suffice for a pure
// refresh trigger; a little slack absorbs bursts without drops.
const signalBuffer = 8

func New(service CheckInService, notifier *Notifier, logger *slog.Logger, m *metrics.Metrics) *Hub {
	h := &Hub{
		service:  service,
		notifier: notifier,
		logger:   logger,
		metrics:  m,
		clients:  make(map[string]*Client),
	}
	h.subscription = notifier.Subscribe(h.broadcast)
	return h
}

// Close detaches the hub from the notifier and drops all clients.
func (h *Hub) Close() {
	h.subscription.Unsubscribe()
	h.mu.Lock()
	defer h.mu.Unlock()
	for clientID, c := range h.clients {
		close(c.Signals)
		delete(h.clients, clientID)
		h.metrics.ClientDisconnected()
	}
}

// Attach registers a new client and returns its handle.
func (h *Hub) Attach() *Client {
	c := &Client{
		ID:      uuid.NewString(),
		Signals: make(chan struct{}, signalBuffer),
	}
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()
	h.metrics.ClientConnected()
	h.logger.Info("client attached", "client_id", c.ID)
	return c
}

// Detach removes a client and closes its signal channel. Safe to call for an
// already-detached client.
func (h *Hub) Detach(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c.ID]
	if ok {
		delete(h.clients, c.ID)
	}
	h.mu.Unlock()
	if ok {
		close(c.Signals)
		h.metrics.ClientDisconnected()
		h.logger.Info("client detached", "client_id", c.ID)
	}
}

// Hello records a client's identification message. The role string is
// advisory; kiosks and dashboards are indistinguishable at protocol level.
func (h *Hub) Hello(clientID, message string) {
	h.logger.Info("client hello", "client_id", clientID, "message", message)
}

// HandleCheckIn decodes and dispatches one inbound check-in event. On
// success every attached client (including the sender) gets a Broadcast
// signal; on failure the error goes back to the caller alone and nothing is
// broadcast.
func (h *Hub) HandleCheckIn(ctx context.Context, raw []byte) (models.Visitor, error) {
	event, err := DecodeEvent(raw)
	if err != nil {
		return models.Visitor{}, err
	}

	var visitor models.Visitor
	switch event.Mode {
	case ModeSelfCheckIn:
		h.logger.InfoContext(ctx, "self check-in received", "name", event.Name, "company", event.Company)
		visitor, err = h.service.CheckInKiosk(ctx, service.CheckInKioskCommand{
			Name:    event.Name,
			Company: event.Company,
		})
	case ModeRemoteCheckIn:
		var visitorID id.VisitorID
		visitorID, err = id.ParseVisitorID(event.ID)
		if err == nil {
			visitor, err = h.service.MarkArrived(ctx, visitorID)
		}
	default:
		err = dErrors.New(dErrors.CodeInvalidPayload, "unsupported check-in mode: "+string(event.Mode))
	}

	if err != nil {
		h.logger.WarnContext(ctx, "check-in rejected",
			"mode", string(event.Mode),
			"code", string(dErrors.CodeOf(err)),
			"error", err.Error(),
		)
		return models.Visitor{}, err
	}

	h.logger.InfoContext(ctx, "visitor checked in", "visitor_id", visitor.ID.String(), "mode", string(event.Mode))
	h.notifier.Publish()
	return visitor, nil
}

// broadcast fans one signal out to every attached client. Sends never block:
// a client with a full buffer misses this signal and catches up on the next
// query. Sending happens under the read lock so Detach cannot close a
// channel mid-send.
func (h *Hub) broadcast() {
	h.mu.RLock()
	for _, c := range h.clients {
		select {
		case c.Signals <- struct{}{}:
		default:
			h.logger.Warn("dropping broadcast for slow client", "client_id", c.ID)
		}
	}
	h.mu.RUnlock()
	h.metrics.RecordBroadcast()
}

// ClientCount reports how many clients are attached.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

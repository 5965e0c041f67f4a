package hub

import (
	"encoding/json"

	dErrors "visitflow/pkg/domain-errors"
)

// Mode says how a check-in event should be handled.
type Mode string

const (
	// ModeUnknown is the zero value on the wire; the hub rejects it.
	ModeUnknown Mode = "UNKNOWN"
	// ModeSelfCheckIn is a kiosk walk-in carrying name and company.
	ModeSelfCheckIn Mode = "SELF_CHECK_IN"
	// ModeRemoteCheckIn marks an already-planned visitor as arrived by id.
	ModeRemoteCheckIn Mode = "REMOTE_CHECK_IN"
)

// Event is the check-in payload kiosks and dashboards send to the hub. The
// field names match the legacy wire format, so existing clients keep working.
type Event struct {
	ID      string `json:"Id"`
	Name    string `json:"Name"`
	Company string `json:"Company,omitempty"`
	Mode    Mode   `json:"Mode"`
}

// DecodeEvent parses a raw check-in payload. Malformed payloads are a hard
// reject before any handler runs.
func DecodeEvent(raw []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return Event{}, dErrors.Wrap(dErrors.CodeInvalidPayload, "check-in payload is not valid JSON", err)
	}
	if ev.Mode == "" {
		ev.Mode = ModeUnknown
	}
	return ev, nil
}

// Encode serializes the event for sending.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

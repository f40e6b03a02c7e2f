package messaging

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/carelink/carelink/internal/platform/presence"
)

// Dispatcher fans a freshly stored message out to live sockets on both
// sides of the conversation. Delivery is best effort; storage is the
// source of truth and a failed push never fails the send.
type Dispatcher struct {
	registry *presence.Registry
	logger   zerolog.Logger
}

func NewDispatcher(registry *presence.Registry, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{registry: registry, logger: logger}
}

// Dispatch pushes the opened message to every socket the sender holds
// toward the counterparty and vice versa. Sockets with full buffers are
// skipped and logged.
func (d *Dispatcher) Dispatch(m *Message, payload Payload) {
	event, err := json.Marshal(newView(m, payload))
	if err != nil {
		d.logger.Error().Err(err).Str("message_id", m.ID.String()).Msg("encode dispatch event")
		return
	}

	clients := d.registry.Lookup(m.SenderID, m.CounterpartyID)
	clients = append(clients, d.registry.Lookup(m.CounterpartyID, m.SenderID)...)

	for _, client := range clients {
		if !client.Push(event) {
			d.logger.Warn().
				Str("message_id", m.ID.String()).
				Str("client", client.ID).
				Msg("client buffer full, dropping live update")
		}
	}
}

package presence

import (
	"net/http"

	"github.com/google/uuid"
	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/carelink/carelink/internal/domain/party"
)

var upgrader = gorillawebsocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins; tighten in production.
	},
}

// Handler upgrades HTTP connections to WebSocket and binds each socket's
// lifetime to a registry entry for the (caller, peer) pair.
type Handler struct {
	registry *Registry
	logger   zerolog.Logger
}

// NewHandler creates a handler bound to the given registry.
func NewHandler(registry *Registry, logger zerolog.Logger) *Handler {
	return &Handler{registry: registry, logger: logger}
}

// RegisterRoutes registers the WebSocket endpoint on the provided group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/ws", h.HandleConnect)
}

// HandleConnect upgrades the connection and registers the authenticated
// caller against the peer named in the query string. The registry entry
// lives exactly as long as the socket.
func (h *Handler) HandleConnect(c echo.Context) error {
	self := party.CallerFromContext(c.Request().Context())
	if self.IsZero() {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing caller identity")
	}
	peer, err := party.Parse(c.QueryParam("peer"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid peer id")
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := NewClient(uuid.New().String())
	h.registry.Register(self, peer, client)
	h.logger.Debug().
		Str("party_id", self.String()).
		Str("counterparty_id", peer.String()).
		Str("client_id", client.ID).
		Msg("connection registered")

	go h.writePump(client, ws)
	go h.readPump(self, peer, client, ws)

	return nil
}

// readPump drains inbound frames until the socket drops, then unregisters.
// Clients do not send application data; the read loop exists to observe
// disconnects promptly.
func (h *Handler) readPump(self, peer party.ID, client *Client, ws *gorillawebsocket.Conn) {
	defer func() {
		h.registry.Unregister(self, peer, client)
		ws.Close()
		h.logger.Debug().
			Str("party_id", self.String()).
			Str("counterparty_id", peer.String()).
			Str("client_id", client.ID).
			Msg("connection unregistered")
	}()

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump writes queued pushes to the socket until the send queue closes.
func (h *Handler) writePump(client *Client, ws *gorillawebsocket.Conn) {
	defer ws.Close()

	for data := range client.Send {
		if err := ws.WriteMessage(gorillawebsocket.TextMessage, data); err != nil {
			return
		}
	}
}

// Package presence tracks which parties hold live connections toward which
// counterparties, for best-effort real-time delivery. The registry is an
// explicitly constructed instance injected where needed; it is process-local
// and never durable. Scaling past one process needs an external fan-out
// layer, which this package deliberately does not provide.
package presence

import (
	"sync"

	"github.com/carelink/carelink/internal/domain/party"
)

// Client is one live connection a party holds toward a counterparty.
// Data pushed to Send is written to the underlying socket by the write pump.
type Client struct {
	ID   string
	Send chan []byte

	mu     sync.Mutex
	closed bool
}

// NewClient creates a client with a buffered send queue.
func NewClient(id string) *Client {
	return &Client{ID: id, Send: make(chan []byte, 256)}
}

// Push queues data for delivery without blocking. A client whose buffer is
// full or whose queue has been closed is skipped; the durable store remains
// the source of truth. Push and shutdown hold the same lock, so a push racing
// a disconnect observes the closed flag instead of the closed channel.
func (c *Client) Push(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

// shutdown closes the send queue exactly once, ending the write pump.
func (c *Client) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
}

// Registry maps party -> counterparty -> live clients. All methods are safe
// under interleaved connect/disconnect events within one process.
type Registry struct {
	mu    sync.RWMutex
	conns map[party.ID]map[party.ID]map[*Client]struct{}
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[party.ID]map[party.ID]map[*Client]struct{}),
	}
}

// Register adds a client to the set for the (partyID, counterpartyID) pair,
// creating intermediate maps lazily.
func (r *Registry) Register(partyID, counterpartyID party.ID, client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	peers := r.conns[partyID]
	if peers == nil {
		peers = make(map[party.ID]map[*Client]struct{})
		r.conns[partyID] = peers
	}
	clients := peers[counterpartyID]
	if clients == nil {
		clients = make(map[*Client]struct{})
		peers[counterpartyID] = clients
	}
	clients[client] = struct{}{}
}

// Unregister removes a client from the pair's set and closes its send queue.
// Removing the last client prunes the empty intermediate maps.
func (r *Registry) Unregister(partyID, counterpartyID party.ID, client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	peers, ok := r.conns[partyID]
	if !ok {
		return
	}
	clients, ok := peers[counterpartyID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}

	delete(clients, client)
	client.shutdown()
	if len(clients) == 0 {
		delete(peers, counterpartyID)
	}
	if len(peers) == 0 {
		delete(r.conns, partyID)
	}
}

// Lookup returns the live clients for the pair. Missing and empty are
// equivalent: both return a nil slice. Lookup never blocks and never fails.
func (r *Registry) Lookup(partyID, counterpartyID party.ID) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	clients := r.conns[partyID][counterpartyID]
	if len(clients) == 0 {
		return nil
	}
	out := make([]*Client, 0, len(clients))
	for c := range clients {
		out = append(out, c)
	}
	return out
}

// ClientCount returns the total number of registered clients.
func (r *Registry) ClientCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, peers := range r.conns {
		for _, clients := range peers {
			n += len(clients)
		}
	}
	return n
}

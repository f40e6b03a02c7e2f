package relationship

import (
	"time"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/domain/party"
)

// Status is the lifecycle state of a relationship request.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
)

// Request is a proposed, not-yet-accepted relationship between two parties.
// At most one non-rejected request may exist per (requester, counterparty)
// pair; the storage layer enforces this with a unique index.
type Request struct {
	ID             uuid.UUID `json:"id"`
	RequesterID    party.ID  `json:"requester_id"`
	CounterpartyID party.ID  `json:"counterparty_id"`
	Status         Status    `json:"status"`
	AddedDate      string    `json:"added_date"`
	AddedTime      string    `json:"added_time"`
	CreatedAt      time.Time `json:"created_at"`
}

// Relationship is a permanent accepted authorization link between two
// parties. Its existence implies "accepted"; it is created exactly once per
// accepted request and never mutated. There is no revoke operation.
type Relationship struct {
	ID        uuid.UUID `json:"id"`
	PartyA    party.ID  `json:"party_a"`
	PartyB    party.ID  `json:"party_b"`
	CreatedAt time.Time `json:"created_at"`
}

// Other returns the opposite side of the link from the given party.
func (r *Relationship) Other(self party.ID) party.ID {
	if r.PartyA == self {
		return r.PartyB
	}
	return r.PartyA
}

// RequestView joins a request with the opposite party's public profile for
// listing endpoints.
type RequestView struct {
	Request
	Counterparty party.Profile `json:"counterparty"`
}

// RelationshipView joins a relationship with the opposite party's public
// profile for listing endpoints.
type RelationshipView struct {
	ID           uuid.UUID     `json:"id"`
	Counterparty party.Profile `json:"counterparty"`
	CreatedAt    time.Time     `json:"created_at"`
}

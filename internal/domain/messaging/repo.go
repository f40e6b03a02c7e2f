package messaging

import (
	"context"

	"github.com/carelink/carelink/internal/domain/party"
)

// Repository persists sealed messages.
type Repository interface {
	Create(ctx context.Context, m *Message) error
	// ListByPair returns every message exchanged between the two parties,
	// in either direction, oldest first.
	ListByPair(ctx context.Context, a, b party.ID, limit, offset int) ([]*Message, int, error)
}

// Directory answers existence checks for counterparties. party.Repository
// satisfies it.
type Directory interface {
	Exists(ctx context.Context, id party.ID) (bool, error)
}

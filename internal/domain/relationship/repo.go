package relationship

import (
	"context"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/domain/party"
)

// RequestRepository persists relationship requests. Create must surface the
// storage-level uniqueness violation for a (requester, counterparty) pair as
// an apperror.Conflict so the check-then-create race stays closed.
type RequestRepository interface {
	Create(ctx context.Context, r *Request) error
	GetByID(ctx context.Context, id uuid.UUID) (*Request, error)
	GetByPair(ctx context.Context, requester, counterparty party.ID) (*Request, error)
	MarkAccepted(ctx context.Context, id uuid.UUID) error
	ListByParty(ctx context.Context, id party.ID, limit, offset int) ([]*Request, int, error)
}

// RelationshipRepository persists accepted relationships.
type RelationshipRepository interface {
	Create(ctx context.Context, r *Relationship) error
	ListByParty(ctx context.Context, id party.ID, limit, offset int) ([]*Relationship, int, error)
}

// Directory resolves counterparties. Satisfied by party.Repository.
type Directory interface {
	GetByID(ctx context.Context, id party.ID) (*party.Party, error)
	Exists(ctx context.Context, id party.ID) (bool, error)
}

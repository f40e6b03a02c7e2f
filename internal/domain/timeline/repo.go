package timeline

import (
	"context"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/domain/party"
)

// EntryRepository persists sealed timeline entries.
type EntryRepository interface {
	Create(ctx context.Context, e *Entry) error
	GetByID(ctx context.Context, id uuid.UUID) (*Entry, error)
	// ListByPair returns the entries on one provider-patient timeline,
	// oldest first.
	ListByPair(ctx context.Context, provider, patient party.ID, limit, offset int) ([]*Entry, int, error)
}

// ReportRepository persists sealed lab reports.
type ReportRepository interface {
	Create(ctx context.Context, r *Report) error
	GetByID(ctx context.Context, id uuid.UUID) (*Report, error)
}

// Directory answers existence checks for counterparties.
type Directory interface {
	Exists(ctx context.Context, id party.ID) (bool, error)
}

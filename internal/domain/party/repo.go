package party

import "context"

// Repository persists party accounts. Implementations return
// apperror.NotFound for unknown identifiers.
type Repository interface {
	Create(ctx context.Context, p *Party) error
	GetByID(ctx context.Context, id ID) (*Party, error)
	GetByEmail(ctx context.Context, email string) (*Party, error)
	ExistsByNationalID(ctx context.Context, nationalID string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Exists(ctx context.Context, id ID) (bool, error)
	UpdateProfile(ctx context.Context, id ID, u *ProfileUpdate) error
}

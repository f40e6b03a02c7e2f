package party

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carelink/carelink/internal/platform/apperror"
)

type repoPG struct{ pool *pgxpool.Pool }

// NewRepoPG creates the PostgreSQL-backed party repository.
func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const partyCols = `id, kind, first_name, last_name, display_name, email, national_id,
	password_hash, phone_number, address, date_of_birth, gender, created_at, updated_at`

func (r *repoPG) scan(row pgx.Row) (*Party, error) {
	var (
		p   Party
		raw string
	)
	err := row.Scan(&raw, &p.Kind, &p.FirstName, &p.LastName, &p.DisplayName,
		&p.Email, &p.NationalID, &p.PasswordHash, &p.PhoneNumber, &p.Address,
		&p.DateOfBirth, &p.Gender, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFoundf("party not found")
	}
	if err != nil {
		return nil, apperror.Internalf(err, "load party")
	}
	p.ID, err = Parse(raw)
	if err != nil {
		return nil, apperror.Internalf(err, "stored party id is malformed")
	}
	return &p, nil
}

func (r *repoPG) Create(ctx context.Context, p *Party) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO party (id, kind, first_name, last_name, display_name, email,
			national_id, password_hash, phone_number, address, date_of_birth, gender)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		p.ID.String(), p.Kind, p.FirstName, p.LastName, p.DisplayName, p.Email,
		p.NationalID, p.PasswordHash, p.PhoneNumber, p.Address, p.DateOfBirth, p.Gender)
	if err != nil {
		return apperror.Internalf(err, "persist party")
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id ID) (*Party, error) {
	return r.scan(r.pool.QueryRow(ctx,
		`SELECT `+partyCols+` FROM party WHERE id = $1`, id.String()))
}

func (r *repoPG) GetByEmail(ctx context.Context, email string) (*Party, error) {
	return r.scan(r.pool.QueryRow(ctx,
		`SELECT `+partyCols+` FROM party WHERE email = $1`, email))
}

func (r *repoPG) ExistsByNationalID(ctx context.Context, nationalID string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM party WHERE national_id = $1)`, nationalID)
}

func (r *repoPG) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM party WHERE email = $1)`, email)
}

func (r *repoPG) Exists(ctx context.Context, id ID) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM party WHERE id = $1)`, id.String())
}

func (r *repoPG) exists(ctx context.Context, query string, arg any) (bool, error) {
	var ok bool
	if err := r.pool.QueryRow(ctx, query, arg).Scan(&ok); err != nil {
		return false, apperror.Internalf(err, "check party existence")
	}
	return ok, nil
}

func (r *repoPG) UpdateProfile(ctx context.Context, id ID, u *ProfileUpdate) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE party SET
			first_name   = COALESCE($2, first_name),
			last_name    = COALESCE($3, last_name),
			display_name = COALESCE($4, display_name),
			phone_number = COALESCE($5, phone_number),
			address      = COALESCE($6, address),
			gender       = COALESCE($7, gender),
			updated_at   = NOW()
		WHERE id = $1`,
		id.String(), u.FirstName, u.LastName, u.DisplayName,
		u.PhoneNumber, u.Address, u.Gender)
	if err != nil {
		return apperror.Internalf(err, "update profile")
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFoundf("party not found")
	}
	return nil
}

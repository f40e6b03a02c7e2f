package relationship

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carelink/carelink/internal/domain/party"
	"github.com/carelink/carelink/internal/platform/apperror"
)

// uniqueViolation is the PostgreSQL error code for a unique index violation.
const uniqueViolation = "23505"

type requestRepoPG struct{ pool *pgxpool.Pool }

func NewRequestRepoPG(pool *pgxpool.Pool) RequestRepository {
	return &requestRepoPG{pool: pool}
}

const requestCols = `id, requester_id, counterparty_id, status, added_date, added_time, created_at`

func scanRequest(row pgx.Row) (*Request, error) {
	var (
		r            Request
		requester    string
		counterparty string
	)
	err := row.Scan(&r.ID, &requester, &counterparty, &r.Status, &r.AddedDate, &r.AddedTime, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFoundf("request not found")
	}
	if err != nil {
		return nil, apperror.Internalf(err, "load relationship request")
	}
	if r.RequesterID, err = party.Parse(requester); err != nil {
		return nil, apperror.Internalf(err, "stored requester id is malformed")
	}
	if r.CounterpartyID, err = party.Parse(counterparty); err != nil {
		return nil, apperror.Internalf(err, "stored counterparty id is malformed")
	}
	return &r, nil
}

func (p *requestRepoPG) Create(ctx context.Context, r *Request) error {
	r.ID = uuid.New()
	_, err := p.pool.Exec(ctx, `
		INSERT INTO relationship_request (id, requester_id, counterparty_id, status, added_date, added_time)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		r.ID, r.RequesterID.String(), r.CounterpartyID.String(), r.Status, r.AddedDate, r.AddedTime)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return apperror.Conflictf("request already exists")
	}
	if err != nil {
		return apperror.Internalf(err, "persist relationship request")
	}
	return nil
}

func (p *requestRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Request, error) {
	return scanRequest(p.pool.QueryRow(ctx,
		`SELECT `+requestCols+` FROM relationship_request WHERE id = $1`, id))
}

func (p *requestRepoPG) GetByPair(ctx context.Context, requester, counterparty party.ID) (*Request, error) {
	return scanRequest(p.pool.QueryRow(ctx,
		`SELECT `+requestCols+` FROM relationship_request
		 WHERE requester_id = $1 AND counterparty_id = $2`,
		requester.String(), counterparty.String()))
}

func (p *requestRepoPG) MarkAccepted(ctx context.Context, id uuid.UUID) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE relationship_request SET status = $2 WHERE id = $1`, id, StatusAccepted)
	if err != nil {
		return apperror.Internalf(err, "mark request accepted")
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFoundf("request not found")
	}
	return nil
}

func (p *requestRepoPG) ListByParty(ctx context.Context, id party.ID, limit, offset int) ([]*Request, int, error) {
	var total int
	err := p.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM relationship_request WHERE requester_id = $1 OR counterparty_id = $1`,
		id.String()).Scan(&total)
	if err != nil {
		return nil, 0, apperror.Internalf(err, "count relationship requests")
	}

	rows, err := p.pool.Query(ctx, `
		SELECT `+requestCols+` FROM relationship_request
		WHERE requester_id = $1 OR counterparty_id = $1
		ORDER BY created_at LIMIT $2 OFFSET $3`,
		id.String(), limit, offset)
	if err != nil {
		return nil, 0, apperror.Internalf(err, "list relationship requests")
	}
	defer rows.Close()

	var items []*Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, r)
	}
	return items, total, nil
}

type relationshipRepoPG struct{ pool *pgxpool.Pool }

func NewRelationshipRepoPG(pool *pgxpool.Pool) RelationshipRepository {
	return &relationshipRepoPG{pool: pool}
}

func (p *relationshipRepoPG) Create(ctx context.Context, r *Relationship) error {
	r.ID = uuid.New()
	_, err := p.pool.Exec(ctx, `
		INSERT INTO relationship (id, party_a, party_b)
		VALUES ($1,$2,$3)`,
		r.ID, r.PartyA.String(), r.PartyB.String())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return apperror.Conflictf("parties are already connected")
	}
	if err != nil {
		return apperror.Internalf(err, "persist relationship")
	}
	return nil
}

func (p *relationshipRepoPG) ListByParty(ctx context.Context, id party.ID, limit, offset int) ([]*Relationship, int, error) {
	var total int
	err := p.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM relationship WHERE party_a = $1 OR party_b = $1`,
		id.String()).Scan(&total)
	if err != nil {
		return nil, 0, apperror.Internalf(err, "count relationships")
	}

	rows, err := p.pool.Query(ctx, `
		SELECT id, party_a, party_b, created_at FROM relationship
		WHERE party_a = $1 OR party_b = $1
		ORDER BY created_at LIMIT $2 OFFSET $3`,
		id.String(), limit, offset)
	if err != nil {
		return nil, 0, apperror.Internalf(err, "list relationships")
	}
	defer rows.Close()

	var items []*Relationship
	for rows.Next() {
		var (
			r    Relationship
			a, b string
		)
		if err := rows.Scan(&r.ID, &a, &b, &r.CreatedAt); err != nil {
			return nil, 0, apperror.Internalf(err, "scan relationship")
		}
		if r.PartyA, err = party.Parse(a); err != nil {
			return nil, 0, apperror.Internalf(err, "stored party id is malformed")
		}
		if r.PartyB, err = party.Parse(b); err != nil {
			return nil, 0, apperror.Internalf(err, "stored party id is malformed")
		}
		items = append(items, &r)
	}
	return items, total, nil
}

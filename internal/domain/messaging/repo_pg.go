package messaging

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carelink/carelink/internal/domain/party"
	"github.com/carelink/carelink/internal/platform/apperror"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const messageCols = `id, sender_id, counterparty_id, sender_role, kind, payload, added_date, added_time, created_at`

func scanMessage(row pgx.Row) (*Message, error) {
	var (
		m            Message
		sender       string
		counterparty string
	)
	err := row.Scan(&m.ID, &sender, &counterparty, &m.SenderRole, &m.Kind,
		&m.Payload, &m.AddedDate, &m.AddedTime, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFoundf("message not found")
	}
	if err != nil {
		return nil, apperror.Internalf(err, "load message")
	}
	if m.SenderID, err = party.Parse(sender); err != nil {
		return nil, apperror.Internalf(err, "stored sender id is malformed")
	}
	if m.CounterpartyID, err = party.Parse(counterparty); err != nil {
		return nil, apperror.Internalf(err, "stored counterparty id is malformed")
	}
	return &m, nil
}

func (p *repoPG) Create(ctx context.Context, m *Message) error {
	m.ID = uuid.New()
	_, err := p.pool.Exec(ctx, `
		INSERT INTO message (id, sender_id, counterparty_id, sender_role, kind, payload, added_date, added_time)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		m.ID, m.SenderID.String(), m.CounterpartyID.String(), m.SenderRole,
		m.Kind, m.Payload, m.AddedDate, m.AddedTime)
	if err != nil {
		return apperror.Internalf(err, "persist message")
	}
	return nil
}

func (p *repoPG) ListByPair(ctx context.Context, a, b party.ID, limit, offset int) ([]*Message, int, error) {
	const pairCond = `(sender_id = $1 AND counterparty_id = $2) OR (sender_id = $2 AND counterparty_id = $1)`

	var total int
	err := p.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM message WHERE `+pairCond,
		a.String(), b.String()).Scan(&total)
	if err != nil {
		return nil, 0, apperror.Internalf(err, "count messages")
	}

	rows, err := p.pool.Query(ctx, `
		SELECT `+messageCols+` FROM message
		WHERE `+pairCond+`
		ORDER BY created_at LIMIT $3 OFFSET $4`,
		a.String(), b.String(), limit, offset)
	if err != nil {
		return nil, 0, apperror.Internalf(err, "list messages")
	}
	defer rows.Close()

	var items []*Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, m)
	}
	return items, total, nil
}

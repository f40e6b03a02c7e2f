package timeline

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carelink/carelink/internal/domain/party"
	"github.com/carelink/carelink/internal/platform/apperror"
)

type entryRepoPG struct{ pool *pgxpool.Pool }

func NewEntryRepoPG(pool *pgxpool.Pool) EntryRepository {
	return &entryRepoPG{pool: pool}
}

const entryCols = `id, provider_id, patient_id, kind, sender, payload, added_date, added_time, created_at`

func scanEntry(row pgx.Row) (*Entry, error) {
	var (
		e        Entry
		provider string
		patient  string
	)
	err := row.Scan(&e.ID, &provider, &patient, &e.Kind, &e.Sender,
		&e.Payload, &e.AddedDate, &e.AddedTime, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFoundf("timeline entry not found")
	}
	if err != nil {
		return nil, apperror.Internalf(err, "load timeline entry")
	}
	if e.ProviderID, err = party.Parse(provider); err != nil {
		return nil, apperror.Internalf(err, "stored provider id is malformed")
	}
	if e.PatientID, err = party.Parse(patient); err != nil {
		return nil, apperror.Internalf(err, "stored patient id is malformed")
	}
	return &e, nil
}

func (p *entryRepoPG) Create(ctx context.Context, e *Entry) error {
	e.ID = uuid.New()
	_, err := p.pool.Exec(ctx, `
		INSERT INTO timeline_entry (id, provider_id, patient_id, kind, sender, payload, added_date, added_time)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		e.ID, e.ProviderID.String(), e.PatientID.String(), e.Kind, e.Sender,
		e.Payload, e.AddedDate, e.AddedTime)
	if err != nil {
		return apperror.Internalf(err, "persist timeline entry")
	}
	return nil
}

func (p *entryRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Entry, error) {
	return scanEntry(p.pool.QueryRow(ctx,
		`SELECT `+entryCols+` FROM timeline_entry WHERE id = $1`, id))
}

func (p *entryRepoPG) ListByPair(ctx context.Context, provider, patient party.ID, limit, offset int) ([]*Entry, int, error) {
	var total int
	err := p.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM timeline_entry WHERE provider_id = $1 AND patient_id = $2`,
		provider.String(), patient.String()).Scan(&total)
	if err != nil {
		return nil, 0, apperror.Internalf(err, "count timeline entries")
	}

	rows, err := p.pool.Query(ctx, `
		SELECT `+entryCols+` FROM timeline_entry
		WHERE provider_id = $1 AND patient_id = $2
		ORDER BY created_at LIMIT $3 OFFSET $4`,
		provider.String(), patient.String(), limit, offset)
	if err != nil {
		return nil, 0, apperror.Internalf(err, "list timeline entries")
	}
	defer rows.Close()

	var items []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, e)
	}
	return items, total, nil
}

type reportRepoPG struct{ pool *pgxpool.Pool }

func NewReportRepoPG(pool *pgxpool.Pool) ReportRepository {
	return &reportRepoPG{pool: pool}
}

func (p *reportRepoPG) Create(ctx context.Context, r *Report) error {
	r.ID = uuid.New()
	_, err := p.pool.Exec(ctx, `
		INSERT INTO lab_report (id, facility_id, patient_id, payload, added_date, added_time)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		r.ID, r.FacilityID.String(), r.PatientID.String(), r.Payload, r.AddedDate, r.AddedTime)
	if err != nil {
		return apperror.Internalf(err, "persist lab report")
	}
	return nil
}

func (p *reportRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Report, error) {
	var (
		r        Report
		facility string
		patient  string
	)
	err := p.pool.QueryRow(ctx,
		`SELECT id, facility_id, patient_id, payload, added_date, added_time, created_at
		 FROM lab_report WHERE id = $1`, id).
		Scan(&r.ID, &facility, &patient, &r.Payload, &r.AddedDate, &r.AddedTime, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFoundf("report not found")
	}
	if err != nil {
		return nil, apperror.Internalf(err, "load lab report")
	}
	if r.FacilityID, err = party.Parse(facility); err != nil {
		return nil, apperror.Internalf(err, "stored facility id is malformed")
	}
	if r.PatientID, err = party.Parse(patient); err != nil {
		return nil, apperror.Internalf(err, "stored patient id is malformed")
	}
	return &r, nil
}

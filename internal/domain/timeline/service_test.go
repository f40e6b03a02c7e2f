package timeline

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/domain/messaging"
	"github.com/carelink/carelink/internal/domain/party"
	"github.com/carelink/carelink/internal/platform/apperror"
	"github.com/carelink/carelink/internal/platform/envelope"
)

var (
	patientID      = party.MustParse("PA51234")
	otherPatientID = party.MustParse("PA67777")
	providerID     = party.MustParse("DR74321")
	facilityID     = party.MustParse("LB39876")
	dispensaryID   = party.MustParse("PH25678")
)

type mockEntryRepo struct {
	items map[uuid.UUID]*Entry
	order []uuid.UUID
}

func newMockEntryRepo() *mockEntryRepo {
	return &mockEntryRepo{items: make(map[uuid.UUID]*Entry)}
}

func (m *mockEntryRepo) Create(_ context.Context, e *Entry) error {
	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	m.items[e.ID] = e
	m.order = append(m.order, e.ID)
	return nil
}

func (m *mockEntryRepo) GetByID(_ context.Context, id uuid.UUID) (*Entry, error) {
	e, ok := m.items[id]
	if !ok {
		return nil, apperror.NotFoundf("timeline entry not found")
	}
	return e, nil
}

func (m *mockEntryRepo) ListByPair(_ context.Context, provider, patient party.ID, limit, offset int) ([]*Entry, int, error) {
	var result []*Entry
	for _, id := range m.order {
		e := m.items[id]
		if e.ProviderID == provider && e.PatientID == patient {
			result = append(result, e)
		}
	}
	return result, len(result), nil
}

type mockReportRepo struct {
	items map[uuid.UUID]*Report
}

func newMockReportRepo() *mockReportRepo {
	return &mockReportRepo{items: make(map[uuid.UUID]*Report)}
}

func (m *mockReportRepo) Create(_ context.Context, r *Report) error {
	r.ID = uuid.New()
	r.CreatedAt = time.Now()
	m.items[r.ID] = r
	return nil
}

func (m *mockReportRepo) GetByID(_ context.Context, id uuid.UUID) (*Report, error) {
	r, ok := m.items[id]
	if !ok {
		return nil, apperror.NotFoundf("report not found")
	}
	return r, nil
}

type mockDirectory struct {
	known map[party.ID]bool
}

func (d *mockDirectory) Exists(_ context.Context, id party.ID) (bool, error) {
	return d.known[id], nil
}

type mockSender struct {
	sent []messaging.SendInput
}

func (m *mockSender) Send(_ context.Context, sender party.ID, in messaging.SendInput) (*messaging.Message, error) {
	m.sent = append(m.sent, in)
	counterparty, err := party.Parse(in.CounterpartyID)
	if err != nil {
		return nil, apperror.Validationf("invalid counterparty id: %v", err)
	}
	return &messaging.Message{
		ID:             uuid.New(),
		SenderID:       sender,
		CounterpartyID: counterparty,
		SenderRole:     sender.Kind(),
		Kind:           in.Payload.Kind,
	}, nil
}

type fixture struct {
	svc     *Service
	entries *mockEntryRepo
	reports *mockReportRepo
	sender  *mockSender
	codec   *envelope.Codec
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	codec, err := envelope.New(key, 12)
	if err != nil {
		t.Fatalf("envelope.New: %v", err)
	}

	entries := newMockEntryRepo()
	reports := newMockReportRepo()
	sender := &mockSender{}
	dir := &mockDirectory{known: map[party.ID]bool{
		patientID: true, providerID: true, facilityID: true, dispensaryID: true,
	}}
	return &fixture{
		svc:     NewService(entries, reports, dir, sender, codec),
		entries: entries,
		reports: reports,
		sender:  sender,
		codec:   codec,
	}
}

func (f *fixture) seedEntry(t *testing.T, kind EntryKind, note string) *Entry {
	t.Helper()
	sealed, err := f.svc.seal(EntryPayload{Note: &note})
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	e := &Entry{
		ProviderID: providerID,
		PatientID:  patientID,
		Kind:       kind,
		Sender:     party.KindProvider,
		Payload:    sealed,
		AddedDate:  "2025-03-14",
		AddedTime:  "09:00",
	}
	if err := f.entries.Create(context.Background(), e); err != nil {
		t.Fatalf("seed entry: %v", err)
	}
	return e
}

func (f *fixture) seedReport(t *testing.T, owner party.ID) *Report {
	t.Helper()
	sealed, err := f.codec.Encrypt([]byte(`{"result":"normal"}`))
	if err != nil {
		t.Fatalf("seal report: %v", err)
	}
	r := &Report{
		FacilityID: facilityID,
		PatientID:  owner,
		Payload:    sealed,
		AddedDate:  "2025-03-10",
		AddedTime:  "08:30",
	}
	if err := f.reports.Create(context.Background(), r); err != nil {
		t.Fatalf("seed report: %v", err)
	}
	return r
}

// -- SharePrescription --

func TestSharePrescription(t *testing.T) {
	f := newFixture(t)
	entry := f.seedEntry(t, KindPrescription, "amoxicillin 500mg")

	in := SharePrescriptionInput{
		DispensaryID:    dispensaryID.String(),
		TimelineEntryID: entry.ID.String(),
		AddedDate:       "2025-03-14",
		AddedTime:       "10:15",
	}
	if _, err := f.svc.SharePrescription(context.Background(), patientID, in); err != nil {
		t.Fatalf("SharePrescription: %v", err)
	}

	if len(f.sender.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(f.sender.sent))
	}
	sent := f.sender.sent[0]
	if sent.Payload.Kind != messaging.KindPrescription {
		t.Errorf("sent payload kind = %s, want prescription", sent.Payload.Kind)
	}
	if sent.Payload.TimelineEntryID != entry.ID.String() {
		t.Errorf("sent entry id = %s, want %s", sent.Payload.TimelineEntryID, entry.ID)
	}
	if sent.CounterpartyID != dispensaryID.String() {
		t.Errorf("sent counterparty = %s, want %s", sent.CounterpartyID, dispensaryID)
	}
}

func TestSharePrescriptionRejectsNonPrescription(t *testing.T) {
	f := newFixture(t)
	entry := f.seedEntry(t, KindNote, "follow up in two weeks")

	_, err := f.svc.SharePrescription(context.Background(), patientID, SharePrescriptionInput{
		DispensaryID:    dispensaryID.String(),
		TimelineEntryID: entry.ID.String(),
		AddedDate:       "2025-03-14",
		AddedTime:       "10:15",
	})
	if apperror.KindOf(err) != apperror.Validation {
		t.Errorf("expected validation error for non-prescription entry, got %v", err)
	}
	if len(f.sender.sent) != 0 {
		t.Error("message was sent despite rejection")
	}
}

func TestSharePrescriptionBadIDs(t *testing.T) {
	f := newFixture(t)
	entry := f.seedEntry(t, KindPrescription, "rx")

	base := SharePrescriptionInput{
		DispensaryID:    dispensaryID.String(),
		TimelineEntryID: entry.ID.String(),
		AddedDate:       "2025-03-14",
		AddedTime:       "10:15",
	}

	in := base
	in.DispensaryID = patientID.String()
	if _, err := f.svc.SharePrescription(context.Background(), patientID, in); apperror.KindOf(err) != apperror.Validation {
		t.Errorf("cross-kind dispensary id: expected validation, got %v", err)
	}

	in = base
	in.DispensaryID = "PH99999"
	if _, err := f.svc.SharePrescription(context.Background(), patientID, in); apperror.KindOf(err) != apperror.NotFound {
		t.Errorf("unknown dispensary: expected not-found, got %v", err)
	}

	in = base
	in.TimelineEntryID = "garbage"
	if _, err := f.svc.SharePrescription(context.Background(), patientID, in); apperror.KindOf(err) != apperror.Validation {
		t.Errorf("malformed entry id: expected validation, got %v", err)
	}

	in = base
	in.TimelineEntryID = uuid.NewString()
	if _, err := f.svc.SharePrescription(context.Background(), patientID, in); apperror.KindOf(err) != apperror.NotFound {
		t.Errorf("unknown entry: expected not-found, got %v", err)
	}
}

// -- ShareReport --

func TestShareReport(t *testing.T) {
	f := newFixture(t)
	report := f.seedReport(t, patientID)

	entry, err := f.svc.ShareReport(context.Background(), patientID, ShareReportInput{
		ProviderID: providerID.String(),
		ReportID:   report.ID.String(),
		AddedDate:  "2025-03-14",
		AddedTime:  "10:15",
	})
	if err != nil {
		t.Fatalf("ShareReport: %v", err)
	}
	if entry.Kind != KindReport {
		t.Errorf("entry kind = %s, want report", entry.Kind)
	}

	plaintext, err := f.codec.Decrypt(entry.Payload)
	if err != nil {
		t.Fatalf("opening entry payload: %v", err)
	}
	var p EntryPayload
	if err := json.Unmarshal(plaintext, &p); err != nil {
		t.Fatalf("decoding entry payload: %v", err)
	}
	if p.ReportID != report.ID.String() {
		t.Errorf("payload report id = %s, want %s", p.ReportID, report.ID)
	}
	if p.Note != nil {
		t.Errorf("payload note = %v, want nil", *p.Note)
	}
}

func TestShareReportOwnership(t *testing.T) {
	f := newFixture(t)
	report := f.seedReport(t, otherPatientID)

	_, err := f.svc.ShareReport(context.Background(), patientID, ShareReportInput{
		ProviderID: providerID.String(),
		ReportID:   report.ID.String(),
		AddedDate:  "2025-03-14",
		AddedTime:  "10:15",
	})
	if apperror.KindOf(err) != apperror.Authorization {
		t.Errorf("expected authorization error for foreign report, got %v", err)
	}
}

func TestShareReportUnknownReport(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ShareReport(context.Background(), patientID, ShareReportInput{
		ProviderID: providerID.String(),
		ReportID:   uuid.NewString(),
		AddedDate:  "2025-03-14",
		AddedTime:  "10:15",
	})
	if apperror.KindOf(err) != apperror.NotFound {
		t.Errorf("expected not-found, got %v", err)
	}
}

// -- Entries --

func TestEntriesOpenInOrder(t *testing.T) {
	f := newFixture(t)
	f.seedEntry(t, KindPrescription, "first")
	f.seedEntry(t, KindNote, "second")

	views, total, err := f.svc.Entries(context.Background(), patientID, providerID.String(), 20, 0)
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if total != 2 || len(views) != 2 {
		t.Fatalf("got %d views (total %d), want 2", len(views), total)
	}
	if *views[0].Payload.Note != "first" || *views[1].Payload.Note != "second" {
		t.Errorf("entries out of order: %v, %v", views[0].Payload.Note, views[1].Payload.Note)
	}
}

func TestEntriesEmpty(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.svc.Entries(context.Background(), patientID, providerID.String(), 20, 0)
	if apperror.KindOf(err) != apperror.NotFound {
		t.Errorf("expected not-found for empty timeline, got %v", err)
	}
}

func TestEntriesAbortOnCorruptEnvelope(t *testing.T) {
	f := newFixture(t)
	f.seedEntry(t, KindNote, "fine")
	bad := f.seedEntry(t, KindNote, "about to break")
	bad.Payload = "not-hex"

	_, _, err := f.svc.Entries(context.Background(), patientID, providerID.String(), 20, 0)
	if apperror.KindOf(err) != apperror.Internal {
		t.Errorf("expected internal error when one envelope is corrupt, got %v", err)
	}
}

// -- Prescription projection --

func TestPrescriptionProjection(t *testing.T) {
	f := newFixture(t)
	entry := f.seedEntry(t, KindPrescription, "ibuprofen 200mg")

	p, err := f.svc.Prescription(context.Background(), entry.ID.String())
	if err != nil {
		t.Fatalf("Prescription: %v", err)
	}
	if p.ProviderID != providerID {
		t.Errorf("provider id = %s, want %s", p.ProviderID, providerID)
	}
	if p.Note == nil || *p.Note != "ibuprofen 200mg" {
		t.Errorf("note = %v, want ibuprofen 200mg", p.Note)
	}
}

func TestPrescriptionProjectionRejectsOtherKinds(t *testing.T) {
	f := newFixture(t)
	entry := f.seedEntry(t, KindReport, "")

	_, err := f.svc.Prescription(context.Background(), entry.ID.String())
	if apperror.KindOf(err) != apperror.Validation {
		t.Errorf("expected validation error, got %v", err)
	}

	if _, err := f.svc.Prescription(context.Background(), "garbage"); apperror.KindOf(err) != apperror.Validation {
		t.Errorf("malformed id: expected validation, got %v", err)
	}
	if _, err := f.svc.Prescription(context.Background(), uuid.NewString()); apperror.KindOf(err) != apperror.NotFound {
		t.Errorf("unknown id: expected not-found, got %v", err)
	}
}

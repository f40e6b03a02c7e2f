package timeline

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/domain/messaging"
	"github.com/carelink/carelink/internal/domain/party"
	"github.com/carelink/carelink/internal/platform/apperror"
	"github.com/carelink/carelink/internal/platform/envelope"
)

// MessageSender forwards a share into the conversation store.
// messaging.Service satisfies it.
type MessageSender interface {
	Send(ctx context.Context, sender party.ID, in messaging.SendInput) (*messaging.Message, error)
}

// Service reads timelines and links records across them: prescriptions
// into dispensary conversations, lab reports into provider timelines.
type Service struct {
	entries  EntryRepository
	reports  ReportRepository
	parties  Directory
	messages MessageSender
	codec    *envelope.Codec
}

func NewService(entries EntryRepository, reports ReportRepository, parties Directory, messages MessageSender, codec *envelope.Codec) *Service {
	return &Service{entries: entries, reports: reports, parties: parties, messages: messages, codec: codec}
}

// SharePrescriptionInput is the request body for sharing a prescription
// with a dispensary.
type SharePrescriptionInput struct {
	DispensaryID    string `json:"dispensary_id"`
	TimelineEntryID string `json:"timeline_entry_id"`
	AddedDate       string `json:"added_date"`
	AddedTime       string `json:"added_time"`
}

// SharePrescription sends a prescription reference into the caller's
// conversation with a dispensary. The entry must exist and be a
// prescription; the reference itself is sealed like any other message.
func (s *Service) SharePrescription(ctx context.Context, caller party.ID, in SharePrescriptionInput) (*messaging.Message, error) {
	if in.DispensaryID == "" || in.TimelineEntryID == "" || in.AddedDate == "" || in.AddedTime == "" {
		return nil, apperror.Validationf("dispensary_id, timeline_entry_id, added_date and added_time are required")
	}

	dispensary, err := party.ParseKind(in.DispensaryID, party.KindDispensary)
	if err != nil {
		return nil, apperror.Validationf("invalid dispensary id: %v", err)
	}
	ok, err := s.parties.Exists(ctx, dispensary)
	if err != nil {
		return nil, apperror.Internalf(err, "look up dispensary")
	}
	if !ok {
		return nil, apperror.NotFoundf("invalid dispensary")
	}

	entryID, err := uuid.Parse(in.TimelineEntryID)
	if err != nil {
		return nil, apperror.Validationf("invalid timeline entry id format")
	}
	entry, err := s.entries.GetByID(ctx, entryID)
	if err != nil {
		if apperror.KindOf(err) == apperror.NotFound {
			return nil, apperror.NotFoundf("prescription not found")
		}
		return nil, err
	}
	if entry.Kind != KindPrescription {
		return nil, apperror.Validationf("record is not a prescription")
	}

	return s.messages.Send(ctx, caller, messaging.SendInput{
		CounterpartyID: dispensary.String(),
		Payload: messaging.Payload{
			Kind:            messaging.KindPrescription,
			TimelineEntryID: entry.ID.String(),
		},
		AddedDate: in.AddedDate,
		AddedTime: in.AddedTime,
	})
}

// ShareReportInput is the request body for linking a lab report into a
// provider timeline.
type ShareReportInput struct {
	ProviderID string `json:"provider_id"`
	ReportID   string `json:"report_id"`
	AddedDate  string `json:"added_date"`
	AddedTime  string `json:"added_time"`
}

// ShareReport writes a report-kind entry onto the caller's timeline with
// the named provider. Only the report's owner may share it.
func (s *Service) ShareReport(ctx context.Context, caller party.ID, in ShareReportInput) (*Entry, error) {
	if in.ProviderID == "" || in.ReportID == "" || in.AddedDate == "" || in.AddedTime == "" {
		return nil, apperror.Validationf("provider_id, report_id, added_date and added_time are required")
	}

	provider, err := party.ParseKind(in.ProviderID, party.KindProvider)
	if err != nil {
		return nil, apperror.Validationf("invalid provider id: %v", err)
	}
	ok, err := s.parties.Exists(ctx, provider)
	if err != nil {
		return nil, apperror.Internalf(err, "look up provider")
	}
	if !ok {
		return nil, apperror.NotFoundf("invalid provider")
	}

	reportID, err := uuid.Parse(in.ReportID)
	if err != nil {
		return nil, apperror.Validationf("invalid report id format")
	}
	report, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if report.PatientID != caller {
		return nil, apperror.Authorizationf("unauthorized access to report")
	}

	sealed, err := s.seal(EntryPayload{ReportID: report.ID.String()})
	if err != nil {
		return nil, err
	}

	entry := &Entry{
		ProviderID: provider,
		PatientID:  caller,
		Kind:       KindReport,
		Sender:     caller.Kind(),
		Payload:    sealed,
		AddedDate:  in.AddedDate,
		AddedTime:  in.AddedTime,
	}
	if err := s.entries.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Entries returns the caller's timeline with one provider, opened, oldest
// first. Like conversation reads, one unopenable envelope aborts the batch.
func (s *Service) Entries(ctx context.Context, caller party.ID, providerID string, limit, offset int) ([]*EntryView, int, error) {
	provider, err := party.ParseKind(providerID, party.KindProvider)
	if err != nil {
		return nil, 0, apperror.Validationf("invalid provider id: %v", err)
	}

	entries, total, err := s.entries.ListByPair(ctx, provider, caller, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	if len(entries) == 0 {
		return nil, 0, apperror.NotFoundf("no timeline entries found")
	}

	views := make([]*EntryView, 0, len(entries))
	for _, e := range entries {
		p, err := s.open(e)
		if err != nil {
			return nil, 0, err
		}
		views = append(views, newEntryView(e, p))
	}
	return views, total, nil
}

// Prescription opens a single prescription entry and projects the fields a
// dispensary needs to fill it.
func (s *Service) Prescription(ctx context.Context, entryID string) (*Prescription, error) {
	id, err := uuid.Parse(entryID)
	if err != nil {
		return nil, apperror.Validationf("invalid timeline entry id format")
	}
	entry, err := s.entries.GetByID(ctx, id)
	if err != nil {
		if apperror.KindOf(err) == apperror.NotFound {
			return nil, apperror.NotFoundf("prescription not found")
		}
		return nil, err
	}
	if entry.Kind != KindPrescription {
		return nil, apperror.Validationf("record is not a prescription")
	}

	p, err := s.open(entry)
	if err != nil {
		return nil, err
	}
	return &Prescription{
		ID:         entry.ID,
		ProviderID: entry.ProviderID,
		Note:       p.Note,
		AddedDate:  entry.AddedDate,
		AddedTime:  entry.AddedTime,
	}, nil
}

func (s *Service) seal(p EntryPayload) (string, error) {
	plaintext, err := json.Marshal(p)
	if err != nil {
		return "", apperror.Internalf(err, "encode entry payload")
	}
	sealed, err := s.codec.Encrypt(plaintext)
	if err != nil {
		return "", apperror.Internalf(err, "seal entry payload")
	}
	return sealed, nil
}

func (s *Service) open(e *Entry) (EntryPayload, error) {
	plaintext, err := s.codec.Decrypt(e.Payload)
	if err != nil {
		return EntryPayload{}, apperror.Internalf(err, "open entry %s", e.ID)
	}
	var p EntryPayload
	if err := json.Unmarshal(plaintext, &p); err != nil {
		return EntryPayload{}, apperror.Internalf(err, "decode entry %s", e.ID)
	}
	return p, nil
}

// Package messaging carries encrypted peer-to-peer messages between
// patients and the providers, facilities, and dispensaries they talk to.
// Payloads are sealed before they reach storage and opened only when the
// conversation is read back.
package messaging

import (
	"time"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/domain/party"
	"github.com/carelink/carelink/internal/platform/apperror"
)

// PayloadKind discriminates the message payload union.
type PayloadKind string

const (
	KindChat         PayloadKind = "chat"
	KindPrescription PayloadKind = "prescription"
	KindReport       PayloadKind = "report"
)

// Payload is the plaintext body of a message. Exactly the fields for its
// Kind are set; everything else stays empty. The whole struct is JSON
// encoded and then sealed as one envelope.
type Payload struct {
	Kind            PayloadKind `json:"kind"`
	Text            string      `json:"text,omitempty"`
	TimelineEntryID string      `json:"timeline_entry_id,omitempty"`
	ReportID        string      `json:"report_id,omitempty"`
	Note            *string     `json:"note,omitempty"`
}

// Validate checks that the payload carries the fields its kind requires.
func (p Payload) Validate() error {
	switch p.Kind {
	case KindChat:
		if p.Text == "" {
			return apperror.Validationf("chat payload requires text")
		}
	case KindPrescription:
		if p.TimelineEntryID == "" {
			return apperror.Validationf("prescription payload requires timeline_entry_id")
		}
	case KindReport:
		if p.ReportID == "" {
			return apperror.Validationf("report payload requires report_id")
		}
	default:
		return apperror.Validationf("unknown payload kind %q", p.Kind)
	}
	return nil
}

// Message is a stored message. Payload holds the sealed envelope, never
// plaintext.
type Message struct {
	ID             uuid.UUID   `json:"id"`
	SenderID       party.ID    `json:"sender_id"`
	CounterpartyID party.ID    `json:"counterparty_id"`
	SenderRole     party.Kind  `json:"sender_role"`
	Kind           PayloadKind `json:"kind"`
	Payload        string      `json:"-"`
	AddedDate      string      `json:"added_date"`
	AddedTime      string      `json:"added_time"`
	CreatedAt      time.Time   `json:"created_at"`
}

// View is a message with its payload opened, as returned by conversation
// reads and pushed to live sockets.
type View struct {
	ID             uuid.UUID   `json:"id"`
	SenderID       party.ID    `json:"sender_id"`
	CounterpartyID party.ID    `json:"counterparty_id"`
	SenderRole     party.Kind  `json:"sender_role"`
	Kind           PayloadKind `json:"kind"`
	Payload        Payload     `json:"payload"`
	AddedDate      string      `json:"added_date"`
	AddedTime      string      `json:"added_time"`
	CreatedAt      time.Time   `json:"created_at"`
}

func newView(m *Message, p Payload) *View {
	return &View{
		ID:             m.ID,
		SenderID:       m.SenderID,
		CounterpartyID: m.CounterpartyID,
		SenderRole:     m.SenderRole,
		Kind:           m.Kind,
		Payload:        p,
		AddedDate:      m.AddedDate,
		AddedTime:      m.AddedTime,
		CreatedAt:      m.CreatedAt,
	}
}

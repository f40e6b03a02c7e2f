// Package timeline holds the provider-patient care timeline and the lab
// reports that can be linked into it. Entry payloads are sealed envelopes,
// same as conversation messages.
package timeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/domain/party"
)

// EntryKind classifies a timeline entry.
type EntryKind string

const (
	KindPrescription EntryKind = "prescription"
	KindReport       EntryKind = "report"
	KindNote         EntryKind = "note"
)

// Entry is one record on a provider-patient timeline. Payload holds the
// sealed envelope.
type Entry struct {
	ID         uuid.UUID  `json:"id"`
	ProviderID party.ID   `json:"provider_id"`
	PatientID  party.ID   `json:"patient_id"`
	Kind       EntryKind  `json:"kind"`
	Sender     party.Kind `json:"sender"`
	Payload    string     `json:"-"`
	AddedDate  string     `json:"added_date"`
	AddedTime  string     `json:"added_time"`
	CreatedAt  time.Time  `json:"created_at"`
}

// EntryPayload is the plaintext body of an entry. Note carries free text
// for prescriptions and notes; ReportID links a lab report into the
// timeline and leaves Note null.
type EntryPayload struct {
	Note     *string `json:"note"`
	ReportID string  `json:"report_id,omitempty"`
}

// EntryView is an entry with its payload opened.
type EntryView struct {
	ID         uuid.UUID    `json:"id"`
	ProviderID party.ID     `json:"provider_id"`
	PatientID  party.ID     `json:"patient_id"`
	Kind       EntryKind    `json:"kind"`
	Sender     party.Kind   `json:"sender"`
	Payload    EntryPayload `json:"payload"`
	AddedDate  string       `json:"added_date"`
	AddedTime  string       `json:"added_time"`
	CreatedAt  time.Time    `json:"created_at"`
}

func newEntryView(e *Entry, p EntryPayload) *EntryView {
	return &EntryView{
		ID:         e.ID,
		ProviderID: e.ProviderID,
		PatientID:  e.PatientID,
		Kind:       e.Kind,
		Sender:     e.Sender,
		Payload:    p,
		AddedDate:  e.AddedDate,
		AddedTime:  e.AddedTime,
		CreatedAt:  e.CreatedAt,
	}
}

// Report is a lab report owned by a patient and produced by a facility.
type Report struct {
	ID         uuid.UUID `json:"id"`
	FacilityID party.ID  `json:"facility_id"`
	PatientID  party.ID  `json:"patient_id"`
	Payload    string    `json:"-"`
	AddedDate  string    `json:"added_date"`
	AddedTime  string    `json:"added_time"`
	CreatedAt  time.Time `json:"created_at"`
}

// Prescription is the opened projection of a prescription entry.
type Prescription struct {
	ID         uuid.UUID `json:"id"`
	ProviderID party.ID  `json:"provider_id"`
	Note       *string   `json:"note"`
	AddedDate  string    `json:"added_date"`
	AddedTime  string    `json:"added_time"`
}

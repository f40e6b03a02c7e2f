package messaging

import (
	"context"
	"encoding/json"

	"github.com/carelink/carelink/internal/domain/party"
	"github.com/carelink/carelink/internal/platform/apperror"
	"github.com/carelink/carelink/internal/platform/envelope"
)

// Service seals, stores, and reads back conversation messages.
type Service struct {
	repo       Repository
	parties    Directory
	codec      *envelope.Codec
	dispatcher *Dispatcher
}

func NewService(repo Repository, parties Directory, codec *envelope.Codec, dispatcher *Dispatcher) *Service {
	return &Service{repo: repo, parties: parties, codec: codec, dispatcher: dispatcher}
}

// SendInput is the request body for sending a message.
type SendInput struct {
	CounterpartyID string  `json:"counterparty_id"`
	Payload        Payload `json:"payload"`
	AddedDate      string  `json:"added_date"`
	AddedTime      string  `json:"added_time"`
}

func (in SendInput) validate() error {
	if in.CounterpartyID == "" || in.AddedDate == "" || in.AddedTime == "" {
		return apperror.Validationf("counterparty_id, added_date and added_time are required")
	}
	return in.Payload.Validate()
}

// Send seals the payload, stores the message, and pushes it to any live
// sockets on the pair. A message is sent to whoever the sender names;
// no prior relationship is required.
func (s *Service) Send(ctx context.Context, sender party.ID, in SendInput) (*Message, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	counterparty, err := party.Parse(in.CounterpartyID)
	if err != nil {
		return nil, apperror.Validationf("invalid counterparty id: %v", err)
	}

	ok, err := s.parties.Exists(ctx, counterparty)
	if err != nil {
		return nil, apperror.Internalf(err, "look up counterparty")
	}
	if !ok {
		return nil, apperror.NotFoundf("invalid %s", counterparty.Kind())
	}

	plaintext, err := json.Marshal(in.Payload)
	if err != nil {
		return nil, apperror.Internalf(err, "encode payload")
	}
	sealed, err := s.codec.Encrypt(plaintext)
	if err != nil {
		return nil, apperror.Internalf(err, "seal payload")
	}

	msg := &Message{
		SenderID:       sender,
		CounterpartyID: counterparty,
		SenderRole:     sender.Kind(),
		Kind:           in.Payload.Kind,
		Payload:        sealed,
		AddedDate:      in.AddedDate,
		AddedTime:      in.AddedTime,
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, err
	}

	if s.dispatcher != nil {
		s.dispatcher.Dispatch(msg, in.Payload)
	}
	return msg, nil
}

// Conversation returns every message between the caller and the named
// counterparty, opened, oldest first. A single envelope that fails to
// open aborts the whole read rather than returning a partial history.
func (s *Service) Conversation(ctx context.Context, caller party.ID, counterpartyID string, limit, offset int) ([]*View, int, error) {
	counterparty, err := party.Parse(counterpartyID)
	if err != nil {
		return nil, 0, apperror.Validationf("invalid counterparty id: %v", err)
	}

	ok, err := s.parties.Exists(ctx, counterparty)
	if err != nil {
		return nil, 0, apperror.Internalf(err, "look up counterparty")
	}
	if !ok {
		return nil, 0, apperror.NotFoundf("invalid %s", counterparty.Kind())
	}

	messages, total, err := s.repo.ListByPair(ctx, caller, counterparty, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	if len(messages) == 0 {
		return nil, 0, apperror.NotFoundf("no messages found")
	}

	views := make([]*View, 0, len(messages))
	for _, m := range messages {
		plaintext, err := s.codec.Decrypt(m.Payload)
		if err != nil {
			return nil, 0, apperror.Internalf(err, "open message %s", m.ID)
		}
		var p Payload
		if err := json.Unmarshal(plaintext, &p); err != nil {
			return nil, 0, apperror.Internalf(err, "decode message %s", m.ID)
		}
		views = append(views, newView(m, p))
	}
	return views, total, nil
}

package relationship

import (
	"context"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/domain/party"
	"github.com/carelink/carelink/internal/platform/apperror"
)

// Manager runs the relationship-request state machine for all three
// counterparty kinds: care provider, testing facility, dispensary.
type Manager struct {
	requests      RequestRepository
	relationships RelationshipRepository
	parties       Directory
}

func NewManager(requests RequestRepository, relationships RelationshipRepository, parties Directory) *Manager {
	return &Manager{
		requests:      requests,
		relationships: relationships,
		parties:       parties,
	}
}

// CreateInput carries the fields of a new relationship request.
type CreateInput struct {
	CounterpartyID string `json:"counterparty_id"`
	AddedDate      string `json:"added_date"`
	AddedTime      string `json:"added_time"`
}

// CreateRequest records a pending request from requester toward the named
// counterparty. A second create for the same pair conflicts regardless of
// status, with distinct messages for pending and accepted.
func (m *Manager) CreateRequest(ctx context.Context, requester party.ID, in CreateInput) (*Request, error) {
	if in.CounterpartyID == "" || in.AddedDate == "" || in.AddedTime == "" {
		return nil, apperror.Validationf("required fields are missing")
	}

	counterparty, err := party.Parse(in.CounterpartyID)
	if err != nil {
		return nil, apperror.Validationf("invalid counterparty id")
	}
	if counterparty.Kind() == requester.Kind() {
		return nil, apperror.Validationf("cannot request a relationship with a %s", requester.Kind())
	}
	if requester.Kind() != party.KindPatient && counterparty.Kind() != party.KindPatient {
		return nil, apperror.Validationf("one side of a relationship must be a patient")
	}

	if exists, err := m.parties.Exists(ctx, counterparty); err != nil {
		return nil, err
	} else if !exists {
		return nil, apperror.NotFoundf("invalid %s", counterparty.Kind())
	}

	existing, err := m.requests.GetByPair(ctx, requester, counterparty)
	if err != nil && apperror.KindOf(err) != apperror.NotFound {
		return nil, err
	}
	if existing != nil {
		if existing.Status == StatusPending {
			return nil, apperror.Conflictf("request already exists")
		}
		return nil, apperror.Conflictf("%s is already connected", counterparty.Kind())
	}

	// The check above is advisory only; concurrent creators for the same
	// pair are resolved by the unique index in the store, which the repo
	// reports as a Conflict.
	req := &Request{
		RequesterID:    requester,
		CounterpartyID: counterparty,
		Status:         StatusPending,
		AddedDate:      in.AddedDate,
		AddedTime:      in.AddedTime,
	}
	if err := m.requests.Create(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// AcceptRequest transitions a pending request to accepted and materializes
// the relationship. Only the request's counterparty may accept it.
func (m *Manager) AcceptRequest(ctx context.Context, caller party.ID, requestID string) (*Relationship, error) {
	id, err := uuid.Parse(requestID)
	if err != nil {
		return nil, apperror.Validationf("invalid request id format")
	}

	req, err := m.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.CounterpartyID != caller {
		return nil, apperror.Authorizationf("request is not addressed to the caller")
	}
	if req.Status == StatusAccepted {
		return nil, apperror.Validationf("request is already accepted")
	}

	// Two separate writes: a crash after Create but before MarkAccepted
	// leaves a materialized relationship behind a still-pending request.
	// Closing the gap needs a single transaction or a reconciliation sweep.
	rel := &Relationship{PartyA: req.RequesterID, PartyB: req.CounterpartyID}
	if err := m.relationships.Create(ctx, rel); err != nil {
		return nil, err
	}
	if err := m.requests.MarkAccepted(ctx, id); err != nil {
		return nil, err
	}
	return rel, nil
}

// ListRequests returns requests involving the caller, each joined with the
// opposite party's public profile.
func (m *Manager) ListRequests(ctx context.Context, caller party.ID, limit, offset int) ([]*RequestView, int, error) {
	requests, total, err := m.requests.ListByParty(ctx, caller, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	if len(requests) == 0 {
		return nil, 0, apperror.NotFoundf("no requests found")
	}

	views := make([]*RequestView, 0, len(requests))
	for _, req := range requests {
		other := req.CounterpartyID
		if other == caller {
			other = req.RequesterID
		}
		p, err := m.parties.GetByID(ctx, other)
		if err != nil {
			// Skip requests whose counterparty profile has vanished.
			continue
		}
		views = append(views, &RequestView{Request: *req, Counterparty: p.PublicProfile()})
	}
	return views, total, nil
}

// ListRelationships returns the caller's accepted relationships joined with
// counterparty profiles, optionally filtered by counterparty kind.
func (m *Manager) ListRelationships(ctx context.Context, caller party.ID, kind party.Kind, limit, offset int) ([]*RelationshipView, int, error) {
	rels, total, err := m.relationships.ListByParty(ctx, caller, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	views := make([]*RelationshipView, 0, len(rels))
	for _, rel := range rels {
		other := rel.Other(caller)
		if kind != "" && other.Kind() != kind {
			continue
		}
		p, err := m.parties.GetByID(ctx, other)
		if err != nil {
			continue
		}
		views = append(views, &RelationshipView{
			ID:           rel.ID,
			Counterparty: p.PublicProfile(),
			CreatedAt:    rel.CreatedAt,
		})
	}
	if len(views) == 0 {
		return nil, 0, apperror.NotFoundf("no relationships found")
	}
	return views, total, nil
}

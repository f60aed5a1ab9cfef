package store

import (
	"context"
	"sync"

	"suratdesa/internal/request/models"
	id "suratdesa/pkg/domain"
	"suratdesa/pkg/sentinel"
)

// MemoryStore keeps requests in a mutex-guarded map. The compare-and-set in
// ApplyTransition gives the same stale-status semantics as the SQL
// conditional update, so workflow tests run against it directly.
type MemoryStore struct {
	mu       sync.RWMutex
	requests map[id.RequestID]*models.Request
}

func NewMemory() *MemoryStore {
	return &MemoryStore{requests: make(map[id.RequestID]*models.Request)}
}

func (s *MemoryStore) Create(_ context.Context, req *models.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.requests[req.ID]; exists {
		return sentinel.ErrConflict
	}
	s.requests[req.ID] = req.Clone()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, requestID id.RequestID) (*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return req.Clone(), nil
}

func (s *MemoryStore) ListByStatus(_ context.Context, statuses ...models.Status) ([]*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wanted := make(map[models.Status]bool, len(statuses))
	for _, st := range statuses {
		wanted[st] = true
	}
	var out []*models.Request
	for _, req := range s.requests {
		if wanted[req.Status] {
			out = append(out, req.Clone())
		}
	}
	return out, nil
}

func (s *MemoryStore) ApplyTransition(_ context.Context, requestID id.RequestID, expected models.Status, upd TransitionUpdate) (*models.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if req.Status != expected {
		return nil, sentinel.ErrStaleStatus
	}

	req.Status = upd.NextStatus
	if upd.Stamp != nil {
		stamp := *upd.Stamp
		switch upd.Stage {
		case models.StageNeighborhood:
			req.Neighborhood = &stamp
		case models.StageClerk:
			req.Clerk = &stamp
		case models.StageChief:
			req.Chief = &stamp
		}
	}
	if upd.IssuedNumber != "" {
		req.IssuedNumber = upd.IssuedNumber
	}
	if upd.RejectionReason != "" {
		req.RejectionReason = upd.RejectionReason
	}
	return req.Clone(), nil
}

package store

import (
	"context"
	"sync"

	"suratdesa/internal/citizen/models"
	id "suratdesa/pkg/domain"
	"suratdesa/pkg/sentinel"
)

// MemoryStore is an in-memory citizen registry used in tests and local runs.
type MemoryStore struct {
	mu         sync.RWMutex
	citizens   map[id.CitizenID]*models.Citizen
	households map[id.HouseholdID]*models.Household
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		citizens:   make(map[id.CitizenID]*models.Citizen),
		households: make(map[id.HouseholdID]*models.Household),
	}
}

func (s *MemoryStore) PutCitizen(c *models.Citizen) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.citizens[c.ID] = &cp
}

func (s *MemoryStore) PutHousehold(h *models.Household) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *h
	cp.Members = append([]models.HouseholdMember(nil), h.Members...)
	s.households[h.ID] = &cp
}

func (s *MemoryStore) GetCitizen(_ context.Context, citizenID id.CitizenID) (*models.Citizen, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.citizens[citizenID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *MemoryStore) GetHousehold(_ context.Context, householdID id.HouseholdID) (*models.Household, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.households[householdID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *h
	cp.Members = append([]models.HouseholdMember(nil), h.Members...)
	return &cp, nil
}

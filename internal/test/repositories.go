package test

import (
	"context"
	"sync"

	domainErrors "github.com/vusallyv/ds-practice-2025/internal/domain/errors"
	"github.com/vusallyv/ds-practice-2025/internal/domain/model"
)

// ResultRepositoryStub stores order results in-memory for tests.
type ResultRepositoryStub struct {
	SaveErr error
	GetErr  error

	mu      sync.Mutex
	results map[string]model.OrderResult
	saves   int
}

// NewResultRepositoryStub constructs an empty stub.
func NewResultRepositoryStub() *ResultRepositoryStub {
	return &ResultRepositoryStub{results: make(map[string]model.OrderResult)}
}

// Save stores result unless SaveErr is set.
func (s *ResultRepositoryStub) Save(_ context.Context, result model.OrderResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	if s.results == nil {
		s.results = make(map[string]model.OrderResult)
	}
	s.results[result.OrderID] = result
	s.saves++
	return nil
}

// Get returns a stored result or ErrNotFound.
func (s *ResultRepositoryStub) Get(_ context.Context, orderID string) (*model.OrderResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	res, ok := s.results[orderID]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return &res, nil
}

// Saves returns the number of successful saves.
func (s *ResultRepositoryStub) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// Result returns a stored result without going through Get.
func (s *ResultRepositoryStub) Result(orderID string) (model.OrderResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.results[orderID]
	return res, ok
}

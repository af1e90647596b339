package batchcall

import (
	"context"
	"errors"
	"strings"
)

// Provider is the upstream batch-calling API.
//
// Implementations perform exactly one network call per method and report failures
// as *ProviderError. They never retry.
type Provider interface {
	SubmitBatch(ctx context.Context, req SubmitRequest) (Summary, error)
	CancelBatch(ctx context.Context, batchID string) (Summary, error)
	GetBatch(ctx context.Context, batchID string) (Detail, error)
}

// Service composes validation, filtering and the provider call.
// It holds no state besides the provider and is safe for concurrent use.
type Service struct {
	provider Provider
}

func NewService(provider Provider) *Service {
	return &Service{provider: provider}
}

var errProviderNotConfigured = errors.New("batchcall: provider not configured")

// Submit validates raw, applies the templating filter and submits the batch.
// Validation failures return before the provider is called.
func (s *Service) Submit(ctx context.Context, raw []byte) (Summary, error) {
	req, err := ValidateSubmit(raw)
	if err != nil {
		return Summary{}, err
	}
	if s.provider == nil {
		return Summary{}, errProviderNotConfigured
	}
	return s.provider.SubmitBatch(ctx, FilterTemplating(req))
}

func (s *Service) Cancel(ctx context.Context, batchID string) (Summary, error) {
	if strings.TrimSpace(batchID) == "" {
		return Summary{}, ErrMissingIdentifier
	}
	if s.provider == nil {
		return Summary{}, errProviderNotConfigured
	}
	return s.provider.CancelBatch(ctx, batchID)
}

func (s *Service) Get(ctx context.Context, batchID string) (Detail, error) {
	if strings.TrimSpace(batchID) == "" {
		return Detail{}, ErrMissingIdentifier
	}
	if s.provider == nil {
		return Detail{}, errProviderNotConfigured
	}
	return s.provider.GetBatch(ctx, batchID)
}

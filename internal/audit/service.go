package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only.
type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service records who submitted and cancelled batches.
// Callers should treat audit logging as best-effort.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

const anonymousClient = "anonymous"

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Type == "" || e.BatchID == "" {
		return ErrInvalidEvent
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	if e.ActorClientID == "" {
		e.ActorClientID = anonymousClient
	}
	return s.repo.Append(ctx, e)
}

// LogSubmitted records a successful batch submission.
func (s *Service) LogSubmitted(ctx context.Context, actor Actor, batchID string, recipients int) error {
	return s.Append(ctx, Event{
		Type:           EventTypeBatchSubmitted,
		BatchID:        batchID,
		ActorClientID:  actor.ClientID,
		ActorRole:      actor.Role,
		IPAddress:      actor.IP,
		RecipientCount: recipients,
		RequestID:      actor.RequestID,
	})
}

// LogCancelled records a successful batch cancellation.
func (s *Service) LogCancelled(ctx context.Context, actor Actor, batchID string) error {
	return s.Append(ctx, Event{
		Type:          EventTypeBatchCancelled,
		BatchID:       batchID,
		ActorClientID: actor.ClientID,
		ActorRole:     actor.Role,
		IPAddress:     actor.IP,
		RequestID:     actor.RequestID,
	})
}

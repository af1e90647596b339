package audit

import (
	"context"
	"log/slog"
)

// LogRepo writes each event as one structured log line under the "audit" group.
// It is the production sink; shipping and retention belong to the log pipeline.
type LogRepo struct {
	log *slog.Logger
}

func NewLogRepo(l *slog.Logger) *LogRepo {
	if l == nil {
		l = slog.Default()
	}
	return &LogRepo{log: l}
}

func (r *LogRepo) Append(ctx context.Context, e Event) error {
	r.log.LogAttrs(ctx, slog.LevelInfo, "audit event",
		slog.Group("audit",
			slog.String("id", e.ID),
			slog.String("type", string(e.Type)),
			slog.String("batch_id", e.BatchID),
			slog.String("actor_client_id", e.ActorClientID),
			slog.String("actor_role", e.ActorRole),
			slog.String("ip_address", e.IPAddress),
			slog.Int("recipient_count", e.RecipientCount),
			slog.String("request_id", e.RequestID),
			slog.Time("created_at", e.CreatedAt),
		),
	)
	return nil
}

package httpapi

import (
	"errors"
	"io"
	"net/http"

	"call-manager/internal/audit"
	"call-manager/internal/auth"
	"call-manager/internal/batchcall"
	"call-manager/pkg/logger"

	"github.com/gin-gonic/gin"
)

// MaxSubmitBody caps the size of a submission body.
const MaxSubmitBody = 1 << 20

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: read input, call internal services, map results to the response envelope.
type Handlers struct {
	Batches *batchcall.Service

	// Audit is optional; nil disables audit events.
	Audit *audit.Service
}

// SubmitBatch handles POST /api/batch-calling/submit.
func (h Handlers) SubmitBatch(c *gin.Context) {
	if h.Batches == nil {
		fail(c, http.StatusInternalServerError, "batch service not configured")
		return
	}

	raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, MaxSubmitBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(c, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		fail(c, http.StatusBadRequest, "could not read request body")
		return
	}

	summary, err := h.Batches.Submit(c.Request.Context(), raw)
	if err != nil {
		writeError(c, err)
		return
	}

	h.recordSubmitted(c, summary, raw)
	succeed(c, summary)
}

// CancelBatch handles POST /api/batch-calling/:batchId/cancel.
func (h Handlers) CancelBatch(c *gin.Context) {
	if h.Batches == nil {
		fail(c, http.StatusInternalServerError, "batch service not configured")
		return
	}

	summary, err := h.Batches.Cancel(c.Request.Context(), c.Param("batchId"))
	if err != nil {
		writeError(c, err)
		return
	}

	if h.Audit != nil {
		if err := h.Audit.LogCancelled(c.Request.Context(), actorFrom(c), summary.ID); err != nil {
			logger.FromGin(c).Warn("audit append failed", "err", err, "batch_id", summary.ID)
		}
	}
	succeed(c, summary)
}

// GetBatch handles GET /api/batch-calling/:batchId.
func (h Handlers) GetBatch(c *gin.Context) {
	if h.Batches == nil {
		fail(c, http.StatusInternalServerError, "batch service not configured")
		return
	}

	detail, err := h.Batches.Get(c.Request.Context(), c.Param("batchId"))
	if err != nil {
		writeError(c, err)
		return
	}
	succeed(c, detail)
}

func (h Handlers) recordSubmitted(c *gin.Context, summary batchcall.Summary, raw []byte) {
	if h.Audit == nil {
		return
	}
	recipients := summary.TotalCallsScheduled
	if recipients == 0 {
		recipients = countRecipients(raw)
	}
	if err := h.Audit.LogSubmitted(c.Request.Context(), actorFrom(c), summary.ID, recipients); err != nil {
		logger.FromGin(c).Warn("audit append failed", "err", err, "batch_id", summary.ID)
	}
}

func actorFrom(c *gin.Context) audit.Actor {
	clientID, _ := auth.ClientID(c.Request.Context())
	role, _ := auth.Role(c.Request.Context())
	return audit.Actor{
		ClientID:  clientID,
		Role:      role,
		IP:        c.ClientIP(),
		RequestID: logger.RequestID(c),
	}
}

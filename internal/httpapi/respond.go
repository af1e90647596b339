package httpapi

import (
	"errors"
	"net/http"

	"call-manager/internal/batchcall"
	"call-manager/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"
)

type envelope struct {
	Success bool                  `json:"success"`
	Data    any                   `json:"data,omitempty"`
	Error   string                `json:"error,omitempty"`
	Code    batchcall.ErrorClass  `json:"code,omitempty"`
	Errors  []batchcall.Violation `json:"errors,omitempty"`
}

func succeed(c *gin.Context, data any) {
	c.JSON(http.StatusOK, envelope{Success: true, Data: data})
}

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, envelope{Success: false, Error: msg})
}

// writeError maps every error the batch service can return to a response.
func writeError(c *gin.Context, err error) {
	var verr *batchcall.ValidationError
	var perr *batchcall.ProviderError

	switch {
	case errors.As(err, &verr):
		c.AbortWithStatusJSON(http.StatusBadRequest, envelope{Success: false, Errors: verr.Violations})
	case errors.Is(err, batchcall.ErrMissingIdentifier):
		fail(c, http.StatusBadRequest, "batchId is required")
	case errors.As(err, &perr):
		status := ProviderStatus(perr)
		logger.FromGin(c).Warn("provider call failed",
			"class", perr.Class,
			"upstream_status", perr.HTTPStatus,
			"message", perr.Message,
			"status", status,
		)
		c.AbortWithStatusJSON(status, envelope{Success: false, Error: perr.Message, Code: perr.Class})
	default:
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, err.Error())
	}
}

// ProviderStatus is the HTTP status reported to callers for a provider failure.
func ProviderStatus(perr *batchcall.ProviderError) int {
	switch perr.Class {
	case batchcall.ClassUpstream:
		if perr.HTTPStatus >= 400 && perr.HTTPStatus <= 599 {
			return perr.HTTPStatus
		}
		return http.StatusBadGateway
	case batchcall.ClassConnection:
		return http.StatusBadGateway
	case batchcall.ClassTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func countRecipients(raw []byte) int {
	return int(gjson.GetBytes(raw, "recipients.#").Int())
}

package telephony

import (
	"bytes"
	"context"
	"errors"
	"net"
	"syscall"

	"github.com/tidwall/gjson"

	"call-manager/internal/batchcall"
)

// Transport failures carry a fixed message; the cause, which names the
// provider URL, stays in Err and the logs.
const (
	msgTimeout     = "provider request timed out"
	msgUnreachable = "provider unreachable"
)

// Failure is the raw outcome of a provider call that did not succeed.
// StatusCode is 0 when no response was received.
type Failure struct {
	StatusCode int
	Body       []byte
	Err        error
}

// NormalizeFailure maps a raw failure to a ProviderError. op is used as the
// message when nothing better can be extracted.
func NormalizeFailure(f Failure, op string) *batchcall.ProviderError {
	if f.StatusCode > 0 {
		return &batchcall.ProviderError{
			Class:      batchcall.ClassUpstream,
			HTTPStatus: f.StatusCode,
			Message:    extractMessage(f.Body, op),
			Op:         op,
			Err:        f.Err,
		}
	}

	perr := &batchcall.ProviderError{Class: batchcall.ClassUnknown, Message: op, Op: op, Err: f.Err}
	if f.Err == nil {
		return perr
	}
	switch {
	case isTimeout(f.Err):
		perr.Class = batchcall.ClassTimeout
		perr.Message = msgTimeout
	case isConnectionFailure(f.Err):
		perr.Class = batchcall.ClassConnection
		perr.Message = msgUnreachable
	default:
		perr.Message = f.Err.Error()
	}
	return perr
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isConnectionFailure(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

// extractMessage picks the most descriptive text from an upstream error body:
// a plain string body, then "detail", then "message", then the compacted body.
func extractMessage(body []byte, fallback string) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return fallback
	}
	if !gjson.ValidBytes(trimmed) {
		return string(trimmed)
	}

	doc := gjson.ParseBytes(trimmed)
	if doc.Type == gjson.String {
		if doc.Str == "" {
			return fallback
		}
		return doc.Str
	}
	if !doc.IsObject() {
		return doc.Raw
	}

	if d := doc.Get("detail"); truthy(d) {
		if d.Type == gjson.String {
			return d.Str
		}
		if m := d.Get("message"); d.IsObject() && m.Type == gjson.String && m.Str != "" {
			return m.Str
		}
		return gjson.Get(d.Raw, "@ugly").Raw
	}
	if m := doc.Get("message"); truthy(m) {
		if m.Type == gjson.String {
			return m.Str
		}
		return m.Raw
	}
	return gjson.GetBytes(trimmed, "@ugly").Raw
}

func truthy(r gjson.Result) bool {
	switch r.Type {
	case gjson.Null, gjson.False:
		return false
	case gjson.String:
		return r.Str != ""
	case gjson.Number:
		return r.Num != 0
	default:
		return r.Exists()
	}
}

package telephony

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"call-manager/internal/batchcall"
	"call-manager/pkg/logger"
)

const (
	DefaultBaseURL = "https://api.elevenlabs.io"
	DefaultTimeout = 30 * time.Second

	apiKeyHeader     = "xi-api-key"
	batchCallingPath = "/v1/convai/batch-calling"

	opSubmit = "submit batch"
	opCancel = "cancel batch"
	opGet    = "get batch"
)

type ElevenLabsConfig struct {
	APIKey  string
	BaseURL string

	// Timeout bounds each provider call. Zero means DefaultTimeout.
	Timeout time.Duration

	// HTTPClient is optional; tests inject one.
	HTTPClient *http.Client
}

// ElevenLabsProvider talks to the ElevenLabs ConvAI batch-calling API.
// It holds no mutable state and is safe for concurrent use.
type ElevenLabsProvider struct {
	apiKey     string
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

var _ batchcall.Provider = (*ElevenLabsProvider)(nil)

func NewElevenLabsProvider(cfg ElevenLabsConfig) *ElevenLabsProvider {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &ElevenLabsProvider{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		timeout:    timeout,
		httpClient: httpClient,
	}
}

func (p *ElevenLabsProvider) Name() string { return "elevenlabs" }

func (p *ElevenLabsProvider) SubmitBatch(ctx context.Context, req batchcall.SubmitRequest) (batchcall.Summary, error) {
	payload, err := toSubmitPayload(req)
	if err != nil {
		return batchcall.Summary{}, NormalizeFailure(Failure{Err: fmt.Errorf("encode submit payload: %w", err)}, opSubmit)
	}
	var out batchResponse
	raw, err := p.do(ctx, http.MethodPost, batchCallingPath+"/submit", payload, &out, opSubmit)
	if err != nil {
		return batchcall.Summary{}, err
	}
	return summaryOf(out, raw, opSubmit)
}

func (p *ElevenLabsProvider) CancelBatch(ctx context.Context, batchID string) (batchcall.Summary, error) {
	var out batchResponse
	path := batchCallingPath + "/" + url.PathEscape(batchID) + "/cancel"
	raw, err := p.do(ctx, http.MethodPost, path, nil, &out, opCancel)
	if err != nil {
		return batchcall.Summary{}, err
	}
	return summaryOf(out, raw, opCancel)
}

func summaryOf(out batchResponse, raw []byte, op string) (batchcall.Summary, error) {
	s, err := out.toSummary(raw)
	if err != nil {
		return batchcall.Summary{}, NormalizeFailure(Failure{Err: fmt.Errorf("decode response: %w", err)}, op)
	}
	return s, nil
}

func (p *ElevenLabsProvider) GetBatch(ctx context.Context, batchID string) (batchcall.Detail, error) {
	var out batchDetailResponse
	path := batchCallingPath + "/" + url.PathEscape(batchID)
	raw, err := p.do(ctx, http.MethodGet, path, nil, &out, opGet)
	if err != nil {
		return batchcall.Detail{}, err
	}
	detail, err := out.toDetail(raw)
	if err != nil {
		return batchcall.Detail{}, NormalizeFailure(Failure{Err: fmt.Errorf("decode response: %w", err)}, opGet)
	}
	return detail, nil
}

// do performs one authenticated call and decodes a 2xx JSON body into out. The
// raw body is returned alongside. Every failure is a *batchcall.ProviderError.
func (p *ElevenLabsProvider) do(ctx context.Context, method, path string, payload, out any, op string) ([]byte, error) {
	log := logger.From(ctx).With("provider", p.Name(), "op", op)

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, NormalizeFailure(Failure{Err: fmt.Errorf("encode request: %w", err)}, op)
		}
		body = bytes.NewReader(encoded)
		log.Debug("provider request", "method", method, "path", path, "payload", json.RawMessage(encoded))
	} else {
		log.Debug("provider request", "method", method, "path", path)
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, method, p.baseURL+path, body)
	if err != nil {
		return nil, NormalizeFailure(Failure{Err: err}, op)
	}
	req.Header.Set(apiKeyHeader, p.apiKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := p.httpClient.Do(req)
	if err != nil {
		perr := NormalizeFailure(Failure{Err: err}, op)
		log.Warn("provider call failed",
			"class", perr.Class,
			"err", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, perr
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		perr := NormalizeFailure(Failure{Err: fmt.Errorf("read response: %w", err)}, op)
		log.Warn("provider response unreadable", "class", perr.Class, "status", resp.StatusCode, "err", err)
		return nil, perr
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		perr := NormalizeFailure(Failure{StatusCode: resp.StatusCode, Body: raw}, op)
		log.Warn("provider returned error",
			"status", resp.StatusCode,
			"message", perr.Message,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, perr
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			perr := NormalizeFailure(Failure{Err: fmt.Errorf("decode response: %w", err)}, op)
			log.Warn("provider response undecodable", "status", resp.StatusCode, "err", err)
			return nil, perr
		}
	}

	log.Debug("provider response", "status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())
	return raw, nil
}

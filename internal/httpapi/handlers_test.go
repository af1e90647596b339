package httpapi

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"call-manager/internal/audit"
	"call-manager/internal/batchcall"
	"call-manager/internal/telephony"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type stubUpstream struct {
	mu sync.Mutex

	status int
	body   string
	delay  time.Duration

	calls    int
	lastPath string
	lastBody string
}

func (s *stubUpstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b, _ := io.ReadAll(r.Body)
	s.mu.Lock()
	s.calls++
	s.lastPath = r.Method + " " + r.URL.Path
	s.lastBody = string(b)
	s.mu.Unlock()
	if s.delay > 0 {
		select {
		case <-r.Context().Done():
			return
		case <-time.After(s.delay):
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(s.status)
	_, _ = io.WriteString(w, s.body)
}

func (s *stubUpstream) snapshot() (calls int, path, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls, s.lastPath, s.lastBody
}

func newTestRouter(t *testing.T, up *stubUpstream, timeout time.Duration, repo audit.Repository) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv := httptest.NewServer(up)
	t.Cleanup(srv.Close)

	provider := telephony.NewElevenLabsProvider(telephony.ElevenLabsConfig{APIKey: "k", BaseURL: srv.URL, Timeout: timeout})
	h := Handlers{Batches: batchcall.NewService(provider)}
	if repo != nil {
		h.Audit = audit.NewService(repo)
	}

	r := gin.New()
	r.Use(SecureHeaders())
	r.NoRoute(NotFound)
	g := r.Group("/api/batch-calling")
	g.POST("/submit", h.SubmitBatch)
	g.POST("/:batchId/cancel", h.CancelBatch)
	g.GET("/:batchId", h.GetBatch)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestSubmit_EndToEndEchoesSummary(t *testing.T) {
	up := &stubUpstream{status: 200, body: `{"id":"b1","status":"pending","total_calls_scheduled":1,"name":"Promo","agent_id":"a1","phone_number_id":"p1"}`}
	repo := audit.NewMemoryRepo()
	r := newTestRouter(t, up, time.Second, repo)

	w := do(r, http.MethodPost, "/api/batch-calling/submit",
		`{"call_name":"Promo","agent_id":"a1","agent_phone_line_id":"p1","recipients":[{"phone_number":"+15550001111"}]}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := w.Body.String()
	assert.True(t, gjson.Get(body, "success").Bool())
	assert.JSONEq(t, `{"id":"b1","status":"pending","total_calls_scheduled":1,"name":"Promo","agent_id":"a1","phone_line_id":"p1"}`,
		gjson.Get(body, "data").Raw)

	_, path, sent := up.snapshot()
	assert.Equal(t, "POST /v1/convai/batch-calling/submit", path)
	assert.Equal(t, "p1", gjson.Get(sent, "agent_phone_number_id").String())
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	evs := repo.ForBatch("b1")
	require.Len(t, evs, 1)
	assert.Equal(t, audit.EventTypeBatchSubmitted, evs[0].Type)
	assert.Equal(t, 1, evs[0].RecipientCount)
}

func TestSubmit_SummaryNullsAndExtrasEchoed(t *testing.T) {
	up := &stubUpstream{status: 200, body: `{"id":"b1","status":"pending","total_calls_scheduled":1,"scheduled_time_unix":null,"retry_count":2}`}
	r := newTestRouter(t, up, time.Second, nil)

	w := do(r, http.MethodPost, "/api/batch-calling/submit",
		`{"call_name":"Promo","agent_id":"a1","agent_phone_line_id":"p1","recipients":[{"phone_number":"+15550001111"}]}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"id":"b1","status":"pending","total_calls_scheduled":1,"scheduled_time_unix":null,"retry_count":2}`,
		gjson.Get(w.Body.String(), "data").Raw)
}

func TestSubmit_RepeatedKeysNeverReachProvider(t *testing.T) {
	up := &stubUpstream{status: 200, body: `{"id":"b1"}`}
	r := newTestRouter(t, up, time.Second, nil)

	w := do(r, http.MethodPost, "/api/batch-calling/submit",
		`{"call_name":"Promo","agent_id":"a1","agent_phone_line_id":"p1","recipients":[{"phone_number":"+1"}],"recipients":[],"call_name":""}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, gjson.Get(w.Body.String(), "success").Bool())
	calls, _, _ := up.snapshot()
	assert.Zero(t, calls)
}

func TestSubmit_ValidationFailure(t *testing.T) {
	up := &stubUpstream{status: 200, body: `{}`}
	r := newTestRouter(t, up, time.Second, nil)

	w := do(r, http.MethodPost, "/api/batch-calling/submit", `{"agent_id":"a1","recipients":[]}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := w.Body.String()
	assert.False(t, gjson.Get(body, "success").Bool())
	var fields []string
	for _, f := range gjson.Get(body, "errors.#.field").Array() {
		fields = append(fields, f.String())
	}
	assert.Equal(t, []string{"call_name", "agent_phone_line_id", "recipients"}, fields)
	calls, _, _ := up.snapshot()
	assert.Zero(t, calls)
}

func TestSubmit_BodyTooLarge(t *testing.T) {
	up := &stubUpstream{status: 200, body: `{}`}
	r := newTestRouter(t, up, time.Second, nil)

	big := `{"call_name":"` + strings.Repeat("x", MaxSubmitBody) + `"}`
	w := do(r, http.MethodPost, "/api/batch-calling/submit", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestCancel_UpstreamErrorMirrorsStatus(t *testing.T) {
	up := &stubUpstream{status: 400, body: `{"message":"invalid batch"}`}
	repo := audit.NewMemoryRepo()
	r := newTestRouter(t, up, time.Second, repo)

	w := do(r, http.MethodPost, "/api/batch-calling/unknown/cancel", "")

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := w.Body.String()
	assert.Equal(t, "invalid batch", gjson.Get(body, "error").String())
	assert.Equal(t, "upstream_error", gjson.Get(body, "code").String())
	assert.Empty(t, repo.Events())
}

func TestCancel_BlankIDIsMissingIdentifier(t *testing.T) {
	up := &stubUpstream{status: 200, body: `{}`}
	r := newTestRouter(t, up, time.Second, nil)

	w := do(r, http.MethodPost, "/api/batch-calling/%20/cancel", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "batchId is required", gjson.Get(w.Body.String(), "error").String())
	calls, _, _ := up.snapshot()
	assert.Zero(t, calls)
}

func TestGet_TimeoutIs504(t *testing.T) {
	up := &stubUpstream{status: 200, body: `{}`, delay: 2 * time.Second}
	r := newTestRouter(t, up, 50*time.Millisecond, nil)

	w := do(r, http.MethodGet, "/api/batch-calling/b1", "")
	require.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Equal(t, "timeout_error", gjson.Get(w.Body.String(), "code").String())
	assert.Equal(t, "provider request timed out", gjson.Get(w.Body.String(), "error").String())
}

func TestGet_ReturnsDetail(t *testing.T) {
	up := &stubUpstream{status: 200, body: `{"id":"b1","status":"completed","recipients":[{"id":"r1","phone_number":"+1","status":"completed"}]}`}
	r := newTestRouter(t, up, time.Second, nil)

	w := do(r, http.MethodGet, "/api/batch-calling/b1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"b1","status":"completed","recipients":[
		{"id":"r1","phone_number":"+1","status":"completed","created_at_unix":0,"updated_at_unix":0}]}`,
		gjson.Get(w.Body.String(), "data").Raw)
}

func TestNotFound(t *testing.T) {
	r := newTestRouter(t, &stubUpstream{status: 200}, time.Second, nil)

	w := do(r, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, `{"success":false,"error":"route not found"}`, w.Body.String())
}

func TestProviderStatus(t *testing.T) {
	cases := []struct {
		perr batchcall.ProviderError
		want int
	}{
		{batchcall.ProviderError{Class: batchcall.ClassUpstream, HTTPStatus: 404}, 404},
		{batchcall.ProviderError{Class: batchcall.ClassUpstream, HTTPStatus: 503}, 503},
		{batchcall.ProviderError{Class: batchcall.ClassUpstream, HTTPStatus: 302}, 502},
		{batchcall.ProviderError{Class: batchcall.ClassConnection}, 502},
		{batchcall.ProviderError{Class: batchcall.ClassTimeout}, 504},
		{batchcall.ProviderError{Class: batchcall.ClassUnknown}, 500},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ProviderStatus(&tc.perr), "%s/%d", tc.perr.Class, tc.perr.HTTPStatus)
	}
}

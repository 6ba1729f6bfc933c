package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cv-navigator/internal/api/jobsources"
	"cv-navigator/internal/models"
	"cv-navigator/internal/recorder"
	"cv-navigator/internal/storage/memory"
	"cv-navigator/internal/tracker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeSearcher struct {
	jobs      []models.JobListing
	googleErr error
	last      models.SearchParams
}

func (f *fakeSearcher) SearchAllSources(_ context.Context, p models.SearchParams) []models.JobListing {
	f.last = p
	return f.jobs
}

func (f *fakeSearcher) SearchGoogle(_ context.Context, p models.SearchParams) ([]models.JobListing, error) {
	f.last = p
	if f.googleErr != nil {
		return nil, f.googleErr
	}
	return f.jobs, nil
}

func (f *fakeSearcher) SearchMock(_ context.Context, p models.SearchParams) []models.JobListing {
	f.last = p
	return jobsources.NewMock().Listings()
}

func (f *fakeSearcher) Sources() []string {
	return []string{jobsources.SourceRemoteOK, jobsources.SourceMock}
}

type testServer struct {
	server   *Server
	search   *fakeSearcher
	tracker  *tracker.Tracker
	recorder *recorder.Recorder
}

func newTestServer(t *testing.T, opts Options) testServer {
	t.Helper()
	log := zaptest.NewLogger(t)

	store := memory.New(log)
	t.Cleanup(func() { _ = store.Close() })

	tr := tracker.New(store, log)
	backend := recorder.NewSimulatedBackend(0, 0, log,
		recorder.WithRand(rand.New(rand.NewPCG(1, 2))),
		recorder.WithSleep(func(ctx context.Context, _ time.Duration) error { return ctx.Err() }),
	)
	rec := recorder.New(tr, backend, rand.New(rand.NewPCG(3, 4)), log)
	search := &fakeSearcher{}

	return testServer{
		server:   New(search, rec, tr, opts, log),
		search:   search,
		tracker:  tr,
		recorder: rec,
	}
}

func (ts testServer) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, Options{})

	w := ts.do(t, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), jobsources.SourceRemoteOK)
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthPingsStorage(t *testing.T) {
	var down bool
	ts := newTestServer(t, Options{Storage: pingerFunc(func(context.Context) error {
		if down {
			return errors.New("connection refused")
		}
		return nil
	})})

	w := ts.do(t, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	down = true
	w = ts.do(t, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "unavailable")
}

func TestSearchJobs(t *testing.T) {
	ts := newTestServer(t, Options{})
	ts.search.jobs = []models.JobListing{{ID: "a", Title: "Go Developer"}}

	w := ts.do(t, http.MethodGet, "/api/jobs/search?query=golang&location=Pune&remote=true&salaryMin=1200000&jobType=Full-time", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	res := decode[jobsResponse](t, w)
	assert.Equal(t, 1, res.Count)
	assert.Equal(t, "golang", ts.search.last.Query)
	assert.Equal(t, "Pune", ts.search.last.Location)
	assert.True(t, ts.search.last.Remote)
	assert.Equal(t, 1200000.0, ts.search.last.SalaryMin)

	w = ts.do(t, http.MethodGet, "/api/jobs/search?query=%20", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "missing_query", decode[errorResponse](t, w).Error)

	w = ts.do(t, http.MethodGet, "/api/jobs/search?query=go&salaryMin=lots", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodGet, "/api/jobs/search?query=go&experienceLevel=guru", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[errorResponse](t, w).Message, "experienceLevel")

	for _, level := range []string{"Senior", "all", "entry"} {
		w = ts.do(t, http.MethodGet, "/api/jobs/search?query=go&experienceLevel="+level, "")
		assert.Equal(t, http.StatusOK, w.Code, level)
	}
}

func TestSearchReturnsEmptyArray(t *testing.T) {
	ts := newTestServer(t, Options{})

	w := ts.do(t, http.MethodGet, "/api/jobs/search?query=nothing", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"jobs":[],"count":0}`, w.Body.String())
}

func TestSearchGoogleErrors(t *testing.T) {
	ts := newTestServer(t, Options{})

	ts.search.googleErr = fmt.Errorf("page 1: %w", jobsources.ErrInvalidSearchEngineID)
	w := ts.do(t, http.MethodGet, "/api/jobs/google?query=go", "")
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "invalid_search_engine_id", decode[errorResponse](t, w).Error)

	ts.search.googleErr = fmt.Errorf("boom")
	w = ts.do(t, http.MethodGet, "/api/jobs/google?query=go", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestSearchMockNeedsNoQuery(t *testing.T) {
	ts := newTestServer(t, Options{})

	w := ts.do(t, http.MethodGet, "/api/jobs/mock", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 8, decode[jobsResponse](t, w).Count)
}

func TestApplyFlow(t *testing.T) {
	ts := newTestServer(t, Options{})

	job := `{"id":"mock-1","title":"Backend Engineer","company":"Acme","source":"Mock","skills":["Go"],"canAutoApply":true}`

	w := ts.do(t, http.MethodPost, "/api/applications/apply", job)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[models.ApplyResult](t, w)
	assert.False(t, res.Success, "no CV yet")

	w = ts.do(t, http.MethodGet, "/api/cv", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodPut, "/api/cv", `{"name":"Asha Rao","skills":["Go","SQL"]}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodPost, "/api/applications/apply", job)
	require.Equal(t, http.StatusOK, w.Code)
	res = decode[models.ApplyResult](t, w)
	assert.True(t, res.Success)
	require.NotEmpty(t, res.ApplicationID)

	w = ts.do(t, http.MethodGet, "/api/applications", "")
	require.Equal(t, http.StatusOK, w.Code)
	apps := decode[[]models.Application](t, w)
	require.Len(t, apps, 1)
	assert.Equal(t, models.StatusApplied, apps[0].Status)

	w = ts.do(t, http.MethodPatch, "/api/applications/"+res.ApplicationID+"/status", `{"status":"interview"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.StatusInterview, decode[models.Application](t, w).Status)

	w = ts.do(t, http.MethodPatch, "/api/applications/"+res.ApplicationID+"/status", `{"status":"Applied"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = ts.do(t, http.MethodPatch, "/api/applications/"+res.ApplicationID+"/status", `{"status":"ghosted"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, "/api/applications/"+res.ApplicationID+"/refresh", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodGet, "/api/applications/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[tracker.Stats](t, w).Total)

	w = ts.do(t, http.MethodDelete, "/api/applications/"+res.ApplicationID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = ts.do(t, http.MethodDelete, "/api/applications/"+res.ApplicationID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodPost, "/api/applications/missing/refresh", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodDelete, "/api/applications", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = ts.do(t, http.MethodDelete, "/api/cv", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestApplyValidation(t *testing.T) {
	ts := newTestServer(t, Options{})

	w := ts.do(t, http.MethodPost, "/api/applications/apply", `{"title":"no id"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, "/api/applications/apply", `{`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPut, "/api/cv", `{"skills":["Go"]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFormatSalary(t *testing.T) {
	ts := newTestServer(t, Options{})

	w := ts.do(t, http.MethodGet, "/api/salary/format?min=1500000&max=2500000", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "₹15.00 L - ₹25.00 L per year")

	w = ts.do(t, http.MethodGet, "/api/salary/format", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodGet, "/api/salary/format?min=-1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t, Options{RateLimitPerMinute: 2})

	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/api/health", "").Code)
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/api/health", "").Code)

	w := ts.do(t, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "rate_limited", decode[errorResponse](t, w).Error)
}

func TestCORS(t *testing.T) {
	ts := newTestServer(t, Options{CORSOrigins: []string{"https://app.example.com"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/applications", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	w := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(w, req)

	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestEventsStream(t *testing.T) {
	ts := newTestServer(t, Options{})
	srv := httptest.NewServer(ts.server.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	lines := bufio.NewScanner(resp.Body)
	waitEvent := func(name string) string {
		t.Helper()
		for lines.Scan() {
			line := lines.Text()
			if strings.HasPrefix(line, "event:") && strings.TrimSpace(strings.TrimPrefix(line, "event:")) == name {
				require.True(t, lines.Scan())
				return lines.Text()
			}
		}
		t.Fatalf("stream ended before %q event: %v", name, lines.Err())
		return ""
	}

	waitEvent("ready")

	_, err = ts.tracker.Record(ctx, models.Application{JobID: "mock-1"})
	require.NoError(t, err)

	data := waitEvent("change")
	assert.Contains(t, data, `"key":"applications"`)
	assert.Contains(t, data, `"op":"set"`)
}

package aggregator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"cv-navigator/internal/api/jobsources"
	"cv-navigator/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeSource struct {
	name    string
	jobs    []models.JobListing
	err     error
	noCreds bool
	block   bool
	calls   atomic.Int32
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) HasCredentials() bool { return !f.noCreds }

func (f *fakeSource) Search(ctx context.Context, _ jobsources.Query) ([]models.JobListing, error) {
	f.calls.Add(1)
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.jobs, f.err
}

func job(title, company, posted string) models.JobListing {
	return models.JobListing{Title: title, Company: company, PostedDate: posted, Source: "Fake"}
}

func salary(lo, hi float64, cur string, period models.SalaryPeriod) *models.Salary {
	s := &models.Salary{Currency: cur, Period: period}
	if lo > 0 {
		s.Min = &lo
	}
	if hi > 0 {
		s.Max = &hi
	}
	return s
}

func newAggregator(t *testing.T, src Sources, opts Options) *Aggregator {
	if opts.SourceTimeout == 0 {
		opts.SourceTimeout = 2 * time.Second
	}
	return New(src, opts, zaptest.NewLogger(t))
}

func TestSearchAllSourcesDedupKeepsFirstAdapter(t *testing.T) {
	adzuna := &fakeSource{name: "Adzuna", jobs: []models.JobListing{
		{Title: "Go Developer", Company: "Acme", PostedDate: "2024-05-01T00:00:00Z", Source: "Adzuna", SourceID: "a1"},
	}}
	remote := &fakeSource{name: "RemoteOK", jobs: []models.JobListing{
		{Title: " go developer ", Company: "ACME", PostedDate: "2024-05-03T00:00:00Z", Source: "RemoteOK", SourceID: "r1"},
		{Title: "Rust Developer", Company: "Ferrous", PostedDate: "2024-05-02T00:00:00Z", Source: "RemoteOK", SourceID: "r2"},
	}}

	agg := newAggregator(t, Sources{Adzuna: adzuna, RemoteOK: remote}, Options{})
	got := agg.SearchAllSources(context.Background(), models.SearchParams{Query: "developer"})

	require.Len(t, got, 2)
	assert.Equal(t, "Rust Developer", got[0].Title, "newer listing first")
	assert.Equal(t, "adzuna:a1", got[1].ID, "duplicate keeps the earlier adapter's copy")

	ids := map[string]bool{}
	for _, j := range got {
		assert.False(t, ids[j.ID], "ids are unique")
		ids[j.ID] = true
	}
}

func TestSearchAllSourcesNewestFirst(t *testing.T) {
	d1 := "2024-03-01T00:00:00Z"
	d2 := "2024-03-05T00:00:00Z"

	src := &fakeSource{name: "Reed", jobs: []models.JobListing{
		job("Older", "A", d1),
		job("Undated", "C", "not a date"),
		job("Newer", "B", d2),
	}}

	agg := newAggregator(t, Sources{Reed: src}, Options{})
	got := agg.SearchAllSources(context.Background(), models.SearchParams{Query: "x"})

	require.Len(t, got, 3)
	assert.Equal(t, "Undated", got[0].Title, "unparseable dates are stamped with now")
	assert.Equal(t, "Newer", got[1].Title)
	assert.Equal(t, "Older", got[2].Title)
}

func TestEligibility(t *testing.T) {
	cases := []struct {
		name       string
		params     models.SearchParams
		wantRemote bool
	}{
		{"no location", models.SearchParams{Query: "go"}, true},
		{"remote location", models.SearchParams{Query: "go", Location: "Remote, India"}, true},
		{"remote flag", models.SearchParams{Query: "go", Location: "Pune", Remote: true}, true},
		{"city only", models.SearchParams{Query: "go", Location: "Pune"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			adzuna := &fakeSource{name: "Adzuna", noCreds: true}
			remote := &fakeSource{name: "RemoteOK"}
			reed := &fakeSource{name: "Reed"}
			google := &fakeSource{name: "Google Search"}

			agg := newAggregator(t, Sources{Adzuna: adzuna, RemoteOK: remote, Reed: reed, Google: google}, Options{})
			agg.SearchAllSources(context.Background(), tc.params)

			assert.Zero(t, adzuna.calls.Load(), "adzuna without credentials is skipped")
			assert.Equal(t, tc.wantRemote, remote.calls.Load() == 1)
			assert.EqualValues(t, 1, reed.calls.Load())
			assert.EqualValues(t, 1, google.calls.Load())
		})
	}
}

func TestSearchAllSourcesSurvivesGoogle500(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	log := zaptest.NewLogger(t)
	google := jobsources.NewGoogle(jobsources.NewClient(time.Second, log),
		jobsources.GoogleConfig{APIKey: "k", EngineID: "cx", BaseURL: srv.URL, MaxResults: 10}, log)

	other := &fakeSource{name: "Reed", jobs: []models.JobListing{job("Go Developer", "Acme", "2024-01-01")}}

	agg := newAggregator(t, Sources{Reed: other, Google: google}, Options{})
	got := agg.SearchAllSources(context.Background(), models.SearchParams{Query: "go"})
	require.Len(t, got, 1)
	assert.Equal(t, "Acme", got[0].Company)

	agg = newAggregator(t, Sources{Google: google}, Options{})
	got = agg.SearchAllSources(context.Background(), models.SearchParams{Query: "go"})
	assert.Empty(t, got)
}

func TestInvalidSearchEngineID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"code":400, "message":"Invalid Value for ... invalid argument"}}`))
	}))
	defer srv.Close()

	log := zaptest.NewLogger(t)
	google := jobsources.NewGoogle(jobsources.NewClient(time.Second, log),
		jobsources.GoogleConfig{APIKey: "k", EngineID: "bad", BaseURL: srv.URL}, log)
	other := &fakeSource{name: "Reed", jobs: []models.JobListing{job("Go Developer", "Acme", "2024-01-01")}}

	agg := newAggregator(t, Sources{Reed: other, Google: google}, Options{})

	got := agg.SearchAllSources(context.Background(), models.SearchParams{Query: "go"})
	assert.Len(t, got, 1, "aggregate call turns the config error into an empty contribution")

	_, err := agg.SearchGoogle(context.Background(), models.SearchParams{Query: "go"})
	assert.ErrorIs(t, err, jobsources.ErrInvalidSearchEngineID)
}

func TestSlowSourceTimesOut(t *testing.T) {
	slow := &fakeSource{name: "Google Search", block: true}
	fast := &fakeSource{name: "Reed", jobs: []models.JobListing{job("Go Developer", "Acme", "2024-01-01")}}

	agg := newAggregator(t, Sources{Reed: fast, Google: slow}, Options{SourceTimeout: 50 * time.Millisecond})

	start := time.Now()
	got := agg.SearchAllSources(context.Background(), models.SearchParams{Query: "go"})
	assert.Less(t, time.Since(start), time.Second)
	assert.Len(t, got, 1)
}

func TestFailingSourceContributesNothing(t *testing.T) {
	broken := &fakeSource{name: "Reed", err: assert.AnError, jobs: []models.JobListing{job("Ghost", "X", "")}}
	agg := newAggregator(t, Sources{Reed: broken}, Options{})
	assert.Empty(t, agg.SearchAllSources(context.Background(), models.SearchParams{Query: "go"}))
}

func TestMockFallback(t *testing.T) {
	empty := &fakeSource{name: "Google Search"}
	mock := jobsources.NewMock()

	agg := newAggregator(t, Sources{Google: empty, Mock: mock}, Options{})
	assert.Empty(t, agg.SearchAllSources(context.Background(), models.SearchParams{Query: "go"}))
	assert.NotContains(t, agg.Sources(), "Mock")

	agg = newAggregator(t, Sources{Google: empty, Mock: mock}, Options{MockFallback: true})
	got := agg.SearchAllSources(context.Background(), models.SearchParams{Query: "python"})
	assert.NotEmpty(t, got)
	assert.Contains(t, agg.Sources(), "Mock")

	got = agg.SearchMock(context.Background(), models.SearchParams{Query: "python", JobType: "Contract"})
	require.Len(t, got, 1)
	assert.Equal(t, "Toptal", got[0].Company)
}

package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/AngelCh415/threads-insights/internal/ingest"
	"github.com/AngelCh415/threads-insights/internal/insight"
	"github.com/AngelCh415/threads-insights/internal/models"
	"github.com/AngelCh415/threads-insights/internal/report"
	"github.com/AngelCh415/threads-insights/internal/store"
	"github.com/AngelCh415/threads-insights/internal/telemetry"
)

var tokyo = time.FixedZone("JST", 9*60*60)

func newTestRouter(t *testing.T) (http.Handler, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore(tokyo)
	st.UpsertSnapshot(models.DailySnapshot{Date: models.NewDate(2025, 10, 31), FollowerCount: 100})
	st.UpsertSnapshot(models.DailySnapshot{Date: models.NewDate(2025, 11, 1), FollowerCount: 110})
	st.UpsertPost(models.PostRecord{ID: "p1", PublishedAt: time.Date(2025, 11, 1, 19, 0, 0, 0, tokyo), Impressions: 12000, Likes: 240, Content: "【hook】\nbody"})

	reg := prometheus.NewRegistry()
	gen := report.NewGenerator(st, st, zerolog.Nop(), report.Options{
		Location:         tokyo,
		Policy:           insight.DefaultPolicy(),
		ConversionSource: "Threads",
		Recorder:         telemetry.NewMetrics(reg),
	})
	return NewRouter(Deps{Log: zerolog.Nop(), Reports: gen, Gatherer: reg}), st
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestGenerateGetAndList(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(h, http.MethodPost, "/reports/generate", `{"type":"monthly","year":2025,"month":11}`)
	if rec.Code != 200 {
		t.Fatalf("generate status = %d body = %s", rec.Code, rec.Body.String())
	}
	var gen struct {
		ReportID string        `json:"reportId"`
		Report   models.Report `json:"report"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &gen); err != nil {
		t.Fatal(err)
	}
	if gen.ReportID != "monthly-2025-11" || gen.Report.Summary.TotalPosts != 1 || gen.Report.Summary.WinnerCount != 1 {
		t.Fatalf("generated = %+v", gen.Report.Summary)
	}

	rec = do(h, http.MethodGet, "/reports/monthly-2025-11", "")
	if rec.Code != 200 || !strings.Contains(rec.Body.String(), `"reportId": "monthly-2025-11"`) {
		t.Fatalf("get status = %d body = %s", rec.Code, rec.Body.String())
	}

	do(h, http.MethodPost, "/reports/generate", `{"type":"daily","date":"2025-11-01"}`)
	rec = do(h, http.MethodGet, "/reports?limit=1&offset=1", "")
	var list struct {
		Reports []models.ReportMeta `json:"reports"`
		Total   int                 `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if list.Total != 2 || len(list.Reports) != 1 || list.Reports[0].ReportID != "monthly-2025-11" {
		t.Fatalf("list = %+v", list)
	}

	rec = do(h, http.MethodGet, "/metrics", "")
	if !strings.Contains(rec.Body.String(), `threads_insights_report_generations_total{outcome="ok"} 2`) {
		t.Fatalf("metrics = %s", rec.Body.String())
	}
}

func TestGetMissingReport(t *testing.T) {
	h, _ := newTestRouter(t)
	if rec := do(h, http.MethodGet, "/reports/monthly-1999-01", ""); rec.Code != 404 {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestGenerateRejectsBadInput(t *testing.T) {
	h, _ := newTestRouter(t)
	for name, body := range map[string]string{
		"not json":       `{`,
		"unknown type":   `{"type":"weekly"}`,
		"bad month":      `{"type":"monthly","year":2025,"month":13}`,
		"bad date":       `{"type":"daily","date":"11/01/2025"}`,
		"custom no id":   `{"type":"custom","start":"2025-11-01","end":"2025-11-03"}`,
		"custom inverse": `{"type":"custom","id":"x","start":"2025-11-05","end":"2025-11-03"}`,
	} {
		t.Run(name, func(t *testing.T) {
			if rec := do(h, http.MethodPost, "/reports/generate", body); rec.Code != 400 {
				t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
			}
		})
	}
}

type failingReports struct{}

func (failingReports) Generate(context.Context, models.Period) (models.Report, error) {
	return models.Report{}, errors.New("list posts: connection refused")
}

func (failingReports) Get(context.Context, string) (models.Report, error) {
	return models.Report{}, report.ErrNotFound
}

func (failingReports) List(context.Context) ([]models.ReportMeta, error) { return nil, nil }

func TestGenerateUpstreamFailure(t *testing.T) {
	h := NewRouter(Deps{Log: zerolog.Nop(), Reports: failingReports{}})
	if rec := do(h, http.MethodPost, "/reports/generate", `{"type":"daily","date":"2025-11-01"}`); rec.Code != 502 {
		t.Fatalf("status = %d", rec.Code)
	}
}

type stubIngest struct {
	since *models.Date
	err   error
}

func (s *stubIngest) Run(_ context.Context, since *models.Date) (ingest.Stats, error) {
	s.since = since
	return ingest.Stats{Posts: 3}, s.err
}

type downDB struct{}

func (downDB) Ping(context.Context) error { return errors.New("down") }

func TestIngestAndReadiness(t *testing.T) {
	ing := &stubIngest{}
	h := NewRouter(Deps{Log: zerolog.Nop(), Reports: failingReports{}, Ingest: ing, DB: downDB{}})

	rec := do(h, http.MethodPost, "/ingest/run?since=2025-11-01", "")
	if rec.Code != 200 || ing.since == nil || *ing.since != models.NewDate(2025, 11, 1) {
		t.Fatalf("status = %d since = %v", rec.Code, ing.since)
	}
	if rec := do(h, http.MethodPost, "/ingest/run?since=yesterday", ""); rec.Code != 400 {
		t.Fatalf("bad since status = %d", rec.Code)
	}
	ing.err = errors.New("upstream 503")
	if rec := do(h, http.MethodPost, "/ingest/run", ""); rec.Code != 502 {
		t.Fatalf("failed ingest status = %d", rec.Code)
	}
	if rec := do(h, http.MethodGet, "/readyz", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz status = %d", rec.Code)
	}
	if rec := do(h, http.MethodGet, "/healthz", ""); rec.Code != 200 {
		t.Fatalf("healthz status = %d", rec.Code)
	}
}

func TestPaginate(t *testing.T) {
	rows := []int{1, 2, 3, 4, 5}
	cases := []struct {
		limit, offset int
		want          []int
	}{
		{2, 0, []int{1, 2}},
		{2, 4, []int{5}},
		{0, 0, []int{1, 2, 3, 4, 5}},
		{3, 9, []int{}},
		{2, -3, []int{1, 2}},
	}
	for _, c := range cases {
		l, o := clampLimitOffset(c.limit, c.offset, len(rows))
		got := paginate(rows, l, o)
		if len(got) != len(c.want) {
			t.Fatalf("limit=%d offset=%d got %v want %v", c.limit, c.offset, got, c.want)
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Fatalf("limit=%d offset=%d got %v want %v", c.limit, c.offset, got, c.want)
			}
		}
	}
}

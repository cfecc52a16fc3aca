package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/AngelCh415/threads-insights/internal/ingest"
	"github.com/AngelCh415/threads-insights/internal/models"
	"github.com/AngelCh415/threads-insights/internal/report"
	"github.com/AngelCh415/threads-insights/internal/utils"
)

type Reports interface {
	Generate(ctx context.Context, p models.Period) (models.Report, error)
	Get(ctx context.Context, periodID string) (models.Report, error)
	List(ctx context.Context) ([]models.ReportMeta, error)
}

type Ingester interface {
	Run(ctx context.Context, since *models.Date) (ingest.Stats, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the router serves. Ingest and DB are optional.
type Deps struct {
	Log      zerolog.Logger
	Reports  Reports
	Ingest   Ingester
	DB       Pinger
	Gatherer prometheus.Gatherer
}

func NewRouter(d Deps) http.Handler {
	mux := chi.NewRouter()
	mux.Use(utils.RequestID)
	mux.Use(utils.Logger(d.Log))

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
	mux.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.DB != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := d.DB.Ping(ctx); err != nil {
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(200)
		w.Write([]byte("ready"))
	})
	if d.Gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	if d.Ingest != nil {
		mux.Post("/ingest/run", func(w http.ResponseWriter, r *http.Request) {
			var since *models.Date
			if q := r.URL.Query().Get("since"); q != "" {
				day, err := models.ParseDate(q)
				if err != nil {
					http.Error(w, "bad since (YYYY-MM-DD)", 400)
					return
				}
				since = &day
			}
			stats, err := d.Ingest.Run(r.Context(), since)
			if err != nil {
				http.Error(w, err.Error(), 502)
				return
			}
			writeJSON(w, 200, stats)
		})
	}

	mux.Route("/reports", func(rt chi.Router) {
		rt.Post("/generate", func(w http.ResponseWriter, r *http.Request) {
			var req generateRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "bad json body", 400)
				return
			}
			p, err := req.period()
			if err != nil {
				http.Error(w, err.Error(), 400)
				return
			}
			rep, err := d.Reports.Generate(r.Context(), p)
			switch {
			case errors.Is(err, report.ErrInvalidPeriod):
				http.Error(w, err.Error(), 400)
				return
			case err != nil:
				d.Log.Error().Err(err).Str("rid", utils.RID(r.Context())).Str("report_id", p.ID).Msg("generate failed")
				http.Error(w, "report generation failed", 502)
				return
			}
			writeJSON(w, 200, map[string]any{"reportId": rep.ReportID, "report": rep})
		})

		rt.Get("/", func(w http.ResponseWriter, r *http.Request) {
			metas, err := d.Reports.List(r.Context())
			if err != nil {
				http.Error(w, err.Error(), 500)
				return
			}
			q := r.URL.Query()
			limit, offset := clampLimitOffset(atoiDef(q.Get("limit"), 50), atoiDef(q.Get("offset"), 0), len(metas))
			writeJSON(w, 200, map[string]any{
				"reports": paginate(metas, limit, offset),
				"total":   len(metas),
			})
		})

		rt.Get("/{reportID}", func(w http.ResponseWriter, r *http.Request) {
			rep, err := d.Reports.Get(r.Context(), chi.URLParam(r, "reportID"))
			if errors.Is(err, report.ErrNotFound) {
				http.Error(w, "report not found", 404)
				return
			}
			if err != nil {
				http.Error(w, err.Error(), 500)
				return
			}
			writeJSON(w, 200, map[string]any{"report": rep})
		})
	})

	return mux
}

type generateRequest struct {
	Type  string `json:"type"`
	Year  int    `json:"year"`
	Month int    `json:"month"`
	Date  string `json:"date"`
	ID    string `json:"id"`
	Start string `json:"start"`
	End   string `json:"end"`
}

func (g generateRequest) period() (models.Period, error) {
	switch strings.ToLower(g.Type) {
	case models.PeriodMonthly:
		if g.Year < 1 || g.Month < 1 || g.Month > 12 {
			return models.Period{}, errors.New("monthly needs year and month 1-12")
		}
		return models.MonthlyPeriod(g.Year, time.Month(g.Month)), nil
	case models.PeriodDaily:
		d, err := models.ParseDate(g.Date)
		if err != nil {
			return models.Period{}, errors.New("daily needs date (YYYY-MM-DD)")
		}
		return models.DailyPeriod(d), nil
	case models.PeriodCustom:
		start, err1 := models.ParseDate(g.Start)
		end, err2 := models.ParseDate(g.End)
		if err1 != nil || err2 != nil || strings.TrimSpace(g.ID) == "" {
			return models.Period{}, errors.New("custom needs id, start and end (YYYY-MM-DD)")
		}
		return models.CustomPeriod(strings.TrimSpace(g.ID), start, end), nil
	default:
		return models.Period{}, errors.New("type must be monthly, daily or custom")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	enc.Encode(v)
}

func paginate[T any](rows []T, limit, offset int) []T {
	if offset >= len(rows) {
		return []T{}
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}

func atoiDef(s string, d int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return v
}

func clampLimitOffset(limit, offset, n int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = n
	}
	if limit > 1000 {
		limit = 1000
	} // tope sano
	if offset > n {
		offset = n
	}
	return limit, offset
}

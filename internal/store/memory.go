package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/AngelCh415/threads-insights/internal/models"
	"github.com/AngelCh415/threads-insights/internal/report"
)

type conversionKey struct {
	Date   models.Date
	Source string
}

// MemoryStore keeps ingested metric rows and generated reports in process.
// It serves as both the metrics source and the report repository when no
// database is configured. Reports are stored encoded, so a saved report
// cannot be changed through the value the caller still holds.
type MemoryStore struct {
	mu          sync.RWMutex
	loc         *time.Location
	snapshots   map[models.Date]int
	posts       map[string]models.PostRecord
	conversions map[conversionKey]int
	reports     map[string][]byte
	metas       map[string]models.ReportMeta
}

func NewMemoryStore(loc *time.Location) *MemoryStore {
	if loc == nil {
		loc = time.UTC
	}
	return &MemoryStore{
		loc:         loc,
		snapshots:   make(map[models.Date]int),
		posts:       make(map[string]models.PostRecord),
		conversions: make(map[conversionKey]int),
		reports:     make(map[string][]byte),
		metas:       make(map[string]models.ReportMeta),
	}
}

func (s *MemoryStore) UpsertSnapshot(sn models.DailySnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[sn.Date] = max0(sn.FollowerCount)
}

// UpsertPost replaces the post with the same id; later ingests carry newer
// impression and like totals.
func (s *MemoryStore) UpsertPost(p models.PostRecord) {
	p.Impressions = max0(p.Impressions)
	p.Likes = max0(p.Likes)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts[p.ID] = p
}

func (s *MemoryStore) UpsertConversions(d models.Date, source string, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversions[conversionKey{Date: d, Source: norm(source)}] = max0(count)
}

func (s *MemoryStore) ListDailySnapshots(_ context.Context, start, end models.Date) ([]models.DailySnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.DailySnapshot, 0, len(s.snapshots))
	for d, c := range s.snapshots {
		if !d.Before(start) && !d.After(end) {
			out = append(out, models.DailySnapshot{Date: d, FollowerCount: c})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *MemoryStore) ListPosts(_ context.Context, start, end models.Date) ([]models.PostRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.PostRecord, 0, len(s.posts))
	for _, p := range s.posts {
		d := models.DateOf(p.PublishedAt, s.loc)
		if !d.Before(start) && !d.After(end) {
			out = append(out, p)
		}
	}
	// orden determinista
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PublishedAt.Equal(out[j].PublishedAt) {
			return out[i].PublishedAt.Before(out[j].PublishedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) CountExternalConversions(_ context.Context, start, end models.Date, sourceLabel string) (int, error) {
	label := norm(sourceLabel)
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for k, c := range s.conversions {
		if k.Source == label && !k.Date.Before(start) && !k.Date.After(end) {
			n += c
		}
	}
	return n, nil
}

func (s *MemoryStore) UpsertReport(_ context.Context, periodID string, r models.Report) error {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode report %s: %w", periodID, err)
	}
	meta := r.Meta()
	meta.ReportID = periodID
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[periodID] = b
	s.metas[periodID] = meta
	return nil
}

func (s *MemoryStore) GetReport(_ context.Context, periodID string) (models.Report, error) {
	s.mu.RLock()
	b, ok := s.reports[periodID]
	s.mu.RUnlock()
	if !ok {
		return models.Report{}, report.ErrNotFound
	}
	var r models.Report
	if err := json.Unmarshal(b, &r); err != nil {
		return models.Report{}, fmt.Errorf("decode report %s: %w", periodID, err)
	}
	return r, nil
}

// ListReports returns report metadata, latest period first.
func (s *MemoryStore) ListReports(_ context.Context) ([]models.ReportMeta, error) {
	s.mu.RLock()
	out := make([]models.ReportMeta, 0, len(s.metas))
	for _, m := range s.metas {
		out = append(out, m)
	}
	s.mu.RUnlock()
	sortMetas(out)
	return out, nil
}

func sortMetas(ms []models.ReportMeta) {
	sort.Slice(ms, func(i, j int) bool {
		if ms[i].StartDate != ms[j].StartDate {
			return ms[i].StartDate.After(ms[j].StartDate)
		}
		return ms[i].ReportID < ms[j].ReportID
	})
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func max0(i int) int {
	if i < 0 {
		return 0
	}
	return i
}

var (
	_ report.MetricsSource     = (*MemoryStore)(nil)
	_ report.ConversionCounter = (*MemoryStore)(nil)
	_ report.Repository        = (*MemoryStore)(nil)
)

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AngelCh415/threads-insights/internal/models"
	"github.com/AngelCh415/threads-insights/internal/report"
)

var tokyo = time.FixedZone("JST", 9*60*60)

func TestMemoryStorePostsUseLocalDay(t *testing.T) {
	s := NewMemoryStore(tokyo)
	// 2025-11-01 23:30 JST is still Nov 1 locally but Nov 1 14:30 UTC
	s.UpsertPost(models.PostRecord{ID: "late", PublishedAt: time.Date(2025, 11, 1, 23, 30, 0, 0, tokyo), Impressions: 10})
	// 2025-11-02 00:30 JST is Nov 1 in UTC
	s.UpsertPost(models.PostRecord{ID: "early", PublishedAt: time.Date(2025, 11, 2, 0, 30, 0, 0, tokyo), Impressions: -5})

	got, err := s.ListPosts(context.Background(), models.NewDate(2025, 11, 2), models.NewDate(2025, 11, 2))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "early" {
		t.Fatalf("posts = %+v", got)
	}
	if got[0].Impressions != 0 {
		t.Fatalf("negative impressions should clamp to 0, got %d", got[0].Impressions)
	}
}

func TestMemoryStoreUpsertReplaces(t *testing.T) {
	s := NewMemoryStore(tokyo)
	s.UpsertPost(models.PostRecord{ID: "p", PublishedAt: time.Date(2025, 11, 3, 9, 0, 0, 0, tokyo), Impressions: 100})
	s.UpsertPost(models.PostRecord{ID: "p", PublishedAt: time.Date(2025, 11, 3, 9, 0, 0, 0, tokyo), Impressions: 250})
	s.UpsertSnapshot(models.DailySnapshot{Date: models.NewDate(2025, 11, 3), FollowerCount: 10})
	s.UpsertSnapshot(models.DailySnapshot{Date: models.NewDate(2025, 11, 3), FollowerCount: 12})
	s.UpsertSnapshot(models.DailySnapshot{Date: models.NewDate(2025, 11, 1), FollowerCount: 8})

	posts, _ := s.ListPosts(context.Background(), models.NewDate(2025, 11, 1), models.NewDate(2025, 11, 30))
	if len(posts) != 1 || posts[0].Impressions != 250 {
		t.Fatalf("posts = %+v", posts)
	}
	snaps, _ := s.ListDailySnapshots(context.Background(), models.NewDate(2025, 11, 1), models.NewDate(2025, 11, 30))
	if len(snaps) != 2 || snaps[0].FollowerCount != 8 || snaps[1].FollowerCount != 12 {
		t.Fatalf("snapshots = %+v", snaps)
	}
}

func TestMemoryStoreCountsConversionsBySource(t *testing.T) {
	s := NewMemoryStore(tokyo)
	s.UpsertConversions(models.NewDate(2025, 11, 1), "Threads", 3)
	s.UpsertConversions(models.NewDate(2025, 11, 2), " threads ", 2)
	s.UpsertConversions(models.NewDate(2025, 11, 2), "Instagram", 7)
	s.UpsertConversions(models.NewDate(2025, 12, 1), "Threads", 9)

	n, err := s.CountExternalConversions(context.Background(), models.NewDate(2025, 11, 1), models.NewDate(2025, 11, 30), "THREADS")
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 {
		t.Fatalf("conversions = %d, want 5", n)
	}
}

func TestMemoryStoreReports(t *testing.T) {
	s := NewMemoryStore(tokyo)
	ctx := context.Background()

	if _, err := s.GetReport(ctx, "monthly-2025-10"); !errors.Is(err, report.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}

	oct := models.Report{ReportID: "monthly-2025-10", Period: models.MonthlyPeriod(2025, time.October)}
	nov := models.Report{ReportID: "monthly-2025-11", Period: models.MonthlyPeriod(2025, time.November)}
	nov.Summary.TotalPosts = 1
	for _, r := range []models.Report{oct, nov} {
		if err := s.UpsertReport(ctx, r.ReportID, r); err != nil {
			t.Fatal(err)
		}
	}
	nov.Summary.TotalPosts = 2
	if err := s.UpsertReport(ctx, nov.ReportID, nov); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetReport(ctx, "monthly-2025-11")
	if err != nil {
		t.Fatal(err)
	}
	if got.Summary.TotalPosts != 2 {
		t.Fatalf("stale report returned: %+v", got.Summary)
	}

	metas, _ := s.ListReports(ctx)
	if len(metas) != 2 || metas[0].ReportID != "monthly-2025-11" || metas[1].ReportID != "monthly-2025-10" {
		t.Fatalf("metas = %+v", metas)
	}
	if metas[0].Type != models.PeriodMonthly || metas[0].StartDate != models.NewDate(2025, 11, 1) {
		t.Fatalf("meta = %+v", metas[0])
	}
}

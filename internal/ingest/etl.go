// Package ingest pulls raw Threads metrics from the upstream metrics API into
// the in-memory store the report generator reads from.
package ingest

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/AngelCh415/threads-insights/internal/models"
	"github.com/AngelCh415/threads-insights/internal/utils"
)

// Sink receives normalized rows. Every upsert replaces the row with the same
// key, so running the same ingest twice leaves the sink unchanged.
type Sink interface {
	UpsertSnapshot(models.DailySnapshot)
	UpsertPost(models.PostRecord)
	UpsertConversions(d models.Date, source string, count int)
}

type ETL struct {
	c       HTTPClient
	st      Sink
	log     zerolog.Logger
	baseURL string
	loc     *time.Location
	backoff utils.Backoff
}

func NewETL(c HTTPClient, st Sink, log zerolog.Logger, baseURL string, loc *time.Location) *ETL {
	if loc == nil {
		loc = time.UTC
	}
	return &ETL{
		c:       c,
		st:      st,
		log:     log,
		baseURL: strings.TrimRight(baseURL, "/"),
		loc:     loc,
		backoff: utils.NewBackoff(100*time.Millisecond, 2),
	}
}

// WithBackoff replaces the retry policy used for each upstream call.
func (e *ETL) WithBackoff(b utils.Backoff) *ETL {
	e.backoff = b
	return e
}

type snapshotResp []struct {
	Date      string `json:"date"`
	Followers *int   `json:"followers_snapshot"`
}

type postResp []struct {
	PostID      string `json:"post_id"`
	PostedAt    string `json:"posted_at"`
	Impressions int    `json:"impressions_total"`
	Likes       int    `json:"likes_total"`
	Content     string `json:"content"`
}

type conversionResp []struct {
	Date   string `json:"date"`
	Source string `json:"source_name"`
	Count  int    `json:"count"`
}

type Stats struct {
	Snapshots   int `json:"snapshots"`
	Posts       int `json:"posts"`
	Conversions int `json:"conversions"`
	Skipped     int `json:"skipped"`
}

// Run fetches snapshots, posts and conversions published on or after since
// (every row when since is nil). Snapshots and posts are required;
// conversions are best effort.
func (e *ETL) Run(ctx context.Context, since *models.Date) (Stats, error) {
	var st Stats

	var snaps snapshotResp
	if err := e.fetch(ctx, "/snapshots", since, &snaps); err != nil {
		return st, err
	}
	var posts postResp
	if err := e.fetch(ctx, "/posts", since, &posts); err != nil {
		return st, err
	}

	for _, r := range snaps {
		d, err := models.ParseDate(strings.TrimSpace(r.Date))
		if err != nil || r.Followers == nil || before(d, since) {
			st.Skipped++
			continue
		}
		e.st.UpsertSnapshot(models.DailySnapshot{Date: d, FollowerCount: *r.Followers})
		st.Snapshots++
	}

	for _, r := range posts {
		id := strings.TrimSpace(r.PostID)
		t, err := time.Parse(time.RFC3339, strings.TrimSpace(r.PostedAt))
		if id == "" || err != nil || before(models.DateOf(t, e.loc), since) {
			st.Skipped++
			continue
		}
		e.st.UpsertPost(models.PostRecord{
			ID:          id,
			PublishedAt: t,
			Impressions: r.Impressions,
			Likes:       r.Likes,
			Content:     r.Content,
		})
		st.Posts++
	}

	var convs conversionResp
	if err := e.fetch(ctx, "/conversions", since, &convs); err != nil {
		e.log.Warn().Err(err).Msg("ingest: conversions unavailable")
	}
	for _, r := range convs {
		d, err := models.ParseDate(strings.TrimSpace(r.Date))
		if err != nil || strings.TrimSpace(r.Source) == "" || before(d, since) {
			st.Skipped++
			continue
		}
		e.st.UpsertConversions(d, r.Source, r.Count)
		st.Conversions++
	}

	e.log.Info().
		Int("snapshots", st.Snapshots).
		Int("posts", st.Posts).
		Int("conversions", st.Conversions).
		Int("skipped", st.Skipped).
		Msg("ingest complete")
	return st, nil
}

func (e *ETL) fetch(ctx context.Context, path string, since *models.Date, dst any) error {
	u := e.baseURL + path
	if since != nil {
		u += "?since=" + url.QueryEscape(since.String())
	}
	err := e.backoff.Do(ctx, func(i int) error {
		if i > 0 {
			e.log.Debug().Str("url", u).Int("attempt", i+1).Msg("ingest: retrying")
		}
		return getJSON(ctx, e.c, u, dst)
	})
	if err != nil {
		return fmt.Errorf("fetch %s: %w", path, err)
	}
	return nil
}

func before(d models.Date, since *models.Date) bool {
	return since != nil && d.Before(*since)
}

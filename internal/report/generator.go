// Package report assembles period reports and runs regeneration against a
// metrics source and a report repository.
package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/AngelCh415/threads-insights/internal/insight"
	"github.com/AngelCh415/threads-insights/internal/models"
)

var (
	ErrNotFound      = errors.New("report not found")
	ErrInvalidPeriod = errors.New("invalid report period")
)

// MetricsSource supplies the raw rows for an inclusive date range.
type MetricsSource interface {
	ListDailySnapshots(ctx context.Context, start, end models.Date) ([]models.DailySnapshot, error)
	ListPosts(ctx context.Context, start, end models.Date) ([]models.PostRecord, error)
}

// ConversionCounter is implemented by sources that can count external
// conversions (for example LINE registrations) attributed to a source label.
type ConversionCounter interface {
	CountExternalConversions(ctx context.Context, start, end models.Date, sourceLabel string) (int, error)
}

// Repository persists reports. UpsertReport must replace any report with the
// same id atomically.
type Repository interface {
	UpsertReport(ctx context.Context, periodID string, r models.Report) error
	GetReport(ctx context.Context, periodID string) (models.Report, error)
	ListReports(ctx context.Context) ([]models.ReportMeta, error)
}

type Recorder interface {
	ObserveGeneration(outcome string, took time.Duration, posts int)
}

type Options struct {
	Location         *time.Location
	Policy           insight.Policy
	ConversionSource string
	Recorder         Recorder
	Now              func() time.Time
}

type Generator struct {
	src      MetricsSource
	repo     Repository
	log      zerolog.Logger
	loc      *time.Location
	policy   insight.Policy
	source   string
	recorder Recorder
	now      func() time.Time
}

func NewGenerator(src MetricsSource, repo Repository, log zerolog.Logger, opts Options) *Generator {
	g := &Generator{
		src:      src,
		repo:     repo,
		log:      log,
		loc:      opts.Location,
		policy:   opts.Policy,
		source:   opts.ConversionSource,
		recorder: opts.Recorder,
		now:      opts.Now,
	}
	if g.loc == nil {
		g.loc = time.UTC
	}
	if g.now == nil {
		g.now = time.Now
	}
	return g
}

// Generate computes the report for p and replaces the stored one. Nothing is
// written unless every fetch and computation succeeded.
func (g *Generator) Generate(ctx context.Context, p models.Period) (models.Report, error) {
	if !p.Valid() {
		return models.Report{}, fmt.Errorf("%w: %q %s..%s", ErrInvalidPeriod, p.ID, p.Start, p.End)
	}
	started := time.Now()
	log := g.log.With().Str("run_id", uuid.NewString()).Str("report_id", p.ID).Logger()
	log.Info().Str("start", p.Start.String()).Str("end", p.End.String()).Msg("report: generating")

	lookback := p.Start.AddDays(-1)
	snaps, err := g.src.ListDailySnapshots(ctx, lookback, p.End)
	if err != nil {
		g.observe("fetch_error", started, 0)
		return models.Report{}, fmt.Errorf("list daily snapshots: %w", err)
	}
	posts, err := g.src.ListPosts(ctx, lookback, p.End)
	if err != nil {
		g.observe("fetch_error", started, 0)
		return models.Report{}, fmt.Errorf("list posts: %w", err)
	}

	if p.Timezone == "" {
		p.Timezone = g.loc.String()
	}
	rep := Build(Input{
		Period:           p,
		Location:         g.loc,
		Snapshots:        snaps,
		Posts:            posts,
		Conversions:      g.conversions(ctx, p, log),
		ConversionSource: g.source,
		GeneratedAt:      g.now().UTC(),
	}, g.policy)

	if err := g.repo.UpsertReport(ctx, p.ID, rep); err != nil {
		g.observe("store_error", started, rep.Summary.TotalPosts)
		return models.Report{}, fmt.Errorf("upsert report %s: %w", p.ID, err)
	}
	g.observe("ok", started, rep.Summary.TotalPosts)
	log.Info().
		Int("snapshots", len(snaps)).
		Int("posts", rep.Summary.TotalPosts).
		Dur("took", time.Since(started)).
		Msg("report: saved")
	return rep, nil
}

func (g *Generator) Get(ctx context.Context, periodID string) (models.Report, error) {
	return g.repo.GetReport(ctx, periodID)
}

func (g *Generator) List(ctx context.Context) ([]models.ReportMeta, error) {
	return g.repo.ListReports(ctx)
}

// conversions asks the source for external conversions when it can count
// them. A failed lookup is logged and counts as zero.
func (g *Generator) conversions(ctx context.Context, p models.Period, log zerolog.Logger) int {
	cc, ok := g.src.(ConversionCounter)
	if !ok || g.source == "" {
		return 0
	}
	n, err := cc.CountExternalConversions(ctx, p.Start, p.End, g.source)
	if err != nil {
		log.Warn().Err(err).Str("source", g.source).Msg("report: conversion count unavailable")
		return 0
	}
	return n
}

func (g *Generator) observe(outcome string, started time.Time, posts int) {
	if g.recorder != nil {
		g.recorder.ObserveGeneration(outcome, time.Since(started), posts)
	}
}

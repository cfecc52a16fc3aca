package report

import (
	"time"

	"github.com/AngelCh415/threads-insights/internal/attribution"
	"github.com/AngelCh415/threads-insights/internal/insight"
	"github.com/AngelCh415/threads-insights/internal/metrics"
	"github.com/AngelCh415/threads-insights/internal/models"
)

// Input is everything one generation run reads. Snapshots and Posts cover
// the period plus the day before it.
type Input struct {
	Period           models.Period
	Location         *time.Location
	Snapshots        []models.DailySnapshot
	Posts            []models.PostRecord
	Conversions      int
	ConversionSource string
	GeneratedAt      time.Time
}

// Parts are the computed pieces Assemble packs into a report.
type Parts struct {
	Period      models.Period
	Summary     models.Summary
	Daily       []models.DailyMetric
	TopPosts    []models.TopPost
	Aggregates  metrics.Aggregates
	Insights    models.Insights
	GeneratedAt time.Time
}

// Build runs attribution, aggregation and insight generation over in and
// assembles the report. It is a pure function of its arguments.
func Build(in Input, p insight.Policy) models.Report {
	agg := metrics.NewAggregator(in.Location, p.WinnerThreshold)
	lookback := in.Period.Start.AddDays(-1)

	attr := attribution.Attribute(in.Period.Start, in.Period.End, in.Snapshots, inWindow(in.Posts, lookback, in.Period.End, agg.Location()), agg.Location())
	posts := agg.InPeriod(in.Period, attr.Posts)
	records := metrics.Records(posts)

	daily := agg.Daily(in.Period, in.Snapshots, posts)
	top := agg.TopPosts(posts, p.TopPostsLimit)
	aggregates := agg.Aggregate(records)
	summary := Summarize(in.Period, daily, in.Snapshots, attr, in.Conversions)

	ins := insight.Generate(insight.Input{
		Aggregates:       aggregates,
		TopPosts:         top,
		TotalPosts:       summary.TotalPosts,
		TotalImpressions: summary.TotalImpressions,
		WinnerCount:      summary.WinnerCount,
		FollowerChange:   summary.FollowerChange,
		Days:             len(daily),
		Conversions:      summary.ExternalConversions,
		ConversionSource: in.ConversionSource,
	}, p)

	return Assemble(Parts{
		Period:      in.Period,
		Summary:     summary,
		Daily:       daily,
		TopPosts:    top,
		Aggregates:  aggregates,
		Insights:    ins,
		GeneratedAt: in.GeneratedAt,
	})
}

// Assemble packs parts into a report keyed by the period id.
func Assemble(parts Parts) models.Report {
	return models.Report{
		ReportID:     parts.Period.ID,
		Period:       parts.Period,
		Summary:      parts.Summary,
		DailyMetrics: nonNil(parts.Daily),
		TopPosts:     nonNil(parts.TopPosts),
		Hourly:       nonNil(parts.Aggregates.Hourly),
		DayOfWeek:    nonNil(parts.Aggregates.Weekday),
		TimeSlot:     nonNil(parts.Aggregates.TimeSlot),
		Insights:     parts.Insights,
		GeneratedAt:  parts.GeneratedAt,
	}
}

// Summarize rolls the per-day rows up into period totals. Follower start and
// end are the earliest and latest snapshots in the window, including the
// lookback day.
func Summarize(p models.Period, daily []models.DailyMetric, snapshots []models.DailySnapshot, attr attribution.Result, conversions int) models.Summary {
	var s models.Summary
	for _, d := range daily {
		s.TotalPosts += d.PostsCount
		s.TotalImpressions += d.Impressions
		s.TotalLikes += d.Likes
		s.WinnerCount += d.WinnerCount
	}
	s.AvgImpressions = safeDivF(float64(s.TotalImpressions), float64(s.TotalPosts))
	s.AvgLikeRate = safeDivF(float64(s.TotalLikes), float64(s.TotalImpressions))
	s.WinRate = safeDivF(float64(s.WinnerCount), float64(s.TotalPosts))
	s.DailyAvgPosts = safeDivF(float64(s.TotalPosts), float64(len(daily)))

	var first, last *models.DailySnapshot
	lookback := p.Start.AddDays(-1)
	for i := range snapshots {
		sn := &snapshots[i]
		if sn.Date.Before(lookback) || sn.Date.After(p.End) {
			continue
		}
		if first == nil || sn.Date.Before(first.Date) {
			first = sn
		}
		if last == nil || sn.Date.After(last.Date) {
			last = sn
		}
	}
	if first != nil {
		s.FollowerStart = first.FollowerCount
		s.FollowerEnd = last.FollowerCount
		s.FollowerChange = s.FollowerEnd - s.FollowerStart
	}

	s.AttributedFollowers = attr.Attributed()
	s.UnattributedDelta = attr.Unattributed()
	if conversions > 0 {
		s.ExternalConversions = conversions
	}
	return s
}

func inWindow(posts []models.PostRecord, from, to models.Date, loc *time.Location) []models.PostRecord {
	out := make([]models.PostRecord, 0, len(posts))
	for _, p := range posts {
		d := models.DateOf(p.PublishedAt, loc)
		if !d.Before(from) && !d.After(to) {
			out = append(out, p)
		}
	}
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func safeDivF(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

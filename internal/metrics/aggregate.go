// Package metrics buckets posts by hour, weekday and time-slot and derives
// per-day and top-post views of a period.
package metrics

import (
	"fmt"
	"time"

	"github.com/AngelCh415/threads-insights/internal/models"
)

const DefaultWinnerThreshold = 10000

type Aggregator struct {
	loc             *time.Location
	winnerThreshold int
}

func NewAggregator(loc *time.Location, winnerThreshold int) Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	if winnerThreshold <= 0 {
		winnerThreshold = DefaultWinnerThreshold
	}
	return Aggregator{loc: loc, winnerThreshold: winnerThreshold}
}

func (a Aggregator) Location() *time.Location { return a.loc }

// IsWinner reports whether impressions reach the winner threshold.
func (a Aggregator) IsWinner(impressions int) bool { return impressions >= a.winnerThreshold }

type Aggregates struct {
	Hourly   []models.Bucket
	Weekday  []models.Bucket
	TimeSlot []models.Bucket
}

func (a Aggregator) Aggregate(posts []models.PostRecord) Aggregates {
	return Aggregates{
		Hourly:   a.ByHour(posts),
		Weekday:  a.ByWeekday(posts),
		TimeSlot: a.ByTimeSlot(posts),
	}
}

type tally struct {
	posts       int
	impressions int
	winners     int
}

func (a Aggregator) add(t tally, p models.PostRecord) tally {
	imp := max0(p.Impressions)
	t.posts++
	t.impressions += imp
	if a.IsWinner(imp) {
		t.winners++
	}
	return t
}

// ByHour returns 24 buckets, hour 0 first.
func (a Aggregator) ByHour(posts []models.PostRecord) []models.Bucket {
	var ts [24]tally
	for _, p := range posts {
		h := p.PublishedAt.In(a.loc).Hour()
		ts[h] = a.add(ts[h], p)
	}
	out := make([]models.Bucket, 24)
	for h := range ts {
		out[h] = bucket(h, fmt.Sprintf("%02d:00", h), ts[h])
	}
	return out
}

// ByWeekday returns 7 buckets, Sunday first.
func (a Aggregator) ByWeekday(posts []models.PostRecord) []models.Bucket {
	var ts [7]tally
	for _, p := range posts {
		wd := int(p.PublishedAt.In(a.loc).Weekday())
		ts[wd] = a.add(ts[wd], p)
	}
	out := make([]models.Bucket, 7)
	for wd := range ts {
		out[wd] = bucket(wd, time.Weekday(wd).String(), ts[wd])
	}
	return out
}

// ByTimeSlot computes slot buckets straight from the posts.
func (a Aggregator) ByTimeSlot(posts []models.PostRecord) []models.Bucket {
	ts := make([]tally, len(models.TimeSlots))
	for _, p := range posts {
		s := models.SlotOf(p.PublishedAt.In(a.loc).Hour())
		ts[s] = a.add(ts[s], p)
	}
	out := make([]models.Bucket, len(models.TimeSlots))
	for _, s := range models.TimeSlots {
		out[s] = slotBucket(s, ts[s])
	}
	return out
}

// SlotsFromHours rolls 24 hourly buckets up into slot buckets. The result
// matches ByTimeSlot over the same posts.
func SlotsFromHours(hourly []models.Bucket) []models.Bucket {
	out := make([]models.Bucket, len(models.TimeSlots))
	for _, s := range models.TimeSlots {
		var t tally
		for _, h := range s.Hours() {
			if h >= len(hourly) {
				continue
			}
			t.posts += hourly[h].PostsCount
			t.impressions += hourly[h].TotalImpressions
			t.winners += hourly[h].WinnerCount
		}
		out[s] = slotBucket(s, t)
	}
	return out
}

func slotBucket(s models.TimeSlot, t tally) models.Bucket {
	return bucket(s.StartHour(), s.Label(), t)
}

func bucket(key int, label string, t tally) models.Bucket {
	return models.Bucket{
		Key:              key,
		Label:            label,
		PostsCount:       t.posts,
		TotalImpressions: t.impressions,
		AvgImpressions:   safeDivF(float64(t.impressions), float64(t.posts)),
		WinnerCount:      t.winners,
		WinRate:          safeDivF(float64(t.winners), float64(t.posts)),
	}
}

func safeDivF(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

func max0(i int) int {
	if i < 0 {
		return 0
	}
	return i
}

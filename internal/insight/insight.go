// Package insight turns period aggregates into findings and recommendations.
// Every rule is a named predicate plus emitter over the same read-only view,
// so rules can be exercised one at a time and their thresholds come from Policy.
package insight

import (
	"math"
	"sort"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/AngelCh415/threads-insights/internal/metrics"
	"github.com/AngelCh415/threads-insights/internal/models"
)

type Input struct {
	metrics.Aggregates
	TopPosts         []models.TopPost
	TotalPosts       int
	TotalImpressions int
	WinnerCount      int
	FollowerChange   int
	Days             int
	Conversions      int
	ConversionSource string
}

// Generate applies every rule to in. A period without posts yields empty,
// non-nil lists and zero highlights.
func Generate(in Input, p Policy) models.Insights {
	out := empty()
	if in.TotalPosts <= 0 {
		return out
	}
	v := newView(in, p)

	out.KeyInsights = apply(v, keyInsightRules)
	out.BestTimeSlot = highlight(v.bestSlot)
	out.BestHour = highlight(v.bestHour)
	out.BestDayOfWeek = highlight(v.bestDay)
	out.TopPostInsight = topPostInsight(v)
	out.HighWinRateSlots = append(out.HighWinRateSlots, v.highWinRate...)
	out.Recommendations = apply(v, recommendationRules)
	out.TeachingPoints = apply(v, teachingRules)
	out.ActionPlans = apply(v, actionRules)
	out.AvoidItems = apply(v, avoidRules)
	out.WeeklyPlan = weeklyPlan(v)
	return out
}

func empty() models.Insights {
	return models.Insights{
		KeyInsights:      []string{},
		HighWinRateSlots: []models.Bucket{},
		Recommendations:  []string{},
		TeachingPoints:   []string{},
		ActionPlans:      []models.ActionPlan{},
		AvoidItems:       []models.AvoidItem{},
		WeeklyPlan:       []models.WeeklyPlanItem{},
	}
}

// view is the derived, read-only snapshot every rule works from.
type view struct {
	Input
	policy  Policy
	printer *message.Printer

	winRate       float64
	dailyAvgPosts float64

	bestSlot, worstSlot *models.Bucket
	bestDay, worstDay   *models.Bucket
	bestHour            *models.Bucket
	rankedSlots         []models.Bucket
	highWinRate         []models.Bucket
	sample              []models.TopPost
}

func newView(in Input, p Policy) *view {
	v := &view{
		Input:   in,
		policy:  p,
		printer: message.NewPrinter(language.English),
	}
	if in.TotalPosts > 0 {
		v.winRate = float64(in.WinnerCount) / float64(in.TotalPosts)
	}
	days := in.Days
	if days <= 0 {
		days = 1
	}
	v.dailyAvgPosts = float64(in.TotalPosts) / float64(days)

	v.bestSlot, v.worstSlot = extremes(in.TimeSlot)
	v.bestDay, v.worstDay = extremes(in.Weekday)
	v.bestHour, _ = extremes(in.Hourly)

	for _, b := range in.TimeSlot {
		if b.PostsCount > 0 {
			v.rankedSlots = append(v.rankedSlots, b)
		}
		if b.PostsCount >= p.HighWinRateMinPosts && b.WinRate > 0 {
			v.highWinRate = append(v.highWinRate, b)
		}
	}
	sort.SliceStable(v.rankedSlots, func(i, j int) bool {
		return v.rankedSlots[i].AvgImpressions > v.rankedSlots[j].AvgImpressions
	})
	sort.SliceStable(v.highWinRate, func(i, j int) bool {
		return v.highWinRate[i].WinRate > v.highWinRate[j].WinRate
	})

	n := p.TeachingSample
	if n > len(in.TopPosts) {
		n = len(in.TopPosts)
	}
	v.sample = in.TopPosts[:n]
	return v
}

// extremes returns the first bucket with the highest and the first with the
// lowest average, looking only at buckets that hold posts.
func extremes(buckets []models.Bucket) (best, worst *models.Bucket) {
	for i := range buckets {
		b := &buckets[i]
		if b.PostsCount == 0 {
			continue
		}
		if best == nil || b.AvgImpressions > best.AvgImpressions {
			best = b
		}
		if worst == nil || b.AvgImpressions < worst.AvgImpressions {
			worst = b
		}
	}
	return best, worst
}

func highlight(b *models.Bucket) models.Highlight {
	if b == nil {
		return models.Highlight{}
	}
	return models.Highlight{Label: b.Label, AvgImpressions: b.AvgImpressions, WinRate: b.WinRate}
}

func topPostInsight(v *view) string {
	if len(v.TopPosts) == 0 {
		return ""
	}
	top := v.TopPosts[0]
	return v.printer.Sprintf("Top post: %d impressions (%s, %s, %s)",
		top.Impressions, top.PublishedAt.Format("2006-01-02 15:04"), top.Weekday, top.TimeSlot)
}

const (
	focusMain    = "main post: long-form, structured"
	focusSub     = "sub post: medium length"
	focusSupport = "supporting posts"
	otherSlots   = "other slots"
)

// weeklyPlan splits the rounded daily post quota across the two strongest
// slots, with whatever is left going to the remaining slots.
func weeklyPlan(v *view) []models.WeeklyPlanItem {
	out := []models.WeeklyPlanItem{}
	if len(v.rankedSlots) < 2 {
		return out
	}
	quota := int(math.Round(v.dailyAvgPosts))
	first := ceilShare(quota, v.policy.TopSlotShare)
	second := ceilShare(quota, v.policy.SecondSlotShare)
	out = append(out,
		models.WeeklyPlanItem{TimeSlot: v.rankedSlots[0].Label, PostsPerDay: first, Focus: focusMain},
		models.WeeklyPlanItem{TimeSlot: v.rankedSlots[1].Label, PostsPerDay: second, Focus: focusSub},
	)
	remaining := quota - ceilShare(quota, v.policy.TopSlotShare+v.policy.SecondSlotShare)
	if remaining > 0 && len(v.rankedSlots) > 2 {
		out = append(out, models.WeeklyPlanItem{TimeSlot: otherSlots, PostsPerDay: remaining, Focus: focusSupport})
	}
	return out
}

// ceilShare is ceil(quota*share), ignoring float noise just above an integer.
func ceilShare(quota int, share float64) int {
	return int(math.Ceil(float64(quota)*share - 1e-9))
}

func (v *view) num(f float64) string { return v.printer.Sprintf("%d", int(math.Round(f))) }

func (v *view) pct(rate float64) string { return v.printer.Sprintf("%.1f%%", rate*100) }

package insight

import "github.com/AngelCh415/threads-insights/internal/models"

type rule[T any] struct {
	name string
	when func(v *view) bool
	emit func(v *view) T
}

func apply[T any](v *view, rules []rule[T]) []T {
	out := make([]T, 0, len(rules))
	for _, r := range rules {
		if r.when(v) {
			out = append(out, r.emit(v))
		}
	}
	return out
}

func always(*view) bool { return true }

// Key insight lines are emitted in this order.
var keyInsightRules = []rule[string]{
	{
		name: "winner-summary",
		when: always,
		emit: func(v *view) string {
			if v.WinnerCount == 0 {
				return v.printer.Sprintf("No winning posts (%d+ impressions) this period", v.policy.WinnerThreshold)
			}
			return v.printer.Sprintf("Winning posts (%d+ impressions): %d, win rate %s",
				v.policy.WinnerThreshold, v.WinnerCount, v.pct(v.winRate))
		},
	},
	{
		name: "follower-growth",
		when: func(v *view) bool { return v.FollowerChange > 0 },
		emit: func(v *view) string {
			days := v.Days
			if days <= 0 {
				days = 1
			}
			return v.printer.Sprintf("Followers +%d (about %s per day)",
				v.FollowerChange, v.num(float64(v.FollowerChange)/float64(days)))
		},
	},
	{
		name: "best-slot-by-average",
		when: func(v *view) bool { return v.bestSlot != nil && v.bestSlot.AvgImpressions > 0 },
		emit: func(v *view) string {
			return v.bestSlot.Label + " leads on average impressions (" + v.num(v.bestSlot.AvgImpressions) + ")"
		},
	},
	{
		name: "best-slot-by-win-rate",
		when: func(v *view) bool { return len(v.highWinRate) > 0 },
		emit: func(v *view) string {
			b := v.highWinRate[0]
			return v.printer.Sprintf("%s has the best win rate (%s, %d winners)", b.Label, v.pct(b.WinRate), b.WinnerCount)
		},
	},
	{
		name: "best-day-by-average",
		when: func(v *view) bool { return v.bestDay != nil && v.bestDay.AvgImpressions > 0 },
		emit: func(v *view) string {
			return v.bestDay.Label + " leads on average impressions (" + v.num(v.bestDay.AvgImpressions) + ")"
		},
	},
	{
		name: "external-conversions",
		when: func(v *view) bool { return v.Conversions > 0 },
		emit: func(v *view) string {
			var cvr float64
			if v.TotalImpressions > 0 {
				cvr = float64(v.Conversions) / float64(v.TotalImpressions)
			}
			return v.printer.Sprintf("%s conversions: %d (CVR %.3f%%)", v.ConversionSource, v.Conversions, cvr*100)
		},
	},
}

func teachingReady(v *view) bool { return len(v.TopPosts) >= v.policy.TeachingMinPosts }

var teachingRules = []rule[string]{
	{
		name: "average-length",
		when: teachingReady,
		emit: func(v *view) string {
			return v.printer.Sprintf("Top posts average %s characters", v.num(v.sampleAvg(func(p models.TopPost) int { return p.CharCount })))
		},
	},
	{
		name: "bracket-headers",
		when: func(v *view) bool {
			return teachingReady(v) && v.sampleCount(func(p models.TopPost) bool { return p.UsesBrackets }) >= v.policy.MarkupMinPosts
		},
		emit: func(*view) string { return "Bracket headers (【】) give the top posts their structure" },
	},
	{
		name: "quote-marks",
		when: func(v *view) bool {
			return teachingReady(v) && v.sampleCount(func(p models.TopPost) bool { return p.UsesQuotes }) >= v.policy.MarkupMinPosts
		},
		emit: func(*view) string { return "Quote marks (「」) for emphasis recur in the top posts" },
	},
	{
		name: "average-lines",
		when: teachingReady,
		emit: func(v *view) string {
			return v.printer.Sprintf("Top posts average %s lines", v.num(v.sampleAvg(func(p models.TopPost) int { return p.LineCount })))
		},
	},
	{
		name: "dominant-slot",
		when: func(v *view) bool {
			_, n := dominantSlot(v.sample)
			return teachingReady(v) && n >= v.policy.DominantSlotMin
		},
		emit: func(v *view) string {
			s, _ := dominantSlot(v.sample)
			return "Top posts cluster in " + s.Label()
		},
	},
}

var recommendationRules = []rule[string]{
	{
		name: "concentrate-best-slot",
		when: func(v *view) bool { return v.bestSlot != nil },
		emit: func(v *view) string { return "Concentrate posts in " + v.bestSlot.Label },
	},
	{
		name: "weak-weekday",
		when: func(v *view) bool {
			return v.bestDay != nil && v.worstDay.AvgImpressions < v.bestDay.AvgImpressions*v.policy.WeakWeekdayRatio
		},
		emit: func(v *view) string {
			return v.worstDay.Label + " averages " + v.num(v.worstDay.AvgImpressions) + " impressions; consider adjusting how often you post that day"
		},
	},
	{
		name: "low-win-rate",
		when: func(v *view) bool { return v.winRate < v.policy.ShortPostWinRateBelow },
		emit: func(v *view) string {
			return "Win rate is below " + v.pct(v.policy.ShortPostWinRateBelow) + "; open posts with a stronger hook"
		},
	},
	{
		name: "strong-win-rate",
		when: func(v *view) bool { return v.winRate >= v.policy.StrongWinRate },
		emit: func(v *view) string { return "Win rate " + v.pct(v.winRate) + " is strong; keep the current approach" },
	},
	{
		name: "top-post-slot",
		when: func(v *view) bool { return len(v.TopPosts) >= 3 },
		emit: func(v *view) string {
			s, _ := dominantSlot(v.TopPosts[:3])
			return "Top posts tend to land in " + s.Label()
		},
	},
}

var actionRules = []rule[models.ActionPlan]{
	{
		name: "concentrate-best-slot",
		when: func(v *view) bool {
			return v.bestSlot != nil && v.bestSlot.AvgImpressions > v.worstSlot.AvgImpressions*v.policy.ConcentrateRatio
		},
		emit: func(v *view) models.ActionPlan {
			return models.ActionPlan{
				Title:       "Concentrate posting in " + v.bestSlot.Label,
				Description: v.bestSlot.Label + " averages " + v.num(v.bestSlot.AvgImpressions) + " impressions, the strongest slot. Put at least 30% of posts there",
				Priority:    models.PriorityHigh,
			}
		},
	},
	{
		name: "exploit-high-win-rate-slot",
		when: func(v *view) bool { return len(v.highWinRate) > 0 && v.winRate < v.policy.ExploitWinRateBelow },
		emit: func(v *view) models.ActionPlan {
			b := v.highWinRate[0]
			return models.ActionPlan{
				Title:       "Use " + b.Label + " more",
				Description: "Win rate there is " + v.pct(b.WinRate) + "; shift more posts into " + b.Label,
				Priority:    models.PriorityHigh,
			}
		},
	},
	{
		name: "adopt-bracket-headers",
		when: func(v *view) bool {
			if !teachingReady(v) || len(v.sample) == 0 {
				return false
			}
			n := v.sampleCount(func(p models.TopPost) bool { return p.UsesBrackets })
			return float64(n)/float64(len(v.sample)) >= v.policy.StructuralShare
		},
		emit: func(*view) models.ActionPlan {
			return models.ActionPlan{
				Title:       "Structure posts with 【】 headers",
				Description: "Most top posts use bracket headers. Add headings to break posts into sections",
				Priority:    models.PriorityMedium,
			}
		},
	},
}

var avoidRules = []rule[models.AvoidItem]{
	{
		name: "worst-slot",
		when: func(v *view) bool { return v.worstSlot != nil && v.worstSlot.AvgImpressions < v.policy.AvoidSlotAvgBelow },
		emit: func(v *view) models.AvoidItem {
			return models.AvoidItem{
				Title:  "Posting in " + v.worstSlot.Label,
				Reason: "averages " + v.num(v.worstSlot.AvgImpressions) + " impressions",
			}
		},
	},
	{
		name: "worst-weekday",
		when: func(v *view) bool {
			return v.bestDay != nil && v.worstDay.AvgImpressions < v.bestDay.AvgImpressions*v.policy.AvoidWeekdayRatio
		},
		emit: func(v *view) models.AvoidItem {
			return models.AvoidItem{
				Title:  "Key posts on " + v.worstDay.Label,
				Reason: "averages " + v.num(v.worstDay.AvgImpressions) + " impressions against " + v.num(v.bestDay.AvgImpressions) + " on " + v.bestDay.Label,
			}
		},
	},
	{
		name: "short-posts",
		when: func(v *view) bool { return v.winRate < v.policy.ShortPostWinRateBelow },
		emit: func(*view) models.AvoidItem {
			return models.AvoidItem{
				Title:  "Short posts (100 characters or fewer)",
				Reason: "win rate is low; 400-600 character posts do better",
			}
		},
	},
}

func (v *view) sampleAvg(f func(models.TopPost) int) float64 {
	if len(v.sample) == 0 {
		return 0
	}
	var sum int
	for _, p := range v.sample {
		sum += f(p)
	}
	return float64(sum) / float64(len(v.sample))
}

func (v *view) sampleCount(f func(models.TopPost) bool) int {
	n := 0
	for _, p := range v.sample {
		if f(p) {
			n++
		}
	}
	return n
}

// dominantSlot is the slot holding the most posts; ties go to the slot that
// comes first in the canonical order.
func dominantSlot(posts []models.TopPost) (models.TimeSlot, int) {
	counts := make([]int, len(models.TimeSlots))
	for _, p := range posts {
		counts[p.Slot]++
	}
	best, n := models.SlotEarlyMorning, 0
	for _, s := range models.TimeSlots {
		if counts[s] > n {
			best, n = s, counts[s]
		}
	}
	return best, n
}


// Package attribution spreads day-over-day follower changes across the posts
// published on either side of each day boundary.
package attribution

import (
	"time"

	"github.com/AngelCh415/threads-insights/internal/models"
)

type Outcome string

const (
	// OutcomeApplied means the delta was fully distributed to posts.
	OutcomeApplied Outcome = "applied"
	// OutcomeNoChange means both snapshots exist and the follower count did not move.
	OutcomeNoChange Outcome = "no_change"
	// OutcomeMissingSnapshot means one of the two snapshots is absent; nothing was attempted.
	OutcomeMissingSnapshot Outcome = "missing_snapshot"
	// OutcomeUnattributed means the delta is real but neither day has posts to carry it.
	OutcomeUnattributed Outcome = "unattributed"
)

// Boundary records what happened to the delta between Date-1 and Date.
type Boundary struct {
	Date      models.Date `json:"date"`
	Delta     int         `json:"delta"`
	Outcome   Outcome     `json:"outcome"`
	PrevShare float64     `json:"prevShare"`
	CurrShare float64     `json:"currShare"`
}

type Result struct {
	Posts      []models.AttributedPost
	Boundaries []Boundary
}

// Attributed is the total delta handed to posts.
func (r Result) Attributed() float64 {
	var sum float64
	for _, b := range r.Boundaries {
		if b.Outcome == OutcomeApplied {
			sum += b.PrevShare + b.CurrShare
		}
	}
	return sum
}

// Unattributed is the total delta of boundaries with no posts on either side.
func (r Result) Unattributed() int {
	var sum int
	for _, b := range r.Boundaries {
		if b.Outcome == OutcomeUnattributed {
			sum += b.Delta
		}
	}
	return sum
}

// Attribute runs one boundary split per day D in [from, to], using the
// snapshots of D-1 and D. Posts are bucketed by their calendar day in loc.
// The returned posts keep the input order.
func Attribute(from, to models.Date, snapshots []models.DailySnapshot, posts []models.PostRecord, loc *time.Location) Result {
	followers := make(map[models.Date]int, len(snapshots))
	for _, s := range snapshots {
		followers[s.Date] = s.FollowerCount
	}

	byDay := make(map[models.Date][]int)
	for i, p := range posts {
		d := models.DateOf(p.PublishedAt, loc)
		byDay[d] = append(byDay[d], i)
	}

	deltas := make([]float64, len(posts))
	boundaries := make([]Boundary, 0, from.DaysUntil(to)+1)
	for d := from; !d.After(to); d = d.AddDays(1) {
		b := Boundary{Date: d}
		curr, okCurr := followers[d]
		prev, okPrev := followers[d.AddDays(-1)]
		if !okCurr || !okPrev {
			b.Outcome = OutcomeMissingSnapshot
			boundaries = append(boundaries, b)
			continue
		}
		b.Delta = curr - prev
		if b.Delta == 0 {
			b.Outcome = OutcomeNoChange
			boundaries = append(boundaries, b)
			continue
		}

		prevPosts := pick(posts, byDay[d.AddDays(-1)])
		currPosts := pick(posts, byDay[d])
		prevShare, currShare, ok := SplitBoundary(float64(b.Delta), prevPosts, currPosts)
		if !ok {
			b.Outcome = OutcomeUnattributed
			boundaries = append(boundaries, b)
			continue
		}
		b.Outcome = OutcomeApplied
		b.PrevShare, b.CurrShare = prevShare, currShare
		boundaries = append(boundaries, b)

		for j, v := range Distribute(prevShare, prevPosts) {
			deltas[byDay[d.AddDays(-1)][j]] += v
		}
		for j, v := range Distribute(currShare, currPosts) {
			deltas[byDay[d][j]] += v
		}
	}

	out := make([]models.AttributedPost, len(posts))
	for i, p := range posts {
		out[i] = models.AttributedPost{PostRecord: p, FollowerDelta: deltas[i]}
	}
	return Result{Posts: out, Boundaries: boundaries}
}

// SplitBoundary apportions delta between the previous and the current day.
// Impressions weight the split; when both sides have zero impressions the
// side(s) holding posts take it by post count. ok is false when neither
// side has posts.
func SplitBoundary(delta float64, prev, curr []models.PostRecord) (prevShare, currShare float64, ok bool) {
	prevTotal, currTotal := totalImpressions(prev), totalImpressions(curr)
	if total := prevTotal + currTotal; total > 0 {
		return delta * float64(prevTotal) / float64(total), delta * float64(currTotal) / float64(total), true
	}
	np, nc := len(prev), len(curr)
	switch {
	case np == 0 && nc == 0:
		return 0, 0, false
	case nc == 0:
		return delta, 0, true
	case np == 0:
		return 0, delta, true
	}
	return delta * float64(np) / float64(np+nc), delta * float64(nc) / float64(np+nc), true
}

// Distribute splits share across posts by impressions, or equally when every
// post has zero impressions. The result is index-aligned with posts.
func Distribute(share float64, posts []models.PostRecord) []float64 {
	out := make([]float64, len(posts))
	if len(posts) == 0 {
		return out
	}
	total := totalImpressions(posts)
	for i, p := range posts {
		if total > 0 {
			out[i] = share * float64(max0(p.Impressions)) / float64(total)
		} else {
			out[i] = share / float64(len(posts))
		}
	}
	return out
}

func pick(posts []models.PostRecord, idx []int) []models.PostRecord {
	out := make([]models.PostRecord, len(idx))
	for i, j := range idx {
		out[i] = posts[j]
	}
	return out
}

func totalImpressions(posts []models.PostRecord) int {
	var sum int
	for _, p := range posts {
		sum += max0(p.Impressions)
	}
	return sum
}

func max0(i int) int {
	if i < 0 {
		return 0
	}
	return i
}

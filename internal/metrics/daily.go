package metrics

import "github.com/AngelCh415/threads-insights/internal/models"

// Daily builds one row per calendar day of p. Followers and the realized
// delta come from the snapshots; a day whose own or previous snapshot is
// missing is flagged and carries no delta.
func (a Aggregator) Daily(p models.Period, snapshots []models.DailySnapshot, posts []models.AttributedPost) []models.DailyMetric {
	followers := make(map[models.Date]int, len(snapshots))
	for _, s := range snapshots {
		followers[s.Date] = s.FollowerCount
	}

	days := p.Days()
	idx := make(map[models.Date]int, len(days))
	out := make([]models.DailyMetric, len(days))
	for i, d := range days {
		idx[d] = i
		m := models.DailyMetric{Date: d}
		curr, okCurr := followers[d]
		prev, okPrev := followers[d.AddDays(-1)]
		if okCurr {
			m.Followers = curr
		}
		if okCurr && okPrev {
			m.FollowersDelta = curr - prev
		} else {
			m.SnapshotMissing = true
		}
		out[i] = m
	}

	for _, post := range posts {
		i, ok := idx[models.DateOf(post.PublishedAt, a.loc)]
		if !ok {
			continue
		}
		imp := max0(post.Impressions)
		out[i].PostsCount++
		out[i].Impressions += imp
		out[i].Likes += max0(post.Likes)
		out[i].AttributedDelta += post.FollowerDelta
		if a.IsWinner(imp) {
			out[i].WinnerCount++
		}
	}
	return out
}

// InPeriod keeps the posts whose local calendar day falls in p.
func (a Aggregator) InPeriod(p models.Period, posts []models.AttributedPost) []models.AttributedPost {
	out := make([]models.AttributedPost, 0, len(posts))
	for _, post := range posts {
		if p.Contains(models.DateOf(post.PublishedAt, a.loc)) {
			out = append(out, post)
		}
	}
	return out
}

// Records strips the attribution off posts.
func Records(posts []models.AttributedPost) []models.PostRecord {
	out := make([]models.PostRecord, len(posts))
	for i, p := range posts {
		out[i] = p.PostRecord
	}
	return out
}

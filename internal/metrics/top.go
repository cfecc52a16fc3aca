package metrics

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/AngelCh415/threads-insights/internal/models"
)

const (
	DefaultTopPosts = 10
	hookMaxRunes    = 100
)

// TopPosts returns the n posts with the most impressions. Ties go to the
// earlier post, then to the smaller id, so the order is stable across runs.
func (a Aggregator) TopPosts(posts []models.AttributedPost, n int) []models.TopPost {
	sorted := make([]models.AttributedPost, len(posts))
	copy(sorted, posts)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Impressions != sorted[j].Impressions {
			return sorted[i].Impressions > sorted[j].Impressions
		}
		if !sorted[i].PublishedAt.Equal(sorted[j].PublishedAt) {
			return sorted[i].PublishedAt.Before(sorted[j].PublishedAt)
		}
		return sorted[i].ID < sorted[j].ID
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}

	out := make([]models.TopPost, 0, len(sorted))
	for _, p := range sorted {
		local := p.PublishedAt.In(a.loc)
		slot := models.SlotOf(local.Hour())
		out = append(out, models.TopPost{
			PostID:        p.ID,
			Content:       p.Content,
			Impressions:   p.Impressions,
			Likes:         p.Likes,
			LikeRate:      safeDivF(float64(p.Likes), float64(p.Impressions)),
			PublishedAt:   local,
			Weekday:       local.Weekday().String(),
			Slot:          slot,
			TimeSlot:      slot.Label(),
			Hour:          local.Hour(),
			Hook:          Hook(p.Content),
			CharCount:     utf8.RuneCountInString(p.Content),
			LineCount:     LineCount(p.Content),
			UsesBrackets:  strings.Contains(p.Content, "【") && strings.Contains(p.Content, "】"),
			UsesQuotes:    strings.Contains(p.Content, "「") && strings.Contains(p.Content, "」"),
			FollowerDelta: p.FollowerDelta,
		})
	}
	return out
}

// Hook is the opening line of a post, or its first 100 characters when the
// post has no line break after the first character.
func Hook(content string) string {
	if i := strings.IndexByte(content, '\n'); i > 0 {
		return content[:i]
	}
	if utf8.RuneCountInString(content) <= hookMaxRunes {
		return content
	}
	return string([]rune(content)[:hookMaxRunes])
}

// LineCount counts non-blank lines.
func LineCount(content string) int {
	n := 0
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}

package models

import "time"

type DailySnapshot struct {
	Date          Date `json:"date"`
	FollowerCount int  `json:"followerCount"`
}

type PostRecord struct {
	ID          string    `json:"id"`
	PublishedAt time.Time `json:"publishedAt"`
	Impressions int       `json:"impressions"`
	Likes       int       `json:"likes"`
	Content     string    `json:"content"`
}

// AttributedPost is a post plus its share of the follower growth of the
// day boundaries it touches.
type AttributedPost struct {
	PostRecord
	FollowerDelta float64 `json:"followerDelta"`
}

// Bucket summarizes the posts that fall in one hour, weekday or time-slot.
type Bucket struct {
	Key              int     `json:"key"`
	Label            string  `json:"label"`
	PostsCount       int     `json:"postsCount"`
	TotalImpressions int     `json:"totalImpressions"`
	AvgImpressions   float64 `json:"avgImpressions"`
	WinnerCount      int     `json:"winnerCount"`
	WinRate          float64 `json:"winRate"`
}

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

type ActionPlan struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
}

type AvoidItem struct {
	Title  string `json:"title"`
	Reason string `json:"reason"`
}

type WeeklyPlanItem struct {
	TimeSlot    string `json:"timeSlot"`
	PostsPerDay int    `json:"postsPerDay"`
	Focus       string `json:"focus"`
}

// Highlight names the winning bucket of a dimension.
type Highlight struct {
	Label          string  `json:"label"`
	AvgImpressions float64 `json:"avgImpressions"`
	WinRate        float64 `json:"winRate"`
}

type Insights struct {
	KeyInsights      []string         `json:"keyInsights"`
	BestTimeSlot     Highlight        `json:"bestTimeSlot"`
	BestHour         Highlight        `json:"bestHour"`
	BestDayOfWeek    Highlight        `json:"bestDayOfWeek"`
	TopPostInsight   string           `json:"topPostInsight"`
	HighWinRateSlots []Bucket         `json:"highWinRateSlots"`
	Recommendations  []string         `json:"recommendations"`
	TeachingPoints   []string         `json:"teachingPoints"`
	ActionPlans      []ActionPlan     `json:"actionPlans"`
	AvoidItems       []AvoidItem      `json:"avoidItems"`
	WeeklyPlan       []WeeklyPlanItem `json:"weeklyPlan"`
}

type TopPost struct {
	PostID        string    `json:"postId"`
	Content       string    `json:"content"`
	Impressions   int       `json:"impressions"`
	Likes         int       `json:"likes"`
	LikeRate      float64   `json:"likeRate"`
	PublishedAt   time.Time `json:"publishedAt"`
	Weekday       string    `json:"dayOfWeek"`
	Slot          TimeSlot  `json:"slot"`
	TimeSlot      string    `json:"timeSlot"`
	Hour          int       `json:"hour"`
	Hook          string    `json:"hook"`
	CharCount     int       `json:"charCount"`
	LineCount     int       `json:"lineCount"`
	UsesBrackets  bool      `json:"usesBrackets"`
	UsesQuotes    bool      `json:"usesQuotes"`
	FollowerDelta float64   `json:"followerDelta"`
}

type DailyMetric struct {
	Date            Date    `json:"date"`
	Followers       int     `json:"followers"`
	FollowersDelta  int     `json:"followersDelta"`
	SnapshotMissing bool    `json:"snapshotMissing"`
	Impressions     int     `json:"impressions"`
	Likes           int     `json:"likes"`
	PostsCount      int     `json:"postsCount"`
	WinnerCount     int     `json:"winnerCount"`
	AttributedDelta float64 `json:"attributedDelta"`
}

type Summary struct {
	TotalPosts          int     `json:"totalPosts"`
	TotalImpressions    int     `json:"totalImpressions"`
	TotalLikes          int     `json:"totalLikes"`
	AvgImpressions      float64 `json:"avgImpressions"`
	AvgLikeRate         float64 `json:"avgLikeRate"`
	WinnerCount         int     `json:"winnerCount"`
	WinRate             float64 `json:"winRate"`
	FollowerStart       int     `json:"followerStart"`
	FollowerEnd         int     `json:"followerEnd"`
	FollowerChange      int     `json:"followerChange"`
	AttributedFollowers float64 `json:"attributedFollowers"`
	UnattributedDelta   int     `json:"unattributedDelta"`
	ExternalConversions int     `json:"externalConversions"`
	DailyAvgPosts       float64 `json:"dailyAvgPosts"`
}

// Report is the immutable result of one generation run for a period.
type Report struct {
	ReportID     string        `json:"reportId"`
	Period       Period        `json:"period"`
	Summary      Summary       `json:"summary"`
	DailyMetrics []DailyMetric `json:"dailyMetrics"`
	TopPosts     []TopPost     `json:"topPosts"`
	Hourly       []Bucket      `json:"hourlyPerformance"`
	DayOfWeek    []Bucket      `json:"dayOfWeekPerformance"`
	TimeSlot     []Bucket      `json:"timeSlotPerformance"`
	Insights     Insights      `json:"insights"`
	GeneratedAt  time.Time     `json:"generatedAt"`
}

type ReportMeta struct {
	ReportID    string    `json:"reportId"`
	Type        string    `json:"reportType"`
	StartDate   Date      `json:"startDate"`
	EndDate     Date      `json:"endDate"`
	GeneratedAt time.Time `json:"generatedAt"`
}

func (r Report) Meta() ReportMeta {
	return ReportMeta{
		ReportID:    r.ReportID,
		Type:        r.Period.Type,
		StartDate:   r.Period.Start,
		EndDate:     r.Period.End,
		GeneratedAt: r.GeneratedAt,
	}
}

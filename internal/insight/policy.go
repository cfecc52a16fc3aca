package insight

// Policy holds the thresholds and ratios the rules compare against.
type Policy struct {
	WinnerThreshold     int
	TopPostsLimit       int
	HighWinRateMinPosts int

	// Teaching points look at the first TeachingSample top posts once at
	// least TeachingMinPosts exist.
	TeachingMinPosts    int
	TeachingSample      int
	MarkupMinPosts      int
	DominantSlotMin     int
	StructuralShare     float64
	ConcentrateRatio    float64
	ExploitWinRateBelow float64

	AvoidSlotAvgBelow     float64
	AvoidWeekdayRatio     float64
	WeakWeekdayRatio      float64
	ShortPostWinRateBelow float64
	StrongWinRate         float64

	TopSlotShare    float64
	SecondSlotShare float64
}

func DefaultPolicy() Policy {
	return Policy{
		WinnerThreshold:       10000,
		TopPostsLimit:         10,
		HighWinRateMinPosts:   10,
		TeachingMinPosts:      3,
		TeachingSample:        5,
		MarkupMinPosts:        3,
		DominantSlotMin:       2,
		StructuralShare:       0.6,
		ConcentrateRatio:      1.5,
		ExploitWinRateBelow:   0.02,
		AvoidSlotAvgBelow:     1000,
		AvoidWeekdayRatio:     0.4,
		WeakWeekdayRatio:      0.5,
		ShortPostWinRateBelow: 0.01,
		StrongWinRate:         0.02,
		TopSlotShare:          0.35,
		SecondSlotShare:       0.25,
	}
}

package models

import (
	"fmt"
	"time"
)

const (
	PeriodMonthly = "monthly"
	PeriodDaily   = "daily"
	PeriodCustom  = "custom"
)

// Period is the inclusive date range a report covers, identified by ID.
type Period struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Start    Date   `json:"startDate"`
	End      Date   `json:"endDate"`
	Label    string `json:"label"`
	Timezone string `json:"timezone,omitempty"`
}

func MonthlyPeriod(year int, month time.Month) Period {
	start := NewDate(year, month, 1)
	end := NewDate(year, month+1, 1).AddDays(-1)
	return Period{
		ID:    fmt.Sprintf("monthly-%04d-%02d", year, int(month)),
		Type:  PeriodMonthly,
		Start: start,
		End:   end,
		Label: fmt.Sprintf("%s %d", month, year),
	}
}

func DailyPeriod(d Date) Period {
	return Period{
		ID:    "daily-" + d.String(),
		Type:  PeriodDaily,
		Start: d,
		End:   d,
		Label: d.String(),
	}
}

func CustomPeriod(id string, start, end Date) Period {
	return Period{
		ID:    id,
		Type:  PeriodCustom,
		Start: start,
		End:   end,
		Label: start.String() + " - " + end.String(),
	}
}

func (p Period) Valid() bool {
	return p.ID != "" && !p.Start.IsZero() && !p.End.IsZero() && !p.End.Before(p.Start)
}

func (p Period) Contains(d Date) bool { return !d.Before(p.Start) && !d.After(p.End) }

// Days lists every calendar day of the period in order.
func (p Period) Days() []Date {
	n := p.Start.DaysUntil(p.End) + 1
	if n <= 0 {
		return []Date{}
	}
	out := make([]Date, 0, n)
	for d := p.Start; !d.After(p.End); d = d.AddDays(1) {
		out = append(out, d)
	}
	return out
}

package models

import "fmt"

// TimeSlot is one of the seven fixed bands that partition a day.
type TimeSlot int

const (
	SlotEarlyMorning TimeSlot = iota
	SlotMorning
	SlotLateMorning
	SlotMidday
	SlotAfternoon
	SlotEvening
	SlotLateNight
)

// TimeSlots is the canonical slot order.
var TimeSlots = []TimeSlot{
	SlotEarlyMorning, SlotMorning, SlotLateMorning, SlotMidday, SlotAfternoon, SlotEvening, SlotLateNight,
}

var slotBounds = [...]struct {
	start, end int
	name       string
}{
	{0, 6, "early-morning"},
	{6, 9, "morning"},
	{9, 12, "late-morning"},
	{12, 15, "midday"},
	{15, 18, "afternoon"},
	{18, 21, "evening"},
	{21, 24, "late-night"},
}

// SlotOf maps an hour (0-23) to its band. Out of range hours clamp to the
// nearest band.
func SlotOf(hour int) TimeSlot {
	for i := len(slotBounds) - 1; i >= 0; i-- {
		if hour >= slotBounds[i].start {
			return TimeSlot(i)
		}
	}
	return SlotEarlyMorning
}

func (s TimeSlot) StartHour() int { return slotBounds[s].start }
func (s TimeSlot) EndHour() int   { return slotBounds[s].end }
func (s TimeSlot) Name() string   { return slotBounds[s].name }

func (s TimeSlot) Label() string {
	b := slotBounds[s]
	return fmt.Sprintf("%s (%d-%dh)", b.name, b.start, b.end)
}

func (s TimeSlot) Hours() []int {
	out := make([]int, 0, s.EndHour()-s.StartHour())
	for h := s.StartHour(); h < s.EndHour(); h++ {
		out = append(out, h)
	}
	return out
}

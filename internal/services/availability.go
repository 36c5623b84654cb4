package services

import (
	"time"

	"github.com/rafatrasulov/rasulov-school/internal/models"
)

const calendarWeeks = 3

type DaySlots struct {
	Day   string        `json:"day"`
	Slots []models.Slot `json:"slots"`
}

// DefaultCalendarWindow spans from the start of today in loc through the
// next three weeks, matching the public calendar view.
func DefaultCalendarWindow(now time.Time, loc *time.Location) (time.Time, time.Time) {
	local := now.In(loc)
	from := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	to := from.AddDate(0, 0, calendarWeeks*7)
	return from, to
}

// GroupSlotsByDay buckets slots by their calendar day in loc, preserving the
// ascending start_time order of the input.
func GroupSlotsByDay(slots []models.Slot, loc *time.Location) []DaySlots {
	days := make([]DaySlots, 0)
	index := make(map[string]int)

	for _, slot := range slots {
		day := slot.StartTime.In(loc).Format("2006-01-02")
		i, ok := index[day]
		if !ok {
			i = len(days)
			index[day] = i
			days = append(days, DaySlots{Day: day})
		}
		days[i].Slots = append(days[i].Slots, slot)
	}

	return days
}

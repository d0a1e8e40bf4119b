package scheduling

import "time"

// slotHours are the bookable one-hour windows of a working day, local time.
// The gap between 13 and 15 is the lunch break.
var slotHours = []int{8, 9, 10, 11, 12, 15, 16, 17, 18, 19}

// SlotWindow is a single bookable one-hour window. Slots are derived on the
// fly from the date and never persisted.
type SlotWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// SlotsForDate returns the bookable windows for a calendar date in the date's
// location. Saturdays and Sundays have none.
func SlotsForDate(date time.Time) []SlotWindow {
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return []SlotWindow{}
	}

	slots := make([]SlotWindow, 0, len(slotHours))
	for _, h := range slotHours {
		start := time.Date(date.Year(), date.Month(), date.Day(), h, 0, 0, 0, date.Location())
		slots = append(slots, SlotWindow{Start: start, End: start.Add(time.Hour)})
	}
	return slots
}

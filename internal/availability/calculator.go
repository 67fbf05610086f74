package availability

import (
	"sort"
	"time"

	"github.com/fasfaisa/Appointment-sheduling/internal/domain/appointment"
	"github.com/fasfaisa/Appointment-sheduling/internal/domain/slot"
)

// DateSlot keys booked counts by calendar date ("2006-01-02") and slot id.
type DateSlot struct {
	Date   string
	SlotID string
}

// Opening is one still-bookable (date, slot) pair.
type Opening struct {
	SlotID            string `json:"slotId"`
	Time              string `json:"time"`
	Date              string `json:"date"`
	RemainingCapacity int    `json:"remainingCapacity"`
}

// Compute derives the bookable view for [from, to] (inclusive, date precision).
// A pair is reported only while bookedCount < capacity. Inactive slots are
// excluded entirely, and slots whose start time has already passed on the
// current date are excluded as well. Output is ordered by date asc, time asc.
func Compute(slots []slot.TimeSlot, booked map[DateSlot]int, from, to time.Time, now time.Time) []Opening {
	active := make([]slot.TimeSlot, 0, len(slots))

	for _, s := range slots {
		if s.IsActive {
			active = append(active, s)
		}
	}

	sort.Slice(active, func(i, j int) bool {
		return active[i].Time < active[j].Time
	})

	today := now.Format(appointment.DateLayout)
	nowClock := now.Format(slot.TimeLayout)

	out := make([]Opening, 0, len(active))

	for d := dateOnly(from); !d.After(dateOnly(to)); d = d.AddDate(0, 0, 1) {
		date := d.Format(appointment.DateLayout)

		for _, s := range active {
			if date == today && s.Time <= nowClock {
				continue
			}

			remaining := s.Capacity - booked[DateSlot{Date: date, SlotID: s.ID}]

			if remaining <= 0 {
				continue
			}

			out = append(out, Opening{
				SlotID:            s.ID,
				Time:              s.Time,
				Date:              date,
				RemainingCapacity: remaining,
			})
		}
	}

	return out
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

package slot

import (
	"errors"
	"time"
)

// TimeSlot is a reusable time-of-day definition. Time carries no date and is
// stored as "15:04:05"; zero-padded so lexical order matches clock order.
type TimeSlot struct {
	ID        string    `json:"id"`
	Time      string    `json:"time"`
	Capacity  int       `json:"capacity"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

var ErrNotFound = errors.New("time slot not found")
var ErrInactive = errors.New("time slot is inactive")

const TimeLayout = "15:04:05"

// ParseTime validates an "HH:MM:SS" slot time.
func ParseTime(s string) (time.Time, error) {
	return time.Parse(TimeLayout, s)
}

package availability

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// SlotGranularity is the step between candidate slot starts, in minutes.
	SlotGranularity = 30

	dateLayout = "2006-01-02"
)

// Slot is a candidate appointment start within a business day.
type Slot struct {
	Time      string `json:"time"`
	Start     int    `json:"-"`
	Available bool   `json:"available"`
}

// ParseTimeOfDay converts "HH:MM" into minutes since midnight.
func ParseTimeOfDay(value string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(value), ":")
	if !ok {
		return 0, fmt.Errorf("invalid time of day %q: expected HH:MM", value)
	}
	hours, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("invalid hours in %q: %w", value, err)
	}
	minutes, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("invalid minutes in %q: %w", value, err)
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("time of day %q out of range", value)
	}
	return hours*60 + minutes, nil
}

// FormatTimeOfDay renders minutes since midnight as "HH:MM".
func FormatTimeOfDay(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// OccupiedCells returns the slot-grid starts covered by a booking of the given duration.
func OccupiedCells(start, durationMinutes int) []int {
	if durationMinutes <= 0 {
		return nil
	}
	cells := make([]int, 0, (durationMinutes+SlotGranularity-1)/SlotGranularity)
	for k := start; k < start+durationMinutes; k += SlotGranularity {
		cells = append(cells, k)
	}
	return cells
}

// GenerateSlots lists every 30-minute start in [openTime, closeTime] whose service fits
// before closing, marking a slot unavailable when it overlaps a booked cell or, for
// today's date, starts before the next bookable boundary after now.
//
// targetDate is YYYY-MM-DD; an empty value disables time filtering.
func GenerateSlots(openTime, closeTime string, durationMinutes int, bookedTimes []string, targetDate string, now time.Time) ([]Slot, error) {
	start, err := ParseTimeOfDay(openTime)
	if err != nil {
		return nil, err
	}
	end, err := ParseTimeOfDay(closeTime)
	if err != nil {
		return nil, err
	}
	if durationMinutes <= 0 {
		return nil, fmt.Errorf("duration must be positive, got %d", durationMinutes)
	}

	if end <= start {
		return []Slot{}, nil
	}

	booked := make(map[int]struct{}, len(bookedTimes))
	for _, raw := range bookedTimes {
		m, err := ParseTimeOfDay(raw)
		if err != nil {
			return nil, fmt.Errorf("booked time: %w", err)
		}
		booked[m] = struct{}{}
	}

	earliest := -1
	if targetDate != "" && targetDate == now.Format(dateLayout) {
		earliest = nextBoundary(now.Hour()*60 + now.Minute())
	}

	slots := make([]Slot, 0, (end-start)/SlotGranularity+1)
	for m := start; m+durationMinutes <= end; m += SlotGranularity {
		available := m >= earliest && !overlapsBooked(m, durationMinutes, booked)
		slots = append(slots, Slot{
			Time:      FormatTimeOfDay(m),
			Start:     m,
			Available: available,
		})
	}
	return slots, nil
}

// nextBoundary rounds up to the slot grid: ceil(minutes/30)*30.
func nextBoundary(minutes int) int {
	return (minutes + SlotGranularity - 1) / SlotGranularity * SlotGranularity
}

func overlapsBooked(start, durationMinutes int, booked map[int]struct{}) bool {
	if len(booked) == 0 {
		return false
	}
	for _, k := range OccupiedCells(start, durationMinutes) {
		if _, ok := booked[k]; ok {
			return true
		}
	}
	return false
}

// FindSlot returns the slot starting at the given "HH:MM", if any.
func FindSlot(slots []Slot, hhmm string) (Slot, bool) {
	m, err := ParseTimeOfDay(hhmm)
	if err != nil {
		return Slot{}, false
	}
	for _, s := range slots {
		if s.Start == m {
			return s, true
		}
	}
	return Slot{}, false
}

// ValidTimeOfDay reports whether value is a well-formed "HH:MM".
func ValidTimeOfDay(value string) bool {
	_, err := ParseTimeOfDay(value)
	return err == nil
}

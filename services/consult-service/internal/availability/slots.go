package availability

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Business-hour grid: one-hour slots from 09:00 up to (excluding) 17:00,
// for the 7 days following "now".
const (
	OpeningHour = 9
	ClosingHour = 17
	WindowDays  = 7
)

// Slot is an offerable appointment window. Analyst is a placeholder until an
// analyst is assigned at booking time.
type Slot struct {
	Date    string `json:"date"` // YYYY-MM-DD
	Time    string `json:"time"`
	Analyst string `json:"analyst"`
}

// Booking identifies an occupied slot by calendar day and hour label.
type Booking struct {
	Date string
	Time string
}

// HourLabel renders the label the booking UI uses for an hour slot.
// Deliberately not zero-padded: "9:00", never "09:00". Stored bookings use
// the same format, so availability matching is plain string equality.
func HourLabel(hour int) string {
	return fmt.Sprintf("%d:00", hour)
}

// ParseHourLabel returns the hour encoded in a slot label, or an error when
// the label is not an on-the-hour business label.
func ParseHourLabel(label string) (int, error) {
	h, ok := strings.CutSuffix(label, ":00")
	if !ok {
		return 0, fmt.Errorf("malformed slot time %q", label)
	}
	hour, err := strconv.Atoi(h)
	if err != nil || h != strconv.Itoa(hour) {
		// "09:00" parses but is not the canonical label; stored bookings
		// match by string equality, so it must not pass.
		return 0, fmt.Errorf("malformed slot time %q", label)
	}
	if hour < OpeningHour || hour >= ClosingHour {
		return 0, fmt.Errorf("slot time %q outside business hours", label)
	}
	return hour, nil
}

// Grid computes the free slots over the 7 days after now by subtracting the
// occupied slots from the full business-hour grid. Pure function of its
// inputs; callers recompute per request.
func Grid(booked []Booking, now time.Time) []Slot {
	taken := make(map[string]struct{}, len(booked))
	for _, b := range booked {
		taken[b.Date+"|"+b.Time] = struct{}{}
	}

	slots := make([]Slot, 0, WindowDays*(ClosingHour-OpeningHour))
	for day := 1; day <= WindowDays; day++ {
		date := now.AddDate(0, 0, day).Format("2006-01-02")
		for hour := OpeningHour; hour < ClosingHour; hour++ {
			label := HourLabel(hour)
			if _, ok := taken[date+"|"+label]; ok {
				continue
			}
			slots = append(slots, Slot{Date: date, Time: label, Analyst: "available"})
		}
	}
	return slots
}

// SlotStart resolves a (date, hour label) pair to the wall-clock start of the
// appointment in loc.
func SlotStart(date, label string, loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed slot date %q", date)
	}
	hour, err := ParseHourLabel(label)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, loc), nil
}

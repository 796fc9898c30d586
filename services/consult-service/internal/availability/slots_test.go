package availability

import (
	"testing"
	"time"
)

func TestGrid_FullWindow(t *testing.T) {
	now := time.Date(2024, 6, 9, 12, 0, 0, 0, time.UTC)

	slots := Grid(nil, now)
	if len(slots) != WindowDays*(ClosingHour-OpeningHour) {
		t.Fatalf("expected %d slots, got %d", WindowDays*(ClosingHour-OpeningHour), len(slots))
	}
	if slots[0].Date != "2024-06-10" || slots[0].Time != "9:00" {
		t.Fatalf("expected first slot 2024-06-10 9:00, got %s %s", slots[0].Date, slots[0].Time)
	}
	last := slots[len(slots)-1]
	if last.Date != "2024-06-16" || last.Time != "16:00" {
		t.Fatalf("expected last slot 2024-06-16 16:00, got %s %s", last.Date, last.Time)
	}
}

func TestGrid_ExcludesBooked(t *testing.T) {
	now := time.Date(2024, 6, 9, 12, 0, 0, 0, time.UTC)
	booked := []Booking{{Date: "2024-06-10", Time: "9:00"}}

	slots := Grid(booked, now)
	for _, s := range slots {
		if s.Date == "2024-06-10" && s.Time == "9:00" {
			t.Fatal("booked slot 2024-06-10 9:00 should be excluded")
		}
	}
	found := false
	for _, s := range slots {
		if s.Date == "2024-06-10" && s.Time == "10:00" {
			found = true
			break
		}
	}
	if !found {
		t.Fatal("free slot 2024-06-10 10:00 should be included")
	}
}

func TestGrid_LabelsNotZeroPadded(t *testing.T) {
	// A zero-padded booking must NOT match the grid's "9:00" label; the two
	// formats are deliberately distinct strings.
	now := time.Date(2024, 6, 9, 12, 0, 0, 0, time.UTC)
	booked := []Booking{{Date: "2024-06-10", Time: "09:00"}}

	slots := Grid(booked, now)
	found := false
	for _, s := range slots {
		if s.Date == "2024-06-10" && s.Time == "9:00" {
			found = true
			break
		}
	}
	if !found {
		t.Fatal("grid label is 9:00; a 09:00 booking must not shadow it")
	}
}

func TestGrid_Idempotent(t *testing.T) {
	now := time.Date(2024, 6, 9, 8, 30, 0, 0, time.UTC)
	booked := []Booking{
		{Date: "2024-06-11", Time: "13:00"},
		{Date: "2024-06-12", Time: "16:00"},
	}

	first := Grid(booked, now)
	second := Grid(booked, now)
	if len(first) != len(second) {
		t.Fatalf("grid not stable: %d vs %d slots", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("grid not stable at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestParseHourLabel(t *testing.T) {
	if h, err := ParseHourLabel("9:00"); err != nil || h != 9 {
		t.Fatalf("ParseHourLabel(9:00) = %d, %v", h, err)
	}
	if h, err := ParseHourLabel("16:00"); err != nil || h != 16 {
		t.Fatalf("ParseHourLabel(16:00) = %d, %v", h, err)
	}
	for _, bad := range []string{"17:00", "8:00", "9:30", "nine", ""} {
		if _, err := ParseHourLabel(bad); err == nil {
			t.Fatalf("ParseHourLabel(%q) should fail", bad)
		}
	}
}

func TestParseHourLabel_RejectsZeroPadded(t *testing.T) {
	// "09:00" would book a row the grid's "9:00" label never matches, so any
	// non-canonical rendering of the hour is malformed.
	for _, bad := range []string{"09:00", "012:00", "+9:00", " 9:00"} {
		if h, err := ParseHourLabel(bad); err == nil {
			t.Fatalf("ParseHourLabel(%q) = %d, want rejection", bad, h)
		}
	}
}

func TestSlotStart(t *testing.T) {
	start, err := SlotStart("2024-06-10", "9:00", time.UTC)
	if err != nil {
		t.Fatalf("SlotStart failed: %v", err)
	}
	want := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	if !start.Equal(want) {
		t.Fatalf("expected %s, got %s", want, start)
	}
	if _, err := SlotStart("tomorrow", "9:00", time.UTC); err == nil {
		t.Fatal("expected error for malformed date")
	}
}

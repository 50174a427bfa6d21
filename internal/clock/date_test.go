package clock

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-03-09")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if d != (Date{Year: 2026, Month: time.March, Day: 9}) {
		t.Errorf("date = %+v", d)
	}
	if d.String() != "2026-03-09" {
		t.Errorf("String = %q", d.String())
	}

	if _, err := ParseDate("03/09/2026"); err == nil {
		t.Error("expected error for non-ISO date")
	}
}

func TestAddDaysCrossesMonth(t *testing.T) {
	d := Date{Year: 2026, Month: time.January, Day: 31}
	if got := d.AddDays(1); got != (Date{Year: 2026, Month: time.February, Day: 1}) {
		t.Errorf("AddDays(1) = %v", got)
	}
	if got := d.AddDays(-31); got != (Date{Year: 2025, Month: time.December, Day: 31}) {
		t.Errorf("AddDays(-31) = %v", got)
	}
}

func TestAddMonthsClampsDay(t *testing.T) {
	d := Date{Year: 2026, Month: time.January, Day: 31}
	if got := d.AddMonths(1); got != (Date{Year: 2026, Month: time.February, Day: 28}) {
		t.Errorf("AddMonths(1) = %v", got)
	}
	if got := d.AddMonths(-1); got != (Date{Year: 2025, Month: time.December, Day: 31}) {
		t.Errorf("AddMonths(-1) = %v", got)
	}
}

func TestDateAt(t *testing.T) {
	d := Date{Year: 2026, Month: time.October, Day: 19}
	at := d.At(7, 30, time.UTC)
	want := time.Date(2026, time.October, 19, 7, 30, 0, 0, time.UTC)
	if !at.Equal(want) {
		t.Errorf("At = %v, want %v", at, want)
	}
	if !DateOf(at).Equal(d) {
		t.Error("DateOf(At) should round-trip")
	}
}

func TestManualClock(t *testing.T) {
	start := time.Date(2026, time.October, 19, 7, 29, 0, 0, time.UTC)
	c := NewManual(start)
	if !c.Now().Equal(start) {
		t.Fatalf("Now = %v", c.Now())
	}
	got := c.Advance(time.Minute)
	if got.Minute() != 30 {
		t.Errorf("after advance minute = %d", got.Minute())
	}
}

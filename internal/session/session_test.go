package session

import (
	"testing"
	"time"
)

func at(hour, min int) time.Time {
	return time.Date(2024, 1, 10, hour, min, 0, 0, time.UTC) // Wednesday
}

func TestKillzone_Contains(t *testing.T) {
	kz := ParseKillzone("07:00", "16:00")

	cases := []struct {
		ts   time.Time
		want bool
	}{
		{at(7, 0), true},
		{at(12, 30), true},
		{at(16, 0), true},
		{at(6, 59), false},
		{at(16, 1), false},
		{at(23, 0), false},
	}
	for _, tc := range cases {
		if got := kz.Contains(tc.ts); got != tc.want {
			t.Errorf("Contains(%s) = %v, want %v", tc.ts.Format("15:04"), got, tc.want)
		}
	}
}

func TestKillzone_MidnightWrap(t *testing.T) {
	kz := ParseKillzone("22:00", "02:00")

	if !kz.Contains(at(23, 30)) {
		t.Error("23:30 should be inside 22:00–02:00")
	}
	if !kz.Contains(at(1, 0)) {
		t.Error("01:00 should be inside 22:00–02:00")
	}
	if kz.Contains(at(12, 0)) {
		t.Error("12:00 should be outside 22:00–02:00")
	}
}

func TestKillzone_UnparsableIsPermissive(t *testing.T) {
	for _, bounds := range [][2]string{
		{"", ""},
		{"banana", "16:00"},
		{"07:00", "25:99"},
	} {
		kz := ParseKillzone(bounds[0], bounds[1])
		if kz.Bounded() {
			t.Errorf("ParseKillzone(%q, %q) should be unbounded", bounds[0], bounds[1])
		}
		if !kz.Contains(at(3, 33)) {
			t.Errorf("permissive window rejected a time for bounds %v", bounds)
		}
	}
}

func TestKillzone_NonUTCInput(t *testing.T) {
	kz := ParseKillzone("07:00", "16:00")
	ist := time.FixedZone("IST", 5*3600+1800)
	// 17:30 IST = 12:00 UTC, inside the window.
	if !kz.Contains(time.Date(2024, 1, 10, 17, 30, 0, 0, ist)) {
		t.Error("window check must normalize to UTC")
	}
}

func TestIsWeekend(t *testing.T) {
	sat := time.Date(2024, 1, 13, 12, 0, 0, 0, time.UTC)
	sun := time.Date(2024, 1, 14, 12, 0, 0, 0, time.UTC)
	mon := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

	if !IsWeekend(sat) || !IsWeekend(sun) {
		t.Error("saturday/sunday not flagged as weekend")
	}
	if IsWeekend(mon) {
		t.Error("monday flagged as weekend")
	}
}

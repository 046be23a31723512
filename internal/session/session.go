// Package session provides trading-session time checks: killzone windows
// during which signal generation is permitted, and weekend detection for
// the zone detector's context filters.
package session

import (
	"fmt"
	"time"
)

// Killzone is a configured time-of-day window (UTC). A zero Killzone is
// permissive: it contains every time. Windows may wrap midnight
// (e.g. 22:00–02:00).
type Killzone struct {
	startMin int // minutes since midnight UTC
	endMin   int
	bounded  bool
}

// ParseKillzone builds a Killzone from "HH:MM" bounds. Unparsable bounds
// yield a permissive window, never an error — a broken clock config must
// not silently suppress every signal.
func ParseKillzone(start, end string) Killzone {
	s, err1 := parseHHMM(start)
	e, err2 := parseHHMM(end)
	if err1 != nil || err2 != nil {
		return Killzone{}
	}
	return Killzone{startMin: s, endMin: e, bounded: true}
}

// Contains reports whether t's time of day (UTC) falls inside the window.
func (k Killzone) Contains(t time.Time) bool {
	if !k.bounded {
		return true
	}
	hm := t.UTC().Hour()*60 + t.UTC().Minute()
	if k.startMin <= k.endMin {
		return hm >= k.startMin && hm <= k.endMin
	}
	// Window wraps midnight
	return hm >= k.startMin || hm <= k.endMin
}

// Bounded reports whether the window actually restricts anything.
func (k Killzone) Bounded() bool { return k.bounded }

// IsWeekend returns true for Saturday and Sunday (UTC).
func IsWeekend(t time.Time) bool {
	wd := t.UTC().Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func parseHHMM(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, err
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("out of range: %q", s)
	}
	return h*60 + m, nil
}

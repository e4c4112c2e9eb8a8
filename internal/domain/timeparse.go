package domain

import (
	"regexp"
	"strconv"
	"time"
)

// clockTimeRe matches the first clock-time run in a fragment: a 1-2 digit
// hour, an optional colon, and exactly two minute digits. Covers "09:28",
// "0928", "9:05" and the same with trailing "hours".
var clockTimeRe = regexp.MustCompile(`(\d{1,2}):?(\d{2})`)

// ResolveClockTime resolves a bare clock-time fragment against an anchor
// timestamp, returning the anchor's date and offset with the hour and minute
// replaced and seconds zeroed. It reports false when the fragment holds no
// clock time, the hour or minute is out of range, or the anchor itself is
// unusable (zero value, e.g. from a malformed serialized date).
func ResolveClockTime(fragment string, anchor time.Time) (time.Time, bool) {
	if anchor.IsZero() {
		return time.Time{}, false
	}

	m := clockTimeRe.FindStringSubmatch(fragment)
	if m == nil {
		return time.Time{}, false
	}

	hour, errH := strconv.Atoi(m[1])
	mins, errM := strconv.Atoi(m[2])
	if errH != nil || errM != nil || hour > 23 || mins > 59 {
		return time.Time{}, false
	}

	return time.Date(
		anchor.Year(), anchor.Month(), anchor.Day(),
		hour, mins, 0, 0, anchor.Location(),
	), true
}

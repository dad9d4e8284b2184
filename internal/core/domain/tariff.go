package domain

import (
	"fmt"
	"regexp"
	"time"
)

// NightWindow is the nightly tariff window parsed from an
// "HH:MM-HH:MM" config value, as minute-of-day offsets.
//
// The window is expected to wrap around midnight (start > stop, e.g.
// 23:30-06:30). A time counts as night when it is at or after the start
// OR at or before the stop, with the stop boundary inclusive. A
// non-wrapping window (start <= stop) therefore degenerates to "always
// night"; callers configuring the window must keep it wrapping.
type NightWindow struct {
	StartMinute int
	StopMinute  int
}

var nightWindowRegexp = regexp.MustCompile(`^([0-9]{1,2}):([0-9]{2})-([0-9]{1,2}):([0-9]{2})$`)

func ParseNightWindow(window string) (NightWindow, error) {
	matches := nightWindowRegexp.FindStringSubmatch(window)
	if matches == nil {
		return NightWindow{}, fmt.Errorf("night window %q is not of the form HH:MM-HH:MM", window)
	}
	minutes := make([]int, 4)
	for i, m := range matches[1:] {
		// the regexp guarantees digits
		v := 0
		for _, c := range m {
			v = v*10 + int(c-'0')
		}
		minutes[i] = v
	}
	if minutes[0] > 23 || minutes[2] > 23 || minutes[1] > 59 || minutes[3] > 59 {
		return NightWindow{}, fmt.Errorf("night window %q is out of range", window)
	}
	return NightWindow{
		StartMinute: minutes[0]*60 + minutes[1],
		StopMinute:  minutes[2]*60 + minutes[3],
	}, nil
}

// Contains reports whether t falls inside the wrapping night window.
func (w NightWindow) Contains(t time.Time) bool {
	nowMinutes := t.Hour()*60 + t.Minute()
	return nowMinutes >= w.StartMinute || nowMinutes <= w.StopMinute
}

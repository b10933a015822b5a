// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"fmt"
	"time"
)

// Remaining is the time left until deadline, clamped at zero. A zero deadline
// means no deadline and also yields zero.
func Remaining(deadline, now time.Time) time.Duration {
	if deadline.IsZero() {
		return 0
	}
	d := deadline.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Countdown formats d as m:ss, rounding partial seconds up so a countdown
// never shows 0:00 while time remains.
func Countdown(d time.Duration) string {
	if d <= 0 {
		return "0:00"
	}
	secs := int64((d + time.Second - 1) / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// Expired reports whether a set deadline has passed.
func Expired(deadline, now time.Time) bool {
	return !deadline.IsZero() && !now.Before(deadline)
}

package util

import "time"

const (
	secondsCutoff = 1e11 // ~ year 5138 in seconds, ~ 1973 in millis
	millisCutoff  = 1e14
	microsCutoff  = 1e17
)

// FromUnixAuto converts an epoch timestamp of unknown unit (s, ms, us or ns)
// into UTC time. Exchanges disagree on the unit, so it is inferred from magnitude.
func FromUnixAuto(ts int64) time.Time {
	switch {
	case ts <= 0:
		return time.Time{}
	case ts < secondsCutoff:
		return time.Unix(ts, 0).UTC()
	case ts < millisCutoff:
		return time.UnixMilli(ts).UTC()
	case ts < microsCutoff:
		return time.UnixMicro(ts).UTC()
	default:
		return time.Unix(0, ts).UTC()
	}
}

// BucketStart truncates t to the start of its width-sized bucket.
// A non-positive width returns t unchanged.
func BucketStart(t time.Time, width time.Duration) time.Time {
	if width <= 0 {
		return t
	}
	return t.Truncate(width)
}

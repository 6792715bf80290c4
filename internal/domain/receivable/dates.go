package receivable

import "time"

// japanOffset is the fixed UTC offset of Japan Standard Time (no DST).
const japanOffset = 9 * time.Hour

var jst = time.FixedZone("JST", int(japanOffset.Seconds()))

// JapanMidnight returns 00:00 JST of t's Japan calendar date, expressed in UTC.
// A date submitted as 2024-03-01 (UTC midnight) becomes 2024-02-29T15:00:00Z.
// Applying it to its own output is a no-op.
func JapanMidnight(t time.Time) time.Time {
	y, m, d := t.In(jst).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, jst).UTC()
}

// JapanDate returns the JST calendar date of a stored instant as a UTC midnight.
func JapanDate(t time.Time) time.Time {
	y, m, d := t.In(jst).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

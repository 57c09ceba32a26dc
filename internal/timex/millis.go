package timex

import (
	"fmt"
	"time"
)

// ISOLayout is the remote timestamp format: RFC 3339 in UTC with exactly
// millisecond precision, so that ToISO and FromISO are inverses.
const ISOLayout = "2006-01-02T15:04:05.000Z07:00"

// NowMillis returns the current time as epoch milliseconds.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}

// ToISO formats epoch milliseconds as an ISO-8601 string in UTC.
func ToISO(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(ISOLayout)
}

// FromISO parses any RFC 3339 timestamp (with or without fractional seconds,
// any offset) into epoch milliseconds. Sub-millisecond precision is truncated.
func FromISO(s string) (int64, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t.UnixMilli(), nil
}

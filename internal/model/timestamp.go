package model

import (
	"bytes"
	"fmt"
	"time"
)

// TimeLayout is the boundary format for every instant: yyyy-MM-dd HH:mm:ss.
const TimeLayout = "2006-01-02 15:04:05"

// Zone is the fixed timezone instants are rendered in.
var Zone = time.UTC

// Timestamp is a time.Time that serializes with TimeLayout.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t, dropping sub-second precision.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: Truncate(t)}
}

// Truncate normalizes t to whole seconds in Zone so it survives a round-trip
// through TimeLayout.
func Truncate(t time.Time) time.Time {
	return t.Truncate(time.Second).In(Zone)
}

// FormatTime renders t with TimeLayout.
func FormatTime(t time.Time) string {
	return t.In(Zone).Format(TimeLayout)
}

// ParseTime parses s with TimeLayout in Zone.
func ParseTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(TimeLayout, s, Zone)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: expected format %s", s, TimeLayout)
	}
	return t, nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + FormatTime(t.Time) + `"`), nil
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("timestamp must be a string in format %s", TimeLayout)
	}
	parsed, err := ParseTime(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// BackendTimeLayout is the local wall-clock layout the backend accepts for
// scheduling fields such as preferredTime.
const BackendTimeLayout = "2006-01-02 15:04:05"

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	BackendTimeLayout,
	"2006-01-02 15:04",
	"2006-01-02",
}

// Timestamp decodes the handful of date formats the backend emits. Naive
// timestamps (no zone) are read in local time.
type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) *Timestamp {
	return &Timestamp{Time: t}
}

// ParseTimestamp parses s with the accepted layouts.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// Some endpoints send epoch milliseconds.
		var ms int64
		if err2 := json.Unmarshal(data, &ms); err2 != nil {
			return fmt.Errorf("timestamp: %w", err)
		}
		t.Time = time.UnixMilli(ms)
		return nil
	}
	if s == "" {
		return nil
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339))
}

// FormatBackendTime renders t in the backend's scheduling layout, local time.
func FormatBackendTime(t time.Time) string {
	return t.Local().Format(BackendTimeLayout)
}

package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Sentinel values used when a detection lacks the field a chain stage needs.
const (
	SentinelUser = "System"
	SentinelHost = "Unknown Host"
	SentinelIP   = "0.0.0.0"
	SentinelOS   = "Unknown OS"
)

// Detection represents one vendor-reported telemetry event. The schema is
// open: fields are sparse and vendor-specific, and no field is guaranteed
// to be present.
type Detection struct {
	UUID      string                 `json:"uuid,omitempty"`
	EventTime time.Time              `json:"event_time,omitzero"`
	Fields    map[string]interface{} `json:"fields"`
	RuleTags  []RuleTag              `json:"rule_tags,omitempty"`
}

// Field returns a field value as a string, or "" when absent.
func (d *Detection) Field(name string) string {
	if d == nil || d.Fields == nil {
		return ""
	}
	if v, ok := d.Fields[name]; ok {
		switch val := v.(type) {
		case string:
			return val
		case fmt.Stringer:
			return val.String()
		case int:
			return strconv.Itoa(val)
		case int64:
			return strconv.FormatInt(val, 10)
		case float64:
			if val == float64(int64(val)) {
				return strconv.FormatInt(int64(val), 10)
			}
			return strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			if val {
				return "true"
			}
			return "false"
		default:
			return fmt.Sprintf("%v", val)
		}
	}
	return ""
}

// First returns the first non-empty value among the named fields.
func (d *Detection) First(names ...string) string {
	for _, name := range names {
		if v := d.Field(name); v != "" {
			return v
		}
	}
	return ""
}

// Score returns the numeric score field, or 0 when absent or unparseable.
func (d *Detection) Score() int {
	raw := d.Field("score")
	if raw == "" {
		return 0
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return int(f)
	}
	return 0
}

// FromMap builds a Detection from a raw vendor item. The uuid and eventTime
// fields are lifted out of the map; eventTime parse failures leave the
// timestamp zero rather than failing the record.
func FromMap(raw map[string]interface{}) *Detection {
	d := &Detection{Fields: raw}
	if raw == nil {
		d.Fields = map[string]interface{}{}
		return d
	}
	if v, ok := raw["uuid"].(string); ok {
		d.UUID = v
	}
	if v, ok := raw["eventTime"]; ok {
		// JSON numbers decode as float64; format them back to integral
		// milliseconds before parsing.
		var s string
		if f, ok := v.(float64); ok {
			s = strconv.FormatInt(int64(f), 10)
		} else {
			s = fmt.Sprintf("%v", v)
		}
		if t, ok := ParseEventTime(s); ok {
			d.EventTime = t
		}
	}
	return d
}

// FromMaps converts a batch of raw vendor items.
func FromMaps(items []map[string]interface{}) []*Detection {
	out := make([]*Detection, 0, len(items))
	for _, item := range items {
		out = append(out, FromMap(item))
	}
	return out
}

// ParseEventTime parses the vendor timestamp formats, plus epoch
// milliseconds, which some regions emit.
func ParseEventTime(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}

	for _, layout := range []string{
		"2006-01-02T15:04:05Z0700",
		"2006-01-02 15:04:05.000",
		"2006-01-02 15:04:05",
	} {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t.UTC(), true
		}
	}

	if ms, err := strconv.ParseInt(value, 10, 64); err == nil && ms > 1e12 {
		return time.UnixMilli(ms).UTC(), true
	}

	return time.Time{}, false
}

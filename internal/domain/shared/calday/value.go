package calday

import (
	"math"
	"strings"
	"time"
)

// Kind tags the shape a stored date arrived in.
type Kind int

const (
	KindNone Kind = iota
	KindTimestamp
	KindISOString
	KindEpochSeconds
)

func (k Kind) String() string {
	switch k {
	case KindTimestamp:
		return "timestamp"
	case KindISOString:
		return "iso_string"
	case KindEpochSeconds:
		return "epoch_seconds"
	default:
		return "none"
	}
}

// Value is a stored date in one of the tolerated representations.
// Normalize it with Day before comparing.
type Value struct {
	kind    Kind
	ts      time.Time
	iso     string
	seconds int64
}

func None() Value { return Value{} }

func Timestamp(t time.Time) Value {
	if t.IsZero() {
		return None()
	}
	return Value{kind: KindTimestamp, ts: t}
}

func ISOString(s string) Value { return Value{kind: KindISOString, iso: s} }

func EpochSeconds(sec int64) Value { return Value{kind: KindEpochSeconds, seconds: sec} }

// FromDay wraps an already normalized day. It is kept as a plain date so
// it reads back as the same day in every zone.
func FromDay(d Day) Value {
	if d.IsZero() {
		return None()
	}
	return ISOString(d.String())
}

func (v Value) Kind() Kind { return v.kind }

var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	Layout,
}

// Day normalizes the value to a calendar day in the local zone.
func (v Value) Day() (Day, bool) {
	return v.DayIn(time.Local)
}

// DayIn normalizes the value to a calendar day in loc. Timestamps, epoch
// seconds and ISO strings carrying an offset are instants and are moved to
// loc first; ISO strings without an offset are wall-clock times in loc. ok
// is false for None and for values that carry no recognizable date.
func (v Value) DayIn(loc *time.Location) (Day, bool) {
	if loc == nil {
		loc = time.Local
	}
	switch v.kind {
	case KindTimestamp:
		if v.ts.IsZero() {
			return Day{}, false
		}
		return FromTime(v.ts.In(loc)), true
	case KindISOString:
		raw := strings.TrimSpace(v.iso)
		if raw == "" {
			return Day{}, false
		}
		for _, layout := range isoLayouts {
			if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
				return FromTime(t.In(loc)), true
			}
		}
		return Day{}, false
	case KindEpochSeconds:
		if v.seconds == 0 {
			return Day{}, false
		}
		return FromTime(time.Unix(v.seconds, 0).In(loc)), true
	default:
		return Day{}, false
	}
}

// ValueFromAny classifies a loosely typed document field.
func ValueFromAny(raw any) Value {
	switch x := raw.(type) {
	case nil:
		return None()
	case Value:
		return x
	case Day:
		return FromDay(x)
	case time.Time:
		return Timestamp(x)
	case *time.Time:
		if x == nil {
			return None()
		}
		return Timestamp(*x)
	case interface{ Time() time.Time }:
		return Timestamp(x.Time())
	case string:
		return ISOString(x)
	case int:
		return EpochSeconds(int64(x))
	case int32:
		return EpochSeconds(int64(x))
	case int64:
		return EpochSeconds(x)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return None()
		}
		return EpochSeconds(int64(x))
	case map[string]any:
		return secondsField(x["seconds"])
	default:
		return None()
	}
}

func secondsField(raw any) Value {
	switch s := raw.(type) {
	case int:
		return EpochSeconds(int64(s))
	case int32:
		return EpochSeconds(int64(s))
	case int64:
		return EpochSeconds(s)
	case float64:
		return EpochSeconds(int64(s))
	default:
		return None()
	}
}

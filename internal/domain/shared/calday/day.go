package calday

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

const Layout = "2006-01-02"

var ErrInvalidDay = errors.New("calday: invalid calendar day")

// Day is a calendar date without a time of day. The zero value means "no day".
type Day struct {
	t time.Time
}

// New builds a Day from its calendar components.
func New(year int, month time.Month, day int) Day {
	return Day{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// FromTime projects t onto the calendar of its own location.
func FromTime(t time.Time) Day {
	if t.IsZero() {
		return Day{}
	}
	y, m, d := t.Date()
	return New(y, m, d)
}

// Today returns the current calendar day in loc (UTC when nil).
func Today(now time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.UTC
	}
	return FromTime(now.In(loc))
}

func ParseDay(raw string) (Day, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Day{}, ErrInvalidDay
	}
	t, err := time.Parse(Layout, raw)
	if err != nil {
		return Day{}, ErrInvalidDay
	}
	return FromTime(t), nil
}

func MustParse(raw string) Day {
	d, err := ParseDay(raw)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Day) IsZero() bool { return d.t.IsZero() }

func (d Day) AddDays(n int) Day {
	if d.IsZero() {
		return d
	}
	return Day{t: d.t.AddDate(0, 0, n)}
}

func (d Day) Before(other Day) bool { return d.t.Before(other.t) }

func (d Day) After(other Day) bool { return d.t.After(other.t) }

func (d Day) Equal(other Day) bool { return d.t.Equal(other.t) }

// Compare returns -1, 0 or +1.
func (d Day) Compare(other Day) int { return d.t.Compare(other.t) }

// Sub returns the number of whole days between other and d.
func (d Day) Sub(other Day) int {
	return int(d.t.Sub(other.t).Hours() / 24)
}

// Time returns midnight UTC of the day.
func (d Day) Time() time.Time { return d.t }

func (d Day) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(Layout)
}

func (d Day) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Day) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Day{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if strings.TrimSpace(raw) == "" {
		*d = Day{}
		return nil
	}
	v, ok := ISOString(raw).Day()
	if !ok {
		return ErrInvalidDay
	}
	*d = v
	return nil
}

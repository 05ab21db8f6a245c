package daterange

import (
	"errors"

	"motelbook/internal/domain/shared/calday"
)

var (
	ErrInvalidRange = errors.New("daterange: check-out must be after check-in")
)

// DateRange represents a half-open interval of calendar days [checkIn, checkOut).
type DateRange struct {
	CheckIn  calday.Day `json:"check_in"`
	CheckOut calday.Day `json:"check_out"`
}

func New(checkIn, checkOut calday.Day) (DateRange, error) {
	dr := DateRange{CheckIn: checkIn, CheckOut: checkOut}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

// WithDefaultCheckOut fills a missing check-out with the day after check-in.
func WithDefaultCheckOut(checkIn, checkOut calday.Day) (DateRange, error) {
	if checkOut.IsZero() {
		checkOut = checkIn.AddDays(1)
	}
	return New(checkIn, checkOut)
}

func (dr DateRange) Validate() error {
	if dr.CheckIn.IsZero() || dr.CheckOut.IsZero() {
		return ErrInvalidRange
	}
	if !dr.CheckOut.After(dr.CheckIn) {
		return ErrInvalidRange
	}
	return nil
}

func (dr DateRange) Nights() int {
	return dr.CheckOut.Sub(dr.CheckIn)
}

// Overlaps is the strict half-open interval test.
func (dr DateRange) Overlaps(other DateRange) bool {
	return dr.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(dr.CheckOut)
}

func (dr DateRange) ContainsDay(d calday.Day) bool {
	return !d.Before(dr.CheckIn) && d.Before(dr.CheckOut)
}

// Pad widens the range by before days at the start and after days at the end.
// Negative values shrink it. The result is not validated.
func (dr DateRange) Pad(before, after int) DateRange {
	return DateRange{CheckIn: dr.CheckIn.AddDays(-before), CheckOut: dr.CheckOut.AddDays(after)}
}

func (dr DateRange) Days() []calday.Day {
	n := dr.Nights()
	if n <= 0 {
		return nil
	}
	out := make([]calday.Day, 0, n)
	for d := dr.CheckIn; d.Before(dr.CheckOut); d = d.AddDays(1) {
		out = append(out, d)
	}
	return out
}

func (dr DateRange) String() string {
	return dr.CheckIn.String() + ".." + dr.CheckOut.String()
}

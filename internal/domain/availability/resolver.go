package availability

import (
	"sort"
	"time"

	"motelbook/internal/domain/booking"
	"motelbook/internal/domain/inventory"
	"motelbook/internal/domain/shared/calday"
	"motelbook/internal/domain/shared/daterange"
)

// DefaultTurnaroundDays is the buffer kept on each side of a stored booking.
const DefaultTurnaroundDays = 1

// Resolver computes which units are taken for a candidate stay. It holds no
// state between calls and never fails: records whose dates cannot be read
// are left out of the conflict set.
type Resolver struct {
	TurnaroundDays int
	// Location is the zone every stored date shape is read in. Nil means
	// the local zone.
	Location *time.Location
}

func (r Resolver) location() *time.Location {
	if r.Location == nil {
		return time.Local
	}
	return r.Location
}

func (r Resolver) pad() int {
	if r.TurnaroundDays <= 0 {
		return DefaultTurnaroundDays
	}
	return r.TurnaroundDays
}

// Booked returns the rooms and sites whose stored bookings collide with the
// candidate range. The stored range is widened by the turnaround on both
// sides while the candidate end is pulled back by one day, so a same-day
// turnover is reported as a conflict.
func (r Resolver) Booked(records []booking.Record, candidate daterange.DateRange, exclude booking.ID) BookedSet {
	set := NewBookedSet()
	if candidate.CheckIn.IsZero() || candidate.CheckOut.IsZero() {
		return set
	}
	pad := r.pad()
	loc := r.location()
	candStart := candidate.CheckIn
	candEnd := candidate.CheckOut.AddDays(-1)

	for _, rec := range records {
		if exclude != "" && rec.ID == exclude {
			continue
		}
		if rec.Cancelled {
			continue
		}
		in, ok := rec.CheckIn.DayIn(loc)
		if !ok {
			continue
		}
		out, ok := rec.CheckOut.DayIn(loc)
		if !ok {
			continue
		}
		paddedStart := in.AddDays(-pad)
		paddedEnd := out.AddDays(pad)
		if !(candStart.Before(paddedEnd) && paddedStart.Before(candEnd)) {
			continue
		}
		set.add(rec)
	}
	return set
}

// OccupiedOn reports the units whose padded stay strictly contains day.
func (r Resolver) OccupiedOn(records []booking.Record, day calday.Day) BookedSet {
	set := NewBookedSet()
	if day.IsZero() {
		return set
	}
	pad := r.pad()
	loc := r.location()
	for _, rec := range records {
		if rec.Cancelled {
			continue
		}
		in, ok := rec.CheckIn.DayIn(loc)
		if !ok {
			continue
		}
		out, ok := rec.CheckOut.DayIn(loc)
		if !ok {
			continue
		}
		if in.AddDays(-pad).Before(day) && day.Before(out.AddDays(pad)) {
			set.add(rec)
		}
	}
	return set
}

var defaultResolver = Resolver{TurnaroundDays: DefaultTurnaroundDays}

// Resolve runs the default resolver.
func Resolve(records []booking.Record, candidate daterange.DateRange, exclude booking.ID) BookedSet {
	return defaultResolver.Booked(records, candidate, exclude)
}

// OccupiedOn runs the default resolver's day check.
func OccupiedOn(records []booking.Record, day calday.Day) BookedSet {
	return defaultResolver.OccupiedOn(records, day)
}

// CheckInDays returns the distinct check-in days of live bookings in order.
func (r Resolver) CheckInDays(records []booking.Record) []calday.Day {
	loc := r.location()
	seen := make(map[calday.Day]struct{})
	out := make([]calday.Day, 0, len(records))
	for _, rec := range records {
		if rec.Cancelled {
			continue
		}
		day, ok := rec.CheckIn.DayIn(loc)
		if !ok {
			continue
		}
		if _, dup := seen[day]; dup {
			continue
		}
		seen[day] = struct{}{}
		out = append(out, day)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Available splits units into free and taken lists. keep is the unit already
// assigned to the booking being edited and always counts as free.
func Available(units []*inventory.Unit, set BookedSet, keep booking.UnitRef) (free, taken []*inventory.Unit) {
	for _, u := range units {
		if u == nil {
			continue
		}
		ref := booking.UnitRef{Kind: u.Kind, ID: u.ID}
		if !keep.IsZero() && ref == keep {
			free = append(free, u)
			continue
		}
		if set.Has(ref) {
			taken = append(taken, u)
			continue
		}
		free = append(free, u)
	}
	return free, taken
}

package booking

import "motelbook/internal/domain/shared/calday"

// Record is the minimal stored shape the availability resolver reads. Dates
// keep whatever representation the document carried.
type Record struct {
	ID        ID
	RoomID    string
	SiteID    string
	CheckIn   calday.Value
	CheckOut  calday.Value
	Cancelled bool
}

func (r Record) Unit() (UnitRef, bool) {
	ref, err := UnitFromIDs(r.RoomID, r.SiteID)
	if err != nil {
		return UnitRef{}, false
	}
	return ref, true
}

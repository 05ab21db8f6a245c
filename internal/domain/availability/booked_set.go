package availability

import (
	"sort"

	"motelbook/internal/domain/booking"
	"motelbook/internal/domain/inventory"
)

// BookedSet holds the room and site ids found busy. Rooms and sites are kept
// apart so an id never leaks across inventories.
type BookedSet struct {
	Rooms map[string]struct{}
	Sites map[string]struct{}
}

func NewBookedSet() BookedSet {
	return BookedSet{Rooms: map[string]struct{}{}, Sites: map[string]struct{}{}}
}

func (s BookedSet) add(rec booking.Record) {
	if rec.RoomID != "" {
		s.Rooms[rec.RoomID] = struct{}{}
	}
	if rec.SiteID != "" {
		s.Sites[rec.SiteID] = struct{}{}
	}
}

func (s BookedSet) RoomBooked(id string) bool {
	_, ok := s.Rooms[id]
	return ok
}

func (s BookedSet) SiteBooked(id string) bool {
	_, ok := s.Sites[id]
	return ok
}

func (s BookedSet) Has(ref booking.UnitRef) bool {
	switch ref.Kind {
	case inventory.KindRoom:
		return s.RoomBooked(string(ref.ID))
	case inventory.KindSite:
		return s.SiteBooked(string(ref.ID))
	default:
		return false
	}
}

func (s BookedSet) Len() int { return len(s.Rooms) + len(s.Sites) }

func (s BookedSet) RoomIDs() []string { return sortedKeys(s.Rooms) }

func (s BookedSet) SiteIDs() []string { return sortedKeys(s.Sites) }

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

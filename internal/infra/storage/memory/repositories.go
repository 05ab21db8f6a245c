package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	domainbooking "motelbook/internal/domain/booking"
	domainhotel "motelbook/internal/domain/hotel"
	domaininventory "motelbook/internal/domain/inventory"
	domainuser "motelbook/internal/domain/user"
)

// HotelRepository is an in-memory implementation for demo purposes.
type HotelRepository struct {
	mu    sync.RWMutex
	items map[domainhotel.ID]*domainhotel.Hotel
}

func NewHotelRepository() *HotelRepository {
	return &HotelRepository{items: make(map[domainhotel.ID]*domainhotel.Hotel)}
}

func (r *HotelRepository) ByID(ctx context.Context, id domainhotel.ID) (*domainhotel.Hotel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.items[id]
	if !ok {
		return nil, domainhotel.ErrNotFound
	}
	return cloneHotel(h), nil
}

func (r *HotelRepository) Save(ctx context.Context, h *domainhotel.Hotel) error {
	if h == nil || strings.TrimSpace(string(h.ID)) == "" {
		return domainhotel.ErrIDRequired
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := cloneHotel(h)
	stored.Version++
	h.Version = stored.Version
	r.items[h.ID] = stored
	return nil
}

func (r *HotelRepository) Delete(ctx context.Context, id domainhotel.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domainhotel.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *HotelRepository) List(ctx context.Context) ([]*domainhotel.Hotel, error) {
	return r.filter(func(*domainhotel.Hotel) bool { return true }), nil
}

func (r *HotelRepository) ListForStaff(ctx context.Context, userID domainuser.ID) ([]*domainhotel.Hotel, error) {
	return r.filter(func(h *domainhotel.Hotel) bool { return h.HasStaff(userID) }), nil
}

func (r *HotelRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items), nil
}

func (r *HotelRepository) filter(keep func(*domainhotel.Hotel) bool) []*domainhotel.Hotel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainhotel.Hotel, 0, len(r.items))
	for _, h := range r.items {
		if keep(h) {
			out = append(out, cloneHotel(h))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func cloneHotel(h *domainhotel.Hotel) *domainhotel.Hotel {
	c := *h
	c.StaffIDs = append([]domainuser.ID(nil), h.StaffIDs...)
	return &c
}

// UnitRepository stores rooms and sites.
type UnitRepository struct {
	mu    sync.RWMutex
	items map[domaininventory.ID]*domaininventory.Unit
}

func NewUnitRepository() *UnitRepository {
	return &UnitRepository{items: make(map[domaininventory.ID]*domaininventory.Unit)}
}

func (r *UnitRepository) ByID(ctx context.Context, id domaininventory.ID) (*domaininventory.Unit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.items[id]
	if !ok {
		return nil, domaininventory.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (r *UnitRepository) Save(ctx context.Context, u *domaininventory.Unit) error {
	if u == nil || strings.TrimSpace(string(u.ID)) == "" {
		return domaininventory.ErrIDRequired
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, other := range r.items {
		if id != u.ID && other.HotelID == u.HotelID && other.Kind == u.Kind && strings.EqualFold(other.Number, u.Number) {
			return domaininventory.ErrNumberTaken
		}
	}
	c := *u
	c.Version++
	u.Version = c.Version
	r.items[u.ID] = &c
	return nil
}

func (r *UnitRepository) Delete(ctx context.Context, id domaininventory.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domaininventory.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *UnitRepository) ListByHotel(ctx context.Context, hotelID domainhotel.ID, kind domaininventory.Kind) ([]*domaininventory.Unit, error) {
	return r.filter(func(u *domaininventory.Unit) bool {
		return u.HotelID == hotelID && (kind == "" || u.Kind == kind)
	}), nil
}

func (r *UnitRepository) List(ctx context.Context, kind domaininventory.Kind) ([]*domaininventory.Unit, error) {
	return r.filter(func(u *domaininventory.Unit) bool { return kind == "" || u.Kind == kind }), nil
}

func (r *UnitRepository) CountByHotel(ctx context.Context, hotelID domainhotel.ID) (int, error) {
	units, _ := r.ListByHotel(ctx, hotelID, "")
	return len(units), nil
}

func (r *UnitRepository) filter(keep func(*domaininventory.Unit) bool) []*domaininventory.Unit {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domaininventory.Unit, 0, len(r.items))
	for _, u := range r.items {
		if keep(u) {
			c := *u
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].HotelID != out[j].HotelID {
			return out[i].HotelID < out[j].HotelID
		}
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Number < out[j].Number
	})
	return out
}

// UnitTypeRepository is the room and site type catalog.
type UnitTypeRepository struct {
	mu    sync.RWMutex
	items map[domaininventory.TypeID]*domaininventory.UnitType
}

func NewUnitTypeRepository() *UnitTypeRepository {
	return &UnitTypeRepository{items: make(map[domaininventory.TypeID]*domaininventory.UnitType)}
}

func (r *UnitTypeRepository) List(ctx context.Context, kind domaininventory.Kind) ([]*domaininventory.UnitType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domaininventory.UnitType, 0, len(r.items))
	for _, t := range r.items {
		if kind == "" || t.Kind == kind {
			c := *t
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (r *UnitTypeRepository) ByID(ctx context.Context, id domaininventory.TypeID) (*domaininventory.UnitType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.items[id]
	if !ok {
		return nil, domaininventory.ErrTypeNotFound
	}
	c := *t
	return &c, nil
}

func (r *UnitTypeRepository) Save(ctx context.Context, t *domaininventory.UnitType) error {
	if t == nil || strings.TrimSpace(string(t.ID)) == "" {
		return domaininventory.ErrIDRequired
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *t
	r.items[t.ID] = &c
	return nil
}

// BookingRepository keeps bookings together with legacy raw records that
// only exist as resolver input.
type BookingRepository struct {
	mu     sync.RWMutex
	items  map[domainbooking.ID]*domainbooking.Booking
	legacy map[domainhotel.ID][]domainbooking.Record
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{
		items:  make(map[domainbooking.ID]*domainbooking.Booking),
		legacy: make(map[domainhotel.ID][]domainbooking.Record),
	}
}

// SeedRecords adds raw records with arbitrary date shapes for a hotel.
func (r *BookingRepository) SeedRecords(hotelID domainhotel.ID, records ...domainbooking.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.legacy[hotelID] = append(r.legacy[hotelID], records...)
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.ID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrNotFound
	}
	return cloneBooking(b), nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	if b == nil || strings.TrimSpace(string(b.ID)) == "" {
		return domainbooking.ErrIDRequired
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := cloneBooking(b)
	stored.Version++
	b.Version = stored.Version
	r.items[b.ID] = stored
	return nil
}

func (r *BookingRepository) Delete(ctx context.Context, id domainbooking.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domainbooking.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *BookingRepository) List(ctx context.Context, filter domainbooking.Filter) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainbooking.Booking, 0, len(r.items))
	for _, b := range r.items {
		if matches(b, filter) {
			out = append(out, cloneBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *BookingRepository) Count(ctx context.Context, filter domainbooking.Filter) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, b := range r.items {
		if matches(b, filter) {
			n++
		}
	}
	return n, nil
}

func (r *BookingRepository) RecordsByHotel(ctx context.Context, hotelID domainhotel.ID) ([]domainbooking.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domainbooking.Record, 0, len(r.items))
	for _, b := range r.items {
		if b.HotelID == hotelID {
			out = append(out, b.AsRecord())
		}
	}
	out = append(out, r.legacy[hotelID]...)
	return out, nil
}

func matches(b *domainbooking.Booking, f domainbooking.Filter) bool {
	if f.HotelID != "" && b.HotelID != f.HotelID {
		return false
	}
	if f.CreatedBy != "" && b.CreatedBy != f.CreatedBy {
		return false
	}
	if !f.CheckInDay.IsZero() && !b.Range.CheckIn.Equal(f.CheckInDay) {
		return false
	}
	if f.Status != "" && b.Status != f.Status {
		return false
	}
	return true
}

// cloneBooking copies b without its pending events.
func cloneBooking(b *domainbooking.Booking) *domainbooking.Booking {
	c := *b
	c.ClearEvents()
	return &c
}

var (
	_ domainhotel.Repository         = (*HotelRepository)(nil)
	_ domaininventory.Repository     = (*UnitRepository)(nil)
	_ domaininventory.TypeRepository = (*UnitTypeRepository)(nil)
	_ domainbooking.Repository       = (*BookingRepository)(nil)
)

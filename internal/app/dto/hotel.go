package dto

import (
	"time"

	domainhotel "motelbook/internal/domain/hotel"
	domaininventory "motelbook/internal/domain/inventory"
)

type Hotel struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	StaffIDs  []string  `json:"staff_ids"`
	PhotoURL  string    `json:"photo_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type HotelList struct {
	Items []Hotel `json:"items"`
}

type Unit struct {
	ID        string    `json:"id"`
	HotelID   string    `json:"hotel_id"`
	Kind      string    `json:"kind"`
	Number    string    `json:"number"`
	Price     MoneyDTO  `json:"price"`
	TypeID    string    `json:"type_id,omitempty"`
	TypeTitle string    `json:"type_title,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type UnitList struct {
	Items []Unit `json:"items"`
}

type UnitType struct {
	ID    string `json:"id"`
	Slug  string `json:"slug"`
	Title string `json:"title"`
	Kind  string `json:"kind"`
}

type UnitTypeList struct {
	Items []UnitType `json:"items"`
}

func MapHotel(h *domainhotel.Hotel) Hotel {
	if h == nil {
		return Hotel{}
	}
	staff := make([]string, 0, len(h.StaffIDs))
	for _, id := range h.StaffIDs {
		staff = append(staff, string(id))
	}
	return Hotel{
		ID:        string(h.ID),
		Name:      h.Name,
		Address:   h.Address,
		StaffIDs:  staff,
		PhotoURL:  h.PhotoURL,
		CreatedAt: h.CreatedAt,
		UpdatedAt: h.UpdatedAt,
	}
}

func MapHotels(items []*domainhotel.Hotel) HotelList {
	out := HotelList{Items: make([]Hotel, 0, len(items))}
	for _, h := range items {
		out.Items = append(out.Items, MapHotel(h))
	}
	return out
}

// MapUnit renders u; types resolves the type title and may be nil.
func MapUnit(u *domaininventory.Unit, types map[domaininventory.TypeID]*domaininventory.UnitType) Unit {
	if u == nil {
		return Unit{}
	}
	out := Unit{
		ID:        string(u.ID),
		HotelID:   string(u.HotelID),
		Kind:      string(u.Kind),
		Number:    u.Number,
		Price:     MapMoney(u.Price),
		TypeID:    string(u.TypeID),
		CreatedAt: u.CreatedAt,
	}
	if t, ok := types[u.TypeID]; ok && t != nil {
		out.TypeTitle = t.Title
	}
	return out
}

func MapUnitType(t *domaininventory.UnitType) UnitType {
	if t == nil {
		return UnitType{}
	}
	return UnitType{ID: string(t.ID), Slug: t.Slug, Title: t.Title, Kind: string(t.Kind)}
}

func IndexUnitTypes(types []*domaininventory.UnitType) map[domaininventory.TypeID]*domaininventory.UnitType {
	out := make(map[domaininventory.TypeID]*domaininventory.UnitType, len(types))
	for _, t := range types {
		if t != nil {
			out[t.ID] = t
		}
	}
	return out
}

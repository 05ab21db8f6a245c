package dto

import "motelbook/internal/domain/shared/calday"

// CalendarMarks lists the days that have at least one check-in.
type CalendarMarks struct {
	HotelID string       `json:"hotel_id,omitempty"`
	Days    []calday.Day `json:"days"`
}

type UnitAvailability struct {
	Unit
	Booked bool `json:"booked"`
}

type Availability struct {
	HotelID  string             `json:"hotel_id"`
	CheckIn  calday.Day         `json:"check_in"`
	CheckOut calday.Day         `json:"check_out"`
	Rooms    []UnitAvailability `json:"rooms"`
	Sites    []UnitAvailability `json:"sites"`
}

type UnitOccupancy struct {
	Unit
	Occupied bool `json:"occupied"`
}

type Occupancy struct {
	HotelID string          `json:"hotel_id"`
	Date    calday.Day      `json:"date"`
	Rooms   []UnitOccupancy `json:"rooms"`
	Sites   []UnitOccupancy `json:"sites"`
}

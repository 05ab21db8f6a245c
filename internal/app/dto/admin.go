package dto

type UserList struct {
	Items []UserProfile `json:"items"`
	Total int           `json:"total"`
}

// DashboardStats are the counters on the back-office landing page.
type DashboardStats struct {
	TotalBookings  int `json:"total_bookings"`
	ActiveBookings int `json:"active_bookings"`
	TotalHotels    int `json:"total_hotels"`
	TotalUsers     int `json:"total_users"`
}

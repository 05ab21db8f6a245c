package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"motelbook/internal/app/dto"
	availabilityapp "motelbook/internal/app/handlers/availability"
	"motelbook/internal/app/queries"
	"motelbook/internal/domain/shared/calday"
)

type AvailabilityHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

// Availability answers which of the hotel's units are free for
// check_in..check_out. check_out defaults to the next day.
func (h AvailabilityHandler) Availability(c *gin.Context) {
	actor, ok := requireActor(c, false)
	if !ok {
		return
	}
	checkIn, err := calday.ParseDay(c.Query("check_in"))
	if err != nil {
		badRequest(c, "check_in must be YYYY-MM-DD")
		return
	}
	var checkOut calday.Day
	if raw := c.Query("check_out"); raw != "" {
		if checkOut, err = calday.ParseDay(raw); err != nil {
			badRequest(c, "check_out must be YYYY-MM-DD")
			return
		}
	}
	q := availabilityapp.GetAvailabilityQuery{
		Actor:            actor,
		HotelID:          c.Param("id"),
		CheckIn:          checkIn,
		CheckOut:         checkOut,
		ExcludeBookingID: c.Query("exclude_booking"),
	}
	result, err := queries.Ask[availabilityapp.GetAvailabilityQuery, *dto.Availability](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AvailabilityHandler) Occupancy(c *gin.Context) {
	actor, ok := requireActor(c, false)
	if !ok {
		return
	}
	day, err := calday.ParseDay(c.Query("date"))
	if err != nil {
		badRequest(c, "date must be YYYY-MM-DD")
		return
	}
	q := availabilityapp.GetOccupancyQuery{Actor: actor, HotelID: c.Param("id"), Date: day}
	result, err := queries.Ask[availabilityapp.GetOccupancyQuery, *dto.Occupancy](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"motelbook/internal/app/commands"
	"motelbook/internal/app/dto"
	hotelsapp "motelbook/internal/app/handlers/hotels"
	"motelbook/internal/app/queries"
)

const maxPhotoBytes = 10 << 20

type HotelHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type hotelRequest struct {
	Name     string   `json:"name"`
	Address  string   `json:"address"`
	StaffIDs []string `json:"staff_ids"`
}

func (r hotelRequest) fields() hotelsapp.HotelFields {
	return hotelsapp.HotelFields{Name: r.Name, Address: r.Address, StaffIDs: r.StaffIDs}
}

func (h HotelHandler) List(c *gin.Context) {
	actor, ok := requireActor(c, false)
	if !ok {
		return
	}
	result, err := queries.Ask[hotelsapp.ListHotelsQuery, *dto.HotelList](c.Request.Context(), h.Queries, hotelsapp.ListHotelsQuery{Actor: actor})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h HotelHandler) Get(c *gin.Context) {
	actor, ok := requireActor(c, false)
	if !ok {
		return
	}
	q := hotelsapp.GetHotelQuery{Actor: actor, HotelID: c.Param("id")}
	result, err := queries.Ask[hotelsapp.GetHotelQuery, *dto.Hotel](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h HotelHandler) Create(c *gin.Context) {
	actor, ok := requireActor(c, true)
	if !ok {
		return
	}
	var req hotelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	cmd := hotelsapp.CreateHotelCommand{Actor: actor, HotelFields: req.fields()}
	result, err := commands.Dispatch[hotelsapp.CreateHotelCommand, *dto.Hotel](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h HotelHandler) Update(c *gin.Context) {
	actor, ok := requireActor(c, true)
	if !ok {
		return
	}
	var req hotelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	cmd := hotelsapp.UpdateHotelCommand{Actor: actor, HotelID: c.Param("id"), HotelFields: req.fields()}
	result, err := commands.Dispatch[hotelsapp.UpdateHotelCommand, *dto.Hotel](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h HotelHandler) Delete(c *gin.Context) {
	actor, ok := requireActor(c, true)
	if !ok {
		return
	}
	cmd := hotelsapp.DeleteHotelCommand{Actor: actor, HotelID: c.Param("id")}
	if _, err := commands.Dispatch[hotelsapp.DeleteHotelCommand, struct{}](c.Request.Context(), h.Commands, cmd); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadPhoto accepts a multipart form with the image in the "photo" field.
func (h HotelHandler) UploadPhoto(c *gin.Context) {
	actor, ok := requireActor(c, true)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxPhotoBytes)
	header, err := c.FormFile("photo")
	if err != nil {
		badRequest(c, "photo file is required")
		return
	}
	file, err := header.Open()
	if err != nil {
		badRequest(c, "photo file is unreadable")
		return
	}
	defer file.Close()

	cmd := hotelsapp.UploadHotelPhotoCommand{
		Actor:       actor,
		HotelID:     c.Param("id"),
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Reader:      file,
	}
	result, err := commands.Dispatch[hotelsapp.UploadHotelPhotoCommand, *dto.Hotel](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

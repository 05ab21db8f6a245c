package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"motelbook/internal/app/commands"
	"motelbook/internal/app/dto"
	inventoryapp "motelbook/internal/app/handlers/inventory"
	"motelbook/internal/app/queries"
)

type InventoryHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type unitRequest struct {
	HotelID  string `json:"hotel_id"`
	Kind     string `json:"kind"`
	Number   string `json:"number"`
	Price    int64  `json:"price"`
	Currency string `json:"currency"`
	TypeID   string `json:"type_id"`
}

func (r unitRequest) fields() inventoryapp.UnitFields {
	return inventoryapp.UnitFields{
		HotelID:    r.HotelID,
		Kind:       r.Kind,
		Number:     r.Number,
		PriceCents: r.Price,
		Currency:   r.Currency,
		TypeID:     r.TypeID,
	}
}

func (h InventoryHandler) ListUnits(c *gin.Context) {
	actor, ok := requireActor(c, false)
	if !ok {
		return
	}
	q := inventoryapp.ListUnitsQuery{Actor: actor, HotelID: c.Query("hotel_id"), Kind: c.Query("kind")}
	result, err := queries.Ask[inventoryapp.ListUnitsQuery, *dto.UnitList](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h InventoryHandler) ListUnitTypes(c *gin.Context) {
	if _, ok := requireActor(c, false); !ok {
		return
	}
	q := inventoryapp.ListUnitTypesQuery{Kind: c.Query("kind")}
	result, err := queries.Ask[inventoryapp.ListUnitTypesQuery, *dto.UnitTypeList](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h InventoryHandler) CreateUnit(c *gin.Context) {
	actor, ok := requireActor(c, true)
	if !ok {
		return
	}
	var req unitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	cmd := inventoryapp.CreateUnitCommand{Actor: actor, UnitFields: req.fields()}
	result, err := commands.Dispatch[inventoryapp.CreateUnitCommand, *dto.Unit](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h InventoryHandler) UpdateUnit(c *gin.Context) {
	actor, ok := requireActor(c, true)
	if !ok {
		return
	}
	var req unitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	cmd := inventoryapp.UpdateUnitCommand{Actor: actor, UnitID: c.Param("id"), UnitFields: req.fields()}
	result, err := commands.Dispatch[inventoryapp.UpdateUnitCommand, *dto.Unit](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h InventoryHandler) DeleteUnit(c *gin.Context) {
	actor, ok := requireActor(c, true)
	if !ok {
		return
	}
	cmd := inventoryapp.DeleteUnitCommand{Actor: actor, UnitID: c.Param("id")}
	if _, err := commands.Dispatch[inventoryapp.DeleteUnitCommand, struct{}](c.Request.Context(), h.Commands, cmd); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

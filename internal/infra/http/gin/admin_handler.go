package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"motelbook/internal/app/commands"
	"motelbook/internal/app/dto"
	dashboardapp "motelbook/internal/app/handlers/dashboard"
	staffapp "motelbook/internal/app/handlers/staff"
	"motelbook/internal/app/queries"
)

// AdminHandler serves the dashboard and staff management endpoints.
type AdminHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type staffRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
}

func (h AdminHandler) Stats(c *gin.Context) {
	actor, ok := requireActor(c, false)
	if !ok {
		return
	}
	result, err := queries.Ask[dashboardapp.GetStatsQuery, *dto.DashboardStats](c.Request.Context(), h.Queries, dashboardapp.GetStatsQuery{Actor: actor})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AdminHandler) ListStaff(c *gin.Context) {
	actor, ok := requireActor(c, true)
	if !ok {
		return
	}
	q := staffapp.ListStaffQuery{Actor: actor, Role: c.Query("role")}
	result, err := queries.Ask[staffapp.ListStaffQuery, *dto.UserList](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AdminHandler) CreateStaff(c *gin.Context) {
	actor, ok := requireActor(c, true)
	if !ok {
		return
	}
	var req staffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	cmd := staffapp.CreateStaffCommand{
		Actor:     actor,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Role:      req.Role,
	}
	result, err := commands.Dispatch[staffapp.CreateStaffCommand, *dto.UserProfile](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h AdminHandler) UpdateStaff(c *gin.Context) {
	actor, ok := requireActor(c, true)
	if !ok {
		return
	}
	var req staffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	cmd := staffapp.UpdateStaffCommand{
		Actor:     actor,
		UserID:    c.Param("id"),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Role:      req.Role,
	}
	result, err := commands.Dispatch[staffapp.UpdateStaffCommand, *dto.UserProfile](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AdminHandler) DeleteStaff(c *gin.Context) {
	actor, ok := requireActor(c, true)
	if !ok {
		return
	}
	cmd := staffapp.DeleteStaffCommand{Actor: actor, UserID: c.Param("id")}
	if _, err := commands.Dispatch[staffapp.DeleteStaffCommand, struct{}](c.Request.Context(), h.Commands, cmd); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

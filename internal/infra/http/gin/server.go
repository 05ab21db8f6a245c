package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"motelbook/internal/infra/config"
	"motelbook/internal/infra/obs"
)

type Handlers struct {
	Auth           *AuthHandler
	Admin          *AdminHandler
	Hotels         *HotelHandler
	Availability   *AvailabilityHandler
	Inventory      *InventoryHandler
	Bookings       *BookingHandler
	AuthMiddleware gin.HandlerFunc
	Metrics        http.Handler
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg, obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func NewRouter(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", idempotencyKeyHeader, obs.RequestIDHeader},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			obs.RequestIDHeader,
		},
		MaxAge: 12 * time.Hour,
	}))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)
	if h.Metrics != nil {
		router.GET("/metrics", gin.WrapH(h.Metrics))
	}

	api := router.Group("/api/v1")
	if h.Auth != nil {
		api.POST("/auth/login", h.Auth.Login)
		api.POST("/auth/logout", h.Auth.Logout)
		api.GET("/auth/me", h.Auth.Me)
		api.PUT("/auth/push-token", h.Auth.PushToken)
	}
	if h.Admin != nil {
		api.GET("/dashboard/stats", h.Admin.Stats)
		staff := api.Group("/staff")
		staff.GET("", h.Admin.ListStaff)
		staff.POST("", h.Admin.CreateStaff)
		staff.PUT("/:id", h.Admin.UpdateStaff)
		staff.DELETE("/:id", h.Admin.DeleteStaff)
	}
	if h.Hotels != nil {
		hotels := api.Group("/hotels")
		hotels.GET("", h.Hotels.List)
		hotels.POST("", h.Hotels.Create)
		hotels.GET("/:id", h.Hotels.Get)
		hotels.PUT("/:id", h.Hotels.Update)
		hotels.DELETE("/:id", h.Hotels.Delete)
		hotels.POST("/:id/photo", h.Hotels.UploadPhoto)
	}
	if h.Availability != nil {
		api.GET("/hotels/:id/availability", h.Availability.Availability)
		api.GET("/hotels/:id/occupancy", h.Availability.Occupancy)
	}
	if h.Inventory != nil {
		api.GET("/units", h.Inventory.ListUnits)
		api.POST("/units", h.Inventory.CreateUnit)
		api.PUT("/units/:id", h.Inventory.UpdateUnit)
		api.DELETE("/units/:id", h.Inventory.DeleteUnit)
		api.GET("/unit-types", h.Inventory.ListUnitTypes)
	}
	if h.Bookings != nil {
		bookings := api.Group("/bookings")
		bookings.GET("", h.Bookings.List)
		bookings.GET("/calendar", h.Bookings.Calendar)
		bookings.POST("", h.Bookings.Create)
		bookings.GET("/:id", h.Bookings.Get)
		bookings.PUT("/:id", h.Bookings.Update)
		bookings.DELETE("/:id", h.Bookings.Delete)
		bookings.POST("/:id/cancel", h.Bookings.Cancel)
	}

	return router
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}

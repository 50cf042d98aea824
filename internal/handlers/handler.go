package handlers

import (
	"geothermal_monitor/internal/logger"
	"geothermal_monitor/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services   *service.Service
	hub        *Hub
	corsOrigin string
	log        *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies. A nil hub
// disables the push channel.
func NewHandler(services *service.Service, hub *Hub, corsOrigin string, log *logger.Logger) *Handler {
	return &Handler{services: services, hub: hub, corsOrigin: corsOrigin, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.requestIDMiddleware, h.corsMiddleware)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h.registerAPIRoutes(router)

	// Push channel on the same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api")
	{
		api.GET("/health", h.health)
		h.registerHeatPumpRoutes(api)
		h.registerRoomRoutes(api)
		h.registerHistoryRoutes(api)
		h.registerEventRoutes(api)
	}
}

func (h *Handler) registerHeatPumpRoutes(api *gin.RouterGroup) {
	api.GET("/data", h.getData)
	api.GET("/system", h.getSystem)
	api.GET("/heating-curve", h.getHeatingCurve)
	// Body example: {"parameter":"heating_target_temperature","value":1.5}
	api.POST("/controls", h.postControls)
}

func (h *Handler) registerRoomRoutes(api *gin.RouterGroup) {
	rooms := api.Group("/rooms")
	{
		rooms.GET("", h.getRooms)
		rooms.GET("/labels", h.getLabels)
		rooms.POST("/:controllerId/:roomId/temperature", h.setRoomTemperature)
		rooms.PUT("/:controllerId/:roomId/label", h.setRoomLabel)
	}
}

func (h *Handler) registerHistoryRoutes(api *gin.RouterGroup) {
	history := api.Group("/history")
	{
		history.GET("", h.getHistory)
		history.GET("/settings", h.getHistorySettings)
		history.POST("/settings", h.setHistorySettings)
	}
}

func (h *Handler) registerEventRoutes(api *gin.RouterGroup) {
	api.GET("/events", h.getEvents)
}

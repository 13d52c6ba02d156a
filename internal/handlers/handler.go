package handlers

import (
	"coolerctl/internal/logger"
	"coolerctl/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)

	// Auth endpoints
	h.registerAuthRoutes(router)

	// Versioned API endpoints (protected)
	h.registerAPIRoutes(router)

	// WebSocket status stream (HTTP upgrade) — same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.userIdMiddleware)
	{
		h.registerCoolerRoutes(api)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerCoolerRoutes(api *gin.RouterGroup) {
	cooler := api.Group("/cooler")
	{
		// Body example: {"on":true}
		cooler.POST("/manual", h.setManual)
		cooler.POST("/auto", h.setAuto)
		// Body example: {"enabled":true}
		cooler.POST("/pid", h.setPIDEnabled)
		// Body example: {"start_c":4.5,"stop_c":3.5}
		cooler.PUT("/thresholds", h.setThresholds)
		// Body example: {"kp":8.66,"ki":0.0121,"kd":774.21,"setpoint_c":4.0}
		cooler.PUT("/pid/params", h.setPIDParams)
		cooler.POST("/pid/reset", h.resetPID)
		cooler.POST("/reset", h.reset)
		cooler.GET("/state", h.getState)
		cooler.POST("/telemetry/publish", h.publishTelemetry)
	}
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("/", h.getLogs)
	}
}

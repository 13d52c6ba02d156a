package handlers

import (
	"errors"
	"net/http"

	"coolerctl/internal/controller"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK        = "ok"
	statusManualSet = "manual_set"
	statusAutoSet   = "auto_set"
	statusPIDSet    = "pid_set"
	statusUpdated   = "updated"
	statusReset     = "reset"
	statusPublished = "published"

	errGetState        = "failed to load state"
	errPublish         = "failed to publish telemetry"
	errInvalidBodyPref = "invalid body: "
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// coolerError maps service errors onto HTTP codes: rejected values are the
// caller's fault, everything else is ours.
func (h *Handler) coolerError(c *gin.Context, logKey string, err error, kv ...interface{}) {
	if errors.Is(err, controller.ErrValidation) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.logAndJSONError(c, http.StatusInternalServerError, err.Error(), logKey, err, kv...)
}

// Respond with a status and include the current snapshot (best-effort).
func (h *Handler) respondWithStatusAndState(c *gin.Context, status string, extra gin.H) {
	ctx := c.Request.Context()
	resp := gin.H{"status": status}
	for k, v := range extra {
		resp[k] = v
	}
	if snap, err := h.services.Monitoring.Snapshot(ctx); err == nil {
		resp["state"] = snap
	}
	c.JSON(http.StatusOK, resp)
}

// Request DTO for the manual override switch.
type manualRequest struct {
	On *bool `json:"on" binding:"required"`
}

// Request DTO for enabling or disabling PID mode.
type pidModeRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// Request DTO for the hysteresis thresholds. Both values are required;
// partial updates go through the AT command surface.
type thresholdsRequest struct {
	StartC *float64 `json:"start_c" binding:"required"`
	StopC  *float64 `json:"stop_c" binding:"required"`
}

// Request DTO for PID tuning. Omitted fields keep their current value; the
// whole request is rejected if any provided value is out of range.
type pidParamsRequest struct {
	Kp        *float64 `json:"kp,omitempty"`
	Ki        *float64 `json:"ki,omitempty"`
	Kd        *float64 `json:"kd,omitempty"`
	SetpointC *float64 `json:"setpoint_c,omitempty"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Manual cooler override
// @Description  Forces the relay on or off until auto mode is restored
// @Tags         cooler
// @Accept       json
// @Produce      json
// @Param        body  body  manualRequest  true  "Override payload"
// @Success      200   {object}  map[string]interface{}  "status, state"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/cooler/manual [post]
// @Security     BearerAuth
func (h *Handler) setManual(c *gin.Context) {
	var req manualRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	if err := h.services.Cooler.SetManual(c.Request.Context(), *req.On); err != nil {
		h.coolerError(c, "cooler_manual_failed", err, "on", *req.On)
		return
	}
	h.respondWithStatusAndState(c, statusManualSet, gin.H{"on": *req.On})
}

// @Summary      Restore automatic control
// @Tags         cooler
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/cooler/auto [post]
// @Security     BearerAuth
func (h *Handler) setAuto(c *gin.Context) {
	if err := h.services.Cooler.SetAuto(c.Request.Context()); err != nil {
		h.coolerError(c, "cooler_auto_failed", err)
		return
	}
	h.respondWithStatusAndState(c, statusAutoSet, gin.H{})
}

// @Summary      Enable or disable PID mode
// @Description  Enabling PID also clears any manual override
// @Tags         cooler
// @Accept       json
// @Produce      json
// @Param        body  body  pidModeRequest  true  "PID mode payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/cooler/pid [post]
// @Security     BearerAuth
func (h *Handler) setPIDEnabled(c *gin.Context) {
	var req pidModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	if err := h.services.Cooler.SetPIDEnabled(c.Request.Context(), *req.Enabled); err != nil {
		h.coolerError(c, "cooler_pid_mode_failed", err, "enabled", *req.Enabled)
		return
	}
	h.respondWithStatusAndState(c, statusPIDSet, gin.H{"enabled": *req.Enabled})
}

// @Summary      Set hysteresis thresholds
// @Description  start_c must be above stop_c; out-of-range values are rejected
// @Tags         cooler
// @Accept       json
// @Produce      json
// @Param        body  body  thresholdsRequest  true  "Thresholds payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/cooler/thresholds [put]
// @Security     BearerAuth
func (h *Handler) setThresholds(c *gin.Context) {
	var req thresholdsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	if err := h.services.Cooler.SetThresholds(c.Request.Context(), *req.StartC, *req.StopC); err != nil {
		h.coolerError(c, "cooler_thresholds_failed", err, "start_c", *req.StartC, "stop_c", *req.StopC)
		return
	}
	h.respondWithStatusAndState(c, statusUpdated, gin.H{"start_c": *req.StartC, "stop_c": *req.StopC})
}

// @Summary      Tune the PID controller
// @Description  Omitted fields keep their current values
// @Tags         cooler
// @Accept       json
// @Produce      json
// @Param        body  body  pidParamsRequest  true  "Tuning payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/cooler/pid/params [put]
// @Security     BearerAuth
func (h *Handler) setPIDParams(c *gin.Context) {
	var req pidParamsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	params := controller.PIDParams{
		Kp:       req.Kp,
		Ki:       req.Ki,
		Kd:       req.Kd,
		Setpoint: req.SetpointC,
	}
	if err := h.services.Cooler.SetPIDParams(c.Request.Context(), params); err != nil {
		h.coolerError(c, "cooler_pid_params_failed", err)
		return
	}
	h.respondWithStatusAndState(c, statusUpdated, gin.H{})
}

// @Summary      Reset PID accumulator terms
// @Tags         cooler
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/cooler/pid/reset [post]
// @Security     BearerAuth
func (h *Handler) resetPID(c *gin.Context) {
	if err := h.services.Cooler.ResetPID(c.Request.Context()); err != nil {
		h.coolerError(c, "cooler_pid_reset_failed", err)
		return
	}
	h.respondWithStatusAndState(c, statusReset, gin.H{})
}

// @Summary      Reset the cooler system
// @Description  Clears override, runtime accounting and forces the relay off
// @Tags         cooler
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/cooler/reset [post]
// @Security     BearerAuth
func (h *Handler) reset(c *gin.Context) {
	if err := h.services.Cooler.Reset(c.Request.Context()); err != nil {
		h.coolerError(c, "cooler_reset_failed", err)
		return
	}
	h.respondWithStatusAndState(c, statusReset, gin.H{})
}

// @Summary      Get cooler state
// @Tags         cooler
// @Produce      json
// @Success      200  {object}  models.Snapshot
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/cooler/state [get]
// @Security     BearerAuth
func (h *Handler) getState(c *gin.Context) {
	snap, err := h.services.Monitoring.Snapshot(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetState, "cooler_get_state_failed", err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// @Summary      Publish telemetry now
// @Description  Pushes a snapshot to the broker outside the regular cadence
// @Tags         cooler
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/cooler/telemetry/publish [post]
// @Security     BearerAuth
func (h *Handler) publishTelemetry(c *gin.Context) {
	if err := h.services.Cooler.PublishTelemetry(c.Request.Context()); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errPublish, "telemetry_publish_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusPublished})
}

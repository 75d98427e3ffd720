package fleet

import (
	"net/http"

	"mlshield-controlplane/pkg/db/pagination"
	"mlshield-controlplane/pkg/errutil"
	"mlshield-controlplane/services/scoring"

	"github.com/gin-gonic/gin"
)

type CreateServerRequest struct {
	Name string `json:"name" binding:"required"`
}

type HeartbeatRequest struct {
	// Pointer so a zero count binds while a missing field is rejected.
	OnlineCount *int `json:"online_count" binding:"required"`
}

type PredictRequest struct {
	PlayerUUID string               `json:"playerUuid" binding:"required"`
	Ticks      []scoring.TickSample `json:"ticks"`
}

type handler struct {
	service *Service
}

// RegisterRoutes mounts the whole operation surface on the engine. Each route
// is a thin adapter over one Service operation.
func RegisterRoutes(engine *gin.Engine, service *Service) {
	h := &handler{service: service}

	api := engine.Group("/api")
	api.POST("/servers", h.createServer)
	api.GET("/servers", h.listServers)
	api.GET("/servers/:id", h.getServer)
	api.POST("/servers/:id/heartbeat", h.heartbeat)
	api.POST("/servers/:id/reset_key", h.rotateKey)
	api.POST("/servers/:id/renew", h.renew)
	api.GET("/server/verify", h.verifyKey)
	api.GET("/stats", h.stats)

	engine.POST("/predict", h.predict)
}

func (h *handler) createServer(c *gin.Context) {
	var req CreateServerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	record, err := h.service.RegisterServer(c.Request.Context(), req.Name)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"id":      record.ID,
		"api_key": record.APIKey,
	})
}

func (h *handler) listServers(c *gin.Context) {
	var p pagination.Pagination
	if err := c.ShouldBindQuery(&p); err != nil {
		_ = c.Error(errutil.BadRequest("invalid pagination parameters", errutil.WithErr(err)))
		return
	}

	records, pageInfo, err := h.service.ListServers(c.Request.Context(), p)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if pageInfo.HasMore {
		c.Header("X-Next-Cursor", pageInfo.NextCursor)
	}

	c.JSON(http.StatusOK, records)
}

func (h *handler) getServer(c *gin.Context) {
	record, err := h.service.GetServer(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, record)
}

func (h *handler) heartbeat(c *gin.Context) {
	var req HeartbeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	if err := h.service.Heartbeat(c.Request.Context(), c.Param("id"), *req.OnlineCount); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *handler) rotateKey(c *gin.Context) {
	newKey, err := h.service.RotateServerKey(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"api_key": newKey})
}

func (h *handler) renew(c *gin.Context) {
	newExpire, err := h.service.RenewServer(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"expiration_date": newExpire,
	})
}

func (h *handler) verifyKey(c *gin.Context) {
	record, err := h.service.VerifyKey(c.Request.Context(), c.Query("key"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, record)
}

func (h *handler) predict(c *gin.Context) {
	var req PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	probability, err := h.service.SubmitTelemetry(c.Request.Context(), req.PlayerUUID, req.Ticks)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"probability": probability})
}

func (h *handler) stats(c *gin.Context) {
	stats, err := h.service.GetStats(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

package handler

import (
	"net/http"

	"servicelink/internal/middleware"
	"servicelink/internal/model"
	"servicelink/internal/service"
	"servicelink/pkg/pagination"
	"servicelink/pkg/response"

	"github.com/gin-gonic/gin"
)

type ActivityHandler struct {
	activityService service.ActivityService
}

func NewActivityHandler(activityService service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activityService: activityService}
}

func (h *ActivityHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/activity-logs")
	group.Use(middleware.RequireRole(model.RoleAdmin, model.RoleGSODirector))
	{
		group.GET("", h.GetActivityLogs)
		group.GET("/:reference_number", h.GetRequestTrail)
	}
}

// GetActivityLogs retrieves paginated activity entries with performers preloaded
// @Summary      Get activity logs
// @Description  Retrieves the activity log, optionally filtered by request type
// @Tags         activity
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int     false  "Page number (default 1)"
// @Param        limit  query     int     false  "Number of items per page (default 20)"
// @Param        type   query     string  false  "Request type filter (job, purchasing, venue, vehicle)"
// @Success      200    {object}  response.Response{data=object}
// @Router       /api/activity-logs [get]
func (h *ActivityHandler) GetActivityLogs(c *gin.Context) {
	params := pagination.Parse(c)

	logs, total, err := h.activityService.GetActivityLogs(c.Request.Context(), c.Query("type"), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve activity logs: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"logs":  logs,
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
	}))
}

// GetRequestTrail returns the full history of one request, oldest first
// @Summary      Get the activity trail of a request
// @Tags         activity
// @Security     BearerAuth
// @Produce      json
// @Param        reference_number  path      string  true  "Reference number"
// @Success      200               {object}  response.Response{data=object}
// @Router       /api/activity-logs/{reference_number} [get]
func (h *ActivityHandler) GetRequestTrail(c *gin.Context) {
	logs, err := h.activityService.GetRequestTrail(c.Request.Context(), c.Param("reference_number"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve request trail: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, logs))
}

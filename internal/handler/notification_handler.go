package handler

import (
	"net/http"

	"servicelink/internal/middleware"
	"servicelink/internal/service"
	"servicelink/pkg/pagination"
	"servicelink/pkg/response"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService service.NotificationService
}

func NewNotificationHandler(notificationService service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func (h *NotificationHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/notifications")
	group.Use(middleware.Authenticate())
	{
		group.GET("", h.ListNotifications)
		group.GET("/unread-count", h.UnreadCount)
		group.PATCH("/:id/read", h.MarkRead)
	}
}

// ListNotifications returns the caller's notifications, newest first
// @Summary      List notifications
// @Tags         notifications
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Router       /api/notifications [get]
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	params := pagination.Parse(c)

	items, total, err := h.notificationService.ListForUser(c.Request.Context(), actingUserID(c), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve notifications: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"notifications": items,
		"total":         total,
		"page":          params.Page,
		"limit":         params.Limit,
	}))
}

// UnreadCount returns how many unread notifications the caller has
// @Summary      Count unread notifications
// @Tags         notifications
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/notifications/unread-count [get]
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	count, err := h.notificationService.UnreadCount(c.Request.Context(), actingUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to count notifications: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{"unread": count}))
}

// MarkRead flags one notification as read
// @Summary      Mark a notification read
// @Tags         notifications
// @Security     BearerAuth
// @Produce      json
// @Param        id  path      string  true  "Notification id"
// @Success      200 {object}  response.Response
// @Router       /api/notifications/{id}/read [patch]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	ok, err := h.notificationService.MarkRead(c.Request.Context(), c.Param("id"), actingUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Notification not found"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Notification marked read"))
}

package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"servicelink/internal/lifecycle"
	"servicelink/internal/middleware"
	"servicelink/internal/model"
	"servicelink/internal/repository"
	"servicelink/internal/service"
	"servicelink/pkg/response"

	"github.com/gin-gonic/gin"
)

// RequestHandler exposes the request lifecycle over HTTP for one request
// type. The same handler serves all four types; routes that do not apply to
// a type (archive on vehicle requests) are simply not registered.
type RequestHandler[T any] struct {
	cfg model.TypeConfig
	svc service.RequestService[T]
}

func NewRequestHandler[T any](cfg model.TypeConfig, svc service.RequestService[T]) *RequestHandler[T] {
	return &RequestHandler[T]{cfg: cfg, svc: svc}
}

func (h *RequestHandler[T]) RegisterRoutes(router *gin.RouterGroup) {
	g := router.Group("/api/" + string(h.cfg.Type))
	g.Use(middleware.Authenticate())
	{
		g.POST("", h.Create)
		g.GET("", h.List)
		g.GET("/status/:status", h.ListByStatus)
		g.GET("/:reference_number", h.Get)
		g.PUT("/:reference_number", h.Update)
		if h.cfg.Archivable {
			g.DELETE("/:reference_number/archive/:archive", h.Archive)
		}
		for _, gate := range model.Gates {
			gate := gate
			g.PATCH("/:reference_number/"+gate.Column()+"/:approval_flag",
				middleware.RequireRole(gate.Role(), model.RoleAdmin), h.setGate(gate))
		}
	}
}

func (h *RequestHandler[T]) Create(c *gin.Context) {
	rec := new(T)
	if err := c.ShouldBindJSON(rec); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request body: "+err.Error()))
		return
	}

	created, err := h.svc.Create(c.Request.Context(), rec, actingUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, created))
}

func (h *RequestHandler[T]) List(c *gin.Context) {
	recs, err := h.svc.ListActive(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	if len(recs) == 0 {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, fmt.Sprintf("No %s requests found", h.cfg.Type)))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, recs))
}

func (h *RequestHandler[T]) ListByStatus(c *gin.Context) {
	recs, err := h.svc.ListByStatus(c.Request.Context(), c.Param("status"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	if len(recs) == 0 {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound,
			fmt.Sprintf("No %s requests with status %q", h.cfg.Type, c.Param("status"))))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, recs))
}

func (h *RequestHandler[T]) Get(c *gin.Context) {
	ref := c.Param("reference_number")
	rec, err := h.svc.Get(c.Request.Context(), ref)
	if err != nil {
		if repository.IsNotFound(err) {
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, fmt.Sprintf("Request %s not found", ref)))
			return
		}
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rec))
}

func (h *RequestHandler[T]) Update(c *gin.Context) {
	ref := c.Param("reference_number")

	var body map[string]json.RawMessage
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request body: "+err.Error()))
		return
	}

	var details []model.RequestDetail
	if raw, ok := body["details"]; ok {
		if err := json.Unmarshal(raw, &details); err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid details payload: "+err.Error()))
			return
		}
		delete(body, "details")
	}

	fields := make(map[string]any, len(body))
	for key, raw := range body {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, fmt.Sprintf("Invalid value for %q", key)))
			return
		}
		fields[key] = v
	}

	result, err := h.svc.Update(c.Request.Context(), ref, fields, details, actingUserID(c))
	if err != nil {
		if errors.Is(err, service.ErrInvalidStatus) {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	if result == lifecycle.ResultNotFound {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, fmt.Sprintf("Request %s not found", ref)))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, fmt.Sprintf("Request %s updated", ref)))
}

func (h *RequestHandler[T]) Archive(c *gin.Context) {
	ref := c.Param("reference_number")
	archived, err := strconv.ParseBool(c.Param("archive"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Archive flag must be 0 or 1"))
		return
	}

	result, err := h.svc.SetArchived(c.Request.Context(), ref, archived, actingUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	switch result {
	case lifecycle.ResultNotFound:
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, fmt.Sprintf("Request %s not found", ref)))
	case lifecycle.ResultNoOp:
		c.JSON(http.StatusOK, response.Success(http.StatusOK, fmt.Sprintf("Request %s already in requested archive state", ref)))
	default:
		verb := "archived"
		if !archived {
			verb = "restored"
		}
		c.JSON(http.StatusOK, response.Success(http.StatusOK, fmt.Sprintf("Request %s %s", ref, verb)))
	}
}

func (h *RequestHandler[T]) setGate(gate model.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		ref := c.Param("reference_number")

		value, err := model.ParseGateValue(c.Param("approval_flag"))
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
			return
		}

		result, err := h.svc.SetGate(c.Request.Context(), ref, gate, value, actingUserID(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
			return
		}

		switch result {
		case lifecycle.ResultNotFound:
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, fmt.Sprintf("Request %s not found", ref)))
		case lifecycle.ResultNoOp:
			c.JSON(http.StatusOK, response.Success(http.StatusOK, fmt.Sprintf("%s already %s on %s", gate.Column(), value, ref)))
		default:
			c.JSON(http.StatusOK, response.Success(http.StatusOK, fmt.Sprintf("%s set to %s on %s", gate.Column(), value, ref)))
		}
	}
}

func actingUserID(c *gin.Context) string {
	userID, _ := c.Get("userID")
	s, _ := userID.(string)
	return s
}

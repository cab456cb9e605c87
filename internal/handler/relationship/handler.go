package relationship

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/medrec-api/internal/handler"
	"github.com/jwalitptl/medrec-api/internal/middleware"
	"github.com/jwalitptl/medrec-api/internal/model"
	"github.com/jwalitptl/medrec-api/internal/service/relationship"
)

type Handler struct {
	service *relationship.Service
}

func NewHandler(service *relationship.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	relationships := r.Group("/relationships")
	{
		relationships.GET("", h.ListRelationships)
		relationships.GET("/:id", h.GetRelationship)
		relationships.PUT("", h.UpsertRelationship)
		relationships.DELETE("/:id", h.DeleteRelationship)
		relationships.GET("/connected", h.IsConnected)
	}
}

type upsertRelationshipRequest struct {
	ID       string `json:"id"`
	SourceID string `json:"source_id" binding:"required,uuid"`
	TargetID string `json:"target_id" binding:"required,uuid"`
	Status   string `json:"status" binding:"omitempty,oneof=pending active"`
}

func (h *Handler) ListRelationships(c *gin.Context) {
	var filter model.RelationshipFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	items, err := h.service.List(c.Request.Context(), &filter)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(items))
}

func (h *Handler) GetRelationship(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid relationship id"))
		return
	}
	rel, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(rel))
}

func (h *Handler) UpsertRelationship(c *gin.Context) {
	var req upsertRelationshipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	rel := &model.Relationship{
		SourceID: uuid.MustParse(req.SourceID),
		TargetID: uuid.MustParse(req.TargetID),
		Status:   model.RelationshipStatus(req.Status),
	}
	if req.ID != "" {
		id, err := uuid.Parse(req.ID)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid relationship id"))
			return
		}
		rel.ID = id
	}

	rel, err := h.service.Upsert(c.Request.Context(), rel)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(rel))
}

func (h *Handler) DeleteRelationship(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid relationship id"))
		return
	}
	if err := h.service.Delete(c.Request.Context(), middleware.RequesterFromContext(c), id); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) IsConnected(c *gin.Context) {
	a, err := uuid.Parse(c.Query("a"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid person id"))
		return
	}
	b, err := uuid.Parse(c.Query("b"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid person id"))
		return
	}

	connected, err := h.service.IsConnected(c.Request.Context(), a, b)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"connected": connected}))
}

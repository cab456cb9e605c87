package person

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/medrec-api/internal/handler"
	"github.com/jwalitptl/medrec-api/internal/model"
	"github.com/jwalitptl/medrec-api/internal/service/person"
)

type Handler struct {
	service *person.Service
}

func NewHandler(service *person.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	people := r.Group("/people")
	{
		people.GET("", h.ListPeople)
		people.GET("/:id", h.GetPerson)
		people.PUT("", h.UpsertPerson)
		people.DELETE("/:id", h.DeletePerson)
	}
}

type upsertPersonRequest struct {
	ID     string `json:"id"`
	Role   string `json:"role" binding:"required,role"`
	Status string `json:"status" binding:"omitempty,oneof=pending active inactive"`
	Name   string `json:"name" binding:"required"`
	Email  string `json:"email" binding:"required,email"`
}

func (h *Handler) ListPeople(c *gin.Context) {
	var role *model.Role
	if raw := c.Query("role"); raw != "" {
		r := model.Role(raw)
		role = &r
	}

	items, err := h.service.List(c.Request.Context(), role)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(items))
}

func (h *Handler) GetPerson(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid person id"))
		return
	}
	p, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(p))
}

func (h *Handler) UpsertPerson(c *gin.Context) {
	var req upsertPersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	p := &model.Person{
		Role:   model.Role(req.Role),
		Status: model.PersonStatus(req.Status),
		Name:   req.Name,
		Email:  req.Email,
	}
	if req.ID != "" {
		id, err := uuid.Parse(req.ID)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid person id"))
			return
		}
		p.ID = id
	}

	p, err := h.service.Upsert(c.Request.Context(), p)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(p))
}

func (h *Handler) DeletePerson(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid person id"))
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

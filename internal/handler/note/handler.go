package note

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/medrec-api/internal/handler"
	"github.com/jwalitptl/medrec-api/internal/middleware"
	"github.com/jwalitptl/medrec-api/internal/model"
	"github.com/jwalitptl/medrec-api/internal/service/note"
)

type Handler struct {
	service *note.Service
}

func NewHandler(service *note.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	notes := r.Group("/notes")
	{
		notes.GET("", h.ListNotes)
		notes.GET("/:id", h.GetNote)
		notes.PUT("", h.UpsertNote)
		notes.DELETE("", h.DeleteNotes)
	}
	experiments := r.Group("/experiments")
	{
		experiments.GET("", h.ListExperiments)
		experiments.GET("/:id", h.GetExperiment)
		experiments.PUT("", h.UpsertExperiment)
		experiments.DELETE("", h.DeleteExperiments)
	}
}

type upsertNoteRequest struct {
	ID              string `json:"id"`
	MedicalRecordID string `json:"medical_record_id" binding:"required,uuid"`
	OwnerID         string `json:"owner_id" binding:"required,uuid"`
	CreatorID       string `json:"creator_id" binding:"required,uuid"`
	Title           string `json:"title"`
	Content         string `json:"content" binding:"required"`
}

type noteFilterQuery struct {
	handler.FilterQuery
	MedicalRecordID string `form:"medical_record_id"`
	Content         string `form:"content"`
}

func (q *noteFilterQuery) build(c *gin.Context) (model.QueryScope, *uuid.UUID, *uuid.UUID, error) {
	scope, err := q.Scope(middleware.RequesterFromContext(c))
	if err != nil {
		return model.QueryScope{}, nil, nil, err
	}
	id, err := q.EntityID()
	if err != nil {
		return model.QueryScope{}, nil, nil, err
	}
	recordID, err := handler.ParseOptionalUUID(q.MedicalRecordID, "medical_record_id")
	if err != nil {
		return model.QueryScope{}, nil, nil, err
	}
	return scope, id, recordID, nil
}

func (h *Handler) noteFilter(c *gin.Context) (*model.MedicalNoteFilter, error) {
	var q noteFilterQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		return nil, err
	}
	scope, id, recordID, err := q.build(c)
	if err != nil {
		return nil, err
	}
	return &model.MedicalNoteFilter{
		QueryScope:      scope,
		ID:              id,
		MedicalRecordID: recordID,
		Content:         q.Content,
		Created:         q.Created(),
		Modified:        q.Modified(),
		Sort:            q.Sort(),
		PageSpec:        q.PageSpec(),
	}, nil
}

func (h *Handler) experimentFilter(c *gin.Context) (*model.ExperimentNoteFilter, error) {
	var q noteFilterQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		return nil, err
	}
	scope, id, recordID, err := q.build(c)
	if err != nil {
		return nil, err
	}
	return &model.ExperimentNoteFilter{
		QueryScope:      scope,
		ID:              id,
		MedicalRecordID: recordID,
		Content:         q.Content,
		Created:         q.Created(),
		Modified:        q.Modified(),
		Sort:            q.Sort(),
		PageSpec:        q.PageSpec(),
	}, nil
}

func (h *Handler) ListNotes(c *gin.Context) {
	filter, err := h.noteFilter(c)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	items, total, err := h.service.FilterNotes(c.Request.Context(), filter)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(handler.ListResponse{Items: items, Total: total}))
}

func (h *Handler) GetNote(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid note id"))
		return
	}
	n, err := h.service.FindNote(c.Request.Context(), middleware.RequesterFromContext(c), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(n))
}

func (h *Handler) UpsertNote(c *gin.Context) {
	n, err := h.bindNote(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	n, err = h.service.UpsertNote(c.Request.Context(), middleware.RequesterFromContext(c), n)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(n))
}

func (h *Handler) DeleteNotes(c *gin.Context) {
	filter, err := h.noteFilter(c)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	count, err := h.service.DeleteNotes(c.Request.Context(), filter)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"deleted": count}))
}

func (h *Handler) ListExperiments(c *gin.Context) {
	filter, err := h.experimentFilter(c)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	items, total, err := h.service.FilterExperiments(c.Request.Context(), filter)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(handler.ListResponse{Items: items, Total: total}))
}

func (h *Handler) GetExperiment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid experiment note id"))
		return
	}
	n, err := h.service.FindExperiment(c.Request.Context(), middleware.RequesterFromContext(c), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(n))
}

func (h *Handler) UpsertExperiment(c *gin.Context) {
	var req upsertNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	n := &model.ExperimentNote{
		MedicalRecordID: uuid.MustParse(req.MedicalRecordID),
		OwnerID:         uuid.MustParse(req.OwnerID),
		CreatorID:       uuid.MustParse(req.CreatorID),
		Title:           req.Title,
		Content:         req.Content,
	}
	if req.ID != "" {
		id, err := uuid.Parse(req.ID)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid experiment note id"))
			return
		}
		n.ID = id
	}

	n, err := h.service.UpsertExperiment(c.Request.Context(), middleware.RequesterFromContext(c), n)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(n))
}

func (h *Handler) DeleteExperiments(c *gin.Context) {
	filter, err := h.experimentFilter(c)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	count, err := h.service.DeleteExperiments(c.Request.Context(), filter)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"deleted": count}))
}

func (h *Handler) bindNote(c *gin.Context) (*model.MedicalNote, error) {
	var req upsertNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, err
	}

	n := &model.MedicalNote{
		MedicalRecordID: uuid.MustParse(req.MedicalRecordID),
		OwnerID:         uuid.MustParse(req.OwnerID),
		CreatorID:       uuid.MustParse(req.CreatorID),
		Title:           req.Title,
		Content:         req.Content,
	}
	if req.ID != "" {
		id, err := uuid.Parse(req.ID)
		if err != nil {
			return nil, err
		}
		n.ID = id
	}
	return n, nil
}

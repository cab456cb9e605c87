package record

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/medrec-api/internal/handler"
	"github.com/jwalitptl/medrec-api/internal/middleware"
	"github.com/jwalitptl/medrec-api/internal/model"
	"github.com/jwalitptl/medrec-api/internal/service/record"
)

type Handler struct {
	service *record.Service
}

func NewHandler(service *record.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	records := r.Group("/records")
	{
		records.GET("", h.ListRecords)
		records.GET("/:id", h.GetRecord)
		records.PUT("", h.UpsertRecord)
		records.DELETE("", h.DeleteRecords)
		records.DELETE("/:id", h.DeleteRecordCascade)
	}
}

type upsertRecordRequest struct {
	ID          string `json:"id"`
	OwnerID     string `json:"owner_id" binding:"required,uuid"`
	CreatorID   string `json:"creator_id" binding:"required,uuid"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Time        int64  `json:"time"`
}

type recordFilterQuery struct {
	handler.FilterQuery
	Name    string `form:"name"`
	TimeMin *int64 `form:"time_min"`
	TimeMax *int64 `form:"time_max"`
}

func (h *Handler) buildFilter(c *gin.Context) (*model.MedicalRecordFilter, error) {
	var q recordFilterQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		return nil, err
	}

	scope, err := q.Scope(middleware.RequesterFromContext(c))
	if err != nil {
		return nil, err
	}
	id, err := q.EntityID()
	if err != nil {
		return nil, err
	}

	return &model.MedicalRecordFilter{
		QueryScope: scope,
		ID:         id,
		Name:       q.Name,
		Time:       model.Int64Range{Min: q.TimeMin, Max: q.TimeMax},
		Created:    q.Created(),
		Modified:   q.Modified(),
		Sort:       q.Sort(),
		PageSpec:   q.PageSpec(),
	}, nil
}

func (h *Handler) ListRecords(c *gin.Context) {
	filter, err := h.buildFilter(c)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	items, total, err := h.service.Filter(c.Request.Context(), filter)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(handler.ListResponse{Items: items, Total: total}))
}

func (h *Handler) GetRecord(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid record id"))
		return
	}

	rec, err := h.service.Find(c.Request.Context(), middleware.RequesterFromContext(c), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(rec))
}

func (h *Handler) UpsertRecord(c *gin.Context) {
	var req upsertRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	rec := &model.MedicalRecord{
		Name:        req.Name,
		Description: req.Description,
		Time:        req.Time,
	}
	rec.OwnerID = uuid.MustParse(req.OwnerID)
	rec.CreatorID = uuid.MustParse(req.CreatorID)
	if req.ID != "" {
		id, err := uuid.Parse(req.ID)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid record id"))
			return
		}
		rec.ID = id
	}

	rec, err := h.service.Upsert(c.Request.Context(), middleware.RequesterFromContext(c), rec)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(rec))
}

func (h *Handler) DeleteRecords(c *gin.Context) {
	filter, err := h.buildFilter(c)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	count, err := h.service.DeleteWhere(c.Request.Context(), filter)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"deleted": count}))
}

func (h *Handler) DeleteRecordCascade(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid record id"))
		return
	}

	result, err := h.service.DeleteCascade(c.Request.Context(), middleware.RequesterFromContext(c), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}

package prescription

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/medrec-api/internal/handler"
	"github.com/jwalitptl/medrec-api/internal/middleware"
	"github.com/jwalitptl/medrec-api/internal/model"
	"github.com/jwalitptl/medrec-api/internal/service/prescription"
)

type Handler struct {
	service *prescription.Service
}

func NewHandler(service *prescription.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	prescriptions := r.Group("/prescriptions")
	{
		prescriptions.GET("", h.ListPrescriptions)
		prescriptions.GET("/:id", h.GetPrescription)
		prescriptions.PUT("", h.UpsertPrescription)
		prescriptions.DELETE("", h.DeletePrescriptions)
		prescriptions.DELETE("/:id", h.DeletePrescriptionCascade)
	}
}

type upsertPrescriptionRequest struct {
	ID              string `json:"id"`
	MedicalRecordID string `json:"medical_record_id" binding:"required,uuid"`
	OwnerID         string `json:"owner_id" binding:"required,uuid"`
	CreatorID       string `json:"creator_id" binding:"required,uuid"`
	Name            string `json:"name" binding:"required"`
	Description     string `json:"description"`
}

type prescriptionFilterQuery struct {
	handler.FilterQuery
	MedicalRecordID string `form:"medical_record_id"`
	Name            string `form:"name"`
}

func (h *Handler) buildFilter(c *gin.Context) (*model.PrescriptionFilter, error) {
	var q prescriptionFilterQuery
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
	recordID, err := handler.ParseOptionalUUID(q.MedicalRecordID, "medical_record_id")
	if err != nil {
		return nil, err
	}
	return &model.PrescriptionFilter{
		QueryScope:      scope,
		ID:              id,
		MedicalRecordID: recordID,
		Name:            q.Name,
		Created:         q.Created(),
		Modified:        q.Modified(),
		Sort:            q.Sort(),
		PageSpec:        q.PageSpec(),
	}, nil
}

func (h *Handler) ListPrescriptions(c *gin.Context) {
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

func (h *Handler) GetPrescription(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid prescription id"))
		return
	}
	p, err := h.service.Find(c.Request.Context(), middleware.RequesterFromContext(c), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(p))
}

func (h *Handler) UpsertPrescription(c *gin.Context) {
	var req upsertPrescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	p := &model.Prescription{
		MedicalRecordID: uuid.MustParse(req.MedicalRecordID),
		OwnerID:         uuid.MustParse(req.OwnerID),
		CreatorID:       uuid.MustParse(req.CreatorID),
		Name:            req.Name,
		Description:     req.Description,
	}
	if req.ID != "" {
		id, err := uuid.Parse(req.ID)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid prescription id"))
			return
		}
		p.ID = id
	}

	p, err := h.service.Upsert(c.Request.Context(), middleware.RequesterFromContext(c), p)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(p))
}

func (h *Handler) DeletePrescriptions(c *gin.Context) {
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

func (h *Handler) DeletePrescriptionCascade(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid prescription id"))
		return
	}
	result, err := h.service.DeleteCascade(c.Request.Context(), middleware.RequesterFromContext(c), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}

package image

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/medrec-api/internal/handler"
	"github.com/jwalitptl/medrec-api/internal/middleware"
	"github.com/jwalitptl/medrec-api/internal/model"
	"github.com/jwalitptl/medrec-api/internal/service/image"
)

type Handler struct {
	service *image.Service
}

func NewHandler(service *image.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	images := r.Group("/images")
	{
		images.GET("", h.ListImages)
		images.GET("/:id", h.GetImage)
		images.PUT("", h.UpsertImage)
		images.DELETE("", h.DeleteImages)
		images.DELETE("/:id", h.DeleteImage)
	}
	prescriptionImages := r.Group("/prescription-images")
	{
		prescriptionImages.GET("", h.ListPrescriptionImages)
		prescriptionImages.GET("/:id", h.GetPrescriptionImage)
		prescriptionImages.PUT("", h.UpsertPrescriptionImage)
		prescriptionImages.DELETE("", h.DeletePrescriptionImages)
		prescriptionImages.DELETE("/:id", h.DeletePrescriptionImage)
	}
}

type upsertImageRequest struct {
	ID              string `json:"id"`
	MedicalRecordID string `json:"medical_record_id" binding:"required,uuid"`
	OwnerID         string `json:"owner_id" binding:"required,uuid"`
	CreatorID       string `json:"creator_id" binding:"required,uuid"`
	Name            string `json:"name" binding:"required"`
	FullPath        string `json:"full_path" binding:"required"`
}

type upsertPrescriptionImageRequest struct {
	ID             string `json:"id"`
	PrescriptionID string `json:"prescription_id" binding:"required,uuid"`
	OwnerID        string `json:"owner_id" binding:"required,uuid"`
	CreatorID      string `json:"creator_id" binding:"required,uuid"`
	Name           string `json:"name" binding:"required"`
	FullPath       string `json:"full_path" binding:"required"`
}

type imageFilterQuery struct {
	handler.FilterQuery
	MedicalRecordID string `form:"medical_record_id"`
	PrescriptionID  string `form:"prescription_id"`
	Name            string `form:"name"`
	Available       *bool  `form:"available"`
}

func (h *Handler) buildImageFilter(c *gin.Context) (*model.MedicalImageFilter, error) {
	var q imageFilterQuery
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
	return &model.MedicalImageFilter{
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

func (h *Handler) ListImages(c *gin.Context) {
	filter, err := h.buildImageFilter(c)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	items, total, err := h.service.FilterImages(c.Request.Context(), filter)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(handler.ListResponse{Items: items, Total: total}))
}

func (h *Handler) GetImage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid image id"))
		return
	}
	img, err := h.service.FindImage(c.Request.Context(), middleware.RequesterFromContext(c), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(img))
}

func (h *Handler) UpsertImage(c *gin.Context) {
	var req upsertImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	img := &model.MedicalImage{
		MedicalRecordID: uuid.MustParse(req.MedicalRecordID),
		OwnerID:         uuid.MustParse(req.OwnerID),
		CreatorID:       uuid.MustParse(req.CreatorID),
		Name:            req.Name,
		FullPath:        req.FullPath,
	}
	if req.ID != "" {
		id, err := uuid.Parse(req.ID)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid image id"))
			return
		}
		img.ID = id
	}

	img, err := h.service.UpsertImage(c.Request.Context(), middleware.RequesterFromContext(c), img)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(img))
}

func (h *Handler) DeleteImage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid image id"))
		return
	}
	if err := h.service.DeleteImage(c.Request.Context(), middleware.RequesterFromContext(c), id); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) buildPrescriptionImageFilter(c *gin.Context) (*model.PrescriptionImageFilter, error) {
	var q imageFilterQuery
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
	prescriptionID, err := handler.ParseOptionalUUID(q.PrescriptionID, "prescription_id")
	if err != nil {
		return nil, err
	}
	return &model.PrescriptionImageFilter{
		QueryScope:     scope,
		ID:             id,
		PrescriptionID: prescriptionID,
		Name:           q.Name,
		Available:      q.Available,
		Created:        q.Created(),
		Modified:       q.Modified(),
		Sort:           q.Sort(),
		PageSpec:       q.PageSpec(),
	}, nil
}

func (h *Handler) DeleteImages(c *gin.Context) {
	filter, err := h.buildImageFilter(c)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	count, err := h.service.DeleteImages(c.Request.Context(), filter)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"deleted": count}))
}

func (h *Handler) ListPrescriptionImages(c *gin.Context) {
	filter, err := h.buildPrescriptionImageFilter(c)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	items, total, err := h.service.FilterPrescriptionImages(c.Request.Context(), filter)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(handler.ListResponse{Items: items, Total: total}))
}

func (h *Handler) GetPrescriptionImage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid prescription image id"))
		return
	}
	img, err := h.service.FindPrescriptionImage(c.Request.Context(), middleware.RequesterFromContext(c), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(img))
}

func (h *Handler) UpsertPrescriptionImage(c *gin.Context) {
	var req upsertPrescriptionImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	img := &model.PrescriptionImage{
		PrescriptionID: uuid.MustParse(req.PrescriptionID),
		OwnerID:        uuid.MustParse(req.OwnerID),
		CreatorID:      uuid.MustParse(req.CreatorID),
		Name:           req.Name,
		FullPath:       req.FullPath,
	}
	if req.ID != "" {
		id, err := uuid.Parse(req.ID)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid prescription image id"))
			return
		}
		img.ID = id
	}

	img, err := h.service.UpsertPrescriptionImage(c.Request.Context(), middleware.RequesterFromContext(c), img)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(img))
}

func (h *Handler) DeletePrescriptionImages(c *gin.Context) {
	filter, err := h.buildPrescriptionImageFilter(c)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	count, err := h.service.DeletePrescriptionImages(c.Request.Context(), filter)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"deleted": count}))
}

func (h *Handler) DeletePrescriptionImage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid prescription image id"))
		return
	}

	mode := model.DeletionModeSoft
	if c.Query("mode") == string(model.DeletionModeHard) {
		mode = model.DeletionModeHard
	}

	if err := h.service.DeletePrescriptionImage(c.Request.Context(), middleware.RequesterFromContext(c), id, mode); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

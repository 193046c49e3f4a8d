package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rogaciano/rotadomarPLM/internal/logger"
	"github.com/rogaciano/rotadomarPLM/internal/services"
	"github.com/rogaciano/rotadomarPLM/internal/types"
)

type CatalogHandler struct {
	log            *logger.Logger
	catalogService services.CatalogService
}

func NewCatalogHandler(log *logger.Logger, csvc services.CatalogService) *CatalogHandler {
	return &CatalogHandler{
		log:            log.With("handler", "CatalogHandler"),
		catalogService: csvc,
	}
}

func activeOnly(c *gin.Context) bool {
	return c.Query("active") == "true"
}

// POST /api/brands
func (h *CatalogHandler) CreateBrand(c *gin.Context) {
	var req struct {
		Name   string `json:"name" binding:"required"`
		Active *bool  `json:"active"`
		Notes  string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	brand := &types.Brand{Name: req.Name, Active: true, Notes: req.Notes}
	if req.Active != nil {
		brand.Active = *req.Active
	}
	created, err := h.catalogService.CreateBrand(c.Request.Context(), brand)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondCreated(c, created)
}

// GET /api/brands
func (h *CatalogHandler) ListBrands(c *gin.Context) {
	brands, err := h.catalogService.ListBrands(c.Request.Context(), activeOnly(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, brands)
}

// PUT /api/brands/:id
func (h *CatalogHandler) UpdateBrand(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req struct {
		Name   string `json:"name" binding:"required"`
		Active bool   `json:"active"`
		Notes  string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	brand := &types.Brand{ID: id, Name: req.Name, Active: req.Active, Notes: req.Notes}
	if err := h.catalogService.UpdateBrand(c.Request.Context(), brand); err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, brand)
}

// DELETE /api/brands/:id
func (h *CatalogHandler) DeleteBrand(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := h.catalogService.DeleteBrand(c.Request.Context(), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/fabrics
func (h *CatalogHandler) CreateFabric(c *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"required"`
		Composition string `json:"composition"`
		Active      *bool  `json:"active"`
		Notes       string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	fabric := &types.Fabric{Name: req.Name, Composition: req.Composition, Active: true, Notes: req.Notes}
	if req.Active != nil {
		fabric.Active = *req.Active
	}
	created, err := h.catalogService.CreateFabric(c.Request.Context(), fabric)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondCreated(c, created)
}

// GET /api/fabrics
func (h *CatalogHandler) ListFabrics(c *gin.Context) {
	fabrics, err := h.catalogService.ListFabrics(c.Request.Context(), activeOnly(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, fabrics)
}

// PUT /api/fabrics/:id
func (h *CatalogHandler) UpdateFabric(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req struct {
		Name        string `json:"name" binding:"required"`
		Composition string `json:"composition"`
		Active      bool   `json:"active"`
		Notes       string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	fabric := &types.Fabric{ID: id, Name: req.Name, Composition: req.Composition, Active: req.Active, Notes: req.Notes}
	if err := h.catalogService.UpdateFabric(c.Request.Context(), fabric); err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, fabric)
}

// DELETE /api/fabrics/:id
func (h *CatalogHandler) DeleteFabric(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := h.catalogService.DeleteFabric(c.Request.Context(), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/designers
func (h *CatalogHandler) CreateDesigner(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	created, err := h.catalogService.CreateDesigner(c.Request.Context(), &types.Designer{Name: req.Name, Active: true})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondCreated(c, created)
}

// GET /api/designers
func (h *CatalogHandler) ListDesigners(c *gin.Context) {
	designers, err := h.catalogService.ListDesigners(c.Request.Context(), activeOnly(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, designers)
}

// POST /api/groups
func (h *CatalogHandler) CreateGroup(c *gin.Context) {
	var req struct {
		Description string `json:"description" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	created, err := h.catalogService.CreateGroup(c.Request.Context(), &types.ProductGroup{Description: req.Description, Active: true})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondCreated(c, created)
}

// GET /api/groups
func (h *CatalogHandler) ListGroups(c *gin.Context) {
	groups, err := h.catalogService.ListGroups(c.Request.Context(), activeOnly(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, groups)
}

// POST /api/statuses
func (h *CatalogHandler) CreateStatus(c *gin.Context) {
	var req struct {
		Description string `json:"description" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	created, err := h.catalogService.CreateStatus(c.Request.Context(), &types.Status{Description: req.Description, Active: true})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondCreated(c, created)
}

// GET /api/statuses
func (h *CatalogHandler) ListStatuses(c *gin.Context) {
	statuses, err := h.catalogService.ListStatuses(c.Request.Context(), activeOnly(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, statuses)
}

package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rogaciano/rotadomarPLM/internal/logger"
	"github.com/rogaciano/rotadomarPLM/internal/repos"
	"github.com/rogaciano/rotadomarPLM/internal/requestdata"
	"github.com/rogaciano/rotadomarPLM/internal/services"
)

type ProductHandler struct {
	log            *logger.Logger
	productService services.ProductService
}

func NewProductHandler(log *logger.Logger, psvc services.ProductService) *ProductHandler {
	return &ProductHandler{
		log:            log.With("handler", "ProductHandler"),
		productService: psvc,
	}
}

type productFabricRequest struct {
	FabricID    uuid.UUID       `json:"fabric_id" binding:"required"`
	Consumption decimal.Decimal `json:"consumption"`
}

type productColorRequest struct {
	Color     string `json:"color" binding:"required"`
	ColorCode string `json:"color_code"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

type productRequest struct {
	Reference            string                 `json:"reference" binding:"required"`
	Description          string                 `json:"description" binding:"required"`
	RegisteredAt         *time.Time             `json:"registered_at"`
	ExpectedProductionAt *time.Time             `json:"expected_production_at"`
	BrandID              uuid.UUID              `json:"brand_id" binding:"required"`
	DesignerID           uuid.UUID              `json:"designer_id" binding:"required"`
	GroupID              uuid.UUID              `json:"group_id" binding:"required"`
	StatusID             uuid.UUID              `json:"status_id" binding:"required"`
	Notes                string                 `json:"notes"`
	Fabrics              []productFabricRequest `json:"fabrics" binding:"required,min=1"`
	Colors               []productColorRequest  `json:"colors"`
}

func (req *productRequest) toInput() services.ProductInput {
	in := services.ProductInput{
		Reference:            req.Reference,
		Description:          req.Description,
		RegisteredAt:         req.RegisteredAt,
		ExpectedProductionAt: req.ExpectedProductionAt,
		BrandID:              req.BrandID,
		DesignerID:           req.DesignerID,
		GroupID:              req.GroupID,
		StatusID:             req.StatusID,
		Notes:                req.Notes,
	}
	for _, f := range req.Fabrics {
		in.Fabrics = append(in.Fabrics, services.ProductFabricInput{
			FabricID:    f.FabricID,
			Consumption: f.Consumption,
		})
	}
	for _, c := range req.Colors {
		in.Colors = append(in.Colors, services.ProductColorInput{
			Color:     c.Color,
			ColorCode: c.ColorCode,
			Quantity:  c.Quantity,
		})
	}
	return in
}

// POST /api/products
func (h *ProductHandler) Create(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	product, err := h.productService.Create(c.Request.Context(), nil, req.toInput(), rd.UserID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondCreated(c, product)
}

// GET /api/products
func (h *ProductHandler) List(c *gin.Context) {
	filter := repos.ProductFilter{
		Reference:   c.Query("reference"),
		Description: c.Query("description"),
	}
	if v := c.Query("brand_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_brand_id", err)
			return
		}
		filter.BrandID = id
	}
	if v := c.Query("location_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_location_id", err)
			return
		}
		filter.LocationID = id
	}
	if v := c.Query("status_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_status_id", err)
			return
		}
		filter.StatusID = id
	}
	filter.WithDeleted = c.Query("with_deleted") == "true"

	products, err := h.productService.List(c.Request.Context(), filter)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, products)
}

// GET /api/products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	product, err := h.productService.Get(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, product)
}

// PUT /api/products/:id
func (h *ProductHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	product, err := h.productService.Update(c.Request.Context(), id, req.toInput(), rd.UserID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, product)
}

// DELETE /api/products/:id
func (h *ProductHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	if err := h.productService.Delete(c.Request.Context(), id, rd.UserID); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/products/:id/copy
func (h *ProductHandler) Copy(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req struct {
		NewReference string `json:"new_reference" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	product, err := h.productService.Copy(c.Request.Context(), id, req.NewReference, rd.UserID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondCreated(c, product)
}

// GET /api/products/:id/events
func (h *ProductHandler) ListEvents(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	events, err := h.productService.ListEvents(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, events)
}

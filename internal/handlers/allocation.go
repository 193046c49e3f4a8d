package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rogaciano/rotadomarPLM/internal/allocation"
	"github.com/rogaciano/rotadomarPLM/internal/logger"
	"github.com/rogaciano/rotadomarPLM/internal/requestdata"
	"github.com/rogaciano/rotadomarPLM/internal/services"
)

type AllocationHandler struct {
	log               *logger.Logger
	allocationService services.AllocationService
}

func NewAllocationHandler(log *logger.Logger, asvc services.AllocationService) *AllocationHandler {
	return &AllocationHandler{
		log:               log.With("handler", "AllocationHandler"),
		allocationService: asvc,
	}
}

type assignRequest struct {
	LocationID      uuid.UUID  `json:"location_id" binding:"required"`
	Quantity        int        `json:"quantity"`
	TargetDate      *time.Time `json:"target_date"`
	ProductionOrder string     `json:"production_order"`
	Note            string     `json:"note"`
}

type updateRowRequest struct {
	Quantity        *int       `json:"quantity"`
	TargetDate      *time.Time `json:"target_date"`
	ClearTargetDate bool       `json:"clear_target_date"`
	ProductionOrder *string    `json:"production_order"`
	Note            *string    `json:"note"`
}

// POST /api/products/:id/locations
func (h *AllocationHandler) Assign(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	row, err := h.allocationService.Assign(c.Request.Context(), allocation.AssignInput{
		ProductID:       productID,
		LocationID:      req.LocationID,
		Quantity:        req.Quantity,
		TargetDate:      req.TargetDate,
		ProductionOrder: req.ProductionOrder,
		Note:            req.Note,
		UserID:          rd.UserID,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondCreated(c, row)
}

// PATCH /api/product-locations/:rowId
func (h *AllocationHandler) Update(c *gin.Context) {
	rowID, err := uuid.Parse(c.Param("rowId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req updateRowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	row, err := h.allocationService.Update(c.Request.Context(), rowID, allocation.UpdateInput{
		Quantity:        req.Quantity,
		TargetDate:      req.TargetDate,
		ClearTargetDate: req.ClearTargetDate,
		ProductionOrder: req.ProductionOrder,
		Note:            req.Note,
		UserID:          rd.UserID,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, row)
}

// DELETE /api/product-locations/:rowId
func (h *AllocationHandler) Remove(c *gin.Context) {
	rowID, err := uuid.Parse(c.Param("rowId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	if err := h.allocationService.Remove(c.Request.Context(), rowID, rd.UserID); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/products/:id/locations
func (h *AllocationHandler) ListRows(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var rows interface{}
	if c.Query("with_deleted") == "true" {
		rows, err = h.allocationService.ListAll(c.Request.Context(), productID)
	} else {
		rows, err = h.allocationService.ListActive(c.Request.Context(), productID)
	}
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, rows)
}

// GET /api/products/:id/allocations
func (h *AllocationHandler) Ledger(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	entries, err := h.allocationService.Ledger(c.Request.Context(), productID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, entries)
}

// GET /api/products/:id/allocations/check
func (h *AllocationHandler) Check(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	report, err := h.allocationService.Check(c.Request.Context(), productID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, report)
}

// POST /api/products/:id/allocations/rebuild
// Destructive repair; the confirm flag keeps it out of reach of casual calls.
func (h *AllocationHandler) Rebuild(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req struct {
		Confirm bool `json:"confirm"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if !req.Confirm {
		RespondError(c, http.StatusBadRequest, "confirm_required", errors.New("rebuild requires confirm=true"))
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	result, err := h.allocationService.Rebuild(c.Request.Context(), productID, rd.UserID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, result)
}

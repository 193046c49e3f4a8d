package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rogaciano/rotadomarPLM/internal/logger"
	"github.com/rogaciano/rotadomarPLM/internal/services"
	"github.com/rogaciano/rotadomarPLM/internal/types"
)

type CapacityHandler struct {
	log             *logger.Logger
	capacityService services.CapacityService
}

func NewCapacityHandler(log *logger.Logger, csvc services.CapacityService) *CapacityHandler {
	return &CapacityHandler{
		log:             log.With("handler", "CapacityHandler"),
		capacityService: csvc,
	}
}

// PUT /api/locations/:id/capacities
func (h *CapacityHandler) Upsert(c *gin.Context) {
	locationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req struct {
		Month    int    `json:"month" binding:"required"`
		Year     int    `json:"year" binding:"required"`
		Capacity int    `json:"capacity"`
		Notes    string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	cap := &types.LocationCapacity{
		LocationID: locationID,
		Month:      req.Month,
		Year:       req.Year,
		Capacity:   req.Capacity,
		Notes:      req.Notes,
	}
	if err := h.capacityService.Upsert(c.Request.Context(), cap); err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, cap)
}

// GET /api/locations/:id/capacities
func (h *CapacityHandler) List(c *gin.Context) {
	locationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	caps, err := h.capacityService.ListForLocation(c.Request.Context(), locationID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, caps)
}

// GET /api/locations/:id/occupancy
//
// With month+year query params returns the single bucket; without them,
// one figure per capacity row the location has registered.
func (h *CapacityHandler) Occupancy(c *gin.Context) {
	locationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	monthStr, yearStr := c.Query("month"), c.Query("year")
	if monthStr == "" && yearStr == "" {
		occs, err := h.capacityService.OccupancyForLocation(c.Request.Context(), locationID)
		if err != nil {
			RespondDomainError(c, err)
			return
		}
		RespondOK(c, occs)
		return
	}
	month, err := strconv.Atoi(monthStr)
	if err != nil || month < 1 || month > 12 {
		RespondError(c, http.StatusBadRequest, "invalid_month", errors.New("month must be 1-12"))
		return
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_year", err)
		return
	}
	occ, err := h.capacityService.Occupancy(c.Request.Context(), locationID, month, year)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, occ)
}

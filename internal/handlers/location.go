package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rogaciano/rotadomarPLM/internal/logger"
	"github.com/rogaciano/rotadomarPLM/internal/services"
	"github.com/rogaciano/rotadomarPLM/internal/types"
)

type LocationHandler struct {
	log             *logger.Logger
	locationService services.LocationService
}

func NewLocationHandler(log *logger.Logger, lsvc services.LocationService) *LocationHandler {
	return &LocationHandler{
		log:             log.With("handler", "LocationHandler"),
		locationService: lsvc,
	}
}

type locationRequest struct {
	Name         string `json:"name" binding:"required"`
	ShortName    string `json:"short_name"`
	Active       *bool  `json:"active"`
	LeadTimeDays int    `json:"lead_time_days"`
	Capacity     int    `json:"capacity"`
	Notes        string `json:"notes"`
}

func (r *locationRequest) toModel(id uuid.UUID) *types.Location {
	loc := &types.Location{
		ID:           id,
		Name:         r.Name,
		ShortName:    r.ShortName,
		Active:       true,
		LeadTimeDays: r.LeadTimeDays,
		Capacity:     r.Capacity,
		Notes:        r.Notes,
	}
	if r.Active != nil {
		loc.Active = *r.Active
	}
	return loc
}

// POST /api/locations
func (h *LocationHandler) Create(c *gin.Context) {
	var req locationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	created, err := h.locationService.Create(c.Request.Context(), req.toModel(uuid.Nil))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondCreated(c, created)
}

// GET /api/locations
func (h *LocationHandler) List(c *gin.Context) {
	locations, err := h.locationService.List(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, locations)
}

// GET /api/locations/:id
func (h *LocationHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	location, err := h.locationService.Get(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, location)
}

// PUT /api/locations/:id
func (h *LocationHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req locationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	location := req.toModel(id)
	if err := h.locationService.Update(c.Request.Context(), location); err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, location)
}

// DELETE /api/locations/:id
func (h *LocationHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := h.locationService.Delete(c.Request.Context(), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

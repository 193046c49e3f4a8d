package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rogaciano/rotadomarPLM/internal/logger"
	"github.com/rogaciano/rotadomarPLM/internal/requestdata"
	"github.com/rogaciano/rotadomarPLM/internal/services"
	"github.com/rogaciano/rotadomarPLM/internal/types"
)

type UserHandler struct {
	log         *logger.Logger
	userService services.UserService
}

func NewUserHandler(log *logger.Logger, usvc services.UserService) *UserHandler {
	return &UserHandler{
		log:         log.With("handler", "UserHandler"),
		userService: usvc,
	}
}

// GET /api/me
func (h *UserHandler) GetMe(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("no identity in request"))
		return
	}
	user, err := h.userService.Get(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, user)
}

// POST /api/users
func (h *UserHandler) Create(c *gin.Context) {
	var req struct {
		Name  string `json:"name" binding:"required"`
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	created, err := h.userService.Create(c.Request.Context(), &types.User{Name: req.Name, Email: req.Email})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondCreated(c, created)
}

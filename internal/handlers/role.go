package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/mirachat/mira/internal/apperrors"
	"github.com/mirachat/mira/internal/database"
	"github.com/mirachat/mira/internal/handlers/dto"
	"github.com/mirachat/mira/internal/middleware"
	"github.com/mirachat/mira/internal/response"
)

// RoleHandler serves the admin-only role administration endpoints.
type RoleHandler struct {
	db *database.Database
}

func NewRoleHandler(db *database.Database) *RoleHandler {
	return &RoleHandler{db: db}
}

func (h *RoleHandler) Create(c *gin.Context) {
	var req dto.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, apperrors.Validation(err.Error()))
		return
	}

	role, err := h.db.CreateRole(req.Name, req.Description, middleware.Principal(c).UserID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, role)
}

func (h *RoleHandler) Grant(c *gin.Context) {
	var req dto.GrantRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, apperrors.Validation(err.Error()))
		return
	}

	if err := h.db.GrantRole(req.UserID, req.RoleName); err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, true)
}

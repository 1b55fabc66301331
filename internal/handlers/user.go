package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/mirachat/mira/internal/apperrors"
	"github.com/mirachat/mira/internal/database"
	"github.com/mirachat/mira/internal/handlers/dto"
	"github.com/mirachat/mira/internal/middleware"
	"github.com/mirachat/mira/internal/models"
	"github.com/mirachat/mira/internal/pagination"
	"github.com/mirachat/mira/internal/response"
)

type UserHandler struct {
	db *database.Database
}

func NewUserHandler(db *database.Database) *UserHandler {
	return &UserHandler{db: db}
}

// Create provisions a user; admin-only (route guard).
func (h *UserHandler) Create(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, apperrors.Validation(err.Error()))
		return
	}

	user, err := h.db.CreateUser(database.CreateUserParams{
		Nickname:    req.Nickname,
		Avatar:      req.Avatar,
		Password:    req.Password,
		AccountType: req.AccountType,
		Account:     req.Account,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, dto.NewUserRO(user, ""))
}

func (h *UserHandler) Search(c *gin.Context) {
	var req dto.SearchUsersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, apperrors.Validation(err.Error()))
		return
	}

	res, err := h.db.SearchUsers(database.UserFilter{
		ID:       req.ID,
		Nickname: req.Nickname,
		Email:    req.Email,
		Phone:    req.Phone,
	}, req.Page)
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, pagination.MapResult(res, func(u *models.User) dto.UserRO {
		return dto.NewUserRO(u, "")
	}))
}

// Myself confirms the current token still maps to a live account.
func (h *UserHandler) Myself(c *gin.Context) {
	p := middleware.Principal(c)
	user, err := h.db.GetUser(p.UserID, models.UserQueryOpts{
		WithRoles: true, WithGroups: true, WithOwnGroups: true, WithFriends: true,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, dto.NewUserRO(user, ""))
}

func (h *UserHandler) Hot(c *gin.Context) {
	res, err := h.db.HotUsers()
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, pagination.MapResult(res, func(u *models.User) dto.UserRO {
		return dto.NewUserRO(u, "")
	}))
}

func (h *UserHandler) GetByEmail(c *gin.Context) {
	user, err := h.db.FindUserByEmail(c.Param("email"), models.UserQueryOpts{WithRoles: true})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, dto.NewUserRO(user, ""))
}

func (h *UserHandler) GetByPhone(c *gin.Context) {
	user, err := h.db.FindUserByPhone(c.Param("phone"), models.UserQueryOpts{WithRoles: true})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, dto.NewUserRO(user, ""))
}

func (h *UserHandler) GetByID(c *gin.Context) {
	user, err := h.db.GetUser(c.Param("id"), models.UserQueryOpts{WithRoles: true, WithGroups: true})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, dto.NewUserRO(user, ""))
}

// Update edits nickname/avatar; self-or-admin.
func (h *UserHandler) Update(c *gin.Context) {
	id := c.Param("id")
	if !middleware.Principal(c).CanActAs(id) {
		response.Fail(c, apperrors.Forbidden("may only edit your own profile"))
		return
	}

	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, apperrors.Validation(err.Error()))
		return
	}

	if err := h.db.UpdateUserInfo(id, database.UserInfoPatch{
		Nickname: req.Nickname,
		Avatar:   req.Avatar,
	}); err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, true)
}

// Delete removes a user; self-or-admin. Fails while the user owns groups.
func (h *UserHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if !middleware.Principal(c).CanActAs(id) {
		response.Fail(c, apperrors.Forbidden("may only delete your own account"))
		return
	}

	if err := h.db.DeleteUser(id); err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, true)
}

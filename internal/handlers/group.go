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

type GroupHandler struct {
	db *database.Database
}

func NewGroupHandler(db *database.Database) *GroupHandler {
	return &GroupHandler{db: db}
}

// Create makes the requester the owner of the new group.
func (h *GroupHandler) Create(c *gin.Context) {
	var req dto.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, apperrors.Validation(err.Error()))
		return
	}

	group, err := h.db.CreateGroup(req.Name, req.Notice, middleware.Principal(c).UserID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, dto.NewGroupRO(group))
}

func (h *GroupHandler) Search(c *gin.Context) {
	var req dto.SearchGroupsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, apperrors.Validation(err.Error()))
		return
	}

	from, to := req.TimeRange()
	res, err := h.db.SearchGroups(database.GroupFilter{
		ID:          req.ID,
		Name:        req.Name,
		CreatedFrom: from,
		CreatedTo:   to,
		OwnerID:     req.OwnerID,
	}, req.Page)
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, pagination.MapResult(res, func(g *models.Group) dto.GroupRO {
		return dto.NewGroupRO(g)
	}))
}

func (h *GroupHandler) Hot(c *gin.Context) {
	res, err := h.db.HotGroups()
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, pagination.MapResult(res, func(g *models.Group) dto.GroupRO {
		return dto.NewGroupRO(g)
	}))
}

func (h *GroupHandler) GetByID(c *gin.Context) {
	group, err := h.db.GetGroup(c.Param("id"), models.GroupQueryOpts{WithOwner: true, WithMembers: true})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, dto.NewGroupRO(group))
}

// Update edits name/notice; owner-or-admin.
func (h *GroupHandler) Update(c *gin.Context) {
	id := c.Param("id")
	if err := h.requireOwnerOrAdmin(c, id); err != nil {
		response.Fail(c, err)
		return
	}

	var req dto.UpdateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, apperrors.Validation(err.Error()))
		return
	}

	if err := h.db.UpdateGroupInfo(id, database.GroupInfoPatch{
		Name:   req.Name,
		Notice: req.Notice,
	}); err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, true)
}

// Delete removes the group and its messages; owner-or-admin.
func (h *GroupHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.requireOwnerOrAdmin(c, id); err != nil {
		response.Fail(c, err)
		return
	}

	if err := h.db.DeleteGroup(id); err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, true)
}

func (h *GroupHandler) Join(c *gin.Context) {
	if err := h.db.AddGroupMember(c.Param("id"), middleware.Principal(c).UserID); err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, true)
}

func (h *GroupHandler) Leave(c *gin.Context) {
	if err := h.db.RemoveGroupMember(c.Param("id"), middleware.Principal(c).UserID); err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, true)
}

func (h *GroupHandler) requireOwnerOrAdmin(c *gin.Context, groupID string) error {
	p := middleware.Principal(c)
	if p.Admin {
		return nil
	}
	group, err := h.db.GetGroup(groupID, models.GroupQueryOpts{})
	if err != nil {
		return err
	}
	if group.OwnerID != p.UserID {
		return apperrors.Forbidden("only the group owner may do this")
	}
	return nil
}

package dto

import (
	"time"

	"github.com/mirachat/mira/internal/models"
	"github.com/mirachat/mira/internal/pagination"
)

type GroupRO struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Notice  string   `json:"notice"`
	Owner   *UserRO  `json:"owner,omitempty"`
	Members []UserRO `json:"members,omitempty"`
}

func NewGroupRO(g *models.Group) GroupRO {
	ro := GroupRO{
		ID:     g.ID,
		Name:   g.Name,
		Notice: g.Notice,
	}
	if g.Owner != nil {
		u := NewUserRO(g.Owner, "")
		ro.Owner = &u
	} else {
		ro.Owner = &UserRO{ID: g.OwnerID}
	}
	for i := range g.Members {
		ro.Members = append(ro.Members, NewUserRO(&g.Members[i], ""))
	}
	return ro
}

func NewGroupROs(groups []models.Group) []GroupRO {
	ros := make([]GroupRO, len(groups))
	for i := range groups {
		ros[i] = NewGroupRO(&groups[i])
	}
	return ros
}

type CreateGroupRequest struct {
	Name   string `json:"name" binding:"required,min=1,max=50"`
	Notice string `json:"notice"`
}

type UpdateGroupRequest struct {
	Name   *string `json:"name"`
	Notice *string `json:"notice"`
}

type SearchGroupsRequest struct {
	pagination.Page
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	CreatedTime [2]int64 `json:"createdTime"`
	OwnerID     string   `json:"ownerId"`
}

func (r SearchGroupsRequest) TimeRange() (from, to *time.Time) {
	if r.CreatedTime[0] == 0 && r.CreatedTime[1] == 0 {
		return nil, nil
	}
	f := time.UnixMilli(r.CreatedTime[0])
	t := time.UnixMilli(r.CreatedTime[1])
	return &f, &t
}

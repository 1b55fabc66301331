package dto

import (
	"github.com/mirachat/mira/internal/models"
	"github.com/mirachat/mira/internal/pagination"
)

// UserRO is the client-facing projection of a user: never the password,
// relations flattened to names. Token is set on sign-in only.
type UserRO struct {
	ID          string             `json:"id"`
	Nickname    string             `json:"nickname"`
	Email       string             `json:"email"`
	Phone       string             `json:"phone"`
	Avatar      string             `json:"avatar"`
	OnlineState models.OnlineState `json:"onlineState"`
	Token       string             `json:"token,omitempty"`
	Roles       []string           `json:"roles"`
	Groups      []string           `json:"groups"`
	OwnGroups   []string           `json:"ownGroups"`
	Friends     []UserRO           `json:"friends"`
}

func NewUserRO(u *models.User, token string) UserRO {
	ro := UserRO{
		ID:          u.ID,
		Nickname:    u.Nickname,
		Avatar:      u.Avatar,
		OnlineState: u.OnlineState,
		Token:       token,
		Roles:       []string{},
		Groups:      []string{},
		OwnGroups:   []string{},
		Friends:     []UserRO{},
	}
	if u.Email != nil {
		ro.Email = *u.Email
	}
	if u.Phone != nil {
		ro.Phone = *u.Phone
	}
	for _, r := range u.Roles {
		ro.Roles = append(ro.Roles, r.Name)
	}
	for _, g := range u.Groups {
		ro.Groups = append(ro.Groups, g.Name)
	}
	for _, g := range u.OwnGroups {
		ro.OwnGroups = append(ro.OwnGroups, g.Name)
	}
	for i := range u.Friends {
		ro.Friends = append(ro.Friends, NewUserRO(&u.Friends[i], ""))
	}
	return ro
}

type CreateUserRequest struct {
	Nickname    string             `json:"nickname" binding:"required,min=1,max=50"`
	Avatar      string             `json:"avatar"`
	Password    string             `json:"password" binding:"required,min=6"`
	AccountType models.AccountType `json:"accountType" binding:"required,oneof=email phone"`
	Account     string             `json:"account" binding:"required"`
}

type UpdateUserRequest struct {
	Nickname *string `json:"nickname"`
	Avatar   *string `json:"avatar"`
}

type SearchUsersRequest struct {
	pagination.Page
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

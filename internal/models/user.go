package models

import (
	"time"

	"gorm.io/gorm"
)

type OnlineState string

const (
	OnlineStateOn  OnlineState = "On"
	OnlineStateOff OnlineState = "Off"
)

type AccountType string

const (
	AccountTypeEmail AccountType = "email"
	AccountTypePhone AccountType = "phone"
)

// Reserved identity created by the bootstrap routine.
const (
	AdminUserID   = "admin"
	AdminRoleName = "admin"
)

type User struct {
	ID          string      `gorm:"primaryKey" json:"id"`
	Nickname    string      `gorm:"not null" json:"nickname"`
	Email       *string     `gorm:"uniqueIndex" json:"email,omitempty"`
	Phone       *string     `gorm:"uniqueIndex" json:"phone,omitempty"`
	Password    string      `gorm:"not null" json:"-"`
	Avatar      string      `json:"avatar"`
	OnlineState OnlineState `gorm:"default:Off" json:"onlineState"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`

	Roles          []Role    `gorm:"many2many:user_roles" json:"roles,omitempty"`
	Groups         []Group   `gorm:"many2many:group_members" json:"groups,omitempty"`
	OwnGroups      []Group   `gorm:"foreignKey:OwnerID" json:"ownGroups,omitempty"`
	Friends        []User    `gorm:"many2many:user_friends" json:"friends,omitempty"`
	PostedMessages []Message `gorm:"foreignKey:FromUserID" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = RandomID()
	}
	return nil
}

// HasRole reports whether the user carries the named role. Relies on Roles
// having been loaded by the caller.
func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// UserQueryOpts names the relations a lookup should fetch. Explicit
// preloads only, no lazy loading.
type UserQueryOpts struct {
	WithRoles     bool
	WithGroups    bool
	WithOwnGroups bool
	WithFriends   bool
}

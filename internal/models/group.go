package models

import (
	"time"

	"gorm.io/gorm"
)

// Group always has exactly one owner; the owner counts as a member for
// authorization even if the membership row is missing.
type Group struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	Notice    string    `json:"notice"`
	OwnerID   string    `gorm:"not null;index" json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Owner    *User     `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Members  []User    `gorm:"many2many:group_members" json:"members,omitempty"`
	Messages []Message `gorm:"foreignKey:ToGroupID" json:"-"`
}

func (g *Group) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = RandomID()
	}
	return nil
}

type GroupQueryOpts struct {
	WithOwner   bool
	WithMembers bool
}

package database

import (
	"errors"

	"gorm.io/gorm"

	"github.com/mirachat/mira/internal/apperrors"
	"github.com/mirachat/mira/internal/models"
)

func (d *Database) CreateRole(name, description, creatorID string) (*models.Role, error) {
	role := &models.Role{
		Name:        name,
		Description: description,
		CreatorID:   creatorID,
	}
	if err := d.db.Create(role).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict("role name already taken")
		}
		return nil, apperrors.Persistence("failed to create role", err)
	}
	return role, nil
}

func (d *Database) GetRoleByName(name string) (*models.Role, error) {
	var role models.Role
	if err := d.db.First(&role, "name = ?", name).Error; err != nil {
		return nil, apperrors.FromGorm(err, "role not found")
	}
	return &role, nil
}

func (d *Database) GrantRole(userID, roleName string) error {
	role, err := d.GetRoleByName(roleName)
	if err != nil {
		return err
	}
	user, err := d.GetUser(userID, models.UserQueryOpts{WithRoles: true})
	if err != nil {
		return err
	}
	if user.HasRole(roleName) {
		return nil
	}
	if err := d.db.Model(user).Association("Roles").Append(role); err != nil {
		return apperrors.Persistence("failed to grant role", err)
	}
	return nil
}

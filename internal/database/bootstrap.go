package database

import (
	"errors"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/mirachat/mira/internal/models"
)

const (
	defaultAdminEmail    = "admin@mirachat.local"
	defaultAdminPassword = "change-me-on-first-run"
)

// BootstrapAdmin is the idempotent startup migration: it guarantees
// exactly one "admin" role and exactly one user with the reserved admin
// id. It runs before the server accepts traffic and is safe to call on
// every start. Two processes racing here resolve through the unique
// constraints: a duplicate-key insert means the other process won, which
// is not an error.
func (d *Database) BootstrapAdmin() error {
	role, err := d.ensureAdminRole()
	if err != nil {
		return err
	}

	var existing models.User
	err = d.db.First(&existing, "id = ?", models.AdminUserID).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = defaultAdminPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	email := defaultAdminEmail
	if v := os.Getenv("ADMIN_EMAIL"); v != "" {
		email = v
	}

	admin := &models.User{
		ID:       models.AdminUserID,
		Nickname: "admin",
		Email:    &email,
		Password: string(hash),
		Roles:    []models.Role{*role},
	}
	if err := d.db.Create(admin).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// another process bootstrapped first
			return nil
		}
		return err
	}

	log.Printf("bootstrapped admin user %q", models.AdminUserID)
	return nil
}

func (d *Database) ensureAdminRole() (*models.Role, error) {
	var role models.Role
	err := d.db.First(&role, "name = ?", models.AdminRoleName).Error
	if err == nil {
		return &role, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	role = models.Role{
		Name:        models.AdminRoleName,
		Description: "full access to every resource",
		CreatorID:   models.AdminUserID,
	}
	if err := d.db.Create(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// lost the race; fetch what the winner wrote
			if ferr := d.db.First(&role, "name = ?", models.AdminRoleName).Error; ferr == nil {
				return &role, nil
			}
		}
		return nil, err
	}
	return &role, nil
}

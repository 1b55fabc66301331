package database

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mirachat/mira/internal/models"
)

// testDB opens a fresh in-memory store per test so cases cannot leak
// state into each other.
func testDB(t *testing.T) *Database {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewDatabase(db)
}

func mustCreateUser(t *testing.T, d *Database, nickname, email string) *models.User {
	t.Helper()

	user, err := d.CreateUser(CreateUserParams{
		Nickname:    nickname,
		Password:    "secret-" + nickname,
		AccountType: models.AccountTypeEmail,
		Account:     email,
	})
	if err != nil {
		t.Fatalf("create user %s: %v", nickname, err)
	}
	return user
}

func mustCreateGroup(t *testing.T, d *Database, name, ownerID string) *models.Group {
	t.Helper()

	group, err := d.CreateGroup(name, "", ownerID)
	if err != nil {
		t.Fatalf("create group %s: %v", name, err)
	}
	return group
}

func principalOf(t *testing.T, d *Database, userID string) models.Principal {
	t.Helper()

	user, err := d.GetUser(userID, models.UserQueryOpts{WithRoles: true, WithGroups: true})
	if err != nil {
		t.Fatalf("load principal %s: %v", userID, err)
	}
	return models.NewPrincipal(user)
}

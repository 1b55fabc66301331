package database

import (
	"errors"
	"regexp"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/mirachat/mira/internal/apperrors"
	"github.com/mirachat/mira/internal/models"
	"github.com/mirachat/mira/internal/pagination"
)

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe = regexp.MustCompile(`^1[3-9]\d{9}$`)
)

// ValidAccount checks the account string against the pattern for its type.
func ValidAccount(accountType models.AccountType, account string) bool {
	switch accountType {
	case models.AccountTypeEmail:
		return emailRe.MatchString(account)
	case models.AccountTypePhone:
		return phoneRe.MatchString(account)
	}
	return false
}

func (d *Database) userQuery(opts models.UserQueryOpts) *gorm.DB {
	tx := d.db
	if opts.WithRoles {
		tx = tx.Preload("Roles")
	}
	if opts.WithGroups {
		tx = tx.Preload("Groups")
	}
	if opts.WithOwnGroups {
		tx = tx.Preload("OwnGroups")
	}
	if opts.WithFriends {
		tx = tx.Preload("Friends")
	}
	return tx
}

func (d *Database) GetUser(id string, opts models.UserQueryOpts) (*models.User, error) {
	var user models.User
	if err := d.userQuery(opts).First(&user, "id = ?", id).Error; err != nil {
		return nil, apperrors.FromGorm(err, "user not found")
	}
	return &user, nil
}

func (d *Database) FindUserByEmail(email string, opts models.UserQueryOpts) (*models.User, error) {
	var user models.User
	if err := d.userQuery(opts).First(&user, "email = ?", email).Error; err != nil {
		return nil, apperrors.FromGorm(err, "user not found")
	}
	return &user, nil
}

func (d *Database) FindUserByPhone(phone string, opts models.UserQueryOpts) (*models.User, error) {
	var user models.User
	if err := d.userQuery(opts).First(&user, "phone = ?", phone).Error; err != nil {
		return nil, apperrors.FromGorm(err, "user not found")
	}
	return &user, nil
}

// FindUserByAccount resolves a sign-in account (email or phone) to a user.
func (d *Database) FindUserByAccount(accountType models.AccountType, account string, opts models.UserQueryOpts) (*models.User, error) {
	switch accountType {
	case models.AccountTypeEmail:
		return d.FindUserByEmail(account, opts)
	case models.AccountTypePhone:
		return d.FindUserByPhone(account, opts)
	default:
		return nil, apperrors.Validation("unknown account type")
	}
}

type CreateUserParams struct {
	Nickname    string
	Avatar      string
	Password    string
	AccountType models.AccountType
	Account     string
}

func (d *Database) CreateUser(p CreateUserParams) (*models.User, error) {
	if !ValidAccount(p.AccountType, p.Account) {
		return nil, apperrors.Validation("malformed " + string(p.AccountType))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Unknown(err)
	}

	user := &models.User{
		Nickname: p.Nickname,
		Avatar:   p.Avatar,
		Password: string(hash),
	}
	switch p.AccountType {
	case models.AccountTypeEmail:
		user.Email = &p.Account
	case models.AccountTypePhone:
		user.Phone = &p.Account
	}

	if err := d.db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict("account already registered")
		}
		return nil, apperrors.Persistence("failed to create user", err)
	}
	return user, nil
}

// VerifyPassword compares a candidate against the stored bcrypt hash.
func (d *Database) VerifyPassword(candidate, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate)) == nil
}

type UserFilter struct {
	ID       string // fuzzy
	Nickname string // fuzzy
	Email    string // exact
	Phone    string // exact
}

func (d *Database) SearchUsers(f UserFilter, page pagination.Page) (pagination.Result[models.User], error) {
	page = page.Normalize("id", "nickname", "created_at", "updated_at")

	tx := d.db.Model(&models.User{})
	if f.ID != "" {
		tx = tx.Where("id LIKE ?", "%"+f.ID+"%")
	}
	if f.Nickname != "" {
		tx = tx.Where("nickname LIKE ?", "%"+f.Nickname+"%")
	}
	if f.Email != "" {
		tx = tx.Where("email = ?", f.Email)
	}
	if f.Phone != "" {
		tx = tx.Where("phone = ?", f.Phone)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return pagination.Result[models.User]{}, apperrors.Persistence("user search failed", err)
	}

	var users []models.User
	if err := page.Apply(tx).Find(&users).Error; err != nil {
		return pagination.Result[models.User]{}, apperrors.Persistence("user search failed", err)
	}
	return pagination.NewResult(users, page, total), nil
}

type UserInfoPatch struct {
	Nickname *string
	Avatar   *string
}

func (d *Database) UpdateUserInfo(id string, patch UserInfoPatch) error {
	updates := map[string]interface{}{}
	if patch.Nickname != nil {
		updates["nickname"] = *patch.Nickname
	}
	if patch.Avatar != nil {
		updates["avatar"] = *patch.Avatar
	}
	if len(updates) == 0 {
		return nil
	}
	res := d.db.Model(&models.User{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return apperrors.Persistence("failed to update user", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("user not found")
	}
	return nil
}

// DeleteUser refuses to remove a user who still owns groups; ownership
// must be handed over or the groups deleted first.
func (d *Database) DeleteUser(id string) error {
	var owned int64
	if err := d.db.Model(&models.Group{}).Where("owner_id = ?", id).Count(&owned).Error; err != nil {
		return apperrors.Persistence("failed to delete user", err)
	}
	if owned > 0 {
		return apperrors.Conflict("user still owns groups")
	}
	res := d.db.Delete(&models.User{}, "id = ?", id)
	if res.Error != nil {
		return apperrors.Persistence("failed to delete user", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("user not found")
	}
	return nil
}

func (d *Database) SetOnlineState(id string, state models.OnlineState) error {
	return d.db.Model(&models.User{}).Where("id = ?", id).
		Update("online_state", state).Error
}

// IsInGroup reports group membership. The owner counts as a member.
func (d *Database) IsInGroup(userID, groupID string) (bool, error) {
	var count int64
	err := d.db.Table("group_members").
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	if err != nil {
		return false, apperrors.Persistence("membership check failed", err)
	}
	if count > 0 {
		return true, nil
	}
	err = d.db.Model(&models.Group{}).
		Where("id = ? AND owner_id = ?", groupID, userID).
		Count(&count).Error
	if err != nil {
		return false, apperrors.Persistence("membership check failed", err)
	}
	return count > 0, nil
}

// groupIDsOf returns the ids of all groups the user belongs to or owns.
func (d *Database) groupIDsOf(userID string) ([]string, error) {
	var ids []string
	err := d.db.Table("group_members").
		Where("user_id = ?", userID).
		Pluck("group_id", &ids).Error
	if err != nil {
		return nil, apperrors.Persistence("membership lookup failed", err)
	}
	var owned []string
	err = d.db.Model(&models.Group{}).
		Where("owner_id = ?", userID).
		Pluck("id", &owned).Error
	if err != nil {
		return nil, apperrors.Persistence("membership lookup failed", err)
	}
	for _, id := range owned {
		found := false
		for _, existing := range ids {
			if existing == id {
				found = true
				break
			}
		}
		if !found {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// HotUsers returns the 10 most recently active users within a trailing
// 10-minute window. The +1s slack keeps a row updated in the same instant
// as the query from being excluded.
func (d *Database) HotUsers() (pagination.Result[models.User], error) {
	now := time.Now()
	page := pagination.Page{Current: 1, PageSize: 10}
	var users []models.User
	err := d.db.
		Where("updated_at BETWEEN ? AND ?", now.Add(-10*time.Minute), now.Add(time.Second)).
		Order("updated_at DESC").
		Limit(10).
		Find(&users).Error
	if err != nil {
		return pagination.Result[models.User]{}, apperrors.Persistence("hot users lookup failed", err)
	}
	return pagination.NewResult(users, page, int64(len(users))), nil
}

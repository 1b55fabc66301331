package database

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mirachat/mira/internal/apperrors"
	"github.com/mirachat/mira/internal/models"
	"github.com/mirachat/mira/internal/pagination"
)

func (d *Database) groupQuery(opts models.GroupQueryOpts) *gorm.DB {
	tx := d.db
	if opts.WithOwner {
		tx = tx.Preload("Owner")
	}
	if opts.WithMembers {
		tx = tx.Preload("Members")
	}
	return tx
}

func (d *Database) GetGroup(id string, opts models.GroupQueryOpts) (*models.Group, error) {
	var group models.Group
	if err := d.groupQuery(opts).First(&group, "id = ?", id).Error; err != nil {
		return nil, apperrors.FromGorm(err, "group not found")
	}
	return &group, nil
}

// CreateGroup makes ownerID the group's owner and its first member.
func (d *Database) CreateGroup(name, notice, ownerID string) (*models.Group, error) {
	owner, err := d.GetUser(ownerID, models.UserQueryOpts{})
	if err != nil {
		return nil, err
	}

	group := &models.Group{
		Name:    name,
		Notice:  notice,
		OwnerID: owner.ID,
		Members: []models.User{*owner},
	}
	if err := d.db.Create(group).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict("group name already taken")
		}
		return nil, apperrors.Persistence("failed to create group", err)
	}
	return group, nil
}

type GroupFilter struct {
	ID          string // fuzzy
	Name        string // fuzzy
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	OwnerID     string // exact
}

// SearchGroups treats empty filter fields as unconstrained.
func (d *Database) SearchGroups(f GroupFilter, page pagination.Page) (pagination.Result[models.Group], error) {
	page = page.Normalize("id", "name", "created_at")

	tx := d.db.Model(&models.Group{})
	if f.ID != "" {
		tx = tx.Where("id LIKE ?", "%"+f.ID+"%")
	}
	if f.Name != "" {
		tx = tx.Where("name LIKE ?", "%"+f.Name+"%")
	}
	if f.CreatedFrom != nil && f.CreatedTo != nil {
		tx = tx.Where("created_at BETWEEN ? AND ?", f.CreatedFrom, f.CreatedTo)
	}
	if f.OwnerID != "" {
		tx = tx.Where("owner_id = ?", f.OwnerID)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return pagination.Result[models.Group]{}, apperrors.Persistence("group search failed", err)
	}

	var groups []models.Group
	if err := page.Apply(tx).Preload("Owner").Find(&groups).Error; err != nil {
		return pagination.Result[models.Group]{}, apperrors.Persistence("group search failed", err)
	}
	return pagination.NewResult(groups, page, total), nil
}

type GroupInfoPatch struct {
	Name   *string
	Notice *string
}

func (d *Database) UpdateGroupInfo(id string, patch GroupInfoPatch) error {
	updates := map[string]interface{}{}
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.Notice != nil {
		updates["notice"] = *patch.Notice
	}
	if len(updates) == 0 {
		return nil
	}
	res := d.db.Model(&models.Group{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return apperrors.Conflict("group name already taken")
		}
		return apperrors.Persistence("failed to update group", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("group not found")
	}
	return nil
}

func (d *Database) DeleteGroup(id string) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		var group models.Group
		if err := tx.First(&group, "id = ?", id).Error; err != nil {
			return apperrors.FromGorm(err, "group not found")
		}

		if err := tx.Delete(&models.Message{}, "to_group_id = ?", id).Error; err != nil {
			return apperrors.Persistence("failed to delete group messages", err)
		}

		if err := tx.Model(&group).Association("Members").Clear(); err != nil {
			return apperrors.Persistence("failed to clear group members", err)
		}

		if err := tx.Delete(&group).Error; err != nil {
			return apperrors.Persistence("failed to delete group", err)
		}
		return nil
	})
}

func (d *Database) AddGroupMember(groupID, userID string) error {
	group, err := d.GetGroup(groupID, models.GroupQueryOpts{})
	if err != nil {
		return err
	}
	user, err := d.GetUser(userID, models.UserQueryOpts{})
	if err != nil {
		return err
	}
	if err := d.db.Model(group).Association("Members").Append(user); err != nil {
		return apperrors.Persistence("failed to add member", err)
	}
	return nil
}

func (d *Database) RemoveGroupMember(groupID, userID string) error {
	group, err := d.GetGroup(groupID, models.GroupQueryOpts{})
	if err != nil {
		return err
	}
	if group.OwnerID == userID {
		return apperrors.Validation("group owner cannot leave the group")
	}
	user, err := d.GetUser(userID, models.UserQueryOpts{})
	if err != nil {
		return err
	}
	if err := d.db.Model(group).Association("Members").Delete(user); err != nil {
		return apperrors.Persistence("failed to remove member", err)
	}
	return nil
}

// GroupMemberIDs lists member user ids, owner included. Used for
// realtime fan-out of group messages.
func (d *Database) GroupMemberIDs(groupID string) ([]string, error) {
	group, err := d.GetGroup(groupID, models.GroupQueryOpts{})
	if err != nil {
		return nil, err
	}
	var ids []string
	err = d.db.Table("group_members").
		Where("group_id = ?", groupID).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, apperrors.Persistence("member lookup failed", err)
	}
	for _, id := range ids {
		if id == group.OwnerID {
			return ids, nil
		}
	}
	return append(ids, group.OwnerID), nil
}

// HotGroups returns the 10 most recently updated groups within a trailing
// 10-minute window, [now-10min, now+1s]. The forward second of slack keeps
// a group updated in the same instant as the query from being excluded.
func (d *Database) HotGroups() (pagination.Result[models.Group], error) {
	now := time.Now()
	page := pagination.Page{Current: 1, PageSize: 10}
	var groups []models.Group
	err := d.db.
		Where("updated_at BETWEEN ? AND ?", now.Add(-10*time.Minute), now.Add(time.Second)).
		Order("updated_at DESC").
		Limit(10).
		Find(&groups).Error
	if err != nil {
		return pagination.Result[models.Group]{}, apperrors.Persistence("hot groups lookup failed", err)
	}
	return pagination.NewResult(groups, page, int64(len(groups))), nil
}

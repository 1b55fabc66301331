package database

import (
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mirachat/mira/internal/apperrors"
	"github.com/mirachat/mira/internal/models"
	"github.com/mirachat/mira/internal/pagination"
)

// broadcast wrappers fan out to at most this many users and groups each
const maxBroadcastTargets = 10

func (d *Database) messageQuery(opts models.MessageQueryOpts) *gorm.DB {
	tx := d.db
	if opts.WithFromUser {
		tx = tx.Preload("FromUser")
	}
	if opts.WithToUser {
		tx = tx.Preload("ToUser")
	}
	if opts.WithToGroup {
		tx = tx.Preload("ToGroup")
	}
	return tx
}

func (d *Database) GetMessage(id string, opts models.MessageQueryOpts) (*models.Message, error) {
	var msg models.Message
	if err := d.messageQuery(opts).First(&msg, "id = ?", id).Error; err != nil {
		return nil, apperrors.FromGorm(err, "message not found")
	}
	return &msg, nil
}

// SendMessage persists a single message. The target is exactly one of
// toUserID/toGroupID; zero or two targets is a validation failure and
// nothing is persisted. Send is atomic from the caller's perspective:
// it either fully persists or fully fails.
func (d *Database) SendMessage(fromUserID, content string, msgType models.MessageType, toUserID, toGroupID string) (*models.Message, error) {
	if content == "" {
		return nil, apperrors.Validation("message content must not be empty")
	}
	if msgType == "" {
		msgType = models.MessageTypeText
	}
	if !msgType.Valid() {
		return nil, apperrors.Validation("unknown message type")
	}

	sender, err := d.GetUser(fromUserID, models.UserQueryOpts{})
	if err != nil {
		return nil, apperrors.Unauthenticated("sender does not exist")
	}

	if (toUserID == "") == (toGroupID == "") {
		return nil, apperrors.Validation("no recipient: target exactly one user or group")
	}

	msg := &models.Message{
		Content:    content,
		Type:       msgType,
		FromUserID: sender.ID,
	}
	if toUserID != "" {
		recipient, err := d.GetUser(toUserID, models.UserQueryOpts{})
		if err != nil {
			return nil, err
		}
		msg.ToUserID = &recipient.ID
		msg.ToUser = recipient
	} else {
		group, err := d.GetGroup(toGroupID, models.GroupQueryOpts{})
		if err != nil {
			return nil, err
		}
		msg.ToGroupID = &group.ID
		msg.ToGroup = group
	}

	if err := d.db.Create(msg).Error; err != nil {
		return nil, apperrors.Persistence("failed to send message", err)
	}
	msg.FromUser = sender
	return msg, nil
}

// Broadcast is a batch wrapper over SendMessage, one message per target.
// Targets are capped at 10 users and 10 groups per call.
func (d *Database) Broadcast(fromUserID, content string, msgType models.MessageType, toUserIDs, toGroupIDs []string) ([]*models.Message, error) {
	if len(toUserIDs) > maxBroadcastTargets || len(toGroupIDs) > maxBroadcastTargets {
		return nil, apperrors.Validation("too many broadcast targets")
	}
	if len(toUserIDs)+len(toGroupIDs) == 0 {
		return nil, apperrors.Validation("no recipient: target exactly one user or group")
	}
	var sent []*models.Message
	for _, uid := range toUserIDs {
		msg, err := d.SendMessage(fromUserID, content, msgType, uid, "")
		if err != nil {
			return sent, err
		}
		sent = append(sent, msg)
	}
	for _, gid := range toGroupIDs {
		msg, err := d.SendMessage(fromUserID, content, msgType, "", gid)
		if err != nil {
			return sent, err
		}
		sent = append(sent, msg)
	}
	return sent, nil
}

type MessageFilter struct {
	ID          string // fuzzy
	Content     string // fuzzy
	Type        models.MessageType
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	FromUserID  string
	ToUserID    string
	ToGroupID   string
}

// SearchMessages runs a filtered page query on behalf of a principal.
// Non-admins never see messages they are not a party to: filtering on
// another user's direct messages or a foreign group is a ForbiddenError,
// and results are additionally constrained to the principal's own
// visibility set.
func (d *Database) SearchMessages(p models.Principal, f MessageFilter, page pagination.Page) (pagination.Result[models.Message], error) {
	if p.UserID == "" {
		return pagination.Result[models.Message]{}, apperrors.Unauthenticated("sign in first")
	}
	if !p.Admin {
		if f.FromUserID != p.UserID {
			if f.ToUserID != "" && f.ToUserID != p.UserID {
				return pagination.Result[models.Message]{}, apperrors.Forbidden("may not read another user's messages")
			}
			if f.ToGroupID != "" && !p.InGroup(f.ToGroupID) {
				ok, err := d.IsInGroup(p.UserID, f.ToGroupID)
				if err != nil {
					return pagination.Result[models.Message]{}, err
				}
				if !ok {
					return pagination.Result[models.Message]{}, apperrors.Forbidden("not a member of this group")
				}
			}
		}
	}

	page = page.Normalize("id", "content", "type", "created_at", "from_user_id")

	tx := d.db.Model(&models.Message{})
	if f.ID != "" {
		tx = tx.Where("id LIKE ?", "%"+f.ID+"%")
	}
	if f.Content != "" {
		tx = tx.Where("content LIKE ?", "%"+f.Content+"%")
	}
	if f.Type != "" {
		tx = tx.Where("type = ?", f.Type)
	}
	if f.CreatedFrom != nil && f.CreatedTo != nil {
		tx = tx.Where("created_at BETWEEN ? AND ?", f.CreatedFrom, f.CreatedTo)
	}
	if f.FromUserID != "" {
		tx = tx.Where("from_user_id = ?", f.FromUserID)
	}
	if f.ToUserID != "" {
		tx = tx.Where("to_user_id = ?", f.ToUserID)
	}
	if f.ToGroupID != "" {
		tx = tx.Where("to_group_id = ?", f.ToGroupID)
	}

	if !p.Admin {
		groupIDs, err := d.groupIDsOf(p.UserID)
		if err != nil {
			return pagination.Result[models.Message]{}, err
		}
		tx = tx.Where(
			d.db.Where("from_user_id = ?", p.UserID).
				Or("to_user_id = ?", p.UserID).
				Or("to_group_id IN ?", groupIDs),
		)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return pagination.Result[models.Message]{}, apperrors.Persistence("message search failed", err)
	}

	var msgs []models.Message
	if err := page.Apply(tx).Preload("FromUser").Find(&msgs).Error; err != nil {
		return pagination.Result[models.Message]{}, apperrors.Persistence("message search failed", err)
	}
	return pagination.NewResult(msgs, page, total), nil
}

type TargetType string

const (
	TargetUser  TargetType = "user"
	TargetGroup TargetType = "group"
)

// Conversation returns the thread between masterID and a target. With no
// target it is everything involving masterID; a user target is both
// directions between the two; a group target is masterID's messages to
// that group. Self-or-admin only.
func (d *Database) Conversation(p models.Principal, masterID string, targetType TargetType, targetID string, page pagination.Page) (pagination.Result[models.Message], error) {
	if !p.CanActAs(masterID) {
		return pagination.Result[models.Message]{}, apperrors.Forbidden("may only list your own conversations")
	}

	page = page.Normalize("type", "created_at")

	var tx *gorm.DB
	switch {
	case targetID == "":
		groupIDs, err := d.groupIDsOf(masterID)
		if err != nil {
			return pagination.Result[models.Message]{}, err
		}
		tx = d.db.Model(&models.Message{}).Where(
			d.db.Where("from_user_id = ?", masterID).
				Or("to_user_id = ?", masterID).
				Or("to_group_id IN ?", groupIDs),
		)
	case targetType == TargetUser:
		tx = d.db.Model(&models.Message{}).Where(
			d.db.Where("from_user_id = ? AND to_user_id = ?", masterID, targetID).
				Or("from_user_id = ? AND to_user_id = ?", targetID, masterID),
		)
	case targetType == TargetGroup:
		tx = d.db.Model(&models.Message{}).
			Where("from_user_id = ? AND to_group_id = ?", masterID, targetID)
	default:
		return pagination.Result[models.Message]{}, apperrors.Validation("unknown target type")
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return pagination.Result[models.Message]{}, apperrors.Persistence("conversation query failed", err)
	}

	var msgs []models.Message
	if err := page.Apply(tx).Preload("FromUser").Find(&msgs).Error; err != nil {
		return pagination.Result[models.Message]{}, apperrors.Persistence("conversation query failed", err)
	}
	return pagination.NewResult(msgs, page, total), nil
}

// ChatList collapses the flat message log into one entry per distinct
// conversation, each represented by its most recent message. The dedup
// key is the sorted (sender, recipient-user, recipient-group) triple, so
// A→B and B→A fold into the same conversation. Self-or-admin only.
func (d *Database) ChatList(p models.Principal, userID string) ([]models.Message, error) {
	if !p.CanActAs(userID) {
		return nil, apperrors.Forbidden("may only read your own chat list")
	}

	groupIDs, err := d.groupIDsOf(userID)
	if err != nil {
		return nil, err
	}

	var msgs []models.Message
	err = d.db.
		Where(
			d.db.Where("from_user_id = ?", userID).
				Or("to_user_id = ?", userID).
				Or("to_group_id IN ?", groupIDs),
		).
		Order("updated_at DESC").
		Preload("FromUser").
		Preload("ToUser").
		Preload("ToGroup").
		Find(&msgs).Error
	if err != nil {
		return nil, apperrors.Persistence("chat list query failed", err)
	}

	// ordered newest first, so the first message seen per key is the one
	// to keep
	seen := make(map[string]bool)
	list := make([]models.Message, 0, len(msgs))
	for _, m := range msgs {
		key := conversationKey(m)
		if seen[key] {
			continue
		}
		seen[key] = true
		list = append(list, m)
	}
	return list, nil
}

// conversationKey builds a direction-independent identity for the
// conversation a message belongs to.
func conversationKey(m models.Message) string {
	parts := []string{m.FromUserID, "", ""}
	if m.ToUserID != nil {
		parts[1] = *m.ToUserID
	}
	if m.ToGroupID != nil {
		parts[2] = *m.ToGroupID
	}
	sort.Strings(parts)
	return strings.Join(parts, "\x00")
}

// DeleteMessage hard-deletes; only the sender or an admin may do it.
func (d *Database) DeleteMessage(p models.Principal, id string) error {
	msg, err := d.GetMessage(id, models.MessageQueryOpts{})
	if err != nil {
		return err
	}
	if !p.Admin && msg.FromUserID != p.UserID {
		return apperrors.Forbidden("may only delete your own messages")
	}
	if err := d.db.Delete(&models.Message{}, "id = ?", id).Error; err != nil {
		return apperrors.Persistence("failed to delete message", err)
	}
	return nil
}

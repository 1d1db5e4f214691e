package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/hoffination/open-social-server/internal/model"
)

type NotificationRepo struct {
	db *gorm.DB
}

func NewNotificationRepo(db *gorm.DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

func (r *NotificationRepo) Insert(ctx context.Context, note *model.Notification) error {
	return r.db.WithContext(ctx).Create(note).Error
}

// CountUnviewed reports how many unread copies of the same notification the
// recipient already has. A nonzero count suppresses the duplicate.
func (r *NotificationRepo) CountUnviewed(ctx context.Context, userID, noteType, itemID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("user2 = ? AND type = ? AND item = ? AND viewed = ?", userID, noteType, itemID, false).
		Count(&count).Error
	return count, err
}

// ClearRallyNotes removes a user's rally-scoped notifications for one rally.
// Used when they decline, leave or get removed so stale prompts disappear.
func (r *NotificationRepo) ClearRallyNotes(ctx context.Context, userID, rallyID string) error {
	return r.db.WithContext(ctx).
		Where("user2 = ? AND item = ? AND type IN ?", userID, rallyID, model.RallyNoteTypes).
		Delete(&model.Notification{}).Error
}

// DeleteForItem removes every notification referencing a deleted content id.
func (r *NotificationRepo) DeleteForItem(ctx context.Context, itemID string) error {
	return r.db.WithContext(ctx).
		Where("item = ?", itemID).
		Delete(&model.Notification{}).Error
}

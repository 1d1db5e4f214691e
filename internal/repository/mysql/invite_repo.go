package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/hoffination/open-social-server/internal/model"
)

type InviteRepo struct {
	db *gorm.DB
}

func NewInviteRepo(db *gorm.DB) *InviteRepo {
	return &InviteRepo{db: db}
}

func (r *InviteRepo) Insert(ctx context.Context, invite *model.RallyInvite) error {
	return r.db.WithContext(ctx).Create(invite).Error
}

// PendingForRally returns open invites on one rally.
func (r *InviteRepo) PendingForRally(ctx context.Context, rallyID string) ([]model.RallyInvite, error) {
	var invites []model.RallyInvite
	err := r.db.WithContext(ctx).
		Where("rally_id = ? AND is_pending = ?", rallyID, true).
		Find(&invites).Error
	return invites, err
}

// PendingForUser returns open invites addressed to a user, optionally scoped
// to one rally.
func (r *InviteRepo) PendingForUser(ctx context.Context, userID, rallyID string) ([]model.RallyInvite, error) {
	var invites []model.RallyInvite
	q := r.db.WithContext(ctx).Where("`to` = ? AND is_pending = ?", userID, true)
	if rallyID != "" {
		q = q.Where("rally_id = ?", rallyID)
	}
	err := q.Find(&invites).Error
	return invites, err
}

// Resolve closes a user's open invites on a rally. Accepted invites just stop
// being pending; declined ones are additionally marked so the inviter cannot
// re-issue them. Rows are never deleted once answered.
func (r *InviteRepo) Resolve(ctx context.Context, userID, rallyID string, declined bool) error {
	updates := map[string]interface{}{"is_pending": false}
	if declined {
		updates["declined"] = true
	}
	return r.db.WithContext(ctx).Model(&model.RallyInvite{}).
		Where("`to` = ? AND rally_id = ? AND is_pending = ?", userID, rallyID, true).
		Updates(updates).Error
}

// DeleteForRally removes every invite row for a rally that is being deleted.
func (r *InviteRepo) DeleteForRally(ctx context.Context, rallyID string) error {
	return r.db.WithContext(ctx).
		Where("rally_id = ?", rallyID).
		Delete(&model.RallyInvite{}).Error
}

package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hoffination/open-social-server/internal/model"
	"github.com/hoffination/open-social-server/internal/pkg"
)

type ContentRepo struct {
	db *gorm.DB
}

func NewContentRepo(db *gorm.DB) *ContentRepo {
	return &ContentRepo{db: db}
}

func (r *ContentRepo) GetByID(ctx context.Context, id string) (*model.Content, error) {
	var content model.Content
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&content).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkg.NewError(pkg.BadRequest, "content not found")
	}
	if err != nil {
		return nil, err
	}
	return &content, nil
}

func (r *ContentRepo) Insert(ctx context.Context, content *model.Content) error {
	return r.db.WithContext(ctx).Create(content).Error
}

func (r *ContentRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Content{}).Error
}

// AtomicUpdate loads one content row under a write lock, applies fn to it and
// saves the result in the same transaction. Every membership mutation goes
// through here so concurrent transitions on the same rally serialize.
func (r *ContentRepo) AtomicUpdate(ctx context.Context, id string, fn func(*model.Content) error) (*model.Content, error) {
	var content model.Content
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).First(&content).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkg.NewError(pkg.BadRequest, "content not found")
		}
		if err != nil {
			return err
		}
		if err := fn(&content); err != nil {
			return err
		}
		return tx.Save(&content).Error
	})
	if err != nil {
		return nil, err
	}
	return &content, nil
}

// SaveHeuristic persists a freshly recomputed score without touching the rest
// of the row.
func (r *ContentRepo) SaveHeuristic(ctx context.Context, id string, heuristic float64, atMs int64) error {
	return r.db.WithContext(ctx).Model(&model.Content{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"heuristic":             heuristic,
			"last_heuristic_update": atMs,
		}).Error
}

// FeedPosts returns posts and questions created at or after sinceMs, best
// score first, skipping blocked creators.
func (r *ContentRepo) FeedPosts(ctx context.Context, sinceMs int64, excludeCreators []string, limit, offset int) ([]model.Content, error) {
	var items []model.Content
	q := r.db.WithContext(ctx).
		Where("type IN ?", []string{model.TypePost, model.TypeQuestion}).
		Where("ts_created >= ?", sinceMs)
	if len(excludeCreators) > 0 {
		q = q.Where("creator NOT IN ?", excludeCreators)
	}
	err := q.Order("heuristic DESC").Limit(limit).Offset(offset).Find(&items).Error
	return items, err
}

// FeedEvents returns events that have not yet ended.
func (r *ContentRepo) FeedEvents(ctx context.Context, nowMs int64, excludeCreators []string, limit, offset int) ([]model.Content, error) {
	var items []model.Content
	q := r.db.WithContext(ctx).
		Where("type = ?", model.TypeEvent).
		Where("end_date > ?", nowMs)
	if len(excludeCreators) > 0 {
		q = q.Where("creator NOT IN ?", excludeCreators)
	}
	err := q.Order("heuristic DESC").Limit(limit).Offset(offset).Find(&items).Error
	return items, err
}

// FeedPublicRallies returns unended public rallies.
func (r *ContentRepo) FeedPublicRallies(ctx context.Context, nowMs int64, excludeCreators []string, limit, offset int) ([]model.Content, error) {
	var items []model.Content
	q := r.db.WithContext(ctx).
		Where("type = ?", model.TypeRally).
		Where("privacy = ?", model.PrivacyPublic).
		Where("end_date > ?", nowMs)
	if len(excludeCreators) > 0 {
		q = q.Where("creator NOT IN ?", excludeCreators)
	}
	err := q.Order("heuristic DESC").Limit(limit).Offset(offset).Find(&items).Error
	return items, err
}

// RalliesEndingAfter returns every rally still running or upcoming.
// Membership filtering happens in the service because the member sets live in
// JSON columns.
func (r *ContentRepo) RalliesEndingAfter(ctx context.Context, nowMs int64) ([]model.Content, error) {
	var items []model.Content
	err := r.db.WithContext(ctx).
		Where("type = ?", model.TypeRally).
		Where("end_date > ?", nowMs).
		Order("start_date ASC").Find(&items).Error
	return items, err
}

// RalliesStartingAfter returns rallies that have not started yet.
func (r *ContentRepo) RalliesStartingAfter(ctx context.Context, nowMs int64) ([]model.Content, error) {
	var items []model.Content
	err := r.db.WithContext(ctx).
		Where("type = ?", model.TypeRally).
		Where("start_date > ?", nowMs).
		Order("start_date ASC").Find(&items).Error
	return items, err
}

package service

import (
	"context"
	"time"

	"github.com/hoffination/open-social-server/internal/model"
)

// ContentStore is the content persistence surface the services depend on.
// AtomicUpdate must serialize concurrent callers on the same id.
type ContentStore interface {
	GetByID(ctx context.Context, id string) (*model.Content, error)
	Insert(ctx context.Context, content *model.Content) error
	Delete(ctx context.Context, id string) error
	AtomicUpdate(ctx context.Context, id string, fn func(*model.Content) error) (*model.Content, error)
	SaveHeuristic(ctx context.Context, id string, heuristic float64, atMs int64) error
	FeedPosts(ctx context.Context, sinceMs int64, excludeCreators []string, limit, offset int) ([]model.Content, error)
	FeedEvents(ctx context.Context, nowMs int64, excludeCreators []string, limit, offset int) ([]model.Content, error)
	FeedPublicRallies(ctx context.Context, nowMs int64, excludeCreators []string, limit, offset int) ([]model.Content, error)
	RalliesEndingAfter(ctx context.Context, nowMs int64) ([]model.Content, error)
	RalliesStartingAfter(ctx context.Context, nowMs int64) ([]model.Content, error)
}

type InviteStore interface {
	Insert(ctx context.Context, invite *model.RallyInvite) error
	PendingForRally(ctx context.Context, rallyID string) ([]model.RallyInvite, error)
	PendingForUser(ctx context.Context, userID, rallyID string) ([]model.RallyInvite, error)
	Resolve(ctx context.Context, userID, rallyID string, declined bool) error
	DeleteForRally(ctx context.Context, rallyID string) error
}

type UserStore interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]model.User, error)
}

// NoteStore persists notification rows. CountUnviewed backs the duplicate
// suppression in the notifier.
type NoteStore interface {
	Insert(ctx context.Context, note *model.Notification) error
	CountUnviewed(ctx context.Context, userID, noteType, itemID string) (int64, error)
	ClearRallyNotes(ctx context.Context, userID, rallyID string) error
	DeleteForItem(ctx context.Context, itemID string) error
}

// Publisher pushes a payload onto the delivery stream, keyed by recipient.
type Publisher interface {
	Send(ctx context.Context, key string, value []byte) error
}

// Metrics is the day-bucket counter surface.
type Metrics interface {
	BumpContent(ctx context.Context, contentType string, now time.Time) error
	ContentCount(ctx context.Context, contentType string, now time.Time) (int64, error)
	MarkRequest(ctx context.Context, endpoint string, now time.Time) error
}

// Notifier fans a user-facing event out to storage and the delivery stream.
type Notifier interface {
	Notify(ctx context.Context, from, to, noteType, itemID string) error
	ClearRally(ctx context.Context, userID, rallyID string) error
	DropItem(ctx context.Context, itemID string) error
}

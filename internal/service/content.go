package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hoffination/open-social-server/internal/model"
	"github.com/hoffination/open-social-server/internal/pkg"
)

// ContentService covers the non-rally content lifecycle: posting, voting,
// comment counting and moderation.
type ContentService struct {
	content  ContentStore
	users    UserStore
	notifier Notifier
	metrics  Metrics
	log      *logrus.Logger
	clock    func() time.Time
}

func NewContentService(content ContentStore, users UserStore, notifier Notifier, metrics Metrics, log *logrus.Logger) *ContentService {
	return &ContentService{
		content:  content,
		users:    users,
		notifier: notifier,
		metrics:  metrics,
		log:      log,
		clock:    time.Now,
	}
}

type CreateContentInput struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	PhotoID     string `json:"photoId"`
	CityID      int64  `json:"cityId"`
	StartDate   int64  `json:"startDate"`
	EndDate     int64  `json:"endDate"`
}

// Create stores a post, question or event and counts it toward today's
// submission mix. Rallies have their own creation path.
func (s *ContentService) Create(ctx context.Context, userID string, in CreateContentInput) (*model.Content, error) {
	switch in.Type {
	case model.TypePost, model.TypeQuestion:
	case model.TypeEvent:
		if in.StartDate == 0 || in.EndDate == 0 || in.EndDate <= in.StartDate {
			return nil, pkg.NewError(pkg.BadInput, "event needs a start date before its end date")
		}
	default:
		return nil, pkg.NewError(pkg.BadInput, "unknown content type")
	}
	if in.Title == "" {
		return nil, pkg.NewError(pkg.BadInput, "content needs a title")
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	item := &model.Content{
		ID:                  uuid.NewString(),
		Type:                in.Type,
		Title:               in.Title,
		Description:         in.Description,
		Category:            in.Category,
		Creator:             user.ID,
		CreatorName:         user.FirstName(),
		PhotoID:             in.PhotoID,
		CityID:              in.CityID,
		TsCreated:           now.UnixMilli(),
		LastModified:        now.UnixMilli(),
		StartDate:           in.StartDate,
		EndDate:             in.EndDate,
		VoteList:            model.IDList{},
		LastHeuristicUpdate: now.UnixMilli(),
	}
	item.Heuristic = Score(item, now)
	if err := s.content.Insert(ctx, item); err != nil {
		return nil, pkg.WrapError(pkg.EXCEPTION, "storing content", err)
	}
	bucket := in.Type
	if bucket == model.TypeQuestion {
		bucket = model.TypePost
	}
	if err := s.metrics.BumpContent(ctx, bucket, now); err != nil {
		s.log.WithError(err).Warn("content metric bump failed")
	}
	return item, nil
}

// Vote toggles the viewer's vote and re-scores the item in the same atomic
// update.
func (s *ContentService) Vote(ctx context.Context, userID, contentID string) (*model.Content, error) {
	item, err := s.content.AtomicUpdate(ctx, contentID, func(c *model.Content) error {
		if c.VoteList.Contains(userID) {
			c.VoteList = c.VoteList.Without(userID)
		} else {
			c.VoteList = c.VoteList.Insert(userID)
		}
		c.Votes = len(c.VoteList)
		now := s.clock()
		c.LastModified = now.UnixMilli()
		c.Heuristic = Score(c, now)
		c.LastHeuristicUpdate = now.UnixMilli()
		return nil
	})
	if err != nil {
		return nil, err
	}
	item.Voted = item.VoteList.Contains(userID)
	return item, nil
}

// CommentAdded bumps the comment counter after a comment lands and pings the
// host when the item is a rally.
func (s *ContentService) CommentAdded(ctx context.Context, userID, contentID string) error {
	var host string
	item, err := s.content.AtomicUpdate(ctx, contentID, func(c *model.Content) error {
		c.Comments++
		now := s.clock()
		c.LastModified = now.UnixMilli()
		c.Heuristic = Score(c, now)
		c.LastHeuristicUpdate = now.UnixMilli()
		if c.IsRally() && c.Creator != userID {
			host = c.Creator
		}
		return nil
	})
	if err != nil {
		return err
	}
	if host != "" {
		if err := s.notifier.Notify(ctx, userID, host, model.NoteNewRallyComment, item.ID); err != nil {
			s.log.WithError(err).Warn("comment notification failed")
		}
	}
	return nil
}

// Censor blanks reported content in place. The row survives so threads and
// feed pages referencing it keep working.
func (s *ContentService) Censor(ctx context.Context, actorID, contentID string) error {
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return err
	}
	if !actor.Admin {
		return pkg.NewError(pkg.AUTH, "admin only")
	}
	_, err = s.content.AtomicUpdate(ctx, contentID, func(c *model.Content) error {
		c.Title = "[removed]"
		c.Description = ""
		c.PhotoID = ""
		c.Creator = ""
		c.CreatorName = ""
		c.Votes = 0
		c.Comments = 0
		c.VoteList = model.IDList{}
		c.Heuristic = 0
		c.LastModified = s.clock().UnixMilli()
		return nil
	})
	return err
}

// Delete removes the caller's own content; admins may remove anyone's.
func (s *ContentService) Delete(ctx context.Context, actorID, contentID string) error {
	item, err := s.content.GetByID(ctx, contentID)
	if err != nil {
		return err
	}
	if item.Creator != actorID {
		actor, err := s.users.GetByID(ctx, actorID)
		if err != nil {
			return err
		}
		if !actor.Admin {
			return pkg.NewError(pkg.BadRequest, "cannot delete someone else's content")
		}
	}
	if err := s.content.Delete(ctx, contentID); err != nil {
		return pkg.WrapError(pkg.EXCEPTION, "deleting content", err)
	}
	if err := s.notifier.DropItem(ctx, contentID); err != nil {
		s.log.WithError(err).Warn("deleting content notifications failed")
	}
	return nil
}

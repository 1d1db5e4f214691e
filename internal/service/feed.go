package service

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/hoffination/open-social-server/internal/model"
	"github.com/hoffination/open-social-server/internal/pkg"
)

// postFeedWindow bounds how old a post can be and still compete for the feed.
const postFeedWindow = 7 * 24 * time.Hour

// FeedService assembles the personalized feed page: split the page between
// content types by today's submission mix, fetch each slice concurrently,
// then boost, normalize and redact.
type FeedService struct {
	content  ContentStore
	invites  InviteStore
	users    UserStore
	metrics  Metrics
	floors   QuotaFloors
	pageSize int
	log      *logrus.Logger
	clock    func() time.Time
}

func NewFeedService(content ContentStore, invites InviteStore, users UserStore, metrics Metrics, floors QuotaFloors, pageSize int, log *logrus.Logger) *FeedService {
	return &FeedService{
		content:  content,
		invites:  invites,
		users:    users,
		metrics:  metrics,
		floors:   floors,
		pageSize: pageSize,
		log:      log,
		clock:    time.Now,
	}
}

// Personalized builds one feed page for the viewer. Any slice failing aborts
// the page; a partial feed would silently starve a content type.
func (s *FeedService) Personalized(ctx context.Context, userID string, page int) ([]model.Content, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.clock()
	nowMs := now.UnixMilli()
	if err := s.metrics.MarkRequest(ctx, "feed", now); err != nil {
		s.log.WithError(err).Warn("feed request metric failed")
	}
	invited := s.invitedRallies(ctx, userID)

	exclude := append(append([]string{}, user.BlockedUsers...), user.BlockedBy...)
	pct := ContentPercentages(s.dayCounts(ctx, now), s.floors)
	postCount := int(math.Floor(float64(s.pageSize) * pct.Posts))
	eventCount := int(math.Floor(float64(s.pageSize) * pct.Events))
	rallyCount := int(math.Floor(float64(s.pageSize) * pct.Rallies))

	var posts, events, rallies, contactRallies []model.Content
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		posts, err = s.freshPosts(gctx, now, exclude, postCount, page*postCount)
		return err
	})
	g.Go(func() error {
		var err error
		events, err = s.content.FeedEvents(gctx, nowMs, exclude, eventCount, page*eventCount)
		return err
	})
	g.Go(func() error {
		var err error
		rallies, err = s.content.FeedPublicRallies(gctx, nowMs, exclude, rallyCount, page*rallyCount)
		return err
	})
	g.Go(func() error {
		// Contact rallies only headline the first page.
		if page != 0 {
			return nil
		}
		var err error
		contactRallies, err = s.contactRallies(gctx, user, nowMs, rallyCount, invited)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, pkg.WrapError(pkg.EXCEPTION, "assembling feed", err)
	}

	for i := range contactRallies {
		contactRallies[i].Type = model.TypeContactRally
	}
	items := mergeDedupe(posts, events, contactRallies, rallies)
	ApplyLocation(items, user.CityID)
	items = InterpolateValues(items)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Heuristic > items[j].Heuristic
	})
	s.decorate(items, user, invited)
	return items, nil
}

// ContactFeed lists the unended rallies of the viewer's circle.
func (s *FeedService) ContactFeed(ctx context.Context, userID string) ([]model.Content, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	items, err := s.contactRallies(ctx, user, s.clock().UnixMilli(), s.pageSize, nil)
	if err != nil {
		return nil, pkg.WrapError(pkg.EXCEPTION, "loading contact rallies", err)
	}
	s.decorate(items, user, s.invitedRallies(ctx, userID))
	return items, nil
}

// contactRallies picks the unended rallies tied to the viewer's circle: public
// rallies with a confirmed contact, protected rallies a contact is hosting,
// and rallies the viewer holds an invite to. The membership sets live in JSON
// columns, so the filter runs here rather than in SQL.
func (s *FeedService) contactRallies(ctx context.Context, user *model.User, nowMs int64, limit int, invited map[string]bool) ([]model.Content, error) {
	if len(user.Contacts) == 0 && len(invited) == 0 {
		return nil, nil
	}
	rallies, err := s.content.RalliesEndingAfter(ctx, nowMs)
	if err != nil {
		return nil, err
	}
	var out []model.Content
	for _, r := range rallies {
		if r.Creator == user.ID {
			continue
		}
		switch {
		case invited[r.ID]:
		case r.Privacy == model.PrivacyPublic && r.ConfirmedUsers.Intersects(user.Contacts):
		case r.Privacy == model.PrivacyProtected && user.Contacts.Contains(r.Creator):
		default:
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Heuristic > out[j].Heuristic
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// invitedRallies maps the rally ids the user holds open invites to. Failure
// degrades to an empty set; invites only widen what the viewer sees.
func (s *FeedService) invitedRallies(ctx context.Context, userID string) map[string]bool {
	invited := make(map[string]bool)
	invites, err := s.invites.PendingForUser(ctx, userID, "")
	if err != nil {
		s.log.WithError(err).Warn("loading viewer invites failed")
		return invited
	}
	for _, inv := range invites {
		invited[inv.RallyID] = true
	}
	return invited
}

// freshPosts loads the post slice and re-scores each post on the way out so
// a page never shows a stale rank.
func (s *FeedService) freshPosts(ctx context.Context, now time.Time, exclude []string, limit, offset int) ([]model.Content, error) {
	since := now.Add(-postFeedWindow).UnixMilli()
	posts, err := s.content.FeedPosts(ctx, since, exclude, limit, offset)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		score := PostScore(&posts[i], now)
		if score != posts[i].Heuristic {
			posts[i].Heuristic = score
			if err := s.content.SaveHeuristic(ctx, posts[i].ID, score, now.UnixMilli()); err != nil {
				s.log.WithFields(logrus.Fields{"id": posts[i].ID}).
					WithError(err).Warn("saving refreshed score failed")
			}
		}
	}
	return posts, nil
}

func (s *FeedService) dayCounts(ctx context.Context, now time.Time) DayCounts {
	var counts DayCounts
	read := func(dst *int64, contentType string) {
		n, err := s.metrics.ContentCount(ctx, contentType, now)
		if err != nil {
			s.log.WithError(err).Warn("reading day bucket failed")
			return
		}
		*dst = n
	}
	read(&counts.RecentPosts, model.TypePost)
	read(&counts.UpcomingEvents, model.TypeEvent)
	read(&counts.UpcomingRallies, model.TypeRally)
	return counts
}

// mergeDedupe concatenates the slices in priority order, keeping the first
// occurrence of each id.
func mergeDedupe(slices ...[]model.Content) []model.Content {
	seen := make(map[string]bool)
	var out []model.Content
	for _, slice := range slices {
		for _, item := range slice {
			if seen[item.ID] {
				continue
			}
			seen[item.ID] = true
			out = append(out, item)
		}
	}
	return out
}

// decorate applies viewer-specific state: vote flags and rally redaction.
func (s *FeedService) decorate(items []model.Content, user *model.User, invited map[string]bool) {
	for i := range items {
		items[i].Voted = items[i].VoteList.Contains(user.ID)
		if items[i].IsRally() {
			MarkViewer(&items[i], user.ID, invited[items[i].ID])
			RedactRally(&items[i], RallyTier(&items[i], user.ID, invited, user.Contacts))
		}
	}
}

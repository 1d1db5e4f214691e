package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoffination/open-social-server/internal/model"
)

func newFeedFixture(t *testing.T) (*FeedService, *memContentStore, *fakeMetrics) {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	content := newMemContentStore()
	invites := newMemInviteStore()
	users := newMemUserStore(
		model.User{ID: "viewer", Name: "Val Viewer", CityID: 7,
			Contacts:     model.IDList{"friend"},
			BlockedUsers: model.IDList{"spammer"}},
		model.User{ID: "friend", Name: "Finn Friend"},
	)
	metrics := newFakeMetrics()
	floors := QuotaFloors{Post: 0.1, Event: 0.1, Rally: 0.3}
	svc := NewFeedService(content, invites, users, metrics, floors, 40, log)
	return svc, content, metrics
}

func seedFeedContent(content *memContentStore, now time.Time) {
	nowMs := now.UnixMilli()
	content.put(model.Content{
		ID: "post-local", Type: model.TypePost, Title: "Local news",
		Creator: "friend", CityID: 7, TsCreated: nowMs, Votes: 3,
		VoteList: model.IDList{"viewer"},
	})
	content.put(model.Content{
		ID: "post-remote", Type: model.TypeQuestion, Title: "Remote question",
		Creator: "someone", CityID: 9, TsCreated: nowMs, Votes: 3,
	})
	content.put(model.Content{
		ID: "post-blocked", Type: model.TypePost, Title: "Noise",
		Creator: "spammer", CityID: 7, TsCreated: nowMs, Votes: 50,
	})
	content.put(model.Content{
		ID: "post-stale", Type: model.TypePost, Title: "Old thread",
		Creator: "someone", TsCreated: now.Add(-8 * 24 * time.Hour).UnixMilli(), Votes: 90,
	})
	content.put(model.Content{
		ID: "event-1", Type: model.TypeEvent, Title: "Street fair",
		Creator: "someone", TsCreated: nowMs, Heuristic: 4,
		StartDate: now.Add(5 * time.Hour).UnixMilli(), EndDate: now.Add(9 * time.Hour).UnixMilli(),
	})
	content.put(model.Content{
		ID: "rally-friend", Type: model.TypeRally, Title: "Friend's rally",
		Creator: "friend", Privacy: model.PrivacyPublic, Heuristic: 5,
		Address: "1 Dock Rd", GeneralArea: "Docks",
		TsCreated: nowMs, StartDate: now.Add(6 * time.Hour).UnixMilli(),
		EndDate: now.Add(8 * time.Hour).UnixMilli(),
		ConfirmedUsers: model.IDList{"friend"},
	})
	content.put(model.Content{
		ID: "rally-stranger", Type: model.TypeRally, Title: "Stranger's rally",
		Creator: "someone", Privacy: model.PrivacyPublic, Heuristic: 3,
		Address: "2 Hill St", Requirements: "bring boots", GeneralArea: "Hills",
		TsCreated: nowMs, StartDate: now.Add(6 * time.Hour).UnixMilli(),
		EndDate: now.Add(8 * time.Hour).UnixMilli(),
		ConfirmedUsers: model.IDList{"someone"},
	})
}

func TestPersonalizedFeed(t *testing.T) {
	svc, content, metrics := newFeedFixture(t)
	now := time.Now()
	seedFeedContent(content, now)
	metrics.counts[model.TypePost] = 10
	metrics.counts[model.TypeEvent] = 10
	metrics.counts[model.TypeRally] = 10

	items, err := svc.Personalized(context.Background(), "viewer", 0)
	require.NoError(t, err)

	byID := make(map[string]model.Content)
	for _, item := range items {
		_, dup := byID[item.ID]
		require.False(t, dup, "item %s appears twice", item.ID)
		byID[item.ID] = item
	}

	assert.Contains(t, byID, "post-local")
	assert.Contains(t, byID, "post-remote")
	assert.Contains(t, byID, "event-1")
	assert.Contains(t, byID, "rally-friend")
	assert.Contains(t, byID, "rally-stranger")
	assert.NotContains(t, byID, "post-blocked", "blocked creators never surface")
	assert.NotContains(t, byID, "post-stale", "posts age out of the feed window")

	for _, item := range items {
		assert.Zero(t, item.CityID, "city ids are stripped")
		assert.NotEqual(t, model.TypeContactRally, item.Type, "the contact bucket is internal")
	}

	assert.True(t, byID["post-local"].Voted)
	assert.False(t, byID["post-remote"].Voted)

	// Redaction by tier: contacts see no street address, strangers lose the
	// requirements and the host's identity too.
	assert.Empty(t, byID["rally-friend"].Address)
	assert.Equal(t, "Docks", byID["rally-friend"].GeneralArea)
	assert.Equal(t, "friend", byID["rally-friend"].Creator)
	assert.Empty(t, byID["rally-stranger"].Address)
	assert.Empty(t, byID["rally-stranger"].Requirements)
	assert.Empty(t, byID["rally-stranger"].Creator)
	assert.Equal(t, "Hills", byID["rally-stranger"].GeneralArea)

	// Output is ranked.
	for i := 1; i < len(items); i++ {
		assert.GreaterOrEqual(t, items[i-1].Heuristic, items[i].Heuristic)
	}

	assert.EqualValues(t, 1, metrics.marks["feed"], "feed requests are tallied")
}

func TestPersonalizedFeedCityBoost(t *testing.T) {
	svc, content, metrics := newFeedFixture(t)
	now := time.Now()
	metrics.counts[model.TypePost] = 10

	// Identical posts except for the city: same raw score, the local one
	// must outrank after the boost.
	nowMs := now.UnixMilli()
	content.put(model.Content{ID: "near", Type: model.TypePost, Creator: "a", CityID: 7, TsCreated: nowMs, Votes: 5})
	content.put(model.Content{ID: "far", Type: model.TypePost, Creator: "b", CityID: 9, TsCreated: nowMs, Votes: 5})

	items, err := svc.Personalized(context.Background(), "viewer", 0)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "near", items[0].ID)
	assert.InDelta(t, items[1].Heuristic*1.1, items[0].Heuristic, 1e-9)
}

func TestPersonalizedFeedContactRalliesFirstPageOnly(t *testing.T) {
	svc, content, metrics := newFeedFixture(t)
	now := time.Now()
	metrics.counts[model.TypeRally] = 10

	// A protected rally is invisible to the public slice but reaches the
	// viewer through their contact on page zero.
	content.put(model.Content{
		ID: "rally-protected", Type: model.TypeRally, Title: "Quiet meetup",
		Creator: "friend", Privacy: model.PrivacyProtected, Heuristic: 5,
		TsCreated: now.UnixMilli(), StartDate: now.Add(3 * time.Hour).UnixMilli(),
		EndDate: now.Add(5 * time.Hour).UnixMilli(),
	})

	first, err := svc.Personalized(context.Background(), "viewer", 0)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, "rally-protected", first[0].ID)
	assert.Equal(t, model.TypeRally, first[0].Type)

	second, err := svc.Personalized(context.Background(), "viewer", 1)
	require.NoError(t, err)
	assert.Empty(t, second)
}

type failingContentStore struct {
	*memContentStore
}

func (s *failingContentStore) FeedEvents(context.Context, int64, []string, int, int) ([]model.Content, error) {
	return nil, errors.New("storage offline")
}

func TestPersonalizedFeedFailureAborts(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	content := newMemContentStore()
	users := newMemUserStore(model.User{ID: "viewer", Name: "Val Viewer"})
	seedFeedContent(content, time.Now())
	svc := NewFeedService(&failingContentStore{content}, newMemInviteStore(), users,
		newFakeMetrics(), QuotaFloors{Post: 0.1, Event: 0.1, Rally: 0.3}, 40, log)

	items, err := svc.Personalized(context.Background(), "viewer", 0)
	assert.Error(t, err, "a failing slice drops the whole page rather than skewing it")
	assert.Nil(t, items)
}

func TestContactFeed(t *testing.T) {
	svc, content, _ := newFeedFixture(t)
	now := time.Now()
	seedFeedContent(content, now)

	items, err := svc.ContactFeed(context.Background(), "viewer")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "rally-friend", items[0].ID)

	// No contacts, no feed.
	empty, err := svc.ContactFeed(context.Background(), "friend")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hoffination/open-social-server/internal/model"
	"github.com/hoffination/open-social-server/internal/pkg"
)

// memContentStore is an in-memory ContentStore. AtomicUpdate serializes on a
// single mutex, which is the same guarantee the row lock gives per id.
type memContentStore struct {
	mu    sync.Mutex
	items map[string]*model.Content
}

func newMemContentStore() *memContentStore {
	return &memContentStore{items: make(map[string]*model.Content)}
}

func (s *memContentStore) put(c model.Content) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := c
	s.items[c.ID] = &cp
}

func (s *memContentStore) GetByID(_ context.Context, id string) (*model.Content, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.items[id]
	if !ok {
		return nil, pkg.NewError(pkg.BadRequest, "content not found")
	}
	cp := *c
	return &cp, nil
}

func (s *memContentStore) Insert(_ context.Context, c *model.Content) error {
	s.put(*c)
	return nil
}

func (s *memContentStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

func (s *memContentStore) AtomicUpdate(_ context.Context, id string, fn func(*model.Content) error) (*model.Content, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.items[id]
	if !ok {
		return nil, pkg.NewError(pkg.BadRequest, "content not found")
	}
	cp := *c
	if err := fn(&cp); err != nil {
		return nil, err
	}
	s.items[id] = &cp
	out := cp
	return &out, nil
}

func (s *memContentStore) SaveHeuristic(_ context.Context, id string, heuristic float64, atMs int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.items[id]; ok {
		c.Heuristic = heuristic
		c.LastHeuristicUpdate = atMs
	}
	return nil
}

func (s *memContentStore) query(match func(*model.Content) bool, limit, offset int) []model.Content {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Content
	for _, c := range s.items {
		if match(c) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Heuristic > out[j].Heuristic })
	if offset >= len(out) {
		return nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func excluded(creator string, exclude []string) bool {
	for _, e := range exclude {
		if e == creator {
			return true
		}
	}
	return false
}

func (s *memContentStore) FeedPosts(_ context.Context, sinceMs int64, exclude []string, limit, offset int) ([]model.Content, error) {
	return s.query(func(c *model.Content) bool {
		return (c.Type == model.TypePost || c.Type == model.TypeQuestion) &&
			c.TsCreated >= sinceMs && !excluded(c.Creator, exclude)
	}, limit, offset), nil
}

func (s *memContentStore) FeedEvents(_ context.Context, nowMs int64, exclude []string, limit, offset int) ([]model.Content, error) {
	return s.query(func(c *model.Content) bool {
		return c.Type == model.TypeEvent && c.EndDate > nowMs && !excluded(c.Creator, exclude)
	}, limit, offset), nil
}

func (s *memContentStore) FeedPublicRallies(_ context.Context, nowMs int64, exclude []string, limit, offset int) ([]model.Content, error) {
	return s.query(func(c *model.Content) bool {
		return c.Type == model.TypeRally && c.Privacy == model.PrivacyPublic &&
			c.EndDate > nowMs && !excluded(c.Creator, exclude)
	}, limit, offset), nil
}

func (s *memContentStore) RalliesEndingAfter(_ context.Context, nowMs int64) ([]model.Content, error) {
	return s.query(func(c *model.Content) bool {
		return c.Type == model.TypeRally && c.EndDate > nowMs
	}, 0, 0), nil
}

func (s *memContentStore) RalliesStartingAfter(_ context.Context, nowMs int64) ([]model.Content, error) {
	return s.query(func(c *model.Content) bool {
		return c.Type == model.TypeRally && c.StartDate > nowMs
	}, 0, 0), nil
}

type memInviteStore struct {
	mu      sync.Mutex
	invites []model.RallyInvite
}

func newMemInviteStore() *memInviteStore {
	return &memInviteStore{}
}

func (s *memInviteStore) Insert(_ context.Context, inv *model.RallyInvite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invites = append(s.invites, *inv)
	return nil
}

func (s *memInviteStore) PendingForRally(_ context.Context, rallyID string) ([]model.RallyInvite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.RallyInvite
	for _, inv := range s.invites {
		if inv.RallyID == rallyID && inv.IsPending {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (s *memInviteStore) PendingForUser(_ context.Context, userID, rallyID string) ([]model.RallyInvite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.RallyInvite
	for _, inv := range s.invites {
		if inv.To == userID && inv.IsPending && (rallyID == "" || inv.RallyID == rallyID) {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (s *memInviteStore) Resolve(_ context.Context, userID, rallyID string, declined bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.invites {
		if s.invites[i].To == userID && s.invites[i].RallyID == rallyID && s.invites[i].IsPending {
			s.invites[i].IsPending = false
			if declined {
				s.invites[i].Declined = true
			}
		}
	}
	return nil
}

func (s *memInviteStore) DeleteForRally(_ context.Context, rallyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var kept []model.RallyInvite
	for _, inv := range s.invites {
		if inv.RallyID != rallyID {
			kept = append(kept, inv)
		}
	}
	s.invites = kept
	return nil
}

type memUserStore struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newMemUserStore(users ...model.User) *memUserStore {
	s := &memUserStore{users: make(map[string]*model.User)}
	for _, u := range users {
		cp := u
		s.users[u.ID] = &cp
	}
	return s
}

func (s *memUserStore) GetByID(_ context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, pkg.NewError(pkg.BadRequest, "user not found")
	}
	cp := *u
	return &cp, nil
}

func (s *memUserStore) GetByIDs(_ context.Context, ids []string) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.User
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

// recordedNote captures one Notify call.
type recordedNote struct {
	From string
	To   string
	Type string
	Item string
}

type fakeNotifier struct {
	mu      sync.Mutex
	notes   []recordedNote
	cleared []recordedNote
}

func (f *fakeNotifier) Notify(_ context.Context, from, to, noteType, itemID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	// Mirror the production dedupe: one unread copy per (to, type, item).
	for _, n := range f.notes {
		if n.To == to && n.Type == noteType && n.Item == itemID {
			return nil
		}
	}
	f.notes = append(f.notes, recordedNote{From: from, To: to, Type: noteType, Item: itemID})
	return nil
}

func (f *fakeNotifier) ClearRally(_ context.Context, userID, rallyID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, recordedNote{To: userID, Item: rallyID})
	return nil
}

func (f *fakeNotifier) DropItem(_ context.Context, itemID string) error {
	return nil
}

func (f *fakeNotifier) byType(noteType string) []recordedNote {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recordedNote
	for _, n := range f.notes {
		if n.Type == noteType {
			out = append(out, n)
		}
	}
	return out
}

type fakeMetrics struct {
	mu     sync.Mutex
	counts map[string]int64
	marks  map[string]int64
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{counts: make(map[string]int64), marks: make(map[string]int64)}
}

func (f *fakeMetrics) BumpContent(_ context.Context, contentType string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[contentType]++
	return nil
}

func (f *fakeMetrics) ContentCount(_ context.Context, contentType string, _ time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[contentType], nil
}

func (f *fakeMetrics) MarkRequest(_ context.Context, endpoint string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marks[endpoint]++
	return nil
}

package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hoffination/open-social-server/internal/model"
	"github.com/hoffination/open-social-server/internal/pkg"
)

// RallyService owns the rally membership lifecycle. Every mutation of the
// membership sets runs inside ContentStore.AtomicUpdate so concurrent
// transitions on one rally serialize, and every successful mutation leaves a
// freshly computed heuristic on the row.
type RallyService struct {
	content  ContentStore
	invites  InviteStore
	users    UserStore
	notifier Notifier
	metrics  Metrics
	log      *logrus.Logger
	clock    func() time.Time
}

func NewRallyService(content ContentStore, invites InviteStore, users UserStore, notifier Notifier, metrics Metrics, log *logrus.Logger) *RallyService {
	return &RallyService{
		content:  content,
		invites:  invites,
		users:    users,
		notifier: notifier,
		metrics:  metrics,
		log:      log,
		clock:    time.Now,
	}
}

type CreateRallyInput struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Category     string   `json:"category"`
	Privacy      string   `json:"privacy"`
	Address      string   `json:"address"`
	Requirements string   `json:"requirements"`
	GeneralArea  string   `json:"generalArea"`
	PhotoID      string   `json:"photoId"`
	CityID       int64    `json:"cityId"`
	StartDate    int64    `json:"startDate"`
	EndDate      int64    `json:"endDate"`
	Invited      []string `json:"invited"`
}

func validPrivacy(p string) bool {
	return p == model.PrivacyPublic || p == model.PrivacyProtected || p == model.PrivacyPrivate
}

// Create stores a new rally with the host as its only confirmed attendee and
// issues the initial invites. Invite targets that are missing, blocked or the
// host are skipped rather than failing the whole creation.
func (s *RallyService) Create(ctx context.Context, hostID string, in CreateRallyInput) (*model.Content, error) {
	if in.Title == "" || in.StartDate == 0 || in.EndDate == 0 {
		return nil, pkg.NewError(pkg.BadInput, "rally needs a title, start date and end date")
	}
	if in.EndDate <= in.StartDate {
		return nil, pkg.NewError(pkg.BadInput, "rally must end after it starts")
	}
	if !validPrivacy(in.Privacy) {
		return nil, pkg.NewError(pkg.BadInput, "unknown privacy level")
	}
	host, err := s.users.GetByID(ctx, hostID)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	rally := &model.Content{
		ID:                  uuid.NewString(),
		Type:                model.TypeRally,
		Title:               in.Title,
		Description:         in.Description,
		Category:            in.Category,
		Creator:             host.ID,
		CreatorName:         host.FirstName(),
		PhotoID:             in.PhotoID,
		CityID:              in.CityID,
		TsCreated:           now.UnixMilli(),
		LastModified:        now.UnixMilli(),
		StartDate:           in.StartDate,
		EndDate:             in.EndDate,
		Privacy:             in.Privacy,
		Address:             in.Address,
		Requirements:        in.Requirements,
		GeneralArea:         in.GeneralArea,
		ConfirmedUsers:      model.IDList{host.ID},
		Members:             model.IDList{},
		Requests:            model.IDList{},
		Declined:            model.IDList{},
		LastHeuristicUpdate: now.UnixMilli(),
	}
	rally.Heuristic = RallyScore(rally, now)
	if err := s.content.Insert(ctx, rally); err != nil {
		return nil, pkg.WrapError(pkg.EXCEPTION, "storing rally", err)
	}
	if err := s.metrics.BumpContent(ctx, model.TypeRally, now); err != nil {
		s.log.WithError(err).Warn("rally metric bump failed")
	}
	for _, target := range in.Invited {
		if err := s.inviteOne(ctx, host, rally, target); err != nil {
			s.log.WithFields(logrus.Fields{"rally": rally.ID, "target": target}).
				WithError(err).Warn("skipping initial invite")
		}
	}
	return rally, nil
}

type UpdateRallyInput struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	Category     *string `json:"category"`
	Address      *string `json:"address"`
	Requirements *string `json:"requirements"`
	GeneralArea  *string `json:"generalArea"`
	PhotoID      *string `json:"photoId"`
	StartDate    *int64  `json:"startDate"`
	EndDate      *int64  `json:"endDate"`
	Privacy      *string `json:"privacy"`
}

// Update lets the host edit rally details. Changing the address, the general
// area or the start date invalidates prior attendance confirmations: everyone
// confirmed except the host drops back to plain membership and is told the
// rally changed. Cosmetic edits save without touching membership.
func (s *RallyService) Update(ctx context.Context, actorID, rallyID string, in UpdateRallyInput) (*model.Content, error) {
	if in.Privacy != nil && !validPrivacy(*in.Privacy) {
		return nil, pkg.NewError(pkg.BadInput, "invalid privacy setting")
	}
	var demoted []string
	rally, err := s.content.AtomicUpdate(ctx, rallyID, func(c *model.Content) error {
		if !c.IsRally() {
			return pkg.NewError(pkg.BadRequest, "content is not a rally")
		}
		if c.Creator != actorID {
			return pkg.NewError(pkg.BadRequest, "only the host can edit a rally")
		}
		changed, material := applyRallyEdits(c, in)
		if !changed {
			return pkg.NewError(pkg.NoChange, "nothing to update")
		}
		if material {
			for _, id := range c.ConfirmedUsers {
				if id == actorID {
					continue
				}
				demoted = append(demoted, id)
				c.Members = c.Members.Insert(id)
			}
			c.ConfirmedUsers = model.IDList{actorID}
		}
		s.touch(c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, id := range demoted {
		if err := s.notifier.Notify(ctx, actorID, id, model.NoteRallyUpdated, rallyID); err != nil {
			s.log.WithError(err).Warn("rally update notification failed")
		}
	}
	return rally, nil
}

// applyRallyEdits copies the provided fields onto the rally and reports
// whether anything changed and whether the change requires re-confirmation.
func applyRallyEdits(c *model.Content, in UpdateRallyInput) (changed, material bool) {
	setStr := func(dst *string, v *string, materialField bool) {
		if v != nil && *v != *dst {
			*dst = *v
			changed = true
			if materialField {
				material = true
			}
		}
	}
	setStr(&c.Title, in.Title, false)
	setStr(&c.Description, in.Description, false)
	setStr(&c.Category, in.Category, false)
	setStr(&c.PhotoID, in.PhotoID, false)
	setStr(&c.Requirements, in.Requirements, false)
	setStr(&c.Address, in.Address, true)
	setStr(&c.GeneralArea, in.GeneralArea, true)
	setStr(&c.Privacy, in.Privacy, false)
	if in.StartDate != nil && *in.StartDate != c.StartDate {
		c.StartDate = *in.StartDate
		changed = true
		material = true
	}
	if in.EndDate != nil && *in.EndDate != c.EndDate {
		c.EndDate = *in.EndDate
		changed = true
	}
	return changed, material
}

// Delete removes a rally along with its invites and notifications. Admins can
// delete any rally; everyone else only their own.
func (s *RallyService) Delete(ctx context.Context, actorID, rallyID string) error {
	rally, err := s.content.GetByID(ctx, rallyID)
	if err != nil {
		return err
	}
	if rally.Creator != actorID {
		actor, err := s.users.GetByID(ctx, actorID)
		if err != nil {
			return err
		}
		if !actor.Admin {
			return pkg.NewError(pkg.BadRequest, "only the host can delete a rally")
		}
	}
	if err := s.content.Delete(ctx, rallyID); err != nil {
		return pkg.WrapError(pkg.EXCEPTION, "deleting rally", err)
	}
	if err := s.invites.DeleteForRally(ctx, rallyID); err != nil {
		s.log.WithError(err).Warn("deleting rally invites failed")
	}
	if err := s.notifier.DropItem(ctx, rallyID); err != nil {
		s.log.WithError(err).Warn("deleting rally notifications failed")
	}
	return nil
}

// RequestJoin records a join request on a public rally. A user with an open
// invite is treated as already asked and the request quietly succeeds without
// touching the row; repeat requests are rejected as no-ops.
func (s *RallyService) RequestJoin(ctx context.Context, userID, rallyID string) (*model.Content, error) {
	if err := s.checkBlocked(ctx, userID, rallyID); err != nil {
		return nil, err
	}
	pending, err := s.invites.PendingForUser(ctx, userID, rallyID)
	if err != nil {
		return nil, pkg.WrapError(pkg.EXCEPTION, "checking invites", err)
	}
	if len(pending) > 0 {
		return s.content.GetByID(ctx, rallyID)
	}
	var host string
	rally, err := s.content.AtomicUpdate(ctx, rallyID, func(c *model.Content) error {
		if !c.IsRally() {
			return pkg.NewError(pkg.BadRequest, "content is not a rally")
		}
		if c.Privacy != model.PrivacyPublic {
			return pkg.NewError(pkg.BadRequest, "rally does not take join requests")
		}
		if c.Creator == userID {
			return pkg.NewError(pkg.BadRequest, "hosts do not request their own rally")
		}
		if c.Members.Contains(userID) || c.ConfirmedUsers.Contains(userID) {
			return pkg.NewError(pkg.NoChange, "already attending")
		}
		if c.Requests.Contains(userID) {
			return pkg.NewError(pkg.NoChange, "request already open")
		}
		c.Declined = c.Declined.Without(userID)
		c.Requests = c.Requests.Insert(userID)
		c.RequestCount++
		host = c.Creator
		s.touch(c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.notifier.Notify(ctx, userID, host, model.NoteRallyRequest, rallyID); err != nil {
		s.log.WithError(err).Warn("join request notification failed")
	}
	return rally, nil
}

// AcceptRequest lets the host approve an open join request. The requester
// becomes a member and is told they are in.
func (s *RallyService) AcceptRequest(ctx context.Context, hostID, rallyID, userID string) (*model.Content, error) {
	rally, err := s.content.AtomicUpdate(ctx, rallyID, func(c *model.Content) error {
		if c.Creator != hostID {
			return pkg.NewError(pkg.BadRequest, "only the host can accept requests")
		}
		if !c.Requests.Contains(userID) {
			return pkg.NewError(pkg.BadRequest, "no open request from that user")
		}
		c.Requests = c.Requests.Without(userID)
		c.Declined = c.Declined.Without(userID)
		c.Members = c.Members.Insert(userID)
		s.touch(c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.notifier.Notify(ctx, hostID, userID, model.NoteRallyReqAccepted, rallyID); err != nil {
		s.log.WithError(err).Warn("request accept notification failed")
	}
	return rally, nil
}

// DeclineRequest drops an open join request without telling the requester.
// The decline only feeds the scoring counters; the user may ask again.
func (s *RallyService) DeclineRequest(ctx context.Context, hostID, rallyID, userID string) (*model.Content, error) {
	return s.content.AtomicUpdate(ctx, rallyID, func(c *model.Content) error {
		if c.Creator != hostID {
			return pkg.NewError(pkg.BadRequest, "only the host can decline requests")
		}
		if !c.Requests.Contains(userID) {
			return pkg.NewError(pkg.BadRequest, "no open request from that user")
		}
		c.Requests = c.Requests.Without(userID)
		c.DeclinedCount++
		s.touch(c)
		return nil
	})
}

// Invite lets the host pull more people in. Unusable targets (already
// attending, already invited, blocked either way, the host themselves) are
// skipped; a target who previously declined gets a fresh chance and leaves
// the declined set.
func (s *RallyService) Invite(ctx context.Context, fromID, rallyID string, targets []string) (*model.Content, error) {
	rally, err := s.content.GetByID(ctx, rallyID)
	if err != nil {
		return nil, err
	}
	if !rally.IsRally() {
		return nil, pkg.NewError(pkg.BadRequest, "content is not a rally")
	}
	if rally.Creator != fromID {
		return nil, pkg.NewError(pkg.BadRequest, "only the host can invite")
	}
	from, err := s.users.GetByID(ctx, fromID)
	if err != nil {
		return nil, err
	}

	sent := 0
	for _, target := range targets {
		if err := s.inviteOne(ctx, from, rally, target); err != nil {
			if pkg.KindOf(err) == pkg.EXCEPTION {
				return nil, err
			}
			continue
		}
		sent++
	}
	if sent == 0 {
		return nil, pkg.NewError(pkg.NoChange, "no invites to send")
	}
	return s.content.AtomicUpdate(ctx, rallyID, func(c *model.Content) error {
		for _, target := range targets {
			c.Declined = c.Declined.Without(target)
		}
		s.touch(c)
		return nil
	})
}

// inviteOne validates one invite target and records the invite. Returns a
// BAD_REQUEST or NO_CHANGE error for targets that must be skipped.
func (s *RallyService) inviteOne(ctx context.Context, from *model.User, rally *model.Content, targetID string) error {
	if targetID == from.ID || targetID == rally.Creator {
		return pkg.NewError(pkg.NoChange, "target already attending")
	}
	if rally.Members.Contains(targetID) || rally.ConfirmedUsers.Contains(targetID) {
		return pkg.NewError(pkg.NoChange, "target already attending")
	}
	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return err
	}
	if from.BlockedUsers.Contains(targetID) || from.BlockedBy.Contains(targetID) {
		return pkg.NewError(pkg.BadRequest, "cannot invite that user")
	}
	pending, err := s.invites.PendingForUser(ctx, targetID, rally.ID)
	if err != nil {
		return pkg.WrapError(pkg.EXCEPTION, "checking invites", err)
	}
	if len(pending) > 0 {
		return pkg.NewError(pkg.NoChange, "invite already open")
	}
	invite := &model.RallyInvite{
		ID:        uuid.NewString(),
		From:      from.ID,
		To:        target.ID,
		RallyID:   rally.ID,
		IsPending: true,
		TsCreated: s.clock().UnixMilli(),
	}
	if err := s.invites.Insert(ctx, invite); err != nil {
		return pkg.WrapError(pkg.EXCEPTION, "storing invite", err)
	}
	if err := s.notifier.Notify(ctx, from.ID, target.ID, model.NoteRallyInvite, rally.ID); err != nil {
		s.log.WithError(err).Warn("invite notification failed")
	}
	return nil
}

// AcceptInvite turns an open invite straight into confirmed attendance and
// tells the inviter. An invitation carries the host's vouching, so there is
// no separate confirmation step.
func (s *RallyService) AcceptInvite(ctx context.Context, userID, rallyID string) (*model.Content, error) {
	pending, err := s.invites.PendingForUser(ctx, userID, rallyID)
	if err != nil {
		return nil, pkg.WrapError(pkg.EXCEPTION, "checking invites", err)
	}
	if len(pending) == 0 {
		return nil, pkg.NewError(pkg.BadRequest, "no open invite for that rally")
	}
	rally, err := s.content.AtomicUpdate(ctx, rallyID, func(c *model.Content) error {
		c.Requests = c.Requests.Without(userID)
		c.Declined = c.Declined.Without(userID)
		c.Members = c.Members.Without(userID)
		c.ConfirmedUsers = c.ConfirmedUsers.Insert(userID)
		s.touch(c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.invites.Resolve(ctx, userID, rallyID, false); err != nil {
		return nil, pkg.WrapError(pkg.EXCEPTION, "resolving invite", err)
	}
	for _, inv := range pending {
		if err := s.notifier.Notify(ctx, userID, inv.From, model.NoteRallyInviteAccepted, rallyID); err != nil {
			s.log.WithError(err).Warn("invite accept notification failed")
		}
	}
	return rally, nil
}

// DeclineInvite closes an open invite. The decline is remembered on both the
// invite row and the rally's declined set so the same invite cannot bounce
// back, and the user's prompts for this rally are cleared.
func (s *RallyService) DeclineInvite(ctx context.Context, userID, rallyID string) (*model.Content, error) {
	pending, err := s.invites.PendingForUser(ctx, userID, rallyID)
	if err != nil {
		return nil, pkg.WrapError(pkg.EXCEPTION, "checking invites", err)
	}
	if len(pending) == 0 {
		return nil, pkg.NewError(pkg.BadRequest, "no open invite for that rally")
	}
	rally, err := s.content.AtomicUpdate(ctx, rallyID, func(c *model.Content) error {
		c.Members = c.Members.Without(userID)
		c.ConfirmedUsers = c.ConfirmedUsers.Without(userID)
		c.Declined = c.Declined.Insert(userID)
		s.touch(c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.invites.Resolve(ctx, userID, rallyID, true); err != nil {
		return nil, pkg.WrapError(pkg.EXCEPTION, "resolving invite", err)
	}
	if err := s.notifier.ClearRally(ctx, userID, rallyID); err != nil {
		s.log.WithError(err).Warn("clearing rally notifications failed")
	}
	return rally, nil
}

// JoinProtected lets a contact of the host walk straight into confirmed
// attendance on a protected rally, skipping the request queue. Any open
// invite for the rally is settled as accepted.
func (s *RallyService) JoinProtected(ctx context.Context, userID, rallyID string) (*model.Content, error) {
	rally, err := s.content.GetByID(ctx, rallyID)
	if err != nil {
		return nil, err
	}
	if rally.Privacy != model.PrivacyProtected {
		return nil, pkg.NewError(pkg.BadRequest, "rally is not open to contacts")
	}
	host, err := s.users.GetByID(ctx, rally.Creator)
	if err != nil {
		return nil, err
	}
	if !host.Contacts.Contains(userID) {
		return nil, pkg.NewError(pkg.BadRequest, "only the host's contacts can join")
	}
	pending, err := s.invites.PendingForUser(ctx, userID, rallyID)
	if err != nil {
		return nil, pkg.WrapError(pkg.EXCEPTION, "checking invites", err)
	}
	updated, err := s.content.AtomicUpdate(ctx, rallyID, func(c *model.Content) error {
		if c.Members.Contains(userID) || c.ConfirmedUsers.Contains(userID) {
			return pkg.NewError(pkg.NoChange, "already attending")
		}
		c.Requests = c.Requests.Without(userID)
		c.Declined = c.Declined.Without(userID)
		c.ConfirmedUsers = c.ConfirmedUsers.Insert(userID)
		s.touch(c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(pending) > 0 {
		if err := s.invites.Resolve(ctx, userID, rallyID, false); err != nil {
			return nil, pkg.WrapError(pkg.EXCEPTION, "resolving invite", err)
		}
	}
	if err := s.notifier.Notify(ctx, userID, host.ID, model.NoteUserJoined, rallyID); err != nil {
		s.log.WithError(err).Warn("join notification failed")
	}
	return updated, nil
}

// Confirm promotes a member to confirmed attendance and tells the host.
func (s *RallyService) Confirm(ctx context.Context, userID, rallyID string) (*model.Content, error) {
	var host string
	rally, err := s.content.AtomicUpdate(ctx, rallyID, func(c *model.Content) error {
		if c.ConfirmedUsers.Contains(userID) {
			return pkg.NewError(pkg.NoChange, "already confirmed")
		}
		if !c.Members.Contains(userID) {
			return pkg.NewError(pkg.BadRequest, "only members can confirm attendance")
		}
		c.Members = c.Members.Without(userID)
		c.ConfirmedUsers = c.ConfirmedUsers.Insert(userID)
		host = c.Creator
		s.touch(c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.notifier.Notify(ctx, userID, host, model.NoteRallyConfirmed, rallyID); err != nil {
		s.log.WithError(err).Warn("confirm notification failed")
	}
	return rally, nil
}

// Unconfirm walks a confirmed attendee back to plain membership.
func (s *RallyService) Unconfirm(ctx context.Context, userID, rallyID string) (*model.Content, error) {
	var host string
	rally, err := s.content.AtomicUpdate(ctx, rallyID, func(c *model.Content) error {
		if !c.ConfirmedUsers.Contains(userID) {
			return pkg.NewError(pkg.BadRequest, "attendance is not confirmed")
		}
		if c.Creator == userID {
			return pkg.NewError(pkg.BadRequest, "hosts cannot unconfirm their own rally")
		}
		c.ConfirmedUsers = c.ConfirmedUsers.Without(userID)
		c.Members = c.Members.Insert(userID)
		host = c.Creator
		s.touch(c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.notifier.Notify(ctx, userID, host, model.NoteRallyUnconfirmed, rallyID); err != nil {
		s.log.WithError(err).Warn("unconfirm notification failed")
	}
	return rally, nil
}

// Leave removes a user from a rally entirely and clears their prompts for it.
// The departure lands in the declined set so the rally stops resurfacing for
// them; a fresh invite clears it again.
func (s *RallyService) Leave(ctx context.Context, userID, rallyID string) (*model.Content, error) {
	var host string
	rally, err := s.content.AtomicUpdate(ctx, rallyID, func(c *model.Content) error {
		if c.Creator == userID {
			return pkg.NewError(pkg.BadRequest, "hosts cannot leave their own rally")
		}
		if !c.Members.Contains(userID) && !c.ConfirmedUsers.Contains(userID) {
			return pkg.NewError(pkg.NoChange, "not attending")
		}
		c.Members = c.Members.Without(userID)
		c.ConfirmedUsers = c.ConfirmedUsers.Without(userID)
		c.Declined = c.Declined.Insert(userID)
		host = c.Creator
		s.touch(c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.notifier.ClearRally(ctx, userID, rallyID); err != nil {
		s.log.WithError(err).Warn("clearing rally notifications failed")
	}
	if err := s.notifier.Notify(ctx, userID, host, model.NoteRallyLeft, rallyID); err != nil {
		s.log.WithError(err).Warn("leave notification failed")
	}
	return rally, nil
}

// MyUpcomingRallies lists unended rallies the user hosts, attends or holds an
// open invite to.
func (s *RallyService) MyUpcomingRallies(ctx context.Context, userID string) ([]model.Content, error) {
	rallies, err := s.content.RalliesEndingAfter(ctx, s.clock().UnixMilli())
	if err != nil {
		return nil, pkg.WrapError(pkg.EXCEPTION, "loading rallies", err)
	}
	invites, err := s.invites.PendingForUser(ctx, userID, "")
	if err != nil {
		return nil, pkg.WrapError(pkg.EXCEPTION, "loading invites", err)
	}
	invited := make(map[string]bool, len(invites))
	for _, inv := range invites {
		invited[inv.RallyID] = true
	}
	var mine []model.Content
	for _, r := range rallies {
		if r.Creator == userID || r.Members.Contains(userID) || r.ConfirmedUsers.Contains(userID) || invited[r.ID] {
			mine = append(mine, r)
		}
	}
	return mine, nil
}

// MyPendingRallies lists upcoming rallies where the user's join request is
// still waiting on the host.
func (s *RallyService) MyPendingRallies(ctx context.Context, userID string) ([]model.Content, error) {
	rallies, err := s.content.RalliesStartingAfter(ctx, s.clock().UnixMilli())
	if err != nil {
		return nil, pkg.WrapError(pkg.EXCEPTION, "loading rallies", err)
	}
	var pending []model.Content
	for _, r := range rallies {
		if r.Requests.Contains(userID) {
			pending = append(pending, r)
		}
	}
	return pending, nil
}

// RallyInvites lists a rally's open invites for its host.
func (s *RallyService) RallyInvites(ctx context.Context, actorID, rallyID string) ([]model.RallyInvite, error) {
	rally, err := s.content.GetByID(ctx, rallyID)
	if err != nil {
		return nil, err
	}
	if rally.Creator != actorID && !rally.Members.Contains(actorID) && !rally.ConfirmedUsers.Contains(actorID) {
		return nil, pkg.NewError(pkg.BadRequest, "only attendees can list invites")
	}
	return s.invites.PendingForRally(ctx, rallyID)
}

// MyRallyInvites lists the rallies the user currently holds an invite to.
// Invites whose rally is gone or already over are lazily closed instead of
// surfacing stale entries.
func (s *RallyService) MyRallyInvites(ctx context.Context, userID string) ([]model.Content, error) {
	invites, err := s.invites.PendingForUser(ctx, userID, "")
	if err != nil {
		return nil, pkg.WrapError(pkg.EXCEPTION, "loading invites", err)
	}
	nowMs := s.clock().UnixMilli()
	var rallies []model.Content
	for _, inv := range invites {
		rally, err := s.content.GetByID(ctx, inv.RallyID)
		if err != nil || rally.EndDate <= nowMs {
			if err := s.invites.Resolve(ctx, userID, inv.RallyID, false); err != nil {
				s.log.WithFields(logrus.Fields{"rally": inv.RallyID}).
					WithError(err).Warn("expiring stale invite failed")
			}
			continue
		}
		rallies = append(rallies, *rally)
	}
	return rallies, nil
}

// View returns one rally redacted to the viewer's tier.
func (s *RallyService) View(ctx context.Context, viewerID, rallyID string) (*model.Content, error) {
	rally, err := s.content.GetByID(ctx, rallyID)
	if err != nil {
		return nil, err
	}
	if !rally.IsRally() {
		return nil, pkg.NewError(pkg.BadRequest, "content is not a rally")
	}
	viewer, err := s.users.GetByID(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	invited := make(map[string]bool)
	if pending, err := s.invites.PendingForUser(ctx, viewerID, rallyID); err == nil && len(pending) > 0 {
		invited[rallyID] = true
	}
	MarkViewer(rally, viewerID, invited[rallyID])
	RedactRally(rally, RallyTier(rally, viewerID, invited, viewer.Contacts))
	return rally, nil
}

// checkBlocked rejects interaction between a user and a rally host when
// either has blocked the other.
func (s *RallyService) checkBlocked(ctx context.Context, userID, rallyID string) error {
	rally, err := s.content.GetByID(ctx, rallyID)
	if err != nil {
		return err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.BlockedUsers.Contains(rally.Creator) || user.BlockedBy.Contains(rally.Creator) {
		return pkg.NewError(pkg.BadRequest, "cannot interact with that rally")
	}
	return nil
}

// touch refreshes the modification stamp and the heuristic after a mutation.
func (s *RallyService) touch(c *model.Content) {
	now := s.clock()
	c.LastModified = now.UnixMilli()
	c.Heuristic = Score(c, now)
	c.LastHeuristicUpdate = now.UnixMilli()
}

package service

import (
	"github.com/hoffination/open-social-server/internal/model"
)

// Rally visibility tiers. Attendees and invitees see everything, the host's
// contacts see where roughly, everyone else only that the rally exists and
// not who is behind it.
const (
	TierMember  = "member"
	TierContact = "contact"
	TierPublic  = "public"
)

// RallyTier places a viewer relative to one rally. A protected rally only
// ever surfaces to the host's circle, so it always reads at full detail.
func RallyTier(c *model.Content, viewerID string, invitedRallies map[string]bool, contacts model.IDList) string {
	switch {
	case c.Creator == viewerID,
		c.Members.Contains(viewerID),
		c.ConfirmedUsers.Contains(viewerID),
		invitedRallies[c.ID]:
		return TierMember
	case c.Privacy == model.PrivacyProtected:
		return TierMember
	case contacts.Contains(c.Creator):
		return TierContact
	default:
		return TierPublic
	}
}

// MarkViewer sets the viewer-relative rally flags the client renders its
// buttons from.
func MarkViewer(c *model.Content, viewerID string, invited bool) {
	c.IsConfirmed = c.ConfirmedUsers.Contains(viewerID)
	c.IsMember = c.Members.Contains(viewerID)
	c.IsRequested = c.Requests.Contains(viewerID)
	c.IsInvited = invited
}

// RedactRally strips rally fields the viewer's tier is not entitled to.
// The membership sets never serialize regardless of tier; this governs the
// location detail and, for strangers, the host's identity.
func RedactRally(c *model.Content, tier string) {
	switch tier {
	case TierMember:
		// Full detail.
	case TierContact:
		c.Address = ""
	default:
		c.Address = ""
		c.Requirements = ""
		c.Creator = ""
		c.CreatorName = ""
		c.PhotoID = ""
	}
}

// Attending reports how many people are in. The host sits in the confirmed
// set from creation, so the sum already includes them.
func Attending(c *model.Content) int {
	return len(c.Members) + len(c.ConfirmedUsers)
}

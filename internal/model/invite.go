package model

// RallyInvite records a host inviting a user. Rows are never deleted once
// answered; IsPending flipping to false is the response. The rally aggregate
// stays the source of truth for membership, the invite row is a secondary
// index into the Invited state.
type RallyInvite struct {
	ID        string `gorm:"primaryKey;size:36" json:"inviteId"`
	From      string `gorm:"size:36;not null;index" json:"from"`
	To        string `gorm:"size:36;not null;index" json:"to"`
	RallyID   string `gorm:"size:36;not null;index" json:"rallyId"`
	IsPending bool   `gorm:"not null;default:true" json:"isPending"`
	Declined  bool   `gorm:"not null;default:false" json:"-"`
	TsCreated int64  `gorm:"not null" json:"-"`
}

func (RallyInvite) TableName() string { return "rally_invites" }

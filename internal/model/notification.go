package model

// Notification event types the rally lifecycle emits.
const (
	NoteRallyInvite         = "rallyInvite"
	NoteRallyInviteAccepted = "rallyInviteAccepted"
	NoteRallyRequest        = "rallyRequest"
	NoteRallyReqAccepted    = "rallyRequestAccepted"
	NoteRallyConfirmed      = "rallyAttendanceConfirmed"
	NoteRallyUnconfirmed    = "unconfirmRallyAttendance"
	NoteRallyLeft           = "leftRally"
	NoteRallyUpdated        = "rallyUpdated"
	NoteUserJoined          = "userJoined"
	NoteNewRallyComment     = "newRallyComment"
)

// RallyNoteTypes are the per-rally notification types cleared when a user
// declines or leaves, and retired when the rally is deleted.
var RallyNoteTypes = []string{
	NoteRallyInvite,
	NoteRallyInviteAccepted,
	NoteRallyRequest,
	NoteRallyReqAccepted,
	NoteRallyConfirmed,
	NoteRallyUnconfirmed,
	NoteRallyLeft,
	NoteNewRallyComment,
}

// Notification is one stored event; push delivery happens elsewhere, this
// row is the in-app inbox entry and the dedupe anchor.
type Notification struct {
	ID     string `gorm:"primaryKey;size:36" json:"id"`
	User1  string `gorm:"size:36;not null;index" json:"user1"`
	User2  string `gorm:"size:36;not null;index" json:"user2"`
	Item   string `gorm:"size:36;index" json:"item"`
	Type   string `gorm:"size:32;not null" json:"type"`
	Time   int64  `gorm:"not null" json:"time"`
	Viewed bool   `gorm:"not null;default:false" json:"viewed"`
}

func (Notification) TableName() string { return "notification_events" }

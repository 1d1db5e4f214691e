package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Content types stored in the shared content table.
const (
	TypePost     = "post"
	TypeQuestion = "question"
	TypeEvent    = "event"
	TypeRally    = "rally"
	// TypeContactRally tags rallies surfaced through the viewer's contacts in
	// the feed pipeline. It is an internal bucket only; items are re-tagged
	// rally before they reach the client.
	TypeContactRally = "contactRally"
)

// Rally privacy levels.
const (
	PrivacyPublic    = "public"
	PrivacyProtected = "protected"
	PrivacyPrivate   = "private"
)

// IDList is a set of user ids persisted as a JSON column.
type IDList []string

func (l IDList) Value() (driver.Value, error) {
	if l == nil {
		l = IDList{}
	}
	return json.Marshal(l)
}

func (l *IDList) Scan(value any) error {
	if value == nil {
		*l = IDList{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported IDList column type %T", value)
	}
	return json.Unmarshal(data, l)
}

func (l IDList) Contains(id string) bool {
	for _, v := range l {
		if v == id {
			return true
		}
	}
	return false
}

// Insert appends id if absent, keeping set semantics.
func (l IDList) Insert(id string) IDList {
	if l.Contains(id) {
		return l
	}
	return append(l, id)
}

// Without returns the list with every occurrence of id removed.
func (l IDList) Without(id string) IDList {
	out := make(IDList, 0, len(l))
	for _, v := range l {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// Intersects reports whether any id in other is also in l.
func (l IDList) Intersects(other IDList) bool {
	for _, v := range other {
		if l.Contains(v) {
			return true
		}
	}
	return false
}

// Content is the single document type behind every feed item: posts,
// questions, events and rallies share the table, distinguished by Type.
// Timestamps are epoch milliseconds. The rally membership sets live on the
// same row so a membership transition is one atomic document update.
type Content struct {
	ID          string `gorm:"primaryKey;size:36" json:"id"`
	Type        string `gorm:"size:16;not null;index" json:"type"`
	Title       string `gorm:"size:200;not null" json:"title"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	Category    string `gorm:"size:64" json:"category,omitempty"`

	Creator     string `gorm:"size:36;index" json:"creator,omitempty"`
	CreatorName string `gorm:"size:64" json:"creatorName,omitempty"`
	PhotoID     string `gorm:"size:64" json:"photoId,omitempty"`

	CityID       int64 `gorm:"index" json:"cityId,omitempty"`
	TsCreated    int64 `gorm:"not null;index" json:"tsCreated"`
	LastModified int64 `gorm:"not null" json:"lastModified"`

	Votes    int    `gorm:"not null;default:0" json:"votes"`
	Comments int    `gorm:"not null;default:0" json:"comments"`
	VoteList IDList `gorm:"type:json" json:"-"`

	Heuristic           float64 `gorm:"not null;default:0;index" json:"heuristic"`
	LastHeuristicUpdate int64   `gorm:"not null" json:"-"`

	// Event and rally scheduling.
	StartDate int64 `json:"startDate,omitempty"`
	EndDate   int64 `json:"endDate,omitempty"`

	// Rally only.
	Privacy        string `gorm:"size:16" json:"privacy,omitempty"`
	Address        string `gorm:"size:255" json:"address,omitempty"`
	Requirements   string `gorm:"size:255" json:"requirements,omitempty"`
	GeneralArea    string `gorm:"size:128" json:"generalArea,omitempty"`
	ConfirmedUsers IDList `gorm:"type:json" json:"-"`
	Members        IDList `gorm:"type:json" json:"-"`
	Requests       IDList `gorm:"type:json" json:"-"`
	Declined       IDList `gorm:"type:json" json:"-"`
	// Monotonic scoring counters; unlike the sets above they never shrink.
	RequestCount  int `gorm:"not null;default:0" json:"-"`
	DeclinedCount int `gorm:"not null;default:0" json:"-"`

	// Derived per viewer, never stored.
	Voted       bool `gorm:"-" json:"voted,omitempty"`
	IsConfirmed bool `gorm:"-" json:"isConfirmed,omitempty"`
	IsMember    bool `gorm:"-" json:"isMember,omitempty"`
	IsRequested bool `gorm:"-" json:"isRequested,omitempty"`
	IsInvited   bool `gorm:"-" json:"isInvited,omitempty"`
}

func (Content) TableName() string { return "content" }

// IsRally covers both the stored rally type and the feed-internal contact
// bucket.
func (c *Content) IsRally() bool {
	return c.Type == TypeRally || c.Type == TypeContactRally
}

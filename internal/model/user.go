package model

// User carries the viewer attributes the core consults: contact and block
// relations for feed filtering and rally visibility, the admin flag for
// moderation and the banned flag for auth rejection. Account management
// itself lives outside this service.
type User struct {
	ID           string `gorm:"primaryKey;size:36" json:"id"`
	Name         string `gorm:"size:64;not null" json:"name"`
	PhotoID      string `gorm:"size:64" json:"photoId,omitempty"`
	CityID       int64  `json:"cityId,omitempty"`
	Contacts     IDList `gorm:"type:json" json:"-"`
	BlockedUsers IDList `gorm:"type:json" json:"-"`
	BlockedBy    IDList `gorm:"type:json" json:"-"`
	Admin        bool   `gorm:"not null;default:false" json:"-"`
	Banned       bool   `gorm:"not null;default:false" json:"-"`
}

func (User) TableName() string { return "users" }

// FirstName is the short display name used on rally cards.
func (u *User) FirstName() string {
	for i, r := range u.Name {
		if r == ' ' {
			return u.Name[:i]
		}
	}
	return u.Name
}

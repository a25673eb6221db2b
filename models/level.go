package models

// Level is one rung of the XP ladder. The ladder is ordered by
// XPRequired; a student resolves to the highest active rung at or below
// their total XP.
type Level struct {
	ID         string `gorm:"primaryKey;type:uuid" json:"id"`
	Level      int    `gorm:"uniqueIndex;not null" json:"level"`
	Name       string `gorm:"not null" json:"name"`
	XPRequired int64  `gorm:"index;not null" json:"xp_required"`
	Benefits   string `json:"benefits,omitempty"`
	IsActive   bool   `gorm:"default:true" json:"is_active"`

	Timestamps
}

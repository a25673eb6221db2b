package models

import "time"

// Badge: catalog entry maintained by admins. Icon is an R2 URL.
type Badge struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description,omitempty"`
	Icon        string `gorm:"type:text" json:"icon,omitempty"`
	XPReward    int64  `gorm:"default:0" json:"xp_reward"`
	Criteria    string `json:"criteria,omitempty"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`

	Timestamps
}

// StudentBadge: awarded instance. Deliberately no uniqueness; the same
// badge can be awarded to the same student any number of times.
type StudentBadge struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	StudentID string    `gorm:"index;not null" json:"student_id"`
	BadgeID   string    `gorm:"index;not null" json:"badge_id"`
	AwardedBy string    `json:"awarded_by,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	AwardedAt time.Time `gorm:"autoCreateTime" json:"awarded_at"`
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// Student is a local mirror of the school directory, kept fresh by the
// roster sync worker. Gamification never writes these rows.
type Student struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"uniqueIndex;not null" json:"external_user_id"` // links to the school information service
	Name           string `gorm:"not null" json:"name"`
	ClassID        string `gorm:"index" json:"class_id"`
	IsActive       bool   `gorm:"default:true" json:"is_active"`

	Timestamps
}

// Class mirrors the directory's class records. Challenge audiences are
// resolved by class name at creation time.
type Class struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	Name     string `gorm:"index;not null" json:"name"`
	Homeroom string `json:"homeroom,omitempty"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

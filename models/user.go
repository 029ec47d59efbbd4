// models/user.go
package models

import (
	"time"

	"gorm.io/datatypes"
)

// PlayedGame is one entry of the user's cross-game history mirror.
type PlayedGame struct {
	GameID         uint      `json:"gameId"`
	Category       string    `json:"category"`
	Title          string    `json:"title"`
	Score          int       `json:"score"`
	MaxScore       int       `json:"maxScore"`
	CorrectAnswers int       `json:"correctAnswers"`
	TotalQuestions int       `json:"totalQuestions"`
	CompletedAt    time.Time `json:"completedAt"`
}

type User struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Username    string  `gorm:"uniqueIndex;not null" json:"username"`
	Email       *string `gorm:"uniqueIndex" json:"email,omitempty"`
	Password    string  `gorm:"not null" json:"-"`
	DisplayName string  `json:"display_name"`
	Avatar      string  `gorm:"default:'default-avatar.png'" json:"avatar"`
	IsAdmin     bool    `gorm:"default:false" json:"is_admin"`

	// Cross-game progress mirror. Written only by the progress
	// aggregator at session completion; GameProgress plus the session
	// log stay the source of truth.
	Points       int                             `gorm:"default:0" json:"points"`
	Level        int                             `gorm:"default:1" json:"level"`
	GameHistory  datatypes.JSONSlice[PlayedGame] `json:"game_history"`
	Achievements datatypes.JSONSlice[string]     `json:"achievements"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	LastLogin time.Time `json:"last_login"`
}

func (User) TableName() string {
	return "users"
}

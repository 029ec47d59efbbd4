// models/progress.go
package models

import (
	"time"

	"gorm.io/datatypes"
)

// PointsPerLevel drives level progression for both GameProgress and the
// per-user mirror: level = points/100 + 1.
const PointsPerLevel = 100

// GameResult is one completed session folded into a progress record.
type GameResult struct {
	SessionID      string    `json:"sessionId"`
	Score          int       `json:"score"`
	Accuracy       int       `json:"accuracy"`
	CorrectAnswers int       `json:"correctAnswers"`
	TotalQuestions int       `json:"totalQuestions"`
	TimeSpent      int       `json:"timeSpent"` // seconds
	CompletedAt    time.Time `json:"completedAt"`
}

// GameProgress is the cumulative record for one (user, game) pair,
// created lazily on the first completed session and updated in place
// afterwards. Sessions remain the canonical history; this is a fold.
type GameProgress struct {
	ID                uint      `json:"-" gorm:"primaryKey"`
	UserID            uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_progress_user_game"`
	GameID            uint      `json:"game_id" gorm:"not null;uniqueIndex:idx_progress_user_game"`
	LastPlayed        time.Time `json:"lastPlayed"`
	HighScore         int       `json:"highScore" gorm:"default:0"`
	BestAccuracy      int       `json:"bestAccuracy" gorm:"default:0"`
	TimeSpent         int       `json:"timeSpent" gorm:"default:0"` // running sum, seconds
	CompletedSessions int       `json:"completedSessions" gorm:"default:0"`
	Level             int       `json:"level" gorm:"default:1"`
	Points            int       `json:"points" gorm:"default:0"`
	GameHistory       datatypes.JSONSlice[GameResult] `json:"gameHistory"`
}

func (GameProgress) TableName() string {
	return "game_progress"
}

// LevelForPoints computes the level a points total maps to.
func LevelForPoints(points int) int {
	if points < 0 {
		points = 0
	}
	return points/PointsPerLevel + 1
}

// HasSession reports whether a session has already been folded in,
// which is what makes finalization idempotent.
func (p *GameProgress) HasSession(sessionID string) bool {
	for _, h := range p.GameHistory {
		if h.SessionID == sessionID {
			return true
		}
	}
	return false
}

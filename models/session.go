// models/session.go
package models

import (
	"time"

	"gorm.io/datatypes"
)

// Session statuses. completed and abandoned are terminal.
const (
	SessionActive    = "active"
	SessionCompleted = "completed"
	SessionAbandoned = "abandoned"
)

// AnsweredQuestion is one entry of a session's append-only answer log.
// UserAnswer keeps whatever shape the client sent (index, id, boolean).
type AnsweredQuestion struct {
	QuestionID   string `json:"questionId"`
	UserAnswer   any    `json:"userAnswer"`
	IsCorrect    bool   `json:"isCorrect"`
	TimeTaken    int    `json:"timeTaken"` // seconds
	PointsEarned int    `json:"pointsEarned"`
}

// GameSession is a single play-through attempt. SessionID is the opaque
// token handed to clients; the row id stays internal. Version backs the
// optimistic check that serializes concurrent submits for one session.
type GameSession struct {
	ID                   uint       `json:"-" gorm:"primaryKey"`
	SessionID            string     `json:"sessionId" gorm:"uniqueIndex;not null;size:64"`
	UserID               uint       `json:"user_id" gorm:"not null;index:idx_sessions_user_game"`
	GameID               uint       `json:"game_id" gorm:"not null;index:idx_sessions_user_game"`
	StartTime            time.Time  `json:"startTime"`
	EndTime              *time.Time `json:"endTime,omitempty"`
	Status               string     `json:"status" gorm:"default:'active';size:20;index"`
	CurrentQuestionIndex int        `json:"currentQuestionIndex" gorm:"default:0"`
	TotalQuestions       int        `json:"totalQuestions" gorm:"default:0"`
	AnsweredQuestions    datatypes.JSONSlice[AnsweredQuestion] `json:"answeredQuestions"`
	Score                int        `json:"score" gorm:"default:0"`
	AccuracyRate         int        `json:"accuracyRate" gorm:"default:0"` // 0-100
	TimeRemaining        int        `json:"timeRemaining" gorm:"default:0"` // seconds
	Version              int        `json:"-" gorm:"default:1"`
}

func (GameSession) TableName() string {
	return "game_sessions"
}

// IsTerminal reports whether the session accepts no further answers.
func (s *GameSession) IsTerminal() bool {
	return s.Status == SessionCompleted || s.Status == SessionAbandoned
}

// ElapsedSeconds is the wall-clock play time, rounded to whole seconds.
// Falls back to now when the session has not been stamped with an end time.
func (s *GameSession) ElapsedSeconds() int {
	end := time.Now()
	if s.EndTime != nil {
		end = *s.EndTime
	}
	d := end.Sub(s.StartTime)
	if d < 0 {
		return 0
	}
	return int(d.Round(time.Second) / time.Second)
}

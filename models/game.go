// models/game.go
package models

import (
	"time"

	"gorm.io/datatypes"
)

// Game categories and statuses
const (
	CategoryWebDevelopment  = "webDevelopment"
	CategoryDatabase        = "database"
	CategoryCoreProgramming = "coreProgramming"

	GameDraft     = "draft"
	GamePublished = "published"
	GameArchived  = "archived"
)

// Option is a single selectable choice of a question.
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Question is one entry of a game's question document.
//
// CorrectOption is deliberately untyped: legacy content stores it as an
// option index, a string-wrapped index, an option id, or a boolean for
// true/false questions. The scoring package owns the interpretation.
type Question struct {
	QuestionID  string   `json:"questionId"`
	Question    string   `json:"question"`
	Options     []Option `json:"options"`
	CorrectOption any    `json:"correctOption"`
	Explanation string   `json:"explanation,omitempty"`
	Points      int      `json:"points,omitempty"`
	TimeLimit   int      `json:"timeLimit,omitempty"`
	Difficulty  string   `json:"difficulty,omitempty"`
}

// Game is admin-authored quiz content. Questions live in a single JSONB
// document; playCount is the only field mutated after publication.
type Game struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Title       string    `json:"title" gorm:"not null;size:200"`
	Description string    `json:"description" gorm:"type:text"`
	Category    string    `json:"category" gorm:"not null;size:50;index"`
	Subcategory string    `json:"subcategory,omitempty" gorm:"size:50"`
	Difficulty  string    `json:"difficulty" gorm:"default:'beginner';size:20"`
	ImageURL    string    `json:"imageUrl" gorm:"size:255;default:'default-game.png'"`
	TimeLimit   int       `json:"timeLimit" gorm:"default:300"` // seconds for the whole game
	Status      string    `json:"status" gorm:"default:'published';size:20;index"`
	PlayCount   int       `json:"playCount" gorm:"default:0"`
	Tags        datatypes.JSONSlice[string]   `json:"tags"`
	Questions   datatypes.JSONSlice[Question] `json:"questions"`
	CreatedBy   *uint     `json:"created_by,omitempty" gorm:"index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Game) TableName() string {
	return "games"
}

// MaxScore is the sum of all question points, with the 10-point default
// applied to questions that don't carry their own value.
func (g *Game) MaxScore() int {
	total := 0
	for _, q := range g.Questions {
		if q.Points > 0 {
			total += q.Points
		} else {
			total += DefaultQuestionPoints
		}
	}
	return total
}

// Defaults applied when question fields are unset.
const (
	DefaultQuestionPoints    = 10
	DefaultQuestionTimeLimit = 30
	DefaultGameTimeLimit     = 300
)

// ValidCategory reports whether c is one of the supported game categories.
func ValidCategory(c string) bool {
	switch c {
	case CategoryWebDevelopment, CategoryDatabase, CategoryCoreProgramming:
		return true
	}
	return false
}

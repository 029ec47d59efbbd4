// scoring/stats.go
package scoring

import (
	"math"

	"nirman/models"
)

// SessionStats is the authoritative view of a session's answer log.
type SessionStats struct {
	Answered       int
	CorrectAnswers int
	Accuracy       int // 0-100, rounded
	Score          int // sum of pointsEarned
}

// Recompute derives correct-answer count, accuracy and score from the
// full answer log. Both the submit completion path and the progress
// aggregator use this one function, and its score always wins over the
// incrementally tracked session.Score when the two disagree.
func Recompute(answered []models.AnsweredQuestion) SessionStats {
	stats := SessionStats{Answered: len(answered)}
	for _, a := range answered {
		if a.IsCorrect {
			stats.CorrectAnswers++
		}
		stats.Score += a.PointsEarned
	}
	if stats.Answered > 0 {
		stats.Accuracy = int(math.Round(float64(stats.CorrectAnswers) / float64(stats.Answered) * 100))
	}
	return stats
}

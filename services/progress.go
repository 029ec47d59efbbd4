// services/progress.go - folds completed sessions into progress records
package services

import (
	"errors"
	"log"
	"time"

	"nirman/models"
	"nirman/scoring"

	"gorm.io/gorm"
)

// CompletionSummary is what a finalized session reports back to the
// player. Level/points and the high-score fields are only present when
// the progress fold succeeded (ProgressSaved).
type CompletionSummary struct {
	SessionID         string `json:"sessionId"`
	Score             int    `json:"score"`
	Accuracy          int    `json:"accuracy"`
	CorrectAnswers    int    `json:"correctAnswers"`
	TotalQuestions    int    `json:"totalQuestions"`
	TimeSpent         int    `json:"timeSpent"`
	Level             int    `json:"level,omitempty"`
	Points            int    `json:"points,omitempty"`
	HighScore         int    `json:"highScore,omitempty"`
	CompletedSessions int    `json:"completedSessions,omitempty"`

	ProgressSaved bool `json:"-"`
}

// FinalizeSession closes out a session and folds it into the user's
// cumulative records. It is the single finalization path for both the
// auto-completion inside submit-answer and the explicit end-session
// call, and it is idempotent: a session already present in the progress
// history is not folded twice, and the summary comes out the same.
//
// The session's own completed state is persisted before any progress
// write. If the progress fold fails afterwards, the summary degrades to
// session-only stats instead of surfacing an error; a bookkeeping
// failure must never mask a finished quiz.
func FinalizeSession(db *gorm.DB, session *models.GameSession, game *models.Game) (*CompletionSummary, error) {
	if session.Status != models.SessionCompleted {
		now := time.Now()
		session.Status = models.SessionCompleted
		session.EndTime = &now
	}

	// The answer log is the source of truth. The recomputed score always
	// wins over the incrementally tracked one.
	stats := scoring.Recompute(session.AnsweredQuestions)
	if session.Score != stats.Score {
		log.Printf("score mismatch on session %s: tracked=%d recomputed=%d, using recomputed",
			session.SessionID, session.Score, stats.Score)
		session.Score = stats.Score
	}
	session.AccuracyRate = stats.Accuracy

	totalQuestions := len(game.Questions)
	timeSpent := session.ElapsedSeconds()

	if err := db.Save(session).Error; err != nil {
		return nil, err
	}

	summary := &CompletionSummary{
		SessionID:      session.SessionID,
		Score:          session.Score,
		Accuracy:       stats.Accuracy,
		CorrectAnswers: stats.CorrectAnswers,
		TotalQuestions: totalQuestions,
		TimeSpent:      timeSpent,
	}

	progress, err := foldIntoProgress(db, session, game, summary)
	if err != nil {
		log.Printf("progress update failed for session %s: %v", session.SessionID, err)
		return summary, nil
	}

	summary.Level = progress.Level
	summary.Points = progress.Points
	summary.HighScore = progress.HighScore
	summary.CompletedSessions = progress.CompletedSessions
	summary.ProgressSaved = true
	return summary, nil
}

// foldIntoProgress updates (or lazily creates) the per-game progress row
// and mirrors the result into the user's cross-game aggregate. The two
// writes run inside one transaction so the mirror never drifts from the
// record it derives from.
func foldIntoProgress(db *gorm.DB, session *models.GameSession, game *models.Game, summary *CompletionSummary) (*models.GameProgress, error) {
	var progress models.GameProgress

	err := db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		err := tx.Where("user_id = ? AND game_id = ?", session.UserID, session.GameID).
			First(&progress).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			progress = models.GameProgress{
				UserID:            session.UserID,
				GameID:            session.GameID,
				LastPlayed:        now,
				HighScore:         session.Score,
				BestAccuracy:      summary.Accuracy,
				TimeSpent:         summary.TimeSpent,
				CompletedSessions: 1,
				Level:             models.LevelForPoints(session.Score),
				Points:            session.Score,
				GameHistory:       []models.GameResult{historyEntry(session, summary, now)},
			}
			if err := tx.Create(&progress).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			if progress.HasSession(session.SessionID) {
				// Already folded; repeated end-session calls report the
				// stored values unchanged.
				return nil
			}
			progress.LastPlayed = now
			progress.HighScore = max(progress.HighScore, session.Score)
			progress.BestAccuracy = max(progress.BestAccuracy, summary.Accuracy)
			progress.TimeSpent += summary.TimeSpent
			progress.CompletedSessions++
			progress.Points += session.Score
			if lvl := models.LevelForPoints(progress.Points); lvl > progress.Level {
				log.Printf("user %d leveled up to %d on game %d", session.UserID, lvl, session.GameID)
				progress.Level = lvl
			}
			progress.GameHistory = append(progress.GameHistory, historyEntry(session, summary, now))
			if err := tx.Save(&progress).Error; err != nil {
				return err
			}
		}

		return mirrorIntoUser(tx, session, game, summary)
	})
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

// mirrorIntoUser maintains the denormalized cross-game aggregate on the
// user row: points sum, level raised via max (never lowered), and a
// history entry stamped with the calendar date of the fold.
func mirrorIntoUser(tx *gorm.DB, session *models.GameSession, game *models.Game, summary *CompletionSummary) error {
	var user models.User
	if err := tx.First(&user, session.UserID).Error; err != nil {
		return err
	}

	user.Points += session.Score
	user.Level = max(user.Level, models.LevelForPoints(user.Points))

	maxScore := game.MaxScore()
	if maxScore == 0 {
		maxScore = summary.TotalQuestions * models.DefaultQuestionPoints
	}

	user.GameHistory = append(user.GameHistory, models.PlayedGame{
		GameID:         game.ID,
		Category:       game.Category,
		Title:          game.Title,
		Score:          session.Score,
		MaxScore:       maxScore,
		CorrectAnswers: summary.CorrectAnswers,
		TotalQuestions: summary.TotalQuestions,
		CompletedAt:    time.Now(),
	})

	return tx.Save(&user).Error
}

func historyEntry(session *models.GameSession, summary *CompletionSummary, now time.Time) models.GameResult {
	return models.GameResult{
		SessionID:      session.SessionID,
		Score:          session.Score,
		Accuracy:       summary.Accuracy,
		CorrectAnswers: summary.CorrectAnswers,
		TotalQuestions: summary.TotalQuestions,
		TimeSpent:      summary.TimeSpent,
		CompletedAt:    now,
	}
}

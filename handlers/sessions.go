// handlers/sessions.go - quiz session lifecycle: start, submit, end
package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"nirman/database"
	"nirman/middleware"
	"nirman/models"
	"nirman/scoring"
	"nirman/services"
	"nirman/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// questionView is the caller-facing projection of a question. The
// correct option and explanation never leave the server mid-game.
type questionView struct {
	QuestionID string          `json:"questionId"`
	Question   string          `json:"question"`
	Options    []models.Option `json:"options"`
	Points     int             `json:"points"`
	TimeLimit  int             `json:"timeLimit"`
	Difficulty string          `json:"difficulty"`
}

func projectQuestion(q models.Question) questionView {
	view := questionView{
		QuestionID: q.QuestionID,
		Question:   q.Question,
		Options:    q.Options,
		Points:     q.Points,
		TimeLimit:  q.TimeLimit,
		Difficulty: q.Difficulty,
	}
	if view.Points == 0 {
		view.Points = models.DefaultQuestionPoints
	}
	if view.TimeLimit == 0 {
		view.TimeLimit = models.DefaultQuestionTimeLimit
	}
	if view.Difficulty == "" {
		view.Difficulty = "easy"
	}
	return view
}

// StartGameSession creates a fresh session for the caller on a game.
// Any session already active for this (user, game) pair is force-
// abandoned first, so at most one active session exists per pair.
func StartGameSession(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	db := database.GetDB()

	var game models.Game
	if err := db.First(&game, c.Params("id")).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "error": "Game not found"})
	}
	if game.Status != models.GamePublished && !middleware.IsAdmin(c) {
		return c.Status(404).JSON(fiber.Map{"success": false, "error": "Game not found"})
	}
	if len(game.Questions) == 0 {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "This game has no questions and cannot be started"})
	}

	now := time.Now()

	var stale []models.GameSession
	db.Where("user_id = ? AND game_id = ? AND status = ?", userID, game.ID, models.SessionActive).
		Find(&stale)
	for i := range stale {
		stale[i].Status = models.SessionAbandoned
		stale[i].EndTime = &now
		if err := db.Save(&stale[i]).Error; err != nil {
			return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to start session"})
		}
	}
	if len(stale) > 0 {
		log.Printf("Abandoned %d prior active sessions for user %d game %d", len(stale), userID, game.ID)
	}

	timeLimit := game.TimeLimit
	if timeLimit <= 0 {
		timeLimit = models.DefaultGameTimeLimit
	}

	session := models.GameSession{
		SessionID:      uuid.New().String(),
		UserID:         userID,
		GameID:         game.ID,
		StartTime:      now,
		Status:         models.SessionActive,
		TotalQuestions: len(game.Questions),
		TimeRemaining:  timeLimit,
		Version:        1,
	}

	if err := db.Create(&session).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to start session"})
	}

	// playCount is a monotonic counter; increment it atomically so
	// concurrent starts never lose a count.
	db.Model(&models.Game{}).Where("id = ?", game.ID).
		UpdateColumn("play_count", gorm.Expr("play_count + 1"))

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"sessionId":            session.SessionID,
			"gameId":               game.ID,
			"title":                game.Title,
			"category":             game.Category,
			"timeLimit":            timeLimit,
			"timeRemaining":        timeLimit,
			"currentQuestionIndex": 0,
			"totalQuestions":       len(game.Questions),
			"currentQuestion":      projectQuestion(game.Questions[0]),
			"score":                0,
		},
	})
}

type submitAnswerRequest struct {
	QuestionID string          `json:"questionId" validate:"required"`
	Answer     json.RawMessage `json:"answer"`
	TimeTaken  int             `json:"timeTaken" validate:"required,gt=0"`
}

// SubmitAnswer grades the answer for the session's current question,
// advances the session, and finalizes the game when the last question
// has been answered or time has run out.
func SubmitAnswer(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	var req submitAnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request body"})
	}
	// The answer may legitimately be false or 0, so its presence is
	// checked on the raw payload rather than through validator tags.
	if err := utils.ValidateStruct(req); err != nil || len(req.Answer) == 0 {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Please provide questionId, answer and timeTaken"})
	}

	var answer any
	if err := json.Unmarshal(req.Answer, &answer); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Please provide questionId, answer and timeTaken"})
	}

	db := database.GetDB()

	var session models.GameSession
	if err := db.Where("session_id = ?", c.Params("sessionId")).First(&session).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "error": "Session not found"})
	}
	if session.UserID != userID {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": "Not authorized to access this session"})
	}
	if session.Status != models.SessionActive {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "This session is no longer active"})
	}

	var game models.Game
	if err := db.First(&game, session.GameID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "error": "Game not found for this session"})
	}
	if len(game.Questions) == 0 {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Game has no questions"})
	}
	if session.CurrentQuestionIndex < 0 || session.CurrentQuestionIndex >= len(game.Questions) {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid question index"})
	}

	currentQuestion := game.Questions[session.CurrentQuestionIndex]
	if currentQuestion.QuestionID != req.QuestionID {
		// Stale client state: the caller is answering a question the
		// session has already moved past.
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid question ID"})
	}

	isCorrect := scoring.Evaluate(answer, currentQuestion)
	pointsEarned := scoring.PointsFor(currentQuestion, isCorrect)

	session.AnsweredQuestions = append(session.AnsweredQuestions, models.AnsweredQuestion{
		QuestionID:   req.QuestionID,
		UserAnswer:   answer,
		IsCorrect:    isCorrect,
		TimeTaken:    req.TimeTaken,
		PointsEarned: pointsEarned,
	})
	if isCorrect {
		session.Score += pointsEarned
	}

	running := scoring.Recompute(session.AnsweredQuestions)
	session.AccuracyRate = running.Accuracy

	session.CurrentQuestionIndex++
	session.TimeRemaining -= req.TimeTaken
	if session.TimeRemaining < 0 {
		session.TimeRemaining = 0
	}

	isLastQuestion := session.CurrentQuestionIndex >= len(game.Questions)
	isOutOfTime := session.TimeRemaining <= 0

	if isLastQuestion || isOutOfTime {
		now := time.Now()
		session.Status = models.SessionCompleted
		session.EndTime = &now
		// Reconciliation: the answer log outranks the running score.
		if session.Score != running.Score {
			log.Printf("score mismatch on session %s: tracked=%d recomputed=%d",
				session.SessionID, session.Score, running.Score)
			session.Score = running.Score
		}
	}

	if err := persistSessionTurn(db, &session); err != nil {
		if errors.Is(err, errVersionConflict) {
			return c.Status(409).JSON(fiber.Map{"success": false, "error": "Session was updated by another request; please retry"})
		}
		log.Printf("Error persisting session %s: %v", session.SessionID, err)
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "An error occurred while processing your answer"})
	}

	explanation := currentQuestion.Explanation
	if explanation == "" {
		explanation = "No explanation provided"
	}

	if session.Status == models.SessionCompleted {
		maxScore := game.MaxScore()

		summary, err := services.FinalizeSession(db, &session, &game)
		if err != nil {
			// The session itself is durably completed; never fail the
			// player's finished quiz over bookkeeping.
			log.Printf("Error finalizing session %s: %v", session.SessionID, err)
			summary = &services.CompletionSummary{
				SessionID:      session.SessionID,
				Score:          session.Score,
				Accuracy:       running.Accuracy,
				CorrectAnswers: running.CorrectAnswers,
				TotalQuestions: len(game.Questions),
				TimeSpent:      session.ElapsedSeconds(),
			}
		}

		data := fiber.Map{
			"isCorrect":            isCorrect,
			"pointsEarned":         pointsEarned,
			"explanation":          explanation,
			"isCompleted":          true,
			"currentQuestionIndex": session.CurrentQuestionIndex,
			"score":                summary.Score,
			"totalScore":           summary.Score,
			"maxScore":             maxScore,
			"accuracy":             summary.Accuracy,
			"correctAnswers":       summary.CorrectAnswers,
			"totalQuestions":       summary.TotalQuestions,
			"timeSpent":            summary.TimeSpent,
		}
		if summary.ProgressSaved {
			data["level"] = summary.Level
			data["points"] = summary.Points
		} else {
			data["error"] = "Failed to update progress, but game was completed"
		}

		return c.JSON(fiber.Map{"success": true, "data": data})
	}

	var nextQuestion *questionView
	if session.CurrentQuestionIndex < len(game.Questions) {
		v := projectQuestion(game.Questions[session.CurrentQuestionIndex])
		nextQuestion = &v
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"isCorrect":            isCorrect,
			"pointsEarned":         pointsEarned,
			"totalScore":           session.Score,
			"explanation":          explanation,
			"nextQuestion":         nextQuestion,
			"currentQuestionIndex": session.CurrentQuestionIndex,
			"timeRemaining":        session.TimeRemaining,
			"isCompleted":          false,
			"correctAnswers":       running.CorrectAnswers,
		},
	})
}

var errVersionConflict = errors.New("session version conflict")

// persistSessionTurn writes the mutated session back guarded by its
// version: if another submission for the same session landed first, the
// stored version has moved and this turn is rejected instead of silently
// overwriting it.
func persistSessionTurn(db *gorm.DB, session *models.GameSession) error {
	res := db.Model(&models.GameSession{}).
		Where("id = ? AND version = ?", session.ID, session.Version).
		Updates(map[string]any{
			"answered_questions":     session.AnsweredQuestions,
			"score":                  session.Score,
			"accuracy_rate":          session.AccuracyRate,
			"current_question_index": session.CurrentQuestionIndex,
			"time_remaining":         session.TimeRemaining,
			"status":                 session.Status,
			"end_time":               session.EndTime,
			"version":                session.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errVersionConflict
	}
	session.Version++
	return nil
}

// EndGameSession finalizes a session explicitly. It shares the
// finalization path with submit-answer's auto-completion and is
// idempotent: repeated calls return the same summary.
func EndGameSession(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	db := database.GetDB()

	var session models.GameSession
	if err := db.Where("session_id = ?", c.Params("sessionId")).First(&session).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "error": "Session not found"})
	}
	if session.UserID != userID {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": "Not authorized to access this session"})
	}

	var game models.Game
	if err := db.First(&game, session.GameID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "error": "Game not found for this session"})
	}

	summary, err := services.FinalizeSession(db, &session, &game)
	if err != nil {
		log.Printf("Error ending session %s: %v", session.SessionID, err)
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to end game session"})
	}

	resp := fiber.Map{"success": true, "data": summary}
	if !summary.ProgressSaved {
		resp["message"] = "Game completed but progress update failed"
	}
	return c.JSON(resp)
}

package services

import (
	"testing"
	"time"

	"nirman/database"
	"nirman/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	// One in-memory sqlite database per handle.
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB) models.User {
	t.Helper()
	user := models.User{Username: "player1", Password: "x", Level: 1}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

func seedGame(t *testing.T, db *gorm.DB) models.Game {
	t.Helper()
	game := models.Game{
		Title:    "SQL Basics",
		Category: models.CategoryDatabase,
		Status:   models.GamePublished,
		Questions: []models.Question{
			{QuestionID: "q1", Question: "A?", Options: []models.Option{{ID: "0", Text: "x"}, {ID: "1", Text: "y"}}, CorrectOption: float64(0), Points: 10},
			{QuestionID: "q2", Question: "B?", Options: []models.Option{{ID: "0", Text: "x"}, {ID: "1", Text: "y"}}, CorrectOption: float64(1), Points: 10},
			{QuestionID: "q3", Question: "C?", Options: []models.Option{{ID: "0", Text: "x"}, {ID: "1", Text: "y"}}, CorrectOption: float64(0), Points: 15},
		},
	}
	if err := db.Create(&game).Error; err != nil {
		t.Fatalf("failed to seed game: %v", err)
	}
	return game
}

func completedSession(user models.User, game models.Game, sessionID string, score int) models.GameSession {
	start := time.Now().Add(-90 * time.Second)
	return models.GameSession{
		SessionID:            sessionID,
		UserID:               user.ID,
		GameID:               game.ID,
		StartTime:            start,
		Status:               models.SessionActive,
		CurrentQuestionIndex: 3,
		TotalQuestions:       3,
		Score:                score,
		AnsweredQuestions: []models.AnsweredQuestion{
			{QuestionID: "q1", UserAnswer: float64(0), IsCorrect: true, TimeTaken: 10, PointsEarned: 10},
			{QuestionID: "q2", UserAnswer: float64(0), IsCorrect: false, TimeTaken: 15, PointsEarned: 0},
			{QuestionID: "q3", UserAnswer: float64(0), IsCorrect: score >= 25, TimeTaken: 12, PointsEarned: score - 10},
		},
	}
}

func TestFinalizeSessionCreatesProgress(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	game := seedGame(t, db)

	session := completedSession(user, game, "sess-1", 25)
	if err := db.Create(&session).Error; err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	summary, err := FinalizeSession(db, &session, &game)
	if err != nil {
		t.Fatalf("FinalizeSession: %v", err)
	}
	if !summary.ProgressSaved {
		t.Fatal("expected ProgressSaved")
	}
	if summary.Score != 25 {
		t.Errorf("Score = %d, want 25", summary.Score)
	}
	if summary.Accuracy != 67 {
		t.Errorf("Accuracy = %d, want 67", summary.Accuracy)
	}
	if summary.CompletedSessions != 1 {
		t.Errorf("CompletedSessions = %d, want 1", summary.CompletedSessions)
	}
	if summary.Level != 1 {
		t.Errorf("Level = %d, want 1", summary.Level)
	}

	var progress models.GameProgress
	if err := db.Where("user_id = ? AND game_id = ?", user.ID, game.ID).First(&progress).Error; err != nil {
		t.Fatalf("progress row not created: %v", err)
	}
	if progress.HighScore != 25 || progress.Points != 25 || progress.CompletedSessions != 1 {
		t.Errorf("progress = %+v", progress)
	}
	if len(progress.GameHistory) != 1 || progress.GameHistory[0].SessionID != "sess-1" {
		t.Errorf("history = %+v", progress.GameHistory)
	}

	var stored models.GameSession
	if err := db.Where("session_id = ?", "sess-1").First(&stored).Error; err != nil {
		t.Fatalf("session not stored: %v", err)
	}
	if stored.Status != models.SessionCompleted || stored.EndTime == nil {
		t.Errorf("session not completed: status=%s", stored.Status)
	}
}

func TestFinalizeSessionUpdatesExistingProgress(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	game := seedGame(t, db)

	first := completedSession(user, game, "sess-1", 35)
	db.Create(&first)
	if _, err := FinalizeSession(db, &first, &game); err != nil {
		t.Fatalf("first FinalizeSession: %v", err)
	}

	second := completedSession(user, game, "sess-2", 25)
	db.Create(&second)
	summary, err := FinalizeSession(db, &second, &game)
	if err != nil {
		t.Fatalf("second FinalizeSession: %v", err)
	}

	var progress models.GameProgress
	db.Where("user_id = ? AND game_id = ?", user.ID, game.ID).First(&progress)

	if progress.HighScore != 35 {
		t.Errorf("HighScore = %d, want 35 (lower score must not lower it)", progress.HighScore)
	}
	if progress.Points != 60 {
		t.Errorf("Points = %d, want 60", progress.Points)
	}
	if progress.CompletedSessions != 2 {
		t.Errorf("CompletedSessions = %d, want 2", progress.CompletedSessions)
	}
	if len(progress.GameHistory) != 2 {
		t.Errorf("history length = %d, want 2", len(progress.GameHistory))
	}
	if summary.HighScore != 35 {
		t.Errorf("summary.HighScore = %d, want 35", summary.HighScore)
	}
}

func TestFinalizeSessionIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	game := seedGame(t, db)

	session := completedSession(user, game, "sess-1", 25)
	db.Create(&session)

	firstSummary, err := FinalizeSession(db, &session, &game)
	if err != nil {
		t.Fatalf("first FinalizeSession: %v", err)
	}

	// Re-finalize the same session, as a duplicate end-session call would.
	var reloaded models.GameSession
	db.Where("session_id = ?", "sess-1").First(&reloaded)
	secondSummary, err := FinalizeSession(db, &reloaded, &game)
	if err != nil {
		t.Fatalf("second FinalizeSession: %v", err)
	}

	var progress models.GameProgress
	db.Where("user_id = ? AND game_id = ?", user.ID, game.ID).First(&progress)
	if progress.CompletedSessions != 1 {
		t.Errorf("CompletedSessions = %d, want 1 after duplicate finalize", progress.CompletedSessions)
	}
	if progress.Points != 25 {
		t.Errorf("Points = %d, want 25 after duplicate finalize", progress.Points)
	}
	if len(progress.GameHistory) != 1 {
		t.Errorf("history length = %d, want 1", len(progress.GameHistory))
	}
	if secondSummary.Score != firstSummary.Score || secondSummary.Accuracy != firstSummary.Accuracy {
		t.Errorf("summaries differ: first=%+v second=%+v", firstSummary, secondSummary)
	}
}

func TestFinalizeSessionRecomputesFromAnswerLog(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	game := seedGame(t, db)

	session := completedSession(user, game, "sess-1", 25)
	session.Score = 999 // drifted tracked score
	db.Create(&session)

	summary, err := FinalizeSession(db, &session, &game)
	if err != nil {
		t.Fatalf("FinalizeSession: %v", err)
	}
	if summary.Score != 25 {
		t.Errorf("Score = %d, want 25 recomputed from answer log", summary.Score)
	}

	var progress models.GameProgress
	db.Where("user_id = ? AND game_id = ?", user.ID, game.ID).First(&progress)
	if progress.HighScore != 25 {
		t.Errorf("HighScore = %d, want 25", progress.HighScore)
	}
}

func TestFinalizeSessionMirrorsUser(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	game := seedGame(t, db)

	session := completedSession(user, game, "sess-1", 25)
	db.Create(&session)
	if _, err := FinalizeSession(db, &session, &game); err != nil {
		t.Fatalf("FinalizeSession: %v", err)
	}

	var stored models.User
	db.First(&stored, user.ID)
	if stored.Points != 25 {
		t.Errorf("user.Points = %d, want 25", stored.Points)
	}
	if stored.Level != 1 {
		t.Errorf("user.Level = %d, want 1", stored.Level)
	}
	if len(stored.GameHistory) != 1 {
		t.Fatalf("user history length = %d, want 1", len(stored.GameHistory))
	}
	entry := stored.GameHistory[0]
	if entry.GameID != game.ID || entry.Title != game.Title || entry.Score != 25 {
		t.Errorf("history entry = %+v", entry)
	}
	if entry.MaxScore != game.MaxScore() {
		t.Errorf("MaxScore = %d, want %d", entry.MaxScore, game.MaxScore())
	}
}

func TestLevelNeverLowered(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	game := seedGame(t, db)

	// Pre-existing progress with an inflated level.
	progress := models.GameProgress{
		UserID: user.ID, GameID: game.ID,
		HighScore: 35, Points: 35, Level: 5, CompletedSessions: 1,
		GameHistory: []models.GameResult{{SessionID: "old", Score: 35, CompletedAt: time.Now()}},
	}
	if err := db.Create(&progress).Error; err != nil {
		t.Fatalf("failed to seed progress: %v", err)
	}

	session := completedSession(user, game, "sess-2", 25)
	db.Create(&session)
	if _, err := FinalizeSession(db, &session, &game); err != nil {
		t.Fatalf("FinalizeSession: %v", err)
	}

	var stored models.GameProgress
	db.Where("user_id = ? AND game_id = ?", user.ID, game.ID).First(&stored)
	if stored.Level != 5 {
		t.Errorf("Level = %d, want 5 (level must never decrease)", stored.Level)
	}
}

func TestFinalizeSessionDegradesWhenProgressWriteFails(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	game := seedGame(t, db)

	session := completedSession(user, game, "sess-1", 25)
	db.Create(&session)

	// Break the progress table so the fold cannot succeed.
	if err := db.Exec("DROP TABLE game_progress").Error; err != nil {
		t.Fatalf("failed to drop table: %v", err)
	}

	summary, err := FinalizeSession(db, &session, &game)
	if err != nil {
		t.Fatalf("FinalizeSession must not error on a failed fold: %v", err)
	}
	if summary.ProgressSaved {
		t.Error("ProgressSaved = true, want false")
	}
	if summary.Score != 25 || summary.TotalQuestions != 3 {
		t.Errorf("degraded summary = %+v", summary)
	}

	var stored models.GameSession
	db.Where("session_id = ?", "sess-1").First(&stored)
	if stored.Status != models.SessionCompleted {
		t.Errorf("session status = %s, want completed despite failed fold", stored.Status)
	}
}

func TestLevelRaisedAtThreshold(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	game := seedGame(t, db)

	progress := models.GameProgress{
		UserID: user.ID, GameID: game.ID,
		HighScore: 35, Points: 90, Level: 1, CompletedSessions: 3,
		GameHistory: []models.GameResult{{SessionID: "old", Score: 35, CompletedAt: time.Now()}},
	}
	if err := db.Create(&progress).Error; err != nil {
		t.Fatalf("failed to seed progress: %v", err)
	}

	session := completedSession(user, game, "sess-2", 25)
	db.Create(&session)
	summary, err := FinalizeSession(db, &session, &game)
	if err != nil {
		t.Fatalf("FinalizeSession: %v", err)
	}

	// 90 + 25 = 115 points, level 115/100 + 1 = 2
	if summary.Level != 2 {
		t.Errorf("Level = %d, want 2", summary.Level)
	}
	if summary.Points != 115 {
		t.Errorf("Points = %d, want 115", summary.Points)
	}
}

// database/migrate.go - Database Migration Runner
package database

import (
	"log"

	"nirman/models"

	"gorm.io/gorm"
)

// RunMigrations runs all database migrations
func RunMigrations() {
	if err := Migrate(GetDB()); err != nil {
		log.Fatalf("❌ Failed to run migrations: %v", err)
	}
	log.Println("✅ All migrations completed successfully")
}

// Migrate applies the schema to the given connection. Split out from
// RunMigrations so tests can migrate their own database handle.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Game{},
		&models.GameSession{},
		&models.GameProgress{},
	); err != nil {
		return err
	}

	createIndexes(db)
	return nil
}

func createIndexes(db *gorm.DB) {
	// Session lookups: owner scans and the active-session check
	db.Exec("CREATE INDEX IF NOT EXISTS idx_sessions_user_game_status ON game_sessions(user_id, game_id, status)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_sessions_status_start ON game_sessions(status, start_time)")

	// Leaderboard and catalogue queries
	db.Exec("CREATE INDEX IF NOT EXISTS idx_progress_game_highscore ON game_progress(game_id, high_score DESC)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_games_category_status ON games(category, status)")
}

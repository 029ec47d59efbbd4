// handlers/leaderboard.go - per-game rankings
package handlers

import (
	"time"

	"nirman/database"
	"nirman/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const leaderboardSize = 10

type leaderboardEntry struct {
	Rank              int       `json:"rank"`
	UserID            uint      `json:"userId"`
	Username          string    `json:"username"`
	ProfilePicture    string    `json:"profilePicture"`
	Score             int       `json:"score"`
	Level             int       `json:"level"`
	BestAccuracy      int       `json:"bestAccuracy"`
	CompletedSessions int       `json:"completedSessions"`
	LastPlayed        time.Time `json:"lastPlayed"`
}

// GetGameLeaderboard returns the top entries for one game, ranked by
// high score.
func GetGameLeaderboard(c *fiber.Ctx) error {
	db := database.GetDB()

	var game models.Game
	if err := db.First(&game, c.Params("id")).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "error": "Game not found"})
	}

	entries, err := buildLeaderboard(db, game.ID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to fetch leaderboard"})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"gameId":      game.ID,
			"gameTitle":   game.Title,
			"leaderboard": entries,
		},
	})
}

// buildLeaderboard ranks progress rows by high score and resolves user
// display info in one batch query. Deleted users keep their scores on
// the board under a placeholder identity.
func buildLeaderboard(db *gorm.DB, gameID uint) ([]leaderboardEntry, error) {
	var rows []models.GameProgress
	if err := db.Where("game_id = ?", gameID).
		Order("high_score DESC").
		Limit(leaderboardSize).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	userIDs := make([]uint, 0, len(rows))
	for _, r := range rows {
		userIDs = append(userIDs, r.UserID)
	}

	users := make(map[uint]models.User, len(userIDs))
	if len(userIDs) > 0 {
		var list []models.User
		if err := db.Where("id IN ?", userIDs).Find(&list).Error; err != nil {
			return nil, err
		}
		for _, u := range list {
			users[u.ID] = u
		}
	}

	entries := make([]leaderboardEntry, 0, len(rows))
	for i, r := range rows {
		entry := leaderboardEntry{
			Rank:              i + 1,
			UserID:            r.UserID,
			Username:          "Unknown Player",
			ProfilePicture:    "default-avatar.png",
			Score:             r.HighScore,
			Level:             r.Level,
			BestAccuracy:      r.BestAccuracy,
			CompletedSessions: r.CompletedSessions,
			LastPlayed:        r.LastPlayed,
		}
		if u, ok := users[r.UserID]; ok {
			if u.DisplayName != "" {
				entry.Username = u.DisplayName
			} else {
				entry.Username = u.Username
			}
			if u.Avatar != "" {
				entry.ProfilePicture = u.Avatar
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

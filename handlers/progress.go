// handlers/progress.go - user progress projections (read-only)
package handlers

import (
	"sort"

	"nirman/database"
	"nirman/middleware"
	"nirman/models"

	"github.com/gofiber/fiber/v2"
)

// GetUserGameProgress returns the caller's cross-game aggregate:
// points, level and history. The denormalized user mirror is preferred;
// when it's empty the history is rebuilt from the per-game progress
// rows, which remain the canonical fold.
func GetUserGameProgress(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	db := database.GetDB()

	var progressRows []models.GameProgress
	if err := db.Where("user_id = ?", userID).Find(&progressRows).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to fetch user game progress"})
	}

	if len(progressRows) == 0 {
		return c.JSON(fiber.Map{
			"success": true,
			"data": fiber.Map{
				"points":       0,
				"level":        1,
				"gameHistory":  []models.PlayedGame{},
				"achievements": []string{},
			},
		})
	}

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "error": "User not found"})
	}

	totalPoints := 0
	highestLevel := 1
	for _, p := range progressRows {
		totalPoints += p.Points
		if p.Level > highestLevel {
			highestLevel = p.Level
		}
	}

	history := make([]models.PlayedGame, 0)
	if len(user.GameHistory) > 0 {
		history = append(history, user.GameHistory...)
	} else {
		for _, p := range progressRows {
			for _, h := range p.GameHistory {
				history = append(history, models.PlayedGame{
					GameID:         p.GameID,
					Score:          h.Score,
					CorrectAnswers: h.CorrectAnswers,
					TotalQuestions: h.TotalQuestions,
					CompletedAt:    h.CompletedAt,
				})
			}
		}
	}

	sort.Slice(history, func(i, j int) bool {
		return history[i].CompletedAt.After(history[j].CompletedAt)
	})

	achievements := []string(user.Achievements)
	if achievements == nil {
		achievements = []string{}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"points":       totalPoints,
			"level":        highestLevel,
			"gameHistory":  history,
			"achievements": achievements,
		},
	})
}

// GetUserGameHistory returns the mirror history, most recent first.
func GetUserGameHistory(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	db := database.GetDB()
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "error": "User not found"})
	}

	history := make([]models.PlayedGame, len(user.GameHistory))
	copy(history, user.GameHistory)
	sort.Slice(history, func(i, j int) bool {
		return history[i].CompletedAt.After(history[j].CompletedAt)
	})

	return c.JSON(fiber.Map{"success": true, "data": history})
}

// GetUserAchievements returns the opaque achievements list.
func GetUserAchievements(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	db := database.GetDB()
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "error": "User not found"})
	}

	achievements := []string(user.Achievements)
	if achievements == nil {
		achievements = []string{}
	}

	return c.JSON(fiber.Map{"success": true, "data": achievements})
}

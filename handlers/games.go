// handlers/games.go - game catalogue endpoints
package handlers

import (
	"nirman/database"
	"nirman/middleware"
	"nirman/models"

	"github.com/gofiber/fiber/v2"
)

// gameSummary is the catalogue projection: no question content.
type gameSummary struct {
	ID          uint     `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Subcategory string   `json:"subcategory,omitempty"`
	Difficulty  string   `json:"difficulty"`
	ImageURL    string   `json:"imageUrl"`
	TimeLimit   int      `json:"timeLimit"`
	MaxScore    int      `json:"maxScore"`
	PlayCount   int      `json:"playCount"`
	Tags        []string `json:"tags"`
}

// GetGames lists all published games.
func GetGames(c *fiber.Ctx) error {
	db := database.GetDB()

	var games []models.Game
	if err := db.Where("status = ?", models.GamePublished).Find(&games).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to fetch games"})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(games),
		"data":    summarize(games),
	})
}

// GetGamesByCategory lists published games for one category.
func GetGamesByCategory(c *fiber.Ctx) error {
	category := c.Params("category")
	if !models.ValidCategory(category) {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid category: " + category})
	}

	db := database.GetDB()

	var games []models.Game
	if err := db.Where("category = ? AND status = ?", category, models.GamePublished).
		Find(&games).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to fetch games"})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(games),
		"data":    summarize(games),
	})
}

// GetGame returns a single game. Unpublished games stay hidden from
// non-admins, and correct answers are stripped for everyone but admins.
func GetGame(c *fiber.Ctx) error {
	db := database.GetDB()

	var game models.Game
	if err := db.First(&game, c.Params("id")).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "error": "Game not found"})
	}

	if game.Status != models.GamePublished && !middleware.IsAdmin(c) {
		return c.Status(404).JSON(fiber.Map{"success": false, "error": "Game not found"})
	}

	if !middleware.IsAdmin(c) {
		sanitized := make([]models.Question, len(game.Questions))
		for i, q := range game.Questions {
			q.CorrectOption = nil
			q.Explanation = ""
			sanitized[i] = q
		}
		game.Questions = sanitized
	}

	return c.JSON(fiber.Map{"success": true, "data": game})
}

func summarize(games []models.Game) []gameSummary {
	out := make([]gameSummary, 0, len(games))
	for i := range games {
		g := &games[i]
		out = append(out, gameSummary{
			ID:          g.ID,
			Title:       g.Title,
			Description: g.Description,
			Category:    g.Category,
			Subcategory: g.Subcategory,
			Difficulty:  g.Difficulty,
			ImageURL:    g.ImageURL,
			TimeLimit:   g.TimeLimit,
			MaxScore:    g.MaxScore(),
			PlayCount:   g.PlayCount,
			Tags:        g.Tags,
		})
	}
	return out
}

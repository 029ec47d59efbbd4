// handlers/ws.go - live leaderboard stream
package handlers

import (
	"log"
	"time"

	"nirman/database"
	"nirman/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

const leaderboardPushInterval = 5 * time.Second

// WebSocketUpgrade gates the /ws routes to real upgrade requests.
func WebSocketUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// LeaderboardStream pushes the current leaderboard for a game over a
// websocket, then again every few seconds until the client goes away.
var LeaderboardStream = websocket.New(func(conn *websocket.Conn) {
	defer conn.Close()

	var game models.Game
	if err := database.GetDB().First(&game, conn.Params("id")).Error; err != nil {
		conn.WriteJSON(fiber.Map{"type": "error", "error": "Game not found"})
		return
	}

	// Drain reads so close frames are noticed.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	push := func() bool {
		entries, err := buildLeaderboard(database.GetDB(), game.ID)
		if err != nil {
			log.Printf("Error building leaderboard for game %d: %v", game.ID, err)
			return true
		}
		msg := fiber.Map{
			"type":        "leaderboard",
			"gameId":      game.ID,
			"gameTitle":   game.Title,
			"leaderboard": entries,
			"updatedAt":   time.Now().UTC(),
		}
		return conn.WriteJSON(msg) == nil
	}

	if !push() {
		return
	}

	ticker := time.NewTicker(leaderboardPushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !push() {
				return
			}
		case <-closed:
			return
		}
	}
})

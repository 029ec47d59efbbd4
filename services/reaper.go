// services/reaper.go - background abandonment of stale sessions
package services

import (
	"log"
	"os"
	"strconv"
	"time"

	"nirman/database"
	"nirman/models"
)

// SessionReaper abandons active sessions that have seen no submission
// for far longer than any game's time limit. The authoritative
// single-active-session guarantee still comes from start-session, which
// force-abandons the previous attempt; the reaper only keeps the table
// from accumulating sessions of players who walked away.
type SessionReaper struct {
	interval time.Duration
	maxAge   time.Duration
	stop     chan struct{}
}

var reaper *SessionReaper

// InitSessionReaper initializes the singleton reaper from environment
// configuration.
func InitSessionReaper() {
	reaper = &SessionReaper{
		interval: time.Duration(getEnvInt("SESSION_REAPER_INTERVAL_MINUTES", 15)) * time.Minute,
		maxAge:   time.Duration(getEnvInt("SESSION_MAX_AGE_MINUTES", 60)) * time.Minute,
		stop:     make(chan struct{}),
	}
}

// GetSessionReaper returns the initialized reaper.
func GetSessionReaper() *SessionReaper {
	return reaper
}

// Start launches the background sweep. No-op when disabled via env.
func (r *SessionReaper) Start() {
	if os.Getenv("SESSION_REAPER_ENABLED") == "false" {
		log.Println("Session reaper disabled")
		return
	}

	go func() {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if n, err := r.ReapStaleSessions(); err != nil {
					log.Printf("Error reaping stale sessions: %v", err)
				} else if n > 0 {
					log.Printf("🧹 Abandoned %d stale sessions", n)
				}
			case <-r.stop:
				return
			}
		}
	}()
}

// Stop terminates the background sweep.
func (r *SessionReaper) Stop() {
	close(r.stop)
}

// ReapStaleSessions marks long-inactive active sessions as abandoned.
func (r *SessionReaper) ReapStaleSessions() (int64, error) {
	db := database.GetDB()
	cutoff := time.Now().Add(-r.maxAge)

	res := db.Model(&models.GameSession{}).
		Where("status = ? AND start_time < ?", models.SessionActive, cutoff).
		Updates(map[string]any{
			"status":   models.SessionAbandoned,
			"end_time": time.Now(),
		})
	return res.RowsAffected, res.Error
}

func getEnvInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return def
}

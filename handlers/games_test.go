package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"nirman/models"
)

func TestGetGamesListsPublishedOnly(t *testing.T) {
	app, db := newTestApp(t)
	createGame(t, db, twoQuestions())
	db.Create(&models.Game{Title: "Draft", Category: models.CategoryDatabase, Status: models.GameDraft})
	db.Create(&models.Game{Title: "Gone", Category: models.CategoryDatabase, Status: models.GameArchived})

	status, body := doJSON(t, app, http.MethodGet, "/api/games/", "", nil)
	if status != 200 {
		t.Fatalf("list status = %d, body = %v", status, body)
	}
	if body["count"].(float64) != 1 {
		t.Errorf("count = %v, want 1", body["count"])
	}

	games := body["data"].([]any)
	summary := games[0].(map[string]any)
	if summary["title"] != "Go Fundamentals" {
		t.Errorf("title = %v", summary["title"])
	}
	if summary["maxScore"].(float64) != 25 {
		t.Errorf("maxScore = %v, want 25", summary["maxScore"])
	}
	if _, leaked := summary["questions"]; leaked {
		t.Error("catalogue listing leaked question content")
	}
}

func TestGetGamesByCategory(t *testing.T) {
	app, db := newTestApp(t)
	createGame(t, db, twoQuestions()) // coreProgramming
	db.Create(&models.Game{Title: "DB Quiz", Category: models.CategoryDatabase, Status: models.GamePublished})

	status, body := doJSON(t, app, http.MethodGet, "/api/games/category/"+models.CategoryDatabase, "", nil)
	if status != 200 {
		t.Fatalf("category status = %d, body = %v", status, body)
	}
	if body["count"].(float64) != 1 {
		t.Errorf("count = %v, want 1", body["count"])
	}

	status, _ = doJSON(t, app, http.MethodGet, "/api/games/category/cooking", "", nil)
	if status != 400 {
		t.Errorf("invalid category status = %d, want 400", status)
	}
}

func TestGetGameStripsAnswers(t *testing.T) {
	app, db := newTestApp(t)
	game := createGame(t, db, twoQuestions())

	status, body := doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/games/%d", game.ID), "", nil)
	if status != 200 {
		t.Fatalf("get game status = %d, body = %v", status, body)
	}
	data := dataOf(t, body)
	questions := data["questions"].([]any)
	for _, q := range questions {
		if co := q.(map[string]any)["correctOption"]; co != nil {
			t.Errorf("correctOption leaked: %v", co)
		}
	}
}

func TestGetGameHiddenWhenUnpublished(t *testing.T) {
	app, db := newTestApp(t)
	draft := models.Game{Title: "WIP", Category: models.CategoryDatabase, Status: models.GameDraft, Questions: twoQuestions()}
	db.Create(&draft)

	status, _ := doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/games/%d", draft.ID), "", nil)
	if status != 404 {
		t.Errorf("draft game status = %d, want 404", status)
	}
}

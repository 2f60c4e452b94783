package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/camden-git/cardboardbackend/repository"
)

func TestStatsRoute(t *testing.T) {
	ts := newTestServer(t, "")

	rec := ts.request(t, http.MethodGet, "/api/stats", "")
	wantStatus(t, rec, http.StatusOK)
	empty := decodeBody[repository.StatsReport](t, rec)
	if empty.TotalGames != 0 || empty.TotalSessions != 0 {
		t.Errorf("empty stats = %d games, %d sessions, want zeros", empty.TotalGames, empty.TotalSessions)
	}
	if len(empty.AddedByMonth) != 12 {
		t.Errorf("AddedByMonth has %d entries, want 12", len(empty.AddedByMonth))
	}

	game := ts.createGame(t, `{"name":"Catan","user_rating":8}`)
	ts.createGame(t, `{"name":"Azul","status":"wishlist"}`)
	rec = ts.request(t, http.MethodPost, fmt.Sprintf("/api/games/%d/sessions", game.ID),
		`{"played_at":"2024-03-05","duration_minutes":60}`)
	wantStatus(t, rec, http.StatusCreated)

	rec = ts.request(t, http.MethodGet, "/api/stats", "")
	wantStatus(t, rec, http.StatusOK)
	report := decodeBody[repository.StatsReport](t, rec)
	if report.TotalGames != 2 {
		t.Errorf("TotalGames = %d, want 2", report.TotalGames)
	}
	if report.ByStatus["owned"] != 1 || report.ByStatus["wishlist"] != 1 {
		t.Errorf("ByStatus = %v, want one owned and one wishlist", report.ByStatus)
	}
	if report.TotalSessions != 1 {
		t.Errorf("TotalSessions = %d, want 1", report.TotalSessions)
	}
	if len(report.RecentSessions) != 1 || report.RecentSessions[0].GameName != "Catan" {
		t.Errorf("RecentSessions = %v, want the Catan session", report.RecentSessions)
	}
}

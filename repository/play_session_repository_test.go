package repository

import (
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/camden-git/cardboardbackend/models"
)

func TestSessionListByGameMostRecentFirst(t *testing.T) {
	db := newTestDB(t)
	repo := NewPlaySessionRepository(db)
	game := seedGame(t, db, &models.Game{Name: "Azul"})
	other := seedGame(t, db, &models.Game{Name: "Catan"})

	seedSession(t, db, &models.PlaySession{GameID: game.ID, PlayedAt: "2024-02-10"})
	seedSession(t, db, &models.PlaySession{GameID: game.ID, PlayedAt: "2024-05-01"})
	seedSession(t, db, &models.PlaySession{GameID: game.ID, PlayedAt: "2023-12-24"})
	seedSession(t, db, &models.PlaySession{GameID: other.ID, PlayedAt: "2024-06-15"})

	sessions, err := repo.ListByGame(game.ID)
	if err != nil {
		t.Fatalf("ListByGame() error = %v", err)
	}
	want := []string{"2024-05-01", "2024-02-10", "2023-12-24"}
	if len(sessions) != len(want) {
		t.Fatalf("ListByGame() returned %d sessions, want %d", len(sessions), len(want))
	}
	for i := range want {
		if sessions[i].PlayedAt != want[i] {
			t.Errorf("sessions[%d].PlayedAt = %s, want %s", i, sessions[i].PlayedAt, want[i])
		}
	}
}

func TestSessionMaxPlayedAt(t *testing.T) {
	db := newTestDB(t)
	repo := NewPlaySessionRepository(db)
	game := seedGame(t, db, &models.Game{Name: "Azul"})

	max, err := repo.MaxPlayedAt(game.ID)
	if err != nil {
		t.Fatalf("MaxPlayedAt() error = %v", err)
	}
	if max != nil {
		t.Errorf("MaxPlayedAt with no sessions = %q, want nil", *max)
	}

	seedSession(t, db, &models.PlaySession{GameID: game.ID, PlayedAt: "2024-02-10"})
	seedSession(t, db, &models.PlaySession{GameID: game.ID, PlayedAt: "2024-05-01"})

	max, err = repo.MaxPlayedAt(game.ID)
	if err != nil {
		t.Fatalf("MaxPlayedAt() error = %v", err)
	}
	if max == nil || *max != "2024-05-01" {
		t.Errorf("MaxPlayedAt = %v, want 2024-05-01", max)
	}
}

func TestSessionDelete(t *testing.T) {
	db := newTestDB(t)
	repo := NewPlaySessionRepository(db)
	game := seedGame(t, db, &models.Game{Name: "Azul"})
	session := seedSession(t, db, &models.PlaySession{GameID: game.ID, PlayedAt: "2024-02-10"})

	if err := repo.Delete(session.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := repo.Delete(session.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("second Delete error = %v, want ErrRecordNotFound", err)
	}
}

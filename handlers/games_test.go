package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/camden-git/cardboardbackend/attachments"
	"github.com/camden-git/cardboardbackend/bgg"
	"github.com/camden-git/cardboardbackend/config"
	"github.com/camden-git/cardboardbackend/database"
	"github.com/camden-git/cardboardbackend/models"
	"github.com/camden-git/cardboardbackend/repository"
	"github.com/camden-git/cardboardbackend/services"
)

type testServer struct {
	router http.Handler
	store  *attachments.Store
}

// newTestServer wires the /api route tree the way main does, against a
// temporary database and attachment store. bggBase points the BGG client at
// a fixture server; tests that never touch /api/bgg pass an empty string.
func newTestServer(t *testing.T, bggBase string) *testServer {
	t.Helper()

	dataDir := t.TempDir()
	cfg := config.Config{
		DataDir:          dataDir,
		ImagesPath:       filepath.Join(dataDir, "images"),
		InstructionsPath: filepath.Join(dataDir, "instructions"),
		ScansPath:        filepath.Join(dataDir, "scans"),
		GalleryPath:      filepath.Join(dataDir, "gallery"),
	}

	db, err := database.InitGormDB(filepath.Join(dataDir, "test.db"))
	if err != nil {
		t.Fatalf("InitGormDB() error = %v", err)
	}
	if err := database.AutoMigrateModels(db); err != nil {
		t.Fatalf("AutoMigrateModels() error = %v", err)
	}
	store, err := attachments.NewStore(cfg)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	gameRepo := repository.NewGameRepository(db)
	sessionRepo := repository.NewPlaySessionRepository(db)
	imageRepo := repository.NewGameImageRepository(db)
	statsRepo := repository.NewStatsRepository(db)

	collectionSvc := services.NewCollectionService(db, gameRepo, sessionRepo, store, nil)
	attachmentSvc := services.NewAttachmentService(gameRepo, imageRepo, store, 300)

	gameHandler := NewGameHandler(collectionSvc)
	sessionHandler := NewSessionHandler(collectionSvc)
	galleryHandler := NewGalleryHandler(attachmentSvc)
	attachmentHandler := NewAttachmentHandler(attachmentSvc)
	statsHandler := NewStatsHandler(statsRepo)
	bggHandler := NewBGGHandler(bgg.NewClient(bggBase))

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Route("/games", func(r chi.Router) {
			r.Get("/", gameHandler.ListGames)
			r.Post("/", gameHandler.CreateGame)
			r.Route("/{gameID}", func(r chi.Router) {
				r.Get("/", gameHandler.GetGame)
				r.Patch("/", gameHandler.UpdateGame)
				r.Delete("/", gameHandler.DeleteGame)

				r.Get("/image", attachmentHandler.GetCover)
				r.Post("/image", attachmentHandler.UploadCover)
				r.Delete("/image", attachmentHandler.DeleteCover)
				r.Get("/thumbnail", attachmentHandler.GetThumbnail)

				r.Get("/instructions", attachmentHandler.GetInstructions)
				r.Post("/instructions", attachmentHandler.UploadInstructions)
				r.Delete("/instructions", attachmentHandler.DeleteInstructions)

				r.Get("/scan", attachmentHandler.ServeScan(attachments.KindScan))
				r.Post("/scan", attachmentHandler.UploadScan(attachments.KindScan))
				r.Delete("/scan", attachmentHandler.DeleteScan(attachments.KindScan))
				r.Get("/scan/glb", attachmentHandler.ServeScan(attachments.KindScanGLB))
				r.Post("/scan/glb", attachmentHandler.UploadScan(attachments.KindScanGLB))
				r.Delete("/scan/glb", attachmentHandler.DeleteScan(attachments.KindScanGLB))

				r.Route("/images", func(r chi.Router) {
					r.Get("/", galleryHandler.ListImages)
					r.Post("/", galleryHandler.UploadImage)
					r.Patch("/reorder", galleryHandler.ReorderImages)
					r.Delete("/{imageID}", galleryHandler.DeleteImage)
					r.Get("/{imageID}/file", galleryHandler.ServeImage)
				})

				r.Get("/sessions", sessionHandler.ListSessions)
				r.Post("/sessions", sessionHandler.CreateSession)
			})
		})

		r.Delete("/sessions/{sessionID}", sessionHandler.DeleteSession)

		r.Route("/bgg", func(r chi.Router) {
			r.Get("/search", bggHandler.Search)
			r.Get("/game/{bggID}", bggHandler.GetGame)
		})

		r.Get("/stats", statsHandler.GetStats)
	})

	return &testServer{router: r, store: store}
}

// request sends a JSON (or body-less) request through the router
func (ts *testServer) request(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	return v
}

func wantStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, want, rec.Body.String())
	}
}

// wantAPIError asserts the response is the standard error envelope and
// returns its single entry for further checks
func wantAPIError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) APIErrorDetail {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, status, rec.Body.String())
	}
	resp := decodeBody[APIErrorResponse](t, rec)
	if len(resp.Errors) != 1 {
		t.Fatalf("error count = %d, want 1 (body %s)", len(resp.Errors), rec.Body.String())
	}
	detail := resp.Errors[0]
	if detail.Code != code {
		t.Errorf("error code = %q, want %q", detail.Code, code)
	}
	if detail.Status != strconv.Itoa(status) {
		t.Errorf("error status = %q, want %q", detail.Status, strconv.Itoa(status))
	}
	if detail.Detail == "" {
		t.Error("error detail is empty")
	}
	return detail
}

func (ts *testServer) createGame(t *testing.T, body string) models.Game {
	t.Helper()
	rec := ts.request(t, http.MethodPost, "/api/games", body)
	wantStatus(t, rec, http.StatusCreated)
	return decodeBody[models.Game](t, rec)
}

func TestCreateGame(t *testing.T) {
	ts := newTestServer(t, "")

	rec := ts.request(t, http.MethodPost, "/api/games",
		`{"name":"  Catan  ","min_players":3,"max_players":4,"labels":["family"],"image_url":"https://example.com/catan.jpg"}`)
	wantStatus(t, rec, http.StatusCreated)

	game := decodeBody[models.Game](t, rec)
	if game.ID == 0 {
		t.Error("created game has no ID")
	}
	if game.Name != "Catan" {
		t.Errorf("Name = %q, want trimmed %q", game.Name, "Catan")
	}
	if game.Status != models.StatusOwned {
		t.Errorf("Status = %q, want default %q", game.Status, models.StatusOwned)
	}
	if game.LastPlayed != nil {
		t.Errorf("LastPlayed = %v, want nil on a fresh game", *game.LastPlayed)
	}
	if game.ImageURL == nil || *game.ImageURL != "https://example.com/catan.jpg" {
		t.Errorf("ImageURL = %v, want the remote URL", game.ImageURL)
	}
	if game.ImageCached {
		t.Error("ImageCached = true before the cover was downloaded")
	}
	if len(game.Labels) != 1 || game.Labels[0] != "family" {
		t.Errorf("Labels = %v, want [family]", game.Labels)
	}
	// list columns serialize as empty arrays, not null
	if !strings.Contains(rec.Body.String(), `"categories":[]`) {
		t.Errorf("response does not serialize empty categories as []: %s", rec.Body.String())
	}
}

func TestCreateGameValidation(t *testing.T) {
	ts := newTestServer(t, "")

	cases := []struct {
		name string
		body string
	}{
		{"missing name", `{}`},
		{"blank name", `{"name":"   "}`},
		{"unknown status", `{"name":"Catan","status":"borrowed"}`},
		{"players range inverted", `{"name":"Catan","min_players":3,"max_players":2}`},
		{"playtime range inverted", `{"name":"Catan","min_playtime":90,"max_playtime":30}`},
		{"rating out of range", `{"name":"Catan","user_rating":11}`},
		{"bad purchase date", `{"name":"Catan","purchase_date":"sometime"}`},
		{"not json", `not json`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := ts.request(t, http.MethodPost, "/api/games", tc.body)
			wantAPIError(t, rec, http.StatusBadRequest, "validation_error")
		})
	}
}

func TestListGames(t *testing.T) {
	ts := newTestServer(t, "")

	rec := ts.request(t, http.MethodGet, "/api/games", "")
	wantStatus(t, rec, http.StatusOK)
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("empty collection body = %s, want []", rec.Body.String())
	}

	ts.createGame(t, `{"name":"Wingspan","user_rating":8}`)
	ts.createGame(t, `{"name":"The Settlers of Catan","user_rating":9}`)
	ts.createGame(t, `{"name":"Azul"}`)

	rec = ts.request(t, http.MethodGet, "/api/games", "")
	wantStatus(t, rec, http.StatusOK)
	games := decodeBody[[]models.Game](t, rec)
	want := []string{"Azul", "The Settlers of Catan", "Wingspan"}
	if len(games) != len(want) {
		t.Fatalf("got %d games, want %d", len(games), len(want))
	}
	for i := range want {
		if games[i].Name != want[i] {
			t.Errorf("games[%d] = %q, want %q (name sort ignores a leading The)", i, games[i].Name, want[i])
		}
	}

	rec = ts.request(t, http.MethodGet, "/api/games?search=cat", "")
	wantStatus(t, rec, http.StatusOK)
	games = decodeBody[[]models.Game](t, rec)
	if len(games) != 1 || games[0].Name != "The Settlers of Catan" {
		t.Errorf("search=cat returned %d games, want only The Settlers of Catan", len(games))
	}

	rec = ts.request(t, http.MethodGet, "/api/games?sort_by=user_rating&sort_dir=desc", "")
	wantStatus(t, rec, http.StatusOK)
	games = decodeBody[[]models.Game](t, rec)
	want = []string{"The Settlers of Catan", "Wingspan", "Azul"}
	if len(games) != len(want) {
		t.Fatalf("got %d games, want %d", len(games), len(want))
	}
	for i := range want {
		if games[i].Name != want[i] {
			t.Errorf("games[%d] = %q, want %q (rating desc, unrated last)", i, games[i].Name, want[i])
		}
	}
}

func TestGetGame(t *testing.T) {
	ts := newTestServer(t, "")
	created := ts.createGame(t, `{"name":"Catan"}`)

	rec := ts.request(t, http.MethodGet, "/api/games/"+strconv.FormatInt(created.ID, 10), "")
	wantStatus(t, rec, http.StatusOK)
	game := decodeBody[models.Game](t, rec)
	if game.ID != created.ID || game.Name != "Catan" {
		t.Errorf("got game %d %q, want %d Catan", game.ID, game.Name, created.ID)
	}

	rec = ts.request(t, http.MethodGet, "/api/games/9999", "")
	detail := wantAPIError(t, rec, http.StatusNotFound, "not_found")
	if detail.Detail != "game not found" {
		t.Errorf("detail = %q, want %q", detail.Detail, "game not found")
	}

	rec = ts.request(t, http.MethodGet, "/api/games/abc", "")
	wantAPIError(t, rec, http.StatusBadRequest, "validation_error")
}

func TestUpdateGame(t *testing.T) {
	ts := newTestServer(t, "")
	created := ts.createGame(t, `{"name":"Catan","description":"Trade and build.","difficulty":3}`)
	path := "/api/games/" + strconv.FormatInt(created.ID, 10)

	// only provided fields change; a present null clears
	rec := ts.request(t, http.MethodPatch, path, `{"name":"Catan (3rd ed)","description":null}`)
	wantStatus(t, rec, http.StatusOK)
	game := decodeBody[models.Game](t, rec)
	if game.Name != "Catan (3rd ed)" {
		t.Errorf("Name = %q, want Catan (3rd ed)", game.Name)
	}
	if game.Description != nil {
		t.Errorf("Description = %q, want cleared", *game.Description)
	}
	if game.Difficulty == nil || *game.Difficulty != 3 {
		t.Errorf("Difficulty = %v, want untouched 3", game.Difficulty)
	}

	rec = ts.request(t, http.MethodPatch, path, `{"labels":["solo","legacy"]}`)
	wantStatus(t, rec, http.StatusOK)
	game = decodeBody[models.Game](t, rec)
	if len(game.Labels) != 2 || game.Labels[0] != "solo" || game.Labels[1] != "legacy" {
		t.Errorf("Labels = %v, want [solo legacy]", game.Labels)
	}

	bad := []struct {
		name string
		body string
	}{
		{"null name", `{"name":null}`},
		{"blank name", `{"name":"  "}`},
		{"null status", `{"status":null}`},
		{"unknown status", `{"status":"lost"}`},
		{"inverted players", `{"min_players":4,"max_players":2}`},
		{"bad body", `{`},
	}
	for _, tc := range bad {
		t.Run(tc.name, func(t *testing.T) {
			rec := ts.request(t, http.MethodPatch, path, tc.body)
			wantAPIError(t, rec, http.StatusBadRequest, "validation_error")
		})
	}

	rec = ts.request(t, http.MethodPatch, "/api/games/9999", `{"name":"Ghost"}`)
	wantAPIError(t, rec, http.StatusNotFound, "not_found")
}

func TestUpdateGameCoverURL(t *testing.T) {
	ts := newTestServer(t, "")
	created := ts.createGame(t, `{"name":"Catan","image_url":"https://example.com/a.jpg"}`)
	path := "/api/games/" + strconv.FormatInt(created.ID, 10)

	rec := ts.request(t, http.MethodPatch, path, `{"image_url":"https://example.com/b.jpg"}`)
	wantStatus(t, rec, http.StatusOK)
	game := decodeBody[models.Game](t, rec)
	if game.ImageURL == nil || *game.ImageURL != "https://example.com/b.jpg" {
		t.Errorf("ImageURL = %v, want the new remote URL", game.ImageURL)
	}
	if game.ImageCached {
		t.Error("ImageCached = true right after the pointer moved")
	}

	// a blank URL means clear the cover
	rec = ts.request(t, http.MethodPatch, path, `{"image_url":"   "}`)
	wantStatus(t, rec, http.StatusOK)
	game = decodeBody[models.Game](t, rec)
	if game.ImageURL != nil {
		t.Errorf("ImageURL = %q, want cleared", *game.ImageURL)
	}
}

func TestDeleteGame(t *testing.T) {
	ts := newTestServer(t, "")
	created := ts.createGame(t, `{"name":"Catan"}`)
	path := "/api/games/" + strconv.FormatInt(created.ID, 10)

	rec := ts.request(t, http.MethodDelete, path, "")
	wantStatus(t, rec, http.StatusNoContent)
	if rec.Body.Len() != 0 {
		t.Errorf("delete response has a body: %s", rec.Body.String())
	}

	rec = ts.request(t, http.MethodGet, path, "")
	wantAPIError(t, rec, http.StatusNotFound, "not_found")

	rec = ts.request(t, http.MethodDelete, path, "")
	wantAPIError(t, rec, http.StatusNotFound, "not_found")
}

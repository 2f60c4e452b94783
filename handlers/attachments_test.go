package handlers

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/camden-git/cardboardbackend/models"
)

// upload sends a multipart POST carrying content as the "file" field
func (ts *testServer) upload(t *testing.T, target, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile() error = %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("writing multipart body: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	return buf.Bytes()
}

func TestCoverRoutes(t *testing.T) {
	ts := newTestServer(t, "")
	game := ts.createGame(t, `{"name":"Catan"}`)
	base := fmt.Sprintf("/api/games/%d", game.ID)
	cover := tinyPNG(t)

	rec := ts.upload(t, base+"/image", "box.png", cover)
	wantStatus(t, rec, http.StatusOK)
	updated := decodeBody[models.Game](t, rec)
	if updated.ImageURL == nil || *updated.ImageURL != models.CoverRef(game.ID) {
		t.Errorf("ImageURL = %v, want %s", updated.ImageURL, models.CoverRef(game.ID))
	}
	if !updated.ImageCached {
		t.Error("ImageCached = false after a direct upload")
	}
	if updated.ThumbnailURL == nil || *updated.ThumbnailURL != models.ThumbnailRef(game.ID) {
		t.Errorf("ThumbnailURL = %v, want %s", updated.ThumbnailURL, models.ThumbnailRef(game.ID))
	}

	rec = ts.request(t, http.MethodGet, base+"/image", "")
	wantStatus(t, rec, http.StatusOK)
	if !bytes.Equal(rec.Body.Bytes(), cover) {
		t.Errorf("served cover is %d bytes, want the uploaded %d", rec.Body.Len(), len(cover))
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("cover Content-Type = %q, want image/png", ct)
	}

	rec = ts.request(t, http.MethodGet, base+"/thumbnail", "")
	wantStatus(t, rec, http.StatusOK)

	rec = ts.request(t, http.MethodDelete, base+"/image", "")
	wantStatus(t, rec, http.StatusNoContent)
	rec = ts.request(t, http.MethodGet, base+"/image", "")
	wantAPIError(t, rec, http.StatusNotFound, "not_found")
	rec = ts.request(t, http.MethodGet, base+"/thumbnail", "")
	wantAPIError(t, rec, http.StatusNotFound, "not_found")
}

func TestCoverUploadValidation(t *testing.T) {
	ts := newTestServer(t, "")
	game := ts.createGame(t, `{"name":"Catan"}`)
	imagePath := fmt.Sprintf("/api/games/%d/image", game.ID)

	rec := ts.upload(t, imagePath, "rules.pdf", []byte("%PDF-1.4"))
	wantAPIError(t, rec, http.StatusBadRequest, "unsupported_type")

	rec = ts.upload(t, "/api/games/9999/image", "box.png", tinyPNG(t))
	wantAPIError(t, rec, http.StatusNotFound, "not_found")

	// a plain JSON body is not a multipart form
	rec = ts.request(t, http.MethodPost, imagePath, `{"file":"nope"}`)
	detail := wantAPIError(t, rec, http.StatusBadRequest, "validation_error")
	if detail.Detail != "multipart field 'file' is required" {
		t.Errorf("detail = %q, want the multipart field hint", detail.Detail)
	}
}

func TestInstructionsRoutes(t *testing.T) {
	ts := newTestServer(t, "")
	game := ts.createGame(t, `{"name":"Catan"}`)
	path := fmt.Sprintf("/api/games/%d/instructions", game.ID)

	rec := ts.upload(t, path, "Rules v2.pdf", []byte("%PDF-1.4 fake rules"))
	wantStatus(t, rec, http.StatusOK)
	updated := decodeBody[models.Game](t, rec)
	if updated.InstructionsFilename == nil || *updated.InstructionsFilename != "Rules_v2.pdf" {
		t.Errorf("InstructionsFilename = %v, want sanitized Rules_v2.pdf", updated.InstructionsFilename)
	}

	rec = ts.request(t, http.MethodGet, path, "")
	wantStatus(t, rec, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("pdf Content-Type = %q, want application/pdf", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `inline; filename="Rules_v2.pdf"` {
		t.Errorf("pdf Content-Disposition = %q, want inline with the stored name", cd)
	}

	// replacing with plain text switches the response to a download
	rec = ts.upload(t, path, "notes.txt", []byte("setup: shuffle everything"))
	wantStatus(t, rec, http.StatusOK)
	rec = ts.request(t, http.MethodGet, path, "")
	wantStatus(t, rec, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); ct != "text/plain; charset=utf-8" {
		t.Errorf("txt Content-Type = %q, want text/plain; charset=utf-8", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="notes.txt"` {
		t.Errorf("txt Content-Disposition = %q, want attachment", cd)
	}

	rec = ts.upload(t, path, "rules.docx", []byte("zip bytes"))
	wantAPIError(t, rec, http.StatusBadRequest, "unsupported_type")

	rec = ts.request(t, http.MethodDelete, path, "")
	wantStatus(t, rec, http.StatusNoContent)
	rec = ts.request(t, http.MethodGet, path, "")
	wantAPIError(t, rec, http.StatusNotFound, "not_found")
}

func TestScanRoutes(t *testing.T) {
	ts := newTestServer(t, "")
	game := ts.createGame(t, `{"name":"Catan"}`)
	base := fmt.Sprintf("/api/games/%d", game.ID)

	rec := ts.upload(t, base+"/scan", "Catan Box.usdz", []byte("usdz bytes"))
	wantStatus(t, rec, http.StatusOK)
	updated := decodeBody[models.Game](t, rec)
	if updated.ScanFilename == nil || *updated.ScanFilename != "Catan_Box.usdz" {
		t.Errorf("ScanFilename = %v, want Catan_Box.usdz", updated.ScanFilename)
	}
	if !updated.ScanFeatured {
		t.Error("ScanFeatured = false after the first scan upload")
	}

	// each slot only takes its own format
	rec = ts.upload(t, base+"/scan", "model.glb", []byte("glTF"))
	wantAPIError(t, rec, http.StatusBadRequest, "unsupported_type")

	rec = ts.request(t, http.MethodGet, base+"/scan", "")
	wantStatus(t, rec, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); ct != "model/vnd.usdz+zip" {
		t.Errorf("usdz Content-Type = %q, want model/vnd.usdz+zip", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `inline; filename="Catan_Box.usdz"` {
		t.Errorf("usdz Content-Disposition = %q, want inline with the stored name", cd)
	}

	rec = ts.request(t, http.MethodGet, base+"/scan/glb", "")
	wantAPIError(t, rec, http.StatusNotFound, "not_found")

	rec = ts.upload(t, base+"/scan/glb", "catan.glb", []byte("glTF binary"))
	wantStatus(t, rec, http.StatusOK)
	rec = ts.request(t, http.MethodGet, base+"/scan/glb", "")
	wantStatus(t, rec, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); ct != "model/gltf-binary" {
		t.Errorf("glb Content-Type = %q, want model/gltf-binary", ct)
	}

	// deleting one format keeps the featured flag while the other remains
	rec = ts.request(t, http.MethodDelete, base+"/scan", "")
	wantStatus(t, rec, http.StatusNoContent)
	rec = ts.request(t, http.MethodGet, base, "")
	wantStatus(t, rec, http.StatusOK)
	got := decodeBody[models.Game](t, rec)
	if got.ScanFilename != nil {
		t.Errorf("ScanFilename = %q, want cleared", *got.ScanFilename)
	}
	if !got.ScanFeatured {
		t.Error("ScanFeatured dropped while the glb scan still exists")
	}

	rec = ts.request(t, http.MethodDelete, base+"/scan/glb", "")
	wantStatus(t, rec, http.StatusNoContent)
	rec = ts.request(t, http.MethodGet, base, "")
	wantStatus(t, rec, http.StatusOK)
	got = decodeBody[models.Game](t, rec)
	if got.ScanFeatured {
		t.Error("ScanFeatured still set after both scans were deleted")
	}
}

package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"docshare/models"
	"docshare/services"
	"docshare/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubLinkService scripts VerifyAccess/RecordAccess outcomes and records
// what the controller asked for.
type stubLinkService struct {
	verifyResult services.VerifyResult
	consumed     bool
	status       services.LinkStatus
	statusErr    error

	recorded []services.RecordAccessInput
}

func (s *stubLinkService) CreateLink(ctx context.Context, userID uint, in services.CreateLinkInput) (models.SharedLink, error) {
	return models.SharedLink{}, nil
}

func (s *stubLinkService) ListLinks(ctx context.Context, userID uint) ([]services.LinkSummary, error) {
	return nil, nil
}

func (s *stubLinkService) VerifyAccess(ctx context.Context, token, password string) (services.VerifyResult, error) {
	return s.verifyResult, nil
}

func (s *stubLinkService) RecordAccess(ctx context.Context, in services.RecordAccessInput) (bool, error) {
	s.recorded = append(s.recorded, in)
	return s.consumed, nil
}

func (s *stubLinkService) DeactivateLink(ctx context.Context, linkID, userID uint) (bool, error) {
	return false, nil
}

func (s *stubLinkService) AccessLogs(ctx context.Context, linkID, userID uint) ([]models.AccessLog, error) {
	return nil, nil
}

func (s *stubLinkService) Status(ctx context.Context, token string) (services.LinkStatus, error) {
	return s.status, s.statusErr
}

func shareRouter(svc services.LinkService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	c := NewShareController(svc)
	r.POST("/api/share/:token", c.Access)
	r.GET("/api/share/:token/status", c.Status)
	return r
}

func postShare(t *testing.T, r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) utils.JSONResponse {
	t.Helper()
	var resp utils.JSONResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func tempDocument(t *testing.T, content string) models.Document {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "doc-*.txt")
	require.NoError(t, err)
	_, err = f.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return models.Document{
		ID:               1,
		OriginalFilename: "report.txt",
		FilePath:         f.Name(),
		FileSize:         int64(len(content)),
		MimeType:         "text/plain",
	}
}

func TestShareAccess_InvalidAction(t *testing.T) {
	svc := &stubLinkService{}
	r := shareRouter(svc)

	w := postShare(t, r, "/api/share/sometoken?action=peek", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, svc.recorded)
}

func TestShareAccess_UnknownTokenNotAudited(t *testing.T) {
	svc := &stubLinkService{
		verifyResult: services.VerifyResult{Valid: false, Reason: services.ReasonLinkNotFound},
	}
	r := shareRouter(svc)

	w := postShare(t, r, "/api/share/unknown", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, services.ReasonLinkNotFound, decodeEnvelope(t, w).Message)
	// No link resolved, so there is nothing to log against.
	assert.Empty(t, svc.recorded)
}

func TestShareAccess_DeniedAttemptIsAudited(t *testing.T) {
	link := models.SharedLink{ID: 7}
	svc := &stubLinkService{
		verifyResult: services.VerifyResult{
			Valid:  false,
			Reason: services.ReasonInvalidPassword,
			Link:   &link,
		},
	}
	r := shareRouter(svc)

	w := postShare(t, r, "/api/share/sometoken", gin.H{"password": "wrong"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, services.ReasonInvalidPassword, decodeEnvelope(t, w).Message)

	require.Len(t, svc.recorded, 1)
	assert.Equal(t, uint(7), svc.recorded[0].LinkID)
	assert.Equal(t, models.AccessTypeFailedPassword, svc.recorded[0].AccessType)
	assert.False(t, svc.recorded[0].Success)
}

func TestShareAccess_ViewReturnsMetadata(t *testing.T) {
	doc := tempDocument(t, "hello")
	link := models.SharedLink{ID: 7, AllowDownload: true, ViewCount: 2}
	svc := &stubLinkService{
		verifyResult: services.VerifyResult{Valid: true, Link: &link, Document: &doc},
		consumed:     true,
	}
	r := shareRouter(svc)

	w := postShare(t, r, "/api/share/sometoken?action=view", nil)
	require.Equal(t, http.StatusOK, w.Code)

	require.Len(t, svc.recorded, 1)
	assert.Equal(t, models.AccessTypeView, svc.recorded[0].AccessType)
	assert.True(t, svc.recorded[0].Success)

	var resp struct {
		Data struct {
			Document struct {
				Filename      string `json:"filename"`
				Size          int64  `json:"size"`
				AllowDownload bool   `json:"allowDownload"`
				ViewCount     int    `json:"viewCount"`
			} `json:"document"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "report.txt", resp.Data.Document.Filename)
	assert.Equal(t, int64(5), resp.Data.Document.Size)
	assert.Equal(t, 3, resp.Data.Document.ViewCount)
}

func TestShareAccess_DownloadStreamsFile(t *testing.T) {
	doc := tempDocument(t, "hello")
	link := models.SharedLink{ID: 7, AllowDownload: true}
	svc := &stubLinkService{
		verifyResult: services.VerifyResult{Valid: true, Link: &link, Document: &doc},
		consumed:     true,
	}
	r := shareRouter(svc)

	w := postShare(t, r, "/api/share/sometoken?action=download", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "report.txt")

	require.Len(t, svc.recorded, 1)
	assert.Equal(t, models.AccessTypeDownload, svc.recorded[0].AccessType)
}

func TestShareAccess_DownloadNotAllowed(t *testing.T) {
	doc := tempDocument(t, "hello")
	link := models.SharedLink{ID: 7, AllowDownload: false}
	svc := &stubLinkService{
		verifyResult: services.VerifyResult{Valid: true, Link: &link, Document: &doc},
		consumed:     true,
	}
	r := shareRouter(svc)

	w := postShare(t, r, "/api/share/sometoken?action=download", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Download not allowed for this link", decodeEnvelope(t, w).Message)
	// The denial happens before any view is consumed.
	assert.Empty(t, svc.recorded)
}

func TestShareAccess_FileMissingOnDisk(t *testing.T) {
	doc := tempDocument(t, "hello")
	require.NoError(t, os.Remove(doc.FilePath))
	link := models.SharedLink{ID: 7, AllowDownload: true}
	svc := &stubLinkService{
		verifyResult: services.VerifyResult{Valid: true, Link: &link, Document: &doc},
		consumed:     true,
	}
	r := shareRouter(svc)

	w := postShare(t, r, "/api/share/sometoken", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, svc.recorded)
}

func TestShareAccess_RaceLoserDenied(t *testing.T) {
	doc := tempDocument(t, "hello")
	link := models.SharedLink{ID: 7, AllowDownload: true}
	svc := &stubLinkService{
		verifyResult: services.VerifyResult{Valid: true, Link: &link, Document: &doc},
		consumed:     false,
	}
	r := shareRouter(svc)

	w := postShare(t, r, "/api/share/sometoken?action=view", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, services.ReasonMaxViewsReached, decodeEnvelope(t, w).Message)
}

func TestShareStatus(t *testing.T) {
	maxViews := 5
	svc := &stubLinkService{
		status: services.LinkStatus{
			Valid:            true,
			RequiresPassword: true,
			ViewCount:        1,
			MaxViews:         &maxViews,
			AllowDownload:    true,
		},
	}
	r := shareRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/share/sometoken/status", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data services.LinkStatus `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Data.Valid)
	assert.True(t, resp.Data.RequiresPassword)
	assert.Equal(t, 1, resp.Data.ViewCount)

	svc.status = services.LinkStatus{}
	svc.statusErr = &services.AppError{HTTPCode: http.StatusNotFound, Message: services.ReasonLinkNotFound}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/share/missing/status", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

package controller

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dungji/dungji-market-backend/internal/app/model"
	"github.com/dungji/dungji-market-backend/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePresigner struct {
	requests []storage.UploadRequest
}

func (p *fakePresigner) PresignUpload(ctx context.Context, req storage.UploadRequest) (*storage.PresignedUpload, error) {
	p.requests = append(p.requests, req)
	key := storage.ObjectKey(req, time.Now())
	return &storage.PresignedUpload{
		UploadURL: "https://s3.test/" + key + "?X-Amz-Signature=sig",
		FileURL:   "https://cdn.test/" + key,
		Key:       key,
		ExpiresAt: time.Now().Add(15 * time.Minute),
	}, nil
}

func setupUploadControllerTest(t *testing.T, user *model.User) (*gin.Engine, *fakePresigner) {
	gin.SetMode(gin.TestMode)
	presigner := &fakePresigner{}
	ctrl := NewUploadController(presigner)

	router := gin.New()
	router.POST("/upload", asUser(user), ctrl.GeneratePresignedURL)
	return router, presigner
}

func TestUploadController_GeneratePresignedURL(t *testing.T) {
	user := &model.User{ID: 7, Email: "user@test.com", Role: model.RoleBuyer}
	router, presigner := setupUploadControllerTest(t, user)

	w := performJSON(router, http.MethodPost, "/upload", GeneratePresignedURLRequest{
		Filename:    "galaxy.JPG",
		ContentType: "image/jpeg",
		Size:        1024,
	}, "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Contains(t, body["key"], "used-items/7/")
	assert.NotEmpty(t, body["upload_url"])
	require.Len(t, presigner.requests, 1)
	assert.Equal(t, storage.FolderUsedItems, presigner.requests[0].Folder)
	assert.Equal(t, uint(7), presigner.requests[0].OwnerID)
}

func TestUploadController_Rejects(t *testing.T) {
	user := &model.User{ID: 7, Email: "user@test.com", Role: model.RoleBuyer}
	router, presigner := setupUploadControllerTest(t, user)

	tests := []struct {
		name     string
		req      GeneratePresignedURLRequest
		wantCode string
	}{
		{"pdf", GeneratePresignedURLRequest{Filename: "a.pdf", ContentType: "application/pdf"}, "UPLOAD_INVALID_FILE_TYPE"},
		{"too large", GeneratePresignedURLRequest{Filename: "a.png", ContentType: "image/png", Size: storage.MaxImageSize + 1}, "UPLOAD_FILE_TOO_LARGE"},
		{"admin folder", GeneratePresignedURLRequest{Filename: "a.png", ContentType: "image/png", Folder: storage.FolderBanners}, "VALIDATION_INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performJSON(router, http.MethodPost, "/upload", tt.req, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.wantCode, decodeBody(t, w)["error"])
		})
	}
	assert.Empty(t, presigner.requests)

	admin := &model.User{ID: 1, Email: "admin@test.com", Role: model.RoleAdmin}
	adminRouter, adminPresigner := setupUploadControllerTest(t, admin)
	w := performJSON(adminRouter, http.MethodPost, "/upload", GeneratePresignedURLRequest{
		Filename:    "banner.png",
		ContentType: "image/png",
		Folder:      storage.FolderBanners,
	}, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, adminPresigner.requests, 1)
}

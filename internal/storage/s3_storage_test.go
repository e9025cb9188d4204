package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dungji/dungji-market-backend/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateUpload(t *testing.T) {
	tests := []struct {
		name    string
		req     UploadRequest
		isAdmin bool
		wantErr error
	}{
		{"listing image", UploadRequest{Folder: FolderUsedItems, ContentType: "image/png", Size: 1024}, false, nil},
		{"uppercase type", UploadRequest{Folder: FolderProfiles, ContentType: "IMAGE/JPEG"}, false, nil},
		{"notice by user", UploadRequest{Folder: FolderNotices, ContentType: "image/png"}, false, ErrUnsupportedFolder},
		{"notice by admin", UploadRequest{Folder: FolderNotices, ContentType: "image/png"}, true, nil},
		{"unknown folder", UploadRequest{Folder: "../etc", ContentType: "image/png"}, true, ErrUnsupportedFolder},
		{"pdf", UploadRequest{Folder: FolderUsedItems, ContentType: "application/pdf"}, false, ErrUnsupportedContentType},
		{"too large", UploadRequest{Folder: FolderUsedItems, ContentType: "image/webp", Size: MaxImageSize + 1}, false, ErrFileTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUpload(tt.req, tt.isAdmin)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestObjectKey(t *testing.T) {
	now := time.Date(2025, 3, 7, 10, 0, 0, 0, time.Local)
	key := ObjectKey(UploadRequest{Filename: "Phone.JPG", Folder: FolderUsedItems, OwnerID: 42}, now)

	assert.True(t, strings.HasPrefix(key, "used-items/42/202503/"), key)
	assert.True(t, strings.HasSuffix(key, ".jpg"), key)

	other := ObjectKey(UploadRequest{Filename: "Phone.JPG", Folder: FolderUsedItems, OwnerID: 42}, now)
	assert.NotEqual(t, key, other)
}

func TestS3Storage_PresignUpload(t *testing.T) {
	s := NewS3Storage(config.S3Config{
		Region:          "ap-northeast-2",
		Bucket:          "dungji-test",
		AccessKeyID:     "AKIATEST",
		SecretAccessKey: "secret",
		BaseURL:         "https://cdn.dungjimarket.com/",
	})

	upload, err := s.PresignUpload(context.Background(), UploadRequest{
		Filename:    "galaxy.png",
		ContentType: "image/png",
		Size:        2048,
		Folder:      FolderUsedItems,
		OwnerID:     7,
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(upload.FileURL, "https://cdn.dungjimarket.com/used-items/7/"), upload.FileURL)
	assert.Contains(t, upload.UploadURL, "dungji-test")
	assert.Contains(t, upload.UploadURL, "X-Amz-Signature")
	assert.True(t, upload.ExpiresAt.After(time.Now()))

	direct := NewS3Storage(config.S3Config{Region: "ap-northeast-2", Bucket: "dungji-test", AccessKeyID: "a", SecretAccessKey: "b"})
	assert.Equal(t, "https://dungji-test.s3.ap-northeast-2.amazonaws.com/x.png", direct.fileURL("x.png"))
}

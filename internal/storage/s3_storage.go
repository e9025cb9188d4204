package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dungji/dungji-market-backend/config"
	"github.com/dungji/dungji-market-backend/pkg/logger"
	"github.com/google/uuid"
)

// 업로드 폴더. 클라이언트가 보낸 값은 이 목록 안에서만 허용한다.
const (
	FolderUsedItems = "used-items"
	FolderNotices   = "notices"
	FolderPopups    = "popups"
	FolderBanners   = "banners"
	FolderEvents    = "events"
	FolderProfiles  = "profiles"
	FolderCatalog   = "catalog"

	MaxImageSize   int64 = 10 << 20
	presignExpires       = 15 * time.Minute
)

var (
	ErrUnsupportedFolder      = errors.New("허용되지 않은 업로드 경로입니다")
	ErrUnsupportedContentType = errors.New("이미지 파일만 업로드할 수 있습니다 (JPEG, PNG, GIF, WEBP)")
	ErrFileTooLarge           = errors.New("파일 크기는 10MB를 넘을 수 없습니다")
)

var (
	allowedFolders = map[string]bool{
		FolderUsedItems: true,
		FolderNotices:   true,
		FolderPopups:    true,
		FolderBanners:   true,
		FolderEvents:    true,
		FolderProfiles:  true,
		FolderCatalog:   true,
	}
	// 관리자만 올릴 수 있는 폴더
	adminFolders = map[string]bool{
		FolderNotices: true,
		FolderPopups:  true,
		FolderBanners: true,
		FolderEvents:  true,
		FolderCatalog: true,
	}
	imageContentTypes = map[string]bool{
		"image/jpeg": true,
		"image/jpg":  true,
		"image/png":  true,
		"image/gif":  true,
		"image/webp": true,
	}
)

type UploadRequest struct {
	Filename    string
	ContentType string
	Size        int64
	Folder      string
	OwnerID     uint
}

type PresignedUpload struct {
	UploadURL string    `json:"upload_url"`
	FileURL   string    `json:"file_url"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Presigner 이미지 업로드용 presigned URL 발급
type Presigner interface {
	PresignUpload(ctx context.Context, req UploadRequest) (*PresignedUpload, error)
}

type S3Storage struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	baseURL string
	region  string
}

func NewS3Storage(cfg config.S3Config) *S3Storage {
	var awsCfg aws.Config
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsCfg = aws.Config{
			Region:      cfg.Region,
			Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		}
	} else {
		// 환경변수, ~/.aws, IAM role 순
		loaded, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.Region))
		if err != nil {
			logger.Warn("Failed to load default AWS config, using region only", map[string]interface{}{
				"error": err.Error(),
			})
			loaded = aws.Config{Region: cfg.Region}
		}
		awsCfg = loaded
	}

	client := s3.NewFromConfig(awsCfg)
	return &S3Storage{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		region:  cfg.Region,
	}
}

// ValidateUpload 폴더, 형식, 크기 확인. isAdmin이 아니면 관리자 폴더는 거부.
func ValidateUpload(req UploadRequest, isAdmin bool) error {
	if !allowedFolders[req.Folder] || (adminFolders[req.Folder] && !isAdmin) {
		return ErrUnsupportedFolder
	}
	if !imageContentTypes[strings.ToLower(req.ContentType)] {
		return ErrUnsupportedContentType
	}
	if req.Size > MaxImageSize {
		return ErrFileTooLarge
	}
	return nil
}

// ObjectKey {folder}/{owner}/{yyyymm}/{uuid}{ext}
func ObjectKey(req UploadRequest, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(req.Filename))
	return fmt.Sprintf("%s/%d/%s/%s%s", req.Folder, req.OwnerID, now.Format("200601"), uuid.New().String(), ext)
}

func (s *S3Storage) fileURL(key string) string {
	if s.baseURL != "" {
		return s.baseURL + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

func (s *S3Storage) PresignUpload(ctx context.Context, req UploadRequest) (*PresignedUpload, error) {
	now := time.Now()
	key := ObjectKey(req, now)

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(req.ContentType),
	}
	if req.Size > 0 {
		input.ContentLength = aws.Int64(req.Size)
	}

	presigned, err := s.presign.PresignPutObject(ctx, input, s3.WithPresignExpires(presignExpires))
	if err != nil {
		return nil, fmt.Errorf("presign put object: %w", err)
	}

	return &PresignedUpload{
		UploadURL: presigned.URL,
		FileURL:   s.fileURL(key),
		Key:       key,
		ExpiresAt: now.Add(presignExpires),
	}, nil
}

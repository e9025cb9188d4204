package controller

import (
	"net/http"

	"github.com/dungji/dungji-market-backend/internal/middleware"
	"github.com/dungji/dungji-market-backend/internal/storage"
	"github.com/gin-gonic/gin"
)

type UploadController struct {
	storage storage.Presigner
}

func NewUploadController(presigner storage.Presigner) *UploadController {
	return &UploadController{
		storage: presigner,
	}
}

type GeneratePresignedURLRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
	Size        int64  `json:"size"`
	Folder      string `json:"folder"` // 기본 used-items
}

// GeneratePresignedURL generates a presigned URL for uploading images to S3
// POST /api/v1/upload/presigned-url
func (ctrl *UploadController) GeneratePresignedURL(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req GeneratePresignedURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "파일 이름과 형식을 입력해주세요")
		return
	}

	folder := req.Folder
	if folder == "" {
		folder = storage.FolderUsedItems
	}
	upload := storage.UploadRequest{
		Filename:    req.Filename,
		ContentType: req.ContentType,
		Size:        req.Size,
		Folder:      folder,
		OwnerID:     userID,
	}

	if err := storage.ValidateUpload(upload, middleware.IsAdmin(c)); err != nil {
		respondServiceError(c, err, "validate upload")
		return
	}

	response, err := ctrl.storage.PresignUpload(c.Request.Context(), upload)
	if err != nil {
		respondServiceError(c, err, "presign upload")
		return
	}

	log.Info("Presigned URL generated successfully", map[string]interface{}{
		"user_id":      userID,
		"content_type": req.ContentType,
		"folder":       folder,
		"key":          response.Key,
	})

	c.JSON(http.StatusOK, response)
}

package controller

import (
	"net/http"

	"github.com/dungji/dungji-market-backend/internal/app/model"
	"github.com/dungji/dungji-market-backend/internal/app/service"
	"github.com/dungji/dungji-market-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

type VerificationController struct {
	verificationService service.VerificationService
}

func NewVerificationController(verificationService service.VerificationService) *VerificationController {
	return &VerificationController{verificationService: verificationService}
}

type SendPhoneCodeRequest struct {
	Phone   string `json:"phone" binding:"required"`
	Purpose string `json:"purpose"` // signup(기본) | profile
}

type VerifyPhoneCodeRequest struct {
	Phone   string `json:"phone" binding:"required"`
	Code    string `json:"code" binding:"required,len=6,numeric"`
	Purpose string `json:"purpose"`
}

type VerifyBusinessRequest struct {
	BusinessNumber string `json:"business_number" binding:"required"`
}

func verificationPurpose(raw string) model.VerificationPurpose {
	if model.VerificationPurpose(raw) == model.PurposeProfile {
		return model.PurposeProfile
	}
	return model.PurposeSignup
}

// SendPhoneCode 인증번호 발송
// POST /api/v1/verification/phone/send
func (ctrl *VerificationController) SendPhoneCode(c *gin.Context) {
	var req SendPhoneCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "휴대폰 번호를 입력해주세요")
		return
	}

	result, err := ctrl.verificationService.SendPhoneCode(
		c.Request.Context(),
		req.Phone,
		verificationPurpose(req.Purpose),
		optionalUserID(c),
		c.ClientIP(),
	)
	if err != nil {
		respondServiceError(c, err, "send phone code")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "인증번호가 발송되었습니다",
		"result":  result,
	})
}

// VerifyPhoneCode 인증번호 확인
// POST /api/v1/verification/phone/verify
func (ctrl *VerificationController) VerifyPhoneCode(c *gin.Context) {
	var req VerifyPhoneCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "인증번호 6자리를 입력해주세요")
		return
	}

	result, err := ctrl.verificationService.VerifyPhoneCode(
		c.Request.Context(),
		req.Phone,
		req.Code,
		verificationPurpose(req.Purpose),
		optionalUserID(c),
	)
	if err != nil {
		respondServiceError(c, err, "verify phone code")
		return
	}

	c.JSON(http.StatusOK, result)
}

// PhoneStatus GET /api/v1/verification/phone/status?phone=&purpose=
func (ctrl *VerificationController) PhoneStatus(c *gin.Context) {
	verified, err := ctrl.verificationService.IsPhoneVerified(c.Query("phone"), verificationPurpose(c.Query("purpose")))
	if err != nil {
		respondServiceError(c, err, "phone verification status")
		return
	}
	c.JSON(http.StatusOK, gin.H{"verified": verified})
}

// VerifyBusiness 사업자등록번호 상태 조회 후 인증 처리
// POST /api/v1/verification/business
func (ctrl *VerificationController) VerifyBusiness(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req VerifyBusinessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "사업자등록번호를 입력해주세요")
		return
	}

	record, err := ctrl.verificationService.VerifyBusinessNumber(c.Request.Context(), userID, req.BusinessNumber)
	if err != nil {
		respondServiceError(c, err, "verify business number")
		return
	}

	log.Info("Business number verified", map[string]interface{}{
		"user_id": userID,
		"status":  record.Status,
	})
	c.JSON(http.StatusOK, gin.H{"verification": record})
}

// LatestBusiness GET /api/v1/verification/business
func (ctrl *VerificationController) LatestBusiness(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	record, err := ctrl.verificationService.LatestBusinessVerification(userID)
	if err != nil {
		respondServiceError(c, err, "latest business verification")
		return
	}
	c.JSON(http.StatusOK, gin.H{"verification": record})
}

package controller

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dungji/dungji-market-backend/internal/app/model"
	"github.com/dungji/dungji-market-backend/internal/app/repository"
	"github.com/dungji/dungji-market-backend/internal/app/service"
	apperrors "github.com/dungji/dungji-market-backend/internal/errors"
	"github.com/dungji/dungji-market-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

type PartnerController struct {
	partnerService service.PartnerService
}

func NewPartnerController(partnerService service.PartnerService) *PartnerController {
	return &PartnerController{partnerService: partnerService}
}

type CreatePartnerRequest struct {
	UserID         uint                 `json:"user_id" binding:"required"`
	PartnerName    string               `json:"partner_name" binding:"required"`
	CommissionRate model.CommissionRate `json:"commission_rate"` // 비우면 기본 수수료율

}

type FailSettlementRequest struct {
	Memo string `json:"memo" binding:"required"`
}

// dateRange start_date/end_date (YYYY-MM-DD). end_date는 해당 일 끝까지 포함.
func dateRange(c *gin.Context) (*time.Time, *time.Time, bool) {
	var from, to *time.Time
	if raw := c.Query("start_date"); raw != "" {
		t, err := time.ParseInLocation(dateLayout, raw, time.Local)
		if err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, "날짜는 YYYY-MM-DD 형식으로 입력해주세요")
			return nil, nil, false
		}
		from = &t
	}
	if raw := c.Query("end_date"); raw != "" {
		t, err := time.ParseInLocation(dateLayout, raw, time.Local)
		if err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, "날짜는 YYYY-MM-DD 형식으로 입력해주세요")
			return nil, nil, false
		}
		end := t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		to = &end
	}
	return from, to, true
}

// Me 내 파트너 정보
// GET /api/v1/partners/me
func (ctrl *PartnerController) Me(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	partner, err := ctrl.partnerService.GetPartner(userID)
	if err != nil {
		respondServiceError(c, err, "get partner")
		return
	}
	c.JSON(http.StatusOK, gin.H{"partner": partner})
}

// Dashboard GET /api/v1/partners/dashboard
func (ctrl *PartnerController) Dashboard(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	dashboard, err := ctrl.partnerService.Dashboard(userID)
	if err != nil {
		respondServiceError(c, err, "partner dashboard")
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// Referrals 추천 회원 목록 (이름/연락처 마스킹)
// GET /api/v1/partners/referrals?subscription_status=&settlement_status=&start_date=&end_date=
func (ctrl *PartnerController) Referrals(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	from, to, ok := dateRange(c)
	if !ok {
		return
	}
	page, pageSize := pageParams(c)

	records, total, err := ctrl.partnerService.Referrals(userID, repository.ReferralFilter{
		SubscriptionStatus: model.SubscriptionStatus(c.Query("subscription_status")),
		SettlementStatus:   model.ReferralSettlementStatus(c.Query("settlement_status")),
		From:               from,
		To:                 to,
		Page:               page,
		PageSize:           pageSize,
	})
	if err != nil {
		respondServiceError(c, err, "partner referrals")
		return
	}
	c.JSON(http.StatusOK, paged(records, total, page, pageSize))
}

// ReferralLink GET /api/v1/partners/referral-link
func (ctrl *PartnerController) ReferralLink(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	link, err := ctrl.partnerService.ReferralLink(userID)
	if err != nil {
		respondServiceError(c, err, "referral link")
		return
	}
	c.JSON(http.StatusOK, link)
}

// QRCode 추천 링크 QR 이미지(PNG)
// GET /api/v1/partners/qr/:code?size=
func (ctrl *PartnerController) QRCode(c *gin.Context) {
	size, err := strconv.Atoi(c.DefaultQuery("size", "256"))
	if err != nil {
		size = 256
	}

	png, err := ctrl.partnerService.QRCode(c.Param("code"), size)
	if err != nil {
		respondServiceError(c, err, "referral qr code")
		return
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, "image/png", png)
}

// Statistics GET /api/v1/partners/statistics?period=month
func (ctrl *PartnerController) Statistics(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	stats, err := ctrl.partnerService.Statistics(userID, c.DefaultQuery("period", "month"))
	if err != nil {
		respondServiceError(c, err, "partner statistics")
		return
	}
	c.JSON(http.StatusOK, gin.H{"statistics": stats})
}

// Export 추천 내역 다운로드 (excel | csv)
// GET /api/v1/partners/export?format=excel
func (ctrl *PartnerController) Export(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	from, to, ok := dateRange(c)
	if !ok {
		return
	}

	file, err := ctrl.partnerService.Export(userID, service.ExportInput{
		Format: c.DefaultQuery("format", "excel"),
		From:   from,
		To:     to,
		Status: model.SubscriptionStatus(c.Query("status")),
	})
	if err != nil {
		respondServiceError(c, err, "export referrals")
		return
	}

	log.Info("Referral export generated", map[string]interface{}{
		"user_id":  userID,
		"filename": file.Filename,
		"bytes":    len(file.Data),
	})
	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

// RequestSettlement POST /api/v1/partners/settlements
func (ctrl *PartnerController) RequestSettlement(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req service.SettlementRequestInput
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		bindError(c, err, "")
		return
	}

	settlement, err := ctrl.partnerService.RequestSettlement(userID, req)
	if err != nil {
		respondServiceError(c, err, "request settlement")
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":    "정산 요청이 접수되었습니다",
		"settlement": settlement,
	})
}

// Settlements GET /api/v1/partners/settlements
func (ctrl *PartnerController) Settlements(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	page, pageSize := pageParams(c)

	settlements, total, err := ctrl.partnerService.Settlements(userID, page, pageSize)
	if err != nil {
		respondServiceError(c, err, "partner settlements")
		return
	}
	c.JSON(http.StatusOK, paged(settlements, total, page, pageSize))
}

// BankAccount GET /api/v1/partners/bank-account
func (ctrl *PartnerController) BankAccount(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	account, err := ctrl.partnerService.BankAccount(userID)
	if err != nil {
		respondServiceError(c, err, "partner bank account")
		return
	}
	c.JSON(http.StatusOK, gin.H{"bank_account": account})
}

// VerifyBankAccount 예금주 실명 조회만 수행
// POST /api/v1/partners/bank-account/verify
func (ctrl *PartnerController) VerifyBankAccount(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req service.BankAccountInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "은행과 계좌번호를 입력해주세요")
		return
	}

	result, err := ctrl.partnerService.VerifyBankAccount(c.Request.Context(), userID, req)
	if err != nil {
		respondServiceError(c, err, "verify bank account")
		return
	}
	c.JSON(http.StatusOK, result)
}

// RegisterBankAccount 실명 확인 후 정산 계좌 등록
// PUT /api/v1/partners/bank-account
func (ctrl *PartnerController) RegisterBankAccount(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req service.BankAccountInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "은행과 계좌번호를 입력해주세요")
		return
	}

	account, err := ctrl.partnerService.RegisterBankAccount(c.Request.Context(), userID, req)
	if err != nil {
		respondServiceError(c, err, "register bank account")
		return
	}

	log.Info("Partner bank account registered", map[string]interface{}{
		"user_id":   userID,
		"bank_code": req.BankCode,
	})
	c.JSON(http.StatusOK, gin.H{"bank_account": account})
}

// CreatePartner 관리자 파트너 등록
// POST /api/v1/admin/partners
func (ctrl *PartnerController) CreatePartner(c *gin.Context) {
	var req CreatePartnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "")
		return
	}

	partner, err := ctrl.partnerService.CreatePartner(req.UserID, req.PartnerName, req.CommissionRate)
	if err != nil {
		respondServiceError(c, err, "create partner")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"partner": partner})
}

// AdminSettlements GET /api/v1/admin/settlements?status=
func (ctrl *PartnerController) AdminSettlements(c *gin.Context) {
	page, pageSize := pageParams(c)

	settlements, total, err := ctrl.partnerService.AdminSettlements(model.SettlementStatus(c.Query("status")), page, pageSize)
	if err != nil {
		respondServiceError(c, err, "admin settlements")
		return
	}
	c.JSON(http.StatusOK, paged(settlements, total, page, pageSize))
}

// CompleteSettlement POST /api/v1/admin/settlements/:id/complete
func (ctrl *PartnerController) CompleteSettlement(c *gin.Context) {
	adminID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	settlement, err := ctrl.partnerService.CompleteSettlement(id, adminID)
	if err != nil {
		respondServiceError(c, err, "complete settlement")
		return
	}
	c.JSON(http.StatusOK, gin.H{"settlement": settlement})
}

// FailSettlement POST /api/v1/admin/settlements/:id/fail
func (ctrl *PartnerController) FailSettlement(c *gin.Context) {
	adminID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req FailSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "실패 사유를 입력해주세요")
		return
	}

	settlement, err := ctrl.partnerService.FailSettlement(id, adminID, req.Memo)
	if err != nil {
		respondServiceError(c, err, "fail settlement")
		return
	}
	c.JSON(http.StatusOK, gin.H{"settlement": settlement})
}

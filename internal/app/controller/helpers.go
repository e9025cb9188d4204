package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dungji/dungji-market-backend/internal/app/model"
	"github.com/dungji/dungji-market-backend/internal/app/service"
	apperrors "github.com/dungji/dungji-market-backend/internal/errors"
	"github.com/dungji/dungji-market-backend/internal/middleware"
	"github.com/dungji/dungji-market-backend/internal/storage"
	"github.com/dungji/dungji-market-backend/pkg/util"
	"github.com/gin-gonic/gin"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

// serviceErrors 서비스 sentinel 에러 -> HTTP 응답. 목록에 없으면 ParseError로 넘긴다.
var serviceErrors = []errorMapping{
	// 인증
	{service.ErrEmailAlreadyExists, http.StatusConflict, apperrors.AuthEmailAlreadyExists},
	{service.ErrNicknameAlreadyExists, http.StatusConflict, apperrors.AuthNicknameExists},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, apperrors.AuthInvalidCredentials},
	{service.ErrAccountInactive, http.StatusForbidden, apperrors.AuthAccountInactive},
	{service.ErrTokenRevoked, http.StatusUnauthorized, apperrors.AuthTokenRevoked},
	{service.ErrRefreshTokenRequired, http.StatusBadRequest, apperrors.ValidationInvalidInput},
	{service.ErrKakaoLoginFailed, http.StatusBadGateway, apperrors.AuthKakaoFailed},
	{service.ErrInvalidRole, http.StatusBadRequest, apperrors.ValidationInvalidInput},
	{util.ErrPasswordTooShort, http.StatusBadRequest, apperrors.ValidationInvalidInput},
	{util.ErrPasswordTooLong, http.StatusBadRequest, apperrors.ValidationInvalidInput},
	{util.ErrPasswordTooWeak, http.StatusBadRequest, apperrors.ValidationInvalidInput},
	{service.ErrUserNotFound, http.StatusNotFound, apperrors.ResourceNotFound},
	{service.ErrAdminSelfModify, http.StatusForbidden, apperrors.AuthzForbidden},
	{service.ErrAdminTargetAdmin, http.StatusForbidden, apperrors.AuthzForbidden},

	// 휴대폰/사업자 인증
	{service.ErrInvalidPhone, http.StatusBadRequest, apperrors.ValidationInvalidFormat},
	{service.ErrResendTooSoon, http.StatusTooManyRequests, apperrors.VerifyTooManyRequests},
	{service.ErrTooManyCodeRequests, http.StatusTooManyRequests, apperrors.VerifyTooManyRequests},
	{service.ErrPhoneInUse, http.StatusConflict, apperrors.VerifyPhoneInUse},
	{service.ErrCodeNotRequested, http.StatusBadRequest, apperrors.VerifyCodeInvalid},
	{service.ErrCodeExpired, http.StatusBadRequest, apperrors.VerifyCodeExpired},
	{service.ErrCodeMismatch, http.StatusBadRequest, apperrors.VerifyCodeInvalid},
	{service.ErrTooManyAttempts, http.StatusBadRequest, apperrors.VerifyCodeInvalid},
	{service.ErrInvalidBusinessNumber, http.StatusBadRequest, apperrors.ValidationInvalidFormat},
	{service.ErrBusinessNotValid, http.StatusBadRequest, apperrors.VerifyBusinessInvalid},
	{service.ErrBusinessAPIFailed, http.StatusBadGateway, apperrors.InternalExternalAPI},

	// 중고거래
	{service.ErrUsedItemNotFound, http.StatusNotFound, apperrors.ResourceNotFound},
	{service.ErrUsedNotOwner, http.StatusForbidden, apperrors.AuthzOwnerOnly},
	{service.ErrUsedListingLimit, http.StatusBadRequest, apperrors.UsedListingLimit},
	{service.ErrUsedPenaltyActive, http.StatusBadRequest, apperrors.UsedPenaltyActive},
	{service.ErrUsedNotEditable, http.StatusBadRequest, apperrors.UsedInvalidStatus},
	{service.ErrUsedTradingDelete, http.StatusBadRequest, apperrors.UsedItemTrading},

	// 제안
	{service.ErrOfferNotFound, http.StatusNotFound, apperrors.ResourceNotFound},
	{service.ErrOfferItemTrading, http.StatusBadRequest, apperrors.UsedItemTrading},
	{service.ErrOfferItemClosed, http.StatusBadRequest, apperrors.UsedInvalidStatus},
	{service.ErrOfferSelf, http.StatusBadRequest, apperrors.OfferSelf},
	{service.ErrOfferLimit, http.StatusBadRequest, apperrors.OfferLimit},
	{service.ErrOfferPriceRequired, http.StatusBadRequest, apperrors.ValidationInvalidInput},
	{service.ErrOfferBelowMin, http.StatusBadRequest, apperrors.OfferBelowMin},
	{service.ErrOfferAboveAsking, http.StatusBadRequest, apperrors.OfferAboveAsking},
	{service.ErrOfferNotPending, http.StatusBadRequest, apperrors.OfferNotPending},
	{service.ErrOfferSellerOnly, http.StatusForbidden, apperrors.AuthzOwnerOnly},
	{service.ErrOfferInvalidAction, http.StatusBadRequest, apperrors.ValidationInvalidInput},
	{service.ErrTradeInProgress, http.StatusConflict, apperrors.TradeInProgress},

	// 거래
	{service.ErrTradeNotFound, http.StatusNotFound, apperrors.ResourceNotFound},
	{service.ErrTradeNoCompleted, http.StatusNotFound, apperrors.TradeNotInProgress},
	{service.ErrTradeSellerOnly, http.StatusForbidden, apperrors.AuthzForbidden},
	{service.ErrTradeBuyerCannotClose, http.StatusForbidden, apperrors.AuthzForbidden},
	{service.ErrTradeAlreadyCompleted, http.StatusBadRequest, apperrors.TradeAlreadyCompleted},
	{service.ErrTradePartyOnly, http.StatusForbidden, apperrors.AuthzForbidden},
	{service.ErrTradeCancelPartyOnly, http.StatusForbidden, apperrors.AuthzForbidden},
	{service.ErrTradeInfoSellerOnly, http.StatusForbidden, apperrors.AuthzForbidden},
	{service.ErrTradeInfoBuyerOnly, http.StatusForbidden, apperrors.AuthzForbidden},

	// 후기
	{service.ErrReviewTradeNotCompleted, http.StatusBadRequest, apperrors.TradeNotInProgress},
	{service.ErrReviewNotParty, http.StatusForbidden, apperrors.AuthzForbidden},
	{service.ErrReviewAlreadyExists, http.StatusConflict, apperrors.UsedAlreadyReviewed},
	{service.ErrReviewInvalidRating, http.StatusBadRequest, apperrors.ValidationInvalidRange},

	// 견적 이용권
	{service.ErrTokenInsufficient, http.StatusBadRequest, apperrors.TokenInsufficient},
	{service.ErrTokenAlreadyUsed, http.StatusBadRequest, apperrors.TokenAlreadyUsed},
	{service.ErrTokenNotEnoughActive, http.StatusBadRequest, apperrors.TokenInsufficient},
	{service.ErrTokenInvalidAdjust, http.StatusBadRequest, apperrors.ValidationInvalidInput},
	{service.ErrTokenInvalidQuantity, http.StatusBadRequest, apperrors.ValidationInvalidRange},
	{service.ErrTokenSellerNotFound, http.StatusNotFound, apperrors.ResourceNotFound},
	{service.ErrTokenInvalidFilter, http.StatusBadRequest, apperrors.ValidationInvalidInput},
	{service.ErrTokenAmountTooSmall, http.StatusBadRequest, apperrors.ValidationInvalidRange},
	{service.ErrTokenReasonRequired, http.StatusBadRequest, apperrors.ValidationInvalidInput},
	{service.ErrTokenBulkSetForbidden, http.StatusBadRequest, apperrors.ValidationInvalidInput},

	// 결제/환불
	{service.ErrPaymentNotFound, http.StatusNotFound, apperrors.ResourceNotFound},
	{service.ErrPaymentSellerOnly, http.StatusForbidden, apperrors.AuthzSellerOnly},
	{service.ErrInvalidPaymentAmount, http.StatusBadRequest, apperrors.ValidationInvalidRange},
	{service.ErrPaymentDuplicateOrder, http.StatusConflict, apperrors.ResourceAlreadyExists},
	{service.ErrPaymentFailed, http.StatusBadRequest, apperrors.PaymentFailed},
	{service.ErrPaymentTokensUsed, http.StatusBadRequest, apperrors.TokenAlreadyUsed},
	{service.ErrPaymentNotCancellable, http.StatusBadRequest, apperrors.PaymentInvalidStatus},
	{service.ErrPaymentNotPayable, http.StatusBadRequest, apperrors.PaymentInvalidStatus},
	{model.ErrInvalidCommissionRate, http.StatusBadRequest, apperrors.ValidationInvalidRange},
	{service.ErrRefundNotFound, http.StatusNotFound, apperrors.ResourceNotFound},
	{service.ErrRefundAlreadyRequested, http.StatusConflict, apperrors.PaymentRefundExists},
	{service.ErrRefundAlreadyProcessed, http.StatusBadRequest, apperrors.PaymentInvalidStatus},
	{service.ErrRefundReasonRequired, http.StatusBadRequest, apperrors.ValidationInvalidInput},
	{service.ErrRefundInvalidAmount, http.StatusBadRequest, apperrors.ValidationInvalidRange},
	{service.ErrRefundNotAllowed, http.StatusBadRequest, apperrors.PaymentNotRefundable},
	{service.ErrRefundGatewayFailed, http.StatusBadGateway, apperrors.PaymentGatewayFailure},

	// 파트너
	{service.ErrPartnerNotFound, http.StatusNotFound, apperrors.PartnerNotFound},
	{service.ErrPartnerInactive, http.StatusForbidden, apperrors.AuthzForbidden},
	{service.ErrPartnerAlreadyExists, http.StatusConflict, apperrors.ResourceAlreadyExists},
	{service.ErrPartnerBankInfoRequired, http.StatusBadRequest, apperrors.PartnerBankRequired},
	{service.ErrSettlementInProgress, http.StatusConflict, apperrors.PartnerSettlementOpen},
	{service.ErrSettlementBelowMinimum, http.StatusBadRequest, apperrors.PartnerBelowMinimum},
	{service.ErrSettlementNotFound, http.StatusNotFound, apperrors.ResourceNotFound},
	{service.ErrSettlementNotOpen, http.StatusBadRequest, apperrors.ResourceConflict},
	{service.ErrBankFieldsRequired, http.StatusBadRequest, apperrors.ValidationInvalidInput},
	{service.ErrBankHolderInfoRequired, http.StatusBadRequest, apperrors.ValidationInvalidInput},
	{service.ErrBankVerificationFailed, http.StatusBadRequest, apperrors.VerifyBankAccountFailed},
	{service.ErrInvalidExportFormat, http.StatusBadRequest, apperrors.ValidationInvalidFormat},

	// 공구
	{service.ErrCategoryNotFound, http.StatusNotFound, apperrors.ResourceNotFound},
	{service.ErrProductNotFound, http.StatusNotFound, apperrors.ResourceNotFound},
	{service.ErrGroupBuyNotFound, http.StatusNotFound, apperrors.ResourceNotFound},
	{service.ErrGroupBuyBuyerOnly, http.StatusForbidden, apperrors.AuthzForbidden},
	{service.ErrGroupBuyInvalidPeriod, http.StatusBadRequest, apperrors.GroupBuyDuration},
	{service.ErrGroupBuyInvalidParticipants, http.StatusBadRequest, apperrors.ValidationInvalidRange},
	{service.ErrGroupBuyClosed, http.StatusBadRequest, apperrors.GroupBuyInvalidStatus},
	{service.ErrGroupBuyFull, http.StatusBadRequest, apperrors.GroupBuyFull},
	{service.ErrGroupBuyAlreadyJoined, http.StatusConflict, apperrors.ResourceAlreadyExists},
	{service.ErrGroupBuyNotJoined, http.StatusBadRequest, apperrors.GroupBuyInvalidStatus},
	{service.ErrGroupBuyLeaderCannotLeave, http.StatusBadRequest, apperrors.GroupBuyInvalidStatus},
	{service.ErrGroupBuyAlreadyFinished, http.StatusBadRequest, apperrors.GroupBuyInvalidStatus},
	{service.ErrBidSellerOnly, http.StatusForbidden, apperrors.AuthzSellerOnly},
	{service.ErrBidClosed, http.StatusBadRequest, apperrors.GroupBuyInvalidStatus},
	{service.ErrBidInvalid, http.StatusBadRequest, apperrors.ValidationInvalidInput},
	{service.ErrVoteClosed, http.StatusBadRequest, apperrors.GroupBuyInvalidStatus},
	{service.ErrVoteNotParticipant, http.StatusForbidden, apperrors.AuthzForbidden},
	{service.ErrVoteAlreadyCast, http.StatusConflict, apperrors.ResourceAlreadyExists},
	{service.ErrVoteInvalidChoice, http.StatusBadRequest, apperrors.ValidationInvalidInput},

	// 콘텐츠/알림
	{service.ErrNoticeNotFound, http.StatusNotFound, apperrors.ResourceNotFound},
	{service.ErrPopupNotFound, http.StatusNotFound, apperrors.ResourceNotFound},
	{service.ErrBannerNotFound, http.StatusNotFound, apperrors.ResourceNotFound},
	{service.ErrEventNotFound, http.StatusNotFound, apperrors.ResourceNotFound},
	{service.ErrContentTitleEmpty, http.StatusBadRequest, apperrors.ValidationInvalidInput},
	{service.ErrContentInvalidDate, http.StatusBadRequest, apperrors.ValidationInvalidRange},
	{service.ErrBannerImageMissing, http.StatusBadRequest, apperrors.ValidationInvalidInput},
	{service.ErrNotificationNotFound, http.StatusNotFound, apperrors.NotificationNotFound},
	{service.ErrNotificationForbidden, http.StatusForbidden, apperrors.AuthzForbidden},

	// 업로드
	{storage.ErrUnsupportedFolder, http.StatusBadRequest, apperrors.ValidationInvalidInput},
	{storage.ErrUnsupportedContentType, http.StatusBadRequest, apperrors.UploadInvalidFileType},
	{storage.ErrFileTooLarge, http.StatusBadRequest, apperrors.UploadFileTooLarge},
}

// respondServiceError 서비스 에러를 표준 에러 응답으로 변환한다.
// 규칙 위반은 Warn, 알 수 없는 에러는 Error로 남긴다.
func respondServiceError(c *gin.Context, err error, action string) {
	log := middleware.GetLoggerFromContext(c)

	var verr *service.UsedValidationError
	if errors.As(err, &verr) {
		log.Warn("Validation failed", map[string]interface{}{
			"action": action,
			"field":  verr.Field,
			"error":  verr.Message,
		})
		c.JSON(http.StatusBadRequest, apperrors.ValidationError{
			Error:   apperrors.ValidationInvalidInput,
			Message: verr.Message,
			Fields:  map[string]string{verr.Field: verr.Message},
		})
		return
	}

	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			log.Warn("Request rejected", map[string]interface{}{
				"action": action,
				"error":  err.Error(),
			})
			apperrors.RespondWithError(c, m.status, m.code, err.Error())
			return
		}
	}

	log.Error("Request failed", err, map[string]interface{}{
		"action": action,
	})
	apperrors.ParseAndRespond(c, err, action)
}

// requireUserID 인증 미들웨어가 설정한 사용자 ID. 없으면 401 응답 후 false.
func requireUserID(c *gin.Context) (uint, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "로그인이 필요합니다")
		return 0, false
	}
	return userID, true
}

// optionalUserID 비로그인이면 nil
func optionalUserID(c *gin.Context) *uint {
	if id, ok := middleware.GetUserID(c); ok {
		return &id
	}
	return nil
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "잘못된 ID입니다")
		return 0, false
	}
	return uint(id), true
}

// pageParams page 기본 1, page_size 기본 20 (최대 100은 repository에서)
func pageParams(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if err != nil || pageSize < 1 {
		pageSize = 20
	}
	return page, pageSize
}

func paged(data interface{}, total int64, page, pageSize int) gin.H {
	return gin.H{
		"data":      data,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	}
}

func bindError(c *gin.Context, err error, message string) {
	middleware.GetLoggerFromContext(c).Warn("Invalid request body", map[string]interface{}{
		"path":  c.Request.URL.Path,
		"error": err.Error(),
	})
	if message == "" {
		message = "입력 정보가 올바르지 않습니다"
	}
	apperrors.BadRequest(c, apperrors.ValidationInvalidInput, message)
}

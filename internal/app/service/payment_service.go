package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dungji/dungji-market-backend/config"
	"github.com/dungji/dungji-market-backend/internal/app/model"
	"github.com/dungji/dungji-market-backend/internal/app/repository"
	"github.com/dungji/dungji-market-backend/pkg/logger"
	"github.com/dungji/dungji-market-backend/pkg/payment/inicis"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrPaymentNotFound        = errors.New("결제 정보를 찾을 수 없습니다.")
	ErrPaymentSellerOnly      = errors.New("판매자만 입찰권을 구매할 수 있습니다.")
	ErrInvalidPaymentAmount   = errors.New("결제 금액이 유효하지 않습니다.")
	ErrPaymentDuplicateOrder  = errors.New("이미 사용된 주문번호입니다.")
	ErrPaymentFailed          = errors.New("결제가 실패했습니다.")
	ErrPaymentTokensUsed      = errors.New("이미 사용된 입찰권이 있어 취소할 수 없습니다.")
	ErrPaymentNotCancellable  = errors.New("취소할 수 없는 결제 상태입니다.")
	ErrPaymentNotPayable      = errors.New("완료 처리할 수 없는 결제 상태입니다.")
	ErrRefundNotFound         = errors.New("환불 요청을 찾을 수 없습니다.")
	ErrRefundAlreadyRequested = errors.New("이미 환불 요청된 결제입니다.")
	ErrRefundAlreadyProcessed = errors.New("이미 처리된 환불 요청입니다.")
	ErrRefundReasonRequired   = errors.New("환불 사유를 입력해주세요.")
	ErrRefundInvalidAmount    = errors.New("환불 금액이 결제 금액을 초과할 수 없습니다.")
	ErrRefundNotAllowed       = errors.New("환불할 수 없는 결제입니다.")
	ErrRefundGatewayFailed    = errors.New("환불 처리 실패")
)

// RefundBlockedError 환불 불가 사유를 담는다. errors.Is(err, ErrRefundNotAllowed) 로 판별.
type RefundBlockedError struct {
	Reason string
}

func (e *RefundBlockedError) Error() string {
	return "환불 불가: " + e.Reason
}

func (e *RefundBlockedError) Unwrap() error {
	return ErrRefundNotAllowed
}

// PaymentGateway 이니시스 클라이언트 (*inicis.Client)
type PaymentGateway interface {
	Sign(orderID string, price int64) inicis.PaymentSignature
	Refund(ctx context.Context, tid, msg string, partialAmount *int64, clientIP string) (*inicis.RefundResponse, error)
}

// PaymentRecorder 결제 완료 시 추천 파트너 매출 반영 (PartnerService)
type PaymentRecorder interface {
	RecordPayment(tx *gorm.DB, payment *model.Payment, grant *GrantResult) error
}

type PreparePaymentInput struct {
	OrderID     string `json:"orderId"`
	Amount      int64  `json:"amount"`
	ProductName string `json:"productName"`
	BuyerName   string `json:"buyerName"`
	BuyerTel    string `json:"buyerTel"`
	BuyerEmail  string `json:"buyerEmail"`
}

type PreparePaymentResult struct {
	inicis.PaymentSignature
	PaymentID   uint   `json:"payment_id"`
	ProductName string `json:"productName"`
	BuyerName   string `json:"buyerName"`
	BuyerTel    string `json:"buyerTel"`
	BuyerEmail  string `json:"buyerEmail"`
}

type VerifyPaymentInput struct {
	OrderID        string `json:"orderId" binding:"required"`
	AuthResultCode string `json:"authResultCode"`
	AuthResultMsg  string `json:"authResultMsg"`
	AuthToken      string `json:"authToken"`
	TID            string `json:"tid"`
	AuthURL        string `json:"authUrl"`
	NetCancelURL   string `json:"netCancelUrl"`
	IdcName        string `json:"idc_name"`
}

type VerifyPaymentResult struct {
	Message          string       `json:"message"`
	AlreadyProcessed bool         `json:"already_processed"`
	Grant            *GrantResult `json:"grant,omitempty"`
	TotalTokens      int64        `json:"total_tokens"`
}

type PaymentWebhookInput struct {
	Type    string `json:"type" form:"type"`
	OrderID string `json:"oid" form:"oid"`
	TID     string `json:"tid" form:"tid"`
}

// PaymentSummary 내 결제 내역 + 환불 가능 여부
type PaymentSummary struct {
	ID               uint                `json:"id"`
	OrderID          string              `json:"order_id"`
	Amount           int64               `json:"amount"`
	ProductName      string              `json:"product_name"`
	PayMethod        model.PaymentMethod `json:"pay_method"`
	Status           model.PaymentStatus `json:"status"`
	CreatedAt        time.Time           `json:"created_at"`
	CanRefund        bool                `json:"can_refund"`
	RefundDeadline   *time.Time          `json:"refund_deadline,omitempty"`
	HasRefundRequest bool                `json:"has_refund_request"`
}

type RequestRefundInput struct {
	PaymentID uint   `json:"payment_id" binding:"required"`
	Reason    string `json:"reason"`
	Amount    int64  `json:"request_amount"`
}

type PaymentService interface {
	Prepare(userID uint, input PreparePaymentInput) (*PreparePaymentResult, error)
	Verify(userID uint, input VerifyPaymentInput) (*VerifyPaymentResult, error)
	Cancel(ctx context.Context, userID uint, orderID, reason, clientIP string) (*model.Payment, error)
	HandleWebhook(input PaymentWebhookInput) error
	ReturnURL(resultCode, orderID, resultMsg string) string
	CloseURL() string
	MyPayments(userID uint) ([]PaymentSummary, error)

	RequestRefund(userID uint, input RequestRefundInput) (*model.RefundRequest, error)
	MyRefundRequests(userID uint, page, pageSize int) ([]model.RefundRequest, int64, error)
	GetRefundRequest(userID, requestID uint) (*model.RefundRequest, error)
	AdminRefundRequests(status model.RefundStatus, page, pageSize int) ([]model.RefundRequest, int64, error)
	ApproveRefund(ctx context.Context, requestID, adminID uint, adminNote, clientIP string) (*model.RefundRequest, error)
	RejectRefund(requestID, adminID uint, reason, adminNote string) (*model.RefundRequest, error)
}

type paymentService struct {
	db          *gorm.DB
	paymentRepo repository.PaymentRepository
	userRepo    repository.UserRepository
	tokens      BidTokenService
	recorder    PaymentRecorder
	gateway     PaymentGateway
	notifier    Notifier
	policy      config.RefundPolicy
	frontendURL string
	now         func() time.Time
}

// NewPaymentService recorder, notifier는 nil 허용
func NewPaymentService(
	db *gorm.DB,
	paymentRepo repository.PaymentRepository,
	userRepo repository.UserRepository,
	tokens BidTokenService,
	recorder PaymentRecorder,
	gateway PaymentGateway,
	notifier Notifier,
	policy config.RefundPolicy,
	frontendURL string,
) PaymentService {
	return &paymentService{
		db:          db,
		paymentRepo: paymentRepo,
		userRepo:    userRepo,
		tokens:      tokens,
		recorder:    recorder,
		gateway:     gateway,
		notifier:    notifier,
		policy:      policy,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		now:         time.Now,
	}
}

func newOrderID(userID uint) string {
	return fmt.Sprintf("DJ%d_%s", userID, strings.ReplaceAll(uuid.NewString(), "-", "")[:16])
}

// Prepare 결제창 호출용 서명을 만들고 대기 상태 결제를 기록한다
func (s *paymentService) Prepare(userID uint, input PreparePaymentInput) (*PreparePaymentResult, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if user.Role != model.RoleSeller {
		return nil, ErrPaymentSellerOnly
	}
	if input.Amount <= 0 || input.Amount < s.tokens.UnitPrice() {
		return nil, ErrInvalidPaymentAmount
	}

	orderID := strings.TrimSpace(input.OrderID)
	if orderID == "" {
		orderID = newOrderID(userID)
	}
	if existing, err := s.paymentRepo.FindByOrderID(orderID); err == nil && existing != nil {
		return nil, ErrPaymentDuplicateOrder
	}

	productName := strings.TrimSpace(input.ProductName)
	if productName == "" {
		productName = "입찰권"
	}
	buyerName := firstNonEmpty(input.BuyerName, user.Name, user.Nickname)
	buyerTel := firstNonEmpty(input.BuyerTel, user.Phone)
	buyerEmail := firstNonEmpty(input.BuyerEmail, user.Email)

	sig := s.gateway.Sign(orderID, input.Amount)
	payment := &model.Payment{
		UserID:        userID,
		OrderID:       orderID,
		PaymentMethod: model.PaymentMethodInicis,
		Amount:        input.Amount,
		ProductName:   productName,
		Status:        model.PaymentPending,
		BuyerName:     buyerName,
		BuyerTel:      buyerTel,
		BuyerEmail:    buyerEmail,
		PaymentData: model.JSONMap{
			"mid":       sig.MID,
			"timestamp": sig.Timestamp,
			"signature": sig.Signature,
		},
	}
	if err := s.paymentRepo.Create(payment); err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	logger.Info("Inicis payment prepared", map[string]interface{}{
		"user_id":  userID,
		"order_id": orderID,
		"amount":   input.Amount,
	})

	return &PreparePaymentResult{
		PaymentSignature: sig,
		PaymentID:        payment.ID,
		ProductName:      productName,
		BuyerName:        buyerName,
		BuyerTel:         buyerTel,
		BuyerEmail:       buyerEmail,
	}, nil
}

// completeTx 결제 완료 + 이용권 지급 + 파트너 매출 반영. 이미 완료면 grant는 nil.
func (s *paymentService) completeTx(tx *gorm.DB, orderID string, apply func(p *model.Payment)) (*model.Payment, *GrantResult, error) {
	repo := s.paymentRepo.WithTx(tx)

	payment, err := repo.FindByOrderIDForUpdate(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrPaymentNotFound
		}
		return nil, nil, err
	}
	if payment.Status == model.PaymentCompleted {
		return payment, nil, nil
	}
	if !payment.IsPayable() {
		logger.Warn("Refusing to complete payment", map[string]interface{}{
			"order_id": orderID,
			"status":   payment.Status,
		})
		return nil, nil, ErrPaymentNotPayable
	}

	now := s.now()
	payment.Status = model.PaymentCompleted
	payment.CompletedAt = &now
	if payment.PaymentData == nil {
		payment.PaymentData = model.JSONMap{}
	}
	apply(payment)
	if err := repo.Save(payment); err != nil {
		return nil, nil, err
	}

	grant, err := s.tokens.GrantForPayment(tx, payment)
	if err != nil {
		return nil, nil, err
	}
	if s.recorder != nil {
		if err := s.recorder.RecordPayment(tx, payment, grant); err != nil {
			return nil, nil, fmt.Errorf("failed to record referral payment: %w", err)
		}
	}
	return payment, grant, nil
}

// Verify 결제창 인증 결과 처리. 같은 주문을 두 번 검증해도 이용권은 한 번만 지급된다.
func (s *paymentService) Verify(userID uint, input VerifyPaymentInput) (*VerifyPaymentResult, error) {
	payment, err := s.paymentRepo.FindByOrderID(input.OrderID)
	if err != nil || payment.UserID != userID {
		logger.Warn("Payment not found for verification", map[string]interface{}{
			"order_id": input.OrderID,
			"user_id":  userID,
		})
		return nil, ErrPaymentNotFound
	}
	if payment.Status == model.PaymentCompleted {
		return &VerifyPaymentResult{Message: "이미 처리된 결제입니다.", AlreadyProcessed: true}, nil
	}
	if !payment.IsPayable() {
		return nil, ErrPaymentNotPayable
	}

	if input.AuthResultCode != inicis.AuthSuccessCode {
		payment.Status = model.PaymentFailed
		if payment.PaymentData == nil {
			payment.PaymentData = model.JSONMap{}
		}
		payment.PaymentData["authResultCode"] = input.AuthResultCode
		payment.PaymentData["authToken"] = input.AuthToken
		payment.PaymentData["failReason"] = firstNonEmpty(input.AuthResultMsg, "결제 실패")
		payment.PaymentData["authUrl"] = input.AuthURL
		payment.PaymentData["netCancelUrl"] = input.NetCancelURL
		payment.PaymentData["idc_name"] = input.IdcName
		if err := s.paymentRepo.Save(payment); err != nil {
			return nil, err
		}
		logger.Warn("Inicis payment failed", map[string]interface{}{
			"user_id":  userID,
			"order_id": input.OrderID,
			"code":     input.AuthResultCode,
		})
		return nil, ErrPaymentFailed
	}

	var (
		completed *model.Payment
		grant     *GrantResult
	)
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		completed, grant, err = s.completeTx(tx, input.OrderID, func(p *model.Payment) {
			p.TID = firstNonEmpty(input.TID, input.OrderID)
			if len(p.TID) > 200 {
				p.TID = p.TID[:200]
			}
			p.PaymentData["authToken"] = input.AuthToken
			p.PaymentData["authResultCode"] = input.AuthResultCode
			p.PaymentData["originalTid"] = input.TID
			p.PaymentData["authUrl"] = input.AuthURL
			p.PaymentData["netCancelUrl"] = input.NetCancelURL
			p.PaymentData["idc_name"] = input.IdcName
		})
		return err
	})
	if err != nil {
		logger.Error("Failed to complete payment", err, map[string]interface{}{
			"order_id": input.OrderID,
		})
		return nil, err
	}
	if grant == nil {
		return &VerifyPaymentResult{Message: "이미 처리된 결제입니다.", AlreadyProcessed: true}, nil
	}

	summary, err := s.tokens.Summary(userID)
	if err != nil {
		return nil, err
	}

	logger.Info("Inicis payment completed", map[string]interface{}{
		"user_id":    userID,
		"order_id":   input.OrderID,
		"amount":     completed.Amount,
		"token_type": grant.TokenType,
		"quantity":   grant.Quantity,
	})
	s.notifyPayment(completed, grant)

	return &VerifyPaymentResult{
		Message:     "결제가 완료되었습니다.",
		Grant:       grant,
		TotalTokens: summary.SingleCount,
	}, nil
}

// Cancel 사용자 결제 취소. 완료된 결제는 PG 환불 후 이용권을 만료시킨다.
func (s *paymentService) Cancel(ctx context.Context, userID uint, orderID, reason, clientIP string) (*model.Payment, error) {
	reason = firstNonEmpty(strings.TrimSpace(reason), "구매자 요청")

	var payment *model.Payment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.paymentRepo.WithTx(tx)

		p, err := repo.FindByOrderIDForUpdate(orderID)
		if err != nil || p.UserID != userID {
			return ErrPaymentNotFound
		}
		payment = p

		switch p.Status {
		case model.PaymentCancelled:
			return nil
		case model.PaymentPending, model.PaymentWaitingDeposit, model.PaymentCompleted:
		default:
			return ErrPaymentNotCancellable
		}

		if p.Status == model.PaymentCompleted {
			if err := s.tokens.RefundPaymentTokens(tx, p.ID); err != nil {
				if errors.Is(err, ErrTokenAlreadyUsed) {
					return ErrPaymentTokensUsed
				}
				return err
			}
			if _, err := s.gateway.Refund(ctx, p.TID, reason, nil, clientIP); err != nil {
				return fmt.Errorf("%w: %v", ErrRefundGatewayFailed, err)
			}
		}

		now := s.now()
		p.Status = model.PaymentCancelled
		p.CancelledAt = &now
		p.CancelReason = reason
		return repo.Save(p)
	})
	if err != nil {
		logger.Warn("Payment cancel failed", map[string]interface{}{
			"user_id":  userID,
			"order_id": orderID,
			"error":    err.Error(),
		})
		return nil, err
	}

	logger.Info("Payment cancelled", map[string]interface{}{
		"user_id":  userID,
		"order_id": orderID,
	})
	return payment, nil
}

// HandleWebhook 가상계좌 입금 통보. 알 수 없는 주문은 기록만 하고 성공으로 응답한다.
func (s *paymentService) HandleWebhook(input PaymentWebhookInput) error {
	if input.Type != "vbank" {
		logger.Debug("Ignoring inicis webhook", map[string]interface{}{
			"type": input.Type,
		})
		return nil
	}

	var (
		completed *model.Payment
		grant     *GrantResult
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		completed, grant, err = s.completeTx(tx, input.OrderID, func(p *model.Payment) {
			p.TID = firstNonEmpty(input.TID, p.TID)
			p.PaymentData["vbankDeposit"] = true
		})
		return err
	})
	if errors.Is(err, ErrPaymentNotFound) {
		logger.Error("Webhook payment not found", err, map[string]interface{}{
			"order_id": input.OrderID,
		})
		return nil
	}
	if errors.Is(err, ErrPaymentNotPayable) {
		// 취소/환불된 주문의 재통보는 이용권을 다시 지급하지 않는다
		return nil
	}
	if err != nil {
		return err
	}
	if grant != nil {
		logger.Info("Virtual account deposit completed", map[string]interface{}{
			"order_id": input.OrderID,
			"amount":   completed.Amount,
		})
		s.notifyPayment(completed, grant)
	}
	return nil
}

func (s *paymentService) bidTokenPage(params url.Values) string {
	return s.frontendURL + "/mypage/seller/bid-tokens?" + params.Encode()
}

// ReturnURL 결제창 returnUrl 처리 후 프론트엔드로 보낼 주소
func (s *paymentService) ReturnURL(resultCode, orderID, resultMsg string) string {
	params := url.Values{}
	if resultCode == inicis.AuthSuccessCode {
		params.Set("payment", "success")
		params.Set("orderId", orderID)
	} else {
		params.Set("payment", "failed")
		params.Set("msg", resultMsg)
	}
	return s.bidTokenPage(params)
}

func (s *paymentService) CloseURL() string {
	return s.bidTokenPage(url.Values{"payment": {"cancelled"}})
}

// refundBlocked 환불 불가 사유, 가능하면 빈 문자열
func (s *paymentService) refundBlocked(db *gorm.DB, payment *model.Payment) (string, error) {
	if payment.Status != model.PaymentCompleted {
		return "완료된 결제가 아닙니다", nil
	}
	if payment.RefundAmount != nil && *payment.RefundAmount > 0 {
		return "이미 환불 처리된 결제입니다", nil
	}
	if payment.CompletedAt != nil && payment.CompletedAt.Before(s.now().AddDate(0, 0, -s.policy.WindowDays)) {
		return fmt.Sprintf("환불 가능 기간(%d일)이 지났습니다", s.policy.WindowDays), nil
	}
	used, err := s.tokens.HasUsedPaymentTokens(db, payment.ID)
	if err != nil {
		return "", err
	}
	if used {
		return "이미 사용된 견적이용권이 있습니다", nil
	}
	return "", nil
}

func (s *paymentService) MyPayments(userID uint) ([]PaymentSummary, error) {
	payments, _, err := s.paymentRepo.FindByUser(userID, 1, 100)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, len(payments))
	for i := range payments {
		ids[i] = payments[i].ID
	}
	requested, err := s.paymentRepo.PaymentIDsWithRefundRequest(ids)
	if err != nil {
		return nil, err
	}

	result := make([]PaymentSummary, 0, len(payments))
	for i := range payments {
		p := &payments[i]
		summary := PaymentSummary{
			ID:               p.ID,
			OrderID:          p.OrderID,
			Amount:           p.Amount,
			ProductName:      p.ProductName,
			PayMethod:        p.PaymentMethod,
			Status:           p.Status,
			CreatedAt:        p.CreatedAt,
			HasRefundRequest: requested[p.ID],
		}
		if p.CompletedAt != nil {
			deadline := p.CompletedAt.AddDate(0, 0, s.policy.WindowDays)
			summary.RefundDeadline = &deadline
		}
		if p.Status == model.PaymentCompleted && !summary.HasRefundRequest {
			blocked, err := s.refundBlocked(s.db, p)
			if err != nil {
				return nil, err
			}
			summary.CanRefund = blocked == ""
		}
		result = append(result, summary)
	}
	return result, nil
}

func (s *paymentService) RequestRefund(userID uint, input RequestRefundInput) (*model.RefundRequest, error) {
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, ErrRefundReasonRequired
	}

	payment, err := s.paymentRepo.FindByID(input.PaymentID)
	if err != nil || payment.UserID != userID {
		return nil, ErrPaymentNotFound
	}

	open, err := s.paymentRepo.HasOpenRefundRequest(payment.ID)
	if err != nil {
		return nil, err
	}
	if open {
		return nil, ErrRefundAlreadyRequested
	}

	blocked, err := s.refundBlocked(s.db, payment)
	if err != nil {
		return nil, err
	}
	if blocked != "" {
		return nil, &RefundBlockedError{Reason: blocked}
	}

	amount := input.Amount
	if amount <= 0 {
		amount = payment.Amount
	}
	if amount > payment.Amount {
		return nil, ErrRefundInvalidAmount
	}

	req := &model.RefundRequest{
		UserID:        userID,
		PaymentID:     payment.ID,
		Reason:        reason,
		RequestAmount: amount,
		Status:        model.RefundPending,
	}
	if err := s.paymentRepo.CreateRefundRequest(req); err != nil {
		return nil, err
	}

	logger.Info("Refund requested", map[string]interface{}{
		"user_id":    userID,
		"payment_id": payment.ID,
		"amount":     amount,
	})
	if s.notifier != nil {
		s.notifier.NotifyAdmins(model.NotificationRefundProcessed,
			"새 환불 요청",
			fmt.Sprintf("%s 결제 %s원 환불 요청이 접수되었습니다.", payment.OrderID, formatWon(amount)),
			"/admin/refunds")
	}
	return req, nil
}

func (s *paymentService) MyRefundRequests(userID uint, page, pageSize int) ([]model.RefundRequest, int64, error) {
	return s.paymentRepo.FindRefundRequests(&userID, "", page, pageSize)
}

func (s *paymentService) GetRefundRequest(userID, requestID uint) (*model.RefundRequest, error) {
	req, err := s.paymentRepo.FindRefundRequestByID(requestID)
	if err != nil || req.UserID != userID {
		return nil, ErrRefundNotFound
	}
	return req, nil
}

func (s *paymentService) AdminRefundRequests(status model.RefundStatus, page, pageSize int) ([]model.RefundRequest, int64, error) {
	return s.paymentRepo.FindRefundRequests(nil, status, page, pageSize)
}

// ApproveRefund 요청 행을 잠그고 PG 환불을 호출한다.
// PG가 거절하면 요청은 거부 상태로 커밋되고 ErrRefundGatewayFailed를 돌려준다.
func (s *paymentService) ApproveRefund(ctx context.Context, requestID, adminID uint, adminNote, clientIP string) (*model.RefundRequest, error) {
	var (
		result     *model.RefundRequest
		payment    *model.Payment
		gatewayErr error
	)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.paymentRepo.WithTx(tx)

		req, err := repo.FindRefundRequestForUpdate(requestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRefundNotFound
			}
			return err
		}
		if req.Status != model.RefundPending {
			return ErrRefundAlreadyProcessed
		}

		p, err := repo.FindByIDForUpdate(req.PaymentID)
		if err != nil {
			return ErrPaymentNotFound
		}
		payment = p

		blocked, err := s.refundBlocked(tx, p)
		if err != nil {
			return err
		}
		if blocked != "" {
			return &RefundBlockedError{Reason: blocked}
		}

		now := s.now()
		req.ProcessedByID = &adminID
		req.ProcessedAt = &now

		var partial *int64
		if req.RequestAmount < p.Amount {
			amount := req.RequestAmount
			partial = &amount
		}

		resp, err := s.gateway.Refund(ctx, p.TID, req.Reason, partial, clientIP)
		if err != nil {
			msg := err.Error()
			if resp != nil && resp.ResultMsg != "" {
				msg = resp.ResultMsg
			}
			req.Status = model.RefundRejected
			req.AdminNote = "이니시스 환불 실패: " + msg
			if adminNote != "" {
				req.AdminNote += " (관리자 메모: " + adminNote + ")"
			}
			if resp != nil {
				req.RefundData = resp.ToMap()
			}
			gatewayErr = fmt.Errorf("%w: %s", ErrRefundGatewayFailed, msg)
			result = req
			return repo.SaveRefundRequest(req)
		}

		req.Status = model.RefundApproved
		req.AdminNote = adminNote
		req.RefundMethod = string(model.PaymentMethodInicis)
		req.RefundData = resp.ToMap()
		if err := repo.SaveRefundRequest(req); err != nil {
			return err
		}

		refunded := req.RequestAmount
		p.Status = model.PaymentRefunded
		p.RefundAmount = &refunded
		p.CancelledAt = &now
		p.CancelReason = "환불 승인: " + req.Reason
		if err := repo.Save(p); err != nil {
			return err
		}

		if err := s.tokens.RefundPaymentTokens(tx, p.ID); err != nil {
			return err
		}
		result = req
		return nil
	})
	if err != nil {
		logger.Warn("Refund approval failed", map[string]interface{}{
			"refund_id": requestID,
			"error":     err.Error(),
		})
		return nil, err
	}
	if gatewayErr != nil {
		logger.Error("Inicis refund rejected", gatewayErr, map[string]interface{}{
			"refund_id":  requestID,
			"payment_id": payment.ID,
		})
		return result, gatewayErr
	}

	logger.Info("Refund approved", map[string]interface{}{
		"refund_id":  requestID,
		"payment_id": payment.ID,
		"admin_id":   adminID,
		"amount":     result.RequestAmount,
	})
	s.notifyRefund(result, true)
	return result, nil
}

func (s *paymentService) RejectRefund(requestID, adminID uint, reason, adminNote string) (*model.RefundRequest, error) {
	reason = firstNonEmpty(strings.TrimSpace(reason), "관리자 판단")

	var result *model.RefundRequest
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.paymentRepo.WithTx(tx)

		req, err := repo.FindRefundRequestForUpdate(requestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRefundNotFound
			}
			return err
		}
		if req.Status != model.RefundPending {
			return ErrRefundAlreadyProcessed
		}

		now := s.now()
		req.Status = model.RefundRejected
		req.AdminNote = "거부 사유: " + reason
		if adminNote != "" {
			req.AdminNote += " (상세: " + adminNote + ")"
		}
		req.ProcessedByID = &adminID
		req.ProcessedAt = &now
		result = req
		return repo.SaveRefundRequest(req)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Refund rejected", map[string]interface{}{
		"refund_id": requestID,
		"admin_id":  adminID,
		"reason":    reason,
	})
	s.notifyRefund(result, false)
	return result, nil
}

func (s *paymentService) notifyPayment(payment *model.Payment, grant *GrantResult) {
	if s.notifier == nil || grant == nil {
		return
	}
	content := fmt.Sprintf("견적 이용권 %d개가 지급되었습니다.", grant.Quantity)
	if grant.TokenType == model.BidTokenUnlimited && grant.ExpiresAt != nil {
		content = fmt.Sprintf("무제한 구독권이 %s까지 적용됩니다.", grant.ExpiresAt.Format("2006-01-02"))
	}
	s.notifier.Notify(&model.Notification{
		UserID:  payment.UserID,
		Type:    model.NotificationPaymentComplete,
		Title:   "결제가 완료되었습니다",
		Content: content,
		Link:    "/mypage/seller/bid-tokens",
	})
}

func (s *paymentService) notifyRefund(req *model.RefundRequest, approved bool) {
	if s.notifier == nil || req == nil {
		return
	}
	title := "환불이 승인되었습니다"
	content := fmt.Sprintf("%s원이 환불 처리되었습니다.", formatWon(req.RequestAmount))
	if !approved {
		title = "환불 요청이 거부되었습니다"
		content = req.AdminNote
	}
	s.notifier.Notify(&model.Notification{
		UserID:  req.UserID,
		Type:    model.NotificationRefundProcessed,
		Title:   title,
		Content: content,
		Link:    "/mypage/payments",
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

package controller

import (
	"net/http"

	"github.com/dungji/dungji-market-backend/internal/app/model"
	"github.com/dungji/dungji-market-backend/internal/app/service"
	"github.com/dungji/dungji-market-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

type PaymentController struct {
	paymentService service.PaymentService
}

func NewPaymentController(paymentService service.PaymentService) *PaymentController {
	return &PaymentController{
		paymentService: paymentService,
	}
}

// CancelPaymentRequest represents the request to cancel a payment
type CancelPaymentRequest struct {
	OrderID string `json:"orderId" binding:"required"`
	Reason  string `json:"reason"`
}

type RefundDecisionRequest struct {
	AdminNote string `json:"admin_note"`
	Reason    string `json:"reason"` // 거절 시 필수
}

// Prepare 결제창 호출 전 서명값 생성
// POST /api/v1/payments/inicis/prepare
func (ctrl *PaymentController) Prepare(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req service.PreparePaymentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "")
		return
	}

	result, err := ctrl.paymentService.Prepare(userID, req)
	if err != nil {
		respondServiceError(c, err, "prepare payment")
		return
	}

	log.Info("Payment prepared", map[string]interface{}{
		"user_id":  userID,
		"order_id": result.OrderID,
		"amount":   req.Amount,
	})
	c.JSON(http.StatusOK, result)
}

// Verify 결제 인증 결과 확인 후 이용권 지급
// POST /api/v1/payments/inicis/verify
func (ctrl *PaymentController) Verify(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req service.VerifyPaymentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "주문번호가 필요합니다")
		return
	}

	result, err := ctrl.paymentService.Verify(userID, req)
	if err != nil {
		respondServiceError(c, err, "verify payment")
		return
	}

	log.Info("Payment verified", map[string]interface{}{
		"user_id":           userID,
		"order_id":          req.OrderID,
		"already_processed": result.AlreadyProcessed,
	})
	c.JSON(http.StatusOK, result)
}

// Cancel 결제 취소 (완료된 결제는 PG 환불 후 이용권 회수)
// POST /api/v1/payments/inicis/cancel
func (ctrl *PaymentController) Cancel(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req CancelPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "주문번호가 필요합니다")
		return
	}

	payment, err := ctrl.paymentService.Cancel(c.Request.Context(), userID, req.OrderID, req.Reason, c.ClientIP())
	if err != nil {
		respondServiceError(c, err, "cancel payment")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "결제가 취소되었습니다",
		"payment": payment,
	})
}

// Webhook 가상계좌 입금 통보. PG 재전송을 막기 위해 항상 OK로 응답한다.
// POST /api/v1/payments/inicis/webhook
func (ctrl *PaymentController) Webhook(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req service.PaymentWebhookInput
	if err := c.ShouldBind(&req); err != nil {
		log.Warn("Invalid inicis webhook payload", map[string]interface{}{
			"error": err.Error(),
		})
		c.String(http.StatusOK, "OK")
		return
	}

	if err := ctrl.paymentService.HandleWebhook(req); err != nil {
		log.Error("Failed to handle inicis webhook", err, map[string]interface{}{
			"order_id": req.OrderID,
			"type":     req.Type,
		})
	}
	c.String(http.StatusOK, "OK")
}

// Return 결제창 인증 후 PG가 POST로 돌려보내는 주소. 프론트 페이지로 리다이렉트.
// POST /api/v1/payments/inicis/return
func (ctrl *PaymentController) Return(c *gin.Context) {
	resultCode := c.PostForm("resultCode")
	orderID := c.PostForm("orderNumber")
	if orderID == "" {
		orderID = c.PostForm("oid")
	}

	middleware.GetLoggerFromContext(c).Info("Inicis auth returned", map[string]interface{}{
		"result_code": resultCode,
		"order_id":    orderID,
	})
	c.Redirect(http.StatusSeeOther, ctrl.paymentService.ReturnURL(resultCode, orderID, c.PostForm("resultMsg")))
}

// Close 결제창 닫기
// GET /api/v1/payments/inicis/close
func (ctrl *PaymentController) Close(c *gin.Context) {
	c.Redirect(http.StatusSeeOther, ctrl.paymentService.CloseURL())
}

// MyPayments GET /api/v1/payments/my
func (ctrl *PaymentController) MyPayments(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	payments, err := ctrl.paymentService.MyPayments(userID)
	if err != nil {
		respondServiceError(c, err, "my payments")
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

// RequestRefund POST /api/v1/payments/refund-requests
func (ctrl *PaymentController) RequestRefund(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req service.RequestRefundInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "")
		return
	}

	request, err := ctrl.paymentService.RequestRefund(userID, req)
	if err != nil {
		respondServiceError(c, err, "request refund")
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":        "환불 요청이 접수되었습니다",
		"refund_request": request,
	})
}

// MyRefundRequests GET /api/v1/payments/refund-requests
func (ctrl *PaymentController) MyRefundRequests(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	page, pageSize := pageParams(c)

	requests, total, err := ctrl.paymentService.MyRefundRequests(userID, page, pageSize)
	if err != nil {
		respondServiceError(c, err, "my refund requests")
		return
	}
	c.JSON(http.StatusOK, paged(requests, total, page, pageSize))
}

// GetRefundRequest GET /api/v1/payments/refund-requests/:id
func (ctrl *PaymentController) GetRefundRequest(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	request, err := ctrl.paymentService.GetRefundRequest(userID, id)
	if err != nil {
		respondServiceError(c, err, "get refund request")
		return
	}
	c.JSON(http.StatusOK, gin.H{"refund_request": request})
}

// AdminRefundRequests GET /api/v1/admin/refund-requests?status=
func (ctrl *PaymentController) AdminRefundRequests(c *gin.Context) {
	page, pageSize := pageParams(c)

	requests, total, err := ctrl.paymentService.AdminRefundRequests(model.RefundStatus(c.Query("status")), page, pageSize)
	if err != nil {
		respondServiceError(c, err, "admin refund requests")
		return
	}
	c.JSON(http.StatusOK, paged(requests, total, page, pageSize))
}

// ApproveRefund POST /api/v1/admin/refund-requests/:id/approve
func (ctrl *PaymentController) ApproveRefund(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	adminID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req RefundDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		bindError(c, err, "")
		return
	}

	request, err := ctrl.paymentService.ApproveRefund(c.Request.Context(), id, adminID, req.AdminNote, c.ClientIP())
	if err != nil {
		respondServiceError(c, err, "approve refund")
		return
	}

	log.Info("Refund approved", map[string]interface{}{
		"refund_request_id": id,
		"admin_id":          adminID,
	})
	c.JSON(http.StatusOK, gin.H{
		"message":        "환불이 승인되었습니다",
		"refund_request": request,
	})
}

// RejectRefund POST /api/v1/admin/refund-requests/:id/reject
func (ctrl *PaymentController) RejectRefund(c *gin.Context) {
	adminID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req RefundDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "거절 사유를 입력해주세요")
		return
	}

	request, err := ctrl.paymentService.RejectRefund(id, adminID, req.Reason, req.AdminNote)
	if err != nil {
		respondServiceError(c, err, "reject refund")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":        "환불 요청이 거절되었습니다",
		"refund_request": request,
	})
}

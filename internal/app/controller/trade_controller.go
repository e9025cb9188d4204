package controller

import (
	"net/http"

	"github.com/dungji/dungji-market-backend/internal/app/model"
	"github.com/dungji/dungji-market-backend/internal/app/service"
	"github.com/dungji/dungji-market-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

type TradeController struct {
	tradeService service.TradeService
}

func NewTradeController(tradeService service.TradeService) *TradeController {
	return &TradeController{tradeService: tradeService}
}

type CancelTradeRequest struct {
	Reason       string `json:"reason" binding:"required"`
	Detail       string `json:"detail"`
	ReturnToSale *bool  `json:"return_to_sale"`
}

// Complete 판매자 거래완료
// POST /api/v1/used/items/:id/complete
func (ctrl *TradeController) Complete(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	trade, err := ctrl.tradeService.Complete(itemID, userID)
	if err != nil {
		respondServiceError(c, err, "complete trade")
		return
	}

	log.Info("Trade completed", map[string]interface{}{
		"item_id":     itemID,
		"trade_id":    trade.ID,
		"final_price": trade.FinalPrice,
	})
	c.JSON(http.StatusOK, gin.H{
		"message":     "거래가 완료되었습니다",
		"transaction": trade,
	})
}

// Cancel 거래 취소. 판매자는 판매중 복귀 여부를 선택할 수 있다.
// POST /api/v1/used/items/:id/cancel-trade
func (ctrl *TradeController) Cancel(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req CancelTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "취소 사유를 선택해주세요")
		return
	}

	trade, err := ctrl.tradeService.Cancel(itemID, userID, service.CancelTradeInput{
		Reason:       req.Reason,
		Detail:       req.Detail,
		ReturnToSale: req.ReturnToSale,
	})
	if err != nil {
		respondServiceError(c, err, "cancel trade")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":     "거래가 취소되었습니다",
		"transaction": trade,
	})
}

// TransactionInfo GET /api/v1/used/items/:id/transaction
func (ctrl *TradeController) TransactionInfo(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	trade, err := ctrl.tradeService.TransactionInfo(itemID, userID)
	if err != nil {
		respondServiceError(c, err, "transaction info")
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": trade})
}

// BuyerInfo GET /api/v1/used/items/:id/buyer-info
func (ctrl *TradeController) BuyerInfo(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	contact, err := ctrl.tradeService.BuyerInfo(itemID, userID)
	if err != nil {
		respondServiceError(c, err, "buyer info")
		return
	}
	c.JSON(http.StatusOK, gin.H{"buyer": contact})
}

// SellerInfo GET /api/v1/used/items/:id/seller-info
func (ctrl *TradeController) SellerInfo(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	contact, err := ctrl.tradeService.SellerInfo(itemID, userID)
	if err != nil {
		respondServiceError(c, err, "seller info")
		return
	}
	c.JSON(http.StatusOK, gin.H{"seller": contact})
}

// MyTransactions GET /api/v1/used/my/transactions?status=
func (ctrl *TradeController) MyTransactions(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	trades, err := ctrl.tradeService.MyTransactions(userID, model.TransactionStatus(c.Query("status")))
	if err != nil {
		respondServiceError(c, err, "my transactions")
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": trades})
}

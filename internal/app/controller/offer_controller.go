package controller

import (
	"net/http"

	"github.com/dungji/dungji-market-backend/internal/app/model"
	"github.com/dungji/dungji-market-backend/internal/app/service"
	"github.com/dungji/dungji-market-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

type OfferController struct {
	offerService service.OfferService
}

func NewOfferController(offerService service.OfferService) *OfferController {
	return &OfferController{offerService: offerService}
}

// MakeOfferRequest 판매가와 같은 금액이면 즉시 구매로 처리된다
type MakeOfferRequest struct {
	Price   *int64 `json:"price"`
	Message string `json:"message" binding:"max=200"`
}

type RespondOfferRequest struct {
	Action string `json:"action" binding:"required,oneof=accept reject"`
}

// MakeOffer POST /api/v1/used/items/:id/offers
func (ctrl *OfferController) MakeOffer(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req MakeOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "")
		return
	}

	result, err := ctrl.offerService.MakeOffer(itemID, userID, req.Price, req.Message)
	if err != nil {
		respondServiceError(c, err, "make offer")
		return
	}

	log.Info("Offer submitted", map[string]interface{}{
		"item_id":          itemID,
		"buyer_id":         userID,
		"offer_id":         result.Offer.ID,
		"instant_purchase": result.InstantPurchase,
	})
	c.JSON(http.StatusCreated, result)
}

// CancelOffer POST /api/v1/used/offers/:id/cancel
func (ctrl *OfferController) CancelOffer(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	offerID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	offer, err := ctrl.offerService.CancelOffer(offerID, userID)
	if err != nil {
		respondServiceError(c, err, "cancel offer")
		return
	}
	c.JSON(http.StatusOK, gin.H{"offer": offer})
}

// MyOfferForItem GET /api/v1/used/items/:id/my-offer
func (ctrl *OfferController) MyOfferForItem(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	status, err := ctrl.offerService.MyOfferForItem(itemID, userID)
	if err != nil {
		respondServiceError(c, err, "my offer for item")
		return
	}
	c.JSON(http.StatusOK, status)
}

// ReceivedOffers 판매자 전용
// GET /api/v1/used/items/:id/offers
func (ctrl *OfferController) ReceivedOffers(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	offers, err := ctrl.offerService.ReceivedOffers(itemID, userID)
	if err != nil {
		respondServiceError(c, err, "received offers")
		return
	}
	c.JSON(http.StatusOK, gin.H{"offers": offers})
}

// MyOffers GET /api/v1/used/my/offers?status=
func (ctrl *OfferController) MyOffers(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	offers, err := ctrl.offerService.MyOffers(userID, model.OfferStatus(c.Query("status")))
	if err != nil {
		respondServiceError(c, err, "my offers")
		return
	}
	c.JSON(http.StatusOK, gin.H{"offers": offers})
}

// Respond 제안 수락/거절
// POST /api/v1/used/offers/:id/respond
func (ctrl *OfferController) Respond(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	offerID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req RespondOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "accept 또는 reject를 선택해주세요")
		return
	}

	offer, err := ctrl.offerService.Respond(offerID, userID, service.OfferAction(req.Action))
	if err != nil {
		respondServiceError(c, err, "respond offer")
		return
	}

	log.Info("Offer responded", map[string]interface{}{
		"offer_id": offerID,
		"action":   req.Action,
	})
	c.JSON(http.StatusOK, gin.H{"offer": offer})
}

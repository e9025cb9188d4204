package service

import (
	"errors"
	"fmt"

	"github.com/dungji/dungji-market-backend/config"
	"github.com/dungji/dungji-market-backend/internal/app/model"
	"github.com/dungji/dungji-market-backend/internal/app/repository"
	"github.com/dungji/dungji-market-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrOfferNotFound      = errors.New("제안을 찾을 수 없습니다.")
	ErrOfferItemTrading   = errors.New("거래중인 상품에는 제안할 수 없습니다.")
	ErrOfferItemClosed    = errors.New("판매중인 상품에만 제안할 수 있습니다.")
	ErrOfferSelf          = errors.New("본인 상품에는 제안할 수 없습니다.")
	ErrOfferLimit         = errors.New("해당 상품에 제안 가능한 횟수를 초과했습니다.")
	ErrOfferPriceRequired = errors.New("제안 금액을 입력해주세요.")
	ErrOfferBelowMin      = errors.New("최소 제안 금액보다 낮습니다.")
	ErrOfferAboveAsking   = errors.New("제안 금액은 즉시 구매가를 초과할 수 없습니다.")
	ErrOfferNotPending    = errors.New("이미 응답한 제안입니다.")
	ErrOfferSellerOnly    = errors.New("판매자만 제안 목록을 조회할 수 있습니다.")
	ErrOfferInvalidAction = errors.New("잘못된 액션입니다.")
	ErrTradeInProgress    = errors.New("이미 진행중인 거래가 있습니다.")
)

// offerError 기준 에러는 유지하고 금액이 들어간 문구로 바꾼다
type offerError struct {
	base error
	msg  string
}

func (e *offerError) Error() string { return e.msg }
func (e *offerError) Unwrap() error { return e.base }

type OfferAction string

const (
	OfferActionAccept OfferAction = "accept"
	OfferActionReject OfferAction = "reject"
)

// TradeContact 거래 상대방 연락처. 거래중일 때만 공개된다.
type TradeContact struct {
	ID           uint   `json:"id"`
	Nickname     string `json:"nickname"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	Region       string `json:"region"`
	ProfileImage string `json:"profile_image"`
	OfferedPrice int64  `json:"offered_price"`
	Message      string `json:"message"`
}

type OfferResult struct {
	Offer           *model.UsedOffer `json:"offer"`
	InstantPurchase bool             `json:"instant_purchase"`
	Message         string           `json:"message,omitempty"`
	SellerContact   *TradeContact    `json:"seller_contact,omitempty"`
}

// MyOfferStatus 상품에 대한 내 최신 제안과 제안 횟수
type MyOfferStatus struct {
	Offer          *model.UsedOffer `json:"offer"`
	UserOfferCount int64            `json:"user_offer_count"`
	RemainingCount int64            `json:"remaining_count"`
}

type OfferService interface {
	MakeOffer(itemID, buyerID uint, price *int64, message string) (*OfferResult, error)
	CancelOffer(offerID, buyerID uint) (*model.UsedOffer, error)
	MyOfferForItem(itemID, buyerID uint) (*MyOfferStatus, error)
	ReceivedOffers(itemID, sellerID uint) ([]model.UsedOffer, error)
	MyOffers(buyerID uint, status model.OfferStatus) ([]model.UsedOffer, error)
	Respond(offerID, sellerID uint, action OfferAction) (*model.UsedOffer, error)
}

type offerService struct {
	db        *gorm.DB
	itemRepo  repository.UsedItemRepository
	offerRepo repository.OfferRepository
	txRepo    repository.TransactionRepository
	userRepo  repository.UserRepository
	notifier  Notifier
	policy    config.UsedPolicy
}

func NewOfferService(
	db *gorm.DB,
	itemRepo repository.UsedItemRepository,
	offerRepo repository.OfferRepository,
	txRepo repository.TransactionRepository,
	userRepo repository.UserRepository,
	notifier Notifier,
	policy config.UsedPolicy,
) OfferService {
	return &offerService{
		db:        db,
		itemRepo:  itemRepo,
		offerRepo: offerRepo,
		txRepo:    txRepo,
		userRepo:  userRepo,
		notifier:  notifier,
		policy:    policy,
	}
}

// refreshOfferCount offer_count = 대기중 제안을 가진 구매자 수
func refreshOfferCount(itemRepo repository.UsedItemRepository, offerRepo repository.OfferRepository, itemID uint) error {
	count, err := offerRepo.CountPendingBuyers(itemID)
	if err != nil {
		return err
	}
	return itemRepo.UpdateFields(itemID, map[string]interface{}{"offer_count": count})
}

// openTransaction 상품당 거래는 하나. 취소된 거래가 있으면 재사용한다.
func openTransaction(txRepo repository.TransactionRepository, item *model.UsedItem, offer *model.UsedOffer) (*model.UsedTransaction, error) {
	existing, err := txRepo.FindByItemIDForUpdate(item.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	offerID := offer.ID
	if existing != nil {
		if existing.Status != model.TransactionCancelled {
			return nil, ErrTradeInProgress
		}
		existing.BuyerID = offer.BuyerID
		existing.SellerID = item.SellerID
		existing.OfferID = &offerID
		existing.FinalPrice = offer.OfferedPrice
		existing.Status = model.TransactionInProgress
		existing.SellerCompleted = false
		existing.BuyerCompleted = false
		existing.SellerCompletedAt = nil
		existing.BuyerCompletedAt = nil
		existing.CompletedAt = nil
		existing.CancelledBy = ""
		existing.CancellationReason = ""
		existing.CancellationDetail = ""
		existing.CancelledAt = nil
		if err := txRepo.Save(existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	transaction := &model.UsedTransaction{
		ItemID:     item.ID,
		SellerID:   item.SellerID,
		BuyerID:    offer.BuyerID,
		OfferID:    &offerID,
		FinalPrice: offer.OfferedPrice,
		Status:     model.TransactionInProgress,
	}
	if err := txRepo.Save(transaction); err != nil {
		return nil, err
	}
	return transaction, nil
}

func contactOf(user *model.User, price int64, message string) *TradeContact {
	if user == nil {
		return nil
	}
	return &TradeContact{
		ID:           user.ID,
		Nickname:     user.Nickname,
		Phone:        user.Phone,
		Email:        user.Email,
		Region:       user.Region,
		ProfileImage: user.ProfileImage,
		OfferedPrice: price,
		Message:      message,
	}
}

func (s *offerService) MakeOffer(itemID, buyerID uint, price *int64, message string) (*OfferResult, error) {
	logger.Info("Making offer", map[string]interface{}{
		"item_id":  itemID,
		"buyer_id": buyerID,
	})

	var (
		result *OfferResult
		item   *model.UsedItem
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		itemRepo := s.itemRepo.WithTx(tx)
		offerRepo := s.offerRepo.WithTx(tx)

		var err error
		item, err = itemRepo.FindByIDForUpdate(itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUsedItemNotFound
			}
			return err
		}

		switch item.Status {
		case model.UsedStatusTrading:
			return ErrOfferItemTrading
		case model.UsedStatusActive:
		case model.UsedStatusDeleted:
			return ErrUsedItemNotFound
		default:
			return ErrOfferItemClosed
		}
		if item.SellerID == buyerID {
			return ErrOfferSelf
		}

		// 취소된 제안도 횟수에 포함된다
		count, err := offerRepo.CountByItemAndBuyer(itemID, buyerID)
		if err != nil {
			return err
		}
		if count >= int64(s.policy.MaxOffersPerBuyer) {
			return &offerError{
				base: ErrOfferLimit,
				msg:  fmt.Sprintf("해당 상품에 최대 %d회까지만 제안 가능합니다.", s.policy.MaxOffersPerBuyer),
			}
		}

		if price == nil || *price <= 0 {
			return ErrOfferPriceRequired
		}
		offered := *price
		if item.MinOfferPrice != nil && offered < *item.MinOfferPrice {
			return &offerError{
				base: ErrOfferBelowMin,
				msg:  fmt.Sprintf("최소 제안 금액은 %s원입니다.", formatWon(*item.MinOfferPrice)),
			}
		}
		if offered > item.Price {
			return &offerError{
				base: ErrOfferAboveAsking,
				msg:  fmt.Sprintf("제안 금액은 즉시 구매가(%s원)를 초과할 수 없습니다.", formatWon(item.Price)),
			}
		}

		if _, err := offerRepo.CancelPendingByItemAndBuyer(itemID, buyerID); err != nil {
			return err
		}

		offer := &model.UsedOffer{
			ItemID:       itemID,
			BuyerID:      buyerID,
			OfferedPrice: offered,
			Message:      message,
			Status:       model.OfferPending,
		}
		if err := offerRepo.Create(offer); err != nil {
			return err
		}
		if err := refreshOfferCount(itemRepo, offerRepo, itemID); err != nil {
			return err
		}

		result = &OfferResult{Offer: offer}
		if offered != item.Price {
			return nil
		}

		// 즉시구매: 자동 수락. 다른 대기중 제안은 그대로 둔다.
		if _, err := openTransaction(s.txRepo.WithTx(tx), item, offer); err != nil {
			return err
		}
		if err := offerRepo.UpdateStatus(offer.ID, model.OfferAccepted); err != nil {
			return err
		}
		offer.Status = model.OfferAccepted
		if err := itemRepo.UpdateFields(itemID, map[string]interface{}{
			"status":   model.UsedStatusTrading,
			"buyer_id": buyerID,
		}); err != nil {
			return err
		}

		seller, err := s.userRepo.WithTx(tx).FindByID(item.SellerID)
		if err != nil {
			return err
		}
		result.InstantPurchase = true
		result.Message = "즉시구매가 완료되었습니다. 판매자와 연락처가 공개됩니다."
		result.SellerContact = contactOf(seller, offered, "")
		return nil
	})
	if err != nil {
		logger.Warn("Offer rejected", map[string]interface{}{
			"item_id":  itemID,
			"buyer_id": buyerID,
			"reason":   err.Error(),
		})
		return nil, err
	}

	s.notifyOffer(item, result)
	return result, nil
}

func (s *offerService) notifyOffer(item *model.UsedItem, result *OfferResult) {
	if s.notifier == nil {
		return
	}
	itemID := item.ID
	buyerID := result.Offer.BuyerID
	if result.InstantPurchase {
		s.notifier.Notify(&model.Notification{
			UserID:        item.SellerID,
			Type:          model.NotificationOfferAccepted,
			Title:         "즉시구매 요청",
			Content:       fmt.Sprintf("'%s' 상품이 즉시구매되어 거래가 시작되었습니다.", item.Title),
			Link:          fmt.Sprintf("/used/%d", item.ID),
			RelatedItemID: &itemID,
			RelatedUserID: &buyerID,
		})
		return
	}
	s.notifier.Notify(&model.Notification{
		UserID:        item.SellerID,
		Type:          model.NotificationOfferReceived,
		Title:         "새로운 가격 제안",
		Content:       fmt.Sprintf("'%s' 상품에 %s원 제안이 도착했습니다.", item.Title, formatWon(result.Offer.OfferedPrice)),
		Link:          fmt.Sprintf("/used/%d/offers", item.ID),
		RelatedItemID: &itemID,
		RelatedUserID: &buyerID,
	})
}

// CancelOffer 구매자 본인의 대기중 제안만 취소
func (s *offerService) CancelOffer(offerID, buyerID uint) (*model.UsedOffer, error) {
	var offer *model.UsedOffer
	err := s.db.Transaction(func(tx *gorm.DB) error {
		offerRepo := s.offerRepo.WithTx(tx)

		var err error
		offer, err = offerRepo.FindByIDForUpdate(offerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOfferNotFound
			}
			return err
		}
		if offer.BuyerID != buyerID || offer.Status != model.OfferPending {
			return ErrOfferNotFound
		}

		if err := offerRepo.UpdateStatus(offer.ID, model.OfferCancelled); err != nil {
			return err
		}
		offer.Status = model.OfferCancelled
		return refreshOfferCount(s.itemRepo.WithTx(tx), offerRepo, offer.ItemID)
	})
	if err != nil {
		return nil, err
	}
	return offer, nil
}

func (s *offerService) MyOfferForItem(itemID, buyerID uint) (*MyOfferStatus, error) {
	offers, err := s.offerRepo.FindByBuyer(buyerID, "")
	if err != nil {
		return nil, err
	}

	status := &MyOfferStatus{}
	for i := range offers {
		if offers[i].ItemID != itemID {
			continue
		}
		if status.Offer == nil {
			status.Offer = &offers[i]
		}
		status.UserOfferCount++
	}
	if remaining := int64(s.policy.MaxOffersPerBuyer) - status.UserOfferCount; remaining > 0 {
		status.RemainingCount = remaining
	}
	return status, nil
}

func (s *offerService) ReceivedOffers(itemID, sellerID uint) ([]model.UsedOffer, error) {
	item, err := s.itemRepo.FindByID(itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUsedItemNotFound
		}
		return nil, err
	}
	if item.SellerID != sellerID {
		return nil, ErrOfferSellerOnly
	}
	return s.offerRepo.FindByItem(itemID, "")
}

func (s *offerService) MyOffers(buyerID uint, status model.OfferStatus) ([]model.UsedOffer, error) {
	return s.offerRepo.FindByBuyer(buyerID, status)
}

// Respond 판매자 수락/거절. 수동 수락은 나머지 대기중 제안을 거절한다.
func (s *offerService) Respond(offerID, sellerID uint, action OfferAction) (*model.UsedOffer, error) {
	if action != OfferActionAccept && action != OfferActionReject {
		return nil, ErrOfferInvalidAction
	}

	var (
		offer    *model.UsedOffer
		item     *model.UsedItem
		rejected []uint
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		itemRepo := s.itemRepo.WithTx(tx)
		offerRepo := s.offerRepo.WithTx(tx)

		var err error
		offer, err = offerRepo.FindByIDForUpdate(offerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOfferNotFound
			}
			return err
		}
		item, err = itemRepo.FindByIDForUpdate(offer.ItemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOfferNotFound
			}
			return err
		}
		if item.SellerID != sellerID {
			return ErrOfferNotFound
		}
		if offer.Status != model.OfferPending {
			return ErrOfferNotPending
		}

		if action == OfferActionReject {
			if err := offerRepo.UpdateStatus(offer.ID, model.OfferRejected); err != nil {
				return err
			}
			offer.Status = model.OfferRejected
			return refreshOfferCount(itemRepo, offerRepo, item.ID)
		}

		if item.Status != model.UsedStatusActive {
			return ErrOfferItemTrading
		}
		if _, err := openTransaction(s.txRepo.WithTx(tx), item, offer); err != nil {
			return err
		}
		if err := offerRepo.UpdateStatus(offer.ID, model.OfferAccepted); err != nil {
			return err
		}
		offer.Status = model.OfferAccepted

		others, err := offerRepo.FindByItem(item.ID, model.OfferPending)
		if err != nil {
			return err
		}
		for _, o := range others {
			if o.ID != offer.ID {
				rejected = append(rejected, o.BuyerID)
			}
		}
		if _, err := offerRepo.RejectOtherPending(item.ID, offer.ID); err != nil {
			return err
		}

		if err := itemRepo.UpdateFields(item.ID, map[string]interface{}{
			"status":   model.UsedStatusTrading,
			"buyer_id": offer.BuyerID,
		}); err != nil {
			return err
		}
		return refreshOfferCount(itemRepo, offerRepo, item.ID)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Offer responded", map[string]interface{}{
		"offer_id": offer.ID,
		"item_id":  item.ID,
		"status":   offer.Status,
	})
	s.notifyResponse(item, offer, rejected)
	return offer, nil
}

func (s *offerService) notifyResponse(item *model.UsedItem, offer *model.UsedOffer, rejected []uint) {
	if s.notifier == nil {
		return
	}
	itemID := item.ID
	link := fmt.Sprintf("/used/%d", item.ID)

	if offer.Status == model.OfferAccepted {
		s.notifier.Notify(&model.Notification{
			UserID:        offer.BuyerID,
			Type:          model.NotificationOfferAccepted,
			Title:         "제안 수락",
			Content:       fmt.Sprintf("'%s' 상품에 대한 제안이 수락되었습니다. 판매자 연락처를 확인하세요.", item.Title),
			Link:          link,
			RelatedItemID: &itemID,
		})
	} else {
		rejected = append(rejected, offer.BuyerID)
	}

	for _, buyerID := range rejected {
		s.notifier.Notify(&model.Notification{
			UserID:        buyerID,
			Type:          model.NotificationOfferRejected,
			Title:         "제안 거절",
			Content:       fmt.Sprintf("'%s' 상품에 대한 제안이 거절되었습니다.", item.Title),
			Link:          link,
			RelatedItemID: &itemID,
		})
	}
}

// formatWon 1234567 -> "1,234,567"
func formatWon(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	s := fmt.Sprintf("%d", amount)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return sign + s
}

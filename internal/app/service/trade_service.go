package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dungji/dungji-market-backend/internal/app/model"
	"github.com/dungji/dungji-market-backend/internal/app/repository"
	"github.com/dungji/dungji-market-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrTradeNotFound         = errors.New("거래 정보를 찾을 수 없습니다.")
	ErrTradeSellerOnly       = errors.New("판매자만 거래를 완료할 수 있습니다.")
	ErrTradeBuyerCannotClose = errors.New("구매자는 거래를 완료할 수 없습니다. 판매자가 거래를 완료해야 합니다.")
	ErrTradeAlreadyCompleted = errors.New("이미 거래가 완료되었습니다.")
	ErrTradePartyOnly        = errors.New("거래 당사자만 조회할 수 있습니다.")
	ErrTradeCancelPartyOnly  = errors.New("거래 당사자만 취소할 수 있습니다.")
	ErrTradeNoCompleted      = errors.New("완료된 거래가 없습니다.")
	ErrTradeInfoSellerOnly   = errors.New("판매자만 조회할 수 있습니다.")
	ErrTradeInfoBuyerOnly    = errors.New("구매자만 조회할 수 있습니다.")
)

// 취소 사유 코드
const (
	CancelReasonChangeMind   = "change_mind"
	CancelReasonPriceChange  = "price_change"
	CancelReasonNoResponse   = "no_response"
	CancelReasonProductIssue = "product_issue"
	CancelReasonOther        = "other"
)

type CancelTradeInput struct {
	Reason       string
	Detail       string
	ReturnToSale *bool
}

type TradeService interface {
	Complete(itemID, userID uint) (*model.UsedTransaction, error)
	Cancel(itemID, userID uint, input CancelTradeInput) (*model.UsedTransaction, error)
	TransactionInfo(itemID, userID uint) (*model.UsedTransaction, error)
	BuyerInfo(itemID, sellerID uint) (*TradeContact, error)
	SellerInfo(itemID, buyerID uint) (*TradeContact, error)
	MyTransactions(userID uint, status model.TransactionStatus) ([]model.UsedTransaction, error)
}

type tradeService struct {
	db        *gorm.DB
	itemRepo  repository.UsedItemRepository
	offerRepo repository.OfferRepository
	txRepo    repository.TransactionRepository
	userRepo  repository.UserRepository
	notifier  Notifier
	now       func() time.Time
}

func NewTradeService(
	db *gorm.DB,
	itemRepo repository.UsedItemRepository,
	offerRepo repository.OfferRepository,
	txRepo repository.TransactionRepository,
	userRepo repository.UserRepository,
	notifier Notifier,
) TradeService {
	return &tradeService{
		db:        db,
		itemRepo:  itemRepo,
		offerRepo: offerRepo,
		txRepo:    txRepo,
		userRepo:  userRepo,
		notifier:  notifier,
		now:       time.Now,
	}
}

func (s *tradeService) findTransaction(txRepo repository.TransactionRepository, itemID uint, lock bool) (*model.UsedTransaction, error) {
	var (
		t   *model.UsedTransaction
		err error
	)
	if lock {
		t, err = txRepo.FindByItemIDForUpdate(itemID)
	} else {
		t, err = txRepo.FindByItemID(itemID)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTradeNotFound
		}
		return nil, err
	}
	return t, nil
}

// Complete 판매자 완료 처리. 구매자 완료도 함께 기록된다.
func (s *tradeService) Complete(itemID, userID uint) (*model.UsedTransaction, error) {
	var (
		transaction *model.UsedTransaction
		item        *model.UsedItem
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		txRepo := s.txRepo.WithTx(tx)
		itemRepo := s.itemRepo.WithTx(tx)

		var err error
		item, err = itemRepo.FindByIDForUpdate(itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUsedItemNotFound
			}
			return err
		}
		transaction, err = s.findTransaction(txRepo, itemID, true)
		if err != nil {
			return err
		}

		switch {
		case transaction.Status == model.TransactionCancelled:
			return ErrTradeNotFound
		case transaction.BuyerID == userID:
			return ErrTradeBuyerCannotClose
		case transaction.SellerID != userID:
			return ErrTradeSellerOnly
		case transaction.Status == model.TransactionCompleted || transaction.SellerCompleted:
			return ErrTradeAlreadyCompleted
		}

		now := s.now()
		transaction.SellerCompleted = true
		transaction.SellerCompletedAt = &now
		transaction.BuyerCompleted = true
		transaction.BuyerCompletedAt = &now
		transaction.Status = model.TransactionCompleted
		transaction.CompletedAt = &now
		transaction.Item = nil
		transaction.Seller = nil
		transaction.Buyer = nil
		if err := txRepo.Save(transaction); err != nil {
			return err
		}

		return itemRepo.UpdateFields(item.ID, map[string]interface{}{
			"status":   model.UsedStatusSold,
			"sold_at":  now,
			"buyer_id": transaction.BuyerID,
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Trade completed", map[string]interface{}{
		"item_id":        itemID,
		"transaction_id": transaction.ID,
		"final_price":    transaction.FinalPrice,
	})

	if s.notifier != nil {
		id := item.ID
		s.notifier.Notify(&model.Notification{
			UserID:        transaction.BuyerID,
			Type:          model.NotificationTradeCompleted,
			Title:         "거래 완료",
			Content:       fmt.Sprintf("'%s' 거래가 완료되었습니다. 거래 후기를 남겨주세요.", item.Title),
			Link:          fmt.Sprintf("/used/%d", item.ID),
			RelatedItemID: &id,
		})
	}
	return transaction, nil
}

// Cancel 판매자 완료 전에만 취소할 수 있다. return_to_sale 기본값은 true.
func (s *tradeService) Cancel(itemID, userID uint, input CancelTradeInput) (*model.UsedTransaction, error) {
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		reason = CancelReasonOther
	}
	returnToSale := true
	if input.ReturnToSale != nil {
		returnToSale = *input.ReturnToSale
	}

	var (
		transaction *model.UsedTransaction
		item        *model.UsedItem
		role        string
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		txRepo := s.txRepo.WithTx(tx)
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
		transaction, err = s.findTransaction(txRepo, itemID, true)
		if err != nil {
			return err
		}
		if transaction.Status != model.TransactionInProgress || transaction.SellerCompleted {
			return ErrTradeNotFound
		}
		if !transaction.IsParty(userID) {
			return ErrTradeCancelPartyOnly
		}

		role = "buyer"
		if transaction.SellerID == userID {
			role = "seller"
		}

		now := s.now()
		transaction.Status = model.TransactionCancelled
		transaction.CancelledBy = role
		transaction.CancellationReason = reason
		transaction.CancellationDetail = input.Detail
		transaction.CancelledAt = &now
		transaction.Item = nil
		transaction.Seller = nil
		transaction.Buyer = nil
		if err := txRepo.Save(transaction); err != nil {
			return err
		}

		if err := txRepo.CreateCancellation(&model.UsedTradeCancellation{
			TransactionID:   transaction.ID,
			ItemID:          item.ID,
			CancelledByID:   userID,
			CancelledByRole: role,
			Reason:          reason,
			Detail:          input.Detail,
			ReturnToSale:    returnToSale,
		}); err != nil {
			return err
		}

		accepted, err := offerRepo.FindByItem(item.ID, model.OfferAccepted)
		if err != nil {
			return err
		}
		for _, o := range accepted {
			if err := offerRepo.UpdateStatus(o.ID, model.OfferCancelled); err != nil {
				return err
			}
		}

		fields := map[string]interface{}{"buyer_id": nil}
		if returnToSale {
			fields["status"] = model.UsedStatusActive
		} else {
			fields["status"] = model.UsedStatusDeleted
			fields["removed_at"] = now
		}
		if err := itemRepo.UpdateFields(item.ID, fields); err != nil {
			return err
		}
		return refreshOfferCount(itemRepo, offerRepo, item.ID)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Trade cancelled", map[string]interface{}{
		"item_id":        itemID,
		"transaction_id": transaction.ID,
		"cancelled_by":   role,
		"reason":         reason,
		"return_to_sale": returnToSale,
	})

	if s.notifier != nil {
		counterpart := transaction.BuyerID
		if role == "buyer" {
			counterpart = transaction.SellerID
		}
		id := item.ID
		s.notifier.Notify(&model.Notification{
			UserID:        counterpart,
			Type:          model.NotificationTradeCancelled,
			Title:         "거래 취소",
			Content:       fmt.Sprintf("'%s' 거래가 취소되었습니다.", item.Title),
			Link:          fmt.Sprintf("/used/%d", item.ID),
			RelatedItemID: &id,
			RelatedUserID: &userID,
		})
	}
	return transaction, nil
}

// TransactionInfo 완료된 거래 정보 (당사자만)
func (s *tradeService) TransactionInfo(itemID, userID uint) (*model.UsedTransaction, error) {
	transaction, err := s.findTransaction(s.txRepo, itemID, false)
	if err != nil {
		if errors.Is(err, ErrTradeNotFound) {
			return nil, ErrTradeNoCompleted
		}
		return nil, err
	}
	if transaction.Status != model.TransactionCompleted {
		return nil, ErrTradeNoCompleted
	}
	if !transaction.IsParty(userID) {
		return nil, ErrTradePartyOnly
	}
	return transaction, nil
}

func (s *tradeService) acceptedOfferMessage(transaction *model.UsedTransaction) string {
	if transaction.OfferID == nil {
		return ""
	}
	offer, err := s.offerRepo.FindByID(*transaction.OfferID)
	if err != nil {
		return ""
	}
	return offer.Message
}

// BuyerInfo 거래중인 판매자에게 구매자 연락처 공개
func (s *tradeService) BuyerInfo(itemID, sellerID uint) (*TradeContact, error) {
	item, err := s.itemRepo.FindByID(itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUsedItemNotFound
		}
		return nil, err
	}
	if item.SellerID != sellerID {
		return nil, ErrTradeInfoSellerOnly
	}

	transaction, err := s.findTransaction(s.txRepo, itemID, false)
	if err != nil {
		return nil, err
	}
	if transaction.Status != model.TransactionInProgress {
		return nil, ErrTradeNotFound
	}
	return contactOf(transaction.Buyer, transaction.FinalPrice, s.acceptedOfferMessage(transaction)), nil
}

// SellerInfo 거래중인 구매자에게 판매자 연락처 공개
func (s *tradeService) SellerInfo(itemID, buyerID uint) (*TradeContact, error) {
	transaction, err := s.findTransaction(s.txRepo, itemID, false)
	if err != nil {
		return nil, err
	}
	if transaction.Status != model.TransactionInProgress {
		return nil, ErrTradeNotFound
	}
	if transaction.BuyerID != buyerID {
		return nil, ErrTradeInfoBuyerOnly
	}
	return contactOf(transaction.Seller, transaction.FinalPrice, s.acceptedOfferMessage(transaction)), nil
}

func (s *tradeService) MyTransactions(userID uint, status model.TransactionStatus) ([]model.UsedTransaction, error) {
	return s.txRepo.FindByUser(userID, status)
}

package db

import "github.com/dungji/dungji-market-backend/internal/app/model"

// AllModels 마이그레이션 대상. 테스트 DB도 같은 목록을 사용한다.
func AllModels() []interface{} {
	return []interface{}{
		&model.User{},
		&model.PhoneVerification{},
		&model.BusinessNumberVerification{},
		&model.BidToken{},
		&model.BidTokenPurchase{},
		&model.BidTokenAdjustmentLog{},
		&model.UsedItem{},
		&model.UsedPhoneDetail{},
		&model.UsedElectronicsDetail{},
		&model.UsedFavorite{},
		&model.UnifiedDeletePenalty{},
		&model.UsedOffer{},
		&model.UsedTransaction{},
		&model.UsedTradeCancellation{},
		&model.UsedReview{},
		&model.Payment{},
		&model.RefundRequest{},
		&model.Partner{},
		&model.ReferralRecord{},
		&model.PartnerSettlement{},
		&model.PartnerBankAccount{},
		&model.Category{},
		&model.Product{},
		&model.GroupBuy{},
		&model.Participation{},
		&model.Bid{},
		&model.Vote{},
		&model.Notice{},
		&model.Popup{},
		&model.Banner{},
		&model.Event{},
		&model.Notification{},
	}
}

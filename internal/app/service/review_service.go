package service

import (
	"errors"

	"github.com/dungji/dungji-market-backend/internal/app/model"
	"github.com/dungji/dungji-market-backend/internal/app/repository"
	"gorm.io/gorm"
)

var (
	ErrReviewTradeNotCompleted = errors.New("완료된 거래에만 후기를 작성할 수 있습니다")
	ErrReviewNotParty          = errors.New("거래 당사자만 후기를 작성할 수 있습니다")
	ErrReviewAlreadyExists     = errors.New("이미 후기를 작성했습니다")
	ErrReviewInvalidRating     = errors.New("평점은 1-5 사이여야 합니다")
)

type CreateReviewInput struct {
	TransactionID  uint   `json:"transaction_id" binding:"required"`
	Rating         int    `json:"rating" binding:"required,min=1,max=5"`
	Comment        string `json:"comment"`
	IsPunctual     bool   `json:"is_punctual"`
	IsFriendly     bool   `json:"is_friendly"`
	IsHonest       bool   `json:"is_honest"`
	IsFastResponse bool   `json:"is_fast_response"`
}

type ReviewService struct {
	reviewRepo *repository.ReviewRepository
	txRepo     repository.TransactionRepository
}

func NewReviewService(reviewRepo *repository.ReviewRepository, txRepo repository.TransactionRepository) *ReviewService {
	return &ReviewService{
		reviewRepo: reviewRepo,
		txRepo:     txRepo,
	}
}

// CreateReview 거래 후기 작성. 받는 사람은 거래 상대방.
func (s *ReviewService) CreateReview(reviewerID uint, input CreateReviewInput) (*model.UsedReview, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, ErrReviewInvalidRating
	}

	transaction, err := s.txRepo.FindByID(input.TransactionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTradeNotFound
		}
		return nil, err
	}
	if transaction.Status != model.TransactionCompleted {
		return nil, ErrReviewTradeNotCompleted
	}
	if !transaction.IsParty(reviewerID) {
		return nil, ErrReviewNotParty
	}

	// 중복 확인
	exists, err := s.reviewRepo.ExistsByTransactionAndReviewer(transaction.ID, reviewerID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrReviewAlreadyExists
	}

	revieweeID := transaction.BuyerID
	if reviewerID == transaction.BuyerID {
		revieweeID = transaction.SellerID
	}

	review := &model.UsedReview{
		TransactionID:  transaction.ID,
		ReviewerID:     reviewerID,
		RevieweeID:     revieweeID,
		Rating:         input.Rating,
		Comment:        input.Comment,
		IsPunctual:     input.IsPunctual,
		IsFriendly:     input.IsFriendly,
		IsHonest:       input.IsHonest,
		IsFastResponse: input.IsFastResponse,
	}
	if err := s.reviewRepo.CreateReview(review); err != nil {
		return nil, err
	}
	return review, nil
}

// GetUserReviews 사용자가 받은 후기 목록
func (s *ReviewService) GetUserReviews(userID uint, page, pageSize int) ([]model.UsedReview, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize
	return s.reviewRepo.GetReviewsByReviewee(userID, offset, pageSize)
}

// GetUserStatistics 받은 후기 통계
func (s *ReviewService) GetUserStatistics(userID uint) (*repository.ReviewStats, error) {
	return s.reviewRepo.GetRevieweeStatistics(userID)
}

package repository

import (
	"github.com/dungji/dungji-market-backend/internal/app/model"
	"gorm.io/gorm"
)

// ReviewStats 받은 거래 후기 통계
type ReviewStats struct {
	TotalReviews   int64   `json:"total_reviews"`
	AverageRating  float64 `json:"average_rating"`
	PunctualCount  int64   `json:"punctual_count"`
	FriendlyCount  int64   `json:"friendly_count"`
	HonestCount    int64   `json:"honest_count"`
	FastReplyCount int64   `json:"fast_response_count"`
}

type ReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) CreateReview(review *model.UsedReview) error {
	return r.db.Create(review).Error
}

func (r *ReviewRepository) ExistsByTransactionAndReviewer(transactionID, reviewerID uint) (bool, error) {
	var count int64
	err := r.db.Model(&model.UsedReview{}).
		Where("transaction_id = ? AND reviewer_id = ?", transactionID, reviewerID).
		Count(&count).Error
	return count > 0, err
}

func (r *ReviewRepository) GetReviewsByReviewee(userID uint, offset, limit int) ([]model.UsedReview, int64, error) {
	var reviews []model.UsedReview
	var total int64

	query := r.db.Model(&model.UsedReview{}).Where("reviewee_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("Reviewer").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&reviews).Error
	if err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

// GetRevieweeStatistics 평균 평점과 항목별 체크 수
func (r *ReviewRepository) GetRevieweeStatistics(userID uint) (*ReviewStats, error) {
	var row struct {
		Total    int64
		Average  *float64
		Punctual int64
		Friendly int64
		Honest   int64
		Fast     int64
	}
	err := r.db.Model(&model.UsedReview{}).
		Select(`COUNT(*) AS total,
			AVG(rating) AS average,
			COALESCE(SUM(CASE WHEN is_punctual THEN 1 ELSE 0 END), 0) AS punctual,
			COALESCE(SUM(CASE WHEN is_friendly THEN 1 ELSE 0 END), 0) AS friendly,
			COALESCE(SUM(CASE WHEN is_honest THEN 1 ELSE 0 END), 0) AS honest,
			COALESCE(SUM(CASE WHEN is_fast_response THEN 1 ELSE 0 END), 0) AS fast`).
		Where("reviewee_id = ?", userID).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	stats := &ReviewStats{
		TotalReviews:   row.Total,
		PunctualCount:  row.Punctual,
		FriendlyCount:  row.Friendly,
		HonestCount:    row.Honest,
		FastReplyCount: row.Fast,
	}
	if row.Average != nil {
		stats.AverageRating = *row.Average
	}
	return stats, nil
}

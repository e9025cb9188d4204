package controller

import (
	"net/http"

	"github.com/dungji/dungji-market-backend/internal/app/service"
	"github.com/gin-gonic/gin"
)

type ReviewController struct {
	reviewService *service.ReviewService
}

func NewReviewController(reviewService *service.ReviewService) *ReviewController {
	return &ReviewController{
		reviewService: reviewService,
	}
}

// CreateReview 거래 후기 작성
// @Summary 거래 후기 작성
// @Tags Reviews
// @Accept json
// @Produce json
// @Param review body service.CreateReviewInput true "후기 정보"
// @Success 201 {object} model.UsedReview
// @Router /used/reviews [post]
func (ctrl *ReviewController) CreateReview(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var input service.CreateReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err, "입력값이 올바르지 않습니다")
		return
	}

	review, err := ctrl.reviewService.CreateReview(userID, input)
	if err != nil {
		respondServiceError(c, err, "create review")
		return
	}

	c.JSON(http.StatusCreated, review)
}

// GetUserReviews 회원이 받은 후기 목록
// @Summary 받은 후기 목록
// @Tags Reviews
// @Produce json
// @Param id path int true "회원 ID"
// @Param page query int false "페이지" default(1)
// @Param page_size query int false "페이지 크기" default(20)
// @Success 200 {object} object
// @Router /users/{id}/reviews [get]
func (ctrl *ReviewController) GetUserReviews(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	page, pageSize := pageParams(c)

	reviews, total, err := ctrl.reviewService.GetUserReviews(userID, page, pageSize)
	if err != nil {
		respondServiceError(c, err, "user reviews")
		return
	}

	c.JSON(http.StatusOK, paged(reviews, total, page, pageSize))
}

// GetMyReviews 내가 받은 후기
// @Router /users/me/reviews [get]
func (ctrl *ReviewController) GetMyReviews(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	page, pageSize := pageParams(c)

	reviews, total, err := ctrl.reviewService.GetUserReviews(userID, page, pageSize)
	if err != nil {
		respondServiceError(c, err, "my reviews")
		return
	}

	c.JSON(http.StatusOK, paged(reviews, total, page, pageSize))
}

// GetUserStatistics 평점/매너 항목 통계
// @Summary 후기 통계
// @Tags Reviews
// @Produce json
// @Param id path int true "회원 ID"
// @Success 200 {object} repository.ReviewStats
// @Router /users/{id}/review-stats [get]
func (ctrl *ReviewController) GetUserStatistics(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	stats, err := ctrl.reviewService.GetUserStatistics(userID)
	if err != nil {
		respondServiceError(c, err, "review statistics")
		return
	}

	c.JSON(http.StatusOK, stats)
}

package controller

import (
	"errors"
	"net/http"

	"github.com/dungji/dungji-market-backend/internal/app/model"
	"github.com/dungji/dungji-market-backend/internal/app/service"
	apperrors "github.com/dungji/dungji-market-backend/internal/errors"
	"github.com/dungji/dungji-market-backend/internal/middleware"
	"github.com/dungji/dungji-market-backend/pkg/kakao"
	"github.com/dungji/dungji-market-backend/pkg/util"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AuthController struct {
	authService service.AuthService
}

func NewAuthController(authService service.AuthService) *AuthController {
	return &AuthController{
		authService: authService,
	}
}

type RegisterRequest struct {
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=8"`
	Name         string `json:"name" binding:"required"`
	Nickname     string `json:"nickname" binding:"required,min=2,max=20"`
	Phone        string `json:"phone"`
	Region       string `json:"region"`
	Role         string `json:"role"`          // buyer(기본) | seller
	ReferralCode string `json:"referral_code"` // 파트너 추천 코드
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileRequest struct {
	Name         *string `json:"name"`
	Nickname     *string `json:"nickname"`
	Region       *string `json:"region"`
	ProfileImage *string `json:"profile_image"` // S3 URL from upload API
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type KakaoCallbackRequest struct {
	Code string `json:"code" binding:"required"`
	Role string `json:"role"`
}

func userResponse(user *model.User) gin.H {
	return gin.H{
		"id":                   user.ID,
		"email":                user.Email,
		"name":                 user.Name,
		"nickname":             user.Nickname,
		"phone":                user.Phone,
		"phone_verified":       user.PhoneVerified,
		"role":                 user.Role,
		"sns_type":             user.SNSType,
		"region":               user.Region,
		"profile_image":        user.ProfileImage,
		"business_number":      user.BusinessNumber,
		"is_business_verified": user.IsBusinessVerified,
	}
}

// Register handles user registration
// POST /api/v1/auth/register
func (ctrl *AuthController) Register(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "")
		return
	}

	log.Debug("Processing registration", map[string]interface{}{
		"email":    req.Email,
		"nickname": req.Nickname,
		"role":     req.Role,
	})

	user, tokens, err := ctrl.authService.Register(service.RegisterInput{
		Email:        req.Email,
		Password:     req.Password,
		Name:         req.Name,
		Nickname:     req.Nickname,
		Phone:        req.Phone,
		Region:       req.Region,
		Role:         model.UserRole(req.Role),
		ReferralCode: req.ReferralCode,
	})
	if err != nil {
		respondServiceError(c, err, "register user")
		return
	}

	log.Info("User registered successfully", map[string]interface{}{
		"user_id": user.ID,
		"role":    user.Role,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": "회원가입이 완료되었습니다",
		"user":    userResponse(user),
		"tokens":  tokens,
	})
}

// Login handles user login
// POST /api/v1/auth/login
func (ctrl *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "")
		return
	}

	user, tokens, err := ctrl.authService.Login(req.Email, req.Password)
	if err != nil {
		respondServiceError(c, err, "login")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":   userResponse(user),
		"tokens": tokens,
	})
}

// Refresh issues a new token pair and revokes the old refresh token
// POST /api/v1/auth/refresh
func (ctrl *AuthController) Refresh(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "리프레시 토큰이 필요합니다")
		return
	}

	tokens, err := ctrl.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrExpiredToken):
			log.Warn("Expired refresh token", nil)
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenExpired, "로그인이 만료되었습니다. 다시 로그인해주세요")
		case errors.Is(err, util.ErrInvalidToken):
			log.Warn("Invalid refresh token", nil)
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "유효하지 않은 토큰입니다")
		default:
			respondServiceError(c, err, "refresh token")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tokens": tokens,
	})
}

// Logout blacklists the refresh token
// POST /api/v1/auth/logout
func (ctrl *AuthController) Logout(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "리프레시 토큰이 필요합니다")
		return
	}

	if err := ctrl.authService.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		if errors.Is(err, util.ErrInvalidToken) {
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "유효하지 않은 토큰입니다")
			return
		}
		respondServiceError(c, err, "logout")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "로그아웃되었습니다",
	})
}

// GetMe returns current user information
// GET /api/v1/auth/me
func (ctrl *AuthController) GetMe(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	user, err := ctrl.authService.GetUserByID(userID)
	if err != nil {
		respondServiceError(c, err, "get user")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": userResponse(user),
	})
}

// UpdateMe updates the caller's profile
// PUT /api/v1/auth/me
func (ctrl *AuthController) UpdateMe(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "")
		return
	}

	user, err := ctrl.authService.UpdateProfile(userID, service.UpdateProfileInput{
		Name:         req.Name,
		Nickname:     req.Nickname,
		Region:       req.Region,
		ProfileImage: req.ProfileImage,
	})
	if err != nil {
		respondServiceError(c, err, "update profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "프로필이 수정되었습니다",
		"user":    userResponse(user),
	})
}

// KakaoLoginURL returns the Kakao authorize URL
// GET /api/v1/auth/kakao/login
func (ctrl *AuthController) KakaoLoginURL(c *gin.Context) {
	state := uuid.New().String()
	url, err := ctrl.authService.KakaoLoginURL(state)
	if err != nil {
		if errors.Is(err, kakao.ErrNotConfigured) {
			apperrors.RespondWithError(c, http.StatusServiceUnavailable, apperrors.InternalConfigError, "카카오 로그인이 설정되지 않았습니다")
			return
		}
		respondServiceError(c, err, "kakao login url")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":   url,
		"state": state,
	})
}

// KakaoCallback exchanges the authorization code and signs the user in
// POST /api/v1/auth/kakao/callback
func (ctrl *AuthController) KakaoCallback(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req KakaoCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "인가 코드가 필요합니다")
		return
	}

	user, tokens, isNew, err := ctrl.authService.KakaoLogin(c.Request.Context(), req.Code, model.UserRole(req.Role))
	if err != nil {
		if errors.Is(err, kakao.ErrNotConfigured) {
			apperrors.RespondWithError(c, http.StatusServiceUnavailable, apperrors.InternalConfigError, "카카오 로그인이 설정되지 않았습니다")
			return
		}
		respondServiceError(c, err, "kakao login")
		return
	}

	log.Info("Kakao login succeeded", map[string]interface{}{
		"user_id": user.ID,
		"is_new":  isNew,
	})

	c.JSON(http.StatusOK, gin.H{
		"user":        userResponse(user),
		"tokens":      tokens,
		"is_new_user": isNew,
	})
}

// CheckEmail GET /api/v1/auth/check-email?email=
func (ctrl *AuthController) CheckEmail(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "이메일을 입력해주세요")
		return
	}

	available, err := ctrl.authService.IsEmailAvailable(email)
	if err != nil {
		respondServiceError(c, err, "check email")
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": available})
}

// CheckNickname GET /api/v1/auth/check-nickname?nickname=
func (ctrl *AuthController) CheckNickname(c *gin.Context) {
	nickname := c.Query("nickname")
	if len([]rune(nickname)) < 2 || len([]rune(nickname)) > 20 {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "닉네임은 2-20자로 입력해주세요")
		return
	}

	available, err := ctrl.authService.IsNicknameAvailable(nickname)
	if err != nil {
		respondServiceError(c, err, "check nickname")
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": available})
}

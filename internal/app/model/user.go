package model

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string // 사용자 권한 타입
type SNSType string  // 가입 경로

const (
	RoleBuyer  UserRole = "buyer"  // 일반회원
	RoleSeller UserRole = "seller" // 판매회원
	RoleAdmin  UserRole = "admin"  // 관리자

	SNSTypeEmail SNSType = "email"
	SNSTypeKakao SNSType = "kakao"
)

func (r UserRole) Valid() bool {
	return r == RoleBuyer || r == RoleSeller || r == RoleAdmin
}

type User struct {
	ID                 uint           `gorm:"primarykey" json:"id"`                             // 사용자 ID
	Email              string         `gorm:"uniqueIndex;not null" json:"email"`                // 이메일
	PasswordHash       string         `json:"-"`                                                // 비밀번호 해시 (SNS 가입자는 빈 값)
	Name               string         `gorm:"not null" json:"name"`                             // 이름
	Nickname           string         `gorm:"uniqueIndex;not null" json:"nickname"`             // 닉네임
	Phone              string         `gorm:"index" json:"phone"`                               // 전화번호 (숫자만)
	PhoneVerified      bool           `gorm:"default:false" json:"phone_verified"`              // 휴대폰 인증 여부
	PhoneVerifiedAt    *time.Time     `json:"phone_verified_at,omitempty"`                      // 휴대폰 인증 시각
	Role               UserRole       `gorm:"type:varchar(20);default:'buyer'" json:"role"`     // 권한
	SNSType            SNSType        `gorm:"type:varchar(20);default:'email'" json:"sns_type"` // 가입 경로
	SNSID              string         `gorm:"index" json:"-"`                                   // SNS 고유 ID
	ProfileImage       string         `json:"profile_image"`                                    // 프로필 이미지 URL
	Region             string         `json:"region"`                                           // 활동 지역
	BusinessNumber     string         `gorm:"index" json:"business_number,omitempty"`           // 사업자등록번호
	BusinessName       string         `json:"business_name,omitempty"`                          // 상호명
	IsBusinessVerified bool           `gorm:"default:false" json:"is_business_verified"`        // 사업자 인증 여부
	BusinessVerifiedAt *time.Time     `json:"business_verified_at,omitempty"`                   // 사업자 인증 시각
	ReferredBy         string         `gorm:"index" json:"referred_by,omitempty"`               // 추천 파트너 코드
	IsActive           bool           `gorm:"default:true" json:"is_active"`                    // 활성 여부
	LastLoginAt        *time.Time     `json:"last_login_at,omitempty"`                          // 마지막 로그인
	CreatedAt          time.Time      `json:"created_at"`                                       // 생성 시각
	UpdatedAt          time.Time      `json:"updated_at"`                                       // 수정 시각
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`                                   // 삭제 시각(소프트 삭제)
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsSeller() bool {
	return u.Role == RoleSeller
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

package util

import (
	"errors"
	"unicode"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

const (
	bcryptCost = 12

	MinPasswordLength = 8
	// bcrypt는 72바이트 이후를 무시한다
	MaxPasswordBytes = 72
)

var (
	ErrPasswordTooShort = errors.New("비밀번호는 8자 이상이어야 합니다")
	ErrPasswordTooLong  = errors.New("비밀번호가 너무 깁니다")
	ErrPasswordTooWeak  = errors.New("비밀번호는 영문과 숫자를 함께 포함해야 합니다")
)

// ValidatePassword 이메일 가입 비밀번호 규칙. 8자 이상, 영문과 숫자를 모두 포함.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case r <= unicode.MaxASCII && unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return ErrPasswordTooWeak
	}
	return nil
}

// HashPassword 규칙을 통과한 비밀번호만 해시한다
func HashPassword(password string) (string, error) {
	if err := ValidatePassword(password); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func VerifyPassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}

// NeedsRehash 현재 cost보다 낮게 저장된 해시는 로그인 때 다시 해시한다
func NeedsRehash(hashedPassword string) bool {
	cost, err := bcrypt.Cost([]byte(hashedPassword))
	return err == nil && cost < bcryptCost
}

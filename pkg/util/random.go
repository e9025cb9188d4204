package util

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateRandomNumber generates a random number between min and max (inclusive)
func GenerateRandomNumber(min, max int) int {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max-min+1)))
	if err != nil {
		return min
	}
	return min + int(n.Int64())
}

// GenerateNumericCode n자리 숫자 인증번호 (앞자리 0 허용)
func GenerateNumericCode(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		b.WriteByte(byte('0' + GenerateRandomNumber(0, 9)))
	}
	return b.String()
}

// GenerateCode 대문자+숫자 코드 (파트너 코드 등)
func GenerateCode(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		b.WriteByte(codeAlphabet[GenerateRandomNumber(0, len(codeAlphabet)-1)])
	}
	return b.String()
}

// OnlyDigits 숫자 이외 문자 제거
func OnlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

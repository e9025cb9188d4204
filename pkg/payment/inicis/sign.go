package inicis

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func sha512Hex(s string) string {
	sum := sha512.Sum512([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Timestamp 결제창 서명용 밀리초 타임스탬프
func Timestamp(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

// Signature SHA256("oid=..&price=..&timestamp=..")
func Signature(orderID string, price int64, timestamp string) string {
	return sha256Hex(fmt.Sprintf("oid=%s&price=%d&timestamp=%s", orderID, price, timestamp))
}

// MKey SHA256(signKey)
func MKey(signKey string) string {
	return sha256Hex(signKey)
}

// Verification SHA256("oid=..&price=..&signKey=..&timestamp=..")
func Verification(orderID string, price int64, signKey, timestamp string) string {
	return sha256Hex(fmt.Sprintf("oid=%s&price=%d&signKey=%s&timestamp=%s", orderID, price, signKey, timestamp))
}

// RefundHash SHA512(mid + tid [+ price] + msg). price가 nil이면 전액 환불.
func RefundHash(mid, tid string, price *int64, msg string) string {
	data := mid + tid
	if price != nil {
		data += strconv.FormatInt(*price, 10)
	}
	return sha512Hex(data + msg)
}

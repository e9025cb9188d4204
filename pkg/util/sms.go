package util

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/dungji/dungji-market-backend/pkg/logger"
)

const sensBaseURL = "https://sens.apigw.ntruss.com"

// SMSSender 인증번호 문자 발송
type SMSSender interface {
	SendVerificationCode(ctx context.Context, phone, code string, ttl time.Duration) error
}

// Naver Cloud SENS SMS 요청 구조체
type SENSMessageRequest struct {
	Type        string        `json:"type"`                  // SMS or LMS
	From        string        `json:"from"`                  // 발신번호
	Content     string        `json:"content"`               // 기본 메시지 내용
	Messages    []SENSMessage `json:"messages"`              // 수신자 정보
	Subject     string        `json:"subject,omitempty"`     // LMS 제목
	ContentType string        `json:"contentType,omitempty"` // COMM or AD
}

type SENSMessage struct {
	To      string `json:"to"`
	Content string `json:"content,omitempty"`
}

type SENSClient struct {
	serviceID  string
	accessKey  string
	secretKey  string
	fromNumber string
	baseURL    string
	httpClient *http.Client
}

func NewSENSClient(serviceID, accessKey, secretKey, fromNumber string) *SENSClient {
	return &SENSClient{
		serviceID:  serviceID,
		accessKey:  accessKey,
		secretKey:  secretKey,
		fromNumber: fromNumber,
		baseURL:    sensBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// WithBaseURL 테스트 서버 주소로 교체
func (s *SENSClient) WithBaseURL(url string) *SENSClient {
	s.baseURL = url
	return s
}

// DevMode SENS 설정이 비어 있으면 실제 발송 없이 로그만 남긴다.
func (s *SENSClient) DevMode() bool {
	return s.serviceID == "" || s.accessKey == "" || s.secretKey == "" || s.fromNumber == ""
}

// Naver Cloud SENS 시그니처 생성
func makeSignature(method, uri, timestamp, accessKey, secretKey string) string {
	message := method + " " + uri + "\n" + timestamp + "\n" + accessKey
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (s *SENSClient) SendVerificationCode(ctx context.Context, phone, code string, ttl time.Duration) error {
	if s.DevMode() {
		logger.Info("[개발 모드] SMS 발송 생략", map[string]interface{}{
			"phone": MaskPhone(phone),
			"code":  code,
		})
		return nil
	}

	content := fmt.Sprintf("[둥지마켓] 인증번호는 [%s]입니다. %d분 이내에 입력해주세요.", code, int(ttl.Minutes()))
	payload, err := json.Marshal(SENSMessageRequest{
		Type:     "SMS",
		From:     s.fromNumber,
		Content:  content,
		Messages: []SENSMessage{{To: phone}},
	})
	if err != nil {
		return fmt.Errorf("JSON 인코딩 실패: %w", err)
	}

	timestamp := strconv.FormatInt(time.Now().UnixMilli(), 10)
	uri := fmt.Sprintf("/sms/v2/services/%s/messages", s.serviceID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+uri, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("HTTP 요청 생성 실패: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("x-ncp-apigw-timestamp", timestamp)
	req.Header.Set("x-ncp-iam-access-key", s.accessKey)
	req.Header.Set("x-ncp-apigw-signature-v2", makeSignature(http.MethodPost, uri, timestamp, s.accessKey, s.secretKey))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("SMS 발송 요청 실패: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		logger.Warn("SENS API 오류 응답", map[string]interface{}{
			"status": resp.StatusCode,
			"body":   string(body),
		})
		return fmt.Errorf("SMS 발송 실패 (상태 코드: %d)", resp.StatusCode)
	}

	logger.Info("SMS 발송 완료", map[string]interface{}{"phone": MaskPhone(phone)})
	return nil
}

// MaskPhone 010-****-5678 형태로 가린다.
func MaskPhone(phone string) string {
	if len(phone) < 8 {
		return phone
	}
	return phone[:3] + "****" + phone[len(phone)-4:]
}

package util

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const ntsStatusURL = "https://api.odcloud.kr/api/nts-businessman/v1/status"

var ErrInvalidBusinessNumberFormat = errors.New("invalid business number format")

// BusinessStatusResponse 국세청 사업자 상태조회 응답
type BusinessStatusResponse struct {
	RequestCount int              `json:"request_cnt"`
	MatchCount   int              `json:"match_cnt"`
	StatusCode   string           `json:"status_code"`
	Data         []BusinessStatus `json:"data"`
}

type BusinessStatus struct {
	BusinessNumber     string `json:"b_no"`
	BusinessStatus     string `json:"b_stt"`    // 계속사업자, 휴업자, 폐업자
	BusinessStatusCode string `json:"b_stt_cd"` // 01, 02, 03
	TaxType            string `json:"tax_type"`
	TaxTypeCode        string `json:"tax_type_cd"`
	EndDate            string `json:"end_dt"` // 폐업일 (YYYYMMDD)
}

// BusinessVerificationResult 사업자 인증 결과
type BusinessVerificationResult struct {
	BusinessNumber     string          `json:"business_number"`
	IsValid            bool            `json:"is_valid"`
	BusinessStatus     string          `json:"business_status"`
	BusinessStatusCode string          `json:"business_status_code"`
	TaxType            string          `json:"tax_type"`
	Message            string          `json:"message"`
	RawResponse        json.RawMessage `json:"-"`
}

type BusinessVerifier struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewBusinessVerifier(apiKey string) *BusinessVerifier {
	return &BusinessVerifier{
		apiKey:     apiKey,
		baseURL:    ntsStatusURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (v *BusinessVerifier) WithBaseURL(u string) *BusinessVerifier {
	v.baseURL = u
	return v
}

// NormalizeBusinessNumber 하이픈 등을 제거하고 10자리 + 체크섬을 검증한다.
func NormalizeBusinessNumber(raw string) (string, error) {
	digits := OnlyDigits(raw)
	if len(digits) != 10 {
		return "", ErrInvalidBusinessNumberFormat
	}

	weights := []int{1, 3, 7, 1, 3, 7, 1, 3, 5}
	sum := 0
	for i, w := range weights {
		sum += int(digits[i]-'0') * w
	}
	sum += int(digits[8]-'0') * 5 / 10
	if (10-sum%10)%10 != int(digits[9]-'0') {
		return "", ErrInvalidBusinessNumberFormat
	}
	return digits, nil
}

// Verify 국세청 상태조회 API. API 키가 없으면 개발 모드로 자동 승인한다.
func (v *BusinessVerifier) Verify(ctx context.Context, businessNumber string) (*BusinessVerificationResult, error) {
	if v.apiKey == "" {
		return &BusinessVerificationResult{
			BusinessNumber:     businessNumber,
			IsValid:            true,
			BusinessStatus:     "계속사업자",
			BusinessStatusCode: "01",
			TaxType:            "일반과세자",
			Message:            "개발 모드: 자동 승인",
		}, nil
	}

	body, err := json.Marshal(map[string][]string{"b_no": {businessNumber}})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s?serviceKey=%s&returnType=JSON", v.baseURL, url.QueryEscape(v.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusBadRequest {
		return &BusinessVerificationResult{
			BusinessNumber: businessNumber,
			Message:        "유효하지 않은 사업자등록번호입니다",
			RawResponse:    raw,
		}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned non-200 status code: %d", resp.StatusCode)
	}

	var parsed BusinessStatusResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	result := &BusinessVerificationResult{BusinessNumber: businessNumber, RawResponse: raw}
	if len(parsed.Data) == 0 {
		result.Message = "국세청에 등록되지 않은 사업자등록번호입니다"
		return result, nil
	}

	data := parsed.Data[0]
	result.BusinessStatus = data.BusinessStatus
	result.BusinessStatusCode = data.BusinessStatusCode
	result.TaxType = data.TaxType

	switch data.BusinessStatusCode {
	case "01":
		result.IsValid = true
		result.Message = "정상 사업자입니다"
	case "02":
		result.IsValid = true
		result.Message = "휴업 중인 사업자입니다"
	case "03":
		result.Message = "폐업한 사업자입니다"
	default:
		result.Message = "국세청에 등록되지 않은 사업자등록번호입니다"
	}
	return result, nil
}

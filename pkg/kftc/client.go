package kftc

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	tokenPath    = "/oauth/2.0/token"
	realNamePath = "/v2.0/inquiry/real_name"
)

// Client 금융결제원 오픈뱅킹 (client_credentials, oob scope)
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	useCode      string
	httpClient   *http.Client
	now          func() time.Time

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewClient(baseURL, clientID, clientSecret, useCode string) *Client {
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		useCode:      useCode,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		now:          time.Now,
	}
}

// DevMode 키가 없으면 실명조회를 건너뛴다
func (c *Client) DevMode() bool {
	return c.clientID == "" || c.clientSecret == ""
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("scope", "oob")
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+tokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenFailed, err)
	}
	defer resp.Body.Close()

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenFailed, err)
	}
	if resp.StatusCode != http.StatusOK || tr.AccessToken == "" {
		return "", fmt.Errorf("%w: status %d", ErrTokenFailed, resp.StatusCode)
	}

	c.token = tr.AccessToken
	// 만료 1분 전에 재발급
	c.tokenExpiry = c.now().Add(time.Duration(tr.ExpiresIn)*time.Second - time.Minute)
	return c.token, nil
}

// bankTranID 이용기관코드(10) + 'U' + 일련번호(9)
func (c *Client) bankTranID() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000_000))
	if err != nil {
		return fmt.Sprintf("%sU%09d", c.useCode, c.now().UnixNano()%1_000_000_000)
	}
	return fmt.Sprintf("%sU%09d", c.useCode, n.Int64())
}

// InquireRealName 계좌 실명 조회. holderInfo는 생년월일 6자리 또는 사업자번호.
func (c *Client) InquireRealName(ctx context.Context, bankCode, accountNum, holderInfo string) (*RealNameResult, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(realNameRequest{
		BankTranID:        c.bankTranID(),
		BankCodeStd:       bankCode,
		AccountNum:        strings.ReplaceAll(accountNum, "-", ""),
		AccountHolderInfo: holderInfo,
		TranDtime:         c.now().Format("20060102150405"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+realNamePath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInquiryFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var result RealNameResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: status %d", ErrInquiryFailed, resp.StatusCode)
	}
	if result.RspCode != SuccessRspCode {
		return &result, fmt.Errorf("%w: [%s] %s", ErrInquiryFailed, result.RspCode, result.RspMessage)
	}
	return &result, nil
}

// VerifyHolder 실명 조회 후 예금주명을 공백 무시하고 비교
func (c *Client) VerifyHolder(ctx context.Context, bankCode, accountNum, holderName, holderInfo string) (*RealNameResult, error) {
	result, err := c.InquireRealName(ctx, bankCode, accountNum, holderInfo)
	if err != nil {
		return result, err
	}
	if !SameHolderName(result.AccountHolderName, holderName) {
		return result, fmt.Errorf("%w: %s", ErrNameMismatch, result.AccountHolderName)
	}
	return result, nil
}

func SameHolderName(a, b string) bool {
	return strings.ReplaceAll(a, " ", "") == strings.ReplaceAll(b, " ", "")
}

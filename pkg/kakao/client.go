package kakao

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	AuthBaseURL = "https://kauth.kakao.com"
	APIBaseURL  = "https://kapi.kakao.com"
)

var (
	ErrNotConfigured = errors.New("kakao: client id not configured")
	ErrTokenExchange = errors.New("kakao: token exchange failed")
	ErrProfile       = errors.New("kakao: failed to fetch user profile")
)

// Config Kakao OAuth settings
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope"`
}

type userMeResponse struct {
	ID           int64 `json:"id"`
	KakaoAccount struct {
		Email   string `json:"email"`
		Profile struct {
			Nickname        string `json:"nickname"`
			ProfileImageURL string `json:"profile_image_url"`
		} `json:"profile"`
	} `json:"kakao_account"`
}

// Profile 로그인에 필요한 카카오 사용자 정보
type Profile struct {
	ID           string
	Email        string
	Nickname     string
	ProfileImage string
}

type Client struct {
	config     Config
	authURL    string
	apiURL     string
	httpClient *http.Client
}

func NewClient(config Config) *Client {
	return &Client{
		config:     config,
		authURL:    AuthBaseURL,
		apiURL:     APIBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// WithBaseURLs 테스트 서버 주입용
func (c *Client) WithBaseURLs(authURL, apiURL string) *Client {
	c.authURL = strings.TrimRight(authURL, "/")
	c.apiURL = strings.TrimRight(apiURL, "/")
	return c
}

// AuthorizeURL 카카오 로그인 페이지 URL
func (c *Client) AuthorizeURL(state string) (string, error) {
	if c.config.ClientID == "" {
		return "", ErrNotConfigured
	}
	q := url.Values{}
	q.Set("client_id", c.config.ClientID)
	q.Set("redirect_uri", c.config.RedirectURI)
	q.Set("response_type", "code")
	if state != "" {
		q.Set("state", state)
	}
	return c.authURL + "/oauth/authorize?" + q.Encode(), nil
}

// ExchangeCode 인가 코드로 액세스 토큰을 받는다.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*TokenResponse, error) {
	if c.config.ClientID == "" {
		return nil, ErrNotConfigured
	}

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", c.config.ClientID)
	form.Set("redirect_uri", c.config.RedirectURI)
	form.Set("code", code)
	if c.config.ClientSecret != "" {
		form.Set("client_secret", c.config.ClientSecret)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=utf-8")

	body, status, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrTokenExchange, status, string(body))
	}

	var token TokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}
	return &token, nil
}

// GetProfile /v2/user/me 조회
func (c *Client) GetProfile(ctx context.Context, accessToken string) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"/v2/user/me", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	body, status, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfile, err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrProfile, status)
	}

	var me userMeResponse
	if err := json.Unmarshal(body, &me); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfile, err)
	}
	if me.ID == 0 {
		return nil, ErrProfile
	}

	return &Profile{
		ID:           strconv.FormatInt(me.ID, 10),
		Email:        me.KakaoAccount.Email,
		Nickname:     me.KakaoAccount.Profile.Nickname,
		ProfileImage: me.KakaoAccount.Profile.ProfileImageURL,
	}, nil
}

// Login 코드 교환과 프로필 조회를 한 번에 처리한다.
func (c *Client) Login(ctx context.Context, code string) (*Profile, error) {
	token, err := c.ExchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return c.GetProfile(ctx, token.AccessToken)
}

func (c *Client) do(req *http.Request) ([]byte, int, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

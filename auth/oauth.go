// Package auth implements the OAuth 2.0 user-authorization flow for the
// Lark/Feishu open platform: authorization URL construction, code exchange,
// token refresh, expiry tracking and token persistence. A successful flow
// yields a user access token that lark.Config accepts verbatim.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
)

const (
	defaultBaseURL     = "https://open.feishu.cn/open-apis"
	defaultRedirectURI = "http://localhost:8080/callback"

	authorizePath = "/authen/v1/index"
	//nolint:gosec // G101: OAuth endpoint paths, not credentials
	accessTokenPath  = "/authen/v1/access_token"
	refreshTokenPath = "/authen/v1/refresh_access_token"
	userInfoPath     = "/authen/v1/user_info"
)

// ErrNoAuthCode indicates that no authorization code could be extracted from
// the operator-supplied redirect URL.
var ErrNoAuthCode = errors.New("auth: no authorization code found in redirect URL")

// ErrReauthorizationRequired indicates the stored tokens are unusable and a
// fresh interactive authorization is needed.
var ErrReauthorizationRequired = errors.New("auth: reauthorization required")

// timeNow is swapped in tests.
var timeNow = time.Now

// Config holds the application registration used by the flow.
type Config struct {
	AppID     string
	AppSecret string
	// RedirectURI defaults to http://localhost:8080/callback.
	RedirectURI string
	// BaseURL overrides the public open-apis root, mainly for tests.
	BaseURL    string
	HTTPClient *http.Client
	Logger     hclog.Logger
}

// Flow drives the user-authorization state machine:
// Unauthorized → AuthorizationRequested → TokenIssued, with expired tokens
// either refreshed or sent back through authorization.
type Flow struct {
	appID       string
	appSecret   string
	redirectURI string
	baseURL     string
	httpClient  *http.Client
	logger      hclog.Logger
}

// NewFlow creates a flow from cfg.
func NewFlow(cfg Config) *Flow {
	f := &Flow{
		appID:       cfg.AppID,
		appSecret:   cfg.AppSecret,
		redirectURI: cfg.RedirectURI,
		baseURL:     cfg.BaseURL,
		httpClient:  cfg.HTTPClient,
		logger:      cfg.Logger,
	}
	if f.redirectURI == "" {
		f.redirectURI = defaultRedirectURI
	}
	if f.baseURL == "" {
		f.baseURL = defaultBaseURL
	}
	if f.httpClient == nil {
		f.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if f.logger == nil {
		f.logger = hclog.NewNullLogger()
	}
	return f
}

// AuthURL builds the authorization URL the user must visit. Pure function,
// no network. state is an optional anti-forgery string echoed back on the
// redirect; GenerateState produces a suitable value.
func (f *Flow) AuthURL(scope, state string) string {
	params := url.Values{
		"app_id":       {f.appID},
		"redirect_uri": {f.redirectURI},
		"scope":        {scope},
	}
	if state != "" {
		params.Set("state", state)
	}
	return f.baseURL + authorizePath + "?" + params.Encode()
}

// GenerateState returns a random anti-forgery state string.
func GenerateState() string {
	return uuid.NewString()
}

// TokenResult is a token endpoint response: the server envelope with the
// token payload decoded. Exchange and refresh failures are reported through
// Code/Msg, not as errors; the caller must check Ok.
type TokenResult struct {
	Code  int         `json:"code"`
	Msg   string      `json:"msg"`
	Token TokenRecord `json:"data"`
}

// Ok reports application-level success.
func (r *TokenResult) Ok() bool { return r.Code == 0 }

// ExchangeCode trades an authorization code for a token pair. One POST;
// errors are transport/decoding only.
func (f *Flow) ExchangeCode(ctx context.Context, code string) (*TokenResult, error) {
	return f.tokenRequest(ctx, accessTokenPath, map[string]string{
		"grant_type": "authorization_code",
		"code":       code,
		"app_id":     f.appID,
		"app_secret": f.appSecret,
	})
}

// Refresh trades a refresh token for a new token pair. Same contract as
// ExchangeCode.
func (f *Flow) Refresh(ctx context.Context, refreshToken string) (*TokenResult, error) {
	return f.tokenRequest(ctx, refreshTokenPath, map[string]string{
		"grant_type":    "refresh_token",
		"refresh_token": refreshToken,
		"app_id":        f.appID,
		"app_secret":    f.appSecret,
	})
}

func (f *Flow) tokenRequest(ctx context.Context, path string, payload map[string]string) (*TokenResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	var result TokenResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	return &result, nil
}

// UserInfo holds the authenticated user's identity.
type UserInfo struct {
	Name      string `json:"name"`
	OpenID    string `json:"open_id"`
	UnionID   string `json:"union_id"`
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

// GetUserInfo fetches the identity behind a user access token.
func (f *Flow) GetUserInfo(ctx context.Context, userAccessToken string) (*UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+userInfoPath, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+userAccessToken)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("user info request: %w", err)
	}
	defer resp.Body.Close()

	var envelope struct {
		Code int      `json:"code"`
		Msg  string   `json:"msg"`
		Data UserInfo `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode user info response: %w", err)
	}
	if envelope.Code != 0 {
		return nil, fmt.Errorf("user info failed: code %d: %s", envelope.Code, envelope.Msg)
	}
	return &envelope.Data, nil
}

package lark

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
)

// DefaultBaseURL is the open-apis root of the public Feishu deployment.
const DefaultBaseURL = "https://open.feishu.cn/open-apis"

const tenantTokenPath = "/auth/v3/tenant_access_token/internal/"

// CredentialMode distinguishes who a bearer token represents.
type CredentialMode string

const (
	// TenantMode means the token represents the application itself.
	TenantMode CredentialMode = "tenant"
	// UserMode means the token represents an authenticated end user;
	// resources created under it are owned by that user.
	UserMode CredentialMode = "user"
)

// Credential is the resolved bearer credential used on every request.
// Refreshing never mutates a Credential in place; a new one is produced.
type Credential struct {
	Token string
	Mode  CredentialMode
}

// Config holds the inputs for NewClient. Supply either AppID+AppSecret
// (tenant mode, one token-exchange round trip) or UserAccessToken (used
// verbatim, no network).
type Config struct {
	AppID     string
	AppSecret string
	// UserAccessToken takes precedence over the app credential pair.
	UserAccessToken string
	// UserIDType is the default user_id_type substituted into requests that
	// carry the parameter without an explicit value ("open_id", "user_id",
	// "union_id").
	UserIDType string
	// BaseURL overrides DefaultBaseURL, mainly for tests and private
	// deployments.
	BaseURL string
	// HTTPClient overrides the default 30s-timeout client. Callers needing
	// different timeouts configure the transport here; the gateway itself
	// enforces none.
	HTTPClient *http.Client
	Logger     hclog.Logger
}

// Client is the request gateway shared by all resource wrappers. It attaches
// the bearer and JSON content-type headers, strips nil-valued body and query
// entries before transmission, and returns the parsed envelope without
// interpreting application-level success.
//
// A Client is safe for concurrent use; it holds no mutable state after
// construction.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cred       Credential
	userIDType string
	logger     hclog.Logger
}

// tenantTokenResponse is the token endpoint's envelope. Unlike every other
// endpoint the token fields sit beside code/msg, not under data.
type tenantTokenResponse struct {
	Code              int    `json:"code"`
	Msg               string `json:"msg"`
	TenantAccessToken string `json:"tenant_access_token"`
	Expire            int    `json:"expire"`
}

// NewClient resolves a credential from cfg and returns a ready gateway.
// The app-secret path performs one network round trip against the tenant
// token endpoint; the user-token path performs none.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	c := &Client{
		httpClient: cfg.HTTPClient,
		baseURL:    cfg.BaseURL,
		userIDType: cfg.UserIDType,
		logger:     cfg.Logger,
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.logger == nil {
		c.logger = hclog.NewNullLogger()
	}

	switch {
	case cfg.UserAccessToken != "":
		c.cred = Credential{Token: cfg.UserAccessToken, Mode: UserMode}
	case cfg.AppID != "" && cfg.AppSecret != "":
		token, err := c.fetchTenantToken(ctx, cfg.AppID, cfg.AppSecret)
		if err != nil {
			return nil, err
		}
		c.cred = Credential{Token: token, Mode: TenantMode}
	default:
		return nil, ErrMissingCredentials
	}

	return c, nil
}

func (c *Client) fetchTenantToken(ctx context.Context, appID, appSecret string) (string, error) {
	body, err := json.Marshal(map[string]string{
		"app_id":     appID,
		"app_secret": appSecret,
	})
	if err != nil {
		return "", fmt.Errorf("marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+tenantTokenPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("tenant token request: %w", err)
	}
	defer resp.Body.Close()

	var tokenResp tenantTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("decode tenant token response: %w", err)
	}
	if tokenResp.Code != 0 {
		return "", fmt.Errorf("tenant token exchange failed: code %d: %s",
			tokenResp.Code, tokenResp.Msg)
	}

	return tokenResp.TenantAccessToken, nil
}

// Credential returns the resolved credential.
func (c *Client) Credential() Credential { return c.cred }

// UserIDType returns the configured default user_id_type, which may be empty.
func (c *Client) UserIDType() string { return c.userIDType }

// Logger returns the client's logger, for wrappers that want to share it.
func (c *Client) Logger() hclog.Logger { return c.logger }

// URL joins an open-apis path onto the configured base URL.
func (c *Client) URL(path string) string {
	return c.baseURL + path
}

// Do issues one request with the standard headers and returns the parsed
// envelope along with the raw HTTP status. Nil-valued entries in body and
// query are stripped before transmission, so call sites can populate a full
// options map without overriding server defaults with literal nulls; zero,
// false and empty-string values are preserved.
//
// Do never returns an error for a non-2xx status: the server's own
// {code, msg, data} envelope is surfaced unchanged and success interpretation
// is left to the caller. Errors are transport or decoding failures only.
func (c *Client) Do(ctx context.Context, method, url string, body, query map[string]any) (*Envelope, error) {
	url = c.appendQuery(url, query)

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(stripNil(body))
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cred.Token)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	c.logger.Debug("request", "method", method, "url", url)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	env := &Envelope{HTTPStatus: resp.StatusCode}
	if err := json.Unmarshal(raw, env); err != nil {
		return nil, fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	return env, nil
}

// DoRaw issues a request and asserts a 2xx status, returning the raw body.
// Used by the calls whose contract is "succeed or fail loudly": file
// download and single-message fetch.
func (c *Client) DoRaw(ctx context.Context, method, url string, query map[string]any) ([]byte, error) {
	url = c.appendQuery(url, query)

	req, err := http.NewRequestWithContext(ctx, method, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cred.Token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s %s: status %d: %w", method, url, resp.StatusCode, WrapStatus(resp.StatusCode))
	}
	return body, nil
}

// PostMultipart uploads binary content as multipart/form-data with the
// bearer header and returns the parsed envelope. fields are written as plain
// form values, then r is streamed under fileField/fileName.
func (c *Client) PostMultipart(ctx context.Context, url string, fields map[string]string, fileField, fileName string, r io.Reader) (*Envelope, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("write form field %s: %w", k, err)
		}
	}
	fw, err := mw.CreateFormFile(fileField, fileName)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(fw, r); err != nil {
		return nil, fmt.Errorf("copy upload content: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cred.Token)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read upload response: %w", err)
	}
	env := &Envelope{HTTPStatus: resp.StatusCode}
	if err := json.Unmarshal(raw, env); err != nil {
		return nil, fmt.Errorf("decode upload response (status %d): %w", resp.StatusCode, err)
	}
	return env, nil
}

// appendQuery joins query onto url as plain "k=v" pairs separated by "&".
// Nil values are stripped first; an empty-valued user_id_type entry is
// substituted with the client default. No escaping is performed; values
// containing "&" or "=" will corrupt the query string. Known limitation.
func (c *Client) appendQuery(url string, query map[string]any) string {
	if query == nil {
		return url
	}
	if v, ok := query["user_id_type"]; ok {
		if v == nil || v == "" {
			if c.userIDType != "" {
				query["user_id_type"] = c.userIDType
			}
		}
	}
	cleaned := stripNil(query)
	if len(cleaned) == 0 {
		return url
	}

	pairs := make([]string, 0, len(cleaned))
	for _, k := range sortedKeys(cleaned) {
		pairs = append(pairs, fmt.Sprintf("%s=%s", k, strings.TrimSpace(formatValue(cleaned[k]))))
	}
	qs := strings.Join(pairs, "&")
	if strings.Contains(url, "?") {
		return strings.TrimRight(url, " &") + "&" + qs
	}
	return strings.TrimRight(url, "?") + "?" + qs
}

// stripNil returns a copy of m without nil-valued entries. Zero, false and
// empty-string values survive.
func stripNil(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if v == nil {
			continue
		}
		out[k] = v
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Deterministic ordering keeps request lines reproducible in tests.
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j] < keys[j-1]; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}

func formatValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case float64:
		// JSON-decoded numbers arrive as float64; render integers without
		// a fractional part.
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	default:
		return fmt.Sprintf("%v", v)
	}
}

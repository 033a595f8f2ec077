package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlow_AuthURL(t *testing.T) {
	flow := NewFlow(Config{
		AppID:       "cli_app",
		AppSecret:   "secret",
		RedirectURI: "http://localhost:9000/cb",
	})

	authURL := flow.AuthURL("drive:drive im:message", "state-123")

	parsed, err := url.Parse(authURL)
	require.NoError(t, err)

	assert.Equal(t, "open.feishu.cn", parsed.Host)
	assert.Equal(t, "/open-apis/authen/v1/index", parsed.Path)

	query := parsed.Query()
	assert.Equal(t, "cli_app", query.Get("app_id"))
	assert.Equal(t, "http://localhost:9000/cb", query.Get("redirect_uri"))
	assert.Equal(t, "drive:drive im:message", query.Get("scope"))
	assert.Equal(t, "state-123", query.Get("state"))
}

func TestFlow_AuthURL_OmitsEmptyState(t *testing.T) {
	flow := NewFlow(Config{AppID: "cli_app"})

	parsed, err := url.Parse(flow.AuthURL("drive:drive", ""))
	require.NoError(t, err)

	assert.False(t, parsed.Query().Has("state"))
}

func TestFlow_AuthURL_DefaultRedirectURI(t *testing.T) {
	flow := NewFlow(Config{AppID: "cli_app"})

	parsed, err := url.Parse(flow.AuthURL("drive:drive", ""))
	require.NoError(t, err)

	assert.Equal(t, defaultRedirectURI, parsed.Query().Get("redirect_uri"))
}

func TestGenerateState_Unique(t *testing.T) {
	assert.NotEqual(t, GenerateState(), GenerateState())
}

func TestFlow_ExchangeCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, accessTokenPath, r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "authorization_code", body["grant_type"])
		assert.Equal(t, "auth-code-1", body["code"])
		assert.Equal(t, "cli_app", body["app_id"])
		assert.Equal(t, "secret", body["app_secret"])

		_, _ = w.Write([]byte(`{"code":0,"msg":"success","data":{
			"access_token":"u-new","refresh_token":"ur-new",
			"expires_in":7200,"token_type":"Bearer","scope":"drive:drive"}}`))
	}))
	defer srv.Close()

	flow := NewFlow(Config{AppID: "cli_app", AppSecret: "secret", BaseURL: srv.URL})

	result, err := flow.ExchangeCode(context.Background(), "auth-code-1")
	require.NoError(t, err)

	require.True(t, result.Ok())
	assert.Equal(t, "u-new", result.Token.AccessToken)
	assert.Equal(t, "ur-new", result.Token.RefreshToken)
	assert.Equal(t, int64(7200), result.Token.ExpiresIn)
}

func TestFlow_ExchangeCode_ServerFailureIsDataNotError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"code":20010,"msg":"invalid code"}`))
	}))
	defer srv.Close()

	flow := NewFlow(Config{AppID: "cli_app", AppSecret: "secret", BaseURL: srv.URL})

	result, err := flow.ExchangeCode(context.Background(), "bad-code")
	require.NoError(t, err)

	assert.False(t, result.Ok())
	assert.Equal(t, 20010, result.Code)
	assert.Equal(t, "invalid code", result.Msg)
}

func TestFlow_Refresh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, refreshTokenPath, r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "refresh_token", body["grant_type"])
		assert.Equal(t, "ur-old", body["refresh_token"])

		_, _ = w.Write([]byte(`{"code":0,"msg":"success","data":{
			"access_token":"u-refreshed","refresh_token":"ur-rotated","expires_in":7200}}`))
	}))
	defer srv.Close()

	flow := NewFlow(Config{AppID: "cli_app", AppSecret: "secret", BaseURL: srv.URL})

	result, err := flow.Refresh(context.Background(), "ur-old")
	require.NoError(t, err)

	require.True(t, result.Ok())
	assert.Equal(t, "u-refreshed", result.Token.AccessToken)
	assert.Equal(t, "ur-rotated", result.Token.RefreshToken)
}

func TestFlow_GetUserInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, userInfoPath, r.URL.Path)
		assert.Equal(t, "Bearer u-token", r.Header.Get("Authorization"))

		_, _ = w.Write([]byte(`{"code":0,"msg":"success","data":{
			"name":"Ada","open_id":"ou_ada","email":"ada@corp.com"}}`))
	}))
	defer srv.Close()

	flow := NewFlow(Config{AppID: "cli_app", BaseURL: srv.URL})

	info, err := flow.GetUserInfo(context.Background(), "u-token")
	require.NoError(t, err)

	assert.Equal(t, "Ada", info.Name)
	assert.Equal(t, "ou_ada", info.OpenID)
	assert.Equal(t, "ada@corp.com", info.Email)
}

package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	assert.Error(t, Config{}.Validate())
	assert.Error(t, Config{URL: "not a url"}.Validate())
	assert.NoError(t, Config{URL: "https://open.feishu.cn/open-apis/bot/v2/hook/abc"}.Validate())
}

func TestNewBot_RejectsInvalidConfig(t *testing.T) {
	_, err := NewBot(Config{})
	require.Error(t, err)
}

func TestSend_NoSecret(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"code":0,"msg":"success"}`))
	}))
	defer srv.Close()

	bot, err := NewBot(Config{URL: srv.URL})
	require.NoError(t, err)

	resp, err := bot.Send(context.Background(), "deploy finished")
	require.NoError(t, err)
	assert.True(t, resp.Ok())

	assert.Equal(t, "text", gotBody["msg_type"])
	content := gotBody["content"].(map[string]any)
	assert.Equal(t, "deploy finished", content["text"])
	assert.NotContains(t, gotBody, "sign")
	assert.NotContains(t, gotBody, "timestamp")
}

func TestSend_SignedPayload(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	orig := timeNow
	timeNow = func() time.Time { return now }
	t.Cleanup(func() { timeNow = orig })

	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"code":0,"msg":"success"}`))
	}))
	defer srv.Close()

	bot, err := NewBot(Config{URL: srv.URL, Secret: "hush"})
	require.NoError(t, err)

	_, err = bot.Send(context.Background(), "ping")
	require.NoError(t, err)

	assert.Equal(t, "1700000000", gotBody["timestamp"])

	mac := hmac.New(sha256.New, []byte("1700000000\nhush"))
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	assert.Equal(t, want, gotBody["sign"])
}

func TestSendCard(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"code":0,"msg":"success"}`))
	}))
	defer srv.Close()

	bot, err := NewBot(Config{URL: srv.URL})
	require.NoError(t, err)

	_, err = bot.SendCard(context.Background(), map[string]any{
		"elements": []any{map[string]any{"tag": "hr"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "interactive", gotBody["msg_type"])
	assert.Contains(t, gotBody, "card")
}

func TestSend_RejectionIsDataNotError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"code":19021,"msg":"sign match fail"}`))
	}))
	defer srv.Close()

	bot, err := NewBot(Config{URL: srv.URL, Secret: "wrong"})
	require.NoError(t, err)

	resp, err := bot.Send(context.Background(), "ping")
	require.NoError(t, err)
	assert.False(t, resp.Ok())
	assert.Equal(t, 19021, resp.Code)
}

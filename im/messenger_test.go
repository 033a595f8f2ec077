package im

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benature/larkgo/lark"
)

func newTestMessenger(t *testing.T, handler http.Handler, opts Options) *Messenger {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := lark.NewClient(context.Background(), lark.Config{
		UserAccessToken: "u-test",
		BaseURL:         srv.URL,
	})
	require.NoError(t, err)
	return New(client, opts)
}

func TestSendMessage_TextWrappingAndClassifier(t *testing.T) {
	var gotPath, gotQuery string
	var gotBody map[string]any

	messenger := newTestMessenger(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"code":0,"msg":"success","data":{"message_id":"om_1"}}`))
	}), Options{ReceiveID: "ou_default"})

	env, err := messenger.SendMessage(context.Background(), "hello there", SendOptions{})
	require.NoError(t, err)
	assert.True(t, env.Ok())

	assert.Equal(t, "/im/v1/messages", gotPath)
	assert.Equal(t, "receive_id_type=open_id", gotQuery)
	assert.Equal(t, "ou_default", gotBody["receive_id"])
	assert.Equal(t, "text", gotBody["msg_type"])
	assert.JSONEq(t, `{"text":"hello there"}`, gotBody["content"].(string))
}

func TestSendMessage_ClassifierPerRecipient(t *testing.T) {
	tests := []struct {
		receiveID string
		idType    string
	}{
		{"ou_abc", "open_id"},
		{"on_abc", "union_id"},
		{"oc_room", "chat_id"},
		{"ada@corp.com", "email"},
		{"emp-42", "user_id"},
	}

	for _, tt := range tests {
		t.Run(tt.receiveID, func(t *testing.T) {
			var gotQuery string
			messenger := newTestMessenger(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotQuery = r.URL.RawQuery
				_, _ = w.Write([]byte(`{"code":0,"msg":"success","data":{}}`))
			}), Options{})

			_, err := messenger.SendMessage(context.Background(), "hi", SendOptions{ReceiveID: tt.receiveID})
			require.NoError(t, err)
			assert.Equal(t, "receive_id_type="+tt.idType, gotQuery)
		})
	}
}

func TestSendMessage_MapContentPassedVerbatim(t *testing.T) {
	var gotBody map[string]any
	messenger := newTestMessenger(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"code":0,"msg":"success","data":{}}`))
	}), Options{ReceiveID: "oc_room"})

	post := map[string]any{
		"zh_cn": map[string]any{"title": "minutes", "content": []any{}},
	}
	_, err := messenger.SendMessage(context.Background(), post, SendOptions{MsgType: MsgTypePost})
	require.NoError(t, err)

	assert.Equal(t, "post", gotBody["msg_type"])
	assert.JSONEq(t, `{"zh_cn":{"title":"minutes","content":[]}}`, gotBody["content"].(string))
}

func TestSendMessage_RejectionIsDataNotError(t *testing.T) {
	messenger := newTestMessenger(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":230001,"msg":"bot not in chat"}`))
	}), Options{ReceiveID: "oc_room"})

	env, err := messenger.SendMessage(context.Background(), "hi", SendOptions{})
	require.NoError(t, err)
	assert.False(t, env.Ok())
	assert.Equal(t, 230001, env.Code)
	// Failed sends are still recorded; RecallAll skips them.
	assert.Len(t, messenger.History(), 1)
}

func TestRecallAll_ContinuesPastFailures(t *testing.T) {
	var recalled []string
	messenger := newTestMessenger(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		id := r.URL.Path[len("/im/v1/messages/"):]
		recalled = append(recalled, id)
		if id == "om_2" {
			_, _ = w.Write([]byte(`{"code":230020,"msg":"message too old"}`))
			return
		}
		_, _ = w.Write([]byte(`{"code":0,"msg":"success"}`))
	}), Options{ReceiveID: "ou_x"})

	// Seed the send history directly with three successes and one rejection.
	for i, code := range []int{0, 0, 230001, 0} {
		env := &lark.Envelope{Code: code}
		env.Data = []byte(fmt.Sprintf(`{"message_id":"om_%d"}`, i+1))
		messenger.history = append(messenger.history, env)
	}

	outcomes := messenger.RecallAll(context.Background())

	// The code-230001 entry is skipped entirely.
	require.Len(t, outcomes, 3)
	assert.Equal(t, []string{"om_1", "om_2", "om_4"}, recalled)
	assert.True(t, outcomes[0].OK)
	assert.False(t, outcomes[1].OK)
	assert.Equal(t, "message too old", outcomes[1].Msg)
	assert.True(t, outcomes[2].OK)
}

func TestListGroupChats_Defaults(t *testing.T) {
	var gotQuery string
	messenger := newTestMessenger(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/im/v1/chats", r.URL.Path)
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"code":0,"msg":"success","data":{"items":[]}}`))
	}), Options{})

	_, err := messenger.ListGroupChats(context.Background(), ChatListOptions{PageSize: 20})
	require.NoError(t, err)

	// user_id_type is nil with no client default, so it is stripped.
	assert.Equal(t, "page_size=20&sort_type=ByCreateTimeAsc", gotQuery)
}

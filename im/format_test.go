package im

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func transcriptMessages() []Message {
	return []Message{
		{
			MessageID:  "om_1",
			MsgType:    "text",
			CreateTime: "1700000000000",
			Sender:     Sender{ID: "ou_alice"},
			Body:       Body{Content: "standup in 5"},
		},
		{
			MessageID:  "om_2",
			MsgType:    "system",
			CreateTime: "1700000001000",
			Sender:     Sender{ID: "system"},
			Body:       Body{Content: "bot joined"},
		},
		{
			MessageID:  "om_3",
			MsgType:    "text",
			CreateTime: "1700000002000",
			ParentID:   "om_1",
			Sender:     Sender{ID: "ou_bob"},
			Body:       Body{Content: "on my way"},
		},
		{
			MessageID:  "om_4",
			MsgType:    "image",
			CreateTime: "1700000003000",
			Sender:     Sender{ID: "ou_alice"},
		},
	}
}

func TestFormatMessages_Transcript(t *testing.T) {
	messenger := newTestMessenger(t, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("no request expected without ResolveNames")
	}), Options{})

	out := messenger.FormatMessages(context.Background(), transcriptMessages(), DefaultFormatOptions())
	lines := strings.Split(out, "\n")

	// The system message is skipped.
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "ou_alice")
	assert.Contains(t, lines[0], "standup in 5")
	assert.Contains(t, lines[1], "[reply to ou_alice: standup in 5...]")
	assert.Contains(t, lines[2], "[image]")
}

func TestFormatMessages_QuoteTruncatesOnRuneBoundary(t *testing.T) {
	messenger := newTestMessenger(t, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("no request expected")
	}), Options{})

	long := strings.Repeat("会", 60)
	msgs := []Message{
		{
			MessageID:  "om_1",
			MsgType:    "text",
			CreateTime: "1700000000000",
			Sender:     Sender{ID: "ou_alice"},
			Body:       Body{Content: long},
		},
		{
			MessageID:  "om_2",
			MsgType:    "text",
			CreateTime: "1700000001000",
			ParentID:   "om_1",
			Sender:     Sender{ID: "ou_bob"},
			Body:       Body{Content: "noted"},
		},
	}

	out := messenger.FormatMessages(context.Background(), msgs, DefaultFormatOptions())

	assert.True(t, utf8.ValidString(out))
	assert.Contains(t, out, strings.Repeat("会", 50)+"...")
	assert.NotContains(t, out, strings.Repeat("会", 51))
}

func TestFormatMessages_KeepSystemAndHideIDs(t *testing.T) {
	messenger := newTestMessenger(t, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("no request expected")
	}), Options{})

	out := messenger.FormatMessages(context.Background(), transcriptMessages(), FormatOptions{
		SkipSystem:    false,
		IncludeUserID: false,
	})
	lines := strings.Split(out, "\n")

	require.Len(t, lines, 4)
	assert.Contains(t, lines[1], "[system message]")
	assert.Contains(t, lines[0], "] user: ")
}

func TestFormatMessages_ResolveNames(t *testing.T) {
	messenger := newTestMessenger(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":0,"msg":"success","data":{"user":{"name":"Alice","open_id":"ou_alice"}}}`))
	}), Options{})

	msgs := transcriptMessages()[:1]
	out := messenger.FormatMessages(context.Background(), msgs, FormatOptions{
		ResolveNames: true,
		SkipSystem:   true,
	})

	assert.Contains(t, out, "Alice")
	assert.NotContains(t, out, "ou_alice")
}

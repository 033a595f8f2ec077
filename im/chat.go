package im

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/araddon/dateparse"

	"github.com/Benature/larkgo/lark"
)

// Message is one chat message as the history endpoints report it.
type Message struct {
	MessageID  string `json:"message_id"`
	RootID     string `json:"root_id,omitempty"`
	ParentID   string `json:"parent_id,omitempty"`
	MsgType    string `json:"msg_type"`
	CreateTime string `json:"create_time"`
	ChatID     string `json:"chat_id,omitempty"`
	Sender     Sender `json:"sender"`
	Body       Body   `json:"body"`
}

// Sender identifies who sent a message.
type Sender struct {
	ID         string `json:"id"`
	IDType     string `json:"id_type,omitempty"`
	SenderType string `json:"sender_type,omitempty"`
}

// Body carries the kind-dependent content, serialized as JSON text.
type Body struct {
	Content string `json:"content"`
}

// CreatedAt parses the millisecond creation timestamp. Zero when absent or
// malformed.
func (m Message) CreatedAt() time.Time {
	if m.CreateTime == "" {
		return time.Time{}
	}
	ms, err := strconv.ParseInt(m.CreateTime, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// ListMessagesOptions bound a chat-history walk.
type ListMessagesOptions struct {
	// StartTime filters to messages at or after the instant. Accepted forms:
	// time.Time, an integer or float unix-seconds value, or a parseable
	// datetime string.
	StartTime any
	// PageSize defaults to 50.
	PageSize int
	// MaxPages defaults to 10; zero or negative keeps the default rather
	// than unbinding the walk.
	MaxPages int
	// PageToken resumes a previous walk.
	PageToken string
	// Delay between pages; defaults to 100ms.
	Delay time.Duration
}

// ListChatMessages walks a chat's history, following continuation tokens up
// to the page budget. Unlike the send operations, a non-zero envelope code
// here is an error: the listing either progresses or fails.
func (m *Messenger) ListChatMessages(ctx context.Context, chatID string, opts ListMessagesOptions) (lark.ListResult[Message], error) {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = 10
	}
	delay := opts.Delay
	if delay == 0 {
		delay = 100 * time.Millisecond
	}

	query := map[string]any{
		"container_id_type": "chat",
		"container_id":      chatID,
		"page_size":         pageSize,
	}
	if opts.StartTime != nil {
		ts, err := normalizeStartTime(opts.StartTime)
		if err != nil {
			return lark.ListResult[Message]{}, err
		}
		query["start_time"] = strconv.FormatInt(ts, 10)
	}

	fetch := func(ctx context.Context, pageToken string) (lark.Page[Message], error) {
		q := make(map[string]any, len(query)+1)
		for k, v := range query {
			q[k] = v
		}
		if pageToken != "" {
			q["page_token"] = pageToken
		}

		env, err := m.client.Do(ctx, "GET", m.client.URL(messagesPath), nil, q)
		if err != nil {
			return lark.Page[Message]{}, err
		}
		if !env.Ok() {
			return lark.Page[Message]{}, fmt.Errorf("list chat messages: code %d: %s", env.Code, env.Msg)
		}

		var page lark.ListData[Message]
		if err := env.DecodeData(&page); err != nil {
			return lark.Page[Message]{}, fmt.Errorf("decode message page: %w", err)
		}
		return page.Page(), nil
	}

	return lark.Paginate(ctx, fetch, lark.PageOptions{
		PageSize:  pageSize,
		MaxPages:  maxPages,
		PageToken: opts.PageToken,
		Delay:     delay,
	})
}

// FetchChatMessages is ListChatMessages returning just the items. skipFirst
// drops the first message, for incremental pulls where the start boundary
// was already seen.
func (m *Messenger) FetchChatMessages(ctx context.Context, chatID string, opts ListMessagesOptions, skipFirst bool) ([]Message, error) {
	result, err := m.ListChatMessages(ctx, chatID, opts)
	if err != nil {
		return nil, err
	}
	if skipFirst && len(result.Items) > 0 {
		return result.Items[1:], nil
	}
	return result.Items, nil
}

// normalizeStartTime converts the accepted time forms to unix seconds.
func normalizeStartTime(v any) (int64, error) {
	switch t := v.(type) {
	case time.Time:
		return t.Unix(), nil
	case int:
		return int64(t), nil
	case int64:
		return t, nil
	case float64:
		return int64(t), nil
	case string:
		parsed, err := dateparse.ParseLocal(t)
		if err != nil {
			return 0, fmt.Errorf("unsupported time format %q: %w", t, err)
		}
		return parsed.Unix(), nil
	default:
		return 0, fmt.Errorf("unsupported time type %T", v)
	}
}

// GetMessage fetches one message by id. This call asserts transport success:
// a non-2xx status or a non-zero envelope code is an error. The platform
// returns the message (and, for threads, its merged items) as a list.
func (m *Messenger) GetMessage(ctx context.Context, messageID string) ([]Message, error) {
	raw, err := m.client.DoRaw(ctx, "GET", m.client.URL(messagesPath+"/"+messageID), nil)
	if err != nil {
		return nil, err
	}

	var env struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
		Data struct {
			Items []Message `json:"items"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode message response: %w", err)
	}
	if env.Code != 0 {
		return nil, fmt.Errorf("get message: code %d: %s", env.Code, env.Msg)
	}
	return env.Data.Items, nil
}

// DownloadFile fetches a file resource by key and returns its bytes. Asserts
// transport success like GetMessage.
func (m *Messenger) DownloadFile(ctx context.Context, fileKey string) ([]byte, error) {
	return m.client.DoRaw(ctx, "GET", m.client.URL(filesPath+"/"+fileKey), nil)
}

// Package im sends and manages instant messages: text, images, files and
// interactive cards, chat-history listing with auto-pagination, reactions,
// thread replies and recall. A Messenger remembers every message it sent so
// the whole session can be recalled afterwards.
package im

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/Benature/larkgo/lark"
)

const (
	messagesPath = "/im/v1/messages"
	imagesPath   = "/im/v1/images"
	filesPath    = "/im/v1/files"
	chatsPath    = "/im/v1/chats"
)

// MsgType is the message kind declared on send.
type MsgType string

const (
	MsgTypeText        MsgType = "text"
	MsgTypePost        MsgType = "post"
	MsgTypeImage       MsgType = "image"
	MsgTypeFile        MsgType = "file"
	MsgTypeAudio       MsgType = "audio"
	MsgTypeMedia       MsgType = "media"
	MsgTypeSticker     MsgType = "sticker"
	MsgTypeInteractive MsgType = "interactive"
	MsgTypeShareChat   MsgType = "share_chat"
	MsgTypeShareUser   MsgType = "share_user"
	MsgTypeSystem      MsgType = "system"
)

// Options configures a Messenger.
type Options struct {
	// ReceiveID is the default recipient used when a send call does not name
	// one. Its type is inferred from its shape.
	ReceiveID string
	Logger    hclog.Logger
}

// Messenger is the messaging wrapper. Safe for concurrent use.
type Messenger struct {
	client    *lark.Client
	receiveID string
	logger    hclog.Logger

	mu      sync.Mutex
	history []*lark.Envelope

	userMu    sync.Mutex
	userCache map[string]*User
}

// New wraps client for messaging.
func New(client *lark.Client, opts Options) *Messenger {
	logger := opts.Logger
	if logger == nil {
		logger = client.Logger()
	}
	return &Messenger{
		client:    client,
		receiveID: opts.ReceiveID,
		logger:    logger,
		userCache: make(map[string]*User),
	}
}

// SendOptions refine a SendMessage call. Zero values mean: the messenger's
// default recipient, text, and a recipient type inferred from the id shape.
type SendOptions struct {
	ReceiveID     string
	MsgType       MsgType
	ReceiveIDType lark.ReceiveIDType
}

// SendMessage sends one message. String content is wrapped into the minimal
// single-field body for its kind (text, image key, file key); a map or struct
// is marshalled verbatim as the full body. The response envelope is recorded
// in the send history and returned regardless of application-level success.
func (m *Messenger) SendMessage(ctx context.Context, content any, opts SendOptions) (*lark.Envelope, error) {
	receiveID := opts.ReceiveID
	if receiveID == "" {
		receiveID = m.receiveID
	}
	msgType := opts.MsgType
	if msgType == "" {
		msgType = MsgTypeText
	}
	idType := opts.ReceiveIDType
	if idType == "" {
		idType = lark.ClassifyReceiveID(receiveID)
	}

	body, err := encodeContent(content, msgType)
	if err != nil {
		return nil, err
	}

	env, err := m.client.Do(ctx, "POST", m.client.URL(messagesPath),
		map[string]any{
			"receive_id": receiveID,
			"content":    body,
			"msg_type":   string(msgType),
		},
		map[string]any{"receive_id_type": string(idType)},
	)
	if err != nil {
		return nil, err
	}

	m.logger.Debug("message sent", "msg_type", msgType, "code", env.Code)
	m.mu.Lock()
	m.history = append(m.history, env)
	m.mu.Unlock()
	return env, nil
}

// encodeContent renders the content field of a message-create call.
func encodeContent(content any, msgType MsgType) (string, error) {
	switch c := content.(type) {
	case string:
		switch msgType {
		case MsgTypeText:
			return marshalField("text", c)
		case MsgTypeImage:
			return marshalField("image_key", c)
		case MsgTypeFile:
			return marshalField("file_key", c)
		default:
			// Other kinds take a pre-serialized body.
			return c, nil
		}
	default:
		data, err := json.Marshal(content)
		if err != nil {
			return "", fmt.Errorf("marshal message content: %w", err)
		}
		return string(data), nil
	}
}

func marshalField(key, value string) (string, error) {
	data, err := json.Marshal(map[string]string{key: value})
	if err != nil {
		return "", fmt.Errorf("marshal message content: %w", err)
	}
	return string(data), nil
}

// History returns a copy of the send-history envelopes in send order.
func (m *Messenger) History() []*lark.Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*lark.Envelope, len(m.history))
	copy(out, m.history)
	return out
}

// Recall deletes a sent message.
func (m *Messenger) Recall(ctx context.Context, messageID string) (*lark.Envelope, error) {
	return m.client.Do(ctx, "DELETE", m.client.URL(messagesPath+"/"+messageID), nil, nil)
}

// RecallOutcome reports one attempt of RecallAll.
type RecallOutcome struct {
	MessageID string
	OK        bool
	Msg       string
}

// RecallAll walks the local send history and recalls every message that was
// sent successfully, continuing past individual failures. It returns one
// outcome per attempt; partial failure is expected and non-fatal.
func (m *Messenger) RecallAll(ctx context.Context) []RecallOutcome {
	var outcomes []RecallOutcome
	for _, env := range m.History() {
		if !env.Ok() {
			continue
		}
		var sent struct {
			MessageID string `json:"message_id"`
		}
		if err := env.DecodeData(&sent); err != nil || sent.MessageID == "" {
			continue
		}

		outcome := RecallOutcome{MessageID: sent.MessageID}
		resp, err := m.Recall(ctx, sent.MessageID)
		switch {
		case err != nil:
			outcome.Msg = err.Error()
		case !resp.Ok():
			outcome.Msg = resp.Msg
		default:
			outcome.OK = true
		}

		if outcome.OK {
			m.logger.Info("recalled message", "message_id", sent.MessageID)
		} else {
			m.logger.Warn("failed to recall message",
				"message_id", sent.MessageID, "reason", outcome.Msg)
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

// ChatListOptions refine ListGroupChats.
type ChatListOptions struct {
	// SortType is ByCreateTimeAsc or ByActiveTimeDesc; defaults to
	// ByCreateTimeAsc.
	SortType   string
	UserIDType string
	PageToken  string
	PageSize   int
}

// ListGroupChats lists the group chats the credential belongs to.
func (m *Messenger) ListGroupChats(ctx context.Context, opts ChatListOptions) (*lark.Envelope, error) {
	sortType := opts.SortType
	if sortType == "" {
		sortType = "ByCreateTimeAsc"
	}
	query := map[string]any{
		"sort_type":    sortType,
		"user_id_type": nil,
	}
	if opts.UserIDType != "" {
		query["user_id_type"] = opts.UserIDType
	}
	if opts.PageToken != "" {
		query["page_token"] = opts.PageToken
	}
	if opts.PageSize > 0 {
		query["page_size"] = opts.PageSize
	}
	return m.client.Do(ctx, "GET", m.client.URL(chatsPath), nil, query)
}

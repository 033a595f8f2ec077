package im

import (
	"context"
	"fmt"
)

// Reaction is one emoji reaction on a message.
type Reaction struct {
	ReactionID   string       `json:"reaction_id,omitempty"`
	ReactionType ReactionType `json:"reaction_type"`
	Operator     *Operator    `json:"operator,omitempty"`
}

// ReactionType names the emoji.
type ReactionType struct {
	EmojiType string `json:"emoji_type"`
}

// Operator identifies who reacted.
type Operator struct {
	OperatorID   string `json:"operator_id"`
	OperatorType string `json:"operator_type"`
}

// ListReactions returns a message's reactions. A rejection by the server is
// logged and reported as an empty list, not an error, so polling loops keep
// running.
func (m *Messenger) ListReactions(ctx context.Context, messageID string) ([]Reaction, error) {
	env, err := m.client.Do(ctx, "GET", m.client.URL(messagesPath+"/"+messageID+"/reactions"), nil, nil)
	if err != nil {
		return nil, err
	}
	if !env.Ok() {
		m.logger.Warn("list reactions failed", "code", env.Code, "msg", env.Msg)
		return nil, nil
	}

	var data struct {
		Items []Reaction `json:"items"`
	}
	if err := env.DecodeData(&data); err != nil {
		return nil, fmt.Errorf("decode reactions: %w", err)
	}
	return data.Items, nil
}

// AddReaction reacts to a message. emojiType defaults to DONE. The boolean
// reports application-level acceptance; rejections are logged.
func (m *Messenger) AddReaction(ctx context.Context, messageID, emojiType string) (bool, error) {
	if emojiType == "" {
		emojiType = "DONE"
	}
	env, err := m.client.Do(ctx, "POST", m.client.URL(messagesPath+"/"+messageID+"/reactions"),
		map[string]any{
			"reaction_type": map[string]any{"emoji_type": emojiType},
		}, nil)
	if err != nil {
		return false, err
	}
	if !env.Ok() {
		m.logger.Warn("add reaction failed", "code", env.Code, "msg", env.Msg)
		return false, nil
	}
	return true, nil
}

// CheckReactionStatus interprets a reaction list as a yes/no decision:
// any cancel emoji wins immediately, then any confirm emoji, then nil for no
// decision yet. Defaults: confirm THUMBSUP, cancel THUMBSDOWN.
func CheckReactionStatus(reactions []Reaction, confirmTypes, cancelTypes []string) *bool {
	if confirmTypes == nil {
		confirmTypes = []string{"THUMBSUP"}
	}
	if cancelTypes == nil {
		cancelTypes = []string{"THUMBSDOWN"}
	}

	hasConfirm := false
	for _, r := range reactions {
		emoji := r.ReactionType.EmojiType
		for _, c := range cancelTypes {
			if emoji == c {
				no := false
				return &no
			}
		}
		for _, c := range confirmTypes {
			if emoji == c {
				hasConfirm = true
			}
		}
	}
	if hasConfirm {
		yes := true
		return &yes
	}
	return nil
}

// ReplyMessage posts a threaded reply under a message. Content follows the
// SendMessage wrapping rules for its kind. The boolean reports
// application-level acceptance; rejections are logged.
func (m *Messenger) ReplyMessage(ctx context.Context, messageID string, content any, msgType MsgType) (bool, error) {
	if msgType == "" {
		msgType = MsgTypeText
	}
	body, err := encodeContent(content, msgType)
	if err != nil {
		return false, err
	}

	env, err := m.client.Do(ctx, "POST", m.client.URL(messagesPath+"/"+messageID+"/reply"),
		map[string]any{
			"content":  body,
			"msg_type": string(msgType),
		}, nil)
	if err != nil {
		return false, err
	}
	if !env.Ok() {
		m.logger.Warn("reply failed", "code", env.Code, "msg", env.Msg)
		return false, nil
	}
	return true, nil
}

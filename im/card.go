package im

import (
	"context"

	"github.com/Benature/larkgo/card"
	"github.com/Benature/larkgo/lark"
)

// SendInteractiveCard sends an interactive card and returns the created
// message id. A rejection returns an empty id alongside the envelope; only
// transport failures are errors.
func (m *Messenger) SendInteractiveCard(ctx context.Context, cardContent any, opts SendOptions) (string, *lark.Envelope, error) {
	opts.MsgType = MsgTypeInteractive
	env, err := m.SendMessage(ctx, cardContent, opts)
	if err != nil {
		return "", nil, err
	}
	if !env.Ok() {
		m.logger.Warn("interactive card rejected", "code", env.Code, "msg", env.Msg)
		return "", env, nil
	}

	var sent struct {
		MessageID string `json:"message_id"`
	}
	if err := env.DecodeData(&sent); err != nil {
		return "", env, nil
	}
	return sent.MessageID, env, nil
}

// ConfirmationOptions customize SendConfirmationCard.
type ConfirmationOptions struct {
	ReceiveID     string
	ReceiveIDType lark.ReceiveIDType
	// Color is a card header template name; defaults to blue.
	Color card.Template
	// Note is the footer hint; defaults to a thumbs-up/down legend.
	Note string
}

// SendConfirmationCard sends a card asking the recipient to confirm with a
// reaction. Pair it with ListReactions and CheckReactionStatus to poll the
// decision. Returns the message id, empty when the card was rejected.
func (m *Messenger) SendConfirmationCard(ctx context.Context, title, content string, opts ConfirmationOptions) (string, error) {
	color := opts.Color
	if color == "" {
		color = card.TemplateBlue
	}
	note := opts.Note
	if note == "" {
		note = "👍 confirm | 👎 skip"
	}

	payload := card.New().
		Header(title, color).
		Markdown(content).
		Divider().
		Note(note).
		Build()

	messageID, _, err := m.SendInteractiveCard(ctx, payload, SendOptions{
		ReceiveID:     opts.ReceiveID,
		ReceiveIDType: opts.ReceiveIDType,
	})
	return messageID, err
}

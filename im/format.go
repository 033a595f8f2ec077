package im

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// FormatOptions control FormatMessages rendering.
type FormatOptions struct {
	IncludeQuote  bool
	IncludeUserID bool
	// TimeFormat is a time.Format layout; defaults to "2006-01-02 15:04:05".
	TimeFormat string
	SkipSystem bool
	// ResolveNames replaces sender ids with display names, one contact
	// lookup per distinct sender (cached).
	ResolveNames bool
}

// DefaultFormatOptions returns the common transcript settings: quotes and
// sender ids on, system messages skipped.
func DefaultFormatOptions() FormatOptions {
	return FormatOptions{
		IncludeQuote:  true,
		IncludeUserID: true,
		TimeFormat:    "2006-01-02 15:04:05",
		SkipSystem:    true,
	}
}

// FormatMessages renders messages as a readable transcript, one line per
// message: "[time] sender [reply context]: content". ctx is only used when
// ResolveNames is set.
func (m *Messenger) FormatMessages(ctx context.Context, messages []Message, opts FormatOptions) string {
	if opts.TimeFormat == "" {
		opts.TimeFormat = "2006-01-02 15:04:05"
	}

	byID := make(map[string]Message, len(messages))
	for _, msg := range messages {
		byID[msg.MessageID] = msg
	}

	var lines []string
	for _, msg := range messages {
		if opts.SkipSystem && msg.MsgType == string(MsgTypeSystem) {
			continue
		}

		timeStr := "unknown time"
		if created := msg.CreatedAt(); !created.IsZero() {
			timeStr = created.Format(opts.TimeFormat)
		}

		sender := msg.Sender.ID
		switch {
		case opts.ResolveNames && sender != "":
			sender = m.GetUserName(ctx, sender, sender, "")
		case !opts.IncludeUserID:
			sender = "user"
		case sender == "":
			sender = "unknown sender"
		}

		quote := ""
		if opts.IncludeQuote && msg.ParentID != "" {
			if parent, ok := byID[msg.ParentID]; ok {
				content := parent.Body.Content
				if runes := []rune(content); len(runes) > 50 {
					content = string(runes[:50])
				}
				quote = fmt.Sprintf(" [reply to %s: %s...]", parent.Sender.ID, content)
			}
		}

		lines = append(lines, fmt.Sprintf("[%s] %s%s: %s", timeStr, sender, quote, renderBody(msg)))
	}
	return strings.Join(lines, "\n")
}

func renderBody(msg Message) string {
	switch msg.MsgType {
	case string(MsgTypeText):
		return msg.Body.Content
	case string(MsgTypePost):
		var post map[string]any
		if err := json.Unmarshal([]byte(msg.Body.Content), &post); err != nil {
			return "[rich text]"
		}
		return fmt.Sprintf("%v", post)
	case string(MsgTypeImage):
		return "[image]"
	case string(MsgTypeFile):
		return "[file]"
	default:
		return fmt.Sprintf("[%s message]", msg.MsgType)
	}
}

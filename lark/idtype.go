package lark

import "strings"

// ReceiveIDType classifies the destination identifier of a message.
type ReceiveIDType string

const (
	ReceiveIDTypeOpenID  ReceiveIDType = "open_id"
	ReceiveIDTypeUnionID ReceiveIDType = "union_id"
	ReceiveIDTypeUserID  ReceiveIDType = "user_id"
	ReceiveIDTypeEmail   ReceiveIDType = "email"
	ReceiveIDTypeChatID  ReceiveIDType = "chat_id"
)

// receiveIDRules are the ordered classification rules. Order is significant:
// the first matching rule wins, so an identifier with both a known prefix
// and an "@" is classified by its prefix.
var receiveIDRules = []struct {
	match func(string) bool
	kind  ReceiveIDType
}{
	{func(id string) bool { return strings.HasPrefix(id, "ou_") }, ReceiveIDTypeOpenID},
	{func(id string) bool { return strings.HasPrefix(id, "on_") }, ReceiveIDTypeUnionID},
	{func(id string) bool { return strings.HasPrefix(id, "oc_") }, ReceiveIDTypeChatID},
	{func(id string) bool { return strings.Contains(id, "@") }, ReceiveIDTypeEmail},
}

// ClassifyReceiveID infers the identifier kind from the string's prefix or
// shape. Identifiers matching no rule are treated as plain user ids.
func ClassifyReceiveID(id string) ReceiveIDType {
	for _, rule := range receiveIDRules {
		if rule.match(id) {
			return rule.kind
		}
	}
	return ReceiveIDTypeUserID
}

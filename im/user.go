package im

import (
	"context"
	"fmt"
)

const contactUsersPath = "/contact/v3/users/"

// User is a contact directory entry.
type User struct {
	Name      string `json:"name"`
	OpenID    string `json:"open_id"`
	UnionID   string `json:"union_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	Email     string `json:"email,omitempty"`
	Mobile    string `json:"mobile,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// GetUser looks up a user in the contact directory, caching results per
// (id, id type). userIDType empty falls back to the client default, then
// open_id. An empty id or a server-side rejection yields (nil, nil); the
// rejection is logged.
func (m *Messenger) GetUser(ctx context.Context, userID, userIDType string) (*User, error) {
	if userID == "" {
		return nil, nil
	}
	if userIDType == "" {
		userIDType = m.client.UserIDType()
	}
	if userIDType == "" {
		userIDType = "open_id"
	}

	cacheKey := userID + ":" + userIDType
	m.userMu.Lock()
	if cached, ok := m.userCache[cacheKey]; ok {
		m.userMu.Unlock()
		return cached, nil
	}
	m.userMu.Unlock()

	env, err := m.client.Do(ctx, "GET", m.client.URL(contactUsersPath+userID), nil,
		map[string]any{"user_id_type": userIDType})
	if err != nil {
		return nil, err
	}
	if !env.Ok() {
		m.logger.Warn("user lookup failed", "user_id", userID, "code", env.Code, "msg", env.Msg)
		return nil, nil
	}

	var data struct {
		User *User `json:"user"`
	}
	if err := env.DecodeData(&data); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	if data.User != nil {
		m.userMu.Lock()
		m.userCache[cacheKey] = data.User
		m.userMu.Unlock()
	}
	return data.User, nil
}

// GetUserName resolves a user id to a display name, falling back to the raw
// id, then to defaultName. Lookup failures are absorbed; this is a rendering
// helper, not an integrity check.
func (m *Messenger) GetUserName(ctx context.Context, userID, defaultName, userIDType string) string {
	user, err := m.GetUser(ctx, userID, userIDType)
	if err == nil && user != nil && user.Name != "" {
		return user.Name
	}
	if userID != "" {
		return userID
	}
	return defaultName
}

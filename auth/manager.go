package auth

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// managerRefreshLead is how early before expiry the manager refreshes.
const managerRefreshLead = 300

// Manager persists user tokens inside a YAML config file, under a feishu
// section, and refreshes them transparently. It is the config-file
// counterpart of TokenStore's standalone JSON token files. The config file
// may hold other sections; the manager carries the whole document and only
// ever touches the token keys of the feishu section, so sibling sections
// and unrelated feishu keys survive every save.
type Manager struct {
	path   string
	fs     afero.Fs
	flow   *Flow
	logger hclog.Logger
	doc    map[string]any
}

// NewManager loads the config at path (a missing file is an empty config)
// and returns a manager refreshing through flow.
func NewManager(path string, flow *Flow) (*Manager, error) {
	return NewManagerFS(afero.NewOsFs(), path, flow, nil)
}

// NewManagerFS is NewManager with an explicit filesystem and logger, for
// tests.
func NewManagerFS(fs afero.Fs, path string, flow *Flow, logger hclog.Logger) (*Manager, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	m := &Manager{path: path, fs: fs, flow: flow, logger: logger, doc: map[string]any{}}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		return m, nil
	}
	if err := yaml.Unmarshal(data, &m.doc); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if m.doc == nil {
		m.doc = map[string]any{}
	}
	return m, nil
}

// feishu returns the feishu section, creating it on first use.
func (m *Manager) feishu() map[string]any {
	if section, ok := m.doc["feishu"].(map[string]any); ok {
		return section
	}
	section := map[string]any{}
	m.doc["feishu"] = section
	return section
}

func (m *Manager) accessToken() string { return stringValue(m.feishu()["user_access_token"]) }

func (m *Manager) refreshToken() string { return stringValue(m.feishu()["refresh_token"]) }

func (m *Manager) expiresAtUnix() int64 { return intValue(m.feishu()["token_expires_at"]) }

// SaveTokens records a token pair and its absolute expiry instant.
func (m *Manager) SaveTokens(accessToken, refreshToken string, expiresIn int64) error {
	section := m.feishu()
	section["user_access_token"] = accessToken
	section["refresh_token"] = refreshToken
	section["token_expires_at"] = timeNow().Unix() + expiresIn
	return m.save()
}

// Valid returns a live user access token, refreshing up to five minutes
// before expiry. ErrReauthorizationRequired means no stored token can be
// made usable and the caller must run the interactive flow.
func (m *Manager) Valid(ctx context.Context) (string, error) {
	accessToken := m.accessToken()
	refreshToken := m.refreshToken()
	if accessToken == "" || refreshToken == "" {
		return "", ErrReauthorizationRequired
	}

	if timeNow().Unix() < m.expiresAtUnix()-managerRefreshLead {
		return accessToken, nil
	}

	m.logger.Info("token near expiry, refreshing")
	result, err := m.flow.Refresh(ctx, refreshToken)
	if err != nil {
		return "", err
	}
	if !result.Ok() {
		m.logger.Warn("token refresh failed", "code", result.Code, "msg", result.Msg)
		return "", ErrReauthorizationRequired
	}

	if err := m.SaveTokens(result.Token.AccessToken, result.Token.RefreshToken, result.Token.ExpiresIn); err != nil {
		return "", err
	}
	return result.Token.AccessToken, nil
}

// Clear drops the stored token keys from the config file. Other keys in the
// feishu section are left alone.
func (m *Manager) Clear() error {
	section := m.feishu()
	delete(section, "user_access_token")
	delete(section, "refresh_token")
	delete(section, "token_expires_at")
	return m.save()
}

// ExpiresAt returns the stored absolute expiry instant, zero when no token
// is stored.
func (m *Manager) ExpiresAt() time.Time {
	at := m.expiresAtUnix()
	if at == 0 {
		return time.Time{}
	}
	return time.Unix(at, 0)
}

func (m *Manager) save() error {
	if dir := filepath.Dir(m.path); dir != "." {
		if err := m.fs.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	data, err := yaml.Marshal(m.doc)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := afero.WriteFile(m.fs, m.path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

func intValue(v any) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int64:
		return n
	case uint64:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

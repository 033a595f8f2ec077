package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

// DefaultExpiryBuffer is how long before the nominal expiry a token is
// already treated as expired, to avoid using a token that dies mid-call.
const DefaultExpiryBuffer = 300 * time.Second

// TokenRecord is a persisted token pair. CreatedAt is injected locally at
// save time (seconds since epoch); the other fields come from the server.
type TokenRecord struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token,omitempty"`
	ExpiresIn        int64  `json:"expires_in"`
	RefreshExpiresIn int64  `json:"refresh_expires_in,omitempty"`
	TokenType        string `json:"token_type,omitempty"`
	Scope            string `json:"scope,omitempty"`
	CreatedAt        int64  `json:"created_at,omitempty"`
}

// Expired reports whether the record should no longer be used:
// now - created_at >= expires_in - buffer. Records missing either field are
// treated as expired, the fail-safe default.
func (r *TokenRecord) Expired(buffer time.Duration) bool {
	if r == nil || r.CreatedAt == 0 || r.ExpiresIn == 0 {
		return true
	}
	elapsed := timeNow().Unix() - r.CreatedAt
	return elapsed >= r.ExpiresIn-int64(buffer.Seconds())
}

// TokenStore persists token records as JSON files.
type TokenStore struct {
	fs afero.Fs
}

// NewTokenStore returns a store backed by the OS filesystem.
func NewTokenStore() *TokenStore {
	return NewTokenStoreFS(afero.NewOsFs())
}

// NewTokenStoreFS returns a store backed by fs; tests pass afero.NewMemMapFs.
func NewTokenStoreFS(fs afero.Fs) *TokenStore {
	return &TokenStore{fs: fs}
}

// Save writes rec to path, stamping CreatedAt with the current wall clock.
// Parent directories are created as needed.
func (s *TokenStore) Save(path string, rec TokenRecord) error {
	rec.CreatedAt = timeNow().Unix()

	if dir := filepath.Dir(path); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create token directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal token record: %w", err)
	}
	if err := afero.WriteFile(s.fs, path, data, 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

// Load reads the record at path. A missing or malformed file yields
// (nil, nil), meaning "no token" rather than an error, so callers fall
// through to authorization.
func (s *TokenStore) Load(path string) (*TokenRecord, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read token file: %w", err)
	}

	var rec TokenRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, nil
	}
	return &rec, nil
}

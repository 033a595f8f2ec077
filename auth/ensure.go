package auth

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
)

var codeParamRe = regexp.MustCompile(`code=([^&]+)`)

// Prompter drives the interactive re-authorization step: showing the
// authorization URL to the operator and reading back the redirect URL they
// were sent to. Tests supply a scripted implementation.
type Prompter interface {
	ShowAuthorizationURL(url string)
	ReadRedirectURL() (string, error)
}

// ConsolePrompter prints to stdout and reads the pasted redirect URL from
// stdin.
type ConsolePrompter struct{}

// ShowAuthorizationURL prints the URL the operator must visit.
func (ConsolePrompter) ShowAuthorizationURL(url string) {
	fmt.Println("Open the following URL in a browser and authorize the app:")
	fmt.Println(url)
	fmt.Println("After authorizing, paste the full redirect URL (it contains a code parameter).")
}

// ReadRedirectURL reads one line from stdin.
func (ConsolePrompter) ReadRedirectURL() (string, error) {
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read redirect URL: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// EnsureValid returns a usable access token, trying in order: the persisted
// record at path if not expired, a refresh of it, and finally an interactive
// re-authorization through prompt. Refresh failures degrade to the
// interactive path rather than failing; only a missing authorization code or
// a failed code exchange is an error. New tokens are persisted to path.
func (f *Flow) EnsureValid(ctx context.Context, store *TokenStore, path, scope string, prompt Prompter) (string, error) {
	rec, err := store.Load(path)
	if err != nil {
		return "", err
	}
	if rec != nil && !rec.Expired(DefaultExpiryBuffer) {
		return rec.AccessToken, nil
	}

	if rec != nil && rec.RefreshToken != "" {
		f.logger.Info("token expired, refreshing")
		result, err := f.Refresh(ctx, rec.RefreshToken)
		if err != nil {
			return "", err
		}
		if result.Ok() {
			if err := store.Save(path, result.Token); err != nil {
				return "", err
			}
			return result.Token.AccessToken, nil
		}
		f.logger.Warn("token refresh failed, reauthorization needed",
			"code", result.Code, "msg", result.Msg)
	}

	state := GenerateState()
	prompt.ShowAuthorizationURL(f.AuthURL(scope, state))

	redirectURL, err := prompt.ReadRedirectURL()
	if err != nil {
		return "", err
	}
	code, err := extractCode(redirectURL)
	if err != nil {
		return "", err
	}

	result, err := f.ExchangeCode(ctx, code)
	if err != nil {
		return "", err
	}
	if !result.Ok() {
		return "", fmt.Errorf("exchange authorization code: code %d: %s", result.Code, result.Msg)
	}
	if err := store.Save(path, result.Token); err != nil {
		return "", err
	}
	return result.Token.AccessToken, nil
}

// extractCode pulls the code query parameter out of a pasted redirect URL.
func extractCode(redirectURL string) (string, error) {
	m := codeParamRe.FindStringSubmatch(redirectURL)
	if m == nil {
		return "", ErrNoAuthCode
	}
	return m[1], nil
}

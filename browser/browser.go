// Package browser accesses endpoints that require a logged-in browser
// session. These sit outside the open-apis surface: authentication is a raw
// Cookie header captured from the browser, not a bearer token, so this
// client stands apart from the token-based gateway.
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/go-hclog"

	"github.com/Benature/larkgo/lark"
)

const recentListPath = "/space/api/explorer/recent/list/"

// userAgent matches a desktop browser; the space endpoints reject obvious
// non-browser clients.
const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Config identifies a browser session.
type Config struct {
	// Cookie is the raw Cookie header string captured from a logged-in
	// browser session.
	Cookie string
	// Domain is the tenant host, e.g. "example.feishu.cn".
	Domain string
	// BaseURL overrides "https://{Domain}", for tests.
	BaseURL    string
	HTTPClient *http.Client
	Logger     hclog.Logger
}

// Validate checks the config before any use.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Cookie, validation.Required),
		validation.Field(&c.Domain, validation.Required.When(c.BaseURL == "")),
	)
}

// Session issues cookie-authenticated requests against one tenant domain.
type Session struct {
	cookie     string
	baseURL    string
	httpClient *http.Client
	logger     hclog.Logger
}

// NewSession validates cfg and returns a session.
func NewSession(cfg Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid browser config: %w", err)
	}
	s := &Session{
		cookie:     cfg.Cookie,
		baseURL:    cfg.BaseURL,
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger,
	}
	if s.baseURL == "" {
		s.baseURL = "https://" + cfg.Domain
	}
	if s.httpClient == nil {
		s.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if s.logger == nil {
		s.logger = hclog.NewNullLogger()
	}
	return s, nil
}

// RecentOptions tune the recent-documents listing. Zero values take the
// endpoint's defaults.
type RecentOptions struct {
	// LastLabel continues a previous listing; empty starts from the top.
	LastLabel string
	// Length is the number of entries to return. Defaults to 22.
	Length int
	// ThumbnailWidth and ThumbnailHeight default to 1028.
	ThumbnailWidth  int
	ThumbnailHeight int
	// ThumbnailPolicy defaults to 4.
	ThumbnailPolicy int
	// ObjTypes filters by object kind; nil takes the full default set.
	ObjTypes []int
	// TypeOpt defaults to 1.
	TypeOpt int
	// Rank is the sort order. Defaults to 6.
	Rank int
}

func defaultObjTypes() []int { return []int{2, 22, 44, 3, 30, 8, 11, 12, 84} }

// RecentNode is one entry of the recent-documents listing.
type RecentNode struct {
	ObjToken  string `json:"obj_token"`
	Name      string `json:"name"`
	Type      int    `json:"type"`
	URL       string `json:"url"`
	OpenTime  int64  `json:"open_time"`
	EditTime  int64  `json:"edit_time"`
	IsPinned  bool   `json:"is_pined"`
	IsStarred bool   `json:"is_stared"`
}

// RecentData is the payload of SpaceRecent, for Envelope.DecodeData.
type RecentData struct {
	NodeList []string `json:"node_list"`
	Total    int      `json:"total"`
	Entities struct {
		Nodes map[string]RecentNode `json:"nodes"`
	} `json:"entities"`
}

// SpaceRecent lists the session user's recently visited documents. The
// endpoint speaks the usual {code, msg, data} envelope; the caller inspects
// it, typically through RecentData.
func (s *Session) SpaceRecent(ctx context.Context, opts RecentOptions) (*lark.Envelope, error) {
	if opts.Length <= 0 {
		opts.Length = 22
	}
	if opts.ThumbnailWidth <= 0 {
		opts.ThumbnailWidth = 1028
	}
	if opts.ThumbnailHeight <= 0 {
		opts.ThumbnailHeight = 1028
	}
	if opts.ThumbnailPolicy <= 0 {
		opts.ThumbnailPolicy = 4
	}
	if opts.TypeOpt <= 0 {
		opts.TypeOpt = 1
	}
	if opts.Rank <= 0 {
		opts.Rank = 6
	}
	if opts.ObjTypes == nil {
		opts.ObjTypes = defaultObjTypes()
	}

	pairs := []string{
		"length=" + strconv.Itoa(opts.Length),
		"thumbnail_width=" + strconv.Itoa(opts.ThumbnailWidth),
		"thumbnail_height=" + strconv.Itoa(opts.ThumbnailHeight),
		"thumbnail_policy=" + strconv.Itoa(opts.ThumbnailPolicy),
		"type_opt=" + strconv.Itoa(opts.TypeOpt),
		"rank=" + strconv.Itoa(opts.Rank),
	}
	if opts.LastLabel != "" {
		pairs = append(pairs, "last_label="+opts.LastLabel)
	}
	// obj_type repeats once per kind.
	for _, objType := range opts.ObjTypes {
		pairs = append(pairs, "obj_type="+strconv.Itoa(objType))
	}

	url := s.baseURL + recentListPath + "?" + strings.Join(pairs, "&")
	return s.get(ctx, url)
}

func (s *Session) get(ctx context.Context, url string) (*lark.Envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create browser request: %w", err)
	}
	req.Header.Set("Cookie", s.cookie)
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("browser request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read browser response: %w", err)
	}

	env := &lark.Envelope{HTTPStatus: resp.StatusCode}
	if err := json.Unmarshal(body, env); err != nil {
		return nil, fmt.Errorf("decode browser response (status %d): %w", resp.StatusCode, err)
	}
	if !env.Ok() {
		s.logger.Warn("browser endpoint rejected request", "code", env.Code, "msg", env.Msg)
	}
	return env, nil
}

// Package bitable reads and writes records of a bitable table. A client is
// bound to one (app, table) pair; the app token can also be resolved from a
// wiki token when the base lives inside a knowledge base.
package bitable

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/Benature/larkgo/lark"
	"github.com/Benature/larkgo/wiki"
)

const appsPath = "/bitable/v1/apps/"

// Record is one table row: server-assigned id plus the field map.
type Record struct {
	RecordID string         `json:"record_id"`
	Fields   map[string]any `json:"fields"`
}

// Decode maps the record's fields onto out, a struct pointer. Field names
// match struct field names or `mapstructure` tags.
func (r Record) Decode(out any) error {
	if err := mapstructure.Decode(r.Fields, out); err != nil {
		return fmt.Errorf("decode record %s: %w", r.RecordID, err)
	}
	return nil
}

// Condition is one field predicate of a search filter.
type Condition struct {
	FieldName string   `json:"field_name"`
	Operator  string   `json:"operator"`
	Value     []string `json:"value"`
}

// Cond builds a condition: field, operator (is, isNot, contains, isEmpty...)
// and the operand values.
func Cond(field, operator string, values ...string) Condition {
	return Condition{FieldName: field, Operator: operator, Value: values}
}

// Filter combines conditions with a conjunction ("and" or "or").
type Filter struct {
	Conjunction string      `json:"conjunction"`
	Conditions  []Condition `json:"conditions"`
}

// Sort orders search results by one field.
type Sort struct {
	FieldName string `json:"field_name"`
	Desc      bool   `json:"desc"`
}

// Client operates on one table.
type Client struct {
	client   *lark.Client
	appToken string
	tableID  string
}

// New binds a client to a table by app token.
func New(client *lark.Client, appToken, tableID string) *Client {
	return &Client{client: client, appToken: appToken, tableID: tableID}
}

// NewFromWikiToken resolves a wiki token to the bitable app behind it and
// binds a client to the table. One wiki get-node round trip.
func NewFromWikiToken(ctx context.Context, client *lark.Client, wikiToken, tableID string) (*Client, error) {
	node, err := wiki.New(client).GetNode(ctx, wikiToken, "bitable")
	if err != nil {
		return nil, fmt.Errorf("resolve bitable app from wiki token: %w", err)
	}
	return New(client, node.ObjToken, tableID), nil
}

// AppToken returns the bound app token.
func (c *Client) AppToken() string { return c.appToken }

func (c *Client) recordsURL(suffix string) string {
	return c.client.URL(appsPath + c.appToken + "/tables/" + c.tableID + "/records" + suffix)
}

// ListOptions bound a record walk.
type ListOptions struct {
	// PageSize defaults to 100.
	PageSize int
	// MaxPages caps the walk; zero or negative means unbounded.
	MaxPages  int
	PageToken string
}

func decodeRecordPage(env *lark.Envelope, what string) (lark.Page[Record], error) {
	if !env.Ok() {
		return lark.Page[Record]{}, fmt.Errorf("%s: code %d: %s", what, env.Code, env.Msg)
	}
	var page lark.ListData[Record]
	if err := env.DecodeData(&page); err != nil {
		return lark.Page[Record]{}, fmt.Errorf("decode record page: %w", err)
	}
	return page.Page(), nil
}

// ListRecords walks the table's records in storage order.
func (c *Client) ListRecords(ctx context.Context, opts ListOptions) (lark.ListResult[Record], error) {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}

	fetch := func(ctx context.Context, pageToken string) (lark.Page[Record], error) {
		query := map[string]any{"page_size": pageSize}
		if pageToken != "" {
			query["page_token"] = pageToken
		}
		env, err := c.client.Do(ctx, "GET", c.recordsURL(""), nil, query)
		if err != nil {
			return lark.Page[Record]{}, err
		}
		return decodeRecordPage(env, "list records")
	}

	return lark.Paginate(ctx, fetch, lark.PageOptions{
		PageSize:  pageSize,
		MaxPages:  opts.MaxPages,
		PageToken: opts.PageToken,
	})
}

// SearchOptions shape a filtered record search.
type SearchOptions struct {
	ViewID     string
	FieldNames []string
	Filter     *Filter
	Sort       []Sort
	// PageSize defaults to 100.
	PageSize  int
	MaxPages  int
	PageToken string
}

// SearchRecords walks the records matching a filter, in view or sort order.
func (c *Client) SearchRecords(ctx context.Context, opts SearchOptions) (lark.ListResult[Record], error) {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}

	body := map[string]any{}
	if opts.ViewID != "" {
		body["view_id"] = opts.ViewID
	}
	if len(opts.FieldNames) > 0 {
		body["field_names"] = opts.FieldNames
	}
	if opts.Filter != nil {
		body["filter"] = opts.Filter
	}
	if len(opts.Sort) > 0 {
		body["sort"] = opts.Sort
	}

	fetch := func(ctx context.Context, pageToken string) (lark.Page[Record], error) {
		query := map[string]any{"page_size": pageSize}
		if pageToken != "" {
			query["page_token"] = pageToken
		}
		env, err := c.client.Do(ctx, "POST", c.recordsURL("/search"), body, query)
		if err != nil {
			return lark.Page[Record]{}, err
		}
		return decodeRecordPage(env, "search records")
	}

	return lark.Paginate(ctx, fetch, lark.PageOptions{
		PageSize:  pageSize,
		MaxPages:  opts.MaxPages,
		PageToken: opts.PageToken,
	})
}

// CreateRecord inserts one record.
func (c *Client) CreateRecord(ctx context.Context, fields map[string]any) (*lark.Envelope, error) {
	return c.client.Do(ctx, "POST", c.recordsURL(""), map[string]any{"fields": fields}, nil)
}

// UpdateRecord replaces one record's fields.
func (c *Client) UpdateRecord(ctx context.Context, recordID string, fields map[string]any) (*lark.Envelope, error) {
	return c.client.Do(ctx, "PUT", c.recordsURL("/"+recordID), map[string]any{"fields": fields}, nil)
}

// DeleteRecord removes one record.
func (c *Client) DeleteRecord(ctx context.Context, recordID string) (*lark.Envelope, error) {
	return c.client.Do(ctx, "DELETE", c.recordsURL("/"+recordID), nil, nil)
}

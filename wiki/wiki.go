// Package wiki reads and writes knowledge-base nodes: resolving a wiki token
// to its backing object, creating nodes, and walking a node's children.
package wiki

import (
	"context"
	"fmt"

	"github.com/Benature/larkgo/lark"
)

const (
	getNodePath = "/wiki/v2/spaces/get_node"
	spacesPath  = "/wiki/v2/spaces/"
)

// Node is one knowledge-base node. ObjToken is the id of the backing object
// (document, sheet, bitable app) most callers are after.
type Node struct {
	SpaceID         string `json:"space_id"`
	NodeToken       string `json:"node_token"`
	ObjToken        string `json:"obj_token"`
	ObjType         string `json:"obj_type"`
	ParentNodeToken string `json:"parent_node_token,omitempty"`
	NodeType        string `json:"node_type,omitempty"`
	OriginNodeToken string `json:"origin_node_token,omitempty"`
	HasChild        bool   `json:"has_child,omitempty"`
	Title           string `json:"title"`
}

// Client queries the wiki API.
type Client struct {
	client *lark.Client
}

// New wraps client for wiki operations.
func New(client *lark.Client) *Client {
	return &Client{client: client}
}

// GetNode resolves a wiki token to its node, including the backing object
// token. objType narrows the lookup when the token kind is known; empty lets
// the server infer it.
func (c *Client) GetNode(ctx context.Context, token, objType string) (*Node, error) {
	query := map[string]any{"token": token}
	if objType != "" {
		query["obj_type"] = objType
	}

	env, err := c.client.Do(ctx, "GET", c.client.URL(getNodePath), nil, query)
	if err != nil {
		return nil, err
	}
	if !env.Ok() {
		return nil, fmt.Errorf("get wiki node: code %d: %s", env.Code, env.Msg)
	}

	var data struct {
		Node Node `json:"node"`
	}
	if err := env.DecodeData(&data); err != nil {
		return nil, fmt.Errorf("decode wiki node: %w", err)
	}
	return &data.Node, nil
}

// NodeDraft describes a node to create. Zero values mean: a docx document,
// created as an original node at the space root, titled "Untitled".
type NodeDraft struct {
	ObjType         string
	Title           string
	ParentNodeToken string
	// NodeType is origin or shortcut.
	NodeType string
}

// CreateNode creates a node in a space.
func (c *Client) CreateNode(ctx context.Context, spaceID string, draft NodeDraft) (*lark.Envelope, error) {
	if draft.ObjType == "" {
		draft.ObjType = "docx"
	}
	if draft.NodeType == "" {
		draft.NodeType = "origin"
	}
	if draft.Title == "" {
		draft.Title = "Untitled"
	}

	body := map[string]any{
		"obj_type":  draft.ObjType,
		"node_type": draft.NodeType,
		"title":     draft.Title,
	}
	if draft.ParentNodeToken != "" {
		body["parent_node_token"] = draft.ParentNodeToken
	}
	return c.client.Do(ctx, "POST", c.client.URL(spacesPath+spaceID+"/nodes"), body, nil)
}

// ListNodeChildren fetches one page of a node's direct children.
// parentNodeToken empty means the space root; pageSize defaults to 50, the
// endpoint maximum.
func (c *Client) ListNodeChildren(ctx context.Context, spaceID, parentNodeToken string, pageSize int, pageToken string) (*lark.Envelope, error) {
	if pageSize <= 0 {
		pageSize = 50
	}
	query := map[string]any{"page_size": pageSize}
	if parentNodeToken != "" {
		query["parent_node_token"] = parentNodeToken
	}
	if pageToken != "" {
		query["page_token"] = pageToken
	}
	return c.client.Do(ctx, "GET", c.client.URL(spacesPath+spaceID+"/nodes"), nil, query)
}

// AllNodeChildren walks every direct child of a node, following continuation
// tokens.
func (c *Client) AllNodeChildren(ctx context.Context, spaceID, parentNodeToken string) ([]Node, error) {
	fetch := func(ctx context.Context, pageToken string) (lark.Page[Node], error) {
		env, err := c.ListNodeChildren(ctx, spaceID, parentNodeToken, 50, pageToken)
		if err != nil {
			return lark.Page[Node]{}, err
		}
		if !env.Ok() {
			return lark.Page[Node]{}, fmt.Errorf("list wiki nodes: code %d: %s", env.Code, env.Msg)
		}
		var page lark.ListData[Node]
		if err := env.DecodeData(&page); err != nil {
			return lark.Page[Node]{}, fmt.Errorf("decode wiki node page: %w", err)
		}
		return page.Page(), nil
	}

	result, err := lark.Paginate(ctx, fetch, lark.PageOptions{PageSize: 50})
	if err != nil {
		return nil, err
	}
	return result.Items, nil
}

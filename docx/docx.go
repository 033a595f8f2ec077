// Package docx edits cloud documents block by block: document creation,
// block CRUD with revision pinning, auto-paginated block listing, and
// convenience builders for the common block kinds.
package docx

import (
	"context"
	"errors"
	"fmt"

	"github.com/Benature/larkgo/lark"
)

const documentsPath = "/docx/v1/documents"

// ErrNoDocument means a block operation ran before any document was bound.
// Create one with CreateDocument or pass an id to New.
var ErrNoDocument = errors.New("docx: no document bound")

// ErrHeadingLevel means a heading level outside 1..9 was requested.
var ErrHeadingLevel = errors.New("docx: heading level must be between 1 and 9")

// BlockType enumerates the platform's document block kinds.
type BlockType int

const (
	BlockTypePage BlockType = iota + 1
	BlockTypeText
	BlockTypeHeading1
	BlockTypeHeading2
	BlockTypeHeading3
	BlockTypeHeading4
	BlockTypeHeading5
	BlockTypeHeading6
	BlockTypeHeading7
	BlockTypeHeading8
	BlockTypeHeading9
	BlockTypeBullet
	BlockTypeOrdered
	BlockTypeCode
	BlockTypeQuote
	BlockTypeEquation
	BlockTypeTodo
	BlockTypeBitable
	BlockTypeCallout
	BlockTypeChatCard
	BlockTypeDiagram
	BlockTypeDivider
	BlockTypeFile
	BlockTypeGrid
	BlockTypeGridColumn
	BlockTypeIframe
	BlockTypeImage
	BlockTypeISV
	BlockTypeMindnote
	BlockTypeSheet
	BlockTypeTable
	BlockTypeTableCell
	BlockTypeView
	BlockTypeUndefined
	BlockTypeQuoteContainer
	BlockTypeTask
	BlockTypeOKR
	BlockTypeOKRObjective
	BlockTypeOKRKeyResult
	BlockTypeOKRProgress
	BlockTypeAddOns
	BlockTypeJiraIssue
	BlockTypeWikiCatalog
	BlockTypeBoard
	BlockTypeAgenda
	BlockTypeEmbedPage
)

// Block is a document block payload. The shape is kind-dependent, so blocks
// travel as loose maps; the builders in this package produce the common ones.
type Block map[string]any

// Client edits one document. Not safe for concurrent use while unbound:
// CreateDocument mutates the bound document id.
type Client struct {
	client     *lark.Client
	documentID string
}

// New returns a document editor. documentID may be empty when the document
// will be created through CreateDocument.
func New(client *lark.Client, documentID string) *Client {
	return &Client{client: client, documentID: documentID}
}

// DocumentID returns the bound document id, empty when unbound.
func (c *Client) DocumentID() string { return c.documentID }

// CreateDocument creates a blank document and, on success, binds the client
// to it so block operations can follow immediately. folderToken empty means
// the root folder.
func (c *Client) CreateDocument(ctx context.Context, title, folderToken string) (*lark.Envelope, error) {
	if title == "" {
		title = "Untitled document"
	}
	body := map[string]any{"title": title}
	if folderToken != "" {
		body["folder_token"] = folderToken
	}

	env, err := c.client.Do(ctx, "POST", c.client.URL(documentsPath), body, nil)
	if err != nil {
		return nil, err
	}
	if env.Ok() {
		var created struct {
			Document struct {
				DocumentID string `json:"document_id"`
			} `json:"document"`
		}
		if err := env.DecodeData(&created); err != nil {
			return nil, fmt.Errorf("decode created document: %w", err)
		}
		c.documentID = created.Document.DocumentID
	}
	return env, nil
}

func (c *Client) ensureDocument() error {
	if c.documentID == "" {
		return ErrNoDocument
	}
	return nil
}

func (c *Client) blocksURL(suffix string) string {
	return c.client.URL(documentsPath + "/" + c.documentID + "/blocks" + suffix)
}

// BlockOptions position and pin a block operation.
type BlockOptions struct {
	// Index is the insertion position among the parent's children; nil
	// appends at the end.
	Index *int
	// BlockID is the parent block; empty means the document root.
	BlockID string
	// RevisionID pins the document revision; zero means latest.
	RevisionID int
}

func (o BlockOptions) revision() int {
	if o.RevisionID == 0 {
		return -1
	}
	return o.RevisionID
}

// CreateBlocks inserts children under a parent block.
func (c *Client) CreateBlocks(ctx context.Context, children []Block, opts BlockOptions) (*lark.Envelope, error) {
	if err := c.ensureDocument(); err != nil {
		return nil, err
	}
	parent := opts.BlockID
	if parent == "" {
		parent = c.documentID
	}
	index := -1
	if opts.Index != nil {
		index = *opts.Index
	}

	return c.client.Do(ctx, "POST", c.blocksURL("/"+parent+"/children"),
		map[string]any{
			"children": children,
			"index":    index,
		},
		map[string]any{"document_revision_id": opts.revision()},
	)
}

// GetBlock fetches one block's rich content.
func (c *Client) GetBlock(ctx context.Context, blockID string, opts BlockOptions) (*lark.Envelope, error) {
	if err := c.ensureDocument(); err != nil {
		return nil, err
	}
	return c.client.Do(ctx, "GET", c.blocksURL("/"+blockID), nil, map[string]any{
		"document_revision_id": opts.revision(),
		"user_id_type":         nil,
	})
}

// ListBlockChildren fetches one page of a block's children. blockID empty
// means the document root; pageSize defaults to 500, the endpoint maximum.
func (c *Client) ListBlockChildren(ctx context.Context, blockID string, pageSize int, pageToken string, opts BlockOptions) (*lark.Envelope, error) {
	if err := c.ensureDocument(); err != nil {
		return nil, err
	}
	if blockID == "" {
		blockID = c.documentID
	}
	if pageSize <= 0 {
		pageSize = 500
	}
	query := map[string]any{
		"page_size":            pageSize,
		"document_revision_id": opts.revision(),
		"user_id_type":         nil,
	}
	if pageToken != "" {
		query["page_token"] = pageToken
	}
	return c.client.Do(ctx, "GET", c.blocksURL("/"+blockID+"/children"), nil, query)
}

// AllBlocks walks every child of a block, following continuation tokens.
// blockID empty means the document root.
func (c *Client) AllBlocks(ctx context.Context, blockID string, opts BlockOptions) ([]Block, error) {
	if err := c.ensureDocument(); err != nil {
		return nil, err
	}

	fetch := func(ctx context.Context, pageToken string) (lark.Page[Block], error) {
		env, err := c.ListBlockChildren(ctx, blockID, 500, pageToken, opts)
		if err != nil {
			return lark.Page[Block]{}, err
		}
		if !env.Ok() {
			return lark.Page[Block]{}, fmt.Errorf("list blocks: code %d: %s", env.Code, env.Msg)
		}
		var page lark.ListData[Block]
		if err := env.DecodeData(&page); err != nil {
			return lark.Page[Block]{}, fmt.Errorf("decode block page: %w", err)
		}
		return page.Page(), nil
	}

	result, err := lark.Paginate(ctx, fetch, lark.PageOptions{PageSize: 500})
	if err != nil {
		return nil, err
	}
	return result.Items, nil
}

// UpdateBlock patches one block's content.
func (c *Client) UpdateBlock(ctx context.Context, blockID string, update map[string]any, opts BlockOptions) (*lark.Envelope, error) {
	if err := c.ensureDocument(); err != nil {
		return nil, err
	}
	return c.client.Do(ctx, "PATCH", c.blocksURL("/"+blockID), update, map[string]any{
		"document_revision_id": opts.revision(),
		"user_id_type":         nil,
	})
}

// BatchUpdateBlocks patches several blocks in one call. Each request entry
// carries a block_id plus its update payload.
func (c *Client) BatchUpdateBlocks(ctx context.Context, requests []map[string]any, opts BlockOptions) (*lark.Envelope, error) {
	if err := c.ensureDocument(); err != nil {
		return nil, err
	}
	return c.client.Do(ctx, "PATCH", c.blocksURL("/batch_update"),
		map[string]any{"requests": requests},
		map[string]any{
			"document_revision_id": opts.revision(),
			"user_id_type":         nil,
		})
}

// DeleteBlocks removes the children in [startIndex, endIndex) of a parent
// block. opts.BlockID empty means the document root.
func (c *Client) DeleteBlocks(ctx context.Context, startIndex, endIndex int, opts BlockOptions) (*lark.Envelope, error) {
	if err := c.ensureDocument(); err != nil {
		return nil, err
	}
	parent := opts.BlockID
	if parent == "" {
		parent = c.documentID
	}
	return c.client.Do(ctx, "DELETE", c.blocksURL("/"+parent+"/children/batch_delete"),
		map[string]any{
			"start_index": startIndex,
			"end_index":   endIndex,
		},
		map[string]any{"document_revision_id": opts.revision()},
	)
}

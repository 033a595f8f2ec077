package docx

import (
	"context"
	"fmt"

	"github.com/Benature/larkgo/lark"
)

// textElements is the element list every text-bearing block carries.
func textElements(content string) []map[string]any {
	return []map[string]any{
		{"text_run": map[string]any{"content": content}},
	}
}

// textBlock builds a block whose payload sits under field with the standard
// elements/style shape.
func textBlock(blockType BlockType, field, content string, style map[string]any) Block {
	if style == nil {
		style = map[string]any{}
	}
	return Block{
		"block_type": int(blockType),
		field: map[string]any{
			"elements": textElements(content),
			"style":    style,
		},
	}
}

// TextBlock builds a plain text block.
func TextBlock(content string, style map[string]any) Block {
	return textBlock(BlockTypeText, "text", content, style)
}

// HeadingBlock builds a heading block at level 1..9.
func HeadingBlock(content string, level int) (Block, error) {
	if level < 1 || level > 9 {
		return nil, fmt.Errorf("%w: got %d", ErrHeadingLevel, level)
	}
	field := fmt.Sprintf("heading%d", level)
	return textBlock(BlockTypeHeading1+BlockType(level-1), field, content, nil), nil
}

// BulletBlock builds an unordered list item.
func BulletBlock(content string) Block {
	return textBlock(BlockTypeBullet, "bullet", content, nil)
}

// OrderedBlock builds an ordered list item.
func OrderedBlock(content string) Block {
	return textBlock(BlockTypeOrdered, "ordered", content, nil)
}

// CodeBlock builds a code block. language is the platform's numeric language
// id; zero leaves it unset.
func CodeBlock(content string, language int) Block {
	style := map[string]any{}
	if language > 0 {
		style["language"] = language
	}
	return textBlock(BlockTypeCode, "code", content, style)
}

// QuoteBlock builds a quote block.
func QuoteBlock(content string) Block {
	return textBlock(BlockTypeQuote, "quote", content, nil)
}

// TodoBlock builds a todo item, optionally already checked.
func TodoBlock(content string, done bool) Block {
	return textBlock(BlockTypeTodo, "todo", content, map[string]any{"done": done})
}

// DividerBlock builds a horizontal divider.
func DividerBlock() Block {
	return Block{
		"block_type": int(BlockTypeDivider),
		"divider":    map[string]any{},
	}
}

// CreateTextBlock appends a text block.
func (c *Client) CreateTextBlock(ctx context.Context, content string, opts BlockOptions) (*lark.Envelope, error) {
	return c.CreateBlocks(ctx, []Block{TextBlock(content, nil)}, opts)
}

// CreateHeadingBlock appends a heading block at level 1..9.
func (c *Client) CreateHeadingBlock(ctx context.Context, content string, level int, opts BlockOptions) (*lark.Envelope, error) {
	block, err := HeadingBlock(content, level)
	if err != nil {
		return nil, err
	}
	return c.CreateBlocks(ctx, []Block{block}, opts)
}

// CreateBulletBlock appends an unordered list item.
func (c *Client) CreateBulletBlock(ctx context.Context, content string, opts BlockOptions) (*lark.Envelope, error) {
	return c.CreateBlocks(ctx, []Block{BulletBlock(content)}, opts)
}

// CreateOrderedBlock appends an ordered list item.
func (c *Client) CreateOrderedBlock(ctx context.Context, content string, opts BlockOptions) (*lark.Envelope, error) {
	return c.CreateBlocks(ctx, []Block{OrderedBlock(content)}, opts)
}

// CreateCodeBlock appends a code block.
func (c *Client) CreateCodeBlock(ctx context.Context, content string, language int, opts BlockOptions) (*lark.Envelope, error) {
	return c.CreateBlocks(ctx, []Block{CodeBlock(content, language)}, opts)
}

// CreateQuoteBlock appends a quote block.
func (c *Client) CreateQuoteBlock(ctx context.Context, content string, opts BlockOptions) (*lark.Envelope, error) {
	return c.CreateBlocks(ctx, []Block{QuoteBlock(content)}, opts)
}

// CreateTodoBlock appends a todo item.
func (c *Client) CreateTodoBlock(ctx context.Context, content string, done bool, opts BlockOptions) (*lark.Envelope, error) {
	return c.CreateBlocks(ctx, []Block{TodoBlock(content, done)}, opts)
}

// CreateDividerBlock appends a divider.
func (c *Client) CreateDividerBlock(ctx context.Context, opts BlockOptions) (*lark.Envelope, error) {
	return c.CreateBlocks(ctx, []Block{DividerBlock()}, opts)
}

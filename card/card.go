// Package card builds interactive-card payloads for Lark/Feishu messages.
// A Builder assembles the header and element list; Build returns the JSON
// shape the message-create endpoint expects under msg_type "interactive".
package card

// Template is a header color template name.
type Template string

const (
	TemplateBlue      Template = "blue"
	TemplateWathet    Template = "wathet"
	TemplateTurquoise Template = "turquoise"
	TemplateGreen     Template = "green"
	TemplateYellow    Template = "yellow"
	TemplateOrange    Template = "orange"
	TemplateRed       Template = "red"
	TemplateCarmine   Template = "carmine"
	TemplateViolet    Template = "violet"
	TemplatePurple    Template = "purple"
	TemplateIndigo    Template = "indigo"
	TemplateGrey      Template = "grey"
)

// Builder accumulates card elements in order. The zero value is usable.
type Builder struct {
	header   map[string]any
	elements []map[string]any
}

// New returns an empty builder.
func New() *Builder {
	return &Builder{}
}

// Header sets the card title with a color template.
func (b *Builder) Header(title string, template Template) *Builder {
	b.header = map[string]any{
		"template": string(template),
		"title": map[string]any{
			"tag":     "plain_text",
			"content": title,
		},
	}
	return b
}

// Markdown appends a div element rendered as lark_md.
func (b *Builder) Markdown(content string) *Builder {
	b.elements = append(b.elements, map[string]any{
		"tag": "div",
		"text": map[string]any{
			"tag":     "lark_md",
			"content": content,
		},
	})
	return b
}

// Text appends a div element rendered as plain text.
func (b *Builder) Text(content string) *Builder {
	b.elements = append(b.elements, map[string]any{
		"tag": "div",
		"text": map[string]any{
			"tag":     "plain_text",
			"content": content,
		},
	})
	return b
}

// Divider appends a horizontal rule.
func (b *Builder) Divider() *Builder {
	b.elements = append(b.elements, map[string]any{"tag": "hr"})
	return b
}

// Note appends a footer note element.
func (b *Builder) Note(content string) *Builder {
	b.elements = append(b.elements, map[string]any{
		"tag": "note",
		"elements": []map[string]any{
			{"tag": "plain_text", "content": content},
		},
	})
	return b
}

// Build returns the card payload. The element slice is shared, not copied;
// do not mutate the builder after Build.
func (b *Builder) Build() map[string]any {
	out := map[string]any{}
	if b.header != nil {
		out["header"] = b.header
	}
	if b.elements != nil {
		out["elements"] = b.elements
	}
	return out
}

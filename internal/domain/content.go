package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Content is the body of a message. The remote service sends either a plain
// string, a list of typed blocks, or some other JSON value.
type Content interface {
	PlainText() string
}

// TextContent is content sent as a bare string.
type TextContent string

// PlainText returns the string unchanged.
func (t TextContent) PlainText() string {
	return string(t)
}

// ContentBlock is one typed entry of a block list.
type ContentBlock struct {
	Type string     `json:"type"`
	Text *BlockText `json:"text,omitempty"`
}

// BlockText is the payload of a "text" block.
type BlockText struct {
	Value string `json:"value"`
}

// BlockContent is content sent as a list of typed blocks.
type BlockContent []ContentBlock

// PlainText joins the values of the text blocks with newlines, in order.
// Blocks of any other type are dropped.
func (b BlockContent) PlainText() string {
	parts := make([]string, 0, len(b))
	for _, block := range b {
		if block.Type != "text" || block.Text == nil || block.Text.Value == "" {
			continue
		}
		parts = append(parts, block.Text.Value)
	}
	return strings.Join(parts, "\n")
}

// OpaqueContent is any other JSON value.
type OpaqueContent json.RawMessage

// PlainText renders the value as indented JSON.
func (o OpaqueContent) PlainText() string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, o, "", "  "); err != nil {
		return string(o)
	}
	return buf.String()
}

// DecodeContent picks the content variant from the raw JSON. Null or absent
// content decodes to nil.
func DecodeContent(raw json.RawMessage) (Content, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, fmt.Errorf("failed to decode text content: %w", err)
		}
		return TextContent(s), nil
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("failed to decode content blocks: %w", err)
		}
		blocks := make(BlockContent, 0, len(items))
		for _, item := range items {
			var block ContentBlock
			if err := json.Unmarshal(item, &block); err != nil {
				// Not a text block shape; keep its position as an untyped entry.
				blocks = append(blocks, ContentBlock{})
				continue
			}
			blocks = append(blocks, block)
		}
		return blocks, nil
	default:
		return OpaqueContent(append(json.RawMessage(nil), trimmed...)), nil
	}
}

// IsEmpty reports whether content carries nothing worth extracting.
func IsEmpty(c Content) bool {
	if c == nil {
		return true
	}
	if t, ok := c.(TextContent); ok {
		return t == ""
	}
	return false
}

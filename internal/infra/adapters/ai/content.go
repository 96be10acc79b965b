package ai

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var errContentShape = errors.New("unsupported message content shape")

// ContentPart is one typed element of a structured message body.
type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// MessageContent is what chat-completion vendors return as a message body:
// either a plain string or an ordered list of typed parts.
type MessageContent struct {
	Text    string
	Parts   []ContentPart
	isParts bool
}

// TextContent builds a single-part structured body.
func TextContent(text string) MessageContent {
	return MessageContent{Parts: []ContentPart{{Type: "text", Text: text}}, isParts: true}
}

func (c MessageContent) MarshalJSON() ([]byte, error) {
	if c.isParts {
		return json.Marshal(c.Parts)
	}
	return json.Marshal(c.Text)
}

func (c *MessageContent) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*c = MessageContent{}
		return nil
	}
	switch b[0] {
	case '"':
		*c = MessageContent{}
		return json.Unmarshal(b, &c.Text)
	case '[':
		var parts []ContentPart
		if err := json.Unmarshal(b, &parts); err != nil {
			return err
		}
		*c = MessageContent{Parts: parts, isParts: true}
		return nil
	default:
		return fmt.Errorf("%w: %.20s", errContentShape, b)
	}
}

// String flattens the content: a plain string is returned as is, otherwise
// only "text" parts are kept, joined by newlines.
func (c MessageContent) String() string {
	if !c.isParts {
		return c.Text
	}
	texts := make([]string, 0, len(c.Parts))
	for _, p := range c.Parts {
		if p.Type == "text" {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n")
}

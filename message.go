package visionchat

import "strings"

// Role identifies the author of a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ImageData is a base64-encoded image payload with its MIME type.
type ImageData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

// Part is one piece of message content: either text or an image.
// Exactly one of Text and Image is set.
type Part struct {
	Text  string     `json:"text,omitempty"`
	Image *ImageData `json:"image,omitempty"`
}

// TextPart creates a text content part.
func TextPart(s string) Part {
	return Part{Text: s}
}

// ImagePart creates an image content part.
func ImagePart(img ImageData) Part {
	return Part{Image: &img}
}

// Message is a single exchange in a conversation. The ordered message list is
// the entire conversational context; drivers are stateless between calls and
// receive the full list on every turn.
type Message struct {
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

// Text creates a plain text message with the given role.
func Text(role Role, s string) Message {
	return Message{Role: role, Parts: []Part{TextPart(s)}}
}

// Text returns the concatenation of the message's text parts.
func (m Message) Text() string {
	var b strings.Builder
	for _, p := range m.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

// HasImage reports whether any part of the message carries image content.
func (m Message) HasImage() bool {
	for _, p := range m.Parts {
		if p.Image != nil {
			return true
		}
	}
	return false
}

package chat

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/calvertml/visionchat"
)

// HistoryMessage is one persisted conversation turn.
type HistoryMessage struct {
	Role      visionchat.Role `json:"role"`
	Content   string          `json:"content"`
	Timestamp string          `json:"timestamp"`
}

// History is the on-disk conversation record, stored as JSON at a fixed path.
// Every turn is saved immediately after it completes, so a failed turn never
// corrupts what earlier turns already persisted.
type History struct {
	Messages []HistoryMessage `json:"messages"`

	path string
}

// LoadHistory reads the history file at path. A missing file yields an empty
// history bound to the same path.
func LoadHistory(path string) (*History, error) {
	h := &History{path: path}
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return h, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read chat history: %w", err)
	}
	if err := json.Unmarshal(raw, h); err != nil {
		return nil, fmt.Errorf("failed to parse chat history: %w", err)
	}
	return h, nil
}

// Append records one turn and saves the file.
func (h *History) Append(role visionchat.Role, content string) error {
	h.Messages = append(h.Messages, HistoryMessage{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().Format(time.RFC3339),
	})
	return h.Save()
}

// Save writes the history back to its file.
func (h *History) Save() error {
	raw, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal chat history: %w", err)
	}
	if err := os.WriteFile(h.path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write chat history: %w", err)
	}
	return nil
}

// AsMessages converts the persisted record back into the ordered message list
// a driver consumes.
func (h *History) AsMessages() []visionchat.Message {
	msgs := make([]visionchat.Message, 0, len(h.Messages))
	for _, m := range h.Messages {
		msgs = append(msgs, visionchat.Text(m.Role, m.Content))
	}
	return msgs
}

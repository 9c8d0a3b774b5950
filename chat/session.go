// Package chat owns the running conversation: it holds the ordered message
// list, feeds the full history to the active driver once per user turn,
// appends the result, and persists every completed turn.
package chat

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/calvertml/visionchat"
)

// Session drives one conversation against one initialized driver. Generation
// is synchronous: a turn completes (or fails) before the next one starts,
// because every call consumes the state the previous call produced.
type Session struct {
	driver   visionchat.Driver
	history  *History
	sink     io.Writer
	messages []visionchat.Message
}

// NewSession creates a session over an initialized driver. Fragments stream
// to sink as they arrive; history persists completed turns. Previously
// persisted turns are loaded into the working message list.
func NewSession(driver visionchat.Driver, history *History, sink io.Writer) *Session {
	return &Session{
		driver:   driver,
		history:  history,
		sink:     sink,
		messages: history.AsMessages(),
	}
}

// Messages returns the session's current ordered message list.
func (s *Session) Messages() []visionchat.Message {
	return s.messages
}

// Send runs one conversation turn: the user input is appended to the
// history, the full ordered message list goes to the driver, and the reply
// is appended and persisted. On error the working list and persisted history
// keep only the user's side of the failed turn; prior turns are untouched.
func (s *Session) Send(ctx context.Context, input string) (string, error) {
	if err := s.history.Append(visionchat.RoleUser, input); err != nil {
		return "", err
	}
	s.messages = append(s.messages, visionchat.Text(visionchat.RoleUser, input))

	reply, err := s.driver.GenerateResponse(ctx, s.messages, s.sink)
	if err != nil {
		log.Error().Err(err).Msg("turn failed")
		return "", err
	}

	s.messages = append(s.messages, visionchat.Text(visionchat.RoleAssistant, reply))
	if err := s.history.Append(visionchat.RoleAssistant, reply); err != nil {
		return "", err
	}
	return reply, nil
}

// ProcessInitialPrompt sends the content of promptPath as the opening user
// turn, but only when the file exists and the history is still empty. It
// reports whether a turn was run.
func (s *Session) ProcessInitialPrompt(ctx context.Context, promptPath string) (bool, error) {
	if len(s.history.Messages) > 0 {
		return false, nil
	}
	raw, err := os.ReadFile(promptPath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	prompt := strings.TrimSpace(string(raw))
	if prompt == "" {
		return false, nil
	}
	if _, err := s.Send(ctx, prompt); err != nil {
		return false, err
	}
	log.Info().Str("path", promptPath).Msg("initial prompt processed")
	return true, nil
}

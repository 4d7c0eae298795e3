// Package shared holds the websocket message format used by the terminal
// server and its clients.
package shared

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// MessageType names what a Message carries.
type MessageType string

const (
	// Server to client.
	MessageTypeText    MessageType = "text"    // program or shell output, newlines included
	MessageTypePrompt  MessageType = "prompt"  // the shell or an INPUT is waiting for a line
	MessageTypeError   MessageType = "error"   // a protocol problem, not a BASIC fault
	MessageTypeSession MessageType = "session" // session id, sent once after connecting

	// Client to server.
	MessageTypeInput  MessageType = "input"  // one line typed by the user
	MessageTypeEscape MessageType = "escape" // stop the running program
)

// MaxInputLength bounds a single input line.
const MaxInputLength = 4096

// Message is one websocket frame.
type Message struct {
	Type      MessageType `json:"type"`
	Content   string      `json:"content,omitempty"`
	SessionID string      `json:"sessionId,omitempty"`
}

// ValidateClientMessage checks a message received from a client.
func ValidateClientMessage(msg Message) error {
	switch msg.Type {
	case MessageTypeInput:
		if len(msg.Content) > MaxInputLength {
			return fmt.Errorf("input longer than %d bytes", MaxInputLength)
		}
		if !utf8.ValidString(msg.Content) {
			return errors.New("input is not valid UTF-8")
		}
		for _, r := range msg.Content {
			if r < ' ' && r != '\t' {
				return fmt.Errorf("control character %U in input", r)
			}
		}
		return nil
	case MessageTypeEscape:
		return nil
	case "":
		return errors.New("message type missing")
	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
}

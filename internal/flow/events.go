package flow

import (
	"strings"

	"github.com/google/uuid"

	"ai-tripplanner-bot/pkg/telegram"
)

// EventType classifies one inbound chat interaction.
type EventType string

const (
	EventCommand  EventType = "command"
	EventCallback EventType = "callback"
	EventText     EventType = "text"
)

// Event is a normalized inbound interaction, tagged with the chat it
// belongs to and the participant who performed it.
type Event struct {
	ID   string    `json:"id"` // correlation id for log lines
	Type EventType `json:"type"`

	ChatID   int64  `json:"chat_id"`
	UserID   int64  `json:"user_id"`
	UserName string `json:"user_name,omitempty"`

	// Command events
	Command string `json:"command,omitempty"`

	// Callback events: the opaque button payload plus what is needed to
	// answer the tap and edit the message the keyboard hangs off.
	Payload    string `json:"payload,omitempty"`
	CallbackID string `json:"callback_id,omitempty"`
	MessageID  int64  `json:"message_id,omitempty"`

	// Text events
	Text string `json:"text,omitempty"`
}

// FromUpdate normalizes a transport update into an Event. The second
// return is false for update shapes this bot does not handle.
func FromUpdate(u telegram.Update) (Event, bool) {
	switch {
	case u.CallbackQuery != nil:
		cb := u.CallbackQuery
		if cb.Message == nil {
			return Event{}, false
		}
		return Event{
			ID:         uuid.NewString(),
			Type:       EventCallback,
			ChatID:     cb.Message.Chat.ID,
			UserID:     cb.From.ID,
			UserName:   cb.From.FirstName,
			Payload:    cb.Data,
			CallbackID: cb.ID,
			MessageID:  cb.Message.MessageID,
		}, true

	case u.Message != nil && u.Message.Text != "":
		msg := u.Message
		ev := Event{
			ID:     uuid.NewString(),
			ChatID: msg.Chat.ID,
		}
		if msg.From != nil {
			ev.UserID = msg.From.ID
			ev.UserName = msg.From.FirstName
		}
		if strings.HasPrefix(msg.Text, "/") {
			ev.Type = EventCommand
			ev.Command = parseCommand(msg.Text)
		} else {
			ev.Type = EventText
			ev.Text = msg.Text
		}
		return ev, true
	}
	return Event{}, false
}

// parseCommand extracts the bare command name from "/plan", "/plan@bot"
// or "/plan args".
func parseCommand(text string) string {
	cmd := strings.TrimPrefix(text, "/")
	if i := strings.IndexAny(cmd, " @"); i >= 0 {
		cmd = cmd[:i]
	}
	return strings.ToLower(cmd)
}

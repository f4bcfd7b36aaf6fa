package entity

import (
	"time"
)

// Role identifies the speaker of a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single turn of a conversation. Messages are never edited once appended.
type Message struct {
	Role      Role      `json:"role" bson:"role"`
	Content   string    `json:"content" bson:"content"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// Conversation holds the ordered message history of one chat session
type Conversation struct {
	ID       string    `json:"conversation_id" bson:"_id"`
	Messages []Message `json:"messages" bson:"messages"`

	// Pending is set while a cancellation waits for the user's confirmation
	Pending *PendingCancellation `json:"pending_cancellation,omitempty" bson:"pending,omitempty"`

	// Clarifying is the intent whose last assistant message asked for a missing field
	Clarifying CapabilityIntent `json:"clarifying,omitempty" bson:"clarifying,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" bson:"updatedAt"`
}

// NewConversation creates an empty conversation
func NewConversation(id string, now time.Time) *Conversation {
	return &Conversation{
		ID:        id,
		Messages:  make([]Message, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Append adds a message to the end of the history and returns it
func (c *Conversation) Append(role Role, content string, now time.Time) Message {
	msg := Message{Role: role, Content: content, Timestamp: now}
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = now
	return msg
}

// Recent returns a copy of the last n messages, or all of them when n <= 0
func (c *Conversation) Recent(n int) []Message {
	start := 0
	if n > 0 && len(c.Messages) > n {
		start = len(c.Messages) - n
	}
	out := make([]Message, len(c.Messages)-start)
	copy(out, c.Messages[start:])
	return out
}

// LastAssistant returns the most recent assistant message, if any
func (c *Conversation) LastAssistant() (Message, bool) {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleAssistant {
			return c.Messages[i], true
		}
	}
	return Message{}, false
}

// Clone returns a deep copy so stores never share slices with callers
func (c *Conversation) Clone() *Conversation {
	if c == nil {
		return nil
	}
	out := *c
	out.Messages = make([]Message, len(c.Messages))
	copy(out.Messages, c.Messages)
	if c.Pending != nil {
		p := *c.Pending
		out.Pending = &p
	}
	return &out
}

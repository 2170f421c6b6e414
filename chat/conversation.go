package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/RaiAbdullah1800/AiMed/api"
	"github.com/RaiAbdullah1800/AiMed/utils"
)

// FailedReplyText is the assistant message appended when a send fails
const FailedReplyText = "Sorry, I encountered an error. Please try again."

var (
	// ErrEmptyMessage is returned for blank input; nothing is sent
	ErrEmptyMessage = errors.New("message is empty")
	// ErrSendInFlight is returned while a previous send awaits its reply
	ErrSendInFlight = errors.New("a message is already being sent")
	// ErrConversationReset is returned when the conversation was reset before
	// the reply arrived; the reply is discarded
	ErrConversationReset = errors.New("conversation was reset")
)

// Role of a message author
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the conversation
type Message struct {
	ID        string
	Role      Role
	Text      string
	Timestamp time.Time
}

// Sender delivers a user message to the assistant
type Sender interface {
	SendMessage(ctx context.Context, message, chatID string) (*api.ChatReply, error)
}

// Conversation is the in-memory state of one chat view. It is not persisted.
type Conversation struct {
	sender Sender
	logger *utils.Logger
	now    func() time.Time

	mu         sync.Mutex
	id         string
	messages   []Message
	generation uint64
	inFlight   bool
	onChange   func()
}

// NewConversation creates an empty conversation
func NewConversation(sender Sender, logger *utils.Logger) *Conversation {
	if logger == nil {
		logger = utils.NewDiscardLogger()
	}
	return &Conversation{sender: sender, logger: logger, now: time.Now}
}

// OnChange registers fn to run after every append or reset
func (c *Conversation) OnChange(fn func()) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// Send appends text as a user message, then asks the assistant. On failure
// the fixed error reply is appended and the error returned.
func (c *Conversation) Send(ctx context.Context, text string) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, ErrEmptyMessage
	}

	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return Message{}, ErrSendInFlight
	}
	c.inFlight = true
	gen := c.generation
	chatID := c.id
	c.messages = append(c.messages, Message{
		ID:        uuid.NewString(),
		Role:      RoleUser,
		Text:      text,
		Timestamp: c.now(),
	})
	c.mu.Unlock()
	c.changed()

	reply, err := c.sender.SendMessage(ctx, text, chatID)

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		c.logger.Debug("Dropping reply for a conversation that was reset")
		return Message{}, ErrConversationReset
	}
	c.inFlight = false

	msg := Message{ID: uuid.NewString(), Role: RoleAssistant}
	if err != nil {
		msg.Text = FailedReplyText
		msg.Timestamp = c.now()
	} else {
		msg.Text = reply.Response
		msg.Timestamp = reply.Timestamp.Time
		if msg.Timestamp.IsZero() {
			msg.Timestamp = c.now()
		}
		if reply.ChatID != "" {
			c.id = reply.ChatID.String()
		}
	}
	c.messages = append(c.messages, msg)
	c.mu.Unlock()
	c.changed()

	if err != nil {
		c.logger.Error("Chat send failed: %s", utils.Redact(err.Error()))
		return msg, err
	}
	return msg, nil
}

// Reset starts a new conversation. Replies still in flight are discarded.
func (c *Conversation) Reset() {
	c.mu.Lock()
	c.generation++
	c.id = ""
	c.messages = nil
	c.inFlight = false
	c.mu.Unlock()
	c.changed()
}

// Messages returns a copy of the messages in insertion order
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// ID returns the server conversation id, empty until the first reply
func (c *Conversation) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// Pending reports whether a send awaits its reply
func (c *Conversation) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

func (c *Conversation) changed() {
	c.mu.Lock()
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

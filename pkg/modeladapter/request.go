package modeladapter

import (
	"github.com/germanamz/chatrelay/pkg/modeladapter/usage"
)

// Role is the sender of a message in a conversation.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) String() string { return string(r) }

// Message is a single chat turn.
type Message struct {
	Role    Role
	Content string
}

// Request is a provider-neutral chat-completion request.
type Request struct {
	Model       string
	Messages    []Message
	MaxTokens   int     // 0 leaves the provider default.
	Temperature float64 // 0 leaves the provider default.
}

// UserRequest builds a single-message request carrying text as the user turn.
func UserRequest(model, text string) Request {
	return Request{
		Model:    model,
		Messages: []Message{{Role: RoleUser, Content: text}},
	}
}

// Choice is one candidate reply.
type Choice struct {
	Message      Message
	FinishReason string
}

// Response is a provider-neutral chat-completion response.
type Response struct {
	Model   string
	Choices []Choice
	Usage   usage.TokenCount
}

// FirstText returns the content of the first choice. ok is false when there
// are no choices or the first one carries no text.
func (r Response) FirstText() (text string, ok bool) {
	if len(r.Choices) == 0 {
		return "", false
	}

	text = r.Choices[0].Message.Content

	return text, text != ""
}

package ai

import "context"

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message is a single entry in the ordered conversation sent upstream.
type Message struct {
	Role    Role
	Content string
}

// ChatRequest is one chat-completion call against the gateway.
type ChatRequest struct {
	// Task labels metrics and spans, e.g. "evaluate-submission".
	Task        string
	Messages    []Message
	Temperature float32
	Seed        *int
	MaxTokens   int
}

// ChatResponse carries the raw assistant text returned by the gateway.
type ChatResponse struct {
	Content string
	Model   string
	Usage   Usage
}

// Usage tracks token consumption for a single request.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Gateway sends chat-completion requests to an external LLM service.
// Implementations perform exactly one upstream call per Complete and never retry.
type Gateway interface {
	Complete(ctx context.Context, req ChatRequest) (ChatResponse, error)
	Model() string
}

// NewChatRequest builds the two-message conversation used by every task.
func NewChatRequest(task, system, user string) ChatRequest {
	return ChatRequest{
		Task: task,
		Messages: []Message{
			{Role: RoleSystem, Content: system},
			{Role: RoleUser, Content: user},
		},
	}
}

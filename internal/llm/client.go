package llm

import "context"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string
	Content string
}

type Response struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

type Client interface {
	Generate(ctx context.Context, messages []Message) (Response, error)
}

// Stream is one in-flight completion delivered incrementally. Recv returns
// the next non-empty text delta, or io.EOF once the provider is done; any
// other error terminates the stream. Final is the provider's authoritative
// full text and is only meaningful after Recv has returned io.EOF. Close
// releases the underlying connection and may be called at any point,
// including before the stream is drained.
type Stream interface {
	Recv() (string, error)
	Final() string
	Close() error
}

// StreamingClient is a Client that can also deliver completions as a
// delta stream. Providers without a streaming transport may satisfy it by
// returning a Stream that yields no deltas and only a Final value.
type StreamingClient interface {
	Client
	Stream(ctx context.Context, messages []Message) (Stream, error)
}

package chat

import (
	"context"
	"fmt"
	"log"

	"stormshield-chat/internal/history"
	"stormshield-chat/internal/llm"
	"stormshield-chat/internal/prompt"
)

// Service drives one chat turn: reconstruct the participant's history,
// assemble the model input, open the stream and hand the caller a Turn to
// iterate. Logging of both sides of the exchange is fire-and-forget.
type Service struct {
	client    llm.StreamingClient
	assembler *prompt.Assembler
	recon     *history.Reconstructor
	emitter   *Emitter
}

func NewService(client llm.StreamingClient, assembler *prompt.Assembler, recon *history.Reconstructor, emitter *Emitter) *Service {
	return &Service{client: client, assembler: assembler, recon: recon, emitter: emitter}
}

// Respond starts one assistant response for the participant's message.
// History is read before the user turn is appended, so the prompt never
// carries the new message twice. A stream that cannot be opened is the one
// failure the caller must surface to the participant.
func (s *Service) Respond(ctx context.Context, pid, message string, opts prompt.Options) (*Turn, error) {
	hist, err := s.recon.Reconstruct(pid)
	if err != nil {
		// Degrade to an empty context rather than refusing the turn.
		log.Printf("failed to reconstruct history for %s: %v", pid, err)
		hist = nil
	}

	s.emitter.UserTurn(pid, message)

	msgs := s.assembler.Assemble(message, hist, opts)
	stream, err := s.client.Stream(ctx, msgs)
	if err != nil {
		return nil, fmt.Errorf("open model stream: %w", err)
	}
	return &Turn{pid: pid, agg: NewAggregator(stream), emitter: s.emitter}, nil
}

// Turn is one in-flight assistant response. Iterate with Next until it
// reports false, then check Err. The assistant turn is logged exactly once,
// and only when the stream ran to a clean end with a non-empty result;
// abandoning the turn early logs nothing.
type Turn struct {
	pid     string
	agg     *Aggregator
	emitter *Emitter
	done    bool
}

func (t *Turn) Next() (string, bool) {
	text, ok := t.agg.Next()
	if !ok {
		t.conclude()
	}
	return text, ok
}

// Text is the latest complete assistant text.
func (t *Turn) Text() string { return t.agg.Text() }

func (t *Turn) Err() error { return t.agg.Err() }

// Close abandons the response and closes the upstream stream.
func (t *Turn) Close() {
	t.agg.Close()
}

func (t *Turn) conclude() {
	if t.done {
		return
	}
	t.done = true
	if t.agg.Err() == nil && t.agg.Text() != "" {
		t.emitter.AssistantTurn(t.pid, t.agg.Text())
	}
}

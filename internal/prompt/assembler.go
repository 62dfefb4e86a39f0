package prompt

import (
	"net/url"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"stormshield-chat/internal/llm"
)

// Options are the per-session behavior toggles a participant arrives with.
type Options struct {
	// Competence selects the confidence style directive: "high" or "low".
	// Anything else leaves the base instructions untouched.
	Competence string
	// Personalization is a free-text profile summary; empty disables the
	// personalization directive.
	Personalization string
}

// OptionsFromParams derives Options from inbound query parameters. Missing
// or nil parameters yield the zero value.
func OptionsFromParams(params url.Values) Options {
	if params == nil {
		return Options{}
	}
	return Options{
		Competence:      strings.ToLower(strings.TrimSpace(params.Get("competence"))),
		Personalization: strings.TrimSpace(params.Get("personalization")),
	}
}

// Assembler builds the ordered model input for one chat turn: a system
// entry, the reconstructed history, then the new user message, trimmed to
// a token budget.
type Assembler struct {
	template string
	model    string
	budget   int

	encOnce sync.Once
	enc     *tiktoken.Tiktoken
}

func NewAssembler(template, model string, budget int) *Assembler {
	return &Assembler{template: template, model: model, budget: budget}
}

// Assemble is pure: the same message, history and options produce the same
// sequence. Truncation drops the oldest history entry (the one right after
// the system entry) until the sequence fits the budget or only the system
// entry and the new user message remain.
func (a *Assembler) Assemble(message string, history []llm.Message, opts Options) []llm.Message {
	msgs := make([]llm.Message, 0, len(history)+2)
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: a.systemPrompt(opts)})
	msgs = append(msgs, history...)
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: message})

	for a.CountTokens(msgs) > a.budget && len(msgs) > 2 {
		msgs = append(msgs[:1], msgs[2:]...)
	}
	return msgs
}

func (a *Assembler) systemPrompt(opts Options) string {
	var b strings.Builder
	b.WriteString(a.template)
	switch opts.Competence {
	case "low":
		b.WriteString("\n\nWhen the evidence is thin or contested, say so explicitly and hedge your conclusions.")
	case "high":
		b.WriteString("\n\nAnswer in confident, direct statements without hedging.")
	}
	if opts.Personalization != "" {
		b.WriteString("\n\nTailor your examples to this participant: " + opts.Personalization)
	}
	return b.String()
}

// CountTokens measures message content against the model's encoding. Role
// overhead is not counted.
func (a *Assembler) CountTokens(msgs []llm.Message) int {
	enc := a.encoding()
	n := 0
	for _, m := range msgs {
		if enc != nil {
			n += len(enc.Encode(m.Content, nil, nil))
		} else {
			n += estimateTokens(m.Content)
		}
	}
	return n
}

// encoding resolves the model's tokenizer once, falling back to
// cl100k_base for models tiktoken does not know. A nil result means both
// lookups failed and the heuristic estimate is used instead.
func (a *Assembler) encoding() *tiktoken.Tiktoken {
	a.encOnce.Do(func() {
		if enc, err := tiktoken.EncodingForModel(a.model); err == nil {
			a.enc = enc
			return
		}
		if enc, err := tiktoken.GetEncoding("cl100k_base"); err == nil {
			a.enc = enc
		}
	})
	return a.enc
}

// estimateTokens approximates a token count as max(runes/4, words).
func estimateTokens(text string) int {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0
	}
	runes := len([]rune(trimmed))
	words := len(strings.Fields(trimmed))
	estimate := runes / 4
	if estimate < words {
		estimate = words
	}
	if estimate == 0 {
		estimate = 1
	}
	return estimate
}

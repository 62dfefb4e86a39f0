package prompt

import (
	"net/url"
	"strings"
	"testing"

	"stormshield-chat/internal/llm"
)

const tmpl = "You are a test bot."

var hist = []llm.Message{
	{Role: "user", Content: "alpha beta gamma delta epsilon zeta"},
	{Role: "assistant", Content: "eta theta iota kappa lambda mu"},
	{Role: "user", Content: "nu xi omicron pi rho sigma"},
	{Role: "assistant", Content: "tau upsilon phi chi psi omega"},
}

func TestAssembleOrder(t *testing.T) {
	a := NewAssembler(tmpl, "gpt-4.1", 1<<20)
	got := a.Assemble("final question", hist, Options{})
	if len(got) != len(hist)+2 {
		t.Fatalf("want %d entries, got %d", len(hist)+2, len(got))
	}
	if got[0].Role != "system" || got[0].Content != tmpl {
		t.Fatalf("unexpected system entry: %+v", got[0])
	}
	for i, m := range hist {
		if got[i+1] != m {
			t.Fatalf("history reordered at %d: %+v", i, got[i+1])
		}
	}
	last := got[len(got)-1]
	if last.Role != "user" || last.Content != "final question" {
		t.Fatalf("unexpected final entry: %+v", last)
	}
}

func TestAssembleTruncatesOldestFirst(t *testing.T) {
	probe := NewAssembler(tmpl, "gpt-4.1", 1<<20)
	// Budget that fits exactly the system entry, the last two history
	// entries and the new user message, regardless of tokenizer.
	budget := probe.CountTokens([]llm.Message{
		{Role: "system", Content: tmpl},
		hist[2], hist[3],
		{Role: "user", Content: "final question"},
	})

	a := NewAssembler(tmpl, "gpt-4.1", budget)
	got := a.Assemble("final question", hist, Options{})
	if len(got) != 4 {
		t.Fatalf("want 4 entries, got %d: %+v", len(got), got)
	}
	if got[0].Role != "system" {
		t.Fatalf("system entry dropped: %+v", got[0])
	}
	if got[1] != hist[2] || got[2] != hist[3] {
		t.Fatalf("wrong survivors, oldest must go first: %+v", got)
	}
	if got[3].Content != "final question" {
		t.Fatalf("newest user entry dropped: %+v", got)
	}
}

func TestAssembleNeverDropsSystemOrNewestUser(t *testing.T) {
	a := NewAssembler(tmpl, "gpt-4.1", 1) // impossible budget
	got := a.Assemble("final question", hist, Options{})
	if len(got) != 2 {
		t.Fatalf("want just system + newest user, got %d: %+v", len(got), got)
	}
	if got[0].Role != "system" || got[1].Content != "final question" {
		t.Fatalf("wrong survivors: %+v", got)
	}
}

func TestAssembleDeterministic(t *testing.T) {
	a := NewAssembler(tmpl, "gpt-4.1", 1<<20)
	opts := Options{Competence: "low", Personalization: "city engineer"}
	first := a.Assemble("q", hist, opts)
	second := a.Assemble("q", hist, opts)
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("entry %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestSystemPromptDirectives(t *testing.T) {
	a := NewAssembler(tmpl, "gpt-4.1", 1<<20)

	plain := a.systemPrompt(Options{})
	if plain != tmpl {
		t.Fatalf("no options must leave template untouched, got %q", plain)
	}

	low := a.systemPrompt(Options{Competence: "low"})
	if !strings.Contains(low, "hedge") || !strings.HasPrefix(low, tmpl) {
		t.Fatalf("low competence directive missing: %q", low)
	}
	high := a.systemPrompt(Options{Competence: "high"})
	if !strings.Contains(high, "confident") {
		t.Fatalf("high competence directive missing: %q", high)
	}
	pers := a.systemPrompt(Options{Personalization: "a city engineer"})
	if !strings.Contains(pers, "a city engineer") {
		t.Fatalf("personalization directive missing: %q", pers)
	}
}

func TestOptionsFromParams(t *testing.T) {
	if got := OptionsFromParams(nil); got != (Options{}) {
		t.Fatalf("nil params: %+v", got)
	}
	v := url.Values{}
	v.Set("competence", " HIGH ")
	v.Set("personalization", " urban planner ")
	got := OptionsFromParams(v)
	if got.Competence != "high" || got.Personalization != "urban planner" {
		t.Fatalf("unexpected options: %+v", got)
	}
}

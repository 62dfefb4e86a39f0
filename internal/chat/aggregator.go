package chat

import (
	"errors"
	"io"
	"strings"
	"sync"

	"stormshield-chat/internal/llm"
)

// Aggregator turns one streaming completion into a finite sequence of
// progressively complete assistant strings. Every value returned by Next
// is the full best-known text so far, not a fragment, so a consumer can
// always display the latest value as-is.
//
// After the provider signals the end of the stream, the authoritative
// final text is compared against the concatenated deltas; if it is
// non-empty and differs (including the zero-delta case) it is returned
// once more as the last value. One stream produces one sequence; an
// Aggregator is not restartable.
type Aggregator struct {
	stream llm.Stream

	buf      strings.Builder
	last     string
	err      error
	finished bool

	closeOnce sync.Once
}

func NewAggregator(stream llm.Stream) *Aggregator {
	return &Aggregator{stream: stream}
}

// Next returns the next progressively complete text. ok is false once the
// sequence is exhausted; check Err afterwards to distinguish a clean end
// from a failed stream.
func (a *Aggregator) Next() (string, bool) {
	if a.finished {
		return "", false
	}
	for {
		delta, err := a.stream.Recv()
		if err == nil {
			if delta == "" {
				continue
			}
			a.buf.WriteString(delta)
			a.last = a.buf.String()
			return a.last, true
		}
		if errors.Is(err, io.EOF) {
			a.finish(nil)
			if final := a.stream.Final(); final != "" && final != a.buf.String() {
				a.last = final
				return final, true
			}
			return "", false
		}
		a.finish(err)
		return "", false
	}
}

// Text is the last value produced by Next.
func (a *Aggregator) Text() string { return a.last }

// Err reports the stream failure, if any, once Next has returned ok=false.
func (a *Aggregator) Err() error { return a.err }

// Close abandons the sequence and releases the upstream connection. Safe
// to call on every exit path, including after the stream already ended.
func (a *Aggregator) Close() {
	a.finish(nil)
}

func (a *Aggregator) finish(err error) {
	a.finished = true
	if err != nil {
		a.err = err
	}
	a.closeOnce.Do(func() { _ = a.stream.Close() })
}

package storage

import "time"

// Event kinds recorded in a participant's transcript log. The set is
// open-ended; readers must skip kinds they do not understand.
const (
	KindSessionStart  = "session_start"
	KindChatUser      = "chat_user"
	KindChatAssistant = "chat_assistant"
)

// Event is one line of a participant's log. Required fields are Timestamp,
// PID and Kind; the remaining fields are the kind-specific payload and are
// omitted from the encoded line when empty.
type Event struct {
	Timestamp string `json:"ts"`
	PID       string `json:"pid"`
	Kind      string `json:"kind"`

	Text            string `json:"text,omitempty"`
	Competence      string `json:"competence,omitempty"`
	Personalization string `json:"personalization,omitempty"`
}

// SessionStart records that a participant opened the widget, together with
// the experiment conditions they arrived with.
func SessionStart(pid, competence, personalization string) Event {
	return Event{
		Timestamp:       now(),
		PID:             pid,
		Kind:            KindSessionStart,
		Competence:      competence,
		Personalization: personalization,
	}
}

// UserTurn records one user message.
func UserTurn(pid, text string) Event {
	return Event{Timestamp: now(), PID: pid, Kind: KindChatUser, Text: text}
}

// AssistantTurn records one completed assistant response.
func AssistantTurn(pid, text string) Event {
	return Event{Timestamp: now(), PID: pid, Kind: KindChatAssistant, Text: text}
}

// now returns the event timestamp: UTC, second precision, trailing Z.
func now() string {
	return time.Now().UTC().Truncate(time.Second).Format(time.RFC3339)
}

package history

import (
	"fmt"

	"stormshield-chat/internal/llm"
	"stormshield-chat/internal/storage"
)

// Reconstructor rebuilds a participant's conversation from the persisted
// log. It is the only session state that survives a widget reload; nothing
// is held in memory between requests.
type Reconstructor struct {
	store *storage.Store
}

func NewReconstructor(store *storage.Store) *Reconstructor {
	return &Reconstructor{store: store}
}

// Reconstruct replays the pid's log in file order into role-tagged
// messages. Only chat_user and chat_assistant events with non-empty text
// contribute; everything else is skipped. Alternation is whatever was
// logged; it is not enforced here. A pid with no log yields nil.
//
// Appends are detached from the request path, so a reconstruction racing a
// concurrent writer may not yet see that writer's latest turn.
func (r *Reconstructor) Reconstruct(pid string) ([]llm.Message, error) {
	events, err := r.store.ReadAll(pid)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	var msgs []llm.Message
	for _, ev := range events {
		if ev.Text == "" {
			continue
		}
		switch ev.Kind {
		case storage.KindChatUser:
			msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: ev.Text})
		case storage.KindChatAssistant:
			msgs = append(msgs, llm.Message{Role: llm.RoleAssistant, Content: ev.Text})
		}
	}
	return msgs, nil
}

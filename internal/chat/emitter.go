package chat

import (
	"log"
	"sync"

	"stormshield-chat/internal/storage"
)

// Emitter records session events without blocking the response path.
// Every append runs in its own goroutine; failures are logged and dropped,
// never surfaced to the chat. Availability over durability: a crash
// between the final assistant text and the detached write loses that turn
// from future reconstructions.
type Emitter struct {
	store *storage.Store
	wg    sync.WaitGroup
}

func NewEmitter(store *storage.Store) *Emitter {
	return &Emitter{store: store}
}

func (e *Emitter) SessionStart(pid, competence, personalization string) {
	e.fire(storage.SessionStart(pid, competence, personalization))
}

func (e *Emitter) UserTurn(pid, text string) {
	e.fire(storage.UserTurn(pid, text))
}

func (e *Emitter) AssistantTurn(pid, text string) {
	e.fire(storage.AssistantTurn(pid, text))
}

func (e *Emitter) fire(ev storage.Event) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if err := e.store.Append(ev); err != nil {
			log.Printf("failed to append %s event for %s: %v", ev.Kind, ev.PID, err)
		}
	}()
}

// Flush waits for in-flight appends. Used on shutdown and in tests.
func (e *Emitter) Flush() {
	e.wg.Wait()
}

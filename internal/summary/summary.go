package summary

import (
	"fmt"
	"time"

	"stormshield-chat/internal/storage"
)

// Report is an aggregate view over the session logs since a point in time.
type Report struct {
	Since          time.Time
	Participants   int
	Sessions       int
	UserTurns      int
	AssistantTurns int
}

// Build scans every participant log and counts events newer than since.
// Participants counts only logs with at least one event in the window.
func Build(store *storage.Store, since time.Time) (Report, error) {
	rep := Report{Since: since}
	pids, err := store.Participants()
	if err != nil {
		return Report{}, fmt.Errorf("list participants: %w", err)
	}
	for _, pid := range pids {
		events, err := store.ReadAll(pid)
		if err != nil {
			return Report{}, fmt.Errorf("read %s: %w", pid, err)
		}
		active := false
		for _, ev := range events {
			ts, err := time.Parse(time.RFC3339, ev.Timestamp)
			if err != nil || ts.Before(since) {
				continue
			}
			active = true
			switch ev.Kind {
			case storage.KindSessionStart:
				rep.Sessions++
			case storage.KindChatUser:
				rep.UserTurns++
			case storage.KindChatAssistant:
				rep.AssistantTurns++
			}
		}
		if active {
			rep.Participants++
		}
	}
	return rep, nil
}

func (r Report) String() string {
	return fmt.Sprintf("usage since %s: %d participants, %d sessions, %d user turns, %d assistant turns",
		r.Since.UTC().Format(time.RFC3339), r.Participants, r.Sessions, r.UserTurns, r.AssistantTurns)
}

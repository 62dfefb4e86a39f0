package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"stormshield-chat/internal/ident"
)

// Store keeps one append-only JSONL file per participant under a root
// directory. Lines are never rewritten or deleted here; retention is an
// external concern.
type Store struct {
	root string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure data dir: %w", err)
	}
	return &Store{root: root, locks: make(map[string]*sync.Mutex)}, nil
}

// Path returns the log file for a pid. Distinct safe pids never share a
// file; unsafe pids may collapse onto the same slug.
func (s *Store) Path(pid string) string {
	return filepath.Join(s.root, ident.Slug(pid)+".jsonl")
}

func (s *Store) lock(path string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[path]
	if !ok {
		l = &sync.Mutex{}
		s.locks[path] = l
	}
	return l
}

// Append durably writes one event as a single JSON line to the pid's log,
// creating the file on first use. Appends to the same pid are serialized;
// appends to distinct pids are independent. A returned error means the
// event was not recorded; it is the caller's choice whether that matters.
func (s *Store) Append(ev Event) error {
	path := s.Path(ev.PID)
	l := s.lock(path)
	l.Lock()
	defer l.Unlock()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open append: %w", err)
	}
	defer func() { _ = f.Close() }()
	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(ev); err != nil {
		return fmt.Errorf("encode append: %w", err)
	}
	return nil
}

// ReadAll returns the pid's events in file order. Lines that fail to parse
// (a torn trailing write, manual edits) are skipped rather than failing the
// read. A missing log yields an empty result and no error.
func (s *Store) ReadAll(pid string) ([]Event, error) {
	path := s.Path(pid)
	l := s.lock(path)
	l.Lock()
	defer l.Unlock()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open read: %w", err)
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	buf := make([]byte, 0, 1024*1024)
	sc.Buffer(buf, 10*1024*1024)
	var events []Event
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev Event
		if err := json.Unmarshal(line, &ev); err != nil {
			continue
		}
		events = append(events, ev)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	return events, nil
}

// Participants lists the slugs that have a log file.
func (s *Store) Participants() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".jsonl") {
			continue
		}
		out = append(out, strings.TrimSuffix(e.Name(), ".jsonl"))
	}
	return out, nil
}

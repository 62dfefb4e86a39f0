package server

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"time"

	"stormshield-chat/internal/chat"
	"stormshield-chat/internal/history"
	"stormshield-chat/internal/ident"
	"stormshield-chat/internal/prompt"
)

// Server exposes the chat widget and its API: history replay on load and
// an SSE stream per chat turn. The experiment query string travels with
// every request so identity and options are always derived server-side.
type Server struct {
	svc     *chat.Service
	recon   *history.Reconstructor
	emitter *chat.Emitter
	port    int

	server    *http.Server
	tmpl      *template.Template
	startTime time.Time
}

func New(svc *chat.Service, recon *history.Reconstructor, emitter *chat.Emitter, port int) (*Server, error) {
	tmpl, err := template.New("index").Parse(indexHTML)
	if err != nil {
		return nil, fmt.Errorf("parse widget template: %w", err)
	}
	return &Server{
		svc:       svc,
		recon:     recon,
		emitter:   emitter,
		port:      port,
		tmpl:      tmpl,
		startTime: time.Now(),
	}, nil
}

// Handler returns the route table; Start serves it.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/status", s.handleStatus)   // Health check endpoint
	mux.HandleFunc("/api/session", s.handleSession) // Session start notification
	mux.HandleFunc("/api/history", s.handleHistory) // Transcript replay on reconnect
	mux.HandleFunc("/api/chat", s.handleChat)       // One chat turn as an SSE stream
	mux.HandleFunc("/", s.handleRoot)

	return mux
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:        fmt.Sprintf(":%d", s.port),
		Handler:     s.Handler(),
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: /api/chat keeps the response open for the whole
		// model stream.
		IdleTimeout: 60 * time.Second,
	}

	log.Printf("starting chat server on http://localhost:%d", s.port)
	return s.server.ListenAndServe()
}

func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.Execute(w, nil); err != nil {
		log.Printf("failed to render widget page: %v", err)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.startTime).Truncate(time.Second).String(),
	})
}

// handleSession records session_start with the experiment conditions the
// participant arrived with. The widget calls it once on load.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	params := r.URL.Query()
	pid := ident.Resolve(params)
	opts := prompt.OptionsFromParams(params)
	s.emitter.SessionStart(pid, opts.Competence, opts.Personalization)
	writeJSON(w, map[string]string{"pid": pid})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	pid := ident.Resolve(r.URL.Query())
	msgs, err := s.recon.Reconstruct(pid)
	if err != nil {
		log.Printf("failed to reconstruct history for %s: %v", pid, err)
		http.Error(w, "failed to load history", http.StatusInternalServerError)
		return
	}
	type turn struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	out := make([]turn, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, turn{Role: m.Role, Content: m.Content})
	}
	writeJSON(w, out)
}

type chatRequest struct {
	Message string `json:"message"`
}

// handleChat runs one chat turn. Each SSE "delta" event carries the full
// best-known assistant text so far; the stream ends with either a "done"
// event or an "error" event when the model call fails, so the widget shows
// a visible failure instead of a silently truncated answer.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}

	params := r.URL.Query()
	pid := ident.Resolve(params)
	opts := prompt.OptionsFromParams(params)

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	turn, err := s.svc.Respond(r.Context(), pid, req.Message, opts)
	if err != nil {
		log.Printf("failed to start response for %s: %v", pid, err)
		writeSSE(w, "error", map[string]string{"message": "model request failed"})
		flusher.Flush()
		return
	}
	// Client disconnect cancels r.Context(), which fails the next Recv;
	// Close here covers every other exit path.
	defer turn.Close()

	for {
		text, ok := turn.Next()
		if !ok {
			break
		}
		writeSSE(w, "delta", map[string]string{"text": text})
		flusher.Flush()
	}

	if err := turn.Err(); err != nil {
		log.Printf("stream failed for %s: %v", pid, err)
		writeSSE(w, "error", map[string]string{"message": "model request failed"})
	} else {
		writeSSE(w, "done", map[string]string{"text": turn.Text()})
	}
	flusher.Flush()
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func writeSSE(w http.ResponseWriter, event string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to encode sse payload: %v", err)
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
}

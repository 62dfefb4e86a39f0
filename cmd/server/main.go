package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"stormshield-chat/internal/chat"
	"stormshield-chat/internal/config"
	"stormshield-chat/internal/history"
	"stormshield-chat/internal/llm"
	"stormshield-chat/internal/notify"
	"stormshield-chat/internal/prompt"
	"stormshield-chat/internal/scheduler"
	"stormshield-chat/internal/server"
	"stormshield-chat/internal/storage"
	"stormshield-chat/internal/summary"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()

	store, err := storage.NewStore(cfg.DataDir)
	if err != nil {
		log.Fatalf("failed to init session log store: %v", err)
	}

	llmClient, err := llm.NewFactory(cfg).CreateClient(string(cfg.LLMProvider), cfg.OpenAIModel)
	if err != nil {
		log.Fatalf("failed to create llm client: %v", err)
	}

	systemPrompt := readSystemPrompt(cfg.SystemPromptPath)
	assembler := prompt.NewAssembler(systemPrompt, cfg.OpenAIModel, cfg.TokenBudget)
	recon := history.NewReconstructor(store)
	emitter := chat.NewEmitter(store)
	svc := chat.NewService(llmClient, assembler, recon, emitter)

	srv, err := server.New(svc, recon, emitter, cfg.ListenPort)
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	var sched *scheduler.Scheduler
	if cfg.SummaryEnabled {
		sched = scheduler.New()
		sched.SetSummaryFunction(summaryFunc(cfg, store))
		if err := sched.Start(); err != nil {
			log.Printf("failed to start scheduler: %v", err)
		}
	}

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("shutting down")
	if sched != nil {
		sched.Stop()
	}
	if err := srv.Stop(); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	// Give detached log appends a chance to land before exit.
	emitter.Flush()
}

func summaryFunc(cfg *config.Config, store *storage.Store) func(ctx context.Context) error {
	var notifier *notify.Telegram
	if cfg.TelegramBotToken != "" && cfg.AdminChatID != 0 {
		n, err := notify.NewTelegram(cfg.TelegramBotToken, cfg.AdminChatID)
		if err != nil {
			log.Printf("failed to init telegram notifier: %v", err)
		} else {
			notifier = n
		}
	}
	return func(ctx context.Context) error {
		rep, err := summary.Build(store, time.Now().Add(-24*time.Hour))
		if err != nil {
			return err
		}
		if notifier != nil {
			return notifier.Send(rep.String())
		}
		log.Println(rep.String())
		return nil
	}
}

func readSystemPrompt(path string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		log.Printf("failed to read system prompt %q: %v", path, err)
		return ""
	}
	return strings.TrimSpace(string(b))
}

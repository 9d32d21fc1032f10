// Command whatsbot runs the WhatsApp LLM relay service: it receives inbound
// chat messages (via Business API webhook or a paired device session),
// maintains short-lived per-user conversation context, generates replies
// through a language-model provider, and relays them back to the channel.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/sync/errgroup"

	"github.com/shaharia-lab/whatsbot/internal/bot"
	"github.com/shaharia-lab/whatsbot/internal/config"
	"github.com/shaharia-lab/whatsbot/internal/conversation"
	"github.com/shaharia-lab/whatsbot/internal/httpserver"
	"github.com/shaharia-lab/whatsbot/internal/llm"
	"github.com/shaharia-lab/whatsbot/internal/observability"
	"github.com/shaharia-lab/whatsbot/internal/transcript"
	"github.com/shaharia-lab/whatsbot/internal/whatsapp"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := buildLogger(cfg)

	provider, err := buildProvider(cfg, logger)
	if err != nil {
		log.Fatal(err)
	}

	responder := bot.NewResponder(bot.ResponderConfig{
		Provider:   llm.NewTracingProvider(provider),
		Configured: cfg.ProviderAPIKey() != "",
		Generation: bot.GenerationConfig{
			Model:       defaultModel(cfg),
			MaxTokens:   1000,
			Temperature: 0.7,
		},
		Logger: logger,
	})

	store := conversation.NewStore()

	var recorder bot.Recorder
	var transcripts httpserver.TranscriptReader
	if cfg.TranscriptPath != "" {
		db, err := sql.Open("sqlite3", cfg.TranscriptPath)
		if err != nil {
			log.Fatal(err)
		}
		archive, err := transcript.NewSQLiteArchive(db, logger)
		if err != nil {
			log.Fatal(err)
		}
		defer archive.Close()
		recorder = archive
		transcripts = archive
	}

	pipeline := bot.NewPipeline(store, responder, recorder, logger, cfg.IsDevelopment())

	group, ctx := errgroup.WithContext(ctx)

	var sender bot.Sender
	var ready func() bool

	switch cfg.WhatsAppMode {
	case config.ModeSession:
		var session *whatsapp.Session
		session, err = whatsapp.NewSession(whatsapp.SessionConfig{
			DBPath: cfg.SessionDBPath,
			Handler: func(ctx context.Context, from, text string) {
				pipeline.HandleInbound(ctx, session, from, text)
			},
			Logger: logger,
		})
		if err != nil {
			log.Fatal(err)
		}
		sender = session
		ready = session.Ready
		group.Go(func() error { return session.Run(ctx) })
	default:
		cloud := whatsapp.NewCloudClient(whatsapp.CloudClientConfig{
			AccessToken:   cfg.AccessToken,
			PhoneNumberID: cfg.PhoneNumberID,
			Logger:        logger,
		})
		sender = cloud
		ready = cloud.Configured
	}

	server := httpserver.New(httpserver.Config{
		Store:       store,
		Responder:   responder,
		Pipeline:    pipeline,
		Sender:      sender,
		Transcript:  transcripts,
		Ready:       ready,
		Mode:        cfg.WhatsAppMode,
		VerifyToken: cfg.VerifyToken,
		AdminAPIKey: cfg.AdminAPIKey,
		Logger:      logger,
	})

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	group.Go(func() error {
		logger.WithFields(map[string]interface{}{"port": cfg.Port, "mode": cfg.WhatsAppMode}).
			Info("whatsbot server running")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	group.Go(func() error {
		return conversation.NewSweeper(store, logger).Run(ctx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.WithErr(err).Error("service exited with error")
		os.Exit(1)
	}
	logger.Info("service stopped")
}

func buildLogger(cfg config.Config) observability.Logger {
	if cfg.IsDevelopment() {
		return observability.NewLogrusLogger(nil)
	}
	return observability.NewZapLogger(nil)
}

func buildProvider(cfg config.Config, logger observability.Logger) (llm.Provider, error) {
	switch cfg.Provider {
	case config.ProviderAnthropic:
		return llm.NewAnthropicProvider(llm.AnthropicProviderConfig{
			Client: llm.NewAnthropicClient(cfg.AnthropicKey),
			Model:  cfg.AnthropicModel,
		}), nil
	case config.ProviderGemini:
		service, err := llm.NewGoogleGeminiService(cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		return llm.NewGeminiProvider(service, logger)
	default:
		return llm.NewOpenAIProvider(llm.OpenAIProviderConfig{
			Client: llm.NewOpenAIClient(cfg.OpenAIAPIKey),
			Model:  cfg.OpenAIModel,
		}), nil
	}
}

func defaultModel(cfg config.Config) string {
	switch cfg.Provider {
	case config.ProviderAnthropic:
		return cfg.AnthropicModel
	case config.ProviderGemini:
		return cfg.GeminiModel
	default:
		return cfg.OpenAIModel
	}
}

// Package app wires configuration, storage, the context engine and the
// HTTP server together and owns the process lifecycle.
package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"recall/pkg/api"
	"recall/pkg/api/handlers"
	"recall/pkg/config"
	"recall/pkg/logger"
	"recall/pkg/relevance"
	"recall/pkg/store"

	"recall/internal/retention"
)

// App is the assembled server.
type App struct {
	cfg       config.Config
	st        *store.Store
	assembler *relevance.Assembler
}

// New opens the store and builds the engine from config.
func New(cfg config.Config) (*App, error) {
	st, err := store.Open(cfg.Storage.DBPath)
	if err != nil {
		return nil, err
	}

	asm := relevance.New(st, st, relevance.Options{
		AgentID:        cfg.Engine.AgentID,
		AgentName:      cfg.Engine.AgentName,
		MaxRelevant:    cfg.Engine.MaxRelevantMessages,
		MaxCrossChat:   cfg.Engine.MaxCrossChatMessages,
		MaxTopic:       cfg.Engine.MaxTopicMessages,
		ThreadTopK:     cfg.Engine.ThreadTopK,
		AliasMinScore:  cfg.Engine.AliasMinScore,
		FactConfidence: cfg.Engine.FactConfidenceThreshold,
	}).WithGroupLookup(groupLookup{st})

	return &App{cfg: cfg, st: st, assembler: asm}, nil
}

// groupLookup labels cross-chat excerpts from stored conversation
// metadata; a real deployment can swap in the transport's group info.
type groupLookup struct {
	st *store.Store
}

func (g groupLookup) GroupMetadata(ctx context.Context, conversationID string) (relevance.GroupMetadata, error) {
	conv, err := g.st.GetConversation(ctx, conversationID)
	if err != nil {
		return relevance.GroupMetadata{}, err
	}
	return relevance.GroupMetadata{
		DisplayName: conv.DisplayName,
		MemberCount: len(conv.Participants),
	}, nil
}

// Run serves HTTP until the context is cancelled or a signal arrives,
// then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	defer func() {
		if err := a.st.Close(); err != nil {
			logger.Error("store_close_failed", zap.Error(err))
		}
	}()

	runner := retention.NewRunner(a.st, a.cfg.Retention, a.cfg.Engine.MaxContextMessages)
	stopRetention, err := runner.Start(ctx)
	if err != nil {
		return err
	}
	defer stopRetention()

	handler := api.NewRouter(handlers.Deps{
		Store:     a.st,
		Assembler: a.assembler,
		Engine:    a.cfg.Engine,
	}, api.RateLimit{
		RPS:   a.cfg.Security.RateLimit.RPS,
		Burst: a.cfg.Security.RateLimit.Burst,
	})

	srv := &http.Server{
		Addr:              a.cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http_listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case sig := <-sigCh:
		logger.Info("shutdown_signal", zap.String("signal", sig.String()))
	case <-ctx.Done():
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		logger.Error("http_shutdown_failed", zap.Error(err))
		return err
	}
	logger.Info("shutdown_complete")
	return nil
}

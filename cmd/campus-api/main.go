package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ekisa-team/campus-assistant/internal/backend"
	"github.com/ekisa-team/campus-assistant/internal/bootstrap"
	"github.com/ekisa-team/campus-assistant/internal/cache"
	"github.com/ekisa-team/campus-assistant/internal/config"
	"github.com/ekisa-team/campus-assistant/internal/embedding"
	"github.com/ekisa-team/campus-assistant/internal/model"
	"github.com/ekisa-team/campus-assistant/internal/rag"
	"github.com/ekisa-team/campus-assistant/internal/router"
	grpcserver "github.com/ekisa-team/campus-assistant/internal/server/grpc"
	httpserver "github.com/ekisa-team/campus-assistant/internal/server/http"
	"github.com/ekisa-team/campus-assistant/internal/service"
	"github.com/ekisa-team/campus-assistant/internal/store"
	"github.com/ekisa-team/campus-assistant/internal/vectorstore"
)

const healthInterval = 30 * time.Second

func main() {
	var (
		flagHTTPPort   = flag.Int("http-port", 0, "HTTP port to listen on (overrides config)")
		flagGRPCPort   = flag.Int("grpc-port", 0, "gRPC port to listen on (overrides config)")
		flagConfigPath = flag.String("config", filepath.Join(config.DefaultConfigPath(), "config.yaml"), "Path to config file")
		flagSchemaPath = flag.String("schema", "", "Path to schema file (defaults to the embedded schema)")
		flagEnvFile    = flag.String("env-file", ".env", "Path to .env file")
	)
	flag.Parse()

	if err := bootstrap.LoadEnvFile(*flagEnvFile); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load %s: %v\n", *flagEnvFile, err)
	}
	bootstrap.SetupLogger("campus-api")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *flagConfigPath, *flagSchemaPath, *flagHTTPPort, *flagGRPCPort); err != nil {
		slog.Error("campus-api stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, schemaPath string, httpPort, grpcPort int) error {
	manager := model.NewManager()

	watcher, err := bootstrap.WatchConfig(ctx, configPath, schemaPath, manager)
	if err != nil {
		return err
	}
	defer watcher.Close()

	cfg := watcher.Snapshot()
	if httpPort == 0 {
		httpPort = cfg.Server.HTTPPort
	}
	if grpcPort == 0 {
		grpcPort = cfg.Server.GRPCPort
	}

	sm := backend.NewServerManager()
	defer sm.StopAll()

	backends := bootstrap.Backends(ctx, cfg, sm)
	defer backends.Close()

	services := bootstrap.NewServices(watcher.Snapshot, backends, manager.Registry())

	st, err := store.Open(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return err
	}

	answerer, answers := knowledgeBase(ctx, cfg, services.LLM)
	deps := map[string]grpcserver.Pinger{"database": st}
	if answers != nil {
		defer answers.Close()
		deps["cache"] = answers
	}

	rt := router.New(st, answerer)

	mux := http.NewServeMux()
	api := httpserver.NewAPI(mux, "College AI Assistant API")
	httpserver.RegisterWelcome(api, "Welcome to the College AI Assistant API")
	httpserver.NewQueryHandler(api, rt)

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", httpPort),
		Handler:           httpserver.WithCORS(mux, cfg.Server.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", grpcPort))
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}
	health := grpcserver.NewHealth(deps)
	go health.Run(ctx, healthInterval)
	grpcSrv := grpcserver.NewServer(rt, health)

	errCh := make(chan error, 2)
	go func() {
		slog.Info("HTTP server listening", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		slog.Info("gRPC server listening", "addr", lis.Addr().String())
		if err := grpcSrv.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutting down")
	case err = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	grpcSrv.GracefulStop()
	if shutdownErr := httpSrv.Shutdown(shutdownCtx); shutdownErr != nil {
		slog.Error("HTTP shutdown failed", "error", shutdownErr)
	}

	return err
}

// knowledgeBase builds the RAG chain. It returns a nil Answerer when the
// vector index or embedder is unavailable, and a nil cache when answers are
// not cached.
func knowledgeBase(ctx context.Context, cfg *config.Config, llm *service.LLM) (router.Answerer, *cache.AnswerCache) {
	index, err := vectorstore.Load(ctx, cfg.Storage.VectorStoreDir)
	if err != nil {
		slog.Warn("Knowledge base unavailable, run campus-ingest build-index", "error", err)
		return nil, nil
	}

	embedder, err := embedding.New(ctx, cfg.RAG.Embedding, cfg.GoogleAPIKey)
	if err != nil {
		slog.Warn("Knowledge base unavailable, embedder not configured", "error", err)
		return nil, nil
	}
	if embedder.Model() != index.Model {
		slog.Warn("Embedding model differs from the one used to build the index", "index", index.Model, "embedder", embedder.Model())
	}

	chain := rag.NewChain(rag.NewRetriever(index, embedder, cfg.RAG.TopK), llm)
	slog.Info("Knowledge base loaded", "chunks", index.Len(), "model", index.Model)

	answers, err := cache.New(ctx, cfg.Cache)
	if err != nil {
		slog.Warn("Answer cache disabled", "error", err)
		return chain, nil
	}
	if answers == nil {
		return chain, nil
	}

	slog.Info("Answer cache enabled", "addr", cfg.Cache.RedisAddr)
	return rag.WithCache(chain, answers), answers
}

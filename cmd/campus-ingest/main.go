package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ekisa-team/campus-assistant/internal/bootstrap"
	"github.com/ekisa-team/campus-assistant/internal/config"
	"github.com/ekisa-team/campus-assistant/internal/embedding"
	"github.com/ekisa-team/campus-assistant/internal/ingest"
	"github.com/ekisa-team/campus-assistant/internal/store"
)

const usage = `usage: campus-ingest [flags] <command>

commands:
  setup-db     parse the roster and populate the database
  build-index  chunk and embed the data directory into the vector index

flags:
`

type options struct {
	configPath, schemaPath string
	roster, dataDir, out   string
}

func main() {
	var (
		flagConfigPath = flag.String("config", filepath.Join(config.DefaultConfigPath(), "config.yaml"), "Path to config file")
		flagSchemaPath = flag.String("schema", "", "Path to schema file (defaults to the embedded schema)")
		flagEnvFile    = flag.String("env-file", ".env", "Path to .env file")
		flagRoster     = flag.String("roster", "", "Roster file for setup-db (overrides config)")
		flagDataDir    = flag.String("data", "", "Data directory for build-index (overrides config)")
		flagOut        = flag.String("out", "", "Vector index directory for build-index (overrides config)")
	)
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := bootstrap.LoadEnvFile(*flagEnvFile); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load %s: %v\n", *flagEnvFile, err)
	}
	bootstrap.SetupLogger("campus-ingest")

	os.Exit(run(flag.Arg(0), options{
		configPath: *flagConfigPath,
		schemaPath: *flagSchemaPath,
		roster:     *flagRoster,
		dataDir:    *flagDataDir,
		out:        *flagOut,
	}))
}

// run executes one command and returns the process exit code.
func run(command string, opts options) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := bootstrap.LoadConfig(opts.configPath, opts.schemaPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		return 1
	}
	if opts.roster != "" {
		cfg.Ingest.RosterFile = opts.roster
	}
	if opts.dataDir != "" {
		cfg.Storage.DataDir = opts.dataDir
	}
	if opts.out != "" {
		cfg.Storage.VectorStoreDir = opts.out
	}

	switch command {
	case "setup-db":
		err = setupDB(ctx, cfg)
	case "build-index":
		err = buildIndex(ctx, cfg)
	default:
		flag.Usage()
		return 2
	}

	if err != nil {
		slog.Error("Ingestion failed", "command", command, "error", err)
		return 1
	}
	return 0
}

func setupDB(ctx context.Context, cfg *config.Config) error {
	st, err := store.Open(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer st.Close()

	slog.Info("Setting up database", "url", cfg.Database.URL, "roster", cfg.Ingest.RosterFile)

	n, err := ingest.NewSeeder(st, cfg.Ingest).SetupDB(ctx, cfg.Ingest.RosterFile)
	if err != nil {
		return err
	}
	if n > 0 {
		slog.Info("Database setup complete", "students", n)
	}
	return nil
}

func buildIndex(ctx context.Context, cfg *config.Config) error {
	embedder, err := embedding.New(ctx, cfg.RAG.Embedding, cfg.GoogleAPIKey)
	if err != nil {
		return err
	}

	slog.Info("Building vector index", "data", cfg.Storage.DataDir, "out", cfg.Storage.VectorStoreDir, "model", embedder.Model())

	builder := ingest.NewIndexBuilder(ingest.NewSplitter(cfg.RAG.ChunkSize, *cfg.RAG.ChunkOverlap), embedder)
	_, err = builder.Build(ctx, cfg.Storage.DataDir, cfg.Storage.VectorStoreDir)
	return err
}

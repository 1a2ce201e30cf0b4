// Command orchestratord wires every collaborator and starts the
// engine that drives Monday work items through the implement/test/
// validate/merge workflow. Bootstrap sequence adapted from the
// teacher's cmd/tarsy/main.go: flag-parsed config directory, a
// best-effort .env load, config.Initialize, database.NewClient, then
// service construction and a minimal Gin router — generalized here
// from the teacher's single /health handler to this domain's full
// collaborator graph plus the ops ".../healthz" + "/metrics" surface.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/vydata/orchestrator/pkg/api"
	"github.com/vydata/orchestrator/pkg/config"
	"github.com/vydata/orchestrator/pkg/database"
	"github.com/vydata/orchestrator/pkg/events"
	"github.com/vydata/orchestrator/pkg/github"
	"github.com/vydata/orchestrator/pkg/llm"
	"github.com/vydata/orchestrator/pkg/masking"
	"github.com/vydata/orchestrator/pkg/metrics"
	"github.com/vydata/orchestrator/pkg/monday"
	"github.com/vydata/orchestrator/pkg/nodes"
	"github.com/vydata/orchestrator/pkg/notify"
	"github.com/vydata/orchestrator/pkg/orchestrator"
	"github.com/vydata/orchestrator/pkg/queue"
	"github.com/vydata/orchestrator/pkg/runbook"
	"github.com/vydata/orchestrator/pkg/slack"
	"github.com/vydata/orchestrator/pkg/store"
	"github.com/vydata/orchestrator/pkg/vectorstore"
	"github.com/vydata/orchestrator/pkg/workflow"
)

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("warning: could not load %s: %v", envPath, err)
		log.Printf("continuing with existing environment variables")
	} else {
		log.Printf("loaded environment from %s", envPath)
	}

	httpAddr := ":" + getEnv("HTTP_PORT", "8080")
	podID := getEnv("POD_ID", "orchestratord-1")

	log.Printf("starting orchestratord")
	log.Printf("http address: %s", httpAddr)
	log.Printf("config directory: %s", *configDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		log.Fatalf("failed to initialize configuration: %v", err)
	}

	dbConfig, err := database.LoadConfigFromEnv()
	if err != nil {
		log.Fatalf("failed to load database config: %v", err)
	}
	dbClient, err := database.NewClient(ctx, dbConfig)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			log.Printf("error closing database client: %v", err)
		}
	}()
	log.Println("connected to postgresql database")

	persist := store.New(dbClient.Client)
	reg := metrics.New()
	bus := events.NewBus()
	mask := masking.NewService()

	llmClient := buildLLMClient(cfg.LLM)
	githubClient := github.NewClient(ctx, os.Getenv(cfg.GitHub.TokenEnv))
	var mondayClient *monday.Client
	if token := os.Getenv(cfg.Monday.APITokenEnv); token != "" {
		mondayClient = monday.NewClient(token)
	}
	slackSvc := slack.NewService(slack.ServiceConfig{
		Token:        os.Getenv(cfg.Slack.TokenEnv),
		Channel:      cfg.Slack.Channel,
		DashboardURL: cfg.Slack.DashboardURL,
	})
	vectorStore := buildVectorStore(cfg.VectorStore)
	runbookClient := runbook.NewGitHubClient(os.Getenv(cfg.GitHub.TokenEnv))

	notifyCoord := notify.New(persist.Validation, slackSvc)

	workspaceRoot := getEnv("WORKSPACE_ROOT", "./workspaces")
	authorName := getEnv("GIT_AUTHOR_NAME", "vydata-bot")
	authorEmail := getEnv("GIT_AUTHOR_EMAIL", "vydata-bot@users.noreply.github.com")

	deps := nodes.NewDeps(workspaceRoot, authorName, authorEmail)
	deps.GitHubToken = os.Getenv(cfg.GitHub.TokenEnv)
	deps.GitHub = githubClient
	deps.Monday = mondayClient
	deps.LLM = llmClient
	deps.Store = persist
	deps.Validation = persist.Validation
	deps.Notify = notifyCoord
	deps.Slack = slackSvc
	deps.Vector = vectorStore
	deps.Masking = mask
	deps.Config = cfg
	deps.Runbook = runbookClient

	graph, err := workflow.NewGraph(deps.Impls(), cfg.Limits.MaxNodesSafetyLimit)
	if err != nil {
		log.Fatalf("failed to build workflow graph: %v", err)
	}
	runtime := workflow.NewRuntime(workflow.NewStepStoreAdapter(persist.Steps), cfg.Limits.MaxRetryAttempts)
	engine := workflow.NewEngine(graph, runtime, persist.Runs, bus, workflow.EngineConfig{
		GlobalTimeout:    cfg.Limits.GlobalTimeout,
		NodeTimeout:      cfg.Limits.NodeTimeout,
		MaxNodesSafety:   cfg.Limits.MaxNodesSafetyLimit,
		MaxDebugAttempts: cfg.Limits.MaxDebugAttempts,
	})

	extQueue := queue.NewExternalQueue()
	pool := queue.NewPool(podID, &cfg.Queue, extQueue, reg)
	deps.Queue = extQueue

	pool.Start(ctx)
	go pool.RunOrphanSweep(ctx, persist.Runs, cfg.Queue.OrphanDetectionInterval, cfg.Queue.OrphanThreshold)

	orch := orchestrator.New(orchestrator.Deps{
		Tasks:         persist.Tasks,
		Runs:          persist.Runs,
		Triggers:      persist.Triggers,
		Events:        persist.Events,
		Pool:          pool,
		Engine:        engine,
		Monday:        mondayClient,
		LLM:           llmClient,
		Vector:        vectorStore,
		WorkspaceRoot: workspaceRoot,
	})
	// No webhook HTTP transport is wired here (out of scope per spec);
	// orch.HandleStatusTransition/HandleComment are the inbound
	// contract a future receiver (or a test) calls directly.
	_ = orch

	server := api.NewServer(httpAddr, cfg, dbClient, pool, reg)
	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("ops server failed: %v", err)
		}
	}()
	log.Printf("ops server listening on %s", httpAddr)

	<-ctx.Done()
	log.Println("shutdown signal received, draining")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Queue.GracefulShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("ops server shutdown error: %v", err)
	}
	pool.Stop()
	log.Println("shutdown complete")
}

// buildLLMClient wires the Anthropic/OpenAI fallback pair, per
// spec.md §6's LLM collaborator contract. A provider whose API key
// env var is unset is left out of the chain; llm.NewFallbackClient
// tolerates a nil secondary.
func buildLLMClient(cfg config.LLMConfig) *llm.FallbackClient {
	var primary, secondary llm.Provider
	if key := os.Getenv(cfg.AnthropicAPIKeyEnv); key != "" {
		primary = llm.NewAnthropicProvider(key)
	}
	if key := os.Getenv(cfg.OpenAIAPIKeyEnv); key != "" {
		secondary = llm.NewOpenAIProvider(key)
	}
	return llm.NewFallbackClient(primary, cfg.AnthropicModel, secondary, cfg.OpenAIModel)
}

// buildVectorStore resolves the "host:port" pair stashed behind
// VectorStoreConfig.URLEnv. Returns a nil *vectorstore.Store (a valid,
// no-op collaborator) when disabled or unset.
func buildVectorStore(cfg config.VectorStoreConfig) *vectorstore.Store {
	if !cfg.Enabled {
		return nil
	}
	raw := os.Getenv(cfg.URLEnv)
	if raw == "" {
		slog.Default().Warn("vector store enabled but url env unset", "url_env", cfg.URLEnv)
		return nil
	}
	host, portStr, found := strings.Cut(raw, ":")
	port := 6334
	if found {
		if p, err := strconv.Atoi(portStr); err == nil {
			port = p
		}
	}
	vs, err := vectorstore.New(vectorstore.Config{
		Host:           host,
		Port:           port,
		CollectionName: cfg.Collection,
		VectorSize:     64,
	})
	if err != nil {
		slog.Default().Warn("failed to connect to vector store", "error", err)
		return nil
	}
	return vs
}

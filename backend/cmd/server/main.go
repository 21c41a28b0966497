package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"neuralearn/backend/internal/adapter"
	"neuralearn/backend/internal/agent"
	"neuralearn/backend/internal/graph"
	"neuralearn/backend/internal/index"
	"neuralearn/backend/internal/refine"
	"neuralearn/backend/internal/routing"
	"neuralearn/backend/internal/tools"
	"neuralearn/backend/pkg/config"
	"neuralearn/backend/pkg/logger"
)

func main() {
	if err := logger.Init(os.Getenv("ENV")); err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.Get()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	ctx := context.Background()

	driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURI, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""))
	if err != nil {
		log.Fatal("Failed to create Neo4j driver", zap.Error(err))
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		log.Fatal("Failed to connect to Neo4j", zap.Error(err), zap.String("uri", cfg.Neo4jURI))
	}

	repo := graph.NewRepository(driver)
	defer repo.Close()

	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatal("Failed to ensure graph schema", zap.Error(err))
	}

	llm := adapter.NewLLMAdapter(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.ModelID, cfg.EmbedModelID)
	idx := index.NewClient(cfg.IndexBaseURL, cfg.IndexAPIKey, cfg.IndexTimeout, llm)

	var searcher tools.WebSearcher
	if cfg.WebSearchEnabled {
		searcher = tools.NewDuckDuckGoSearcher()
	}

	executor := tools.NewExecutor(repo, idx, searcher)
	engine := routing.NewEngine(repo, idx, llm, searcher)
	orchestrator := agent.NewOrchestrator(repo, llm, executor, cfg.AgentTimeout)
	refiner := refine.NewRefiner(repo, idx, llm)
	tracker := refine.NewTracker(repo, refiner)

	srv := newServer(cfg, repo, idx, llm, engine, orchestrator, tracker)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log), corsMiddleware())
	srv.registerRoutes(router)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info("Server starting",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.Env),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	stop, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()
	<-stop.Done()

	log.Info("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}
}

package main

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"neuralearn/backend/internal/adapter"
	"neuralearn/backend/internal/agent"
	"neuralearn/backend/internal/graph"
	"neuralearn/backend/internal/index"
	"neuralearn/backend/internal/refine"
	"neuralearn/backend/internal/routing"
	"neuralearn/backend/pkg/config"
	"neuralearn/backend/pkg/logger"
)

// server bundles the wired components behind the HTTP handlers
type server struct {
	cfg          *config.Config
	repo         *graph.Repository
	idx          *index.Client
	llm          *adapter.LLMAdapter
	engine       *routing.Engine
	orchestrator *agent.Orchestrator
	tracker      *refine.Tracker
	logger       *zap.Logger
}

func newServer(cfg *config.Config, repo *graph.Repository, idx *index.Client, llm *adapter.LLMAdapter, engine *routing.Engine, orchestrator *agent.Orchestrator, tracker *refine.Tracker) *server {
	return &server{
		cfg:          cfg,
		repo:         repo,
		idx:          idx,
		llm:          llm,
		engine:       engine,
		orchestrator: orchestrator,
		tracker:      tracker,
		logger:       logger.Get(),
	}
}

func (s *server) registerRoutes(router *gin.Engine) {
	router.GET("/health", s.handleHealth)

	api := router.Group("/api")
	{
		api.POST("/graph/topics", s.handleCreateTopic)
		api.GET("/graph/topics", s.handleListTopics)
		api.POST("/graph/route-question", s.handleRouteQuestion)
		api.POST("/chat/:nodeId", s.handleChat)
	}
}

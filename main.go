package main

import (
	"context"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lumina/agent-api/config"
	"lumina/agent-api/core"
	"lumina/agent-api/gemini"
	"lumina/agent-api/services/agent_service"
	"lumina/agent-api/tools"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfgPath := os.Getenv("AGENT_CONFIG")
	if cfgPath == "" {
		cfgPath = "agent.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	llm, err := gemini.NewGemini(ctx, cfg.Gemini.APIKey, cfg.Gemini.ChatModel)
	if err != nil {
		logger.Fatal("init gemini chat model", zap.Error(err))
	}
	imageModel, err := gemini.NewImageModel(ctx, cfg.Gemini.APIKey, cfg.Gemini.ImageModel)
	if err != nil {
		logger.Fatal("init gemini image model", zap.Error(err))
	}
	memStore, err := tools.OpenMemoryStore(cfg.Memory.Path)
	if err != nil {
		logger.Fatal("open memory store", zap.Error(err))
	}
	defer memStore.Close()

	registry := core.NewToolRegistry(cfg.Agent.StepTimeout.Std(), logger)
	registry.Register(tools.NewChatAdapter())
	registry.Register(tools.NewWebSearchAdapter("", 0))
	registry.Register(tools.NewBrowserFetchAdapter(nil))
	registry.Register(tools.NewCodeExecAdapter())
	registry.Register(tools.NewImageGenAdapter(imageModel))
	registry.Register(tools.NewMemorySearchAdapter(memStore))

	personas := core.NewPersonaSelector()
	if cfg.Persona.File != "" {
		personas, err = core.NewPersonaSelectorFromFile(cfg.Persona.File)
		if err != nil {
			logger.Fatal("load personas", zap.Error(err))
		}
	}

	planner := core.NewPlanner(llm, registry.Descriptors(), cfg.Agent.MaxPlanSteps, logger)
	composer := core.NewComposer(llm, logger)
	agent := core.NewAgent(planner, composer, registry, personas, cfg.Agent.ModelTimeout.Std(), cfg.Agent.ParallelSteps, logger)

	r := gin.Default()
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	r.Use(cors.New(corsConfig))

	svc := agent_service.NewService(agent, personas, logger)
	svc.RegisterRoutes(r)

	logger.Info("agent api listening", zap.String("addr", cfg.Server.Addr))
	if err := r.Run(cfg.Server.Addr); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"weather-agent/internal/agent"
	"weather-agent/internal/llm"
	"weather-agent/internal/tools"

	"github.com/gin-gonic/gin"
)

// main is the entry point for the application. Its primary role is the
// "Composition Root": it loads configuration, initializes all services,
// injects dependencies, and starts the server.
func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	buildInfo := GetBuildInfo()
	log.Printf("🚀 Starting Weather Agent | Version: %s | Commit: %s", buildInfo.Version, buildInfo.GitCommit)

	// 1. LOAD CONFIGURATION
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("❌ FATAL: Configuration Error: %v", err)
	}
	log.Println("✅ Configuration loaded.")

	// 2. INITIALIZE SERVICES
	client, err := initializeLLMClient(cfg)
	if err != nil {
		log.Fatalf("❌ FATAL: %v", err)
	}

	toolManager := initializeToolManager(cfg)
	pipeline := agent.NewPipeline(client, toolManager, cfg.Agent)
	chatHandler := NewChatHandler(pipeline)
	log.Println("✅ All services initialized.")

	// 3. SETUP AND RUN THE WEB SERVER
	gin.SetMode(os.Getenv("GIN_MODE"))
	engine := gin.Default()
	engine.POST("/chat", chatHandler.HandleChat)
	engine.GET("/healthz", chatHandler.HandleHealth)

	srv := &http.Server{Addr: fmt.Sprintf(":%s", cfg.Port), Handler: engine}
	runServerWithGracefulShutdown(srv)
}

// initializeLLMClient creates the hosted provider client for the configured
// model, selected by model-name prefix.
func initializeLLMClient(cfg *AppConfig) (llm.LLMClient, error) {
	switch {
	case strings.HasPrefix(cfg.Agent.Model, "gpt"):
		return llm.NewOpenAIClient(cfg.OpenAIKey)
	case strings.HasPrefix(cfg.Agent.Model, "gemini"):
		return llm.NewGeminiClient(cfg.GeminiKey, cfg.Agent.Model)
	default:
		return nil, fmt.Errorf("unknown model provider for %q", cfg.Agent.Model)
	}
}

// initializeToolManager creates and registers the agent's tools.
func initializeToolManager(cfg *AppConfig) *tools.ToolManager {
	manager := tools.NewToolManager()
	manager.Register(tools.NewForecastTool(cfg.ForecastAPIURL))
	log.Printf("✅ Tool Manager initialized with %d tools.", manager.ToolCount())
	return manager
}

// runServerWithGracefulShutdown handles the server lifecycle.
func runServerWithGracefulShutdown(srv *http.Server) {
	go func() {
		log.Printf("👂 Weather agent is listening on http://localhost%s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ Listen error: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("❌ Server shutdown failed:", err)
	}

	log.Println("👋 Server exited gracefully.")
}

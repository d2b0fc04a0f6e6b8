package main

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/nirmal141/negotAItion/internal/config"
	"github.com/nirmal141/negotAItion/internal/llm"
	"github.com/nirmal141/negotAItion/internal/logger"
	"github.com/nirmal141/negotAItion/internal/negotiator"
	"github.com/nirmal141/negotAItion/internal/server"
	"github.com/nirmal141/negotAItion/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration, using defaults", "error", err)
		cfg = config.Default()
	}
	logger.SetLevel(cfg.Log.Level)

	llmClient := llm.NewClient(cfg.LLM)
	engine := negotiator.New(llmClient, cfg.LLM, cfg.Negotiation, nil)

	st := store.New(cfg.Negotiation.DBPath)
	defer st.Close()

	srv := server.New(engine, st)

	serverAddr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	slog.Info("starting server", "address", serverAddr)
	if err := http.ListenAndServe(serverAddr, srv.Routes()); err != nil {
		slog.Error("failed to start server", "error", err)
	}
}

package main

import (
	"context"

	"github.com/OFFIS-RIT/pomelo/internal/server"
	"github.com/OFFIS-RIT/pomelo/internal/server/middleware"
	"github.com/OFFIS-RIT/pomelo/internal/setup"
	"github.com/OFFIS-RIT/pomelo/internal/util"
	"github.com/OFFIS-RIT/pomelo/pkg/logger"
	"github.com/OFFIS-RIT/pomelo/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	ctx := context.Background()

	aiClient, err := setup.NewAIClient()
	if err != nil {
		logger.Fatal("Failed to create AI client", "err", err)
	}

	snapStore, closeStore, err := setup.NewStore(ctx)
	if err != nil {
		logger.Fatal("Failed to open snapshot store", "err", err)
	}
	defer closeStore()

	engine := setup.NewEngine(aiClient)
	if err := setup.LoadIndex(ctx, engine, snapStore); err != nil {
		logger.Fatal("Failed to restore snapshot", "err", err)
	}

	server.Init(&middleware.App{
		Engine:   engine,
		Builder:  setup.NewBuilder(),
		AIClient: aiClient,
		Store:    snapStore,

		Encoder:        util.GetEnvString("INDEX_ENCODER", "o200k_base"),
		MaxChunkTokens: util.GetEnvInt("INDEX_MAX_CHUNK_TOKENS", 512),
	})
}

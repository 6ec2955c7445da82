package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/artstore/artstore/internal/logging"
	"github.com/artstore/artstore/internal/server"
	"github.com/artstore/artstore/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}

}

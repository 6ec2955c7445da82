package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/artstore/artstore/internal/client/cli"
	"github.com/artstore/artstore/internal/client/config"
	"github.com/artstore/artstore/internal/logging"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"AINewsScanner/internal/app"
	"AINewsScanner/internal/config"
	"AINewsScanner/internal/logging"
)

func main() {
	once := flag.Bool("once", false, "run a single scraping cycle and exit")
	socialOnce := flag.Bool("social", false, "run a single social cycle and exit")
	status := flag.Bool("status", false, "print database and channel status and exit")
	resetCursor := flag.Bool("reset-cursor", false, "clear the stored social cursor and exit")
	flag.Parse()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("cannot start application", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case *status:
		err = application.Status(ctx)
	case *resetCursor:
		err = application.ResetCursor(ctx)
	case *once:
		err = application.RunOnce(ctx)
	case *socialOnce:
		err = application.RunSocial(ctx)
	default:
		err = application.RunScheduled(ctx)
	}

	if err != nil {
		logger.Error("application stopped", "error", err)
		os.Exit(1)
	}
}

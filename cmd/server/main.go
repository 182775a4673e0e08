package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/joho/godotenv"

	"github.com/yash-076/job-aggregator-web/web"
)

func main() {
	_ = godotenv.Load()

	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Trace),
		glog.WithName("jobradar"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)
	logger := lgr.GetLogger("main")

	cfg, err := web.LoadConfig()
	if err != nil {
		logger.Error("configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	app, err := web.New(ctx, cfg, lgr)
	if err != nil {
		logger.Error("startup", "error", err)
		os.Exit(1)
	}

	go func() {
		if err := app.Listen(); err != nil {
			logger.Error("listener stopped", "error", err)
			os.Exit(1)
		}
	}()

	sig := WaitExitSignal()
	logger.Info("shutting down", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := app.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
		os.Exit(1)
	}
}

// WaitExitSignal blocks until the process receives an interrupt.
func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/objfilter/objfilter/internal"
	"github.com/objfilter/objfilter/internal/daemon"
	"github.com/objfilter/objfilter/internal/listener"
	"github.com/objfilter/objfilter/internal/logging"
	rt "github.com/objfilter/objfilter/internal/runtime"
	"github.com/objfilter/objfilter/internal/store"
	"go.uber.org/zap"
)

func main() {
	cliFlags := daemon.ParseFlags()

	if cliFlags.Version {
		fmt.Println("objfilter version:", internal.Version)
		fmt.Println()

		fmt.Println("Build information:")
		fmt.Printf("  Go version: %s (%s, %s)\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		return
	}

	if err := daemon.LoadConfig(cliFlags.Config); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "cannot load config:", err)
		os.Exit(daemon.ExitFailure)
	}

	conf := daemon.Config()

	logs, err := logging.NewLogging("objfilter", conf.Logging)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "cannot initialize logging:", err)
		os.Exit(daemon.ExitFailure)
	}

	logger := logs.GetLogger()
	logger.Infof("Starting objfilter daemon (%s)", internal.Version)

	db, err := conf.Database.Open()
	if err != nil {
		logger.Fatalw("cannot create database connection from config", zap.Error(err))
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalw("cannot connect to database", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	filterStore, err := store.New(db, logs.GetChildLogger("store"))
	if err != nil {
		logger.Fatalw("cannot initialize filter store", zap.Error(err))
	}
	if err := filterStore.Setup(ctx); err != nil {
		logger.Fatalw("cannot set up database schema", zap.Error(err))
	}

	filters := rt.NewFilters(filterStore, logs.GetChildLogger("runtime"))
	if err := filters.UpdateFromStore(ctx); err != nil {
		logger.Fatalw("failed to load filters from database", zap.Error(err))
	}

	go filters.PeriodicUpdates(ctx, conf.UpdateInterval)

	l := listener.NewListener(conf.Listen, conf.ListenerPasswordHash, filters, logs.GetChildLogger("listener"))
	if err := l.Run(ctx); err != nil {
		logger.Errorw("Listener has finished with an error", zap.Error(err))
		os.Exit(daemon.ExitFailure)
	}
	logger.Info("Listener has finished")
}

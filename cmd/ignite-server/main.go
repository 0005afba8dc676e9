// Command ignite-server runs the ignite TCP server: it opens a data
// directory with the requested storage engine and serves
// internal/protocol requests until interrupted. Grounded on
// shake-karrot-lightkafka's cmd/broker/main.go (config struct, background
// Start(), SIGINT/SIGTERM-driven graceful Stop()).
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/ignitekv/ignite/internal/boltengine"
	"github.com/ignitekv/ignite/internal/engine"
	"github.com/ignitekv/ignite/internal/server"
	"github.com/ignitekv/ignite/pkg/enginecontract"
	kverrors "github.com/ignitekv/ignite/pkg/errors"
	"github.com/ignitekv/ignite/pkg/logger"
	"github.com/ignitekv/ignite/pkg/options"
	"go.uber.org/zap"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:4000", "TCP address to listen on")
	dataDir := flag.String("data-dir", "./data", "data directory")
	engineKind := flag.String("engine", options.EngineKindKVS, "storage engine: kvs or sled")
	poolSize := flag.Int("pool-size", 16, "bounded worker pool size")
	flag.Parse()

	zlog := logger.New("ignite-server")

	opts := options.NewDefaultOptions()
	options.WithDataDir(*dataDir)(&opts)
	options.WithEngine(*engineKind)(&opts)

	ctx := context.Background()

	eng, err := openEngine(ctx, &opts, zlog)
	if err != nil {
		zlog.Fatalf("failed to open engine: %v", err)
	}
	defer eng.Close()

	srv := server.New(*addr, eng, *poolSize, zlog)

	go func() {
		if err := srv.ListenAndServe(); err != nil {
			zlog.Fatalf("server stopped: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zlog.Info("shutting down")
	if err := srv.Close(); err != nil {
		zlog.Errorw("error during shutdown", "error", err)
		os.Exit(1)
	}
}

// openEngine selects the concrete engine implementation named by
// opts.EngineKind, matching internal/engine.EngineKind/
// internal/boltengine.EngineKind against the tag file already recorded in
// opts.DataDir (see internal/enginetag).
func openEngine(ctx context.Context, opts *options.Options, zlog *zap.SugaredLogger) (enginecontract.Engine, error) {
	switch opts.EngineKind {
	case boltengine.EngineKind:
		return boltengine.New(ctx, &boltengine.Config{Options: opts, Logger: zlog})
	case engine.EngineKind, "":
		return engine.New(ctx, &engine.Config{Options: opts, Logger: zlog})
	default:
		return nil, kverrors.NewFieldFormatError("EngineKind", opts.EngineKind, "kvs or sled")
	}
}

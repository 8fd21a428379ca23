// Command hotpotatod runs the hot-potato settlement engine as a standalone
// daemon: it owns the durable ledger and round state, exposes them over
// JSON-RPC, and drives the keeper loop that settles outstanding tickets once
// their delay has elapsed.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/DenhamPreen/hot-potato/config"
	hotpotatoerrors "github.com/DenhamPreen/hot-potato/core/errors"
	"github.com/DenhamPreen/hot-potato/core/events"
	nativehotpotato "github.com/DenhamPreen/hot-potato/native/hotpotato"
	"github.com/DenhamPreen/hot-potato/observability/logging"
	"github.com/DenhamPreen/hot-potato/observability/metrics"
	"github.com/DenhamPreen/hot-potato/observability/otel"
	"github.com/DenhamPreen/hot-potato/rpc"
	statehotpotato "github.com/DenhamPreen/hot-potato/state/hotpotato"
	"github.com/DenhamPreen/hot-potato/state/ledger"
	"github.com/DenhamPreen/hot-potato/storage"
)

// keeperPollInterval is how often the keeper loop checks for a settleable
// ticket and advances the simulated block counter.
const keeperPollInterval = 1 * time.Second

func main() {
	configFile := flag.String("config", "./hotpotatod.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("HOTPOTATO_ENV"))
	logger := logging.Setup("hotpotatod", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", slog.Any("error", err))
		os.Exit(1)
	}
	if cfg.LogEnv == "" {
		cfg.LogEnv = env
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.OTelTraces || cfg.OTelMetrics {
		shutdown, err := otel.Init(ctx, otel.Config{
			ServiceName: "hotpotatod",
			Environment: cfg.LogEnv,
			Endpoint:    cfg.OTelEndpoint,
			Insecure:    cfg.OTelInsecure,
			Metrics:     cfg.OTelMetrics,
			Traces:      cfg.OTelTraces,
		})
		if err != nil {
			logger.Error("failed to init telemetry", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() { _ = shutdown(context.Background()) }()
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Error("failed to prepare data directory", slog.Any("error", err))
		os.Exit(1)
	}
	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		logger.Error("failed to parse engine config", slog.Any("error", err))
		os.Exit(1)
	}

	store := statehotpotato.NewStore(db)
	bankroll, err := ledger.New(db, engineCfg.CreatorAddress)
	if err != nil {
		logger.Error("failed to open ledger", slog.Any("error", err))
		os.Exit(1)
	}

	recorder := events.NewRecorder(256)
	emitter := metrics.NewEventObserver(metrics.HotPotato(), recorder)

	engine := nativehotpotato.NewEngine(engineCfg, bankroll, emitter, nil)
	engine.SetPersister(store)

	if live, ok, err := store.LoadLiveState(); err != nil {
		logger.Error("failed to load persisted round state", slog.Any("error", err))
		os.Exit(1)
	} else if ok {
		engine.RestoreLiveState(live)
		logger.Info("restored round state", slog.Uint64("roundId", live.RoundID))
	}

	handler := rpc.NewServer(engine, recorder, store, rpc.ServerConfig{
		RateLimitPerSecond: cfg.RPCRateLimitPerSecond,
		RateLimitBurst:     cfg.RPCRateLimitBurst,
	})

	srv := &http.Server{
		Addr:              cfg.RPCAddress,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	serveErrCh := make(chan error, 1)
	go func() {
		serveErrCh <- srv.ListenAndServe()
	}()

	if err := waitForListen(cfg.RPCAddress, serveErrCh, 5*time.Second); err != nil {
		logger.Error("RPC server failed to start", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("hotpotatod listening", slog.String("address", cfg.RPCAddress))

	keeperKey, err := cfg.KeeperPrivateKey()
	if err != nil {
		logger.Error("failed to decode keeper key", slog.Any("error", err))
		os.Exit(1)
	}
	keeperAddr := keeperKey.PubKey().Address().Bytes20()

	keeperDone := make(chan struct{})
	go runKeeper(ctx, logger, engine, bankroll, keeperAddr, keeperDone)

	select {
	case err := <-serveErrCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("RPC server terminated", slog.Any("error", err))
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("error during RPC shutdown", slog.Any("error", err))
		}
	}
	<-keeperDone
}

// runKeeper advances the simulated block counter and settles the
// outstanding ticket once SettleDelayBlocks has elapsed, standing in for the
// block-production and keeper-bot roles a real chain deployment would split
// across separate processes.
func runKeeper(ctx context.Context, logger *slog.Logger, engine *nativehotpotato.Engine, bankroll *ledger.Ledger, keeperAddr [20]byte, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(keeperPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := bankroll.Advance(); err != nil {
				logger.Error("failed to advance ledger block counter", slog.Any("error", err))
				continue
			}
			round := engine.CurrentRound()
			if round.Pending == nil {
				continue
			}
			if err := engine.Settle(keeperAddr); err != nil {
				if !isExpectedSettleWait(err) {
					logger.Warn("settle attempt failed", slog.Any("error", err))
				}
				continue
			}
			logger.Info("settled pending ticket", slog.Uint64("roundId", round.RoundID))
		}
	}
}

// isExpectedSettleWait reports whether err is the routine case of the
// keeper polling before a ticket's settle delay has elapsed; anything else
// is worth a log line.
func isExpectedSettleWait(err error) bool {
	return errors.Is(err, hotpotatoerrors.ErrTooSoonToSettle)
}

func waitForListen(addr string, errCh <-chan error, timeout time.Duration) error {
	dialAddr := addr
	if host, port, splitErr := net.SplitHostPort(addr); splitErr == nil && host == "" {
		dialAddr = net.JoinHostPort("127.0.0.1", port)
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case err, ok := <-errCh:
			if !ok {
				return fmt.Errorf("RPC server exited before startup confirmation")
			}
			if err != nil {
				return fmt.Errorf("RPC server exited before startup confirmation: %w", err)
			}
		default:
		}

		conn, err := net.DialTimeout("tcp", dialAddr, 200*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			return nil
		}

		select {
		case <-ticker.C:
		case <-deadline.C:
			return fmt.Errorf("timed out waiting for RPC server to start on %s", addr)
		}
	}
}

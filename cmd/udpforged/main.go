package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jroosing/udpforge/internal/adminapi"
	"github.com/jroosing/udpforge/internal/config"
	"github.com/jroosing/udpforge/internal/logging"
	"github.com/jroosing/udpforge/internal/snapshotdb"
	"github.com/jroosing/udpforge/internal/udpcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

type cliFlags struct {
	configPath string
	port       int
	jsonLogs   bool
	debug      bool
}

func parseFlags() cliFlags {
	var f cliFlags
	flag.StringVar(&f.configPath, "config", "", "Path to YAML config file")
	flag.IntVar(&f.port, "port", 0, "Override server.local_port")
	flag.BoolVar(&f.jsonLogs, "json-logs", false, "Enable JSON structured logging")
	flag.BoolVar(&f.debug, "debug", false, "Enable debug logging")
	flag.Parse()
	return f
}

func applyCLIOverrides(cfg *config.Config, f cliFlags) {
	if f.port != 0 {
		cfg.Server.LocalPort = f.port
	}
	if f.jsonLogs {
		cfg.Logging.Structured = true
		cfg.Logging.StructuredFormat = "json"
	}
	if f.debug {
		cfg.Logging.Level = "DEBUG"
	}
}

// buildUDPCoreConfig translates the loaded YAML/env configuration into the
// engine's own Config, parsing every duration string into a time.Duration.
func buildUDPCoreConfig(cfg *config.Config) (udpcore.Config, error) {
	tick, err := config.ParseDuration(cfg.Server.TickInterval)
	if err != nil {
		return udpcore.Config{}, fmt.Errorf("server.tick_interval: %w", err)
	}

	groups := make([]udpcore.GroupConfig, len(cfg.Groups))
	for i, g := range cfg.Groups {
		wait, err := config.ParseDuration(g.EffectiveWait)
		if err != nil {
			return udpcore.Config{}, fmt.Errorf("groups[%d].effective_wait: %w", i, err)
		}
		stall, err := config.ParseDuration(g.WorkerStallTimeout)
		if err != nil {
			return udpcore.Config{}, fmt.Errorf("groups[%d].worker_stall_timeout: %w", i, err)
		}
		groups[i] = udpcore.GroupConfig{
			Name:               g.Name,
			Capacity:           g.Capacity,
			EffectiveWait:      wait,
			MinThreads:         g.MinThreads,
			MaxThreads:         g.MaxThreads,
			WorkerStallTimeout: stall,
		}
	}

	return udpcore.Config{
		LocalPort:           cfg.Server.LocalPort,
		ListenerThreadCount: cfg.Server.ListenerThreadCount,
		TickInterval:        tick,
		Groups:              groups,
	}, nil
}

// echoProcess is the demo process callback: it copies each packet's payload
// straight back to its sender. Swap this out for real application logic.
func echoProcess(w *udpcore.Worker, p *udpcore.Packet) error {
	conn, err := net.DialUDP("udp", nil, p.Peer())
	if err != nil {
		return fmt.Errorf("dial peer: %w", err)
	}
	defer conn.Close()
	_, err = conn.Write(p.Buffer())
	return err
}

func run() error {
	flags := parseFlags()

	cfg, err := config.Load(config.ResolveConfigPath(flags.configPath))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyCLIOverrides(cfg, flags)

	logger := logging.Configure(logging.Config{
		Level:            cfg.Logging.Level,
		Structured:       cfg.Logging.Structured,
		StructuredFormat: cfg.Logging.StructuredFormat,
		IncludePID:       cfg.Logging.IncludePID,
		ExtraFields:      cfg.Logging.ExtraFields,
	})
	logger.Info("udpforge starting", "port", cfg.Server.LocalPort, "groups", len(cfg.Groups))

	engineCfg, err := buildUDPCoreConfig(cfg)
	if err != nil {
		return fmt.Errorf("invalid engine config: %w", err)
	}

	srv := udpcore.New(engineCfg, nil, echoProcess, logger)
	if err := srv.Open(); err != nil {
		return fmt.Errorf("failed to open server: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var db *snapshotdb.DB
	if cfg.Database.Path != "" {
		db, err = snapshotdb.Open(cfg.Database.Path)
		if err != nil {
			logger.Error("snapshot database unavailable, continuing without history", "err", err)
			db = nil
		} else {
			defer db.Close()
			recorder := snapshotdb.NewRecorder(db, srv, tickOrDefault(engineCfg.TickInterval), logger)
			go recorder.Run(ctx)
		}
	}

	var adminSrv *adminapi.Server
	if cfg.Admin.Enabled {
		adminSrv = adminapi.New(cfg, srv, db, logger)
		logger.Info("admin API starting", "addr", adminSrv.Addr())
		go func() {
			if serveErr := adminSrv.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
				logger.Error("admin API error", "err", serveErr)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("udpforge shutting down")

	if adminSrv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = adminSrv.Shutdown(shutdownCtx)
		shutdownCancel()
	}

	if err := srv.Close(); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	return nil
}

func tickOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Minute
	}
	return d
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/quake3/masterd/internal/addrmap"
	"github.com/quake3/masterd/internal/challenge"
	"github.com/quake3/masterd/internal/config"
	"github.com/quake3/masterd/internal/listener"
	"github.com/quake3/masterd/internal/master"
	"github.com/quake3/masterd/internal/policy"
	"github.com/quake3/masterd/internal/registry"
)

const configPath = "config/masterd.yaml"

// sweepInterval is how often stale registry entries are evicted; it has
// no protocol meaning, only a memory-bound one, so it is not config.
const sweepInterval = 30 * time.Second

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	slog.Info("masterd starting")

	cfgPath := configPath
	if p := os.Getenv("MASTERD_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadMaster(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	})))
	slog.Info("config loaded",
		"listen4", cfg.ListenAddress4, "listen6", cfg.ListenAddress6,
		"accepted_games", cfg.AcceptedGames, "max_servers", cfg.MaxServers)

	addrMap, err := loadAddressMap(cfg.AddressMapPath)
	if err != nil {
		return fmt.Errorf("loading address map: %w", err)
	}

	challengeSource := challenge.SourceSecure
	if cfg.ChallengeSource == "weak" {
		challengeSource = challenge.SourceWeak
	}

	encoding := master.EncodingProtocolCompliant
	if cfg.LegacyIPv4Encoding {
		encoding = master.EncodingLegacyHexCompat
	}

	reg := registry.New(cfg.MaxServers)
	collab := &master.Collaborators{
		Registry:        reg,
		GameAccepted:    policy.NewAllowList(cfg.AcceptedGames).Accepted,
		AddressMap:      addrMap,
		Now:             time.Now,
		Challenges:      challenge.New(challengeSource),
		Encoding:        encoding,
		DefaultGameName: cfg.DefaultGameName,
		ChallengeTTL:    cfg.ChallengeTTL,
		LivenessTTL:     cfg.LivenessTTL,
	}

	runner, err := listener.New(collab, cfg.ListenAddress4, cfg.ListenAddress6)
	if err != nil {
		return fmt.Errorf("creating listeners: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return runner.Run(gctx)
	})

	g.Go(func() error {
		sweepLoop(gctx, reg)
		return nil
	})

	return g.Wait()
}

// sweepLoop periodically evicts stale registry entries, the same
// ticker-driven background-loop shape the teacher uses for its world
// visibility manager.
func sweepLoop(ctx context.Context, reg *registry.Registry) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := reg.Sweep(time.Now()); n > 0 {
				slog.Debug("swept stale registry entries", "count", n)
			}
		}
	}
}

func loadAddressMap(path string) (master.AddressMapper, error) {
	if path == "" {
		return master.NoAddressMap{}, nil
	}
	return addrmap.Load(path)
}

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/adapters/inbound/httpapi"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/adapters/outbound/discord"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/adapters/outbound/remote"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/config"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/audit"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/display"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/live"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/replica"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/scoring"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/state/match"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/events"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/fanout"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/roster"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/telemetry"
)

// ProcessConfig captures what differs between the scorer and viewer
// entry points.
type ProcessConfig struct {
	Name string // "scorer" or "viewer", used for logs

	// Serve runs the HTTP API and fanout server, persists writes, and
	// records the audit log. Viewers leave it off.
	Serve bool

	// FollowMatch follows one match read-only through the fanout server.
	FollowMatch string
}

// Run boots a scoring process. It wires the shared infrastructure (roster,
// remote store, match service, observers) and then either serves scorers
// or follows a match as a viewer. Blocks until SIGINT or SIGTERM.
func Run(pc ProcessConfig) {
	cfg := config.Load()
	telemetry.Init(telemetry.ParseLogLevel(cfg.LogLevel))
	telemetry.Infof("Starting %s process", pc.Name)

	bus := events.NewBus()
	var closers []io.Closer

	// ── Roster & formats ───────────────────────────────────────
	teams, err := roster.Load(cfg.RosterPath)
	if err != nil {
		telemetry.Warnf("Roster unavailable, squad checks disabled: %v", err)
		teams, _ = roster.New()
	}

	var formats config.Formats
	if cfg.FormatsPath != "" {
		formats, err = config.LoadFormats(cfg.FormatsPath)
		if err != nil {
			telemetry.Errorf("Failed to load formats: %v", err)
			os.Exit(1)
		}
	}

	// ── Remote store ───────────────────────────────────────────
	store, err := remote.Open(cfg)
	if err != nil {
		telemetry.Errorf("Remote store: %v", err)
		os.Exit(1)
	}
	closers = append(closers, store)
	telemetry.Infof("Remote store  backend=%s  merge=%s", cfg.StoreBackend, cfg.MergePolicy)

	// ── Observers ──────────────────────────────────────────────
	observers := []live.MatchObserver{display.NewObserver(os.Stderr)}

	var auditStore *audit.Store
	var syncer *replica.Syncer
	var alerts *discord.Alerts
	if pc.Serve {
		auditStore, err = audit.OpenStore(cfg.AuditDBPath)
		if err != nil {
			telemetry.Warnf("Audit store disabled: %v", err)
		} else {
			closers = append(closers, auditStore)
		}
		archive, err := audit.NewArchive(cfg.ArchiveDir)
		if err != nil {
			telemetry.Warnf("Match archive disabled: %v", err)
		}
		observers = append(observers, audit.NewObserver(auditStore, archive))

		// ── Persistence & alerts ───────────────────────────────
		syncer = replica.NewSyncer(store, cfg.PersistPacing)
		syncer.Attach(bus)

		alerts = discord.NewAlerts(discord.NewNotifier(cfg.DiscordWebhookURL), teams.TeamName)
		alerts.Attach(bus)
	}

	// ── Match service ──────────────────────────────────────────
	svc := scoring.NewService(scoring.Options{
		Remote:    store,
		Formats:   formats,
		Roster:    teams,
		Bus:       bus,
		Merger:    replica.NewMerger(replica.ParsePolicy(cfg.MergePolicy)),
		Observers: observers,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if pc.Serve {
		// ── HTTP API & fanout server ───────────────────────────
		api := httpapi.New(httpapi.Deps{Matches: svc, Audit: auditStore, RateLimit: cfg.APIRateLimit})
		go func() {
			if err := api.ListenAndServe(ctx, fmt.Sprintf("%s:%d", cfg.HTTPHost, cfg.HTTPPort)); err != nil {
				telemetry.Errorf("HTTP API: %v", err)
				cancel()
			}
		}()

		fan := fanout.NewServer(bus, func(ctx context.Context, id string) (*match.MatchState, error) {
			mc, err := svc.Get(ctx, id)
			if err != nil {
				return nil, err
			}
			return mc.Snapshot(ctx)
		})
		go func() {
			if err := fan.ListenAndServe(ctx, fmt.Sprintf(":%d", cfg.FanoutPort)); err != nil {
				telemetry.Errorf("Fanout: %v", err)
				cancel()
			}
		}()
	}

	if pc.FollowMatch != "" {
		// ── Fanout client ──────────────────────────────────────
		if _, err := svc.Get(ctx, pc.FollowMatch); err != nil && !errors.Is(err, live.ErrNotFound) {
			telemetry.Warnf("Initial load of %s: %v", pc.FollowMatch, err)
		}
		client := fanout.NewClient(cfg.FanoutAddr, pc.FollowMatch, bus, func(id string, st *match.MatchState) {
			mc, err := svc.Get(ctx, id)
			if err != nil {
				telemetry.Debugf("fanout: %s not loadable yet: %v", id, err)
				return
			}
			mc.ApplyRemote(st, "fanout")
		})
		go client.ConnectWithRetry(ctx)
		telemetry.Infof("Following match %s via fanout (%s)", pc.FollowMatch, cfg.FanoutAddr)
	}

	// ── Shutdown ───────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-ctx.Done():
	}

	telemetry.Infof("Shutting down %s...", pc.Name)
	cancel()

	matches := len(svc.List())
	svc.Close()
	pending := 0
	if syncer != nil {
		pending = syncer.Pending()
		syncer.Close()
	}
	if alerts != nil {
		alerts.Close()
	}
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			telemetry.Warnf("close: %v", err)
		}
	}

	telemetry.Infof("%s shutdown complete  matches=%d  unsynced=%d", pc.Name, matches, pending)
}

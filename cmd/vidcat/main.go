package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/mmcdole/vidcat/internal/adapter"
	"github.com/mmcdole/vidcat/internal/adapter/cast"
	"github.com/mmcdole/vidcat/internal/adapter/catalog"
	"github.com/mmcdole/vidcat/internal/adapter/mpv"
	"github.com/mmcdole/vidcat/internal/domain"
	"github.com/mmcdole/vidcat/internal/playback"
	"github.com/mmcdole/vidcat/internal/service"
	"github.com/mmcdole/vidcat/internal/store"
	"github.com/mmcdole/vidcat/internal/tui"
	"github.com/mmcdole/vidcat/internal/tui/components"
)

// Version is set at build time via -ldflags
var Version = "dev"

const cliTimeout = 30 * time.Second

var errNoTerminal = errors.New("vidcat needs an interactive terminal; use -list or -play")

type cliOptions struct {
	prefix       string
	list         bool
	play         string
	writeConfig  bool
	clearHistory bool
}

func main() {
	var (
		showVersion bool
		opts        cliOptions
	)
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.StringVar(&opts.prefix, "prefix", "", "start in this catalog folder")
	flag.BoolVar(&opts.list, "list", false, "print the listing of -prefix and exit")
	flag.StringVar(&opts.play, "play", "", "resolve a file key, open it in the player and exit")
	flag.BoolVar(&opts.writeConfig, "write-config", false, "write the effective configuration to the config file and exit")
	flag.BoolVar(&opts.clearHistory, "clear-history", false, "delete the history database and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("vidcat %s\n", Version)
		return
	}

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(opts cliOptions) error {
	// Load configuration
	cfg, err := adapter.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	logger, closer, err := adapter.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = adapter.NullLogger()
	} else {
		defer closer.Close()
	}
	slog.SetDefault(logger)

	logger.Info("starting vidcat", "version", Version)

	switch {
	case opts.writeConfig:
		if err := adapter.SaveConfig(cfg); err != nil {
			return err
		}
		fmt.Println("Configuration saved.")
		if !cfg.IsConfigured() {
			fmt.Println("Set server.api_base to browse your catalog; the demo catalog is used until then.")
		}
		return nil
	case opts.clearHistory:
		if err := adapter.ClearCache(cfg.Cache.Dir); err != nil {
			return err
		}
		fmt.Println("History cleared.")
		return nil
	}

	catalogSvc := service.NewCatalogService(newRepository(cfg, logger), logger)
	launcher := adapter.NewLauncher(cfg.Player.Command, cfg.Player.Args, logger)

	switch {
	case opts.list:
		return printListing(catalogSvc, opts.prefix)
	case opts.play != "":
		return playOnce(catalogSvc, launcher, opts.play)
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errNoTerminal
	}

	db, err := store.NewHistoryDB(cfg.Cache.Dir, cfg.Server.APIBase)
	if err != nil {
		logger.Warn("history database unavailable, keeping history in memory", "error", err)
		db, _ = store.NewHistoryDB("", "")
	}
	defer db.Close()
	historySvc := service.NewHistoryService(db, cfg.UI.HistorySize, logger)

	launch := launchFunc(launcher)

	ctx, cancel := context.WithCancel(context.Background())
	var (
		detector playback.CastDetector
		castFn   tui.CastFunc
	)
	if cfg.Cast.Enabled {
		discovery := cast.NewDiscovery(cfg.Cast.BrowseTimeout, logger)
		discovery.Start(ctx)
		defer discovery.Wait()

		caster := cast.NewCaster(logger)
		detector = discovery
		castFn = func(ctx context.Context, url string) (string, error) {
			dev, err := caster.CastFirst(ctx, discovery, url)
			return dev.Name, err
		}
	}
	defer cancel()

	selector := playback.Selector{
		Direct: playback.NewDirectAdapter(launch, logger),
		Adaptive: playback.NewAdaptiveAdapter(playback.AdaptiveOptions{
			Engine:   engineFactory(cfg, launch, logger),
			Cast:     detector,
			CastWait: cfg.Cast.WaitTimeout,
			CastPoll: cfg.Cast.PollInterval,
			Logger:   logger,
		}),
	}

	player := components.NewPlayerPane()
	session := service.NewSessionController(catalogSvc, selector, player, logger)
	defer session.Close()

	model := tui.NewModel(tui.Options{
		Catalog: catalogSvc,
		Session: session,
		History: historySvc,
		Player:  player,
		Open: func(url string) error {
			_, err := launcher.OpenDefault(url)
			return err
		},
		Cast:            castFn,
		StartPrefix:     opts.prefix,
		RestoreLocation: cfg.UI.RestoreLocation,
		Logger:          logger,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())

	logger.Info("starting TUI")

	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("shutting down")
	return nil
}

// newRepository picks the HTTP catalog, or the demo catalog when no API
// base is configured
func newRepository(cfg *adapter.Config, logger *slog.Logger) domain.CatalogRepository {
	if catalog.IsPlaceholder(cfg.Server.APIBase) {
		logger.Info("no catalog API configured, using demo catalog")
		return catalog.NewDemoCatalog()
	}
	return catalog.NewClient(cfg.Server.APIBase, catalog.Options{
		Timeout:           cfg.Server.Timeout,
		RequestsPerSecond: cfg.Server.RequestsPerSecond,
	}, logger)
}

// launchFunc adapts the launcher to the playback packages
func launchFunc(l *adapter.Launcher) playback.LaunchFunc {
	return func(url, title string) (playback.PlayerProcess, error) {
		proc, err := l.Launch(url, title)
		if err != nil {
			return nil, err
		}
		return proc, nil
	}
}

// engineFactory builds the configured adaptive playback engine
func engineFactory(cfg *adapter.Config, launch playback.LaunchFunc, logger *slog.Logger) playback.EngineFactory {
	if cfg.Player.AdaptiveEngine == adapter.EngineExec {
		return playback.NewExecEngineFactory(launch)
	}
	return mpv.NewEngineFactory(cfg.Player.MPVCommand, logger)
}

func printListing(svc *service.CatalogService, prefix string) error {
	ctx, cancel := context.WithTimeout(context.Background(), cliTimeout)
	defer cancel()

	listing, err := svc.List(ctx, prefix)
	if err != nil {
		return fmt.Errorf("list %q: %s", prefix, service.UserMessage(err))
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, f := range listing.Folders {
		fmt.Fprintf(w, "%s/\t\t%s\n", f.Name, f.Prefix)
	}
	for _, f := range listing.Files {
		fmt.Fprintf(w, "%s\t%s\t%s\n", f.Name, f.FormattedSize(), f.Key)
	}
	return w.Flush()
}

func playOnce(svc *service.CatalogService, launcher *adapter.Launcher, key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), cliTimeout)
	defer cancel()

	url, err := svc.Resolve(ctx, key)
	if err != nil {
		return fmt.Errorf("resolve %q: %s", key, service.UserMessage(err))
	}
	proc, err := launcher.Launch(url, path.Base(key))
	if err != nil {
		return fmt.Errorf("launch player: %w", err)
	}
	fmt.Printf("Playing %s with %s\n", key, proc.Player)
	return nil
}

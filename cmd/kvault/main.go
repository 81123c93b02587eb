// kvault is the command-line and web client for a KnowledgeVault server.
//
// Usage:
//
//	kvault setup                              # interactive first-run wizard
//	kvault status                             # vault statistics
//	kvault list [-c name] [-t type] [-l n]    # list items
//	kvault search <query> [-l n]              # full-text search
//	kvault categories [--tree]                # list categories
//	kvault import <path-or-url> [-c name]     # import a file, directory or URL
//	kvault reclassify <id> | --all [--force]  # re-run classification
//	kvault delete|favorite|summary|links <id> # item operations
//	kvault link|unlink <id> <target>          # manage associations
//	kvault web [--listen addr]                # serve the views over HTTP
//	kvault version                            # print version
//
// Every command accepts --config, --server and --verbose.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/njoerd114/kvault/internal/api"
	"github.com/njoerd114/kvault/internal/cache"
	"github.com/njoerd114/kvault/internal/config"
	"github.com/njoerd114/kvault/internal/setup"
	"github.com/njoerd114/kvault/internal/store"
	"github.com/njoerd114/kvault/internal/telemetry"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

// errUsage marks argument errors; the usage line has already been printed.
var errUsage = errors.New("invalid usage")

func main() {
	if err := run(os.Args[1:]); err != nil {
		if !errors.Is(err, errUsage) {
			slog.Error("fatal error", "error", err)
		}
		os.Exit(1)
	}
}

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, args []string) error
}

func commands() []command {
	return []command{
		{"setup", "Interactive first-run wizard", runSetup},
		{"status", "Show vault statistics", runStatus},
		{"list", "List items", runList},
		{"search", "Search items", runSearch},
		{"categories", "List categories (--tree for the hierarchy)", runCategories},
		{"import", "Import a file, directory or URL", runImport},
		{"reclassify", "Re-run classification for one or all items", runReclassify},
		{"delete", "Delete an item", runDelete},
		{"favorite", "Toggle an item's favorite flag", runFavorite},
		{"summary", "Show the AI summary of an item", runSummary},
		{"link", "Link two items", runLink},
		{"unlink", "Unlink two items", runUnlink},
		{"links", "List the items linked to an item", runLinks},
		{"web", "Serve the views over HTTP", runWeb},
		{"version", "Print version", runVersion},
	}
}

// run dispatches to the subcommand named by args[0].
func run(args []string) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage(os.Stderr)
		if len(args) == 0 {
			return errUsage
		}
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	for _, c := range commands() {
		if c.name == args[0] {
			return c.run(ctx, args[1:])
		}
	}
	return fmt.Errorf("unknown command %q, run 'kvault help' for usage", args[0])
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "kvault: client for a KnowledgeVault server")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage:")
	for _, c := range commands() {
		fmt.Fprintf(w, "  kvault %-12s %s\n", c.name, c.summary)
	}
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Global flags:")
	fmt.Fprintln(w, "  --config path   config file (default ~/.config/kvault/config.yaml)")
	fmt.Fprintln(w, "  --server url    override server_url from the config")
	fmt.Fprintln(w, "  --verbose       enable debug logging")

	if cfgPath, err := config.DefaultPath(); err == nil {
		if _, statErr := os.Stat(cfgPath); statErr != nil {
			fmt.Fprintln(w, "")
			fmt.Fprintln(w, "No config file found. Run 'kvault setup' to get started.")
		}
	}
}

// --- Global flags ------------------------------------------------------------

type globals struct {
	configPath string
	server     string
	verbose    bool
}

// newFlagSet returns a flag set for the named command with the global flags
// registered on it.
func newFlagSet(name string) (*flag.FlagSet, *globals) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of kvault %s:\n", name)
		fs.PrintDefaults()
	}

	g := &globals{}
	defaultCfg, _ := config.DefaultPath()
	fs.StringVar(&g.configPath, "config", defaultCfg, "path to config.yaml")
	fs.StringVar(&g.server, "server", "", "server URL, overrides server_url")
	fs.BoolVarP(&g.verbose, "verbose", "v", false, "enable debug logging")
	return fs, g
}

// parse parses args and checks the positional argument count.
func parse(fs *flag.FlagSet, args []string, minArgs, maxArgs int) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, errUsage
		}
		return nil, fmt.Errorf("%s: %w", fs.Name(), err)
	}
	rest := fs.Args()
	if len(rest) < minArgs || (maxArgs >= 0 && len(rest) > maxArgs) {
		fs.Usage()
		return nil, errUsage
	}
	return rest, nil
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// --- Application bootstrap ---------------------------------------------------

// app holds the components shared by the data commands.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	client *api.Client
	store  *store.Store
	cache  *cache.Cache
	out    io.Writer

	shutdownTel telemetry.ShutdownFunc
}

// loadConfig reads the config file, falling back to defaults when --server
// is given and no file exists.
func loadConfig(g *globals) (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	switch {
	case err == nil:
		if g.server != "" {
			cfg.ServerURL = g.server
		}
	case g.server != "" && errors.Is(err, os.ErrNotExist):
		cfg = config.Default(g.server)
	default:
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w\n\nRun 'kvault setup' or pass --server", err)
		}
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newApp loads the configuration and builds the client, snapshot cache and
// store. Call close when done.
func newApp(ctx context.Context, g *globals) (*app, error) {
	logger := newLogger(g.verbose)

	cfg, err := loadConfig(g)
	if err != nil {
		return nil, err
	}
	logger.Debug("config loaded", "server_url", cfg.ServerURL, "api_base", cfg.APIBase)

	a := &app{cfg: cfg, logger: logger, out: os.Stdout, shutdownTel: func(context.Context) error { return nil }}

	if cfg.Telemetry != nil {
		shutdownTel, err := telemetry.Setup(ctx, cfg.Telemetry, version)
		if err != nil {
			logger.Error("telemetry setup failed, continuing without telemetry", "error", err)
		} else {
			logger.Debug("telemetry enabled", "endpoint", cfg.Telemetry.OTLPEndpoint)
			a.shutdownTel = shutdownTel
		}
	}

	a.client, err = api.NewClient(cfg.ServerURL, api.Options{
		BasePath:  cfg.APIBase,
		Timeout:   cfg.Timeout,
		AITimeout: cfg.AITimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("creating API client: %w", err)
	}

	var persist store.Persister
	if c, err := openCache(cfg.CachePath); err != nil {
		logger.Warn("snapshot cache unavailable, continuing without it", "error", err)
	} else {
		a.cache = c
		persist = c
	}

	a.store = store.New(a.client, persist, logger)
	return a, nil
}

func openCache(path string) (*cache.Cache, error) {
	if path == "" {
		p, err := cache.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return cache.Open(path)
}

func (a *app) close() {
	a.store.Close()
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("closing snapshot cache", "error", err)
		}
	}
	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.shutdownTel(flushCtx); err != nil {
		a.logger.Error("telemetry shutdown error", "error", err)
	}
}

// withApp parses args, builds the app and runs fn with the positional args.
func withApp(ctx context.Context, fs *flag.FlagSet, g *globals, args []string, minArgs, maxArgs int, fn func(*app, []string) error) error {
	rest, err := parse(fs, args, minArgs, maxArgs)
	if err != nil {
		return err
	}
	a, err := newApp(ctx, g)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(a, rest)
}

// --- Subcommands without a backend -------------------------------------------

func runSetup(ctx context.Context, args []string) error {
	fs, g := newFlagSet("setup")
	if _, err := parse(fs, args, 0, 0); err != nil {
		return err
	}
	logger := newLogger(g.verbose)

	wiz := setup.NewWizard(os.Stdin, os.Stdout, setup.ClientDialer(logger), g.configPath, logger)
	return wiz.Run(ctx)
}

func runVersion(_ context.Context, _ []string) error {
	fmt.Println("kvault", version)
	return nil
}

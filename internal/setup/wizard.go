package setup

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/njoerd114/kvault/internal/config"
)

const defaultServerURL = "http://localhost:8000"

// Wizard guides the user through first-run configuration.
type Wizard struct {
	prompt  *Prompter
	logger  *slog.Logger
	w       io.Writer
	dial    Dialer
	cfgPath string
}

// NewWizard creates a Wizard wired to the given I/O that writes its result
// to cfgPath.
func NewWizard(r io.Reader, w io.Writer, dial Dialer, cfgPath string, logger *slog.Logger) *Wizard {
	return &Wizard{
		prompt:  NewPrompter(r, w),
		logger:  logger,
		w:       w,
		dial:    dial,
		cfgPath: cfgPath,
	}
}

// Run executes the interactive setup wizard. It walks the user through the
// server connection, the default import category, the refresh interval, and
// writing the config file.
func (wiz *Wizard) Run(ctx context.Context) error {
	fmt.Fprintf(wiz.w, "\nWelcome to kvault setup!\n")
	fmt.Fprintf(wiz.w, "This wizard connects kvault to your KnowledgeVault server.\n\n")

	if _, statErr := os.Stat(wiz.cfgPath); statErr == nil {
		fmt.Fprintf(wiz.w, "  Existing config found at %s\n", wiz.cfgPath)
		if !wiz.prompt.Confirm("Overwrite existing configuration?", false) {
			fmt.Fprintf(wiz.w, "\n  Keeping existing config.\n")
			return nil
		}
		fmt.Fprintf(wiz.w, "\n")
	}

	// Step 1: server connection.
	fmt.Fprintf(wiz.w, "Step 1/4: Server Connection\n")

	serverURL := wiz.prompt.String("Server URL", defaultServerURL)
	backend, err := wiz.dial(serverURL)
	if err != nil {
		return fmt.Errorf("invalid server URL %q: %w", serverURL, err)
	}

	fmt.Fprintf(wiz.w, "  Connecting to %s...", serverURL)
	if err := PingServer(ctx, backend); err != nil {
		fmt.Fprintf(wiz.w, " ✗\n")
		return fmt.Errorf("cannot reach KnowledgeVault: %w\n\n  Check the URL and that the server is running, then try again", err)
	}
	fmt.Fprintf(wiz.w, " ✓\n\n")

	// Step 2: default category.
	fmt.Fprintf(wiz.w, "Step 2/4: Default Import Category\n")

	category, err := wiz.chooseCategory(ctx, backend)
	if err != nil {
		return err
	}

	// Step 3: refresh interval.
	fmt.Fprintf(wiz.w, "Step 3/4: Refresh Interval\n")

	cfg := config.Default(serverURL)
	cfg.DefaultCategory = category

	cfg.RefreshInterval = wiz.prompt.Duration("How often should the web view refresh categories and stats?",
		cfg.RefreshInterval, config.MinRefreshInterval, config.MaxRefreshInterval)
	fmt.Fprintf(wiz.w, "\n")

	// Step 4: write config.
	fmt.Fprintf(wiz.w, "Step 4/4: Save Configuration\n")

	if err := cfg.Save(wiz.cfgPath); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	fmt.Fprintf(wiz.w, "  ✓ Config written to %s\n\n", wiz.cfgPath)

	fmt.Fprintf(wiz.w, "Setup complete!\n")
	fmt.Fprintf(wiz.w, "  Status:  kvault status\n")
	fmt.Fprintf(wiz.w, "  Browse:  kvault web\n\n")
	return nil
}

// chooseCategory offers the discovered categories, falling back to free text
// when discovery fails. An empty result means imports stay uncategorised
// unless auto-classification assigns one.
func (wiz *Wizard) chooseCategory(ctx context.Context, b Backend) (string, error) {
	fmt.Fprintf(wiz.w, "  Discovering categories...\n")
	names, err := DiscoverCategories(ctx, b)
	if err != nil {
		wiz.logger.Warn("could not discover categories", "error", err)
		fmt.Fprintf(wiz.w, "  ⚠ Could not list categories; you can type a name manually.\n")
	}

	if err != nil || len(names) == 0 {
		if !wiz.prompt.Confirm("Set a default import category?", false) {
			fmt.Fprintf(wiz.w, "\n")
			return "", nil
		}
		name := wiz.prompt.String("Category name", "")
		fmt.Fprintf(wiz.w, "\n")
		return name, nil
	}

	options := append(names, "(none, let the server classify)")
	idx, err := wiz.prompt.Select("Default category for imports", options)
	if err != nil {
		return "", fmt.Errorf("selecting category: %w", err)
	}
	fmt.Fprintf(wiz.w, "\n")
	if idx == len(options)-1 {
		return "", nil
	}
	fmt.Fprintf(wiz.w, "  ✓ Imports default to %q\n\n", names[idx])
	return names[idx], nil
}

package setup

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/njoerd114/kvault/internal/config"
	"github.com/njoerd114/kvault/internal/model"
)

func runWizard(t *testing.T, input string, dial Dialer, cfgPath string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	wiz := NewWizard(strings.NewReader(input), &out, dial, cfgPath, discardLogger())
	err := wiz.Run(context.Background())
	return out.String(), err
}

func TestWizard_WritesConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "kvault", "config.yaml")
	b := &fakeBackend{
		health:     &model.Health{Status: "healthy"},
		categories: []model.Category{{ID: 2, Name: "research"}, {ID: 1, Name: "Finance"}},
	}
	// server URL, category #2 (research after sorting), refresh interval.
	input := "http://vault.local:8000\n2\n2m\n"

	out, err := runWizard(t, input, dialFake(b), cfgPath)
	if err != nil {
		t.Fatalf("Run: %v\n%s", err, out)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerURL != "http://vault.local:8000" {
		t.Errorf("ServerURL = %q", cfg.ServerURL)
	}
	if cfg.DefaultCategory != "research" {
		t.Errorf("DefaultCategory = %q, want research", cfg.DefaultCategory)
	}
	if cfg.RefreshInterval != 2*time.Minute {
		t.Errorf("RefreshInterval = %v, want 2m", cfg.RefreshInterval)
	}
}

func TestWizard_NoCategory(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	b := &fakeBackend{
		health:     &model.Health{Status: "healthy"},
		categories: []model.Category{{ID: 1, Name: "Finance"}},
	}
	// default URL, "(none)" option, default refresh.
	if out, err := runWizard(t, "\n2\n\n", dialFake(b), cfgPath); err != nil {
		t.Fatalf("Run: %v\n%s", err, out)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerURL != defaultServerURL || cfg.DefaultCategory != "" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestWizard_DiscoveryFailureFallsBackToText(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	b := &fakeBackend{
		health: &model.Health{Status: "healthy"},
		catErr: errors.New("boom"),
	}
	out, err := runWizard(t, "\ny\nInbox\n\n", dialFake(b), cfgPath)
	if err != nil {
		t.Fatalf("Run: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Could not list categories") {
		t.Errorf("missing fallback notice:\n%s", out)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DefaultCategory != "Inbox" {
		t.Errorf("DefaultCategory = %q, want Inbox", cfg.DefaultCategory)
	}
}

func TestWizard_UnhealthyServer(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	tests := map[string]*fakeBackend{
		"error":     {healthErr: errors.New("connection refused")},
		"unhealthy": {health: &model.Health{Status: "degraded"}},
	}
	for name, b := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := runWizard(t, "\n", dialFake(b), cfgPath); err == nil {
				t.Fatal("expected error, got nil")
			}
			if _, err := os.Stat(cfgPath); !os.IsNotExist(err) {
				t.Errorf("config written despite failed health check")
			}
		})
	}
}

func TestWizard_DialError(t *testing.T) {
	dial := func(string) (Backend, error) { return nil, errDial }
	_, err := runWizard(t, "::bad\n", dial, filepath.Join(t.TempDir(), "config.yaml"))
	if !errors.Is(err, errDial) {
		t.Fatalf("err = %v, want %v", err, errDial)
	}
}

func TestWizard_KeepExisting(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := config.Default("http://old.local").Save(cfgPath); err != nil {
		t.Fatal(err)
	}
	called := false
	dial := func(string) (Backend, error) { called = true; return nil, errDial }

	if _, err := runWizard(t, "n\n", dial, cfgPath); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if called {
		t.Error("wizard dialled despite keeping existing config")
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ServerURL != "http://old.local" {
		t.Errorf("ServerURL = %q, config was overwritten", cfg.ServerURL)
	}
}

func TestDiscoverCategories_Sorted(t *testing.T) {
	b := &fakeBackend{categories: []model.Category{{Name: "beta"}, {Name: "Alpha"}, {Name: "gamma"}}}
	got, err := DiscoverCategories(context.Background(), b)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Alpha", "beta", "gamma"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("got %v, want %v", got, want)
	}
}

package setup

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/njoerd114/kvault/internal/api"
	"github.com/njoerd114/kvault/internal/model"
)

// Backend is the part of the API client the wizard needs.
type Backend interface {
	Health(ctx context.Context) (*model.Health, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
}

// Dialer builds a Backend for a server URL entered by the user.
type Dialer func(serverURL string) (Backend, error)

// ClientDialer returns a Dialer producing API clients with default options.
func ClientDialer(logger *slog.Logger) Dialer {
	return func(serverURL string) (Backend, error) {
		return api.NewClient(serverURL, api.Options{}, logger)
	}
}

// PingServer verifies that the backend answers its health check and
// declares itself healthy.
func PingServer(ctx context.Context, b Backend) error {
	h, err := b.Health(ctx)
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	if !h.Healthy() {
		return fmt.Errorf("backend reported status %q", h.Status)
	}
	return nil
}

// DiscoverCategories returns the backend's category names, sorted
// case-insensitively.
func DiscoverCategories(ctx context.Context, b Backend) ([]string, error) {
	cats, err := b.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	names := make([]string, 0, len(cats))
	for _, c := range cats {
		names = append(names, c.Name)
	}
	slices.SortFunc(names, func(a, b string) int {
		return strings.Compare(strings.ToLower(a), strings.ToLower(b))
	})
	return names, nil
}

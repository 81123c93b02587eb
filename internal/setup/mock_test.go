package setup

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/njoerd114/kvault/internal/model"
)

type fakeBackend struct {
	health     *model.Health
	healthErr  error
	categories []model.Category
	catErr     error
}

func (f *fakeBackend) Health(context.Context) (*model.Health, error) {
	return f.health, f.healthErr
}

func (f *fakeBackend) ListCategories(context.Context) ([]model.Category, error) {
	return f.categories, f.catErr
}

func dialFake(b *fakeBackend) Dialer {
	return func(string) (Backend, error) { return b, nil }
}

var errDial = errors.New("bad url")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

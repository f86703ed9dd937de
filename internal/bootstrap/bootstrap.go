package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/furni4/internal/config"
)

// ErrBootstrapFailed marks a seed download that did not produce a data file.
var ErrBootstrapFailed = errors.New("bootstrap failed")

// Module provides the seed fetcher to Fx.
var Module = fx.Provide(New)

// Fetcher downloads a seed sqlite file when the configured one is missing.
type Fetcher struct {
	url    string
	path   string
	client *http.Client
	logger *zap.Logger
}

// New returns nil when bootstrap does not apply: a non-sqlite driver, an
// in-memory DSN or no seed URL.
func New(cfg config.Config, logger *zap.Logger) *Fetcher {
	if cfg.Database.Driver != "sqlite" || cfg.Bootstrap.URL == "" {
		return nil
	}
	path := SQLitePath(cfg.Database.WriterDSN)
	if path == "" {
		return nil
	}
	return &Fetcher{
		url:    cfg.Bootstrap.URL,
		path:   path,
		client: &http.Client{Timeout: cfg.Bootstrap.Timeout},
		logger: logger,
	}
}

// SQLitePath extracts the file path from a sqlite DSN, or "" for in-memory
// databases.
func SQLitePath(dsn string) string {
	path := strings.TrimPrefix(dsn, "file:")
	query := ""
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path, query = path[:i], path[i+1:]
	}
	if path == "" || path == ":memory:" {
		return ""
	}
	if values, err := url.ParseQuery(query); err == nil && values.Get("mode") == "memory" {
		return ""
	}
	return path
}

// Ensure downloads the seed file when the target is absent. Failures wrap
// ErrBootstrapFailed and leave no partial file behind.
func (f *Fetcher) Ensure(ctx context.Context) error {
	if f == nil {
		return nil
	}
	if _, err := os.Stat(f.path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: stat %s: %v", ErrBootstrapFailed, f.path, err)
	}

	if err := f.download(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrBootstrapFailed, err)
	}
	if f.logger != nil {
		f.logger.Info("seed database downloaded", zap.String("path", f.path), zap.String("url", f.url))
	}
	return nil
}

func (f *Fetcher) download(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".seed-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}

package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/vesselflow/pkg/cache"
	"github.com/matzehuels/vesselflow/pkg/config"
	"github.com/matzehuels/vesselflow/pkg/pipeline"
	"github.com/matzehuels/vesselflow/pkg/render"
	"github.com/matzehuels/vesselflow/pkg/workspace"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories, keys and display.
const appName = "vesselflow"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
	LogError = log.ErrorLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands. Config is loaded by the root
// command before any subcommand runs.
type CLI struct {
	Logger *log.Logger
	Config config.Config

	configPath string
}

// New creates a new CLI instance with a default logger and configuration.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// loadConfig reads --config, or vesselflow.toml in the working directory
// when the flag is unset.
func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath, c.configPath != "")
	if err != nil {
		return err
	}
	c.Config = cfg
	c.Logger.Debug("config loaded", "path", c.configPath, "engine", cfg.Layout.Engine,
		"cache", cfg.Cache.Backend, "store", cfg.Store.Backend)
	return nil
}

// =============================================================================
// Factories
// =============================================================================

// newRunner creates a pipeline runner over the configured cache.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	backend, keyer, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	r := pipeline.NewRunner(backend, keyer, c.Logger)
	r.LayoutTTL = c.Config.Cache.TTL.Duration
	return r, nil
}

// newCache opens the configured cache backend. Redis keys are scoped so a
// shared instance can hold other applications' data.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, cache.Keyer, error) {
	cfg := c.Config.Cache
	if noCache || cfg.Backend == config.CacheNone {
		return cache.NewNullCache(), nil, nil
	}
	if cfg.Backend == config.CacheRedis {
		rc, err := cache.NewRedisCache(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, nil, fmt.Errorf("open redis cache: %w", err)
		}
		return rc, cache.NewScopedKeyer(cache.NewDefaultKeyer(), appName), nil
	}
	fc, err := cache.NewFileCache(c.cacheDir())
	if err != nil {
		c.Logger.Warn("file cache unavailable; running uncached", "err", err)
		return cache.NewNullCache(), nil, nil
	}
	return fc, nil, nil
}

// cacheDir returns the [cache] dir or the per-user default.
func (c *CLI) cacheDir() string {
	if c.Config.Cache.Dir != "" {
		return c.Config.Cache.Dir
	}
	return cache.DefaultDir()
}

// newStore opens the configured workspace store.
func (c *CLI) newStore(ctx context.Context) (workspace.Store, error) {
	cfg := c.Config.Store
	if cfg.Backend == config.StoreMongo {
		return workspace.NewMongoStore(ctx, cfg.MongoURI, cfg.Database)
	}
	return workspace.NewFileStore(cfg.Dir)
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats splits a comma-separated --format value. Empty means svg.
func parseFormats(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{render.FormatSVG}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// Package config loads vesselflow.toml.
//
// Every field has a default, so an absent file or an empty section is
// valid. Durations are strings such as "25ms" or "168h":
//
//	[layout]
//	engine = "graphviz"
//	rank_sep = 140
//
//	[history]
//	debounce = "25ms"
//	limit = 20
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//
//	[store]
//	backend = "mongo"
//	mongo_uri = "mongodb://localhost:27017"
//
//	[server]
//	addr = ":8080"
//	allowed_origins = ["http://localhost:5173"]
package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/vesselflow/pkg/errors"
)

// DefaultFile is the file name looked up in the working directory.
const DefaultFile = "vesselflow.toml"

// Backend names.
const (
	EngineGraphviz = "graphviz"
	EngineLayered  = "layered"

	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"

	StoreFile  = "file"
	StoreMongo = "mongo"
)

// Duration is a time.Duration read from a TOML string.
type Duration struct{ time.Duration }

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config is the whole file.
type Config struct {
	Layout  Layout  `toml:"layout"`
	History History `toml:"history"`
	Cache   Cache   `toml:"cache"`
	Store   Store   `toml:"store"`
	Server  Server  `toml:"server"`
}

// Layout configures the layout engine. DefaultWidth and DefaultHeight size
// nodes where no canvas measures them (CLI and server).
type Layout struct {
	Engine        string  `toml:"engine"`
	RankSep       float64 `toml:"rank_sep"`
	NodeSep       float64 `toml:"node_sep"`
	PortSize      float64 `toml:"port_size"`
	DefaultWidth  float64 `toml:"default_width"`
	DefaultHeight float64 `toml:"default_height"`
}

// History configures undo batching. Limit 0 keeps every entry.
type History struct {
	Debounce Duration `toml:"debounce"`
	Limit    int      `toml:"limit"`
}

// Cache selects the layout cache backend.
type Cache struct {
	Backend   string   `toml:"backend"`
	Dir       string   `toml:"dir"`
	RedisAddr string   `toml:"redis_addr"`
	TTL       Duration `toml:"ttl"`
}

// Store selects where workspaces are saved.
type Store struct {
	Backend  string `toml:"backend"`
	Dir      string `toml:"dir"`
	MongoURI string `toml:"mongo_uri"`
	Database string `toml:"database"`
}

// Server configures the HTTP API.
type Server struct {
	Addr           string   `toml:"addr"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Layout: Layout{
			Engine:        EngineGraphviz,
			RankSep:       120,
			NodeSep:       50,
			PortSize:      10,
			DefaultWidth:  200,
			DefaultHeight: 100,
		},
		History: History{
			Debounce: Duration{25 * time.Millisecond},
		},
		Cache: Cache{
			Backend: CacheFile,
			TTL:     Duration{7 * 24 * time.Hour},
		},
		Store: Store{
			Backend:  StoreFile,
			Database: "vesselflow",
		},
		Server: Server{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
		},
	}
}

// Load reads path over the defaults. A missing path returns the defaults
// unless the caller named the file explicitly (required).
func Load(path string, required bool) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultFile
	}
	if _, err := os.Stat(path); os.IsNotExist(err) && !required {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes TOML text over the defaults and validates it.
func Parse(text string) (Config, error) {
	cfg := Default()
	if _, err := toml.Decode(text, &cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks backend names and numeric ranges.
func (c Config) Validate() error {
	var problems []string
	if !slices.Contains([]string{EngineGraphviz, EngineLayered}, c.Layout.Engine) {
		problems = append(problems, fmt.Sprintf("layout.engine %q is not graphviz or layered", c.Layout.Engine))
	}
	if c.Layout.RankSep < 0 || c.Layout.NodeSep < 0 || c.Layout.PortSize < 0 {
		problems = append(problems, "layout separations must not be negative")
	}
	if c.Layout.DefaultWidth <= 0 || c.Layout.DefaultHeight <= 0 {
		problems = append(problems, "layout.default_width and default_height must be positive")
	}
	if c.History.Debounce.Duration < 0 {
		problems = append(problems, "history.debounce must not be negative")
	}
	if c.History.Limit < 0 {
		problems = append(problems, "history.limit must not be negative")
	}
	switch c.Cache.Backend {
	case CacheFile, CacheNone:
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			problems = append(problems, "cache.redis_addr is required for the redis backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("cache.backend %q is not file, redis or none", c.Cache.Backend))
	}
	switch c.Store.Backend {
	case StoreFile:
	case StoreMongo:
		if c.Store.MongoURI == "" {
			problems = append(problems, "store.mongo_uri is required for the mongo backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("store.backend %q is not file or mongo", c.Store.Backend))
	}
	if len(problems) > 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "%s", strings.Join(problems, "; "))
	}
	return nil
}

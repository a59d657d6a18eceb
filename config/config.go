// Package config loads Siphonophore's runtime tunables the way
// leapmux/leapmux layers koanf: defaults → optional YAML file →
// environment variables, highest priority last.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config is the fully-resolved set of tunables main.go wires into the
// actor topology and the transport layer.
type Config struct {
	// BindAddr is the host:port the HTTP server listens on.
	BindAddr string `koanf:"bind_addr"`
	// WSPath is the HTTP path the WebSocket upgrade is served from.
	WSPath string `koanf:"ws_path"`

	// PersistDebounce is the debounce window before a dirty document is
	// snapshotted and handed to the persistence hooks (default 2s).
	PersistDebounce time.Duration `koanf:"persist_debounce"`
	// PersistMaxBackoff is the ceiling on the exponential backoff between
	// persistence retries after a failure.
	PersistMaxBackoff time.Duration `koanf:"persist_max_backoff"`
	// IdleTimeout is how long a zero-subscriber Clean document waits
	// before eviction (default 30s).
	IdleTimeout time.Duration `koanf:"idle_timeout"`

	// MailboxCapacity bounds every actor's mailbox channel so a hostile
	// or stalled client can't grow it without bound.
	MailboxCapacity int `koanf:"mailbox_capacity"`
	// SubscriberSendTimeout is the per-subscriber send deadline:
	// exceeding it while broadcasting disconnects that subscriber rather
	// than stalling the Document.
	SubscriberSendTimeout time.Duration `koanf:"subscriber_send_timeout"`

	// DataDir is where the optional filesystem persistence hook
	// (package storage) stores document blobs, when enabled.
	DataDir string `koanf:"data_dir"`
	// EnableFileStorage turns on the bundled filesystem persistence hook.
	EnableFileStorage bool `koanf:"enable_file_storage"`
}

func defaults() Config {
	return Config{
		BindAddr:              ":8080",
		WSPath:                "/ws",
		PersistDebounce:       2 * time.Second,
		PersistMaxBackoff:     time.Minute,
		IdleTimeout:           30 * time.Second,
		MailboxCapacity:       256,
		SubscriberSendTimeout: 5 * time.Second,
		DataDir:               "./data",
		EnableFileStorage:     false,
	}
}

// Load resolves the configuration by layering, in increasing priority:
// built-in defaults, an optional YAML file at path (skipped if path is
// empty; a path that cannot be read is an error), and
// SIPHONOPHORE_-prefixed environment variables.
func Load(path string) (Config, error) {
	k := koanf.New(".")
	d := defaults()

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"bind_addr":               d.BindAddr,
		"ws_path":                 d.WSPath,
		"persist_debounce":        d.PersistDebounce.String(),
		"persist_max_backoff":     d.PersistMaxBackoff.String(),
		"idle_timeout":            d.IdleTimeout.String(),
		"mailbox_capacity":        d.MailboxCapacity,
		"subscriber_send_timeout": d.SubscriberSendTimeout.String(),
		"data_dir":                d.DataDir,
		"enable_file_storage":     d.EnableFileStorage,
	}, "."), nil); err != nil {
		return Config{}, fmt.Errorf("config: load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("config: load file %q: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("SIPHONOPHORE_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "SIPHONOPHORE_"))
	}), nil); err != nil {
		return Config{}, fmt.Errorf("config: load env: %w", err)
	}

	cfg := d
	cfg.BindAddr = k.String("bind_addr")
	cfg.WSPath = k.String("ws_path")
	cfg.DataDir = k.String("data_dir")
	cfg.EnableFileStorage = k.Bool("enable_file_storage")
	cfg.MailboxCapacity = k.Int("mailbox_capacity")

	var err error
	if cfg.PersistDebounce, err = time.ParseDuration(k.String("persist_debounce")); err != nil {
		return Config{}, fmt.Errorf("config: persist_debounce: %w", err)
	}
	if cfg.PersistMaxBackoff, err = time.ParseDuration(k.String("persist_max_backoff")); err != nil {
		return Config{}, fmt.Errorf("config: persist_max_backoff: %w", err)
	}
	if cfg.IdleTimeout, err = time.ParseDuration(k.String("idle_timeout")); err != nil {
		return Config{}, fmt.Errorf("config: idle_timeout: %w", err)
	}
	if cfg.SubscriberSendTimeout, err = time.ParseDuration(k.String("subscriber_send_timeout")); err != nil {
		return Config{}, fmt.Errorf("config: subscriber_send_timeout: %w", err)
	}

	return cfg, nil
}

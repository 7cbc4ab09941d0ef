// Package config loads provstore settings from a YAML file and checks them
// against an embedded CUE schema.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaSource string

// DefaultFile is the config file the CLI looks for when --config is not
// given.
const DefaultFile = "provstore.yaml"

// Config is the complete provstore configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" json:"store"`
	Admin   string        `yaml:"admin" json:"admin,omitempty"`
	IDs     IDConfig      `yaml:"ids" json:"ids"`
	Publish PublishConfig `yaml:"publish" json:"publish"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
	Log     LogConfig     `yaml:"log" json:"log"`
}

// StoreConfig selects the SQLite database and driver.
type StoreConfig struct {
	Path string `yaml:"path" json:"path"`
	// Driver is "sqlite3" (cgo) or "sqlite" (pure Go).
	Driver string `yaml:"driver" json:"driver"`
}

// IDConfig configures the identifier supplier.
type IDConfig struct {
	Prefix string `yaml:"prefix" json:"prefix"`
}

// PublishConfig configures event publishing. An empty NATS URL disables it.
type PublishConfig struct {
	NATS NATSConfig `yaml:"nats" json:"nats"`
}

// NATSConfig holds NATS connection settings.
type NATSConfig struct {
	URL           string        `yaml:"url" json:"url"`
	SubjectPrefix string        `yaml:"subject_prefix" json:"subject_prefix"`
	Name          string        `yaml:"name" json:"name"`
	Timeout       time.Duration `yaml:"timeout" json:"timeout"`
}

// Enabled reports whether a NATS URL is configured.
func (n NATSConfig) Enabled() bool { return n.URL != "" }

// MetricsConfig toggles operation metrics.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// LogConfig sets the slog level and handler.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Path:   "provstore.db",
			Driver: "sqlite3",
		},
		IDs: IDConfig{Prefix: "urn:uuid:"},
		Publish: PublishConfig{NATS: NATSConfig{
			SubjectPrefix: "provstore.events",
			Name:          "provstore",
			Timeout:       2 * time.Second,
		}},
		Metrics: MetricsConfig{Enabled: true},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads the YAML file at path over the defaults and validates the
// result. Unknown keys are rejected. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := cfg.decode(data); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ValidationError reports a config value the schema rejects.
type ValidationError struct {
	Path    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return "invalid config: " + e.Message
	}
	return fmt.Sprintf("invalid config: %s: %s", e.Path, e.Message)
}

// Validate checks c against the embedded schema.
func (c *Config) Validate() error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	v := ctx.Encode(c)
	if err := v.Err(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := def.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return schemaError(err)
	}
	return nil
}

func schemaError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &ValidationError{Message: err.Error()}
	}
	first := errs[0]
	format, args := first.Msg()
	path := ""
	if p := first.Path(); len(p) > 0 {
		path = cue.MakePath(selectors(p)...).String()
	}
	return &ValidationError{Path: path, Message: fmt.Sprintf(format, args...)}
}

func selectors(path []string) []cue.Selector {
	out := make([]cue.Selector, 0, len(path))
	for _, p := range path {
		if p == "#Config" {
			continue
		}
		out = append(out, cue.Str(p))
	}
	return out
}

// SlogLevel returns the configured slog level.
func (l LogConfig) SlogLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the logger described by l, writing to w.
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: l.SlogLevel()}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

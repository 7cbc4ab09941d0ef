package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/provstore/internal/config"
	"github.com/roach88/provstore/internal/metrics"
	"github.com/roach88/provstore/internal/publish"
	"github.com/roach88/provstore/internal/rdf"
	"github.com/roach88/provstore/internal/store"
	"github.com/roach88/provstore/internal/versioning"
)

// session is the store and service behind one command invocation.
type session struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *store.Store
	publisher publish.Publisher
	metrics   *metrics.MetricsCollector
	svc       *versioning.Service
}

// loadConfig reads the config file named by --config, or provstore.yaml
// when it exists, and applies the flag overrides.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	path := opts.Config
	if path == "" {
		if _, err := os.Stat(config.DefaultFile); err == nil {
			path = config.DefaultFile
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("stat %s: %w", config.DefaultFile, err)
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if opts.Database != "" {
		cfg.Store.Path = opts.Database
	}
	if opts.Driver != "" {
		cfg.Store.Driver = opts.Driver
	}
	if opts.Verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, cfg.Validate()
}

// openSession loads the configuration and opens the store, publisher and
// versioning service. Logs go to stderr so they never mix with command
// output.
func openSession(cmd *cobra.Command, opts *RootOptions) (*session, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}

	logger := cfg.Log.NewLogger(cmd.ErrOrStderr())
	slog.SetDefault(logger)

	logger.Debug("opening database", "path", cfg.Store.Path, "driver", cfg.Store.Driver)
	st, err := store.Open(cfg.Store.Path,
		store.WithDriver(cfg.Store.Driver),
		store.WithLogger(logger),
	)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	s := &session{
		cfg:       cfg,
		logger:    logger,
		store:     st,
		publisher: publish.Noop{},
	}

	if nats := cfg.Publish.NATS; nats.Enabled() {
		p, err := publish.ConnectNATS(publish.NATSOptions{
			URL:           nats.URL,
			SubjectPrefix: nats.SubjectPrefix,
			Name:          nats.Name,
			Timeout:       nats.Timeout,
		})
		if err != nil {
			// Events are still committed; only the mirror is lost.
			logger.Warn("event publishing disabled", "url", nats.URL, "error", err)
		} else {
			s.publisher = p
		}
	}

	svcOpts := []versioning.Option{
		versioning.WithLogger(logger),
		versioning.WithPublisher(s.publisher),
	}
	if cfg.Admin != "" {
		svcOpts = append(svcOpts, versioning.WithAdmin(rdf.IRI(cfg.Admin)))
	}
	if cfg.Metrics.Enabled {
		s.metrics = metrics.NewCollector()
		svcOpts = append(svcOpts, versioning.WithMetrics(s.metrics))
	}

	svc, err := versioning.New(st, versioning.UUIDv7Supplier{Prefix: cfg.IDs.Prefix}, svcOpts...)
	if err != nil {
		s.Close()
		return nil, WrapExitError(ExitCommandError, "failed to create versioning service", err)
	}
	s.svc = svc
	return s, nil
}

// Close logs the collected operation metrics at debug level and
// releases the publisher and the store.
func (s *session) Close() {
	if s.metrics != nil {
		s.logMetrics()
	}
	if err := s.publisher.Close(); err != nil {
		s.logger.Error("error closing publisher", "error", err)
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error("error closing database", "error", err)
	}
}

// commandContext returns the command's context, or Background when the command
// runs without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func (s *session) logMetrics() {
	families, err := s.metrics.Registry().Gather()
	if err != nil {
		s.logger.Debug("failed to gather metrics", "error", err)
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			attrs := []any{"metric", mf.GetName()}
			for _, l := range m.GetLabel() {
				attrs = append(attrs, l.GetName(), l.GetValue())
			}
			switch {
			case m.GetCounter() != nil:
				attrs = append(attrs, "value", m.GetCounter().GetValue())
			case m.GetGauge() != nil:
				attrs = append(attrs, "value", m.GetGauge().GetValue())
			case m.GetHistogram() != nil:
				attrs = append(attrs, "count", m.GetHistogram().GetSampleCount())
			}
			s.logger.Debug("metric", attrs...)
		}
	}
}

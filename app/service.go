package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/chargeboard/api/web"
	"github.com/kilianp07/chargeboard/config"
	coreagent "github.com/kilianp07/chargeboard/core/agent"
	"github.com/kilianp07/chargeboard/core/dashboard"
	"github.com/kilianp07/chargeboard/core/journal"
	coremetrics "github.com/kilianp07/chargeboard/core/metrics"
	coremon "github.com/kilianp07/chargeboard/core/monitoring"
	"github.com/kilianp07/chargeboard/core/whatif"
	"github.com/kilianp07/chargeboard/infra/agent"
	"github.com/kilianp07/chargeboard/infra/logger"
	_ "github.com/kilianp07/chargeboard/infra/metrics" // registers prometheus and influx sinks
	"github.com/kilianp07/chargeboard/infra/monitoring"
	"github.com/kilianp07/chargeboard/infra/mqtt"
)

// Service wires the operator session to the agent, the journal, the metrics
// sinks and the optional MQTT notifier.
type Service struct {
	Session *dashboard.Session

	cfg      *config.Config
	log      logger.Logger
	journal  journal.Store
	sink     coremetrics.MetricsSink
	gatherer prometheus.Gatherer
	notifier *mqtt.Notifier
}

// New creates a Service from the configuration. The MQTT broker is
// connected here when one is configured.
func New(cfg *config.Config) (*Service, error) {
	if err := logger.SetLevel(cfg.Logging.Level); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	logg := logger.New("service")

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	store, err := journal.Open(cfg.Journal)
	if err != nil {
		coremetrics.Close(sink)
		return nil, fmt.Errorf("journal: %w", err)
	}

	client := coreagent.NewInstrumented(agent.NewHTTPClient(cfg.Agent, nil), sink, logger.New("agent"))
	session := dashboard.New(client, dashboard.Options{
		Logger:  logger.New("dashboard"),
		Metrics: sink,
		Journal: store,
		Defaults: whatif.Defaults{
			SitePeakDepot: cfg.Dashboard.SitePeakDepot,
			BlackoutDepot: cfg.Dashboard.BlackoutDepot,
		},
	})

	svc := &Service{Session: session, cfg: cfg, log: logg, journal: store, sink: sink}
	for _, s := range cfg.Metrics.Sinks {
		if s.Type == "prometheus" {
			svc.gatherer = prometheus.DefaultGatherer
		}
	}
	if cfg.MQTT.Enabled() {
		n, err := mqtt.NewNotifier(cfg.MQTT, session)
		if err != nil {
			coremetrics.Close(sink)
			_ = store.Close()
			return nil, fmt.Errorf("mqtt notifier: %w", err)
		}
		svc.notifier = n
	}
	return svc, nil
}

// Config returns the configuration the service was built with.
func (s *Service) Config() *config.Config { return s.cfg }

// Handler returns the dashboard HTTP handler.
func (s *Service) Handler() http.Handler {
	opts := web.Options{
		Logger:          logger.New("http"),
		Gatherer:        s.gatherer,
		HeatmapScale:    s.cfg.Dashboard.HeatmapScale,
		PreviewVehicles: s.cfg.Dashboard.PreviewVehicles,
		PreviewHours:    s.cfg.Dashboard.PreviewHours,
	}
	if s.cfg.HTTP.AccessLog {
		opts.AccessLog = os.Stdout
	}
	return web.Handler(s.Session, opts)
}

// Run listens on the configured address and blocks until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.HTTP.Address)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.HTTP.Address, err)
	}
	return s.Serve(ctx, ln)
}

// Serve runs the HTTP server on ln, the initial status load and the MQTT
// notifier until ctx is cancelled.
func (s *Service) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.Infof("dashboard listening on %s", ln.Addr())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), time.Duration(s.cfg.HTTP.ShutdownTimeoutSeconds)*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	g.Go(func() error {
		out := s.Session.Init(ctx).Wait()
		if !out.OK() {
			s.log.Warnf("initial status load failed: %v", out.Err)
		}
		return nil
	})
	if s.notifier != nil {
		g.Go(func() error {
			s.notifier.Run(ctx, s.Session.Bus())
			return nil
		})
	}
	return g.Wait()
}

// Close releases the notifier, the journal and the sinks that hold
// connections.
func (s *Service) Close() error {
	if s.notifier != nil {
		s.notifier.Close()
	}
	coremetrics.Close(s.sink)
	coremon.Flush(2 * time.Second)
	return s.journal.Close()
}

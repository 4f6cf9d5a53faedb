package cli

import (
	"context"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/turtacn/ibocheck/internal/application/analysis"
	"github.com/turtacn/ibocheck/internal/config"
	"github.com/turtacn/ibocheck/internal/infrastructure/monitoring/logging"
	httpapi "github.com/turtacn/ibocheck/internal/interfaces/http"
	"github.com/turtacn/ibocheck/internal/interfaces/http/handlers"
)

// liveState pairs a configuration with the service built from it.
type liveState struct {
	cfg *config.Config
	svc analysis.Service
}

// liveProvider serves the current state and swaps it on config reload.
type liveProvider struct {
	state   atomic.Pointer[liveState]
	metrics analysis.Metrics
	logger  logging.Logger
}

func newLiveProvider(cfg *config.Config, metrics analysis.Metrics, logger logging.Logger) *liveProvider {
	p := &liveProvider{metrics: metrics, logger: logger}
	p.store(cfg)
	return p
}

func (p *liveProvider) store(cfg *config.Config) {
	p.state.Store(&liveState{cfg: cfg, svc: analysis.NewService(*cfg, nil, p.metrics, p.logger)})
}

func (p *liveProvider) Config() *config.Config     { return p.state.Load().cfg }
func (p *liveProvider) Analysis() analysis.Service { return p.state.Load().svc }

// Name and Check make the provider the readiness probe for the MINAO file
// of the current configuration.
func (p *liveProvider) Name() string { return "minao" }

func (p *liveProvider) Check(ctx context.Context) error {
	return handlers.FileChecker{Label: p.Name(), Path: p.Config().Basis.MinaoPath}.Check(ctx)
}

// reload installs cfg.  Server settings only take effect on restart.
func (p *liveProvider) reload(cfg *config.Config) {
	p.store(cfg)
	p.logger.Info("Configuration reloaded",
		logging.Path(cfg.Basis.MinaoPath),
		logging.Float64("core_cutoff", cfg.Classifier.CoreCutoff),
		logging.Float64("rydberg_energy_cutoff", cfg.Classifier.RydbergEnergyCutoff))
}

// NewServeCmd runs the HTTP API until interrupted.
func NewServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve MINAO lookups and orbital classification over HTTP",
		Long: "Starts the HTTP API (/healthz, /readyz, /api/v1/minao/:element,\n" +
			"/api/v1/classify and, with metrics.enabled, /metrics).  When started with a\n" +
			"config file, edits to it are picked up without a restart.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			cfg := cliCtx.Config
			serverCfg := cfg.Server
			if cmd.Flags().Changed("port") {
				serverCfg.Port = port
			}

			logger := cliCtx.Logger.Named("http")
			live := newLiveProvider(cfg, cliCtx.Metrics, logger)
			if cliCtx.ConfigPath != "" {
				err := config.Watch(cliCtx.ConfigPath, live.reload, func(err error) {
					logger.Warn("Ignoring invalid configuration change", logging.Err(err))
				})
				if err != nil {
					return err
				}
			}

			gin.SetMode(serverCfg.Mode)
			rc := httpapi.RouterConfig{
				HealthHandler:   handlers.NewHealthHandler(Version, live),
				MinaoHandler:    handlers.NewMinaoHandler(live),
				ClassifyHandler: handlers.NewClassifyHandler(live),
				Logger:          logger,
				Recorder:        cliCtx.Metrics,
			}
			if cfg.Metrics.Enabled {
				rc.MetricsHandler = cliCtx.Collector.Handler()
			}
			server := httpapi.NewServer(serverCfg, httpapi.NewRouter(rc), logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- server.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			return server.Stop(context.Background())
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (default: server.port)")
	return cmd
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/donaldgifford/pos-inventory-dashboard/api/openapi"
	"github.com/donaldgifford/pos-inventory-dashboard/internal/api/handlers"
	mw "github.com/donaldgifford/pos-inventory-dashboard/internal/api/middleware"
	"github.com/donaldgifford/pos-inventory-dashboard/internal/config"
	"github.com/donaldgifford/pos-inventory-dashboard/internal/engine"
	"github.com/donaldgifford/pos-inventory-dashboard/internal/tracing"
	"github.com/donaldgifford/pos-inventory-dashboard/pkg/logger"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server and scheduler",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.Setup(ctx, tracing.Config{
		Enabled:        cfg.Tracing.Enabled,
		Endpoint:       cfg.Tracing.Endpoint,
		Insecure:       cfg.Tracing.Insecure,
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: Version,
		SampleRatio:    cfg.Tracing.SampleRatio,
	})
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	if cfg.Schedule.LoadOnStart {
		go func() {
			if _, err := a.engine.Reload(ctx); err != nil && !errors.Is(err, engine.ErrNoCredentials) {
				log.Error("initial inventory load failed", "error", err)
			}
		}()
	}

	var sched *engine.Scheduler
	if cfg.Schedule.ReloadInterval > 0 {
		sched, err = engine.NewScheduler(a.engine, cfg.Schedule.ReloadInterval, logger.Component(log, "scheduler"))
		if err != nil {
			return fmt.Errorf("creating scheduler: %w", err)
		}
		sched.Start()
	}

	e := newServer(a)
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("starting server", "addr", addr, "store", cfg.Store.Backend, "oauth", cfg.Lightspeed.OAuth.Enabled())

	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			log.Error("server error", "error", err)
		}
	}

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if sched != nil {
		select {
		case <-sched.Stop().Done():
		case <-shutdownCtx.Done():
			log.Warn("scheduled reload still running at shutdown")
		}
	}

	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Warn("flushing traces", "error", err)
	}

	log.Info("server stopped")
	return nil
}

// newServer builds the Echo server with middleware, probes, metrics, the
// Huma API routes and the Swagger UI.
func newServer(a *app) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(mw.RequestLog(logger.Component(a.log, "http")))
	e.Use(mw.Tracing())
	e.Use(mw.Metrics())
	e.Use(mw.Recovery(a.log))

	var health *handlers.HealthHandler
	if a.redis != nil {
		health = handlers.NewHealthHandler(a.redis)
	} else {
		health = handlers.NewHealthHandler()
	}
	health.Register(e)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := humaecho.New(e, huma.DefaultConfig("POS Inventory Dashboard", Version))
	handlers.RegisterInventoryRoutes(api, handlers.NewInventoryHandler(a.engine))
	handlers.RegisterCredentialRoutes(api, handlers.NewCredentialsHandler(a.engine))
	handlers.RegisterAuthRoutes(api, handlers.NewAuthHandler(a.engine))
	openapi.RegisterRoutes(e, api)

	return e
}

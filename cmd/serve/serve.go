// Package serve implements the server subcommand: the full engine with
// database, notifications, metrics and the HTTP API.
package serve

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"github.com/pkallio/photoguard-go/internal/api"
	"github.com/pkallio/photoguard-go/internal/conf"
	"github.com/pkallio/photoguard-go/internal/credits"
	"github.com/pkallio/photoguard-go/internal/datastore"
	"github.com/pkallio/photoguard-go/internal/logging"
	"github.com/pkallio/photoguard-go/internal/moderation"
	"github.com/pkallio/photoguard-go/internal/notification"
	"github.com/pkallio/photoguard-go/internal/observability"
	"github.com/pkallio/photoguard-go/internal/review"
)

const shutdownTimeout = 10 * time.Second

// Command creates the serve command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the moderation engine as a server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(settings)
		},
	}
	cmd.PersistentFlags().StringVar(&settings.WebServer.Port, "port", settings.WebServer.Port, "Port to listen on")
	return cmd
}

func runServer(settings *conf.Settings) error {
	log := logging.ForService("serve")

	metrics, err := observability.NewMetrics()
	if err != nil {
		return err
	}

	store, err := datastore.New(settings)
	if err != nil {
		return err
	}
	if err := store.Open(); err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("closing datastore", "error", err)
		}
	}()

	notifier, err := notification.NewService(&settings.Notification)
	if err != nil {
		return err
	}

	orchestrator, err := moderation.New(settings, metrics.Moderation)
	if err != nil {
		return err
	}

	images, err := review.NewDiskImageStore(settings.Main.ImageDir)
	if err != nil {
		return err
	}

	reconciler := credits.NewReconciler(metrics.Credits, notifier)
	reviewService := review.NewService(store, orchestrator, reconciler, images, metrics.Moderation)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestID())
	api.New(e, settings, store, reviewService, metrics, nil)

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + settings.WebServer.Port
		log.Info("starting server", "addr", addr, "node", settings.Main.Name)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(ctx)
}

// Package api exposes the moderation engine over HTTP for the contest
// backend and the moderator UI.
package api

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/pkallio/photoguard-go/internal/conf"
	"github.com/pkallio/photoguard-go/internal/datastore"
	"github.com/pkallio/photoguard-go/internal/errors"
	"github.com/pkallio/photoguard-go/internal/logging"
	"github.com/pkallio/photoguard-go/internal/observability"
	"github.com/pkallio/photoguard-go/internal/review"
)

// moderatorContextKey is set by the auth middleware with the authenticated
// moderator identity.
const moderatorContextKey = "moderator"

// Controller manages the API routes and handlers.
type Controller struct {
	Echo     *echo.Echo
	Group    *echo.Group
	Settings *conf.Settings
	DS       datastore.Interface
	Review   *review.Service
	Metrics  *observability.Metrics // may be nil

	log *slog.Logger
}

// New creates a controller and registers all routes on e. The auth
// middleware guards the moderation endpoints; pass nil to leave them open
// (tests, trusted networks).
func New(e *echo.Echo, settings *conf.Settings, ds datastore.Interface,
	reviewService *review.Service, m *observability.Metrics, auth echo.MiddlewareFunc) *Controller {

	c := &Controller{
		Echo:     e,
		Settings: settings,
		DS:       ds,
		Review:   reviewService,
		Metrics:  m,
		log:      logging.ForService("api"),
	}

	c.Group = e.Group("/api/v1")
	c.Group.Use(middleware.Recover())
	if auth != nil {
		c.Group.Use(auth)
	}
	c.initRoutes()

	e.GET("/healthz", c.Health)
	if m != nil {
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}
	return c
}

func (c *Controller) initRoutes() {
	c.Group.POST("/entries", c.SubmitEntry)
	c.Group.GET("/entries", c.ListEntries)
	c.Group.GET("/entries/:id", c.GetEntry)
	c.Group.POST("/entries/:id/moderate", c.ModerateEntry)
	c.Group.POST("/entries/:id/reanalyze", c.ReanalyzeEntry)
}

// Health reports service liveness.
func (c *Controller) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// moderator resolves the acting moderator identity: the auth middleware's
// context value wins, the X-Moderator header is the fallback.
func (c *Controller) moderator(ctx echo.Context) string {
	if v, ok := ctx.Get(moderatorContextKey).(string); ok && v != "" {
		return v
	}
	return ctx.Request().Header.Get("X-Moderator")
}

// handleError maps engine errors onto HTTP status codes.
func (c *Controller) handleError(ctx echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.IsNotFound(err):
		status = http.StatusNotFound
	case errors.IsCategory(err, errors.CategoryValidation),
		errors.IsCategory(err, errors.CategoryImageInput):
		status = http.StatusBadRequest
	case errors.IsCategory(err, errors.CategoryConfiguration):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		c.log.Error("request failed", "path", ctx.Path(), "error", err)
	}
	return ctx.JSON(status, map[string]string{"error": err.Error()})
}

// Package api serves the pantry over a JSON HTTP API built on echo.
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// apiPrefix is the path prefix of every versioned route.
const apiPrefix = "/api/v1"

// Controller holds the handlers' dependencies.
type Controller struct {
	Echo     *echo.Echo
	Group    *echo.Group
	pantry   types.Pantry
	logger   *zap.Logger
	gatherer prometheus.Gatherer
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger used for error responses.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithGatherer exposes g on GET /metrics. Without it the route is not
// registered.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(c *Controller) { c.gatherer = g }
}

// New creates a controller for pantry and registers its routes on e.
// The pantry must already be attached.
func New(e *echo.Echo, pantry types.Pantry, opts ...Option) *Controller {
	c := &Controller{
		Echo:   e,
		pantry: pantry,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Group = e.Group(apiPrefix)
	c.initRoutes()
	return c
}

func (c *Controller) initRoutes() {
	c.Echo.GET("/healthz", c.HealthCheck)
	if c.gatherer != nil {
		c.Echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})))
	}

	c.Group.GET("/noodles", c.ListNoodles)
	c.Group.POST("/noodles", c.CreateNoodle)
	c.Group.GET("/noodles/:id", c.GetNoodle)
	c.Group.PATCH("/noodles/:id", c.UpdateNoodle)
	c.Group.DELETE("/noodles/:id", c.DeleteNoodle)
	c.Group.POST("/noodles/:id/reviews", c.LeaveReview)

	c.Group.GET("/categories", c.ListCategories)
	c.Group.POST("/categories", c.CreateCategory)
	c.Group.GET("/categories/:id", c.GetCategory)
	c.Group.PATCH("/categories/:id", c.UpdateCategory)
	c.Group.DELETE("/categories/:id", c.DeleteCategory)

	c.Group.GET("/favourites", c.ListFavourites)
	c.Group.PUT("/favourites/:id", c.AddFavourite)
	c.Group.DELETE("/favourites/:id", c.RemoveFavourite)

	c.Group.GET("/countries", c.ListCountries)
}

// HealthCheck reports that the server is up.
func (c *Controller) HealthCheck(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// ListCountries returns the origin countries with their display labels.
func (c *Controller) ListCountries(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, types.Countries)
}

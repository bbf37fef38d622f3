// Package server exposes dialogue sessions over HTTP. Every session is
// independent; turns for one session are serialized by the engine.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/hammamikhairi/souschef/internal/domain"
	"github.com/hammamikhairi/souschef/internal/engine"
	"github.com/hammamikhairi/souschef/internal/learning"
	"github.com/hammamikhairi/souschef/internal/logger"
	"github.com/hammamikhairi/souschef/internal/recipe"
)

// Server is the session HTTP API.
type Server struct {
	eng  *engine.Engine
	log  *logger.Logger
	echo *echo.Echo
}

// New builds the router.
func New(eng *engine.Engine, log *logger.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Debug("http %s %s -> %d (%s)", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))

	s := &Server{eng: eng, log: log, echo: e}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.echo.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	s.echo.GET("/recipes", s.listRecipes)
	s.echo.GET("/sessions", s.listSessions)
	s.echo.POST("/sessions", s.startSession)
	s.echo.GET("/sessions/:id", s.getSession)
	s.echo.DELETE("/sessions/:id", s.endSession)
	s.echo.POST("/sessions/:id/turns", s.turn)
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.echo }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("listening on %s", addr)
		if err := s.echo.Start(addr); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		s.log.Info("shutting down http server")
		return s.echo.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

type startRequest struct {
	RecipeID string          `json:"recipe_id"`
	Recipe   json.RawMessage `json:"recipe"`
	UserID   string          `json:"user_id"`
}

type startResponse struct {
	ID         string `json:"id"`
	RecipeName string `json:"recipe_name"`
	Step       int    `json:"step"`
	TotalSteps int    `json:"total_steps"`
	Reply      string `json:"reply"`
}

type turnRequest struct {
	Text string `json:"text"`
}

type turnResponse struct {
	Intent      domain.IntentType `json:"intent"`
	Confidence  float64           `json:"confidence"`
	Reply       string            `json:"reply"`
	Urgent      bool              `json:"urgent"`
	Step        int               `json:"step"`
	TotalSteps  int               `json:"total_steps"`
	Completed   bool              `json:"completed"`
	Interrupted bool              `json:"interrupted"`
	Ended       bool              `json:"ended"`
}

type statusResponse struct {
	engine.Progress
	Learning learning.Summary `json:"learning"`
}

func (s *Server) listRecipes(c echo.Context) error {
	list, err := s.eng.ListRecipes(c.Request().Context())
	if err != nil {
		return s.fail(err)
	}
	return c.JSON(http.StatusOK, list)
}

func (s *Server) listSessions(c echo.Context) error {
	list, err := s.eng.ActiveSessions(c.Request().Context())
	if err != nil {
		return s.fail(err)
	}
	return c.JSON(http.StatusOK, list)
}

func (s *Server) startSession(c echo.Context) error {
	var req startRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body")
	}
	ctx := c.Request().Context()
	opts := engine.StartOptions{UserID: req.UserID}

	var (
		g   *engine.Greeting
		err error
	)
	switch {
	case len(req.Recipe) > 0:
		r, perr := recipe.Parse(req.Recipe)
		if perr != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "bad recipe: "+perr.Error())
		}
		g, err = s.eng.Start(ctx, r, opts)
	case req.RecipeID != "":
		g, err = s.eng.StartRecipe(ctx, req.RecipeID, opts)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "recipe_id or recipe is required")
	}
	if err != nil {
		return s.fail(err)
	}

	p := engine.ProgressOf(g.Session)
	return c.JSON(http.StatusCreated, startResponse{
		ID:         g.Session.ID,
		RecipeName: p.RecipeName,
		Step:       p.Step,
		TotalSteps: p.TotalSteps,
		Reply:      g.Reply,
	})
}

func (s *Server) turn(c echo.Context) error {
	var req turnRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body")
	}

	res, err := s.eng.Turn(c.Request().Context(), c.Param("id"), req.Text)
	if err != nil {
		return s.fail(err)
	}
	p := res.Progress
	return c.JSON(http.StatusOK, turnResponse{
		Intent:      res.Intent.Type,
		Confidence:  res.Intent.Confidence,
		Reply:       res.Reply,
		Urgent:      res.Urgent,
		Step:        p.Step,
		TotalSteps:  p.TotalSteps,
		Completed:   p.Completed,
		Interrupted: p.Interrupted,
		Ended:       p.Ended(),
	})
}

func (s *Server) getSession(c echo.Context) error {
	p, summary, err := s.eng.Status(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.fail(err)
	}
	return c.JSON(http.StatusOK, statusResponse{Progress: p, Learning: summary})
}

func (s *Server) endSession(c echo.Context) error {
	if err := s.eng.End(c.Request().Context(), c.Param("id")); err != nil {
		return s.fail(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// fail maps domain errors onto HTTP statuses.
func (s *Server) fail(err error) error {
	var loadErr *domain.RecipeLoadError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrEmptyUtterance), errors.As(err, &loadErr):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrSessionEnded):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	s.log.Error("http: %v", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}

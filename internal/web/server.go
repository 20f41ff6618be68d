// Package web serves the topic form and a small JSON API over the pipeline.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/abhisek/mcqflow/internal/pipeline"
	"github.com/abhisek/mcqflow/internal/sink"
	"github.com/abhisek/mcqflow/internal/store"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// DefaultRunTimeout bounds one pipeline run started from a request.
const DefaultRunTimeout = 5 * time.Minute

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context, topic string) (*pipeline.RunResult, error)
}

type Options struct {
	Runner Runner
	// Runs backs the /api/runs listing. Nil disables those routes.
	Runs       store.RunRepo
	Metrics    http.Handler
	RunTimeout time.Duration
	Logger     *log.Logger
}

type Server struct {
	echo   *echo.Echo
	opts   Options
	logger *log.Logger
}

func New(opts Options) (*Server, error) {
	if opts.Runner == nil {
		return nil, errors.New("web: runner is required")
	}
	if opts.RunTimeout <= 0 {
		opts.RunTimeout = DefaultRunTimeout
	}
	if opts.Logger == nil {
		opts.Logger = log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	}
	renderer, err := newRenderer()
	if err != nil {
		return nil, err
	}

	s := &Server{echo: echo.New(), opts: opts, logger: opts.Logger}
	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.HTTPErrorHandler = s.handleError
	e.Use(middleware.Recover())

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/", s.form)
	e.POST("/", s.submit)

	api := e.Group("/api")
	api.POST("/runs", s.createRun)
	if opts.Runs != nil {
		api.GET("/runs", s.listRuns)
		api.GET("/runs/:id", s.getRun)
	}
	if opts.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(opts.Metrics))
	}
	return s, nil
}

func (s *Server) Handler() http.Handler { return s.echo }

// Start blocks serving addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.logger.Printf("listening on %s", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleError(err error, c echo.Context) {
	code := http.StatusInternalServerError
	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
	}
	req := c.Request()
	s.logger.Printf("%d %s %s: %v", code, req.Method, req.URL.Path, err)
	if !c.Response().Committed {
		_ = c.JSON(code, map[string]string{"error": msg})
	}
}

func (s *Server) run(c echo.Context, topic string) (*pipeline.RunResult, error) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), s.opts.RunTimeout)
	defer cancel()
	return s.opts.Runner.Run(ctx, topic)
}

func (s *Server) form(c echo.Context) error {
	return c.Render(http.StatusOK, pageIndex, pageData{})
}

func (s *Server) submit(c echo.Context) error {
	topic := strings.TrimSpace(c.FormValue("topic"))
	if topic == "" {
		return c.Render(http.StatusBadRequest, pageIndex, pageData{Message: "Please enter a topic."})
	}

	result, err := s.run(c, topic)
	var callErr *pipeline.CallError
	switch {
	case errors.As(err, &callErr):
		return c.Render(http.StatusBadGateway, pageIndex, pageData{
			Topic:   topic,
			Message: fmt.Sprintf("The %s step failed: %v", callErr.Stage, callErr.Err),
		})
	case err != nil && result == nil:
		return err
	case err != nil:
		s.logger.Printf("run %s: %v", result.ID, err)
	}

	page, err := resultPage(topic, result)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, pageIndex, page)
}

type createRunRequest struct {
	Topic string `json:"topic"`
}

func (s *Server) createRun(c echo.Context) error {
	var req createRunRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body")
	}
	req.Topic = strings.TrimSpace(req.Topic)
	if req.Topic == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "topic is required")
	}

	result, err := s.run(c, req.Topic)
	var callErr *pipeline.CallError
	switch {
	case errors.As(err, &callErr):
		s.logger.Printf("run %q: %v", req.Topic, err)
		return c.JSON(http.StatusBadGateway, map[string]any{
			"error": callErr.Err.Error(),
			"stage": callErr.Stage,
			"index": callErr.Index,
		})
	case err != nil && result == nil:
		return err
	case err != nil:
		return c.JSON(http.StatusInternalServerError, map[string]any{
			"error":  err.Error(),
			"run_id": result.ID,
			"result": result,
		})
	case result.Failed():
		return c.JSON(http.StatusUnprocessableEntity, map[string]any{
			"error":  result.Error,
			"run_id": result.ID,
		})
	}
	return c.JSON(http.StatusCreated, result)
}

type runSummary struct {
	ID         string    `json:"id"`
	Sequence   int64     `json:"sequence"`
	Topic      string    `json:"topic"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	MCQCount   int       `json:"mcq_count"`
	ValidCount int       `json:"valid_count"`
	CreatedAt  time.Time `json:"created_at"`
}

type runDetail struct {
	runSummary
	Result json.RawMessage `json:"result"`
}

func summarize(rec store.RunRecord) runSummary {
	return runSummary{
		ID:         rec.ID,
		Sequence:   rec.Sequence,
		Topic:      rec.Topic,
		Status:     rec.Status,
		Error:      rec.Error,
		MCQCount:   rec.MCQCount,
		ValidCount: rec.ValidCount,
		CreatedAt:  rec.Timestamp,
	}
}

func (s *Server) listRuns(c echo.Context) error {
	limit := 20
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = n
	}

	recs, err := s.opts.Runs.ListRuns(c.Request().Context(), store.QueryOpts{Limit: limit})
	if err != nil {
		return err
	}
	out := make([]runSummary, 0, len(recs))
	for _, rec := range recs {
		out = append(out, summarize(rec))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) getRun(c echo.Context) error {
	id := c.Param("id")
	rec, err := s.opts.Runs.GetRun(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if rec == nil {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("run %s not found", id))
	}
	// Round-trip through the result type so the body matches the file sink.
	result, err := sink.Decode(rec)
	if err != nil {
		return err
	}
	body, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, runDetail{runSummary: summarize(*rec), Result: body})
}

package api

import (
	"context"
	"errors"
	"log/slog"
	"net"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/papercomputeco/semsearch/api/mcp"
	"github.com/papercomputeco/semsearch/pkg/metrics"
	"github.com/papercomputeco/semsearch/pkg/pipeline"
	"github.com/papercomputeco/semsearch/pkg/rank"
	"github.com/papercomputeco/semsearch/pkg/vector"
)

// Pipeline is the subset of *pipeline.Pipeline the server drives.
type Pipeline interface {
	Ingest(ctx context.Context, texts []string) (*pipeline.IngestResult, error)
	Query(ctx context.Context, text string, k int) ([]rank.Result, error)
	Documents(ctx context.Context) ([]vector.Document, error)
}

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server is the API server for searching and managing the document store
type Server struct {
	config   Config
	pipeline Pipeline
	logger   *slog.Logger
	app      *fiber.App
}

// NewServer creates a new API server around an existing pipeline.
func NewServer(config Config, p Pipeline, logger *slog.Logger) (*Server, error) {
	if p == nil {
		return nil, errors.New("pipeline is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			return c.Status(code).JSON(ErrorResponse{Error: err.Error()})
		},
	})

	s := &Server{
		config:   config,
		pipeline: p,
		logger:   logger,
		app:      app,
	}

	mcpServer, err := mcp.NewServer(mcp.Config{
		Searcher: p,
		Noop:     config.DisableMCP,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	metrics.Register()

	app.Get("/ping", s.handlePing)
	app.Get("/v1/search", s.handleSearchEndpoint)
	app.Get("/v1/documents", s.handleListDocuments)
	app.Put("/v1/documents", s.handleReplaceDocuments)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.All("/mcp", adaptor.HTTPHandler(mcpServer.Handler()))

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server", "listen", s.config.ListenAddr)
	return s.app.Listen(s.config.ListenAddr)
}

// Serve accepts connections on ln until Shutdown is called.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("starting API server", "listen", ln.Addr().String())
	return s.app.Listener(ln)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// statusFor maps pipeline errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, vector.ErrEmptyContent),
		errors.Is(err, vector.ErrDegenerateVector),
		errors.Is(err, vector.ErrDimensionMismatch),
		errors.Is(err, vector.ErrUnnormalizedInput),
		errors.Is(err, rank.ErrInvalidK):
		return fiber.StatusBadRequest
	case errors.Is(err, vector.ErrEmbedding):
		return fiber.StatusBadGateway
	case errors.Is(err, vector.ErrStorageUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// fail writes err with its mapped status and logs server-side failures.
func (s *Server) fail(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status >= fiber.StatusInternalServerError || status == fiber.StatusBadGateway {
		s.logger.Error("request failed", "path", c.Path(), "status", status, "error", err)
	}
	return c.Status(status).JSON(ErrorResponse{Error: err.Error()})
}

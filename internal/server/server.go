// Package server exposes the solver over HTTP.
//
//	POST /v1/solve   solve a problem, answer with the rounded result
//	GET  /healthz    liveness
//	GET  /metrics    Prometheus metrics
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/costela/simplex"
	"github.com/costela/simplex/internal/config"
	"github.com/costela/simplex/internal/metrics"
	"github.com/costela/simplex/render"
	"github.com/costela/simplex/tableau"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// registerValidations adds the config package's custom tags to gin's
// binding validator.
func registerValidations() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("sense", config.ValidateSense)
		}
	})
}

// SolveRequest is the body of POST /v1/solve.
type SolveRequest struct {
	Name        string              `json:"name"`
	Sense       string              `json:"sense"       binding:"required,sense"`
	Objective   string              `json:"objective"   binding:"required"`
	Constraints []ConstraintRequest `json:"constraints" binding:"dive"`
	Precision   int                 `json:"precision"   binding:"min=0,max=16"`
	Trace       bool                `json:"trace"`
}

type ConstraintRequest struct {
	Name string `json:"name"`
	Expr string `json:"expr" binding:"required"`
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error   string `json:"error"`
	Outcome string `json:"outcome,omitempty"`
}

// Server wires the solver endpoints into a gin engine.
type Server struct {
	engine  *gin.Engine
	logger  *slog.Logger
	metrics *metrics.Metrics
	solver  config.SolverConfig
}

// New builds the handler tree. solver supplies the iteration cap and
// tolerance applied to every request.
func New(logger *slog.Logger, m *metrics.Metrics, solver config.SolverConfig) *Server {
	registerValidations()

	s := &Server{
		engine:  gin.New(),
		logger:  logger,
		metrics: m,
		solver:  solver,
	}

	s.engine.Use(recovery(logger), requestLogger(logger), requestMetrics(m))

	s.engine.GET("/healthz", s.healthz)
	s.engine.GET("/metrics", gin.WrapH(m.Handler()))
	s.engine.POST("/v1/solve", s.solve)

	return s
}

// Handler returns the gin engine.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) solve(c *gin.Context) {
	var req SolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.metrics.ObserveSolve(req.Sense, 0, err)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Outcome: metrics.OutcomeInvalid})
		return
	}

	problem := config.Problem{
		Name:      req.Name,
		Sense:     req.Sense,
		Objective: req.Objective,
		Solver:    s.solver,
	}
	for _, con := range req.Constraints {
		problem.Constraints = append(problem.Constraints, config.Constraint{Name: con.Name, Expr: con.Expr})
	}

	model, err := problem.Model(simplex.WithLogger(s.logger))
	if err != nil {
		s.metrics.ObserveSolve(req.Sense, 0, err)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Outcome: metrics.OutcomeInvalid})
		return
	}

	res, err := model.SolveWithContext(c.Request.Context())
	if err != nil {
		outcome := metrics.Outcome(err)
		s.metrics.ObserveSolve(model.Direction().String(), 0, err)
		c.JSON(statusFor(err), ErrorResponse{Error: err.Error(), Outcome: outcome})
		return
	}
	s.metrics.ObserveSolve(model.Direction().String(), res.Iterations(), nil)

	view, err := render.NewResultView(req.Name, res, req.Trace, render.Options{Precision: req.Precision})
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, view)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, tableau.ErrUnbounded), errors.Is(err, tableau.ErrIterationLimit):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("starting HTTP server", "addr", addr)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server stopping")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

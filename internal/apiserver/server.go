// Package apiserver exposes the triage workflow over HTTP: the /v1/triage
// endpoint plus health, readiness and metrics.
package apiserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/moolen/kairos/internal/logging"
	"github.com/moolen/kairos/internal/triage/model"
	"github.com/moolen/kairos/internal/triage/workflow"
)

// requestTimeout bounds one triage run end to end.
const requestTimeout = 5 * time.Minute

// ReadinessChecker reports whether the service can accept triage requests.
type ReadinessChecker interface {
	IsReady() bool
}

// NoOpReadinessChecker always reports ready.
type NoOpReadinessChecker struct{}

func (n *NoOpReadinessChecker) IsReady() bool { return true }

// Server handles HTTP API requests.
type Server struct {
	port             int
	server           *http.Server
	logger           *logging.Logger
	engine           *workflow.Engine
	router           *http.ServeMux
	readinessChecker ReadinessChecker
	mcpServer        *server.MCPServer
}

// New creates an API server around a workflow engine. mcpServer is optional;
// when set, it is exposed at /v1/mcp over streamable HTTP.
func New(port int, engine *workflow.Engine, readinessChecker ReadinessChecker, mcpServer *server.MCPServer) *Server {
	if readinessChecker == nil {
		readinessChecker = &NoOpReadinessChecker{}
	}
	s := &Server{
		port:             port,
		logger:           logging.GetLogger("api"),
		engine:           engine,
		router:           http.NewServeMux(),
		readinessChecker: readinessChecker,
		mcpServer:        mcpServer,
	}
	s.registerHandlers()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.requestMiddleware(s.router),
		ReadTimeout:  time.Minute,
		WriteTimeout: requestTimeout + time.Minute,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) registerHandlers() {
	s.router.HandleFunc("/v1/triage", s.withMethod(http.MethodPost, s.handleTriage))
	s.router.HandleFunc("/health", s.handleHealth)
	s.router.HandleFunc("/ready", s.handleReady)
	s.router.Handle("/metrics", promhttp.Handler())

	if s.mcpServer != nil {
		endpointPath := "/v1/mcp"
		streamableServer := server.NewStreamableHTTPServer(
			s.mcpServer,
			server.WithEndpointPath(endpointPath),
			server.WithStateLess(true),
		)
		s.router.Handle(endpointPath, streamableServer)
		s.logger.Info("MCP endpoint registered at %s", endpointPath)
	}
}

// TriageRequest is the /v1/triage request body.
type TriageRequest struct {
	Prompt  string            `json:"prompt"`
	Context map[string]string `json:"context,omitempty"`
}

// TriageResponse is the /v1/triage response body.
type TriageResponse struct {
	RequestID        string                  `json:"request_id"`
	Status           string                  `json:"status"`
	Response         *model.FinalResponse    `json:"response"`
	ActionItems      []string                `json:"action_items,omitempty"`
	RoutingDecisions []model.RoutingDecision `json:"routing_decisions,omitempty"`
	ExecutionHistory []model.ExecutionStep   `json:"execution_history,omitempty"`
}

func (s *Server) handleTriage(w http.ResponseWriter, r *http.Request) {
	var req TriageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "request body must be valid JSON")
		return
	}
	if req.Prompt == "" {
		s.writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "prompt must not be empty")
		return
	}

	requestID := requestIDFrom(r.Context())
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	state, err := s.engine.Execute(ctx, requestID, req.Prompt, req.Context)
	if err != nil {
		s.logger.Error("triage run failed structurally: %v", err)
		s.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "triage workflow failed")
		return
	}

	writeJSON(w, http.StatusOK, TriageResponse{
		RequestID:        state.RequestID,
		Status:           state.Status,
		Response:         state.FinalResponse,
		ActionItems:      state.ActionItems,
		RoutingDecisions: state.RoutingDecisions,
		ExecutionHistory: state.ExecutionHistory,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ready := s.readinessChecker.IsReady()
	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{"ready": ready})
}

// Start implements lifecycle.Component.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting API server on port %d", s.port)

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error: %v", err)
		}
	}()
	return nil
}

// Stop implements lifecycle.Component.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping API server...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error: %v", err)
		return err
	}
	s.logger.Info("API server stopped")
	return nil
}

// Name implements lifecycle.Component.
func (s *Server) Name() string {
	return "API Server"
}

// GetPort returns the configured listen port.
func (s *Server) GetPort() int {
	return s.port
}

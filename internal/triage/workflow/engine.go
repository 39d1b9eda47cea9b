package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/moolen/kairos/internal/logging"
	"github.com/moolen/kairos/internal/metrics"
	"github.com/moolen/kairos/internal/triage/model"
)

// MaxTransitions bounds the routing loop. The graph converges in well under
// this many hops; hitting the bound means a routing bug, not a long request.
const MaxTransitions = 15

// nodeOrchestrator is the entry node; nodeDone is the terminal sentinel.
const (
	nodeOrchestrator model.Agent = "orchestrator"
	nodeDone         model.Agent = ""
)

// Engine executes the triage workflow.
type Engine struct {
	services Services
	logger   *logging.Logger
}

// NewEngine validates the service bundle and creates an Engine.
func NewEngine(services Services) (*Engine, error) {
	if services.Router == nil {
		return nil, fmt.Errorf("router must be configured")
	}
	if services.Correlator == nil {
		return nil, fmt.Errorf("correlator must be configured")
	}
	if services.Synthesizer == nil {
		return nil, fmt.Errorf("synthesizer must be configured")
	}
	return &Engine{
		services: services,
		logger:   logging.GetLogger("triage.workflow"),
	}, nil
}

// run carries per-request state that lives outside the serializable
// WorkflowState.
type run struct {
	state  *model.WorkflowState
	target *model.TargetInfo
}

// Execute drives one request through the routing graph. It guarantees a
// non-nil FinalResponse on the returned state unless it returns an error;
// an error here is structural (routing bug or transition exhaustion), never
// an agent failure.
func (e *Engine) Execute(ctx context.Context, requestID, userPrompt string, extra map[string]string) (*model.WorkflowState, error) {
	start := time.Now()
	state := model.NewWorkflowState(requestID, userPrompt, extra)
	r := &run{state: state}

	e.logger.InfoWithFields("triage run started",
		logging.Field("request_id", requestID))

	current := nodeOrchestrator
	for i := 0; i < MaxTransitions; i++ {
		metrics.TransitionsTotal.WithLabelValues(string(current)).Inc()

		next, err := e.step(ctx, r, current)
		if err != nil {
			metrics.RunsTotal.WithLabelValues("error").Inc()
			return state, err
		}
		if next == nodeDone {
			if state.FinalResponse == nil {
				metrics.RunsTotal.WithLabelValues("error").Inc()
				return state, fmt.Errorf("terminal node produced no final response")
			}
			metrics.RunsTotal.WithLabelValues(state.Status).Inc()
			metrics.RunDuration.Observe(time.Since(start).Seconds())
			e.logger.InfoWithFields("triage run finished",
				logging.Field("request_id", requestID),
				logging.Field("status", state.Status),
				logging.Field("steps", len(state.ExecutionHistory)),
				logging.Field("duration_ms", time.Since(start).Milliseconds()))
			return state, nil
		}
		current = next
	}

	metrics.RunsTotal.WithLabelValues("exhausted").Inc()
	return state, fmt.Errorf("workflow exceeded %d transitions without reaching a terminal node", MaxTransitions)
}

func (e *Engine) step(ctx context.Context, r *run, node model.Agent) (model.Agent, error) {
	switch node {
	case nodeOrchestrator:
		return e.runOrchestrator(ctx, r), nil
	case model.AgentGitHub:
		return e.runGitHub(ctx, r), nil
	case model.AgentKubernetes:
		return e.runKubernetes(ctx, r), nil
	case model.AgentJenkins:
		return e.runJenkins(ctx, r), nil
	case model.AgentSummarizer:
		return e.runSummarizer(ctx, r), nil
	case model.AgentUnavailable:
		return e.runUnavailable(r), nil
	}
	return nodeDone, fmt.Errorf("routing produced unknown node %q", node)
}

// runOrchestrator makes the initial classification on the first pass and the
// deterministic re-route on every later pass.
func (e *Engine) runOrchestrator(ctx context.Context, r *run) model.Agent {
	state := r.state

	var decision model.RoutingDecision
	if len(state.RoutingDecisions) == 0 {
		decision = e.services.Router.InitialDecision(ctx, state.UserPrompt)
	} else {
		decision = e.services.Router.Reroute(state)
	}
	state.RoutingDecisions = append(state.RoutingDecisions, decision)
	state.RecordStep(model.ExecutionStep{
		Action:   "routing_decision",
		Agent:    string(decision.NextAgent),
		Decision: decision.Reasoning,
	})

	e.logger.InfoWithFields("routing decision",
		logging.Field("request_id", state.RequestID),
		logging.Field("next_agent", string(decision.NextAgent)),
		logging.Field("confidence", string(decision.Confidence)))
	return decision.NextAgent
}

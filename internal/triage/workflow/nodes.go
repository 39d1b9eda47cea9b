package workflow

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/moolen/kairos/internal/agents/kubernetes"
	"github.com/moolen/kairos/internal/logging"
	"github.com/moolen/kairos/internal/metrics"
	"github.com/moolen/kairos/internal/triage/model"
	"github.com/moolen/kairos/internal/triage/synthesis"
)

// maxConcurrentNamespaces bounds the per-request debugger fan-out.
const maxConcurrentNamespaces = 4

// runGitHub executes the GitHub agent node. Collaborator failures become
// data on the state; the node itself never fails the run.
func (e *Engine) runGitHub(ctx context.Context, r *run) model.Agent {
	state := r.state

	if e.services.GitHub == nil {
		state.GitHubResponse = failureResponse("github_agent", fmt.Errorf("github agent not configured"))
		state.AgentStatus[model.AgentGitHub] = model.StatusFailed
		e.recordAgentStep(state, model.AgentGitHub, "not configured")
		return e.services.Router.PostGitHub(state)
	}

	findings, err := e.services.GitHub.Analyze(ctx, state.UserPrompt)
	if err != nil {
		state.GitHubResponse = failureResponse("github_agent", err)
		state.AgentStatus[model.AgentGitHub] = model.StatusFailed
		metrics.AgentExecutionsTotal.WithLabelValues("github", "failed").Inc()
		e.recordAgentStep(state, model.AgentGitHub, "failed: "+err.Error())
		return e.services.Router.PostGitHub(state)
	}

	resp := &model.AgentResponse{
		AgentName: "github_agent",
		Status:    findings.Status,
		Findings:  findings,
	}
	state.GitHubResponse = resp

	// Escalation hands a synthesized prompt to the next agent instead of
	// completing the analysis.
	switch findings.Status {
	case model.FindingsStatusRouteToK8s:
		state.UserPrompt = healthEscalationPrompt(state.UserPrompt, findings.HealthCheck)
		state.AgentStatus[model.AgentGitHub] = model.StatusRoutingToK8s
		metrics.AgentExecutionsTotal.WithLabelValues("github", "escalated").Inc()
		e.recordAgentStep(state, model.AgentGitHub, "escalated to kubernetes")
	case model.FindingsStatusRouteToJenkins:
		state.UserPrompt = jenkinsEscalationPrompt(state.UserPrompt, findings.JenkinsFailure)
		state.AgentStatus[model.AgentGitHub] = model.StatusRoutingToJenkins
		metrics.AgentExecutionsTotal.WithLabelValues("github", "escalated").Inc()
		e.recordAgentStep(state, model.AgentGitHub, "escalated to jenkins")
	default:
		state.AgentStatus[model.AgentGitHub] = model.StatusCompleted
		metrics.AgentExecutionsTotal.WithLabelValues("github", "completed").Inc()
		e.recordAgentStep(state, model.AgentGitHub, "completed")
	}

	return e.services.Router.PostGitHub(state)
}

// runKubernetes resolves the troubleshooting target and fans the debugger
// out over its namespaces.
func (e *Engine) runKubernetes(ctx context.Context, r *run) model.Agent {
	state := r.state

	if e.services.Kubernetes == nil {
		state.KubernetesResponse = failureResponse("kubernetes_agent", fmt.Errorf("kubernetes agent not configured"))
		state.AgentStatus[model.AgentKubernetes] = model.StatusFailed
		e.recordAgentStep(state, model.AgentKubernetes, "not configured")
		return e.services.Router.PostKubernetes(state)
	}

	r.target = e.resolveTarget(ctx, state)
	reports, errs := e.debugNamespaces(ctx, r.target)
	findings := kubernetes.CombineReports(reports, r.target)

	resp := &model.AgentResponse{
		AgentName: "kubernetes_agent",
		Status:    findings.Status,
		Findings:  findings,
		Errors:    errs,
	}
	state.KubernetesResponse = resp

	if len(reports) == 0 && len(errs) > 0 {
		state.AgentStatus[model.AgentKubernetes] = model.StatusFailed
		resp.Status = model.FindingsStatusFailed
		metrics.AgentExecutionsTotal.WithLabelValues("kubernetes", "failed").Inc()
		e.recordAgentStep(state, model.AgentKubernetes, "all namespace scans failed")
	} else {
		state.AgentStatus[model.AgentKubernetes] = model.StatusCompleted
		metrics.AgentExecutionsTotal.WithLabelValues("kubernetes", "completed").Inc()
		e.recordAgentStep(state, model.AgentKubernetes,
			fmt.Sprintf("scanned %d namespaces, %d unhealthy pods", len(reports), len(findings.UnhealthyPods)))
	}

	return e.services.Router.PostKubernetes(state)
}

func (e *Engine) resolveTarget(ctx context.Context, state *model.WorkflowState) *model.TargetInfo {
	if e.services.Resolver != nil {
		target, err := e.services.Resolver.Resolve(ctx, state.UserPrompt)
		if err == nil && target != nil {
			return target
		}
		if err != nil {
			e.logger.WarnWithFields("target resolution failed, using defaults",
				logging.Field("error", err.Error()))
		}
	}
	return &model.TargetInfo{
		Environment:  "staging",
		BusinessUnit: "platform",
		Namespaces:   []string{"default"},
	}
}

// debugNamespaces scans all target namespaces concurrently. Report order
// follows the namespace order; a failed namespace contributes an error
// record instead of a report.
func (e *Engine) debugNamespaces(ctx context.Context, target *model.TargetInfo) ([]*model.NamespaceReport, []model.ErrorRecord) {
	results := make([]*model.NamespaceReport, len(target.Namespaces))
	failures := make([]error, len(target.Namespaces))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentNamespaces)
	for i, namespace := range target.Namespaces {
		g.Go(func() error {
			report, err := e.services.Kubernetes.DebugApplicationHealth(gctx, namespace, target.Environment, target.BusinessUnit)
			results[i], failures[i] = report, err
			return nil
		})
	}
	_ = g.Wait()

	var reports []*model.NamespaceReport
	var errs []model.ErrorRecord
	for i, report := range results {
		if failures[i] != nil {
			errs = append(errs, model.ErrorRecord{
				Source: "kubernetes_agent",
				Error:  fmt.Sprintf("namespace %s: %v", target.Namespaces[i], failures[i]),
			})
			continue
		}
		if report != nil {
			reports = append(reports, report)
		}
	}
	return reports, errs
}

// runJenkins executes the Jenkins agent node.
func (e *Engine) runJenkins(ctx context.Context, r *run) model.Agent {
	state := r.state

	if e.services.Jenkins == nil {
		state.JenkinsResponse = failureResponse("jenkins_agent", fmt.Errorf("jenkins agent not configured"))
		state.AgentStatus[model.AgentJenkins] = model.StatusFailed
		e.recordAgentStep(state, model.AgentJenkins, "not configured")
		return e.services.Router.PostJenkins(state)
	}

	findings, err := e.services.Jenkins.Analyze(ctx, state.UserPrompt)
	if err != nil {
		state.JenkinsResponse = failureResponse("jenkins_agent", err)
		state.AgentStatus[model.AgentJenkins] = model.StatusFailed
		metrics.AgentExecutionsTotal.WithLabelValues("jenkins", "failed").Inc()
		e.recordAgentStep(state, model.AgentJenkins, "failed: "+err.Error())
		return e.services.Router.PostJenkins(state)
	}

	state.JenkinsResponse = &model.AgentResponse{
		AgentName: "jenkins_agent",
		Status:    findings.Status,
		Findings:  findings,
	}
	state.AgentStatus[model.AgentJenkins] = model.StatusCompleted
	metrics.AgentExecutionsTotal.WithLabelValues("jenkins", "completed").Inc()
	e.recordAgentStep(state, model.AgentJenkins, "completed")

	return e.services.Router.PostJenkins(state)
}

// runSummarizer is the terminal node: correlation when at least two agents
// contributed, historical retrieval, synthesis and action item collection.
func (e *Engine) runSummarizer(ctx context.Context, r *run) model.Agent {
	state := r.state

	if state.AgentsWithFindings() >= 2 {
		state.Correlation = e.services.Correlator.Correlate(ctx,
			typedGitHub(state), typedKubernetes(state), typedJenkins(state), state.UserPrompt)
	}

	state.HistoricalSolutions = e.retrieveHistorical(ctx, r)

	state.FinalResponse = e.services.Synthesizer.Synthesize(ctx, state)
	state.ActionItems = synthesis.CollectActionItems(state)
	state.Summary = state.FinalResponse.Summary
	state.Status = state.FinalResponse.Status

	state.RecordStep(model.ExecutionStep{
		Action: "summarization",
		Agent:  string(model.AgentSummarizer),
		Status: state.Status,
	})
	return nodeDone
}

func (e *Engine) retrieveHistorical(ctx context.Context, r *run) *model.RAGSolution {
	if e.services.Retriever == nil {
		return model.NoRAGSolution("Historical solution store not configured")
	}
	solution, err := e.services.Retriever.FindSolutions(ctx,
		synthesis.ProblemDescription(r.state), synthesis.BuildRAGContext(r.state, r.target))
	if err != nil {
		e.logger.WarnWithFields("historical solution lookup failed",
			logging.Field("error", err.Error()))
		return model.NoRAGSolution("Historical solution lookup failed")
	}
	if solution == nil {
		return model.NoRAGSolution("No historical solution available")
	}
	return solution
}

// runUnavailable is the terminal node for unsupported requests.
func (e *Engine) runUnavailable(r *run) model.Agent {
	state := r.state
	state.FinalResponse = synthesis.Unsupported(state)
	state.Status = model.RunStatusUnsupported
	state.Summary = state.FinalResponse.Summary
	state.RecordStep(model.ExecutionStep{
		Action: "unsupported_request",
		Agent:  string(model.AgentUnavailable),
		Status: state.Status,
	})
	return nodeDone
}

func (e *Engine) recordAgentStep(state *model.WorkflowState, agent model.Agent, detail string) {
	state.RecordStep(model.ExecutionStep{
		Action: "agent_execution",
		Agent:  string(agent),
		Status: string(state.AgentStatus[agent]),
		Detail: detail,
	})
}

// failureResponse converts a collaborator error into response data so the
// run can continue and the summarizer can report the failure.
func failureResponse(agentName string, err error) *model.AgentResponse {
	return &model.AgentResponse{
		AgentName: agentName,
		Status:    model.FindingsStatusFailed,
		Errors: []model.ErrorRecord{{
			Source: agentName,
			Error:  err.Error(),
		}},
	}
}

func healthEscalationPrompt(original string, esc *model.HealthCheckEscalation) string {
	environment := "staging"
	apps := "the affected applications"
	var failures string
	if esc != nil {
		if esc.Environment != "" {
			environment = esc.Environment
		}
		if len(esc.Applications) > 0 {
			apps = strings.Join(esc.Applications, ", ")
		}
		if len(esc.Failures) > 0 {
			failures = " Failing checks: " + strings.Join(esc.Failures, ", ") + "."
		}
	}
	return fmt.Sprintf("Health checks are failing for %s in the %s environment.%s Investigate the application health in Kubernetes. Original request: %s",
		apps, environment, failures, original)
}

func jenkinsEscalationPrompt(original string, esc *model.JenkinsEscalation) string {
	urls := "the referenced Jenkins build"
	if esc != nil && len(esc.JenkinsURLs) > 0 {
		urls = strings.Join(esc.JenkinsURLs, ", ")
	}
	return fmt.Sprintf("Jenkins build failure detected. Analyze the failed build at %s. Original request: %s",
		urls, original)
}

func typedGitHub(state *model.WorkflowState) *model.GitHubFindings {
	if state.GitHubResponse == nil || state.GitHubResponse.Findings == nil {
		return nil
	}
	if gh, ok := state.GitHubResponse.Findings.(*model.GitHubFindings); ok {
		return gh
	}
	return nil
}

func typedKubernetes(state *model.WorkflowState) *model.KubernetesFindings {
	if state.KubernetesResponse == nil || state.KubernetesResponse.Findings == nil {
		return nil
	}
	if k8s, ok := state.KubernetesResponse.Findings.(*model.KubernetesFindings); ok {
		return k8s
	}
	return nil
}

func typedJenkins(state *model.WorkflowState) *model.JenkinsFindings {
	if state.JenkinsResponse == nil || state.JenkinsResponse.Findings == nil {
		return nil
	}
	if jf, ok := state.JenkinsResponse.Findings.(*model.JenkinsFindings); ok {
		return jf
	}
	return nil
}

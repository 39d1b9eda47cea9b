package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moolen/kairos/internal/rag"
	"github.com/moolen/kairos/internal/triage/correlation"
	"github.com/moolen/kairos/internal/triage/model"
	"github.com/moolen/kairos/internal/triage/routing"
	"github.com/moolen/kairos/internal/triage/synthesis"
)

type fakeGitHub struct {
	mu       sync.Mutex
	findings *model.GitHubFindings
	err      error
	prompts  []string
}

func (f *fakeGitHub) Analyze(_ context.Context, prompt string) (*model.GitHubFindings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.findings, f.err
}

type fakeDebugger struct {
	mu         sync.Mutex
	report     *model.NamespaceReport
	err        error
	namespaces []string
}

func (f *fakeDebugger) DebugApplicationHealth(_ context.Context, namespace, _, _ string) (*model.NamespaceReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.namespaces = append(f.namespaces, namespace)
	if f.err != nil {
		return nil, f.err
	}
	report := *f.report
	report.Namespace = namespace
	return &report, nil
}

type fakeJenkins struct {
	mu       sync.Mutex
	findings *model.JenkinsFindings
	err      error
	prompts  []string
}

func (f *fakeJenkins) Analyze(_ context.Context, prompt string) (*model.JenkinsFindings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.findings, f.err
}

type fakeResolver struct {
	target *model.TargetInfo
	err    error
}

func (f *fakeResolver) Resolve(_ context.Context, _ string) (*model.TargetInfo, error) {
	return f.target, f.err
}

type fakeRetriever struct {
	solution *model.RAGSolution
	err      error
}

func (f *fakeRetriever) FindSolutions(_ context.Context, _ string, _ *model.RAGContext) (*model.RAGSolution, error) {
	return f.solution, f.err
}

// baseServices wires deterministic (LLM-free) routing, correlation and
// synthesis.
func baseServices() Services {
	return Services{
		Router:      routing.New(nil),
		Correlator:  correlation.New(nil),
		Synthesizer: synthesis.New(nil),
		Retriever:   rag.NopRetriever{},
	}
}

func TestNewEngineValidatesServices(t *testing.T) {
	_, err := NewEngine(Services{})
	assert.Error(t, err)

	_, err = NewEngine(baseServices())
	assert.NoError(t, err)
}

func TestExecuteUnsupportedRequest(t *testing.T) {
	engine, err := NewEngine(baseServices())
	require.NoError(t, err)

	state, err := engine.Execute(context.Background(), "req-1", "what should I cook tonight", nil)
	require.NoError(t, err)

	assert.Equal(t, model.RunStatusUnsupported, state.Status)
	require.NotNil(t, state.FinalResponse)
	assert.False(t, state.FinalResponse.Confidence)
	require.NotEmpty(t, state.RoutingDecisions)
	assert.Equal(t, model.AgentUnavailable, state.RoutingDecisions[0].NextAgent)
}

func TestExecuteKubernetesPath(t *testing.T) {
	services := baseServices()
	debugger := &fakeDebugger{
		report: &model.NamespaceReport{
			UnhealthyPods: []model.PodIssue{{Name: "payments-1", Reason: "CrashLoopBackOff"}},
			RootCauses:    []string{"CrashLoopBackOff"},
		},
	}
	services.Kubernetes = debugger
	services.Resolver = &fakeResolver{target: &model.TargetInfo{
		Environment:  "stage",
		BusinessUnit: "acme",
		Namespaces:   []string{"acme-payments-stage", "acme-checkout-stage"},
	}}
	engine, err := NewEngine(services)
	require.NoError(t, err)

	state, err := engine.Execute(context.Background(), "req-1", "pods crashing in the payments namespace", nil)
	require.NoError(t, err)

	assert.Equal(t, model.RunStatusCompleted, state.Status)
	assert.Equal(t, model.StatusCompleted, state.AgentStatus[model.AgentKubernetes])
	require.NotNil(t, state.KubernetesResponse)
	assert.Equal(t, model.FindingsStatusIssuesFound, state.KubernetesResponse.Status)
	assert.Len(t, debugger.namespaces, 2)

	findings, ok := state.KubernetesResponse.Findings.(*model.KubernetesFindings)
	require.True(t, ok)
	assert.Len(t, findings.UnhealthyPods, 2)
}

func TestExecuteGitHubEscalatesToJenkins(t *testing.T) {
	services := baseServices()
	services.GitHub = &fakeGitHub{
		findings: &model.GitHubFindings{
			FindingsCore: model.FindingsCore{Status: model.FindingsStatusRouteToJenkins},
			PRHealth:     "Has Issues",
			JenkinsFailure: &model.JenkinsEscalation{
				JenkinsURLs: []string{"https://jenkins.acme.com/job/shop/42/"},
			},
		},
	}
	jenkins := &fakeJenkins{
		findings: &model.JenkinsFindings{
			FindingsCore: model.FindingsCore{
				Status:            model.FindingsStatusIssuesFound,
				ProblemIdentified: "compilation failed",
			},
			BuildStatus: "FAILURE",
			FailureType: model.FailureTypeInfrastructure,
		},
	}
	services.Jenkins = jenkins
	engine, err := NewEngine(services)
	require.NoError(t, err)

	original := "Check PR https://github.com/acme/shop/pull/42"
	state, err := engine.Execute(context.Background(), "req-1", original, nil)
	require.NoError(t, err)

	assert.Equal(t, model.StatusRoutingToJenkins, state.AgentStatus[model.AgentGitHub])

	// The escalation overwrote the prompt handed to Jenkins.
	require.Len(t, jenkins.prompts, 1)
	assert.Contains(t, jenkins.prompts[0], "https://jenkins.acme.com/job/shop/42/")
	assert.Contains(t, jenkins.prompts[0], original)

	assert.Equal(t, model.StatusCompleted, state.AgentStatus[model.AgentJenkins])
	require.NotNil(t, state.FinalResponse)
	// Two agents produced findings, so confidence is high.
	assert.True(t, state.FinalResponse.Confidence)
	assert.Equal(t, model.ConfidenceHigh, state.FinalResponse.ConfidenceLevel)
}

func TestExecuteAgentFailureBecomesData(t *testing.T) {
	services := baseServices()
	services.GitHub = &fakeGitHub{err: errors.New("mcp server unreachable")}
	engine, err := NewEngine(services)
	require.NoError(t, err)

	state, err := engine.Execute(context.Background(), "req-1", "look at pull request 12", nil)
	require.NoError(t, err)

	assert.Equal(t, model.StatusFailed, state.AgentStatus[model.AgentGitHub])
	require.NotNil(t, state.GitHubResponse)
	assert.Equal(t, model.FindingsStatusFailed, state.GitHubResponse.Status)
	require.Len(t, state.GitHubResponse.Errors, 1)
	assert.Contains(t, state.GitHubResponse.Errors[0].Error, "mcp server unreachable")

	require.NotNil(t, state.FinalResponse)
	assert.Equal(t, model.RunStatusCompletedWithErrors, state.Status)
}

func TestExecuteAllNamespacesFailing(t *testing.T) {
	services := baseServices()
	services.Kubernetes = &fakeDebugger{err: errors.New("forbidden")}
	engine, err := NewEngine(services)
	require.NoError(t, err)

	state, err := engine.Execute(context.Background(), "req-1", "check pod health in staging", nil)
	require.NoError(t, err)

	assert.Equal(t, model.StatusFailed, state.AgentStatus[model.AgentKubernetes])
	assert.Equal(t, model.FindingsStatusFailed, state.KubernetesResponse.Status)
	assert.NotEmpty(t, state.KubernetesResponse.Errors)
	assert.Equal(t, model.RunStatusCompletedWithErrors, state.Status)
}

func TestExecuteTerminatesWithSignalHeavyFindings(t *testing.T) {
	// Every agent produces findings full of routing signals; the executed
	// agent guards must still drive the run to the summarizer well within
	// the transition bound.
	services := baseServices()
	services.GitHub = &fakeGitHub{
		findings: &model.GitHubFindings{
			FindingsCore: model.FindingsCore{Status: model.FindingsStatusIssuesFound},
			PRHealth:     "Has Issues",
			CI: model.CIAnalysis{
				HasFailures: true,
				Status:      "Failing",
				FailingChecks: []model.FailingCheck{
					{Name: "continuous-integration/jenkins"},
					{Name: "deployment-health"},
				},
			},
			BotComments: []model.BotComment{{Author: "bot", Body: "jenkins build failed, health check failing"}},
		},
	}
	services.Kubernetes = &fakeDebugger{
		report: &model.NamespaceReport{
			UnhealthyPods: []model.PodIssue{{Name: "api-1", Reason: "CrashLoopBackOff"}},
			RootCauses:    []string{"CrashLoopBackOff"},
		},
	}
	services.Jenkins = &fakeJenkins{
		findings: &model.JenkinsFindings{
			FindingsCore: model.FindingsCore{Status: model.FindingsStatusIssuesFound},
			BuildStatus:  "FAILURE",
			FailureType:  model.FailureTypeBuild,
		},
	}
	engine, err := NewEngine(services)
	require.NoError(t, err)

	state, err := engine.Execute(context.Background(), "req-1",
		"the PR broke the jenkins build and now pods crash with failing health checks", nil)
	require.NoError(t, err)

	require.NotNil(t, state.FinalResponse)
	assert.LessOrEqual(t, len(state.ExecutionHistory), MaxTransitions)
	// All three agents ran exactly once.
	assert.NotNil(t, state.GitHubResponse)
	assert.NotNil(t, state.KubernetesResponse)
	assert.NotNil(t, state.JenkinsResponse)
	// Correlation ran because multiple agents contributed findings.
	assert.NotNil(t, state.Correlation)
}

func TestExecuteRetrieverFailureDegrades(t *testing.T) {
	services := baseServices()
	services.Kubernetes = &fakeDebugger{
		report: &model.NamespaceReport{RootCauses: []string{"OOMKilled"}},
	}
	services.Retriever = &fakeRetriever{err: errors.New("falkordb down")}
	engine, err := NewEngine(services)
	require.NoError(t, err)

	state, err := engine.Execute(context.Background(), "req-1", "pods keep restarting", nil)
	require.NoError(t, err)

	require.NotNil(t, state.HistoricalSolutions)
	assert.False(t, state.HistoricalSolutions.SolutionsFound)
	assert.Equal(t, "Historical solution lookup failed", state.HistoricalSolutions.Message)
}

func TestExecuteRetrieverSolutionCarriedToResponse(t *testing.T) {
	services := baseServices()
	services.Kubernetes = &fakeDebugger{
		report: &model.NamespaceReport{RootCauses: []string{"OOMKilled"}},
	}
	solution := &model.RAGSolution{
		SolutionsFound: true,
		RecommendedSolutions: []model.HistoricalSolution{
			{Solution: "Raise the memory limit to 512Mi", JiraID: "OPS-42", SimilarityScore: 0.7},
		},
	}
	services.Retriever = &fakeRetriever{solution: solution}
	engine, err := NewEngine(services)
	require.NoError(t, err)

	state, err := engine.Execute(context.Background(), "req-1", "pods keep restarting in staging", nil)
	require.NoError(t, err)

	require.NotNil(t, state.FinalResponse)
	assert.Same(t, solution, state.FinalResponse.RAGSolution)
	assert.Contains(t, state.ActionItems, "Raise the memory limit to 512Mi (see OPS-42)")
}

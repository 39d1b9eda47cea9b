// Package model defines the data types threaded through the triage workflow:
// the per-request workflow state, routing decisions, agent response envelopes
// and the final synthesized response.
package model

// Agent identifies a domain analyzer.
type Agent string

const (
	AgentGitHub     Agent = "github"
	AgentKubernetes Agent = "kubernetes"
	AgentJenkins    Agent = "jenkins"
	// AgentSummarizer is the terminal synthesis node.
	AgentSummarizer Agent = "summarizer"
	// AgentUnavailable handles requests no analyzer supports.
	AgentUnavailable Agent = "unavailable_agent"
)

// ValidAgent reports whether a is one of the routable agent names.
func ValidAgent(a Agent) bool {
	switch a {
	case AgentGitHub, AgentKubernetes, AgentJenkins, AgentSummarizer, AgentUnavailable:
		return true
	}
	return false
}

// Confidence levels used for routing decisions, correlation and the final
// response.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// AgentStatus tracks the execution state of an agent within one run.
type AgentStatus string

const (
	StatusNotExecuted      AgentStatus = "not_executed"
	StatusCompleted        AgentStatus = "completed"
	StatusFailed           AgentStatus = "failed"
	StatusRoutingToK8s     AgentStatus = "routing_to_k8s"
	StatusRoutingToJenkins AgentStatus = "routing_to_jenkins"
)

// Run status values for WorkflowState.Status.
const (
	RunStatusRunning             = "running"
	RunStatusCompleted           = "completed"
	RunStatusCompletedWithErrors = "completed_with_errors"
	RunStatusUnsupported         = "unsupported"
)

// Findings status values set by analyzers.
const (
	FindingsStatusSuccess        = "success"
	FindingsStatusFailed         = "failed"
	FindingsStatusIssuesFound    = "issues_found"
	FindingsStatusHealthy        = "healthy"
	FindingsStatusRouteToK8s     = "route_to_k8s"
	FindingsStatusRouteToJenkins = "route_to_jenkins"
)

// RoutingDecision records one routing step. Decisions are append-only; an
// empty decision list marks the first pass through the orchestrator.
type RoutingDecision struct {
	NextAgent     Agent      `json:"next_agent"`
	Reasoning     string     `json:"reasoning"`
	Confidence    Confidence `json:"confidence"`
	ContextNeeded []string   `json:"context_needed"`
}

// ErrorRecord carries a collaborator error converted to data.
type ErrorRecord struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

// ExecutionStep is an append-only audit entry. It is used for observability
// and testing, never for control flow.
type ExecutionStep struct {
	Step     int    `json:"step"`
	Action   string `json:"action"`
	Agent    string `json:"agent"`
	Decision string `json:"decision,omitempty"`
	Status   string `json:"status,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

// AgentResponse is the uniform envelope every analyzer node produces.
type AgentResponse struct {
	AgentName   string        `json:"agent_name"`
	Status      string        `json:"status"`
	Findings    Findings      `json:"findings,omitempty"`
	Errors      []ErrorRecord `json:"errors,omitempty"`
	NextActions []string      `json:"next_actions,omitempty"`
}

// HasFindings reports whether the response carries non-empty findings.
func (r *AgentResponse) HasFindings() bool {
	return r != nil && r.Findings != nil && r.Findings.HasContent()
}

// WorkflowState is the single mutable record threaded through the routing
// graph for one request. It is owned exclusively by the in-flight request
// and discarded after the terminal node runs.
type WorkflowState struct {
	RequestID string `json:"request_id"`

	// UserPrompt is the original request. An escalating agent node may
	// overwrite it to hand context to the next agent.
	UserPrompt string            `json:"user_prompt"`
	Context    map[string]string `json:"context,omitempty"`

	RoutingDecisions []RoutingDecision `json:"routing_decisions"`

	GitHubResponse     *AgentResponse `json:"github_response,omitempty"`
	KubernetesResponse *AgentResponse `json:"kubernetes_response,omitempty"`
	JenkinsResponse    *AgentResponse `json:"jenkins_response,omitempty"`

	Correlation         *CorrelationResult `json:"correlation_analysis,omitempty"`
	HistoricalSolutions *RAGSolution       `json:"historical_solutions,omitempty"`

	ExecutionHistory []ExecutionStep       `json:"execution_history"`
	AgentStatus      map[Agent]AgentStatus `json:"agent_status"`

	Summary     string   `json:"summary,omitempty"`
	ActionItems []string `json:"action_items,omitempty"`
	Status      string   `json:"status"`

	FinalResponse *FinalResponse `json:"final_response,omitempty"`
}

// NewWorkflowState creates the fresh per-request state.
func NewWorkflowState(requestID, userPrompt string, ctx map[string]string) *WorkflowState {
	if ctx == nil {
		ctx = map[string]string{}
	}
	return &WorkflowState{
		RequestID:        requestID,
		UserPrompt:       userPrompt,
		Context:          ctx,
		RoutingDecisions: []RoutingDecision{},
		ExecutionHistory: []ExecutionStep{},
		AgentStatus: map[Agent]AgentStatus{
			AgentGitHub:     StatusNotExecuted,
			AgentKubernetes: StatusNotExecuted,
			AgentJenkins:    StatusNotExecuted,
		},
		Status: RunStatusRunning,
	}
}

// RecordStep appends an execution history entry with the next step index.
func (s *WorkflowState) RecordStep(step ExecutionStep) {
	step.Step = len(s.ExecutionHistory) + 1
	s.ExecutionHistory = append(s.ExecutionHistory, step)
}

// Response returns the stored envelope for the given agent, or nil.
func (s *WorkflowState) Response(agent Agent) *AgentResponse {
	switch agent {
	case AgentGitHub:
		return s.GitHubResponse
	case AgentKubernetes:
		return s.KubernetesResponse
	case AgentJenkins:
		return s.JenkinsResponse
	}
	return nil
}

// AgentsWithFindings counts agents that contributed non-empty findings.
// This count drives the deterministic confidence derivation.
func (s *WorkflowState) AgentsWithFindings() int {
	n := 0
	for _, r := range []*AgentResponse{s.GitHubResponse, s.KubernetesResponse, s.JenkinsResponse} {
		if r.HasFindings() {
			n++
		}
	}
	return n
}

// FinalResponse is the single structured diagnosis produced per run.
type FinalResponse struct {
	Status              string       `json:"status"`
	ProblemIdentified   string       `json:"problem_identified"`
	RootCause           string       `json:"root_cause"`
	Solution            []string     `json:"solution"`
	Summary             string       `json:"summary"`
	RAGSolution         *RAGSolution `json:"rag_solution"`
	Confidence          bool         `json:"confidence"`
	ConfidenceLevel     Confidence   `json:"confidence_level"`
	ConfidenceReasoning string       `json:"confidence_reasoning"`
}

// CorrelationResult is the verdict of the cross-agent correlation step.
type CorrelationResult struct {
	CorrelationFound      bool       `json:"correlation_found"`
	CorrelationType       string     `json:"correlation_type"`
	CorrelationConfidence Confidence `json:"correlation_confidence"`
	RootCauseChain        string     `json:"root_cause_chain"`
	PrimaryRootCause      string     `json:"primary_root_cause"`
	ActionableSolution    string     `json:"actionable_solution"`
	Evidence              []string   `json:"evidence,omitempty"`
	ImmediateActions      []string   `json:"immediate_actions,omitempty"`
	Priority              string     `json:"priority,omitempty"`
}

// HistoricalSolution is one retrieved incident resolution.
type HistoricalSolution struct {
	Solution        string  `json:"solution"`
	JiraID          string  `json:"jira_id"`
	SimilarityScore float64 `json:"similarity_score"`
	Problem         string  `json:"problem,omitempty"`
}

// RAGSolution is the historical-retrieval result. The synthesizer must carry
// it into the final response verbatim, never paraphrased.
type RAGSolution struct {
	SolutionsFound       bool                 `json:"solutions_found"`
	RecommendedSolutions []HistoricalSolution `json:"recommended_solutions,omitempty"`
	Message              string               `json:"message,omitempty"`
}

// NoRAGSolution returns the canned stub used when no retrieval result exists.
func NoRAGSolution(message string) *RAGSolution {
	return &RAGSolution{SolutionsFound: false, Message: message}
}

// RAGContext carries structured hints into the historical-solution query.
type RAGContext struct {
	Namespace     string   `json:"namespace,omitempty"`
	Environment   string   `json:"environment,omitempty"`
	Services      []string `json:"services,omitempty"`
	IssueType     string   `json:"issue_type,omitempty"`
	ErrorPatterns []string `json:"error_patterns,omitempty"`
}

// TargetInfo is the namespace resolver output: where to point the Kubernetes
// debugger for a given request.
type TargetInfo struct {
	Environment  string   `json:"environment"`
	BusinessUnit string   `json:"business_unit"`
	Applications []string `json:"applications"`
	Namespaces   []string `json:"namespaces"`
	IssueType    string   `json:"issue_type,omitempty"`
	Severity     string   `json:"severity,omitempty"`
}

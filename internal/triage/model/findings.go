package model

// Findings is the tagged union of per-agent analysis output. Each variant
// carries the cross-cutting FindingsCore so the synthesizer never needs
// dynamic lookups, plus agent-specific structure the routing engine reads.
type Findings interface {
	// Core returns the cross-cutting fields shared by every variant.
	Core() *FindingsCore
	// HasContent reports whether the analysis produced anything usable.
	// Empty findings are excluded from the confidence count.
	HasContent() bool
}

// FindingsCore holds the fields every analyzer must populate.
type FindingsCore struct {
	Status            string       `json:"status"`
	ProblemIdentified string       `json:"problem_identified,omitempty"`
	RootCause         string       `json:"root_cause,omitempty"`
	Solution          []string     `json:"solution,omitempty"`
	Summary           string       `json:"summary,omitempty"`
	RAGSolution       *RAGSolution `json:"rag_solution,omitempty"`

	// Extra is the extension bag for agent-internal detail that nothing in
	// the workflow reads by name.
	Extra map[string]any `json:"extra,omitempty"`
}

func (c *FindingsCore) Core() *FindingsCore { return c }

// FailingCheck is one failing CI check on a pull request.
type FailingCheck struct {
	Name    string `json:"name"`
	Details string `json:"details,omitempty"`
	URL     string `json:"url,omitempty"`
}

// CIAnalysis summarizes the CI/CD state of a pull request.
type CIAnalysis struct {
	Status        string         `json:"status,omitempty"`
	HasFailures   bool           `json:"has_failures"`
	FailingChecks []FailingCheck `json:"failing_checks,omitempty"`
}

// BotComment is an automated PR comment, scanned for health-check and
// build-failure notifications.
type BotComment struct {
	Author string `json:"author,omitempty"`
	Body   string `json:"body"`
}

// HealthCheckEscalation is the route_to_k8s payload: which environment and
// applications the failing health checks point at.
type HealthCheckEscalation struct {
	Environment  string   `json:"environment"`
	Applications []string `json:"applications"`
	Failures     []string `json:"failures,omitempty"`
}

// JenkinsEscalation is the route_to_jenkins payload.
type JenkinsEscalation struct {
	JenkinsURLs []string `json:"jenkins_urls"`
}

// GitHubFindings is the GitHub analyzer output.
type GitHubFindings struct {
	FindingsCore

	PRHealth     string       `json:"pr_health,omitempty"`
	CI           CIAnalysis   `json:"ci_cd"`
	BotComments  []BotComment `json:"bot_comments,omitempty"`
	Issues       []string     `json:"issues,omitempty"`
	AnalysisText string       `json:"analysis_text,omitempty"`

	// Set when the analyzer escalates instead of completing.
	HealthCheck    *HealthCheckEscalation `json:"health_check_info,omitempty"`
	JenkinsFailure *JenkinsEscalation     `json:"jenkins_failure_info,omitempty"`
}

func (f *GitHubFindings) HasContent() bool {
	if f == nil {
		return false
	}
	return f.ProblemIdentified != "" || f.RootCause != "" || f.PRHealth != "" ||
		f.CI.HasFailures || len(f.CI.FailingChecks) > 0 || len(f.Issues) > 0 ||
		f.AnalysisText != "" || f.HealthCheck != nil || f.JenkinsFailure != nil
}

// PodIssue is one unhealthy pod observation.
type PodIssue struct {
	Name     string `json:"name"`
	Phase    string `json:"phase,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Message  string `json:"message,omitempty"`
	Restarts int32  `json:"restarts,omitempty"`
}

// ClusterEvent is one Kubernetes event relevant to the investigation.
type ClusterEvent struct {
	Type    string `json:"type"`
	Reason  string `json:"reason"`
	Object  string `json:"object,omitempty"`
	Message string `json:"message"`
}

// IntelligentAnalysis is the LLM-produced per-namespace diagnosis.
type IntelligentAnalysis struct {
	ProblemSummary   string   `json:"problem_summary"`
	RootCause        string   `json:"root_cause"`
	DeveloperActions []string `json:"developer_actions,omitempty"`
}

// NamespaceReport is the debugger output for a single namespace. N reports
// are combined into one KubernetesFindings before wrapping in an envelope.
type NamespaceReport struct {
	Namespace         string               `json:"namespace"`
	Environment       string               `json:"environment,omitempty"`
	BusinessUnit      string               `json:"business_unit,omitempty"`
	Events            []ClusterEvent       `json:"events,omitempty"`
	UnhealthyPods     []PodIssue           `json:"unhealthy_pods,omitempty"`
	HealthyPods       []string             `json:"healthy_pods,omitempty"`
	RootCauses        []string             `json:"root_causes,omitempty"`
	ImmediateActions  []string             `json:"immediate_actions,omitempty"`
	Solution          []string             `json:"solution,omitempty"`
	Intelligent       *IntelligentAnalysis `json:"intelligent_analysis,omitempty"`
	ProblemIdentified string               `json:"problem_identified,omitempty"`
	RootCause         string               `json:"root_cause,omitempty"`
	RAGSolution       *RAGSolution         `json:"rag_solution,omitempty"`
	Errors            []ErrorRecord        `json:"errors,omitempty"`
}

// KubernetesFindings is the combined multi-namespace debugger output.
type KubernetesFindings struct {
	FindingsCore

	Events             []ClusterEvent       `json:"events,omitempty"`
	UnhealthyPods      []PodIssue           `json:"unhealthy_pods,omitempty"`
	HealthyPods        []string             `json:"healthy_pods,omitempty"`
	RootCauses         []string             `json:"root_causes,omitempty"`
	ImmediateActions   []string             `json:"immediate_actions,omitempty"`
	Intelligent        *IntelligentAnalysis `json:"intelligent_analysis,omitempty"`
	NamespacesAnalyzed []string             `json:"namespaces_analyzed,omitempty"`
	Environment        string               `json:"environment,omitempty"`
	BusinessUnit       string               `json:"business_unit,omitempty"`
}

func (f *KubernetesFindings) HasContent() bool {
	if f == nil {
		return false
	}
	return len(f.UnhealthyPods) > 0 || len(f.RootCauses) > 0 || f.Intelligent != nil ||
		f.ProblemIdentified != "" || f.RootCause != "" || len(f.Events) > 0 ||
		len(f.HealthyPods) > 0
}

// Jenkins failure classifications.
const (
	FailureTypeBuild          = "build_failure"
	FailureTypeTest           = "test_failure"
	FailureTypeInfrastructure = "infrastructure_failure"
	FailureTypeUnknown        = "unknown"
)

// JenkinsFindings is the Jenkins analyzer output.
type JenkinsFindings struct {
	FindingsCore

	BuildURL     string   `json:"build_url,omitempty"`
	BuildStatus  string   `json:"build_status,omitempty"`
	FailureType  string   `json:"failure_type,omitempty"`
	Severity     string   `json:"severity,omitempty"`
	ErrorDetails []string `json:"error_details,omitempty"`
	AnalysisText string   `json:"analysis_text,omitempty"`
}

func (f *JenkinsFindings) HasContent() bool {
	if f == nil {
		return false
	}
	return f.ProblemIdentified != "" || f.RootCause != "" || f.BuildStatus != "" ||
		f.FailureType != "" || len(f.ErrorDetails) > 0 || f.AnalysisText != ""
}

// UnsupportedFindings marks a request outside the scope of every analyzer.
type UnsupportedFindings struct {
	FindingsCore

	RequestType string `json:"request_type"`
	Message     string `json:"message"`
}

func (f *UnsupportedFindings) HasContent() bool { return false }

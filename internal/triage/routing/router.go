// Package routing implements the triage routing decision engine: initial
// request classification, deterministic re-routing after an agent returns to
// the orchestrator, and the post-agent transitions.
package routing

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/moolen/kairos/internal/logging"
	"github.com/moolen/kairos/internal/provider"
	"github.com/moolen/kairos/internal/triage/model"
)

// Router computes the next node from workflow state. Apart from the initial
// LLM classification every decision is a pure function of state.
type Router struct {
	llm    provider.Provider
	logger *logging.Logger
}

// New creates a Router. llm may be nil, in which case initial classification
// always uses the keyword fallback.
func New(llm provider.Provider) *Router {
	return &Router{
		llm:    llm,
		logger: logging.GetLogger("triage.routing"),
	}
}

type classifierOutput struct {
	Agent      string `json:"agent"`
	Reasoning  string `json:"reasoning"`
	Confidence string `json:"confidence"`
}

// InitialDecision classifies a fresh request into an agent. Classifier
// failures are recovered locally via keyword matching and never surfaced.
func (r *Router) InitialDecision(ctx context.Context, userPrompt string) model.RoutingDecision {
	if r.llm == nil {
		return r.keywordFallback(userPrompt, "no classifier configured")
	}

	content, err := r.llm.Complete(ctx, classifierSystemPrompt,
		fmt.Sprintf(classifierUserPromptTemplate, userPrompt))
	if err != nil {
		r.logger.WarnWithFields("classifier call failed, using keyword fallback",
			logging.Field("error", err.Error()))
		return r.keywordFallback(userPrompt, "classifier unavailable")
	}

	raw, err := provider.ExtractJSONObject(content)
	if err != nil {
		r.logger.WarnWithFields("classifier returned no JSON, using keyword fallback",
			logging.Field("error", err.Error()))
		return r.keywordFallback(userPrompt, "classifier output malformed")
	}

	var out classifierOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		r.logger.WarnWithFields("classifier JSON unparsable, using keyword fallback",
			logging.Field("error", err.Error()))
		return r.keywordFallback(userPrompt, "classifier output malformed")
	}

	return coerceDecision(out)
}

// coerceDecision validates classifier output. Unknown agent names are
// coerced to unavailable_agent with confidence forced to low; unknown
// confidence values are forced to low.
func coerceDecision(out classifierOutput) model.RoutingDecision {
	agent := model.Agent(out.Agent)
	reasoning := out.Reasoning
	confidence := model.Confidence(out.Confidence)

	if !model.ValidAgent(agent) {
		reasoning = fmt.Sprintf("classifier chose unknown agent %q - routing to unavailable_agent", out.Agent)
		agent = model.AgentUnavailable
		confidence = model.ConfidenceLow
	}
	switch confidence {
	case model.ConfidenceHigh, model.ConfidenceMedium, model.ConfidenceLow:
	default:
		confidence = model.ConfidenceLow
	}
	if reasoning == "" {
		reasoning = "no reasoning provided"
	}

	return model.RoutingDecision{
		NextAgent:     agent,
		Reasoning:     reasoning,
		Confidence:    confidence,
		ContextNeeded: []string{},
	}
}

// keywordFallback classifies by keyword presence when the LLM is unavailable.
// Confidence is always low on this path.
func (r *Router) keywordFallback(userPrompt, cause string) model.RoutingDecision {
	var agent model.Agent
	var reasoning string
	switch {
	case containsAny(userPrompt, fallbackKubernetesKeywords):
		agent = model.AgentKubernetes
		reasoning = "content-based routing to kubernetes"
	case containsAny(userPrompt, fallbackJenkinsKeywords):
		agent = model.AgentJenkins
		reasoning = "content-based routing to jenkins"
	case containsAny(userPrompt, fallbackGitHubKeywords):
		agent = model.AgentGitHub
		reasoning = "content-based routing to github"
	default:
		agent = model.AgentUnavailable
		reasoning = "no DevOps patterns detected - routing to unavailable_agent"
	}

	return model.RoutingDecision{
		NextAgent:     agent,
		Reasoning:     fmt.Sprintf("%s (%s)", reasoning, cause),
		Confidence:    model.ConfidenceLow,
		ContextNeeded: []string{},
	}
}

// Reroute decides the next hop after an agent has returned control to the
// orchestrator. This is a deterministic rule table; rules are evaluated in
// order and the executed-agent guards guarantee the graph converges to the
// summarizer within two agent hops.
func (r *Router) Reroute(state *model.WorkflowState) model.RoutingDecision {
	githubRan := state.GitHubResponse != nil
	kubernetesRan := state.KubernetesResponse != nil

	// Rule 1: GitHub surfaced health/deployment failures and Kubernetes has
	// not yet looked at the impact.
	if githubRan && !kubernetesRan {
		if gh, ok := githubFindings(state.GitHubResponse); ok {
			if matched, reason := githubHealthSignal(gh); matched {
				return model.RoutingDecision{
					NextAgent:     model.AgentKubernetes,
					Reasoning:     reason,
					Confidence:    model.ConfidenceHigh,
					ContextNeeded: []string{},
				}
			}
		}
	}

	// Rule 2: Kubernetes found root causes and the user explicitly pointed
	// at a PR; fetch GitHub context.
	if kubernetesRan && !githubRan {
		if k8s, ok := kubernetesFindings(state.KubernetesResponse); ok {
			if len(k8s.RootCauses) > 0 && containsAny(state.UserPrompt, prMentionKeywords) {
				return model.RoutingDecision{
					NextAgent:     model.AgentGitHub,
					Reasoning:     "kubernetes found issues and user mentioned a PR - checking GitHub for related context",
					Confidence:    model.ConfidenceHigh,
					ContextNeeded: []string{},
				}
			}
		}
	}

	return model.RoutingDecision{
		NextAgent:     model.AgentSummarizer,
		Reasoning:     "analysis complete - ready for summarization",
		Confidence:    model.ConfidenceHigh,
		ContextNeeded: []string{},
	}
}

// PostGitHub computes the transition after the GitHub agent node. Explicit
// escalations (route_to_k8s / route_to_jenkins) are honored first; then the
// shared keyword detection runs with Jenkins checked before Kubernetes.
func (r *Router) PostGitHub(state *model.WorkflowState) model.Agent {
	resp := state.GitHubResponse
	if resp == nil {
		return model.AgentSummarizer
	}

	switch resp.Status {
	case model.FindingsStatusRouteToK8s:
		return model.AgentKubernetes
	case model.FindingsStatusRouteToJenkins:
		return model.AgentJenkins
	}

	jenkinsSignal, healthSignal := false, false
	var jenkinsReason, healthReason string

	if gh, ok := githubFindings(resp); ok {
		if matched, reason := githubJenkinsSignal(gh); matched {
			jenkinsSignal, jenkinsReason = true, reason
		}
		if matched, reason := githubHealthSignal(gh); matched {
			healthSignal, healthReason = true, reason
		}
	}

	// The raw prompt can carry the signal even when findings do not.
	if !jenkinsSignal && containsAny(state.UserPrompt, promptJenkinsKeywords) {
		jenkinsSignal, jenkinsReason = true, "user mentioned Jenkins/CI issues"
	}
	if !healthSignal && containsAny(state.UserPrompt, promptHealthKeywords) {
		healthSignal, healthReason = true, "user mentioned health/K8s issues"
	}

	jenkinsRan := state.JenkinsResponse != nil
	kubernetesRan := state.KubernetesResponse != nil

	// Jenkins first: the more specific signal wins.
	if jenkinsSignal && !jenkinsRan {
		r.logger.InfoWithFields("post-github routing to jenkins", logging.Field("reason", jenkinsReason))
		return model.AgentJenkins
	}
	if healthSignal && !kubernetesRan {
		r.logger.InfoWithFields("post-github routing to kubernetes", logging.Field("reason", healthReason))
		return model.AgentKubernetes
	}
	return model.AgentSummarizer
}

// PostKubernetes computes the transition after the Kubernetes agent node.
// It only chains to GitHub when the user explicitly referenced a PR and the
// debugger produced root causes.
func (r *Router) PostKubernetes(state *model.WorkflowState) model.Agent {
	if state.GitHubResponse != nil {
		return model.AgentSummarizer
	}
	k8s, ok := kubernetesFindings(state.KubernetesResponse)
	if !ok || len(k8s.RootCauses) == 0 {
		return model.AgentSummarizer
	}
	if containsAny(state.UserPrompt, prMentionKeywords) {
		r.logger.Info("post-kubernetes routing to github: user mentioned a PR and root causes were found")
		return model.AgentGitHub
	}
	return model.AgentSummarizer
}

// PostJenkins computes the transition after the Jenkins agent node. Build and
// test failures chain to Kubernetes for impact analysis.
func (r *Router) PostJenkins(state *model.WorkflowState) model.Agent {
	jf, ok := jenkinsFindings(state.JenkinsResponse)
	if !ok {
		return model.AgentSummarizer
	}
	if state.KubernetesResponse != nil {
		return model.AgentSummarizer
	}
	switch jf.FailureType {
	case model.FailureTypeBuild, model.FailureTypeTest:
		r.logger.InfoWithFields("post-jenkins routing to kubernetes",
			logging.Field("failure_type", jf.FailureType))
		return model.AgentKubernetes
	}
	return model.AgentSummarizer
}

// githubHealthSignal inspects GitHub findings for CI/CD failures, failing
// checks with health/deployment names, or bot comments flagging health
// checks.
func githubHealthSignal(gh *model.GitHubFindings) (bool, string) {
	if gh.CI.HasFailures || gh.CI.Status == "Failing" {
		return true, "GitHub found CI/CD failures requiring Kubernetes investigation"
	}
	for _, check := range gh.CI.FailingChecks {
		if kw, ok := firstMatch(check.Name, healthCheckKeywords); ok {
			return true, fmt.Sprintf("failing check %q matched health keyword %q", check.Name, kw)
		}
	}
	for _, comment := range gh.BotComments {
		if kw, ok := firstMatch(comment.Body, healthCheckKeywords); ok {
			return true, fmt.Sprintf("bot comment matched health keyword %q", kw)
		}
	}
	if gh.PRHealth == "Has Issues" || gh.PRHealth == "Needs Attention" || gh.PRHealth == "Failing" {
		for _, issue := range gh.Issues {
			if kw, ok := firstMatch(issue, healthCheckKeywords); ok {
				return true, fmt.Sprintf("PR issue matched health keyword %q", kw)
			}
		}
	}
	if kw, ok := firstMatch(gh.AnalysisText, healthCheckKeywords); ok {
		return true, fmt.Sprintf("analysis text matched health keyword %q", kw)
	}
	return false, ""
}

// githubJenkinsSignal inspects GitHub findings for Jenkins/build failures.
func githubJenkinsSignal(gh *model.GitHubFindings) (bool, string) {
	for _, check := range gh.CI.FailingChecks {
		if kw, ok := firstMatch(check.Name, jenkinsKeywords); ok {
			return true, fmt.Sprintf("failing check %q matched jenkins keyword %q", check.Name, kw)
		}
	}
	for _, comment := range gh.BotComments {
		if kw, ok := firstMatch(comment.Body, jenkinsKeywords); ok {
			return true, fmt.Sprintf("bot comment matched jenkins keyword %q", kw)
		}
	}
	return false, ""
}

func githubFindings(resp *model.AgentResponse) (*model.GitHubFindings, bool) {
	if resp == nil || resp.Findings == nil {
		return nil, false
	}
	gh, ok := resp.Findings.(*model.GitHubFindings)
	return gh, ok
}

func kubernetesFindings(resp *model.AgentResponse) (*model.KubernetesFindings, bool) {
	if resp == nil || resp.Findings == nil {
		return nil, false
	}
	k8s, ok := resp.Findings.(*model.KubernetesFindings)
	return k8s, ok
}

func jenkinsFindings(resp *model.AgentResponse) (*model.JenkinsFindings, bool) {
	if resp == nil || resp.Findings == nil {
		return nil, false
	}
	jf, ok := resp.Findings.(*model.JenkinsFindings)
	return jf, ok
}

// Package correlation connects findings from independent agents into a
// single cross-system verdict. The primary path delegates to the LLM; on any
// failure a deterministic pattern table takes over.
package correlation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/moolen/kairos/internal/logging"
	"github.com/moolen/kairos/internal/provider"
	"github.com/moolen/kairos/internal/triage/model"
)

// Engine correlates per-agent findings.
type Engine struct {
	llm    provider.Provider
	logger *logging.Logger
}

// New creates a correlation Engine. llm may be nil; correlation then always
// uses the pattern fallback.
func New(llm provider.Provider) *Engine {
	return &Engine{
		llm:    llm,
		logger: logging.GetLogger("triage.correlation"),
	}
}

// Correlate produces a correlation verdict from whatever subset of findings
// is present. Callers only invoke it when at least two findings are
// non-empty; with fewer the result is not meaningful.
func (e *Engine) Correlate(ctx context.Context, github *model.GitHubFindings, kubernetes *model.KubernetesFindings, jenkins *model.JenkinsFindings, userPrompt string) *model.CorrelationResult {
	if e.llm == nil {
		return e.fallback(github, kubernetes, jenkins)
	}

	content, err := e.llm.Complete(ctx, correlationSystemPrompt, buildUserPrompt(userPrompt, github, kubernetes, jenkins))
	if err != nil {
		e.logger.WarnWithFields("correlation LLM call failed, using pattern fallback",
			logging.Field("error", err.Error()))
		return e.fallback(github, kubernetes, jenkins)
	}

	raw, err := provider.ExtractJSONObject(content)
	if err != nil {
		e.logger.Warn("correlation response contained no JSON, using pattern fallback")
		return e.fallback(github, kubernetes, jenkins)
	}

	var result model.CorrelationResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		e.logger.WarnWithFields("correlation JSON unparsable, using pattern fallback",
			logging.Field("error", err.Error()))
		return e.fallback(github, kubernetes, jenkins)
	}

	e.logger.InfoWithFields("correlation analysis complete",
		logging.Field("found", result.CorrelationFound),
		logging.Field("type", result.CorrelationType),
		logging.Field("confidence", result.CorrelationConfidence))
	return &result
}

func buildUserPrompt(userPrompt string, github *model.GitHubFindings, kubernetes *model.KubernetesFindings, jenkins *model.JenkinsFindings) string {
	return fmt.Sprintf(correlationUserPromptTemplate,
		userPrompt,
		serializeFindings(github, "No GitHub findings available"),
		serializeFindings(kubernetes, "No Kubernetes findings available"),
		serializeFindings(jenkins, "No Jenkins findings available"),
	)
}

func serializeFindings(f model.Findings, absent string) string {
	switch v := f.(type) {
	case *model.GitHubFindings:
		if v == nil {
			return absent
		}
	case *model.KubernetesFindings:
		if v == nil {
			return absent
		}
	case *model.JenkinsFindings:
		if v == nil {
			return absent
		}
	case nil:
		return absent
	}
	b, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return absent
	}
	return string(b)
}

// fallbackRule is one hand-authored correlation pattern. Rules are evaluated
// in order; the first match wins because patterns are not mutually exclusive.
type fallbackRule struct {
	githubKeywords []string
	k8sKeywords    []string
	result         model.CorrelationResult
}

var fallbackRules = []fallbackRule{
	{
		githubKeywords: []string{"health"},
		k8sKeywords:    []string{"probe", "readiness", "liveness"},
		result: model.CorrelationResult{
			CorrelationFound:      true,
			CorrelationType:       "health_probe",
			CorrelationConfidence: model.ConfidenceHigh,
			RootCauseChain:        "GitHub health checks are failing because Kubernetes liveness/readiness probes are failing, indicating the application is not responding correctly to health checks",
			PrimaryRootCause:      "Application health probe configuration or application startup issues",
			ActionableSolution:    "Fix application health endpoints or adjust probe configuration (initialDelaySeconds, timeoutSeconds)",
		},
	},
	{
		githubKeywords: []string{"jenkins"},
		k8sKeywords:    []string{"image", "pull"},
		result: model.CorrelationResult{
			CorrelationFound:      true,
			CorrelationType:       "image_build",
			CorrelationConfidence: model.ConfidenceHigh,
			RootCauseChain:        "The CI/CD pipeline (Jenkins) is failing to build/push images, causing Kubernetes to fail pulling the container image",
			PrimaryRootCause:      "CI/CD pipeline build or image registry issues",
			ActionableSolution:    "Fix the Jenkins build pipeline and verify image registry credentials and connectivity",
		},
	},
	{
		githubKeywords: []string{"build"},
		k8sKeywords:    []string{"crash", "restart"},
		result: model.CorrelationResult{
			CorrelationFound:      true,
			CorrelationType:       "application_code",
			CorrelationConfidence: model.ConfidenceMedium,
			RootCauseChain:        "The build is failing or producing faulty code, causing the application to crash when deployed to Kubernetes",
			PrimaryRootCause:      "Application code issues or build configuration problems",
			ActionableSolution:    "Review application logs, fix code issues, and ensure proper build configuration",
		},
	},
	{
		githubKeywords: []string{"deployment"},
		k8sKeywords:    []string{"secret", "config"},
		result: model.CorrelationResult{
			CorrelationFound:      true,
			CorrelationType:       "configuration",
			CorrelationConfidence: model.ConfidenceHigh,
			RootCauseChain:        "The deployment is failing because Kubernetes pods cannot start due to missing secrets or configuration",
			PrimaryRootCause:      "Missing or misconfigured secrets/configmaps in Kubernetes",
			ActionableSolution:    "Create or update the required secrets and configmaps in the target namespace",
		},
	},
}

// fallback classifies by keyword patterns over the textual representations
// of the GitHub and Kubernetes findings.
func (e *Engine) fallback(github *model.GitHubFindings, kubernetes *model.KubernetesFindings, jenkins *model.JenkinsFindings) *model.CorrelationResult {
	githubText := githubIssueText(github, jenkins)
	k8sText := kubernetesIssueText(kubernetes)

	for _, rule := range fallbackRules {
		if containsAny(githubText, rule.githubKeywords) && containsAny(k8sText, rule.k8sKeywords) {
			result := rule.result
			return &result
		}
	}

	return &model.CorrelationResult{
		CorrelationFound:      false,
		CorrelationType:       "other",
		CorrelationConfidence: model.ConfidenceLow,
		RootCauseChain:        "No clear correlation found between the reported issues",
		PrimaryRootCause:      "Issues appear to be independent or require deeper investigation",
		ActionableSolution:    "Investigate each system's findings separately",
	}
}

func githubIssueText(github *model.GitHubFindings, jenkins *model.JenkinsFindings) string {
	var parts []string
	if github != nil {
		for _, check := range github.CI.FailingChecks {
			parts = append(parts, check.Name)
		}
		parts = append(parts, github.Issues...)
		parts = append(parts, github.ProblemIdentified, github.RootCause)
	}
	if jenkins != nil {
		// Jenkins findings feed the CI side of the pattern table.
		parts = append(parts, jenkins.FailureType, jenkins.ProblemIdentified, jenkins.RootCause)
	}
	return strings.ToLower(strings.Join(parts, " "))
}

func kubernetesIssueText(kubernetes *model.KubernetesFindings) string {
	if kubernetes == nil {
		return ""
	}
	parts := append([]string{}, kubernetes.RootCauses...)
	parts = append(parts, kubernetes.ProblemIdentified, kubernetes.RootCause)
	for _, pod := range kubernetes.UnhealthyPods {
		parts = append(parts, pod.Reason, pod.Message)
	}
	return strings.ToLower(strings.Join(parts, " "))
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

package correlation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moolen/kairos/internal/provider"
	"github.com/moolen/kairos/internal/triage/model"
)

func TestCorrelateUsesLLMVerdict(t *testing.T) {
	llm := provider.NewMockProvider(`{
		"correlation_found": true,
		"correlation_type": "image_build",
		"correlation_confidence": "high",
		"root_cause_chain": "Jenkins build failed, pods cannot pull the image",
		"primary_root_cause": "Broken image build",
		"actionable_solution": "Fix the build and re-push the image"
	}`)
	engine := New(llm)

	result := engine.Correlate(context.Background(),
		&model.GitHubFindings{PRHealth: "Has Issues"},
		&model.KubernetesFindings{RootCauses: []string{"ImagePullBackOff"}},
		nil, "pods failing after PR merge")

	require.NotNil(t, result)
	assert.True(t, result.CorrelationFound)
	assert.Equal(t, "image_build", result.CorrelationType)
	assert.Equal(t, model.ConfidenceHigh, result.CorrelationConfidence)
	assert.Equal(t, "Broken image build", result.PrimaryRootCause)
}

func TestCorrelateFallbackHealthProbe(t *testing.T) {
	engine := New(provider.NewMockProvider().FailWith(errors.New("timeout")))

	result := engine.Correlate(context.Background(),
		&model.GitHubFindings{Issues: []string{"health check endpoint failing"}},
		&model.KubernetesFindings{
			UnhealthyPods: []model.PodIssue{{Name: "api-1", Reason: "Unhealthy", Message: "readiness probe failed"}},
		},
		nil, "")

	assert.True(t, result.CorrelationFound)
	assert.Equal(t, "health_probe", result.CorrelationType)
	assert.Equal(t, model.ConfidenceHigh, result.CorrelationConfidence)
}

func TestCorrelateFallbackImageBuildFromJenkinsFindings(t *testing.T) {
	engine := New(nil)

	// The Jenkins failure feeds the CI side of the pattern table even when
	// GitHub never ran.
	result := engine.Correlate(context.Background(),
		nil,
		&model.KubernetesFindings{RootCauses: []string{"Cannot pull image from registry"}},
		&model.JenkinsFindings{FindingsCore: model.FindingsCore{ProblemIdentified: "jenkins docker build failed"}},
		"")

	assert.True(t, result.CorrelationFound)
	assert.Equal(t, "image_build", result.CorrelationType)
}

func TestCorrelateFallbackRuleOrder(t *testing.T) {
	engine := New(nil)

	// Findings match both health_probe and application_code patterns; the
	// earlier rule wins.
	result := engine.Correlate(context.Background(),
		&model.GitHubFindings{Issues: []string{"health check failing", "build broken"}},
		&model.KubernetesFindings{
			RootCauses:    []string{"liveness probe failures"},
			UnhealthyPods: []model.PodIssue{{Name: "api-1", Reason: "CrashLoopBackOff"}},
		},
		nil, "")

	assert.Equal(t, "health_probe", result.CorrelationType)
}

func TestCorrelateFallbackNoMatch(t *testing.T) {
	engine := New(nil)

	result := engine.Correlate(context.Background(),
		&model.GitHubFindings{Issues: []string{"stale branch"}},
		&model.KubernetesFindings{RootCauses: []string{"node disk pressure"}},
		nil, "")

	assert.False(t, result.CorrelationFound)
	assert.Equal(t, "other", result.CorrelationType)
	assert.Equal(t, model.ConfidenceLow, result.CorrelationConfidence)
}

func TestCorrelateMalformedLLMOutputFallsBack(t *testing.T) {
	llm := provider.NewMockProvider("the issues look related to me")
	engine := New(llm)

	result := engine.Correlate(context.Background(),
		&model.GitHubFindings{Issues: []string{"deployment blocked"}},
		&model.KubernetesFindings{RootCauses: []string{"missing secret db-credentials"}},
		nil, "")

	assert.True(t, result.CorrelationFound)
	assert.Equal(t, "configuration", result.CorrelationType)
}

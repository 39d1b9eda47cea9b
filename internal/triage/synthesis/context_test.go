package synthesis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/moolen/kairos/internal/triage/model"
)

func TestServiceFromPodName(t *testing.T) {
	tests := []struct {
		pod  string
		want string
	}{
		{"payment-service-7d9f8b6c5d-x2vqp", "payment-service"},
		{"api-gateway-abcde", "api-gateway"},
		{"standalone", "standalone"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ServiceFromPodName(tt.pod), "pod %q", tt.pod)
	}
}

func TestBuildRAGContext(t *testing.T) {
	state := model.NewWorkflowState("r", "prompt", nil)
	state.KubernetesResponse = &model.AgentResponse{
		AgentName: "kubernetes",
		Findings: &model.KubernetesFindings{
			UnhealthyPods: []model.PodIssue{
				{Name: "payments-7d9f8b6c5d-x2vqp", Reason: "CrashLoopBackOff"},
			},
			RootCauses: []string{"OOMKilled"},
		},
	}
	state.JenkinsResponse = &model.AgentResponse{
		AgentName: "jenkins",
		Findings:  &model.JenkinsFindings{FailureType: model.FailureTypeBuild},
	}
	target := &model.TargetInfo{
		Environment: "stage",
		Namespaces:  []string{"acme-payments-stage"},
		IssueType:   "pod_crash",
	}

	ragCtx := BuildRAGContext(state, target)

	assert.Equal(t, "stage", ragCtx.Environment)
	assert.Equal(t, "acme-payments-stage", ragCtx.Namespace)
	assert.Equal(t, "pod_crash", ragCtx.IssueType)
	assert.Contains(t, ragCtx.Services, "payments")
	assert.Contains(t, ragCtx.ErrorPatterns, "CrashLoopBackOff")
	assert.Contains(t, ragCtx.ErrorPatterns, "OOMKilled")
	assert.Contains(t, ragCtx.ErrorPatterns, model.FailureTypeBuild)
}

func TestProblemDescription(t *testing.T) {
	state := model.NewWorkflowState("r", "payments acting up", nil)
	assert.Equal(t, "payments acting up", ProblemDescription(state))

	state.KubernetesResponse = &model.AgentResponse{
		AgentName: "kubernetes",
		Findings: &model.KubernetesFindings{
			FindingsCore: model.FindingsCore{
				ProblemIdentified: "Pods crash looping",
				RootCause:         "OOMKilled",
			},
		},
	}
	state.Correlation = &model.CorrelationResult{PrimaryRootCause: "Memory limit too low"}

	desc := ProblemDescription(state)
	assert.Contains(t, desc, "Memory limit too low")
	assert.Contains(t, desc, "Pods crash looping")
	assert.Contains(t, desc, "OOMKilled")
}

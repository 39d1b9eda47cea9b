package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewWorkflowState(t *testing.T) {
	state := NewWorkflowState("req-1", "pods are crashing", nil)

	assert.Equal(t, "req-1", state.RequestID)
	assert.Equal(t, "pods are crashing", state.UserPrompt)
	assert.Equal(t, RunStatusRunning, state.Status)
	assert.NotNil(t, state.Context)
	assert.Empty(t, state.RoutingDecisions)
	assert.Empty(t, state.ExecutionHistory)

	for _, agent := range []Agent{AgentGitHub, AgentKubernetes, AgentJenkins} {
		assert.Equal(t, StatusNotExecuted, state.AgentStatus[agent])
	}
}

func TestRecordStepNumbersSequentially(t *testing.T) {
	state := NewWorkflowState("req-1", "prompt", nil)

	state.RecordStep(ExecutionStep{Action: "routing_decision", Agent: "github"})
	state.RecordStep(ExecutionStep{Action: "agent_executed", Agent: "github"})

	assert.Equal(t, 1, state.ExecutionHistory[0].Step)
	assert.Equal(t, 2, state.ExecutionHistory[1].Step)
}

func TestAgentsWithFindings(t *testing.T) {
	state := NewWorkflowState("req-1", "prompt", nil)
	assert.Equal(t, 0, state.AgentsWithFindings())

	// Empty findings do not count.
	state.GitHubResponse = &AgentResponse{
		AgentName: "github",
		Status:    FindingsStatusSuccess,
		Findings:  &GitHubFindings{},
	}
	assert.Equal(t, 0, state.AgentsWithFindings())

	state.GitHubResponse.Findings = &GitHubFindings{PRHealth: "Has Issues"}
	assert.Equal(t, 1, state.AgentsWithFindings())

	state.KubernetesResponse = &AgentResponse{
		AgentName: "kubernetes",
		Status:    FindingsStatusIssuesFound,
		Findings: &KubernetesFindings{
			UnhealthyPods: []PodIssue{{Name: "payments-abc", Reason: "CrashLoopBackOff"}},
		},
	}
	assert.Equal(t, 2, state.AgentsWithFindings())

	// A failed agent without findings does not count.
	state.JenkinsResponse = &AgentResponse{
		AgentName: "jenkins",
		Status:    FindingsStatusFailed,
		Errors:    []ErrorRecord{{Source: "jenkins", Error: "connection refused"}},
	}
	assert.Equal(t, 2, state.AgentsWithFindings())
}

func TestUnsupportedFindingsNeverCount(t *testing.T) {
	f := &UnsupportedFindings{
		RequestType: "general",
		Message:     "Request is outside the supported DevOps domains",
	}
	assert.False(t, f.HasContent())
}

func TestResponseLookup(t *testing.T) {
	state := NewWorkflowState("req-1", "prompt", nil)
	resp := &AgentResponse{AgentName: "jenkins"}
	state.JenkinsResponse = resp

	assert.Equal(t, resp, state.Response(AgentJenkins))
	assert.Nil(t, state.Response(AgentGitHub))
	assert.Nil(t, state.Response(AgentSummarizer))
}

func TestValidAgent(t *testing.T) {
	assert.True(t, ValidAgent(AgentGitHub))
	assert.True(t, ValidAgent(AgentUnavailable))
	assert.False(t, ValidAgent(Agent("database")))
	assert.False(t, ValidAgent(Agent("")))
}

package synthesis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/moolen/kairos/internal/triage/model"
)

func TestCollectActionItemsPriorityOrder(t *testing.T) {
	state := model.NewWorkflowState("r", "prompt", nil)
	state.Correlation = &model.CorrelationResult{
		CorrelationFound:   true,
		ImmediateActions:   []string{"Roll back the deployment"},
		ActionableSolution: "Fix the probe configuration",
	}
	state.HistoricalSolutions = &model.RAGSolution{
		SolutionsFound: true,
		RecommendedSolutions: []model.HistoricalSolution{
			{Solution: "Bump memory limits", JiraID: "OPS-7"},
			{Solution: "Rotate registry credentials"},
			{Solution: "Never reached", JiraID: "OPS-9"},
		},
	}
	state.KubernetesResponse = &model.AgentResponse{
		AgentName:   "kubernetes",
		NextActions: []string{"Check pod logs", "Describe the failing pods"},
	}

	items := CollectActionItems(state)

	assert.Equal(t, []string{
		"Roll back the deployment",
		"Fix the probe configuration",
		"Bump memory limits (see OPS-7)",
		"Rotate registry credentials",
		"Check pod logs",
	}, items)
}

func TestCollectActionItemsCapsAtFive(t *testing.T) {
	state := model.NewWorkflowState("r", "prompt", nil)
	state.KubernetesResponse = &model.AgentResponse{
		AgentName:   "kubernetes",
		NextActions: []string{"a", "b", "c", "d"},
	}
	state.GitHubResponse = &model.AgentResponse{
		AgentName:   "github",
		NextActions: []string{"e", "f", "g"},
	}

	items := CollectActionItems(state)

	assert.Len(t, items, 5)
	// Per-agent contributions are capped at three.
	assert.Equal(t, []string{"a", "b", "c", "e", "f"}, items)
}

func TestCollectActionItemsDeduplicates(t *testing.T) {
	state := model.NewWorkflowState("r", "prompt", nil)
	state.Correlation = &model.CorrelationResult{ActionableSolution: "Check pod logs"}
	state.KubernetesResponse = &model.AgentResponse{
		AgentName:   "kubernetes",
		NextActions: []string{"check POD logs", "  ", "Restart the deployment"},
	}

	items := CollectActionItems(state)

	assert.Equal(t, []string{"Check pod logs", "Restart the deployment"}, items)
}

func TestCollectActionItemsUsesFindingsSolution(t *testing.T) {
	state := model.NewWorkflowState("r", "prompt", nil)
	state.JenkinsResponse = &model.AgentResponse{
		AgentName: "jenkins",
		Findings: &model.JenkinsFindings{
			FindingsCore: model.FindingsCore{
				Solution: []string{"Re-run the build with --no-cache"},
			},
		},
	}

	items := CollectActionItems(state)
	assert.Equal(t, []string{"Re-run the build with --no-cache"}, items)
}

func TestCollectActionItemsEmptyState(t *testing.T) {
	state := model.NewWorkflowState("r", "prompt", nil)
	assert.Empty(t, CollectActionItems(state))
}

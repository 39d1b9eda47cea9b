package synthesis

import (
	"fmt"
	"strings"

	"github.com/moolen/kairos/internal/triage/model"
)

// RenderMarkdown formats a completed run as a developer-facing markdown
// report. The CLI pipes this through a terminal renderer.
func RenderMarkdown(state *model.WorkflowState) string {
	var sb strings.Builder
	resp := state.FinalResponse

	sb.WriteString("# Triage Report\n\n")
	if resp == nil {
		sb.WriteString("No final response was produced.\n")
		return sb.String()
	}

	fmt.Fprintf(&sb, "**Status:** %s  \n", resp.Status)
	fmt.Fprintf(&sb, "**Confidence:** %s (%s)\n\n", resp.ConfidenceLevel, resp.ConfidenceReasoning)

	if resp.ProblemIdentified != "" {
		sb.WriteString("## Problem\n\n")
		sb.WriteString(resp.ProblemIdentified + "\n\n")
	}
	if resp.RootCause != "" {
		sb.WriteString("## Root Cause\n\n")
		sb.WriteString(resp.RootCause + "\n\n")
	}
	if len(resp.Solution) > 0 {
		sb.WriteString("## Solution\n\n")
		for _, step := range resp.Solution {
			sb.WriteString("- " + step + "\n")
		}
		sb.WriteString("\n")
	}
	if len(state.ActionItems) > 0 {
		sb.WriteString("## Action Items\n\n")
		for i, item := range state.ActionItems {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, item)
		}
		sb.WriteString("\n")
	}

	if resp.RAGSolution != nil && resp.RAGSolution.SolutionsFound {
		sb.WriteString("## Historical Solutions\n\n")
		for _, sol := range resp.RAGSolution.RecommendedSolutions {
			if sol.JiraID != "" {
				fmt.Fprintf(&sb, "- %s (%s, similarity %.2f)\n", sol.Solution, sol.JiraID, sol.SimilarityScore)
			} else {
				fmt.Fprintf(&sb, "- %s (similarity %.2f)\n", sol.Solution, sol.SimilarityScore)
			}
		}
		sb.WriteString("\n")
	}

	if c := state.Correlation; c != nil && c.CorrelationFound {
		sb.WriteString("## Correlation\n\n")
		fmt.Fprintf(&sb, "**Type:** %s (%s confidence)  \n", c.CorrelationType, c.CorrelationConfidence)
		sb.WriteString(c.RootCauseChain + "\n\n")
	}

	if resp.Summary != "" {
		sb.WriteString("## Summary\n\n")
		sb.WriteString(resp.Summary + "\n\n")
	}

	if len(state.ExecutionHistory) > 0 {
		sb.WriteString("## Investigation Path\n\n")
		for _, step := range state.ExecutionHistory {
			line := fmt.Sprintf("%d. %s", step.Step, step.Action)
			if step.Agent != "" {
				line += " [" + step.Agent + "]"
			}
			if step.Detail != "" {
				line += ": " + step.Detail
			}
			sb.WriteString(line + "\n")
		}
	}
	return sb.String()
}

package synthesis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/moolen/kairos/internal/logging"
	"github.com/moolen/kairos/internal/provider"
	"github.com/moolen/kairos/internal/triage/model"
)

// Synthesizer builds the final response of a run.
type Synthesizer struct {
	llm    provider.Provider
	logger *logging.Logger
}

// New creates a Synthesizer. llm may be nil; synthesis then always uses the
// deterministic composition of the findings.
func New(llm provider.Provider) *Synthesizer {
	return &Synthesizer{
		llm:    llm,
		logger: logging.GetLogger("triage.synthesis"),
	}
}

type synthesisOutput struct {
	ProblemIdentified string   `json:"problem_identified"`
	RootCause         string   `json:"root_cause"`
	Solution          []string `json:"solution"`
	Summary           string   `json:"summary"`
}

// Synthesize produces the final response. Confidence is always derived from
// the agent findings count; the LLM only contributes prose. The historical
// solutions are carried verbatim.
func (s *Synthesizer) Synthesize(ctx context.Context, state *model.WorkflowState) *model.FinalResponse {
	confident, level, reasoning := DeriveConfidence(state.AgentsWithFindings())

	resp := &model.FinalResponse{
		Status:              runStatus(state),
		Confidence:          confident,
		ConfidenceLevel:     level,
		ConfidenceReasoning: reasoning,
		RAGSolution:         state.HistoricalSolutions,
	}
	if resp.RAGSolution == nil {
		resp.RAGSolution = model.NoRAGSolution("No historical solution available")
	}

	if s.llm != nil {
		if out := s.synthesizeWithLLM(ctx, state); out != nil {
			resp.ProblemIdentified = out.ProblemIdentified
			resp.RootCause = out.RootCause
			resp.Solution = out.Solution
			resp.Summary = out.Summary
			return resp
		}
	}

	s.compose(state, resp)
	return resp
}

func runStatus(state *model.WorkflowState) string {
	for _, r := range []*model.AgentResponse{state.GitHubResponse, state.KubernetesResponse, state.JenkinsResponse} {
		if r != nil && (r.Status == model.FindingsStatusFailed || len(r.Errors) > 0) {
			return model.RunStatusCompletedWithErrors
		}
	}
	return model.RunStatusCompleted
}

func (s *Synthesizer) synthesizeWithLLM(ctx context.Context, state *model.WorkflowState) *synthesisOutput {
	content, err := s.llm.Complete(ctx, finalResponseSystemPrompt, buildSynthesisPrompt(state))
	if err != nil {
		s.logger.WarnWithFields("synthesis LLM call failed, composing deterministically",
			logging.Field("error", err.Error()))
		return nil
	}
	raw, err := provider.ExtractJSONObject(content)
	if err != nil {
		s.logger.Warn("synthesis response contained no JSON, composing deterministically")
		return nil
	}
	var out synthesisOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		s.logger.WarnWithFields("synthesis JSON unparsable, composing deterministically",
			logging.Field("error", err.Error()))
		return nil
	}
	if out.ProblemIdentified == "" && out.Summary == "" {
		return nil
	}
	return &out
}

func buildSynthesisPrompt(state *model.WorkflowState) string {
	findings := map[string]any{}
	for name, resp := range map[string]*model.AgentResponse{
		"github":     state.GitHubResponse,
		"kubernetes": state.KubernetesResponse,
		"jenkins":    state.JenkinsResponse,
	} {
		if resp != nil {
			findings[name] = resp
		}
	}
	findingsJSON, _ := json.MarshalIndent(findings, "", "  ")

	correlation := "No correlation analysis performed"
	if state.Correlation != nil {
		if b, err := json.MarshalIndent(state.Correlation, "", "  "); err == nil {
			correlation = string(b)
		}
	}
	historical := "No historical solutions available"
	if state.HistoricalSolutions != nil && state.HistoricalSolutions.SolutionsFound {
		if b, err := json.MarshalIndent(state.HistoricalSolutions, "", "  "); err == nil {
			historical = string(b)
		}
	}

	return fmt.Sprintf(finalResponseUserPromptTemplate,
		state.UserPrompt, string(findingsJSON), correlation, historical)
}

// compose builds the response without the LLM, preferring the correlation
// verdict, then the strongest single-agent diagnosis.
func (s *Synthesizer) compose(state *model.WorkflowState, resp *model.FinalResponse) {
	if c := state.Correlation; c != nil && c.CorrelationFound {
		resp.ProblemIdentified = c.RootCauseChain
		resp.RootCause = c.PrimaryRootCause
		if c.ActionableSolution != "" {
			resp.Solution = []string{c.ActionableSolution}
		}
		resp.Solution = append(resp.Solution, c.ImmediateActions...)
		resp.Summary = fmt.Sprintf("Correlated %s issue across systems: %s", c.CorrelationType, c.PrimaryRootCause)
		return
	}

	var summaries []string
	for _, r := range []*model.AgentResponse{state.KubernetesResponse, state.GitHubResponse, state.JenkinsResponse} {
		if r == nil || r.Findings == nil {
			continue
		}
		core := r.Findings.Core()
		if resp.ProblemIdentified == "" && core.ProblemIdentified != "" {
			resp.ProblemIdentified = core.ProblemIdentified
			resp.RootCause = core.RootCause
			resp.Solution = core.Solution
		}
		if core.Summary != "" {
			summaries = append(summaries, fmt.Sprintf("%s: %s", r.AgentName, core.Summary))
		}
	}

	if resp.ProblemIdentified == "" {
		resp.ProblemIdentified = "No problems identified"
		resp.RootCause = "Analysis did not surface a root cause"
		resp.Solution = []string{"Provide more detail about the observed problem and retry"}
	}
	if len(summaries) > 0 {
		resp.Summary = strings.Join(summaries, " | ")
	} else {
		resp.Summary = "Analysis completed without findings"
	}
}

// Unsupported is the fixed terminal response for requests outside the scope
// of every analyzer.
func Unsupported(state *model.WorkflowState) *model.FinalResponse {
	return &model.FinalResponse{
		Status:            model.RunStatusUnsupported,
		ProblemIdentified: "Request is outside the supported DevOps triage scope",
		RootCause:         "No agent supports this request type",
		Solution: []string{
			"Supported requests cover GitHub pull requests, Kubernetes application health and Jenkins builds",
			"Rephrase the request with a PR link, namespace or build URL",
		},
		Summary:             "The request could not be mapped to any supported analyzer.",
		RAGSolution:         model.NoRAGSolution("No historical solution available"),
		Confidence:          false,
		ConfidenceLevel:     model.ConfidenceLow,
		ConfidenceReasoning: "No agent produced findings",
	}
}

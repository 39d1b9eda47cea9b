package github

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/moolen/kairos/internal/logging"
	"github.com/moolen/kairos/internal/provider"
	"github.com/moolen/kairos/internal/triage/model"
)

var (
	prURLPattern = regexp.MustCompile(`github\.com/([\w.-]+)/([\w.-]+)/pull/(\d+)`)
	prRefPattern = regexp.MustCompile(`(?i)\bPR\s*#?(\d+)`)

	jenkinsURLPattern = regexp.MustCompile(`https?://[^\s"'<>)]*jenkins[^\s"'<>)]*`)
	environmentHint   = regexp.MustCompile(`(?i)\b(production|prod|staging|stage|dev|development)\b`)
	applicationsHint  = regexp.MustCompile(`(?i)applications?:\s*([\w, .-]+)`)
)

// Health-check phrases in failing checks or bot comments that move the
// investigation into the cluster.
var healthEscalationKeywords = []string{
	"health check", "healthcheck", "readiness", "liveness", "probe",
	"deployment health",
}

// PRRef identifies one pull request.
type PRRef struct {
	Owner  string
	Repo   string
	Number int
}

// ParsePRRef extracts a pull request reference from free text. The default
// owner/repo cover prompts that only carry a bare "PR #123".
func ParsePRRef(text, defaultOwner, defaultRepo string) (PRRef, bool) {
	if m := prURLPattern.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[3])
		return PRRef{Owner: m[1], Repo: m[2], Number: n}, true
	}
	if m := prRefPattern.FindStringSubmatch(text); m != nil && defaultOwner != "" && defaultRepo != "" {
		n, _ := strconv.Atoi(m[1])
		return PRRef{Owner: defaultOwner, Repo: defaultRepo, Number: n}, true
	}
	return PRRef{}, false
}

// Analyzer fetches PR state over MCP and classifies it.
type Analyzer struct {
	tools        ToolCaller
	llm          provider.Provider
	defaultOwner string
	defaultRepo  string
	logger       *logging.Logger
}

// NewAnalyzer creates a GitHub Analyzer. llm may be nil; classification then
// relies on the CI status heuristics alone.
func NewAnalyzer(tools ToolCaller, llm provider.Provider, defaultOwner, defaultRepo string) *Analyzer {
	return &Analyzer{
		tools:        tools,
		llm:          llm,
		defaultOwner: defaultOwner,
		defaultRepo:  defaultRepo,
		logger:       logging.GetLogger("agents.github"),
	}
}

type statusEntry struct {
	Context     string `json:"context"`
	State       string `json:"state"`
	Description string `json:"description"`
	TargetURL   string `json:"target_url"`
}

type combinedStatus struct {
	State    string        `json:"state"`
	Statuses []statusEntry `json:"statuses"`
}

type prComment struct {
	User struct {
		Login string `json:"login"`
		Type  string `json:"type"`
	} `json:"user"`
	Body string `json:"body"`
}

type prAssessment struct {
	PRHealth          string   `json:"pr_health"`
	ProblemIdentified string   `json:"problem_identified"`
	RootCause         string   `json:"root_cause"`
	Solution          []string `json:"solution"`
	Summary           string   `json:"summary"`
	Issues            []string `json:"issues"`
}

// Analyze inspects the pull request referenced by the prompt. When the
// failure signature points at cluster health or a Jenkins build, the
// returned findings carry a route_to_k8s / route_to_jenkins status with the
// escalation payload instead of a completed analysis.
func (a *Analyzer) Analyze(ctx context.Context, userPrompt string) (*model.GitHubFindings, error) {
	ref, ok := ParsePRRef(userPrompt, a.defaultOwner, a.defaultRepo)
	if !ok {
		return nil, fmt.Errorf("no pull request reference found in request")
	}
	a.logger.InfoWithFields("analyzing pull request",
		logging.Field("owner", ref.Owner),
		logging.Field("repo", ref.Repo),
		logging.Field("number", ref.Number))

	args := map[string]any{
		"owner":      ref.Owner,
		"repo":       ref.Repo,
		"pullNumber": ref.Number,
	}

	prData, err := a.tools.CallTool(ctx, "get_pull_request", args)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pull request: %w", err)
	}

	statusRaw, err := a.tools.CallTool(ctx, "get_pull_request_status", args)
	if err != nil {
		a.logger.WarnWithFields("failed to fetch PR status", logging.Field("error", err.Error()))
		statusRaw = "{}"
	}
	commentsRaw, err := a.tools.CallTool(ctx, "get_pull_request_comments", args)
	if err != nil {
		a.logger.WarnWithFields("failed to fetch PR comments", logging.Field("error", err.Error()))
		commentsRaw = "[]"
	}

	findings := &model.GitHubFindings{
		FindingsCore: model.FindingsCore{Status: model.FindingsStatusSuccess},
	}
	findings.CI = parseCIStatus(statusRaw)
	findings.BotComments = parseBotComments(commentsRaw)

	a.assess(ctx, findings, userPrompt, prData, statusRaw, commentsRaw)

	a.detectEscalation(findings)
	return findings, nil
}

func parseCIStatus(raw string) model.CIAnalysis {
	var status combinedStatus
	if err := json.Unmarshal([]byte(raw), &status); err != nil {
		return model.CIAnalysis{}
	}

	ci := model.CIAnalysis{}
	switch status.State {
	case "failure", "error":
		ci.Status = "Failing"
		ci.HasFailures = true
	case "pending":
		ci.Status = "Pending"
	case "success":
		ci.Status = "Passing"
	}
	for _, entry := range status.Statuses {
		if entry.State == "failure" || entry.State == "error" {
			ci.HasFailures = true
			ci.FailingChecks = append(ci.FailingChecks, model.FailingCheck{
				Name:    entry.Context,
				Details: entry.Description,
				URL:     entry.TargetURL,
			})
		}
	}
	return ci
}

func parseBotComments(raw string) []model.BotComment {
	var comments []prComment
	if err := json.Unmarshal([]byte(raw), &comments); err != nil {
		return nil
	}
	var bots []model.BotComment
	for _, c := range comments {
		if c.User.Type == "Bot" || strings.HasSuffix(c.User.Login, "[bot]") {
			bots = append(bots, model.BotComment{Author: c.User.Login, Body: c.Body})
		}
	}
	return bots
}

// assess runs the LLM classification; on any failure it falls back to a
// heuristic derived from the CI state.
func (a *Analyzer) assess(ctx context.Context, findings *model.GitHubFindings, userPrompt, prData, statusRaw, commentsRaw string) {
	if a.llm != nil {
		content, err := a.llm.Complete(ctx, prAnalysisSystemPrompt,
			fmt.Sprintf(prAnalysisUserPromptTemplate, userPrompt, prData, statusRaw, commentsRaw))
		if err == nil {
			if raw, jerr := provider.ExtractJSONObject(content); jerr == nil {
				var out prAssessment
				if json.Unmarshal([]byte(raw), &out) == nil && out.PRHealth != "" {
					findings.PRHealth = out.PRHealth
					findings.ProblemIdentified = out.ProblemIdentified
					findings.RootCause = out.RootCause
					findings.Solution = out.Solution
					findings.Summary = out.Summary
					findings.Issues = out.Issues
					findings.AnalysisText = out.Summary
					return
				}
			}
		} else {
			a.logger.WarnWithFields("PR assessment LLM call failed",
				logging.Field("error", err.Error()))
		}
	}

	if findings.CI.HasFailures {
		findings.PRHealth = "Has Issues"
		findings.ProblemIdentified = fmt.Sprintf("%d failing CI checks", len(findings.CI.FailingChecks))
		for _, check := range findings.CI.FailingChecks {
			findings.Issues = append(findings.Issues, check.Name)
		}
		findings.Summary = "Pull request has failing CI checks"
	} else {
		findings.PRHealth = "Healthy"
		findings.Summary = "Pull request checks are passing"
	}
}

// detectEscalation scans failing checks and bot comments for signatures that
// belong to another agent. Jenkins wins over health checks when both appear:
// a broken build explains failing health checks, not the other way around.
func (a *Analyzer) detectEscalation(findings *model.GitHubFindings) {
	var jenkinsURLs []string
	var healthFailures []string
	var escalationText []string

	for _, check := range findings.CI.FailingChecks {
		text := check.Name + " " + check.Details
		jenkinsURLs = append(jenkinsURLs, jenkinsURLPattern.FindAllString(check.URL+" "+text, -1)...)
		if containsAnyFold(text, healthEscalationKeywords) {
			healthFailures = append(healthFailures, check.Name)
			escalationText = append(escalationText, text)
		}
	}
	for _, comment := range findings.BotComments {
		jenkinsURLs = append(jenkinsURLs, jenkinsURLPattern.FindAllString(comment.Body, -1)...)
		if containsAnyFold(comment.Body, healthEscalationKeywords) {
			healthFailures = append(healthFailures, "bot comment from "+comment.Author)
			escalationText = append(escalationText, comment.Body)
		}
	}

	if len(jenkinsURLs) > 0 {
		findings.Status = model.FindingsStatusRouteToJenkins
		findings.JenkinsFailure = &model.JenkinsEscalation{JenkinsURLs: dedupe(jenkinsURLs)}
		a.logger.InfoWithFields("escalating to jenkins agent",
			logging.Field("urls", len(findings.JenkinsFailure.JenkinsURLs)))
		return
	}

	if len(healthFailures) > 0 {
		esc := &model.HealthCheckEscalation{Failures: healthFailures}
		joined := strings.Join(escalationText, " ")
		if m := environmentHint.FindString(joined); m != "" {
			esc.Environment = normalizeEnvironment(m)
		}
		if m := applicationsHint.FindStringSubmatch(joined); m != nil {
			for _, app := range strings.Split(m[1], ",") {
				if app = strings.TrimSpace(app); app != "" {
					esc.Applications = append(esc.Applications, app)
				}
			}
		}
		findings.Status = model.FindingsStatusRouteToK8s
		findings.HealthCheck = esc
		a.logger.InfoWithFields("escalating to kubernetes agent",
			logging.Field("environment", esc.Environment),
			logging.Field("failures", len(esc.Failures)))
	}
}

func normalizeEnvironment(env string) string {
	switch strings.ToLower(env) {
	case "prod", "production":
		return "production"
	case "stage", "staging":
		return "staging"
	case "dev", "development":
		return "dev"
	}
	return strings.ToLower(env)
}

func containsAnyFold(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func dedupe(items []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			out = append(out, item)
		}
	}
	return out
}

// Package jenkins implements the Jenkins build analyzer. It pulls build
// metadata and console output over the Jenkins JSON API and classifies the
// failure, with an LLM pass for the diagnosis and a log-pattern fallback.
package jenkins

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/moolen/kairos/internal/logging"
	"github.com/moolen/kairos/internal/provider"
	"github.com/moolen/kairos/internal/triage/model"
)

// maxConsoleBytes bounds how much console log feeds the classification.
const maxConsoleBytes = 64 * 1024

var buildURLPattern = regexp.MustCompile(`https?://[^\s"'<>)]*jenkins[^\s"'<>)]*`)

// Client fetches build data from a Jenkins instance.
type Client struct {
	httpClient *http.Client
	username   string
	apiToken   string
}

// NewClient creates a Jenkins API client. Credentials may be empty for
// anonymously readable instances.
func NewClient(username, apiToken string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		username:   username,
		apiToken:   apiToken,
	}
}

// SetHTTPClient replaces the underlying HTTP client. Used by tests.
func (c *Client) SetHTTPClient(hc *http.Client) { c.httpClient = hc }

// BuildInfo is the subset of the Jenkins build API the analyzer reads.
type BuildInfo struct {
	FullDisplayName string `json:"fullDisplayName"`
	Result          string `json:"result"`
	Building        bool   `json:"building"`
	Duration        int64  `json:"duration"`
	URL             string `json:"url"`
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.apiToken)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("jenkins returned status %d for %s", resp.StatusCode, url)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxConsoleBytes))
}

// FetchBuild retrieves build metadata for a build URL.
func (c *Client) FetchBuild(ctx context.Context, buildURL string) (*BuildInfo, error) {
	body, err := c.get(ctx, strings.TrimSuffix(buildURL, "/")+"/api/json")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch build info: %w", err)
	}
	var info BuildInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("failed to parse build info: %w", err)
	}
	return &info, nil
}

// FetchConsole retrieves the tail of the console log for a build URL.
func (c *Client) FetchConsole(ctx context.Context, buildURL string) (string, error) {
	body, err := c.get(ctx, strings.TrimSuffix(buildURL, "/")+"/consoleText")
	if err != nil {
		return "", fmt.Errorf("failed to fetch console output: %w", err)
	}
	return string(body), nil
}

// BuildFetcher is the surface the analyzer needs from the Jenkins API.
type BuildFetcher interface {
	FetchBuild(ctx context.Context, buildURL string) (*BuildInfo, error)
	FetchConsole(ctx context.Context, buildURL string) (string, error)
}

// Analyzer classifies Jenkins build failures.
type Analyzer struct {
	client BuildFetcher
	llm    provider.Provider
	logger *logging.Logger
}

// NewAnalyzer creates a Jenkins Analyzer. llm may be nil; classification then
// uses the log-pattern table only.
func NewAnalyzer(client BuildFetcher, llm provider.Provider) *Analyzer {
	return &Analyzer{
		client: client,
		llm:    llm,
		logger: logging.GetLogger("agents.jenkins"),
	}
}

// ExtractBuildURL pulls the first Jenkins URL out of free text.
func ExtractBuildURL(text string) (string, bool) {
	if m := buildURLPattern.FindString(text); m != "" {
		return m, true
	}
	return "", false
}

type failureAssessment struct {
	FailureType       string   `json:"failure_type"`
	Severity          string   `json:"severity"`
	ProblemIdentified string   `json:"problem_identified"`
	RootCause         string   `json:"root_cause"`
	Solution          []string `json:"solution"`
	Summary           string   `json:"summary"`
	ErrorDetails      []string `json:"error_details"`
}

const failureSystemPrompt = `You are a Jenkins build failure analyst. Given build metadata and console output, classify the failure.

failure_type must be one of: build_failure, test_failure, infrastructure_failure, unknown.

Respond with ONLY valid JSON:
{
  "failure_type": "build_failure",
  "severity": "critical|high|medium|low",
  "problem_identified": "one sentence",
  "root_cause": "most likely root cause",
  "solution": ["concrete fix step"],
  "summary": "two sentence overview",
  "error_details": ["relevant error line from the log"]
}`

// Analyze fetches and classifies the build referenced by the prompt.
func (a *Analyzer) Analyze(ctx context.Context, userPrompt string) (*model.JenkinsFindings, error) {
	buildURL, ok := ExtractBuildURL(userPrompt)
	if !ok {
		return nil, fmt.Errorf("no Jenkins build URL found in request")
	}
	a.logger.InfoWithFields("analyzing jenkins build", logging.Field("url", buildURL))

	info, err := a.client.FetchBuild(ctx, buildURL)
	if err != nil {
		return nil, err
	}

	findings := &model.JenkinsFindings{
		FindingsCore: model.FindingsCore{Status: model.FindingsStatusSuccess},
		BuildURL:     buildURL,
		BuildStatus:  info.Result,
	}

	if info.Building {
		findings.Summary = fmt.Sprintf("Build %s is still running", info.FullDisplayName)
		return findings, nil
	}
	if info.Result == "SUCCESS" {
		findings.Summary = fmt.Sprintf("Build %s succeeded", info.FullDisplayName)
		return findings, nil
	}

	console, err := a.client.FetchConsole(ctx, buildURL)
	if err != nil {
		a.logger.WarnWithFields("console fetch failed, classifying from metadata only",
			logging.Field("error", err.Error()))
	}

	if a.llm != nil {
		if assessed := a.assessWithLLM(ctx, info, console); assessed != nil {
			applyAssessment(findings, assessed)
			return findings, nil
		}
	}
	classifyFromLog(findings, info, console)
	return findings, nil
}

func (a *Analyzer) assessWithLLM(ctx context.Context, info *BuildInfo, console string) *failureAssessment {
	userPrompt := fmt.Sprintf("Build: %s\nResult: %s\n\nConsole output:\n%s",
		info.FullDisplayName, info.Result, console)
	content, err := a.llm.Complete(ctx, failureSystemPrompt, userPrompt)
	if err != nil {
		a.logger.WarnWithFields("failure classification LLM call failed",
			logging.Field("error", err.Error()))
		return nil
	}
	raw, err := provider.ExtractJSONObject(content)
	if err != nil {
		return nil
	}
	var out failureAssessment
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	switch out.FailureType {
	case model.FailureTypeBuild, model.FailureTypeTest, model.FailureTypeInfrastructure, model.FailureTypeUnknown:
	default:
		out.FailureType = model.FailureTypeUnknown
	}
	return &out
}

func applyAssessment(findings *model.JenkinsFindings, a *failureAssessment) {
	findings.FailureType = a.FailureType
	findings.Severity = a.Severity
	findings.ProblemIdentified = a.ProblemIdentified
	findings.RootCause = a.RootCause
	findings.Solution = a.Solution
	findings.Summary = a.Summary
	findings.ErrorDetails = a.ErrorDetails
	findings.AnalysisText = a.Summary
}

// logPattern maps console log signatures to a failure classification.
type logPattern struct {
	keywords    []string
	failureType string
	severity    string
	rootCause   string
}

var logPatterns = []logPattern{
	{
		keywords:    []string{"compilation error", "compile failed", "cannot find symbol", "syntax error"},
		failureType: model.FailureTypeBuild,
		severity:    "high",
		rootCause:   "Source code does not compile",
	},
	{
		keywords:    []string{"tests failed", "test failure", "assertion", "failures: "},
		failureType: model.FailureTypeTest,
		severity:    "medium",
		rootCause:   "One or more tests are failing",
	},
	{
		keywords:    []string{"no space left", "connection refused", "timed out", "node went offline", "agent disconnected"},
		failureType: model.FailureTypeInfrastructure,
		severity:    "high",
		rootCause:   "Build infrastructure problem, not a code issue",
	},
	{
		keywords:    []string{"docker build", "image push", "registry"},
		failureType: model.FailureTypeBuild,
		severity:    "high",
		rootCause:   "Container image build or push failed",
	},
}

func classifyFromLog(findings *model.JenkinsFindings, info *BuildInfo, console string) {
	lower := strings.ToLower(console)
	findings.FailureType = model.FailureTypeUnknown
	findings.Severity = "medium"

	for _, pattern := range logPatterns {
		for _, kw := range pattern.keywords {
			if strings.Contains(lower, kw) {
				findings.FailureType = pattern.failureType
				findings.Severity = pattern.severity
				findings.RootCause = pattern.rootCause
				findings.ErrorDetails = append(findings.ErrorDetails, extractErrorLines(console, kw)...)
				break
			}
		}
		if findings.FailureType != model.FailureTypeUnknown {
			break
		}
	}

	findings.ProblemIdentified = fmt.Sprintf("Build %s finished with result %s", info.FullDisplayName, info.Result)
	if findings.RootCause == "" {
		findings.RootCause = "Build failed for an undetermined reason, inspect the console output"
	}
	findings.Solution = []string{"Review the console output of the failed build", "Re-run the build after addressing the root cause"}
	findings.Summary = fmt.Sprintf("%s (%s)", findings.ProblemIdentified, findings.FailureType)
}

// extractErrorLines returns up to three log lines containing the keyword.
func extractErrorLines(console, keyword string) []string {
	var lines []string
	for _, line := range strings.Split(console, "\n") {
		if strings.Contains(strings.ToLower(line), keyword) {
			lines = append(lines, strings.TrimSpace(line))
			if len(lines) == 3 {
				break
			}
		}
	}
	return lines
}

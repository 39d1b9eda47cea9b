package github

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moolen/kairos/internal/triage/model"
)

// scriptedTools replays canned tool results keyed by tool name.
type scriptedTools struct {
	results map[string]string
	errs    map[string]error
	calls   []string
}

func (s *scriptedTools) CallTool(_ context.Context, name string, _ map[string]any) (string, error) {
	s.calls = append(s.calls, name)
	if err, ok := s.errs[name]; ok {
		return "", err
	}
	if res, ok := s.results[name]; ok {
		return res, nil
	}
	return "{}", nil
}

func TestParsePRRef(t *testing.T) {
	ref, ok := ParsePRRef("see https://github.com/acme/shop/pull/123 for details", "", "")
	require.True(t, ok)
	assert.Equal(t, PRRef{Owner: "acme", Repo: "shop", Number: 123}, ref)

	ref, ok = ParsePRRef("please check PR #42", "acme", "shop")
	require.True(t, ok)
	assert.Equal(t, PRRef{Owner: "acme", Repo: "shop", Number: 42}, ref)

	// Bare references need a configured default repo.
	_, ok = ParsePRRef("please check PR #42", "", "")
	assert.False(t, ok)

	_, ok = ParsePRRef("nothing relevant here", "acme", "shop")
	assert.False(t, ok)
}

func TestAnalyzeNoPRReference(t *testing.T) {
	a := NewAnalyzer(&scriptedTools{}, nil, "", "")
	_, err := a.Analyze(context.Background(), "pods are crashing")
	assert.Error(t, err)
}

func TestAnalyzeHealthyPR(t *testing.T) {
	tools := &scriptedTools{results: map[string]string{
		"get_pull_request":          `{"title": "Add feature", "state": "open"}`,
		"get_pull_request_status":   `{"state": "success", "statuses": []}`,
		"get_pull_request_comments": `[]`,
	}}
	a := NewAnalyzer(tools, nil, "acme", "shop")

	findings, err := a.Analyze(context.Background(), "check PR #7")
	require.NoError(t, err)

	assert.Equal(t, model.FindingsStatusSuccess, findings.Status)
	assert.Equal(t, "Healthy", findings.PRHealth)
	assert.False(t, findings.CI.HasFailures)
	assert.Equal(t, []string{"get_pull_request", "get_pull_request_status", "get_pull_request_comments"}, tools.calls)
}

func TestAnalyzeFailingChecksHeuristic(t *testing.T) {
	tools := &scriptedTools{results: map[string]string{
		"get_pull_request_status": `{
			"state": "failure",
			"statuses": [
				{"context": "unit-tests", "state": "failure", "description": "3 tests failed"},
				{"context": "lint", "state": "success"}
			]
		}`,
	}}
	a := NewAnalyzer(tools, nil, "acme", "shop")

	findings, err := a.Analyze(context.Background(), "check PR #7")
	require.NoError(t, err)

	assert.Equal(t, "Has Issues", findings.PRHealth)
	assert.True(t, findings.CI.HasFailures)
	require.Len(t, findings.CI.FailingChecks, 1)
	assert.Equal(t, "unit-tests", findings.CI.FailingChecks[0].Name)
	assert.Contains(t, findings.Issues, "unit-tests")
}

func TestAnalyzeJenkinsEscalationWinsOverHealth(t *testing.T) {
	// Both signatures present: the Jenkins URL decides the route.
	tools := &scriptedTools{results: map[string]string{
		"get_pull_request_status": `{
			"state": "failure",
			"statuses": [
				{"context": "deploy", "state": "failure",
				 "description": "health check failed after deploy",
				 "target_url": "https://jenkins.acme.com/job/shop/88/"}
			]
		}`,
		"get_pull_request_comments": `[
			{"user": {"login": "ci-bot[bot]", "type": "Bot"},
			 "body": "Build failed: https://jenkins.acme.com/job/shop/88/console"}
		]`,
	}}
	a := NewAnalyzer(tools, nil, "acme", "shop")

	findings, err := a.Analyze(context.Background(), "check PR #7")
	require.NoError(t, err)

	assert.Equal(t, model.FindingsStatusRouteToJenkins, findings.Status)
	require.NotNil(t, findings.JenkinsFailure)
	assert.Contains(t, findings.JenkinsFailure.JenkinsURLs, "https://jenkins.acme.com/job/shop/88/")
	assert.Nil(t, findings.HealthCheck)
}

func TestAnalyzeHealthEscalation(t *testing.T) {
	tools := &scriptedTools{results: map[string]string{
		"get_pull_request_comments": `[
			{"user": {"login": "deploy-bot", "type": "Bot"},
			 "body": "Readiness probe failing in staging. Applications: payments, checkout"}
		]`,
	}}
	a := NewAnalyzer(tools, nil, "acme", "shop")

	findings, err := a.Analyze(context.Background(), "check PR #7")
	require.NoError(t, err)

	assert.Equal(t, model.FindingsStatusRouteToK8s, findings.Status)
	require.NotNil(t, findings.HealthCheck)
	assert.Equal(t, "staging", findings.HealthCheck.Environment)
	assert.Equal(t, []string{"payments", "checkout"}, findings.HealthCheck.Applications)
	assert.NotEmpty(t, findings.HealthCheck.Failures)
}

func TestAnalyzeToolFailureIsFatalOnlyForPRFetch(t *testing.T) {
	tools := &scriptedTools{
		errs: map[string]error{"get_pull_request": fmt.Errorf("boom")},
	}
	a := NewAnalyzer(tools, nil, "acme", "shop")
	_, err := a.Analyze(context.Background(), "check PR #7")
	assert.Error(t, err)

	// Status and comment fetch failures degrade instead.
	tools = &scriptedTools{
		results: map[string]string{"get_pull_request": `{}`},
		errs: map[string]error{
			"get_pull_request_status":   fmt.Errorf("boom"),
			"get_pull_request_comments": fmt.Errorf("boom"),
		},
	}
	a = NewAnalyzer(tools, nil, "acme", "shop")
	findings, err := a.Analyze(context.Background(), "check PR #7")
	require.NoError(t, err)
	assert.Equal(t, "Healthy", findings.PRHealth)
}

func TestParseBotComments(t *testing.T) {
	raw := `[
		{"user": {"login": "alice", "type": "User"}, "body": "lgtm"},
		{"user": {"login": "renovate[bot]", "type": "User"}, "body": "update deps"},
		{"user": {"login": "ci", "type": "Bot"}, "body": "build ok"}
	]`
	bots := parseBotComments(raw)

	require.Len(t, bots, 2)
	assert.Equal(t, "renovate[bot]", bots[0].Author)
	assert.Equal(t, "ci", bots[1].Author)
}

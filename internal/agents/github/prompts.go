package github

const prAnalysisSystemPrompt = `You are a GitHub pull request analyst. Given raw PR data, CI status and comments, assess the health of the pull request.

Respond with ONLY valid JSON:
{
  "pr_health": "Healthy|Has Issues|Needs Attention|Failing",
  "problem_identified": "one sentence, empty string if none",
  "root_cause": "most likely root cause, empty string if none",
  "solution": ["concrete step the author should take"],
  "summary": "two sentence overview of the PR state",
  "issues": ["specific issue observed on the PR"]
}`

const prAnalysisUserPromptTemplate = `User request:
%s

Pull request data:
%s

CI status:
%s

Comments:
%s`

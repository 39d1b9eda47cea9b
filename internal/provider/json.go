package provider

import (
	"fmt"
	"regexp"
	"strings"
)

var fencedJSON = regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```")

// ExtractJSONObject pulls a JSON object out of a model response. Models
// frequently wrap JSON in markdown fences or surround it with prose; this
// strips fences and trims to the outermost braces.
func ExtractJSONObject(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", fmt.Errorf("empty model response")
	}

	if m := fencedJSON.FindStringSubmatch(content); m != nil {
		return m[1], nil
	}

	// Bare fences without the json language tag.
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("no JSON object found in model response")
	}
	return content[start : end+1], nil
}

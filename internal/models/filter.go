package models

import (
	"fmt"

	"github.com/sahilm/fuzzy"
)

type issueSource []*Issue

func (s issueSource) String(i int) string {
	issue := s[i]
	return fmt.Sprintf("#%d %s %s %s", issue.LocalID, issue.Summary, issue.CompleteLabels(), issue.Assignee)
}

func (s issueSource) Len() int { return len(s) }

// FilterIssues returns the issues fuzzily matching query, best match
// first. An empty query returns issues unchanged.
func FilterIssues(issues []*Issue, query string) []*Issue {
	if query == "" {
		return issues
	}
	matches := fuzzy.FindFrom(query, issueSource(issues))
	out := make([]*Issue, len(matches))
	for i, m := range matches {
		out[i] = issues[m.Index]
	}
	return out
}

package models

import "strings"

// BugLabel is the label that marks an issue as a bug
const BugLabel = "bug"

// SplitBugLabel removes every "bug" label from raw and reports whether
// one was present
func SplitBugLabel(raw []string) (labels []string, bug bool) {
	labels = make([]string, 0, len(raw))
	for _, label := range raw {
		if label == BugLabel {
			bug = true
			continue
		}
		labels = append(labels, label)
	}
	return labels, bug
}

// LabelsText joins labels with ", "
func LabelsText(labels []string) string {
	return strings.Join(labels, ", ")
}

// CompleteLabelsText returns the label text sent to the tracker: "bug"
// first when bug is set, followed by the other labels.
func CompleteLabelsText(labels []string, bug bool) string {
	if bug {
		return LabelsText(append([]string{BugLabel}, labels...))
	}
	return LabelsText(labels)
}

// ParseLabels splits comma-separated user input into trimmed, non-empty labels
func ParseLabels(text string) []string {
	var labels []string
	for _, part := range strings.Split(text, ",") {
		if label := strings.TrimSpace(part); label != "" {
			labels = append(labels, label)
		}
	}
	return labels
}

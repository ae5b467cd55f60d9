package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/tgienger/labtask/internal/models"
)

func TestParseIssueNumber(t *testing.T) {
	tests := []struct {
		arg     string
		want    int
		wantErr bool
	}{
		{"7", 7, false},
		{"#12", 12, false},
		{"", 0, true},
		{"#", 0, true},
		{"0", 0, true},
		{"-3", 0, true},
		{"seven", 0, true},
	}
	for _, tt := range tests {
		got, err := parseIssueNumber(tt.arg)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseIssueNumber(%q) error = %v, wantErr %v", tt.arg, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseIssueNumber(%q) = %d, want %d", tt.arg, got, tt.want)
		}
	}
}

func TestMaskToken(t *testing.T) {
	tests := map[string]string{
		"":             "(not set)",
		"abc":          "***",
		"glpat-secret": "********cret",
	}
	for token, want := range tests {
		if got := maskToken(token); got != want {
			t.Errorf("maskToken(%q) = %q, want %q", token, got, want)
		}
	}
}

func TestTransitionPickers(t *testing.T) {
	tests := []struct {
		name  string
		pick  transitionFunc
		state models.State
		want  models.Transition
		ok    bool
	}{
		{"start open", startTransition, models.StateOpen, models.OpenToActive, true},
		{"start closed", startTransition, models.StateClosed, models.ClosedToActive, true},
		{"start active", startTransition, models.StateActive, 0, false},
		{"stop active", stopTransition, models.StateActive, models.ActiveToOpen, true},
		{"stop open", stopTransition, models.StateOpen, 0, false},
		{"close open", closeTransition, models.StateOpen, models.OpenToClosed, true},
		{"close active", closeTransition, models.StateActive, models.ActiveToClosed, true},
		{"close closed", closeTransition, models.StateClosed, 0, false},
		{"reopen closed", reopenTransition, models.StateClosed, models.ClosedToOpen, true},
		{"reopen open", reopenTransition, models.StateOpen, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.pick(&models.Issue{LocalID: 7, State: tt.state})
			if (err == nil) != tt.ok {
				t.Fatalf("error = %v, want ok %v", err, tt.ok)
			}
			if tt.ok && got != tt.want {
				t.Errorf("transition = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTerminalConfirmer(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		interactive bool
		want        bool
	}{
		{"yes", "y\n", true, true},
		{"full yes", "YES\n", true, true},
		{"no", "n\n", true, false},
		{"empty line", "\n", true, false},
		{"no input", "", true, false},
		{"not a terminal", "y\n", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			c := &terminalConfirmer{in: strings.NewReader(tt.input), out: &out, interactive: tt.interactive}

			var got, answered bool
			c.Confirm("Close issue #7?", func(yes bool) {
				got = yes
				answered = true
			})
			if !answered {
				t.Fatal("no answer")
			}
			if got != tt.want {
				t.Errorf("answer = %v, want %v", got, tt.want)
			}
			if !strings.Contains(out.String(), "Close issue #7?") {
				t.Errorf("question not printed: %q", out.String())
			}
		})
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("0b9f5a4e-6c1d-4e1f-9a55-2f7e4c1b8d20"); got != "0b9f5a4e" {
		t.Errorf("shortID = %q", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Errorf("shortID = %q", got)
	}
}

func TestPrintIssues(t *testing.T) {
	issues := []*models.Issue{
		{ID: 70, LocalID: 7, Summary: "Fix login", State: models.StateActive, Author: &models.User{ID: 1, Name: "Alice"}},
		{ID: 80, LocalID: 8, Summary: "Crash", Bug: true, Labels: []string{"urgent"}, Author: &models.User{ID: 2, Name: "Bob"}},
	}

	var out bytes.Buffer
	printIssues(&out, issues)
	for _, want := range []string{"#7", "Fix login", "active", "#8", "bug, urgent", "Bob"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output misses %q:\n%s", want, out.String())
		}
	}
}

func TestPrintIssue(t *testing.T) {
	issue := &models.Issue{
		ID: 70, LocalID: 7, Summary: "Fix login", Description: "Steps to reproduce",
		State: models.StateOpen, Bug: true, Author: &models.User{ID: 1, Name: "Alice"},
	}

	var out bytes.Buffer
	printIssue(&out, issue, "0b9f5a4e-6c1d-4e1f-9a55-2f7e4c1b8d20")
	for _, want := range []string{"#7 Fix login", "open", "bug", "Assignee:", "Alice", "0b9f5a4e", "Steps to reproduce"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output misses %q:\n%s", want, out.String())
		}
	}

	out.Reset()
	printIssue(&out, issue, "")
	if strings.Contains(out.String(), "Task:") {
		t.Errorf("task shown without association:\n%s", out.String())
	}
}

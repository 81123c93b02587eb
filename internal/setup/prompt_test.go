package setup

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestPrompter_String(t *testing.T) {
	tests := []struct {
		name, input, def, want string
	}{
		{"typed value", "hello\n", "x", "hello"},
		{"default on enter", "\n", "x", "x"},
		{"default on EOF", "", "x", "x"},
		{"trims", "  spaced  \n", "", "spaced"},
		{"required repeats", "\n\nfinally\n", "", "finally"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPrompter(strings.NewReader(tt.input), &bytes.Buffer{})
			if got := p.String("Label", tt.def); got != tt.want {
				t.Errorf("String = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrompter_Confirm(t *testing.T) {
	tests := []struct {
		input      string
		defaultYes bool
		want       bool
	}{
		{"y\n", false, true},
		{"YES\n", false, true},
		{"n\n", true, false},
		{"\n", true, true},
		{"\n", false, false},
		{"", true, true},
	}
	for _, tt := range tests {
		p := NewPrompter(strings.NewReader(tt.input), &bytes.Buffer{})
		if got := p.Confirm("Sure?", tt.defaultYes); got != tt.want {
			t.Errorf("Confirm(%q, %v) = %v, want %v", tt.input, tt.defaultYes, got, tt.want)
		}
	}
}

func TestPrompter_Select(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("0\nabc\n2\n"), &out)
	idx, err := p.Select("Pick", []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if idx != 1 {
		t.Errorf("idx = %d, want 1", idx)
	}
	if strings.Count(out.String(), "enter a number between 1 and 3") != 2 {
		t.Errorf("expected two re-prompts, got:\n%s", out.String())
	}
}

func TestPrompter_SelectErrors(t *testing.T) {
	p := NewPrompter(strings.NewReader(""), &bytes.Buffer{})
	if _, err := p.Select("Pick", nil); err == nil {
		t.Error("expected error for no options")
	}
	if _, err := p.Select("Pick", []string{"a"}); err == nil {
		t.Error("expected error on EOF")
	}
}

func TestPrompter_Duration(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("soon\n1s\n2h\n90s\n"), &out)
	got := p.Duration("Interval", time.Minute, 5*time.Second, time.Hour)
	if got != 90*time.Second {
		t.Errorf("Duration = %v, want 90s", got)
	}
	if !strings.Contains(out.String(), "not a duration") {
		t.Errorf("missing parse re-prompt:\n%s", out.String())
	}
	if strings.Count(out.String(), "must be between") != 2 {
		t.Errorf("expected two range re-prompts:\n%s", out.String())
	}

	p = NewPrompter(strings.NewReader("\n"), &bytes.Buffer{})
	if got := p.Duration("Interval", time.Minute, 5*time.Second, time.Hour); got != time.Minute {
		t.Errorf("Duration default = %v, want 1m", got)
	}
}

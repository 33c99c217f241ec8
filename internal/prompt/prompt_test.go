package prompt

import (
	"strings"
	"testing"
	"time"
)

func TestAssembleReplacesPlaceholder(t *testing.T) {
	a := NewAssembler(0, 0)
	got := a.Assemble("coffee brewing", "Write about {topic}. Again: {topic}.")

	if strings.Contains(got, TopicPlaceholder) {
		t.Errorf("Expected every placeholder to be replaced, got:\n%s", got)
	}
	if strings.Count(got, "coffee brewing") != 2 {
		t.Errorf("Expected topic to appear twice, got:\n%s", got)
	}
	if strings.Contains(got, "Topic: coffee brewing") {
		t.Error("Expected no topic prefix when the placeholder is present")
	}
}

func TestAssembleNeverLeavesPlaceholder(t *testing.T) {
	tests := []struct {
		name     string
		topic    string
		template string
		want     string
	}{
		{"placeholder in topic", "a {topic} b", "X {topic} Y", "X a topic b Y"},
		{"topic is placeholder", "{topic}", "About {topic}", "About topic"},
		{"placeholder in topic without template marker", "{topic}{topic}", "Write.", "Topic: topictopic"},
	}

	a := NewAssembler(0, 0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.Assemble(tt.topic, tt.template)
			if n := strings.Count(got, TopicPlaceholder); n != 0 {
				t.Errorf("Expected no placeholder left, found %d in:\n%s", n, got)
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("Expected %q in prompt, got:\n%s", tt.want, got)
			}
		})
	}
}

func TestAssembleWithoutPlaceholder(t *testing.T) {
	a := NewAssembler(0, 0)
	got := a.Assemble("coffee brewing", "Write a blog post.")

	if !strings.Contains(got, "Topic: coffee brewing\n\nWrite a blog post.") {
		t.Errorf("Expected topic prefix before the template body, got:\n%s", got)
	}
}

func TestAssembleStructure(t *testing.T) {
	a := NewAssembler(1600, 2000)
	got := a.Assemble("x", "{topic}")

	directiveEnd := strings.Index(got, "[USER REQUEST]")
	if directiveEnd <= 0 {
		t.Fatalf("Expected style directive before the user request section, got:\n%s", got)
	}
	if !strings.Contains(got[:directiveEnd], "1,600~2,000") {
		t.Errorf("Expected length target in the style directive")
	}
	if !strings.HasSuffix(got, a.MinimumReminder()) {
		t.Errorf("Expected prompt to end with the length reminder, got:\n%s", got)
	}
	if !strings.Contains(a.MinimumReminder(), "1,600") {
		t.Errorf("Expected reminder to restate the minimum, got %q", a.MinimumReminder())
	}
}

func TestNewAssemblerBounds(t *testing.T) {
	tests := []struct {
		name           string
		minIn, maxIn   int
		minOut, maxOut int
	}{
		{"defaults", 0, 0, DefaultMinChars, DefaultMaxChars},
		{"custom", 800, 1200, 800, 1200},
		{"max below min", 2500, 100, 2500, 2500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAssembler(tt.minIn, tt.maxIn)
			if a.MinChars != tt.minOut || a.MaxChars != tt.maxOut {
				t.Errorf("Expected %d-%d, got %d-%d", tt.minOut, tt.maxOut, a.MinChars, a.MaxChars)
			}
		})
	}
}

func TestFormatCount(t *testing.T) {
	tests := map[int]string{0: "0", 999: "999", 1600: "1,600", 12345: "12,345", 1000000: "1,000,000"}
	for in, want := range tests {
		if got := formatCount(in); got != want {
			t.Errorf("formatCount(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestRefinementPrompts(t *testing.T) {
	content := "<h2>제목</h2><p>본문이에요.</p>"
	asOf := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)

	fact := FactCheckPrompt(content, "커피", asOf)
	for _, want := range []string{content, "커피", "2026년 2월", `{"content"`} {
		if !strings.Contains(fact, want) {
			t.Errorf("Expected fact-check prompt to contain %q", want)
		}
	}

	spell := SpellCheckPrompt(content)
	for _, want := range []string{content, "HTML 태그", `{"content"`} {
		if !strings.Contains(spell, want) {
			t.Errorf("Expected spell-check prompt to contain %q", want)
		}
	}
	if strings.Contains(spell, "1,600") || strings.Contains(fact, "1,600") {
		t.Error("Expected refinement prompts to carry no length target")
	}
}

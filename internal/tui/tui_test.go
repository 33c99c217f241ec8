package tui

import (
	"autoblog/internal/core"
	"autoblog/internal/generator"
	"autoblog/internal/llm"
	"autoblog/internal/prompt"
	"autoblog/internal/refine"
	"autoblog/internal/textstats"
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type echoProvider struct{}

func (echoProvider) Name() string { return llm.GeminiProviderName }

func (echoProvider) Supports(model string) bool { return strings.HasPrefix(model, "stub-") }

func (echoProvider) Call(ctx context.Context, apiKey string, req llm.Request) (string, error) {
	if strings.Contains(req.Prompt, "[USER REQUEST]") {
		return `{"title":"커피 추출 가이드","content":"<p>맛있는 커피</p>","tags":["커피"]}`, nil
	}
	return `{"content":"<p>더 맛있는 커피</p>"}`, nil
}

func newTestModel(t *testing.T) Model {
	t.Helper()
	invoker := llm.NewInvoker([]llm.Provider{echoProvider{}}, llm.Options{
		Sleep: func(ctx context.Context, d time.Duration) error { return nil },
	})
	pipeline := &generator.Pipeline{
		Assembler:    prompt.NewAssembler(0, 0),
		Invoker:      invoker,
		Refiner:      refine.New(invoker, "stub-a", time.Now(), 0),
		Counter:      textstats.NewCounter(nil),
		DefaultModel: "stub-a",
		Defaults:     llm.Credentials{llm.GeminiProviderName: "key"},
	}
	return New(context.Background(), pipeline, Options{Template: "{topic} 글"})
}

func typeText(m Model, text string) Model {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return next.(Model)
}

// runCmd executes a batch and returns the first pipeline message it produces.
func runCmd(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	if cmd == nil {
		t.Fatal("Expected a command")
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			if c == nil {
				continue
			}
			out := c()
			if _, ok := out.(tickMsg); ok {
				continue
			}
			return out
		}
		t.Fatal("Batch produced no pipeline message")
		return nil
	default:
		return msg
	}
}

func TestEmptyTopicIsRejected(t *testing.T) {
	m := newTestModel(t)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	model := next.(Model)
	if cmd != nil || model.phase != phaseInput || !model.failed {
		t.Errorf("Expected to stay in input with an error, got phase %d", model.phase)
	}
}

func TestGenerateAndRefineFlow(t *testing.T) {
	m := typeText(newTestModel(t), "커피")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	if m.phase != phaseWorking {
		t.Fatalf("Expected working phase, got %d", m.phase)
	}

	next, _ = m.Update(runCmd(t, cmd))
	m = next.(Model)
	if m.phase != phaseResult || m.sess.State != core.StateReady {
		t.Fatalf("Expected ready result, got phase %d state %s: %s", m.phase, m.sess.State, m.status)
	}
	if !strings.Contains(m.View(), "커피 추출 가이드") {
		t.Errorf("Expected title in view, got %q", m.View())
	}
	before := m.sess

	next, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})
	m = next.(Model)
	next, _ = m.Update(runCmd(t, cmd))
	m = next.(Model)
	if !m.sess.SpellChecked || m.sess.Post.Content != "<p>더 맛있는 커피</p>" {
		t.Errorf("Expected spell-checked content, got %+v", m.sess.Post)
	}
	if before.Post.Content != "<p>맛있는 커피</p>" {
		t.Errorf("Refinement should work on a copy, original changed to %q", before.Post.Content)
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
	m = next.(Model)
	if m.phase != phaseInput || len(m.input) != 0 {
		t.Errorf("Expected fresh input after 'n', got phase %d input %q", m.phase, string(m.input))
	}
}

func TestInputEditing(t *testing.T) {
	m := typeText(newTestModel(t), "ab")
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeySpace})
	m = next.(Model)
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	m = next.(Model)
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	m = next.(Model)
	if string(m.input) != "a" {
		t.Errorf("Expected input 'a', got %q", string(m.input))
	}
}

func TestExcerpt(t *testing.T) {
	html := "<h2>제목</h2>\n<p>첫 문단</p>\n\n<p>둘째 문단</p>"
	if got := excerpt(html); got != "제목\n첫 문단\n둘째 문단" {
		t.Errorf("Unexpected excerpt %q", got)
	}
}

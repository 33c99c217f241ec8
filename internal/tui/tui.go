// Package tui is an interactive terminal front end for one generation session.
package tui

import (
	"autoblog/internal/core"
	"autoblog/internal/generator"
	"autoblog/internal/textstats"
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type phase int

const (
	phaseInput phase = iota
	phaseWorking
	phaseResult
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const previewLines = 12

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	promptStyle = lipgloss.NewStyle().Bold(true)
)

// Options configures a TUI session.
type Options struct {
	Template string // Prompt template body; empty means the pipeline default
	Model    string
	APIKey   string
}

type generatedMsg struct {
	sess *core.Session
	err  error
}

type refinedMsg struct {
	sess   *core.Session
	result core.RefinementResult
	err    error
}

type tickMsg struct{}

// Model is the bubbletea model. Pipeline calls run on a copy of the session
// so View never reads state a command is writing.
type Model struct {
	ctx      context.Context
	pipeline *generator.Pipeline
	opts     Options

	phase    phase
	input    []rune
	sess     *core.Session
	working  string
	frame    int
	status   string
	failed   bool
	width    int
	quitting bool
}

// New returns the initial model.
func New(ctx context.Context, pipeline *generator.Pipeline, opts Options) Model {
	return Model{
		ctx:      ctx,
		pipeline: pipeline,
		opts:     opts,
		phase:    phaseInput,
		sess:     core.NewSession("tui"),
	}
}

// Run starts the program and blocks until the user quits.
func Run(ctx context.Context, pipeline *generator.Pipeline, opts Options) error {
	p := tea.NewProgram(New(ctx, pipeline, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tickMsg:
		if m.phase != phaseWorking {
			return m, nil
		}
		m.frame = (m.frame + 1) % len(spinnerFrames)
		return m, tick()

	case generatedMsg:
		m.sess = msg.sess
		m.phase = phaseResult
		if msg.err != nil {
			m.failed = true
			m.status = m.sess.LastError
			return m, nil
		}
		m.failed = false
		m.status = fmt.Sprintf("Generated with %s", m.sess.Backend)
		return m, nil

	case refinedMsg:
		m.phase = phaseResult
		if msg.err != nil {
			m.failed = true
			m.status = generator.UserMessage(msg.err)
			return m, nil
		}
		m.sess = msg.sess
		m.failed = !msg.result.Succeeded
		if msg.result.Succeeded {
			m.status = "Refinement applied"
		} else {
			m.status = "Refinement failed, content unchanged: " + msg.result.ErrorDetail
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.quitting = true
		return m, tea.Quit
	}

	switch m.phase {
	case phaseInput:
		switch msg.Type {
		case tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyEnter:
			topic := strings.TrimSpace(string(m.input))
			if topic == "" {
				m.status = generator.UserMessage(generator.ErrEmptyTopic)
				m.failed = true
				return m, nil
			}
			m.phase = phaseWorking
			m.working = "Generating"
			m.status = ""
			return m, tea.Batch(m.generate(topic), tick())
		case tea.KeyBackspace:
			if len(m.input) > 0 {
				m.input = m.input[:len(m.input)-1]
			}
		case tea.KeySpace:
			m.input = append(m.input, ' ')
		case tea.KeyRunes:
			m.input = append(m.input, msg.Runes...)
		}
		return m, nil

	case phaseResult:
		switch msg.String() {
		case "q":
			m.quitting = true
			return m, tea.Quit
		case "n":
			m.phase = phaseInput
			m.input = nil
			m.status = ""
			m.failed = false
			return m, nil
		case "f", "s":
			if m.sess.State != core.StateReady {
				return m, nil
			}
			kind := core.RefineFact
			m.working = "Checking facts"
			if msg.String() == "s" {
				kind = core.RefineSpell
				m.working = "Checking spelling"
			}
			m.phase = phaseWorking
			m.status = ""
			return m, tea.Batch(m.refine(kind), tick())
		}
	}
	return m, nil
}

func (m Model) generate(topic string) tea.Cmd {
	sess := cloneSession(m.sess)
	req := core.GenerationRequest{
		Topic:           topic,
		PromptTemplate:  m.opts.Template,
		ModelPreference: m.opts.Model,
		APIKey:          m.opts.APIKey,
	}
	return func() tea.Msg {
		err := m.pipeline.Start(m.ctx, sess, req)
		return generatedMsg{sess: sess, err: err}
	}
}

func (m Model) refine(kind core.RefinementKind) tea.Cmd {
	sess := cloneSession(m.sess)
	return func() tea.Msg {
		result, err := m.pipeline.Refine(m.ctx, sess, kind, m.opts.APIKey)
		return refinedMsg{sess: sess, result: result, err: err}
	}
}

func tick() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(time.Time) tea.Msg { return tickMsg{} })
}

func cloneSession(s *core.Session) *core.Session {
	out := *s
	if s.Post != nil {
		post := *s.Post
		post.Tags = append([]string(nil), s.Post.Tags...)
		out.Post = &post
	}
	return &out
}

func (m Model) View() string {
	if m.quitting {
		return "Bye.\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("autoblog") + "\n\n")

	switch m.phase {
	case phaseInput:
		b.WriteString(promptStyle.Render("Topic: ") + string(m.input) + "█\n\n")
		b.WriteString(helpStyle.Render("enter: generate • esc: quit"))

	case phaseWorking:
		b.WriteString(fmt.Sprintf("%s %s...\n", spinnerFrames[m.frame], m.working))

	case phaseResult:
		b.WriteString(m.resultView())
		b.WriteString("\n" + helpStyle.Render("f: fact-check • s: spell-check • n: new topic • q: quit"))
	}

	if m.status != "" {
		style := okStyle
		if m.failed {
			style = errorStyle
		}
		b.WriteString("\n\n" + style.Render(m.status))
	}
	return b.String() + "\n"
}

func (m Model) resultView() string {
	sess := m.sess
	if !sess.HasOutput() {
		return labelStyle.Render("Topic: ") + sess.Topic + "\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(sess.Post.Title) + "\n")
	if len(sess.Post.Tags) > 0 {
		b.WriteString(labelStyle.Render("Tags: ") + "#" + strings.Join(sess.Post.Tags, " #") + "\n")
	}
	b.WriteString(labelStyle.Render("Stats: ") + fmt.Sprintf("%d chars · %d without spaces · %d in script",
		sess.Stats.TotalChars, sess.Stats.TotalCharsNoWhitespace, sess.Stats.ScriptChars) + "\n")
	b.WriteString(labelStyle.Render("Checks: ") + fmt.Sprintf("fact %s · spell %s", mark(sess.FactChecked), mark(sess.SpellChecked)) + "\n")
	if sess.Image.URL != "" {
		b.WriteString(labelStyle.Render("Thumbnail: ") + shorten(sess.Image.URL, 60) + "\n")
	}

	width := m.width - 4
	if width < 20 {
		width = 76
	}
	b.WriteString(boxStyle.Width(width).Render(excerpt(sess.Post.Content)) + "\n")
	return b.String()
}

// excerpt returns the first lines of the post's visible text.
func excerpt(html string) string {
	var lines []string
	for _, line := range strings.Split(textstats.Strip(html), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) == previewLines {
			lines = append(lines, "...")
			break
		}
	}
	return strings.Join(lines, "\n")
}

func mark(done bool) string {
	if done {
		return "✓"
	}
	return "-"
}

func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

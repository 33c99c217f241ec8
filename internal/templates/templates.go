// Package templates manages the prompt template library: the built-in
// templates shipped with the binary plus the user's custom templates kept in
// a store.TemplateStore.
package templates

import (
	"autoblog/internal/core"
	"autoblog/internal/logger"
	"autoblog/internal/prompt"
	"autoblog/internal/store"
	"context"
	"embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

//go:embed builtin/*.tmpl
var builtinFS embed.FS

const (
	// HTMLSkeletonName is the built-in template that fills a fixed HTML layout.
	HTMLSkeletonName = "수익형 HTML 템플릿 (코드 복붙용)"
	// GuidelineName is the built-in template that lists writing rules.
	GuidelineName = "수익형 블로그 규칙 (가이드라인)"
)

var (
	// ErrBuiltinTemplate is returned when deleting a built-in template.
	ErrBuiltinTemplate = errors.New("built-in templates cannot be deleted")
	// ErrNotFound is returned for an unknown template name.
	ErrNotFound = errors.New("template not found")
	// ErrInvalidTemplate is returned when a save has no name or no body.
	ErrInvalidTemplate = errors.New("template name and body are required")
)

type builtinTemplate struct {
	name string
	file string
}

// Order matters: the first entry is the default template.
var builtinFiles = []builtinTemplate{
	{name: HTMLSkeletonName, file: "builtin/html_skeleton.tmpl"},
	{name: GuidelineName, file: "builtin/guideline.tmpl"},
}

// Builtins returns the templates compiled into the binary, default first.
func Builtins() []core.PromptTemplate {
	out := make([]core.PromptTemplate, 0, len(builtinFiles))
	for _, b := range builtinFiles {
		data, err := builtinFS.ReadFile(b.file)
		if err != nil {
			// Embedded at build time; a miss means the binary is broken.
			panic(fmt.Sprintf("missing embedded template %s: %v", b.file, err))
		}
		out = append(out, core.PromptTemplate{Name: b.name, Body: string(data), Builtin: true})
	}
	return out
}

// Library combines built-ins with custom templates from a store.
// Custom templates shadow built-ins of the same name. Writes replace the whole
// stored mapping, so concurrent writers follow last-write-wins.
type Library struct {
	store    store.TemplateStore
	builtins []core.PromptTemplate

	mu     sync.RWMutex
	custom map[string]string
}

// NewLibrary creates a library over s. Call Load before use.
func NewLibrary(s store.TemplateStore) *Library {
	return &Library{
		store:    s,
		builtins: Builtins(),
		custom:   map[string]string{},
	}
}

// Load reads the custom templates from the store, replacing any cached copy.
func (l *Library) Load(ctx context.Context) error {
	custom, err := l.store.LoadTemplates(ctx)
	if err != nil {
		return fmt.Errorf("failed to load custom templates: %w", err)
	}
	if custom == nil {
		custom = map[string]string{}
	}

	l.mu.Lock()
	l.custom = custom
	l.mu.Unlock()

	logger.Debug("Loaded prompt templates", "custom", len(custom), "builtin", len(l.builtins))
	return nil
}

// Default returns the template used when the caller names none.
func (l *Library) Default() core.PromptTemplate {
	t, _ := l.Get(l.builtins[0].Name)
	return t
}

// List returns built-ins first in their fixed order, then custom templates by name.
func (l *Library) List() []core.PromptTemplate {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]core.PromptTemplate, 0, len(l.builtins)+len(l.custom))
	seen := make(map[string]bool, len(l.builtins))
	for _, b := range l.builtins {
		seen[b.Name] = true
		if body, ok := l.custom[b.Name]; ok {
			out = append(out, core.PromptTemplate{Name: b.Name, Body: body})
			continue
		}
		out = append(out, b)
	}

	names := make([]string, 0, len(l.custom))
	for name := range l.custom {
		if !seen[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		out = append(out, core.PromptTemplate{Name: name, Body: l.custom[name]})
	}
	return out
}

// Get looks up a template by name.
func (l *Library) Get(name string) (core.PromptTemplate, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if body, ok := l.custom[name]; ok {
		return core.PromptTemplate{Name: name, Body: body}, nil
	}
	for _, b := range l.builtins {
		if b.Name == name {
			return b, nil
		}
	}
	return core.PromptTemplate{}, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Save stores a custom template under name and persists the whole mapping.
// A body without the {topic} placeholder is accepted; the topic is then
// prepended at assembly time.
func (l *Library) Save(ctx context.Context, name, body string) error {
	name = strings.TrimSpace(name)
	if name == "" || strings.TrimSpace(body) == "" {
		return ErrInvalidTemplate
	}
	if !strings.Contains(body, prompt.TopicPlaceholder) {
		logger.Warn("Template has no topic placeholder", "template", name)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	next := make(map[string]string, len(l.custom)+1)
	for k, v := range l.custom {
		next[k] = v
	}
	next[name] = body

	if err := l.store.SaveTemplates(ctx, next); err != nil {
		return fmt.Errorf("failed to save template %q: %w", name, err)
	}
	l.custom = next
	logger.Info("Saved prompt template", "template", name)
	return nil
}

// Delete removes a custom template. Deleting a custom override of a built-in
// restores the built-in body.
func (l *Library) Delete(ctx context.Context, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.custom[name]; !ok {
		for _, b := range l.builtins {
			if b.Name == name {
				return ErrBuiltinTemplate
			}
		}
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	next := make(map[string]string, len(l.custom))
	for k, v := range l.custom {
		if k != name {
			next[k] = v
		}
	}
	if err := l.store.SaveTemplates(ctx, next); err != nil {
		return fmt.Errorf("failed to delete template %q: %w", name, err)
	}
	l.custom = next
	logger.Info("Deleted prompt template", "template", name)
	return nil
}

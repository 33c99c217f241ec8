package templates

import (
	"autoblog/internal/store"
	"context"
	"errors"
	"strings"
	"testing"
)

func newTestLibrary(t *testing.T) (*Library, *store.MemoryStore) {
	t.Helper()
	s := store.NewMemoryStore()
	lib := NewLibrary(s)
	if err := lib.Load(context.Background()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	return lib, s
}

func TestBuiltins(t *testing.T) {
	builtins := Builtins()
	if len(builtins) != 2 {
		t.Fatalf("Expected 2 built-in templates, got %d", len(builtins))
	}
	for _, b := range builtins {
		if !b.Builtin {
			t.Errorf("Template %q should be marked built-in", b.Name)
		}
		if !strings.Contains(b.Body, "{topic}") {
			t.Errorf("Template %q should contain the topic placeholder", b.Name)
		}
		for _, field := range []string{`"title"`, `"content"`, `"tags"`, `"image_prompt"`, `"image_keywords"`} {
			if !strings.Contains(b.Body, field) {
				t.Errorf("Template %q should request %s", b.Name, field)
			}
		}
		if strings.Contains(b.Body, "{{") {
			t.Errorf("Template %q should not contain escaped braces", b.Name)
		}
	}
}

func TestLibraryDefault(t *testing.T) {
	lib, _ := newTestLibrary(t)
	if got := lib.Default().Name; got != HTMLSkeletonName {
		t.Errorf("Expected default %q, got %q", HTMLSkeletonName, got)
	}
}

func TestLibrarySaveAndGet(t *testing.T) {
	lib, s := newTestLibrary(t)
	ctx := context.Background()

	if err := lib.Save(ctx, "  리뷰  ", "{topic} 리뷰를 써 주세요."); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	got, err := lib.Get("리뷰")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.Builtin || got.Body != "{topic} 리뷰를 써 주세요." {
		t.Errorf("Unexpected template %+v", got)
	}

	stored, _ := s.LoadTemplates(ctx)
	if stored["리뷰"] != got.Body {
		t.Errorf("Expected template persisted in store, got %v", stored)
	}

	// A body without the placeholder is still accepted.
	if err := lib.Save(ctx, "plain", "Write something nice."); err != nil {
		t.Errorf("Save without placeholder returned error: %v", err)
	}
}

func TestLibrarySaveRejectsEmpty(t *testing.T) {
	lib, _ := newTestLibrary(t)
	tests := []struct {
		name string
		tmpl string
		body string
	}{
		{"empty name", "", "{topic}"},
		{"blank name", "   ", "{topic}"},
		{"empty body", "x", "  "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := lib.Save(context.Background(), tt.tmpl, tt.body)
			if !errors.Is(err, ErrInvalidTemplate) {
				t.Errorf("Expected ErrInvalidTemplate, got %v", err)
			}
		})
	}
}

func TestLibraryList(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()
	_ = lib.Save(ctx, "zeta", "{topic} z")
	_ = lib.Save(ctx, "alpha", "{topic} a")

	list := lib.List()
	if len(list) != 4 {
		t.Fatalf("Expected 4 templates, got %d", len(list))
	}
	want := []string{HTMLSkeletonName, GuidelineName, "alpha", "zeta"}
	for i, name := range want {
		if list[i].Name != name {
			t.Errorf("Position %d: expected %q, got %q", i, name, list[i].Name)
		}
	}
}

func TestLibraryDelete(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()

	if err := lib.Delete(ctx, GuidelineName); !errors.Is(err, ErrBuiltinTemplate) {
		t.Errorf("Expected ErrBuiltinTemplate, got %v", err)
	}
	if err := lib.Delete(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	_ = lib.Save(ctx, "mine", "{topic}")
	if err := lib.Delete(ctx, "mine"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := lib.Get("mine"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected deleted template to be gone, got %v", err)
	}
}

func TestLibraryOverrideRestoresBuiltin(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()
	original, _ := lib.Get(GuidelineName)

	if err := lib.Save(ctx, GuidelineName, "custom {topic}"); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	overridden, _ := lib.Get(GuidelineName)
	if overridden.Body != "custom {topic}" || overridden.Builtin {
		t.Errorf("Expected custom override, got %+v", overridden)
	}
	if n := len(lib.List()); n != 2 {
		t.Errorf("Override should not add a list entry, got %d", n)
	}

	if err := lib.Delete(ctx, GuidelineName); err != nil {
		t.Fatalf("Delete override returned error: %v", err)
	}
	restored, _ := lib.Get(GuidelineName)
	if restored.Body != original.Body || !restored.Builtin {
		t.Error("Expected built-in body restored after deleting override")
	}
}

func TestLibraryLoadFromStore(t *testing.T) {
	s := store.NewMemoryStore()
	_ = s.SaveTemplates(context.Background(), map[string]string{"saved": "{topic} saved"})

	lib := NewLibrary(s)
	if err := lib.Load(context.Background()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got, err := lib.Get("saved"); err != nil || got.Body != "{topic} saved" {
		t.Errorf("Expected stored template, got %+v, %v", got, err)
	}
}

package core

import (
	"reflect"
	"testing"
)

func TestBlogPostApplyDefaults(t *testing.T) {
	tests := []struct {
		name         string
		post         BlogPost
		wantThumb    string
		wantKeywords string
		wantTags     []string
	}{
		{
			name:         "thumbnail and keywords fall back",
			post:         BlogPost{Title: "Coffee Brewing Tips", Tags: []string{"coffee", " brew "}},
			wantThumb:    "Coffee Brewing Tips",
			wantKeywords: "coffee, brew",
			wantTags:     []string{"coffee", "brew"},
		},
		{
			name:         "no tags uses generic keyword",
			post:         BlogPost{Title: "Tea", Tags: []string{"", "  "}},
			wantThumb:    "Tea",
			wantKeywords: DefaultImageKeywords,
			wantTags:     []string{},
		},
		{
			name:         "explicit values are kept",
			post:         BlogPost{Title: "Long title", ThumbnailTitle: "Short", ImageKeywords: "beans", Tags: []string{"a"}},
			wantThumb:    "Short",
			wantKeywords: "beans",
			wantTags:     []string{"a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			post := tt.post
			post.ApplyDefaults()
			if post.ThumbnailTitle != tt.wantThumb {
				t.Errorf("Expected ThumbnailTitle %q, got %q", tt.wantThumb, post.ThumbnailTitle)
			}
			if post.ImageKeywords != tt.wantKeywords {
				t.Errorf("Expected ImageKeywords %q, got %q", tt.wantKeywords, post.ImageKeywords)
			}
			if !reflect.DeepEqual(post.Tags, tt.wantTags) {
				t.Errorf("Expected Tags %v, got %v", tt.wantTags, post.Tags)
			}
		})
	}
}

func TestRefinementKindValid(t *testing.T) {
	if !RefineFact.Valid() || !RefineSpell.Valid() {
		t.Error("Expected fact and spell to be valid refinement kinds")
	}
	if RefinementKind("grammar").Valid() {
		t.Error("Expected unknown refinement kind to be invalid")
	}
}

func TestNewSession(t *testing.T) {
	s := NewSession("abc")
	if s.State != StateIdle {
		t.Errorf("Expected new session to be idle, got %s", s.State)
	}
	if s.HasOutput() {
		t.Error("Expected new session to have no output")
	}
}

func TestBlogPostEdit(t *testing.T) {
	str := func(s string) *string { return &s }

	tests := []struct {
		name         string
		post         BlogPost
		title        *string
		thumb        *string
		tags         *[]string
		wantThumb    string
		wantKeywords string
	}{
		{
			name:         "derived fields follow new title and tags",
			post:         BlogPost{Title: "Old", ThumbnailTitle: "Old", Tags: []string{"a"}, ImageKeywords: "a"},
			title:        str("New"),
			tags:         &[]string{"x", "y"},
			wantThumb:    "New",
			wantKeywords: "x, y",
		},
		{
			name:         "explicit thumbnail title is kept",
			post:         BlogPost{Title: "Old", ThumbnailTitle: "Short", Tags: []string{"a"}, ImageKeywords: "beans"},
			title:        str("New"),
			tags:         &[]string{"x"},
			wantThumb:    "Short",
			wantKeywords: "beans",
		},
		{
			name:         "thumbnail title given with the edit",
			post:         BlogPost{Title: "Old", ThumbnailTitle: "Old", ImageKeywords: DefaultImageKeywords},
			title:        str("New"),
			thumb:        str("Thumb"),
			wantThumb:    "Thumb",
			wantKeywords: DefaultImageKeywords,
		},
		{
			name:         "generic keywords replaced once tags exist",
			post:         BlogPost{Title: "T", ThumbnailTitle: "T", ImageKeywords: DefaultImageKeywords},
			tags:         &[]string{"coffee"},
			wantThumb:    "T",
			wantKeywords: "coffee",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			post := tt.post
			post.Edit(tt.title, tt.thumb, tt.tags)
			if post.ThumbnailTitle != tt.wantThumb {
				t.Errorf("Expected ThumbnailTitle %q, got %q", tt.wantThumb, post.ThumbnailTitle)
			}
			if post.ImageKeywords != tt.wantKeywords {
				t.Errorf("Expected ImageKeywords %q, got %q", tt.wantKeywords, post.ImageKeywords)
			}
		})
	}
}

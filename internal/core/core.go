package core

import (
	"strings"
	"time"
)

// DefaultImageKeywords is used when a post carries neither image keywords nor tags.
const DefaultImageKeywords = "blog"

// GenerationRequest is the user input for one generation run.
type GenerationRequest struct {
	Topic           string `json:"topic"`
	PromptTemplate  string `json:"prompt_template"`            // Template body; {topic} is replaced with Topic
	ModelPreference string `json:"model_preference,omitempty"` // Preferred backend, tried first
	APIKey          string `json:"-"`                          // Per-request credential, never serialized
}

// BlogPost is the structured output of a generation run.
type BlogPost struct {
	Title          string   `json:"title"`
	ThumbnailTitle string   `json:"thumbnail_title"`
	Content        string   `json:"content"` // HTML body
	Tags           []string `json:"tags"`
	ImagePrompt    string   `json:"image_prompt,omitempty"`
	ImageKeywords  string   `json:"image_keywords"`
}

// ApplyDefaults fills the optional fields a model is allowed to omit.
// Defaults are applied here and nowhere else.
func (p *BlogPost) ApplyDefaults() {
	tags := p.Tags[:0]
	for _, tag := range p.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	p.Tags = tags

	if strings.TrimSpace(p.ThumbnailTitle) == "" {
		p.ThumbnailTitle = p.Title
	}
	if strings.TrimSpace(p.ImageKeywords) == "" {
		if len(p.Tags) > 0 {
			p.ImageKeywords = strings.Join(p.Tags, ", ")
		} else {
			p.ImageKeywords = DefaultImageKeywords
		}
	}
}

// Edit replaces the title and tags when given. A thumbnail title or image
// keyword list that was derived from the old value is recomputed unless the
// edit sets it explicitly.
func (p *BlogPost) Edit(title, thumbnailTitle *string, tags *[]string) {
	thumbDerived := p.ThumbnailTitle == "" || p.ThumbnailTitle == p.Title
	keywordsDerived := p.ImageKeywords == "" ||
		p.ImageKeywords == DefaultImageKeywords ||
		p.ImageKeywords == strings.Join(p.Tags, ", ")

	if title != nil {
		p.Title = *title
		if thumbnailTitle == nil && thumbDerived {
			p.ThumbnailTitle = ""
		}
	}
	if thumbnailTitle != nil {
		p.ThumbnailTitle = *thumbnailTitle
	}
	if tags != nil {
		p.Tags = append([]string(nil), (*tags)...)
		if keywordsDerived {
			p.ImageKeywords = ""
		}
	}
	p.ApplyDefaults()
}

// Outcome classifies a single backend attempt.
type Outcome string

const (
	OutcomeSuccess        Outcome = "success"
	OutcomeQuotaExhausted Outcome = "quota_exhausted"
	OutcomeNotFound       Outcome = "not_found"
	OutcomeBlockedContent Outcome = "blocked_content"
	OutcomeTransientError Outcome = "transient_error"
)

// ModelAttempt records one backend call made during a generation or refinement.
// Attempts are returned to the caller and logged, never persisted.
type ModelAttempt struct {
	Backend  string        `json:"backend"`
	Outcome  Outcome       `json:"outcome"`
	RawError string        `json:"raw_error,omitempty"`
	Delay    time.Duration `json:"delay,omitempty"` // Pause taken after this attempt before the next one
}

// RefinementResult is the result of a fact or spell refinement.
// When Succeeded is false, Content is the unmodified input.
type RefinementResult struct {
	Content     string `json:"content"`
	Succeeded   bool   `json:"succeeded"`
	ErrorDetail string `json:"error_detail,omitempty"`
}

// PromptTemplate is a named, reusable prompt body.
type PromptTemplate struct {
	Name    string `json:"name"`
	Body    string `json:"body"`
	Builtin bool   `json:"builtin"`
}

// TextStats holds the length metrics of an HTML body.
type TextStats struct {
	TotalChars             int `json:"total_chars"`
	TotalCharsNoWhitespace int `json:"total_chars_no_whitespace"`
	ScriptChars            int `json:"script_chars"`
}

// ImageRef is an opaque reference to a thumbnail (URL, file path or data URL).
type ImageRef struct {
	URL    string `json:"url"`
	Source string `json:"source"` // Provider that produced the reference
}

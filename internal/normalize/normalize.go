// Package normalize turns raw model replies into structured posts.
//
// Models wrap JSON in code fences, leak markup into titles and leave stray
// closing brackets after the HTML body. The helpers here undo those habits
// before and after decoding.
package normalize

import (
	"autoblog/internal/core"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const fence = "```"

var (
	tagPattern        = regexp.MustCompile(`<[^>]+>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	trailingBrackets  = regexp.MustCompile(`(?:\s*[\}\]])+\s*$`)
)

// ParseError reports a reply that could not be decoded into the expected shape.
type ParseError struct {
	Reason string
	Raw    string
}

func (e *ParseError) Error() string {
	return "malformed model reply: " + e.Reason
}

// StripFences removes a leading code fence (with an optional language tag,
// even when the payload continues on the same line) and a trailing fence.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, fence) {
		s = s[len(fence):]
		s = dropLanguageTag(s)
	}
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, fence) {
		s = strings.TrimSpace(s[:len(s)-len(fence)])
	}
	return s
}

// dropLanguageTag removes an info string such as "json" or "html" right after
// an opening fence. A word directly followed by ordinary text is kept.
func dropLanguageTag(s string) string {
	i := 0
	for i < len(s) && isTagByte(s[i]) {
		i++
	}
	if i == 0 {
		return s
	}
	if i == len(s) {
		return ""
	}
	switch s[i] {
	case '\r', '\n', '<', '{', '[':
		return s[i:]
	}
	return s
}

func isTagByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '-' || c == '+'
}

// CleanContent removes one trailing run of stray closing brackets and any
// residual fence markers from an HTML body.
func CleanContent(s string) string {
	s = strings.TrimSpace(s)
	s = StripFences(s)
	s = trailingBrackets.ReplaceAllString(s, "")
	s = StripFences(s)
	return strings.TrimSpace(s)
}

// CleanTitle strips markup from a title and collapses whitespace.
func CleanTitle(s string) string {
	text := s
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err == nil {
		text = doc.Text()
	} else {
		text = tagPattern.ReplaceAllString(s, "")
	}
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}

// ParsePost decodes a generation reply. title and content are required.
// Optional fields are left empty; defaults are applied by the caller.
func ParsePost(raw string) (*core.BlogPost, error) {
	fields, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}

	title := CleanTitle(stringField(fields, "title"))
	content := CleanContent(stringField(fields, "content"))
	if title == "" {
		return nil, &ParseError{Reason: "missing title", Raw: raw}
	}
	if content == "" {
		return nil, &ParseError{Reason: "missing content", Raw: raw}
	}

	return &core.BlogPost{
		Title:          title,
		ThumbnailTitle: CleanTitle(stringField(fields, "thumbnail_title", "thumbnailTitle")),
		Content:        content,
		Tags:           tagsField(fields),
		ImagePrompt:    strings.TrimSpace(stringField(fields, "image_prompt", "imagePrompt")),
		ImageKeywords:  strings.TrimSpace(stringField(fields, "image_keywords", "imageKeywords")),
	}, nil
}

// ParseContent decodes a refinement reply and returns its cleaned content.
func ParseContent(raw string) (string, error) {
	fields, err := decodeObject(raw)
	if err != nil {
		return "", err
	}
	content := CleanContent(stringField(fields, "content"))
	if content == "" {
		return "", &ParseError{Reason: "missing content", Raw: raw}
	}
	return content, nil
}

func decodeObject(raw string) (map[string]json.RawMessage, error) {
	text := StripFences(raw)
	if text == "" {
		return nil, &ParseError{Reason: "empty reply", Raw: raw}
	}

	var fields map[string]json.RawMessage
	err := json.Unmarshal([]byte(text), &fields)
	if err == nil {
		return fields, nil
	}

	// Prose around the object: retry on the outermost braces.
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		if retryErr := json.Unmarshal([]byte(text[start:end+1]), &fields); retryErr == nil {
			return fields, nil
		}
	}
	return nil, &ParseError{Reason: fmt.Sprintf("invalid JSON: %v", err), Raw: raw}
}

func stringField(fields map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		value, ok := fields[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(value, &s); err == nil {
			return s
		}
	}
	return ""
}

// tagsField accepts either a JSON array or a comma-separated string.
func tagsField(fields map[string]json.RawMessage) []string {
	value, ok := fields["tags"]
	if !ok {
		return nil
	}

	var list []string
	if err := json.Unmarshal(value, &list); err != nil {
		var joined string
		if err := json.Unmarshal(value, &joined); err != nil {
			return nil
		}
		list = strings.Split(joined, ",")
	}

	tags := make([]string, 0, len(list))
	for _, tag := range list {
		tag = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

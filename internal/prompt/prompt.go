// Package prompt builds the instructions sent to the model backends.
package prompt

import (
	"fmt"
	"strings"
	"time"
)

// TopicPlaceholder is replaced with the user's topic in a template body.
const TopicPlaceholder = "{topic}"

const (
	DefaultMinChars = 1600
	DefaultMaxChars = 2000
)

const styleDirective = `당신은 티스토리 수익형 블로그 전문 작가입니다. 아래 규칙을 반드시 지키세요.

1. 분량: 공백을 제외한 한글 %s~%s자로 작성합니다. 소제목마다 최소 3개 이상의 문단을 씁니다.
2. 말투: 친근하면서도 전문적인 해요체를 사용합니다.
3. 형식: 본문은 HTML 태그(<h2>, <h3>, <p>, <ul>, <li>, <strong>, <table>)로 구조화합니다.
4. 금지: 이모지와 장식용 특수기호는 사용하지 않습니다.
5. 출력: 요청된 JSON 형식만 출력하고 다른 설명은 붙이지 않습니다.`

const lengthReminder = "[중요] 반드시 공백 제외 한글 %s자 이상의 충분한 분량으로 작성하세요."

// Assembler composes the generation prompt from a topic and a template.
type Assembler struct {
	MinChars int
	MaxChars int
}

// NewAssembler returns an Assembler with the given length target.
// Non-positive values fall back to the defaults.
func NewAssembler(minChars, maxChars int) *Assembler {
	if minChars <= 0 {
		minChars = DefaultMinChars
	}
	if maxChars < minChars {
		maxChars = max(DefaultMaxChars, minChars)
	}
	return &Assembler{MinChars: minChars, MaxChars: maxChars}
}

// Assemble builds the full generation prompt. It never fails: a template
// without the topic placeholder gets the topic prepended instead. A
// placeholder typed into the topic itself is unbraced, so the result never
// contains one.
func (a *Assembler) Assemble(topic, template string) string {
	minChars, maxChars := a.bounds()
	topic = strings.ReplaceAll(topic, TopicPlaceholder, "topic")

	var user string
	if strings.Contains(template, TopicPlaceholder) {
		user = strings.ReplaceAll(template, TopicPlaceholder, topic)
	} else {
		user = "Topic: " + topic + "\n\n" + template
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf(styleDirective, formatCount(minChars), formatCount(maxChars)))
	b.WriteString("\n\n[USER REQUEST]\n")
	b.WriteString(user)
	b.WriteString("\n\n")
	b.WriteString(a.MinimumReminder())
	return b.String()
}

// MinimumReminder returns the terminal length reminder line.
func (a *Assembler) MinimumReminder() string {
	minChars, _ := a.bounds()
	return fmt.Sprintf(lengthReminder, formatCount(minChars))
}

func (a *Assembler) bounds() (int, int) {
	if a == nil || a.MinChars <= 0 {
		return DefaultMinChars, DefaultMaxChars
	}
	maxChars := a.MaxChars
	if maxChars < a.MinChars {
		maxChars = a.MinChars
	}
	return a.MinChars, maxChars
}

// formatCount renders n with thousands separators, e.g. 1,600.
func formatCount(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

const factCheckTemplate = `당신은 꼼꼼한 팩트체커이자 블로그 편집자입니다.
아래 블로그 글은 "%s" 주제로 작성되었습니다. %s 현재 기준으로 사실관계를 검토하고, 오래되었거나 틀린 정보(수치, 제도, 가격, 날짜 등)를 최신 정보로 고쳐 다시 작성하세요.

규칙:
- HTML 구조와 태그는 그대로 유지하고 텍스트만 수정합니다.
- 해요체 말투를 유지합니다.
- 이모지와 장식용 특수기호는 사용하지 않습니다.
- 확실하지 않은 정보는 단정하지 말고 완곡하게 표현합니다.

반드시 아래 JSON 형식으로만 응답하세요:
{"content": "수정된 HTML 본문"}

[원문]
%s`

const spellCheckTemplate = `당신은 한국어 맞춤법 및 문법 교정 전문가입니다.
아래 블로그 글의 맞춤법, 띄어쓰기, 문법 오류를 바로잡고 어색한 문장을 자연스럽게 다듬으세요.

규칙:
- HTML 태그는 절대 건드리지 말고 태그 사이의 텍스트만 교정합니다.
- 글의 의미와 분량은 바꾸지 않습니다.
- 이모지와 장식용 특수기호는 사용하지 않습니다.

반드시 아래 JSON 형식으로만 응답하세요:
{"content": "교정된 HTML 본문"}

[원문]
%s`

// FactCheckPrompt builds the fact-update refinement prompt anchored at asOf.
func FactCheckPrompt(content, topic string, asOf time.Time) string {
	return fmt.Sprintf(factCheckTemplate, topic, AsOfLabel(asOf), content)
}

// SpellCheckPrompt builds the spelling and grammar refinement prompt.
func SpellCheckPrompt(content string) string {
	return fmt.Sprintf(spellCheckTemplate, content)
}

// AsOfLabel formats the temporal anchor, e.g. "2026년 2월".
func AsOfLabel(t time.Time) string {
	return fmt.Sprintf("%d년 %d월", t.Year(), int(t.Month()))
}

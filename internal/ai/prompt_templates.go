package ai

import (
	"fmt"
	"strings"
)

// Article is the text submitted for evaluation
type Article struct {
	Title   string
	Source  string
	Content string
}

// PromptTemplates contains the prompt templates used for article evaluation
var PromptTemplates = struct {
	System     string
	Evaluation string
}{
	System: `You are a news analyst. You read one article and answer with a single JSON object containing a short summary and a reliability assessment. You never add text outside the JSON object.`,

	Evaluation: `Analyse the news article below.

Requirements:
1. summary: summarise the key points of the article in exactly three short lines, written in %s. Separate the lines with "\n".
2. trust_grade: rate the reliability of the article as one of "high", "medium" or "low".
3. reason: explain the grade in one sentence, written in %s.

Grading guidance:
- Established national outlets reporting verifiable facts with named sources: high.
- Only the headline or partial information is available, or the claims cannot be checked from the text: medium.
- Sensational wording, missing sources or unverifiable claims: low.
%s
Respond with JSON only, in this shape:
{"summary": "line 1\nline 2\nline 3", "trust_grade": "high|medium|low", "reason": "one sentence"}

Article:
Source: %s
Title: %s

Content:
%s`,
}

var languageNames = map[string]string{
	"ko":      "Korean",
	"en":      "English",
	"ja":      "Japanese",
	"fr":      "French",
	"zh-Hans": "Simplified Chinese",
}

// LanguageName returns the English name of a language code.
func LanguageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return code
}

// BuildEvaluationPrompt creates the system and user prompts for one article.
// selectedSources lists publishers the reader trusts, if any.
func BuildEvaluationPrompt(a Article, selectedSources []string, language string) (string, string) {
	lang := LanguageName(language)

	sources := ""
	if len(selectedSources) > 0 {
		sources = fmt.Sprintf("- The reader follows these publishers; compare the article's claims with how they typically report: %s.\n",
			strings.Join(selectedSources, ", "))
	}

	content := strings.TrimSpace(a.Content)
	if content == "" {
		content = a.Title
	}

	user := fmt.Sprintf(PromptTemplates.Evaluation,
		lang, lang,
		sources,
		escapeForPrompt(a.Source),
		escapeForPrompt(a.Title),
		content)
	return PromptTemplates.System, user
}

// escapeForPrompt flattens single-line fields
func escapeForPrompt(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\t", " ")
	return strings.TrimSpace(s)
}

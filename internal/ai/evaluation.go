package ai

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/bilgisen/newsflow/internal/models"
)

var ErrUnparseable = errors.New("could not parse llm response")

// Evaluation is the summary and trust grade produced for one article
type Evaluation struct {
	Summary string            `json:"summary"`
	Grade   models.TrustGrade `json:"trust_grade"`
	Reason  string            `json:"reason"`
}

// ResponseTemplate defines the expected JSON structure of the model's answer
type ResponseTemplate struct {
	Summary    json.RawMessage `json:"summary"`
	TrustGrade string          `json:"trust_grade"`
	Grade      string          `json:"grade"`
	Reason     string          `json:"reason"`
}

var (
	fencePattern         = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
	bracketSummary       = regexp.MustCompile(`(?s)\[요약\]\s*:?\s*(.*?)(?:\[신뢰도\]|\z)`)
	bracketTrust         = regexp.MustCompile(`(?s)\[신뢰도\]\s*:?\s*(높음|보통|낮음)\s*[-–:]?\s*(.*)`)
	numberedTrust        = regexp.MustCompile(`신뢰도\s*(?:등급)?\s*:\s*(높음|보통|낮음)\s*[-–:]?\s*(.*)`)
	numberedPrefix       = regexp.MustCompile(`^\s*\d+[).]\s*`)
	numberedSummaryLabel = regexp.MustCompile(`^(?:3줄\s*)?요약\s*[:：]?\s*`)
	englishSummaryLine   = regexp.MustCompile(`(?is)summary\s*:\s*(.*?)(?:\n\s*(?:trust|reliability)[^:\n]*:|\z)`)
	englishTrustLine     = regexp.MustCompile(`(?i)(?:trust|reliability)(?:\s+grade)?\s*:\s*(high|medium|low)\b\s*[-–:]?\s*(.*)`)
)

// ParseEvaluation extracts an Evaluation from a model answer.
// JSON is preferred; the labelled text formats are accepted as a fallback.
func ParseEvaluation(text string) (Evaluation, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Evaluation{}, ErrEmptyResponse
	}

	if eval, ok := parseJSON(text); ok {
		return eval, nil
	}
	if eval, ok := parseBracketed(text); ok {
		return eval, nil
	}
	if eval, ok := parseNumbered(text); ok {
		return eval, nil
	}
	if eval, ok := parseEnglish(text); ok {
		return eval, nil
	}
	return Evaluation{}, ErrUnparseable
}

func parseJSON(text string) (Evaluation, bool) {
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		text = m[1]
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return Evaluation{}, false
	}

	var resp ResponseTemplate
	if err := json.Unmarshal([]byte(text[start:end+1]), &resp); err != nil {
		return Evaluation{}, false
	}

	grade := resp.TrustGrade
	if grade == "" {
		grade = resp.Grade
	}
	eval := Evaluation{
		Summary: decodeSummary(resp.Summary),
		Grade:   models.ParseTrustGrade(grade),
		Reason:  strings.TrimSpace(resp.Reason),
	}
	if eval.Summary == "" && !eval.Grade.Valid() {
		return Evaluation{}, false
	}
	return eval, true
}

// decodeSummary accepts a string or an array of lines.
func decodeSummary(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var lines []string
	if err := json.Unmarshal(raw, &lines); err == nil {
		return strings.TrimSpace(strings.Join(lines, "\n"))
	}
	return ""
}

func parseBracketed(text string) (Evaluation, bool) {
	var eval Evaluation
	if m := bracketSummary.FindStringSubmatch(text); m != nil {
		eval.Summary = strings.TrimSpace(m[1])
	}
	eval.Grade = models.TrustUnknown
	if m := bracketTrust.FindStringSubmatch(text); m != nil {
		eval.Grade = models.ParseTrustGrade(m[1])
		eval.Reason = strings.TrimSpace(m[2])
	}
	return eval, eval.Summary != "" || eval.Grade.Valid()
}

func parseNumbered(text string) (Evaluation, bool) {
	loc := numberedTrust.FindStringSubmatchIndex(text)
	if loc == nil {
		return Evaluation{}, false
	}
	eval := Evaluation{
		Grade:  models.ParseTrustGrade(text[loc[2]:loc[3]]),
		Reason: strings.TrimSpace(text[loc[4]:loc[5]]),
	}

	// the summary is the first numbered item; later items compare sources
	var lines []string
	numbered := 0
	for _, line := range strings.Split(text[:loc[0]], "\n") {
		if numberedPrefix.MatchString(line) {
			numbered++
			if numbered > 1 {
				break
			}
			line = numberedSummaryLabel.ReplaceAllString(numberedPrefix.ReplaceAllString(line, ""), "")
		}
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	eval.Summary = strings.Join(lines, "\n")
	return eval, true
}

func parseEnglish(text string) (Evaluation, bool) {
	var eval Evaluation
	if m := englishSummaryLine.FindStringSubmatch(text); m != nil {
		eval.Summary = strings.TrimSpace(m[1])
	}
	eval.Grade = models.TrustUnknown
	if m := englishTrustLine.FindStringSubmatch(text); m != nil {
		eval.Grade = models.ParseTrustGrade(m[1])
		eval.Reason = strings.TrimSpace(m[2])
	}
	return eval, eval.Summary != "" || eval.Grade.Valid()
}

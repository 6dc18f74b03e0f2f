package ai

import (
	"errors"
	"regexp"
	"strings"

	"github.com/bilgisen/newsflow/internal/models"
	"github.com/bilgisen/newsflow/internal/utils"
)

var ErrEmptySummary = errors.New("evaluation has no summary")

var (
	controlChars   = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)
	scriptBlocks   = regexp.MustCompile(`(?is)<(script|style|iframe|object)[^>]*>.*?</(script|style|iframe|object)>`)
	dangerousTags  = regexp.MustCompile(`(?i)</?(script|style|iframe|object|embed|link|meta)[^>]*>`)
	summaryLabel   = regexp.MustCompile(`^\s*(?:\[요약\]|요약\s*:|summary\s*:)\s*`)
	bulletPrefixes = regexp.MustCompile(`^\s*(?:[-*•·]|\d+[).])\s+`)
)

type PostProcessor struct {
	maxSummaryRunes int
	maxReasonRunes  int
}

func NewPostProcessor() *PostProcessor {
	return &PostProcessor{
		maxSummaryRunes: 600,
		maxReasonRunes:  300,
	}
}

// Process validates and cleans an evaluation in place
func (p *PostProcessor) Process(eval *Evaluation) error {
	eval.Summary = p.cleanSummary(eval.Summary)
	if eval.Summary == "" {
		return ErrEmptySummary
	}
	eval.Reason = utils.Truncate(p.cleanText(eval.Reason), p.maxReasonRunes)
	eval.Summary = utils.Truncate(eval.Summary, p.maxSummaryRunes)

	if !eval.Grade.Valid() {
		eval.Grade = models.TrustUnknown
	}
	return nil
}

// cleanText removes markup and control characters and folds whitespace
func (p *PostProcessor) cleanText(s string) string {
	s = scriptBlocks.ReplaceAllString(s, "")
	s = dangerousTags.ReplaceAllString(s, "")
	s = controlChars.ReplaceAllString(s, " ")
	return utils.CollapseSpace(s)
}

// cleanSummary keeps one summary line per row
func (p *PostProcessor) cleanSummary(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, `\n`, "\n")
	s = summaryLabel.ReplaceAllString(strings.TrimSpace(s), "")

	var lines []string
	for _, line := range strings.Split(s, "\n") {
		line = p.cleanText(bulletPrefixes.ReplaceAllString(line, ""))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

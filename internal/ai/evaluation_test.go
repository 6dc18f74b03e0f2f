package ai

import (
	"testing"

	"github.com/bilgisen/newsflow/internal/models"
	"github.com/stretchr/testify/require"
)

func TestParseEvaluationJSON(t *testing.T) {
	cases := []struct {
		name   string
		input  string
		expect Evaluation
	}{
		{
			name:   "bare",
			input:  `{"summary": "첫 줄\n둘째 줄\n셋째 줄", "trust_grade": "high", "reason": "공식 발표를 인용했다."}`,
			expect: Evaluation{Summary: "첫 줄\n둘째 줄\n셋째 줄", Grade: models.TrustHigh, Reason: "공식 발표를 인용했다."},
		},
		{
			name:   "fenced with korean grade",
			input:  "Here you go:\n```json\n{\"summary\": \"요약\", \"trust_grade\": \"보통\", \"reason\": \"제목만 있다.\"}\n```",
			expect: Evaluation{Summary: "요약", Grade: models.TrustMedium, Reason: "제목만 있다."},
		},
		{
			name:   "array summary and grade alias",
			input:  `{"summary": ["a", "b"], "grade": "LOW", "reason": "r"}`,
			expect: Evaluation{Summary: "a\nb", Grade: models.TrustLow, Reason: "r"},
		},
		{
			name:   "unknown grade",
			input:  `{"summary": "s", "trust_grade": "excellent"}`,
			expect: Evaluation{Summary: "s", Grade: models.TrustUnknown},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseEvaluation(tc.input)
			require.NoError(t, err)
			require.Equal(t, tc.expect, got)
		})
	}
}

func TestParseEvaluationBracketFormat(t *testing.T) {
	input := "[요약]\n정부가 예산안을 발표했다.\n국회가 심사한다.\n\n[신뢰도] 높음 - 정부 공식 자료를 인용함"
	got, err := ParseEvaluation(input)
	require.NoError(t, err)
	require.Equal(t, "정부가 예산안을 발표했다.\n국회가 심사한다.", got.Summary)
	require.Equal(t, models.TrustHigh, got.Grade)
	require.Equal(t, "정부 공식 자료를 인용함", got.Reason)
}

func TestParseEvaluationNumberedFormat(t *testing.T) {
	input := "1) 요약: 정부가 예산안을 발표했다.\n국회가 심사한다.\n내년부터 시행된다.\n" +
		"2) 연합뉴스와 KBS 모두 같은 내용을 보도했다.\n차이는 없다.\n" +
		"3) 신뢰도: 낮음 - 출처가 불분명함"
	got, err := ParseEvaluation(input)
	require.NoError(t, err)
	require.Equal(t, "정부가 예산안을 발표했다.\n국회가 심사한다.\n내년부터 시행된다.", got.Summary)
	require.NotContains(t, got.Summary, "KBS")
	require.Equal(t, models.TrustLow, got.Grade)
	require.Equal(t, "출처가 불분명함", got.Reason)
}

func TestParseEvaluationNumberedSummaryOnly(t *testing.T) {
	got, err := ParseEvaluation("1) 첫째 줄\n둘째 줄\n신뢰도: 높음 - 공식 발표")
	require.NoError(t, err)
	require.Equal(t, "첫째 줄\n둘째 줄", got.Summary)
	require.Equal(t, models.TrustHigh, got.Grade)
}

func TestParseEvaluationEnglishFormat(t *testing.T) {
	input := "Summary: The budget passed.\nIt takes effect next year.\nTrust: medium - only the headline was available"
	got, err := ParseEvaluation(input)
	require.NoError(t, err)
	require.Equal(t, "The budget passed.\nIt takes effect next year.", got.Summary)
	require.Equal(t, models.TrustMedium, got.Grade)
	require.Equal(t, "only the headline was available", got.Reason)
}

func TestParseEvaluationFailures(t *testing.T) {
	_, err := ParseEvaluation("   ")
	require.ErrorIs(t, err, ErrEmptyResponse)

	_, err = ParseEvaluation("I cannot help with that.")
	require.ErrorIs(t, err, ErrUnparseable)

	_, err = ParseEvaluation(`{"foo": "bar"}`)
	require.ErrorIs(t, err, ErrUnparseable)
}

func TestPostProcessor(t *testing.T) {
	p := NewPostProcessor()

	eval := Evaluation{
		Summary: "[요약] - 첫 줄<script>alert(1)</script>\r\n\n* 둘째\x07 줄\\n3. 셋째 줄",
		Grade:   "great",
		Reason:  "  이유\t설명 <iframe src=x></iframe> ",
	}
	require.NoError(t, p.Process(&eval))
	require.Equal(t, "첫 줄\n둘째 줄\n셋째 줄", eval.Summary)
	require.Equal(t, models.TrustUnknown, eval.Grade)
	require.Equal(t, "이유 설명", eval.Reason)

	empty := Evaluation{Summary: " \n ", Grade: models.TrustHigh}
	require.ErrorIs(t, p.Process(&empty), ErrEmptySummary)
}

func TestBuildEvaluationPrompt(t *testing.T) {
	system, user := BuildEvaluationPrompt(Article{
		Title:   "국회\n예산안 통과",
		Source:  "연합뉴스",
		Content: "",
	}, []string{"YTN", "한겨레"}, "ko")

	require.Contains(t, system, "JSON")
	require.Contains(t, user, "written in Korean")
	require.Contains(t, user, "Title: 국회 예산안 통과")
	require.Contains(t, user, "Source: 연합뉴스")
	require.Contains(t, user, "YTN, 한겨레")
	require.Contains(t, user, "Content:\n국회\n예산안 통과")

	_, user = BuildEvaluationPrompt(Article{Title: "t", Content: "body"}, nil, "xx")
	require.NotContains(t, user, "reader follows")
	require.Contains(t, user, "written in xx")
}

package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseTrustGrade(t *testing.T) {
	cases := map[string]TrustGrade{
		"high":    TrustHigh,
		" HIGH ":  TrustHigh,
		"높음":      TrustHigh,
		"Medium":  TrustMedium,
		"보통":      TrustMedium,
		"low":     TrustLow,
		"낮음":      TrustLow,
		"":        TrustUnknown,
		"maybe":   TrustUnknown,
		"unknown": TrustUnknown,
	}
	for in, want := range cases {
		require.Equal(t, want, ParseTrustGrade(in), "input %q", in)
	}
	require.False(t, TrustUnknown.Valid())
	require.True(t, TrustMedium.Valid())
}

func TestNewsItemValidate(t *testing.T) {
	item := NewsItem{
		Title:      "Headline",
		Link:       "https://example.com/a",
		Source:     "연합뉴스",
		TrustGrade: TrustHigh,
	}
	require.NoError(t, item.Validate())

	item.TrustGrade = "excellent"
	require.Error(t, item.Validate())

	item.TrustGrade = TrustUnknown
	item.Link = "not a url"
	require.Error(t, item.Validate())

	item.Link = "https://example.com/a"
	item.Source = ""
	require.Error(t, item.Validate())
}

func TestNewsItemLanguageFallback(t *testing.T) {
	item := NewsItem{
		Title:   "제목",
		Summary: "요약",
		Translations: map[string]Translation{
			"en": {Title: "Title", Summary: "Summary"},
			"ja": {Title: "", Summary: "要約"},
		},
	}
	require.Equal(t, "Title", item.TitleIn("en"))
	require.Equal(t, "제목", item.TitleIn("ja"))
	require.Equal(t, "要約", item.SummaryIn("ja"))
	require.Equal(t, "요약", item.SummaryIn("fr"))
}

func TestNewsItemJSONFields(t *testing.T) {
	item := NewsItem{
		ID:          "id-1",
		Title:       "Title",
		Link:        "https://example.com/a",
		Source:      "YTN",
		TrustGrade:  TrustLow,
		ImageURL:    "https://example.com/image.jpg",
		PublishedAt: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	data, err := json.Marshal(item)
	require.NoError(t, err)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &result))
	require.Equal(t, "low", result["trust_grade"])
	require.Equal(t, "https://example.com/image.jpg", result["image_url"])
	require.NotContains(t, result, "translations")
}

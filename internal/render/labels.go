package render

import "github.com/bilgisen/newsflow/internal/models"

// Labels are the localized UI strings of a rendered page
type Labels struct {
	Language    string
	Reliability string
	Grades      map[models.TrustGrade]string
	NoImage     string
	Source      string
	Published   string
}

var labels = map[string]Labels{
	"ko": {
		Language:    "한국어",
		Reliability: "신뢰도",
		Grades:      map[models.TrustGrade]string{models.TrustHigh: "높음", models.TrustMedium: "보통", models.TrustLow: "낮음", models.TrustUnknown: "평가 실패"},
		NoImage:     "[이미지 없음]",
		Source:      "언론사",
		Published:   "발행 시간",
	},
	"en": {
		Language:    "English",
		Reliability: "Reliability",
		Grades:      map[models.TrustGrade]string{models.TrustHigh: "High", models.TrustMedium: "Medium", models.TrustLow: "Low", models.TrustUnknown: "Unrated"},
		NoImage:     "[No image]",
		Source:      "Source",
		Published:   "Published",
	},
	"ja": {
		Language:    "日本語",
		Reliability: "信頼度",
		Grades:      map[models.TrustGrade]string{models.TrustHigh: "高い", models.TrustMedium: "普通", models.TrustLow: "低い", models.TrustUnknown: "未評価"},
		NoImage:     "[画像なし]",
		Source:      "出典",
		Published:   "公開日時",
	},
	"fr": {
		Language:    "Français",
		Reliability: "Fiabilité",
		Grades:      map[models.TrustGrade]string{models.TrustHigh: "Élevée", models.TrustMedium: "Moyenne", models.TrustLow: "Faible", models.TrustUnknown: "Non évaluée"},
		NoImage:     "[Pas d'image]",
		Source:      "Source",
		Published:   "Publié",
	},
	"zh-Hans": {
		Language:    "中文(简体)",
		Reliability: "可信度",
		Grades:      map[models.TrustGrade]string{models.TrustHigh: "高", models.TrustMedium: "中", models.TrustLow: "低", models.TrustUnknown: "未评估"},
		NoImage:     "[无图片]",
		Source:      "来源",
		Published:   "发布时间",
	},
}

// LabelsFor returns the labels of lang, falling back to English.
func LabelsFor(lang string) Labels {
	if l, ok := labels[lang]; ok {
		return l
	}
	l := labels["en"]
	l.Language = lang
	return l
}

// GradeLabel returns the localized "<Reliability>: <grade>" badge text.
func GradeLabel(lang string, grade models.TrustGrade) string {
	l := LabelsFor(lang)
	g, ok := l.Grades[grade]
	if !ok {
		g = l.Grades[models.TrustUnknown]
	}
	return l.Reliability + ": " + g
}

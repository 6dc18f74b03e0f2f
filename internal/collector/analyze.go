package collector

import (
	"context"
	"fmt"

	"github.com/bilgisen/newsflow/internal/ai"
	"github.com/bilgisen/newsflow/internal/feed"
	"github.com/bilgisen/newsflow/internal/logger"
	"github.com/bilgisen/newsflow/internal/models"
)

// AnalyzeRequest is an ad-hoc evaluation of the current headlines
type AnalyzeRequest struct {
	SelectedSources    []string `json:"selected_sources" validate:"len=5,dive,required"`
	SelectedCategories []string `json:"selected_categories" validate:"min=1,dive,required"`
}

// AnalysisKey is the result map key for a keyword.
func AnalysisKey(category, subCategory string) string {
	return fmt.Sprintf("%s - %s", category, subCategory)
}

// Analyze fetches every keyword of the selected categories without touching
// the processed-link cache and evaluates the feed snippets. Nothing is stored.
func (c *Collector) Analyze(ctx context.Context, req AnalyzeRequest) (map[string][]models.EvaluatedArticle, error) {
	for _, name := range req.SelectedCategories {
		if !c.deps.Catalog.HasCategory(name) {
			return nil, &CategoryError{Name: name}
		}
	}

	results := make(map[string][]models.EvaluatedArticle)
	total := 0
	for _, cat := range req.SelectedCategories {
		for _, sub := range c.deps.Catalog.SubCategories(cat) {
			entries, err := c.deps.Feed.FetchCategory(ctx, cat, sub, feed.FetchOptions{Sources: c.deps.Catalog})
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				logger.Warn().Err(err).Str("category", cat).Str("sub_category", sub).Msg("Skipping keyword")
				continue
			}
			if len(entries) == 0 {
				continue
			}

			articles := make([]ai.Article, len(entries))
			for i, e := range entries {
				articles[i] = ai.Article{Title: e.Title, Source: e.Source, Content: e.Content()}
			}
			evals, err := c.deps.Evaluator.EvaluateAll(ctx, articles, req.SelectedSources)
			if err != nil {
				return nil, err
			}

			list := make([]models.EvaluatedArticle, len(entries))
			for i, e := range entries {
				ea := models.EvaluatedArticle{
					Title:       e.Title,
					Link:        e.Link,
					Source:      e.Source,
					PublishedAt: e.PublishedAt,
					TrustGrade:  models.TrustUnknown,
				}
				if evals[i].Err != nil {
					ea.Error = evals[i].Err.Error()
				} else {
					ea.Summary = evals[i].Evaluation.Summary
					ea.TrustGrade = evals[i].Evaluation.Grade
					ea.TrustReason = evals[i].Evaluation.Reason
				}
				list[i] = ea
			}
			results[AnalysisKey(cat, sub)] = list
			total += len(list)
		}
	}

	if total == 0 {
		return nil, ErrNoArticles
	}
	return results, nil
}

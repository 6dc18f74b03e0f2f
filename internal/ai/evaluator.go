package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/bilgisen/newsflow/internal/logger"
	"golang.org/x/sync/errgroup"
)

// Result pairs an evaluation with the error that prevented it, if any
type Result struct {
	Evaluation Evaluation
	Err        error
}

type Evaluator struct {
	completer   Completer
	post        *PostProcessor
	language    string
	concurrency int
}

// NewEvaluator creates an evaluator writing summaries in language.
func NewEvaluator(c Completer, language string, concurrency int) *Evaluator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Evaluator{
		completer:   c,
		post:        NewPostProcessor(),
		language:    language,
		concurrency: concurrency,
	}
}

// Evaluate summarises and grades one article.
func (e *Evaluator) Evaluate(ctx context.Context, a Article, sources []string) (Evaluation, error) {
	if e.completer == nil {
		return Evaluation{}, ErrNotConfigured
	}
	start := time.Now()

	system, user := BuildEvaluationPrompt(a, sources, e.language)
	answer, err := e.completer.Complete(ctx, system, user)
	if err != nil {
		return Evaluation{}, fmt.Errorf("%s: %w", e.completer.Name(), err)
	}

	eval, err := ParseEvaluation(answer)
	if err != nil {
		logger.Debug().Str("answer", answer).Msg("Unparseable evaluation")
		return Evaluation{}, err
	}
	if err := e.post.Process(&eval); err != nil {
		return Evaluation{}, err
	}

	logger.Debug().
		Str("provider", e.completer.Name()).
		Str("title", a.Title).
		Str("grade", string(eval.Grade)).
		Dur("duration", time.Since(start)).
		Msg("Evaluated article")
	return eval, nil
}

// EvaluateAll evaluates articles concurrently. Results are positional and
// carry per-item errors; the returned error is set only when ctx ends.
func (e *Evaluator) EvaluateAll(ctx context.Context, articles []Article, sources []string) ([]Result, error) {
	results := make([]Result, len(articles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i := range articles {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i].Err = err
				return err
			}
			eval, err := e.Evaluate(gctx, articles[i], sources)
			results[i] = Result{Evaluation: eval, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}

package build

import (
	"context"
	"errors"
	"time"

	ferrors "github.com/frontedward/dictator/internal/foundation/errors"
	"github.com/frontedward/dictator/internal/logfields"
	"github.com/frontedward/dictator/internal/metrics"
	"github.com/frontedward/dictator/internal/observability"
)

// StageName identifies a pipeline stage in logs, metrics and the report.
type StageName string

const (
	StageLoadContent   StageName = "load-content"
	StageRenderDocs    StageName = "render-docs"
	StageRenderBlog    StageName = "render-blog"
	StageRenderLanding StageName = "render-landing"
	StageStaticAssets  StageName = "static-assets"
	StageSearch        StageName = "search"
	StageSitemap       StageName = "sitemap"
	StagePWA           StageName = "pwa"
	StageCheckLinks    StageName = "check-links"
	StagePublish       StageName = "publish"
)

type stageFunc func(ctx context.Context, st *state) error

type stageDef struct {
	name StageName
	fn   stageFunc
}

func (b *Builder) stages() []stageDef {
	return []stageDef{
		{StageLoadContent, b.loadContent},
		{StageRenderDocs, b.renderDocs},
		{StageRenderBlog, b.renderBlog},
		{StageRenderLanding, b.renderLanding},
		{StageStaticAssets, b.staticAssets},
		{StageSearch, b.searchFiles},
		{StageSitemap, b.sitemap},
		{StagePWA, b.offlineSupport},
		{StageCheckLinks, b.checkLinks},
		{StagePublish, b.publish},
	}
}

// runStages executes stages in order, recording timing and stopping on the first error.
func (b *Builder) runStages(ctx context.Context, st *state, stages []stageDef) error {
	rec := b.opts.Recorder
	buildID := observability.GetContext(ctx).BuildID
	for _, s := range stages {
		if err := ctx.Err(); err != nil {
			rec.IncStageResult(string(s.name), metrics.ResultCanceled)
			return ferrors.WrapError(err, ferrors.CategoryRuntime, "build canceled").
				WithContext(logfields.KeyStage, string(s.name)).
				Build()
		}

		stageCtx := observability.WithStage(ctx, string(s.name))
		stageCtx, span := observability.StartStageSpan(stageCtx, string(s.name), buildID)
		warningsBefore := len(st.report.Warnings)

		t0 := time.Now()
		err := s.fn(stageCtx, st)
		dur := time.Since(t0)
		observability.EndSpan(span, err)

		result := classifyStage(err, len(st.report.Warnings) > warningsBefore)
		st.report.Stages = append(st.report.Stages, StageTiming{Name: s.name, Duration: dur, Result: result})
		rec.ObserveStageDuration(string(s.name), dur)
		rec.IncStageResult(string(s.name), result)
		observability.DebugContext(stageCtx, "Stage finished", logfields.DurationMS(millis(dur)))

		if err != nil {
			return stageError(s.name, err)
		}
	}
	return nil
}

func classifyStage(err error, warned bool) metrics.ResultLabel {
	switch {
	case err == nil && warned:
		return metrics.ResultWarning
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return metrics.ResultCanceled
	default:
		return metrics.ResultFatal
	}
}

// stageError attaches the stage to err, classifying it as a build error when
// the stage returned a plain error.
func stageError(name StageName, err error) error {
	if ce, ok := ferrors.AsClassified(err); ok {
		return ce.WithContext(logfields.KeyStage, string(name))
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ferrors.WrapError(err, ferrors.CategoryRuntime, "build canceled").
			WithContext(logfields.KeyStage, string(name)).
			Build()
	}
	return ferrors.WrapError(err, ferrors.CategoryBuild, "stage failed").
		WithContext(logfields.KeyStage, string(name)).
		Build()
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

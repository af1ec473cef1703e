package build

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/frontedward/dictator/internal/blog"
	"github.com/frontedward/dictator/internal/config"
	"github.com/frontedward/dictator/internal/docs"
	"github.com/frontedward/dictator/internal/git"
	"github.com/frontedward/dictator/internal/linkverify"
	"github.com/frontedward/dictator/internal/logfields"
	"github.com/frontedward/dictator/internal/markdown"
	"github.com/frontedward/dictator/internal/metrics"
	"github.com/frontedward/dictator/internal/observability"
	"github.com/frontedward/dictator/internal/search"
	"github.com/frontedward/dictator/internal/site"
)

// Options modify how a build runs. The zero value builds in memory only.
type Options struct {
	// OutputDir receives the published site. Empty skips the publish stage.
	OutputDir string
	// IncludeDrafts renders docs and posts marked draft.
	IncludeDrafts bool
	// Recorder receives stage and build metrics. Nil records nothing.
	Recorder metrics.Recorder
	// History provides last-update info. When nil and the docs options ask
	// for it, the repository containing the site directory is opened.
	History *git.History
	// Now decides which blog posts are due. Defaults to time.Now.
	Now func() time.Time
	// Cache reuses rendered markdown across builds. Nil renders everything.
	Cache *RenderCache
}

// Builder builds one site configuration. A Builder may run many builds, one at a time.
type Builder struct {
	cfg  *config.SiteConfig
	opts Options
	md   *markdown.Renderer
}

// New creates a builder for cfg.
func New(cfg *config.SiteConfig, opts Options) *Builder {
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	return &Builder{cfg: cfg, opts: opts, md: markdown.NewRenderer()}
}

// Config returns the configuration the builder was created with.
func (b *Builder) Config() *config.SiteConfig { return b.cfg }

// state is the data passed between the stages of one build.
type state struct {
	report *Report
	out    *Output

	docs     *docs.Set
	blog     *blog.Blog
	renderer *site.Renderer
	search   *search.DocSearch

	targets  linkTargets
	digest   string
	mdBroken []linkverify.BrokenLink
}

func (st *state) warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	st.report.AddWarning(msg)
	observability.WarnContext(ctx, msg, attrs...)
}

// Build runs every stage. The report is returned even when the build fails;
// a failed or canceled build publishes nothing.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	id := uuid.NewString()
	ctx = observability.WithBuildID(ctx, id)
	ctx, span := observability.StartBuildSpan(ctx, id)

	st := &state{report: newReport(id, time.Now()), out: newOutput()}
	observability.InfoContext(ctx, "Build started", logfields.Path(b.cfg.Dir))

	err := b.runStages(ctx, st, b.stages())
	st.report.finish(time.Now(), err, err != nil && ctx.Err() != nil)
	st.report.Files = st.out.Len()
	st.report.Pages = len(st.out.Routes())

	b.opts.Recorder.ObserveBuildDuration(st.report.Duration())
	b.opts.Recorder.IncBuildOutcome(st.report.outcomeLabel())
	observability.EndSpan(span, err)

	if err != nil {
		observability.ErrorContext(ctx, "Build failed",
			slog.String("outcome", string(st.report.Outcome)),
			logfields.DurationMS(millis(st.report.Duration())),
			logfields.Error(err))
		return st.report, err
	}
	observability.InfoContext(ctx, "Build finished",
		slog.String("outcome", string(st.report.Outcome)),
		slog.Int("pages", st.report.Pages),
		slog.Int("files", st.report.Files),
		slog.Int("warnings", len(st.report.Warnings)),
		logfields.DurationMS(millis(st.report.Duration())))
	return st.report, nil
}

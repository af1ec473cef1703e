package build

import (
	"fmt"
	"time"

	"github.com/frontedward/dictator/internal/metrics"
)

// Outcome is the typed enumeration of final build result states.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeWarning  Outcome = "warning"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// StageTiming is the duration and result of one executed stage.
type StageTiming struct {
	Name     StageName
	Duration time.Duration
	Result   metrics.ResultLabel
}

// Report captures what a build did. It is returned for failed builds too.
type Report struct {
	BuildID string
	Start   time.Time
	End     time.Time
	Outcome Outcome
	Stages  []StageTiming

	Warnings []string

	Docs      int
	Posts     int
	Pages     int
	Files     int
	CacheHits int
	// Scheduled counts blog posts held back until their date.
	Scheduled int
	// NextDue is the earliest scheduled post date, zero when none.
	NextDue time.Time

	BrokenLinks         int
	BrokenMarkdownLinks int

	// OutputDir is where the site was published, empty when not published.
	OutputDir string
}

func newReport(id string, start time.Time) *Report {
	return &Report{BuildID: id, Start: start}
}

// AddWarning records a non-fatal problem.
func (r *Report) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// Duration is the wall time of the build.
func (r *Report) Duration() time.Duration {
	if r.End.IsZero() {
		return 0
	}
	return r.End.Sub(r.Start)
}

// StageDuration returns how long a stage ran, and whether it ran at all.
func (r *Report) StageDuration(name StageName) (time.Duration, bool) {
	for _, s := range r.Stages {
		if s.Name == name {
			return s.Duration, true
		}
	}
	return 0, false
}

// finish derives the outcome from err and the recorded warnings.
func (r *Report) finish(end time.Time, err error, canceled bool) {
	r.End = end
	switch {
	case canceled:
		r.Outcome = OutcomeCanceled
	case err != nil:
		r.Outcome = OutcomeFailed
	case len(r.Warnings) > 0:
		r.Outcome = OutcomeWarning
	default:
		r.Outcome = OutcomeSuccess
	}
}

func (r *Report) outcomeLabel() metrics.BuildOutcomeLabel {
	switch r.Outcome {
	case OutcomeWarning:
		return metrics.BuildOutcomeWarning
	case OutcomeFailed:
		return metrics.BuildOutcomeFailed
	case OutcomeCanceled:
		return metrics.BuildOutcomeCanceled
	default:
		return metrics.BuildOutcomeSuccess
	}
}

// Summary is a one-line human readable description of the report.
func (r *Report) Summary() string {
	return fmt.Sprintf("%s: %d pages (%d docs, %d posts), %d files, %d warnings in %s",
		r.Outcome, r.Pages, r.Docs, r.Posts, r.Files, len(r.Warnings), r.Duration().Round(time.Millisecond))
}

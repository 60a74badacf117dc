package metrics

import "time"

// PageOutcome is the final state of one works page.
type PageOutcome string

const (
	PageBuilt    PageOutcome = "built"
	PageNotFound PageOutcome = "not_found"
	PageFailed   PageOutcome = "failed"
)

// BuildOutcome is the final state of a build run.
type BuildOutcome string

const (
	BuildSuccess  BuildOutcome = "success"
	BuildWarning  BuildOutcome = "warning"
	BuildFailed   BuildOutcome = "failed"
	BuildCanceled BuildOutcome = "canceled"
)

// Recorder defines observability hooks for the build pipeline.
type Recorder interface {
	// ObserveStageDuration records the time spent in one per-page stage
	// (resolve, related, referencing, overlay, write).
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncPageOutcome(outcome PageOutcome)
	// IncSoftFailure counts a collaborator failure replaced by a default.
	IncSoftFailure(component string)
	IncBuildOutcome(outcome BuildOutcome)
	SetConcurrency(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)         {}
func (NoopRecorder) IncPageOutcome(PageOutcome)                 {}
func (NoopRecorder) IncSoftFailure(string)                      {}
func (NoopRecorder) IncBuildOutcome(BuildOutcome)               {}
func (NoopRecorder) SetConcurrency(int)                         {}

package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultWarning  ResultLabel = "warning"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// BuildOutcomeLabel enumerates final build outcomes for counters.
type BuildOutcomeLabel string

const (
	OutcomeSuccess  BuildOutcomeLabel = "success"
	OutcomeWarning  BuildOutcomeLabel = "warning"
	OutcomeFailed   BuildOutcomeLabel = "failed"
	OutcomeCanceled BuildOutcomeLabel = "canceled"
)

// Recorder defines observability hooks for build, publish, and trigger
// metrics. Implementations may forward to Prometheus, OpenTelemetry, etc.
// All methods must be safe on the NoopRecorder so injection stays optional.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncBuildOutcome(outcome BuildOutcomeLabel)
	ObservePublishDuration(d time.Duration, success bool)
	IncPublishResult(success bool)
	IncTrigger(source string) // source: fs, interval, nats, webhook, manual or startup
	SetPostsRendered(n int)
	SetPostsSkipped(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration)   {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)           {}
func (NoopRecorder) IncStageResult(string, ResultLabel)           {}
func (NoopRecorder) IncBuildOutcome(BuildOutcomeLabel)            {}
func (NoopRecorder) ObservePublishDuration(time.Duration, bool)   {}
func (NoopRecorder) IncPublishResult(bool)                        {}
func (NoopRecorder) IncTrigger(string)                            {}
func (NoopRecorder) SetPostsRendered(int)                         {}
func (NoopRecorder) SetPostsSkipped(int)                          {}

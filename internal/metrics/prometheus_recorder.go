package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once            sync.Once
	stageDuration   *prom.HistogramVec
	buildDuration   prom.Histogram
	stageResults    *prom.CounterVec
	buildOutcome    *prom.CounterVec
	publishDuration *prom.HistogramVec
	publishResults  *prom.CounterVec
	triggers        *prom.CounterVec
	postsRendered   prom.Gauge
	postsSkipped    prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "blogpress",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual build stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "blogpress",
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		})
		pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "blogpress",
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"})
		pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "blogpress",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"})
		pr.publishDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "blogpress",
			Name:      "publish_duration_seconds",
			Help:      "Duration of hosting branch publish operations",
			Buckets:   prom.DefBuckets,
		}, []string{"result"})
		pr.publishResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "blogpress",
			Name:      "publish_results_total",
			Help:      "Publish results by success/failure",
		}, []string{"result"})
		pr.triggers = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "blogpress",
			Name:      "triggers_total",
			Help:      "Build triggers by source",
		}, []string{"source"})
		pr.postsRendered = prom.NewGauge(prom.GaugeOpts{
			Namespace: "blogpress",
			Name:      "posts_rendered",
			Help:      "Posts rendered by the most recent build",
		})
		pr.postsSkipped = prom.NewGauge(prom.GaugeOpts{
			Namespace: "blogpress",
			Name:      "posts_skipped",
			Help:      "Posts skipped by the most recent build",
		})
		reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.stageResults, pr.buildOutcome,
			pr.publishDuration, pr.publishResults, pr.triggers, pr.postsRendered, pr.postsSkipped)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) ObservePublishDuration(d time.Duration, success bool) {
	if p == nil || p.publishDuration == nil {
		return
	}
	p.publishDuration.WithLabelValues(successLabel(success)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPublishResult(success bool) {
	if p == nil || p.publishResults == nil {
		return
	}
	p.publishResults.WithLabelValues(successLabel(success)).Inc()
}

func (p *PrometheusRecorder) IncTrigger(source string) {
	if p == nil || p.triggers == nil {
		return
	}
	p.triggers.WithLabelValues(source).Inc()
}

func (p *PrometheusRecorder) SetPostsRendered(n int) {
	if p == nil || p.postsRendered == nil {
		return
	}
	p.postsRendered.Set(float64(n))
}

func (p *PrometheusRecorder) SetPostsSkipped(n int) {
	if p == nil || p.postsSkipped == nil {
		return
	}
	p.postsSkipped.Set(float64(n))
}

func successLabel(success bool) string {
	if success {
		return "success"
	}
	return "failed"
}

// Package metrics provides build metrics for the site generator.
//
// Components receive a Recorder through dependency injection. NoopRecorder is
// the default and does nothing; PrometheusRecorder registers collectors on a
// registry that the preview server exposes at /metrics:
//
//	reg := prometheus.NewRegistry()
//	recorder := metrics.NewPrometheusRecorder(reg)
//	builder := build.New(cfg, build.Options{Recorder: recorder})
package metrics

// Package metrics records build metrics for the works page pipeline.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics calls never need nil checks:
//
//	type Builder struct {
//		recorder metrics.Recorder
//	}
//
//	b.recorder.IncPageOutcome(metrics.PageBuilt)
//
// PrometheusRecorder backs the interface with client_golang collectors
// registered on a caller-supplied registry. A batch build has no scrape
// endpoint; WriteTextfile dumps the registry in the text exposition format
// for the node_exporter textfile collector.
package metrics

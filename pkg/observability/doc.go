/*
Package observability exposes Prometheus metrics for the save pipeline.

It counts section saves by outcome, validation failures by field, and record
store operations by table. A nil *Metrics is valid and records nothing.
*/
package observability

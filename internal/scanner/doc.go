// Package scanner wraps the external reconnaissance CLI tool as a
// collaborator of the pipeline. The core never distinguishes "no findings"
// from "scanner unavailable": network errors, a missing tool, timeouts,
// and nonzero exits all degrade to an empty event list and are never
// retried automatically within a run.
package scanner

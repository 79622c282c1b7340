// Package pipeline orchestrates the execution of authorized intakes: scan,
// normalize, score, render, QC, dispatch. The Coordinator runs exactly one
// intake end to end; the Runner drains the authorized backlog in priority
// order. Both are strictly sequential. One client's report is small work,
// and a deterministic order is worth far more here than throughput.
package pipeline

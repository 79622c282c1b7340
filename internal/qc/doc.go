// Package qc runs the fixed quality-control checklist against a produced
// report artifact. The gate is a pure evaluation with file-existence
// side-reads only; persisting its verdict is the caller's job.
package qc

// Package intel turns raw scanner events into scored findings.
//
// The processing order is fixed: Normalize, then Dedupe, then Score.
// Scoring must see deduplicated data, otherwise duplicate events would
// double-count risk in the report. All three stages are pure functions
// over their inputs; nothing here touches the state store or the disk.
package intel

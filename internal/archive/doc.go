// Package archive provides SQLite-backed storage of scan evidence: the
// raw scanner output per intake, the scored findings, and the QC verdict
// history. The lifecycle state document stays authoritative for state; the
// archive exists so raw evidence and historical verdicts survive for
// audits even when artifacts are re-rendered or purged.
package archive

// Package report renders the client-facing report package: the Markdown
// document, its machine-readable metadata sidecar, and the persisted QC
// checklist. Every produced file follows the strict MAPA-RD naming
// convention that the QC gate later validates.
package report

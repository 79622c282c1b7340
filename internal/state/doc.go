// Package state implements the authoritative lifecycle store of the
// MAPA-RD pipeline: clients, intakes, reports, and the append-only audit
// log, persisted as a single JSON document rewritten after every mutation.
//
// The store is an explicit instance passed by reference to its
// collaborators (scheduler queries, pipeline coordinator, QC gate callers);
// there is no package-level global. It enforces every valid state
// transition and rejects everything else, which makes it the only place
// lifecycle invariants live.
package state

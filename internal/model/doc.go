// Package model defines the core data types of the MAPA-RD pipeline:
// clients, intakes, reports, findings, and the append-only event log.
//
// All lifecycle states are typed string enums so that invalid values are
// caught at compile time where possible and rejected explicitly everywhere
// else. The Spanish state literals (GENERADO, AUTORIZADO, ...) are the wire
// format of the persisted state document and must not be translated.
package model

// Package main provides the entry point for the MAPA-RD CLI.
//
// MAPA-RD runs the OSINT intake-to-report workflow of a privacy
// consultancy: client registration, intake authorization, reconnaissance
// scans, report generation with quality control, and dispatch.
//
// Usage:
//
//	mapard client add "Juan Pérez"
//	mapard intake create 0000001 --type BASELINE --domain juanperez.com.mx
//	mapard intake authorize I-0000001-0001
//	mapard run
//	mapard sweep
//
// See --help for all available options.
package main

// main is the entry point for MAPA-RD.
func main() {
	Execute()
}

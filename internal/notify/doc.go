// Package notify dispatches finished reports by email. Two backends exist:
// a real SMTP transport with bounded retries, and a stub that durably
// records what would have been sent, for environments without mail
// credentials. A failed send is always surfaced as a failure; it is never
// converted into a successful-looking state.
package notify

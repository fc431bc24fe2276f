// Package tracker decides when a recording file has finished being written.
//
// There is no explicit "recording stopped" signal from the recorder, so the
// tracker treats one full check interval without a modify event as the
// completion signal. It tracks at most one file at a time; a new recording
// replaces the old one and the old one never completes.
package tracker

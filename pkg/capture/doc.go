// Package capture records a web page through Playwright while replaying a
// step script, producing one raw video per capture.
//
// # Architecture
//
// The package is built around three pieces:
//
//  1. Runtime: owns the Playwright driver and launches isolated sessions
//     (browser process, browser context with video recording, page)
//  2. Controller: drives one session through its lifecycle and guarantees
//     teardown on every exit path
//  3. Orchestrator: runs the controller once for "base" and once for
//     "preview" with otherwise identical configuration
//
// # Session Lifecycle
//
// A capture moves through these states:
//
//	Idle → Navigating → {Loaded | NavigationFailed} → Interacting
//	     → DurationPad → Finalizing → Closed
//
// Finalizing always runs once a session was launched, whether the capture
// succeeded, a step failed, or navigation timed out. It closes the page,
// resolves the recorded video, then closes the context and the browser.
//
// # Output Layout
//
// Each capture records into its own directory, <output>/video-<tag>, so two
// captures never share files and may run concurrently.
package capture

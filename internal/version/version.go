// Package version provides build and version information.
package version

// Version is the current application version.
const Version = "0.3.0"

// Milestones:
// 0.3.0 - HTTP API with websocket frame stream, Prometheus metrics, serve command
// 0.2.0 - NEO feed as impact source, footprint rings, headless impact/positions/neo
// 0.1.0 - Initial release: Kepler orrery, impact calculator, TUI

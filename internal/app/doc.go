// Package app assembles the analytics service: configuration, logging,
// telemetry, the snapshot store, the run manager, query services and the
// HTTP router with its middleware chain.
package app

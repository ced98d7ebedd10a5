// Package timeouts defines shared timeout constants used across services.
package timeouts

import "time"

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long servers wait for in-flight requests during
// graceful shutdown.
const Shutdown = 5 * time.Second

// Idle closes keep-alive HTTP connections that sit unused.
const Idle = 60 * time.Second

// HealthWait caps how long tooling waits for a service to report SERVING.
const HealthWait = 10 * time.Second

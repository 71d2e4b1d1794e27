// Package timeouts defines shared timeout constants used across services.
package timeouts

import "time"

// GRPCRequest caps the time allowed for a single inbound gRPC request.
const GRPCRequest = 10 * time.Second

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long servers wait for in-flight requests during
// graceful shutdown.
const Shutdown = 5 * time.Second

// StoreOpen bounds connecting to and migrating a backing store at startup.
const StoreOpen = 15 * time.Second

// Notify bounds one best-effort notification delivery after a commit.
const Notify = 5 * time.Second

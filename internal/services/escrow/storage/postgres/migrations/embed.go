package migrations

import _ "embed"

// Schema creates the escrow tables when they do not already exist.
//
//go:embed 001_bookings.sql
var Schema string

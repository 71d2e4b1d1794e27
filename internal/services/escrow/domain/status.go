package domain

import (
	"fmt"
	"strings"
)

// Status is the escrow lifecycle state of a booking.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusEscrowed  Status = "escrowed"
	StatusCompleted Status = "completed"
	StatusDisputed  Status = "disputed"
	StatusMediation Status = "mediation"
	StatusCancelled Status = "cancelled"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{
	StatusPending,
	StatusAccepted,
	StatusEscrowed,
	StatusCompleted,
	StatusDisputed,
	StatusMediation,
	StatusCancelled,
}

var transitions = map[Status][]Status{
	StatusPending:  {StatusAccepted, StatusCancelled},
	StatusAccepted: {StatusEscrowed, StatusCancelled},
	StatusEscrowed: {StatusCompleted, StatusMediation, StatusDisputed},
}

// ParseStatus parses a status name, case-insensitively.
func ParseStatus(raw string) (Status, error) {
	candidate := Status(strings.ToLower(strings.TrimSpace(raw)))
	for _, status := range Statuses {
		if status == candidate {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown booking status %q", raw)
}

// CanTransition reports whether the lifecycle graph has an edge from s to next.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the booking's lifecycle has ended. Mediation and
// disputes are not terminal: operations staff resolve them outside the
// ledger, which only guarantees they are never left again by its own
// transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// FundsHeld reports whether the venue's money is captured by the platform.
func (s Status) FundsHeld() bool {
	switch s {
	case StatusEscrowed, StatusMediation, StatusDisputed:
		return true
	default:
		return false
	}
}

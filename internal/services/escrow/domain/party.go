package domain

import (
	"fmt"
	"strings"
)

// Party identifies one side of a booking.
type Party string

const (
	PartyVenue    Party = "venue"
	PartyMusician Party = "musician"
)

// ParseParty parses a party name, case-insensitively.
func ParseParty(raw string) (Party, error) {
	switch Party(strings.ToLower(strings.TrimSpace(raw))) {
	case PartyVenue:
		return PartyVenue, nil
	case PartyMusician:
		return PartyMusician, nil
	default:
		return "", fmt.Errorf("unknown party %q", raw)
	}
}

// Counterparty returns the other side of the booking.
func (p Party) Counterparty() Party {
	if p == PartyVenue {
		return PartyMusician
	}
	return PartyVenue
}

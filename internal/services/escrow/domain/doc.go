// Package domain models the escrow lifecycle of a single booking between a
// venue and a musician.
//
// # Money
//
// Amounts are integer cents. Percentage fees round half-up at the point of
// computation, so stored and displayed totals never drift apart.
//
// # Lifecycle
//
// A booking is proposed in pending, accepted by the musician, and escrowed
// once the venue's payment is captured. While escrowed each party rates the
// other exactly once. The second rating decides the outcome: two ratings of
// at least four stars release the funds (completed); anything lower routes
// the booking to mediation and adds the mediation fee. Either party may
// cancel before escrow or open a dispute while funds are held.
//
// Every transition is a method on Booking that returns the next value and
// leaves the receiver untouched, so a rejected operation can never leave a
// partially updated booking behind.
package domain

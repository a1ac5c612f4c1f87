// Package oracle defines the price observation contract a reserve consumes.
// Feed transport and attestation live with the host; the core only sees the
// (spot, smoothed, identifier, timestamp) tuple.
package oracle

import (
	"errors"

	"lendex/fixedpoint"
)

// ErrInvalidObservation is returned when an observation carries no usable
// spot price.
var ErrInvalidObservation = errors.New("oracle: invalid observation")

// Observation is one reading from a pinned price feed. A nil Spot marks the
// reading invalid or unavailable; consumers must fault rather than fall back
// to the smoothed price alone.
type Observation struct {
	Spot      *fixedpoint.Decimal
	Smoothed  fixedpoint.Decimal
	FeedID    string
	Timestamp uint64
}

// Validate reports whether the observation carries a usable spot price.
func (o Observation) Validate() error {
	if o.Spot == nil {
		return ErrInvalidObservation
	}
	return nil
}

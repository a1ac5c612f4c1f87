package types

import "errors"

var (
	// ErrInsufficientValue is returned when a split asks for more than the
	// coin holds.
	ErrInsufficientValue = errors.New("types: insufficient coin value")
	// ErrCoinTypeMismatch is returned when two coins of different types are
	// joined.
	ErrCoinTypeMismatch = errors.New("types: coin type mismatch")
	// ErrValueOverflow is returned when a join would wrap the amount.
	ErrValueOverflow = errors.New("types: coin value overflow")
)

// Coin is an owned quantity of a typed unit. It is a move-only handle: the
// fields are unexported, splits transfer value out of the receiver, and the
// package never duplicates value. Callers that copy a Coin struct and spend
// both copies are double-spending by construction, so Coins are passed as
// pointers and consumed exactly once.
type Coin struct {
	coinType string
	amount   uint64
}

// NewCoin fabricates value out of band. It exists for the host boundary
// (faucets, bridged deposits, test fixtures); within the core, value only
// moves through Split and Join.
func NewCoin(coinType string, amount uint64) *Coin {
	return &Coin{coinType: coinType, amount: amount}
}

// Zero returns an empty coin of the given type.
func Zero(coinType string) *Coin {
	return &Coin{coinType: coinType}
}

// CoinType returns the unit this coin is denominated in.
func (c *Coin) CoinType() string {
	if c == nil {
		return ""
	}
	return c.coinType
}

// Value returns the amount held.
func (c *Coin) Value() uint64 {
	if c == nil {
		return 0
	}
	return c.amount
}

// Split moves amount out of the receiver into a fresh coin.
func (c *Coin) Split(amount uint64) (*Coin, error) {
	if c == nil || c.amount < amount {
		return nil, ErrInsufficientValue
	}
	c.amount -= amount
	return &Coin{coinType: c.coinType, amount: amount}, nil
}

// Join absorbs other into the receiver, leaving other empty.
func (c *Coin) Join(other *Coin) error {
	if other == nil {
		return nil
	}
	if c.coinType != other.coinType {
		return ErrCoinTypeMismatch
	}
	if c.amount+other.amount < c.amount {
		return ErrValueOverflow
	}
	c.amount += other.amount
	other.amount = 0
	return nil
}

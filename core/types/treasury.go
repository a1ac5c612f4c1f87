package types

import "errors"

// ErrSupplyUnderflow is returned when a burn exceeds the outstanding supply.
var ErrSupplyUnderflow = errors.New("types: burn exceeds outstanding supply")

// Treasury is the sole mint/burn authority for a claim-token type. The
// outstanding supply moves 1:1 with issuance, so supply bookkeeping cannot
// drift from the coins in circulation.
type Treasury struct {
	coinType string
	supply   uint64
}

// NewTreasury creates the mint authority for coinType with zero supply.
func NewTreasury(coinType string) *Treasury {
	return &Treasury{coinType: coinType}
}

// CoinType returns the claim-token type this treasury controls.
func (t *Treasury) CoinType() string { return t.coinType }

// Supply returns the outstanding minted amount.
func (t *Treasury) Supply() uint64 { return t.supply }

// Mint issues amount new claim tokens.
func (t *Treasury) Mint(amount uint64) *Coin {
	t.supply += amount
	return &Coin{coinType: t.coinType, amount: amount}
}

// Burn destroys the coin and shrinks the outstanding supply by its value.
func (t *Treasury) Burn(coin *Coin) (uint64, error) {
	if coin == nil {
		return 0, nil
	}
	if coin.coinType != t.coinType {
		return 0, ErrCoinTypeMismatch
	}
	if coin.amount > t.supply {
		return 0, ErrSupplyUnderflow
	}
	amount := coin.amount
	t.supply -= amount
	coin.amount = 0
	return amount, nil
}

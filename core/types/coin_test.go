package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCoinSplitJoin(t *testing.T) {
	coin := NewCoin("usdc", 1000)

	part, err := coin.Split(300)
	require.NoError(t, err)
	require.Equal(t, uint64(300), part.Value())
	require.Equal(t, uint64(700), coin.Value())
	require.Equal(t, "usdc", part.CoinType())

	require.NoError(t, coin.Join(part))
	require.Equal(t, uint64(1000), coin.Value())
	require.Equal(t, uint64(0), part.Value())
}

func TestCoinSplitInsufficient(t *testing.T) {
	coin := NewCoin("usdc", 10)
	_, err := coin.Split(11)
	require.ErrorIs(t, err, ErrInsufficientValue)
	require.Equal(t, uint64(10), coin.Value())
}

func TestCoinJoinOverflow(t *testing.T) {
	coin := NewCoin("usdc", math.MaxUint64-5)
	extra := NewCoin("usdc", 6)
	require.ErrorIs(t, coin.Join(extra), ErrValueOverflow)
	require.Equal(t, uint64(math.MaxUint64-5), coin.Value())
	require.Equal(t, uint64(6), extra.Value())

	fits := NewCoin("usdc", 5)
	require.NoError(t, coin.Join(fits))
	require.Equal(t, uint64(math.MaxUint64), coin.Value())
}

func TestCoinJoinTypeMismatch(t *testing.T) {
	usdc := NewCoin("usdc", 10)
	sui := NewCoin("sui", 10)
	require.ErrorIs(t, usdc.Join(sui), ErrCoinTypeMismatch)
	require.Equal(t, uint64(10), usdc.Value())
	require.Equal(t, uint64(10), sui.Value())
}

func TestCoinNilSafety(t *testing.T) {
	var coin *Coin
	require.Equal(t, uint64(0), coin.Value())
	require.Equal(t, "", coin.CoinType())
	_, err := coin.Split(1)
	require.ErrorIs(t, err, ErrInsufficientValue)

	full := NewCoin("usdc", 5)
	require.NoError(t, full.Join(nil))
	require.Equal(t, uint64(5), full.Value())
}

func TestZeroCoin(t *testing.T) {
	coin := Zero("usdc")
	require.Equal(t, uint64(0), coin.Value())
	require.Equal(t, "usdc", coin.CoinType())
}

func TestTreasuryMintBurn(t *testing.T) {
	treasury := NewTreasury("ctoken<usdc>")

	minted := treasury.Mint(500)
	require.Equal(t, uint64(500), minted.Value())
	require.Equal(t, "ctoken<usdc>", minted.CoinType())
	require.Equal(t, uint64(500), treasury.Supply())

	part, err := minted.Split(200)
	require.NoError(t, err)
	burned, err := treasury.Burn(part)
	require.NoError(t, err)
	require.Equal(t, uint64(200), burned)
	require.Equal(t, uint64(300), treasury.Supply())
	require.Equal(t, uint64(0), part.Value())
}

func TestTreasuryBurnRejectsForeignCoin(t *testing.T) {
	treasury := NewTreasury("ctoken<usdc>")
	treasury.Mint(100)

	_, err := treasury.Burn(NewCoin("usdc", 10))
	require.ErrorIs(t, err, ErrCoinTypeMismatch)
	require.Equal(t, uint64(100), treasury.Supply())
}

func TestTreasuryBurnUnderflow(t *testing.T) {
	treasury := NewTreasury("ctoken<usdc>")
	treasury.Mint(100)

	_, err := treasury.Burn(NewCoin("ctoken<usdc>", 101))
	require.ErrorIs(t, err, ErrSupplyUnderflow)
	require.Equal(t, uint64(100), treasury.Supply())
}

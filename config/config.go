// Package config loads reserve parameter files. The wire format is TOML;
// the output is a validated lending.ReserveConfig ready to hand to a
// reserve.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"lendex/native/lending"
)

// ReserveFile mirrors the ConfigBuilder inputs field for field.
type ReserveFile struct {
	CoinType                  string       `toml:"CoinType"`
	OpenLTVPct                uint8        `toml:"OpenLTVPct"`
	CloseLTVPct               uint8        `toml:"CloseLTVPct"`
	BorrowWeightBps           uint64       `toml:"BorrowWeightBps"`
	DepositLimit              uint64       `toml:"DepositLimit"`
	DepositLimitUSD           uint64       `toml:"DepositLimitUSD"`
	BorrowLimit               uint64       `toml:"BorrowLimit"`
	BorrowLimitUSD            uint64       `toml:"BorrowLimitUSD"`
	LiquidationBonusBps       uint64       `toml:"LiquidationBonusBps"`
	ProtocolLiquidationFeeBps uint64       `toml:"ProtocolLiquidationFeeBps"`
	BorrowFeeBps              uint64       `toml:"BorrowFeeBps"`
	SpreadFeeBps              uint64       `toml:"SpreadFeeBps"`
	Isolated                  bool         `toml:"Isolated"`
	Curve                     CurveFile    `toml:"curve"`
	EModes                    []EModeEntry `toml:"emode"`
}

// CurveFile holds the interest curve as parallel arrays.
type CurveFile struct {
	UtilPct []uint8  `toml:"UtilPct"`
	AprBps  []uint64 `toml:"AprBps"`
}

// EModeEntry is one correlated-risk override keyed by counterpart reserve
// index.
type EModeEntry struct {
	Counterpart uint64 `toml:"Counterpart"`
	OpenLTVPct  uint8  `toml:"OpenLTVPct"`
	CloseLTVPct uint8  `toml:"CloseLTVPct"`
}

// Builder returns a ConfigBuilder populated from the file. Validation is
// the builder's job; Build surfaces lending.ErrInvalidReserveConfig.
func (f *ReserveFile) Builder() *lending.ConfigBuilder {
	b := lending.NewConfigBuilder().
		OpenLTV(f.OpenLTVPct).
		CloseLTV(f.CloseLTVPct).
		DepositLimit(f.DepositLimit).
		DepositLimitUSD(f.DepositLimitUSD).
		BorrowLimit(f.BorrowLimit).
		BorrowLimitUSD(f.BorrowLimitUSD).
		LiquidationBonusBps(f.LiquidationBonusBps).
		ProtocolLiquidationFeeBps(f.ProtocolLiquidationFeeBps).
		BorrowFeeBps(f.BorrowFeeBps).
		SpreadFeeBps(f.SpreadFeeBps).
		Isolated(f.Isolated).
		InterestCurve(f.Curve.UtilPct, f.Curve.AprBps)
	if f.BorrowWeightBps != 0 {
		b.BorrowWeightBps(f.BorrowWeightBps)
	}
	for _, e := range f.EModes {
		b.EMode(e.Counterpart, e.OpenLTVPct, e.CloseLTVPct)
	}
	return b
}

// Parse decodes a TOML reserve parameter document.
func Parse(data []byte) (*ReserveFile, error) {
	var file ReserveFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("config: decode reserve file: %w", err)
	}
	return &file, nil
}

// Load reads and decodes a TOML reserve parameter file.
func Load(path string) (*ReserveFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

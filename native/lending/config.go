package lending

import (
	"fmt"

	"lendex/fixedpoint"
)

// EModeEntry is an alternate (open LTV, close LTV) pair applied between two
// reserves that opt into the same correlated-risk category.
type EModeEntry struct {
	OpenLTV  uint8
	CloseLTV uint8
}

// ReserveConfig is the immutable-once-built risk and fee parameterization of
// a reserve. Instances are produced only by ConfigBuilder.Build, which
// enforces the validity invariants, so holders never re-validate.
type ReserveConfig struct {
	openLTV                   uint8
	closeLTV                  uint8
	borrowWeightBps           uint64
	depositLimit              uint64
	depositLimitUSD           uint64
	borrowLimit               uint64
	borrowLimitUSD            uint64
	liquidationBonusBps       uint64
	protocolLiquidationFeeBps uint64
	borrowFeeBps              uint64
	spreadFeeBps              uint64
	isolated                  bool
	utils                     []uint8
	aprsBps                   []uint64
	emode                     map[uint64]EModeEntry
}

func (c *ReserveConfig) OpenLTV() fixedpoint.Decimal  { return fixedpoint.FromPercent(c.openLTV) }
func (c *ReserveConfig) CloseLTV() fixedpoint.Decimal { return fixedpoint.FromPercent(c.closeLTV) }
func (c *ReserveConfig) BorrowWeight() fixedpoint.Decimal {
	return fixedpoint.FromBps(c.borrowWeightBps)
}
func (c *ReserveConfig) BorrowFee() fixedpoint.Decimal { return fixedpoint.FromBps(c.borrowFeeBps) }
func (c *ReserveConfig) SpreadFee() fixedpoint.Decimal { return fixedpoint.FromBps(c.spreadFeeBps) }
func (c *ReserveConfig) LiquidationBonus() fixedpoint.Decimal {
	return fixedpoint.FromBps(c.liquidationBonusBps)
}
func (c *ReserveConfig) ProtocolLiquidationFee() fixedpoint.Decimal {
	return fixedpoint.FromBps(c.protocolLiquidationFeeBps)
}
func (c *ReserveConfig) DepositLimit() uint64    { return c.depositLimit }
func (c *ReserveConfig) DepositLimitUSD() uint64 { return c.depositLimitUSD }
func (c *ReserveConfig) BorrowLimit() uint64     { return c.borrowLimit }
func (c *ReserveConfig) BorrowLimitUSD() uint64  { return c.borrowLimitUSD }
func (c *ReserveConfig) Isolated() bool          { return c.isolated }

// EModeLTVs returns the override LTV pair for the given counterpart reserve
// index, or ok=false when the pair has no shared category.
func (c *ReserveConfig) EModeLTVs(counterpart uint64) (open, close fixedpoint.Decimal, ok bool) {
	entry, found := c.emode[counterpart]
	if !found {
		return fixedpoint.Decimal{}, fixedpoint.Decimal{}, false
	}
	return fixedpoint.FromPercent(entry.OpenLTV), fixedpoint.FromPercent(entry.CloseLTV), true
}

// ConfigBuilder accumulates reserve parameters field by field and validates
// them as a whole on Build. The zero builder is usable.
type ConfigBuilder struct {
	openLTV                   uint8
	closeLTV                  uint8
	borrowWeightBps           uint64
	depositLimit              uint64
	depositLimitUSD           uint64
	borrowLimit               uint64
	borrowLimitUSD            uint64
	liquidationBonusBps       uint64
	protocolLiquidationFeeBps uint64
	borrowFeeBps              uint64
	spreadFeeBps              uint64
	isolated                  bool
	utils                     []uint8
	aprsBps                   []uint64
	emode                     map[uint64]EModeEntry
}

func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{borrowWeightBps: 10_000}
}

func (b *ConfigBuilder) OpenLTV(pct uint8) *ConfigBuilder  { b.openLTV = pct; return b }
func (b *ConfigBuilder) CloseLTV(pct uint8) *ConfigBuilder { b.closeLTV = pct; return b }
func (b *ConfigBuilder) BorrowWeightBps(bps uint64) *ConfigBuilder {
	b.borrowWeightBps = bps
	return b
}
func (b *ConfigBuilder) DepositLimit(tokens uint64) *ConfigBuilder { b.depositLimit = tokens; return b }
func (b *ConfigBuilder) DepositLimitUSD(usd uint64) *ConfigBuilder {
	b.depositLimitUSD = usd
	return b
}
func (b *ConfigBuilder) BorrowLimit(tokens uint64) *ConfigBuilder { b.borrowLimit = tokens; return b }
func (b *ConfigBuilder) BorrowLimitUSD(usd uint64) *ConfigBuilder { b.borrowLimitUSD = usd; return b }
func (b *ConfigBuilder) LiquidationBonusBps(bps uint64) *ConfigBuilder {
	b.liquidationBonusBps = bps
	return b
}
func (b *ConfigBuilder) ProtocolLiquidationFeeBps(bps uint64) *ConfigBuilder {
	b.protocolLiquidationFeeBps = bps
	return b
}
func (b *ConfigBuilder) BorrowFeeBps(bps uint64) *ConfigBuilder { b.borrowFeeBps = bps; return b }
func (b *ConfigBuilder) SpreadFeeBps(bps uint64) *ConfigBuilder { b.spreadFeeBps = bps; return b }
func (b *ConfigBuilder) Isolated(v bool) *ConfigBuilder        { b.isolated = v; return b }

// InterestCurve sets the utilization/APR curve as parallel arrays of
// utilization percents and APRs in basis points.
func (b *ConfigBuilder) InterestCurve(utils []uint8, aprsBps []uint64) *ConfigBuilder {
	b.utils = append([]uint8(nil), utils...)
	b.aprsBps = append([]uint64(nil), aprsBps...)
	return b
}

// EMode registers an override LTV pair against the counterpart reserve index.
func (b *ConfigBuilder) EMode(counterpart uint64, open, close uint8) *ConfigBuilder {
	if b.emode == nil {
		b.emode = make(map[uint64]EModeEntry)
	}
	b.emode[counterpart] = EModeEntry{OpenLTV: open, CloseLTV: close}
	return b
}

// Build validates the accumulated parameters and freezes them into a
// ReserveConfig. Every failure wraps ErrInvalidReserveConfig.
func (b *ConfigBuilder) Build() (*ReserveConfig, error) {
	if b.openLTV > 100 || b.closeLTV > 100 {
		return nil, fmt.Errorf("%w: ltv above 100%%", ErrInvalidReserveConfig)
	}
	if b.openLTV > b.closeLTV {
		return nil, fmt.Errorf("%w: open ltv above close ltv", ErrInvalidReserveConfig)
	}
	if b.isolated && (b.openLTV != 0 || b.closeLTV != 0) {
		return nil, fmt.Errorf("%w: isolated asset must carry zero ltv", ErrInvalidReserveConfig)
	}
	if b.borrowWeightBps < 10_000 {
		return nil, fmt.Errorf("%w: borrow weight below 1x", ErrInvalidReserveConfig)
	}
	if b.borrowFeeBps+b.spreadFeeBps > 10_000 {
		return nil, fmt.Errorf("%w: fee sum above 100%%", ErrInvalidReserveConfig)
	}
	if err := validateCurve(b.utils, b.aprsBps); err != nil {
		return nil, err
	}
	for idx, entry := range b.emode {
		if entry.OpenLTV > 100 || entry.CloseLTV > 100 || entry.OpenLTV > entry.CloseLTV {
			return nil, fmt.Errorf("%w: e-mode entry for reserve %d", ErrInvalidReserveConfig, idx)
		}
	}

	cfg := &ReserveConfig{
		openLTV:                   b.openLTV,
		closeLTV:                  b.closeLTV,
		borrowWeightBps:           b.borrowWeightBps,
		depositLimit:              b.depositLimit,
		depositLimitUSD:           b.depositLimitUSD,
		borrowLimit:               b.borrowLimit,
		borrowLimitUSD:            b.borrowLimitUSD,
		liquidationBonusBps:       b.liquidationBonusBps,
		protocolLiquidationFeeBps: b.protocolLiquidationFeeBps,
		borrowFeeBps:              b.borrowFeeBps,
		spreadFeeBps:              b.spreadFeeBps,
		isolated:                  b.isolated,
		utils:                     append([]uint8(nil), b.utils...),
		aprsBps:                   append([]uint64(nil), b.aprsBps...),
	}
	if len(b.emode) > 0 {
		cfg.emode = make(map[uint64]EModeEntry, len(b.emode))
		for idx, entry := range b.emode {
			cfg.emode[idx] = entry
		}
	}
	return cfg, nil
}

func validateCurve(utils []uint8, aprsBps []uint64) error {
	if len(utils) < 2 || len(utils) != len(aprsBps) {
		return fmt.Errorf("%w: curve needs matching util/apr points", ErrInvalidReserveConfig)
	}
	if utils[0] != 0 || utils[len(utils)-1] != 100 {
		return fmt.Errorf("%w: curve must span 0..100 utilization", ErrInvalidReserveConfig)
	}
	for i := 1; i < len(utils); i++ {
		if utils[i] <= utils[i-1] {
			return fmt.Errorf("%w: utilization points not strictly increasing", ErrInvalidReserveConfig)
		}
		if aprsBps[i] < aprsBps[i-1] {
			return fmt.Errorf("%w: apr points decreasing", ErrInvalidReserveConfig)
		}
	}
	return nil
}

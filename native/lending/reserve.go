package lending

import (
	"fmt"

	"lendex/core/events"
	"lendex/core/types"
	"lendex/fixedpoint"
	"lendex/native/common"
	"lendex/native/rewards"
	"lendex/oracle"
)

const flowName = "lending"

// MinAvailableAmount is the liquidity floor every borrow and redeem must
// leave behind, closing the door on rounding drains against a near-empty
// reserve.
const MinAvailableAmount = 100

// Reserve is the per-asset ledger: idle and borrowed funds, outstanding
// cToken claims, the compounding borrow index, accrued fees and the cached
// oracle prices. One Reserve exists per supported asset and lives for the
// protocol's duration.
//
// Every mutator compounds interest first and validates before mutating, so
// an error return leaves the reserve byte-for-byte unchanged.
type Reserve struct {
	coinType   string
	arrayIndex uint64
	config     *ReserveConfig

	balance    *types.Coin
	feeBalance *types.Coin
	treasury   *types.Treasury

	borrowedAmount       fixedpoint.Decimal
	cumulativeBorrowRate fixedpoint.Decimal
	interestLastUpdate   uint64
	unclaimedSpreadFees  fixedpoint.Decimal

	price           fixedpoint.Decimal
	smoothedPrice   fixedpoint.Decimal
	priceLastUpdate uint64
	priceFeedID     string

	depositsRewards *rewards.PoolRewardManager
	borrowsRewards  *rewards.PoolRewardManager

	emitter events.Emitter
	pauses  common.PauseView
}

// NewReserve creates the ledger for coinType, pinning the oracle feed of the
// initial observation. arrayIndex is the reserve's position in the host's
// reserve table, used as the counterpart key for e-mode lookups.
func NewReserve(coinType string, arrayIndex uint64, cfg *ReserveConfig, obs oracle.Observation, now uint64) (*Reserve, error) {
	if cfg == nil {
		return nil, ErrInvalidReserveConfig
	}
	if err := obs.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrice, err)
	}
	r := &Reserve{
		coinType:             coinType,
		arrayIndex:           arrayIndex,
		config:               cfg,
		balance:              types.Zero(coinType),
		feeBalance:           types.Zero(coinType),
		treasury:             types.NewTreasury("ctoken<" + coinType + ">"),
		cumulativeBorrowRate: fixedpoint.One(),
		interestLastUpdate:   now,
		price:                *obs.Spot,
		smoothedPrice:        obs.Smoothed,
		priceLastUpdate:      now,
		priceFeedID:          obs.FeedID,
		depositsRewards:      rewards.NewPoolRewardManager(now),
		borrowsRewards:       rewards.NewPoolRewardManager(now),
		emitter:              events.NoopEmitter{},
	}
	return r, nil
}

// SetEmitter wires the event sink used for interest and fee observations.
// The reserve's reward managers share the same sink.
func (r *Reserve) SetEmitter(e events.Emitter) {
	if e == nil {
		e = events.NoopEmitter{}
	}
	r.emitter = e
	r.depositsRewards.SetEmitter(e)
	r.borrowsRewards.SetEmitter(e)
}

// SetPauses wires the host's flow switches.
func (r *Reserve) SetPauses(p common.PauseView) { r.pauses = p }

func (r *Reserve) CoinType() string                            { return r.coinType }
func (r *Reserve) ArrayIndex() uint64                          { return r.arrayIndex }
func (r *Reserve) Config() *ReserveConfig                      { return r.config }
func (r *Reserve) AvailableAmount() uint64                     { return r.balance.Value() }
func (r *Reserve) BorrowedAmount() fixedpoint.Decimal          { return r.borrowedAmount }
func (r *Reserve) CTokenSupply() uint64                        { return r.treasury.Supply() }
func (r *Reserve) CumulativeBorrowRate() fixedpoint.Decimal    { return r.cumulativeBorrowRate }
func (r *Reserve) UnclaimedSpreadFees() fixedpoint.Decimal     { return r.unclaimedSpreadFees }
func (r *Reserve) InterestLastUpdate() uint64                  { return r.interestLastUpdate }
func (r *Reserve) Price() fixedpoint.Decimal                   { return r.price }
func (r *Reserve) SmoothedPrice() fixedpoint.Decimal           { return r.smoothedPrice }
func (r *Reserve) PriceLastUpdate() uint64                     { return r.priceLastUpdate }
func (r *Reserve) DepositsRewards() *rewards.PoolRewardManager { return r.depositsRewards }
func (r *Reserve) BorrowsRewards() *rewards.PoolRewardManager  { return r.borrowsRewards }

// PriceLowerBound is the conservative valuation used for collateral.
func (r *Reserve) PriceLowerBound() fixedpoint.Decimal {
	return fixedpoint.Min(r.price, r.smoothedPrice)
}

// PriceUpperBound is the conservative valuation used for debt and limits.
func (r *Reserve) PriceUpperBound() fixedpoint.Decimal {
	return fixedpoint.Max(r.price, r.smoothedPrice)
}

// TotalSupply is the depositor-owned value: idle plus borrowed funds net of
// the protocol's unclaimed spread fees.
func (r *Reserve) TotalSupply() fixedpoint.Decimal {
	return fixedpoint.FromUint64(r.balance.Value()).
		Add(r.borrowedAmount).
		Sub(r.unclaimedSpreadFees)
}

// CTokenRatio is the redemption rate from cTokens to the underlying asset.
// It starts at 1 and never decreases.
func (r *Reserve) CTokenRatio() fixedpoint.Decimal {
	supply := r.treasury.Supply()
	if supply == 0 {
		return fixedpoint.One()
	}
	return r.TotalSupply().Div(fixedpoint.FromUint64(supply))
}

// Utilization is borrowed / (available + borrowed), zero for an empty pool.
func (r *Reserve) Utilization() fixedpoint.Decimal {
	total := fixedpoint.FromUint64(r.balance.Value()).Add(r.borrowedAmount)
	if total.IsZero() {
		return fixedpoint.Decimal{}
	}
	return r.borrowedAmount.Div(total)
}

// MarketValueLowerBound values amount token units in USD at the lower price
// bound (collateral side).
func (r *Reserve) MarketValueLowerBound(amount fixedpoint.Decimal) fixedpoint.Decimal {
	return amount.Mul(r.PriceLowerBound())
}

// MarketValueUpperBound values amount token units in USD at the upper price
// bound (debt side).
func (r *Reserve) MarketValueUpperBound(amount fixedpoint.Decimal) fixedpoint.Decimal {
	return amount.Mul(r.PriceUpperBound())
}

// CompoundInterest folds the interest accrued since the last update into the
// borrow index, the outstanding debt and the protocol's spread fees. It is a
// no-op when called again within the same second.
func (r *Reserve) CompoundInterest(now uint64) error {
	if now <= r.interestLastUpdate {
		return nil
	}
	elapsed := now - r.interestLastUpdate

	apr, err := CalculateAPR(r.config, r.Utilization())
	if err != nil {
		return err
	}
	ratePerSecond := apr.Div(fixedpoint.FromUint64(SecondsPerYear))
	rateFactor := fixedpoint.One().Add(ratePerSecond).Pow(elapsed)

	r.cumulativeBorrowRate = r.cumulativeBorrowRate.Mul(rateFactor)
	netNewDebt := r.borrowedAmount.Mul(rateFactor.Sub(fixedpoint.One()))
	r.unclaimedSpreadFees = r.unclaimedSpreadFees.Add(netNewDebt.Mul(r.config.SpreadFee()))
	r.borrowedAmount = r.borrowedAmount.Add(netNewDebt)
	r.interestLastUpdate = now

	r.emitter.Emit(events.InterestUpdate{
		CoinType:             r.coinType,
		CumulativeBorrowRate: r.cumulativeBorrowRate,
		AvailableAmount:      r.balance.Value(),
		BorrowedAmount:       r.borrowedAmount,
		UnclaimedSpreadFees:  r.unclaimedSpreadFees,
		CTokenSupply:         r.treasury.Supply(),
		Timestamp:            now,
	})
	return nil
}

// DepositLiquidityAndMintCTokens absorbs liquidity into the reserve and
// mints the corresponding cToken claim at the current ratio, rounding the
// minted amount down. A zero configured limit means uncapped.
func (r *Reserve) DepositLiquidityAndMintCTokens(liquidity *types.Coin, now uint64) (*types.Coin, error) {
	if err := common.Guard(r.pauses, flowName); err != nil {
		return nil, err
	}
	if liquidity.CoinType() != r.coinType {
		return nil, types.ErrCoinTypeMismatch
	}
	if err := r.CompoundInterest(now); err != nil {
		return nil, err
	}

	amount := liquidity.Value()
	newCTokens := fixedpoint.FromUint64(amount).Div(r.CTokenRatio()).Floor()

	newTotalSupply := r.TotalSupply().Add(fixedpoint.FromUint64(amount))
	if limit := r.config.DepositLimit(); limit > 0 && newTotalSupply.Gt(fixedpoint.FromUint64(limit)) {
		return nil, ErrDepositLimitExceeded
	}
	if limit := r.config.DepositLimitUSD(); limit > 0 &&
		newTotalSupply.Mul(r.PriceUpperBound()).Gt(fixedpoint.FromUint64(limit)) {
		return nil, ErrDepositLimitExceeded
	}

	if err := r.balance.Join(liquidity); err != nil {
		return nil, err
	}
	return r.treasury.Mint(newCTokens), nil
}

// RedeemCTokens burns the claim and pays out the underlying liquidity at the
// current ratio, rounding the payout down. The availability floor is waived
// only when the entire outstanding supply is redeemed.
func (r *Reserve) RedeemCTokens(ctokens *types.Coin, now uint64) (*types.Coin, error) {
	if err := common.Guard(r.pauses, flowName); err != nil {
		return nil, err
	}
	if ctokens.CoinType() != r.treasury.CoinType() {
		return nil, types.ErrCoinTypeMismatch
	}
	if err := r.CompoundInterest(now); err != nil {
		return nil, err
	}

	amount := ctokens.Value()
	liquidityAmount := fixedpoint.FromUint64(amount).Mul(r.CTokenRatio()).Floor()
	available := r.balance.Value()
	if liquidityAmount > available {
		return nil, ErrMinAvailableAmountViolated
	}
	fullRedeem := amount == r.treasury.Supply()
	if !fullRedeem && available-liquidityAmount < MinAvailableAmount {
		return nil, ErrMinAvailableAmountViolated
	}

	if _, err := r.treasury.Burn(ctokens); err != nil {
		return nil, err
	}
	return r.balance.Split(liquidityAmount)
}

// BorrowLiquidity lends amount out of the reserve, charging the borrow fee
// on top (rounded up, in the protocol's favor). It returns the net liquidity
// and the fee-inclusive amount debited from the pool, which is what the
// caller must record as debt.
func (r *Reserve) BorrowLiquidity(amount uint64, now uint64) (*types.Coin, uint64, error) {
	if err := common.Guard(r.pauses, flowName); err != nil {
		return nil, 0, err
	}
	if err := r.CompoundInterest(now); err != nil {
		return nil, 0, err
	}

	fee := fixedpoint.FromUint64(amount).Mul(r.config.BorrowFee()).Ceil()
	total := amount + fee
	if total < amount {
		return nil, 0, ErrBorrowLimitExceeded
	}

	available := r.balance.Value()
	if total > available || available-total < MinAvailableAmount {
		return nil, 0, ErrMinAvailableAmountViolated
	}
	newBorrowed := r.borrowedAmount.Add(fixedpoint.FromUint64(total))
	if limit := r.config.BorrowLimit(); limit > 0 && newBorrowed.Gt(fixedpoint.FromUint64(limit)) {
		return nil, 0, ErrBorrowLimitExceeded
	}
	if limit := r.config.BorrowLimitUSD(); limit > 0 &&
		newBorrowed.Mul(r.PriceUpperBound()).Gt(fixedpoint.FromUint64(limit)) {
		return nil, 0, ErrBorrowLimitExceeded
	}

	out, err := r.balance.Split(total)
	if err != nil {
		return nil, 0, err
	}
	feeCoin, err := out.Split(fee)
	if err != nil {
		return nil, 0, err
	}
	if err := r.feeBalance.Join(feeCoin); err != nil {
		return nil, 0, err
	}
	r.borrowedAmount = newBorrowed
	return out, total, nil
}

// RepayLiquidity returns liquidity to the pool and settles settle units of
// debt. The coin must carry ceil(settle); the subtraction saturates because
// a repayment may exceed the last-observed debt by rounding dust.
func (r *Reserve) RepayLiquidity(repay *types.Coin, settle fixedpoint.Decimal, now uint64) error {
	if err := common.Guard(r.pauses, flowName); err != nil {
		return err
	}
	if repay.CoinType() != r.coinType {
		return types.ErrCoinTypeMismatch
	}
	if err := r.CompoundInterest(now); err != nil {
		return err
	}
	if repay.Value() != settle.Ceil() {
		return ErrRepayAmountMismatch
	}
	if err := r.balance.Join(repay); err != nil {
		return err
	}
	r.borrowedAmount = r.borrowedAmount.SaturatingSub(settle)
	return nil
}

// ClaimFees withdraws the accrued borrow fees in full plus as much of the
// unclaimed spread fees as idle liquidity above the floor allows. Spread
// fees locked behind outstanding borrows stay queued until liquidity
// returns.
func (r *Reserve) ClaimFees(now uint64) (*types.Coin, error) {
	if err := common.Guard(r.pauses, flowName); err != nil {
		return nil, err
	}
	if err := r.CompoundInterest(now); err != nil {
		return nil, err
	}

	claim := types.Zero(r.coinType)
	borrowFees := r.feeBalance.Value()
	if err := claim.Join(r.feeBalance); err != nil {
		return nil, err
	}

	spreadRelease := uint64(0)
	available := r.balance.Value()
	if available > MinAvailableAmount {
		headroom := available - MinAvailableAmount
		spreadRelease = r.unclaimedSpreadFees.Floor()
		if spreadRelease > headroom {
			spreadRelease = headroom
		}
	}
	if spreadRelease > 0 {
		released, err := r.balance.Split(spreadRelease)
		if err != nil {
			return nil, err
		}
		if err := claim.Join(released); err != nil {
			return nil, err
		}
		r.unclaimedSpreadFees = r.unclaimedSpreadFees.Sub(fixedpoint.FromUint64(spreadRelease))
	}

	r.emitter.Emit(events.FeesClaimed{
		CoinType:   r.coinType,
		BorrowFees: borrowFees,
		SpreadFees: spreadRelease,
		Timestamp:  now,
	})
	return claim, nil
}

// UpdatePrice accepts a fresh observation from the pinned feed.
func (r *Reserve) UpdatePrice(obs oracle.Observation, now uint64) error {
	if obs.FeedID != r.priceFeedID {
		return ErrPriceIdentifierMismatch
	}
	if err := obs.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPrice, err)
	}
	r.price = *obs.Spot
	r.smoothedPrice = obs.Smoothed
	r.priceLastUpdate = now

	r.emitter.Emit(events.PriceUpdated{
		CoinType:      r.coinType,
		Price:         r.price,
		SmoothedPrice: r.smoothedPrice,
		Timestamp:     now,
	})
	return nil
}

// AssertPriceFresh faults when the cached price is older than maxAge
// seconds. Risk checks call this before valuing anything.
func (r *Reserve) AssertPriceFresh(now, maxAge uint64) error {
	if now > r.priceLastUpdate && now-r.priceLastUpdate > maxAge {
		return ErrPriceStale
	}
	return nil
}

// UpdateReserveConfig atomically swaps in a new validated config.
func (r *Reserve) UpdateReserveConfig(cfg *ReserveConfig) error {
	if cfg == nil {
		return ErrInvalidReserveConfig
	}
	r.config = cfg
	r.emitter.Emit(events.ConfigUpdated{CoinType: r.coinType})
	return nil
}

// SetDepositShare synchronizes and rebalances a participant's weight in the
// reserve's deposit incentive pool. Deposit shares are cToken amounts.
func (r *Reserve) SetDepositShare(user *rewards.UserRewardManager, newShare uint64, now uint64) error {
	if err := r.depositsRewards.UpdateUser(user, now); err != nil {
		return err
	}
	return r.depositsRewards.ChangeShare(user, newShare, now)
}

// SetBorrowShare synchronizes and rebalances a participant's weight in the
// reserve's borrow incentive pool. Borrow shares are normalized debt units.
func (r *Reserve) SetBorrowShare(user *rewards.UserRewardManager, newShare uint64, now uint64) error {
	if err := r.borrowsRewards.UpdateUser(user, now); err != nil {
		return err
	}
	return r.borrowsRewards.ChangeShare(user, newShare, now)
}

package lending

import "lendex/fixedpoint"

// SecondsPerYear is the annualization base for APR to per-second rates.
const SecondsPerYear = 31_536_000

// CalculateAPR returns the borrow APR for the given utilization by linear
// interpolation on the config's piecewise curve. Utilization is a fraction
// in [0, 1]; curve validation guarantees a bracketing pair exists.
func CalculateAPR(cfg *ReserveConfig, utilization fixedpoint.Decimal) (fixedpoint.Decimal, error) {
	if utilization.Gt(fixedpoint.One()) {
		return fixedpoint.Decimal{}, ErrInvalidUtilization
	}
	for i := 1; i < len(cfg.utils); i++ {
		right := fixedpoint.FromPercent(cfg.utils[i])
		if utilization.Gt(right) {
			continue
		}
		left := fixedpoint.FromPercent(cfg.utils[i-1])
		aprLeft := fixedpoint.FromBps(cfg.aprsBps[i-1])
		aprRight := fixedpoint.FromBps(cfg.aprsBps[i])
		weight := utilization.Sub(left).Div(right.Sub(left))
		return aprLeft.Add(aprRight.Sub(aprLeft).Mul(weight)), nil
	}
	// Unreachable: utils ends at 100%.
	return fixedpoint.FromBps(cfg.aprsBps[len(cfg.aprsBps)-1]), nil
}

// CalculateSupplyAPR returns the depositor-side APR: the borrow APR scaled
// by utilization and net of the protocol spread fee. Read-only convenience
// for indexers; the ledger itself accrues through CompoundInterest.
func CalculateSupplyAPR(cfg *ReserveConfig, utilization fixedpoint.Decimal) (fixedpoint.Decimal, error) {
	apr, err := CalculateAPR(cfg, utilization)
	if err != nil {
		return fixedpoint.Decimal{}, err
	}
	netShare := fixedpoint.One().Sub(cfg.SpreadFee())
	return apr.Mul(utilization).Mul(netShare), nil
}

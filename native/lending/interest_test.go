package lending

import (
	"errors"
	"testing"

	"lendex/fixedpoint"
)

func kinkedCurve(t *testing.T) *ReserveConfig {
	t.Helper()
	// 0% APR at idle, 8% at the 80% kink, 250% at full utilization.
	return mustBuild(t, NewConfigBuilder().
		SpreadFeeBps(1000).
		InterestCurve([]uint8{0, 80, 100}, []uint64{0, 800, 25_000}))
}

func TestCalculateAPRInterpolates(t *testing.T) {
	cfg := kinkedCurve(t)

	cases := []struct {
		name        string
		utilization fixedpoint.Decimal
		want        fixedpoint.Decimal
	}{
		{"idle", fixedpoint.Zero(), fixedpoint.Zero()},
		{"mid first segment", fixedpoint.FromPercent(40), fixedpoint.FromBps(400)},
		{"at kink", fixedpoint.FromPercent(80), fixedpoint.FromBps(800)},
		{"mid second segment", fixedpoint.FromPercent(90), fixedpoint.FromBps(12_900)},
		{"full", fixedpoint.One(), fixedpoint.FromBps(25_000)},
	}
	for _, tc := range cases {
		apr, err := CalculateAPR(cfg, tc.utilization)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if !apr.Eq(tc.want) {
			t.Fatalf("%s: apr = %s, want %s", tc.name, apr, tc.want)
		}
	}
}

func TestCalculateAPRRejectsOverUtilization(t *testing.T) {
	cfg := kinkedCurve(t)
	over := fixedpoint.One().Add(fixedpoint.FromBps(1))
	if _, err := CalculateAPR(cfg, over); !errors.Is(err, ErrInvalidUtilization) {
		t.Fatalf("err = %v, want ErrInvalidUtilization", err)
	}
}

func TestCalculateSupplyAPR(t *testing.T) {
	cfg := kinkedCurve(t)

	// At the kink: 8% borrow APR, 80% utilization, 10% spread fee.
	apr, err := CalculateSupplyAPR(cfg, fixedpoint.FromPercent(80))
	if err != nil {
		t.Fatalf("supply apr: %v", err)
	}
	want := fixedpoint.FromBps(800).
		Mul(fixedpoint.FromPercent(80)).
		Mul(fixedpoint.FromPercent(90))
	if !apr.Eq(want) {
		t.Fatalf("supply apr = %s, want %s", apr, want)
	}
}

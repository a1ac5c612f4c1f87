package rewards

import (
	"testing"

	"github.com/stretchr/testify/require"

	"lendex/fixedpoint"
)

const day = 24 * 3600

func join(t *testing.T, pool *PoolRewardManager, share, now uint64) *UserRewardManager {
	t.Helper()
	user := NewUserRewardManager(pool, now)
	require.NoError(t, pool.UpdateUser(user, now))
	require.NoError(t, pool.ChangeShare(user, share, now))
	return user
}

func rebalance(t *testing.T, pool *PoolRewardManager, user *UserRewardManager, share, now uint64) {
	t.Helper()
	require.NoError(t, pool.UpdateUser(user, now))
	require.NoError(t, pool.ChangeShare(user, share, now))
}

func TestProportionalDistribution(t *testing.T) {
	pool := NewPoolRewardManager(0)
	index, err := pool.AddReward("usdc", 100, 0, 20*day, 0)
	require.NoError(t, err)

	userA := join(t, pool, 100, 0)

	// A holds the whole pool for the first quarter of the window.
	got, err := pool.Claim(userA, index, 5*day)
	require.NoError(t, err)
	require.Equal(t, uint64(25), got)

	userB := join(t, pool, 400, 5*day)

	got, err = pool.Claim(userA, index, 10*day)
	require.NoError(t, err)
	require.Equal(t, uint64(5), got)
	got, err = pool.Claim(userB, index, 10*day)
	require.NoError(t, err)
	require.Equal(t, uint64(20), got)

	rebalance(t, pool, userA, 250, 10*day)
	rebalance(t, pool, userB, 250, 10*day)

	gotA, err := pool.Claim(userA, index, 20*day)
	require.NoError(t, err)
	gotB, err := pool.Claim(userB, index, 20*day)
	require.NoError(t, err)
	require.Equal(t, uint64(25), gotA)
	require.Equal(t, uint64(25), gotB)

	// The full funding was distributed: 25+5+25 to A, 20+25 to B.
	reward := pool.Reward(index)
	require.Equal(t, uint64(100), reward.paidOutRewards)
	require.Equal(t, uint64(0), reward.numUserRewardManagers)

	dust, err := pool.CloseReward(index, 20*day)
	require.NoError(t, err)
	require.Equal(t, uint64(0), dust)
	require.Nil(t, pool.Reward(index))
}

func TestCancelMidStream(t *testing.T) {
	pool := NewPoolRewardManager(0)
	index, err := pool.AddReward("usdc", 100, 0, 20*day, 0)
	require.NoError(t, err)

	user := join(t, pool, 100, 0)

	unallocated, err := pool.CancelReward(index, 10*day)
	require.NoError(t, err)
	require.Equal(t, uint64(50), unallocated)

	got, err := pool.Claim(user, index, 10*day)
	require.NoError(t, err)
	require.Equal(t, uint64(50), got)

	dust, err := pool.CloseReward(index, 10*day)
	require.NoError(t, err)
	require.Equal(t, uint64(0), dust)
}

func TestEmptyPoolKeepsRewardsUnallocated(t *testing.T) {
	pool := NewPoolRewardManager(0)
	index, err := pool.AddReward("usdc", 100, 0, 20*day, 0)
	require.NoError(t, err)

	// Nobody staked for the first half of the window.
	pool.Update(10 * day)
	require.True(t, pool.Reward(index).AllocatedRewards().IsZero())

	user := join(t, pool, 100, 10*day)
	got, err := pool.Claim(user, index, 20*day)
	require.NoError(t, err)
	require.Equal(t, uint64(50), got)

	// The unstaked half stays unallocated and surfaces as closing dust.
	dust, err := pool.CloseReward(index, 20*day)
	require.NoError(t, err)
	require.Equal(t, uint64(50), dust)
}

func TestRetroactiveCreditBeforeStreamStart(t *testing.T) {
	pool := NewPoolRewardManager(0)
	user := join(t, pool, 100, 0)

	// Stream funded after the participant staked, starting later still.
	index, err := pool.AddReward("usdc", 100, 5*day, 15*day, day)
	require.NoError(t, err)

	// The participant is not touched again until mid-stream; the credit
	// must cover the full stretch since the stream start.
	got, err := pool.Claim(user, index, 10*day)
	require.NoError(t, err)
	require.Equal(t, uint64(50), got)
}

func TestUpdateIdempotentPerTimestamp(t *testing.T) {
	pool := NewPoolRewardManager(0)
	index, err := pool.AddReward("usdc", 100, 0, 20*day, 0)
	require.NoError(t, err)
	_ = join(t, pool, 100, 0)

	pool.Update(5 * day)
	allocated := pool.Reward(index).AllocatedRewards()
	cumulative := pool.Reward(index).CumulativeRewardsPerShare()

	pool.Update(5 * day)
	require.True(t, pool.Reward(index).AllocatedRewards().Eq(allocated))
	require.True(t, pool.Reward(index).CumulativeRewardsPerShare().Eq(cumulative))
}

func TestChangeShareRequiresFreshAccrual(t *testing.T) {
	pool := NewPoolRewardManager(0)
	user := join(t, pool, 100, 0)

	// Neither side synchronized to t=5d yet.
	require.ErrorIs(t, pool.ChangeShare(user, 200, 5*day), ErrStaleAccrual)

	require.NoError(t, pool.UpdateUser(user, 5*day))
	require.NoError(t, pool.ChangeShare(user, 200, 5*day))
	require.Equal(t, uint64(200), pool.TotalShares())
}

func TestUserBoundToOnePool(t *testing.T) {
	pool := NewPoolRewardManager(0)
	other := NewPoolRewardManager(0)
	user := NewUserRewardManager(pool, 0)

	require.ErrorIs(t, other.UpdateUser(user, 0), ErrIdentityMismatch)
	require.ErrorIs(t, other.ChangeShare(user, 10, 0), ErrIdentityMismatch)
}

func TestAddRewardValidation(t *testing.T) {
	pool := NewPoolRewardManager(0)

	_, err := pool.AddReward("", 100, 0, 20*day, 0)
	require.ErrorIs(t, err, ErrInvalidRewardType)

	_, err = pool.AddReward("usdc", 100, 0, MinRewardPeriod-1, 0)
	require.ErrorIs(t, err, ErrInvalidTimeWindow)

	// A start in the past is clamped to now; the window is measured from
	// the clamped start.
	_, err = pool.AddReward("usdc", 100, 0, 1000+MinRewardPeriod-1, 1000)
	require.ErrorIs(t, err, ErrInvalidTimeWindow)

	index, err := pool.AddReward("usdc", 100, 0, 1000+MinRewardPeriod, 1000)
	require.NoError(t, err)
	require.Equal(t, uint64(1000), pool.Reward(index).StartTime())
}

func TestSlotArenaReuseAndExhaustion(t *testing.T) {
	pool := NewPoolRewardManager(0)
	for i := 0; i < MaxConcurrentRewards; i++ {
		_, err := pool.AddReward("usdc", 10, 0, 20*day, 0)
		require.NoError(t, err)
	}
	_, err := pool.AddReward("usdc", 10, 0, 20*day, 0)
	require.ErrorIs(t, err, ErrTooManyConcurrentRewards)

	// Cancel and close slot 3; the next stream must land in its place.
	_, err = pool.CancelReward(3, day)
	require.NoError(t, err)
	_, err = pool.CloseReward(3, day)
	require.NoError(t, err)

	index, err := pool.AddReward("sui", 10, day, day+20*day, day)
	require.NoError(t, err)
	require.Equal(t, 3, index)
	require.Equal(t, "sui", pool.Reward(index).CoinType())
}

func TestCloseRequiresEndedAndDetached(t *testing.T) {
	pool := NewPoolRewardManager(0)
	index, err := pool.AddReward("usdc", 100, 0, 20*day, 0)
	require.NoError(t, err)
	user := join(t, pool, 100, 0)
	require.NoError(t, pool.UpdateUser(user, day))

	_, err = pool.CloseReward(index, 10*day)
	require.ErrorIs(t, err, ErrRewardPeriodNotOver)

	_, err = pool.CloseReward(index, 20*day)
	require.ErrorIs(t, err, ErrUnclaimedRewardsRemain)

	// Claiming after the end detaches the holder and unblocks closure.
	_, err = pool.Claim(user, index, 20*day)
	require.NoError(t, err)
	_, err = pool.CloseReward(index, 20*day)
	require.NoError(t, err)

	_, err = pool.CloseReward(index, 20*day)
	require.ErrorIs(t, err, ErrRewardNotFound)
}

func TestClaimFloorsAndKeepsRemainder(t *testing.T) {
	pool := NewPoolRewardManager(0)
	// 100 over 3 days: the per-day unlock is fractional.
	index, err := pool.AddReward("usdc", 100, 0, 3*day, 0)
	require.NoError(t, err)
	user := join(t, pool, 100, 0)

	got, err := pool.Claim(user, index, day)
	require.NoError(t, err)
	require.Equal(t, uint64(33), got)

	// The fractional remainder keeps accruing rather than being lost.
	got, err = pool.Claim(user, index, 2*day)
	require.NoError(t, err)
	require.Equal(t, uint64(33), got)

	got, err = pool.Claim(user, index, 3*day)
	require.NoError(t, err)
	require.Equal(t, uint64(33), got)

	reward := pool.Reward(index)
	require.Equal(t, uint64(99), reward.paidOutRewards)
	dust, err := pool.CloseReward(index, 3*day)
	require.NoError(t, err)
	require.Equal(t, uint64(1), dust)
}

func TestRewardConservation(t *testing.T) {
	pool := NewPoolRewardManager(0)
	index, err := pool.AddReward("usdc", 1_000_003, 0, 10*day, 0)
	require.NoError(t, err)

	userA := join(t, pool, 7, 0)
	userB := join(t, pool, 13, day)

	total := uint64(0)
	clock := uint64(day)
	for i := 0; i < 9; i++ {
		clock += day
		got, err := pool.Claim(userA, index, clock)
		require.NoError(t, err)
		total += got
		got, err = pool.Claim(userB, index, clock)
		require.NoError(t, err)
		total += got

		reward := pool.Reward(index)
		require.True(t,
			reward.AllocatedRewards().Le(fixedpoint.FromUint64(reward.TotalRewards())),
			"allocated exceeded funding at t=%d", clock)
		require.LessOrEqual(t, total, uint64(1_000_003))
	}

	dust, err := pool.CloseReward(index, clock)
	require.NoError(t, err)
	require.Equal(t, uint64(1_000_003), total+dust)
}
// Package rewards implements proportional distribution of time-boxed reward
// streams. A PoolRewardManager owns a bounded arena of concurrent streams
// and the total participant weight; per-participant UserRewardManagers hold
// lazily-settled snapshots against each stream. Accrual is the standard
// O(1) cumulative-rewards-per-share technique: the pool accumulator only
// ever grows, and the delta since a participant's last snapshot times their
// share is what they earned.
package rewards

import (
	"github.com/google/uuid"

	"lendex/core/events"
	"lendex/fixedpoint"
)

const (
	// MaxConcurrentRewards bounds the slot arena of one pool.
	MaxConcurrentRewards = 50
	// MinRewardPeriod is the shortest permitted stream window in seconds.
	MinRewardPeriod = 3600
)

// PoolReward is one funded stream: TotalRewards unlock linearly over
// [StartTime, EndTime) and are split by share among whoever is staked while
// they unlock.
type PoolReward struct {
	id                        uuid.UUID
	coinType                  string
	startTime                 uint64
	endTime                   uint64
	totalRewards              uint64
	allocatedRewards          fixedpoint.Decimal
	cumulativeRewardsPerShare fixedpoint.Decimal
	numUserRewardManagers     uint64
	paidOutRewards            uint64
}

func (p *PoolReward) ID() uuid.UUID        { return p.id }
func (p *PoolReward) CoinType() string     { return p.coinType }
func (p *PoolReward) StartTime() uint64    { return p.startTime }
func (p *PoolReward) EndTime() uint64      { return p.endTime }
func (p *PoolReward) TotalRewards() uint64 { return p.totalRewards }

// AllocatedRewards is the amount unlocked so far; monotone and never above
// the funded total.
func (p *PoolReward) AllocatedRewards() fixedpoint.Decimal { return p.allocatedRewards }

// CumulativeRewardsPerShare is the monotone per-share accumulator.
func (p *PoolReward) CumulativeRewardsPerShare() fixedpoint.Decimal {
	return p.cumulativeRewardsPerShare
}

// NumUserRewardManagers counts participants holding an unclaimed snapshot;
// it gates slot destruction.
func (p *PoolReward) NumUserRewardManagers() uint64 { return p.numUserRewardManagers }

// PoolRewardManager owns the reward slots of one pool and the total staked
// weight. All time-dependent methods take the caller's clock and are
// idempotent within the same second.
type PoolRewardManager struct {
	id             uuid.UUID
	totalShares    uint64
	rewards        []*PoolReward
	lastUpdateTime uint64
	emitter        events.Emitter
}

// NewPoolRewardManager creates an empty pool synchronized to now.
func NewPoolRewardManager(now uint64) *PoolRewardManager {
	return &PoolRewardManager{
		id:             uuid.New(),
		lastUpdateTime: now,
		emitter:        events.NoopEmitter{},
	}
}

// SetEmitter wires the event sink for stream lifecycle events.
func (m *PoolRewardManager) SetEmitter(e events.Emitter) {
	if e == nil {
		e = events.NoopEmitter{}
	}
	m.emitter = e
}

func (m *PoolRewardManager) ID() uuid.UUID          { return m.id }
func (m *PoolRewardManager) TotalShares() uint64    { return m.totalShares }
func (m *PoolRewardManager) LastUpdateTime() uint64 { return m.lastUpdateTime }

// Reward returns the stream at index, or nil for a free slot or an index
// past the arena.
func (m *PoolRewardManager) Reward(index int) *PoolReward {
	if index < 0 || index >= len(m.rewards) {
		return nil
	}
	return m.rewards[index]
}

// Update unlocks every live stream up to now. An empty pool just advances
// its clock: nothing is distributed and nothing is lost, the skipped window
// simply stays unallocated.
func (m *PoolRewardManager) Update(now uint64) {
	if now <= m.lastUpdateTime {
		return
	}
	if m.totalShares == 0 {
		m.lastUpdateTime = now
		return
	}
	totalShares := fixedpoint.FromUint64(m.totalShares)
	for _, reward := range m.rewards {
		if reward == nil || reward.totalRewards == 0 || reward.endTime <= reward.startTime {
			continue
		}
		from := m.lastUpdateTime
		if reward.startTime > from {
			from = reward.startTime
		}
		to := now
		if reward.endTime < to {
			to = reward.endTime
		}
		if to <= from {
			continue
		}
		window := fixedpoint.FromUint64(reward.endTime - reward.startTime)
		unlocked := fixedpoint.FromUint64(reward.totalRewards).
			Mul(fixedpoint.FromUint64(to - from)).
			Div(window)
		reward.allocatedRewards = reward.allocatedRewards.Add(unlocked)
		reward.cumulativeRewardsPerShare = reward.cumulativeRewardsPerShare.
			Add(unlocked.Div(totalShares))
	}
	m.lastUpdateTime = now
}

// AddReward funds a new stream. The start is clamped forward to now and the
// window must span at least MinRewardPeriod. Returns the slot index.
func (m *PoolRewardManager) AddReward(coinType string, totalRewards, startTime, endTime, now uint64) (int, error) {
	if coinType == "" {
		return 0, ErrInvalidRewardType
	}
	if startTime < now {
		startTime = now
	}
	if endTime <= startTime || endTime-startTime < MinRewardPeriod {
		return 0, ErrInvalidTimeWindow
	}
	m.Update(now)

	reward := &PoolReward{
		id:           uuid.New(),
		coinType:     coinType,
		startTime:    startTime,
		endTime:      endTime,
		totalRewards: totalRewards,
	}

	index := -1
	for i, slot := range m.rewards {
		if slot == nil {
			index = i
			break
		}
	}
	if index == -1 {
		if len(m.rewards) >= MaxConcurrentRewards {
			return 0, ErrTooManyConcurrentRewards
		}
		m.rewards = append(m.rewards, reward)
		index = len(m.rewards) - 1
	} else {
		m.rewards[index] = reward
	}

	m.emitter.Emit(events.RewardAdded{
		RewardID:     reward.id.String(),
		CoinType:     coinType,
		TotalRewards: totalRewards,
		StartTime:    startTime,
		EndTime:      endTime,
	})
	return index, nil
}

// CancelReward freezes the stream at now and returns the still-unallocated
// remainder to the caller. Already-earned balances stay claimable.
func (m *PoolRewardManager) CancelReward(index int, now uint64) (uint64, error) {
	reward := m.Reward(index)
	if reward == nil {
		return 0, ErrRewardNotFound
	}
	m.Update(now)

	unallocated := fixedpoint.FromUint64(reward.totalRewards).
		SaturatingSub(reward.allocatedRewards).
		Floor()
	reward.endTime = now
	reward.totalRewards = 0

	m.emitter.Emit(events.RewardCancelled{
		RewardID:    reward.id.String(),
		CoinType:    reward.coinType,
		Unallocated: unallocated,
		Timestamp:   now,
	})
	return unallocated, nil
}

// CloseReward releases a spent slot for reuse once its window is over and
// every holder has claimed and detached. It returns the residual dust left
// behind by payout flooring so the host can sweep the stream's funding
// account clean.
func (m *PoolRewardManager) CloseReward(index int, now uint64) (uint64, error) {
	reward := m.Reward(index)
	if reward == nil {
		return 0, ErrRewardNotFound
	}
	if now < reward.endTime {
		return 0, ErrRewardPeriodNotOver
	}
	if reward.numUserRewardManagers != 0 {
		return 0, ErrUnclaimedRewardsRemain
	}
	m.Update(now)

	basis := reward.totalRewards
	if basis == 0 {
		basis = reward.allocatedRewards.Floor()
	}
	dust := uint64(0)
	if basis > reward.paidOutRewards {
		dust = basis - reward.paidOutRewards
	}
	m.rewards[index] = nil

	m.emitter.Emit(events.RewardClosed{
		RewardID: reward.id.String(),
		CoinType: reward.coinType,
		Dust:     dust,
	})
	return dust, nil
}

// UserReward is a participant's snapshot against one stream: what they have
// earned and not yet claimed, and the pool accumulator value they last
// observed.
type UserReward struct {
	poolRewardID              uuid.UUID
	earnedRewards             fixedpoint.Decimal
	cumulativeRewardsPerShare fixedpoint.Decimal
}

// EarnedRewards is the accrued, unclaimed balance.
func (u *UserReward) EarnedRewards() fixedpoint.Decimal { return u.earnedRewards }

// UserRewardManager is one participant's weight in a pool plus their
// per-stream snapshots. It is bound to a single PoolRewardManager at
// creation and torn down by the owning collaborator.
type UserRewardManager struct {
	poolManagerID  uuid.UUID
	share          uint64
	rewards        []*UserReward
	lastUpdateTime uint64
}

// NewUserRewardManager binds a fresh zero-share participant to pool,
// synchronized to now.
func NewUserRewardManager(pool *PoolRewardManager, now uint64) *UserRewardManager {
	user := &UserRewardManager{
		poolManagerID:  pool.id,
		lastUpdateTime: now,
	}
	// Settle the pool so the join point is crisp even when the caller has
	// not updated it this second.
	pool.Update(now)
	return user
}

func (u *UserRewardManager) Share() uint64          { return u.share }
func (u *UserRewardManager) LastUpdateTime() uint64 { return u.lastUpdateTime }

// Reward returns the snapshot for the slot at index, or nil.
func (u *UserRewardManager) Reward(index int) *UserReward {
	if index < 0 || index >= len(u.rewards) {
		return nil
	}
	return u.rewards[index]
}

// UpdateUser settles the participant against every live stream: the pool is
// brought to now first, missing snapshots are created for streams that have
// not ended, and existing snapshots absorb the accumulator delta times the
// participant's share.
//
// A participant whose last touch predates a stream's start held their share
// through the whole window so far; the fresh snapshot is credited
// retroactively with the full accumulator rather than starting from zero.
func (m *PoolRewardManager) UpdateUser(user *UserRewardManager, now uint64) error {
	if user.poolManagerID != m.id {
		return ErrIdentityMismatch
	}
	m.Update(now)

	for len(user.rewards) < len(m.rewards) {
		user.rewards = append(user.rewards, nil)
	}
	share := fixedpoint.FromUint64(user.share)
	for i, reward := range m.rewards {
		if reward == nil {
			continue
		}
		snapshot := user.rewards[i]
		if snapshot == nil {
			if now >= reward.endTime {
				continue
			}
			snapshot = &UserReward{
				poolRewardID:              reward.id,
				cumulativeRewardsPerShare: reward.cumulativeRewardsPerShare,
			}
			if user.lastUpdateTime <= reward.startTime {
				snapshot.earnedRewards = reward.cumulativeRewardsPerShare.Mul(share)
			}
			user.rewards[i] = snapshot
			reward.numUserRewardManagers++
			continue
		}
		if snapshot.poolRewardID != reward.id {
			return ErrIdentityMismatch
		}
		delta := reward.cumulativeRewardsPerShare.Sub(snapshot.cumulativeRewardsPerShare)
		snapshot.earnedRewards = snapshot.earnedRewards.Add(delta.Mul(share))
		snapshot.cumulativeRewardsPerShare = reward.cumulativeRewardsPerShare
	}
	user.lastUpdateTime = now
	return nil
}

// ChangeShare rebalances the participant's weight. Both the pool and the
// participant must already be settled to now: changing a share against a
// stale accumulator would accrue the new weight over the old window.
func (m *PoolRewardManager) ChangeShare(user *UserRewardManager, newShare uint64, now uint64) error {
	if user.poolManagerID != m.id {
		return ErrIdentityMismatch
	}
	if m.lastUpdateTime != now || user.lastUpdateTime != now {
		return ErrStaleAccrual
	}
	m.totalShares = m.totalShares - user.share + newShare
	user.share = newShare
	return nil
}

// Claim settles both levels and pays out the whole part of the earned
// balance; the fractional remainder keeps accruing. Once the stream has
// ended the snapshot is dropped and the holder count decremented, freeing
// the slot for eventual closure.
func (m *PoolRewardManager) Claim(user *UserRewardManager, index int, now uint64) (uint64, error) {
	if err := m.UpdateUser(user, now); err != nil {
		return 0, err
	}
	reward := m.Reward(index)
	if reward == nil {
		return 0, ErrRewardNotFound
	}
	snapshot := user.Reward(index)
	if snapshot == nil {
		return 0, nil
	}
	if snapshot.poolRewardID != reward.id {
		return 0, ErrIdentityMismatch
	}

	amount := snapshot.earnedRewards.Floor()
	snapshot.earnedRewards = snapshot.earnedRewards.Sub(fixedpoint.FromUint64(amount))
	reward.paidOutRewards += amount

	if now >= reward.endTime {
		user.rewards[index] = nil
		reward.numUserRewardManagers--
	}

	m.emitter.Emit(events.RewardClaimed{
		RewardID:  reward.id.String(),
		CoinType:  reward.coinType,
		Amount:    amount,
		Timestamp: now,
	})
	return amount, nil
}

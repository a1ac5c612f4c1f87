package rewards

import "errors"

var (
	ErrIdentityMismatch         = errors.New("rewards: manager identity mismatch")
	ErrInvalidTimeWindow        = errors.New("rewards: reward window below minimum period")
	ErrInvalidRewardType        = errors.New("rewards: invalid reward coin type")
	ErrTooManyConcurrentRewards = errors.New("rewards: concurrent reward slots exhausted")
	ErrRewardPeriodNotOver      = errors.New("rewards: reward period not over")
	ErrUnclaimedRewardsRemain   = errors.New("rewards: unclaimed rewards remain")
	ErrStaleAccrual             = errors.New("rewards: share change against stale accrual")
	ErrRewardNotFound           = errors.New("rewards: no reward at index")
)

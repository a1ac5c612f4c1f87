package events

import "lendex/fixedpoint"

// Event represents a structured state change emitted by the accounting core.
type Event interface {
	EventType() string
}

// Emitter broadcasts events to downstream subscribers (indexers, metrics).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter satisfies Emitter while discarding all events. Components take
// it as the default so event wiring stays optional.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

const (
	// TypeInterestUpdate is emitted once per compounding event on a reserve.
	TypeInterestUpdate = "lending.interest.update"
	// TypePriceUpdated is emitted when a reserve accepts a fresh oracle
	// observation.
	TypePriceUpdated = "lending.price.updated"
	// TypeConfigUpdated is emitted when a reserve swaps in a new config.
	TypeConfigUpdated = "lending.config.updated"
	// TypeFeesClaimed is emitted when accrued fees are withdrawn.
	TypeFeesClaimed = "lending.fees.claimed"
	// TypeRewardAdded is emitted when a reward stream is funded.
	TypeRewardAdded = "rewards.stream.added"
	// TypeRewardCancelled is emitted when a stream is cancelled mid-flight.
	TypeRewardCancelled = "rewards.stream.cancelled"
	// TypeRewardClaimed is emitted per successful claim.
	TypeRewardClaimed = "rewards.stream.claimed"
	// TypeRewardClosed is emitted when a spent slot is released for reuse.
	TypeRewardClosed = "rewards.stream.closed"
)

// InterestUpdate is the per-compounding observation consumed by external
// indexers and telemetry. It is never read back by the core.
type InterestUpdate struct {
	CoinType             string
	CumulativeBorrowRate fixedpoint.Decimal
	AvailableAmount      uint64
	BorrowedAmount       fixedpoint.Decimal
	UnclaimedSpreadFees  fixedpoint.Decimal
	CTokenSupply         uint64
	Timestamp            uint64
}

func (InterestUpdate) EventType() string { return TypeInterestUpdate }

// PriceUpdated records the accepted spot and smoothed prices for a reserve.
type PriceUpdated struct {
	CoinType      string
	Price         fixedpoint.Decimal
	SmoothedPrice fixedpoint.Decimal
	Timestamp     uint64
}

func (PriceUpdated) EventType() string { return TypePriceUpdated }

// ConfigUpdated signals an atomic reserve config swap.
type ConfigUpdated struct {
	CoinType string
}

func (ConfigUpdated) EventType() string { return TypeConfigUpdated }

// FeesClaimed records a fee withdrawal from a reserve.
type FeesClaimed struct {
	CoinType   string
	BorrowFees uint64
	SpreadFees uint64
	Timestamp  uint64
}

func (FeesClaimed) EventType() string { return TypeFeesClaimed }

// RewardAdded records the lifetime parameters of a newly funded stream.
type RewardAdded struct {
	RewardID     string
	CoinType     string
	TotalRewards uint64
	StartTime    uint64
	EndTime      uint64
}

func (RewardAdded) EventType() string { return TypeRewardAdded }

// RewardCancelled records a stream cancellation and the returned remainder.
type RewardCancelled struct {
	RewardID    string
	CoinType    string
	Unallocated uint64
	Timestamp   uint64
}

func (RewardCancelled) EventType() string { return TypeRewardCancelled }

// RewardClaimed records a paid-out claim against a stream.
type RewardClaimed struct {
	RewardID  string
	CoinType  string
	Amount    uint64
	Timestamp uint64
}

func (RewardClaimed) EventType() string { return TypeRewardClaimed }

// RewardClosed records a slot release and any residual dust swept.
type RewardClosed struct {
	RewardID string
	CoinType string
	Dust     uint64
}

func (RewardClosed) EventType() string { return TypeRewardClosed }

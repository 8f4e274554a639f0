package models

import "time"

// RewardRecord is one historical staking payout parsed from a reward
// export. A record is uniquely identified by (stake_account, epoch);
// re-fetching an export upserts rather than duplicates.
type RewardRecord struct {
	ID                uint   `gorm:"primarykey"`
	StakeAccount      string `gorm:"size:44;uniqueIndex:idx_rewards_account_epoch;not null"`
	Epoch             uint32 `gorm:"uniqueIndex:idx_rewards_account_epoch;not null"`
	EffectiveSlot     uint64
	EffectiveTime     string `gorm:"size:40"`
	EffectiveTimeUnix int64  `gorm:"index"`
	Amount            float64
	PostBalance       uint64
	Commission        uint8
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

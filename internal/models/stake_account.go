package models

import (
	"strings"

	"gorm.io/gorm"
)

// StakeAccountStatus is the delegation state of a stake account
type StakeAccountStatus string

const (
	StatusActive       StakeAccountStatus = "active"
	StatusInactive     StakeAccountStatus = "inactive"
	StatusDeactivating StakeAccountStatus = "deactivating"
	StatusActivating   StakeAccountStatus = "activating"
)

// NormalizeStatus maps an upstream status string onto a known status.
// Unknown values are treated as inactive.
func NormalizeStatus(status string) StakeAccountStatus {
	switch strings.ToLower(status) {
	case "active":
		return StatusActive
	case "inactive":
		return StatusInactive
	case "deactivating":
		return StatusDeactivating
	case "activating":
		return StatusActivating
	default:
		return StatusInactive
	}
}

// StakeAccount represents one delegation record owned by a wallet.
// The cached set for a wallet is a full replacement snapshot: records are
// replaced wholesale on every successful sync, never patched in place.
// JSON tags follow the Solscan stake listing payload.
type StakeAccount struct {
	gorm.Model
	WalletAddress        string             `gorm:"size:44;index:idx_stake_accounts_wallet;not null" json:"-"`
	StakeAccount         string             `gorm:"size:44;index;not null" json:"stake_account"`
	SolBalance           uint64             `gorm:"default:0" json:"sol_balance"`
	Status               StakeAccountStatus `gorm:"size:20;default:'inactive'" json:"status"`
	DelegatedStakeAmount uint64             `gorm:"default:0" json:"delegated_stake_amount"`
	ActiveStakeAmount    *uint64            `json:"active_stake_amount"`
	TotalReward          uint64             `gorm:"default:0" json:"total_reward"`
	Voter                string             `gorm:"size:44;index" json:"voter"`
	Type                 string             `gorm:"size:20" json:"type"`
	ActivationEpoch      *uint32            `json:"activation_epoch"`
	Role                 *string            `gorm:"size:20" json:"role"`
}

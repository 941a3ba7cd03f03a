package model

import (
	"time"

	"github.com/google/uuid"
)

// PointsHistoryLimit caps the ledger history to the most recent entries
const PointsHistoryLimit = 10

// Reward is a fixed redemption threshold
type Reward struct {
	Name      string `json:"name"`
	Threshold int    `json:"threshold"`
}

var Rewards = []Reward{
	{Name: "Complimentary add-on", Threshold: 100},
	{Name: "Free express facial", Threshold: 250},
	{Name: "Signature treatment voucher", Threshold: 500},
}

type RewardProgress struct {
	Reward
	Unlocked     bool `json:"unlocked"`
	PointsNeeded int  `json:"points_needed"`
}

// RewardsFor computes progress towards every reward for a balance
func RewardsFor(balance int) []RewardProgress {
	out := make([]RewardProgress, 0, len(Rewards))
	for _, r := range Rewards {
		needed := r.Threshold - balance
		if needed < 0 {
			needed = 0
		}
		out = append(out, RewardProgress{
			Reward:       r,
			Unlocked:     balance >= r.Threshold,
			PointsNeeded: needed,
		})
	}
	return out
}

// PointsEntry is one completed appointment that earned points
type PointsEntry struct {
	AppointmentID uuid.UUID `db:"appointment_id" json:"appointment_id"`
	TreatmentName string    `db:"treatment_name" json:"treatment_name"`
	PointsEarned  int       `db:"points_earned" json:"points_earned"`
	CompletedAt   time.Time `db:"completed_at" json:"completed_at"`
}

type PointsLedger struct {
	Balance       int              `json:"balance"`
	LoyaltyTier   LoyaltyTier      `json:"loyalty_tier"`
	VIPMultiplier int              `json:"vip_multiplier"`
	History       []PointsEntry    `json:"history"`
	Rewards       []RewardProgress `json:"rewards"`
}

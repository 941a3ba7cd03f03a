package model

import (
	"time"

	"github.com/google/uuid"
)

type VIPPlan string

const (
	VIPPlanMonthly VIPPlan = "MONTHLY"
	VIPPlanYearly  VIPPlan = "YEARLY"
)

// Period returns when a subscription on this plan started at from ends
func (p VIPPlan) Period(from time.Time) time.Time {
	if p == VIPPlanYearly {
		return from.AddDate(1, 0, 0)
	}
	return from.AddDate(0, 1, 0)
}

type VIPStatus string

const (
	VIPActive    VIPStatus = "ACTIVE"
	VIPCancelled VIPStatus = "CANCELLED"
	VIPExpired   VIPStatus = "EXPIRED"
)

type VIPSubscription struct {
	Base
	UserID   uuid.UUID `db:"user_id" json:"user_id"`
	ClinicID uuid.UUID `db:"clinic_id" json:"clinic_id"`
	Plan     VIPPlan   `db:"plan" json:"plan"`
	Status   VIPStatus `db:"status" json:"status"`
	StartsAt time.Time `db:"starts_at" json:"starts_at"`
	EndsAt   time.Time `db:"ends_at" json:"ends_at"`
}

// IsActiveAt reports whether the subscription grants VIP status at t
func (s *VIPSubscription) IsActiveAt(t time.Time) bool {
	return s.Status == VIPActive && !t.Before(s.StartsAt) && t.Before(s.EndsAt)
}

type SubscribeVIPRequest struct {
	ClinicID uuid.UUID `json:"clinic_id" binding:"required"`
	Plan     VIPPlan   `json:"plan" binding:"required,oneof=MONTHLY YEARLY"`
}

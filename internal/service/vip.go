package service

import (
	"context"
	"time"

	"github.com/jwalitptl/beauty-api/internal/model"
	"github.com/jwalitptl/beauty-api/internal/repository"
)

// ActiveVIP loads the user's subscriptions active at the given time and sets
// user.IsVIP from them. The stored is_vip column lags until the expiry
// worker runs.
func ActiveVIP(ctx context.Context, vips repository.VIPRepository, user *model.User, at time.Time) ([]model.VIPSubscription, error) {
	subs, err := vips.ActiveForUser(ctx, user.ID, at)
	if err != nil {
		return nil, RepoError(err, "vip subscription")
	}
	if subs == nil {
		subs = []model.VIPSubscription{}
	}
	user.IsVIP = len(subs) > 0
	return subs, nil
}

// VIPAt reports whether one of subs belongs to the given clinic
func VIPAt(subs []model.VIPSubscription, clinic *model.Clinic) bool {
	if !clinic.VIPProgramEnabled {
		return false
	}
	for _, sub := range subs {
		if sub.ClinicID == clinic.ID {
			return true
		}
	}
	return false
}

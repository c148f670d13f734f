package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"smartpark/internal/clock"
	"smartpark/internal/db"
)

// SubscriptionInfo is the read-only view of a user's plan at a point in time.
type SubscriptionInfo struct {
	Tier      db.Tier
	IsActive  bool
	ExpiresAt *time.Time
}

type SubscriptionLookup interface {
	Lookup(ctx context.Context, userID string) (SubscriptionInfo, error)
	DiscountPercentage(tier db.Tier) decimal.Decimal
	VehicleClassAllowed(tier db.Tier, vc db.VehicleClass) bool
}

type tierPolicy struct {
	discount    decimal.Decimal
	sports      bool
	hyperSports bool
}

type SubscriptionService struct {
	store    SubscriptionStore
	clock    clock.Clock
	policies map[db.Tier]tierPolicy
}

func NewSubscriptionService(store SubscriptionStore, clk clock.Clock) *SubscriptionService {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &SubscriptionService{
		store: store,
		clock: clk,
		policies: map[db.Tier]tierPolicy{
			db.TierFree:        {discount: decimal.Zero},
			db.TierBasic:       {discount: decimal.RequireFromString("0.05")},
			db.TierPro:         {discount: decimal.RequireFromString("0.10"), sports: true},
			db.TierPremiumPlus: {discount: decimal.RequireFromString("0.20"), sports: true, hyperSports: true},
		},
	}
}

// Lookup falls back to the free tier when the user has no subscription, or it is inactive,
// expired or carries an unknown tier.
func (s *SubscriptionService) Lookup(ctx context.Context, userID string) (SubscriptionInfo, error) {
	free := SubscriptionInfo{Tier: db.TierFree}
	if userID == "" || s.store == nil {
		return free, nil
	}
	sub, err := s.store.GetSubscription(ctx, userID)
	if err != nil {
		return SubscriptionInfo{}, fmt.Errorf("subscription lookup: %w", err)
	}
	if sub == nil || sub.Status != "active" {
		return free, nil
	}
	if sub.ExpiresAt != nil && !sub.ExpiresAt.After(s.clock.Now()) {
		return free, nil
	}
	tier, err := db.ParseTier(string(sub.Tier))
	if err != nil {
		return free, nil
	}
	return SubscriptionInfo{Tier: tier, IsActive: true, ExpiresAt: sub.ExpiresAt}, nil
}

func (s *SubscriptionService) DiscountPercentage(tier db.Tier) decimal.Decimal {
	return s.policies[tier].discount
}

func (s *SubscriptionService) VehicleClassAllowed(tier db.Tier, vc db.VehicleClass) bool {
	p := s.policies[tier]
	switch vc {
	case db.VehicleSports:
		return p.sports
	case db.VehicleHyperSports:
		return p.hyperSports
	}
	return true
}

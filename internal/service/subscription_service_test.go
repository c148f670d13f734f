package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartpark/internal/clock"
	"smartpark/internal/db"
)

func TestSubscriptionLookup(t *testing.T) {
	now := time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC)
	future := now.Add(30 * 24 * time.Hour)
	past := now.Add(-time.Minute)

	store := &fakeSubscriptions{subs: map[string]db.Subscription{
		"active":   {Tier: db.TierPro, Status: "active", ExpiresAt: &future},
		"forever":  {Tier: db.TierBasic, Status: "active"},
		"paused":   {Tier: db.TierPremiumPlus, Status: "paused"},
		"expired":  {Tier: db.TierPremiumPlus, Status: "active", ExpiresAt: &past},
		"mystery":  {Tier: db.Tier("gold"), Status: "active"},
		"boundary": {Tier: db.TierPro, Status: "active", ExpiresAt: &now},
	}}
	svc := NewSubscriptionService(store, clock.NewFixed(now))
	ctx := context.Background()

	cases := []struct {
		user   string
		tier   db.Tier
		active bool
	}{
		{"active", db.TierPro, true},
		{"forever", db.TierBasic, true},
		{"paused", db.TierFree, false},
		{"expired", db.TierFree, false},
		{"mystery", db.TierFree, false},
		{"boundary", db.TierFree, false},
		{"nobody", db.TierFree, false},
		{"", db.TierFree, false},
	}
	for _, tc := range cases {
		info, err := svc.Lookup(ctx, tc.user)
		require.NoError(t, err, tc.user)
		assert.Equal(t, tc.tier, info.Tier, tc.user)
		assert.Equal(t, tc.active, info.IsActive, tc.user)
	}

	store.err = errors.New("timeout")
	_, err := svc.Lookup(ctx, "active")
	assert.Error(t, err)
}

func TestSubscriptionPolicies(t *testing.T) {
	svc := NewSubscriptionService(nil, nil)

	assert.Equal(t, "0", svc.DiscountPercentage(db.TierFree).String())
	assert.Equal(t, "0.05", svc.DiscountPercentage(db.TierBasic).String())
	assert.Equal(t, "0.1", svc.DiscountPercentage(db.TierPro).String())
	assert.Equal(t, "0.2", svc.DiscountPercentage(db.TierPremiumPlus).String())
	assert.True(t, svc.DiscountPercentage(db.Tier("gold")).IsZero())

	for _, tier := range []db.Tier{db.TierFree, db.TierBasic, db.TierPro, db.TierPremiumPlus} {
		assert.True(t, svc.VehicleClassAllowed(tier, db.VehicleSedan), tier)
		assert.True(t, svc.VehicleClassAllowed(tier, db.VehicleElectric), tier)
	}
	assert.False(t, svc.VehicleClassAllowed(db.TierBasic, db.VehicleSports))
	assert.True(t, svc.VehicleClassAllowed(db.TierPro, db.VehicleSports))
	assert.False(t, svc.VehicleClassAllowed(db.TierPro, db.VehicleHyperSports))
	assert.True(t, svc.VehicleClassAllowed(db.TierPremiumPlus, db.VehicleHyperSports))

	// Without a store everyone is on the free plan.
	info, err := svc.Lookup(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, db.TierFree, info.Tier)
}

package entities

import (
	"time"

	"github.com/shopspring/decimal"

	"smartpark/internal/db"
	"smartpark/internal/pricing"
)

type PriceQuoteRequest struct {
	SlotID       string
	UserID       string
	StartTime    time.Time
	EndTime      time.Time
	VehicleClass db.VehicleClass
}

type PriceQuote struct {
	SlotID                   string
	Breakdown                pricing.PriceBreakdown
	SubscriptionTier         db.Tier
	SubscriptionDiscountRate decimal.Decimal
	SubscriptionDiscount     decimal.Decimal
	TotalAmount              decimal.Decimal
}

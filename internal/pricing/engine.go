// Package pricing computes itemized parking prices. The engine holds only immutable rate tables
// built once at startup; Calculate has no side effects.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"smartpark/internal/db"
)

type TimeLabel string

const (
	LabelOffPeak     TimeLabel = "Off-Peak"
	LabelPeak        TimeLabel = "Peak"
	LabelSpecialPeak TimeLabel = "Special Peak"
	LabelNormal      TimeLabel = "Normal"
)

type PriceInput struct {
	HourlyRate             decimal.Decimal
	DurationHours          decimal.Decimal
	StartTime              time.Time
	VehicleClass           db.VehicleClass
	AvailabilityPercentage decimal.Decimal
}

type PriceBreakdown struct {
	BaseAmount            decimal.Decimal `json:"base_amount"`
	TimeLabel             TimeLabel       `json:"time_label"`
	TimeMultiplier        decimal.Decimal `json:"time_multiplier"`
	VehicleMultiplier     decimal.Decimal `json:"vehicle_multiplier"`
	DurationDiscount      decimal.Decimal `json:"duration_discount"`
	DemandMultiplier      decimal.Decimal `json:"demand_multiplier"`
	WeekendSurcharge      decimal.Decimal `json:"weekend_surcharge"`
	EVBonus               decimal.Decimal `json:"ev_bonus"`
	PeakProtectionApplied bool            `json:"peak_protection_applied"`
	DemandAdjustedAmount  decimal.Decimal `json:"demand_adjusted_amount"`
	FinalAmount           decimal.Decimal `json:"final_amount"`
	// Informational aggregates; FinalAmount is never derived from them.
	TotalDiscount  decimal.Decimal `json:"total_discount"`
	TotalSurcharge decimal.Decimal `json:"total_surcharge"`
}

// hourBand is a half-open hour range [From, To) on the 24h clock.
type hourBand struct {
	From, To int
}

func (b hourBand) contains(hour int) bool {
	if b.From <= b.To {
		return hour >= b.From && hour < b.To
	}
	return hour >= b.From || hour < b.To
}

type durationTier struct {
	MinHours decimal.Decimal
	Discount decimal.Decimal
}

type demandTier struct {
	Above      decimal.Decimal
	Multiplier decimal.Decimal
}

type Engine struct {
	loc *time.Location

	offPeak           hourBand
	peak              []hourBand
	specialPeak       hourBand
	offPeakMultiplier decimal.Decimal
	peakMultiplier    decimal.Decimal

	vehicleMultipliers map[db.VehicleClass]decimal.Decimal

	durationTiers          []durationTier
	performanceDiscountCap decimal.Decimal

	demandTiers          []demandTier
	demandFloor          decimal.Decimal
	scarcityThreshold    decimal.Decimal
	scarcityMultiplier   decimal.Decimal
	weekendSurchargeRate decimal.Decimal
	evOffPeakBonus       decimal.Decimal
}

type Option func(*Engine)

// WithLocation sets the time zone used to read the start hour and weekday.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var one = decimal.NewFromInt(1)

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		loc:               time.UTC,
		offPeak:           hourBand{From: 22, To: 6},
		peak:              []hourBand{{From: 8, To: 11}, {From: 17, To: 21}},
		specialPeak:       hourBand{From: 10, To: 22},
		offPeakMultiplier: d("0.8"),
		peakMultiplier:    d("1.25"),
		vehicleMultipliers: map[db.VehicleClass]decimal.Decimal{
			db.VehicleHatchback:   d("1.00"),
			db.VehicleSedan:       d("1.10"),
			db.VehicleCompactSUV:  d("1.15"),
			db.VehicleSUV:         d("1.25"),
			db.VehicleLuxury:      d("1.25"),
			db.VehicleElectric:    d("1.20"),
			db.VehicleHybrid:      d("1.20"),
			db.VehicleSports:      d("1.50"),
			db.VehicleHyperSports: d("2.00"),
		},
		// Highest threshold first.
		durationTiers: []durationTier{
			{MinHours: d("24"), Discount: d("0.30")},
			{MinHours: d("6"), Discount: d("0.20")},
			{MinHours: d("3"), Discount: d("0.10")},
		},
		performanceDiscountCap: d("0.10"),
		demandTiers: []demandTier{
			{Above: d("50"), Multiplier: d("1.00")},
			{Above: d("30"), Multiplier: d("1.10")},
			{Above: d("10"), Multiplier: d("1.20")},
		},
		demandFloor:          d("1.35"),
		scarcityThreshold:    d("20"),
		scarcityMultiplier:   d("1.50"),
		weekendSurchargeRate: d("0.15"),
		evOffPeakBonus:       d("0.05"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Location() *time.Location { return e.loc }

// Calculate prices a booking. The step order is significant: the EV bonus and the hyper-sports
// peak protection key off the time label, not the time multiplier.
func (e *Engine) Calculate(in PriceInput) PriceBreakdown {
	start := in.StartTime.In(e.loc)
	hour := start.Hour()
	weekend := isWeekend(start.Weekday())

	base := in.HourlyRate.Mul(in.DurationHours)
	timeMult := e.timeMultiplier(hour)
	label := e.timeLabel(hour, weekend)
	vehicleMult := e.VehicleMultiplier(in.VehicleClass)
	discount := e.durationDiscount(in.DurationHours, in.VehicleClass)
	demand := e.demandMultiplier(in.AvailabilityPercentage, in.VehicleClass)
	weekendSurcharge := decimal.Zero
	if weekend {
		weekendSurcharge = e.weekendSurchargeRate
	}

	demandAdjusted := base.Mul(timeMult).Mul(vehicleMult).Mul(demand)
	final := demandAdjusted.Mul(one.Sub(discount)).Mul(one.Add(weekendSurcharge))

	evBonus := decimal.Zero
	if in.VehicleClass.IsElectrified() && label == LabelOffPeak {
		evBonus = e.evOffPeakBonus
		final = final.Mul(one.Sub(evBonus))
	}

	protected := false
	if in.VehicleClass == db.VehicleHyperSports && (label == LabelPeak || label == LabelSpecialPeak) {
		protected = true
		discount = decimal.Zero
		evBonus = decimal.Zero
		final = demandAdjusted.Mul(one.Add(weekendSurcharge))
	}

	return PriceBreakdown{
		BaseAmount:            base.Round(2),
		TimeLabel:             label,
		TimeMultiplier:        timeMult,
		VehicleMultiplier:     vehicleMult,
		DurationDiscount:      discount,
		DemandMultiplier:      demand,
		WeekendSurcharge:      weekendSurcharge,
		EVBonus:               evBonus,
		PeakProtectionApplied: protected,
		DemandAdjustedAmount:  demandAdjusted.Round(2),
		FinalAmount:           final.Round(2),
		TotalDiscount:         discount.Add(evBonus),
		TotalSurcharge:        weekendSurcharge.Add(demand.Sub(one)),
	}
}

func (e *Engine) timeMultiplier(hour int) decimal.Decimal {
	if e.offPeak.contains(hour) {
		return e.offPeakMultiplier
	}
	for _, b := range e.peak {
		if b.contains(hour) {
			return e.peakMultiplier
		}
	}
	return one
}

// timeLabel is computed independently of timeMultiplier and can disagree with it on weekends
// (Saturday 10:00 is billed as Peak but labelled Special Peak, Saturday 12:00 is billed as
// Normal but labelled Special Peak).
func (e *Engine) timeLabel(hour int, weekend bool) TimeLabel {
	if weekend && e.specialPeak.contains(hour) {
		return LabelSpecialPeak
	}
	if e.offPeak.contains(hour) {
		return LabelOffPeak
	}
	for _, b := range e.peak {
		if b.contains(hour) {
			return LabelPeak
		}
	}
	return LabelNormal
}

// VehicleMultiplier returns 1.0 for unspecified or unlisted classes.
func (e *Engine) VehicleMultiplier(vc db.VehicleClass) decimal.Decimal {
	if m, ok := e.vehicleMultipliers[vc]; ok {
		return m
	}
	return one
}

func (e *Engine) durationDiscount(hours decimal.Decimal, vc db.VehicleClass) decimal.Decimal {
	discount := decimal.Zero
	for _, tier := range e.durationTiers {
		if hours.GreaterThanOrEqual(tier.MinHours) {
			discount = tier.Discount
			break
		}
	}
	if vc.IsPerformance() && discount.GreaterThan(e.performanceDiscountCap) {
		discount = e.performanceDiscountCap
	}
	return discount
}

func (e *Engine) demandMultiplier(availability decimal.Decimal, vc db.VehicleClass) decimal.Decimal {
	if vc.IsPerformance() && availability.LessThan(e.scarcityThreshold) {
		return e.scarcityMultiplier
	}
	for _, tier := range e.demandTiers {
		if availability.GreaterThan(tier.Above) {
			return tier.Multiplier
		}
	}
	return e.demandFloor
}

func isWeekend(wd time.Weekday) bool {
	return wd == time.Saturday || wd == time.Sunday
}

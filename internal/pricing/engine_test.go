package pricing

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartpark/internal/db"
)

var (
	tuesday  = time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)
	saturday = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
)

func at(day time.Time, hour int) time.Time {
	return day.Add(time.Duration(hour) * time.Hour)
}

func input(rate, hours string, start time.Time, vc db.VehicleClass, availability string) PriceInput {
	return PriceInput{
		HourlyRate:             decimal.RequireFromString(rate),
		DurationHours:          decimal.RequireFromString(hours),
		StartTime:              start,
		VehicleClass:           vc,
		AvailabilityPercentage: decimal.RequireFromString(availability),
	}
}

func assertDec(t *testing.T, want string, got decimal.Decimal, msg string) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "%s: want %s, got %s", msg, want, got)
}

func TestCalculate_WeekdayNormalHatchback(t *testing.T) {
	e := NewEngine()

	b := e.Calculate(input("100", "2", at(tuesday, 13), db.VehicleHatchback, "80"))

	assertDec(t, "200", b.BaseAmount, "base")
	assert.Equal(t, LabelNormal, b.TimeLabel)
	assertDec(t, "1", b.TimeMultiplier, "time")
	assertDec(t, "1", b.VehicleMultiplier, "vehicle")
	assertDec(t, "0", b.DurationDiscount, "duration discount")
	assertDec(t, "1", b.DemandMultiplier, "demand")
	assertDec(t, "0", b.WeekendSurcharge, "weekend")
	assert.Equal(t, "200.00", b.FinalAmount.StringFixed(2))

	// 10:00 on a weekday falls inside the 08:00-11:00 peak band.
	morning := e.Calculate(input("100", "2", at(tuesday, 10), db.VehicleHatchback, "80"))
	assert.Equal(t, LabelPeak, morning.TimeLabel)
	assert.Equal(t, "250.00", morning.FinalAmount.StringFixed(2))
}

// Saturday 23:00 sits outside the 10:00-22:00 special-peak window, so the label falls through to
// Off-Peak and hyper-sports peak protection does not fire.
func TestCalculate_SaturdayNightHyperSportsScarcity(t *testing.T) {
	e := NewEngine()

	b := e.Calculate(input("100", "2", at(saturday, 23), db.VehicleHyperSports, "15"))

	assert.Equal(t, LabelOffPeak, b.TimeLabel)
	assertDec(t, "0.8", b.TimeMultiplier, "time")
	assertDec(t, "2", b.VehicleMultiplier, "vehicle")
	assertDec(t, "1.5", b.DemandMultiplier, "demand")
	assertDec(t, "0", b.DurationDiscount, "duration discount")
	assertDec(t, "0.15", b.WeekendSurcharge, "weekend")
	assert.False(t, b.PeakProtectionApplied)
	assert.Equal(t, "552.00", b.FinalAmount.StringFixed(2))
	assertDec(t, "0", b.TotalDiscount, "total discount")
	assertDec(t, "0.65", b.TotalSurcharge, "total surcharge")
}

func TestCalculate_HyperSportsOffPeakKeepsCappedDiscount(t *testing.T) {
	e := NewEngine()

	b := e.Calculate(input("100", "8", at(saturday, 23), db.VehicleHyperSports, "15"))

	assertDec(t, "0.1", b.DurationDiscount, "capped discount")
	assert.False(t, b.PeakProtectionApplied)
	// 800 * 0.8 * 2 * 1.5 * 0.9 * 1.15
	assert.Equal(t, "1987.20", b.FinalAmount.StringFixed(2))
}

func TestCalculate_HyperSportsPeakProtection(t *testing.T) {
	e := NewEngine()

	// Saturday noon: multiplier is Normal (1.0) while the label is Special Peak.
	b := e.Calculate(input("100", "8", at(saturday, 12), db.VehicleHyperSports, "80"))

	assert.Equal(t, LabelSpecialPeak, b.TimeLabel)
	assertDec(t, "1", b.TimeMultiplier, "time")
	assert.True(t, b.PeakProtectionApplied)
	assertDec(t, "0", b.DurationDiscount, "discount forced to zero")
	assertDec(t, "1600", b.DemandAdjustedAmount, "demand adjusted")
	assert.Equal(t, "1840.00", b.FinalAmount.StringFixed(2))

	weekday := e.Calculate(input("100", "8", at(tuesday, 9), db.VehicleHyperSports, "80"))
	assert.Equal(t, LabelPeak, weekday.TimeLabel)
	assert.True(t, weekday.PeakProtectionApplied)
	// 800 * 1.25 * 2
	assert.Equal(t, "2000.00", weekday.FinalAmount.StringFixed(2))
}

// The label and multiplier are computed by different rules; these cases pin the divergence so a
// change to either is a deliberate product decision.
func TestCalculate_LabelMultiplierDivergence(t *testing.T) {
	e := NewEngine()
	cases := []struct {
		start time.Time
		label TimeLabel
		mult  string
	}{
		{at(saturday, 10), LabelSpecialPeak, "1.25"},
		{at(saturday, 12), LabelSpecialPeak, "1"},
		{at(saturday, 21), LabelSpecialPeak, "1"},
		{at(saturday, 22), LabelOffPeak, "0.8"},
		{at(saturday, 7), LabelNormal, "1"},
		{at(saturday, 9), LabelPeak, "1.25"},
		{at(tuesday, 5), LabelOffPeak, "0.8"},
		{at(tuesday, 6), LabelNormal, "1"},
		{at(tuesday, 17), LabelPeak, "1.25"},
		{at(tuesday, 21), LabelNormal, "1"},
	}
	for _, tc := range cases {
		b := e.Calculate(input("10", "1", tc.start, db.VehicleSedan, "90"))
		assert.Equal(t, tc.label, b.TimeLabel, "label at %s", tc.start)
		assertDec(t, tc.mult, b.TimeMultiplier, "multiplier at "+tc.start.String())
	}
}

func TestCalculate_ElectricOffPeakBonus(t *testing.T) {
	e := NewEngine()

	b := e.Calculate(input("100", "2", at(tuesday, 23), db.VehicleElectric, "80"))
	assertDec(t, "0.05", b.EVBonus, "ev bonus")
	assertDec(t, "0.05", b.TotalDiscount, "total discount")
	// 200 * 0.8 * 1.2 * 0.95
	assert.Equal(t, "182.40", b.FinalAmount.StringFixed(2))

	noBonus := e.Calculate(input("100", "2", at(saturday, 12), db.VehicleHybrid, "80"))
	assert.Equal(t, LabelSpecialPeak, noBonus.TimeLabel)
	assertDec(t, "0", noBonus.EVBonus, "no bonus outside off-peak label")
}

func TestCalculate_DurationDiscountTiers(t *testing.T) {
	e := NewEngine()
	cases := []struct {
		hours string
		vc    db.VehicleClass
		want  string
	}{
		{"2.99", db.VehicleSedan, "0"},
		{"3", db.VehicleSedan, "0.1"},
		{"5.5", db.VehicleSedan, "0.1"},
		{"6", db.VehicleSedan, "0.2"},
		{"23.9", db.VehicleSedan, "0.2"},
		{"24", db.VehicleSedan, "0.3"},
		{"30", db.VehicleSports, "0.1"},
		{"30", db.VehicleHyperSports, "0.1"},
		{"2", db.VehicleSports, "0"},
	}
	for _, tc := range cases {
		b := e.Calculate(input("10", tc.hours, at(tuesday, 13), tc.vc, "90"))
		assertDec(t, tc.want, b.DurationDiscount, tc.hours+"h "+string(tc.vc))
	}
}

func TestCalculate_DemandMultiplier(t *testing.T) {
	e := NewEngine()
	cases := []struct {
		availability string
		vc           db.VehicleClass
		want         string
	}{
		{"80", db.VehicleSedan, "1"},
		{"50", db.VehicleSedan, "1.1"},
		{"31", db.VehicleSedan, "1.1"},
		{"30", db.VehicleSedan, "1.2"},
		{"10", db.VehicleSedan, "1.35"},
		{"0", db.VehicleSedan, "1.35"},
		{"19.9", db.VehicleSports, "1.5"},
		{"5", db.VehicleHyperSports, "1.5"},
		{"20", db.VehicleSports, "1.2"},
		{"15", db.VehicleHatchback, "1.2"},
	}
	for _, tc := range cases {
		b := e.Calculate(input("10", "1", at(tuesday, 13), tc.vc, tc.availability))
		assertDec(t, tc.want, b.DemandMultiplier, tc.availability+"% "+string(tc.vc))
	}
}

func TestCalculate_ComposedWeekdayPeak(t *testing.T) {
	e := NewEngine()

	b := e.Calculate(input("100", "4", at(tuesday, 9), db.VehicleHatchback, "40"))

	// 400 * 1.25 * 1.0 * 1.1 * 0.9
	assert.Equal(t, "495.00", b.FinalAmount.StringFixed(2))
	assertDec(t, "0.1", b.TotalSurcharge, "total surcharge")
}

func TestCalculate_UnknownVehicleClassDefaultsToOne(t *testing.T) {
	e := NewEngine()

	b := e.Calculate(input("100", "1", at(tuesday, 13), db.VehicleClassNone, "90"))
	assertDec(t, "1", b.VehicleMultiplier, "unspecified")
	assertDec(t, "1", e.VehicleMultiplier(db.VehicleClass("tractor")), "unlisted")
}

func TestCalculate_UsesConfiguredLocation(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)
	e := NewEngine(WithLocation(loc))

	// 18:00 UTC on a Friday is 23:00 Friday at UTC+5.
	b := e.Calculate(input("100", "1", time.Date(2025, 2, 28, 18, 0, 0, 0, time.UTC), db.VehicleSedan, "90"))
	assert.Equal(t, LabelOffPeak, b.TimeLabel)
	assert.Same(t, loc, e.Location())
}

func TestCalculate_Deterministic(t *testing.T) {
	e := NewEngine()
	in := input("87.35", "7.25", at(saturday, 17), db.VehicleElectric, "27.5")

	first, err := json.Marshal(e.Calculate(in))
	require.NoError(t, err)
	second, err := json.Marshal(e.Calculate(in))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

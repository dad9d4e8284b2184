package service

import (
	"testing"
	"time"

	"currentcost2mqtt/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nightTariff(t *testing.T, window string) *TariffCalculator {
	w, err := domain.ParseNightWindow(window)
	require.NoError(t, err)
	return &TariffCalculator{
		Currency:       "£",
		Rate1:          13.9,
		Rate1Threshold: 900,
		Rate2:          8.2,
		NightRate:      5.0,
		Window:         &w,
	}
}

func at(hour, min int) time.Time {
	return time.Date(2026, time.March, 14, hour, min, 0, 0, time.UTC)
}

func TestNightWindowWrapsAroundMidnight(t *testing.T) {
	tariff := nightTariff(t, "23:30-06:30")

	assert.True(t, tariff.IsNightRate(at(23, 45)))
	assert.True(t, tariff.IsNightRate(at(2, 0)))
	assert.False(t, tariff.IsNightRate(at(12, 0)))
	// window edges are inclusive
	assert.True(t, tariff.IsNightRate(at(23, 30)))
	assert.True(t, tariff.IsNightRate(at(6, 30)))
	assert.False(t, tariff.IsNightRate(at(6, 31)))
}

func TestNightRateDisabledWithoutWindow(t *testing.T) {
	tariff := &TariffCalculator{Rate1: 13.9}

	assert.False(t, tariff.NightRateEnabled())
	assert.False(t, tariff.IsNightRate(at(23, 45)))
	assert.Equal(t, domain.BandDay, tariff.Band(at(23, 45)))
}

func TestParseNightWindowRejectsMalformed(t *testing.T) {
	for _, window := range []string{"", "23:30", "25:00-06:30", "23:30-06:70", "half past-six"} {
		_, err := domain.ParseNightWindow(window)
		assert.Error(t, err, window)
	}
}

func TestMonthlyCostTieredRates(t *testing.T) {
	tariff := &TariffCalculator{
		Currency:       "£",
		Rate1:          13.9,
		Rate1Threshold: 900,
		Rate2:          8.2,
	}

	// 1000 kWh: 900 at rate1, 100 at rate2
	cost := tariff.MonthlyCost(domain.ChannelAccumulator{ChannelID: 1, Monthly: 1000000})

	assert.InDelta(t, 133.30, cost.Cost, 1e-9)
	assert.Equal(t, 1000.0, cost.UsageKWh)
	assert.Equal(t, "£", cost.Currency)
	assert.Nil(t, cost.NightUsageKWh)
}

func TestMonthlyCostBelowThreshold(t *testing.T) {
	tariff := &TariffCalculator{Rate1: 13.9, Rate1Threshold: 900, Rate2: 8.2}

	cost := tariff.MonthlyCost(domain.ChannelAccumulator{ChannelID: 1, Monthly: 100000})

	assert.InDelta(t, 13.90, cost.Cost, 1e-9)
}

func TestMonthlyCostWithNightUsageAndStandingCharge(t *testing.T) {
	tariff := nightTariff(t, "23:30-06:30")
	tariff.StandingCharge = 30

	night := 100000.0 // 100 kWh at the night rate
	cost := tariff.MonthlyCost(domain.ChannelAccumulator{
		ChannelID:    1,
		Monthly:      1000000,
		NightMonthly: &night,
	})

	require.NotNil(t, cost.NightUsageKWh)
	assert.Equal(t, 100.0, *cost.NightUsageKWh)
	assert.InDelta(t, (30+100*5.0+900*13.9+100*8.2)/100, cost.Cost, 1e-9)
}

package service

import (
	"time"

	"currentcost2mqtt/internal/core/domain"
)

// TariffCalculator prices monthly channel usage. Rates are in
// minor-currency-unit hundredths per kWh; accumulators are in the
// monitor's native unit·hours (Wh-equivalent), converted here.
type TariffCalculator struct {
	Currency       string
	Rate1          float64
	Rate1Threshold float64
	Rate2          float64
	NightRate      float64
	StandingCharge float64
	// Window is only set when the night rate is enabled
	Window *domain.NightWindow
}

func (t *TariffCalculator) NightRateEnabled() bool {
	return t.NightRate != 0 && t.Window != nil
}

// IsNightRate reports whether now falls inside the configured night
// window. Always false when the night rate is disabled.
func (t *TariffCalculator) IsNightRate(now time.Time) bool {
	if !t.NightRateEnabled() {
		return false
	}
	return t.Window.Contains(now)
}

// Band returns the accumulator band the tariff selects for now.
func (t *TariffCalculator) Band(now time.Time) domain.Band {
	if t.IsNightRate(now) {
		return domain.BandNight
	}
	return domain.BandDay
}

// MonthlyCost estimates the month-to-date cost of one channel. Night
// consumption is billed entirely at the night rate; the day kWh go
// through the tiered rate1/rate2 split.
func (t *TariffCalculator) MonthlyCost(acc domain.ChannelAccumulator) domain.ChannelCost {
	dayKWh := acc.Monthly / 1000
	cost := t.StandingCharge

	var nightUsage *float64
	if t.NightRateEnabled() && acc.NightMonthly != nil {
		nightKWh := *acc.NightMonthly / 1000
		nightUsage = &nightKWh
		cost += nightKWh * t.NightRate
	}

	if dayKWh <= t.Rate1Threshold {
		cost += dayKWh * t.Rate1
	} else {
		cost += (dayKWh-t.Rate1Threshold)*t.Rate2 + t.Rate1Threshold*t.Rate1
	}

	return domain.ChannelCost{
		ChannelID:     acc.ChannelID,
		Cost:          cost / 100,
		Currency:      t.Currency,
		UsageKWh:      dayKWh,
		NightUsageKWh: nightUsage,
	}
}

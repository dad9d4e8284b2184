package domain

import (
	"time"

	"currentcost2mqtt/pkg/currentcost"
)

// SamplesPerHour is the assumed monitor report rate. Each poll adds
// value/SamplesPerHour to an accumulator, approximating an energy
// integral in the reading's native unit·hours.
const SamplesPerHour = 12

type Period int

const (
	PeriodDaily Period = iota
	PeriodMonthly
	PeriodYearly
)

func (p Period) String() string {
	switch p {
	case PeriodDaily:
		return "daily"
	case PeriodMonthly:
		return "monthly"
	case PeriodYearly:
		return "yearly"
	}
	return "unknown"
}

// Periods lists every period kind, in rollover order.
var Periods = []Period{PeriodDaily, PeriodMonthly, PeriodYearly}

type Band int

const (
	BandDay Band = iota
	BandNight
)

func (b Band) String() string {
	if b == BandNight {
		return "night"
	}
	return "day"
}

// ChannelAccumulator tracks one channel's energy usage across the
// rolling calendar periods. The night fields are only populated when a
// night-rate tariff is configured; they stay nil otherwise.
type ChannelAccumulator struct {
	ChannelID    int      `json:"channel_id"`
	Daily        float64  `json:"daily"`
	Monthly      float64  `json:"monthly"`
	Yearly       float64  `json:"yearly"`
	NightDaily   *float64 `json:"night_daily,omitempty"`
	NightMonthly *float64 `json:"night_monthly,omitempty"`
	NightYearly  *float64 `json:"night_yearly,omitempty"`
}

// Value returns the accumulator field for the given period and band.
// The bool reports whether the field was present (night fields are
// optional).
func (a *ChannelAccumulator) Value(p Period, b Band) (float64, bool) {
	if b == BandDay {
		switch p {
		case PeriodDaily:
			return a.Daily, true
		case PeriodMonthly:
			return a.Monthly, true
		case PeriodYearly:
			return a.Yearly, true
		}
		return 0, false
	}
	var field *float64
	switch p {
	case PeriodDaily:
		field = a.NightDaily
	case PeriodMonthly:
		field = a.NightMonthly
	case PeriodYearly:
		field = a.NightYearly
	}
	if field == nil {
		return 0, false
	}
	return *field, true
}

func (a *ChannelAccumulator) SetValue(p Period, b Band, value float64) {
	if b == BandDay {
		switch p {
		case PeriodDaily:
			a.Daily = value
		case PeriodMonthly:
			a.Monthly = value
		case PeriodYearly:
			a.Yearly = value
		}
		return
	}
	switch p {
	case PeriodDaily:
		a.NightDaily = &value
	case PeriodMonthly:
		a.NightMonthly = &value
	case PeriodYearly:
		a.NightYearly = &value
	}
}

// SensorRecord pairs the last reading of a sensor with the accumulators
// of its channels, in channel order.
type SensorRecord struct {
	Reading      currentcost.SensorReading `json:"reading"`
	Accumulators []ChannelAccumulator      `json:"accumulators"`
}

func (r SensorRecord) Accumulator(channelID int) *ChannelAccumulator {
	for i := range r.Accumulators {
		if r.Accumulators[i].ChannelID == channelID {
			return &r.Accumulators[i]
		}
	}
	return nil
}

// Snapshot is the unit of durable state between polls.
type Snapshot struct {
	Timestamp time.Time            `json:"timestamp"`
	Sensors   map[int]SensorRecord `json:"sensors"`
}

// ChannelCost is the derived monthly cost estimate for one channel.
// Costs are recomputed from the accumulators on every poll and never
// persisted.
type ChannelCost struct {
	ChannelID     int      `json:"channel_id"`
	Cost          float64  `json:"cost"`
	Currency      string   `json:"currency"`
	UsageKWh      float64  `json:"usage_kwh"`
	NightUsageKWh *float64 `json:"night_usage_kwh,omitempty"`
}

// PollResult is the combined snapshot handed to the reporting boundary.
type PollResult struct {
	Snapshot Snapshot              `json:"snapshot"`
	Costs    map[int][]ChannelCost `json:"costs,omitempty"`
	// Stale is true when the stored snapshot was still fresh and no
	// device read was performed.
	Stale bool `json:"stale"`
	// DeviceWarning carries a recovered device failure. The snapshot is
	// the last good one in that case.
	DeviceWarning string `json:"device_warning,omitempty"`
}

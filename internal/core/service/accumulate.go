package service

import (
	"time"

	"currentcost2mqtt/internal/core/domain"
	"currentcost2mqtt/pkg/currentcost"
)

// Merge folds a fresh reading batch into the previous snapshot's
// accumulators, rolling each calendar period over at most once.
//
// Only the band selected by the tariff for `now` (day or night) is
// rolled and accumulated; the opposite band is carried forward
// untouched until a later poll lands in it. Channels present in prev
// but absent from fresh are dropped, which reflects a sensor going
// offline. Merge never mutates prev, so a failed save cannot corrupt
// the last good snapshot.
func Merge(prev *domain.Snapshot, fresh []currentcost.SensorReading, now time.Time, band domain.Band) domain.Snapshot {
	merged := domain.Snapshot{
		Timestamp: now,
		Sensors:   make(map[int]domain.SensorRecord, len(fresh)),
	}

	for _, reading := range fresh {
		var prevRecord *domain.SensorRecord
		if prev != nil {
			if record, ok := prev.Sensors[reading.SensorID]; ok {
				prevRecord = &record
			}
		}

		record := domain.SensorRecord{
			Reading:      reading,
			Accumulators: make([]domain.ChannelAccumulator, 0, len(reading.Channels)),
		}
		for _, channel := range reading.Channels {
			var prevAcc *domain.ChannelAccumulator
			if prevRecord != nil {
				prevAcc = prevRecord.Accumulator(channel.ChannelID)
			}
			record.Accumulators = append(record.Accumulators,
				mergeChannel(prevAcc, channel, prev, now, band))
		}
		merged.Sensors[reading.SensorID] = record
	}

	return merged
}

func mergeChannel(prevAcc *domain.ChannelAccumulator, channel currentcost.ChannelReading,
	prev *domain.Snapshot, now time.Time, band domain.Band) domain.ChannelAccumulator {

	acc := domain.ChannelAccumulator{ChannelID: channel.ChannelID}
	if prevAcc != nil {
		// carry every band forward; the selected one is overwritten below
		acc = cloneAccumulator(*prevAcc)
	}

	contribution := channel.Value / domain.SamplesPerHour

	for _, period := range domain.Periods {
		value := contribution
		if prev != nil && prevAcc != nil {
			if prevValue, ok := prevAcc.Value(period, band); ok && !newPeriod(period, now, prev.Timestamp) {
				value = prevValue + contribution
			}
		}
		acc.SetValue(period, band, value)
	}
	return acc
}

// newPeriod compares the calendar field attached to the period kind. A
// missing previous snapshot never counts as a new period; that is the
// natural zero-state case.
func newPeriod(period domain.Period, now, prev time.Time) bool {
	switch period {
	case domain.PeriodDaily:
		return now.Day() != prev.Day()
	case domain.PeriodMonthly:
		return now.Month() != prev.Month()
	case domain.PeriodYearly:
		return now.Year() != prev.Year()
	}
	return false
}

func cloneAccumulator(acc domain.ChannelAccumulator) domain.ChannelAccumulator {
	clone := acc
	clone.NightDaily = clonePtr(acc.NightDaily)
	clone.NightMonthly = clonePtr(acc.NightMonthly)
	clone.NightYearly = clonePtr(acc.NightYearly)
	return clone
}

func clonePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

package service

import (
	"testing"
	"time"

	"currentcost2mqtt/internal/core/domain"
	"currentcost2mqtt/pkg/currentcost"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reading(sensorID int, values ...float64) currentcost.SensorReading {
	r := currentcost.SensorReading{SensorID: sensorID}
	for i, v := range values {
		r.Channels = append(r.Channels, currentcost.ChannelReading{
			ChannelID: i + 1,
			Unit:      "watts",
			Value:     v,
		})
	}
	return r
}

func snapshotWith(ts time.Time, sensorID int, acc domain.ChannelAccumulator) *domain.Snapshot {
	return &domain.Snapshot{
		Timestamp: ts,
		Sensors: map[int]domain.SensorRecord{
			sensorID: {
				Reading:      reading(sensorID, 0),
				Accumulators: []domain.ChannelAccumulator{acc},
			},
		},
	}
}

func TestMergeAccumulatesWithinPeriod(t *testing.T) {
	require := require.New(t)

	now := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)
	prev := snapshotWith(now.Add(-5*time.Minute), 0, domain.ChannelAccumulator{
		ChannelID: 1, Daily: 10, Monthly: 20, Yearly: 30,
	})

	merged := Merge(prev, []currentcost.SensorReading{reading(0, 120)}, now, domain.BandDay)

	acc := merged.Sensors[0].Accumulator(1)
	require.NotNil(acc)
	assert.InDelta(t, 10+120.0/12, acc.Daily, 1e-9)
	assert.InDelta(t, 20+120.0/12, acc.Monthly, 1e-9)
	assert.InDelta(t, 30+120.0/12, acc.Yearly, 1e-9)
	assert.Equal(t, now, merged.Timestamp)
}

func TestMergeMonthRolloverResetsExactly(t *testing.T) {
	require := require.New(t)

	prevTime := time.Date(2026, time.February, 28, 23, 50, 0, 0, time.UTC)
	now := time.Date(2026, time.March, 1, 0, 5, 0, 0, time.UTC)
	prev := snapshotWith(prevTime, 0, domain.ChannelAccumulator{
		ChannelID: 1, Daily: 10, Monthly: 500, Yearly: 900,
	})

	merged := Merge(prev, []currentcost.SensorReading{reading(0, 120)}, now, domain.BandDay)

	acc := merged.Sensors[0].Accumulator(1)
	require.NotNil(acc)
	// day and month rolled over, year did not
	assert.Equal(t, 120.0/12, acc.Daily)
	assert.Equal(t, 120.0/12, acc.Monthly)
	assert.InDelta(t, 900+120.0/12, acc.Yearly, 1e-9)
}

func TestMergeYearRollover(t *testing.T) {
	prevTime := time.Date(2025, time.December, 31, 23, 55, 0, 0, time.UTC)
	now := time.Date(2026, time.January, 1, 0, 5, 0, 0, time.UTC)
	prev := snapshotWith(prevTime, 0, domain.ChannelAccumulator{
		ChannelID: 1, Daily: 10, Monthly: 500, Yearly: 900,
	})

	merged := Merge(prev, []currentcost.SensorReading{reading(0, 60)}, now, domain.BandDay)

	acc := merged.Sensors[0].Accumulator(1)
	require.NotNil(t, acc)
	assert.Equal(t, 5.0, acc.Daily)
	assert.Equal(t, 5.0, acc.Monthly)
	assert.Equal(t, 5.0, acc.Yearly)
}

func TestMergeFirstRunStartsFromZero(t *testing.T) {
	now := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)

	merged := Merge(nil, []currentcost.SensorReading{reading(0, 120)}, now, domain.BandDay)

	acc := merged.Sensors[0].Accumulator(1)
	require.NotNil(t, acc)
	assert.Equal(t, 10.0, acc.Daily)
	assert.Equal(t, 10.0, acc.Monthly)
	assert.Equal(t, 10.0, acc.Yearly)
	assert.Nil(t, acc.NightDaily)
}

func TestMergeNightBandLeavesDayUntouched(t *testing.T) {
	require := require.New(t)

	now := time.Date(2026, time.March, 14, 23, 45, 0, 0, time.UTC)
	prev := snapshotWith(now.Add(-5*time.Minute), 0, domain.ChannelAccumulator{
		ChannelID: 1, Daily: 10, Monthly: 20, Yearly: 30,
	})

	merged := Merge(prev, []currentcost.SensorReading{reading(0, 120)}, now, domain.BandNight)

	acc := merged.Sensors[0].Accumulator(1)
	require.NotNil(acc)
	assert.Equal(t, 10.0, acc.Daily)
	assert.Equal(t, 20.0, acc.Monthly)
	require.NotNil(acc.NightDaily)
	require.NotNil(acc.NightMonthly)
	assert.Equal(t, 10.0, *acc.NightDaily)
	assert.Equal(t, 10.0, *acc.NightMonthly)
}

func TestMergeNightBandAccumulates(t *testing.T) {
	require := require.New(t)

	now := time.Date(2026, time.March, 14, 23, 45, 0, 0, time.UTC)
	nd, nm, ny := 3.0, 4.0, 5.0
	prev := snapshotWith(now.Add(-5*time.Minute), 0, domain.ChannelAccumulator{
		ChannelID: 1, Daily: 10, Monthly: 20, Yearly: 30,
		NightDaily: &nd, NightMonthly: &nm, NightYearly: &ny,
	})

	merged := Merge(prev, []currentcost.SensorReading{reading(0, 120)}, now, domain.BandNight)

	acc := merged.Sensors[0].Accumulator(1)
	require.NotNil(acc)
	require.NotNil(acc.NightDaily)
	assert.InDelta(t, 13.0, *acc.NightDaily, 1e-9)
	assert.InDelta(t, 14.0, *acc.NightMonthly, 1e-9)
	assert.InDelta(t, 15.0, *acc.NightYearly, 1e-9)
	// previous snapshot's pointers must not be shared
	assert.Equal(t, 3.0, nd)
}

func TestMergeDropsChannelsAbsentFromFresh(t *testing.T) {
	now := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)
	prev := &domain.Snapshot{
		Timestamp: now.Add(-5 * time.Minute),
		Sensors: map[int]domain.SensorRecord{
			0: {
				Reading: reading(0, 100, 200),
				Accumulators: []domain.ChannelAccumulator{
					{ChannelID: 1, Daily: 1},
					{ChannelID: 2, Daily: 2},
				},
			},
			7: {
				Reading:      reading(7, 50),
				Accumulators: []domain.ChannelAccumulator{{ChannelID: 1, Daily: 9}},
			},
		},
	}

	// sensor 7 went offline, sensor 0 only reports channel 1
	merged := Merge(prev, []currentcost.SensorReading{reading(0, 100)}, now, domain.BandDay)

	assert.Len(t, merged.Sensors, 1)
	assert.Len(t, merged.Sensors[0].Accumulators, 1)
	assert.Nil(t, merged.Sensors[0].Accumulator(2))
}

func TestMergeNewChannelStartsFreshWithoutRollover(t *testing.T) {
	require := require.New(t)

	// previous snapshot is from last month, but the new channel must
	// not be affected by the rollover of others
	prevTime := time.Date(2026, time.February, 14, 12, 0, 0, 0, time.UTC)
	now := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)
	prev := snapshotWith(prevTime, 0, domain.ChannelAccumulator{
		ChannelID: 1, Daily: 10, Monthly: 20, Yearly: 30,
	})

	merged := Merge(prev, []currentcost.SensorReading{reading(0, 120, 240)}, now, domain.BandDay)

	fresh := merged.Sensors[0].Accumulator(2)
	require.NotNil(fresh)
	assert.Equal(t, 20.0, fresh.Daily)
	assert.Equal(t, 20.0, fresh.Monthly)
	assert.InDelta(t, 30+10.0, merged.Sensors[0].Accumulator(1).Yearly, 1e-9)
}

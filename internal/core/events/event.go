package events

import (
	. "currentcost2mqtt/internal/core/domain"
)

// PollResultToUpdateEvents flattens one poll into per-entity sensor
// update events, one per power channel, accumulator value, cost and
// temperature reading.
func PollResultToUpdateEvents(result *PollResult) []any {
	var events []any

	for sensorID, record := range result.Snapshot.Sensors {
		for _, channel := range record.Reading.Channels {
			// Instantaneous power
			events = append(events, FloatSensorUpdateEvent{
				SensorUpdateEventMixIn: SensorUpdateEventMixIn{
					Id: PowerSensorId(sensorID, channel.ChannelID),
				},
				Value:    channel.Value,
				Decimals: 0,
			})
		}
		for _, acc := range record.Accumulators {
			events = append(events, accumulatorToUpdateEvents(sensorID, acc)...)
		}
		for _, cost := range result.Costs[sensorID] {
			events = append(events, FloatSensorUpdateEvent{
				SensorUpdateEventMixIn: SensorUpdateEventMixIn{
					Id: CostSensorId(sensorID, cost.ChannelID),
				},
				Value:    cost.Cost,
				Decimals: 2,
			})
		}
		if record.Reading.Temperature != nil {
			events = append(events, FloatSensorUpdateEvent{
				SensorUpdateEventMixIn: SensorUpdateEventMixIn{
					Id: TemperatureSensorId(sensorID),
				},
				Value:    *record.Reading.Temperature,
				Decimals: 1,
			})
		}
	}

	return events
}

func accumulatorToUpdateEvents(sensorID int, acc ChannelAccumulator) []any {
	var events []any

	for _, period := range Periods {
		// Day band always exists
		if value, ok := acc.Value(period, BandDay); ok {
			events = append(events, FloatSensorUpdateEvent{
				SensorUpdateEventMixIn: SensorUpdateEventMixIn{
					Id: EnergySensorId(sensorID, acc.ChannelID, period, BandDay),
				},
				Value:    value,
				Decimals: 2,
			})
		}
		if value, ok := acc.Value(period, BandNight); ok {
			events = append(events, FloatSensorUpdateEvent{
				SensorUpdateEventMixIn: SensorUpdateEventMixIn{
					Id: EnergySensorId(sensorID, acc.ChannelID, period, BandNight),
				},
				Value:    value,
				Decimals: 2,
			})
		}
	}

	return events
}

package currentcost

import "errors"

func CreateTestCycleReader() (CycleReader, error) {
	return &TestCycleReader{}, nil
}

// TestCycleReader serves canned readings without a device attached.
type TestCycleReader struct {
	// Readings returned by each ReadCycle call. When nil, a default
	// two-sensor cycle is served.
	Readings []SensorReading
	// FailReads makes ReadCycle fail with a DeviceError
	FailReads bool
	// ReadCalls counts ReadCycle invocations
	ReadCalls int
}

func (reader *TestCycleReader) Open() error {
	return nil
}

func (reader *TestCycleReader) Close() error {
	return nil
}

func (reader *TestCycleReader) ReadCycle() ([]SensorReading, error) {
	reader.ReadCalls++
	if reader.FailReads {
		return nil, &DeviceError{Op: "read", Err: errors.New("test device unavailable")}
	}
	if reader.Readings != nil {
		return reader.Readings, nil
	}
	temp := 18.7
	return []SensorReading{
		{
			SensorID:    WholeHouseSensorID,
			Source:      "CC128-v0.11",
			Temperature: &temp,
			Channels: []ChannelReading{
				{ChannelID: 1, Unit: "watts", Value: 345},
				{ChannelID: 2, Unit: "watts", Value: 120},
			},
		},
		{
			SensorID: 1,
			Channels: []ChannelReading{
				{ChannelID: 1, Unit: "watts", Value: 60},
			},
		},
	}, nil
}

var _ CycleReader = (*TestCycleReader)(nil)
